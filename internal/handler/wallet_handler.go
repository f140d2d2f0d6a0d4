package handler

import (
	"net/http"

	"github.com/adityarh/antarin/internal/model"
	"github.com/adityarh/antarin/internal/service"
	"github.com/gin-gonic/gin"
)

// WalletHandler handles coin wallet endpoints
type WalletHandler struct {
	walletService *service.WalletService
}

func NewWalletHandler(walletService *service.WalletService) *WalletHandler {
	return &WalletHandler{walletService: walletService}
}

// GetWallet godoc
// @Summary Get the current user's coin balance
// @Tags Wallet
// @Security BearerAuth
// @Produce json
// @Success 200 {object} model.WalletResponse
// @Router /wallet [get]
func (h *WalletHandler) GetWallet(c *gin.Context) {
	wallet, err := h.walletService.GetWallet(currentUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, model.WalletResponse{WalletID: wallet.ID, Balance: wallet.Balance})
}

// ListTransactions godoc
// @Summary List coin transactions for the current user
// @Tags Wallet
// @Security BearerAuth
// @Produce json
// @Param limit query int false "Page size" default(20)
// @Param offset query int false "Offset" default(0)
// @Success 200 {array} model.CoinTransaction
// @Router /wallet/transactions [get]
func (h *WalletHandler) ListTransactions(c *gin.Context) {
	var req model.TransactionListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: "Invalid request", Message: err.Error()})
		return
	}

	txs, err := h.walletService.Transactions(currentUserID(c), req.Limit, req.Offset)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, txs)
}

// TopUp godoc
// @Summary Credit coins to a user's wallet (admin only)
// @Tags Wallet
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param body body model.TopUpRequest true "Top up request"
// @Success 200 {object} model.WalletResponse
// @Failure 404 {object} model.ErrorResponse
// @Router /admin/wallet/topup [post]
func (h *WalletHandler) TopUp(c *gin.Context) {
	var req model.TopUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: "Invalid request", Message: err.Error()})
		return
	}

	wallet, err := h.walletService.TopUp(req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, model.WalletResponse{WalletID: wallet.ID, Balance: wallet.Balance})
}
