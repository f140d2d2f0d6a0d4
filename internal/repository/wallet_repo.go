package repository

import (
	"errors"

	"github.com/adityarh/antarin/internal/model"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ErrWalletGuard is returned when a conditional balance update affects no rows,
// which means the balance would have gone negative.
var ErrWalletGuard = errors.New("wallet balance guard rejected update")

// WalletRepository handles the coin wallet and its ledger
type WalletRepository struct {
	db *gorm.DB
}

func NewWalletRepository(db *gorm.DB) *WalletRepository {
	return &WalletRepository{db: db}
}

// Create opens a wallet for a user
func (r *WalletRepository) Create(wallet *model.Wallet) error {
	return r.db.Create(wallet).Error
}

// FindByUserID returns the wallet of a user
func (r *WalletRepository) FindByUserID(userID uuid.UUID) (*model.Wallet, error) {
	var wallet model.Wallet
	err := r.db.Where("user_id = ?", userID).First(&wallet).Error
	if err != nil {
		return nil, err
	}
	return &wallet, nil
}

// Apply credits or debits a wallet and appends the matching ledger entry in one
// database transaction. Debits are guarded so the balance never goes negative.
func (r *WalletRepository) Apply(walletID uuid.UUID, txType model.TransactionType, amount int64, reference, note string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		delta := amount
		q := tx.Model(&model.Wallet{}).Where("id = ?", walletID)
		if txType == model.TransactionDebit {
			delta = -amount
			q = q.Where("balance >= ?", amount)
		}
		res := q.Update("balance", gorm.Expr("balance + ?", delta))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrWalletGuard
		}

		entry := model.CoinTransaction{
			WalletID:  walletID,
			Type:      txType,
			Amount:    amount,
			Reference: reference,
			Note:      note,
		}
		return tx.Create(&entry).Error
	})
}

// ListTransactions returns the ledger of a wallet, newest first
func (r *WalletRepository) ListTransactions(walletID uuid.UUID, limit, offset int) ([]model.CoinTransaction, error) {
	var entries []model.CoinTransaction
	err := r.db.
		Where("wallet_id = ?", walletID).
		Order("created_at DESC").
		Limit(limit).Offset(offset).
		Find(&entries).Error
	return entries, err
}
