package service

import (
	"errors"
	"fmt"

	"github.com/adityarh/antarin/internal/model"
	"github.com/adityarh/antarin/internal/repository"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// WalletStore is the persistence collaborator for the coin wallet
type WalletStore interface {
	Create(wallet *model.Wallet) error
	FindByUserID(userID uuid.UUID) (*model.Wallet, error)
	Apply(walletID uuid.UUID, txType model.TransactionType, amount int64, reference, note string) error
	ListTransactions(walletID uuid.UUID, limit, offset int) ([]model.CoinTransaction, error)
}

// WalletService manages coin balances and the transaction ledger
type WalletService struct {
	walletRepo WalletStore
}

func NewWalletService(walletRepo WalletStore) *WalletService {
	return &WalletService{walletRepo: walletRepo}
}

// GetWallet returns a user's wallet, opening one on first access
func (s *WalletService) GetWallet(userID uuid.UUID) (*model.Wallet, error) {
	wallet, err := s.walletRepo.FindByUserID(userID)
	if err == nil {
		return wallet, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	wallet = &model.Wallet{UserID: userID, Balance: 0}
	if err := s.walletRepo.Create(wallet); err != nil {
		return nil, fmt.Errorf("failed to open wallet: %w", err)
	}
	return wallet, nil
}

// TopUp credits coins to a user's wallet (admin action; no payment gateway)
func (s *WalletService) TopUp(req model.TopUpRequest) (*model.Wallet, error) {
	wallet, err := s.GetWallet(req.UserID)
	if err != nil {
		return nil, err
	}
	if err := s.walletRepo.Apply(wallet.ID, model.TransactionCredit, req.Amount, "topup", req.Note); err != nil {
		return nil, err
	}
	return s.walletRepo.FindByUserID(req.UserID)
}

// Debit withdraws coins, guarded against a negative balance
func (s *WalletService) Debit(userID uuid.UUID, amount int64, reference, note string) error {
	wallet, err := s.GetWallet(userID)
	if err != nil {
		return err
	}
	if err := s.walletRepo.Apply(wallet.ID, model.TransactionDebit, amount, reference, note); err != nil {
		if errors.Is(err, repository.ErrWalletGuard) {
			return ErrInsufficientBalance
		}
		return err
	}
	return nil
}

// Credit deposits coins
func (s *WalletService) Credit(userID uuid.UUID, amount int64, reference, note string) error {
	wallet, err := s.GetWallet(userID)
	if err != nil {
		return err
	}
	return s.walletRepo.Apply(wallet.ID, model.TransactionCredit, amount, reference, note)
}

// HasBalance reports whether the user can cover the given amount
func (s *WalletService) HasBalance(userID uuid.UUID, amount int64) (bool, error) {
	wallet, err := s.GetWallet(userID)
	if err != nil {
		return false, err
	}
	return wallet.Balance >= amount, nil
}

// Transactions returns a page of the user's ledger, newest first
func (s *WalletService) Transactions(userID uuid.UUID, limit, offset int) ([]model.CoinTransaction, error) {
	wallet, err := s.GetWallet(userID)
	if err != nil {
		return nil, err
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.walletRepo.ListTransactions(wallet.ID, limit, offset)
}
