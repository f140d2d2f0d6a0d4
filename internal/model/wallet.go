package model

import (
	"time"

	"github.com/google/uuid"
)

// TransactionType marks the direction of a ledger entry
type TransactionType string

const (
	TransactionCredit TransactionType = "credit"
	TransactionDebit  TransactionType = "debit"
)

// Wallet is the coin balance of a single user. The balance is only ever
// changed together with an appended CoinTransaction, inside one database
// transaction with a non-negative guard.
type Wallet struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UserID    uuid.UUID `json:"user_id" gorm:"type:uuid;not null;uniqueIndex"`
	Balance   int64     `json:"balance" gorm:"not null;default:0"` // coins, smallest unit
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CoinTransaction is one immutable ledger entry. Amount is always positive;
// the direction lives in Type.
type CoinTransaction struct {
	ID        uuid.UUID       `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	WalletID  uuid.UUID       `json:"wallet_id" gorm:"type:uuid;not null;index"`
	Type      TransactionType `json:"type" gorm:"size:10;not null"`
	Amount    int64           `json:"amount" gorm:"not null"`
	Reference string          `json:"reference" gorm:"size:100;default:''"` // e.g. order id, topup id
	Note      string          `json:"note" gorm:"size:255;default:''"`
	CreatedAt time.Time       `json:"created_at"`
}
