package port

import (
	"context"

	"github.com/Imanilom/baraja-coffe-sub000/internal/core/domain"
)

type LoyaltyRepository interface {
	// GetProgram retrieves the loyalty program for an outlet; nil when the
	// outlet runs no program.
	GetProgram(ctx context.Context, outletID string) (*domain.LoyaltyProgram, error)

	// GetAccount retrieves a customer's account; nil when the customer has none.
	GetAccount(ctx context.Context, customerID string) (*domain.LoyaltyAccount, error)

	// DebitPoints decreases a balance, conditioned on balance >= points so a
	// concurrent redemption cannot overdraw. Returns the stored balance
	// after the debit; ok is false when the condition fails.
	DebitPoints(ctx context.Context, customerID string, points int) (balance int, ok bool, err error)

	// CreditPoints adds earned points and persists tier/first-transaction
	// changes computed by the ledger.
	CreditPoints(ctx context.Context, account domain.LoyaltyAccount, points int) error
}
