package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/Imanilom/baraja-coffe-sub000/internal/core/domain"
	"github.com/Imanilom/baraja-coffe-sub000/internal/port"
)

const (
	loyaltyIdempotencyTTL = 24 * time.Hour

	redeemKeyPrefix = "loyalty:redeem:"
	accrueKeyPrefix = "loyalty:accrue:"
)

// LoyaltyLedger redeems and accrues customer points. Both operations are
// fail-open: a missing program, missing account or storage failure yields a
// zero result, never an error that blocks pricing. Each mutation is applied
// at most once per order id.
type LoyaltyLedger struct {
	accounts port.LoyaltyRepository
	cache    port.CacheRepository
	logger   *zap.Logger
}

func NewLoyaltyLedger(accounts port.LoyaltyRepository, cache port.CacheRepository, logger *zap.Logger) *LoyaltyLedger {
	return &LoyaltyLedger{accounts: accounts, cache: cache, logger: logger}
}

// RedeemResult reports the outcome of a redemption.
type RedeemResult struct {
	Discount       domain.Money
	PointsRedeemed int
	NewBalance     int
	Tier           string
}

// AccrueResult reports the outcome of an accrual.
type AccrueResult struct {
	PointsEarned int
	NewBalance   int
	Tier         string
}

// Redeem converts points into a discount against the pre-discount subtotal.
// Returns a zero result when no active program exists, the customer has no
// account, or the balance is insufficient.
func (l *LoyaltyLedger) Redeem(ctx context.Context, customerID string, points int, orderID, outletID string, subtotal domain.Money) RedeemResult {
	if customerID == "" || points <= 0 {
		return RedeemResult{}
	}

	program, account, ok := l.lookup(ctx, customerID, outletID)
	if !ok {
		return RedeemResult{}
	}
	if account.Balance < points {
		l.logger.Info("loyalty redemption skipped: insufficient balance",
			zap.String("customer_id", customerID),
			zap.Int("balance", account.Balance),
			zap.Int("requested", points))
		return RedeemResult{}
	}

	discount := domain.Money(points) * program.PointValue
	if discount > subtotal {
		discount = subtotal
	}

	fresh, err := l.cache.SetIdempotency(ctx, redeemKeyPrefix+orderID, loyaltyIdempotencyTTL)
	if err != nil {
		l.logger.Warn("loyalty redemption skipped: idempotency check failed",
			zap.String("order_id", orderID), zap.Error(err))
		return RedeemResult{}
	}
	balance := account.Balance
	if fresh {
		debited, ok, err := l.accounts.DebitPoints(ctx, customerID, points)
		if err != nil || !ok {
			// Release the key so a retry of this order can debit again;
			// otherwise the replay would grant a discount with no debit.
			if delErr := l.cache.DeleteIdempotency(ctx, redeemKeyPrefix+orderID); delErr != nil {
				l.logger.Error("loyalty redemption idempotency key not released",
					zap.String("order_id", orderID), zap.Error(delErr))
			}
			l.logger.Warn("loyalty redemption skipped: debit failed",
				zap.String("customer_id", customerID), zap.Error(err))
			return RedeemResult{}
		}
		balance = debited
	}

	return RedeemResult{
		Discount:       discount,
		PointsRedeemed: points,
		NewBalance:     balance,
		Tier:           account.Tier,
	}
}

// Accrue grants points on the post-discount, pre-tax amount, applies the
// one-time first-transaction bonus and walks the tier ladder, granting each
// tier-up bonus exactly once per transition.
func (l *LoyaltyLedger) Accrue(ctx context.Context, amount domain.Money, customerID, orderID, outletID string) AccrueResult {
	if customerID == "" || amount <= 0 {
		return AccrueResult{}
	}

	program, account, ok := l.lookup(ctx, customerID, outletID)
	if !ok {
		return AccrueResult{Tier: tierOf(account)}
	}
	if program.PointsPerUnit <= 0 {
		return AccrueResult{Tier: account.Tier}
	}

	fresh, err := l.cache.SetIdempotency(ctx, accrueKeyPrefix+orderID, loyaltyIdempotencyTTL)
	if err != nil {
		l.logger.Warn("loyalty accrual skipped: idempotency check failed",
			zap.String("order_id", orderID), zap.Error(err))
		return AccrueResult{Tier: account.Tier}
	}
	if !fresh {
		return AccrueResult{NewBalance: account.Balance, Tier: account.Tier}
	}

	earned := int(amount / program.PointsPerUnit)
	if account.FirstTransaction {
		earned += program.FirstTransactionBonus
		account.FirstTransaction = false
	}

	account.Balance += earned
	account.LifetimeEarned += earned

	// Walk tiers ascending; each threshold crossed grants its bonus once.
	for _, tier := range program.Tiers {
		if account.LifetimeEarned < tier.RequiredPoints {
			break
		}
		if tierRank(program, account.Tier) < tierRank(program, tier.Name) {
			account.Tier = tier.Name
			account.Balance += tier.Bonus
			account.LifetimeEarned += tier.Bonus
			l.logger.Info("loyalty tier promotion",
				zap.String("customer_id", customerID),
				zap.String("tier", tier.Name))
		}
	}

	if err := l.accounts.CreditPoints(ctx, *account, earned); err != nil {
		l.logger.Warn("loyalty accrual not persisted",
			zap.String("customer_id", customerID), zap.Error(err))
		return AccrueResult{Tier: account.Tier}
	}

	return AccrueResult{
		PointsEarned: earned,
		NewBalance:   account.Balance,
		Tier:         account.Tier,
	}
}

func (l *LoyaltyLedger) lookup(ctx context.Context, customerID, outletID string) (*domain.LoyaltyProgram, *domain.LoyaltyAccount, bool) {
	program, err := l.accounts.GetProgram(ctx, outletID)
	if err != nil {
		l.logger.Warn("loyalty program lookup failed", zap.String("outlet_id", outletID), zap.Error(err))
		return nil, nil, false
	}
	if program == nil || !program.Active {
		return nil, nil, false
	}
	account, err := l.accounts.GetAccount(ctx, customerID)
	if err != nil {
		l.logger.Warn("loyalty account lookup failed", zap.String("customer_id", customerID), zap.Error(err))
		return nil, nil, false
	}
	if account == nil {
		return nil, nil, false
	}
	return program, account, true
}

func tierOf(account *domain.LoyaltyAccount) string {
	if account == nil {
		return ""
	}
	return account.Tier
}

// tierRank orders tier names by their position on the program ladder; names
// not on the ladder rank lowest.
func tierRank(program *domain.LoyaltyProgram, name string) int {
	for i, t := range program.Tiers {
		if t.Name == name {
			return i + 1
		}
	}
	return 0
}
