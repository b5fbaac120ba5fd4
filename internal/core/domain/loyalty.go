package domain

// LoyaltyTier is one rung of a program's tier ladder.
type LoyaltyTier struct {
	Name           string
	RequiredPoints int // lifetime earned points needed to reach the tier
	Bonus          int // one-time points granted on promotion into the tier
}

// LoyaltyProgram is the outlet-scoped loyalty configuration.
type LoyaltyProgram struct {
	ID                    string
	OutletID              string
	Active                bool
	PointValue            Money // discount per redeemed point
	PointsPerUnit         Money // currency units spent per earned point
	FirstTransactionBonus int
	Tiers                 []LoyaltyTier // ascending by RequiredPoints
}

// LoyaltyAccount is a customer's points balance. Redemption and accrual are
// each applied at most once per order id.
type LoyaltyAccount struct {
	CustomerID       string
	Balance          int
	LifetimeEarned   int
	LifetimeRedeemed int
	Tier             string
	FirstTransaction bool
}
