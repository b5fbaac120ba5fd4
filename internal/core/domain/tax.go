package domain

// ChargeKind distinguishes taxes from service fees.
type ChargeKind string

const (
	ChargeTax     ChargeKind = "tax"
	ChargeService ChargeKind = "service"
)

// ChargeScope selects which items a charge applies to.
type ChargeScope string

const (
	ScopeAllItems ChargeScope = "all_items"
	ScopeItemSet  ChargeScope = "item_set"
)

// TaxCharge is an outlet-scoped tax or service-fee rule. Read-only
// configuration.
type TaxCharge struct {
	ID         string
	OutletID   string
	Name       string
	Kind       ChargeKind
	DiscKind   DiscountKind // percentage rate or fixed fee
	Value      Money
	Scope      ChargeScope
	ProductIDs []string // populated when Scope == ScopeItemSet
	Active     bool
}

// AppliesTo reports whether a product is inside the charge's item set.
func (c *TaxCharge) AppliesTo(productID string) bool {
	for _, id := range c.ProductIDs {
		if id == productID {
			return true
		}
	}
	return false
}
