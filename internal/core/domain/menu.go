package domain

// Topping is a priced modifier directly attached to a menu item.
type Topping struct {
	ID    string
	Name  string
	Price Money
}

// AddonOption is one selectable option inside an addon group.
type AddonOption struct {
	ID    string
	Name  string
	Price Money
}

// MenuItem is the catalog entry a line item is resolved against.
type MenuItem struct {
	ID           string
	OutletID     string
	Name         string
	Category     string
	BasePrice    Money
	Toppings     []Topping
	AddonOptions []AddonOption
	Available    bool
}

// ToppingByID returns the topping with the given id, if present.
func (m *MenuItem) ToppingByID(id string) (Topping, bool) {
	for _, t := range m.Toppings {
		if t.ID == id {
			return t, true
		}
	}
	return Topping{}, false
}

// AddonOptionByID returns the addon option with the given id, if present.
func (m *MenuItem) AddonOptionByID(id string) (AddonOption, bool) {
	for _, a := range m.AddonOptions {
		if a.ID == id {
			return a, true
		}
	}
	return AddonOption{}, false
}

// RecipeComponent maps one menu-item unit to a quantity of a stocked product
// in a warehouse.
type RecipeComponent struct {
	ProductID   string
	WarehouseID string
	Quantity    int
}

// Recipe lists the stocked components consumed per unit of a menu item.
// Menu items without a recipe have no stock effect.
type Recipe struct {
	MenuItemID string
	Components []RecipeComponent
}
