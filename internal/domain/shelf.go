package domain

// Represents a storage shelf bound to a single node for its whole life.
// A shelf holds one goods type at a time; the core only ever decreases
// its quantity.
type Shelf struct {
	ShelfID  int
	NodeID   int
	Goods    string
	Quantity int
}

// Take removes up to qty units and returns how many were actually removed.
func (s *Shelf) Take(qty int) int {
	if qty <= 0 || s.Quantity <= 0 {
		return 0
	}
	if qty > s.Quantity {
		qty = s.Quantity
	}
	s.Quantity -= qty
	return qty
}
