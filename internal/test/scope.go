package test

import (
	"context"
	"fmt"
	"time"

	domainErrors "github.com/lunchpad/orderengine/internal/domain/errors"
	"github.com/lunchpad/orderengine/internal/domain/model"
)

// CompositionScopeStub is an in-memory catalog plus a sink for everything a
// composition run inserts. All mutations stay local to the stub so tests can
// assert exactly what a run would have written.
type CompositionScopeStub struct {
	Branches    map[int64]*model.Branch
	Products    map[int64]*model.Product
	Addons      map[int64]*model.Addon
	Eligible    map[int64][]int64
	Variations  map[int64]*model.Variation
	Options     map[int64]*model.VariationOption
	OptionLinks map[int64][]int64
	Addresses   []model.ShippingAddress

	Orders    []*model.Order
	Lines     []model.OrderLine
	Shipments []model.ShippingOrder
	Payments  []model.Payment

	ReserveErr error
	Today      time.Time

	nextID int64
}

// NewCompositionScopeStub constructs stub with initialized maps.
func NewCompositionScopeStub() *CompositionScopeStub {
	return &CompositionScopeStub{
		Branches:    make(map[int64]*model.Branch),
		Products:    make(map[int64]*model.Product),
		Addons:      make(map[int64]*model.Addon),
		Eligible:    make(map[int64][]int64),
		Variations:  make(map[int64]*model.Variation),
		Options:     make(map[int64]*model.VariationOption),
		OptionLinks: make(map[int64][]int64),
	}
}

func (s *CompositionScopeStub) next() int64 {
	s.nextID++
	return s.nextID
}

func (s *CompositionScopeStub) today() time.Time {
	if s.Today.IsZero() {
		return time.Now()
	}
	return s.Today
}

// Branch resolves a branch or reports it missing.
func (s *CompositionScopeStub) Branch(ctx context.Context, id int64) (*model.Branch, error) {
	if b, ok := s.Branches[id]; ok {
		return b, nil
	}
	return nil, domainErrors.ErrBranchNotFound
}

// Product resolves a product scoped to the branch.
func (s *CompositionScopeStub) Product(ctx context.Context, id, branchID int64) (*model.Product, error) {
	p, ok := s.Products[id]
	if !ok || p.BranchID != branchID {
		return nil, fmt.Errorf("product %d: %w", id, domainErrors.ErrProductNotFound)
	}
	return p, nil
}

// Addon resolves an add-on and verifies eligibility for the product.
func (s *CompositionScopeStub) Addon(ctx context.Context, id, productID int64) (*model.Addon, error) {
	a, ok := s.Addons[id]
	if !ok {
		return nil, fmt.Errorf("addon %d: %w", id, domainErrors.ErrAddonNotFound)
	}
	for _, eligible := range s.Eligible[productID] {
		if eligible == id {
			return a, nil
		}
	}
	return nil, fmt.Errorf("addon %d: %w", id, domainErrors.ErrInvalidAddon)
}

// Variation resolves a variation and verifies it belongs to the product.
func (s *CompositionScopeStub) Variation(ctx context.Context, id, productID int64) (*model.Variation, error) {
	v, ok := s.Variations[id]
	if !ok {
		return nil, fmt.Errorf("variation %d: %w", id, domainErrors.ErrVariationNotFound)
	}
	if v.ProductID != productID {
		return nil, fmt.Errorf("variation %d: %w", id, domainErrors.ErrInvalidVariation)
	}
	return v, nil
}

// Option resolves an option and verifies it is linked to the variation.
func (s *CompositionScopeStub) Option(ctx context.Context, id, variationID int64) (*model.VariationOption, error) {
	o, ok := s.Options[id]
	if !ok {
		return nil, fmt.Errorf("option %d: %w", id, domainErrors.ErrOptionNotFound)
	}
	for _, linked := range s.OptionLinks[variationID] {
		if linked == id {
			return o, nil
		}
	}
	return nil, fmt.Errorf("option %d: %w", id, domainErrors.ErrInvalidOption)
}

// RequiredVariations lists variations the product marks as required.
func (s *CompositionScopeStub) RequiredVariations(ctx context.Context, productID int64) ([]model.Variation, error) {
	var required []model.Variation
	for _, v := range s.Variations {
		if v.ProductID == productID && v.Required {
			required = append(required, *v)
		}
	}
	return required, nil
}

// ReserveStock mirrors the conditional decrement semantics of storage,
// including the once-per-day replenishment for daily products.
func (s *CompositionScopeStub) ReserveStock(ctx context.Context, product *model.Product, quantity int) error {
	if s.ReserveErr != nil {
		return s.ReserveErr
	}
	p, ok := s.Products[product.ID]
	if !ok {
		return fmt.Errorf("product %d: %w", product.ID, domainErrors.ErrProductNotFound)
	}

	switch p.StockPolicy {
	case model.StockPolicyUnlimited:
		return nil
	case model.StockPolicyDaily:
		if startOfDay(p.LastDailyRestock).Before(startOfDay(s.today())) {
			p.Stock = p.DailyStock
			p.LastDailyRestock = s.today()
		}
	case model.StockPolicyFixed:
	default:
		return fmt.Errorf("product %d: %w", p.ID, domainErrors.ErrUnknownStockPolicy)
	}

	if p.Stock < quantity {
		return fmt.Errorf("product %d: %w", p.ID, domainErrors.ErrInsufficientStock)
	}
	p.Stock -= quantity
	return nil
}

// GetOrCreateAddress reuses structurally identical addresses.
func (s *CompositionScopeStub) GetOrCreateAddress(ctx context.Context, addr model.ShippingAddress) (*model.ShippingAddress, error) {
	for i := range s.Addresses {
		existing := &s.Addresses[i]
		if existing.Address == addr.Address && existing.Longitude == addr.Longitude && existing.Latitude == addr.Latitude {
			return existing, nil
		}
	}
	addr.ID = s.next()
	s.Addresses = append(s.Addresses, addr)
	return &s.Addresses[len(s.Addresses)-1], nil
}

// InsertOrder assigns identity and records the order.
func (s *CompositionScopeStub) InsertOrder(ctx context.Context, order *model.Order) error {
	order.ID = s.next()
	if order.CreatedAt.IsZero() {
		order.CreatedAt = s.today()
	}
	s.Orders = append(s.Orders, order)
	return nil
}

// InsertLine records a priced line for the order.
func (s *CompositionScopeStub) InsertLine(ctx context.Context, orderID int64, line *model.OrderLine) error {
	line.ID = s.next()
	line.OrderID = orderID
	s.Lines = append(s.Lines, *line)
	return nil
}

// InsertShippingOrder records the provisional delivery.
func (s *CompositionScopeStub) InsertShippingOrder(ctx context.Context, so *model.ShippingOrder) error {
	so.ID = s.next()
	if so.CreatedAt.IsZero() {
		so.CreatedAt = s.today()
	}
	s.Shipments = append(s.Shipments, *so)
	return nil
}

// InsertPayment records the payment intent.
func (s *CompositionScopeStub) InsertPayment(ctx context.Context, p *model.Payment) error {
	p.ID = s.next()
	s.Payments = append(s.Payments, *p)
	return nil
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

type stockState struct {
	stock   int
	restock time.Time
}

type scopeSnapshot struct {
	stocks    map[int64]stockState
	addresses int
	orders    int
	lines     int
	shipments int
	payments  int
	nextID    int64
}

func (s *CompositionScopeStub) snapshot() scopeSnapshot {
	stocks := make(map[int64]stockState, len(s.Products))
	for id, p := range s.Products {
		stocks[id] = stockState{stock: p.Stock, restock: p.LastDailyRestock}
	}
	return scopeSnapshot{
		stocks:    stocks,
		addresses: len(s.Addresses),
		orders:    len(s.Orders),
		lines:     len(s.Lines),
		shipments: len(s.Shipments),
		payments:  len(s.Payments),
		nextID:    s.nextID,
	}
}

func (s *CompositionScopeStub) restore(snap scopeSnapshot) {
	for id, st := range snap.stocks {
		if p, ok := s.Products[id]; ok {
			p.Stock = st.stock
			p.LastDailyRestock = st.restock
		}
	}
	s.Addresses = s.Addresses[:snap.addresses]
	s.Orders = s.Orders[:snap.orders]
	s.Lines = s.Lines[:snap.lines]
	s.Shipments = s.Shipments[:snap.shipments]
	s.Payments = s.Payments[:snap.payments]
	s.nextID = snap.nextID
}
