package cart

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/rohitnair-dev/storefront-backend/pkg/db/models"
	pkgerrors "github.com/rohitnair-dev/storefront-backend/pkg/errors"
	"github.com/rohitnair-dev/storefront-backend/pkg/money"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Line is one cart entry resolved against the live catalog.
type Line struct {
	Product  models.Product
	Quantity int
}

// Subtotal is price times quantity, unrounded.
func (l Line) Subtotal() decimal.Decimal {
	return money.Times(l.Product.Price, l.Quantity)
}

// Snapshot is the resolved cart: lines ordered by product name, entries whose
// product vanished or went inactive silently dropped.
type Snapshot struct {
	Lines []Line
}

// Empty reports whether the cart holds no purchasable lines.
func (s *Snapshot) Empty() bool {
	return s == nil || len(s.Lines) == 0
}

// Subtotal sums the line subtotals, unrounded.
func (s *Snapshot) Subtotal() decimal.Decimal {
	total := decimal.Zero
	if s == nil {
		return total
	}
	for _, line := range s.Lines {
		total = total.Add(line.Subtotal())
	}
	return total
}

type catalogReader interface {
	FindActiveByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
	ResolveActive(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.Product, error)
}

type bagStore interface {
	Load(ctx context.Context, sessionID string) (Bag, error)
	Save(ctx context.Context, sessionID string, bag Bag) error
	Clear(ctx context.Context, sessionID string) error
}

// Service exposes session cart operations.
type Service interface {
	Snapshot(ctx context.Context, sessionID string) (*Snapshot, error)
	AddItem(ctx context.Context, sessionID string, productID uuid.UUID, qty int) (*Snapshot, error)
	SetQuantity(ctx context.Context, sessionID string, productID uuid.UUID, qty int) (*Snapshot, error)
	RemoveItem(ctx context.Context, sessionID string, productID uuid.UUID) (*Snapshot, error)
	Clear(ctx context.Context, sessionID string) error
}

type service struct {
	store      bagStore
	catalog    catalogReader
	maxPerLine int
}

// NewService constructs a cart service instance.
func NewService(store bagStore, catalog catalogReader, maxPerLine int) (Service, error) {
	if store == nil {
		return nil, fmt.Errorf("cart store required")
	}
	if catalog == nil {
		return nil, fmt.Errorf("catalog reader required")
	}
	if maxPerLine <= 0 {
		return nil, fmt.Errorf("max quantity per line must be positive")
	}
	return &service{store: store, catalog: catalog, maxPerLine: maxPerLine}, nil
}

func (s *service) Snapshot(ctx context.Context, sessionID string) (*Snapshot, error) {
	bag, err := s.store.Load(ctx, sessionID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading cart")
	}
	return s.resolve(ctx, bag)
}

func (s *service) AddItem(ctx context.Context, sessionID string, productID uuid.UUID, qty int) (*Snapshot, error) {
	bag, err := s.store.Load(ctx, sessionID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading cart")
	}

	next := bag[productID] + qty
	if next <= 0 {
		delete(bag, productID)
		return s.saveAndResolve(ctx, sessionID, bag)
	}

	if err := s.checkPurchasable(ctx, productID, next); err != nil {
		return nil, err
	}

	bag[productID] = next
	return s.saveAndResolve(ctx, sessionID, bag)
}

func (s *service) SetQuantity(ctx context.Context, sessionID string, productID uuid.UUID, qty int) (*Snapshot, error) {
	bag, err := s.store.Load(ctx, sessionID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading cart")
	}

	if qty <= 0 {
		delete(bag, productID)
		return s.saveAndResolve(ctx, sessionID, bag)
	}

	if err := s.checkPurchasable(ctx, productID, qty); err != nil {
		return nil, err
	}

	bag[productID] = qty
	return s.saveAndResolve(ctx, sessionID, bag)
}

func (s *service) RemoveItem(ctx context.Context, sessionID string, productID uuid.UUID) (*Snapshot, error) {
	bag, err := s.store.Load(ctx, sessionID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading cart")
	}

	delete(bag, productID)
	return s.saveAndResolve(ctx, sessionID, bag)
}

func (s *service) Clear(ctx context.Context, sessionID string) error {
	if err := s.store.Clear(ctx, sessionID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clearing cart")
	}
	return nil
}

func (s *service) checkPurchasable(ctx context.Context, productID uuid.UUID, qty int) error {
	product, err := s.catalog.FindActiveByID(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading product")
	}
	if !product.InStock() {
		return pkgerrors.New(pkgerrors.CodeBusinessRule, "product is out of stock").
			WithDetails(map[string]string{"reason": "out_of_stock", "product_id": productID.String()})
	}
	if qty > s.maxPerLine {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity exceeds the per-item limit").
			WithDetails(map[string]any{"max_quantity": s.maxPerLine})
	}
	return nil
}

func (s *service) saveAndResolve(ctx context.Context, sessionID string, bag Bag) (*Snapshot, error) {
	if err := s.store.Save(ctx, sessionID, bag); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "saving cart")
	}
	return s.resolve(ctx, bag)
}

func (s *service) resolve(ctx context.Context, bag Bag) (*Snapshot, error) {
	ids := make([]uuid.UUID, 0, len(bag))
	for id := range bag {
		ids = append(ids, id)
	}

	resolved, err := s.catalog.ResolveActive(ctx, ids)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "resolving cart products")
	}

	lines := make([]Line, 0, len(resolved))
	for id, qty := range bag {
		product, ok := resolved[id]
		if !ok || qty <= 0 {
			continue
		}
		lines = append(lines, Line{Product: product, Quantity: qty})
	}

	sort.Slice(lines, func(i, j int) bool {
		if lines[i].Product.Name == lines[j].Product.Name {
			return lines[i].Product.ID.String() < lines[j].Product.ID.String()
		}
		return lines[i].Product.Name < lines[j].Product.Name
	})

	return &Snapshot{Lines: lines}, nil
}
