package service

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/iliyamo/smart-farming/internal/model"
	"github.com/iliyamo/smart-farming/internal/queue"
	"github.com/iliyamo/smart-farming/internal/repository"
	"github.com/iliyamo/smart-farming/internal/validation"
)

func TestAdvisoryService_AskAndResolve(t *testing.T) {
	ctx := context.Background()
	pub := &recordingPublisher{}
	svc := NewAdvisoryService(newMemAdvisoryStore(), pub)

	a, err := svc.Ask(ctx, farmer, " Rice ", "Leaves turning yellow?")
	if err != nil {
		t.Fatalf("Ask() error = %v", err)
	}
	if a.Status != model.AdvisoryPending || a.CropName != "Rice" {
		t.Errorf("Ask() = %+v, want pending request for Rice", a)
	}

	if _, err := svc.Resolve(ctx, farmer, a.ID, "Add nitrogen"); !errors.Is(err, repository.ErrForbidden) {
		t.Errorf("Resolve() by farmer error = %v, want ErrForbidden", err)
	}
	if _, err := svc.Resolve(ctx, admin, a.ID, "  "); err == nil {
		t.Error("Resolve() with blank response error = nil, want validation error")
	}

	got, err := svc.Resolve(ctx, admin, a.ID, "Add nitrogen")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if got.Status != model.AdvisoryResolved || got.ResolvedBy == nil || *got.ResolvedBy != admin.UserID {
		t.Errorf("Resolve() = %+v, want resolved by admin", got)
	}
	if _, err := svc.Resolve(ctx, admin, a.ID, "again"); !errors.Is(err, repository.ErrConflict) {
		t.Errorf("second Resolve() error = %v, want ErrConflict", err)
	}
	if _, err := svc.Resolve(ctx, admin, 404, "x"); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("Resolve(missing) error = %v, want ErrNotFound", err)
	}
	if len(pub.events) != 1 || pub.events[0].Type != queue.AdvisoryResolved || pub.events[0].OwnerID != farmer.UserID {
		t.Errorf("events = %+v, want one advisory.resolved owned by the farmer", pub.events)
	}
}

func TestAdvisoryService_AskRequiresFields(t *testing.T) {
	svc := NewAdvisoryService(newMemAdvisoryStore(), nil)
	_, err := svc.Ask(context.Background(), farmer, "", "")
	ve, ok := validation.As(err)
	if !ok {
		t.Fatalf("Ask() error = %v, want validation error", err)
	}
	for _, f := range []string{"crop_name", "question"} {
		if !ve.Has(f) {
			t.Errorf("missing field error for %s in %v", f, ve.Fields)
		}
	}
}

func TestAdvisoryService_ListAll(t *testing.T) {
	ctx := context.Background()
	svc := NewAdvisoryService(newMemAdvisoryStore(), nil)
	for _, q := range []string{"a?", "b?"} {
		if _, err := svc.Ask(ctx, farmer, "Maize", q); err != nil {
			t.Fatalf("Ask() error = %v", err)
		}
	}
	if _, err := svc.Resolve(ctx, admin, 1, "ok"); err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if _, err := svc.ListAll(ctx, farmer, ""); !errors.Is(err, repository.ErrForbidden) {
		t.Errorf("ListAll() by farmer error = %v, want ErrForbidden", err)
	}
	if _, err := svc.ListAll(ctx, admin, "closed"); err == nil {
		t.Error("ListAll(closed) error = nil, want validation error")
	}
	pending, err := svc.ListAll(ctx, admin, "Pending")
	if err != nil {
		t.Fatalf("ListAll() error = %v", err)
	}
	if len(pending) != 1 {
		t.Errorf("ListAll(pending) = %d requests, want 1", len(pending))
	}
}

func TestProductService_CreateUpdateDelete(t *testing.T) {
	ctx := context.Background()
	store := &memProductStore{rows: map[uint64]*model.Product{}}
	svc := NewProductService(store)

	price := decimal.RequireFromString("4.75")
	stock := int64(20)
	p, err := svc.Create(ctx, farmer, ProductInput{Name: strp("Basmati"), Category: strp(" Grain "), Price: &price, Stock: &stock})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if p.SellerID != farmer.UserID || p.Category != "grain" {
		t.Errorf("Create() = %+v, want seller %d and category grain", p, farmer.UserID)
	}

	neg := int64(-1)
	if _, err := svc.Update(ctx, farmer, p.ID, ProductInput{Stock: &neg}); err == nil {
		t.Error("Update(stock=-1) error = nil, want validation error")
	}
	if _, err := svc.Update(ctx, other, p.ID, ProductInput{Stock: &stock}); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("Update() by non-seller error = %v, want ErrNotFound", err)
	}
	newPrice := decimal.RequireFromString("5")
	got, err := svc.Update(ctx, admin, p.ID, ProductInput{Price: &newPrice})
	if err != nil {
		t.Fatalf("Update() by admin error = %v", err)
	}
	if !got.Price.Equal(newPrice) || got.SellerID != farmer.UserID {
		t.Errorf("Update() = %+v, want new price and unchanged seller", got)
	}
	if err := svc.Delete(ctx, other, p.ID); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("Delete() by non-seller error = %v, want ErrNotFound", err)
	}
	if err := svc.Delete(ctx, farmer, p.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
}

func TestProductService_CreateRequiresNameAndPrice(t *testing.T) {
	svc := NewProductService(&memProductStore{rows: map[uint64]*model.Product{}})
	_, err := svc.Create(context.Background(), farmer, ProductInput{})
	ve, ok := validation.As(err)
	if !ok || !ve.Has("name") || !ve.Has("price") {
		t.Errorf("Create({}) error = %v, want name and price problems", err)
	}
}

func TestOrderService_PlaceValidates(t *testing.T) {
	svc := NewOrderService(newMemOrderStore(), nil)
	cases := []struct {
		name  string
		in    PlaceOrderInput
		field string
	}{
		{"empty cart", PlaceOrderInput{}, "items"},
		{"zero quantity", PlaceOrderInput{Items: []repository.OrderLine{{ProductID: 1, Quantity: 0}}}, "items[0].quantity"},
		{"missing product", PlaceOrderInput{Items: []repository.OrderLine{{Quantity: 1}}}, "items[0].product_id"},
		{"quantity too large", PlaceOrderInput{Items: []repository.OrderLine{
			{ProductID: 1, Quantity: 1},
			{ProductID: 1, Quantity: math.MaxInt64},
		}}, "items[1].quantity"},
		{"too many lines", PlaceOrderInput{Items: make([]repository.OrderLine, maxOrderLines+1)}, "items"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Place(context.Background(), farmer, tc.in)
			ve, ok := validation.As(err)
			if !ok || !ve.Has(tc.field) {
				t.Errorf("Place() error = %v, want problem on %s", err, tc.field)
			}
		})
	}
}

func TestOrderService_PlaceAndCancelRestoresStock(t *testing.T) {
	ctx := context.Background()
	store := newMemOrderStore()
	pub := &recordingPublisher{}
	svc := NewOrderService(store, pub)
	svc.newRef = func() string { return "ref-1" }

	o, err := svc.Place(ctx, farmer, PlaceOrderInput{Items: []repository.OrderLine{
		{ProductID: 1, Quantity: 4},
		{ProductID: 2, Quantity: 1},
	}})
	if err != nil {
		t.Fatalf("Place() error = %v", err)
	}
	if o.Reference != "ref-1" || o.Status != model.OrderPending {
		t.Errorf("Place() = %+v, want pending order ref-1", o)
	}
	if want := decimal.RequireFromString("20.00"); !o.Total.Equal(want) {
		t.Errorf("Total = %s, want %s", o.Total, want)
	}
	if store.stock[1] != 6 || store.stock[2] != 2 {
		t.Errorf("stock after place = %v, want 6 and 2", store.stock)
	}

	if _, err := svc.Cancel(ctx, other, o.ID); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("Cancel() by non-owner error = %v, want ErrNotFound", err)
	}
	got, err := svc.Cancel(ctx, farmer, o.ID)
	if err != nil {
		t.Fatalf("Cancel() error = %v", err)
	}
	if got.Status != model.OrderCancelled {
		t.Errorf("status = %s, want cancelled", got.Status)
	}
	if store.stock[1] != 10 || store.stock[2] != 3 {
		t.Errorf("stock after cancel = %v, want 10 and 3", store.stock)
	}
	if _, err := svc.Cancel(ctx, farmer, o.ID); !errors.Is(err, repository.ErrConflict) {
		t.Errorf("second Cancel() error = %v, want ErrConflict", err)
	}

	last := pub.events[len(pub.events)-1]
	if last.Type != queue.OrderStatusChanged || last.Order.From != "pending" || last.Order.To != "cancelled" || last.Order.Total != "20.00" {
		t.Errorf("last event = %+v / %+v, want pending->cancelled total 20.00", last, last.Order)
	}
}

func TestOrderService_PlaceInsufficientStock(t *testing.T) {
	svc := NewOrderService(newMemOrderStore(), nil)
	_, err := svc.Place(context.Background(), farmer, PlaceOrderInput{Items: []repository.OrderLine{{ProductID: 2, Quantity: 4}}})
	if !errors.Is(err, repository.ErrInsufficientStock) {
		t.Errorf("Place() error = %v, want ErrInsufficientStock", err)
	}
}

func TestOrderService_SetStatus(t *testing.T) {
	ctx := context.Background()
	svc := NewOrderService(newMemOrderStore(), nil)
	o, err := svc.Place(ctx, farmer, PlaceOrderInput{Items: []repository.OrderLine{{ProductID: 1, Quantity: 1}}})
	if err != nil {
		t.Fatalf("Place() error = %v", err)
	}
	if _, err := svc.SetStatus(ctx, farmer, o.ID, "processing"); !errors.Is(err, repository.ErrForbidden) {
		t.Errorf("SetStatus() by farmer error = %v, want ErrForbidden", err)
	}
	if _, err := svc.SetStatus(ctx, admin, o.ID, "lost"); err == nil {
		t.Error("SetStatus(lost) error = nil, want validation error")
	}
	if _, err := svc.SetStatus(ctx, admin, o.ID, "delivered"); !errors.Is(err, repository.ErrConflict) {
		t.Errorf("SetStatus(pending->delivered) error = %v, want ErrConflict", err)
	}
	for _, next := range []string{"processing", "shipped", "delivered"} {
		got, err := svc.SetStatus(ctx, admin, o.ID, next)
		if err != nil {
			t.Fatalf("SetStatus(%s) error = %v", next, err)
		}
		if string(got.Status) != next {
			t.Errorf("status = %s, want %s", got.Status, next)
		}
	}
	if _, err := svc.SetStatus(ctx, admin, o.ID, "cancelled"); !errors.Is(err, repository.ErrConflict) {
		t.Errorf("cancel after delivery error = %v, want ErrConflict", err)
	}
}

type memProductStore struct {
	nextID uint64
	rows   map[uint64]*model.Product
}

func (m *memProductStore) Create(_ context.Context, p *model.Product) error {
	m.nextID++
	p.ID = m.nextID
	cp := *p
	m.rows[p.ID] = &cp
	return nil
}

func (m *memProductStore) GetByID(_ context.Context, id uint64) (*model.Product, error) {
	p, ok := m.rows[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *memProductStore) List(_ context.Context, category string) ([]model.Product, error) {
	out := []model.Product{}
	for _, p := range m.rows {
		if category == "" || p.Category == category {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (m *memProductStore) Update(_ context.Context, p *model.Product) error {
	old, ok := m.rows[p.ID]
	if !ok || old.SellerID != p.SellerID {
		return repository.ErrNotFound
	}
	cp := *p
	m.rows[p.ID] = &cp
	return nil
}

func (m *memProductStore) DeleteByIDAndSeller(_ context.Context, id, sellerID uint64) error {
	old, ok := m.rows[id]
	if !ok || old.SellerID != sellerID {
		return repository.ErrNotFound
	}
	delete(m.rows, id)
	return nil
}
