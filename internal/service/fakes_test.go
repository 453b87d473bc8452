package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iliyamo/smart-farming/internal/model"
	"github.com/iliyamo/smart-farming/internal/queue"
	"github.com/iliyamo/smart-farming/internal/repository"
)

type memFarmStore struct {
	mu     sync.Mutex
	nextID uint64
	rows   map[uint64]model.FarmRecord
}

func newMemFarmStore() *memFarmStore {
	return &memFarmStore{rows: map[uint64]model.FarmRecord{}}
}

func (m *memFarmStore) Create(_ context.Context, rec *model.FarmRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	rec.ID = m.nextID
	rec.CreatedAt = time.Now()
	rec.UpdatedAt = rec.CreatedAt
	m.rows[rec.ID] = *rec
	return nil
}

func (m *memFarmStore) GetByID(_ context.Context, id uint64) (*model.FarmRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.rows[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &rec, nil
}

func (m *memFarmStore) ListByUser(_ context.Context, userID uint64) ([]model.FarmRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []model.FarmRecord{}
	for _, rec := range m.rows {
		if rec.UserID == userID {
			out = append(out, rec)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (m *memFarmStore) Update(_ context.Context, rec *model.FarmRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	old, ok := m.rows[rec.ID]
	if !ok || old.UserID != rec.UserID {
		return repository.ErrNotFound
	}
	m.rows[rec.ID] = *rec
	return nil
}

func (m *memFarmStore) DeleteByIDAndUser(_ context.Context, id, userID uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	old, ok := m.rows[id]
	if !ok || old.UserID != userID {
		return repository.ErrNotFound
	}
	delete(m.rows, id)
	return nil
}

// recordingPublisher remembers every event; err, when set, is returned
// from Publish after recording.
type recordingPublisher struct {
	mu     sync.Mutex
	events []queue.Event
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, ev queue.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return p.err
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, ev := range p.events {
		out = append(out, ev.Type)
	}
	return out
}

type memAdvisoryStore struct {
	nextID uint64
	rows   map[uint64]*model.AdvisoryRequest
}

func newMemAdvisoryStore() *memAdvisoryStore {
	return &memAdvisoryStore{rows: map[uint64]*model.AdvisoryRequest{}}
}

func (m *memAdvisoryStore) Create(_ context.Context, a *model.AdvisoryRequest) error {
	m.nextID++
	a.ID = m.nextID
	cp := *a
	m.rows[a.ID] = &cp
	return nil
}

func (m *memAdvisoryStore) ListByUser(_ context.Context, userID uint64) ([]model.AdvisoryRequest, error) {
	out := []model.AdvisoryRequest{}
	for _, a := range m.rows {
		if a.UserID == userID {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (m *memAdvisoryStore) ListAll(_ context.Context, status model.AdvisoryStatus) ([]model.AdvisoryRequest, error) {
	out := []model.AdvisoryRequest{}
	for _, a := range m.rows {
		if status == "" || a.Status == status {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (m *memAdvisoryStore) Resolve(_ context.Context, id, adminID uint64, response string, at time.Time) (*model.AdvisoryRequest, error) {
	a, ok := m.rows[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if a.Status != model.AdvisoryPending {
		return nil, repository.ErrConflict
	}
	a.Status, a.Response, a.ResolvedBy, a.ResolvedAt = model.AdvisoryResolved, response, &adminID, &at
	cp := *a
	return &cp, nil
}

// memOrderStore prices every product from a fixed table and tracks stock.
type memOrderStore struct {
	nextID uint64
	prices map[uint64]decimal.Decimal
	stock  map[uint64]int64
	orders map[uint64]*model.Order
}

func newMemOrderStore() *memOrderStore {
	return &memOrderStore{
		prices: map[uint64]decimal.Decimal{1: decimal.RequireFromString("2.50"), 2: decimal.RequireFromString("10.00")},
		stock:  map[uint64]int64{1: 10, 2: 3},
		orders: map[uint64]*model.Order{},
	}
}

func (m *memOrderStore) Create(_ context.Context, o *model.Order, lines []repository.OrderLine) error {
	for _, l := range lines {
		if _, ok := m.prices[l.ProductID]; !ok {
			return repository.ErrNotFound
		}
		if m.stock[l.ProductID] < l.Quantity {
			return repository.ErrInsufficientStock
		}
	}
	m.nextID++
	o.ID = m.nextID
	o.Status = model.OrderPending
	for _, l := range lines {
		m.stock[l.ProductID] -= l.Quantity
		price := m.prices[l.ProductID]
		o.Items = append(o.Items, model.OrderItem{
			OrderID: o.ID, ProductID: l.ProductID, UnitPrice: price,
			Quantity: l.Quantity, LineTotal: model.LineTotal(price, l.Quantity),
		})
	}
	o.Total = model.CartTotal(o.Items)
	cp := *o
	m.orders[o.ID] = &cp
	return nil
}

func (m *memOrderStore) GetByID(_ context.Context, id uint64) (*model.Order, error) {
	o, ok := m.orders[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *o
	return &cp, nil
}

func (m *memOrderStore) ListByUser(_ context.Context, userID uint64) ([]model.Order, error) {
	out := []model.Order{}
	for _, o := range m.orders {
		if o.UserID == userID {
			out = append(out, *o)
		}
	}
	return out, nil
}

func (m *memOrderStore) ListAll(_ context.Context, status model.OrderStatus) ([]model.Order, error) {
	out := []model.Order{}
	for _, o := range m.orders {
		if status == "" || o.Status == status {
			out = append(out, *o)
		}
	}
	return out, nil
}

func (m *memOrderStore) UpdateStatus(_ context.Context, id, userID uint64, next model.OrderStatus) (*model.Order, error) {
	o, ok := m.orders[id]
	if !ok || (userID != 0 && o.UserID != userID) {
		return nil, repository.ErrNotFound
	}
	if !o.Status.CanTransitionTo(next) {
		return nil, repository.ErrConflict
	}
	if next == model.OrderCancelled {
		for _, it := range o.Items {
			m.stock[it.ProductID] += it.Quantity
		}
	}
	o.Status = next
	cp := *o
	return &cp, nil
}

var errBroker = errors.New("broker down")
