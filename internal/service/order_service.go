package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/iliyamo/smart-farming/internal/model"
	"github.com/iliyamo/smart-farming/internal/queue"
	"github.com/iliyamo/smart-farming/internal/repository"
	"github.com/iliyamo/smart-farming/internal/validation"
)

// OrderStore is implemented by *repository.OrderRepo.  UpdateStatus with
// userID 0 is not owner-restricted.
type OrderStore interface {
	Create(ctx context.Context, o *model.Order, lines []repository.OrderLine) error
	GetByID(ctx context.Context, id uint64) (*model.Order, error)
	ListByUser(ctx context.Context, userID uint64) ([]model.Order, error)
	ListAll(ctx context.Context, status model.OrderStatus) ([]model.Order, error)
	UpdateStatus(ctx context.Context, id, userID uint64, next model.OrderStatus) (*model.Order, error)
}

// PlaceOrderInput is the body of a new order.
type PlaceOrderInput struct {
	Items           []repository.OrderLine `json:"items"`
	ShippingAddress string                 `json:"shipping_address"`
}

// Limits on one order.  Together they keep merged per-product quantities
// far below the range of int64.
const (
	maxOrderLines   = 100
	maxLineQuantity = 1_000_000
)

// OrderService places orders and drives their status machine.
type OrderService struct {
	store  OrderStore
	events EventPublisher
	newRef func() string
}

func NewOrderService(store OrderStore, events EventPublisher) *OrderService {
	return &OrderService{store: store, events: events, newRef: uuid.NewString}
}

// Place validates the cart and stores a pending order.  Stock checks and
// decrements happen atomically in the store.
func (s *OrderService) Place(ctx context.Context, actor Actor, in PlaceOrderInput) (*model.Order, error) {
	v := validation.New()
	if len(in.Items) == 0 {
		v.Add("items", "must contain at least one item")
	} else if len(in.Items) > maxOrderLines {
		v.Add("items", "must contain at most "+strconv.Itoa(maxOrderLines)+" items")
	}
	for i, l := range in.Items {
		key := "items[" + strconv.Itoa(i) + "]"
		if l.ProductID == 0 {
			v.Add(key+".product_id", "is required")
		}
		if l.Quantity < 1 {
			v.Add(key+".quantity", "must be at least 1")
		} else if l.Quantity > maxLineQuantity {
			v.Add(key+".quantity", "must be at most "+strconv.Itoa(maxLineQuantity))
		}
	}
	if err := v.Err(); err != nil {
		return nil, err
	}
	o := &model.Order{
		Reference:       s.newRef(),
		UserID:          actor.UserID,
		Status:          model.OrderPending,
		ShippingAddress: strings.TrimSpace(in.ShippingAddress),
	}
	if err := s.store.Create(ctx, o, in.Items); err != nil {
		return nil, fmt.Errorf("place order: %w", err)
	}
	publish(ctx, s.events, orderEvent(queue.OrderPlaced, actor, o, ""))
	return o, nil
}

// Get returns an order visible to the actor.
func (s *OrderService) Get(ctx context.Context, actor Actor, id uint64) (*model.Order, error) {
	o, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.owns(o.UserID) {
		return nil, repository.ErrNotFound
	}
	return o, nil
}

// ListMine returns the actor's orders, newest first.
func (s *OrderService) ListMine(ctx context.Context, actor Actor) ([]model.Order, error) {
	return s.store.ListByUser(ctx, actor.UserID)
}

// ListAll returns every order, optionally filtered by status.  Admin only.
func (s *OrderService) ListAll(ctx context.Context, actor Actor, status string) ([]model.Order, error) {
	if !actor.IsAdmin() {
		return nil, repository.ErrForbidden
	}
	st := model.OrderStatus(strings.ToLower(strings.TrimSpace(status)))
	if st != "" && !st.Valid() {
		return nil, validation.Single("status", "unknown order status")
	}
	return s.store.ListAll(ctx, st)
}

// Cancel cancels the actor's own order and restores product stock.
func (s *OrderService) Cancel(ctx context.Context, actor Actor, id uint64) (*model.Order, error) {
	return s.transition(ctx, actor, id, actor.UserID, model.OrderCancelled)
}

// SetStatus moves any order along the status machine.  Admin only.
func (s *OrderService) SetStatus(ctx context.Context, actor Actor, id uint64, status string) (*model.Order, error) {
	if !actor.IsAdmin() {
		return nil, repository.ErrForbidden
	}
	next := model.OrderStatus(strings.ToLower(strings.TrimSpace(status)))
	if !next.Valid() {
		return nil, validation.Single("status", "unknown order status")
	}
	return s.transition(ctx, actor, id, 0, next)
}

func (s *OrderService) transition(ctx context.Context, actor Actor, id, ownerID uint64, next model.OrderStatus) (*model.Order, error) {
	before, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if ownerID != 0 && before.UserID != ownerID {
		return nil, repository.ErrNotFound
	}
	o, err := s.store.UpdateStatus(ctx, id, ownerID, next)
	if err != nil {
		return nil, err
	}
	publish(ctx, s.events, orderEvent(queue.OrderStatusChanged, actor, o, before.Status))
	return o, nil
}

func orderEvent(typ string, actor Actor, o *model.Order, from model.OrderStatus) queue.Event {
	return queue.Event{
		Type:     typ,
		ActorID:  actor.UserID,
		OwnerID:  o.UserID,
		EntityID: o.ID,
		Order: &queue.OrderPayload{
			Reference: o.Reference,
			From:      string(from),
			To:        string(o.Status),
			Total:     o.Total.StringFixed(2),
		},
	}
}
