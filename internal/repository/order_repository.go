package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/iliyamo/smart-farming/internal/model"
)

// OrderLine is a requested product and quantity when placing an order.
type OrderLine struct {
	ProductID uint64 `json:"product_id"`
	Quantity  int64  `json:"quantity"`
}

// OrderRepo encapsulates queries on orders and order_items. Placing and
// cancelling orders adjust product stock inside the same transaction.
type OrderRepo struct {
	db *sql.DB
}

func NewOrderRepo(db *sql.DB) *OrderRepo {
	return &OrderRepo{db: db}
}

const orderColumns = "id, reference, user_id, status, total, shipping_address, created_at, updated_at"

func scanOrder(s rowScanner) (*model.Order, error) {
	var (
		o      model.Order
		status string
	)
	if err := s.Scan(&o.ID, &o.Reference, &o.UserID, &status, &o.Total, &o.ShippingAddress,
		&o.CreatedAt, &o.UpdatedAt); err != nil {
		return nil, err
	}
	o.Status = model.OrderStatus(status)
	o.Items = []model.OrderItem{}
	return &o, nil
}

// withTx runs fn in a transaction, committing on success and rolling back
// on any error.
func (r *OrderRepo) withTx(ctx context.Context, fn func(tx *sql.Tx) error) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		} else {
			err = tx.Commit()
		}
	}()
	return fn(tx)
}

// Create places an order for o.UserID. Each product row is locked with
// SELECT ... FOR UPDATE (in ascending id order so concurrent orders cannot
// deadlock), checked for stock and decremented. Unit prices and names are
// taken from the products table, never from the client. Duplicate product
// lines are merged. o is filled in with the stored order and its items.
func (r *OrderRepo) Create(ctx context.Context, o *model.Order, lines []OrderLine) error {
	merged := map[uint64]int64{}
	for _, l := range lines {
		merged[l.ProductID] += l.Quantity
	}
	ids := make([]uint64, 0, len(merged))
	for id := range merged {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	var orderID uint64
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		items := make([]model.OrderItem, 0, len(ids))
		for _, pid := range ids {
			qty := merged[pid]
			var it model.OrderItem
			var stock int64
			err := tx.QueryRowContext(ctx,
				"SELECT id, name, price, stock FROM products WHERE id = ? FOR UPDATE", pid).
				Scan(&it.ProductID, &it.Name, &it.UnitPrice, &stock)
			if errors.Is(err, sql.ErrNoRows) {
				return fmt.Errorf("product %d: %w", pid, ErrNotFound)
			}
			if err != nil {
				return err
			}
			if stock < qty {
				return fmt.Errorf("product %d has %d left: %w", pid, stock, ErrInsufficientStock)
			}
			if _, err := tx.ExecContext(ctx,
				"UPDATE products SET stock = stock - ?, updated_at = CURRENT_TIMESTAMP(3) WHERE id = ?", qty, pid); err != nil {
				return err
			}
			it.Quantity = qty
			it.LineTotal = model.LineTotal(it.UnitPrice, qty)
			items = append(items, it)
		}
		o.Total = model.CartTotal(items)

		res, err := tx.ExecContext(ctx,
			"INSERT INTO orders (reference, user_id, status, total, shipping_address) VALUES (?,?,?,?,?)",
			o.Reference, o.UserID, string(model.OrderPending), o.Total, o.ShippingAddress)
		if err != nil {
			return err
		}
		id, err := res.LastInsertId()
		if err != nil {
			return err
		}
		orderID = uint64(id)
		for _, it := range items {
			if _, err := tx.ExecContext(ctx,
				"INSERT INTO order_items (order_id, product_id, name, unit_price, quantity, line_total) VALUES (?,?,?,?,?,?)",
				orderID, it.ProductID, it.Name, it.UnitPrice, it.Quantity, it.LineTotal); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	stored, err := r.GetByID(ctx, orderID)
	if err != nil {
		return err
	}
	*o = *stored
	return nil
}

// GetByID loads an order with its items. ErrNotFound if missing.
func (r *OrderRepo) GetByID(ctx context.Context, id uint64) (*model.Order, error) {
	o, err := scanOrder(r.db.QueryRowContext(ctx, "SELECT "+orderColumns+" FROM orders WHERE id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	orders := []model.Order{*o}
	if err := r.attachItems(ctx, orders); err != nil {
		return nil, err
	}
	return &orders[0], nil
}

// ListByUser returns a buyer's orders, newest first.
func (r *OrderRepo) ListByUser(ctx context.Context, userID uint64) ([]model.Order, error) {
	return r.list(ctx, "SELECT "+orderColumns+" FROM orders WHERE user_id = ? ORDER BY created_at DESC, id DESC", userID)
}

// ListAll returns every order, optionally filtered by status, newest first.
func (r *OrderRepo) ListAll(ctx context.Context, status model.OrderStatus) ([]model.Order, error) {
	if status == "" {
		return r.list(ctx, "SELECT "+orderColumns+" FROM orders ORDER BY created_at DESC, id DESC")
	}
	return r.list(ctx, "SELECT "+orderColumns+" FROM orders WHERE status = ? ORDER BY created_at DESC, id DESC", string(status))
}

// UpdateStatus moves order id to next. When userID is non-zero the order
// must belong to that user, otherwise ErrNotFound is returned as if it did
// not exist. Transitions not allowed by model.OrderStatus.CanTransitionTo
// return ErrConflict. Moving to cancelled puts every item's quantity back
// into product stock within the same transaction.
func (r *OrderRepo) UpdateStatus(ctx context.Context, id, userID uint64, next model.OrderStatus) (*model.Order, error) {
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		var (
			status string
			owner  uint64
		)
		err := tx.QueryRowContext(ctx, "SELECT status, user_id FROM orders WHERE id = ? FOR UPDATE", id).Scan(&status, &owner)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		if userID != 0 && owner != userID {
			return ErrNotFound
		}
		current := model.OrderStatus(status)
		if !current.CanTransitionTo(next) {
			return fmt.Errorf("order %d %s -> %s: %w", id, current, next, ErrConflict)
		}
		if next == model.OrderCancelled {
			if _, err := tx.ExecContext(ctx,
				`UPDATE products p JOIN order_items i ON i.product_id = p.id
				 SET p.stock = p.stock + i.quantity, p.updated_at = CURRENT_TIMESTAMP(3)
				 WHERE i.order_id = ?`, id); err != nil {
				return err
			}
		}
		_, err = tx.ExecContext(ctx,
			"UPDATE orders SET status = ?, updated_at = CURRENT_TIMESTAMP(3) WHERE id = ?", string(next), id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return r.GetByID(ctx, id)
}

func (r *OrderRepo) list(ctx context.Context, q string, args ...any) ([]model.Order, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.Order{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if err := r.attachItems(ctx, out); err != nil {
		return nil, err
	}
	return out, nil
}

// attachItems loads the items of all given orders with a single query.
func (r *OrderRepo) attachItems(ctx context.Context, orders []model.Order) error {
	if len(orders) == 0 {
		return nil
	}
	index := make(map[uint64]int, len(orders))
	args := make([]any, 0, len(orders))
	for i := range orders {
		index[orders[i].ID] = i
		args = append(args, orders[i].ID)
	}
	q := "SELECT id, order_id, product_id, name, unit_price, quantity, line_total FROM order_items WHERE order_id IN (?" +
		strings.Repeat(",?", len(orders)-1) + ") ORDER BY id"
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var it model.OrderItem
		if err := rows.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.Name, &it.UnitPrice, &it.Quantity, &it.LineTotal); err != nil {
			return err
		}
		if i, ok := index[it.OrderID]; ok {
			orders[i].Items = append(orders[i].Items, it)
		}
	}
	return rows.Err()
}
