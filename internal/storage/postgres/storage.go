package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	domainErrors "github.com/lunchpad/orderengine/internal/domain/errors"
	"github.com/lunchpad/orderengine/internal/domain/model"
	"github.com/lunchpad/orderengine/internal/domain/repository"
)

// pgxPool is the subset of pgxpool.Pool the storage relies on. Holding the
// pool behind it lets tests substitute a pgxmock pool.
type pgxPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	BeginTx(ctx context.Context, txOptions pgx.TxOptions) (pgx.Tx, error)
	Ping(ctx context.Context) error
	Close()
}

var newPgxPool = func(ctx context.Context, cfg *pgxpool.Config) (pgxPool, error) {
	return pgxpool.NewWithConfig(ctx, cfg)
}

// Storage acts as repository facade backed by PostgreSQL.
type Storage struct {
	pool   pgxPool
	logger *slog.Logger
}

type userRepository struct {
	storage *Storage
}

type orderRepository struct {
	storage *Storage
}

type shippingRepository struct {
	storage *Storage
}

type notificationRepository struct {
	storage *Storage
}

// New creates storage with schema initialization.
func New(ctx context.Context, dsn string, logger *slog.Logger) (*Storage, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}

	pool, err := newPgxPool(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect db: %w", err)
	}

	storage := &Storage{pool: pool, logger: logger}
	if err := storage.initSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return storage, nil
}

// Close releases database resources.
func (s *Storage) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// Factory methods for domain repositories.
func (s *Storage) Users() repository.UserRepository {
	return &userRepository{storage: s}
}

func (s *Storage) Orders() repository.OrderRepository {
	return &orderRepository{storage: s}
}

func (s *Storage) Shippings() repository.ShippingRepository {
	return &shippingRepository{storage: s}
}

func (s *Storage) Notifications() repository.NotificationRepository {
	return &notificationRepository{storage: s}
}

func (s *Storage) initSchema(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS branches (
            id SERIAL PRIMARY KEY,
            name TEXT NOT NULL
        )`,
		`CREATE TABLE IF NOT EXISTS users (
            id SERIAL PRIMARY KEY,
            login TEXT UNIQUE NOT NULL,
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        )`,
		`CREATE TABLE IF NOT EXISTS products (
            id SERIAL PRIMARY KEY,
            branch_id BIGINT NOT NULL REFERENCES branches(id),
            name TEXT NOT NULL,
            price NUMERIC(10,2) NOT NULL,
            stock_type TEXT NOT NULL DEFAULT 'fixed',
            stock INTEGER NOT NULL DEFAULT 0,
            stock_daily INTEGER NOT NULL DEFAULT 0,
            last_daily_stock_update DATE NOT NULL DEFAULT CURRENT_DATE
        )`,
		`CREATE TABLE IF NOT EXISTS addons (
            id SERIAL PRIMARY KEY,
            title TEXT NOT NULL,
            price NUMERIC(10,2) NOT NULL,
            tax NUMERIC(10,2) NOT NULL DEFAULT 0
        )`,
		`CREATE TABLE IF NOT EXISTS product_addons (
            product_id BIGINT NOT NULL REFERENCES products(id),
            addon_id BIGINT NOT NULL REFERENCES addons(id),
            PRIMARY KEY (product_id, addon_id)
        )`,
		`CREATE TABLE IF NOT EXISTS product_variations (
            id SERIAL PRIMARY KEY,
            product_id BIGINT NOT NULL REFERENCES products(id),
            title TEXT NOT NULL,
            min_selections INTEGER NOT NULL DEFAULT 1,
            max_selections INTEGER NOT NULL DEFAULT 1,
            required BOOLEAN NOT NULL DEFAULT FALSE
        )`,
		`CREATE TABLE IF NOT EXISTS variation_options (
            id SERIAL PRIMARY KEY,
            name TEXT NOT NULL,
            price NUMERIC(10,2) NOT NULL DEFAULT 0
        )`,
		`CREATE TABLE IF NOT EXISTS variation_option_links (
            variation_id BIGINT NOT NULL REFERENCES product_variations(id),
            option_id BIGINT NOT NULL REFERENCES variation_options(id),
            PRIMARY KEY (variation_id, option_id)
        )`,
		`CREATE TABLE IF NOT EXISTS shipping_addresses (
            id SERIAL PRIMARY KEY,
            address TEXT NOT NULL,
            longitude DOUBLE PRECISION NOT NULL,
            latitude DOUBLE PRECISION NOT NULL,
            UNIQUE (address, longitude, latitude)
        )`,
		`CREATE TABLE IF NOT EXISTS orders (
            id SERIAL PRIMARY KEY,
            user_id BIGINT NOT NULL REFERENCES users(id),
            branch_id BIGINT NOT NULL REFERENCES branches(id),
            shipping_address_id BIGINT NOT NULL REFERENCES shipping_addresses(id),
            type TEXT NOT NULL,
            status TEXT NOT NULL DEFAULT 'pending',
            total_price NUMERIC(10,2) NOT NULL,
            is_scheduled BOOLEAN NOT NULL DEFAULT FALSE,
            scheduled_at TIMESTAMPTZ,
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        )`,
		`CREATE TABLE IF NOT EXISTS order_items (
            id SERIAL PRIMARY KEY,
            order_id BIGINT NOT NULL REFERENCES orders(id),
            product_id BIGINT NOT NULL REFERENCES products(id),
            quantity INTEGER NOT NULL,
            total_price NUMERIC(10,2) NOT NULL
        )`,
		`CREATE TABLE IF NOT EXISTS order_item_addons (
            order_item_id BIGINT NOT NULL REFERENCES order_items(id),
            addon_id BIGINT NOT NULL REFERENCES addons(id),
            PRIMARY KEY (order_item_id, addon_id)
        )`,
		`CREATE TABLE IF NOT EXISTS order_item_variations (
            order_item_id BIGINT NOT NULL REFERENCES order_items(id),
            variation_id BIGINT NOT NULL REFERENCES product_variations(id),
            PRIMARY KEY (order_item_id, variation_id)
        )`,
		`CREATE TABLE IF NOT EXISTS shipping_orders (
            id SERIAL PRIMARY KEY,
            order_id BIGINT NOT NULL REFERENCES orders(id),
            user_id BIGINT NOT NULL REFERENCES users(id),
            fee NUMERIC(10,2) NOT NULL,
            status TEXT NOT NULL,
            shipping_client TEXT NOT NULL DEFAULT '',
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        )`,
		`CREATE TABLE IF NOT EXISTS payments (
            id SERIAL PRIMARY KEY,
            order_id BIGINT NOT NULL REFERENCES orders(id),
            user_id BIGINT NOT NULL REFERENCES users(id),
            amount NUMERIC(10,2) NOT NULL,
            currency TEXT NOT NULL DEFAULT 'USD',
            status TEXT NOT NULL,
            gateway TEXT NOT NULL,
            payment_intent_id TEXT NOT NULL,
            payment_client_secret TEXT NOT NULL,
            receipt_email TEXT NOT NULL
        )`,
		`CREATE TABLE IF NOT EXISTS notifications (
            id SERIAL PRIMARY KEY,
            user_id BIGINT NOT NULL REFERENCES users(id),
            message TEXT NOT NULL,
            icon TEXT NOT NULL DEFAULT '',
            is_read BOOLEAN NOT NULL DEFAULT FALSE,
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        )`,
		`CREATE INDEX IF NOT EXISTS idx_orders_user ON orders(user_id, created_at DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_products_branch ON products(branch_id)`,
		`CREATE INDEX IF NOT EXISTS idx_shipping_orders_status ON shipping_orders(status, created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_notifications_user ON notifications(user_id, created_at DESC)`,
	}

	for _, stmt := range statements {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("init schema: %w", err)
		}
	}

	return nil
}

// --- UserRepository implementation ---

func (r *userRepository) GetByID(ctx context.Context, id int64) (*model.User, error) {
	const query = `SELECT id, login, created_at FROM users WHERE id=$1`
	var u model.User
	err := r.storage.pool.QueryRow(ctx, query, id).Scan(&u.ID, &u.Login, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

// --- OrderRepository implementation ---

func (r *orderRepository) Compose(ctx context.Context, fn func(scope repository.CompositionScope) error) error {
	return r.storage.WithinTransaction(ctx, func(tx pgx.Tx) error {
		return fn(&compositionScope{tx: tx})
	})
}

func (r *orderRepository) GetByID(ctx context.Context, id int64) (*model.Order, error) {
	const query = `SELECT id, user_id, branch_id, shipping_address_id, type, status, total_price,
                          is_scheduled, scheduled_at, created_at
                   FROM orders WHERE id=$1`
	var o model.Order
	err := r.storage.pool.QueryRow(ctx, query, id).Scan(orderDest(&o)...)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrOrderNotFound
		}
		return nil, err
	}

	lines, err := r.loadLines(ctx, o.ID)
	if err != nil {
		return nil, err
	}
	o.Lines = lines
	return &o, nil
}

func orderDest(o *model.Order) []any {
	return []any{
		&o.ID, &o.UserID, &o.BranchID, &o.ShippingAddressID, &o.Type, &o.Status,
		&o.TotalPrice, &o.IsScheduled, &o.ScheduledAt, &o.CreatedAt,
	}
}

func (r *orderRepository) loadLines(ctx context.Context, orderID int64) ([]model.OrderLine, error) {
	const itemsQuery = `SELECT id, order_id, product_id, quantity, total_price
                        FROM order_items WHERE order_id=$1 ORDER BY id`
	rows, err := r.storage.pool.Query(ctx, itemsQuery, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var lines []model.OrderLine
	var lineIDs []int64
	for rows.Next() {
		var l model.OrderLine
		if err := rows.Scan(&l.ID, &l.OrderID, &l.ProductID, &l.Quantity, &l.TotalPrice); err != nil {
			return nil, err
		}
		lines = append(lines, l)
		lineIDs = append(lineIDs, l.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return lines, nil
	}

	byID := make(map[int64]*model.OrderLine, len(lines))
	for i := range lines {
		byID[lines[i].ID] = &lines[i]
	}

	const addonsQuery = `SELECT order_item_id, addon_id FROM order_item_addons
                         WHERE order_item_id = ANY($1) ORDER BY addon_id`
	addonRows, err := r.storage.pool.Query(ctx, addonsQuery, lineIDs)
	if err != nil {
		return nil, err
	}
	defer addonRows.Close()
	for addonRows.Next() {
		var lineID, addonID int64
		if err := addonRows.Scan(&lineID, &addonID); err != nil {
			return nil, err
		}
		if l, ok := byID[lineID]; ok {
			l.AddonIDs = append(l.AddonIDs, addonID)
		}
	}
	if err := addonRows.Err(); err != nil {
		return nil, err
	}

	const variationsQuery = `SELECT order_item_id, variation_id FROM order_item_variations
                             WHERE order_item_id = ANY($1) ORDER BY variation_id`
	variationRows, err := r.storage.pool.Query(ctx, variationsQuery, lineIDs)
	if err != nil {
		return nil, err
	}
	defer variationRows.Close()
	for variationRows.Next() {
		var lineID, variationID int64
		if err := variationRows.Scan(&lineID, &variationID); err != nil {
			return nil, err
		}
		if l, ok := byID[lineID]; ok {
			l.VariationIDs = append(l.VariationIDs, variationID)
		}
	}
	if err := variationRows.Err(); err != nil {
		return nil, err
	}

	return lines, nil
}

func (r *orderRepository) ListByUser(ctx context.Context, userID int64) ([]model.Order, error) {
	const query = `SELECT id, user_id, branch_id, shipping_address_id, type, status, total_price,
                          is_scheduled, scheduled_at, created_at
                   FROM orders WHERE user_id=$1 ORDER BY created_at DESC`
	rows, err := r.storage.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []model.Order
	for rows.Next() {
		var o model.Order
		if err := rows.Scan(orderDest(&o)...); err != nil {
			return nil, err
		}
		result = append(result, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *orderRepository) UpdateStatus(ctx context.Context, orderID int64, status model.OrderStatus) error {
	const query = `UPDATE orders SET status=$1 WHERE id=$2`
	ct, err := r.storage.pool.Exec(ctx, query, status, orderID)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return domainErrors.ErrOrderNotFound
	}
	return nil
}

// --- ShippingRepository implementation ---

func (r *shippingRepository) SelectBatchForDispatch(ctx context.Context, limit int) ([]model.ShippingOrder, error) {
	const selectQuery = `SELECT id, order_id, user_id, fee, status, shipping_client, created_at
                         FROM shipping_orders
                         WHERE status IN ('pending', 'dispatching')
                         ORDER BY created_at
                         LIMIT $1
                         FOR UPDATE SKIP LOCKED`

	var shipments []model.ShippingOrder
	err := r.storage.WithinTransaction(ctx, func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx, selectQuery, limit)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var so model.ShippingOrder
			if err := rows.Scan(&so.ID, &so.OrderID, &so.UserID, &so.Fee, &so.Status, &so.ShippingClient, &so.CreatedAt); err != nil {
				return err
			}
			if _, err := tx.Exec(ctx, `UPDATE shipping_orders SET status='dispatching' WHERE id=$1`, so.ID); err != nil {
				return err
			}
			so.Status = model.ShippingStatusDispatching
			shipments = append(shipments, so)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return shipments, nil
}

func (r *shippingRepository) MarkDispatched(ctx context.Context, shippingOrderID int64) error {
	const query = `UPDATE shipping_orders SET status='dispatched' WHERE id=$1`
	_, err := r.storage.pool.Exec(ctx, query, shippingOrderID)
	return err
}

func (r *shippingRepository) ListByUser(ctx context.Context, userID int64) ([]model.ShippingOrder, error) {
	const query = `SELECT id, order_id, user_id, fee, status, shipping_client, created_at
                   FROM shipping_orders WHERE user_id=$1 ORDER BY created_at DESC`
	rows, err := r.storage.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []model.ShippingOrder
	for rows.Next() {
		var so model.ShippingOrder
		if err := rows.Scan(&so.ID, &so.OrderID, &so.UserID, &so.Fee, &so.Status, &so.ShippingClient, &so.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, so)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// --- NotificationRepository implementation ---

func (r *notificationRepository) Create(ctx context.Context, userID int64, message string) (*model.Notification, error) {
	const query = `INSERT INTO notifications (user_id, message) VALUES ($1, $2)
                   RETURNING id, icon, is_read, created_at`
	n := model.Notification{UserID: userID, Message: message}
	err := r.storage.pool.QueryRow(ctx, query, userID, message).Scan(&n.ID, &n.Icon, &n.IsRead, &n.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &n, nil
}

func (r *notificationRepository) GetByID(ctx context.Context, id int64) (*model.Notification, error) {
	const query = `SELECT id, user_id, message, icon, is_read, created_at FROM notifications WHERE id=$1`
	var n model.Notification
	err := r.storage.pool.QueryRow(ctx, query, id).Scan(&n.ID, &n.UserID, &n.Message, &n.Icon, &n.IsRead, &n.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrNotFound
		}
		return nil, err
	}
	return &n, nil
}

func (r *notificationRepository) ListByUser(ctx context.Context, userID int64) ([]model.Notification, error) {
	const query = `SELECT id, user_id, message, icon, is_read, created_at
                   FROM notifications WHERE user_id=$1 ORDER BY created_at DESC`
	rows, err := r.storage.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []model.Notification
	for rows.Next() {
		var n model.Notification
		if err := rows.Scan(&n.ID, &n.UserID, &n.Message, &n.Icon, &n.IsRead, &n.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, n)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *notificationRepository) MarkRead(ctx context.Context, id int64) error {
	const query = `UPDATE notifications SET is_read=TRUE WHERE id=$1`
	ct, err := r.storage.pool.Exec(ctx, query, id)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return domainErrors.ErrNotFound
	}
	return nil
}

// WithinTransaction executes function inside transaction boundary.
func (s *Storage) WithinTransaction(ctx context.Context, fn func(pgx.Tx) error) (err error) {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		} else {
			err = tx.Commit(ctx)
		}
	}()

	err = fn(tx)
	return err
}

// HealthCheck verifies database connectivity.
func (s *Storage) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return s.pool.Ping(ctx)
}

// Logger returns storage logger.
func (s *Storage) Logger() *slog.Logger {
	return s.logger
}
