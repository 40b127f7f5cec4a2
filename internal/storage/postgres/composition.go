package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	domainErrors "github.com/lunchpad/orderengine/internal/domain/errors"
	"github.com/lunchpad/orderengine/internal/domain/model"
)

const uniqueViolationCode = "23505"

// compositionScope executes all catalog lookups and mutations of one order
// composition run on a single transaction.
type compositionScope struct {
	tx pgx.Tx
}

func (s *compositionScope) Branch(ctx context.Context, id int64) (*model.Branch, error) {
	const query = `SELECT id, name FROM branches WHERE id=$1`
	var b model.Branch
	err := s.tx.QueryRow(ctx, query, id).Scan(&b.ID, &b.Name)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrBranchNotFound
		}
		return nil, err
	}
	return &b, nil
}

func (s *compositionScope) Product(ctx context.Context, id, branchID int64) (*model.Product, error) {
	const query = `SELECT id, branch_id, name, price, stock_type, stock, stock_daily, last_daily_stock_update
                   FROM products WHERE id=$1 AND branch_id=$2`
	var p model.Product
	err := s.tx.QueryRow(ctx, query, id, branchID).Scan(
		&p.ID, &p.BranchID, &p.Name, &p.Price, &p.StockPolicy, &p.Stock, &p.DailyStock, &p.LastDailyRestock,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("product %d: %w", id, domainErrors.ErrProductNotFound)
		}
		return nil, err
	}
	return &p, nil
}

func (s *compositionScope) Addon(ctx context.Context, id, productID int64) (*model.Addon, error) {
	const query = `SELECT a.id, a.title, a.price, a.tax,
                          EXISTS (SELECT 1 FROM product_addons pa
                                  WHERE pa.addon_id=a.id AND pa.product_id=$2)
                   FROM addons a WHERE a.id=$1`
	var a model.Addon
	var eligible bool
	err := s.tx.QueryRow(ctx, query, id, productID).Scan(&a.ID, &a.Title, &a.Price, &a.Tax, &eligible)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("addon %d: %w", id, domainErrors.ErrAddonNotFound)
		}
		return nil, err
	}
	if !eligible {
		return nil, domainErrors.ErrInvalidAddon
	}
	return &a, nil
}

func (s *compositionScope) Variation(ctx context.Context, id, productID int64) (*model.Variation, error) {
	const query = `SELECT id, product_id, title, min_selections, max_selections, required
                   FROM product_variations WHERE id=$1`
	var v model.Variation
	err := s.tx.QueryRow(ctx, query, id).Scan(
		&v.ID, &v.ProductID, &v.Title, &v.MinSelections, &v.MaxSelections, &v.Required,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("variation %d: %w", id, domainErrors.ErrVariationNotFound)
		}
		return nil, err
	}
	if v.ProductID != productID {
		return nil, domainErrors.ErrInvalidVariation
	}
	return &v, nil
}

func (s *compositionScope) Option(ctx context.Context, id, variationID int64) (*model.VariationOption, error) {
	const query = `SELECT o.id, o.name, o.price,
                          EXISTS (SELECT 1 FROM variation_option_links l
                                  WHERE l.option_id=o.id AND l.variation_id=$2)
                   FROM variation_options o WHERE o.id=$1`
	var o model.VariationOption
	var linked bool
	err := s.tx.QueryRow(ctx, query, id, variationID).Scan(&o.ID, &o.Name, &o.Price, &linked)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("variation option %d: %w", id, domainErrors.ErrOptionNotFound)
		}
		return nil, err
	}
	if !linked {
		return nil, domainErrors.ErrInvalidOption
	}
	return &o, nil
}

func (s *compositionScope) RequiredVariations(ctx context.Context, productID int64) ([]model.Variation, error) {
	const query = `SELECT id, product_id, title, min_selections, max_selections, required
                   FROM product_variations WHERE product_id=$1 AND required ORDER BY id`
	rows, err := s.tx.Query(ctx, query, productID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []model.Variation
	for rows.Next() {
		var v model.Variation
		if err := rows.Scan(&v.ID, &v.ProductID, &v.Title, &v.MinSelections, &v.MaxSelections, &v.Required); err != nil {
			return nil, err
		}
		result = append(result, v)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// ReserveStock checks and decrements availability for a product under its
// stock policy. Daily stock is replenished before the check; the check plus
// decrement is a single conditional update, so two orders competing for the
// last units cannot both succeed.
func (s *compositionScope) ReserveStock(ctx context.Context, product *model.Product, quantity int) error {
	switch product.StockPolicy {
	case model.StockPolicyUnlimited:
		return nil
	case model.StockPolicyDaily:
		const resetQuery = `UPDATE products
                            SET stock = stock_daily, last_daily_stock_update = CURRENT_DATE
                            WHERE id=$1 AND last_daily_stock_update <= CURRENT_DATE - 1`
		if _, err := s.tx.Exec(ctx, resetQuery, product.ID); err != nil {
			return err
		}
	case model.StockPolicyFixed:
	default:
		return fmt.Errorf("%w: %q", domainErrors.ErrUnknownStockPolicy, product.StockPolicy)
	}

	const reserveQuery = `UPDATE products SET stock = stock - $2 WHERE id=$1 AND stock >= $2`
	ct, err := s.tx.Exec(ctx, reserveQuery, product.ID, quantity)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return fmt.Errorf("product %d: %w", product.ID, domainErrors.ErrInsufficientStock)
	}
	return nil
}

// GetOrCreateAddress reuses a structurally identical shipping address or
// inserts a new row. A concurrent duplicate insert is resolved by re-reading.
func (s *compositionScope) GetOrCreateAddress(ctx context.Context, addr model.ShippingAddress) (*model.ShippingAddress, error) {
	const selectQuery = `SELECT id FROM shipping_addresses
                         WHERE address=$1 AND longitude=$2 AND latitude=$3`
	err := s.tx.QueryRow(ctx, selectQuery, addr.Address, addr.Longitude, addr.Latitude).Scan(&addr.ID)
	if err == nil {
		return &addr, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}

	const insertQuery = `INSERT INTO shipping_addresses (address, longitude, latitude)
                         VALUES ($1, $2, $3)
                         ON CONFLICT (address, longitude, latitude) DO NOTHING
                         RETURNING id`
	err = s.tx.QueryRow(ctx, insertQuery, addr.Address, addr.Longitude, addr.Latitude).Scan(&addr.ID)
	if err == nil {
		return &addr, nil
	}
	var pgErr *pgconn.PgError
	if !errors.Is(err, pgx.ErrNoRows) && !(errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode) {
		return nil, err
	}

	// Lost the race: the row exists now.
	if err := s.tx.QueryRow(ctx, selectQuery, addr.Address, addr.Longitude, addr.Latitude).Scan(&addr.ID); err != nil {
		return nil, err
	}
	return &addr, nil
}

func (s *compositionScope) InsertOrder(ctx context.Context, order *model.Order) error {
	const query = `INSERT INTO orders (user_id, branch_id, shipping_address_id, type, status,
                                       total_price, is_scheduled, scheduled_at)
                   VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
                   RETURNING id, created_at`
	return s.tx.QueryRow(ctx, query,
		order.UserID, order.BranchID, order.ShippingAddressID, order.Type, order.Status,
		order.TotalPrice, order.IsScheduled, order.ScheduledAt,
	).Scan(&order.ID, &order.CreatedAt)
}

func (s *compositionScope) InsertLine(ctx context.Context, orderID int64, line *model.OrderLine) error {
	const query = `INSERT INTO order_items (order_id, product_id, quantity, total_price)
                   VALUES ($1, $2, $3, $4)
                   RETURNING id`
	if err := s.tx.QueryRow(ctx, query, orderID, line.ProductID, line.Quantity, line.TotalPrice).Scan(&line.ID); err != nil {
		return err
	}
	line.OrderID = orderID

	for _, addonID := range line.AddonIDs {
		if _, err := s.tx.Exec(ctx,
			`INSERT INTO order_item_addons (order_item_id, addon_id) VALUES ($1, $2)`,
			line.ID, addonID,
		); err != nil {
			return err
		}
	}
	for _, variationID := range line.VariationIDs {
		if _, err := s.tx.Exec(ctx,
			`INSERT INTO order_item_variations (order_item_id, variation_id) VALUES ($1, $2)`,
			line.ID, variationID,
		); err != nil {
			return err
		}
	}
	return nil
}

func (s *compositionScope) InsertShippingOrder(ctx context.Context, so *model.ShippingOrder) error {
	const query = `INSERT INTO shipping_orders (order_id, user_id, fee, status, shipping_client)
                   VALUES ($1, $2, $3, $4, $5)
                   RETURNING id, created_at`
	return s.tx.QueryRow(ctx, query, so.OrderID, so.UserID, so.Fee, so.Status, so.ShippingClient).
		Scan(&so.ID, &so.CreatedAt)
}

func (s *compositionScope) InsertPayment(ctx context.Context, p *model.Payment) error {
	const query = `INSERT INTO payments (order_id, user_id, amount, currency, status, gateway,
                                         payment_intent_id, payment_client_secret, receipt_email)
                   VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
                   RETURNING id`
	return s.tx.QueryRow(ctx, query,
		p.OrderID, p.UserID, p.Amount, p.Currency, p.Status, p.Gateway,
		p.IntentID, p.ClientSecret, p.ReceiptEmail,
	).Scan(&p.ID)
}
