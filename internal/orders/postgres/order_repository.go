package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/commercemesh/fulfillment/internal/orders/domain"
	"github.com/commercemesh/fulfillment/internal/orders/ports"
)

type orderRepository struct {
	db *gorm.DB
}

func (r *orderRepository) Create(ctx context.Context, params ports.CreateOrderParams) (domain.Order, error) {
	total := decimal.Zero
	items := make([]orderItemModel, 0, len(params.Items))
	for _, item := range params.Items {
		lineTotal := item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity)))
		total = total.Add(lineTotal)
		items = append(items, orderItemModel{
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			TotalPrice:  lineTotal,
		})
	}

	rec := orderModel{
		OrderNumber:   params.OrderNumber,
		OrderType:     string(params.OrderType),
		Status:        string(domain.StatusPending),
		CustomerName:  strings.TrimSpace(params.CustomerName),
		CustomerEmail: strings.TrimSpace(params.CustomerEmail),
		TotalAmount:   total,
		CreatedAt:     params.Now,
		UpdatedAt:     params.Now,
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&rec).Error; err != nil {
			return err
		}
		for i := range items {
			items[i].OrderID = rec.OrderID
		}
		return tx.Create(&items).Error
	})
	if err != nil {
		return domain.Order{}, err
	}
	return toDomainOrder(rec, items), nil
}

func (r *orderRepository) GetByID(ctx context.Context, orderID uuid.UUID) (domain.Order, error) {
	var rec orderModel
	if err := r.db.WithContext(ctx).Where("order_id = ?", orderID).Take(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Order{}, domain.ErrNotFound
		}
		return domain.Order{}, err
	}
	items, err := r.itemsFor(ctx, r.db, orderID)
	if err != nil {
		return domain.Order{}, err
	}
	return toDomainOrder(rec, items), nil
}

func (r *orderRepository) List(ctx context.Context, params ports.ListOrdersParams) ([]domain.Order, int64, error) {
	query := r.db.WithContext(ctx).Model(&orderModel{})
	if params.Status != nil {
		query = query.Where("status = ?", string(*params.Status))
	}
	if params.OrderType != nil {
		query = query.Where("order_type = ?", string(*params.OrderType))
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var recs []orderModel
	if err := query.Order("created_at DESC").Limit(params.Limit).Offset(params.Offset).Find(&recs).Error; err != nil {
		return nil, 0, err
	}

	out := make([]domain.Order, 0, len(recs))
	for _, rec := range recs {
		items, err := r.itemsFor(ctx, r.db, rec.OrderID)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, toDomainOrder(rec, items))
	}
	return out, total, nil
}

// UpdateStatus runs the synchronous transition path. The row lock keeps
// concurrent status writes and saga outcome applications from
// interleaving on the same order.
func (r *orderRepository) UpdateStatus(ctx context.Context, orderID uuid.UUID, to domain.OrderStatus, now time.Time) (ports.StatusChange, error) {
	var change ports.StatusChange
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		rec, err := lockOrder(tx, orderID)
		if err != nil {
			return err
		}
		previous := domain.OrderStatus(rec.Status)
		if !domain.CanTransition(previous, to) {
			return fmt.Errorf("%w: %s to %s", domain.ErrInvalidTransition, previous, to)
		}

		updates := map[string]any{
			"status":     string(to),
			"updated_at": now,
		}
		if to == domain.StatusCompleted {
			updates["processed_at"] = now
		}
		if err := tx.Model(&orderModel{}).Where("order_id = ?", orderID).Updates(updates).Error; err != nil {
			return err
		}

		rec.Status = string(to)
		rec.UpdatedAt = now
		if to == domain.StatusCompleted {
			rec.ProcessedAt = &now
		}
		items, err := r.itemsFor(ctx, tx, orderID)
		if err != nil {
			return err
		}
		change = ports.StatusChange{Order: toDomainOrder(rec, items), Previous: previous}
		return nil
	})
	if err != nil {
		return ports.StatusChange{}, err
	}
	return change, nil
}

// ApplyOutcome runs the saga transition path. Unlike UpdateStatus it
// never rejects: outcomes that resolve to a no-op commit nothing and
// report changed=false.
func (r *orderRepository) ApplyOutcome(ctx context.Context, orderID uuid.UUID, path domain.OutcomePath, now time.Time) (ports.StatusChange, bool, error) {
	var (
		change  ports.StatusChange
		changed bool
	)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		rec, err := lockOrder(tx, orderID)
		if err != nil {
			return err
		}
		previous := domain.OrderStatus(rec.Status)
		next, moved := domain.ApplyOutcome(previous, path)
		if moved {
			if err := tx.Model(&orderModel{}).Where("order_id = ?", orderID).Updates(map[string]any{
				"status":     string(next),
				"updated_at": now,
			}).Error; err != nil {
				return err
			}
			rec.Status = string(next)
			rec.UpdatedAt = now
		}
		items, err := r.itemsFor(ctx, tx, orderID)
		if err != nil {
			return err
		}
		change = ports.StatusChange{Order: toDomainOrder(rec, items), Previous: previous}
		changed = moved
		return nil
	})
	if err != nil {
		return ports.StatusChange{}, false, err
	}
	return change, changed, nil
}

func (r *orderRepository) Stats(ctx context.Context) (ports.OrderStats, error) {
	stats := ports.OrderStats{
		ByStatus: make(map[domain.OrderStatus]int64),
		ByType:   make(map[domain.OrderType]int64),
	}

	type countRow struct {
		Label string
		Count int64
	}
	var statusRows []countRow
	if err := r.db.WithContext(ctx).Model(&orderModel{}).
		Select("status as label, count(*) as count").
		Group("status").
		Scan(&statusRows).Error; err != nil {
		return ports.OrderStats{}, err
	}
	for _, row := range statusRows {
		stats.ByStatus[domain.OrderStatus(row.Label)] = row.Count
		stats.TotalOrders += row.Count
	}

	var typeRows []countRow
	if err := r.db.WithContext(ctx).Model(&orderModel{}).
		Select("order_type as label, count(*) as count").
		Group("order_type").
		Scan(&typeRows).Error; err != nil {
		return ports.OrderStats{}, err
	}
	for _, row := range typeRows {
		stats.ByType[domain.OrderType(row.Label)] = row.Count
	}

	// Revenue only counts orders that actually completed.
	var amountRow struct {
		Total decimal.NullDecimal
	}
	if err := r.db.WithContext(ctx).Model(&orderModel{}).
		Select("sum(total_amount) as total").
		Where("status = ?", string(domain.StatusCompleted)).
		Scan(&amountRow).Error; err != nil {
		return ports.OrderStats{}, err
	}
	stats.TotalRevenue = decimal.Zero
	if amountRow.Total.Valid {
		stats.TotalRevenue = amountRow.Total.Decimal
	}
	return stats, nil
}

func (r *orderRepository) itemsFor(ctx context.Context, db *gorm.DB, orderID uuid.UUID) ([]orderItemModel, error) {
	var items []orderItemModel
	if err := db.WithContext(ctx).Where("order_id = ?", orderID).Order("item_id").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func lockOrder(tx *gorm.DB, orderID uuid.UUID) (orderModel, error) {
	var rec orderModel
	if err := tx.Clauses(forUpdate()).Where("order_id = ?", orderID).Take(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return orderModel{}, domain.ErrNotFound
		}
		return orderModel{}, err
	}
	return rec, nil
}

var _ ports.OrderRepository = (*orderRepository)(nil)
