package repository

import (
	"context"
	"fmt"

	"github.com/elchunenfreund/amazon-vendor-sync/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PurchaseOrderRepository struct {
	db *gorm.DB
}

func NewPurchaseOrderRepository(db *gorm.DB) *PurchaseOrderRepository {
	return &PurchaseOrderRepository{db: db}
}

// Upsert writes the order and its line items in one transaction.
// An existing po_date is kept when the incoming order has none.
func (r *PurchaseOrderRepository) Upsert(ctx context.Context, order *models.PurchaseOrder, items []models.POLineItem) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		orderUpdates := append(clause.AssignmentColumns([]string{
			"po_state",
			"ship_window_start", "ship_window_end",
			"delivery_window_start", "delivery_window_end",
			"buying_party", "selling_party", "ship_to_party", "bill_to_party",
			"items", "raw_data", "updated_at",
		}), clause.Assignment{
			Column: clause.Column{Name: "po_date"},
			Value:  gorm.Expr("COALESCE(excluded.po_date, purchase_orders.po_date)"),
		})

		err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "po_number"}},
			DoUpdates: orderUpdates,
		}).Create(order).Error
		if err != nil {
			return fmt.Errorf("failed to upsert purchase order %s: %w", order.PONumber, err)
		}

		if len(items) == 0 {
			return nil
		}

		err = tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "po_number"}, {Name: "asin"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"vendor_sku", "ordered_quantity", "ordered_unit",
				"acknowledged_quantity", "net_cost", "currency", "updated_at",
			}),
		}).Create(&items).Error
		if err != nil {
			return fmt.Errorf("failed to upsert line items for %s: %w", order.PONumber, err)
		}
		return nil
	})
}
