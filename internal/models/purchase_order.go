package models

import (
	"time"

	"gorm.io/datatypes"
)

// Purchase order states reported by the vendor orders API
const (
	POStateNew          = "New"
	POStateAcknowledged = "Acknowledged"
)

// PurchaseOrder is a vendor purchase order keyed by its Amazon PO number
type PurchaseOrder struct {
	PONumber            string         `gorm:"column:po_number;primaryKey"`
	PODate              *time.Time     `gorm:"column:po_date"`
	POState             string         `gorm:"column:po_state;index"`
	ShipWindowStart     *time.Time     `gorm:"column:ship_window_start"`
	ShipWindowEnd       *time.Time     `gorm:"column:ship_window_end"`
	DeliveryWindowStart *time.Time     `gorm:"column:delivery_window_start"`
	DeliveryWindowEnd   *time.Time     `gorm:"column:delivery_window_end"`
	BuyingParty         datatypes.JSON `gorm:"column:buying_party"`
	SellingParty        datatypes.JSON `gorm:"column:selling_party"`
	ShipToParty         datatypes.JSON `gorm:"column:ship_to_party"`
	BillToParty         datatypes.JSON `gorm:"column:bill_to_party"`
	Items               datatypes.JSON `gorm:"column:items"`
	RawData             datatypes.JSON `gorm:"column:raw_data"`
	CreatedAt           time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt           time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName specifies the table name for GORM
func (PurchaseOrder) TableName() string {
	return "purchase_orders"
}

// POLineItem is a single ASIN line of a purchase order
type POLineItem struct {
	PONumber             string    `gorm:"column:po_number;primaryKey"`
	ASIN                 string    `gorm:"column:asin;primaryKey"`
	VendorSKU            *string   `gorm:"column:vendor_sku"`
	OrderedQuantity      *int      `gorm:"column:ordered_quantity"`
	OrderedUnit          *string   `gorm:"column:ordered_unit"`
	AcknowledgedQuantity *int      `gorm:"column:acknowledged_quantity"`
	NetCost              *float64  `gorm:"column:net_cost"`
	Currency             *string   `gorm:"column:currency"`
	UpdatedAt            time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName specifies the table name for GORM
func (POLineItem) TableName() string {
	return "po_line_items"
}
