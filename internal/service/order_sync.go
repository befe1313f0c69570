package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/datatypes"

	"github.com/elchunenfreund/amazon-vendor-sync/internal/models"
	"github.com/elchunenfreund/amazon-vendor-sync/internal/spapi"
)

// Pagination stops after this many pages even if the API keeps returning a nextToken
const maxOrderPages = 50

// PurchaseOrderLister fetches one page of vendor purchase orders
type PurchaseOrderLister interface {
	ListPurchaseOrders(ctx context.Context, accessToken string, createdAfter time.Time, nextToken string) (*spapi.PurchaseOrderPage, error)
}

// PurchaseOrderStore interface for dependency injection
type PurchaseOrderStore interface {
	Upsert(ctx context.Context, order *models.PurchaseOrder, items []models.POLineItem) error
}

type OrderSyncResult struct {
	TotalFetched int  `json:"totalFetched"`
	SavedCount   int  `json:"savedCount"`
	FailedCount  int  `json:"failedCount"`
	PagesFetched int  `json:"pagesFetched"`
	Truncated    bool `json:"truncated"`
}

type OrderSync struct {
	lister PurchaseOrderLister
	store  PurchaseOrderStore
	logger *zap.Logger
	now    func() time.Time
}

func NewOrderSync(lister PurchaseOrderLister, store PurchaseOrderStore, logger *zap.Logger) *OrderSync {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OrderSync{lister: lister, store: store, logger: logger, now: time.Now}
}

// SyncOrders fetches every purchase order created in the last daysBack days
// and upserts them one by one. A page failure aborts the sync; an order that
// fails to persist is logged and skipped.
func (s *OrderSync) SyncOrders(ctx context.Context, accessToken string, daysBack int) (*OrderSyncResult, error) {
	createdAfter := s.now().UTC().AddDate(0, 0, -daysBack)
	result := &OrderSyncResult{}

	var orders []spapi.Order
	nextToken := ""
	for {
		page, err := s.lister.ListPurchaseOrders(ctx, accessToken, createdAfter, nextToken)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch purchase order page %d: %w", result.PagesFetched+1, err)
		}
		result.PagesFetched++
		orders = append(orders, page.Orders...)
		nextToken = page.NextToken

		s.logger.Debug("fetched purchase order page",
			zap.Int("page", result.PagesFetched),
			zap.Int("orders", len(page.Orders)))

		if nextToken == "" {
			break
		}
		if result.PagesFetched >= maxOrderPages {
			result.Truncated = true
			s.logger.Warn("purchase order pagination cap reached", zap.Int("pages", result.PagesFetched))
			break
		}
	}
	result.TotalFetched = len(orders)

	for i := range orders {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		if err := orders[i].DecodeErr; err != nil {
			result.FailedCount++
			s.logger.Error("skipping purchase order that could not be decoded",
				zap.String("po_number", orders[i].PurchaseOrderNumber),
				zap.Error(err))
			continue
		}

		order, items := convertOrder(&orders[i])
		if order.PONumber == "" {
			result.FailedCount++
			s.logger.Warn("skipping purchase order without a number")
			continue
		}
		if err := s.store.Upsert(ctx, order, items); err != nil {
			result.FailedCount++
			s.logger.Error("failed to save purchase order",
				zap.String("po_number", order.PONumber),
				zap.Error(err))
			continue
		}
		result.SavedCount++
	}

	s.logger.Info("purchase orders synced",
		zap.Int("fetched", result.TotalFetched),
		zap.Int("saved", result.SavedCount),
		zap.Int("failed", result.FailedCount),
		zap.Int("pages", result.PagesFetched))
	return result, nil
}

// convertOrder maps an API order to its row and line items. Items without an
// ASIN are dropped; a repeated ASIN keeps its last line.
func convertOrder(o *spapi.Order) (*models.PurchaseOrder, []models.POLineItem) {
	order := &models.PurchaseOrder{
		PONumber: strings.TrimSpace(o.PurchaseOrderNumber),
		POState:  o.PurchaseOrderState,
		RawData:  jsonColumn(o.Raw),
	}

	d := o.OrderDetails
	if d == nil {
		return order, nil
	}

	order.PODate = parseTimestamp(d.PurchaseOrderDate)
	order.ShipWindowStart, order.ShipWindowEnd = ParseWindow(d.ShipWindow).Bounds()
	order.DeliveryWindowStart, order.DeliveryWindowEnd = ParseWindow(d.DeliveryWindow).Bounds()
	order.BuyingParty = jsonColumn(d.BuyingParty)
	order.SellingParty = jsonColumn(d.SellingParty)
	order.ShipToParty = jsonColumn(d.ShipToParty)
	order.BillToParty = jsonColumn(d.BillToParty)
	order.Items = jsonColumn(d.RawItems)
	if order.Items == nil && len(d.Items) > 0 {
		if b, err := json.Marshal(d.Items); err == nil {
			order.Items = datatypes.JSON(b)
		}
	}

	items := make([]models.POLineItem, 0, len(d.Items))
	index := make(map[string]int, len(d.Items))
	for _, it := range d.Items {
		asin := strings.TrimSpace(it.AmazonProductIdentifier)
		if asin == "" {
			continue
		}
		line := models.POLineItem{
			PONumber:  order.PONumber,
			ASIN:      asin,
			VendorSKU: optionalString(it.VendorProductIdentifier),
		}
		if q := it.OrderedQuantity; q != nil {
			amount := q.Amount
			line.OrderedQuantity = &amount
			line.OrderedUnit = optionalString(q.UnitOfMeasure)
		}
		if q := it.AcknowledgedQuantity; q != nil {
			amount := q.Amount
			line.AcknowledgedQuantity = &amount
		}
		if m := it.NetCost; m != nil {
			if cost, err := strconv.ParseFloat(strings.TrimSpace(m.Amount), 64); err == nil {
				line.NetCost = &cost
			}
			line.Currency = optionalString(m.CurrencyCode)
		}

		if at, seen := index[asin]; seen {
			items[at] = line
			continue
		}
		index[asin] = len(items)
		items = append(items, line)
	}
	return order, items
}

func jsonColumn(raw json.RawMessage) datatypes.JSON {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil
	}
	return datatypes.JSON(trimmed)
}

func optionalString(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
