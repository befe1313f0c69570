package spapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"time"
)

const (
	purchaseOrdersPath = "/vendor/orders/v1/purchaseOrders"
	OrdersPageLimit    = 100
)

// PurchaseOrderPage is one page of the vendor purchase order list
type PurchaseOrderPage struct {
	Orders    []Order
	NextToken string
}

type Order struct {
	PurchaseOrderNumber string        `json:"purchaseOrderNumber"`
	PurchaseOrderState  string        `json:"purchaseOrderState"`
	OrderDetails        *OrderDetails `json:"orderDetails"`

	// Raw is the order exactly as the API returned it
	Raw json.RawMessage `json:"-"`
	// DecodeErr is set when Raw does not match the typed fields above. Only
	// PurchaseOrderNumber is filled in then, when it could be read.
	DecodeErr error `json:"-"`
}

type OrderDetails struct {
	PurchaseOrderDate string          `json:"purchaseOrderDate"`
	ShipWindow        string          `json:"shipWindow"`
	DeliveryWindow    string          `json:"deliveryWindow"`
	BuyingParty       json.RawMessage `json:"buyingParty"`
	SellingParty      json.RawMessage `json:"sellingParty"`
	ShipToParty       json.RawMessage `json:"shipToParty"`
	BillToParty       json.RawMessage `json:"billToParty"`
	Items             []OrderItem     `json:"items"`

	// RawItems is the items array as sent, including fields OrderItem does not model
	RawItems json.RawMessage `json:"-"`
}

type OrderItem struct {
	ItemSequenceNumber      string        `json:"itemSequenceNumber"`
	AmazonProductIdentifier string        `json:"amazonProductIdentifier"`
	VendorProductIdentifier string        `json:"vendorProductIdentifier"`
	OrderedQuantity         *ItemQuantity `json:"orderedQuantity"`
	AcknowledgedQuantity    *ItemQuantity `json:"acknowledgedQuantity"`
	NetCost                 *Money        `json:"netCost"`
}

type ItemQuantity struct {
	Amount        int    `json:"amount"`
	UnitOfMeasure string `json:"unitOfMeasure"`
	UnitSize      int    `json:"unitSize"`
}

type Money struct {
	CurrencyCode string `json:"currencyCode"`
	Amount       string `json:"amount"`
}

type ordersResponse struct {
	Payload struct {
		Orders     []json.RawMessage `json:"orders"`
		Pagination *struct {
			NextToken string `json:"nextToken"`
		} `json:"pagination"`
	} `json:"payload"`
}

// ListPurchaseOrders fetches one page of purchase orders created after
// createdAfter. An empty nextToken requests the first page.
func (c *Client) ListPurchaseOrders(ctx context.Context, accessToken string, createdAfter time.Time, nextToken string) (*PurchaseOrderPage, error) {
	query := url.Values{}
	query.Set("limit", strconv.Itoa(OrdersPageLimit))
	query.Set("createdAfter", createdAfter.UTC().Format(isoLayout))
	if nextToken != "" {
		query.Set("nextToken", nextToken)
	}

	var resp ordersResponse
	if err := c.getJSON(ctx, "getPurchaseOrders", purchaseOrdersPath, query, accessToken, &resp); err != nil {
		return nil, err
	}

	page := &PurchaseOrderPage{Orders: make([]Order, 0, len(resp.Payload.Orders))}
	for i, raw := range resp.Payload.Orders {
		page.Orders = append(page.Orders, decodeOrder(i, raw))
	}
	if resp.Payload.Pagination != nil {
		page.NextToken = resp.Payload.Pagination.NextToken
	}
	return page, nil
}

// decodeOrder never fails: an order that does not decode is returned with
// DecodeErr set so the caller can skip it and keep the rest of the page.
func decodeOrder(index int, raw json.RawMessage) Order {
	var order Order
	if err := json.Unmarshal(raw, &order); err != nil {
		var id struct {
			PurchaseOrderNumber string `json:"purchaseOrderNumber"`
		}
		_ = json.Unmarshal(raw, &id)
		return Order{
			PurchaseOrderNumber: id.PurchaseOrderNumber,
			Raw:                 raw,
			DecodeErr:           fmt.Errorf("failed to decode purchase order %d: %w", index, err),
		}
	}
	order.Raw = raw

	if order.OrderDetails != nil {
		var items struct {
			OrderDetails struct {
				Items json.RawMessage `json:"items"`
			} `json:"orderDetails"`
		}
		if err := json.Unmarshal(raw, &items); err == nil {
			order.OrderDetails.RawItems = items.OrderDetails.Items
		}
	}
	return order
}
