package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/elchunenfreund/amazon-vendor-sync/internal/models"
	"github.com/elchunenfreund/amazon-vendor-sync/internal/repository"
	"github.com/elchunenfreund/amazon-vendor-sync/internal/spapi"
)

type mockOrderLister struct {
	calls    int
	listFunc func(ctx context.Context, accessToken string, createdAfter time.Time, nextToken string) (*spapi.PurchaseOrderPage, error)
}

func (m *mockOrderLister) ListPurchaseOrders(ctx context.Context, accessToken string, createdAfter time.Time, nextToken string) (*spapi.PurchaseOrderPage, error) {
	m.calls++
	if m.listFunc != nil {
		return m.listFunc(ctx, accessToken, createdAfter, nextToken)
	}
	return &spapi.PurchaseOrderPage{}, nil
}

type mockOrderStore struct {
	upsertFunc func(ctx context.Context, order *models.PurchaseOrder, items []models.POLineItem) error
}

func (m *mockOrderStore) Upsert(ctx context.Context, order *models.PurchaseOrder, items []models.POLineItem) error {
	if m.upsertFunc != nil {
		return m.upsertFunc(ctx, order, items)
	}
	return nil
}

func apiOrder(number, state string) spapi.Order {
	return spapi.Order{
		PurchaseOrderNumber: number,
		PurchaseOrderState:  state,
		OrderDetails: &spapi.OrderDetails{
			PurchaseOrderDate: "2024-06-01T10:00:00Z",
			ShipWindow:        "2024-06-05T07:00:00Z--2024-06-10T07:00:00Z",
			Items: []spapi.OrderItem{{
				AmazonProductIdentifier: "B07ABC1234",
				VendorProductIdentifier: "SKU-1",
				OrderedQuantity:         &spapi.ItemQuantity{Amount: 24, UnitOfMeasure: "Cases"},
				NetCost:                 &spapi.Money{CurrencyCode: "USD", Amount: "12.50"},
			}},
		},
		Raw: json.RawMessage(fmt.Sprintf(`{"purchaseOrderNumber":%q}`, number)),
	}
}

func TestOrderSync_StopsAtPageCap(t *testing.T) {
	lister := &mockOrderLister{listFunc: func(ctx context.Context, accessToken string, createdAfter time.Time, nextToken string) (*spapi.PurchaseOrderPage, error) {
		return &spapi.PurchaseOrderPage{NextToken: "more"}, nil
	}}

	result, err := NewOrderSync(lister, &mockOrderStore{}, nil).SyncOrders(context.Background(), "token", 30)
	require.NoError(t, err)
	require.Equal(t, 50, lister.calls)
	require.Equal(t, 50, result.PagesFetched)
	require.True(t, result.Truncated)
}

func TestOrderSync_FollowsNextToken(t *testing.T) {
	var tokens []string
	var cutoffs []time.Time
	lister := &mockOrderLister{listFunc: func(ctx context.Context, accessToken string, createdAfter time.Time, nextToken string) (*spapi.PurchaseOrderPage, error) {
		tokens = append(tokens, nextToken)
		cutoffs = append(cutoffs, createdAfter)
		switch nextToken {
		case "":
			return &spapi.PurchaseOrderPage{Orders: []spapi.Order{apiOrder("PO1", "New"), apiOrder("PO2", "New")}, NextToken: "t2"}, nil
		case "t2":
			return &spapi.PurchaseOrderPage{Orders: []spapi.Order{apiOrder("PO3", "New")}}, nil
		}
		return nil, fmt.Errorf("unexpected token %q", nextToken)
	}}

	sync := NewOrderSync(lister, &mockOrderStore{}, nil)
	sync.now = func() time.Time { return fixedNow }

	result, err := sync.SyncOrders(context.Background(), "token", 30)
	require.NoError(t, err)
	require.Equal(t, []string{"", "t2"}, tokens)
	require.Equal(t, fixedNow.AddDate(0, 0, -30), cutoffs[0])
	require.Equal(t, cutoffs[0], cutoffs[1])
	require.Equal(t, &OrderSyncResult{TotalFetched: 3, SavedCount: 3, PagesFetched: 2}, result)
}

func TestOrderSync_IsolatesOrderFailures(t *testing.T) {
	orders := []spapi.Order{
		apiOrder("PO1", "New"),
		apiOrder("PO2", "New"),
		apiOrder("PO3", "New"),
		apiOrder("PO4", "New"),
		apiOrder("PO5", "New"),
	}
	lister := &mockOrderLister{listFunc: func(ctx context.Context, accessToken string, createdAfter time.Time, nextToken string) (*spapi.PurchaseOrderPage, error) {
		return &spapi.PurchaseOrderPage{Orders: orders}, nil
	}}

	var saved []string
	store := &mockOrderStore{upsertFunc: func(ctx context.Context, order *models.PurchaseOrder, items []models.POLineItem) error {
		if order.PONumber == "PO3" {
			return errors.New("constraint violation")
		}
		saved = append(saved, order.PONumber)
		return nil
	}}

	result, err := NewOrderSync(lister, store, nil).SyncOrders(context.Background(), "token", 30)
	require.NoError(t, err)
	require.Equal(t, 5, result.TotalFetched)
	require.Equal(t, 4, result.SavedCount)
	require.Equal(t, 1, result.FailedCount)
	require.Equal(t, []string{"PO1", "PO2", "PO4", "PO5"}, saved)
}

func TestOrderSync_SkipsUndecodableOrder(t *testing.T) {
	bad := spapi.Order{
		PurchaseOrderNumber: "PO2",
		Raw:                 json.RawMessage(`{"purchaseOrderNumber":"PO2","orderDetails":{"items":[{"netCost":{"amount":12.5}}]}}`),
		DecodeErr:           errors.New("cannot unmarshal number into Go struct field Money.amount of type string"),
	}
	lister := &mockOrderLister{listFunc: func(ctx context.Context, accessToken string, createdAfter time.Time, nextToken string) (*spapi.PurchaseOrderPage, error) {
		return &spapi.PurchaseOrderPage{Orders: []spapi.Order{apiOrder("PO1", "New"), bad, apiOrder("PO3", "New")}}, nil
	}}

	var saved []string
	store := &mockOrderStore{upsertFunc: func(ctx context.Context, order *models.PurchaseOrder, items []models.POLineItem) error {
		saved = append(saved, order.PONumber)
		return nil
	}}

	result, err := NewOrderSync(lister, store, nil).SyncOrders(context.Background(), "token", 30)
	require.NoError(t, err)
	require.Equal(t, 3, result.TotalFetched)
	require.Equal(t, 2, result.SavedCount)
	require.Equal(t, 1, result.FailedCount)
	require.Equal(t, []string{"PO1", "PO3"}, saved)
}

func TestOrderSync_PageFailureIsFatal(t *testing.T) {
	lister := &mockOrderLister{listFunc: func(ctx context.Context, accessToken string, createdAfter time.Time, nextToken string) (*spapi.PurchaseOrderPage, error) {
		if nextToken == "" {
			return &spapi.PurchaseOrderPage{Orders: []spapi.Order{apiOrder("PO1", "New")}, NextToken: "t2"}, nil
		}
		return nil, &spapi.TransportError{Op: "getPurchaseOrders", Err: errors.New("connection reset")}
	}}

	upserts := 0
	store := &mockOrderStore{upsertFunc: func(ctx context.Context, order *models.PurchaseOrder, items []models.POLineItem) error {
		upserts++
		return nil
	}}

	_, err := NewOrderSync(lister, store, nil).SyncOrders(context.Background(), "token", 30)
	require.True(t, spapi.IsTransportError(err))
	require.Zero(t, upserts)
}

func TestOrderSync_WithRepository(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	repo := repository.NewPurchaseOrderRepository(db)

	first := apiOrder("PO1", "New")
	second := apiOrder("PO1", "Acknowledged")
	second.OrderDetails.PurchaseOrderDate = ""
	second.OrderDetails.ShipWindow = "not a window"

	for _, o := range []spapi.Order{first, second} {
		lister := &mockOrderLister{listFunc: func(ctx context.Context, accessToken string, createdAfter time.Time, nextToken string) (*spapi.PurchaseOrderPage, error) {
			return &spapi.PurchaseOrderPage{Orders: []spapi.Order{o}}, nil
		}}
		result, err := NewOrderSync(lister, repo, nil).SyncOrders(ctx, "token", 30)
		require.NoError(t, err)
		require.Equal(t, 1, result.SavedCount)
	}

	var stored models.PurchaseOrder
	require.NoError(t, db.First(&stored, "po_number = ?", "PO1").Error)
	require.Equal(t, "Acknowledged", stored.POState)
	require.NotNil(t, stored.PODate)
	require.Equal(t, time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC), stored.PODate.UTC())
	require.Nil(t, stored.ShipWindowStart)
	require.Nil(t, stored.ShipWindowEnd)

	var items []models.POLineItem
	require.NoError(t, db.Where("po_number = ?", "PO1").Find(&items).Error)
	require.Len(t, items, 1)
	require.Equal(t, 24, *items[0].OrderedQuantity)
	require.InDelta(t, 12.5, *items[0].NetCost, 0.001)
}

func TestConvertOrder(t *testing.T) {
	o := apiOrder("PO9", "Closed")
	o.OrderDetails.DeliveryWindow = "2024-06-11T07:00:00Z--2024-06-12T07:00:00Z"
	o.OrderDetails.BuyingParty = json.RawMessage(`{"partyId":"AMZN"}`)
	o.OrderDetails.SellingParty = json.RawMessage(`null`)
	o.OrderDetails.Items = append(o.OrderDetails.Items,
		spapi.OrderItem{AmazonProductIdentifier: ""},
		spapi.OrderItem{AmazonProductIdentifier: "B07ABC1234", OrderedQuantity: &spapi.ItemQuantity{Amount: 30}},
		spapi.OrderItem{AmazonProductIdentifier: "B08XYZ", AcknowledgedQuantity: &spapi.ItemQuantity{Amount: 5}},
	)

	order, items := convertOrder(&o)
	require.Equal(t, "PO9", order.PONumber)
	require.Equal(t, time.Date(2024, 6, 5, 7, 0, 0, 0, time.UTC), *order.ShipWindowStart)
	require.Equal(t, time.Date(2024, 6, 12, 7, 0, 0, 0, time.UTC), *order.DeliveryWindowEnd)
	require.JSONEq(t, `{"partyId":"AMZN"}`, string(order.BuyingParty))
	require.Nil(t, order.SellingParty)
	require.JSONEq(t, `{"purchaseOrderNumber":"PO9"}`, string(order.RawData))

	require.Len(t, items, 2)
	require.Equal(t, "B07ABC1234", items[0].ASIN)
	require.Equal(t, 30, *items[0].OrderedQuantity)
	require.Nil(t, items[0].NetCost)
	require.Equal(t, 5, *items[1].AcknowledgedQuantity)
}

func TestConvertOrder_KeepsItemsAsSent(t *testing.T) {
	o := apiOrder("PO9", "New")
	o.OrderDetails.RawItems = json.RawMessage(` [{"amazonProductIdentifier":"B07ABC1234","listPrice":{"currencyCode":"USD","amount":"19.99"}}] `)

	order, items := convertOrder(&o)
	require.JSONEq(t, `[{"amazonProductIdentifier":"B07ABC1234","listPrice":{"currencyCode":"USD","amount":"19.99"}}]`, string(order.Items))
	require.Len(t, items, 1)

	o.OrderDetails.RawItems = nil
	order, _ = convertOrder(&o)
	require.Contains(t, string(order.Items), `"B07ABC1234"`)
}

func TestParseWindow(t *testing.T) {
	tests := []struct {
		name  string
		input string
		ok    bool
	}{
		{"valid", "2024-06-05T07:00:00Z--2024-06-10T07:00:00Z", true},
		{"date only", "2024-06-05--2024-06-10", true},
		{"empty", "", false},
		{"single part", "2024-06-05T07:00:00Z", false},
		{"three parts", "2024-06-05--2024-06-06--2024-06-07", false},
		{"garbage", "soon--later", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := ParseWindow(tt.input)
			start, end := w.Bounds()
			if tt.ok {
				require.NotNil(t, w)
				require.NotNil(t, start)
				require.NotNil(t, end)
				return
			}
			require.Nil(t, w)
			require.Nil(t, start)
			require.Nil(t, end)
		})
	}
}
