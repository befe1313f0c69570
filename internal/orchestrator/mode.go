package orchestrator

import (
	"fmt"
	"strings"

	"github.com/elchunenfreund/amazon-vendor-sync/internal/spapi"
)

type Mode string

const (
	ModeAll         Mode = "all"
	ModeReports     Mode = "reports"
	ModePO          Mode = "po"
	ModeRT          Mode = "rt"
	ModeRTInventory Mode = "rt-inv"
	ModeRTSales     Mode = "rt-sales"
)

// OperationPurchaseOrders names the order sync in run results
const OperationPurchaseOrders = "PURCHASE_ORDERS"

var weeklyReports = []string{
	spapi.ReportTypeSales,
	spapi.ReportTypeTraffic,
	spapi.ReportTypeInventory,
	spapi.ReportTypeNetPureMargin,
}

var realTimeReports = []string{
	spapi.ReportTypeRealTimeInventory,
	spapi.ReportTypeRealTimeSales,
	spapi.ReportTypeRealTimeTraffic,
}

// ParseMode validates a mode argument. An empty string selects ModeAll.
func ParseMode(s string) (Mode, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return ModeAll, nil
	}
	switch m := Mode(s); m {
	case ModeAll, ModeReports, ModePO, ModeRT, ModeRTInventory, ModeRTSales:
		return m, nil
	}
	return "", fmt.Errorf("unknown mode %q (expected all, reports, po, rt, rt-inv or rt-sales)", s)
}

// Operations lists what a mode runs, in order. Report operations are named
// by their report type.
func (m Mode) Operations() []string {
	switch m {
	case ModeAll:
		ops := append([]string{}, weeklyReports...)
		ops = append(ops, realTimeReports...)
		return append(ops, OperationPurchaseOrders)
	case ModeReports:
		return append([]string{}, weeklyReports...)
	case ModeRT:
		return append([]string{}, realTimeReports...)
	case ModeRTInventory:
		return []string{spapi.ReportTypeRealTimeInventory}
	case ModeRTSales:
		return []string{spapi.ReportTypeRealTimeSales}
	case ModePO:
		return []string{OperationPurchaseOrders}
	}
	return nil
}
