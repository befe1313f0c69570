package spapi

import "time"

const (
	ReportTypeSales             = "GET_VENDOR_SALES_REPORT"
	ReportTypeTraffic           = "GET_VENDOR_TRAFFIC_REPORT"
	ReportTypeInventory         = "GET_VENDOR_INVENTORY_REPORT"
	ReportTypeNetPureMargin     = "GET_VENDOR_NET_PURE_PRODUCT_MARGIN_REPORT"
	ReportTypeRealTimeInventory = "GET_VENDOR_REAL_TIME_INVENTORY_REPORT"
	ReportTypeRealTimeSales     = "GET_VENDOR_REAL_TIME_SALES_REPORT"
	ReportTypeRealTimeTraffic   = "GET_VENDOR_REAL_TIME_TRAFFIC_REPORT"
)

const (
	OptionReportPeriod    = "reportPeriod"
	OptionDistributorView = "distributorView"
	OptionSellingProgram  = "sellingProgram"
)

// ReportDefinition describes how a report type is requested and where its
// records live in the decoded document.
type ReportDefinition struct {
	Type     string
	RealTime bool
	// MaxSpan caps the requested range of real-time reports
	MaxSpan time.Duration
	// Options lists the reportOptions keys the type accepts
	Options []string
	// RecordKey is the top-level document field holding the record array
	RecordKey string
}

// Accepts reports whether the type accepts the given reportOptions key
func (d ReportDefinition) Accepts(option string) bool {
	for _, o := range d.Options {
		if o == option {
			return true
		}
	}
	return false
}

var catalog = map[string]ReportDefinition{
	ReportTypeSales: {
		Type:      ReportTypeSales,
		Options:   []string{OptionReportPeriod, OptionDistributorView, OptionSellingProgram},
		RecordKey: "salesByAsin",
	},
	ReportTypeInventory: {
		Type:      ReportTypeInventory,
		Options:   []string{OptionReportPeriod, OptionDistributorView, OptionSellingProgram},
		RecordKey: "inventoryByAsin",
	},
	ReportTypeTraffic: {
		Type:      ReportTypeTraffic,
		Options:   []string{OptionReportPeriod},
		RecordKey: "trafficByAsin",
	},
	ReportTypeNetPureMargin: {
		Type:      ReportTypeNetPureMargin,
		Options:   []string{OptionReportPeriod},
		RecordKey: "netPureProductMarginByAsin",
	},
	ReportTypeRealTimeInventory: {
		Type:      ReportTypeRealTimeInventory,
		RealTime:  true,
		MaxSpan:   7 * 24 * time.Hour,
		RecordKey: "inventoryByAsin",
	},
	ReportTypeRealTimeSales: {
		Type:      ReportTypeRealTimeSales,
		RealTime:  true,
		MaxSpan:   14 * 24 * time.Hour,
		RecordKey: "salesByAsin",
	},
	ReportTypeRealTimeTraffic: {
		Type:      ReportTypeRealTimeTraffic,
		RealTime:  true,
		MaxSpan:   14 * 24 * time.Hour,
		RecordKey: "trafficByAsin",
	},
}

// LookupReport returns the definition of a known report type
func LookupReport(reportType string) (ReportDefinition, bool) {
	def, ok := catalog[reportType]
	return def, ok
}

// reportOptions builds the reportOptions object for a weekly type, keeping
// only the keys the type accepts. Real-time types get none.
func (c *Client) reportOptions(def ReportDefinition) map[string]string {
	if def.RealTime {
		return nil
	}
	candidates := map[string]string{
		OptionReportPeriod:    "WEEK",
		OptionDistributorView: c.distributorView,
		OptionSellingProgram:  c.sellingProgram,
	}
	opts := make(map[string]string, len(def.Options))
	for key, value := range candidates {
		if value != "" && def.Accepts(key) {
			opts[key] = value
		}
	}
	return opts
}
