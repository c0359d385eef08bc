package report

import (
	"github.com/shopspring/decimal"
)

// Order statuses as stored. Mirrors trade.OrderStatus without importing it.
const (
	statusProcessing = "processing"
	statusShipped    = "shipped"
	statusDelivered  = "delivered"
	statusCancelled  = "cancelled"
)

// StatusBreakdown is one row of the order status analysis
type StatusBreakdown struct {
	Status            string          `json:"status"`
	StatusLabel       string          `json:"status_label"`
	Count             int64           `json:"count"`
	TotalAmount       decimal.Decimal `json:"total_amount"`
	AvgAmount         decimal.Decimal `json:"avg_amount"`
	Percentage        float64         `json:"percentage"`
	RevenuePercentage float64         `json:"revenue_percentage"`
}

// Funnel expresses each stage as a share of all orders
type Funnel struct {
	PendingToProcessing float64 `json:"pending_to_processing"`
	ProcessingToShipped float64 `json:"processing_to_shipped"`
	ShippedToDelivered  float64 `json:"shipped_to_delivered"`
	OverallCompletion   float64 `json:"overall_completion"`
	CancellationRate    float64 `json:"cancellation_rate"`
}

// OrderSummary totals the status analysis
type OrderSummary struct {
	TotalOrders    int64           `json:"total_orders"`
	TotalRevenue   decimal.Decimal `json:"total_revenue"`
	AvgOrderValue  decimal.Decimal `json:"avg_order_value"`
	CompletionRate float64         `json:"completion_rate"`
}

// OrderAnalysis is the full order status report
type OrderAnalysis struct {
	Breakdown []StatusBreakdown `json:"order_status_breakdown"`
	Funnel    Funnel            `json:"conversion_funnel"`
	Summary   OrderSummary      `json:"summary"`
}

// AnalyzeOrders derives percentages, the funnel and the summary from status totals.
// label renders a status for display.
func AnalyzeOrders(totals []StatusTotal, label func(string) string) OrderAnalysis {
	var count int64
	amount := decimal.Zero
	byStatus := make(map[string]int64, len(totals))
	for _, t := range totals {
		count += t.Count
		amount = amount.Add(t.Amount)
		byStatus[t.Status] += t.Count
	}

	a := OrderAnalysis{Breakdown: make([]StatusBreakdown, 0, len(totals))}
	for _, t := range totals {
		avg := decimal.Zero
		if t.Count > 0 {
			avg = t.Amount.Div(decimal.NewFromInt(t.Count)).Round(2)
		}
		a.Breakdown = append(a.Breakdown, StatusBreakdown{
			Status:            t.Status,
			StatusLabel:       label(t.Status),
			Count:             t.Count,
			TotalAmount:       t.Amount,
			AvgAmount:         avg,
			Percentage:        Percent(t.Count, count),
			RevenuePercentage: PercentDecimal(t.Amount, amount),
		})
	}

	a.Funnel = Funnel{
		PendingToProcessing: Percent(byStatus[statusProcessing], count),
		ProcessingToShipped: Percent(byStatus[statusShipped], count),
		ShippedToDelivered:  Percent(byStatus[statusDelivered], count),
		OverallCompletion:   Percent(byStatus[statusDelivered], count),
		CancellationRate:    Percent(byStatus[statusCancelled], count),
	}

	a.Summary = OrderSummary{
		TotalOrders:    count,
		TotalRevenue:   amount,
		AvgOrderValue:  decimal.Zero,
		CompletionRate: a.Funnel.OverallCompletion,
	}
	if count > 0 {
		a.Summary.AvgOrderValue = amount.Div(decimal.NewFromInt(count)).Round(2)
	}
	return a
}

// IsRevenueStatus reports whether an order in status counts toward revenue
func IsRevenueStatus(status string) bool {
	switch status {
	case statusProcessing, statusShipped, statusDelivered:
		return true
	}
	return false
}

// RevenueFrom sums the amounts of revenue statuses
func RevenueFrom(totals []StatusTotal) decimal.Decimal {
	sum := decimal.Zero
	for _, t := range totals {
		if IsRevenueStatus(t.Status) {
			sum = sum.Add(t.Amount)
		}
	}
	return sum
}

// WithRevenueShare fills RevenuePercentage of each category
func WithRevenueShare(cats []CategoryPerformance) []CategoryPerformance {
	total := decimal.Zero
	for _, c := range cats {
		total = total.Add(c.TotalRevenue)
	}
	for i := range cats {
		cats[i].RevenuePercentage = PercentDecimal(cats[i].TotalRevenue, total)
	}
	return cats
}

// WithAvgRevenue fills AvgRevenuePerOrder of each product
func WithAvgRevenue(products []TopProduct) []TopProduct {
	for i := range products {
		products[i].AvgRevenuePerOrder = decimal.Zero
		if products[i].OrderCount > 0 {
			products[i].AvgRevenuePerOrder = products[i].TotalRevenue.
				Div(decimal.NewFromInt(products[i].OrderCount)).Round(2)
		}
	}
	return products
}
