package report

import (
	"slices"
	"time"

	"github.com/shopspring/decimal"
	"github.com/unimerch/backend/internal/domain/shared"
)

// Period is the width of a revenue bucket
type Period string

const (
	PeriodHour  Period = "hour"
	PeriodDay   Period = "day"
	PeriodWeek  Period = "week"
	PeriodMonth Period = "month"
	PeriodYear  Period = "year"
)

const (
	DefaultBucketLimit = 30
	MaxBucketLimit     = 365
)

// ParsePeriod validates a period name; empty means day
func ParsePeriod(s string) (Period, error) {
	switch p := Period(s); p {
	case "":
		return PeriodDay, nil
	case PeriodHour, PeriodDay, PeriodWeek, PeriodMonth, PeriodYear:
		return p, nil
	}
	return "", shared.NewDomainError("INVALID_PERIOD", "Period must be one of hour, day, week, month, year")
}

// ValidateLimit checks a bucket or ranking limit against 1..max; zero means def
func ValidateLimit(limit, def, max int) (int, error) {
	if limit == 0 {
		return def, nil
	}
	if limit < 1 || limit > max {
		return 0, shared.NewDomainError("INVALID_LIMIT", "Limit is out of range")
	}
	return limit, nil
}

// Truncate returns the start of the bucket containing t, in UTC.
// Weeks start on Monday.
func (p Period) Truncate(t time.Time) time.Time {
	t = t.UTC()
	switch p {
	case PeriodHour:
		return t.Truncate(time.Hour)
	case PeriodWeek:
		day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
		offset := (int(day.Weekday()) + 6) % 7
		return day.AddDate(0, 0, -offset)
	case PeriodMonth:
		return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	case PeriodYear:
		return time.Date(t.Year(), 1, 1, 0, 0, 0, 0, time.UTC)
	default:
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	}
}

// Start returns the start of the oldest of n buckets ending with the one containing now
func (p Period) Start(now time.Time, n int) time.Time {
	cur := p.Truncate(now)
	back := n - 1
	switch p {
	case PeriodHour:
		return cur.Add(-time.Duration(back) * time.Hour)
	case PeriodWeek:
		return cur.AddDate(0, 0, -7*back)
	case PeriodMonth:
		return cur.AddDate(0, -back, 0)
	case PeriodYear:
		return cur.AddDate(-back, 0, 0)
	default:
		return cur.AddDate(0, 0, -back)
	}
}

// RevenueBucket is the order activity of one period
type RevenueBucket struct {
	PeriodStart     time.Time       `json:"period_start"`
	TotalOrders     int64           `json:"total_orders"`
	CompletedOrders int64           `json:"completed_orders"`
	Revenue         decimal.Decimal `json:"revenue"`
}

// RevenueSummary totals a bucket series
type RevenueSummary struct {
	TotalRevenue    decimal.Decimal `json:"total_revenue"`
	TotalOrders     int64           `json:"total_orders"`
	CompletedOrders int64           `json:"completed_orders"`
	AvgOrderValue   decimal.Decimal `json:"avg_order_value"`
	ConversionRate  float64         `json:"conversion_rate"`
	TotalPeriods    int             `json:"total_periods"`
}

// BucketOrders groups orders by period, newest bucket first. Only non-empty
// buckets are returned and at most limit of them. revenueStatus decides which
// orders count as completed revenue.
func BucketOrders(points []OrderPoint, p Period, limit int, revenueStatus func(string) bool) ([]RevenueBucket, RevenueSummary) {
	byStart := make(map[time.Time]*RevenueBucket)
	for _, pt := range points {
		start := p.Truncate(pt.CreatedAt)
		b, ok := byStart[start]
		if !ok {
			b = &RevenueBucket{PeriodStart: start, Revenue: decimal.Zero}
			byStart[start] = b
		}
		b.TotalOrders++
		if revenueStatus(pt.Status) {
			b.CompletedOrders++
			b.Revenue = b.Revenue.Add(pt.Amount)
		}
	}

	buckets := make([]RevenueBucket, 0, len(byStart))
	for _, b := range byStart {
		buckets = append(buckets, *b)
	}
	slices.SortFunc(buckets, func(a, b RevenueBucket) int {
		return b.PeriodStart.Compare(a.PeriodStart)
	})
	if limit > 0 && len(buckets) > limit {
		buckets = buckets[:limit]
	}

	sum := RevenueSummary{TotalRevenue: decimal.Zero, AvgOrderValue: decimal.Zero, TotalPeriods: len(buckets)}
	for _, b := range buckets {
		sum.TotalRevenue = sum.TotalRevenue.Add(b.Revenue)
		sum.TotalOrders += b.TotalOrders
		sum.CompletedOrders += b.CompletedOrders
	}
	if sum.CompletedOrders > 0 {
		sum.AvgOrderValue = sum.TotalRevenue.Div(decimal.NewFromInt(sum.CompletedOrders)).Round(2)
	}
	sum.ConversionRate = Percent(sum.CompletedOrders, sum.TotalOrders)
	return buckets, sum
}

// Percent returns part/total*100 rounded to two decimals, 0 when total is 0
func Percent(part, total int64) float64 {
	if total == 0 {
		return 0
	}
	f, _ := decimal.NewFromInt(part).Mul(decimal.NewFromInt(100)).
		Div(decimal.NewFromInt(total)).Round(2).Float64()
	return f
}

// PercentDecimal is Percent for money amounts
func PercentDecimal(part, total decimal.Decimal) float64 {
	if total.IsZero() {
		return 0
	}
	f, _ := part.Mul(decimal.NewFromInt(100)).Div(total).Round(2).Float64()
	return f
}

// Round2 rounds f to two decimals
func Round2(f float64) float64 {
	r, _ := decimal.NewFromFloat(f).Round(2).Float64()
	return r
}

// PaymentPoint is one payment reduced to what revenue bucketing needs
type PaymentPoint struct {
	Status    string
	Amount    decimal.Decimal
	CreatedAt time.Time
}

// PaymentBucket aggregates the payments of one period
type PaymentBucket struct {
	PeriodStart            time.Time       `json:"period_start"`
	TotalTransactions      int64           `json:"total_transactions"`
	SuccessfulTransactions int64           `json:"successful_transactions"`
	Revenue                decimal.Decimal `json:"revenue"`
	RefundedAmount         decimal.Decimal `json:"refunded_amount"`
}

// PaymentSummary totals a payment bucket series
type PaymentSummary struct {
	TotalRevenue      decimal.Decimal `json:"total_revenue"`
	TotalTransactions int64           `json:"total_transactions"`
	TotalPeriods      int             `json:"total_periods"`
}

// BucketPayments groups payments by period, newest bucket first. Completed
// payments count as revenue, refunded ones as refunded amount.
func BucketPayments(points []PaymentPoint, p Period, limit int) ([]PaymentBucket, PaymentSummary) {
	byStart := make(map[time.Time]*PaymentBucket)
	for _, pt := range points {
		start := p.Truncate(pt.CreatedAt)
		b, ok := byStart[start]
		if !ok {
			b = &PaymentBucket{PeriodStart: start, Revenue: decimal.Zero, RefundedAmount: decimal.Zero}
			byStart[start] = b
		}
		b.TotalTransactions++
		switch pt.Status {
		case paymentCompleted:
			b.SuccessfulTransactions++
			b.Revenue = b.Revenue.Add(pt.Amount)
		case paymentRefunded:
			b.RefundedAmount = b.RefundedAmount.Add(pt.Amount)
		}
	}

	buckets := make([]PaymentBucket, 0, len(byStart))
	for _, b := range byStart {
		buckets = append(buckets, *b)
	}
	slices.SortFunc(buckets, func(a, b PaymentBucket) int {
		return b.PeriodStart.Compare(a.PeriodStart)
	})
	if limit > 0 && len(buckets) > limit {
		buckets = buckets[:limit]
	}

	sum := PaymentSummary{TotalRevenue: decimal.Zero, TotalPeriods: len(buckets)}
	for _, b := range buckets {
		sum.TotalRevenue = sum.TotalRevenue.Add(b.Revenue)
		sum.TotalTransactions += b.TotalTransactions
	}
	return buckets, sum
}

const (
	paymentCompleted = "completed"
	paymentRefunded  = "refunded"
)
