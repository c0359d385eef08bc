package report

import (
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePeriod(t *testing.T) {
	p, err := ParsePeriod("")
	require.NoError(t, err)
	assert.Equal(t, PeriodDay, p)

	p, err = ParsePeriod("month")
	require.NoError(t, err)
	assert.Equal(t, PeriodMonth, p)

	_, err = ParsePeriod("decade")
	assert.Error(t, err)
}

func TestValidateLimit(t *testing.T) {
	n, err := ValidateLimit(0, DefaultBucketLimit, MaxBucketLimit)
	require.NoError(t, err)
	assert.Equal(t, 30, n)

	_, err = ValidateLimit(366, DefaultBucketLimit, MaxBucketLimit)
	assert.Error(t, err)
	_, err = ValidateLimit(-1, 10, 50)
	assert.Error(t, err)
}

func TestPeriod_Truncate(t *testing.T) {
	// Wednesday
	ts := time.Date(2024, 5, 15, 13, 47, 9, 0, time.UTC)
	tests := []struct {
		period Period
		want   time.Time
	}{
		{PeriodHour, time.Date(2024, 5, 15, 13, 0, 0, 0, time.UTC)},
		{PeriodDay, time.Date(2024, 5, 15, 0, 0, 0, 0, time.UTC)},
		{PeriodWeek, time.Date(2024, 5, 13, 0, 0, 0, 0, time.UTC)},
		{PeriodMonth, time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)},
		{PeriodYear, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		t.Run(string(tt.period), func(t *testing.T) {
			assert.True(t, tt.want.Equal(tt.period.Truncate(ts)))
		})
	}

	sunday := time.Date(2024, 5, 19, 23, 0, 0, 0, time.UTC)
	assert.Equal(t, 13, PeriodWeek.Truncate(sunday).Day())
}

func TestPeriod_Start(t *testing.T) {
	now := time.Date(2024, 5, 15, 13, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2024, 5, 6, 0, 0, 0, 0, time.UTC), PeriodDay.Start(now, 10))
	assert.Equal(t, time.Date(2023, 12, 1, 0, 0, 0, 0, time.UTC), PeriodMonth.Start(now, 6))
}

func TestBucketOrders(t *testing.T) {
	day1 := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	day2 := day1.AddDate(0, 0, 1)
	points := []OrderPoint{
		{Status: "delivered", Amount: decimal.NewFromInt(100), CreatedAt: day1},
		{Status: "cancelled", Amount: decimal.NewFromInt(50), CreatedAt: day1.Add(time.Hour)},
		{Status: "processing", Amount: decimal.NewFromInt(30), CreatedAt: day2},
		{Status: "pending", Amount: decimal.NewFromInt(20), CreatedAt: day2},
	}

	buckets, sum := BucketOrders(points, PeriodDay, 10, IsRevenueStatus)
	require.Len(t, buckets, 2)
	assert.Equal(t, 2, buckets[0].PeriodStart.Day())
	assert.True(t, buckets[0].Revenue.Equal(decimal.NewFromInt(30)))
	assert.Equal(t, int64(2), buckets[1].TotalOrders)
	assert.Equal(t, int64(1), buckets[1].CompletedOrders)

	assert.True(t, sum.TotalRevenue.Equal(decimal.NewFromInt(130)))
	assert.Equal(t, int64(4), sum.TotalOrders)
	assert.Equal(t, int64(2), sum.CompletedOrders)
	assert.True(t, sum.AvgOrderValue.Equal(decimal.NewFromInt(65)))
	assert.Equal(t, 50.0, sum.ConversionRate)

	limited, sum := BucketOrders(points, PeriodDay, 1, IsRevenueStatus)
	assert.Len(t, limited, 1)
	assert.Equal(t, 1, sum.TotalPeriods)
}

func TestBucketPayments(t *testing.T) {
	hour := time.Date(2024, 5, 1, 10, 15, 0, 0, time.UTC)
	points := []PaymentPoint{
		{Status: "completed", Amount: decimal.NewFromInt(80), CreatedAt: hour},
		{Status: "refunded", Amount: decimal.NewFromInt(20), CreatedAt: hour.Add(10 * time.Minute)},
		{Status: "failed", Amount: decimal.NewFromInt(5), CreatedAt: hour.Add(2 * time.Hour)},
	}

	buckets, sum := BucketPayments(points, PeriodHour, 30)
	require.Len(t, buckets, 2)
	assert.Equal(t, 12, buckets[0].PeriodStart.Hour())
	assert.Equal(t, int64(0), buckets[0].SuccessfulTransactions)
	assert.Equal(t, int64(2), buckets[1].TotalTransactions)
	assert.True(t, buckets[1].Revenue.Equal(decimal.NewFromInt(80)))
	assert.True(t, buckets[1].RefundedAmount.Equal(decimal.NewFromInt(20)))

	assert.True(t, sum.TotalRevenue.Equal(decimal.NewFromInt(80)))
	assert.Equal(t, int64(3), sum.TotalTransactions)
	assert.Equal(t, 2, sum.TotalPeriods)
}

func TestRound2(t *testing.T) {
	assert.Equal(t, 4.33, Round2(4.3333))
	assert.Equal(t, 0.0, Round2(0))
}

func TestAnalyzeOrders(t *testing.T) {
	totals := []StatusTotal{
		{Status: "pending", Count: 2, Amount: decimal.NewFromInt(200)},
		{Status: "delivered", Count: 1, Amount: decimal.NewFromInt(300)},
		{Status: "cancelled", Count: 1, Amount: decimal.NewFromInt(100)},
	}
	a := AnalyzeOrders(totals, strings.ToUpper)

	assert.Equal(t, "PENDING", a.Breakdown[0].StatusLabel)
	assert.Equal(t, 50.0, a.Breakdown[0].Percentage)
	assert.Equal(t, 50.0, a.Breakdown[1].RevenuePercentage)
	assert.True(t, a.Breakdown[0].AvgAmount.Equal(decimal.NewFromInt(100)))

	want := Funnel{ShippedToDelivered: 25, OverallCompletion: 25, CancellationRate: 25}
	if diff := cmp.Diff(want, a.Funnel); diff != "" {
		t.Errorf("funnel mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, int64(4), a.Summary.TotalOrders)
	assert.True(t, a.Summary.AvgOrderValue.Equal(decimal.NewFromInt(150)))
	assert.Equal(t, 25.0, a.Summary.CompletionRate)
}

func TestAnalyzeOrders_Empty(t *testing.T) {
	a := AnalyzeOrders(nil, strings.ToUpper)
	assert.Empty(t, a.Breakdown)
	assert.Zero(t, a.Summary.TotalOrders)
	assert.True(t, a.Summary.AvgOrderValue.IsZero())
}

func TestRevenueHelpers(t *testing.T) {
	totals := []StatusTotal{
		{Status: "pending", Amount: decimal.NewFromInt(5)},
		{Status: "shipped", Amount: decimal.NewFromInt(7)},
		{Status: "delivered", Amount: decimal.NewFromInt(3)},
	}
	assert.True(t, RevenueFrom(totals).Equal(decimal.NewFromInt(10)))

	cats := WithRevenueShare([]CategoryPerformance{
		{Name: "a", TotalRevenue: decimal.NewFromInt(75)},
		{Name: "b", TotalRevenue: decimal.NewFromInt(25)},
	})
	assert.Equal(t, 75.0, cats[0].RevenuePercentage)

	products := WithAvgRevenue([]TopProduct{
		{TotalRevenue: decimal.NewFromInt(90), OrderCount: 3},
		{TotalRevenue: decimal.Zero},
	})
	assert.True(t, products[0].AvgRevenuePerOrder.Equal(decimal.NewFromInt(30)))
	assert.True(t, products[1].AvgRevenuePerOrder.IsZero())
}
