package services

import (
	"testing"
	"time"

	domain "github.com/snusnumrick/notalock-orders/internal/domain"
)

func reportingFixtureOrders() []Order {
	at := func(day, hour int) time.Time {
		return time.Date(2026, time.February, day, hour, 0, 0, 0, time.UTC)
	}
	return []Order{
		{
			ID: "ord_1", Status: domain.OrderStatusCompleted,
			TotalAmount: money("100.00"), ShippingCost: money("5.00"), TaxAmount: money("10.00"),
			Items: []OrderItem{
				{ProductID: "prod_1", Name: "Premium Headphones", Quantity: 1, UnitPrice: money("85.00"), TotalPrice: money("85.00")},
			},
			CreatedAt: at(2, 9),
		},
		{
			ID: "ord_2", Status: domain.OrderStatusCompleted,
			TotalAmount: money("50.00"), ShippingCost: money("5.00"), TaxAmount: money("5.00"),
			Items: []OrderItem{
				{ProductID: "prod_2", Name: "Cable", Quantity: 4, UnitPrice: money("10.00"), TotalPrice: money("40.00")},
			},
			CreatedAt: at(2, 15),
		},
		{
			ID: "ord_3", Status: domain.OrderStatusPending,
			TotalAmount: money("30.00"), ShippingCost: money("3.00"), TaxAmount: money("2.00"),
			Items: []OrderItem{
				{ProductID: "prod_1", Name: "Premium Headphones", Quantity: 2, UnitPrice: money("12.50"), TotalPrice: money("25.00")},
			},
			CreatedAt: at(4, 11),
		},
	}
}

func TestDateRangeForPeriodPresets(t *testing.T) {
	reference := time.Date(2026, time.June, 15, 14, 30, 0, 0, time.UTC)

	daily := DateRangeForPeriod(PeriodDaily, reference)
	if daily.From.Day() != 15 || daily.From.Hour() != 0 {
		t.Fatalf("daily from = %s", daily.From)
	}
	if daily.To.Hour() != 23 || daily.To.Minute() != 59 {
		t.Fatalf("daily to = %s", daily.To)
	}

	weekly := DateRangeForPeriod(PeriodWeekly, reference)
	if got := weekly.From; got.Day() != 9 {
		t.Fatalf("weekly from = %s, want June 9", got)
	}

	monthly := DateRangeForPeriod(PeriodMonthly, reference)
	if monthly.From.Month() != time.May {
		t.Fatalf("monthly from = %s", monthly.From)
	}

	yearly := DateRangeForPeriod(PeriodYearly, reference)
	if yearly.From.Year() != 2025 {
		t.Fatalf("yearly from = %s", yearly.From)
	}

	custom := DateRangeForPeriod(PeriodCustom, reference)
	if !custom.From.Equal(reference) || !custom.To.Equal(reference) {
		t.Fatalf("custom range = %+v, want reference for both bounds", custom)
	}
}

func TestCalculateSalesSummary(t *testing.T) {
	summary := CalculateSalesSummary(reportingFixtureOrders())

	if summary.TotalOrders != 3 {
		t.Fatalf("orders = %d, want 3", summary.TotalOrders)
	}
	if !summary.TotalRevenue.Equal(money("180.00")) {
		t.Fatalf("revenue = %s, want 180.00", summary.TotalRevenue)
	}
	if !summary.AverageOrderValue.Equal(money("60.00")) {
		t.Fatalf("average = %s, want 60.00", summary.AverageOrderValue)
	}
	if summary.TotalItems != 7 {
		t.Fatalf("items = %d, want 7", summary.TotalItems)
	}
	if !summary.TotalShipping.Equal(money("13.00")) {
		t.Fatalf("shipping = %s, want 13.00", summary.TotalShipping)
	}
	if !summary.TotalTax.Equal(money("17.00")) {
		t.Fatalf("tax = %s, want 17.00", summary.TotalTax)
	}
}

func TestCalculateSalesSummaryEmpty(t *testing.T) {
	summary := CalculateSalesSummary(nil)
	if summary.TotalOrders != 0 || !summary.AverageOrderValue.IsZero() {
		t.Fatalf("empty summary = %+v", summary)
	}
}

func TestCalculateStatusDistribution(t *testing.T) {
	distribution := CalculateStatusDistribution(reportingFixtureOrders())

	if len(distribution) != 2 {
		t.Fatalf("entries = %d, want 2 (only observed statuses)", len(distribution))
	}
	if distribution[0].Status != domain.OrderStatusCompleted || distribution[0].Count != 2 {
		t.Fatalf("top entry = %+v", distribution[0])
	}
	if !distribution[0].Percentage.Equal(money("66.67")) {
		t.Fatalf("percentage = %s, want 66.67", distribution[0].Percentage)
	}
}

func TestCalculateProductSales(t *testing.T) {
	sales := CalculateProductSales(reportingFixtureOrders())

	if len(sales) != 2 {
		t.Fatalf("products = %d, want 2", len(sales))
	}
	if sales[0].ProductID != "prod_1" {
		t.Fatalf("top product = %s, want prod_1 by revenue", sales[0].ProductID)
	}
	if sales[0].Quantity != 3 {
		t.Fatalf("prod_1 quantity = %d, want 3", sales[0].Quantity)
	}
	if !sales[0].Revenue.Equal(money("110.00")) {
		t.Fatalf("prod_1 revenue = %s, want 110.00", sales[0].Revenue)
	}
	if !sales[0].AverageUnitPrice.Equal(money("36.67")) {
		t.Fatalf("prod_1 average unit price = %s, want 36.67", sales[0].AverageUnitPrice)
	}
}

func TestCalculateTimeSeriesIsDense(t *testing.T) {
	dateRange := DateRange{
		From: time.Date(2026, time.February, 2, 0, 0, 0, 0, time.UTC),
		To:   time.Date(2026, time.February, 4, 23, 59, 59, 0, time.UTC),
	}
	series := CalculateTimeSeries(reportingFixtureOrders(), dateRange, IntervalDay)

	if len(series) != 3 {
		t.Fatalf("points = %d, want 3 (one per day)", len(series))
	}
	if series[0].Date != "2026-02-02" || series[0].Orders != 2 {
		t.Fatalf("day one = %+v", series[0])
	}
	if series[1].Date != "2026-02-03" || series[1].Orders != 0 || !series[1].Revenue.IsZero() {
		t.Fatalf("empty day = %+v, want zero point", series[1])
	}
	if series[2].Date != "2026-02-04" || series[2].Orders != 1 {
		t.Fatalf("day three = %+v", series[2])
	}
}

func TestCalculateTimeSeriesWeeklyBucketsStartMonday(t *testing.T) {
	dateRange := DateRange{
		From: time.Date(2026, time.February, 2, 0, 0, 0, 0, time.UTC),
		To:   time.Date(2026, time.February, 15, 23, 59, 59, 0, time.UTC),
	}
	series := CalculateTimeSeries(reportingFixtureOrders(), dateRange, IntervalWeek)

	if len(series) != 2 {
		t.Fatalf("points = %d, want 2 weeks", len(series))
	}
	// 2026-02-02 is a Monday.
	if series[0].Date != "2026-02-02" {
		t.Fatalf("week one key = %s, want 2026-02-02", series[0].Date)
	}
	if series[0].Orders != 3 {
		t.Fatalf("week one orders = %d, want 3", series[0].Orders)
	}
	if series[1].Orders != 0 {
		t.Fatalf("week two = %+v, want empty", series[1])
	}
}

func TestGenerateReportRoundTrip(t *testing.T) {
	orders := reportingFixtureOrders()
	dateRange := DateRange{
		From: time.Date(2026, time.February, 1, 0, 0, 0, 0, time.UTC),
		To:   time.Date(2026, time.February, 28, 23, 59, 59, 0, time.UTC),
	}

	report := GenerateReport(orders, PeriodCustom, dateRange.To, &dateRange)

	want := CalculateSalesSummary(FilterOrdersByDateRange(orders, dateRange))
	if report.Summary.TotalOrders != want.TotalOrders ||
		report.Summary.TotalItems != want.TotalItems ||
		!report.Summary.TotalRevenue.Equal(want.TotalRevenue) ||
		!report.Summary.AverageOrderValue.Equal(want.AverageOrderValue) ||
		!report.Summary.TotalShipping.Equal(want.TotalShipping) ||
		!report.Summary.TotalTax.Equal(want.TotalTax) {
		t.Fatalf("report summary = %+v, want %+v", report.Summary, want)
	}
	if report.Interval != IntervalDay {
		t.Fatalf("interval = %s, want day for a 28-day span", report.Interval)
	}
}

func TestGenerateReportIntervalSelection(t *testing.T) {
	orders := reportingFixtureOrders()
	reference := time.Date(2026, time.June, 15, 12, 0, 0, 0, time.UTC)

	cases := []struct {
		period Period
		want   Interval
	}{
		{PeriodDaily, IntervalDay},
		{PeriodWeekly, IntervalDay},
		{PeriodMonthly, IntervalWeek},
		{PeriodQuarterly, IntervalWeek},
		{PeriodYearly, IntervalMonth},
	}
	for _, tc := range cases {
		report := GenerateReport(orders, tc.period, reference, nil)
		if report.Interval != tc.want {
			t.Fatalf("%s interval = %s, want %s", tc.period, report.Interval, tc.want)
		}
	}

	wide := DateRange{
		From: time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC),
		To:   time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC),
	}
	report := GenerateReport(orders, PeriodCustom, wide.To, &wide)
	if report.Interval != IntervalMonth {
		t.Fatalf("year-long custom interval = %s, want month", report.Interval)
	}
}

func TestComparePerformance(t *testing.T) {
	orders := reportingFixtureOrders()
	current := DateRange{
		From: time.Date(2026, time.February, 3, 0, 0, 0, 0, time.UTC),
		To:   time.Date(2026, time.February, 5, 23, 59, 59, 0, time.UTC),
	}
	previous := DateRange{
		From: time.Date(2026, time.February, 1, 0, 0, 0, 0, time.UTC),
		To:   time.Date(2026, time.February, 2, 23, 59, 59, 0, time.UTC),
	}

	comparison := ComparePerformance(orders, current, previous)

	if comparison.Current.TotalOrders != 1 || comparison.Previous.TotalOrders != 2 {
		t.Fatalf("counts = %d/%d", comparison.Current.TotalOrders, comparison.Previous.TotalOrders)
	}
	if !comparison.RevenueDelta.Absolute.Equal(money("-120.00")) {
		t.Fatalf("revenue delta = %s, want -120.00", comparison.RevenueDelta.Absolute)
	}
	if !comparison.RevenueDelta.Percentage.Equal(money("-80.00")) {
		t.Fatalf("revenue delta pct = %s, want -80.00", comparison.RevenueDelta.Percentage)
	}
}

func TestComparePerformanceZeroDenominator(t *testing.T) {
	orders := reportingFixtureOrders()
	current := DateRange{
		From: time.Date(2026, time.February, 1, 0, 0, 0, 0, time.UTC),
		To:   time.Date(2026, time.February, 28, 23, 59, 59, 0, time.UTC),
	}
	empty := DateRange{
		From: time.Date(2025, time.February, 1, 0, 0, 0, 0, time.UTC),
		To:   time.Date(2025, time.February, 28, 23, 59, 59, 0, time.UTC),
	}

	comparison := ComparePerformance(orders, current, empty)

	if comparison.Previous.TotalOrders != 0 {
		t.Fatalf("previous count = %d, want 0", comparison.Previous.TotalOrders)
	}
	if !comparison.RevenueDelta.Percentage.IsZero() {
		t.Fatalf("revenue pct = %s, want 0 for empty previous period", comparison.RevenueDelta.Percentage)
	}
	if !comparison.OrderCountDelta.Percentage.IsZero() {
		t.Fatalf("count pct = %s, want 0", comparison.OrderCountDelta.Percentage)
	}
	if !comparison.OrderCountDelta.Absolute.Equal(money("3")) {
		t.Fatalf("count delta = %s, want 3", comparison.OrderCountDelta.Absolute)
	}
}
