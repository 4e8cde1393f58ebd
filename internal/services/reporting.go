package services

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// Period selects a preset reporting window relative to a reference date.
type Period string

const (
	PeriodDaily     Period = "daily"
	PeriodWeekly    Period = "weekly"
	PeriodMonthly   Period = "monthly"
	PeriodQuarterly Period = "quarterly"
	PeriodYearly    Period = "yearly"
	PeriodCustom    Period = "custom"
)

// Interval selects the bucket size of a time series.
type Interval string

const (
	IntervalDay   Interval = "day"
	IntervalWeek  Interval = "week"
	IntervalMonth Interval = "month"
)

// DateRange is an inclusive [From, To] window.
type DateRange struct {
	From time.Time
	To   time.Time
}

// Contains reports whether t falls inside the range, bounds included.
func (r DateRange) Contains(t time.Time) bool {
	return !t.Before(r.From) && !t.After(r.To)
}

// SalesSummary aggregates headline figures over an order list.
type SalesSummary struct {
	TotalOrders       int
	TotalRevenue      decimal.Decimal
	AverageOrderValue decimal.Decimal
	TotalItems        int
	TotalShipping     decimal.Decimal
	TotalTax          decimal.Decimal
}

// StatusCount is one slice of the status distribution.
type StatusCount struct {
	Status     OrderStatus
	Count      int
	Percentage decimal.Decimal
}

// ProductSalesEntry aggregates sales for one product across all orders.
type ProductSalesEntry struct {
	ProductID        string
	Name             string
	Quantity         int
	Revenue          decimal.Decimal
	AverageUnitPrice decimal.Decimal
}

// TimeSeriesPoint is one interval bucket of a dense series.
type TimeSeriesPoint struct {
	Date    string
	Orders  int
	Revenue decimal.Decimal
}

// Report composes every aggregation over one period.
type Report struct {
	Period             Period
	DateRange          DateRange
	Interval           Interval
	Summary            SalesSummary
	StatusDistribution []StatusCount
	ProductSales       []ProductSalesEntry
	TimeSeries         []TimeSeriesPoint
}

// PerformanceDelta holds the absolute and percentage change of one metric.
// Percentage is zero when the previous value is zero.
type PerformanceDelta struct {
	Absolute   decimal.Decimal
	Percentage decimal.Decimal
}

// PerformanceComparison contrasts two periods.
type PerformanceComparison struct {
	Current  SalesSummary
	Previous SalesSummary

	OrderCountDelta        PerformanceDelta
	RevenueDelta           PerformanceDelta
	AverageOrderValueDelta PerformanceDelta
}

// DateRangeForPeriod resolves a preset period against a reference date. The
// range always ends at end-of-day of the reference. Custom returns the
// reference date for both bounds; callers supply their own window instead.
func DateRangeForPeriod(period Period, reference time.Time) DateRange {
	end := endOfDay(reference)
	switch period {
	case PeriodDaily:
		return DateRange{From: startOfDay(reference), To: end}
	case PeriodWeekly:
		return DateRange{From: startOfDay(reference.AddDate(0, 0, -6)), To: end}
	case PeriodMonthly:
		return DateRange{From: startOfDay(reference.AddDate(0, -1, 0)), To: end}
	case PeriodQuarterly:
		return DateRange{From: startOfDay(reference.AddDate(0, -3, 0)), To: end}
	case PeriodYearly:
		return DateRange{From: startOfDay(reference.AddDate(-1, 0, 0)), To: end}
	default:
		return DateRange{From: reference, To: reference}
	}
}

// FilterOrdersByDateRange keeps the orders created within the range.
func FilterOrdersByDateRange(orders []Order, dateRange DateRange) []Order {
	filtered := make([]Order, 0, len(orders))
	for _, order := range orders {
		if dateRange.Contains(order.CreatedAt) {
			filtered = append(filtered, order)
		}
	}
	return filtered
}

// CalculateSalesSummary totals revenue, items, shipping, and tax over orders.
func CalculateSalesSummary(orders []Order) SalesSummary {
	summary := SalesSummary{TotalOrders: len(orders)}
	for _, order := range orders {
		summary.TotalRevenue = summary.TotalRevenue.Add(order.TotalAmount)
		summary.TotalShipping = summary.TotalShipping.Add(order.ShippingCost)
		summary.TotalTax = summary.TotalTax.Add(order.TaxAmount)
		summary.TotalItems += order.ItemCount()
	}
	if summary.TotalOrders > 0 {
		summary.AverageOrderValue = summary.TotalRevenue.
			Div(decimal.NewFromInt(int64(summary.TotalOrders))).Round(2)
	}
	return summary
}

// CalculateStatusDistribution counts orders per observed status. Statuses
// with no orders get no entry.
func CalculateStatusDistribution(orders []Order) []StatusCount {
	counts := map[OrderStatus]int{}
	for _, order := range orders {
		counts[order.Status]++
	}

	total := decimal.NewFromInt(int64(len(orders)))
	hundred := decimal.NewFromInt(100)

	distribution := make([]StatusCount, 0, len(counts))
	for status, count := range counts {
		entry := StatusCount{Status: status, Count: count}
		if len(orders) > 0 {
			entry.Percentage = decimal.NewFromInt(int64(count)).Mul(hundred).Div(total).Round(2)
		}
		distribution = append(distribution, entry)
	}
	sort.Slice(distribution, func(i, j int) bool {
		if distribution[i].Count != distribution[j].Count {
			return distribution[i].Count > distribution[j].Count
		}
		return distribution[i].Status < distribution[j].Status
	})
	return distribution
}

// CalculateProductSales aggregates quantity and revenue per product over all
// order lines, sorted by descending revenue.
func CalculateProductSales(orders []Order) []ProductSalesEntry {
	byProduct := map[string]*ProductSalesEntry{}
	for _, order := range orders {
		for _, item := range order.Items {
			entry, ok := byProduct[item.ProductID]
			if !ok {
				entry = &ProductSalesEntry{ProductID: item.ProductID, Name: item.Name}
				byProduct[item.ProductID] = entry
			}
			entry.Quantity += item.Quantity
			entry.Revenue = entry.Revenue.Add(item.TotalPrice)
		}
	}

	entries := make([]ProductSalesEntry, 0, len(byProduct))
	for _, entry := range byProduct {
		if entry.Quantity > 0 {
			entry.AverageUnitPrice = entry.Revenue.
				Div(decimal.NewFromInt(int64(entry.Quantity))).Round(2)
		}
		entries = append(entries, *entry)
	}
	sort.Slice(entries, func(i, j int) bool {
		if !entries[i].Revenue.Equal(entries[j].Revenue) {
			return entries[i].Revenue.GreaterThan(entries[j].Revenue)
		}
		return entries[i].ProductID < entries[j].ProductID
	})
	return entries
}

// CalculateTimeSeries buckets orders by interval and emits one point per
// interval across the whole range, including empty ones.
func CalculateTimeSeries(orders []Order, dateRange DateRange, interval Interval) []TimeSeriesPoint {
	buckets := map[string]*TimeSeriesPoint{}
	for _, order := range orders {
		if !dateRange.Contains(order.CreatedAt) {
			continue
		}
		key := intervalKey(order.CreatedAt, interval)
		point, ok := buckets[key]
		if !ok {
			point = &TimeSeriesPoint{Date: key}
			buckets[key] = point
		}
		point.Orders++
		point.Revenue = point.Revenue.Add(order.TotalAmount)
	}

	series := make([]TimeSeriesPoint, 0)
	for cursor := intervalStart(dateRange.From, interval); !cursor.After(dateRange.To); cursor = nextInterval(cursor, interval) {
		key := intervalKey(cursor, interval)
		if point, ok := buckets[key]; ok {
			series = append(series, *point)
			continue
		}
		series = append(series, TimeSeriesPoint{Date: key})
	}
	return series
}

// GenerateReport composes summary, distribution, product sales, and a dense
// time series for the resolved period.
func GenerateReport(orders []Order, period Period, reference time.Time, customRange *DateRange) Report {
	dateRange := DateRangeForPeriod(period, reference)
	if period == PeriodCustom && customRange != nil {
		dateRange = *customRange
	}

	interval := intervalForPeriod(period, dateRange)
	scoped := FilterOrdersByDateRange(orders, dateRange)

	return Report{
		Period:             period,
		DateRange:          dateRange,
		Interval:           interval,
		Summary:            CalculateSalesSummary(scoped),
		StatusDistribution: CalculateStatusDistribution(scoped),
		ProductSales:       CalculateProductSales(scoped),
		TimeSeries:         CalculateTimeSeries(scoped, dateRange, interval),
	}
}

// ComparePerformance contrasts summaries of two ranges. Percentage deltas are
// zero when the previous-period value is zero.
func ComparePerformance(orders []Order, current, previous DateRange) PerformanceComparison {
	currentSummary := CalculateSalesSummary(FilterOrdersByDateRange(orders, current))
	previousSummary := CalculateSalesSummary(FilterOrdersByDateRange(orders, previous))

	return PerformanceComparison{
		Current:  currentSummary,
		Previous: previousSummary,
		OrderCountDelta: deltaOf(
			decimal.NewFromInt(int64(currentSummary.TotalOrders)),
			decimal.NewFromInt(int64(previousSummary.TotalOrders))),
		RevenueDelta:           deltaOf(currentSummary.TotalRevenue, previousSummary.TotalRevenue),
		AverageOrderValueDelta: deltaOf(currentSummary.AverageOrderValue, previousSummary.AverageOrderValue),
	}
}

func deltaOf(current, previous decimal.Decimal) PerformanceDelta {
	delta := PerformanceDelta{Absolute: current.Sub(previous)}
	if !previous.IsZero() {
		delta.Percentage = delta.Absolute.Div(previous).Mul(decimal.NewFromInt(100)).Round(2)
	}
	return delta
}

func intervalForPeriod(period Period, dateRange DateRange) Interval {
	switch period {
	case PeriodDaily, PeriodWeekly:
		return IntervalDay
	case PeriodMonthly, PeriodQuarterly:
		return IntervalWeek
	case PeriodYearly:
		return IntervalMonth
	default:
		span := dateRange.To.Sub(dateRange.From)
		switch {
		case span <= 31*24*time.Hour:
			return IntervalDay
		case span <= 120*24*time.Hour:
			return IntervalWeek
		default:
			return IntervalMonth
		}
	}
}

func intervalKey(t time.Time, interval Interval) string {
	switch interval {
	case IntervalWeek:
		return isoWeekStart(t).Format("2006-01-02")
	case IntervalMonth:
		return t.Format("2006-01")
	default:
		return t.Format("2006-01-02")
	}
}

func intervalStart(t time.Time, interval Interval) time.Time {
	switch interval {
	case IntervalWeek:
		return isoWeekStart(t)
	case IntervalMonth:
		return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
	default:
		return startOfDay(t)
	}
}

func nextInterval(t time.Time, interval Interval) time.Time {
	switch interval {
	case IntervalWeek:
		return t.AddDate(0, 0, 7)
	case IntervalMonth:
		return t.AddDate(0, 1, 0)
	default:
		return t.AddDate(0, 0, 1)
	}
}

// isoWeekStart returns the Monday of t's ISO week at midnight.
func isoWeekStart(t time.Time) time.Time {
	day := startOfDay(t)
	weekday := int(day.Weekday())
	if weekday == 0 {
		weekday = 7
	}
	return day.AddDate(0, 0, 1-weekday)
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func endOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, int(time.Second-time.Nanosecond), t.Location())
}
