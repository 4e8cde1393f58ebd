package services

import (
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	domain "github.com/snusnumrick/notalock-orders/internal/domain"
)

// Sortable search fields.
const (
	SortByDate   = "date"
	SortByTotal  = "total"
	SortByStatus = "status"
)

// SearchOptions narrows an order snapshot. All filters are combined with AND;
// the text query matches when any searched field matches.
type SearchOptions struct {
	OrderID         string
	OrderNumber     string
	CustomerID      string
	Email           string
	Statuses        []OrderStatus
	PaymentStatuses []PaymentStatus
	DateFrom        *time.Time
	DateTo          *time.Time
	MinTotal        *decimal.Decimal
	MaxTotal        *decimal.Decimal
	ProductID       string
	ShippingCountry string

	Query                string
	IncludeNotesInSearch bool
	ExactMatch           bool

	SortBy    string
	SortOrder SortOrder

	Offset int
	// Limit of 0 means no limit.
	Limit int
}

// SearchResult carries one page of matches plus the pre-pagination count.
type SearchResult struct {
	Orders []Order
	Total  int
	Limit  int
	Offset int
}

// FuzzyMatch pairs an order with its accumulated relevance score.
type FuzzyMatch struct {
	Order Order
	Score float64
}

// SearchOrders filters, optionally text-matches, sorts, and paginates an
// in-memory order snapshot. The input slice is never mutated.
func SearchOrders(orders []Order, opts SearchOptions) SearchResult {
	filtered := make([]Order, 0, len(orders))
	for _, order := range orders {
		if !matchesFilters(order, opts) {
			continue
		}
		if query := strings.TrimSpace(opts.Query); query != "" && !matchesQuery(order, query, opts.IncludeNotesInSearch, opts.ExactMatch) {
			continue
		}
		filtered = append(filtered, order)
	}

	sortOrders(filtered, opts.SortBy, opts.SortOrder)

	total := len(filtered)
	offset := opts.Offset
	if offset < 0 {
		offset = 0
	}
	if offset > total {
		offset = total
	}
	limit := opts.Limit
	if limit <= 0 {
		limit = total
	}
	end := offset + limit
	if end > total {
		end = total
	}

	page := make([]Order, end-offset)
	copy(page, filtered[offset:end])

	return SearchResult{Orders: page, Total: total, Limit: limit, Offset: offset}
}

// QuickSearchOrders is the typeahead path: case-insensitive substring match
// over order number, email, shipping name, item names, and SKUs. Blank input
// returns an empty result rather than everything.
func QuickSearchOrders(orders []Order, text string) []Order {
	query := strings.ToLower(strings.TrimSpace(text))
	if query == "" {
		return []Order{}
	}

	matches := make([]Order, 0)
	for _, order := range orders {
		if quickSearchMatches(order, query) {
			matches = append(matches, order)
		}
	}
	return matches
}

func quickSearchMatches(order Order, query string) bool {
	if strings.Contains(strings.ToLower(order.OrderNumber), query) {
		return true
	}
	if strings.Contains(strings.ToLower(order.Email), query) {
		return true
	}
	if order.ShippingAddress != nil &&
		strings.Contains(strings.ToLower(order.ShippingAddress.FullName()), query) {
		return true
	}
	for _, item := range order.Items {
		if strings.Contains(strings.ToLower(item.Name), query) ||
			strings.Contains(strings.ToLower(item.SKU), query) {
			return true
		}
	}
	return false
}

// Field weights for fuzzy relevance.
const (
	fuzzyWeightOrderNumber = 10.0
	fuzzyWeightEmail       = 5.0
	fuzzyWeightName        = 5.0
	fuzzyWeightItemName    = 3.0
	fuzzyWeightItemSKU     = 4.0
	fuzzyWeightNotes       = 2.0
)

// FuzzySearchOrders tokenizes the query and scores every order by weighted
// per-field similarity, tolerating minor misspellings. Zero-score orders are
// dropped; the rest come back in descending score order.
func FuzzySearchOrders(orders []Order, text string) []FuzzyMatch {
	tokens := strings.Fields(strings.ToLower(strings.TrimSpace(text)))
	if len(tokens) == 0 {
		return []FuzzyMatch{}
	}

	matches := make([]FuzzyMatch, 0)
	for _, order := range orders {
		score := scoreOrder(order, tokens)
		if score > 0 {
			matches = append(matches, FuzzyMatch{Order: order, Score: score})
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})
	return matches
}

func scoreOrder(order Order, tokens []string) float64 {
	number := strings.ToLower(order.OrderNumber)
	email := strings.ToLower(order.Email)
	name := ""
	if order.ShippingAddress != nil {
		name = strings.ToLower(order.ShippingAddress.FullName())
	}
	notes := strings.ToLower(order.Notes)

	var total float64
	for _, token := range tokens {
		total += fuzzyWeightOrderNumber * fieldScore(number, token)
		total += fuzzyWeightEmail * fieldScore(email, token)
		total += fuzzyWeightName * fieldScore(name, token)
		total += fuzzyWeightNotes * fieldScore(notes, token)

		// Only the best-scoring item counts, so an order with many lines does
		// not outrank a closer match.
		var bestItem float64
		for _, item := range order.Items {
			itemScore := fuzzyWeightItemName*fieldScore(strings.ToLower(item.Name), token) +
				fuzzyWeightItemSKU*fieldScore(strings.ToLower(item.SKU), token)
			if itemScore > bestItem {
				bestItem = itemScore
			}
		}
		total += bestItem
	}
	return total
}

// fieldScore rates how well token matches field. Both arguments must already
// be lowercased.
func fieldScore(field, token string) float64 {
	if field == "" || token == "" {
		return 0
	}
	if field == token {
		return 1.0
	}
	if strings.Contains(field, token) {
		return 0.8
	}

	var wordScore float64
	for _, word := range strings.Fields(field) {
		switch {
		case word == token:
			wordScore = maxFloat(wordScore, 0.7)
		case strings.HasPrefix(word, token):
			wordScore = maxFloat(wordScore, 0.6)
		case strings.Contains(word, token):
			wordScore = maxFloat(wordScore, 0.4)
		}
	}
	if wordScore > 0 {
		return wordScore
	}

	return overlapScore(field, token)
}

// overlapScore slides a token-sized window over the field and rates the best
// character overlap, capped at 0.3. This is the misspelling tolerance.
func overlapScore(field, token string) float64 {
	if len(token) < 3 || len(field) < len(token) {
		return 0
	}

	var best float64
	for i := 0; i+len(token) <= len(field); i++ {
		window := field[i : i+len(token)]
		matched := 0
		for j := 0; j < len(token); j++ {
			if window[j] == token[j] {
				matched++
			}
		}
		ratio := float64(matched) / float64(len(token))
		if ratio > best {
			best = ratio
		}
	}

	if best < 0.6 {
		return 0
	}
	score := best * 0.5
	if score > 0.3 {
		score = 0.3
	}
	return score
}

func matchesFilters(order Order, opts SearchOptions) bool {
	if id := strings.TrimSpace(opts.OrderID); id != "" && order.ID != id {
		return false
	}
	if number := strings.TrimSpace(opts.OrderNumber); number != "" &&
		!strings.EqualFold(order.OrderNumber, number) {
		return false
	}
	if customer := strings.TrimSpace(opts.CustomerID); customer != "" && order.CustomerID != customer {
		return false
	}
	if email := strings.TrimSpace(opts.Email); email != "" &&
		!strings.EqualFold(order.Email, email) {
		return false
	}
	if len(opts.Statuses) > 0 && !containsOrderStatus(opts.Statuses, order.Status) {
		return false
	}
	if len(opts.PaymentStatuses) > 0 && !containsPaymentStatus(opts.PaymentStatuses, order.PaymentStatus) {
		return false
	}
	if opts.DateFrom != nil && order.CreatedAt.Before(*opts.DateFrom) {
		return false
	}
	if opts.DateTo != nil && order.CreatedAt.After(*opts.DateTo) {
		return false
	}
	if opts.MinTotal != nil && order.TotalAmount.LessThan(*opts.MinTotal) {
		return false
	}
	if opts.MaxTotal != nil && order.TotalAmount.GreaterThan(*opts.MaxTotal) {
		return false
	}
	if productID := strings.TrimSpace(opts.ProductID); productID != "" && !orderHasProduct(order, productID) {
		return false
	}
	if country := strings.TrimSpace(opts.ShippingCountry); country != "" {
		if order.ShippingAddress == nil || !strings.EqualFold(order.ShippingAddress.Country, country) {
			return false
		}
	}
	return true
}

func matchesQuery(order Order, query string, includeNotes, exact bool) bool {
	fields := []string{
		order.OrderNumber,
		order.Email,
	}
	if order.ShippingAddress != nil {
		fields = append(fields, order.ShippingAddress.FullName())
	}
	if order.BillingAddress != nil {
		fields = append(fields, order.BillingAddress.FullName())
	}
	for _, item := range order.Items {
		fields = append(fields, item.Name, item.SKU)
	}
	if includeNotes {
		fields = append(fields, order.Notes)
	}

	if exact {
		for _, field := range fields {
			if field == query {
				return true
			}
		}
		return false
	}

	lowered := strings.ToLower(query)
	for _, field := range fields {
		if strings.Contains(strings.ToLower(field), lowered) {
			return true
		}
	}
	return false
}

func sortOrders(orders []Order, sortBy string, order SortOrder) {
	if sortBy == "" {
		sortBy = SortByDate
	}
	desc := order != domain.SortAsc

	sort.SliceStable(orders, func(i, j int) bool {
		var less bool
		switch sortBy {
		case SortByTotal:
			less = orders[i].TotalAmount.LessThan(orders[j].TotalAmount)
		case SortByStatus:
			less = orders[i].Status < orders[j].Status
		default:
			less = orders[i].CreatedAt.Before(orders[j].CreatedAt)
		}
		if desc {
			return !less && !ordersEqualOn(orders[i], orders[j], sortBy)
		}
		return less
	})
}

func ordersEqualOn(a, b Order, sortBy string) bool {
	switch sortBy {
	case SortByTotal:
		return a.TotalAmount.Equal(b.TotalAmount)
	case SortByStatus:
		return a.Status == b.Status
	default:
		return a.CreatedAt.Equal(b.CreatedAt)
	}
}

func containsOrderStatus(set []OrderStatus, status OrderStatus) bool {
	for _, s := range set {
		if s == status {
			return true
		}
	}
	return false
}

func containsPaymentStatus(set []PaymentStatus, status PaymentStatus) bool {
	for _, s := range set {
		if s == status {
			return true
		}
	}
	return false
}

func orderHasProduct(order Order, productID string) bool {
	for _, item := range order.Items {
		if item.ProductID == productID {
			return true
		}
	}
	return false
}

func maxFloat(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
