package services

import (
	"encoding/csv"
	"encoding/json"
	"strings"
	"testing"
	"time"

	domain "github.com/snusnumrick/notalock-orders/internal/domain"
)

func exportFixtureOrders() []Order {
	return []Order{
		{
			ID:             "ord_1",
			OrderNumber:    "NO-20260314-0001",
			Email:          "jane.smith@example.com",
			Status:         domain.OrderStatusCompleted,
			PaymentStatus:  domain.PaymentStatusPaid,
			SubtotalAmount: money("104.00"),
			ShippingCost:   money("7.50"),
			TaxAmount:      money("8.50"),
			TotalAmount:    money("120.00"),
			Currency:       "USD",
			Items: []OrderItem{
				{ProductID: "prod_1", SKU: "HP-100", Name: "Premium Headphones", Quantity: 2, UnitPrice: money("49.50"), TotalPrice: money("99.00")},
			},
			CreatedAt: time.Date(2026, time.March, 14, 10, 30, 0, 0, time.UTC),
		},
	}
}

func TestExportOrdersCSV(t *testing.T) {
	out, err := ExportOrdersCSV(exportFixtureOrders())
	if err != nil {
		t.Fatalf("ExportOrdersCSV: %v", err)
	}

	records, err := csv.NewReader(strings.NewReader(out)).ReadAll()
	if err != nil {
		t.Fatalf("parse output: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("rows = %d, want header + 1", len(records))
	}
	if records[0][0] != "order_number" {
		t.Fatalf("header = %v", records[0])
	}

	row := records[1]
	if row[0] != "NO-20260314-0001" {
		t.Fatalf("order number cell = %q", row[0])
	}
	if row[3] != "completed" || row[4] != "paid" {
		t.Fatalf("status cells = %q/%q", row[3], row[4])
	}
	if row[9] != "120.00" {
		t.Fatalf("total cell = %q", row[9])
	}
}

func TestExportOrdersCSVEmpty(t *testing.T) {
	out, err := ExportOrdersCSV(nil)
	if err != nil {
		t.Fatalf("ExportOrdersCSV: %v", err)
	}
	if lines := strings.Count(strings.TrimSpace(out), "\n"); lines != 0 {
		t.Fatalf("empty export has %d extra lines", lines)
	}
}

func TestExportOrdersJSON(t *testing.T) {
	out, err := ExportOrdersJSON(exportFixtureOrders())
	if err != nil {
		t.Fatalf("ExportOrdersJSON: %v", err)
	}

	var decoded []map[string]any
	if err := json.Unmarshal([]byte(out), &decoded); err != nil {
		t.Fatalf("parse output: %v", err)
	}
	if len(decoded) != 1 {
		t.Fatalf("orders = %d, want 1", len(decoded))
	}
	if decoded[0]["orderNumber"] != "NO-20260314-0001" {
		t.Fatalf("orderNumber = %v", decoded[0]["orderNumber"])
	}
	if decoded[0]["total"] != "120.00" {
		t.Fatalf("total = %v", decoded[0]["total"])
	}

	items, ok := decoded[0]["items"].([]any)
	if !ok || len(items) != 1 {
		t.Fatalf("items = %v", decoded[0]["items"])
	}
}
