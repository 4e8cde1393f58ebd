package services

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

var exportCSVHeader = []string{
	"order_number",
	"created_at",
	"customer_email",
	"status",
	"payment_status",
	"items",
	"subtotal",
	"shipping",
	"tax",
	"total",
	"currency",
}

// ExportOrdersCSV renders orders as CSV with a fixed header row. Amounts are
// formatted with two decimal places.
func ExportOrdersCSV(orders []Order) (string, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	if err := writer.Write(exportCSVHeader); err != nil {
		return "", fmt.Errorf("export: write header: %w", err)
	}
	for _, order := range orders {
		record := []string{
			order.OrderNumber,
			order.CreatedAt.UTC().Format(time.RFC3339),
			order.Email,
			string(order.Status),
			string(order.PaymentStatus),
			strconv.Itoa(order.ItemCount()),
			order.SubtotalAmount.StringFixed(2),
			order.ShippingCost.StringFixed(2),
			order.TaxAmount.StringFixed(2),
			order.TotalAmount.StringFixed(2),
			order.Currency,
		}
		if err := writer.Write(record); err != nil {
			return "", fmt.Errorf("export: write order %s: %w", order.ID, err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return "", fmt.Errorf("export: flush: %w", err)
	}
	return buf.String(), nil
}

type exportedItem struct {
	ProductID  string `json:"productId"`
	SKU        string `json:"sku,omitempty"`
	Name       string `json:"name"`
	Quantity   int    `json:"quantity"`
	UnitPrice  string `json:"unitPrice"`
	TotalPrice string `json:"totalPrice"`
}

type exportedOrder struct {
	ID            string         `json:"id"`
	OrderNumber   string         `json:"orderNumber"`
	CreatedAt     time.Time      `json:"createdAt"`
	Email         string         `json:"email"`
	Status        string         `json:"status"`
	PaymentStatus string         `json:"paymentStatus"`
	Subtotal      string         `json:"subtotal"`
	Shipping      string         `json:"shipping"`
	Tax           string         `json:"tax"`
	Total         string         `json:"total"`
	Currency      string         `json:"currency"`
	Items         []exportedItem `json:"items"`
	Notes         string         `json:"notes,omitempty"`
}

// ExportOrdersJSON renders orders as an indented JSON array.
func ExportOrdersJSON(orders []Order) (string, error) {
	exported := make([]exportedOrder, 0, len(orders))
	for _, order := range orders {
		items := make([]exportedItem, 0, len(order.Items))
		for _, item := range order.Items {
			items = append(items, exportedItem{
				ProductID:  item.ProductID,
				SKU:        item.SKU,
				Name:       item.Name,
				Quantity:   item.Quantity,
				UnitPrice:  item.UnitPrice.StringFixed(2),
				TotalPrice: item.TotalPrice.StringFixed(2),
			})
		}
		exported = append(exported, exportedOrder{
			ID:            order.ID,
			OrderNumber:   order.OrderNumber,
			CreatedAt:     order.CreatedAt.UTC(),
			Email:         order.Email,
			Status:        string(order.Status),
			PaymentStatus: string(order.PaymentStatus),
			Subtotal:      order.SubtotalAmount.StringFixed(2),
			Shipping:      order.ShippingCost.StringFixed(2),
			Tax:           order.TaxAmount.StringFixed(2),
			Total:         order.TotalAmount.StringFixed(2),
			Currency:      order.Currency,
			Items:         items,
			Notes:         order.Notes,
		})
	}

	data, err := json.MarshalIndent(exported, "", "  ")
	if err != nil {
		return "", fmt.Errorf("export: marshal orders: %w", err)
	}
	return string(data), nil
}
