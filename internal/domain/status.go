package domain

import (
	"fmt"
	"strings"
)

// OrderStatus is the lifecycle state of a purchase order.
type OrderStatus string

const (
	OrderPending   OrderStatus = "PENDING"
	OrderPartial   OrderStatus = "PARTIAL"
	OrderComplete  OrderStatus = "COMPLETE"
	OrderCancelled OrderStatus = "CANCELLED"
)

// LineItemStatus is the receiving state of a single order line.
type LineItemStatus string

const (
	LineItemPending   LineItemStatus = "PENDING"
	LineItemInstalled LineItemStatus = "INSTALLED"
	LineItemRejected  LineItemStatus = "REJECTED"
)

var orderStatuses = map[string]OrderStatus{
	"pending":   OrderPending,
	"partial":   OrderPartial,
	"complete":  OrderComplete,
	"completed": OrderComplete,
	"cancelled": OrderCancelled,
	"canceled":  OrderCancelled,
}

var lineItemStatuses = map[string]LineItemStatus{
	"pending":   LineItemPending,
	"installed": LineItemInstalled,
	"rejected":  LineItemRejected,
}

// ParseOrderStatus returns the status for a given label (case-insensitive).
func ParseOrderStatus(label string) (OrderStatus, error) {
	if status, ok := orderStatuses[strings.ToLower(strings.TrimSpace(label))]; ok {
		return status, nil
	}
	return "", fmt.Errorf("unknown order status %q", label)
}

// ParseLineItemStatus returns the line status for a label (case-insensitive).
// An empty label is treated as pending.
func ParseLineItemStatus(label string) (LineItemStatus, error) {
	label = strings.ToLower(strings.TrimSpace(label))
	if label == "" {
		return LineItemPending, nil
	}
	if status, ok := lineItemStatuses[label]; ok {
		return status, nil
	}
	return "", fmt.Errorf("unknown line item status %q", label)
}

// Valid reports whether s is one of the known order statuses.
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderPending, OrderPartial, OrderComplete, OrderCancelled:
		return true
	}
	return false
}

// Valid reports whether s is one of the known line statuses.
func (s LineItemStatus) Valid() bool {
	switch s {
	case LineItemPending, LineItemInstalled, LineItemRejected:
		return true
	}
	return false
}
