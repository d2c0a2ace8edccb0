package file

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/andresuchdata/partsight/internal/domain"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

// Sheet names of a snapshot workbook.
const (
	SheetItems      = "items"
	SheetSuppliers  = "suppliers"
	SheetOrders     = "orders"
	SheetOrderItems = "order_items"
	SheetSettings   = "settings"
)

// Required header columns per sheet. Extra columns are ignored and the
// order is free.
var sheetColumns = map[string][]string{
	SheetItems:      {"id", "part_number", "name", "quantity", "min_quantity", "cost_price", "selling_price", "supplier_id"},
	SheetSuppliers:  {"id", "name", "lead_time_days", "terms"},
	SheetOrders:     {"id", "supplier_id", "status", "total", "created_at", "updated_at", "completed_at", "expected_date"},
	SheetOrderItems: {"order_id", "part_number", "quantity", "status"},
	SheetSettings:   {"ordering_cost", "holding_cost_percentage"},
}

var timeLayouts = []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"}

// sheet is the parsed body of one worksheet addressed by header name.
type sheet struct {
	name    string
	columns map[string]int
	rows    [][]string
}

func (s *sheet) cell(row []string, column string) string {
	idx, ok := s.columns[column]
	if !ok || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

func decodeXLSX(r io.Reader) (*domain.Snapshot, bool, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, false, fmt.Errorf("failed to open xlsx snapshot: %w", err)
	}
	defer f.Close()

	sheets := make(map[string]*sheet, len(sheetColumns))
	for name := range sheetColumns {
		s, err := readSheet(f, name)
		if err != nil {
			return nil, false, err
		}
		sheets[name] = s
	}

	snapshot := &domain.Snapshot{}

	if snapshot.Items, err = parseItems(sheets[SheetItems]); err != nil {
		return nil, false, err
	}
	if snapshot.Suppliers, err = parseSuppliers(sheets[SheetSuppliers]); err != nil {
		return nil, false, err
	}
	if snapshot.Orders, err = parseOrders(sheets[SheetOrders], sheets[SheetOrderItems]); err != nil {
		return nil, false, err
	}
	if snapshot.Settings, err = parseSettings(sheets[SheetSettings]); err != nil {
		return nil, false, err
	}

	return snapshot, len(sheets[SheetSettings].rows) > 0, nil
}

// readSheet loads a worksheet and checks its header. A missing settings
// sheet is allowed; every other sheet is required.
func readSheet(f *excelize.File, name string) (*sheet, error) {
	if idx, err := f.GetSheetIndex(name); err != nil || idx < 0 {
		if name == SheetSettings {
			return &sheet{name: name, columns: map[string]int{}}, nil
		}
		return nil, fmt.Errorf("xlsx snapshot has no %q sheet", name)
	}

	rows, err := f.GetRows(name)
	if err != nil {
		return nil, fmt.Errorf("failed to read rows from sheet %s: %w", name, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("sheet %s must have a header row", name)
	}

	columns := make(map[string]int, len(rows[0]))
	for i, header := range rows[0] {
		columns[strings.ToLower(strings.TrimSpace(header))] = i
	}
	for _, want := range sheetColumns[name] {
		if _, ok := columns[want]; !ok {
			return nil, fmt.Errorf("sheet %s header mismatch: missing column %q", name, want)
		}
	}

	body := make([][]string, 0, len(rows)-1)
	for _, row := range rows[1:] {
		if isBlank(row) {
			continue
		}
		body = append(body, row)
	}

	return &sheet{name: name, columns: columns, rows: body}, nil
}

func parseItems(s *sheet) ([]domain.InventoryItem, error) {
	items := make([]domain.InventoryItem, 0, len(s.rows))
	for i, row := range s.rows {
		var (
			item domain.InventoryItem
			err  error
		)
		rowErr := func(field string, err error) error {
			return fmt.Errorf("sheet %s row %d: %s: %w", s.name, i+2, field, err)
		}

		if item.ID, err = parseID(s.cell(row, "id")); err != nil {
			return nil, rowErr("id", err)
		}
		item.PartNumber = s.cell(row, "part_number")
		item.Name = s.cell(row, "name")
		if item.Quantity, err = parseInt(s.cell(row, "quantity")); err != nil {
			return nil, rowErr("quantity", err)
		}
		if item.MinQuantity, err = parseInt(s.cell(row, "min_quantity")); err != nil {
			return nil, rowErr("min_quantity", err)
		}
		if item.CostPrice, err = parseDecimal(s.cell(row, "cost_price")); err != nil {
			return nil, rowErr("cost_price", err)
		}
		if item.SellingPrice, err = parseDecimal(s.cell(row, "selling_price")); err != nil {
			return nil, rowErr("selling_price", err)
		}
		if item.SupplierID, err = parseOptionalID(s.cell(row, "supplier_id")); err != nil {
			return nil, rowErr("supplier_id", err)
		}

		items = append(items, item)
	}
	return items, nil
}

func parseSuppliers(s *sheet) ([]domain.Supplier, error) {
	suppliers := make([]domain.Supplier, 0, len(s.rows))
	for i, row := range s.rows {
		var (
			sup domain.Supplier
			err error
		)
		if sup.ID, err = parseID(s.cell(row, "id")); err != nil {
			return nil, fmt.Errorf("sheet %s row %d: id: %w", s.name, i+2, err)
		}
		sup.Name = s.cell(row, "name")
		sup.Terms = s.cell(row, "terms")

		if raw := s.cell(row, "lead_time_days"); raw != "" {
			days, err := parseInt(raw)
			if err != nil {
				return nil, fmt.Errorf("sheet %s row %d: lead_time_days: %w", s.name, i+2, err)
			}
			sup.LeadTimeDays = &days
		}

		suppliers = append(suppliers, sup)
	}
	return suppliers, nil
}

func parseOrders(orderSheet, lineSheet *sheet) ([]domain.Order, error) {
	orders := make([]domain.Order, 0, len(orderSheet.rows))
	index := make(map[uuid.UUID]int, len(orderSheet.rows))

	for i, row := range orderSheet.rows {
		var (
			order domain.Order
			err   error
		)
		rowErr := func(field string, err error) error {
			return fmt.Errorf("sheet %s row %d: %s: %w", orderSheet.name, i+2, field, err)
		}

		if order.ID, err = parseID(orderSheet.cell(row, "id")); err != nil {
			return nil, rowErr("id", err)
		}
		if order.SupplierID, err = parseOptionalID(orderSheet.cell(row, "supplier_id")); err != nil {
			return nil, rowErr("supplier_id", err)
		}
		if order.Status, err = domain.ParseOrderStatus(orderSheet.cell(row, "status")); err != nil {
			return nil, rowErr("status", err)
		}
		if order.Total, err = parseDecimal(orderSheet.cell(row, "total")); err != nil {
			return nil, rowErr("total", err)
		}
		if order.CreatedAt, err = parseTime(orderSheet.cell(row, "created_at")); err != nil {
			return nil, rowErr("created_at", err)
		}
		if order.UpdatedAt, err = parseTime(orderSheet.cell(row, "updated_at")); err != nil {
			return nil, rowErr("updated_at", err)
		}
		if order.CompletedAt, err = parseOptionalTime(orderSheet.cell(row, "completed_at")); err != nil {
			return nil, rowErr("completed_at", err)
		}
		if order.ExpectedDate, err = parseOptionalTime(orderSheet.cell(row, "expected_date")); err != nil {
			return nil, rowErr("expected_date", err)
		}

		index[order.ID] = len(orders)
		orders = append(orders, order)
	}

	for i, row := range lineSheet.rows {
		rowErr := func(field string, err error) error {
			return fmt.Errorf("sheet %s row %d: %s: %w", lineSheet.name, i+2, field, err)
		}

		orderID, err := parseID(lineSheet.cell(row, "order_id"))
		if err != nil {
			return nil, rowErr("order_id", err)
		}
		idx, ok := index[orderID]
		if !ok {
			return nil, rowErr("order_id", fmt.Errorf("unknown order %s", orderID))
		}

		line := domain.OrderLineItem{PartNumber: lineSheet.cell(row, "part_number")}
		if line.Quantity, err = parseInt(lineSheet.cell(row, "quantity")); err != nil {
			return nil, rowErr("quantity", err)
		}
		if line.Status, err = domain.ParseLineItemStatus(lineSheet.cell(row, "status")); err != nil {
			return nil, rowErr("status", err)
		}

		orders[idx].Items = append(orders[idx].Items, line)
	}

	return orders, nil
}

// parseSettings reads the first data row. An empty sheet yields zero settings.
func parseSettings(s *sheet) (domain.Settings, error) {
	if len(s.rows) == 0 {
		return domain.Settings{}, nil
	}
	row := s.rows[0]

	orderingCost, err := parseDecimal(s.cell(row, "ordering_cost"))
	if err != nil {
		return domain.Settings{}, fmt.Errorf("sheet %s: ordering_cost: %w", s.name, err)
	}
	holding, err := parseFloat(s.cell(row, "holding_cost_percentage"))
	if err != nil {
		return domain.Settings{}, fmt.Errorf("sheet %s: holding_cost_percentage: %w", s.name, err)
	}

	return domain.Settings{OrderingCost: orderingCost, HoldingCostPercentage: holding}, nil
}

func parseID(raw string) (uuid.UUID, error) {
	if raw == "" {
		return uuid.Nil, fmt.Errorf("value is required")
	}
	return uuid.Parse(raw)
}

func parseOptionalID(raw string) (uuid.UUID, error) {
	if raw == "" {
		return uuid.Nil, nil
	}
	return uuid.Parse(raw)
}

func parseInt(raw string) (int, error) {
	if raw == "" {
		return 0, nil
	}
	// spreadsheets often store whole numbers as "12.0"
	if f, err := strconv.ParseFloat(raw, 64); err == nil && f == float64(int(f)) {
		return int(f), nil
	}
	return strconv.Atoi(raw)
}

func parseFloat(raw string) (float64, error) {
	if raw == "" {
		return 0, nil
	}
	return strconv.ParseFloat(strings.TrimSuffix(raw, "%"), 64)
}

func parseDecimal(raw string) (decimal.Decimal, error) {
	if raw == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(raw)
}

func parseTime(raw string) (time.Time, error) {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised time %q", raw)
}

func parseOptionalTime(raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	t, err := parseTime(raw)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func isBlank(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
