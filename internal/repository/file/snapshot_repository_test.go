package file

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/andresuchdata/partsight/internal/domain"
	"github.com/andresuchdata/partsight/internal/storage"
	"github.com/google/go-cmp/cmp"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

const (
	supplierID = "0b6f3c5e-8a55-4a43-9a57-3f1a2c6d7e01"
	itemID     = "5d1c2b3a-1f2e-4d3c-8b7a-6e5f4d3c2b01"
	orderID    = "9a8b7c6d-5e4f-4a3b-8c2d-1e0f9a8b7c01"
)

const jsonSnapshot = `{
  "items": [
    {"id": "` + itemID + `", "part_number": "BRK-01", "name": "Brake pad", "quantity": 12, "min_quantity": 5,
     "cost_price": "18.40", "selling_price": 32, "supplier_id": "` + supplierID + `"}
  ],
  "suppliers": [
    {"id": "` + supplierID + `", "name": "Acme Brakes", "lead_time_days": 10, "terms": "NET30"}
  ],
  "orders": [
    {"id": "` + orderID + `", "supplier_id": "` + supplierID + `", "status": "completed", "total": 184,
     "created_at": "2025-06-01T08:00:00Z", "updated_at": "2025-06-02T08:00:00Z",
     "completed_at": "2025-06-08T08:00:00Z", "expected_date": "2025-06-10T00:00:00Z",
     "items": [{"part_number": "BRK-01", "quantity": 10, "status": "installed"}]}
  ],
  "settings": {"ordering_cost": 25, "holding_cost_percentage": 20}
}`

const yamlSnapshot = `
items:
  - id: ` + itemID + `
    part_number: BRK-01
    name: Brake pad
    quantity: 12
    min_quantity: 5
    cost_price: "18.40"
    selling_price: 32
    supplier_id: ` + supplierID + `
suppliers:
  - id: ` + supplierID + `
    name: Acme Brakes
    lead_time_days: 10
    terms: NET30
orders:
  - id: ` + orderID + `
    supplier_id: ` + supplierID + `
    status: COMPLETE
    total: 184
    created_at: "2025-06-01T08:00:00Z"
    updated_at: "2025-06-02T08:00:00Z"
    completed_at: "2025-06-08T08:00:00Z"
    expected_date: "2025-06-10T00:00:00Z"
    items:
      - part_number: BRK-01
        quantity: 10
        status: Installed
settings:
  ordering_cost: 25
  holding_cost_percentage: 20
`

func assertFixture(t *testing.T, snapshot *domain.Snapshot) {
	t.Helper()

	require.Len(t, snapshot.Items, 1)
	item := snapshot.Items[0]
	assert.Equal(t, "BRK-01", item.PartNumber)
	assert.Equal(t, 12, item.Quantity)
	assert.True(t, decimal.RequireFromString("18.4").Equal(item.CostPrice))
	assert.Equal(t, supplierID, item.SupplierID.String())

	require.Len(t, snapshot.Suppliers, 1)
	assert.Equal(t, 10, snapshot.Suppliers[0].EffectiveLeadTimeDays())

	require.Len(t, snapshot.Orders, 1)
	order := snapshot.Orders[0]
	assert.Equal(t, domain.OrderComplete, order.Status)
	require.NotNil(t, order.CompletedAt)
	require.NotNil(t, order.ExpectedDate)
	assert.True(t, order.CompletedAt.Equal(time.Date(2025, 6, 8, 8, 0, 0, 0, time.UTC)))
	assert.Equal(t, []domain.OrderLineItem{{PartNumber: "BRK-01", Quantity: 10, Status: domain.LineItemInstalled}}, order.Items)

	assert.True(t, decimal.NewFromInt(25).Equal(snapshot.Settings.OrderingCost))
	assert.Equal(t, 20.0, snapshot.Settings.HoldingCostPercentage)

	require.NoError(t, domain.ValidateSnapshot(snapshot))
}

func TestDecode_JSON(t *testing.T) {
	snapshot, err := Decode(FormatJSON, []byte(jsonSnapshot))
	require.NoError(t, err)
	assertFixture(t, snapshot)
}

func TestDecode_YAML(t *testing.T) {
	snapshot, err := Decode(FormatYAML, []byte(yamlSnapshot))
	require.NoError(t, err)
	assertFixture(t, snapshot)
}

func TestDecode_XLSX(t *testing.T) {
	snapshot, err := Decode(FormatXLSX, buildWorkbook(t, true))
	require.NoError(t, err)
	assertFixture(t, snapshot)
}

func TestDecode_XLSXWithoutSettingsSheet(t *testing.T) {
	snapshot, err := Decode(FormatXLSX, buildWorkbook(t, false))
	require.NoError(t, err)
	assert.True(t, snapshot.Settings.OrderingCost.IsZero())
}

func TestDecode_RejectsUnknownStatus(t *testing.T) {
	_, err := Decode(FormatJSON, []byte(`{"orders": [{"id": "`+orderID+`", "status": "shipped"}]}`))
	assert.Error(t, err)
}

func TestFormatOf(t *testing.T) {
	for location, want := range map[string]Format{
		"shop.json":                  FormatJSON,
		"/data/shop.YAML":            FormatYAML,
		"shop.yml":                   FormatYAML,
		"s3://snapshots/2025/a.xlsx": FormatXLSX,
	} {
		got, err := FormatOf(location)
		require.NoError(t, err, location)
		assert.Equal(t, want, got, location)
	}

	_, err := FormatOf("shop.csv")
	assert.Error(t, err)
}

func TestSnapshotRepository_LocalRoundTrip(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "in.json")
	require.NoError(t, os.WriteFile(src, []byte(jsonSnapshot), 0o644))

	ctx := context.Background()
	loaded, err := NewSnapshotRepository(src, nil, domain.Settings{}).LoadSnapshot(ctx, time.Now())
	require.NoError(t, err)

	for _, name := range []string{"out/copy.json", "out/copy.yaml"} {
		dst := NewSnapshotRepository(filepath.Join(dir, name), nil, domain.Settings{})
		require.NoError(t, dst.SaveSnapshot(ctx, loaded))

		reloaded, err := dst.LoadSnapshot(ctx, time.Now())
		require.NoError(t, err)
		if diff := cmp.Diff(loaded, reloaded, cmp.Comparer(func(a, b decimal.Decimal) bool { return a.Equal(b) })); diff != "" {
			t.Fatalf("%s round trip mismatch (-want +got):\n%s", name, diff)
		}
	}
}

func TestSnapshotRepository_FallbackSettings(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "bare.json")
	require.NoError(t, os.WriteFile(src, []byte(`{"items": []}`), 0o644))

	fallback := domain.Settings{OrderingCost: decimal.NewFromInt(40), HoldingCostPercentage: 15}
	snapshot, err := NewSnapshotRepository(src, nil, fallback).LoadSnapshot(context.Background(), time.Now())
	require.NoError(t, err)
	assert.Equal(t, fallback, snapshot.Settings)
}

func TestSnapshotRepository_ExplicitZeroSettings(t *testing.T) {
	dir := t.TempDir()
	fallback := domain.Settings{OrderingCost: decimal.NewFromInt(40), HoldingCostPercentage: 15}

	tests := []struct {
		name string
		body string
		want domain.Settings
	}{
		{name: "zero.json", body: `{"items": [], "settings": {"ordering_cost": 0, "holding_cost_percentage": 0}}`, want: domain.Settings{}},
		{name: "zero.yaml", body: "items: []\nsettings:\n  ordering_cost: 0\n  holding_cost_percentage: 0\n", want: domain.Settings{}},
		{name: "null.json", body: `{"items": [], "settings": null}`, want: fallback},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := filepath.Join(dir, tt.name)
			require.NoError(t, os.WriteFile(src, []byte(tt.body), 0o644))

			snapshot, err := NewSnapshotRepository(src, nil, fallback).LoadSnapshot(context.Background(), time.Now())
			require.NoError(t, err)
			assert.True(t, tt.want.OrderingCost.Equal(snapshot.Settings.OrderingCost))
			assert.Equal(t, tt.want.HoldingCostPercentage, snapshot.Settings.HoldingCostPercentage)
		})
	}
}

func TestDecode_XLSXSettingsPresence(t *testing.T) {
	_, hasSettings, err := decodeXLSX(bytes.NewReader(buildWorkbook(t, true)))
	require.NoError(t, err)
	assert.True(t, hasSettings)

	_, hasSettings, err = decodeXLSX(bytes.NewReader(buildWorkbook(t, false)))
	require.NoError(t, err)
	assert.False(t, hasSettings)
}

func TestSnapshotRepository_ObjectStorage(t *testing.T) {
	objects := &fakeObjects{data: map[string][]byte{"shops/acme.yaml": []byte(yamlSnapshot)}}
	repo := NewSnapshotRepository("s3://snapshots/shops/acme.yaml", objects, domain.Settings{})

	assert.Equal(t, "file:s3://snapshots/shops/acme.yaml", repo.Source())

	snapshot, err := repo.LoadSnapshot(context.Background(), time.Now())
	require.NoError(t, err)
	assertFixture(t, snapshot)

	missing := NewSnapshotRepository("s3://snapshots/none.json", objects, domain.Settings{})
	_, err = missing.LoadSnapshot(context.Background(), time.Now())
	assert.ErrorIs(t, err, storage.ErrObjectNotFound)

	noStore := NewSnapshotRepository("s3://snapshots/shops/acme.yaml", nil, domain.Settings{})
	_, err = noStore.LoadSnapshot(context.Background(), time.Now())
	assert.Error(t, err)
}

func TestSnapshotRepository_DriveLocation(t *testing.T) {
	objects := &fakeObjects{data: map[string][]byte{"Inventory/2025/acme.xlsx": buildWorkbook(t, true)}}
	repo := NewSnapshotRepository("gdrive://Inventory/2025/acme.xlsx", objects, domain.Settings{})

	snapshot, err := repo.LoadSnapshot(context.Background(), time.Now())
	require.NoError(t, err)
	assertFixture(t, snapshot)

	require.NoError(t, NewSnapshotRepository("gdrive://Inventory/out.json", objects, domain.Settings{}).SaveSnapshot(context.Background(), snapshot))
	assert.Contains(t, objects.data, "Inventory/out.json")
}

type fakeObjects struct {
	data map[string][]byte
}

func (f *fakeObjects) ListObjects(ctx context.Context, prefix string) ([]storage.ObjectInfo, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeObjects) GetObject(ctx context.Context, key string) ([]byte, error) {
	data, ok := f.data[key]
	if !ok {
		return nil, fmt.Errorf("%s: %w", key, storage.ErrObjectNotFound)
	}
	return data, nil
}

func (f *fakeObjects) UploadObject(ctx context.Context, key string, data []byte) error {
	f.data[key] = data
	return nil
}

func buildWorkbook(t *testing.T, withSettings bool) []byte {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	sheets := []struct {
		name string
		rows [][]any
	}{
		{SheetItems, [][]any{
			{"id", "part_number", "name", "quantity", "min_quantity", "cost_price", "selling_price", "supplier_id"},
			{itemID, "BRK-01", "Brake pad", "12", "5", "18.40", "32", supplierID},
		}},
		{SheetSuppliers, [][]any{
			{"terms", "lead_time_days", "name", "id"},
			{"NET30", "10", "Acme Brakes", supplierID},
		}},
		{SheetOrders, [][]any{
			{"id", "supplier_id", "status", "total", "created_at", "updated_at", "completed_at", "expected_date"},
			{orderID, supplierID, "Completed", "184", "2025-06-01T08:00:00Z", "2025-06-02 08:00:00", "2025-06-08T08:00:00Z", "2025-06-10"},
		}},
		{SheetOrderItems, [][]any{
			{"order_id", "part_number", "quantity", "status"},
			{orderID, "BRK-01", "10", "installed"},
			{"", "", "", ""},
		}},
	}
	if withSettings {
		sheets = append(sheets, struct {
			name string
			rows [][]any
		}{SheetSettings, [][]any{
			{"ordering_cost", "holding_cost_percentage"},
			{"25", "20%"},
		}})
	}

	for _, s := range sheets {
		_, err := f.NewSheet(s.name)
		require.NoError(t, err)
		for i, row := range s.rows {
			cell, err := excelize.CoordinatesToCellName(1, i+1)
			require.NoError(t, err)
			values := row
			require.NoError(t, f.SetSheetRow(s.name, cell, &values))
		}
	}

	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}
