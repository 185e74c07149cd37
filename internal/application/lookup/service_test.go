package lookup

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/wmsexpress/backend/internal/domain/scan"
	"github.com/wmsexpress/backend/internal/domain/shared"
	"github.com/wmsexpress/backend/internal/domain/warehouse"
	"github.com/wmsexpress/backend/internal/infrastructure/seed"
)

func newTestCatalog(t *testing.T) *warehouse.Catalog {
	t.Helper()
	ds, err := seed.Builtin()
	require.NoError(t, err)
	catalog, err := warehouse.NewCatalog(ds)
	require.NoError(t, err)
	return catalog
}

func newTestService(t *testing.T) *Service {
	t.Helper()
	return NewService(newTestCatalog(t), 0, nil)
}

func useSpanRecorder(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		otel.SetTracerProvider(prev)
		_ = tp.Shutdown(context.Background())
	})
	return recorder
}

func TestService_ListClients(t *testing.T) {
	clients := newTestService(t).ListClients(context.Background())

	require.Len(t, clients, 6)
	assert.Equal(t, ClientResponse{ID: 0, Name: "All Clients", IsAllClients: true, ReceiptCount: 12}, clients[0])
	assert.Equal(t, ClientResponse{ID: 1, Name: "Acme Corp", ReceiptCount: 3, LastReceipt: "WR-003"}, clients[1])
	assert.Equal(t, "EcoSolutions", clients[5].Name)
}

func TestService_ListReceipts(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	t.Run("single client with highlight", func(t *testing.T) {
		resp, err := svc.ListReceipts(ctx, 2, "wr-005")
		require.NoError(t, err)

		assert.Equal(t, "GlobalTech's Receipts", resp.Title)
		assert.Equal(t, []ReceiptItem{
			{ID: "WR-004", PurchaseOrder: "PO-004"},
			{ID: "WR-005", PurchaseOrder: "PO-005", Highlighted: true},
		}, resp.Receipts)
	})

	t.Run("all clients concatenates in listing order", func(t *testing.T) {
		resp, err := svc.ListReceipts(ctx, warehouse.AllClientsID, "")
		require.NoError(t, err)

		assert.Equal(t, "All Warehouse Receipts", resp.Title)
		require.Len(t, resp.Receipts, 12)
		assert.Equal(t, "WR-001", resp.Receipts[0].ID)
		assert.Equal(t, "WR-012", resp.Receipts[11].ID)
		for _, item := range resp.Receipts {
			assert.False(t, item.Highlighted)
		}
	})

	t.Run("unknown client", func(t *testing.T) {
		_, err := svc.ListReceipts(ctx, 42, "")
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

func TestService_Dashboard(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	t.Run("all clients shows latest receipt per client", func(t *testing.T) {
		resp, err := svc.Dashboard(ctx, warehouse.AllClientsID)
		require.NoError(t, err)

		assert.Equal(t, "Latest Warehouse Receipts", resp.Title)
		assert.Empty(t, resp.Receipts)
		require.Len(t, resp.Latest, 5)
		assert.Equal(t, DashboardEntry{ClientID: 1, ClientName: "Acme Corp", LastReceipt: "WR-003"}, resp.Latest[0])
		assert.Equal(t, DashboardEntry{ClientID: 3, ClientName: "MegaStore", LastReceipt: "WR-008"}, resp.Latest[2])
	})

	t.Run("single client flags latest receipt", func(t *testing.T) {
		resp, err := svc.Dashboard(ctx, 3)
		require.NoError(t, err)

		assert.Equal(t, "MegaStore's Warehouse Receipts", resp.Title)
		assert.Empty(t, resp.Latest)
		require.Len(t, resp.Receipts, 3)
		assert.False(t, resp.Receipts[0].Latest)
		assert.True(t, resp.Receipts[2].Latest)
		assert.Equal(t, "WR-008", resp.Receipts[2].ID)
	})

	t.Run("unknown client", func(t *testing.T) {
		_, err := svc.Dashboard(ctx, -1)
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

func TestService_Resolve(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	tests := []struct {
		name          string
		query         string
		selection     SelectionDTO
		wantKind      string
		wantClient    *ClientRef
		wantIdent     string
		wantSelection SelectionDTO
	}{
		{
			name:          "purchase order resolves through substitution",
			query:         "PO-001",
			wantKind:      "FOUND",
			wantClient:    &ClientRef{ID: 1, Name: "Acme Corp"},
			wantIdent:     "WR-001",
			wantSelection: SelectionDTO{ClientID: 1, Highlighted: "WR-001"},
		},
		{
			name:          "lowercase receipt",
			query:         "  wr-010 ",
			wantKind:      "FOUND",
			wantClient:    &ClientRef{ID: 4, Name: "TechInnovate"},
			wantIdent:     "WR-010",
			wantSelection: SelectionDTO{ClientID: 4, Highlighted: "WR-010"},
		},
		{
			name:          "empty keeps client and clears highlight",
			query:         "   ",
			selection:     SelectionDTO{ClientID: 2, Highlighted: "WR-004"},
			wantKind:      "EMPTY",
			wantSelection: SelectionDTO{ClientID: 2},
		},
		{
			name:          "invalid format",
			query:         "XYZ-1",
			selection:     SelectionDTO{ClientID: 3},
			wantKind:      "INVALID_FORMAT",
			wantSelection: SelectionDTO{ClientID: 3},
		},
		{
			name:          "not found",
			query:         "WR-999",
			selection:     SelectionDTO{ClientID: 1, Highlighted: "WR-001"},
			wantKind:      "NOT_FOUND",
			wantSelection: SelectionDTO{ClientID: 1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := svc.Resolve(ctx, ResolveRequest{Query: tt.query, Selection: tt.selection})
			require.NoError(t, err)

			assert.Equal(t, tt.wantKind, resp.Outcome.Kind)
			assert.Equal(t, tt.wantClient, resp.Outcome.Client)
			assert.Equal(t, tt.wantIdent, resp.Outcome.Identifier)
			assert.Equal(t, tt.wantSelection, resp.Selection)
		})
	}

	t.Run("unknown selected client", func(t *testing.T) {
		_, err := svc.Resolve(ctx, ResolveRequest{Query: "WR-001", Selection: SelectionDTO{ClientID: 99}})
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

func TestService_Resolve_RecordsSpan(t *testing.T) {
	recorder := useSpanRecorder(t)
	svc := newTestService(t)

	_, err := svc.Resolve(context.Background(), ResolveRequest{Query: "po-002"})
	require.NoError(t, err)

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "LookupService.Resolve", spans[0].Name())

	attrs := map[string]string{}
	for _, kv := range spans[0].Attributes() {
		attrs[string(kv.Key)] = kv.Value.Emit()
	}
	assert.Equal(t, "PO-002", attrs["query"])
	assert.Equal(t, "FOUND", attrs["outcome"])
}

func TestService_SearchForMove(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	t.Run("receipt prefills client and linked purchase order", func(t *testing.T) {
		resp := svc.SearchForMove(ctx, "wr-007")
		assert.Equal(t, "FOUND", resp.Kind)
		assert.Equal(t, &ClientRef{ID: 3, Name: "MegaStore"}, resp.Client)
		assert.Equal(t, "WR-007", resp.Receipt)
		assert.Equal(t, "PO-007", resp.PurchaseOrder)
		assert.Equal(t, []string{"PO-006", "PO-007", "PO-008"}, resp.PurchaseOrders)
	})

	t.Run("purchase order resolves directly", func(t *testing.T) {
		resp := svc.SearchForMove(ctx, "PO-011")
		assert.Equal(t, "FOUND", resp.Kind)
		assert.Equal(t, 5, resp.Client.ID)
		assert.Empty(t, resp.Receipt)
		assert.Equal(t, "PO-011", resp.PurchaseOrder)
	})

	t.Run("unknown purchase order", func(t *testing.T) {
		resp := svc.SearchForMove(ctx, "PO-404")
		assert.Equal(t, "NOT_FOUND", resp.Kind)
		assert.Nil(t, resp.Client)
		assert.Empty(t, resp.PurchaseOrders)
	})

	t.Run("empty", func(t *testing.T) {
		assert.Equal(t, "EMPTY", svc.SearchForMove(ctx, "").Kind)
	})
}

func bounds(x, y, w, h float64) *scan.Bounds {
	return &scan.Bounds{Origin: &scan.Point{X: x, Y: y}, Size: &scan.Size{Width: w, Height: h}}
}

func TestService_ScanFrame(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	// 400x800 viewport: square side 280, left 60, top 260
	viewport := scan.Viewport{Width: 400, Height: 800}

	t.Run("first found detection drives the selection", func(t *testing.T) {
		resp, err := svc.ScanFrame(ctx, ScanRequest{
			Viewport: viewport,
			Detections: []scan.Detection{
				{Type: scan.CodeTypeQR, Value: "WR-002", Bounds: bounds(0, 0, 50, 50)},
				{Type: scan.CodeTypeQR, Value: "WR-404", Bounds: bounds(100, 300, 50, 50)},
				{Type: scan.CodeTypeEAN13, Value: "po-004"},
				{Type: scan.CodeTypeQR, Value: "WR-009", Bounds: bounds(60, 260, 280, 280)},
			},
		})
		require.NoError(t, err)

		assert.Equal(t, AreaResponse{Left: 60, Top: 260, Right: 340, Bottom: 540}, resp.Area)
		assert.Equal(t, 3, resp.Accepted)
		assert.Equal(t, 1, resp.Rejected)
		require.Len(t, resp.Results, 3)
		assert.Equal(t, "NOT_FOUND", resp.Results[0].Outcome.Kind)
		assert.Equal(t, "WR-004", resp.Results[1].Outcome.Identifier)
		assert.Equal(t, "WR-009", resp.Results[2].Outcome.Identifier)
		assert.Equal(t, SelectionDTO{ClientID: 2, Highlighted: "WR-004"}, resp.Selection)
	})

	t.Run("no match clears highlight", func(t *testing.T) {
		resp, err := svc.ScanFrame(ctx, ScanRequest{
			Viewport:   viewport,
			Detections: []scan.Detection{{Type: scan.CodeTypeQR, Value: "hello"}},
			Selection:  SelectionDTO{ClientID: 1, Highlighted: "WR-001"},
		})
		require.NoError(t, err)
		assert.Equal(t, "INVALID_FORMAT", resp.Results[0].Outcome.Kind)
		assert.Equal(t, SelectionDTO{ClientID: 1}, resp.Selection)
	})

	t.Run("empty frame", func(t *testing.T) {
		resp, err := svc.ScanFrame(ctx, ScanRequest{Viewport: viewport})
		require.NoError(t, err)
		assert.Empty(t, resp.Results)
		assert.Zero(t, resp.Accepted)
	})

	t.Run("unsupported code type", func(t *testing.T) {
		_, err := svc.ScanFrame(ctx, ScanRequest{
			Viewport:   viewport,
			Detections: []scan.Detection{{Type: "pdf417", Value: "WR-001"}},
		})
		assert.ErrorIs(t, err, shared.ErrInvalidInput)
	})

	t.Run("invalid viewport", func(t *testing.T) {
		_, err := svc.ScanFrame(ctx, ScanRequest{Viewport: scan.Viewport{Width: 0, Height: 100}})
		assert.ErrorIs(t, err, shared.ErrInvalidInput)
	})
}

func TestNewService_AreaRatio(t *testing.T) {
	catalog := newTestCatalog(t)
	assert.Equal(t, scan.DefaultAreaRatio, NewService(catalog, 0, nil).areaRatio)
	assert.Equal(t, 0.5, NewService(catalog, 0.5, nil).areaRatio)
	assert.Same(t, catalog, NewService(catalog, 0, nil).Catalog())
}
