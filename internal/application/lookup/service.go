package lookup

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/wmsexpress/backend/internal/domain/scan"
	"github.com/wmsexpress/backend/internal/domain/shared"
	"github.com/wmsexpress/backend/internal/domain/warehouse"
	"github.com/wmsexpress/backend/internal/infrastructure/logger"
	"github.com/wmsexpress/backend/internal/infrastructure/telemetry"
)

const serviceName = "LookupService"

// Service answers client, receipt and search queries against the catalog
type Service struct {
	catalog   *warehouse.Catalog
	resolver  *warehouse.Resolver
	areaRatio float64
	metrics   *telemetry.LookupMetrics
}

// NewService creates a new Service. A zero areaRatio uses scan.DefaultAreaRatio.
func NewService(catalog *warehouse.Catalog, areaRatio float64, metrics *telemetry.LookupMetrics) *Service {
	if areaRatio == 0 {
		areaRatio = scan.DefaultAreaRatio
	}
	return &Service{
		catalog:   catalog,
		resolver:  warehouse.NewResolver(catalog),
		areaRatio: areaRatio,
		metrics:   metrics,
	}
}

// Catalog returns the catalog the service reads from
func (s *Service) Catalog() *warehouse.Catalog {
	return s.catalog
}

// ListClients returns the client picker entries, "All Clients" first
func (s *Service) ListClients(ctx context.Context) []ClientResponse {
	clients := s.catalog.ListClients()
	out := make([]ClientResponse, 0, len(clients))
	for _, c := range clients {
		out = append(out, ClientResponse{
			ID:           c.ID,
			Name:         c.Name,
			IsAllClients: c.IsAllClients(),
			ReceiptCount: len(s.catalog.ReceiptsFor(c.ID)),
			LastReceipt:  s.catalog.LastReceipt(c.ID),
		})
	}
	return out
}

// ListReceipts returns the receipts of a client with the highlighted one flagged
func (s *Service) ListReceipts(ctx context.Context, clientID int, highlight string) (*ReceiptListResponse, error) {
	client, err := s.client(clientID)
	if err != nil {
		return nil, err
	}

	title := "All Warehouse Receipts"
	if !client.IsAllClients() {
		title = client.Name + "'s Receipts"
	}

	sel := warehouse.Selection{ClientID: clientID, Highlighted: warehouse.NormalizeQuery(highlight)}
	return &ReceiptListResponse{
		ClientID:   client.ID,
		ClientName: client.Name,
		Title:      title,
		Receipts:   s.receiptItems(clientID, sel, ""),
	}, nil
}

// Dashboard returns the home screen card. "All Clients" lists each client's latest
// receipt; a single client lists all of its receipts with the latest one flagged.
func (s *Service) Dashboard(ctx context.Context, clientID int) (*DashboardResponse, error) {
	client, err := s.client(clientID)
	if err != nil {
		return nil, err
	}

	if client.IsAllClients() {
		clients := s.catalog.ListClients()[1:]
		latest := make([]DashboardEntry, 0, len(clients))
		for _, c := range clients {
			latest = append(latest, DashboardEntry{
				ClientID:    c.ID,
				ClientName:  c.Name,
				LastReceipt: c.LastReceipt(),
			})
		}
		return &DashboardResponse{
			ClientID: client.ID,
			Title:    "Latest Warehouse Receipts",
			Latest:   latest,
		}, nil
	}

	return &DashboardResponse{
		ClientID: client.ID,
		Title:    client.Name + "'s Warehouse Receipts",
		Receipts: s.receiptItems(clientID, warehouse.Selection{ClientID: clientID}, client.LastReceipt()),
	}, nil
}

// Resolve resolves a typed query and applies the outcome to the caller's selection
func (s *Service) Resolve(ctx context.Context, req ResolveRequest) (*ResolveResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, serviceName, "Resolve")
	defer span.End()

	sel, err := s.selection(req.Selection)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	outcome := s.resolve(ctx, req.Query)
	telemetry.SetAttributes(span,
		telemetry.SpanAttrQuery, outcome.Query,
		telemetry.SpanAttrOutcome, outcome.Kind.String(),
	)

	next := sel.Apply(outcome)
	logger.L(logger.WithClientID(ctx, next.ClientID)).Debug("Query resolved",
		zap.String("query", outcome.Query),
		zap.String("outcome", outcome.Kind.String()),
		zap.String("identifier", outcome.Identifier),
	)

	return &ResolveResponse{
		Outcome:   ToOutcomeResponse(outcome),
		Selection: ToSelectionDTO(next),
	}, nil
}

// SearchForMove resolves a query for the stock move form and lists the
// purchase orders of the matched client.
func (s *Service) SearchForMove(ctx context.Context, query string) *MoveLookupResponse {
	ctx, span := telemetry.StartServiceSpan(ctx, serviceName, "SearchForMove")
	defer span.End()

	start := time.Now()
	o := s.resolver.ResolveForMove(query)
	s.metrics.RecordResolve(ctx, o.Kind.String(), time.Since(start))
	telemetry.SetAttributes(span,
		telemetry.SpanAttrQuery, o.Query,
		telemetry.SpanAttrOutcome, o.Kind.String(),
	)

	resp := &MoveLookupResponse{Kind: o.Kind.String(), Query: o.Query}
	if o.Kind == warehouse.OutcomeFound {
		resp.Client = &ClientRef{ID: o.Client.ID, Name: o.Client.Name}
		resp.Receipt = o.Receipt
		resp.PurchaseOrder = o.PurchaseOrder
		resp.PurchaseOrders = s.catalog.PurchaseOrdersFor(o.Client.ID)
	}
	return resp
}

// ScanFrame filters a frame's detections to the scan area and resolves each
// accepted payload. The first FOUND outcome of the frame drives the selection.
func (s *Service) ScanFrame(ctx context.Context, req ScanRequest) (*ScanResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, serviceName, "ScanFrame")
	defer span.End()

	sel, err := s.selection(req.Selection)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	for _, d := range req.Detections {
		if !d.Type.IsValid() {
			err := shared.NewDomainError(shared.ErrInvalidInput.Code,
				fmt.Sprintf("unsupported code type %q", d.Type))
			telemetry.RecordError(span, err)
			return nil, err
		}
	}

	area, err := scan.NewArea(req.Viewport, s.areaRatio)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	inside := area.Filter(req.Detections)
	for _, d := range req.Detections {
		s.metrics.RecordDetection(ctx, d.Type.String(), area.Contains(d))
	}
	telemetry.SetAttributes(span,
		telemetry.SpanAttrDetections, len(req.Detections),
		telemetry.SpanAttrInArea, len(inside),
	)

	results := make([]ScanResult, 0, len(inside))
	next := warehouse.Selection{ClientID: sel.ClientID}
	driven := false
	for _, d := range inside {
		outcome := s.resolve(ctx, d.Value)
		results = append(results, ScanResult{Detection: d, Outcome: ToOutcomeResponse(outcome)})
		if !driven && outcome.IsFound() {
			next = sel.Apply(outcome)
			driven = true
			telemetry.AddEvent(span, "selection_driven",
				telemetry.SpanAttrIdentifier, next.Highlighted,
				telemetry.SpanAttrClientID, next.ClientID,
			)
		}
	}

	if driven {
		logger.L(ctx).Info("Scan matched receipt",
			zap.Int("client_id", next.ClientID),
			zap.String("identifier", next.Highlighted),
		)
	}

	return &ScanResponse{
		Area: AreaResponse{
			Left:   area.Left,
			Top:    area.Top,
			Right:  area.Right,
			Bottom: area.Bottom,
		},
		Accepted:  len(inside),
		Rejected:  len(req.Detections) - len(inside),
		Results:   results,
		Selection: ToSelectionDTO(next),
	}, nil
}

func (s *Service) resolve(ctx context.Context, query string) warehouse.Outcome {
	start := time.Now()
	outcome := s.resolver.Resolve(query)
	s.metrics.RecordResolve(ctx, outcome.Kind.String(), time.Since(start))
	return outcome
}

func (s *Service) client(clientID int) (warehouse.Client, error) {
	client, ok := s.catalog.Client(clientID)
	if !ok {
		return warehouse.Client{}, shared.NewDomainError(shared.ErrNotFound.Code,
			fmt.Sprintf("client %d not found", clientID))
	}
	return client, nil
}

func (s *Service) selection(dto SelectionDTO) (warehouse.Selection, error) {
	if _, err := s.client(dto.ClientID); err != nil {
		return warehouse.Selection{}, err
	}
	return dto.ToSelection(), nil
}

func (s *Service) receiptItems(clientID int, sel warehouse.Selection, latest string) []ReceiptItem {
	ids := s.catalog.ReceiptsFor(clientID)
	items := make([]ReceiptItem, 0, len(ids))
	for _, id := range ids {
		item := ReceiptItem{
			ID:          id,
			Highlighted: sel.IsHighlighted(id),
			Latest:      latest != "" && id == latest,
		}
		if r, ok := s.catalog.Receipt(id); ok {
			item.PurchaseOrder = r.PurchaseOrder
		}
		items = append(items, item)
	}
	return items
}
