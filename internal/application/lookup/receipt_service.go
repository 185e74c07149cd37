package lookup

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/wmsexpress/backend/internal/domain/receipt"
	"github.com/wmsexpress/backend/internal/domain/shared"
	"github.com/wmsexpress/backend/internal/domain/warehouse"
	"github.com/wmsexpress/backend/internal/infrastructure/logger"
	"github.com/wmsexpress/backend/internal/infrastructure/telemetry"
)

const receiptServiceName = "ReceiptService"

// ReceiptService serves receipt details and validates edits and stock moves.
// Accepted edits and moves are acknowledged and logged but never stored.
type ReceiptService struct {
	catalog  *warehouse.Catalog
	provider receipt.DetailProvider
	metrics  *telemetry.LookupMetrics
}

// NewReceiptService creates a new ReceiptService
func NewReceiptService(catalog *warehouse.Catalog, provider receipt.DetailProvider, metrics *telemetry.LookupMetrics) *ReceiptService {
	return &ReceiptService{
		catalog:  catalog,
		provider: provider,
		metrics:  metrics,
	}
}

// GetDetail returns the detail record of a receipt
func (s *ReceiptService) GetDetail(ctx context.Context, receiptID string) (*receipt.Detail, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, receiptServiceName, "GetDetail")
	defer span.End()

	id, err := s.knownReceipt(receiptID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	telemetry.SetAttributes(span, telemetry.SpanAttrReceiptID, id)

	d, err := s.provider.Detail(ctx, id)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	return d, nil
}

// Update validates an edited detail and returns the normalized record
func (s *ReceiptService) Update(ctx context.Context, receiptID string, edit receipt.Detail) (*UpdateResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, receiptServiceName, "Update")
	defer span.End()

	id, err := s.knownReceipt(receiptID)
	if err != nil {
		s.metrics.RecordReceiptUpdate(ctx, resultFor(err))
		telemetry.RecordError(span, err)
		return nil, err
	}
	telemetry.SetAttributes(span, telemetry.SpanAttrReceiptID, id)

	d, err := receipt.ValidateEdit(id, edit)
	if err != nil {
		s.metrics.RecordReceiptUpdate(ctx, resultFor(err))
		telemetry.RecordError(span, err)
		return nil, err
	}

	s.metrics.RecordReceiptUpdate(ctx, telemetry.ResultOK)
	logger.L(ctx).Info("Receipt update accepted",
		zap.String("receipt_id", d.ReceiptID),
		zap.String("employee_id", d.EmployeeID),
		zap.String("carrier", d.Carrier.String()),
		zap.Bool("is_hazmat", d.IsHazmat),
	)
	return &UpdateResponse{Detail: *d, Persisted: false}, nil
}

// MoveStock validates a stock move request against the catalog
func (s *ReceiptService) MoveStock(ctx context.Context, req receipt.MoveRequest) (*MoveResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, receiptServiceName, "MoveStock")
	defer span.End()

	m, err := receipt.ValidateMove(s.catalog, req)
	if err != nil {
		s.metrics.RecordStockMove(ctx, resultFor(err))
		telemetry.RecordError(span, err)
		return nil, err
	}
	telemetry.SetAttributes(span,
		telemetry.SpanAttrClientID, m.ClientID,
		telemetry.SpanAttrPurchaseOrder, m.PurchaseOrder,
	)

	client, _ := s.catalog.Client(m.ClientID)
	s.metrics.RecordStockMove(ctx, telemetry.ResultOK)
	logger.L(logger.WithClientID(ctx, m.ClientID)).Info("Stock move accepted",
		zap.String("purchase_order", m.PurchaseOrder),
		zap.String("location", m.Location),
		zap.String("employee_id", m.EmployeeID),
	)

	return &MoveResponse{
		ClientID:      m.ClientID,
		ClientName:    client.Name,
		PurchaseOrder: m.PurchaseOrder,
		Location:      m.Location,
		EmployeeID:    m.EmployeeID,
		Persisted:     false,
	}, nil
}

// knownReceipt normalizes a receipt id and checks it exists in the catalog
func (s *ReceiptService) knownReceipt(receiptID string) (string, error) {
	id := warehouse.NormalizeQuery(receiptID)
	if _, ok := s.catalog.Receipt(id); !ok {
		return "", receipt.ErrReceiptNotFound(id)
	}
	return id, nil
}

// resultFor maps a submission error to a metric result label
func resultFor(err error) string {
	switch {
	case errors.Is(err, shared.ErrValidation),
		errors.Is(err, shared.ErrNotFound),
		errors.Is(err, shared.ErrBusinessRule):
		return telemetry.ResultRejected
	default:
		return telemetry.ResultError
	}
}
