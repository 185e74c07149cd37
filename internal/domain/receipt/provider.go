package receipt

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/wmsexpress/backend/internal/domain/shared"
	"github.com/wmsexpress/backend/internal/domain/warehouse"
)

// DetailProvider fetches the detail record of a receipt
type DetailProvider interface {
	Detail(ctx context.Context, receiptID string) (*Detail, error)
}

// DetailProviderFunc adapts a function to DetailProvider
type DetailProviderFunc func(ctx context.Context, receiptID string) (*Detail, error)

// Detail calls f(ctx, receiptID)
func (f DetailProviderFunc) Detail(ctx context.Context, receiptID string) (*Detail, error) {
	return f(ctx, receiptID)
}

// ErrReceiptNotFound is returned for receipts missing from the catalog
func ErrReceiptNotFound(receiptID string) error {
	return shared.NewDomainError(shared.ErrNotFound.Code, fmt.Sprintf("receipt %s not found", receiptID))
}

// StaticDetailProvider serves the same sample record for every receipt in the catalog.
// The record's purchase order is replaced by the receipt's linked one when it has one.
type StaticDetailProvider struct {
	catalog  *warehouse.Catalog
	template Detail
}

// NewStaticDetailProvider creates a provider backed by SampleDetail
func NewStaticDetailProvider(catalog *warehouse.Catalog) *StaticDetailProvider {
	return &StaticDetailProvider{catalog: catalog, template: SampleDetail()}
}

// Detail implements DetailProvider
func (p *StaticDetailProvider) Detail(ctx context.Context, receiptID string) (*Detail, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r, ok := p.catalog.Receipt(receiptID)
	if !ok {
		return nil, ErrReceiptNotFound(receiptID)
	}
	d := p.template
	d.ReceiptID = r.ID
	if r.HasPurchaseOrder() {
		d.PurchaseOrder = r.PurchaseOrder
	}
	return &d, nil
}

// SampleDetail returns the fixed sample receipt record
func SampleDetail() Detail {
	return Detail{
		PurchaseOrder:  "PO-12345",
		Carrier:        CarrierGround,
		TrackingNumber: "TRK123456789",
		Quantity:       5,
		PackageType:    "Box",
		Length:         decimal.NewFromInt(10),
		Width:          decimal.NewFromInt(8),
		Height:         decimal.NewFromInt(6),
		Weight:         decimal.NewFromInt(15),
		Location:       "A1-B2-C3",
		IsHazmat:       true,
		HazmatNumber:   "HZ-789",
		AdditionalInfo: "Handle with care",
		EmployeeID:     "EMP001",
	}
}
