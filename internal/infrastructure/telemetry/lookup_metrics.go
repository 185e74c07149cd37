package telemetry

import (
	"context"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/metric"
)

// ErrMeterNil is returned when a metrics set is built without a meter.
var ErrMeterNil = &MetricsError{Op: "NewLookupMetrics", Err: "meter cannot be nil"}

// MetricsError represents a metrics-related error.
type MetricsError struct {
	Op  string
	Err string
}

func (e *MetricsError) Error() string {
	return e.Op + ": " + e.Err
}

// Result labels shared by the submission counters.
const (
	ResultOK       = "ok"
	ResultRejected = "rejected"
	ResultError    = "error"
)

// LookupMetrics records warehouse lookup activity: resolutions, scanned frames,
// receipt edits and stock moves. A nil *LookupMetrics records nothing.
type LookupMetrics struct {
	resolveTotal     metric.Int64Counter
	resolveDuration  metric.Float64Histogram
	scanDetections   metric.Int64Counter
	receiptUpdates   metric.Int64Counter
	stockMoves       metric.Int64Counter
	catalogClients   metric.Int64Gauge
	detailCacheTotal metric.Int64Counter
}

// NewLookupMetrics creates the lookup instruments on meter.
func NewLookupMetrics(meter metric.Meter) (*LookupMetrics, error) {
	if meter == nil {
		return nil, ErrMeterNil
	}

	set := &instrumentSet{meter: meter}
	lm := &LookupMetrics{
		resolveTotal: set.counter("wms_lookup_resolve_total",
			"Total identifier resolutions by outcome", "{resolutions}"),
		resolveDuration: set.histogram("wms_lookup_resolve_duration_seconds",
			"Time spent resolving an identifier against the catalog", "s", resolveBuckets),
		scanDetections: set.counter("wms_scan_detections_total",
			"Detected codes by type and whether they fell inside the scan area", "{codes}"),
		receiptUpdates: set.counter("wms_receipt_updates_total",
			"Receipt detail submissions by result", "{updates}"),
		stockMoves: set.counter("wms_stock_moves_total",
			"Stock move submissions by result", "{moves}"),
		catalogClients: set.gauge("wms_catalog_clients",
			"Clients in the loaded catalog", "{clients}"),
		detailCacheTotal: set.counter("wms_detail_cache_total",
			"Receipt detail cache lookups by result", "{lookups}"),
	}
	if set.err != nil {
		return nil, set.err
	}
	return lm, nil
}

// RecordResolve counts one resolution with its outcome and duration.
func (lm *LookupMetrics) RecordResolve(ctx context.Context, outcome string, d time.Duration) {
	if lm == nil {
		return
	}
	attrs := metric.WithAttributes(AttrOutcome.String(outcome))
	lm.resolveTotal.Add(ctx, 1, attrs)
	lm.resolveDuration.Record(ctx, d.Seconds(), attrs)
}

// RecordDetection counts one detected code.
func (lm *LookupMetrics) RecordDetection(ctx context.Context, codeType string, inArea bool) {
	if lm == nil {
		return
	}
	lm.scanDetections.Add(ctx, 1, metric.WithAttributes(
		AttrCodeType.String(codeType),
		AttrInArea.String(strconv.FormatBool(inArea)),
	))
}

// RecordReceiptUpdate counts one receipt detail submission.
func (lm *LookupMetrics) RecordReceiptUpdate(ctx context.Context, result string) {
	if lm == nil {
		return
	}
	lm.receiptUpdates.Add(ctx, 1, metric.WithAttributes(AttrResult.String(result)))
}

// RecordStockMove counts one stock move submission.
func (lm *LookupMetrics) RecordStockMove(ctx context.Context, result string) {
	if lm == nil {
		return
	}
	lm.stockMoves.Add(ctx, 1, metric.WithAttributes(AttrResult.String(result)))
}

// RecordCatalogSize reports the number of real clients and where they came from.
func (lm *LookupMetrics) RecordCatalogSize(ctx context.Context, clients int, source string) {
	if lm == nil {
		return
	}
	lm.catalogClients.Record(ctx, int64(clients), metric.WithAttributes(AttrSource.String(source)))
}

// RecordDetailCache counts one cache lookup, result being "hit", "miss" or "error".
func (lm *LookupMetrics) RecordDetailCache(ctx context.Context, result string) {
	if lm == nil {
		return
	}
	lm.detailCacheTotal.Add(ctx, 1, metric.WithAttributes(AttrResult.String(result)))
}
