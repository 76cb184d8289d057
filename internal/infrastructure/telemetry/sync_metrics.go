package telemetry

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel/metric"
)

// ErrMeterNil is returned when a metrics set is built without a meter
var ErrMeterNil = errors.New("telemetry: meter cannot be nil")

// Outcome labels
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// SyncMetrics records catalog sync, ingestion and product refresh activity.
// A nil *SyncMetrics records nothing.
type SyncMetrics struct {
	catalogSyncTotal    *Counter
	catalogSyncProjects *Counter
	catalogSyncDuration *Histogram

	ingestTotal     *Counter
	ingestProducts  *Counter
	ingestLocations *Counter
	ingestDuration  *Histogram

	refreshTotal      *Counter
	productsConfirmed *Counter
}

// NewSyncMetrics creates the sync instruments on meter
func NewSyncMetrics(meter metric.Meter) (*SyncMetrics, error) {
	if meter == nil {
		return nil, ErrMeterNil
	}

	sm := &SyncMetrics{}
	counters := []struct {
		dst        **Counter
		name, desc string
		unit       string
	}{
		{&sm.catalogSyncTotal, "mmx_catalog_sync_total", "Catalog sync runs", "{runs}"},
		{&sm.catalogSyncProjects, "mmx_catalog_sync_projects_total", "Projects upserted by catalog sync", "{projects}"},
		{&sm.ingestTotal, "mmx_ingest_total", "Project ingestion runs", "{runs}"},
		{&sm.ingestProducts, "mmx_ingest_products_total", "Products inserted by ingestion", "{products}"},
		{&sm.ingestLocations, "mmx_ingest_locations_total", "Locations created by ingestion", "{locations}"},
		{&sm.refreshTotal, "mmx_product_refresh_total", "Product refreshes by status", "{refreshes}"},
		{&sm.productsConfirmed, "mmx_products_confirmed_total", "Products written by confirmed refreshes", "{products}"},
	}
	for _, c := range counters {
		counter, err := NewCounter(meter, c.name, c.desc, c.unit)
		if err != nil {
			return nil, err
		}
		*c.dst = counter
	}

	var err error
	sm.catalogSyncDuration, err = NewHistogram(meter, HistogramOpts{
		Name:        "mmx_catalog_sync_duration_seconds",
		Description: "Catalog sync duration",
		Unit:        "s",
		Boundaries:  SyncDurationBuckets,
	})
	if err != nil {
		return nil, err
	}
	sm.ingestDuration, err = NewHistogram(meter, HistogramOpts{
		Name:        "mmx_ingest_duration_seconds",
		Description: "Project ingestion duration",
		Unit:        "s",
		Boundaries:  SyncDurationBuckets,
	})
	if err != nil {
		return nil, err
	}
	return sm, nil
}

func outcomeOf(err error) string {
	if err != nil {
		return OutcomeFailure
	}
	return OutcomeSuccess
}

// RecordCatalogSync records one catalog sync run
func (sm *SyncMetrics) RecordCatalogSync(ctx context.Context, count int, d time.Duration, err error) {
	if sm == nil {
		return
	}
	outcome := AttrOutcome.String(outcomeOf(err))
	sm.catalogSyncTotal.Inc(ctx, outcome)
	sm.catalogSyncDuration.RecordDuration(ctx, d, outcome)
	if err == nil {
		sm.catalogSyncProjects.Add(ctx, int64(count))
	}
}

// RecordIngest records one ingestion run
func (sm *SyncMetrics) RecordIngest(ctx context.Context, products, locations int, d time.Duration, err error) {
	if sm == nil {
		return
	}
	outcome := AttrOutcome.String(outcomeOf(err))
	sm.ingestTotal.Inc(ctx, outcome)
	sm.ingestDuration.RecordDuration(ctx, d, outcome)
	if err == nil {
		sm.ingestProducts.Add(ctx, int64(products))
		sm.ingestLocations.Add(ctx, int64(locations))
	}
}

// RecordRefresh records one product refresh by its status
func (sm *SyncMetrics) RecordRefresh(ctx context.Context, status string) {
	if sm == nil {
		return
	}
	sm.refreshTotal.Inc(ctx, AttrRefreshStatus.String(status))
}

// RecordConfirm records products written by a confirmed refresh
func (sm *SyncMetrics) RecordConfirm(ctx context.Context, written int) {
	if sm == nil {
		return
	}
	sm.productsConfirmed.Add(ctx, int64(written))
}
