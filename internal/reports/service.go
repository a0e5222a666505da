// service.go orchestrates the named reports. Each report is an explicit
// operation with its own result shape — the app-identity report returns a
// name→IDs object while the downloads report returns a tabular array — so
// the web layer never switches on response shape.
package reports

import (
	"context"
	"strconv"
	"time"

	"github.com/tsumanga/analytics-dashboard/internal/distimo"
	"github.com/tsumanga/analytics-dashboard/internal/telemetry"
)

// provider endpoint paths.
const (
	assetCatalogPath = "filters/assets/reviews"
	downloadsPath    = "downloads"
)

// DefaultWindowDays is the downloads report window when the caller does not
// specify one.
const DefaultWindowDays = 30

// Fetcher is the slice of the provider client the report service needs.
// Satisfied by *distimo.Client; stubbed in tests.
type Fetcher interface {
	Fetch(ctx context.Context, path string, query map[string]string) ([]distimo.Row, error)
}

// DownloadsReport is the tabular downloads result: a header row followed by
// one [name, total] row per app, in insertion order of first occurrence.
type DownloadsReport struct {
	Array [][]string `json:"array"`
}

// Service computes dashboard reports.
type Service struct {
	client Fetcher

	// now is stubbed in tests to pin the report window.
	now func() time.Time
}

// NewService creates a report service on top of the provider client.
func NewService(client Fetcher) *Service {
	return &Service{client: client, now: time.Now}
}

// AppIDs returns the identity catalog as display name → asset IDs, so other
// reports and their consumers can label things meaningfully.
//
// The only possible error is distimo.ErrNotConfigured; a degraded upstream
// yields an empty (non-nil) map.
func (s *Service) AppIDs(ctx context.Context) (map[string][]string, error) {
	rows, err := s.client.Fetch(ctx, assetCatalogPath, nil)
	if err != nil {
		return nil, err
	}
	telemetry.ReportsComputedTotal.WithLabelValues("appids").Inc()
	return ResolveIdentities(rows).NameToIDs, nil
}

// Downloads computes per-app download totals over the trailing window of the
// given number of days (DefaultWindowDays when days <= 0).
//
// The catalog fetch completes and resolves before the metrics fetch is
// issued: the ID→name mapping must be fully built before the join. The two
// fetches are strictly sequential, never fanned out.
func (s *Service) Downloads(ctx context.Context, days int) (*DownloadsReport, error) {
	if days <= 0 {
		days = DefaultWindowDays
	}

	catalogRows, err := s.client.Fetch(ctx, assetCatalogPath, nil)
	if err != nil {
		return nil, err
	}
	ids := ResolveIdentities(catalogRows)

	to := s.now().UTC()
	from := to.AddDate(0, 0, -days)
	metricsRows, err := s.client.Fetch(ctx, downloadsPath, map[string]string{
		"breakdown": "asset",
		"from":      from.Format("2006-01-02"),
		"to":        to.Format("2006-01-02"),
	})
	if err != nil {
		return nil, err
	}

	report := &DownloadsReport{
		Array: [][]string{{"Application", "Downloads"}},
	}
	for _, total := range SumDownloads(metricsRows, ids.IDToName) {
		report.Array = append(report.Array, []string{total.Name, strconv.Itoa(total.Downloads)})
	}
	telemetry.ReportsComputedTotal.WithLabelValues("downloads").Inc()
	return report, nil
}
