// Package reports computes dashboard reports from parsed provider rows. The
// central problem is a join between two independently fetched datasets: the
// identity catalog (opaque storefront asset IDs → display names) and the
// downloads metrics table, which references assets only by ID.
package reports

import (
	"log/slog"
	"strconv"
	"strings"

	"github.com/tsumanga/analytics-dashboard/internal/distimo"
)

// UnknownApp is the bucket for metrics rows whose asset ID is absent from
// the identity catalog. Catalog and metrics are fetched independently, so a
// brand-new storefront listing can appear in metrics before the cached
// catalog has caught up; those downloads are counted here rather than lost.
const UnknownApp = "Unknown"

// Identities holds both directions of the catalog mapping, built in one
// pass. One display name can map to several asset IDs (the same app listed
// on multiple storefronts); each asset ID maps to exactly one name.
type Identities struct {
	NameToIDs map[string][]string
	IDToName  map[string]string
}

// NormalizeAppName cleans a raw catalog name: wrapping double quotes are
// stripped, and anything from the first parenthesis on is discarded along
// with trailing whitespace — storefronts append disambiguation like
// "(US Store)" that must not split one app into several report lines.
func NormalizeAppName(raw string) string {
	name := strings.Trim(raw, `"`)
	if i := strings.Index(name, "("); i >= 0 {
		name = strings.TrimRight(name[:i], " \t")
	}
	return name
}

// ResolveIdentities builds the identity mapping from catalog rows. The
// header row is skipped; for each data row field 0 is the asset ID and
// field 1 the raw display name. Rows with fewer than two fields are ignored.
// Within one catalog response an ID appears once, so last-write-wins for
// IDToName is acceptable.
func ResolveIdentities(rows []distimo.Row) Identities {
	ids := Identities{
		NameToIDs: make(map[string][]string),
		IDToName:  make(map[string]string),
	}
	if len(rows) < 2 {
		return ids
	}
	for _, row := range rows[1:] {
		if len(row) < 2 {
			continue
		}
		id := strings.Trim(row[0], `"`)
		name := NormalizeAppName(row[1])
		if id == "" || name == "" {
			continue
		}
		ids.NameToIDs[name] = append(ids.NameToIDs[name], id)
		ids.IDToName[id] = name
	}
	return ids
}

// Total is one line of the downloads report.
type Total struct {
	Name      string
	Downloads int
}

// metrics column headers looked up by name. The provider's column order has
// changed before, so positions are never hard-coded.
const (
	applicationColumn = "Application"
	valueColumn       = "Value"
)

// SumDownloads joins metrics rows against the identity mapping and sums the
// value column per resolved name. Column indices are located by header-name
// lookup in row 0; if either expected header is missing the header row is
// logged and an empty result returned — format drift is degraded, never
// fatal. Output order is insertion order of first occurrence.
func SumDownloads(rows []distimo.Row, idToName map[string]string) []Total {
	if len(rows) == 0 {
		return nil
	}

	appIdx, valIdx := -1, -1
	for i, col := range rows[0] {
		switch strings.Trim(strings.TrimSpace(col), `"`) {
		case applicationColumn:
			appIdx = i
		case valueColumn:
			valIdx = i
		}
	}
	if appIdx < 0 || valIdx < 0 {
		slog.Error("unexpected downloads header row, distimo API changed?", "header", []string(rows[0]))
		return nil
	}

	totals := make(map[string]int)
	var order []string
	for _, row := range rows[1:] {
		if len(row) <= appIdx || len(row) <= valIdx {
			continue
		}
		value, err := strconv.Atoi(strings.Trim(strings.TrimSpace(row[valIdx]), `"`))
		if err != nil {
			slog.Debug("skipping non-numeric value field", "field", row[valIdx])
			continue
		}
		id := strings.Trim(row[appIdx], `"`)
		name, ok := idToName[id]
		if !ok {
			name = UnknownApp
		}
		if _, seen := totals[name]; !seen {
			order = append(order, name)
		}
		totals[name] += value
	}

	result := make([]Total, len(order))
	for i, name := range order {
		result[i] = Total{Name: name, Downloads: totals[name]}
	}
	return result
}
