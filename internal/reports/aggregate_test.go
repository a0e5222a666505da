package reports

import (
	"reflect"
	"testing"

	"github.com/tsumanga/analytics-dashboard/internal/distimo"
)

// ---------------------------------------------------------------------------
// NormalizeAppName
// ---------------------------------------------------------------------------

func TestNormalizeAppName(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{`"Foo Bar (US Store)"`, "Foo Bar"},
		{`"Foo Bar"`, "Foo Bar"},
		{"Plain Name", "Plain Name"},
		{"Name (First) (Second)", "Name"},
		{`"Trailing tabs	(x)"`, "Trailing tabs"},
		{"(all parens)", ""},
		{"", ""},
	}
	for _, tt := range tests {
		if got := NormalizeAppName(tt.raw); got != tt.want {
			t.Errorf("NormalizeAppName(%q) = %q, want %q", tt.raw, got, tt.want)
		}
	}
}

func TestNormalizeAppName_Idempotent(t *testing.T) {
	for _, raw := range []string{`"Foo Bar (US Store)"`, "Plain", `"Quoted"`} {
		once := NormalizeAppName(raw)
		if twice := NormalizeAppName(once); twice != once {
			t.Errorf("NormalizeAppName(%q): second pass changed %q to %q", raw, once, twice)
		}
	}
}

// ---------------------------------------------------------------------------
// ResolveIdentities
// ---------------------------------------------------------------------------

func TestResolveIdentities(t *testing.T) {
	rows := []distimo.Row{
		{"id", "name"},
		{"123", `"Foo Bar (US Store)"`},
		{"456", `"Foo Bar (UK Store)"`},
		{"789", `"Other App"`},
	}
	ids := ResolveIdentities(rows)

	wantNames := map[string][]string{
		"Foo Bar":   {"123", "456"},
		"Other App": {"789"},
	}
	if !reflect.DeepEqual(ids.NameToIDs, wantNames) {
		t.Errorf("NameToIDs = %v, want %v", ids.NameToIDs, wantNames)
	}
	if ids.IDToName["456"] != "Foo Bar" {
		t.Errorf("IDToName[456] = %q, want Foo Bar", ids.IDToName["456"])
	}
}

func TestResolveIdentities_SkipsShortAndBlankRows(t *testing.T) {
	rows := []distimo.Row{
		{"id", "name"},
		{"only-one-field"},
		{"", `"No ID"`},
		{"42", `""`},
		{"7", `"Kept"`},
	}
	ids := ResolveIdentities(rows)
	if len(ids.IDToName) != 1 || ids.IDToName["7"] != "Kept" {
		t.Errorf("IDToName = %v, want only 7 → Kept", ids.IDToName)
	}
}

func TestResolveIdentities_EmptyAndHeaderOnly(t *testing.T) {
	for _, rows := range [][]distimo.Row{nil, {{"id", "name"}}} {
		ids := ResolveIdentities(rows)
		if len(ids.NameToIDs) != 0 || len(ids.IDToName) != 0 {
			t.Errorf("ResolveIdentities(%v) = %v, want empty maps", rows, ids)
		}
		if ids.NameToIDs == nil || ids.IDToName == nil {
			t.Error("maps must be non-nil even when empty")
		}
	}
}

// ---------------------------------------------------------------------------
// SumDownloads
// ---------------------------------------------------------------------------

func TestSumDownloads_JoinsAndSums(t *testing.T) {
	idToName := map[string]string{"123": "App One", "456": "App One", "789": "App Two"}
	rows := []distimo.Row{
		{"Application", "Value"},
		{"123", "30"},
		{"456", "12"},
		{"789", "5"},
	}

	got := SumDownloads(rows, idToName)
	want := []Total{
		{Name: "App One", Downloads: 42},
		{Name: "App Two", Downloads: 5},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("SumDownloads = %v, want %v", got, want)
	}
}

func TestSumDownloads_UnknownIDsBucketed(t *testing.T) {
	rows := []distimo.Row{
		{"Application", "Value"},
		{"no-such-id", "5"},
		{"another-stranger", "3"},
	}
	got := SumDownloads(rows, map[string]string{"123": "App One"})
	want := []Total{{Name: UnknownApp, Downloads: 8}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("SumDownloads = %v, want %v", got, want)
	}
}

func TestSumDownloads_ColumnOrderIrrelevant(t *testing.T) {
	// Header-name lookup, not positional: extra and reordered columns are fine.
	rows := []distimo.Row{
		{"Date", "Value", "Application"},
		{"2024-01-01", "10", "123"},
		{"2024-01-02", "7", "123"},
	}
	got := SumDownloads(rows, map[string]string{"123": "App One"})
	want := []Total{{Name: "App One", Downloads: 17}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("SumDownloads = %v, want %v", got, want)
	}
}

func TestSumDownloads_MissingHeadersDegradeToEmpty(t *testing.T) {
	tests := []struct {
		name string
		rows []distimo.Row
	}{
		{"no application column", []distimo.Row{{"Something", "Value"}, {"123", "5"}}},
		{"no value column", []distimo.Row{{"Application", "Count"}, {"123", "5"}}},
		{"empty input", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SumDownloads(tt.rows, map[string]string{"123": "App"}); len(got) != 0 {
				t.Errorf("SumDownloads = %v, want empty on format drift", got)
			}
		})
	}
}

func TestSumDownloads_SkipsNonNumericAndShortRows(t *testing.T) {
	rows := []distimo.Row{
		{"Application", "Value"},
		{"123", "n/a"},
		{"123"},
		{"123", "9"},
	}
	got := SumDownloads(rows, map[string]string{"123": "App One"})
	want := []Total{{Name: "App One", Downloads: 9}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("SumDownloads = %v, want %v", got, want)
	}
}

func TestSumDownloads_QuotedFields(t *testing.T) {
	rows := []distimo.Row{
		{`"Application"`, `"Value"`},
		{`"123"`, `"11"`},
	}
	got := SumDownloads(rows, map[string]string{"123": "App One"})
	want := []Total{{Name: "App One", Downloads: 11}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("SumDownloads = %v, want %v", got, want)
	}
}
