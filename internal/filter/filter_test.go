package filter

import (
	"fmt"
	"testing"

	"github.com/philipparndt/gobim/internal/scene"
)

func TestExportImportRoundTrip(t *testing.T) {
	operators := []Operator{OpContains, OpEquals, OpNotEquals, OpGt, OpLt, OpGte, OpLte}
	modes := []Mode{ModeShow, ModeColorize}

	for _, op := range operators {
		for _, mode := range modes {
			f := Filter{
				Pset:     "Pset_WallCommon",
				Property: "FireRating",
				Operator: op,
				Value:    "F30",
				Mode:     mode,
			}
			data, err := f.Export()
			if err != nil {
				t.Fatalf("Export failed: %v", err)
			}
			got, err := Import(data, Default())
			if err != nil {
				t.Fatalf("Import failed for %s/%s: %v", op, mode, err)
			}
			if got != f {
				t.Errorf("round trip failed: expected %+v, got %+v", f, got)
			}
		}
	}
}

func TestImportPartialKeepsPriorDefaults(t *testing.T) {
	prior := Filter{
		Pset:     "Pset_Old",
		Property: "LoadBearing",
		Operator: OpEquals,
		Value:    "true",
		Mode:     ModeColorize,
	}

	got, err := Import([]byte(`{"value": "false"}`), prior)
	if err != nil {
		t.Fatalf("Import failed: %v", err)
	}
	if got.Value != "false" {
		t.Errorf("value not imported: %q", got.Value)
	}
	if got.Pset != prior.Pset || got.Operator != prior.Operator || got.Mode != prior.Mode {
		t.Errorf("prior fields not kept: %+v", got)
	}

	// Unknown fields are ignored
	got, err = Import([]byte(`{"unknown_field": 42}`), prior)
	if err != nil {
		t.Fatalf("Import with unknown field failed: %v", err)
	}
	if got != prior {
		t.Errorf("unknown field changed filter: %+v", got)
	}
}

func TestImportRejectsInvalidInput(t *testing.T) {
	cases := []struct {
		name string
		data string
	}{
		{"malformed JSON", `{pset: nope`},
		{"wrong field type", `{"pset": 12}`},
		{"unknown operator", `{"operator": "approximately"}`},
		{"unknown mode", `{"mode": "hide"}`},
		{"non-string operator", `{"operator": true}`},
	}

	for _, tc := range cases {
		if _, err := Import([]byte(tc.data), Default()); err == nil {
			t.Errorf("%s: expected error, got none", tc.name)
		}
	}
}

func TestMatchesOperators(t *testing.T) {
	cases := []struct {
		op       Operator
		filterV  string
		value    string
		expected bool
	}{
		{OpContains, "f30", "Rating F30 class", true},
		{OpContains, "f90", "Rating F30 class", false},
		{OpEquals, "F30", "F30", true},
		{OpEquals, "F30", "F60", false},
		{OpNotEquals, "F30", "F60", true},
		{OpGt, "2.5", "3.0", true},
		{OpGt, "2.5", "2.5", false},
		{OpGte, "2.5", "2.5", true},
		{OpLt, "2.5", "1.0", true},
		{OpLte, "2.5", "2.5", true},
		{OpGt, "2.5", "thick", false}, // non-numeric never matches numeric ops
	}

	for _, tc := range cases {
		f := Filter{Operator: tc.op, Value: tc.filterV}
		if got := f.Matches(tc.value); got != tc.expected {
			t.Errorf("%s(%q, %q): expected %v, got %v", tc.op, tc.value, tc.filterV, tc.expected, got)
		}
	}
}

func buildModel(n int, matching int) *scene.Model {
	m := &scene.Model{ID: "m"}
	for i := 1; i <= n; i++ {
		rating := "F90"
		if i <= matching {
			rating = "F30"
		}
		m.Elements = append(m.Elements, scene.Element{
			LocalID: uint32(i),
			Class:   "Walls",
			Properties: map[string]map[string]string{
				"Pset_WallCommon": {"FireRating": rating},
			},
		})
	}
	return m
}

func TestEvaluateShowMode(t *testing.T) {
	model := buildModel(10, 3)
	f := Filter{
		Pset:     "Pset_WallCommon",
		Property: "FireRating",
		Operator: OpEquals,
		Value:    "F30",
		Mode:     ModeShow,
	}

	res := Evaluate(model, f, 0, nil)

	if res.Matched.Count() != 3 {
		t.Errorf("expected 3 matches, got %d", res.Matched.Count())
	}
	// The 7 non-matching elements feed the visibility exclusion set
	if res.Excluded.Count() != 7 {
		t.Errorf("expected 7 excluded, got %d", res.Excluded.Count())
	}

	// Switching to colorize keeps the matches but excludes nothing
	f.Mode = ModeColorize
	res = Evaluate(model, f, 0, nil)
	if res.Matched.Count() != 3 {
		t.Errorf("colorize: expected 3 matches, got %d", res.Matched.Count())
	}
	if res.Excluded.Count() != 0 {
		t.Errorf("colorize: expected 0 excluded, got %d", res.Excluded.Count())
	}
}

func TestEvaluateYields(t *testing.T) {
	model := buildModel(50, 10)
	f := Filter{Property: "FireRating", Operator: OpContains, Value: "F", Mode: ModeShow}

	yields := 0
	Evaluate(model, f, 10, func() { yields++ })
	if yields == 0 {
		t.Error("evaluation never yielded")
	}
}

func TestMatchesAnyPset(t *testing.T) {
	props := map[string]map[string]string{
		"Pset_A": {"Height": "3.2"},
		"Pset_B": {"Width": "1.0"},
	}

	f := Filter{Property: "Width", Operator: OpEquals, Value: "1.0"}
	if !f.MatchesProperties(props) {
		t.Error("empty pset should match property in any pset")
	}

	f.Pset = "Pset_A"
	if f.MatchesProperties(props) {
		t.Error("pset-scoped lookup matched wrong pset")
	}
}

func ExampleFilter_Export() {
	f := Filter{
		Pset:     "Pset_WallCommon",
		Property: "FireRating",
		Operator: OpEquals,
		Value:    "F30",
		Mode:     ModeShow,
	}
	data, _ := f.Export()
	fmt.Println(string(data))
	// Output: {"pset":"Pset_WallCommon","property":"FireRating","operator":"equals","value":"F30","mode":"show"}
}
