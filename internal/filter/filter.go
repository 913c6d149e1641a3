// Package filter implements the property-filter predicate applied to element
// attribute data, its JSON export/import form, and its evaluation against a
// loaded model.
package filter

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Operator compares a property value against the filter value
type Operator string

const (
	OpContains  Operator = "contains"
	OpEquals    Operator = "equals"
	OpNotEquals Operator = "not_equals"
	OpGt        Operator = "gt"
	OpLt        Operator = "lt"
	OpGte       Operator = "gte"
	OpLte       Operator = "lte"
)

// Mode decides what happens to matching elements: "show" hides everything
// else, "colorize" recolors the matches and hides nothing.
type Mode string

const (
	ModeShow     Mode = "show"
	ModeColorize Mode = "colorize"
)

// Filter is one active attribute predicate
type Filter struct {
	Pset     string   `json:"pset"`
	Property string   `json:"property"`
	Operator Operator `json:"operator"`
	Value    string   `json:"value"`
	Mode     Mode     `json:"mode"`
}

// Default returns the filter state before any user input
func Default() Filter {
	return Filter{Operator: OpContains, Mode: ModeShow}
}

func validOperator(op Operator) bool {
	switch op {
	case OpContains, OpEquals, OpNotEquals, OpGt, OpLt, OpGte, OpLte:
		return true
	}
	return false
}

func validMode(m Mode) bool {
	return m == ModeShow || m == ModeColorize
}

// Export serializes the filter to its interchange JSON form
func (f Filter) Export() ([]byte, error) {
	return json.Marshal(f)
}

// Import parses the interchange JSON into a filter, starting from prior
// defaults. Each field is validated independently; missing or unknown fields
// keep their prior value. Malformed JSON fails with a parse error instead of
// silently defaulting.
func Import(data []byte, prior Filter) (Filter, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return prior, fmt.Errorf("invalid filter JSON: %w", err)
	}

	out := prior

	if msg, ok := raw["pset"]; ok {
		if err := json.Unmarshal(msg, &out.Pset); err != nil {
			return prior, fmt.Errorf("filter field %q must be a string", "pset")
		}
	}
	if msg, ok := raw["property"]; ok {
		if err := json.Unmarshal(msg, &out.Property); err != nil {
			return prior, fmt.Errorf("filter field %q must be a string", "property")
		}
	}
	if msg, ok := raw["operator"]; ok {
		var s string
		if err := json.Unmarshal(msg, &s); err != nil {
			return prior, fmt.Errorf("filter field %q must be a string", "operator")
		}
		if !validOperator(Operator(s)) {
			return prior, fmt.Errorf("unknown filter operator %q", s)
		}
		out.Operator = Operator(s)
	}
	if msg, ok := raw["value"]; ok {
		if err := json.Unmarshal(msg, &out.Value); err != nil {
			return prior, fmt.Errorf("filter field %q must be a string", "value")
		}
	}
	if msg, ok := raw["mode"]; ok {
		var s string
		if err := json.Unmarshal(msg, &s); err != nil {
			return prior, fmt.Errorf("filter field %q must be a string", "mode")
		}
		if !validMode(Mode(s)) {
			return prior, fmt.Errorf("unknown filter mode %q", s)
		}
		out.Mode = Mode(s)
	}

	return out, nil
}

// Matches applies the operator to one property value. Numeric operators
// require both sides to parse as numbers; otherwise they do not match.
func (f Filter) Matches(value string) bool {
	switch f.Operator {
	case OpContains:
		return strings.Contains(strings.ToLower(value), strings.ToLower(f.Value))
	case OpEquals:
		return value == f.Value
	case OpNotEquals:
		return value != f.Value
	case OpGt, OpLt, OpGte, OpLte:
		a, errA := strconv.ParseFloat(strings.TrimSpace(value), 64)
		b, errB := strconv.ParseFloat(strings.TrimSpace(f.Value), 64)
		if errA != nil || errB != nil {
			return false
		}
		switch f.Operator {
		case OpGt:
			return a > b
		case OpLt:
			return a < b
		case OpGte:
			return a >= b
		default:
			return a <= b
		}
	}
	return false
}

// MatchesProperties applies the predicate to one element's property sets.
// An empty pset matches the property in any pset.
func (f Filter) MatchesProperties(props map[string]map[string]string) bool {
	if f.Property == "" {
		return false
	}
	if f.Pset != "" {
		set, ok := props[f.Pset]
		if !ok {
			return false
		}
		value, ok := set[f.Property]
		return ok && f.Matches(value)
	}
	for _, set := range props {
		if value, ok := set[f.Property]; ok && f.Matches(value) {
			return true
		}
	}
	return false
}
