package model

import (
	"encoding/json"
	"strconv"
)

// Unavailable is the canonical rendering of a metric whose denominator was
// zero or whose inputs were missing. It is distinct from zero and from any
// error condition.
const Unavailable = "unavailable"

// Metric is a numeric pipeline output that may be undefined. A zero-valued
// Metric is undefined, so ratios with a zero denominator never leak a numeric
// sentinel into reports.
type Metric struct {
	value   float64
	defined bool
}

// DefinedMetric returns a Metric carrying v.
func DefinedMetric(v float64) Metric {
	return Metric{value: v, defined: true}
}

// UndefinedMetric returns a Metric with no value.
func UndefinedMetric() Metric {
	return Metric{}
}

// Defined reports whether the metric carries a value.
func (m Metric) Defined() bool { return m.defined }

// Value returns the carried value and whether it is defined.
func (m Metric) Value() (float64, bool) { return m.value, m.defined }

// Float returns the carried value, or 0 if undefined. Callers that cannot
// tolerate the ambiguity must check Defined first.
func (m Metric) Float() float64 { return m.value }

// String renders the value, or "unavailable" when undefined.
func (m Metric) String() string {
	if !m.defined {
		return Unavailable
	}
	return strconv.FormatFloat(m.value, 'f', -1, 64)
}

// MarshalJSON encodes undefined metrics as null.
func (m Metric) MarshalJSON() ([]byte, error) {
	if !m.defined {
		return []byte("null"), nil
	}
	return json.Marshal(m.value)
}

// UnmarshalJSON decodes null as an undefined metric.
func (m *Metric) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*m = Metric{}
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*m = DefinedMetric(v)
	return nil
}
