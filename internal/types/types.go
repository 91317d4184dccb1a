// =============================================================================
// Negotiated Rate Filter - Shared Types
// =============================================================================
//
// This package contains the record types shared across the pipeline modules
// to avoid import cycles. Types defined here are used by:
//   - converter   (parsing, scoring, statistics)
//   - validation  (shape checks on decoded input)
//   - csvwriter   (CSV serialization)
//   - xlsxwriter  (XLSX serialization)
//
// =============================================================================

package types

import (
	"fmt"
	"reflect"

	"github.com/goccy/go-json"
)

// =============================================================================
// INPUT RECORD TYPES
// =============================================================================

// InputRecord is one JSON Lines object describing a billing code and the
// rates negotiated for it.
//
// The fields are pointers so a missing key can be told apart from an empty
// value. The validation package rejects records where a required key is
// absent or null. Keys match exactly: "Name" does not fill Name.
type InputRecord struct {
	// Name is the human-readable name of the billed item.
	Name *string `json:"name" validate:"required"`

	// BillingCode is the code the item is billed under.
	BillingCode *string `json:"billing_code" validate:"required"`

	// NegotiatedRates holds the rate groups in input order.
	NegotiatedRates []NegotiatedRateGroup `json:"negotiated_rates" validate:"required,dive"`
}

// NegotiatedRateGroup is one entry of negotiated_rates.
type NegotiatedRateGroup struct {
	NegotiatedPrices []NegotiatedPrice `json:"negotiated_prices" validate:"required,dive"`
}

// NegotiatedPrice is one entry of negotiated_prices.
type NegotiatedPrice struct {
	NegotiatedRate *float64 `json:"negotiated_rate" validate:"required"`
}

// =============================================================================
// EXACT-KEY DECODING
// =============================================================================
// The JSON decoder folds key case when matching struct fields. The input
// types decode through these methods instead, so a key spelled in another
// case is an unknown key and leaves the field unset.

// UnmarshalJSON decodes an InputRecord by exact key.
func (r *InputRecord) UnmarshalJSON(data []byte) error {
	return decodeFields(data,
		field{"name", &r.Name},
		field{"billing_code", &r.BillingCode},
		field{"negotiated_rates", &r.NegotiatedRates},
	)
}

// UnmarshalJSON decodes a NegotiatedRateGroup by exact key.
func (g *NegotiatedRateGroup) UnmarshalJSON(data []byte) error {
	return decodeFields(data, field{"negotiated_prices", &g.NegotiatedPrices})
}

// UnmarshalJSON decodes a NegotiatedPrice by exact key.
func (p *NegotiatedPrice) UnmarshalJSON(data []byte) error {
	return decodeFields(data, field{"negotiated_rate", &p.NegotiatedRate})
}

type field struct {
	key string
	dst interface{}
}

// decodeFields decodes the JSON object in data and fills each field whose key
// is present. Absent keys leave their destination untouched.
func decodeFields(data []byte, fields ...field) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	for _, f := range fields {
		value, ok := raw[f.key]
		if !ok {
			continue
		}
		if err := json.Unmarshal(value, f.dst); err != nil {
			return fmt.Errorf("field `%s`: %w", f.key, err)
		}
	}
	return nil
}

// =============================================================================
// OUTPUT RECORD
// =============================================================================

// OutputRecord is a record that passed the filter. It exists only for the
// duration of a single sink write.
type OutputRecord struct {
	Name        string  `csv:"name"`
	BillingCode string  `csv:"billing_code"`
	AvgRate     float64 `csv:"avg_rate"`
}

// OutputHeader returns the column names of OutputRecord in field order,
// taken from the csv struct tags.
func OutputHeader() []string {
	t := reflect.TypeOf(OutputRecord{})
	header := make([]string, 0, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		name := t.Field(i).Tag.Get("csv")
		if name == "" {
			name = t.Field(i).Name
		}
		header = append(header, name)
	}
	return header
}

// =============================================================================
// PROCESSING STATISTICS
// =============================================================================

// ProcessingStats holds the counters for one pipeline run.
//
// Invariant: TotalLines == ErrorCount + SuccessfulRecords + lines that parsed
// but produced no row (no prices, or average above the threshold).
type ProcessingStats struct {
	// TotalLines is the number of physical input lines seen, blank lines included.
	TotalLines int

	// ErrorCount is the number of lines that failed to parse.
	ErrorCount int

	// SuccessfulRecords is the number of rows written to the output.
	SuccessfulRecords int
}

// Skipped returns the number of lines that parsed but were not emitted.
func (s ProcessingStats) Skipped() int {
	return s.TotalLines - s.ErrorCount - s.SuccessfulRecords
}
