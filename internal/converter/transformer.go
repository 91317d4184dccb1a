// =============================================================================
// Negotiated Rate Filter - Record Transformer
// =============================================================================
//
// This module turns one input line into an Outcome:
//
//   line ──decode──► InputRecord ──validate──► average ──filter──► Outcome
//
// OUTCOMES:
//   ParseError  the line is not a JSON object of the InputRecord shape
//               (malformed JSON, blank line, wrong type, missing key)
//   NoRate      the record parsed but carries no negotiated prices at all
//   Accepted    average of all prices <= MaxAverageRate; carries the row
//   Rejected    average of all prices  > MaxAverageRate (or NaN)
//
// The transformer is pure: it does not count, log or write. The converter
// applies the side effects of each outcome.
//
// =============================================================================

package converter

import (
	"fmt"
	"strconv"

	"github.com/goccy/go-json"

	"github.com/ginjaninja78/ratefilter/internal/types"
	"github.com/ginjaninja78/ratefilter/internal/validation"
)

// MaxAverageRate is the inclusive upper bound on a record's average rate.
const MaxAverageRate = 30.0

// =============================================================================
// OUTCOME
// =============================================================================

// OutcomeKind tags an Outcome.
type OutcomeKind int

const (
	OutcomeParseError OutcomeKind = iota
	OutcomeNoRate
	OutcomeAccepted
	OutcomeRejected
)

// String returns the outcome name used in logs.
func (k OutcomeKind) String() string {
	switch k {
	case OutcomeParseError:
		return "parse_error"
	case OutcomeNoRate:
		return "no_rate"
	case OutcomeAccepted:
		return "accepted"
	case OutcomeRejected:
		return "rejected"
	default:
		return fmt.Sprintf("outcome(%d)", int(k))
	}
}

// Outcome is the result of scoring one line.
type Outcome struct {
	Kind OutcomeKind

	// Record is set for Accepted and Rejected. For Rejected it is only
	// informational and must not be written.
	Record types.OutputRecord

	// Err describes why the line failed to parse. Set only for ParseError.
	Err error
}

// =============================================================================
// TRANSFORMER
// =============================================================================

// Transformer parses and scores input lines.
type Transformer struct {
	validator *validation.Validator
}

// NewTransformer creates a Transformer.
func NewTransformer() *Transformer {
	return &Transformer{
		validator: validation.New(),
	}
}

// ParseAndScore decodes line, computes its average rate and applies the
// threshold.
func (t *Transformer) ParseAndScore(line string) Outcome {
	if err := checkSurrogates(line); err != nil {
		return Outcome{Kind: OutcomeParseError, Err: err}
	}

	var rec types.InputRecord
	if err := json.Unmarshal([]byte(line), &rec); err != nil {
		return Outcome{Kind: OutcomeParseError, Err: err}
	}
	if err := t.validator.Validate(&rec); err != nil {
		return Outcome{Kind: OutcomeParseError, Err: err}
	}

	avg, ok := AverageRate(&rec)
	if !ok {
		return Outcome{Kind: OutcomeNoRate}
	}

	out := types.OutputRecord{
		Name:        *rec.Name,
		BillingCode: *rec.BillingCode,
		AvgRate:     avg,
	}

	// NaN compares false and lands in Rejected.
	if avg <= MaxAverageRate {
		return Outcome{Kind: OutcomeAccepted, Record: out}
	}
	return Outcome{Kind: OutcomeRejected, Record: out}
}

// AverageRate returns the unweighted mean of every negotiated_rate across all
// rate groups. ok is false when the record has no prices.
func AverageRate(rec *types.InputRecord) (avg float64, ok bool) {
	var (
		total float64
		count int
	)

	for _, group := range rec.NegotiatedRates {
		for _, price := range group.NegotiatedPrices {
			if price.NegotiatedRate == nil {
				continue
			}
			total += *price.NegotiatedRate
			count++
		}
	}

	if count == 0 {
		return 0, false
	}
	return total / float64(count), true
}

// checkSurrogates rejects \u escapes that encode half of a UTF-16 surrogate
// pair without the other half. The decoder would otherwise substitute U+FFFD.
// A backslash only appears inside JSON strings, so the whole line is scanned.
func checkSurrogates(line string) error {
	for i := 0; i < len(line); i++ {
		if line[i] != '\\' || i+1 >= len(line) {
			continue
		}
		if line[i+1] != 'u' {
			i++
			continue
		}

		r, ok := hexEscape(line, i)
		if !ok {
			// Malformed escape; the decoder reports it.
			return nil
		}
		switch {
		case r >= 0xDC00 && r <= 0xDFFF:
			return fmt.Errorf("lone trailing surrogate in hex escape at column %d", i+1)
		case r >= 0xD800 && r <= 0xDBFF:
			lo, ok := hexEscape(line, i+6)
			if !ok || lo < 0xDC00 || lo > 0xDFFF {
				return fmt.Errorf("lone leading surrogate in hex escape at column %d", i+1)
			}
			i += 6
		}
		i += 5
	}
	return nil
}

// hexEscape decodes the \uXXXX escape starting at line[i].
func hexEscape(line string, i int) (uint64, bool) {
	if i+6 > len(line) || line[i] != '\\' || line[i+1] != 'u' {
		return 0, false
	}
	r, err := strconv.ParseUint(line[i+2:i+6], 16, 16)
	if err != nil {
		return 0, false
	}
	return r, true
}
