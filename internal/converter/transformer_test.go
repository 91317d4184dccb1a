package converter

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ginjaninja78/ratefilter/internal/types"
)

func TestParseAndScore_Outcomes(t *testing.T) {
	tests := []struct {
		name    string
		line    string
		kind    OutcomeKind
		avgRate float64
	}{
		{
			name:    "accepted below threshold",
			line:    `{"name":"A","billing_code":"100","negotiated_rates":[{"negotiated_prices":[{"negotiated_rate":10},{"negotiated_rate":20}]}]}`,
			kind:    OutcomeAccepted,
			avgRate: 15,
		},
		{
			name:    "accepted at threshold",
			line:    `{"name":"E","billing_code":"1","negotiated_rates":[{"negotiated_prices":[{"negotiated_rate":30}]}]}`,
			kind:    OutcomeAccepted,
			avgRate: 30,
		},
		{
			name:    "rejected above threshold",
			line:    `{"name":"B","billing_code":"200","negotiated_rates":[{"negotiated_prices":[{"negotiated_rate":50}]}]}`,
			kind:    OutcomeRejected,
			avgRate: 50,
		},
		{
			name:    "rejected just above threshold",
			line:    `{"name":"B","billing_code":"200","negotiated_rates":[{"negotiated_prices":[{"negotiated_rate":30.000000001}]}]}`,
			kind:    OutcomeRejected,
			avgRate: 30.000000001,
		},
		{
			name:    "extra fields ignored",
			line:    `{"name":"A","billing_code":"1","billing_code_type":"CPT","negotiated_rates":[{"provider_references":[1],"negotiated_prices":[{"negotiated_rate":5,"negotiated_type":"fee schedule"}]}]}`,
			kind:    OutcomeAccepted,
			avgRate: 5,
		},
		{
			name: "no rate groups",
			line: `{"name":"A","billing_code":"1","negotiated_rates":[]}`,
			kind: OutcomeNoRate,
		},
		{
			name: "only empty price lists",
			line: `{"name":"A","billing_code":"1","negotiated_rates":[{"negotiated_prices":[]},{"negotiated_prices":[]}]}`,
			kind: OutcomeNoRate,
		},
	}

	tr := NewTransformer()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tr.ParseAndScore(tt.line)
			require.Equal(t, tt.kind, got.Kind)
			require.NoError(t, got.Err)
			if tt.kind == OutcomeAccepted || tt.kind == OutcomeRejected {
				require.Equal(t, tt.avgRate, got.Record.AvgRate)
			}
		})
	}
}

func TestParseAndScore_ParseErrors(t *testing.T) {
	lines := map[string]string{
		"blank line":               ``,
		"whitespace":               `   `,
		"not json":                 `not valid json`,
		"json null":                `null`,
		"json array":               `[]`,
		"json number":              `42`,
		"truncated object":         `{"name":"A","billing_code":"1"`,
		"trailing garbage":         `{"name":"A","billing_code":"1","negotiated_rates":[]} x`,
		"missing name":             `{"billing_code":"1","negotiated_rates":[]}`,
		"missing billing_code":     `{"name":"A","negotiated_rates":[]}`,
		"missing rates":            `{"name":"A","billing_code":"1"}`,
		"null rates":               `{"name":"A","billing_code":"1","negotiated_rates":null}`,
		"missing price list":       `{"name":"A","billing_code":"1","negotiated_rates":[{}]}`,
		"missing rate value":       `{"name":"A","billing_code":"1","negotiated_rates":[{"negotiated_prices":[{}]}]}`,
		"null rate value":          `{"name":"A","billing_code":"1","negotiated_rates":[{"negotiated_prices":[{"negotiated_rate":null}]}]}`,
		"rate as string":           `{"name":"A","billing_code":"1","negotiated_rates":[{"negotiated_prices":[{"negotiated_rate":"10"}]}]}`,
		"name as number":           `{"name":5,"billing_code":"1","negotiated_rates":[]}`,
		"billing_code as number":   `{"name":"A","billing_code":100,"negotiated_rates":[]}`,
		"rates as object":          `{"name":"A","billing_code":"1","negotiated_rates":{}}`,
		"upper-case keys":          `{"NAME":"A","Billing_Code":"100","NEGOTIATED_RATES":[{"Negotiated_Prices":[{"NEGOTIATED_RATE":10}]}]}`,
		"upper-case name only":     `{"NAME":"A","billing_code":"1","negotiated_rates":[]}`,
		"mixed-case price key":     `{"name":"A","billing_code":"1","negotiated_rates":[{"negotiated_prices":[{"Negotiated_Rate":10}]}]}`,
		"lone leading surrogate":   `{"name":"\ud800","billing_code":"1","negotiated_rates":[]}`,
		"lone trailing surrogate":  `{"name":"A","billing_code":"\udc00x","negotiated_rates":[]}`,
		"reversed surrogate pair":  `{"name":"\udc00\ud800","billing_code":"1","negotiated_rates":[]}`,
		"surrogate in extra field": `{"name":"A","billing_code":"1","note":"\ud83d","negotiated_rates":[]}`,
	}

	tr := NewTransformer()
	for name, line := range lines {
		t.Run(name, func(t *testing.T) {
			got := tr.ParseAndScore(line)
			require.Equal(t, OutcomeParseError, got.Kind)
			require.Error(t, got.Err)
		})
	}
}

func TestParseAndScore_CarriesFields(t *testing.T) {
	got := NewTransformer().ParseAndScore(
		`{"name":"Office visit, \"new\"","billing_code":"99203","negotiated_rates":[{"negotiated_prices":[{"negotiated_rate":1.5}]}]}`)

	require.Equal(t, OutcomeAccepted, got.Kind)
	require.Equal(t, types.OutputRecord{Name: `Office visit, "new"`, BillingCode: "99203", AvgRate: 1.5}, got.Record)
}

func TestParseAndScore_KeysMatchExactly(t *testing.T) {
	got := NewTransformer().ParseAndScore(
		`{"NAME":"A","Billing_Code":"100","NEGOTIATED_RATES":[{"Negotiated_Prices":[{"NEGOTIATED_RATE":10}]}]}`)

	require.Equal(t, OutcomeParseError, got.Kind)
	require.ErrorContains(t, got.Err, "missing field `name`")
	require.ErrorContains(t, got.Err, "missing field `negotiated_rates`")

	// A case variant next to the exact key is just an unknown key.
	got = NewTransformer().ParseAndScore(
		`{"name":"A","NAME":"B","billing_code":"1","negotiated_rates":[{"negotiated_prices":[{"negotiated_rate":3}]}]}`)
	require.Equal(t, OutcomeAccepted, got.Kind)
	require.Equal(t, "A", got.Record.Name)
}

func TestParseAndScore_SurrogateEscapes(t *testing.T) {
	tr := NewTransformer()

	got := tr.ParseAndScore(`{"name":"\ud83d\ude00 \u00e9\\ud800","billing_code":"1","negotiated_rates":[{"negotiated_prices":[{"negotiated_rate":1}]}]}`)
	require.Equal(t, OutcomeAccepted, got.Kind)
	require.Equal(t, "\U0001F600 \u00e9\\ud800", got.Record.Name)

	got = tr.ParseAndScore(`{"name":"\ud800","billing_code":"1","negotiated_rates":[{"negotiated_prices":[{"negotiated_rate":1}]}]}`)
	require.Equal(t, OutcomeParseError, got.Kind)
	require.ErrorContains(t, got.Err, "lone leading surrogate")
}

func floatPtr(f float64) *float64 { return &f }

func record(groups ...[]float64) *types.InputRecord {
	rec := &types.InputRecord{}
	for _, g := range groups {
		group := types.NegotiatedRateGroup{NegotiatedPrices: []types.NegotiatedPrice{}}
		for _, r := range g {
			group.NegotiatedPrices = append(group.NegotiatedPrices, types.NegotiatedPrice{NegotiatedRate: floatPtr(r)})
		}
		rec.NegotiatedRates = append(rec.NegotiatedRates, group)
	}
	return rec
}

func TestAverageRate_GroupingIsImmaterial(t *testing.T) {
	layouts := []*types.InputRecord{
		record([]float64{1, 2, 3, 4, 10}),
		record([]float64{1, 2}, []float64{3, 4, 10}),
		record([]float64{1}, []float64{}, []float64{2, 3}, []float64{4}, []float64{10}),
		record([]float64{10, 4, 3, 2, 1}),
	}

	for i, rec := range layouts {
		avg, ok := AverageRate(rec)
		require.True(t, ok, "layout %d", i)
		assert.InDelta(t, 4.0, avg, 1e-12, "layout %d", i)
	}
}

func TestAverageRate_Unweighted(t *testing.T) {
	// Group means are 1 and 10; the record mean is over all four prices.
	avg, ok := AverageRate(record([]float64{1}, []float64{10, 10, 10}))
	require.True(t, ok)
	require.Equal(t, 7.75, avg)
}

func TestAverageRate_NoPrices(t *testing.T) {
	_, ok := AverageRate(record())
	require.False(t, ok)

	_, ok = AverageRate(record([]float64{}, []float64{}))
	require.False(t, ok)
}

func TestAverageRate_NonFinite(t *testing.T) {
	avg, ok := AverageRate(record([]float64{math.MaxFloat64, math.MaxFloat64}))
	require.True(t, ok)
	require.True(t, math.IsInf(avg, 1))

	avg, ok = AverageRate(record([]float64{math.Inf(1), math.Inf(-1)}))
	require.True(t, ok)
	require.True(t, math.IsNaN(avg))
	require.False(t, avg <= MaxAverageRate)
}

func TestOutcomeKind_String(t *testing.T) {
	require.Equal(t, "parse_error", OutcomeParseError.String())
	require.Equal(t, "no_rate", OutcomeNoRate.String())
	require.Equal(t, "accepted", OutcomeAccepted.String())
	require.Equal(t, "rejected", OutcomeRejected.String())
	require.Equal(t, "outcome(9)", OutcomeKind(9).String())
}
