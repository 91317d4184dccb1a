package validation

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ginjaninja78/ratefilter/internal/types"
)

func strPtr(s string) *string     { return &s }
func floatPtr(f float64) *float64 { return &f }

func TestValidate_CompleteRecord(t *testing.T) {
	rec := &types.InputRecord{
		Name:        strPtr(""),
		BillingCode: strPtr("99213"),
		NegotiatedRates: []types.NegotiatedRateGroup{
			{NegotiatedPrices: []types.NegotiatedPrice{{NegotiatedRate: floatPtr(0)}}},
		},
	}

	require.NoError(t, New().Validate(rec))
}

func TestValidate_EmptySlicesArePresent(t *testing.T) {
	rec := &types.InputRecord{
		Name:            strPtr("A"),
		BillingCode:     strPtr("1"),
		NegotiatedRates: []types.NegotiatedRateGroup{{NegotiatedPrices: []types.NegotiatedPrice{}}},
	}
	require.NoError(t, New().Validate(rec))

	rec.NegotiatedRates = []types.NegotiatedRateGroup{}
	require.NoError(t, New().Validate(rec))
}

func TestValidate_MissingTopLevelFields(t *testing.T) {
	err := New().Validate(&types.InputRecord{})

	var shape *ShapeError
	require.True(t, errors.As(err, &shape))
	require.Len(t, shape.Fields, 3)
	require.Equal(t, "name", shape.Fields[0].Field)
	require.Equal(t, "billing_code", shape.Fields[1].Field)
	require.Equal(t, "negotiated_rates", shape.Fields[2].Field)
	require.Contains(t, err.Error(), "missing field `name`")
}

func TestValidate_MissingNestedRate(t *testing.T) {
	rec := &types.InputRecord{
		Name:        strPtr("A"),
		BillingCode: strPtr("1"),
		NegotiatedRates: []types.NegotiatedRateGroup{
			{NegotiatedPrices: []types.NegotiatedPrice{{NegotiatedRate: floatPtr(1)}, {}}},
		},
	}

	err := New().Validate(rec)

	var shape *ShapeError
	require.True(t, errors.As(err, &shape))
	require.Len(t, shape.Fields, 1)
	require.Equal(t, "negotiated_rates[0].negotiated_prices[1].negotiated_rate", shape.Fields[0].Field)
	require.Equal(t, "required", shape.Fields[0].Rule)
}

func TestValidate_NullPriceList(t *testing.T) {
	rec := &types.InputRecord{
		Name:            strPtr("A"),
		BillingCode:     strPtr("1"),
		NegotiatedRates: []types.NegotiatedRateGroup{{}},
	}

	err := New().Validate(rec)
	require.Error(t, err)
	require.Contains(t, err.Error(), "negotiated_rates[0].negotiated_prices")
}
