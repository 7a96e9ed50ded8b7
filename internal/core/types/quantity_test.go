package types

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuantity_String(t *testing.T) {
	cases := []struct {
		in   Quantity
		want string
	}{
		{0, "0.0000"},
		{10_000, "1.0000"},
		{12_500, "1.2500"},
		{-12_500, "-1.2500"},
		{1, "0.0001"},
		{-1, "-0.0001"},
		{1_234_567, "123.4567"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, tc.in.String())
	}
}

func TestParseQuantity(t *testing.T) {
	cases := []struct {
		in   string
		want Quantity
	}{
		{"0", 0},
		{"1", 10_000},
		{"1.25", 12_500},
		{"-1.25", -12_500},
		{"+2.5", 25_000},
		{".5", 5_000},
		{"0.00005", 0}, // fifth digit truncated
		{"123.4567", 1_234_567},
	}
	for _, tc := range cases {
		got, err := ParseQuantity(tc.in)
		require.NoError(t, err, "input %q", tc.in)
		assert.Equal(t, tc.want, got, "input %q", tc.in)
	}

	_, err := ParseQuantity("")
	assert.Error(t, err)
	_, err = ParseQuantity("abc")
	assert.Error(t, err)
}

func TestQuantity_JSONRoundTrip(t *testing.T) {
	type payload struct {
		Qty Quantity `json:"qty"`
	}

	data, err := json.Marshal(payload{Qty: 12_500})
	require.NoError(t, err)
	assert.Equal(t, `{"qty":1.2500}`, string(data))

	var out payload
	require.NoError(t, json.Unmarshal([]byte(`{"qty":1.25}`), &out))
	assert.Equal(t, Quantity(12_500), out.Qty)

	// Quoted numbers are accepted too.
	require.NoError(t, json.Unmarshal([]byte(`{"qty":"-3.5"}`), &out))
	assert.Equal(t, Quantity(-35_000), out.Qty)

	require.NoError(t, json.Unmarshal([]byte(`{"qty":null}`), &out))
	assert.Equal(t, Quantity(0), out.Qty)
}

func TestQuantity_DecimalConversion(t *testing.T) {
	d := decimal.RequireFromString("2.5")
	q := NewQuantityFromDecimal(d)
	assert.Equal(t, Quantity(25_000), q)
	assert.True(t, q.Decimal().Equal(d))

	// Rounded at the fourth fractional digit.
	q = NewQuantityFromDecimal(decimal.RequireFromString("0.00006"))
	assert.Equal(t, Quantity(1), q)
}

func TestQuantity_Arithmetic(t *testing.T) {
	a := NewQuantityFromFloat64(1.5)
	b := NewQuantityFromFloat64(0.5)

	assert.Equal(t, NewQuantityFromFloat64(2), a.Add(b))
	assert.Equal(t, NewQuantityFromFloat64(1), a.Sub(b))
	assert.Equal(t, a, a.Neg().Abs())
	assert.True(t, a.IsPositive())
	assert.True(t, a.Neg().IsNegative())
	assert.True(t, a.Sub(a).IsZero())
}

func TestMinorUnits(t *testing.T) {
	m := NewMinorUnitsFromMajor(12.34, 2)
	assert.Equal(t, MinorUnits(1234), m)
	assert.InDelta(t, 12.34, m.ToMajor(2), 1e-9)
	assert.True(t, m.IsPositive())
	assert.Equal(t, m, m.Neg().Abs())
}
