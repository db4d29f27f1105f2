package stablecoin

import (
	"math"
	"math/big"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "2", want: "2"},
		{in: " 0.5 ", want: "0.5"},
		{in: "60.000001", want: "60.000001"},
		{in: "", wantErr: true},
		{in: "abc", wantErr: true},
		{in: "0", wantErr: true},
		{in: "-1", wantErr: true},
		{in: "NaN", wantErr: true},
		{in: "Inf", wantErr: true},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			got, err := ParseAmount(tc.in)
			if tc.wantErr {
				assert.ErrorIs(t, err, ErrInvalidAmount)
				return
			}
			require.NoError(t, err)
			assert.True(t, got.Equal(decimal.RequireFromString(tc.want)), "got %s", got)
		})
	}
}

func TestToBaseUnits(t *testing.T) {
	base, err := ToBaseUnits(decimal.RequireFromString("60"))
	require.NoError(t, err)
	assert.Equal(t, uint64(60_000_000), base)

	base, err = ToBaseUnits(decimal.RequireFromString("1.2345679"))
	require.NoError(t, err)
	assert.Equal(t, uint64(1_234_567), base, "digits below 6 places are truncated")

	_, err = ToBaseUnits(decimal.RequireFromString("0.0000001"))
	assert.ErrorIs(t, err, ErrInvalidAmount, "below one base unit")

	_, err = ToBaseUnits(decimal.Zero)
	assert.ErrorIs(t, err, ErrInvalidAmount)

	tooBig := decimal.NewFromBigInt(new(big.Int).SetUint64(math.MaxUint64), -Decimals).Add(decimal.NewFromInt(1))
	_, err = ToBaseUnits(tooBig)
	assert.ErrorIs(t, err, ErrInvalidAmount)
}

func TestBaseUnitsRoundTrip(t *testing.T) {
	for _, s := range []string{"1", "60", "0.000001", "123456.654321"} {
		d := decimal.RequireFromString(s)
		base, err := ToBaseUnits(d)
		require.NoError(t, err)
		assert.True(t, FromBaseUnits(base).Equal(d), "%s", s)
	}
}

func TestRateConversions(t *testing.T) {
	rate := decimal.NewFromInt(30)

	tokens := TokensForSOL(decimal.NewFromInt(2), rate)
	assert.Equal(t, "60.000000", tokens.StringFixed(Decimals))

	sol := SOLForTokens(decimal.NewFromInt(60), rate)
	assert.Equal(t, "2.000000", sol.StringFixed(Decimals))

	assert.True(t, SOLForTokens(decimal.NewFromInt(1), decimal.Zero).IsZero())
}

func TestLamportsToSOL(t *testing.T) {
	assert.Equal(t, "1.5", LamportsToSOL(1_500_000_000).String())
	assert.True(t, LamportsToSOL(0).IsZero())
}
