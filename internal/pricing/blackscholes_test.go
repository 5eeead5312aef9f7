package pricing

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func textbook() Inputs {
	return Inputs{Spot: 100, Strike: 100, TimeToMaturity: 1, RiskFreeRate: 0.05, Volatility: 0.2}
}

func TestPrice_TextbookReference(t *testing.T) {
	call, err := Price(textbook(), Call)
	require.NoError(t, err)
	put, err := Price(textbook(), Put)
	require.NoError(t, err)

	assert.InDelta(t, 10.45, call, 0.01)
	assert.InDelta(t, 5.57, put, 0.01)
	assert.InDelta(t, 10.450583572185565, call, 1e-9)
	assert.InDelta(t, 5.573526022256971, put, 1e-9)
}

func TestEvaluate_MatchesPrice(t *testing.T) {
	res, err := Evaluate(textbook())
	require.NoError(t, err)

	call, _ := Price(textbook(), Call)
	put, _ := Price(textbook(), Put)
	assert.InDelta(t, call, res.Call, 1e-12)
	assert.InDelta(t, put, res.Put, 1e-12)
	assert.InDelta(t, 0.35, res.D1, 1e-12)
	assert.InDelta(t, 0.15, res.D2, 1e-12)
}

func TestPutCallParity(t *testing.T) {
	cases := []Inputs{
		{Spot: 100, Strike: 100, TimeToMaturity: 1, RiskFreeRate: 0.05, Volatility: 0.2},
		{Spot: 100, Strike: 100, TimeToMaturity: 45.0 / 365.0, RiskFreeRate: 0.03, Volatility: 0.25},
		{Spot: 581.39, Strike: 580, TimeToMaturity: 16.0 / 365.0, RiskFreeRate: 0.045, Volatility: 0.14},
		{Spot: 42, Strike: 60, TimeToMaturity: 2.5, RiskFreeRate: -0.005, Volatility: 0.8},
		{Spot: 3000, Strike: 2500, TimeToMaturity: 0.01, RiskFreeRate: 0.1, Volatility: 1.5},
	}
	for _, in := range cases {
		res, err := Evaluate(in)
		require.NoError(t, err)

		lhs := res.Call - res.Put
		rhs := in.Spot - in.Strike*math.Exp(-in.RiskFreeRate*in.TimeToMaturity)
		assert.InDelta(t, rhs, lhs, 1e-6, "parity violated for %+v", in)
	}
}

func TestPrice_DeepInTheMoneyCall(t *testing.T) {
	in := Inputs{Spot: 1000, Strike: 10, TimeToMaturity: 1, RiskFreeRate: 0.05, Volatility: 0.2}
	call, err := Price(in, Call)
	require.NoError(t, err)
	assert.InDelta(t, in.Spot-in.Strike*math.Exp(-in.RiskFreeRate*in.TimeToMaturity), call, 1e-6)
}

func TestPrice_DeepOutOfTheMoneyCall(t *testing.T) {
	in := Inputs{Spot: 10, Strike: 1000, TimeToMaturity: 1, RiskFreeRate: 0.05, Volatility: 0.2}
	call, err := Price(in, Call)
	require.NoError(t, err)
	assert.InDelta(t, 0, call, 1e-10)
}

func TestPrice_NonDecreasingInVolatility(t *testing.T) {
	for _, typ := range []OptionType{Call, Put} {
		in := Inputs{Spot: 95, Strike: 100, TimeToMaturity: 0.75, RiskFreeRate: 0.04}
		prev := -1.0
		for vol := 0.01; vol <= 2.0; vol += 0.01 {
			in.Volatility = vol
			p, err := Price(in, typ)
			require.NoError(t, err)
			assert.GreaterOrEqual(t, p, prev, "%s price fell at vol=%.2f", typ, vol)
			prev = p
		}
	}
}

func TestPrice_IntrinsicLimitNearExpiry(t *testing.T) {
	in := Inputs{Spot: 110, Strike: 100, TimeToMaturity: 1e-10, RiskFreeRate: 0.05, Volatility: 0.2}
	call, err := Price(in, Call)
	require.NoError(t, err)
	assert.InDelta(t, 10, call, 1e-6)

	in.Spot = 90
	call, err = Price(in, Call)
	require.NoError(t, err)
	assert.InDelta(t, 0, call, 1e-9)
}

func TestPrice_RejectsInvalidInputs(t *testing.T) {
	cases := map[string]Inputs{
		"zero maturity":     {Spot: 100, Strike: 100, TimeToMaturity: 0, RiskFreeRate: 0.05, Volatility: 0.2},
		"negative maturity": {Spot: 100, Strike: 100, TimeToMaturity: -1, RiskFreeRate: 0.05, Volatility: 0.2},
		"zero volatility":   {Spot: 100, Strike: 100, TimeToMaturity: 1, RiskFreeRate: 0.05, Volatility: 0},
		"zero spot":         {Spot: 0, Strike: 100, TimeToMaturity: 1, RiskFreeRate: 0.05, Volatility: 0.2},
		"negative strike":   {Spot: 100, Strike: -5, TimeToMaturity: 1, RiskFreeRate: 0.05, Volatility: 0.2},
		"nan rate":          {Spot: 100, Strike: 100, TimeToMaturity: 1, RiskFreeRate: math.NaN(), Volatility: 0.2},
		"inf volatility":    {Spot: 100, Strike: 100, TimeToMaturity: 1, RiskFreeRate: 0.05, Volatility: math.Inf(1)},
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Price(in, Call)
			assert.ErrorIs(t, err, ErrInvalidInput)

			_, err = Evaluate(in)
			assert.ErrorIs(t, err, ErrInvalidInput)
		})
	}

	_, err := Price(textbook(), OptionType(7))
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestFormula_PropagatesNaN(t *testing.T) {
	assert.True(t, math.IsNaN(Formula(100, 100, 0, 0.05, 0.2, Call)))
	assert.True(t, math.IsNaN(Formula(100, 100, 1, 0.05, 0, Put)))
}

func TestFormula_AgreesWithPrice(t *testing.T) {
	in := textbook()
	put, err := Price(in, Put)
	require.NoError(t, err)
	assert.Equal(t, put, Formula(in.Spot, in.Strike, in.TimeToMaturity, in.RiskFreeRate, in.Volatility, Put))
}
