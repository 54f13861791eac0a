package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMoney(t *testing.T) {
	cases := []struct {
		in   string
		want Cents
	}{
		{"$850,000", 85_000_000},
		{"$1,250,000", 125_000_000},
		{"2,100,000", 210_000_000},
		{"$ 99.9", 9_990},
		{"$0.05", 5},
		{"-$1,000", -100_000},
	}
	for _, tc := range cases {
		got, err := ParseMoney(tc.in)
		require.NoError(t, err, tc.in)
		assert.Equal(t, tc.want, got, tc.in)
	}
}

func TestParseMoneyRejectsGarbage(t *testing.T) {
	for _, in := range []string{"", "$", "abc", "$1.234", "1.2.3"} {
		_, err := ParseMoney(in)
		assert.Error(t, err, in)
	}
}

func TestParseMoneyRejectsOverflow(t *testing.T) {
	_, err := ParseMoney("$100000000000000000")
	assert.ErrorContains(t, err, "too large")

	_, err = ParseMoney("-$100,000,000,000,000,000")
	assert.Error(t, err)

	got, err := ParseMoney("$90,000,000,000,000,000")
	require.NoError(t, err)
	assert.Positive(t, int64(got))
}

func TestCentsString(t *testing.T) {
	assert.Equal(t, "$0", Cents(0).String())
	assert.Equal(t, "$4,200,000", Cents(420_000_000).String())
	assert.Equal(t, "$1", Cents(50).String())
	assert.Equal(t, "$0", Cents(49).String())
	assert.Equal(t, "-$1,000", Cents(-100_000).String())
}

func TestMoneySumIsExact(t *testing.T) {
	values := []string{"$850,000", "$1,250,000", "$2,100,000", "$0.10", "$0.20"}
	var total Cents
	for _, v := range values {
		c, err := ParseMoney(v)
		require.NoError(t, err)
		total += c
	}
	assert.Equal(t, Cents(420_000_030), total)
	assert.Equal(t, "$4,200,000", total.String())
}
