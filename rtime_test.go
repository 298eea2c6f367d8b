package r

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetTicksMonotonic(t *testing.T) {
	a := GetTicks()
	time.Sleep(5 * time.Millisecond)
	b := GetTicks()
	assert.GreaterOrEqual(t, b, a)
}

func TestGetElapsedTicks(t *testing.T) {
	mark := GetTicks()
	time.Sleep(5 * time.Millisecond)
	assert.Greater(t, GetElapsedTicks(mark), int64(0))
}

func TestGetRemainingTicksZeroTimeoutMeansInfinite(t *testing.T) {
	mark := GetTicks()
	assert.Equal(t, int64(0), GetRemainingTicks(mark, 0))
}

func TestGetRemainingTicksClampsToZero(t *testing.T) {
	mark := GetTicks() - 1000
	assert.Equal(t, int64(0), GetRemainingTicks(mark, 100))
}

func TestGetRemainingTicksWithinWindow(t *testing.T) {
	mark := GetTicks()
	remaining := GetRemainingTicks(mark, 10_000)
	assert.Greater(t, remaining, int64(0))
	assert.LessOrEqual(t, remaining, int64(10_000))
}

func TestIsoDateRoundTrip(t *testing.T) {
	now := GetTime()
	s := GetIsoDate(now)
	back, err := ParseIsoDate(s)
	require.NoError(t, err)
	assert.Equal(t, now, back)
}

func TestParseIsoDateInvalid(t *testing.T) {
	_, err := ParseIsoDate("not a date")
	assert.ErrorIs(t, err, NewError(ErrBadFormat, ""))
}

func TestFormatLocalTimeDefaultFormat(t *testing.T) {
	s := FormatLocalTime("", GetTime())
	assert.NotEmpty(t, s)
}

func TestFormatUniversalTimeWithStrftimeTokens(t *testing.T) {
	ms := time.Date(2026, time.March, 5, 13, 4, 5, 0, time.UTC).UnixMilli()
	s := FormatUniversalTime("%Y-%m-%d %H:%M:%S", ms)
	assert.Equal(t, "2026-03-05 13:04:05", s)
}

func TestFormatUniversalTimeConvenienceTokens(t *testing.T) {
	ms := time.Date(2026, time.March, 5, 13, 4, 5, 0, time.UTC).UnixMilli()
	assert.Equal(t, "2026-03-05", FormatUniversalTime("%F", ms))
	assert.Equal(t, "13:04:05", FormatUniversalTime("%T", ms))
}

func TestParseValueUnlimited(t *testing.T) {
	n, err := ParseValue("unlimited")
	require.NoError(t, err)
	assert.Equal(t, int64(-1), n)

	n, err = ParseValue("forever")
	require.NoError(t, err)
	assert.Equal(t, int64(-1), n)
}

func TestParseValueTimeUnits(t *testing.T) {
	n, err := ParseValue("5sec")
	require.NoError(t, err)
	assert.Equal(t, int64(5000), n)

	n, err = ParseValue("2min")
	require.NoError(t, err)
	assert.Equal(t, int64(120_000), n)
}

func TestParseValueScaleUnits(t *testing.T) {
	n, err := ParseValue("2k")
	require.NoError(t, err)
	assert.Equal(t, int64(2000), n)
}

func TestParseValueEmptyIsError(t *testing.T) {
	_, err := ParseValue("")
	assert.ErrorIs(t, err, ErrIsBadArgs)
}

func TestParseValueInvalidNumber(t *testing.T) {
	_, err := ParseValue("notanumber")
	assert.ErrorIs(t, err, ErrIsBadArgs)
}
