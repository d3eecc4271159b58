package civiltime

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	want := time.Date(2025, 1, 1, 8, 30, 15, 0, time.UTC)

	for _, input := range []string{
		"2025-01-01T08:30:15",
		" 2025-01-01T08:30:15 ",
		"2025-01-01 08:30:15",
		"2025-01-01T08:30:15Z",
		"2025-01-01T08:30:15-07:00",
		"2025-01-01 08:30:15+02:00",
	} {
		got, err := Parse(input)
		require.NoError(t, err, input)
		require.True(t, want.Equal(got), "%s parsed as %s", input, got)
	}

	got, err := Parse("2025-01-01T08:30:15.250")
	require.NoError(t, err)
	require.Equal(t, 250*time.Millisecond, time.Duration(got.Nanosecond()))
}

func TestParseRejectsMalformed(t *testing.T) {
	for _, input := range []string{"", "yesterday", "2025-1-1T8:00:00", "2025-01-01", "08:00:00"} {
		_, err := Parse(input)
		require.True(t, errors.Is(err, ErrInvalid), input)
	}
}

func TestFormatRoundTrip(t *testing.T) {
	ts, err := Parse("2025-03-09T23:05:00")
	require.NoError(t, err)
	require.Equal(t, "2025-03-09T23:05:00", Format(ts))
}

func TestFromInstant(t *testing.T) {
	denver, err := time.LoadLocation("America/Denver")
	if err != nil {
		t.Skip("tzdata unavailable")
	}
	instant := time.Date(2025, 1, 1, 15, 0, 0, 0, time.UTC)
	require.Equal(t, "2025-01-01T08:00:00", Format(FromInstant(instant, denver)))
	require.Equal(t, "2025-01-01T15:00:00", Format(FromInstant(instant, nil)))
}

func TestBounds(t *testing.T) {
	start, ok, err := StartBound("2025-01-01", "")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "2025-01-01T00:00:00", Format(start))

	end, ok, err := EndBound("2025-01-01", "")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "2025-01-01T23:59:59", Format(end))

	start, ok, err = StartBound("2025-01-01", "08:00")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "2025-01-01T08:00:00", Format(start))

	end, ok, err = EndBound("2025-01-01", "06:00:30")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "2025-01-01T06:00:30", Format(end))
}

func TestBoundWithoutDateIgnoresClock(t *testing.T) {
	_, ok, err := StartBound("", "08:00")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestBoundRejectsMalformed(t *testing.T) {
	_, _, err := StartBound("01/02/2025", "")
	require.True(t, errors.Is(err, ErrInvalid))

	_, _, err = EndBound("2025-01-01", "25:00")
	require.True(t, errors.Is(err, ErrInvalid))
}
