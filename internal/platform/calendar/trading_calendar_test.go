package calendar

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTradingCalendar_IsTradingDay_NYSE(t *testing.T) {
	t.Parallel()

	cal := New("")
	require.NotNil(t, cal)

	testCases := []struct {
		name string
		at   time.Time
		want bool
	}{
		{name: "friday after close", at: time.Date(2024, 3, 15, 21, 30, 0, 0, time.UTC), want: true},
		{name: "saturday", at: time.Date(2024, 3, 16, 21, 30, 0, 0, time.UTC), want: false},
		{name: "sunday", at: time.Date(2024, 3, 17, 21, 30, 0, 0, time.UTC), want: false},
		{name: "christmas", at: time.Date(2024, 12, 25, 21, 30, 0, 0, time.UTC), want: false},
		// 土曜 00:30 UTC はニューヨークではまだ金曜夜
		{name: "saturday utc is friday in new york", at: time.Date(2024, 3, 16, 0, 30, 0, 0, time.UTC), want: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, cal.IsTradingDay(tc.at))
		})
	}
}

func TestTradingCalendar_Fallback(t *testing.T) {
	t.Parallel()

	tc := &TradingCalendar{loc: time.UTC, fallback: true}

	assert.True(t, tc.IsTradingDay(time.Date(2024, 12, 25, 12, 0, 0, 0, time.UTC)), "fallback ignores holidays")
	assert.False(t, tc.IsTradingDay(time.Date(2024, 3, 16, 12, 0, 0, 0, time.UTC)))
}

func TestNew_UnknownMIC(t *testing.T) {
	t.Parallel()

	tc := New("zzzz")
	require.NotNil(t, tc)

	assert.True(t, tc.IsTradingDay(time.Date(2024, 3, 15, 21, 0, 0, 0, time.UTC)))
	assert.False(t, tc.IsTradingDay(time.Date(2024, 3, 16, 21, 0, 0, 0, time.UTC)))
}
