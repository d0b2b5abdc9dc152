package pricing

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestForRange(t *testing.T) {
	testCases := []struct {
		name      string
		checkin   string
		checkout  string
		wantTotal int64
		wantOK    bool
	}{
		{"one week at standard rate", "2024-01-01", "2024-01-08", 2500, true},
		{"three weeks at standard rate", "2024-01-01", "2024-01-22", 7500, true},
		{"four weeks at long-stay rate", "2024-01-01", "2024-01-29", 8000, true},
		{"ten weeks at long-stay rate", "2024-01-01", "2024-03-11", 20000, true},
		{"nine nights has no price", "2024-01-01", "2024-01-10", 0, false},
		{"six nights has no price", "2024-01-01", "2024-01-07", 0, false},
		{"inverted range has no price", "2024-01-08", "2024-01-01", 0, false},
		{"unparsable date has no price", "bogus", "2024-01-08", 0, false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			total, ok := ForRange(tc.checkin, tc.checkout)
			assert.Equal(t, tc.wantOK, ok)
			assert.Equal(t, tc.wantTotal, total)
		})
	}
}

func TestForWeeks(t *testing.T) {
	assert.Equal(t, int64(2500), ForWeeks(1))
	assert.Equal(t, int64(7500), ForWeeks(3))
	assert.Equal(t, int64(8000), ForWeeks(4))
	assert.Equal(t, int64(10000), ForWeeks(5))
}

func TestWeeks(t *testing.T) {
	weeks, ok := Weeks("2024-01-01", "2024-01-29")
	assert.True(t, ok)
	assert.Equal(t, 4, weeks)

	_, ok = Weeks("2024-01-01", "2024-01-10")
	assert.False(t, ok)
}
