package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(t *testing.T, s string) time.Time {
	t.Helper()
	parsed, err := time.ParseInLocation("2006-01-02", s, time.UTC)
	require.NoError(t, err)
	return parsed
}

func TestParseDates(t *testing.T) {
	t.Run("ISO week resolves to Monday and Sunday", func(t *testing.T) {
		start, err := ParseStartingDate("2023-W14")
		require.NoError(t, err)
		assert.Equal(t, day(t, "2023-04-03"), start)

		end, err := ParseEndingDate("2023-W14")
		require.NoError(t, err)
		assert.Equal(t, day(t, "2023-04-09"), end)
	})

	t.Run("week 1 contains January 4th", func(t *testing.T) {
		// 2021-01-04 is a Monday; 2015-01-04 is a Sunday, so its week
		// starts back in 2014.
		start, err := ParseStartingDate("2021-W01")
		require.NoError(t, err)
		assert.Equal(t, day(t, "2021-01-04"), start)

		start, err = ParseStartingDate("2015-W01")
		require.NoError(t, err)
		assert.Equal(t, day(t, "2014-12-29"), start)
	})

	t.Run("plain calendar dates pass through", func(t *testing.T) {
		start, err := ParseStartingDate("2023-04-05")
		require.NoError(t, err)
		assert.Equal(t, day(t, "2023-04-05"), start)

		end, err := ParseEndingDate("2023-04-05")
		require.NoError(t, err)
		assert.Equal(t, start, end)
	})

	t.Run("rejects malformed input", func(t *testing.T) {
		_, err := ParseStartingDate("2023-W60")
		assert.Error(t, err)

		_, err = ParseStartingDate("last tuesday")
		assert.Error(t, err)
	})
}

func TestDaysBetween(t *testing.T) {
	assert.Equal(t, 61, DaysBetween(day(t, "2023-10-01"), day(t, "2023-12-01")))
	assert.Equal(t, 136, DaysBetween(day(t, "2023-07-18"), day(t, "2023-12-01")))
	assert.Equal(t, 0, DaysBetween(day(t, "2023-10-01"), day(t, "2023-10-01")))
	assert.Equal(t, -1, DaysBetween(day(t, "2023-10-02"), day(t, "2023-10-01")))
}

func TestSeason(t *testing.T) {
	assert.Equal(t, "spring", Season(day(t, "2023-04-03")))
	assert.Equal(t, "summer", Season(day(t, "2023-07-18")))
	assert.Equal(t, "autumn", Season(day(t, "2023-10-01")))
	assert.Equal(t, "winter", Season(day(t, "2023-12-01")))
}
