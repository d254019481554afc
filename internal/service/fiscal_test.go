package service

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFinancialYearOf(t *testing.T) {
	assert.Equal(t, "2024/2025", FinancialYearOf(time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, "2024/2025", FinancialYearOf(time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, "2023/2024", FinancialYearOf(time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)))
}

func TestQuarterOf(t *testing.T) {
	cases := map[time.Month]int{
		time.July: 1, time.September: 1, time.October: 2, time.December: 2,
		time.January: 3, time.March: 3, time.April: 4, time.June: 4,
	}
	for month, want := range cases {
		assert.Equal(t, want, QuarterOf(time.Date(2024, month, 10, 0, 0, 0, 0, time.UTC)), month.String())
	}
}

func TestQuarterRange(t *testing.T) {
	from, to, err := QuarterRange("2024/2025", 1, time.UTC)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC), from)
	assert.Equal(t, time.Date(2024, 10, 1, 0, 0, 0, 0, time.UTC), to)

	from, to, err = QuarterRange("2024/2025", 4, time.UTC)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC), from)
	assert.Equal(t, time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC), to)

	_, _, err = QuarterRange("2024/2025", 5, time.UTC)
	assert.True(t, errors.Is(err, ErrInvalidInput))
	_, _, err = QuarterRange("2024-25", 1, time.UTC)
	assert.True(t, errors.Is(err, ErrInvalidInput))
}
