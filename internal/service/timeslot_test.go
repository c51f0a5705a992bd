package service

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMinuteOfDay(t *testing.T) {
	cases := []struct {
		raw     string
		want    int
		wantErr bool
	}{
		{"00:00", 0, false},
		{"08:00", 480, false},
		{"12:30", 750, false},
		{"23:59", 1439, false},
		{"24:00", 0, true},
		{"09:60", 0, true},
		{"9:00", 0, true},
		{"0900", 0, true},
		{"ab:cd", 0, true},
		{"", 0, true},
	}
	for _, tc := range cases {
		got, err := minuteOfDay(tc.raw)
		if tc.wantErr {
			assert.Error(t, err, tc.raw)
			continue
		}
		require.NoError(t, err, tc.raw)
		assert.Equal(t, tc.want, got, tc.raw)
	}
}

func TestOverlapsHalfOpen(t *testing.T) {
	// back-to-back ranges do not collide
	assert.False(t, overlaps("10:00", "11:00", "11:00", "12:00"))
	assert.False(t, overlaps("11:00", "12:00", "10:00", "11:00"))

	assert.True(t, overlaps("10:00", "11:00", "10:30", "11:30"))
	assert.True(t, overlaps("10:00", "11:00", "10:00", "11:00"))
	assert.True(t, overlaps("09:00", "12:00", "10:00", "11:00"))
	assert.True(t, overlaps("10:00", "11:00", "09:00", "12:00"))
	assert.False(t, overlaps("08:00", "09:00", "09:30", "10:30"))
}

func TestOverlapsSymmetric(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 500; i++ {
		a := rng.Intn(23 * 60)
		b := a + 1 + rng.Intn(60)
		c := rng.Intn(23 * 60)
		d := c + 1 + rng.Intn(60)
		as, ae := formatMinute(a), formatMinute(b)
		bs, be := formatMinute(c), formatMinute(d)
		assert.Equal(t, overlaps(as, ae, bs, be), overlaps(bs, be, as, ae),
			fmt.Sprintf("overlap not symmetric for [%s,%s) vs [%s,%s)", as, ae, bs, be))
	}
}

func TestOverlapsFailsClosedOnBadInput(t *testing.T) {
	assert.True(t, overlaps("nonsense", "11:00", "12:00", "13:00"))
	assert.True(t, overlaps("10:00", "11:00", "12:00", "x"))
	assert.True(t, overlaps("", "", "", ""))
}

func TestValidTimeRange(t *testing.T) {
	assert.True(t, validTimeRange("09:00", "10:00"))
	assert.False(t, validTimeRange("10:00", "10:00"))
	assert.False(t, validTimeRange("11:00", "10:00"))
	assert.False(t, validTimeRange("bad", "10:00"))
}

func TestBuildHourlyGridDefaults(t *testing.T) {
	grid, err := buildHourlyGrid("08:00", "17:00", "12:00", "13:00")
	require.NoError(t, err)

	want := []slotWindow{
		{"08:00", "09:00"},
		{"09:00", "10:00"},
		{"10:00", "11:00"},
		{"11:00", "12:00"},
		{"13:00", "14:00"},
		{"14:00", "15:00"},
		{"15:00", "16:00"},
		{"16:00", "17:00"},
	}
	assert.Equal(t, want, grid)
}

func TestBuildHourlyGridRejectsInvertedDay(t *testing.T) {
	_, err := buildHourlyGrid("17:00", "08:00", "12:00", "13:00")
	assert.Error(t, err)
}

func TestIsWeekday(t *testing.T) {
	assert.True(t, isWeekday("Monday"))
	assert.True(t, isWeekday("Friday"))
	assert.False(t, isWeekday("Saturday"))
	assert.False(t, isWeekday("monday"))
}
