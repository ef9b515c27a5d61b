package types

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTimeStringFromString(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    TimeString
		wantErr bool
	}{
		{name: "hours and minutes", input: "09:30", want: "09:30"},
		{name: "with seconds from TIME column", input: "17:45:00", want: "17:45"},
		{name: "end of day", input: "24:00", want: "24:00"},
		{name: "garbage", input: "half past nine", wantErr: true},
		{name: "out of range", input: "25:10", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewTimeStringFromString(tt.input)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidTimeString)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTimeString_ValidateStart(t *testing.T) {
	assert.NoError(t, TimeString("00:00").ValidateStart())
	assert.NoError(t, TimeString("23:59").ValidateStart())
	assert.ErrorIs(t, TimeString("24:00").ValidateStart(), ErrInvalidTimeString)
	assert.ErrorIs(t, TimeString("9am").ValidateStart(), ErrInvalidTimeString)
}

func TestTimeString_AddMinutes(t *testing.T) {
	got, err := TimeString("12:45").AddMinutes(30)
	require.NoError(t, err)
	assert.Equal(t, TimeString("13:15"), got)

	_, err = TimeString("23:50").AddMinutes(30)
	assert.ErrorIs(t, err, ErrInvalidTimeString)
}

func TestTimeString_Compare(t *testing.T) {
	assert.True(t, TimeString("09:00").IsBefore("13:00"))
	assert.False(t, TimeString("13:00").IsBefore("13:00"))
	assert.True(t, TimeString("24:00").IsAfter("23:59"))
}

func TestTimeString_On(t *testing.T) {
	loc := time.FixedZone("clinic", 2*60*60)
	date := time.Date(2024, 6, 11, 15, 4, 5, 0, loc)

	got, err := TimeString("12:00").On(date)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 6, 11, 12, 0, 0, 0, loc), got)

	end, err := TimeString("24:00").On(date)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 6, 12, 0, 0, 0, 0, loc), end)
}

func TestTimeString_Scan(t *testing.T) {
	var ts TimeString
	require.NoError(t, ts.Scan([]byte("08:15:00")))
	assert.Equal(t, TimeString("08:15"), ts)

	require.NoError(t, ts.Scan(nil))
	assert.True(t, ts.IsZero())

	assert.Error(t, ts.Scan(42))
}
