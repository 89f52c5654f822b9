package timeutils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDateTime(t *testing.T) {
	loc, err := time.LoadLocation("Asia/Jakarta")
	require.NoError(t, err)

	tests := []struct {
		name    string
		date    string
		clock   string
		want    time.Time
		wantErr bool
	}{
		{name: "24h clock", date: "2026-03-01", clock: "09:30", want: time.Date(2026, 3, 1, 9, 30, 0, 0, loc)},
		{name: "with seconds", date: "2026-03-01", clock: "09:30:15", want: time.Date(2026, 3, 1, 9, 30, 15, 0, loc)},
		{name: "12h clock", date: "2026-03-01", clock: "3:04 PM", want: time.Date(2026, 3, 1, 15, 4, 0, 0, loc)},
		{name: "bad date", date: "01/03/2026", clock: "09:30", wantErr: true},
		{name: "bad time", date: "2026-03-01", clock: "25:99", wantErr: true},
		{name: "missing time", date: "2026-03-01", clock: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDateTime(tt.date, tt.clock, loc)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "got %s want %s", got, tt.want)
			assert.Equal(t, loc, got.Location())
		})
	}
}

func TestHumanizeUntil(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	assert.Equal(t, "5 minutes from now", HumanizeUntil(now.Add(5*time.Minute), now))
	assert.Equal(t, "now", HumanizeUntil(now, now))
	assert.Equal(t, "now", HumanizeUntil(now.Add(-time.Hour), now))
}

func TestFormatLocal(t *testing.T) {
	ts := time.Date(2026, 3, 1, 2, 30, 0, 0, time.UTC)
	loc, err := time.LoadLocation("Asia/Jakarta")
	require.NoError(t, err)

	assert.Equal(t, "Sun 01 Mar 2026 09:30", FormatLocal(ts, loc))
}
