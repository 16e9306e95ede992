package timex

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDuration_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    time.Duration
		wantErr bool
	}{
		{"string", `"1s"`, time.Second, false},
		{"minutes", `"5m"`, 5 * time.Minute, false},
		{"nanoseconds", `1000000000`, time.Second, false},
		{"null", `null`, 0, false},
		{"bad string", `"soon"`, 0, true},
		{"bool", `true`, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var d Duration
			err := json.Unmarshal([]byte(tt.in), &d)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, d.Duration)
		})
	}
}

func TestDuration_InStruct(t *testing.T) {
	var v struct {
		Lifetime Duration `json:"lifetime"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"lifetime":"24h"}`), &v))
	assert.Equal(t, 24*time.Hour, v.Lifetime.Duration)

	out, err := json.Marshal(v)
	require.NoError(t, err)
	assert.JSONEq(t, `{"lifetime":"24h0m0s"}`, string(out))
}

func TestParseSecondsOrDuration(t *testing.T) {
	d, err := ParseSecondsOrDuration("300")
	require.NoError(t, err)
	assert.Equal(t, 5*time.Minute, d)

	d, err = ParseSecondsOrDuration(" 1h ")
	require.NoError(t, err)
	assert.Equal(t, time.Hour, d)

	_, err = ParseSecondsOrDuration("-5")
	assert.Error(t, err)

	_, err = ParseSecondsOrDuration("")
	assert.Error(t, err)

	_, err = ParseSecondsOrDuration("later")
	assert.Error(t, err)
}
