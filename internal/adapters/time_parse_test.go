package adapters

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseUpdateTime(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  time.Time
	}{
		{name: "rfc3339", value: "2024-05-10T12:00:00Z", want: time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)},
		{name: "rfc3339 nano", value: "2024-05-10T12:00:00.5Z", want: time.Date(2024, 5, 10, 12, 0, 0, 500000000, time.UTC)},
		{name: "no timezone", value: "2024-05-10T12:00:00", want: time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)},
		{name: "space separated", value: "2024-05-10 12:00:00", want: time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)},
		{name: "empty", value: "   ", want: time.Time{}},
		{name: "garbage", value: "yesterday", want: time.Time{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, parseUpdateTime(tt.value))
		})
	}
}
