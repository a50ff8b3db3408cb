package domain

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimestampAcceptsNaiveAndZonedValues(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want time.Time
	}{
		{"naive", `"2024-01-15T10:30:00"`, time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)},
		{"naive fractional", `"2024-01-15T10:30:00.123456"`, time.Date(2024, 1, 15, 10, 30, 0, 123456000, time.UTC)},
		{"zoned", `"2024-01-15T10:30:00Z"`, time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)},
		{"space separated", `"2024-01-15 10:30:00"`, time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var ts Timestamp
			require.NoError(t, json.Unmarshal([]byte(tt.in), &ts))
			assert.True(t, ts.Equal(tt.want), "got %v", ts.Time)
		})
	}
}

func TestTimestampRejectsGarbage(t *testing.T) {
	var ts Timestamp
	assert.Error(t, json.Unmarshal([]byte(`"yesterday"`), &ts))
	assert.Error(t, json.Unmarshal([]byte(`12`), &ts))
}

func TestIsUpdatedOnlyWhenStrictlyLater(t *testing.T) {
	created := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

	same := BlogPost{CreatedAt: NewTimestamp(created), UpdatedAt: NewTimestamp(created)}
	assert.False(t, same.IsUpdated())

	later := BlogPost{CreatedAt: NewTimestamp(created), UpdatedAt: NewTimestamp(created.Add(time.Second))}
	assert.True(t, later.IsUpdated())
}

func TestExcerpt(t *testing.T) {
	short := BlogPost{Content: "<p>Hello</p> world"}
	assert.Equal(t, "Hello world", short.Excerpt())

	long := BlogPost{Content: strings.Repeat("x", 200)}
	got := long.Excerpt()
	assert.True(t, strings.HasSuffix(got, "..."))
	assert.Len(t, got, 153)
}

func TestRoutes(t *testing.T) {
	assert.Equal(t, Route("/post/42"), PostRoute(42))
	assert.Equal(t, Route("/edit/7"), EditRoute(7))
}
