package search

import (
	"testing"
	"time"
)

func TestResolveDate(t *testing.T) {
	tests := []struct {
		name     string
		value    string
		isEnd    bool
		expected string
		ok       bool
	}{
		{
			name:     "year as start resolves to start of year",
			value:    "2020",
			expected: "2020-01-01 00:00:00",
			ok:       true,
		},
		{
			name:     "year as end resolves to end of year",
			value:    "2020",
			isEnd:    true,
			expected: "2020-12-31 23:59:59",
			ok:       true,
		},
		{
			name:     "leap february end",
			value:    "2020-02",
			isEnd:    true,
			expected: "2020-02-29 23:59:59",
			ok:       true,
		},
		{
			name:     "non-leap february end",
			value:    "2019-02",
			isEnd:    true,
			expected: "2019-02-28 23:59:59",
			ok:       true,
		},
		{
			name:     "thirty day month end",
			value:    "2021-04",
			isEnd:    true,
			expected: "2021-04-30 23:59:59",
			ok:       true,
		},
		{
			name:     "day as end expands to end of day",
			value:    "2021-07-15",
			isEnd:    true,
			expected: "2021-07-15 23:59:59",
			ok:       true,
		},
		{
			name:     "hour precision end returned unmodified",
			value:    "2021-07-15 13",
			isEnd:    true,
			expected: "2021-07-15 13:00:00",
			ok:       true,
		},
		{
			name:     "second precision returned unmodified",
			value:    "2021-07-15 13:45:59",
			isEnd:    true,
			expected: "2021-07-15 13:45:59",
			ok:       true,
		},
		{
			name:     "month as start keeps first day",
			value:    "2021-04",
			expected: "2021-04-01 00:00:00",
			ok:       true,
		},
		{
			name:  "garbage does not resolve",
			value: "not-a-date",
		},
		{
			name:  "wrong separator does not resolve",
			value: "2020/01/01",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resolved, ok := ResolveDate(tt.value, tt.isEnd)
			if ok != tt.ok {
				t.Fatalf("ResolveDate(%q, %v) ok = %v, want %v", tt.value, tt.isEnd, ok, tt.ok)
			}
			if !ok {
				return
			}
			got := resolved.Format("2006-01-02 15:04:05")
			if got != tt.expected {
				t.Errorf("ResolveDate(%q, %v) = %s, want %s", tt.value, tt.isEnd, got, tt.expected)
			}
		})
	}
}

func TestResolveDateLocation(t *testing.T) {
	resolved, ok := ResolveDate("2020", true)
	if !ok {
		t.Fatal("expected resolution")
	}
	if resolved.Location() != time.UTC {
		t.Errorf("expected UTC bound, got %v", resolved.Location())
	}
}
