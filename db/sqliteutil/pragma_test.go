package sqliteutil

import "testing"

func TestEnsurePragmas(t *testing.T) {
	testCases := []struct {
		dsn      string
		expected string
	}{
		{dsn: ":memory:", expected: ":memory:"},
		{dsn: "/tmp/index.sqlite", expected: "/tmp/index.sqlite?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"},
		{dsn: "/tmp/index.sqlite?_pragma=busy_timeout(100)", expected: "/tmp/index.sqlite?_pragma=busy_timeout(100)&_pragma=journal_mode(WAL)"},
	}
	for _, tc := range testCases {
		if got := EnsurePragmas(tc.dsn, true, 5000); got != tc.expected {
			t.Fatalf("EnsurePragmas(%q)=%q want %q", tc.dsn, got, tc.expected)
		}
	}
}
