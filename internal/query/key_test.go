package query

import (
	"net/url"
	"testing"
)

func TestNewKeyCanonicalizesParams(t *testing.T) {
	tests := []struct {
		name string
		a    url.Values
		b    url.Values
		same bool
	}{
		{
			name: "identical params",
			a:    url.Values{"status": {"Resolved"}, "city": {"Utrecht"}},
			b:    url.Values{"city": {"Utrecht"}, "status": {"Resolved"}},
			same: true,
		},
		{
			name: "nil and empty",
			a:    nil,
			b:    url.Values{},
			same: true,
		},
		{
			name: "different values",
			a:    url.Values{"status": {"Resolved"}},
			b:    url.Values{"status": {"Closed"}},
			same: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ka := NewKey("reports", tt.a)
			kb := NewKey("reports", tt.b)
			if (ka == kb) != tt.same {
				t.Errorf("keys %q vs %q: equal = %v, want %v", ka, kb, ka == kb, tt.same)
			}
		})
	}
}

func TestKeysDifferByResource(t *testing.T) {
	if NewKey("reports", nil) == NewKey("report_stats", nil) {
		t.Error("distinct resources produced equal keys")
	}
}
