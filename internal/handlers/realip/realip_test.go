package realip

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func Test_Normalize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		address string
		want    string
	}{
		{name: "plain ipv4", address: "203.0.113.5", want: "203.0.113.5"},
		{name: "ipv4 mapped ipv6", address: "::ffff:203.0.113.5", want: "203.0.113.5"},
		{name: "ipv6 canonicalized", address: "2001:0db8:0000:0000:0000:0000:0000:0001", want: "2001:db8::1"},
		{name: "ipv6 already canonical", address: "2001:db8::1", want: "2001:db8::1"},
		{name: "unparseable returned unchanged", address: "not-an-ip", want: "not-an-ip"},
		{name: "empty returned unchanged", address: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, Normalize(tt.address))
		})
	}
}

func Test_Resolve(t *testing.T) {
	t.Parallel()

	t.Run("trusted proxy takes leftmost forwarded entry", func(t *testing.T) {
		r := httptest.NewRequest("POST", "/api/auth/login", nil)
		r.RemoteAddr = "10.0.0.1:54321"
		r.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")

		require.Equal(t, "203.0.113.9", Resolve(r, true))
	})

	t.Run("untrusted proxy ignores the header", func(t *testing.T) {
		r := httptest.NewRequest("POST", "/api/auth/login", nil)
		r.RemoteAddr = "10.0.0.1:54321"
		r.Header.Set("X-Forwarded-For", "203.0.113.9")

		require.Equal(t, "10.0.0.1", Resolve(r, false))
	})

	t.Run("trusted proxy without header falls back to remote addr", func(t *testing.T) {
		r := httptest.NewRequest("POST", "/api/auth/login", nil)
		r.RemoteAddr = "203.0.113.5:443"

		require.Equal(t, "203.0.113.5", Resolve(r, true))
	})

	t.Run("mapped remote addr is unmapped", func(t *testing.T) {
		r := httptest.NewRequest("POST", "/api/auth/login", nil)
		r.RemoteAddr = "[::ffff:203.0.113.5]:443"

		require.Equal(t, "203.0.113.5", Resolve(r, false))
	})
}
