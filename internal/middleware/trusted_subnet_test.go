package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestInSubnet(t *testing.T) {
	tests := []struct {
		subnet string
		ip     string
		in     bool
	}{
		{"192.168.1.0/24", "192.168.1.100", true},
		{"192.168.1.0/24", "10.0.0.1", false},
		{"192.168.1.0/24", "invalid-ip", false},
		{"192.168.1.0/24", "", false},
		{"192.168.1.100/32", "192.168.1.100", true},
		{"192.168.1.100/32", "192.168.1.101", false},
		{"2001:db8::/32", "2001:db8::1", true},
		{"2001:db8::/32", "192.168.1.100", false},
		{"", "192.168.1.100", false},
	}

	for _, tt := range tests {
		t.Run(tt.subnet+" "+tt.ip, func(t *testing.T) {
			network, err := ParseTrustedSubnet(tt.subnet)
			require.NoError(t, err)
			assert.Equal(t, tt.in, InSubnet(network, tt.ip))
		})
	}
}

func TestParseTrustedSubnet(t *testing.T) {
	network, err := ParseTrustedSubnet("")
	require.NoError(t, err)
	assert.Nil(t, network, "Empty CIDR disables the check")

	_, err = ParseTrustedSubnet("invalid-cidr")
	assert.Error(t, err)
}

func TestTrustedSubnetMiddleware(t *testing.T) {
	network, err := ParseTrustedSubnet("192.168.1.0/24")
	require.NoError(t, err)

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	tests := []struct {
		name     string
		network  bool
		realIP   string
		expected int
	}{
		{"Trusted IP", true, "192.168.1.7", http.StatusNoContent},
		{"Untrusted IP", true, "10.0.0.1", http.StatusForbidden},
		{"No header", true, "", http.StatusForbidden},
		{"Nil subnet denies everyone", false, "192.168.1.7", http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			subnet := network
			if !tt.network {
				subnet = nil
			}

			req := httptest.NewRequest(http.MethodDelete, "/api/links/abc123", nil)
			req.RemoteAddr = "192.168.1.7:5555"
			if tt.realIP != "" {
				req.Header.Set("X-Real-IP", tt.realIP)
			}
			rr := httptest.NewRecorder()
			TrustedSubnetMiddleware(subnet, zap.NewNop())(next).ServeHTTP(rr, req)

			assert.Equal(t, tt.expected, rr.Code)
			if tt.expected == http.StatusForbidden {
				assert.Equal(t, "Access denied\n", rr.Body.String())
			}
		})
	}
}
