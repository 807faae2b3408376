package network

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDetector struct {
	v4    string
	v4Err error
	v6    string
	v6Err error
}

func (f fakeDetector) DetectIPv4(context.Context) (string, error) { return f.v4, f.v4Err }
func (f fakeDetector) DetectIPv6(context.Context) (string, error) { return f.v6, f.v6Err }

func TestAllowedIPsIPv4Only(t *testing.T) {
	ips, err := AllowedIPs(context.Background(), fakeDetector{v4: "1.2.3.4"}, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"1.2.3.4/32"}, ips)
}

func TestAllowedIPsIPv6Fallback(t *testing.T) {
	det := fakeDetector{v4Err: errors.New("timeout"), v6: "2001:db8::1"}
	ips, err := AllowedIPs(context.Background(), det, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"2001:db8::1/128"}, ips)
}

func TestAllowedIPsNeitherProtocolFatal(t *testing.T) {
	det := fakeDetector{v4Err: errors.New("down"), v6Err: errors.New("down")}
	_, err := AllowedIPs(context.Background(), det, "")
	require.ErrorIs(t, err, ErrNoPublicAddress)
}

func TestAllowedIPsAdditionalAddress(t *testing.T) {
	tests := []struct {
		name       string
		additional string
		want       string
	}{
		{"ipv4 gets /32", "10.0.0.5", "10.0.0.5/32"},
		{"ipv6 gets /128", "2001:db8::1", "2001:db8::1/128"},
		{"explicit prefix kept", "10.0.0.0/24", "10.0.0.0/24"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ips, err := AllowedIPs(context.Background(), fakeDetector{v4: "1.2.3.4"}, tt.additional)
			require.NoError(t, err)
			assert.Equal(t, []string{"1.2.3.4/32", tt.want}, ips)
		})
	}
}

func TestAllowedIPsAdditionalAddressInvalid(t *testing.T) {
	_, err := AllowedIPs(context.Background(), fakeDetector{v4: "1.2.3.4"}, "not-an-ip")
	require.Error(t, err)
}

func TestAllowedIPsNeverEmpty(t *testing.T) {
	ips, err := AllowedIPs(context.Background(), fakeDetector{v4: "1.2.3.4"}, "")
	require.NoError(t, err)
	assert.NotEmpty(t, ips)
}

func TestHTTPDetectorFirstSuccessWins(t *testing.T) {
	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer bad.Close()
	good := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("198.51.100.7\n"))
	}))
	defer good.Close()

	d := &HTTPDetector{client: &http.Client{Timeout: time.Second}}
	ip, err := d.detect(context.Background(), []string{bad.URL, good.URL}, func(ip net.IP) bool { return ip.To4() != nil })
	require.NoError(t, err)
	assert.Equal(t, "198.51.100.7", ip)
}

func TestHTTPDetectorAllServicesFail(t *testing.T) {
	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer bad.Close()

	d := &HTTPDetector{client: &http.Client{Timeout: time.Second}}
	_, err := d.detect(context.Background(), []string{bad.URL}, func(ip net.IP) bool { return true })
	require.Error(t, err)
}
