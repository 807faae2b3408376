package network

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"
)

// Lookup services tried in order; first valid answer wins. At least two
// independent services per family so a single outage does not block
// provisioning.
var (
	ipv4Services = []string{
		"https://api.ipify.org",
		"https://ifconfig.me/ip",
		"https://icanhazip.com",
	}
	ipv6Services = []string{
		"https://api6.ipify.org",
		"https://v6.ident.me",
	}
)

const detectTimeout = 5 * time.Second

// HTTPDetector detects the public address via external lookup services.
type HTTPDetector struct {
	client *http.Client
}

// NewHTTPDetector returns a detector with a short bounded per-request timeout.
func NewHTTPDetector() *HTTPDetector {
	return &HTTPDetector{client: &http.Client{Timeout: detectTimeout}}
}

func (d *HTTPDetector) DetectIPv4(ctx context.Context) (string, error) {
	return d.detect(ctx, ipv4Services, func(ip net.IP) bool { return ip.To4() != nil })
}

func (d *HTTPDetector) DetectIPv6(ctx context.Context) (string, error) {
	return d.detect(ctx, ipv6Services, func(ip net.IP) bool { return ip.To4() == nil })
}

func (d *HTTPDetector) detect(ctx context.Context, services []string, want func(net.IP) bool) (string, error) {
	var lastErr error
	for _, svc := range services {
		ip, err := d.query(ctx, svc)
		if err != nil {
			lastErr = err
			continue
		}
		if parsed := net.ParseIP(ip); parsed != nil && want(parsed) {
			return ip, nil
		}
		lastErr = fmt.Errorf("%s returned unusable address %q", svc, ip)
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("no lookup services configured")
	}
	return "", lastErr
}

func (d *HTTPDetector) query(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	resp, err := d.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close() //nolint:errcheck
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%s: HTTP %d", url, resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 256))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(body)), nil
}
