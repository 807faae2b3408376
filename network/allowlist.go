// Package network builds the firewall allow-list for the VM's SSH port from
// the operator's detected public address plus optional extra addresses.
package network

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/projecteru2/core/log"
)

// ErrNoPublicAddress is returned when no public address could be detected on
// either protocol. Fatal: an empty allow-list is not an acceptable firewall
// default.
var ErrNoPublicAddress = errors.New("failed to detect public IP address")

// Detector resolves the operator's public address. The production
// implementation queries external lookup services over HTTP.
type Detector interface {
	DetectIPv4(ctx context.Context) (string, error)
	DetectIPv6(ctx context.Context) (string, error)
}

// AllowedIPs builds the ordered, non-empty CIDR allow-list. IPv4 is
// preferred; the VM's interface carries no IPv6 address, so an IPv6-only
// result only helps if the operator reaches the VM some other way.
func AllowedIPs(ctx context.Context, det Detector, additional string) ([]string, error) {
	logger := log.WithFunc("network.AllowedIPs")

	var ips []string
	if ip, err := det.DetectIPv4(ctx); err == nil {
		logger.Infof(ctx, "public IPv4 address: %s", ip)
		ips = append(ips, ip+"/32")
	} else if ip, err := det.DetectIPv6(ctx); err == nil {
		logger.Infof(ctx, "public IPv6 address: %s", ip)
		logger.Warnf(ctx, "only IPv6 detected; the VM interface is IPv4-only, SSH may be unreachable")
		ips = append(ips, ip+"/128")
	} else {
		return nil, ErrNoPublicAddress
	}

	if additional != "" {
		entry, err := withHostPrefix(additional)
		if err != nil {
			return nil, fmt.Errorf("additional IP %q: %w", additional, err)
		}
		logger.Infof(ctx, "additional allow-listed address: %s", entry)
		ips = append(ips, entry)
	}

	logger.Infof(ctx, "firewall will allow SSH from: %s", strings.Join(ips, ", "))
	return ips, nil
}

// withHostPrefix returns the address as a host CIDR, choosing /32 or /128 by
// family when no explicit prefix was given.
func withHostPrefix(addr string) (string, error) {
	if strings.Contains(addr, "/") {
		if _, _, err := net.ParseCIDR(addr); err != nil {
			return "", err
		}
		return addr, nil
	}
	ip := net.ParseIP(addr)
	if ip == nil {
		return "", fmt.Errorf("not an IP address")
	}
	if ip.To4() != nil {
		return addr + "/32", nil
	}
	return addr + "/128", nil
}
