package agent

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	ma "github.com/multiformats/go-multiaddr"
)

var ErrInvalidEndpoint = errors.New("invalid agent endpoint")

// ResolveEndpoint accepts a gateway endpoint either as a plain URL or as a
// multiaddr like /dns4/gateway.example/tcp/443/https and returns the URL
// form the HTTP submitter dials.
func ResolveEndpoint(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("%w: endpoint is empty", ErrInvalidEndpoint)
	}
	if strings.HasPrefix(raw, "http://") || strings.HasPrefix(raw, "https://") {
		u, err := url.Parse(raw)
		if err != nil || u.Host == "" {
			return "", fmt.Errorf("%w: %q", ErrInvalidEndpoint, raw)
		}
		return raw, nil
	}

	addr, err := ma.NewMultiaddr(raw)
	if err != nil {
		return "", fmt.Errorf("%w: %q is neither a URL nor a multiaddr", ErrInvalidEndpoint, raw)
	}
	host := firstValue(addr, ma.P_DNS4, ma.P_DNS6, ma.P_DNS, ma.P_IP4, ma.P_IP6)
	if host == "" {
		return "", fmt.Errorf("%w: %q has no host component", ErrInvalidEndpoint, raw)
	}
	port, err := addr.ValueForProtocol(ma.P_TCP)
	if err != nil {
		return "", fmt.Errorf("%w: %q has no tcp port", ErrInvalidEndpoint, raw)
	}
	scheme := "http"
	if hasProtocol(addr, ma.P_HTTPS) {
		scheme = "https"
	} else if _, err := addr.ValueForProtocol(ma.P_TLS); err == nil {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s:%s", scheme, host, port), nil
}

func firstValue(addr ma.Multiaddr, codes ...int) string {
	for _, code := range codes {
		if v, err := addr.ValueForProtocol(code); err == nil && v != "" {
			return v
		}
	}
	return ""
}

func hasProtocol(addr ma.Multiaddr, code int) bool {
	for _, p := range addr.Protocols() {
		if p.Code == code {
			return true
		}
	}
	return false
}
