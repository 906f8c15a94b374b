package wallet

import (
	"fmt"
	"net/url"
	"strings"
)

// NormalizeOrigin validates a website origin (scheme://host[:port]) and
// lowercases it. Anything beyond the authority part means the value is not
// an origin and is rejected: origins are the unit of trust scoping and must
// compare exactly.
func NormalizeOrigin(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("%w: origin is empty", ErrInvalidInput)
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("%w: malformed origin", ErrInvalidInput)
	}
	scheme := strings.ToLower(u.Scheme)
	if scheme != "http" && scheme != "https" {
		return "", fmt.Errorf("%w: origin scheme must be http or https", ErrInvalidInput)
	}
	if u.Host == "" || u.User != nil || u.Path != "" || u.RawQuery != "" || u.Fragment != "" || u.Opaque != "" {
		return "", fmt.Errorf("%w: origin must be scheme://host", ErrInvalidInput)
	}
	return scheme + "://" + strings.ToLower(u.Host), nil
}
