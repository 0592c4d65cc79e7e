package requestcontext

import (
	"context"
	"net/http"
	"net/netip"

	"github.com/cockroachdb/errors"
	"github.com/gaze-network/estate-ordinals/pkg/logger"
	"github.com/gaze-network/estate-ordinals/pkg/logger/slogx"
	"github.com/gofiber/fiber/v2"
)

type WithClientIPConfig struct {
	// TrustedProxiesIP lists the CIDR ranges of every proxy in front of the server. When set,
	// the client ip is the right-most X-Forwarded-For entry outside these ranges.
	TrustedProxiesIP []string `mapstructure:"trusted_proxies_ip"`

	// TrustedHeader names a header set by the edge proxy (X-Real-IP, CF-Connecting-IP).
	// A valid ip in it wins over everything else.
	TrustedHeader string `mapstructure:"trusted_proxies_header"`

	// EnableRejectMalformedRequest answers 403 for proxied requests whose client ip
	// cannot be determined.
	EnableRejectMalformedRequest bool `mapstructure:"enable_reject_malformed_request"`
}

type clientIPKey struct{}

// WithClientIP resolves the client ip with X-Forwarded-For spoofing protection.
func WithClientIP(config WithClientIPConfig) Option {
	trusted, err := parsePrefixes(config.TrustedProxiesIP)
	if err != nil {
		logger.Panic("Invalid trusted proxies", slogx.Error(err))
	}

	return func(ctx context.Context, c *fiber.Ctx) (context.Context, error) {
		ip, err := resolveClientIP(config, trusted, c)
		if err != nil {
			logger.WarnContext(ctx, "Rejected request with unresolvable client ip",
				slogx.String("event", "requestcontext_ip_spoofing"),
				slogx.String("remoteIP", c.IP()),
				slogx.Strings("forwardedFor", c.IPs()),
			)
			return nil, err
		}
		return context.WithValue(ctx, clientIPKey{}, ip), nil
	}
}

func resolveClientIP(config WithClientIPConfig, trusted []netip.Prefix, c *fiber.Ctx) (string, error) {
	if config.TrustedHeader != "" {
		if addr, err := netip.ParseAddr(c.Get(config.TrustedHeader)); err == nil {
			return addr.String(), nil
		}
	}

	forwarded := c.IPs()
	if len(forwarded) == 0 {
		return c.IP(), nil
	}

	if len(trusted) > 0 {
		for i := len(forwarded) - 1; i >= 0; i-- {
			addr, err := netip.ParseAddr(forwarded[i])
			if err != nil || !isTrusted(trusted, addr) {
				return forwarded[i], nil
			}
		}
		return forwarded[0], nil
	}

	if config.EnableRejectMalformedRequest {
		return "", &RejectError{Status: http.StatusForbidden, Message: "not allowed to access"}
	}
	return forwarded[0], nil
}

func isTrusted(trusted []netip.Prefix, addr netip.Addr) bool {
	addr = addr.Unmap()
	for _, prefix := range trusted {
		if prefix.Contains(addr) {
			return true
		}
	}
	return false
}

func parsePrefixes(ranges []string) ([]netip.Prefix, error) {
	prefixes := make([]netip.Prefix, 0, len(ranges))
	for _, r := range ranges {
		prefix, err := netip.ParsePrefix(r)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid CIDR %q", r)
		}
		prefixes = append(prefixes, prefix.Masked())
	}
	return prefixes, nil
}

// GetClientIP returns the resolved client ip, or "" outside a request context.
func GetClientIP(ctx context.Context) string {
	ip, _ := ctx.Value(clientIPKey{}).(string)
	return ip
}
