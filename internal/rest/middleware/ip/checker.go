package ip

import (
	"net"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

// Checker validates client addresses and recognises trusted proxies.
type Checker struct {
	trusted       []*net.IPNet
	allowLocalIPs bool
	logger        *zap.Logger
}

// NewChecker parses the trusted proxy list. Entries may be single addresses
// or CIDR ranges; invalid entries are logged and skipped.
func NewChecker(logger *zap.Logger, trustedProxies []string, allowLocalIPs bool) *Checker {
	c := &Checker{
		allowLocalIPs: allowLocalIPs,
		logger:        logger,
	}

	for _, entry := range trustedProxies {
		entry = strings.TrimSpace(entry)
		if !strings.Contains(entry, "/") {
			if ip := net.ParseIP(entry); ip != nil {
				bits := 32
				if ip.To4() == nil {
					bits = 128
				}
				entry = ip.String() + "/" + strconv.Itoa(bits)
			}
		}

		_, network, err := net.ParseCIDR(entry)
		if err != nil {
			logger.Warn("Ignoring invalid trusted proxy", zap.String("entry", entry), zap.Error(err))
			continue
		}

		c.trusted = append(c.trusted, network)
	}

	return c
}

// IsTrustedProxy reports whether ip belongs to a trusted proxy range.
func (c *Checker) IsTrustedProxy(ip net.IP) bool {
	for _, network := range c.trusted {
		if network.Contains(ip) {
			return true
		}
	}
	return false
}

// IsValidClientIP reports whether ip may be used to identify a client.
// Loopback and private ranges are only accepted when local IPs are allowed.
func (c *Checker) IsValidClientIP(ip net.IP) bool {
	if ip == nil || ip.IsUnspecified() || ip.IsMulticast() {
		return false
	}

	if ip.IsLoopback() || ip.IsPrivate() || ip.IsLinkLocalUnicast() {
		return c.allowLocalIPs
	}

	return true
}

// ValidateIP parses raw and returns its canonical form, or UnknownIP.
func (c *Checker) ValidateIP(raw string) string {
	ip := net.ParseIP(strings.TrimSpace(raw))
	if !c.IsValidClientIP(ip) {
		return UnknownIP
	}
	return ip.String()
}
