package protocol

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"

	"golang.org/x/net/idna"
	"golang.org/x/net/proxy"
)

var (
	errEmptyHost   = errors.New("missing host")
	errWhitespace  = errors.New("contains whitespace")
	errInvalidPort = errors.New("port must be between 1 and 65535")
)

// ValidateProxy checks that addr is either a proxy URL (http, https, socks5,
// socks5h) or a bare host[:port] authority.
func ValidateProxy(addr string) error {
	if err := validateProxy(addr); err != nil {
		return &InvalidProxyError{Proxy: addr, Err: err}
	}
	return nil
}

func validateProxy(addr string) error {
	if strings.IndexFunc(addr, isSpace) >= 0 {
		return errWhitespace
	}
	if !strings.Contains(addr, "://") {
		return validateAuthority(addr)
	}

	u, err := url.Parse(addr)
	if err != nil {
		return err
	}
	switch u.Scheme {
	case "http", "https":
	case "socks5", "socks5h":
		if _, err := proxy.FromURL(u, proxy.Direct); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	return validateAuthority(u.Host)
}

func validateAuthority(authority string) error {
	host, port := authority, ""
	if h, p, err := net.SplitHostPort(authority); err == nil {
		host, port = h, p
	}
	if host == "" {
		return errEmptyHost
	}
	if port != "" {
		n, err := strconv.Atoi(port)
		if err != nil || n < 1 || n > 65535 {
			return errInvalidPort
		}
	}
	if strings.HasPrefix(host, "[") && strings.HasSuffix(host, "]") {
		if net.ParseIP(host[1:len(host)-1]) == nil {
			return fmt.Errorf("invalid IPv6 literal %q", host)
		}
		return nil
	}
	if net.ParseIP(host) != nil {
		return nil
	}
	if _, err := idna.Lookup.ToASCII(host); err != nil {
		return fmt.Errorf("invalid host %q: %w", host, err)
	}
	return nil
}

func isSpace(r rune) bool {
	return r == ' ' || r == '\t' || r == '\n' || r == '\r'
}
