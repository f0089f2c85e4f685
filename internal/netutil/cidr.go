package netutil

import (
	"fmt"
	"net/netip"
	"strconv"
	"strings"
)

// maxHosts caps a single expansion so a typo like /8 doesn't queue 16M targets.
const maxHosts = 1 << 16

// ExpandTargets takes a CIDR range (or single IP) and a port list, and
// returns the base URLs to scan. Ports 443 and 8443 get https, everything
// else http. An empty port list means port 80.
func ExpandTargets(cidr, portsStr string) ([]string, error) {
	prefix, err := parsePrefix(cidr)
	if err != nil {
		return nil, err
	}

	ports, err := ParsePorts(portsStr)
	if err != nil {
		return nil, err
	}
	if len(ports) == 0 {
		ports = []int{80}
	}

	hostBits := prefix.Addr().BitLen() - prefix.Bits()
	if hostBits > 16 {
		return nil, fmt.Errorf("range %s too large (max %d hosts)", prefix, maxHosts)
	}

	var urls []string
	first := prefix.Masked().Addr()
	last := lastAddr(prefix)
	for ip := first; prefix.Contains(ip); ip = ip.Next() {
		// Skip network and broadcast addresses for /30 and larger.
		if hostBits > 1 && (ip == first || ip == last) {
			continue
		}
		for _, port := range ports {
			urls = append(urls, targetURL(ip, port))
		}
		if ip == last {
			break
		}
	}
	return urls, nil
}

// ParsePorts parses "80,8080,9000-9002" into a port list.
func ParsePorts(s string) ([]int, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	var ports []int
	seen := make(map[int]struct{})
	add := func(p int) {
		if _, ok := seen[p]; !ok {
			seen[p] = struct{}{}
			ports = append(ports, p)
		}
	}
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		lo, hi, isRange := strings.Cut(part, "-")
		start, err := parsePort(lo)
		if err != nil {
			return nil, err
		}
		end := start
		if isRange {
			if end, err = parsePort(hi); err != nil {
				return nil, err
			}
			if end < start {
				return nil, fmt.Errorf("invalid port range %q", part)
			}
		}
		for p := start; p <= end; p++ {
			add(p)
		}
	}
	return ports, nil
}

func parsePort(s string) (int, error) {
	p, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || p <= 0 || p > 65535 {
		return 0, fmt.Errorf("invalid port %q", s)
	}
	return p, nil
}

func parsePrefix(s string) (netip.Prefix, error) {
	s = strings.TrimSpace(s)
	if prefix, err := netip.ParsePrefix(s); err == nil {
		return prefix, nil
	}
	// Maybe it's a single IP, not a CIDR.
	addr, err := netip.ParseAddr(s)
	if err != nil {
		return netip.Prefix{}, fmt.Errorf("invalid CIDR or IP: %q", s)
	}
	return netip.PrefixFrom(addr, addr.BitLen()), nil
}

func lastAddr(p netip.Prefix) netip.Addr {
	b := p.Masked().Addr().AsSlice()
	hostBits := len(b)*8 - p.Bits()
	for i := len(b) - 1; i >= 0 && hostBits > 0; i-- {
		n := min(hostBits, 8)
		b[i] |= byte(1<<n - 1)
		hostBits -= n
	}
	addr, _ := netip.AddrFromSlice(b)
	return addr
}

func targetURL(ip netip.Addr, port int) string {
	scheme := "http"
	if port == 443 || port == 8443 {
		scheme = "https"
	}
	host := ip.String()
	if ip.Is6() {
		host = "[" + host + "]"
	}
	// Skip default port in URL for cleanliness.
	if (scheme == "http" && port == 80) || (scheme == "https" && port == 443) {
		return scheme + "://" + host
	}
	return fmt.Sprintf("%s://%s:%d", scheme, host, port)
}
