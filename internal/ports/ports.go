package ports

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/netip"
	"slices"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

const (
	dialTimeout = 300 * time.Millisecond
	dialLimit   = 8
)

var errNotListening = errors.New("not listening")

// loopback addresses probed by the dial fallback
var loopback = []netip.Addr{
	netip.AddrFrom4([4]byte{127, 0, 0, 1}),
	netip.IPv6Loopback(),
}

// InUse reports which of the given TCP ports already have a local listener.
// On Linux the listening sockets are dumped from the kernel via netlink;
// elsewhere, or when netlink is not accessible, each port is dialed on the
// loopback addresses.
//
// The result is sorted and contains only ports found in use.
func InUse(ctx context.Context, ports ...int) []int {
	wanted := make(map[uint16]struct{}, len(ports))
	for _, p := range ports {
		if p > 0 && p <= 65535 {
			wanted[uint16(p)] = struct{}{}
		}
	}
	if len(wanted) == 0 {
		return nil
	}

	var found []int
	if addrs, err := Listeners(); err == nil {
		seen := make(map[uint16]struct{})
		for _, ap := range addrs {
			if _, ok := wanted[ap.Port()]; !ok {
				continue
			}
			if _, dup := seen[ap.Port()]; dup {
				continue
			}
			seen[ap.Port()] = struct{}{}
			found = append(found, int(ap.Port()))
		}
	} else {
		slog.DebugContext(ctx, "netlink access failed, using dial fallback", "err", err)
		found = dialAll(ctx, wanted)
	}
	slices.Sort(found)
	return found
}

func dialAll(ctx context.Context, wanted map[uint16]struct{}) []int {
	var (
		mx    sync.Mutex
		found = make(map[uint16]struct{})
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(dialLimit)
	for port := range wanted {
		for _, addr := range loopback {
			g.Go(func() error {
				ap := netip.AddrPortFrom(addr, port)
				if err := dial(gctx, ap); err != nil {
					return nil
				}
				mx.Lock()
				found[port] = struct{}{}
				mx.Unlock()
				return nil
			})
		}
	}
	_ = g.Wait()

	ret := make([]int, 0, len(found))
	for port := range found {
		ret = append(ret, int(port))
	}
	return ret
}

func dial(ctx context.Context, ap netip.AddrPort) error {
	d := net.Dialer{Timeout: dialTimeout}
	conn, err := d.DialContext(ctx, "tcp", net.JoinHostPort(ap.Addr().String(), strconv.Itoa(int(ap.Port()))))
	if err != nil {
		return errNotListening
	}
	return conn.Close()
}
