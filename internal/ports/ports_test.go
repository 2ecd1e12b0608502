package ports_test

import (
	"net"
	"runtime"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/unity-showcase/devlauncher/internal/ports"
)

func listen(t *testing.T, network, addr string) int {
	t.Helper()
	ln, err := net.Listen(network, addr)
	if err != nil {
		t.Skipf("listen %s %s: %v", network, addr, err)
	}
	t.Cleanup(func() {
		_ = ln.Close()
	})
	return ln.Addr().(*net.TCPAddr).Port
}

// freePort returns a port which had a listener a moment ago and has none now.
func freePort(t *testing.T) int {
	t.Helper()
	ln, err := net.Listen("tcp4", "127.0.0.1:0")
	require.NoError(t, err)
	port := ln.Addr().(*net.TCPAddr).Port
	require.NoError(t, ln.Close())
	return port
}

func TestInUse(t *testing.T) {
	t.Parallel()
	ipv4 := listen(t, "tcp4", "127.0.0.1:0")
	free := freePort(t)

	got := ports.InUse(t.Context(), free, ipv4, 0, 70000)
	require.Equal(t, []int{ipv4}, got)
}

func TestInUse_IPv6(t *testing.T) {
	t.Parallel()
	ipv6 := listen(t, "tcp6", "[::1]:0")

	got := ports.InUse(t.Context(), ipv6)
	require.Equal(t, []int{ipv6}, got)
}

func TestInUse_Empty(t *testing.T) {
	t.Parallel()
	require.Empty(t, ports.InUse(t.Context()))
	require.Empty(t, ports.InUse(t.Context(), -1, 0))
}

func TestListeners(t *testing.T) {
	t.Parallel()
	ipv4 := listen(t, "tcp4", "127.0.0.1:0")

	addrs, err := ports.Listeners()
	if runtime.GOOS != "linux" {
		require.Error(t, err)
		return
	}
	if err != nil {
		t.Skipf("netlink not available: %s", err)
	}
	var seen bool
	for _, ap := range addrs {
		if int(ap.Port()) == ipv4 {
			seen = true
		}
	}
	require.Truef(t, seen, "port :%d was not listed", ipv4)
}
