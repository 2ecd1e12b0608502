//go:build !linux

package ports

import (
	"errors"
	"net/netip"
)

// Listeners is available only on Linux; callers fall back to dialing.
func Listeners() ([]netip.AddrPort, error) {
	return nil, errors.New("listing sockets via netlink is available only on Linux")
}
