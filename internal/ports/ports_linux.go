package ports

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"net/netip"

	"github.com/mdlayher/netlink"
	"golang.org/x/sys/unix"
)

// Constants from linux/sock_diag.h and linux/inet_diag.h.
const (
	netlinkSockDiag  = unix.NETLINK_SOCK_DIAG
	sockDiagByFamily = 20
	tcpListen        = 10
	tcpfListen       = 1 << tcpListen

	// family, state, timer, retrans, sport, dport, src
	diagMsgMinLen = 4 + 2 + 2 + 16
)

// inet_diag_req_v2
type inetDiagReqV2 struct {
	Family   uint8
	Protocol uint8
	Ext      uint8
	Pad      uint8
	States   uint32
	ID       inetDiagSockID
}

type inetDiagSockID struct {
	SPort  [2]byte
	DPort  [2]byte
	Src    [16]byte
	Dst    [16]byte
	If     uint32
	Cookie [2]uint32
}

// Listeners dumps listening TCP sockets (IPv4 and IPv6) from the kernel
// via netlink. It errors when netlink is not accessible.
func Listeners() ([]netip.AddrPort, error) {
	fours, err := listening(unix.AF_INET)
	if err != nil {
		return nil, fmt.Errorf("dump listening sockets for ipv4: %w", err)
	}
	sixes, err := listening(unix.AF_INET6)
	if err != nil {
		return nil, fmt.Errorf("dump listening sockets for ipv6: %w", err)
	}
	return append(fours, sixes...), nil
}

func listening(family uint8) ([]netip.AddrPort, error) {
	iplen := 4
	if family == unix.AF_INET6 {
		iplen = 16
	}

	c, err := netlink.Dial(netlinkSockDiag, nil)
	if err != nil {
		return nil, fmt.Errorf("dial: %w", err)
	}
	defer func() {
		_ = c.Close()
	}()

	req := inetDiagReqV2{
		Family:   family,
		Protocol: unix.IPPROTO_TCP,
		States:   tcpfListen,
	}
	buf := new(bytes.Buffer)
	if err := binary.Write(buf, binary.NativeEndian, req); err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	msgs, err := c.Execute(netlink.Message{
		Header: netlink.Header{
			Type:  sockDiagByFamily,
			Flags: netlink.Request | netlink.Dump,
		},
		Data: buf.Bytes(),
	})
	if err != nil {
		return nil, fmt.Errorf("execute: %w", err)
	}

	ret := make([]netip.AddrPort, 0, len(msgs))
	for _, m := range msgs {
		if m.Header.Type == netlink.Done || len(m.Data) < diagMsgMinLen {
			continue
		}
		port := binary.BigEndian.Uint16(m.Data[4:6])
		addr, ok := netip.AddrFromSlice(m.Data[8 : 8+iplen])
		if !ok {
			return nil, fmt.Errorf("invalid address %x", m.Data[8:8+iplen])
		}
		ret = append(ret, netip.AddrPortFrom(addr, port))
	}
	return ret, nil
}
