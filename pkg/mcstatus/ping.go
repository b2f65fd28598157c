package mcstatus

import (
	"context"
	"fmt"
	"net"
	"net/netip"
)

// Ping dials addr over TCP, performs the Handshake + Status Request
// exchange, and returns the raw JSON text of the status response. The
// caller is responsible for parsing and sanitizing the JSON; Ping only
// speaks the wire protocol.
func Ping(ctx context.Context, addr netip.AddrPort, maxFrameSize int) (string, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr.String())
	if err != nil {
		return "", fmt.Errorf("connect: %w", err)
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		conn.SetDeadline(deadline)
	}

	handshake, err := BuildHandshake(addr.Addr().String(), addr.Port())
	if err != nil {
		return "", fmt.Errorf("build handshake: %w", err)
	}
	if _, err := conn.Write(handshake); err != nil {
		return "", fmt.Errorf("write handshake: %w", err)
	}
	if _, err := conn.Write(BuildStatusRequest()); err != nil {
		return "", fmt.Errorf("write status request: %w", err)
	}

	json, err := ReadStatusResponse(conn, maxFrameSize)
	if err != nil {
		return "", fmt.Errorf("read status response: %w", err)
	}
	return json, nil
}
