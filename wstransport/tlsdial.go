/*
 * Copyright (c) 2025, shapedmesh contributors.
 * All rights reserved. See state.go for the license text.
 */

package wstransport

import (
	"context"
	"net"

	utls "gitlab.com/yawning/utls.git"
)

// fingerprintedDialTLS returns a gorilla/websocket Dialer.NetDialTLSContext
// function that performs the TLS handshake itself using utls with a
// browser ClientHelloID, so the outer TLS fingerprint (extension order,
// cipher suite list, curve preferences) matches an ordinary browser
// instead of Go's net/http default, the way meeklite's dialTLS picks a
// ClientHelloID for its outer HTTPS transport.
func fingerprintedDialTLS(helloID utls.ClientHelloID) func(ctx context.Context, network, addr string) (net.Conn, error) {
	return func(ctx context.Context, network, addr string) (net.Conn, error) {
		var d net.Dialer
		rawConn, err := d.DialContext(ctx, network, addr)
		if err != nil {
			return nil, err
		}

		host, _, err := net.SplitHostPort(addr)
		if err != nil {
			host = addr
		}

		conn := utls.UClient(rawConn, &utls.Config{
			ServerName:                  host,
			DynamicRecordSizingDisabled: true,
		}, helloID)

		if err := conn.Handshake(); err != nil {
			conn.Close()
			return nil, err
		}
		return conn, nil
	}
}

/* vim :set ts=4 sw=4 sts=4 noet : */
