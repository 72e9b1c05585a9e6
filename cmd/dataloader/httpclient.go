package main

import (
	"net"
	"net/http"
	"time"
)

// Large XLSX imports can take a while on the backend side, so the overall
// timeout is generous while the dial and TLS handshakes stay tight.
func newHTTPClient() *http.Client {
	return &http.Client{
		Timeout: 5 * time.Minute,
		Transport: &http.Transport{
			DialContext: (&net.Dialer{
				Timeout:   10 * time.Second,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			TLSHandshakeTimeout:   10 * time.Second,
			ResponseHeaderTimeout: 5 * time.Minute,
			MaxIdleConns:          10,
			IdleConnTimeout:       90 * time.Second,
		},
	}
}
