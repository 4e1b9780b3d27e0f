// Package http builds the outbound HTTP client used by the scraper.
package http

import (
	"net"
	"net/http"
	"net/http/cookiejar"
	"time"
)

// NewHTTPClient returns a client with explicit dial and TLS timeouts, an overall
// timeout, and a cookie jar.
//
// http.DefaultClient has no timeout; never use it for outbound calls.
func NewHTTPClient(timeout time.Duration) *http.Client {
	t := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   5 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:          10,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   5 * time.Second,
		ResponseHeaderTimeout: timeout,
	}
	jar, _ := cookiejar.New(nil)
	return &http.Client{Timeout: timeout, Transport: t, Jar: jar}
}
