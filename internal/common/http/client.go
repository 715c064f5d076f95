// internal/common/http/client.go
package http

import (
	"net"
	"net/http"
	"time"
)

// Options tunes the shared outbound transport.
type Options struct {
	ConnectTimeout        time.Duration
	TLSHandshakeTimeout   time.Duration
	ResponseHeaderTimeout time.Duration
	MaxIdleConns          int
	MaxIdleConnsPerHost   int
}

// Client owns the single pooled *http.Client that the agent, LINE and Sheets clients share.
type Client struct {
	httpClient *http.Client
}

func NewClient(opts Options) *Client {
	dialer := &net.Dialer{
		Timeout:   opts.ConnectTimeout,
		KeepAlive: 30 * time.Second,
	}

	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           dialer.DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          opts.MaxIdleConns,
		MaxIdleConnsPerHost:   opts.MaxIdleConnsPerHost,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   opts.TLSHandshakeTimeout,
		ResponseHeaderTimeout: opts.ResponseHeaderTimeout,
		ExpectContinueTimeout: time.Second,
	}

	// per-call deadlines come from the request context
	return &Client{httpClient: &http.Client{Transport: transport}}
}

// HTTPClient exposes the pooled client for injection.
func (c *Client) HTTPClient() *http.Client {
	return c.httpClient
}

// CloseIdle drops pooled connections on shutdown.
func (c *Client) CloseIdle() {
	c.httpClient.CloseIdleConnections()
}
