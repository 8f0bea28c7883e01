// Package util provides logging, HTTP sessions, naming and timing helpers
package util

import (
	"crypto/tls"
	"net"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
)

// DefaultUserAgent is the browser identity the site expects
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 6.1; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) " +
	"Chrome/72.0.3626.121 Safari/537.36"

// SessionConfig describes one HTTP session against the site
type SessionConfig struct {
	// Timeout bounds a whole request; 0 disables it (used for video streams).
	Timeout   time.Duration
	UserAgent string
	Headers   map[string]string
}

// httpClientConfig holds configuration for creating HTTP transports
type httpClientConfig struct {
	maxIdleConns        int
	maxIdleConnsPerHost int
	idleConnTimeout     time.Duration
	tlsHandshakeTimeout time.Duration
	expectContinue      time.Duration
	keepAlive           time.Duration
	dialTimeout         time.Duration
}

func defaultConfig() httpClientConfig {
	return httpClientConfig{
		maxIdleConns:        4,
		maxIdleConnsPerHost: 2,
		idleConnTimeout:     30 * time.Second,
		tlsHandshakeTimeout: 10 * time.Second,
		expectContinue:      1 * time.Second,
		keepAlive:           30 * time.Second,
		dialTimeout:         10 * time.Second,
	}
}

// createTransport creates an HTTP transport with the given config
func createTransport(cfg httpClientConfig) *http.Transport {
	return &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   cfg.dialTimeout,
			KeepAlive: cfg.keepAlive,
		}).DialContext,
		MaxIdleConns:          cfg.maxIdleConns,
		MaxIdleConnsPerHost:   cfg.maxIdleConnsPerHost,
		IdleConnTimeout:       cfg.idleConnTimeout,
		TLSHandshakeTimeout:   cfg.tlsHandshakeTimeout,
		ExpectContinueTimeout: cfg.expectContinue,
		ForceAttemptHTTP2:     true,
		TLSClientConfig: &tls.Config{
			MinVersion: tls.VersionTLS12,
		},
	}
}

// NewSession returns a resty client with its own transport and no cookie jar.
// Every logical session of the protocol gets a new one; cookies that must
// survive between requests are forwarded explicitly by the caller.
func NewSession(cfg SessionConfig) *resty.Client {
	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}

	client := resty.New().
		SetTransport(createTransport(defaultConfig())).
		SetCookieJar(nil).
		SetTimeout(cfg.Timeout).
		SetLogger(RestyLogger{}).
		SetHeader("User-Agent", userAgent)

	if len(cfg.Headers) > 0 {
		client.SetHeaders(cfg.Headers)
	}
	return client
}
