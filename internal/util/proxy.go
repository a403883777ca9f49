package util

import (
	"crypto/tls"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/net/http/httpproxy"
)

// NewProxyFunc creates a proxy function based on configuration.
// If no proxy URLs are provided, falls back to environment variables.
// An HTTP-only proxy also serves https requests; hosts matching noProxy
// (and loopback addresses) are reached directly.
func NewProxyFunc(httpProxy, httpsProxy, noProxy string) func(*http.Request) (*url.URL, error) {
	if httpProxy == "" && httpsProxy == "" {
		return http.ProxyFromEnvironment
	}
	if httpsProxy == "" {
		httpsProxy = httpProxy
	}

	proxy := (&httpproxy.Config{
		HTTPProxy:  httpProxy,
		HTTPSProxy: httpsProxy,
		NoProxy:    noProxy,
	}).ProxyFunc()

	return func(req *http.Request) (*url.URL, error) {
		return proxy(req.URL)
	}
}

// ClientOptions configures NewHTTPClient
type ClientOptions struct {
	Timeout     time.Duration
	InsecureTLS bool
	HTTPProxy   string
	HTTPSProxy  string
	NoProxy     string
}

// NewHTTPClient builds an HTTP client with proxy and TLS settings applied
func NewHTTPClient(opts ClientOptions) *http.Client {
	transport := &http.Transport{
		Proxy:               NewProxyFunc(opts.HTTPProxy, opts.HTTPSProxy, opts.NoProxy),
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
	}
	if opts.InsecureTLS {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	}

	return &http.Client{
		Timeout:   opts.Timeout,
		Transport: transport,
	}
}
