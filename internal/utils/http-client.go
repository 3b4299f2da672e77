package utils

import (
	"net"
	"net/http"
	"net/url"
	"time"
)

// PulldownHTTPClient issues plain GETs; no headers are added on top of the
// net/http defaults.
type PulldownHTTPClient struct {
	client *http.Client
}

func NewPulldownHTTPClient(cfg HTTPClientConfig) *PulldownHTTPClient {
	if cfg.Timeout == 0 {
		cfg.Timeout = 60 * time.Second
	}
	if cfg.KATimeout == 0 {
		cfg.KATimeout = 60 * time.Second
	}
	// client.Timeout is left unset; it would also cut off paused body reads
	transport := &http.Transport{
		DialContext: (&net.Dialer{
			Timeout:   cfg.Timeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   cfg.Timeout,
		ResponseHeaderTimeout: cfg.Timeout,
		IdleConnTimeout:       cfg.KATimeout,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   100,
		DisableCompression:    true,
	}
	if cfg.ProxyURL != "" {
		proxyURL, err := url.Parse(cfg.ProxyURL)
		if err != nil {
			log := GetLogger("http")
			log.Warn().Err(err).Str("proxy", cfg.ProxyURL).Msg("ignoring unparsable proxy url")
		} else {
			transport.Proxy = http.ProxyURL(proxyURL)
		}
	} else {
		transport.Proxy = http.ProxyFromEnvironment
	}
	return &PulldownHTTPClient{
		client: &http.Client{Transport: transport},
	}
}

func (p *PulldownHTTPClient) Do(req *http.Request) (*http.Response, error) {
	return p.client.Do(req)
}
