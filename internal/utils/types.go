package utils

import (
	"net/http"
	"time"
)

type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

type HTTPClientConfig struct {
	Timeout   time.Duration
	KATimeout time.Duration
	ProxyURL  string
}

type BatchEntry struct {
	Link string `yaml:"link"`
}

type BatchFile struct {
	Downloads []BatchEntry `yaml:"downloads"`
}
