package upstream

import (
	"net/http"
	"time"

	"github.com/doyensec/safeurl"
)

// Doer sends a request. *http.Client and *safeurl.WrappedClient both satisfy it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Subscription panels commonly listen on non-standard ports, so every port is
// allowed; the guard only filters by resolved IP.
var allPorts = func() []int {
	ports := make([]int, 0, 65535)
	for p := 1; p <= 65535; p++ {
		ports = append(ports, p)
	}
	return ports
}()

// NewClient returns the client used to fetch subscription URLs.
// With guard enabled, only http and https URLs without embedded credentials
// are accepted, and connections to private, loopback and link-local
// addresses are refused after DNS resolution.
func NewClient(timeout time.Duration, guard bool) Doer {
	if !guard {
		return &http.Client{Timeout: timeout}
	}
	cfg := safeurl.GetConfigBuilder().
		SetTimeout(timeout).
		SetAllowedSchemes("http", "https").
		SetAllowedPorts(allPorts...).
		Build()
	return safeurl.Client(cfg)
}
