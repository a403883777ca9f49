package llm

import (
	"net/http"
	"time"

	"github.com/ppiankov/gwaln/internal/util"
)

// newHTTPClient builds the client every provider talks through. A zero
// timeout leaves deadlines to the request context.
func newHTTPClient(config Config, timeout time.Duration) *http.Client {
	return util.NewHTTPClient(util.ClientOptions{
		Timeout:    timeout,
		HTTPProxy:  config.HTTPProxy,
		HTTPSProxy: config.HTTPSProxy,
		NoProxy:    config.NoProxy,
	})
}

func timeoutOf(config Config, fallback time.Duration) time.Duration {
	if config.Timeout > 0 {
		return time.Duration(config.Timeout) * time.Second
	}
	return fallback
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func firstPositive(values ...int) int {
	for _, v := range values {
		if v > 0 {
			return v
		}
	}
	return 0
}
