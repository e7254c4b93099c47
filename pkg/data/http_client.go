package data

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// Browser-like User-Agent; some sources reject the resty default
const browserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/133.0.0.0 Safari/537.36"

// HTTPOptions configures the HTTP-backed providers
type HTTPOptions struct {
	Timeout time.Duration
	Retries int
	// BaseURL overrides the provider endpoint (used by tests and mirrors)
	BaseURL string
}

func (o HTTPOptions) withDefaults() HTTPOptions {
	if o.Timeout <= 0 {
		o.Timeout = 30 * time.Second
	}
	if o.Retries < 0 {
		o.Retries = 0
	}
	return o
}

func newRestyClient(opts HTTPOptions) *resty.Client {
	opts = opts.withDefaults()
	client := resty.New()
	client.SetTimeout(opts.Timeout)
	client.SetRetryCount(opts.Retries)
	client.SetRetryWaitTime(time.Second)
	client.SetRetryMaxWaitTime(10 * time.Second)
	client.SetHeader("User-Agent", browserUserAgent)
	client.SetHeader("Accept", "*/*")
	client.SetHeader("Accept-Language", "en-US,en;q=0.9")
	return client
}

// flexFloat decodes a JSON number or a numeric string
type flexFloat struct {
	Value float64
	Valid bool
}

func (f *flexFloat) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "null" || s == `""` {
		return nil
	}
	if strings.HasPrefix(s, `"`) {
		var str string
		if err := json.Unmarshal(b, &str); err != nil {
			return err
		}
		s = strings.TrimSpace(str)
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		// unparseable values are dropped by callers, not fatal
		return nil
	}
	f.Value, f.Valid = v, true
	return nil
}

func httpStatusError(source string, status int, body string) error {
	if len(body) > 200 {
		body = body[:200]
	}
	return fmt.Errorf("%s: status %d, body: %s", source, status, body)
}
