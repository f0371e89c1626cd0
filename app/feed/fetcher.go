package feed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

const DefaultRequestTimeout = 5000 * time.Millisecond

// proxyEnvelope is the JSON body returned by allorigins-style CORS proxies.
type proxyEnvelope struct {
	Contents *string `json:"contents"`
	Status   struct {
		URL      string `json:"url"`
		HTTPCode int    `json:"http_code"`
	} `json:"status"`
}

type Fetcher struct {
	httpClient *http.Client
	proxyURL   string
	userAgent  string
	timeout    time.Duration
}

// NewFetcher builds a fetcher that routes requests through proxyURL.
// An empty proxyURL fetches targets directly.
func NewFetcher(httpClient *http.Client, proxyURL, userAgent string, timeout time.Duration) *Fetcher {
	if httpClient == nil {
		httpClient = &http.Client{
			Transport: &http.Transport{
				MaxIdleConns:        10,
				IdleConnTimeout:     30 * time.Second,
				MaxIdleConnsPerHost: 5,
			},
		}
	}
	if timeout <= 0 {
		timeout = DefaultRequestTimeout
	}

	return &Fetcher{
		httpClient: httpClient,
		proxyURL:   proxyURL,
		userAgent:  userAgent,
		timeout:    timeout,
	}
}

func (f *Fetcher) Run(ctx context.Context, target string) ([]byte, error) {
	timeoutCtx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	if f.proxyURL == "" {
		data, err := f.get(timeoutCtx, target, "application/rss+xml, application/atom+xml, application/xml, text/xml")
		if err != nil {
			return nil, classify(timeoutCtx, err)
		}
		return data, nil
	}

	requestURL, err := f.wrapURL(target)
	if err != nil {
		return nil, NewError(ErrorKindNetwork, err)
	}

	data, err := f.get(timeoutCtx, requestURL, "application/json")
	if err != nil {
		return nil, classify(timeoutCtx, err)
	}

	var envelope proxyEnvelope
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, NewError(ErrorKindNetwork, fmt.Errorf("failed to decode proxy response: %w", err))
	}

	if envelope.Status.HTTPCode >= http.StatusBadRequest {
		return nil, NewError(ErrorKindNetwork, fmt.Errorf("upstream HTTP error: %d", envelope.Status.HTTPCode))
	}

	if envelope.Contents == nil {
		return nil, NewError(ErrorKindNetwork, fmt.Errorf("proxy response has no contents"))
	}

	return []byte(*envelope.Contents), nil
}

func (f *Fetcher) wrapURL(target string) (string, error) {
	proxy, err := url.Parse(f.proxyURL)
	if err != nil {
		return "", fmt.Errorf("invalid proxy URL: %w", err)
	}

	query := proxy.Query()
	query.Set("url", target)
	query.Set("disableCache", "true")
	proxy.RawQuery = query.Encode()

	return proxy.String(), nil
}

func (f *Fetcher) get(ctx context.Context, requestURL, accept string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}
	req.Header.Set("Accept", accept)

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch URL: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, NewError(ErrorKindNetwork, fmt.Errorf("HTTP error: %d %s", resp.StatusCode, resp.Status))
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return data, nil
}

// classify maps transport failures onto Timeout or Network. A deadline hit on
// the request context always reads as Timeout, even when the client reports a
// generic connection error.
func classify(ctx context.Context, err error) error {
	if ctx.Err() == context.DeadlineExceeded {
		return NewError(ErrorKindTimeout, err)
	}

	var feedErr *Error
	if errors.As(err, &feedErr) {
		return err
	}

	if KindOf(err) == ErrorKindTimeout {
		return NewError(ErrorKindTimeout, err)
	}

	return NewError(ErrorKindNetwork, err)
}
