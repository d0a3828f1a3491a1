package analyzer

import (
	"bytes"
	"compress/flate"
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/andybalholm/brotli"
	"golang.org/x/net/html/charset"
)

const (
	DefaultUserAgent    = "Mozilla/5.0 (compatible; SEO-Analyzer/1.0)"
	DefaultFetchTimeout = 10 * time.Second
	DefaultMaxBodyBytes = 5 * 1024 * 1024
)

// Page is a fetched HTML document.
type Page struct {
	HTML        string
	FinalURL    *url.URL
	StatusCode  int
	ContentType string
}

// Fetcher retrieves the HTML of a validated URL.
type Fetcher interface {
	Fetch(ctx context.Context, u *url.URL) (*Page, error)
}

// FetchOptions controls HTTP fetching.
type FetchOptions struct {
	UserAgent    string
	Timeout      time.Duration
	MaxBodyBytes int64
	// Transport overrides the default transport, mainly for tests.
	Transport http.RoundTripper
}

// HTTPFetcher implements Fetcher with net/http.
type HTTPFetcher struct {
	client       *http.Client
	userAgent    string
	timeout      time.Duration
	maxBodyBytes int64
}

// NewHTTPFetcher builds a fetcher; zero options fall back to the defaults.
func NewHTTPFetcher(opts FetchOptions) *HTTPFetcher {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultFetchTimeout
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}

	transport := opts.Transport
	if transport == nil {
		transport = &http.Transport{
			Proxy:                 http.ProxyFromEnvironment,
			DialContext:           (&net.Dialer{Timeout: opts.Timeout, KeepAlive: 30 * time.Second}).DialContext,
			MaxIdleConns:          100,
			MaxIdleConnsPerHost:   10,
			IdleConnTimeout:       90 * time.Second,
			TLSHandshakeTimeout:   opts.Timeout,
			ExpectContinueTimeout: 1 * time.Second,
		}
	}

	return &HTTPFetcher{
		client: &http.Client{
			Timeout:   opts.Timeout,
			Transport: transport,
		},
		userAgent:    opts.UserAgent,
		timeout:      opts.Timeout,
		maxBodyBytes: opts.MaxBodyBytes,
	}
}

// Fetch downloads u, following redirects.
func (f *HTTPFetcher) Fetch(ctx context.Context, u *url.URL) (*Page, error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, newError(KindUnknown, msgUnknown, fmt.Errorf("build request: %w", err))
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Encoding", "gzip, deflate, br")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, classifyTransportError(ctx, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &Error{
			Kind:       KindFetchFailed,
			Message:    fmt.Sprintf("Failed to fetch URL: %d %s", resp.StatusCode, http.StatusText(resp.StatusCode)),
			StatusCode: resp.StatusCode,
		}
	}

	contentType := resp.Header.Get("Content-Type")
	if !strings.Contains(strings.ToLower(contentType), "text/html") {
		return nil, newError(KindUnsupportedContentType, msgUnsupportedContent, nil)
	}

	if resp.ContentLength > f.maxBodyBytes {
		return nil, newError(KindPayloadTooLarge, msgPayloadTooLarge, nil)
	}

	body, err := f.readBody(resp)
	if err != nil {
		var e *Error
		if errors.As(err, &e) {
			return nil, e
		}
		return nil, classifyTransportError(ctx, err)
	}

	finalURL := u
	if resp.Request != nil && resp.Request.URL != nil {
		finalURL = resp.Request.URL
	}

	return &Page{
		HTML:        decodeCharset(body, contentType),
		FinalURL:    finalURL,
		StatusCode:  resp.StatusCode,
		ContentType: contentType,
	}, nil
}

func (f *HTTPFetcher) readBody(resp *http.Response) ([]byte, error) {
	src := &bodyReader{r: resp.Body}
	reader := io.Reader(src)

	encoding := strings.ToLower(strings.TrimSpace(resp.Header.Get("Content-Encoding")))
	switch encoding {
	case "gzip":
		gz, err := gzip.NewReader(src)
		if err != nil {
			return nil, decodeError(src, encoding, err)
		}
		defer gz.Close()
		reader = gz
	case "br":
		reader = brotli.NewReader(src)
	case "deflate":
		fl := flate.NewReader(src)
		defer fl.Close()
		reader = fl
	}

	body, err := io.ReadAll(io.LimitReader(reader, f.maxBodyBytes+1))
	if err != nil {
		return nil, decodeError(src, encoding, err)
	}
	if int64(len(body)) > f.maxBodyBytes {
		return nil, newError(KindPayloadTooLarge, msgPayloadTooLarge, nil)
	}
	return body, nil
}

// bodyReader remembers the last error the response body itself returned.
type bodyReader struct {
	r   io.Reader
	err error
}

func (b *bodyReader) Read(p []byte) (int, error) {
	n, err := b.r.Read(p)
	if err != nil && err != io.EOF {
		b.err = err
	}
	return n, err
}

// decodeError keeps transport failures as plain errors for classifyTransportError.
// Anything else came from a decoder rejecting what the server sent.
func decodeError(src *bodyReader, encoding string, err error) error {
	if src.err != nil {
		return fmt.Errorf("read body: %w", err)
	}
	return newError(KindUnknown, msgUnknown, fmt.Errorf("decode %s body: %w", encoding, err))
}

// decodeCharset converts body to UTF-8 using the declared or sniffed charset.
func decodeCharset(body []byte, contentType string) string {
	r, err := charset.NewReader(bytes.NewReader(body), contentType)
	if err != nil {
		return string(body)
	}
	decoded, err := io.ReadAll(r)
	if err != nil {
		return string(body)
	}
	return string(decoded)
}

func classifyTransportError(ctx context.Context, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return newError(KindTimeout, msgTimeout, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return newError(KindTimeout, msgTimeout, err)
	}
	if errors.Is(err, context.Canceled) {
		return newError(KindUnknown, msgUnknown, err)
	}
	return newError(KindUnreachable, msgUnreachable, err)
}
