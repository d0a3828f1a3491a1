package analyzer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
)

type fakeFetcher struct {
	mu    sync.Mutex
	calls int
	page  *Page
	err   error
}

func (f *fakeFetcher) Fetch(_ context.Context, u *url.URL) (*Page, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	if f.page.FinalURL == nil {
		p := *f.page
		p.FinalURL = u
		return &p, nil
	}
	return f.page, nil
}

func publicResolver() *fakeResolver {
	return resolveTo("example.com", "93.184.216.34")
}

func TestAnalyzeRejectsSchemeBeforeFetching(t *testing.T) {
	fetcher := &fakeFetcher{page: &Page{}}
	a := New(WithResolver(publicResolver()), WithFetcher(fetcher))

	for _, input := range []string{"ftp://example.com", "gopher://example.com", "file:///tmp/x"} {
		_, err := a.Analyze(context.Background(), input)
		if !IsKind(err, KindInvalidScheme) {
			t.Errorf("%s: expected invalid_scheme, got %v", input, err)
		}
	}
	if fetcher.calls != 0 {
		t.Errorf("Expected no fetch calls, got %d", fetcher.calls)
	}
}

func TestAnalyzeRejectsPrivateHostBeforeFetching(t *testing.T) {
	fetcher := &fakeFetcher{page: &Page{}}
	a := New(WithResolver(resolveTo("intranet.example.com", "192.168.0.10")), WithFetcher(fetcher))

	_, err := a.Analyze(context.Background(), "http://intranet.example.com/")
	if !IsKind(err, KindBlockedHost) {
		t.Fatalf("Expected blocked_host, got %v", err)
	}
	if fetcher.calls != 0 {
		t.Errorf("Expected no fetch calls, got %d", fetcher.calls)
	}
}

func TestAnalyzeUsesFinalURL(t *testing.T) {
	final, _ := url.Parse("https://example.com/a/b")
	fetcher := &fakeFetcher{page: &Page{
		HTML:     `<title>Short</title><meta property="og:image" content="/img.png">`,
		FinalURL: final,
	}}
	a := New(WithResolver(publicResolver()), WithFetcher(fetcher))

	res, err := a.Analyze(context.Background(), "http://example.com/start")
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	if res.Analysis.URL != "https://example.com/a/b" {
		t.Errorf("Expected final URL, got %s", res.Analysis.URL)
	}
	if res.Analysis.OGImage != "https://example.com/img.png" {
		t.Errorf("Expected resolved og:image, got %s", res.Analysis.OGImage)
	}
	if res.Score.Categories.Twitter != 20 {
		t.Errorf("Expected twitter fallback credit of 20, got %d", res.Score.Categories.Twitter)
	}
	if fetcher.calls != 1 {
		t.Errorf("Expected one fetch, got %d", fetcher.calls)
	}
}

func TestAnalyzeWrapsUnknownFetchErrors(t *testing.T) {
	fetcher := &fakeFetcher{err: errors.New("boom")}
	a := New(WithResolver(publicResolver()), WithFetcher(fetcher))

	_, err := a.Analyze(context.Background(), "https://example.com")
	if !IsKind(err, KindUnknown) {
		t.Fatalf("Expected unknown, got %v", err)
	}
	if err.Error() != msgUnknown {
		t.Errorf("Unexpected message %q", err.Error())
	}
}

func TestAnalyzePassesThroughFetchErrors(t *testing.T) {
	fetcher := &fakeFetcher{err: newError(KindTimeout, msgTimeout, context.DeadlineExceeded)}
	a := New(WithResolver(publicResolver()), WithFetcher(fetcher))

	_, err := a.Analyze(context.Background(), "https://example.com")
	if !errors.Is(err, &Error{Kind: KindTimeout}) {
		t.Fatalf("Expected timeout, got %v", err)
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Error("Expected the cause to be preserved")
	}
}

func TestAnalyzeEndToEnd(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		io.WriteString(w, fullPage)
	}))
	defer srv.Close()

	// The test server listens on loopback; a failing lookup defers to the fetch.
	a := New(WithResolver(&fakeResolver{err: errors.New("offline")}))
	srvURL, _ := url.Parse(srv.URL)
	host, port, _ := net.SplitHostPort(srvURL.Host)
	if host != "127.0.0.1" {
		t.Skipf("unexpected test server host %s", host)
	}

	res, err := a.Analyze(context.Background(), fmt.Sprintf("http://127.0.0.1:%s/a/b", port))
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	if res.Analysis.OGImage != fmt.Sprintf("http://127.0.0.1:%s/img.png", port) {
		t.Errorf("Unexpected og:image %s", res.Analysis.OGImage)
	}
	if len(res.Issues) == 0 {
		t.Error("Expected issues")
	}
	counts := res.Counts()
	total := 0
	for _, c := range counts {
		total += c
	}
	if total != len(res.Issues) {
		t.Errorf("Counts do not add up: %v vs %d", counts, len(res.Issues))
	}
}

func TestAnalyzeConcurrentRequestsAreIndependent(t *testing.T) {
	fetcher := &fakeFetcher{page: &Page{HTML: "<title>Concurrent</title>"}}
	a := New(WithResolver(publicResolver()), WithFetcher(fetcher))

	const n = 20
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := a.Analyze(context.Background(), "https://example.com/"); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Errorf("Concurrent analysis error: %v", err)
	}
	if fetcher.calls != n {
		t.Errorf("Expected %d independent fetches, got %d", n, fetcher.calls)
	}
}
