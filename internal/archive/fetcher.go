package archive

import (
	"context"
	"io"
	"net"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"
)

const (
	fetchTimeout  = 60 * time.Second
	maxFetchBytes = 32 << 20 // 32 MiB per document
	userAgent     = "Mozilla/5.0 (compatible; AssessorAI/1.0)"
)

// Fetcher downloads original documents with per-host politeness throttling.
// A fetch failure is never fatal to a record: the caller records the
// artifact path anyway and a later re-run retries against the same
// deterministic path.
type Fetcher struct {
	client *http.Client

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	perHost  rate.Limit
	burst    int
}

// NewFetcher creates a Fetcher allowing roughly one request per delay per
// host.
func NewFetcher(delay time.Duration) *Fetcher {
	if delay <= 0 {
		delay = time.Second
	}
	return &Fetcher{
		client: &http.Client{
			Timeout: fetchTimeout,
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout: 10 * time.Second,
				}).DialContext,
				TLSHandshakeTimeout: 10 * time.Second,
			},
		},
		limiters: make(map[string]*rate.Limiter),
		perHost:  rate.Every(delay),
		burst:    1,
	}
}

// Fetch downloads one document URL, honoring the per-host limiter.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, eris.Wrapf(err, "fetch: parse url %s", rawURL)
	}

	if err := f.limiter(u.Host).Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "fetch: rate wait")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, eris.Wrap(err, "fetch: create request")
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, eris.Wrapf(err, "fetch: get %s", rawURL)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, eris.Errorf("fetch: %s returned status %d", rawURL, resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxFetchBytes))
	if err != nil {
		return nil, eris.Wrapf(err, "fetch: read body %s", rawURL)
	}
	return data, nil
}

func (f *Fetcher) limiter(host string) *rate.Limiter {
	f.mu.Lock()
	defer f.mu.Unlock()
	l, ok := f.limiters[host]
	if !ok {
		l = rate.NewLimiter(f.perHost, f.burst)
		f.limiters[host] = l
	}
	return l
}
