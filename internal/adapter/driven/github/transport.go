package github

import (
	"bytes"
	"io"
	"log/slog"
	"math/rand"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"
)

// searchThrottleTransport is the outermost leg of the client's transport
// stack. It enforces the minimum interval between search calls, retries
// rate-limit and server errors with independent attempt counters, and tracks
// the adaptive quota reported by X-RateLimit-Remaining/-Reset. It sits above
// github_ratelimit (secondary/abuse-rate-limit handling) and httpcache
// (conditional GET caching), neither of which implements this policy.
type searchThrottleTransport struct {
	next http.RoundTripper

	throttleMu   sync.Mutex
	lastSearchAt time.Time
	minInterval  time.Duration

	quotaMu        sync.Mutex
	quotaRemaining int
	quotaReset     time.Time
	quotaKnown     bool
}

// newSearchThrottleTransport wraps next with the search throttle, retry, and
// adaptive-quota policy. minInterval is the minimum gap enforced between
// calls whose path contains "/search/".
func newSearchThrottleTransport(next http.RoundTripper, minInterval time.Duration) *searchThrottleTransport {
	return &searchThrottleTransport{next: next, minInterval: minInterval}
}

const (
	maxRateLimitAttempts = 7
	maxServerErrorAttempts = 3
	maxBackoffWait        = 300 * time.Second
)

func isSearchPath(path string) bool {
	return strings.Contains(path, "/search/")
}

// RoundTrip implements http.RoundTripper.
func (t *searchThrottleTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	search := isSearchPath(req.URL.Path)
	if search {
		t.throttle()
	}

	var bodyBytes []byte
	if req.Body != nil {
		b, err := io.ReadAll(req.Body)
		if err != nil {
			return nil, err
		}
		req.Body.Close()
		bodyBytes = b
	}
	rewind := func() {
		if bodyBytes != nil {
			req.Body = io.NopCloser(bytes.NewReader(bodyBytes))
		}
	}

	rateLimitAttempt := 0
	serverErrorAttempt := 0

	for {
		rewind()
		resp, err := t.next.RoundTrip(req)
		if err != nil {
			if serverErrorAttempt >= maxServerErrorAttempts {
				return resp, err
			}
			wait := backoffDuration(serverErrorAttempt)
			serverErrorAttempt++
			time.Sleep(wait)
			continue
		}

		t.trackQuota(resp)

		if resp.StatusCode == http.StatusTooManyRequests || isRateLimit403(resp) {
			if rateLimitAttempt >= maxRateLimitAttempts {
				return resp, nil
			}
			wait := rateLimitWait(resp, rateLimitAttempt)
			rateLimitAttempt++
			drainAndClose(resp)
			time.Sleep(wait)
			continue
		}

		if resp.StatusCode >= 500 {
			if serverErrorAttempt >= maxServerErrorAttempts {
				return resp, nil
			}
			wait := backoffDuration(serverErrorAttempt)
			serverErrorAttempt++
			drainAndClose(resp)
			time.Sleep(wait)
			continue
		}

		return resp, nil
	}
}

func (t *searchThrottleTransport) throttle() {
	t.throttleMu.Lock()
	defer t.throttleMu.Unlock()
	if t.lastSearchAt.IsZero() {
		t.lastSearchAt = time.Now()
		return
	}
	wait := t.minInterval - time.Since(t.lastSearchAt)
	if wait > 0 {
		time.Sleep(wait)
	}
	t.lastSearchAt = time.Now()
}

func (t *searchThrottleTransport) trackQuota(resp *http.Response) {
	remaining, rOK := parseIntHeader(resp.Header.Get("X-RateLimit-Remaining"))
	resetUnix, sOK := parseIntHeader(resp.Header.Get("X-RateLimit-Reset"))
	if !rOK {
		return
	}

	t.quotaMu.Lock()
	t.quotaRemaining = remaining
	if sOK {
		t.quotaReset = time.Unix(int64(resetUnix), 0)
	}
	t.quotaKnown = true
	reset := t.quotaReset
	t.quotaMu.Unlock()

	if remaining < 10 && sOK {
		wait := time.Until(reset) + time.Second
		if wait > 0 {
			slog.Warn("github quota nearly exhausted, sleeping until reset", "remaining", remaining, "wait", wait)
			time.Sleep(wait)
		}
		return
	}
	if remaining < 100 {
		slog.Warn("github quota running low", "remaining", remaining)
	}
}

func parseIntHeader(v string) (int, bool) {
	if v == "" {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return n, true
}

func isRateLimit403(resp *http.Response) bool {
	if resp.StatusCode != http.StatusForbidden {
		return false
	}
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	resp.Body = io.NopCloser(bytes.NewReader(body))
	if err != nil {
		return false
	}
	return strings.Contains(strings.ToLower(string(body)), "rate limit")
}

// rateLimitWait computes the wait before a rate-limit retry: Retry-After
// takes priority, then seconds-until-X-RateLimit-Reset, else exponential
// 2^attempt capped at 300s, all jittered by a random factor in [0.75, 1.25]
// with a 1s floor.
func rateLimitWait(resp *http.Response, attempt int) time.Duration {
	var base time.Duration
	if ra := resp.Header.Get("Retry-After"); ra != "" {
		if secs, err := strconv.Atoi(ra); err == nil {
			base = time.Duration(secs) * time.Second
		}
	}
	if base == 0 {
		if resetUnix, ok := parseIntHeader(resp.Header.Get("X-RateLimit-Reset")); ok {
			until := time.Until(time.Unix(int64(resetUnix), 0))
			if until > 0 {
				base = until
			}
		}
	}
	if base == 0 {
		base = backoffDuration(attempt)
	}
	return jitter(base)
}

func backoffDuration(attempt int) time.Duration {
	d := time.Duration(1<<uint(attempt)) * time.Second
	if d > maxBackoffWait {
		d = maxBackoffWait
	}
	return jitter(d)
}

func jitter(base time.Duration) time.Duration {
	factor := 0.75 + rand.Float64()*0.5
	d := time.Duration(float64(base) * factor)
	if d < time.Second {
		d = time.Second
	}
	return d
}

func drainAndClose(resp *http.Response) {
	if resp == nil || resp.Body == nil {
		return
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
}
