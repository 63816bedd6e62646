package github

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBackoffDuration_CapsAt300s(t *testing.T) {
	// backoffDuration caps the exponential base at maxBackoffWait, then
	// jitter scales it by up to 1.25x, so the returned value can legitimately
	// exceed 300s.
	d := backoffDuration(9)
	assert.LessOrEqual(t, d, maxBackoffWait*5/4+time.Second)
	assert.GreaterOrEqual(t, d, time.Second)
}

func TestBackoffDuration_Attempt0IsAroundOneSecond(t *testing.T) {
	d := backoffDuration(0)
	assert.GreaterOrEqual(t, d, 750*time.Millisecond)
	assert.LessOrEqual(t, d, 1250*time.Millisecond)
}

func TestRateLimitWait_RetryAfterTakesPriority(t *testing.T) {
	resp := &http.Response{Header: http.Header{}}
	resp.Header.Set("Retry-After", "5")
	resp.Header.Set("X-RateLimit-Reset", "9999999999")

	d := rateLimitWait(resp, 0)
	assert.GreaterOrEqual(t, d, 3750*time.Millisecond)
	assert.LessOrEqual(t, d, 6250*time.Millisecond)
}

func TestIsSearchPath(t *testing.T) {
	assert.True(t, isSearchPath("/search/issues"))
	assert.True(t, isSearchPath("/search/commits"))
	assert.False(t, isSearchPath("/repos/acme/widgets/pulls/1"))
}
