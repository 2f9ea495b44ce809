package token

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
	"golang.org/x/sync/errgroup"

	"github.com/shaharia-lab/pushrelay/internal/credential"
	"github.com/shaharia-lab/pushrelay/internal/credential/credentialtest"
)

type countingIssuer struct {
	calls   int32
	ttl     time.Duration
	now     func() time.Time
	err     error
	release chan struct{}
}

func (c *countingIssuer) Issue(_ context.Context, _ *credential.ServiceCredential) (*oauth2.Token, error) {
	n := atomic.AddInt32(&c.calls, 1)
	if c.release != nil {
		<-c.release
	}
	if c.err != nil {
		return nil, c.err
	}
	return &oauth2.Token{
		AccessToken: "tok-" + string(rune('0'+n)),
		TokenType:   "Bearer",
		Expiry:      c.now().Add(c.ttl),
	}, nil
}

func TestCachingIssuer_ReusesUntilRenewWindow(t *testing.T) {
	clock := fixedClock(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	next := &countingIssuer{ttl: time.Hour, now: clock.Now}
	c := NewCachingIssuer(next, 2*time.Minute)
	c.now = clock.Now
	cred := credentialtest.New(t)

	first, err := c.Issue(context.Background(), cred)
	require.NoError(t, err)

	clock.Advance(50 * time.Minute)
	second, err := c.Issue(context.Background(), cred)
	require.NoError(t, err)
	assert.Same(t, first, second)

	clock.Advance(9 * time.Minute)
	third, err := c.Issue(context.Background(), cred)
	require.NoError(t, err)
	assert.NotSame(t, first, third)
	assert.EqualValues(t, 2, atomic.LoadInt32(&next.calls))
}

func TestCachingIssuer_SeparateCredentials(t *testing.T) {
	next := &countingIssuer{ttl: time.Hour, now: time.Now}
	c := NewCachingIssuer(next, 0)

	a := credentialtest.New(t)
	b := credentialtest.New(t)
	b.IssuerEmail = "other@plant-alerts.iam.gserviceaccount.com"

	_, err := c.Issue(context.Background(), a)
	require.NoError(t, err)
	_, err = c.Issue(context.Background(), b)
	require.NoError(t, err)
	assert.EqualValues(t, 2, atomic.LoadInt32(&next.calls))
}

func TestCachingIssuer_ErrorsAreNotCached(t *testing.T) {
	next := &countingIssuer{ttl: time.Hour, now: time.Now, err: errors.New("invalid_grant")}
	c := NewCachingIssuer(next, time.Minute)
	cred := credentialtest.New(t)

	_, err := c.Issue(context.Background(), cred)
	require.Error(t, err)

	next.err = nil
	tok, err := c.Issue(context.Background(), cred)
	require.NoError(t, err)
	assert.NotEmpty(t, tok.AccessToken)
	assert.EqualValues(t, 2, atomic.LoadInt32(&next.calls))
}

func TestCachingIssuer_ConcurrentMissesShareExchange(t *testing.T) {
	next := &countingIssuer{ttl: time.Hour, now: time.Now, release: make(chan struct{})}
	c := NewCachingIssuer(next, time.Minute)
	cred := credentialtest.New(t)

	var g errgroup.Group
	for i := 0; i < 8; i++ {
		g.Go(func() error {
			_, err := c.Issue(context.Background(), cred)
			return err
		})
	}

	// Once the single exchange is in flight, callers either wait on it or,
	// arriving after it completes, find the cached token.
	require.Eventually(t, func() bool {
		return atomic.LoadInt32(&next.calls) == 1
	}, 5*time.Second, time.Millisecond)
	close(next.release)
	require.NoError(t, g.Wait())
	assert.EqualValues(t, 1, atomic.LoadInt32(&next.calls))
}

type manualClock struct {
	now atomic.Int64
}

func fixedClock(t time.Time) *manualClock {
	c := &manualClock{}
	c.now.Store(t.UnixNano())
	return c
}

func (c *manualClock) Now() time.Time          { return time.Unix(0, c.now.Load()).UTC() }
func (c *manualClock) Advance(d time.Duration) { c.now.Add(int64(d)) }
