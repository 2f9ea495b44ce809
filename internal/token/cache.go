package token

import (
	"context"
	"sync"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/sync/singleflight"

	"github.com/shaharia-lab/pushrelay/internal/credential"
)

const defaultRenewBefore = 2 * time.Minute

// CachingIssuer reuses tokens from the wrapped Issuer until they are within
// renewBefore of expiring. Concurrent misses for the same credential share a
// single exchange.
type CachingIssuer struct {
	next        Issuer
	renewBefore time.Duration
	now         func() time.Time

	mu     sync.Mutex
	tokens map[string]*oauth2.Token
	group  singleflight.Group
}

// NewCachingIssuer wraps next. A non-positive renewBefore falls back to two minutes.
func NewCachingIssuer(next Issuer, renewBefore time.Duration) *CachingIssuer {
	if renewBefore <= 0 {
		renewBefore = defaultRenewBefore
	}
	return &CachingIssuer{
		next:        next,
		renewBefore: renewBefore,
		now:         time.Now,
		tokens:      make(map[string]*oauth2.Token),
	}
}

// Issue returns a cached token for cred when it is still fresh, otherwise
// obtains a new one from the wrapped Issuer.
func (c *CachingIssuer) Issue(ctx context.Context, cred *credential.ServiceCredential) (*oauth2.Token, error) {
	key := cacheKey(cred)
	if tok, ok := c.lookup(key); ok {
		return tok, nil
	}

	v, err, _ := c.group.Do(key, func() (any, error) {
		if tok, ok := c.lookup(key); ok {
			return tok, nil
		}
		// The exchange is shared by every waiter, so one caller going away
		// must not cancel it.
		tok, err := c.next.Issue(context.WithoutCancel(ctx), cred)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.tokens[key] = tok
		c.mu.Unlock()
		return tok, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*oauth2.Token), nil
}

func (c *CachingIssuer) lookup(key string) (*oauth2.Token, bool) {
	c.mu.Lock()
	tok, ok := c.tokens[key]
	c.mu.Unlock()
	if !ok || tok.Expiry.IsZero() {
		return nil, false
	}
	if !c.now().Add(c.renewBefore).Before(tok.Expiry) {
		return nil, false
	}
	return tok, true
}

func cacheKey(cred *credential.ServiceCredential) string {
	return cred.IssuerEmail + "|" + cred.PrivateKeyID
}
