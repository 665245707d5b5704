package fetch

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/marketscan-lab/marketscan/internal/config"
	"github.com/marketscan-lab/marketscan/pkg/errors"
)

// Credential is one entry of the upstream access pool: a cookie, an API
// key, a proxy, or any combination. A credential is held exclusively by
// one in-flight request between Acquire and Release.
type Credential struct {
	ID       string
	Cookie   string
	APIKey   string
	ProxyURL string
}

type poolEntry struct {
	cred      Credential
	inUse     bool
	lastUsed  time.Time
	strikes   int
	coolUntil time.Time
}

// Pool hands out credentials least-recently-used first. A credential
// that keeps hitting rate limits is cooled down for a while and then
// re-admitted.
type Pool struct {
	mu       sync.Mutex
	entries  []*poolEntry
	strikes  int
	cooldown time.Duration
	now      func() time.Time
}

// NewPool creates a pool from configured credentials. With no entries
// configured the pool still serves a single anonymous credential, so
// providers that work unauthenticated keep working.
func NewPool(creds []config.CredentialConfig, cfg config.PoolConfig) *Pool {
	if len(creds) == 0 {
		creds = []config.CredentialConfig{{}}
	}

	entries := make([]*poolEntry, 0, len(creds))

	for i, c := range creds {
		entries = append(entries, &poolEntry{
			cred: Credential{
				ID:       poolEntryID(i),
				Cookie:   c.Cookie,
				APIKey:   c.APIKey,
				ProxyURL: c.ProxyURL,
			},
		})
	}

	return &Pool{
		entries:  entries,
		strikes:  cfg.Strikes,
		cooldown: cfg.Cooldown,
		now:      time.Now,
	}
}

func poolEntryID(i int) string {
	return fmt.Sprintf("cred-%02d", i)
}

// Size returns the number of pool entries.
func (p *Pool) Size() int {
	return len(p.entries)
}

// Acquire checks out the least recently used available credential,
// blocking until one frees up or the context is cancelled. Cooled-down
// credentials become available again once their cooldown expires.
func (p *Pool) Acquire(ctx context.Context) (*Credential, error) {
	for {
		if cred := p.tryAcquire(); cred != nil {
			return cred, nil
		}

		select {
		case <-ctx.Done():
			return nil, errors.Wrap(errors.ErrCodeNoCredentialAvailable, "waiting for credential", ctx.Err())
		case <-time.After(20 * time.Millisecond):
		}
	}
}

func (p *Pool) tryAcquire() *Credential {
	p.mu.Lock()
	defer p.mu.Unlock()

	now := p.now()

	var pick *poolEntry

	for _, e := range p.entries {
		if e.inUse || now.Before(e.coolUntil) {
			continue
		}

		if pick == nil || e.lastUsed.Before(pick.lastUsed) {
			pick = e
		}
	}

	if pick == nil {
		return nil
	}

	pick.inUse = true
	pick.lastUsed = now

	cred := pick.cred

	return &cred
}

// Release returns a credential to the pool. rateLimited marks one
// strike against the credential; reaching the strike limit puts it in
// cooldown and resets the count.
func (p *Pool) Release(cred *Credential, rateLimited bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, e := range p.entries {
		if e.cred.ID != cred.ID {
			continue
		}

		e.inUse = false

		if rateLimited {
			e.strikes++
			if e.strikes >= p.strikes {
				e.coolUntil = p.now().Add(p.cooldown)
				e.strikes = 0
			}
		} else {
			e.strikes = 0
		}

		return
	}
}
