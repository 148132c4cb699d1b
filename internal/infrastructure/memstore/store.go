// Package memstore holds the outstanding email verification codes. The table
// is process-local: codes are short-lived secrets that do not need to survive
// a restart, and keeping them in memory lets validate-and-consume happen
// under a single lock with no double-spend window.
package memstore

import (
	"crypto/rand"
	"crypto/subtle"
	"fmt"
	"hash/fnv"
	"math/big"
	"sync"
	"time"

	"github.com/contrib-gateway/internal/domain"
)

const shardCount = 16

// Store issues and consumes one-time email codes. Operations on the same
// address are serialized by its shard mutex; different addresses proceed in
// parallel. Entries expire after ttl and re-issue is refused within cooldown.
type Store struct {
	ttl      time.Duration
	cooldown time.Duration
	shards   [shardCount]*shard
	done     chan struct{}
	// now is swapped in tests to drive expiry without sleeping.
	now func() time.Time
}

type shard struct {
	mu      sync.Mutex
	entries map[string]*domain.VerificationCode
}

// New creates a Store and starts a background sweep that drops expired
// entries. Call Close to stop the sweep.
func New(ttl, cooldown time.Duration) *Store {
	s := &Store{
		ttl:      ttl,
		cooldown: cooldown,
		done:     make(chan struct{}),
		now:      time.Now,
	}
	for i := range s.shards {
		s.shards[i] = &shard{entries: make(map[string]*domain.VerificationCode)}
	}
	go s.sweep()
	return s
}

// Issue generates a fresh code for address, overwriting any previous entry
// for it. Returns domain.ErrRateLimited when the address was issued a code
// within the cooldown window, consumed or not.
func (s *Store) Issue(address string) (code string, expiresAt time.Time, err error) {
	code, err = generateCode()
	if err != nil {
		return "", time.Time{}, fmt.Errorf("generate code: %w", err)
	}

	sh := s.shardFor(address)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	now := s.now()
	if prev, ok := sh.entries[address]; ok && now.Sub(prev.IssuedAt) < s.cooldown {
		return "", time.Time{}, domain.ErrRateLimited
	}

	expiresAt = now.Add(s.ttl)
	sh.entries[address] = &domain.VerificationCode{
		Address:   address,
		Code:      code,
		IssuedAt:  now,
		ExpiresAt: expiresAt,
	}
	return code, expiresAt, nil
}

// Validate consumes the live code for address if submitted matches it.
// Returns domain.ErrCodeExpired for a correct-but-stale code and
// domain.ErrCodeInvalid otherwise; both unwrap to domain.ErrAuthFailed so
// the HTTP boundary cannot be used as a guessing oracle. A mismatch does not
// consume the entry; a match consumes it atomically with the check.
func (s *Store) Validate(address, submitted string) error {
	sh := s.shardFor(address)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	entry, ok := sh.entries[address]
	if !ok || entry.Consumed {
		return domain.ErrCodeInvalid
	}
	if entry.Expired(s.now()) {
		delete(sh.entries, address)
		return domain.ErrCodeExpired
	}
	if subtle.ConstantTimeCompare([]byte(entry.Code), []byte(submitted)) != 1 {
		return domain.ErrCodeInvalid
	}
	// Consumed entries are kept until they expire so the issue cooldown
	// still applies to the address.
	entry.Consumed = true
	return nil
}

// Remove drops the entry for address, if any. Used when code delivery fails
// so the caller is not locked behind the cooldown for a mail that never went
// out.
func (s *Store) Remove(address string) {
	sh := s.shardFor(address)
	sh.mu.Lock()
	delete(sh.entries, address)
	sh.mu.Unlock()
}

// Close stops the background sweep.
func (s *Store) Close() {
	close(s.done)
}

func (s *Store) shardFor(address string) *shard {
	h := fnv.New32a()
	h.Write([]byte(address))
	return s.shards[h.Sum32()%shardCount]
}

func (s *Store) sweep() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			now := s.now()
			for _, sh := range s.shards {
				sh.mu.Lock()
				for addr, entry := range sh.entries {
					if entry.Expired(now) {
						delete(sh.entries, addr)
					}
				}
				sh.mu.Unlock()
			}
		}
	}
}

// generateCode returns a 6-digit decimal code from crypto/rand.
func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
