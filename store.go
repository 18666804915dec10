package anchorarmy

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/crypto"
)

var (
	// ErrDuplicateAnchor is returned when a payload with the same digest is
	// already being submitted.
	ErrDuplicateAnchor = fmt.Errorf("duplicate anchor: payload already submitted")

	// ErrAnchorNotFound is returned when looking up a digest with no record.
	ErrAnchorNotFound = fmt.Errorf("anchor record not found")
)

// PayloadDigest derives the store key for a payload.
func PayloadDigest(payload []byte) string {
	return crypto.Keccak256Hash(payload).Hex()
}

// AnchorStatus tracks where a recorded submission is in its lifecycle.
type AnchorStatus int

const (
	AnchorStatusPending   AnchorStatus = iota // submission in progress
	AnchorStatusConfirmed                     // anchor confirmed on chain
	AnchorStatusFailed                        // submission failed permanently
)

func (s AnchorStatus) String() string {
	switch s {
	case AnchorStatusPending:
		return "pending"
	case AnchorStatusConfirmed:
		return "confirmed"
	case AnchorStatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// AnchorRecord is the stored outcome of one logical submission, keyed by the
// payload digest.
type AnchorRecord struct {
	Digest     string             `json:"digest"`
	Status     AnchorStatus       `json:"status"`
	Anchor     *AnchorTransaction `json:"anchor,omitempty"`
	FailureMsg string             `json:"failure_msg,omitempty"`
	CreatedAt  time.Time          `json:"created_at"`
	UpdatedAt  time.Time          `json:"updated_at"`
}

// AnchorStore guards against a second economically-effective submission of
// the same payload. Implementations must be safe for concurrent use.
type AnchorStore interface {
	// Get retrieves an existing record by digest, ErrAnchorNotFound if absent.
	Get(ctx context.Context, digest string) (*AnchorRecord, error)

	// Create creates a pending record, ErrDuplicateAnchor if one exists.
	Create(ctx context.Context, digest string) (*AnchorRecord, error)

	// Update replaces an existing record.
	Update(ctx context.Context, record *AnchorRecord) error

	// Delete removes a record by digest.
	Delete(ctx context.Context, digest string) error
}

// InMemoryAnchorStore is a process-local AnchorStore with optional TTL
// expiry. A TTL of 0 means records never expire.
type InMemoryAnchorStore struct {
	mu      sync.RWMutex
	records map[string]*AnchorRecord
	ttl     time.Duration

	stopChan chan struct{}
	stopped  bool
}

// NewInMemoryAnchorStore creates an in-memory store. When ttl > 0 a cleanup
// goroutine runs until Stop is called.
func NewInMemoryAnchorStore(ttl time.Duration) *InMemoryAnchorStore {
	store := &InMemoryAnchorStore{
		records:  make(map[string]*AnchorRecord),
		ttl:      ttl,
		stopChan: make(chan struct{}),
	}
	if ttl > 0 {
		go store.cleanupLoop()
	}
	return store
}

// Stop stops the cleanup goroutine. Call it when the store is no longer
// needed to avoid a goroutine leak.
func (s *InMemoryAnchorStore) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.stopped {
		s.stopped = true
		close(s.stopChan)
	}
}

func (s *InMemoryAnchorStore) expired(record *AnchorRecord) bool {
	return s.ttl > 0 && time.Since(record.CreatedAt) > s.ttl
}

// Get retrieves an existing record by digest.
func (s *InMemoryAnchorStore) Get(_ context.Context, digest string) (*AnchorRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, exists := s.records[digest]
	if !exists || s.expired(record) {
		return nil, ErrAnchorNotFound
	}
	return record, nil
}

// Create creates a pending record for the digest.
func (s *InMemoryAnchorStore) Create(_ context.Context, digest string) (*AnchorRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, exists := s.records[digest]; exists && !s.expired(existing) {
		return existing, ErrDuplicateAnchor
	}

	now := time.Now()
	record := &AnchorRecord{
		Digest:    digest,
		Status:    AnchorStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.records[digest] = record
	return record, nil
}

// Update replaces an existing record.
func (s *InMemoryAnchorStore) Update(_ context.Context, record *AnchorRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.records[record.Digest]; !exists {
		return ErrAnchorNotFound
	}
	record.UpdatedAt = time.Now()
	s.records[record.Digest] = record
	return nil
}

// Delete removes a record by digest.
func (s *InMemoryAnchorStore) Delete(_ context.Context, digest string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, digest)
	return nil
}

// Size returns the number of records in the store.
func (s *InMemoryAnchorStore) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

func (s *InMemoryAnchorStore) cleanupLoop() {
	ticker := time.NewTicker(s.ttl)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopChan:
			return
		case <-ticker.C:
			s.cleanup()
		}
	}
}

func (s *InMemoryAnchorStore) cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	for digest, record := range s.records {
		if now.Sub(record.CreatedAt) > s.ttl {
			delete(s.records, digest)
		}
	}
}
