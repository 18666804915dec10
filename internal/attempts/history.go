// Package attempts records the broadcasts of one logical submission.
// This is an internal package and should not be imported directly by external code.
package attempts

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// Record is one broadcast of the submission: the hash it can be confirmed
// under, the nonce it rode on and when it left.
type Record struct {
	Hash  common.Hash
	Nonce uint64
	At    time.Time
}

// History is the append-only sequence of broadcasts for a single logical
// submission. It is owned by exactly one Submit invocation, passed by
// reference into the recovery step and dropped when the call returns, so it
// carries no locking.
type History struct {
	records []Record
}

// NewHistory creates an empty history.
func NewHistory() *History {
	return &History{}
}

// Append records a broadcast. Records are never removed or reordered.
func (h *History) Append(r Record) {
	h.records = append(h.records, r)
}

// Len returns the number of recorded broadcasts.
func (h *History) Len() int {
	return len(h.records)
}

// NewestFirst returns a copy of the records ordered most-recent-first, the
// order the nonce-conflict recovery scan consults them in.
func (h *History) NewestFirst() []Record {
	out := make([]Record, len(h.records))
	for i, r := range h.records {
		out[len(h.records)-1-i] = r
	}
	return out
}
