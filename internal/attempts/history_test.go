package attempts

import (
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

func TestHistoryEmpty(t *testing.T) {
	h := NewHistory()
	if h.Len() != 0 {
		t.Errorf("expected empty history, got len %d", h.Len())
	}
	if got := h.NewestFirst(); len(got) != 0 {
		t.Errorf("expected no records, got %d", len(got))
	}
}

func TestHistoryAppendOrder(t *testing.T) {
	h := NewHistory()
	hashes := []common.Hash{
		common.HexToHash("0x01"),
		common.HexToHash("0x02"),
		common.HexToHash("0x03"),
	}
	for i, hash := range hashes {
		h.Append(Record{Hash: hash, Nonce: 7, At: time.Unix(int64(i), 0)})
	}

	if h.Len() != 3 {
		t.Fatalf("expected 3 records, got %d", h.Len())
	}

	newest := h.NewestFirst()
	for i := range newest {
		want := hashes[len(hashes)-1-i]
		if newest[i].Hash != want {
			t.Errorf("record %d: expected hash %s, got %s", i, want.Hex(), newest[i].Hash.Hex())
		}
	}
}

func TestHistoryNewestFirstIsACopy(t *testing.T) {
	h := NewHistory()
	h.Append(Record{Hash: common.HexToHash("0x01"), Nonce: 0})
	h.Append(Record{Hash: common.HexToHash("0x02"), Nonce: 0})

	snapshot := h.NewestFirst()
	snapshot[0].Hash = common.HexToHash("0xff")

	if got := h.NewestFirst()[0].Hash; got != common.HexToHash("0x02") {
		t.Errorf("mutating the snapshot leaked into the history: got %s", got.Hex())
	}
}
