package registry

import (
	"context"
	"encoding/binary"
	"fmt"
	"sync"
	"time"

	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/shackstack/shackstack/internal/common"
)

// MemoryRegistry is an in-process ledger with the same rules as the
// deployed contract: one entry per key, status changes only by the owner,
// registration order kept for enumeration. Transactions are final as soon
// as they are submitted.
type MemoryRegistry struct {
	mu      sync.Mutex
	entries map[ethcommon.Hash]*Record
	order   []ethcommon.Hash
	txs     map[ethcommon.Hash]struct{}
	seq     uint64
	last    uint64
	now     func() time.Time
}

func NewMemoryRegistry() *MemoryRegistry {
	return &MemoryRegistry{
		entries: make(map[ethcommon.Hash]*Record),
		txs:     make(map[ethcommon.Hash]struct{}),
		now:     time.Now,
	}
}

func (r *MemoryRegistry) AddResource(ctx context.Context, owner ethcommon.Address, key ethcommon.Hash, metadata string) (Tx, error) {
	if err := ctx.Err(); err != nil {
		return Tx{}, err
	}
	if owner == (ethcommon.Address{}) {
		return Tx{}, fmt.Errorf("%w: zero sender address", common.ErrSubmission)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.entries[key]; ok {
		return Tx{}, fmt.Errorf("key %s: %w", key.Hex(), common.ErrConflict)
	}

	r.entries[key] = &Record{
		Owner:       owner,
		IsAvailable: true,
		Timestamp:   r.tick(),
		Metadata:    metadata,
	}
	r.order = append(r.order, key)

	return r.newTx(), nil
}

func (r *MemoryRegistry) UpdateResourceStatus(ctx context.Context, owner ethcommon.Address, key ethcommon.Hash, isAvailable bool) (Tx, error) {
	if err := ctx.Err(); err != nil {
		return Tx{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	// the contract's single owner check rejects unknown keys too
	rec, ok := r.entries[key]
	if !ok {
		return Tx{}, fmt.Errorf("key %s is not registered: %w", key.Hex(), common.ErrUnauthorized)
	}
	if rec.Owner != owner {
		return Tx{}, fmt.Errorf("%s is not the owner of %s: %w", owner.Hex(), key.Hex(), common.ErrUnauthorized)
	}
	rec.IsAvailable = isAvailable

	return r.newTx(), nil
}

func (r *MemoryRegistry) GetResource(ctx context.Context, key ethcommon.Hash) (Record, error) {
	if err := ctx.Err(); err != nil {
		return Record{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.entries[key]
	if !ok {
		return Record{}, fmt.Errorf("key %s: %w", key.Hex(), common.ErrNotFound)
	}
	return *rec, nil
}

func (r *MemoryRegistry) GetResourceCount(ctx context.Context) (uint64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	return uint64(len(r.order)), nil
}

func (r *MemoryRegistry) GetResourceAtIndex(ctx context.Context, index uint64) (ethcommon.Hash, error) {
	if err := ctx.Err(); err != nil {
		return ethcommon.Hash{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if index >= uint64(len(r.order)) {
		return ethcommon.Hash{}, fmt.Errorf("index %d out of range: %w", index, common.ErrNotFound)
	}
	return r.order[index], nil
}

func (r *MemoryRegistry) WaitForConfirmation(ctx context.Context, tx Tx) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.txs[tx.Hash]; !ok {
		return fmt.Errorf("unknown transaction %s: %w", tx.Hash.Hex(), common.ErrTransactionFailed)
	}
	return nil
}

// tick returns the ledger time in unix seconds, never going backwards.
func (r *MemoryRegistry) tick() uint64 {
	ts := uint64(r.now().Unix())
	if ts < r.last {
		ts = r.last
	}
	r.last = ts
	return ts
}

func (r *MemoryRegistry) newTx() Tx {
	r.seq++
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], r.seq)
	h := crypto.Keccak256Hash([]byte("memory-tx"), buf[:])
	r.txs[h] = struct{}{}
	return Tx{Hash: h}
}
