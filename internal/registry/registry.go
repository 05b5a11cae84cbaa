// Package registry wraps the on-chain resource registry. Entries are keyed
// by a 32-byte hash; state-changing calls return a transaction that must be
// confirmed before the change is durable.
package registry

import (
	"context"

	ethcommon "github.com/ethereum/go-ethereum/common"
)

// Record is a registry entry as the ledger reports it.
type Record struct {
	Owner       ethcommon.Address
	IsAvailable bool
	Timestamp   uint64
	Metadata    string
}

// Tx is a handle to a submitted transaction.
type Tx struct {
	Hash ethcommon.Hash
}

// Registry is the fixed surface of the deployed registry.
//
// Errors: common.ErrSubmission when the sender cannot be authorized or the
// call is malformed, common.ErrConflict on a duplicate addResource,
// common.ErrUnauthorized when status is updated by a non-owner or for a key
// that was never registered (the contract cannot tell the two apart),
// common.ErrNotFound when reading an unknown key, and
// common.ErrTransactionFailed when a confirmed transaction reverted.
type Registry interface {
	AddResource(ctx context.Context, owner ethcommon.Address, key ethcommon.Hash, metadata string) (Tx, error)
	UpdateResourceStatus(ctx context.Context, owner ethcommon.Address, key ethcommon.Hash, isAvailable bool) (Tx, error)
	GetResource(ctx context.Context, key ethcommon.Hash) (Record, error)
	GetResourceCount(ctx context.Context) (uint64, error)
	GetResourceAtIndex(ctx context.Context, index uint64) (ethcommon.Hash, error)

	// WaitForConfirmation blocks until tx is included or ctx is done.
	WaitForConfirmation(ctx context.Context, tx Tx) error
}
