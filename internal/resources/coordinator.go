// Package resources coordinates a resource's two halves: the payload in the
// content store and the ownership record on the registry.
//
// Create is a two-step saga (put, then register) with no undo for the first
// step. When registration fails after a successful put the caller gets a
// *common.PartialWriteError naming the CID, the orphan is logged and, when a
// journal is configured, recorded there so Register can complete it later.
package resources

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shackstack/shackstack/internal/common"
	"github.com/shackstack/shackstack/internal/contentstore"
	"github.com/shackstack/shackstack/internal/cryptox"
	"github.com/shackstack/shackstack/internal/journal"
	"github.com/shackstack/shackstack/internal/logging"
	"github.com/shackstack/shackstack/internal/registry"

	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

const DefaultConfirmTimeout = 2 * time.Minute

// Journal keeps track of stored-but-unregistered content.
type Journal interface {
	RecordOrphan(ctx context.Context, o journal.Orphan) error
	ResolveOrphan(ctx context.Context, cid string) error
	ListOrphans(ctx context.Context) ([]journal.Orphan, error)
}

// Status is the registry's view of a resource.
type Status struct {
	RegistryKey ethcommon.Hash
	Owner       ethcommon.Address
	IsAvailable bool
	Timestamp   uint64
	Metadata    map[string]any
}

type Coordinator struct {
	cipher         *cryptox.Cipher
	store          contentstore.Store
	registry       registry.Registry
	journal        Journal
	logger         logging.Logger
	confirmTimeout time.Duration
	pinOnCreate    bool
}

type Option func(*Coordinator)

func WithLogger(l logging.Logger) Option {
	return func(c *Coordinator) { c.logger = l }
}

func WithJournal(j Journal) Option {
	return func(c *Coordinator) { c.journal = j }
}

// WithConfirmTimeout bounds each confirmation wait. Zero or negative
// leaves only the caller's deadline in force.
func WithConfirmTimeout(d time.Duration) Option {
	return func(c *Coordinator) { c.confirmTimeout = d }
}

func WithPinOnCreate(pin bool) Option {
	return func(c *Coordinator) { c.pinOnCreate = pin }
}

func New(cipher *cryptox.Cipher, store contentstore.Store, reg registry.Registry, opts ...Option) *Coordinator {
	c := &Coordinator{
		cipher:         cipher,
		store:          store,
		registry:       reg,
		confirmTimeout: DefaultConfirmTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = logging.NewSlogLogger(slog.Default())
	}
	c.logger = c.logger.With("module", "resources")
	return c
}

// RegistryKey derives the registry key of cid: keccak256 of its UTF-8 bytes.
func RegistryKey(cid string) ethcommon.Hash {
	return crypto.Keccak256Hash([]byte(cid))
}

// Create stores payload (sealed first when encrypt is set) and registers it
// for owner. It returns the CID once the registration is confirmed.
func (c *Coordinator) Create(ctx context.Context, payload any, owner ethcommon.Address, encrypt bool) (string, error) {
	value := payload
	if encrypt {
		sealed, err := c.cipher.Encrypt(payload)
		if err != nil {
			return "", fmt.Errorf("encrypt payload: %w", err)
		}
		value = sealed
	}

	cid, err := c.store.Put(ctx, value)
	if err != nil {
		return "", fmt.Errorf("store payload: %w", err)
	}
	c.logger.Debug(ctx, "payload stored", "cid", cid, "encrypted", encrypt)

	if c.pinOnCreate {
		if err := c.store.Pin(ctx, cid); err != nil {
			c.logger.Warn(ctx, "pin failed", "cid", cid, "error", err)
		}
	}

	if err := c.register(ctx, cid, owner, encrypt); err != nil {
		c.orphaned(ctx, cid, owner, encrypt, err)
		return "", &common.PartialWriteError{CID: cid, Err: err}
	}

	c.logger.Info(ctx, "resource created", "cid", cid, "owner", owner.Hex())
	return cid, nil
}

// Register completes a create whose registration step failed. Content must
// already be in the store. If the key turns out to be registered by the same
// owner, the earlier transaction landed after all and Register succeeds.
func (c *Coordinator) Register(ctx context.Context, cid string, owner ethcommon.Address, encrypted bool) error {
	if err := c.store.Pin(ctx, cid); err != nil {
		return fmt.Errorf("check content: %w", err)
	}

	err := c.register(ctx, cid, owner, encrypted)
	if errors.Is(err, common.ErrConflict) {
		rec, gerr := c.registry.GetResource(ctx, RegistryKey(cid))
		if gerr != nil || rec.Owner != owner {
			return err
		}
		err = nil
	}
	if err != nil {
		return err
	}

	if c.journal != nil {
		if jerr := c.journal.ResolveOrphan(ctx, cid); jerr != nil && !errors.Is(jerr, common.ErrNotFound) {
			c.logger.Warn(ctx, "resolve orphan failed", "cid", cid, "error", jerr)
		}
	}
	c.logger.Info(ctx, "resource registered", "cid", cid, "owner", owner.Hex())
	return nil
}

// Read fetches the stored payload. With decrypt set, a sealed value is
// opened; a value that does not open under this key is returned as stored.
func (c *Coordinator) Read(ctx context.Context, cid string, decrypt bool) (any, error) {
	value, err := c.store.Get(ctx, cid)
	if err != nil {
		return nil, err
	}
	if !decrypt {
		return value, nil
	}

	sealed, ok := value.(string)
	if !ok {
		return value, nil
	}
	plain, err := c.cipher.Decrypt(sealed)
	switch {
	case err == nil:
		return plain, nil
	case errors.Is(err, common.ErrDecryption):
		return value, nil
	default:
		return nil, err
	}
}

// UpdateStatus sets isAvailable on cid's record, submitted from owner.
func (c *Coordinator) UpdateStatus(ctx context.Context, cid string, isAvailable bool, owner ethcommon.Address) error {
	tx, err := c.registry.UpdateResourceStatus(ctx, owner, RegistryKey(cid), isAvailable)
	if err != nil {
		return err
	}
	if err := c.confirm(ctx, tx); err != nil {
		return err
	}
	c.logger.Info(ctx, "status updated", "cid", cid, "is_available", isAvailable)
	return nil
}

func (c *Coordinator) Status(ctx context.Context, cid string) (Status, error) {
	return c.status(ctx, RegistryKey(cid))
}

// List walks the registry in registration order, one round trip per entry.
func (c *Coordinator) List(ctx context.Context) ([]Status, error) {
	count, err := c.registry.GetResourceCount(ctx)
	if err != nil {
		return nil, err
	}

	result := make([]Status, 0, count)
	for i := uint64(0); i < count; i++ {
		key, err := c.registry.GetResourceAtIndex(ctx, i)
		if err != nil {
			return nil, fmt.Errorf("resource at index %d: %w", i, err)
		}
		st, err := c.status(ctx, key)
		if err != nil {
			return nil, fmt.Errorf("resource %s: %w", key.Hex(), err)
		}
		result = append(result, st)
	}
	return result, nil
}

// Orphans lists unresolved partial writes. Without a journal there is
// nothing to report.
func (c *Coordinator) Orphans(ctx context.Context) ([]journal.Orphan, error) {
	if c.journal == nil {
		return nil, nil
	}
	return c.journal.ListOrphans(ctx)
}

func (c *Coordinator) status(ctx context.Context, key ethcommon.Hash) (Status, error) {
	rec, err := c.registry.GetResource(ctx, key)
	if err != nil {
		return Status{}, err
	}

	meta := map[string]any{}
	if rec.Metadata != "" {
		if err := json.Unmarshal([]byte(rec.Metadata), &meta); err != nil {
			return Status{}, fmt.Errorf("%w: metadata: %v", common.ErrCorrupt, err)
		}
	}

	return Status{
		RegistryKey: key,
		Owner:       rec.Owner,
		IsAvailable: rec.IsAvailable,
		Timestamp:   rec.Timestamp,
		Metadata:    meta,
	}, nil
}

func (c *Coordinator) register(ctx context.Context, cid string, owner ethcommon.Address, encrypted bool) error {
	metadata, err := json.Marshal(map[string]any{"encrypted": encrypted})
	if err != nil {
		return err
	}
	tx, err := c.registry.AddResource(ctx, owner, RegistryKey(cid), string(metadata))
	if err != nil {
		return err
	}
	return c.confirm(ctx, tx)
}

// confirm waits for tx under the confirmation timeout. Running out of time,
// whether ours or the caller's, is reported as common.ErrTransactionTimeout.
func (c *Coordinator) confirm(ctx context.Context, tx registry.Tx) error {
	if c.confirmTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.confirmTimeout)
		defer cancel()
	}

	err := c.registry.WaitForConfirmation(ctx, tx)
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: tx %s", common.ErrTransactionTimeout, tx.Hash.Hex())
	}
	return err
}

func (c *Coordinator) orphaned(ctx context.Context, cid string, owner ethcommon.Address, encrypted bool, cause error) {
	c.logger.Error(ctx, "content stored but not registered", "cid", cid, "owner", owner.Hex(), "error", cause)
	if c.journal == nil {
		return
	}

	// The request context may be the reason we got here.
	jctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	err := c.journal.RecordOrphan(jctx, journal.Orphan{
		CID:       cid,
		Owner:     owner.Hex(),
		Encrypted: encrypted,
		Reason:    cause.Error(),
	})
	if err != nil {
		c.logger.Error(ctx, "journal orphan failed", "cid", cid, "error", err)
	}
}
