package contentstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	shell "github.com/ipfs/go-ipfs-api"
	"github.com/shackstack/shackstack/internal/common"
)

// IPFSShell is the subset of *shell.Shell used by IPFSStore.
type IPFSShell interface {
	Add(r io.Reader, options ...shell.AddOpts) (string, error)
	Cat(path string) (io.ReadCloser, error)
	Pin(path string) error
}

// IPFSStore talks to an IPFS node over its HTTP RPC API. CIDs are whatever
// the node returns from add.
type IPFSStore struct {
	sh IPFSShell
}

// NewIPFSStore connects to the node at addr, given either as a multiaddr
// ("/ip4/127.0.0.1/tcp/5001") or host:port.
func NewIPFSStore(addr string) *IPFSStore {
	return &IPFSStore{sh: shell.NewShell(addr)}
}

func NewIPFSStoreWithShell(sh IPFSShell) *IPFSStore {
	return &IPFSStore{sh: sh}
}

func (s *IPFSStore) Put(ctx context.Context, value any) (string, error) {
	b, err := encode(value)
	if err != nil {
		return "", err
	}

	id, err := await(ctx, func() (string, error) {
		return s.sh.Add(bytes.NewReader(b))
	})
	if err != nil {
		return "", fmt.Errorf("ipfs add: %w", mapIPFSError(err))
	}
	return id, nil
}

func (s *IPFSStore) Get(ctx context.Context, cid string) (any, error) {
	b, err := await(ctx, func() ([]byte, error) {
		rc, err := s.sh.Cat(cid)
		if err != nil {
			return nil, err
		}
		defer rc.Close()
		return io.ReadAll(rc)
	})
	if err != nil {
		return nil, fmt.Errorf("ipfs cat %s: %w", cid, mapIPFSError(err))
	}
	return decode(b)
}

func (s *IPFSStore) Pin(ctx context.Context, cid string) error {
	_, err := await(ctx, func() (struct{}, error) {
		return struct{}{}, s.sh.Pin(cid)
	})
	if err != nil {
		return fmt.Errorf("ipfs pin %s: %w", cid, mapIPFSError(err))
	}
	return nil
}

// mapIPFSError turns the node's "no such content" answers into
// common.ErrNotFound. Anything else is passed through.
func mapIPFSError(err error) error {
	var se *shell.Error
	if !errors.As(err, &se) {
		return err
	}
	msg := strings.ToLower(se.Message)
	for _, s := range []string{"not found", "invalid path", "invalid cid", "no link named"} {
		if strings.Contains(msg, s) {
			return fmt.Errorf("%w: %s", common.ErrNotFound, se.Message)
		}
	}
	return err
}
