// Package cidutil computes and verifies content identifiers for backends
// that address content themselves instead of delegating to an IPFS node.
package cidutil

import (
	"bytes"
	"fmt"

	"github.com/ipfs/go-cid"
	"github.com/multiformats/go-multihash"
	"github.com/shackstack/shackstack/internal/common"
)

// Sum returns the CIDv1 (raw codec, sha2-256) of data in its default
// string encoding.
func Sum(data []byte) (string, error) {
	hash, err := multihash.Sum(data, multihash.SHA2_256, -1)
	if err != nil {
		return "", fmt.Errorf("failed to compute multihash: %w", err)
	}
	return cid.NewCidV1(cid.Raw, hash).String(), nil
}

// Verify checks that data hashes to the identifier s.
func Verify(s string, data []byte) error {
	id, err := cid.Decode(s)
	if err != nil {
		return fmt.Errorf("%w: invalid cid: %v", common.ErrCorrupt, err)
	}

	prefix := id.Prefix()
	hash, err := multihash.Sum(data, prefix.MhType, prefix.MhLength)
	if err != nil {
		return fmt.Errorf("failed to compute multihash for verification: %w", err)
	}

	if !bytes.Equal(id.Hash(), hash) {
		return fmt.Errorf("%w: cid mismatch", common.ErrCorrupt)
	}
	return nil
}
