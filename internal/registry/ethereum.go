package registry

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/shackstack/shackstack/internal/common"
)

// ResourceMappingABI is the ABI of the deployed ResourceMapping contract.
const ResourceMappingABI = `[
{"type":"function","name":"addResource","stateMutability":"nonpayable",
 "inputs":[{"name":"ipfsHash","type":"bytes32"},{"name":"metadata","type":"string"}],"outputs":[]},
{"type":"function","name":"updateResourceStatus","stateMutability":"nonpayable",
 "inputs":[{"name":"ipfsHash","type":"bytes32"},{"name":"isAvailable","type":"bool"}],"outputs":[]},
{"type":"function","name":"getResource","stateMutability":"view",
 "inputs":[{"name":"ipfsHash","type":"bytes32"}],
 "outputs":[{"name":"owner","type":"address"},{"name":"isAvailable","type":"bool"},{"name":"timestamp","type":"uint256"},{"name":"metadata","type":"string"}]},
{"type":"function","name":"getResourceCount","stateMutability":"view",
 "inputs":[],"outputs":[{"name":"","type":"uint256"}]},
{"type":"function","name":"getResourceAtIndex","stateMutability":"view",
 "inputs":[{"name":"index","type":"uint256"}],"outputs":[{"name":"","type":"bytes32"}]}
]`

// Backend is what EthereumRegistry needs from a node connection.
// *ethclient.Client satisfies it.
type Backend interface {
	bind.ContractBackend
	TransactionReceipt(ctx context.Context, txHash ethcommon.Hash) (*types.Receipt, error)
}

// EthereumRegistry calls the ResourceMapping contract through go-ethereum's
// bound contract. Transactions are signed locally with the configured owner
// keys.
type EthereumRegistry struct {
	backend      Backend
	contract     *bind.BoundContract
	chainID      *big.Int
	signers      map[ethcommon.Address]*ecdsa.PrivateKey
	pollInterval time.Duration
}

// DialEthereum connects to the node at rawURL and binds the contract at
// address. ownerKeys are hex-encoded secp256k1 private keys.
func DialEthereum(ctx context.Context, rawURL string, address ethcommon.Address, ownerKeys []string, pollInterval time.Duration) (*EthereumRegistry, error) {
	client, err := ethclient.DialContext(ctx, rawURL)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", rawURL, err)
	}
	chainID, err := client.ChainID(ctx)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("chain id: %w", err)
	}
	r, err := NewEthereumRegistry(client, address, chainID, ownerKeys, pollInterval)
	if err != nil {
		client.Close()
		return nil, err
	}
	return r, nil
}

func NewEthereumRegistry(backend Backend, address ethcommon.Address, chainID *big.Int, ownerKeys []string, pollInterval time.Duration) (*EthereumRegistry, error) {
	parsed, err := abi.JSON(strings.NewReader(ResourceMappingABI))
	if err != nil {
		return nil, fmt.Errorf("parse abi: %w", err)
	}

	signers := make(map[ethcommon.Address]*ecdsa.PrivateKey, len(ownerKeys))
	for _, k := range ownerKeys {
		key, err := crypto.HexToECDSA(strings.TrimPrefix(strings.TrimSpace(k), "0x"))
		if err != nil {
			return nil, fmt.Errorf("%w: invalid owner key", common.ErrValidation)
		}
		signers[crypto.PubkeyToAddress(key.PublicKey)] = key
	}

	if pollInterval <= 0 {
		pollInterval = time.Second
	}

	return &EthereumRegistry{
		backend:      backend,
		contract:     bind.NewBoundContract(address, parsed, backend, backend, backend),
		chainID:      chainID,
		signers:      signers,
		pollInterval: pollInterval,
	}, nil
}

// Close releases the node connection when the backend holds one.
func (r *EthereumRegistry) Close() error {
	if c, ok := r.backend.(interface{ Close() }); ok {
		c.Close()
	}
	return nil
}

// Owners lists the addresses this registry can sign for.
func (r *EthereumRegistry) Owners() []ethcommon.Address {
	out := make([]ethcommon.Address, 0, len(r.signers))
	for a := range r.signers {
		out = append(out, a)
	}
	return out
}

func (r *EthereumRegistry) AddResource(ctx context.Context, owner ethcommon.Address, key ethcommon.Hash, metadata string) (Tx, error) {
	opts, err := r.transactor(ctx, owner)
	if err != nil {
		return Tx{}, err
	}

	tx, err := r.contract.Transact(opts, "addResource", [32]byte(key), metadata)
	if err != nil {
		return Tx{}, submissionError(err, common.ErrConflict)
	}
	return Tx{Hash: tx.Hash()}, nil
}

func (r *EthereumRegistry) UpdateResourceStatus(ctx context.Context, owner ethcommon.Address, key ethcommon.Hash, isAvailable bool) (Tx, error) {
	opts, err := r.transactor(ctx, owner)
	if err != nil {
		return Tx{}, err
	}

	tx, err := r.contract.Transact(opts, "updateResourceStatus", [32]byte(key), isAvailable)
	if err != nil {
		return Tx{}, submissionError(err, common.ErrUnauthorized)
	}
	return Tx{Hash: tx.Hash()}, nil
}

func (r *EthereumRegistry) GetResource(ctx context.Context, key ethcommon.Hash) (Record, error) {
	var out []interface{}
	err := r.contract.Call(&bind.CallOpts{Context: ctx}, &out, "getResource", [32]byte(key))
	if err != nil {
		if isRevert(err) {
			return Record{}, fmt.Errorf("key %s: %w", key.Hex(), common.ErrNotFound)
		}
		return Record{}, fmt.Errorf("getResource: %w", err)
	}

	owner := *abi.ConvertType(out[0], new(ethcommon.Address)).(*ethcommon.Address)
	available := *abi.ConvertType(out[1], new(bool)).(*bool)
	ts := *abi.ConvertType(out[2], new(*big.Int)).(**big.Int)
	metadata := *abi.ConvertType(out[3], new(string)).(*string)

	// the contract answers with a zero record instead of reverting on some
	// deployments
	if owner == (ethcommon.Address{}) {
		return Record{}, fmt.Errorf("key %s: %w", key.Hex(), common.ErrNotFound)
	}

	return Record{
		Owner:       owner,
		IsAvailable: available,
		Timestamp:   ts.Uint64(),
		Metadata:    metadata,
	}, nil
}

func (r *EthereumRegistry) GetResourceCount(ctx context.Context) (uint64, error) {
	var out []interface{}
	if err := r.contract.Call(&bind.CallOpts{Context: ctx}, &out, "getResourceCount"); err != nil {
		return 0, fmt.Errorf("getResourceCount: %w", err)
	}
	n := *abi.ConvertType(out[0], new(*big.Int)).(**big.Int)
	return n.Uint64(), nil
}

func (r *EthereumRegistry) GetResourceAtIndex(ctx context.Context, index uint64) (ethcommon.Hash, error) {
	var out []interface{}
	err := r.contract.Call(&bind.CallOpts{Context: ctx}, &out, "getResourceAtIndex", new(big.Int).SetUint64(index))
	if err != nil {
		if isRevert(err) {
			return ethcommon.Hash{}, fmt.Errorf("index %d: %w", index, common.ErrNotFound)
		}
		return ethcommon.Hash{}, fmt.Errorf("getResourceAtIndex: %w", err)
	}
	key := *abi.ConvertType(out[0], new([32]byte)).(*[32]byte)
	return ethcommon.Hash(key), nil
}

// WaitForConfirmation polls for the receipt until it appears or ctx is done.
func (r *EthereumRegistry) WaitForConfirmation(ctx context.Context, tx Tx) error {
	ticker := time.NewTicker(r.pollInterval)
	defer ticker.Stop()

	for {
		receipt, err := r.backend.TransactionReceipt(ctx, tx.Hash)
		switch {
		case err == nil:
			if receipt.Status == types.ReceiptStatusFailed {
				return fmt.Errorf("transaction %s reverted: %w", tx.Hash.Hex(), common.ErrTransactionFailed)
			}
			return nil
		case errors.Is(err, ethereum.NotFound):
		case ctx.Err() != nil:
			return ctx.Err()
		default:
			return fmt.Errorf("receipt %s: %w", tx.Hash.Hex(), err)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (r *EthereumRegistry) transactor(ctx context.Context, owner ethcommon.Address) (*bind.TransactOpts, error) {
	key, ok := r.signers[owner]
	if !ok {
		return nil, fmt.Errorf("%w: no signing key for %s", common.ErrSubmission, owner.Hex())
	}
	opts, err := bind.NewKeyedTransactorWithChainID(key, r.chainID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrSubmission, err)
	}
	opts.Context = ctx
	return opts, nil
}

// isRevert reports whether the node rejected a call because the contract
// reverted (the contract's require() checks).
func isRevert(err error) bool {
	return strings.Contains(err.Error(), "execution reverted")
}

func submissionError(err error, onRevert error) error {
	if isRevert(err) {
		return fmt.Errorf("%w: %v", onRevert, err)
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return fmt.Errorf("%w: %v", common.ErrSubmission, err)
}
