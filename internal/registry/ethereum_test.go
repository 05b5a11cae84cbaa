package registry

import (
	"context"
	"crypto/ecdsa"
	"encoding/hex"
	"errors"
	"math/big"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/shackstack/shackstack/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeChain plays the node and the ResourceMapping contract: it decodes
// calldata with the contract ABI and applies it to a MemoryRegistry.
type fakeChain struct {
	abi     abi.ABI
	chainID *big.Int
	ledger  *MemoryRegistry

	mu           sync.Mutex
	nonces       map[ethcommon.Address]uint64
	receipts     map[ethcommon.Hash]*types.Receipt
	receiptDelay int
	polls        int
	failReceipts bool
	sendErr      error
}

func newFakeChain(t *testing.T) *fakeChain {
	t.Helper()
	parsed, err := abi.JSON(strings.NewReader(ResourceMappingABI))
	require.NoError(t, err)
	return &fakeChain{
		abi:      parsed,
		chainID:  big.NewInt(1337),
		ledger:   NewMemoryRegistry(),
		nonces:   map[ethcommon.Address]uint64{},
		receipts: map[ethcommon.Hash]*types.Receipt{},
	}
}

var errRevert = errors.New("execution reverted")

func (f *fakeChain) decode(data []byte) (*abi.Method, []interface{}, error) {
	method, err := f.abi.MethodById(data[:4])
	if err != nil {
		return nil, nil, err
	}
	args, err := method.Inputs.Unpack(data[4:])
	return method, args, err
}

// check runs the contract's require() conditions without changing state.
func (f *fakeChain) check(ctx context.Context, from ethcommon.Address, data []byte) error {
	method, args, err := f.decode(data)
	if err != nil {
		return err
	}
	key := ethcommon.Hash(args[0].([32]byte))
	rec, getErr := f.ledger.GetResource(ctx, key)

	switch method.Name {
	case "addResource":
		if getErr == nil {
			return errors.New("execution reverted: Resource already exists")
		}
	case "updateResourceStatus":
		if getErr != nil || rec.Owner != from {
			return errors.New("execution reverted: Not resource owner")
		}
	}
	return nil
}

func (f *fakeChain) apply(ctx context.Context, from ethcommon.Address, data []byte) error {
	method, args, err := f.decode(data)
	if err != nil {
		return err
	}
	key := ethcommon.Hash(args[0].([32]byte))
	switch method.Name {
	case "addResource":
		_, err = f.ledger.AddResource(ctx, from, key, args[1].(string))
	case "updateResourceStatus":
		_, err = f.ledger.UpdateResourceStatus(ctx, from, key, args[1].(bool))
	}
	return err
}

func (f *fakeChain) CodeAt(ctx context.Context, a ethcommon.Address, n *big.Int) ([]byte, error) {
	return []byte{0x60}, nil
}

func (f *fakeChain) PendingCodeAt(ctx context.Context, a ethcommon.Address) ([]byte, error) {
	return []byte{0x60}, nil
}

func (f *fakeChain) HeaderByNumber(ctx context.Context, n *big.Int) (*types.Header, error) {
	return &types.Header{Number: big.NewInt(1)}, nil
}

func (f *fakeChain) SuggestGasPrice(ctx context.Context) (*big.Int, error) {
	return big.NewInt(1), nil
}

func (f *fakeChain) SuggestGasTipCap(ctx context.Context) (*big.Int, error) {
	return big.NewInt(1), nil
}

func (f *fakeChain) PendingNonceAt(ctx context.Context, a ethcommon.Address) (uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.nonces[a], nil
}

func (f *fakeChain) EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error) {
	if err := f.check(ctx, msg.From, msg.Data); err != nil {
		return 0, err
	}
	return 100_000, nil
}

func (f *fakeChain) SendTransaction(ctx context.Context, tx *types.Transaction) error {
	if f.sendErr != nil {
		return f.sendErr
	}
	from, err := types.Sender(types.LatestSignerForChainID(f.chainID), tx)
	if err != nil {
		return err
	}

	status := types.ReceiptStatusSuccessful
	if f.failReceipts || f.apply(ctx, from, tx.Data()) != nil {
		status = types.ReceiptStatusFailed
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.nonces[from]++
	f.receipts[tx.Hash()] = &types.Receipt{Status: status, TxHash: tx.Hash()}
	return nil
}

func (f *fakeChain) CallContract(ctx context.Context, msg ethereum.CallMsg, n *big.Int) ([]byte, error) {
	method, args, err := f.decode(msg.Data)
	if err != nil {
		return nil, err
	}

	switch method.Name {
	case "getResource":
		rec, err := f.ledger.GetResource(ctx, ethcommon.Hash(args[0].([32]byte)))
		if err != nil {
			return nil, errors.New("execution reverted: Resource does not exist")
		}
		return method.Outputs.Pack(rec.Owner, rec.IsAvailable, new(big.Int).SetUint64(rec.Timestamp), rec.Metadata)
	case "getResourceCount":
		n, err := f.ledger.GetResourceCount(ctx)
		if err != nil {
			return nil, err
		}
		return method.Outputs.Pack(new(big.Int).SetUint64(n))
	case "getResourceAtIndex":
		key, err := f.ledger.GetResourceAtIndex(ctx, args[0].(*big.Int).Uint64())
		if err != nil {
			return nil, errors.New("execution reverted: Index out of bounds")
		}
		return method.Outputs.Pack([32]byte(key))
	}
	return nil, errRevert
}

func (f *fakeChain) FilterLogs(ctx context.Context, q ethereum.FilterQuery) ([]types.Log, error) {
	return nil, nil
}

func (f *fakeChain) SubscribeFilterLogs(ctx context.Context, q ethereum.FilterQuery, ch chan<- types.Log) (ethereum.Subscription, error) {
	return nil, errors.New("not supported")
}

func (f *fakeChain) TransactionReceipt(ctx context.Context, h ethcommon.Hash) (*types.Receipt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.polls++
	if f.polls <= f.receiptDelay {
		return nil, ethereum.NotFound
	}
	r, ok := f.receipts[h]
	if !ok {
		return nil, ethereum.NotFound
	}
	return r, nil
}

func newKey(t *testing.T) (*ecdsa.PrivateKey, string) {
	t.Helper()
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	return key, "0x" + hex.EncodeToString(crypto.FromECDSA(key))
}

func newTestEthereumRegistry(t *testing.T) (*EthereumRegistry, *fakeChain, ethcommon.Address, ethcommon.Address) {
	t.Helper()
	chain := newFakeChain(t)
	keyA, hexA := newKey(t)
	keyB, hexB := newKey(t)

	r, err := NewEthereumRegistry(chain, ethcommon.HexToAddress("0xc0ffee"), chain.chainID, []string{hexA, hexB}, time.Millisecond)
	require.NoError(t, err)

	return r, chain, crypto.PubkeyToAddress(keyA.PublicKey), crypto.PubkeyToAddress(keyB.PublicKey)
}

func TestEthereumRegistry_Contract(t *testing.T) {
	r, _, a, b := newTestEthereumRegistry(t)
	runRegistryContract(t, r, a, b)
}

func TestEthereumRegistry_Owners(t *testing.T) {
	r, _, a, b := newTestEthereumRegistry(t)
	assert.ElementsMatch(t, []ethcommon.Address{a, b}, r.Owners())
}

func TestEthereumRegistry_UnknownSignerIsSubmissionError(t *testing.T) {
	r, _, _, _ := newTestEthereumRegistry(t)

	_, err := r.AddResource(context.Background(), ownerA, keyOf("Qm1"), "{}")
	assert.ErrorIs(t, err, common.ErrSubmission)
}

func TestEthereumRegistry_NodeRejectionIsSubmissionError(t *testing.T) {
	r, chain, a, _ := newTestEthereumRegistry(t)
	chain.sendErr = errors.New("insufficient funds for gas * price + value")

	_, err := r.AddResource(context.Background(), a, keyOf("Qm1"), "{}")
	assert.ErrorIs(t, err, common.ErrSubmission)
	assert.NotErrorIs(t, err, common.ErrConflict)
}

func TestEthereumRegistry_RevertedReceipt(t *testing.T) {
	r, chain, a, _ := newTestEthereumRegistry(t)
	chain.failReceipts = true

	tx, err := r.AddResource(context.Background(), a, keyOf("Qm1"), "{}")
	require.NoError(t, err)

	err = r.WaitForConfirmation(context.Background(), tx)
	assert.ErrorIs(t, err, common.ErrTransactionFailed)
}

func TestEthereumRegistry_WaitPollsUntilMined(t *testing.T) {
	r, chain, a, _ := newTestEthereumRegistry(t)
	chain.receiptDelay = 3

	tx, err := r.AddResource(context.Background(), a, keyOf("Qm1"), "{}")
	require.NoError(t, err)

	require.NoError(t, r.WaitForConfirmation(context.Background(), tx))
	assert.Greater(t, chain.polls, 3)
}

func TestEthereumRegistry_WaitHonoursDeadline(t *testing.T) {
	r, _, _, _ := newTestEthereumRegistry(t)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := r.WaitForConfirmation(ctx, Tx{Hash: keyOf("never mined")})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestEthereumRegistry_IndexOutOfRange(t *testing.T) {
	r, _, _, _ := newTestEthereumRegistry(t)

	_, err := r.GetResourceAtIndex(context.Background(), 7)
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestNewEthereumRegistry_RejectsBadKey(t *testing.T) {
	chain := newFakeChain(t)
	_, err := NewEthereumRegistry(chain, ethcommon.Address{}, chain.chainID, []string{"nothex"}, 0)
	assert.ErrorIs(t, err, common.ErrValidation)
}
