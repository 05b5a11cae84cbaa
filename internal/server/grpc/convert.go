package grpc

import (
	"fmt"
	"time"

	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/shackstack/shackstack/internal/common"
	"github.com/shackstack/shackstack/internal/journal"
	"github.com/shackstack/shackstack/internal/resources"
	"google.golang.org/protobuf/types/known/structpb"
)

func validationError(msg string) error {
	return fmt.Errorf("%w: %s", common.ErrValidation, msg)
}

func stringField(req *structpb.Struct, name string) (string, error) {
	v, ok := req.GetFields()[name]
	if !ok {
		return "", fmt.Errorf("%w: %s is required", common.ErrValidation, name)
	}
	s, ok := v.GetKind().(*structpb.Value_StringValue)
	if !ok || s.StringValue == "" {
		return "", fmt.Errorf("%w: %s must be a non-empty string", common.ErrValidation, name)
	}
	return s.StringValue, nil
}

// boolField returns def when name is absent.
func boolField(req *structpb.Struct, name string, def bool) (bool, error) {
	v, ok := req.GetFields()[name]
	if !ok {
		return def, nil
	}
	b, ok := v.GetKind().(*structpb.Value_BoolValue)
	if !ok {
		return false, fmt.Errorf("%w: %s must be a boolean", common.ErrValidation, name)
	}
	return b.BoolValue, nil
}

// ownerField reads and checks a 20-byte hex address.
func ownerField(req *structpb.Struct, name string) (ethcommon.Address, error) {
	s, err := stringField(req, name)
	if err != nil {
		return ethcommon.Address{}, err
	}
	if !ethcommon.IsHexAddress(s) {
		return ethcommon.Address{}, fmt.Errorf("%w: %s is not a valid address", common.ErrValidation, name)
	}
	return ethcommon.HexToAddress(s), nil
}

func statusMap(st resources.Status) map[string]any {
	return map[string]any{
		"registry_key": st.RegistryKey.Hex(),
		"owner":        st.Owner.Hex(),
		"is_available": st.IsAvailable,
		"timestamp":    float64(st.Timestamp),
		"metadata":     st.Metadata,
	}
}

func orphanMap(o journal.Orphan) map[string]any {
	return map[string]any{
		"cid":        o.CID,
		"owner":      o.Owner,
		"encrypted":  o.Encrypted,
		"reason":     o.Reason,
		"created_at": o.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func newStruct(m map[string]any) (*structpb.Struct, error) {
	s, err := structpb.NewStruct(m)
	if err != nil {
		return nil, fmt.Errorf("%w: encode response: %v", common.ErrInternal, err)
	}
	return s, nil
}
