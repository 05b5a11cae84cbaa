package grpc

import (
	"context"
	"errors"

	"github.com/shackstack/shackstack/internal/common"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// toStatus maps coordinator errors onto gRPC codes. The message is the
// error text, so a partial write still names its CID.
func toStatus(err error) error {
	var code codes.Code
	switch {
	case errors.Is(err, common.ErrNotFound):
		code = codes.NotFound
	case errors.Is(err, common.ErrUnauthorized):
		code = codes.PermissionDenied
	case errors.Is(err, common.ErrValidation):
		code = codes.InvalidArgument
	case errors.Is(err, common.ErrConflict):
		code = codes.AlreadyExists
	case errors.Is(err, common.ErrTransactionTimeout), errors.Is(err, context.DeadlineExceeded):
		code = codes.DeadlineExceeded
	case errors.Is(err, context.Canceled):
		code = codes.Canceled
	default:
		code = codes.Internal
	}
	return status.Error(code, err.Error())
}
