package grpc

import (
	"context"

	"github.com/shackstack/shackstack/internal/jsonx"
	"google.golang.org/protobuf/types/known/structpb"
)

// Create stores data and registers it for owner_address. encrypt defaults
// to true. The response carries the CID and the registry status.
func (s *GRPCServer) Create(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	owner, err := ownerField(req, "owner_address")
	if err != nil {
		return nil, toStatus(err)
	}
	encrypt, err := boolField(req, "encrypt", true)
	if err != nil {
		return nil, toStatus(err)
	}
	field, ok := req.GetFields()["data"]
	if !ok {
		return nil, toStatus(validationError("data is required"))
	}
	data := field.AsInterface()

	cid, err := s.coordinator.Create(ctx, data, owner, encrypt)
	if err != nil {
		s.logger.Error(ctx, "create failed", "owner", owner.Hex(), "error", err)
		return nil, toStatus(err)
	}

	return s.withStatus(ctx, cid)
}

func (s *GRPCServer) Read(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	cid, err := stringField(req, "cid")
	if err != nil {
		return nil, toStatus(err)
	}
	decrypt, err := boolField(req, "decrypt", true)
	if err != nil {
		return nil, toStatus(err)
	}

	payload, err := s.coordinator.Read(ctx, cid, decrypt)
	if err != nil {
		return nil, toStatus(err)
	}

	// Struct numbers are float64; integers beyond 2^53 travel as strings.
	wire, err := jsonx.Plain(payload)
	if err != nil {
		return nil, toStatus(err)
	}

	resp, err := newStruct(map[string]any{"cid": cid, "payload": wire})
	if err != nil {
		return nil, toStatus(err)
	}
	return resp, nil
}

func (s *GRPCServer) UpdateStatus(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	cid, err := stringField(req, "cid")
	if err != nil {
		return nil, toStatus(err)
	}
	owner, err := ownerField(req, "owner_address")
	if err != nil {
		return nil, toStatus(err)
	}
	if _, ok := req.GetFields()["is_available"]; !ok {
		return nil, toStatus(validationError("is_available is required"))
	}
	isAvailable, err := boolField(req, "is_available", false)
	if err != nil {
		return nil, toStatus(err)
	}

	if err := s.coordinator.UpdateStatus(ctx, cid, isAvailable, owner); err != nil {
		s.logger.Warn(ctx, "update status failed", "cid", cid, "error", err)
		return nil, toStatus(err)
	}

	return newStruct(map[string]any{"status": "updated"})
}

func (s *GRPCServer) Status(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	cid, err := stringField(req, "cid")
	if err != nil {
		return nil, toStatus(err)
	}

	st, err := s.coordinator.Status(ctx, cid)
	if err != nil {
		return nil, toStatus(err)
	}

	m := statusMap(st)
	m["cid"] = cid
	resp, err := newStruct(m)
	if err != nil {
		return nil, toStatus(err)
	}
	return resp, nil
}

func (s *GRPCServer) List(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	list, err := s.coordinator.List(ctx)
	if err != nil {
		return nil, toStatus(err)
	}

	items := make([]any, 0, len(list))
	for _, st := range list {
		items = append(items, statusMap(st))
	}

	resp, err := newStruct(map[string]any{"resources": items})
	if err != nil {
		return nil, toStatus(err)
	}
	return resp, nil
}

// Register completes a create whose registration step failed.
func (s *GRPCServer) Register(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	cid, err := stringField(req, "cid")
	if err != nil {
		return nil, toStatus(err)
	}
	owner, err := ownerField(req, "owner_address")
	if err != nil {
		return nil, toStatus(err)
	}
	encrypted, err := boolField(req, "encrypted", true)
	if err != nil {
		return nil, toStatus(err)
	}

	if err := s.coordinator.Register(ctx, cid, owner, encrypted); err != nil {
		s.logger.Error(ctx, "register failed", "cid", cid, "error", err)
		return nil, toStatus(err)
	}

	return s.withStatus(ctx, cid)
}

func (s *GRPCServer) ListOrphans(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	orphans, err := s.coordinator.Orphans(ctx)
	if err != nil {
		return nil, toStatus(err)
	}

	items := make([]any, 0, len(orphans))
	for _, o := range orphans {
		items = append(items, orphanMap(o))
	}

	resp, err := newStruct(map[string]any{"orphans": items})
	if err != nil {
		return nil, toStatus(err)
	}
	return resp, nil
}

func (s *GRPCServer) Ping(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	return newStruct(map[string]any{"status": "OK"})
}

// withStatus answers a successful write with {cid, status}. The write has
// already happened, so a failing status lookup leaves status null instead
// of failing the call.
func (s *GRPCServer) withStatus(ctx context.Context, cid string) (*structpb.Struct, error) {
	var status any
	st, err := s.coordinator.Status(ctx, cid)
	if err != nil {
		s.logger.Warn(ctx, "status after write failed", "cid", cid, "error", err)
	} else {
		status = statusMap(st)
	}

	resp, err := newStruct(map[string]any{"cid": cid, "status": status})
	if err != nil {
		return nil, toStatus(err)
	}
	return resp, nil
}
