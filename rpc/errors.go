package rpc

import (
	"errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"xdao.co/paperledger/model"
	"xdao.co/paperledger/storage"
)

var kindCodes = map[model.Kind]codes.Code{
	model.KindInvalidArgument: codes.InvalidArgument,
	model.KindUnauthorized:    codes.PermissionDenied,
	model.KindAlreadyExists:   codes.AlreadyExists,
	model.KindNotFound:        codes.NotFound,
	model.KindInvalidState:    codes.FailedPrecondition,
	model.KindConflict:        codes.Aborted,
	model.KindInternal:        codes.Internal,
}

// CodeFor returns the gRPC code a ledger error kind travels as.
func CodeFor(kind model.Kind) codes.Code {
	if c, ok := kindCodes[kind]; ok {
		return c
	}
	return codes.Internal
}

// mapErr converts a ledger or storage error into a gRPC status error.
func mapErr(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, storage.ErrInvalidCID):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, storage.ErrCIDMismatch):
		return status.Error(codes.DataLoss, err.Error())
	}
	var me *model.Error
	if errors.As(err, &me) {
		// Only the message crosses the wire; causes stay server side.
		return status.Error(CodeFor(me.Kind), me.Message)
	}
	return status.Error(codes.Internal, err.Error())
}

// mapRPC rebuilds a *model.Error from a ledger call's status so remote
// callers can branch on kinds like in-process ones.
func mapRPC(err error) error {
	if err == nil {
		return nil
	}
	st, ok := status.FromError(err)
	if !ok {
		return err
	}
	var kind model.Kind
	switch st.Code() {
	case codes.InvalidArgument:
		kind = model.KindInvalidArgument
	case codes.PermissionDenied, codes.Unauthenticated:
		kind = model.KindUnauthorized
	case codes.AlreadyExists:
		kind = model.KindAlreadyExists
	case codes.NotFound:
		kind = model.KindNotFound
	case codes.FailedPrecondition:
		kind = model.KindInvalidState
	case codes.Aborted:
		kind = model.KindConflict
	case codes.Internal:
		kind = model.KindInternal
	default:
		return err
	}
	return &model.Error{Kind: kind, Message: st.Message()}
}

// mapContentRPC maps content call statuses back to storage errors.
func mapContentRPC(err error) error {
	if err == nil {
		return nil
	}
	st, ok := status.FromError(err)
	if !ok {
		return err
	}
	switch st.Code() {
	case codes.NotFound:
		return storage.ErrNotFound
	case codes.InvalidArgument:
		return storage.ErrInvalidCID
	case codes.DataLoss:
		return storage.ErrCIDMismatch
	default:
		return mapRPC(err)
	}
}
