package rpc

import (
	"context"

	"github.com/rs/zerolog"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"xdao.co/paperledger/ledger"
	"xdao.co/paperledger/model"
	"xdao.co/paperledger/storage"
)

// Server exposes a ledger and its content store over the PaperLedger service.
type Server struct {
	UnimplementedPaperLedgerServer
	Ledger *ledger.Ledger
	// CAS is optional; content methods fail with FailedPrecondition without it.
	CAS storage.CAS
}

// ServerOptions configures NewGRPCServer.
type ServerOptions struct {
	Auth        *Authenticator
	Logger      zerolog.Logger
	MaxMsgBytes int
}

// NewGRPCServer returns a grpc.Server with s registered behind the
// authentication and logging interceptors.
func NewGRPCServer(s *Server, opts ServerOptions) *grpc.Server {
	auth := opts.Auth
	if auth == nil {
		auth = &Authenticator{}
	}
	serverOpts := []grpc.ServerOption{
		grpc.ChainUnaryInterceptor(auth.UnaryInterceptor, LoggingInterceptor(opts.Logger)),
	}
	if opts.MaxMsgBytes > 0 {
		serverOpts = append(serverOpts,
			grpc.MaxRecvMsgSize(opts.MaxMsgBytes),
			grpc.MaxSendMsgSize(opts.MaxMsgBytes),
		)
	}
	srv := grpc.NewServer(serverOpts...)
	RegisterPaperLedgerServer(srv, s)
	return srv
}

func (s *Server) ledger() (*ledger.Ledger, error) {
	if s == nil || s.Ledger == nil {
		return nil, status.Error(codes.FailedPrecondition, "missing ledger")
	}
	return s.Ledger, nil
}

// caller returns the authenticated identity or Unauthenticated.
func caller(ctx context.Context) (model.Identity, error) {
	id, ok := CallerFrom(ctx)
	if !ok {
		return "", status.Error(codes.Unauthenticated, "signed request required")
	}
	return id, nil
}

func empty() *structpb.Struct { return newStruct(map[string]*structpb.Value{}) }

func (s *Server) Submit(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	l, err := s.ledger()
	if err != nil {
		return nil, err
	}
	who, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	sub, err := decodeSubmission(in)
	if err != nil {
		return nil, mapErr(err)
	}
	id, err := l.Submit(ctx, who, sub)
	if err != nil {
		return nil, mapErr(err)
	}
	return idStruct(id), nil
}

type paperOp func(*ledger.Ledger, context.Context, model.Identity, uint64) error

func (s *Server) paperAction(ctx context.Context, in *structpb.Struct, act paperOp) (*structpb.Struct, error) {
	l, err := s.ledger()
	if err != nil {
		return nil, err
	}
	who, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	id, err := getUint(in, fieldID)
	if err != nil {
		return nil, mapErr(err)
	}
	if err := act(l, ctx, who, id); err != nil {
		return nil, mapErr(err)
	}
	return empty(), nil
}

func (s *Server) Approve(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	return s.paperAction(ctx, in, (*ledger.Ledger).Approve)
}

func (s *Server) Reject(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	return s.paperAction(ctx, in, (*ledger.Ledger).Reject)
}

func (s *Server) Remove(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	return s.paperAction(ctx, in, (*ledger.Ledger).Remove)
}

func (s *Server) AddVersion(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	l, err := s.ledger()
	if err != nil {
		return nil, err
	}
	who, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	id, v, err := decodeVersionInput(in)
	if err != nil {
		return nil, mapErr(err)
	}
	idx, err := l.AddVersion(ctx, who, id, v)
	if err != nil {
		return nil, mapErr(err)
	}
	return newStruct(map[string]*structpb.Value{fieldIndex: structpb.NewNumberValue(float64(idx))}), nil
}

type auditorOp func(*ledger.Ledger, context.Context, model.Identity, model.Identity) error

func (s *Server) auditorAction(ctx context.Context, in *structpb.Struct, act auditorOp) (*structpb.Struct, error) {
	l, err := s.ledger()
	if err != nil {
		return nil, err
	}
	who, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	auditor, err := getString(in, fieldAuditor)
	if err != nil {
		return nil, mapErr(err)
	}
	if err := act(l, ctx, who, model.Identity(auditor)); err != nil {
		return nil, mapErr(err)
	}
	return empty(), nil
}

func (s *Server) AddAuditor(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	return s.auditorAction(ctx, in, (*ledger.Ledger).AddAuditor)
}

func (s *Server) RemoveAuditor(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	return s.auditorAction(ctx, in, (*ledger.Ledger).RemoveAuditor)
}

func (s *Server) GetPaperInfo(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	l, err := s.ledger()
	if err != nil {
		return nil, err
	}
	id, err := getUint(in, fieldID)
	if err != nil {
		return nil, mapErr(err)
	}
	info, err := l.PaperInfo(id)
	if err != nil {
		return nil, mapErr(err)
	}
	return encodePaperInfo(info), nil
}

func (s *Server) GetVersion(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	l, err := s.ledger()
	if err != nil {
		return nil, err
	}
	id, err := getUint(in, fieldID)
	if err != nil {
		return nil, mapErr(err)
	}
	idx, err := getUint(in, fieldIndex)
	if err != nil {
		return nil, mapErr(err)
	}
	v, err := l.Version(id, int(idx))
	if err != nil {
		return nil, mapErr(err)
	}
	return encodeVersion(v), nil
}

func (s *Server) ListPapers(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	l, err := s.ledger()
	if err != nil {
		return nil, err
	}
	f, err := decodeFilter(in)
	if err != nil {
		return nil, mapErr(err)
	}
	return encodePaperList(l.Papers(f)), nil
}

func (s *Server) PutContent(ctx context.Context, in *wrapperspb.BytesValue) (*structpb.Struct, error) {
	if s == nil || s.CAS == nil {
		return nil, status.Error(codes.FailedPrecondition, "missing content store")
	}
	if _, err := caller(ctx); err != nil {
		return nil, err
	}
	ref, err := storage.Ingest(s.CAS, in.GetValue())
	if err != nil {
		return nil, mapErr(err)
	}
	return newStruct(map[string]*structpb.Value{
		fieldCID:  structpb.NewStringValue(ref.ContentID()),
		fieldHash: structpb.NewStringValue(ref.Hash.String()),
	}), nil
}

func (s *Server) GetContent(ctx context.Context, in *wrapperspb.StringValue) (*wrapperspb.BytesValue, error) {
	if s == nil || s.CAS == nil {
		return nil, status.Error(codes.FailedPrecondition, "missing content store")
	}
	b, err := storage.Fetch(s.CAS, in.GetValue(), model.ContentHash{})
	if err != nil {
		return nil, mapErr(err)
	}
	return wrapperspb.Bytes(b), nil
}
