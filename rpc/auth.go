package rpc

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/proto"

	"xdao.co/paperledger/keys"
	"xdao.co/paperledger/model"
)

// Metadata keys carrying a signed caller identity.
const (
	MDIdentity  = "x-paper-identity"
	MDTimestamp = "x-paper-timestamp"
	MDSignature = "x-paper-signature"
	MDNonce     = "x-paper-nonce"
)

// DefaultMaxClockSkew bounds how far a request timestamp may drift.
const DefaultMaxClockSkew = 2 * time.Minute

type callerKey struct{}

// WithCaller returns ctx carrying an authenticated caller identity.
func WithCaller(ctx context.Context, id model.Identity) context.Context {
	return context.WithValue(ctx, callerKey{}, id)
}

// CallerFrom returns the authenticated caller, if any.
func CallerFrom(ctx context.Context) (model.Identity, bool) {
	id, ok := ctx.Value(callerKey{}).(model.Identity)
	return id, ok && !id.IsZero()
}

// Authenticator verifies request signatures on the server. A signed request
// is accepted at most once while its timestamp is inside the skew window.
type Authenticator struct {
	MaxClockSkew time.Duration
	Clock        func() time.Time

	mu   sync.Mutex
	seen map[[sha256.Size]byte]time.Time
}

func (a *Authenticator) now() time.Time {
	if a == nil || a.Clock == nil {
		return time.Now()
	}
	return a.Clock()
}

func (a *Authenticator) skew() time.Duration {
	if a == nil || a.MaxClockSkew <= 0 {
		return DefaultMaxClockSkew
	}
	return a.MaxClockSkew
}

// Authenticate resolves the caller for a call to method carrying req from
// incoming metadata. Requests without an identity are anonymous; requests
// with a bad, stale or replayed signature fail.
func (a *Authenticator) Authenticate(ctx context.Context, method string, req interface{}) (context.Context, error) {
	md, _ := metadata.FromIncomingContext(ctx)
	id := firstMD(md, MDIdentity)
	if id == "" {
		return ctx, nil
	}
	ms, err := strconv.ParseInt(firstMD(md, MDTimestamp), 10, 64)
	if err != nil {
		return nil, status.Error(codes.Unauthenticated, "missing or malformed request timestamp")
	}
	at := time.UnixMilli(ms)
	now := a.now()
	if d := now.Sub(at); d > a.skew() || d < -a.skew() {
		return nil, status.Errorf(codes.Unauthenticated, "request timestamp outside allowed skew of %s", a.skew())
	}
	sig, err := base64.StdEncoding.DecodeString(firstMD(md, MDSignature))
	if err != nil || len(sig) == 0 {
		return nil, status.Error(codes.Unauthenticated, "missing or malformed request signature")
	}
	nonce := firstMD(md, MDNonce)
	if nonce == "" {
		return nil, status.Error(codes.Unauthenticated, "missing request nonce")
	}
	body, err := requestBody(req)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode request: %v", err)
	}
	msg := keys.RequestMessage(method, model.Identity(id), at, nonce, body)
	if err := keys.Verify(model.Identity(id), msg, sig); err != nil {
		return nil, status.Errorf(codes.Unauthenticated, "request signature: %v", err)
	}
	if !a.remember(sha256.Sum256(msg), at, now) {
		return nil, status.Error(codes.Unauthenticated, "request signature already used")
	}
	return WithCaller(ctx, model.Identity(id)), nil
}

// remember records a verified request and reports whether it is new. Entries
// whose timestamp has left the skew window are dropped.
func (a *Authenticator) remember(key [sha256.Size]byte, at, now time.Time) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.seen == nil {
		a.seen = make(map[[sha256.Size]byte]time.Time)
	}
	for k, t := range a.seen {
		if now.Sub(t) > a.skew() {
			delete(a.seen, k)
		}
	}
	if _, dup := a.seen[key]; dup {
		return false
	}
	a.seen[key] = at
	return true
}

// requestBody is the deterministic wire encoding of req that request
// signatures cover.
func requestBody(req interface{}) ([]byte, error) {
	switch m := req.(type) {
	case nil:
		return nil, nil
	case proto.Message:
		return proto.MarshalOptions{Deterministic: true}.Marshal(m)
	default:
		return nil, fmt.Errorf("unsupported request type %T", req)
	}
}

// UnaryInterceptor is the server interceptor form of Authenticate.
func (a *Authenticator) UnaryInterceptor(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
	ctx, err := a.Authenticate(ctx, info.FullMethod, req)
	if err != nil {
		return nil, err
	}
	return handler(ctx, req)
}

func firstMD(md metadata.MD, key string) string {
	if v := md.Get(key); len(v) > 0 {
		return v[0]
	}
	return ""
}

// SigningInterceptor signs every outgoing call with s.
func SigningInterceptor(s keys.Signer, clock func() time.Time) grpc.UnaryClientInterceptor {
	if clock == nil {
		clock = time.Now
	}
	return func(ctx context.Context, method string, req, reply interface{}, cc *grpc.ClientConn, invoker grpc.UnaryInvoker, opts ...grpc.CallOption) error {
		body, err := requestBody(req)
		if err != nil {
			return err
		}
		at, nonce := clock(), uuid.NewString()
		sig, err := keys.SignRequest(s, method, at, nonce, body)
		if err != nil {
			return err
		}
		ctx = metadata.AppendToOutgoingContext(ctx,
			MDIdentity, string(s.Identity()),
			MDTimestamp, strconv.FormatInt(at.UnixMilli(), 10),
			MDNonce, nonce,
			MDSignature, base64.StdEncoding.EncodeToString(sig),
		)
		return invoker(ctx, method, req, reply, cc, opts...)
	}
}

// LoggingInterceptor logs one line per call.
func LoggingInterceptor(log zerolog.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		caller, _ := CallerFrom(ctx)
		code := status.Code(err)
		ev := log.Info()
		if code != codes.OK {
			ev = log.Warn().Str("error", status.Convert(err).Message())
		}
		ev.Str("method", info.FullMethod).
			Str("caller", string(caller)).
			Str("code", code.String()).
			Dur("duration", time.Since(start)).
			Msg("rpc")
		return resp, err
	}
}
