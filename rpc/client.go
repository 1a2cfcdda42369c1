package rpc

import (
	"context"
	"net"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"xdao.co/paperledger/cidutil"
	"xdao.co/paperledger/keys"
	"xdao.co/paperledger/ledger"
	"xdao.co/paperledger/model"
	"xdao.co/paperledger/storage"
)

// Client calls a remote ledger. Errors from ledger calls are *model.Error
// values with the same kinds the in-process ledger returns.
type Client struct {
	cc     *grpc.ClientConn
	client PaperLedgerClient

	// Timeout applies per RPC when non-zero.
	Timeout time.Duration
}

type DialOptions struct {
	// Timeout applies to the initial dial when non-zero.
	Timeout time.Duration

	// MaxMsgBytes sets both send/recv max sizes when non-zero.
	MaxMsgBytes int

	// Signer authenticates every call. Without one the client is anonymous
	// and can only query.
	Signer keys.Signer

	// Clock stamps signed requests; defaults to time.Now.
	Clock func() time.Time

	// Dialer overrides the network dialer (used with bufconn in tests).
	Dialer func(context.Context, string) (net.Conn, error)
}

func Dial(target string, opts DialOptions) (*Client, error) {
	dialOpts := []grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	}
	if opts.MaxMsgBytes > 0 {
		dialOpts = append(dialOpts,
			grpc.WithDefaultCallOptions(
				grpc.MaxCallRecvMsgSize(opts.MaxMsgBytes),
				grpc.MaxCallSendMsgSize(opts.MaxMsgBytes),
			),
		)
	}
	if opts.Signer != nil {
		dialOpts = append(dialOpts, grpc.WithUnaryInterceptor(SigningInterceptor(opts.Signer, opts.Clock)))
	}
	if opts.Dialer != nil {
		dialOpts = append(dialOpts, grpc.WithContextDialer(opts.Dialer))
	}

	ctx := context.Background()
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	cc, err := grpc.DialContext(ctx, target, dialOpts...)
	if err != nil {
		return nil, err
	}
	return &Client{cc: cc, client: NewPaperLedgerClient(cc)}, nil
}

func (c *Client) Close() error {
	if c == nil || c.cc == nil {
		return nil
	}
	return c.cc.Close()
}

func (c *Client) ctx(parent context.Context) (context.Context, context.CancelFunc) {
	if c.Timeout <= 0 {
		return context.WithCancel(parent)
	}
	return context.WithTimeout(parent, c.Timeout)
}

func (c *Client) call(ctx context.Context, method string, in *structpb.Struct) (*structpb.Struct, error) {
	ctx, cancel := c.ctx(ctx)
	defer cancel()
	out, err := c.client.Call(ctx, method, in)
	if err != nil {
		return nil, mapRPC(err)
	}
	return out, nil
}

func (c *Client) Submit(ctx context.Context, s ledger.Submission) (uint64, error) {
	out, err := c.call(ctx, MethodSubmit, encodeSubmission(s))
	if err != nil {
		return 0, err
	}
	return getUint(out, fieldID)
}

func (c *Client) Approve(ctx context.Context, id uint64) error {
	_, err := c.call(ctx, MethodApprove, idStruct(id))
	return err
}

func (c *Client) Reject(ctx context.Context, id uint64) error {
	_, err := c.call(ctx, MethodReject, idStruct(id))
	return err
}

func (c *Client) Remove(ctx context.Context, id uint64) error {
	_, err := c.call(ctx, MethodRemove, idStruct(id))
	return err
}

func (c *Client) AddVersion(ctx context.Context, id uint64, in ledger.VersionInput) (int, error) {
	out, err := c.call(ctx, MethodAddVersion, encodeVersionInput(id, in))
	if err != nil {
		return 0, err
	}
	idx, err := getUint(out, fieldIndex)
	return int(idx), err
}

func (c *Client) AddAuditor(ctx context.Context, auditor model.Identity) error {
	_, err := c.call(ctx, MethodAddAuditor, identityStruct(fieldAuditor, auditor))
	return err
}

func (c *Client) RemoveAuditor(ctx context.Context, auditor model.Identity) error {
	_, err := c.call(ctx, MethodRemoveAuditor, identityStruct(fieldAuditor, auditor))
	return err
}

func (c *Client) PaperInfo(ctx context.Context, id uint64) (model.PaperInfo, error) {
	out, err := c.call(ctx, MethodGetPaperInfo, idStruct(id))
	if err != nil {
		return model.PaperInfo{}, err
	}
	return decodePaperInfo(out)
}

func (c *Client) Version(ctx context.Context, id uint64, index int) (model.Version, error) {
	if index < 0 {
		return model.Version{}, model.Errorf(model.KindInvalidArgument, "version index %d out of range", index)
	}
	in := idStruct(id)
	in.Fields[fieldIndex] = structpb.NewNumberValue(float64(index))
	out, err := c.call(ctx, MethodGetVersion, in)
	if err != nil {
		return model.Version{}, err
	}
	return decodeVersion(out)
}

func (c *Client) Papers(ctx context.Context, f ledger.Filter) ([]model.PaperInfo, error) {
	out, err := c.call(ctx, MethodListPapers, encodeFilter(f))
	if err != nil {
		return nil, err
	}
	return decodePaperList(out)
}

// PutContent uploads bytes to the daemon's content store and checks the
// returned reference against a locally computed one.
func (c *Client) PutContent(ctx context.Context, data []byte) (storage.Ref, error) {
	want, hash, err := cidutil.ContentRef(data)
	if err != nil {
		return storage.Ref{}, err
	}
	ctx, cancel := c.ctx(ctx)
	defer cancel()
	out, err := c.client.PutContent(ctx, wrapperspb.Bytes(data))
	if err != nil {
		return storage.Ref{}, mapContentRPC(err)
	}
	gotID, err := getString(out, fieldCID)
	if err != nil {
		return storage.Ref{}, err
	}
	gotHash, err := getHash(out, fieldHash)
	if err != nil {
		return storage.Ref{}, err
	}
	if gotID != want.String() || gotHash != hash {
		return storage.Ref{}, storage.ErrCIDMismatch
	}
	return storage.Ref{CID: want, Hash: hash, Size: len(data)}, nil
}

// GetContent downloads the bytes for contentID and verifies them.
func (c *Client) GetContent(ctx context.Context, contentID string) ([]byte, error) {
	_, want, err := cidutil.ParseContentID(contentID)
	if err != nil {
		return nil, storage.ErrInvalidCID
	}
	ctx, cancel := c.ctx(ctx)
	defer cancel()
	out, err := c.client.GetContent(ctx, wrapperspb.String(contentID))
	if err != nil {
		return nil, mapContentRPC(err)
	}
	b := out.GetValue()
	_, got, err := cidutil.ContentRef(b)
	if err != nil {
		return nil, err
	}
	if got != want {
		return nil, storage.ErrCIDMismatch
	}
	return b, nil
}
