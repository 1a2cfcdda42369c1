package rpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "xdao.paperledger.v1.PaperLedger"

const (
	MethodSubmit        = "/" + ServiceName + "/Submit"
	MethodApprove       = "/" + ServiceName + "/Approve"
	MethodReject        = "/" + ServiceName + "/Reject"
	MethodRemove        = "/" + ServiceName + "/Remove"
	MethodAddVersion    = "/" + ServiceName + "/AddVersion"
	MethodAddAuditor    = "/" + ServiceName + "/AddAuditor"
	MethodRemoveAuditor = "/" + ServiceName + "/RemoveAuditor"
	MethodGetPaperInfo  = "/" + ServiceName + "/GetPaperInfo"
	MethodGetVersion    = "/" + ServiceName + "/GetVersion"
	MethodListPapers    = "/" + ServiceName + "/ListPapers"
	MethodPutContent    = "/" + ServiceName + "/PutContent"
	MethodGetContent    = "/" + ServiceName + "/GetContent"
)

// PaperLedgerServer is the server API for the PaperLedger service.
//
// Messages are protobuf well-known types so no protoc/codegen toolchain is
// needed. Ledger calls exchange structpb.Struct; content calls use wrappers.
type PaperLedgerServer interface {
	Submit(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Approve(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Reject(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Remove(context.Context, *structpb.Struct) (*structpb.Struct, error)
	AddVersion(context.Context, *structpb.Struct) (*structpb.Struct, error)
	AddAuditor(context.Context, *structpb.Struct) (*structpb.Struct, error)
	RemoveAuditor(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetPaperInfo(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetVersion(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListPapers(context.Context, *structpb.Struct) (*structpb.Struct, error)
	PutContent(context.Context, *wrapperspb.BytesValue) (*structpb.Struct, error)
	GetContent(context.Context, *wrapperspb.StringValue) (*wrapperspb.BytesValue, error)
}

// UnimplementedPaperLedgerServer can be embedded to have forward compatible implementations.
type UnimplementedPaperLedgerServer struct{}

func unimplemented(name string) error {
	return status.Errorf(codes.Unimplemented, "method %s not implemented", name)
}

func (UnimplementedPaperLedgerServer) Submit(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, unimplemented("Submit")
}
func (UnimplementedPaperLedgerServer) Approve(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, unimplemented("Approve")
}
func (UnimplementedPaperLedgerServer) Reject(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, unimplemented("Reject")
}
func (UnimplementedPaperLedgerServer) Remove(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, unimplemented("Remove")
}
func (UnimplementedPaperLedgerServer) AddVersion(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, unimplemented("AddVersion")
}
func (UnimplementedPaperLedgerServer) AddAuditor(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, unimplemented("AddAuditor")
}
func (UnimplementedPaperLedgerServer) RemoveAuditor(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, unimplemented("RemoveAuditor")
}
func (UnimplementedPaperLedgerServer) GetPaperInfo(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, unimplemented("GetPaperInfo")
}
func (UnimplementedPaperLedgerServer) GetVersion(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, unimplemented("GetVersion")
}
func (UnimplementedPaperLedgerServer) ListPapers(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, unimplemented("ListPapers")
}
func (UnimplementedPaperLedgerServer) PutContent(context.Context, *wrapperspb.BytesValue) (*structpb.Struct, error) {
	return nil, unimplemented("PutContent")
}
func (UnimplementedPaperLedgerServer) GetContent(context.Context, *wrapperspb.StringValue) (*wrapperspb.BytesValue, error) {
	return nil, unimplemented("GetContent")
}

// RegisterPaperLedgerServer registers the PaperLedger service on a gRPC server.
func RegisterPaperLedgerServer(s grpc.ServiceRegistrar, srv PaperLedgerServer) {
	s.RegisterService(&PaperLedger_ServiceDesc, srv)
}

// PaperLedgerClient is the client API for the PaperLedger service.
type PaperLedgerClient interface {
	Call(ctx context.Context, method string, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	PutContent(ctx context.Context, in *wrapperspb.BytesValue, opts ...grpc.CallOption) (*structpb.Struct, error)
	GetContent(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*wrapperspb.BytesValue, error)
}

type paperLedgerClient struct{ cc grpc.ClientConnInterface }

func NewPaperLedgerClient(cc grpc.ClientConnInterface) PaperLedgerClient {
	return &paperLedgerClient{cc: cc}
}

// Call invokes one of the Struct-in, Struct-out methods by full method name.
func (c *paperLedgerClient) Call(ctx context.Context, method string, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *paperLedgerClient) PutContent(ctx context.Context, in *wrapperspb.BytesValue, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, MethodPutContent, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *paperLedgerClient) GetContent(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*wrapperspb.BytesValue, error) {
	out := new(wrapperspb.BytesValue)
	if err := c.cc.Invoke(ctx, MethodGetContent, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

type structCall func(PaperLedgerServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

// structHandler builds the method handler for a Struct-in, Struct-out method.
func structHandler(fullMethod string, call structCall) grpc.MethodHandler {
	return func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(PaperLedgerServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req interface{}) (interface{}, error) {
			return call(srv.(PaperLedgerServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

func _PaperLedger_PutContent_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(wrapperspb.BytesValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(PaperLedgerServer).PutContent(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: MethodPutContent}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(PaperLedgerServer).PutContent(ctx, req.(*wrapperspb.BytesValue))
	}
	return interceptor(ctx, in, info, handler)
}

func _PaperLedger_GetContent_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(wrapperspb.StringValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(PaperLedgerServer).GetContent(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: MethodGetContent}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(PaperLedgerServer).GetContent(ctx, req.(*wrapperspb.StringValue))
	}
	return interceptor(ctx, in, info, handler)
}

// PaperLedger_ServiceDesc is the grpc.ServiceDesc for the PaperLedger service.
var PaperLedger_ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*PaperLedgerServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Submit", Handler: structHandler(MethodSubmit, PaperLedgerServer.Submit)},
		{MethodName: "Approve", Handler: structHandler(MethodApprove, PaperLedgerServer.Approve)},
		{MethodName: "Reject", Handler: structHandler(MethodReject, PaperLedgerServer.Reject)},
		{MethodName: "Remove", Handler: structHandler(MethodRemove, PaperLedgerServer.Remove)},
		{MethodName: "AddVersion", Handler: structHandler(MethodAddVersion, PaperLedgerServer.AddVersion)},
		{MethodName: "AddAuditor", Handler: structHandler(MethodAddAuditor, PaperLedgerServer.AddAuditor)},
		{MethodName: "RemoveAuditor", Handler: structHandler(MethodRemoveAuditor, PaperLedgerServer.RemoveAuditor)},
		{MethodName: "GetPaperInfo", Handler: structHandler(MethodGetPaperInfo, PaperLedgerServer.GetPaperInfo)},
		{MethodName: "GetVersion", Handler: structHandler(MethodGetVersion, PaperLedgerServer.GetVersion)},
		{MethodName: "ListPapers", Handler: structHandler(MethodListPapers, PaperLedgerServer.ListPapers)},
		{MethodName: "PutContent", Handler: _PaperLedger_PutContent_Handler},
		{MethodName: "GetContent", Handler: _PaperLedger_GetContent_Handler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "paperledger.proto",
}
