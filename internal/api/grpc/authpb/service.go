// Package authpb describes the authd.v1.Auth gRPC service. Requests and
// responses are google.protobuf.Struct messages; field names are listed
// next to each method.
package authpb

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

const ServiceName = "authd.v1.Auth"

// Method names.
const (
	MethodRegister            = "Register"            // {email, password} -> {account}
	MethodLogin               = "Login"               // {email, password} -> {token, session}
	MethodLogout              = "Logout"              // {} -> {}
	MethodCurrentAccount      = "CurrentAccount"      // {} -> {account}
	MethodRefresh             = "Refresh"             // {} -> {token, session}
	MethodChangePassword      = "ChangePassword"      // {current_password, new_password, revoke_other_sessions} -> {}
	MethodDeleteAccount       = "DeleteAccount"       // {password} -> {}
	MethodListSessions        = "ListSessions"        // {} -> {sessions}
	MethodRevokeOtherSessions = "RevokeOtherSessions" // {} -> {revoked}
)

// FullMethod returns the fully qualified name of a method, as seen by interceptors.
func FullMethod(method string) string {
	return "/" + ServiceName + "/" + method
}

// AuthServer is implemented by the transport handler.
type AuthServer interface {
	Register(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Login(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Logout(context.Context, *structpb.Struct) (*structpb.Struct, error)
	CurrentAccount(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Refresh(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ChangePassword(context.Context, *structpb.Struct) (*structpb.Struct, error)
	DeleteAccount(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListSessions(context.Context, *structpb.Struct) (*structpb.Struct, error)
	RevokeOtherSessions(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

type unaryCall func(AuthServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func unary(method string, call unaryCall) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: method,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(structpb.Struct)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(AuthServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{
				Server:     srv,
				FullMethod: FullMethod(method),
			}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(AuthServer), ctx, req.(*structpb.Struct))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

// ServiceDesc is the grpc.ServiceDesc for authd.v1.Auth.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*AuthServer)(nil),
	Methods: []grpc.MethodDesc{
		unary(MethodRegister, AuthServer.Register),
		unary(MethodLogin, AuthServer.Login),
		unary(MethodLogout, AuthServer.Logout),
		unary(MethodCurrentAccount, AuthServer.CurrentAccount),
		unary(MethodRefresh, AuthServer.Refresh),
		unary(MethodChangePassword, AuthServer.ChangePassword),
		unary(MethodDeleteAccount, AuthServer.DeleteAccount),
		unary(MethodListSessions, AuthServer.ListSessions),
		unary(MethodRevokeOtherSessions, AuthServer.RevokeOtherSessions),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "authd/v1/auth.proto",
}

// RegisterAuthServer registers srv on s.
func RegisterAuthServer(s grpc.ServiceRegistrar, srv AuthServer) {
	s.RegisterService(&ServiceDesc, srv)
}

// AuthClient calls authd.v1.Auth methods over a client connection.
type AuthClient struct {
	cc grpc.ClientConnInterface
}

func NewAuthClient(cc grpc.ClientConnInterface) *AuthClient {
	return &AuthClient{cc: cc}
}

// Call invokes method with the given request fields.
func (c *AuthClient) Call(ctx context.Context, method string, fields map[string]any, opts ...grpc.CallOption) (*structpb.Struct, error) {
	in, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, err
	}

	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, FullMethod(method), in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
