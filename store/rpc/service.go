// Package rpc exposes a chunk store over gRPC.
// Messages are CBOR-encoded rather than protobuf.
package rpc

import (
	"context"

	"google.golang.org/grpc"
)

const serviceName = "bzz.Store"

// GetRequest asks for the chunk data at Addr.
type GetRequest struct {
	Addr []byte `cbor:"1,keyasint"`
}

// GetResponse carries the chunk data for a GetRequest.
type GetResponse struct {
	Data []byte `cbor:"1,keyasint"`
}

// PutRequest stores Data at Addr.
type PutRequest struct {
	Addr []byte `cbor:"1,keyasint"`
	Data []byte `cbor:"2,keyasint"`
}

// PutResponse reports whether a PutRequest added a new chunk.
type PutResponse struct {
	Added bool `cbor:"1,keyasint"`
}

// ListAddrsRequest lists the addresses after Start.
type ListAddrsRequest struct {
	Start []byte `cbor:"1,keyasint"`
}

// ListAddrsResponse is one address in the stream answering a ListAddrsRequest.
type ListAddrsResponse struct {
	Addr []byte `cbor:"1,keyasint"`
}

// StoreServer is the server side of the store service.
type StoreServer interface {
	Get(context.Context, *GetRequest) (*GetResponse, error)
	Put(context.Context, *PutRequest) (*PutResponse, error)
	ListAddrs(*ListAddrsRequest, grpc.ServerStream) error
}

// RegisterStoreServer registers srv with s.
func RegisterStoreServer(s grpc.ServiceRegistrar, srv StoreServer) {
	s.RegisterService(&serviceDesc, srv)
}

var serviceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*StoreServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Get", Handler: getHandler},
		{MethodName: "Put", Handler: putHandler},
	},
	Streams: []grpc.StreamDesc{
		{StreamName: "ListAddrs", Handler: listAddrsHandler, ServerStreams: true},
	},
	Metadata: "bzz/store/rpc",
}

func getHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(GetRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(StoreServer).Get(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + serviceName + "/Get"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(StoreServer).Get(ctx, req.(*GetRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func putHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(PutRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(StoreServer).Put(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + serviceName + "/Put"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(StoreServer).Put(ctx, req.(*PutRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func listAddrsHandler(srv interface{}, stream grpc.ServerStream) error {
	in := new(ListAddrsRequest)
	if err := stream.RecvMsg(in); err != nil {
		return err
	}
	return srv.(StoreServer).ListAddrs(in, stream)
}
