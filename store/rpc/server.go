package rpc

import (
	"context"

	"github.com/pkg/errors"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/bobg/bzz"
)

var _ StoreServer = &Server{}

// Server serves a chunk store to Clients.
type Server struct {
	s bzz.Store
}

func NewServer(s bzz.Store) *Server {
	return &Server{s: s}
}

func (s *Server) Get(ctx context.Context, req *GetRequest) (*GetResponse, error) {
	addr, err := parseAddr(req.Addr)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	data, err := s.s.Get(ctx, addr)
	if err != nil {
		return nil, toStatus(err)
	}
	return &GetResponse{Data: data}, nil
}

func (s *Server) Put(ctx context.Context, req *PutRequest) (*PutResponse, error) {
	addr, err := parseAddr(req.Addr)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	added, err := s.s.Put(ctx, addr, req.Data)
	if err != nil {
		return nil, toStatus(err)
	}
	return &PutResponse{Added: added}, nil
}

func (s *Server) ListAddrs(req *ListAddrsRequest, stream grpc.ServerStream) error {
	var start bzz.Address
	if len(req.Start) > 0 {
		var err error
		start, err = parseAddr(req.Start)
		if err != nil {
			return status.Error(codes.InvalidArgument, err.Error())
		}
	}
	err := s.s.ListAddrs(stream.Context(), start, func(addr bzz.Address) error {
		return stream.SendMsg(&ListAddrsResponse{Addr: addr[:]})
	})
	return toStatus(err)
}

func parseAddr(b []byte) (bzz.Address, error) {
	if len(b) != bzz.AddressSize {
		return bzz.Zero, errors.Wrapf(bzz.ErrInvalidLength, "address is %d bytes", len(b))
	}
	return bzz.AddressFromBytes(b), nil
}

func toStatus(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, bzz.ErrNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, bzz.ErrAddressMismatch):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	}
	return err
}
