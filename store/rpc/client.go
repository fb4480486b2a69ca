package rpc

import (
	"context"
	"io"

	"github.com/pkg/errors"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"

	"github.com/bobg/bzz"
	"github.com/bobg/bzz/store"
)

var _ bzz.Store = &Client{}

// Client is a bzz.Store backed by a remote Server.
type Client struct {
	cc grpc.ClientConnInterface
}

func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

func (c *Client) Get(ctx context.Context, addr bzz.Address) ([]byte, error) {
	var resp GetResponse
	err := c.cc.Invoke(ctx, "/"+serviceName+"/Get", &GetRequest{Addr: addr[:]}, &resp, grpc.CallContentSubtype(CodecName))
	if err != nil {
		return nil, fromStatus(err, addr)
	}
	return resp.Data, nil
}

func (c *Client) Put(ctx context.Context, addr bzz.Address, data []byte) (bool, error) {
	var resp PutResponse
	err := c.cc.Invoke(ctx, "/"+serviceName+"/Put", &PutRequest{Addr: addr[:], Data: data}, &resp, grpc.CallContentSubtype(CodecName))
	if err != nil {
		return false, fromStatus(err, addr)
	}
	return resp.Added, nil
}

func (c *Client) ListAddrs(ctx context.Context, start bzz.Address, f func(bzz.Address) error) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	stream, err := c.cc.NewStream(ctx, &serviceDesc.Streams[0], "/"+serviceName+"/ListAddrs", grpc.CallContentSubtype(CodecName))
	if err != nil {
		return errors.Wrap(err, "opening stream")
	}
	if err = stream.SendMsg(&ListAddrsRequest{Start: start[:]}); err != nil {
		return errors.Wrap(err, "sending request")
	}
	if err = stream.CloseSend(); err != nil {
		return errors.Wrap(err, "closing send side")
	}
	for {
		var resp ListAddrsResponse
		err := stream.RecvMsg(&resp)
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return errors.Wrap(err, "receiving response")
		}
		addr, err := parseAddr(resp.Addr)
		if err != nil {
			return err
		}
		if err = f(addr); err != nil {
			return err
		}
	}
}

func fromStatus(err error, addr bzz.Address) error {
	switch status.Code(err) {
	case codes.NotFound:
		return errors.Wrapf(bzz.ErrNotFound, "remote chunk %s", addr)
	case codes.InvalidArgument:
		return errors.Wrapf(bzz.ErrAddressMismatch, "remote chunk %s: %s", addr, status.Convert(err).Message())
	}
	return err
}

func init() {
	store.Register("rpc", func(_ context.Context, conf map[string]interface{}) (bzz.Store, error) {
		addr, ok := conf["addr"].(string)
		if !ok {
			return nil, errors.New(`missing "addr" parameter`)
		}
		var opts []grpc.DialOption
		if ins, _ := conf["insecure"].(bool); ins {
			opts = append(opts, grpc.WithTransportCredentials(insecure.NewCredentials()))
		}
		cc, err := grpc.NewClient(addr, opts...)
		if err != nil {
			return nil, errors.Wrapf(err, "connecting to %s", addr)
		}
		return NewClient(cc), nil
	})
}
