package rpc

import (
	"context"
	"net"
	"testing"

	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/test/bufconn"

	"github.com/bobg/bzz"
	"github.com/bobg/bzz/cac"
	"github.com/bobg/bzz/store/mem"
	"github.com/bobg/bzz/store/verify"
	"github.com/bobg/bzz/testutil"
)

func TestRPC(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	grpcSrv := grpc.NewServer()
	RegisterStoreServer(grpcSrv, NewServer(verify.New(mem.New())))
	defer grpcSrv.GracefulStop()

	l := bufconn.Listen(1 << 20)

	go grpcSrv.Serve(l)

	options := []grpc.DialOption{
		grpc.WithContextDialer(func(ctx context.Context, addr string) (net.Conn, error) {
			return l.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	}

	cc, err := grpc.NewClient("passthrough:///bufnet", options...)
	if err != nil {
		t.Fatal(err)
	}
	defer cc.Close()

	c := NewClient(cc)

	t.Run("chunks", func(t *testing.T) {
		testutil.Chunks(ctx, t, c)
	})
	t.Run("readwrite", func(t *testing.T) {
		testutil.ReadWrite(ctx, t, c, testutil.Data(1, 300000))
	})
	t.Run("errors", func(t *testing.T) {
		_, err := c.Get(ctx, bzz.Address{7})
		require.ErrorIs(t, err, bzz.ErrNotFound)

		ch, err := cac.New([]byte("remote"))
		require.NoError(t, err)
		_, err = c.Put(ctx, bzz.Address{8}, ch.Data())
		require.ErrorIs(t, err, bzz.ErrAddressMismatch)
	})
	t.Run("list", func(t *testing.T) {
		var addrs []bzz.Address
		err := c.ListAddrs(ctx, bzz.Zero, func(addr bzz.Address) error {
			addrs = append(addrs, addr)
			return nil
		})
		require.NoError(t, err)
		require.NotEmpty(t, addrs)
		for i := 1; i < len(addrs); i++ {
			require.Less(t, addrs[i-1].String(), addrs[i].String())
		}
	})
}
