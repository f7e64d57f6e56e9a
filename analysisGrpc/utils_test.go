package analysisGrpc

import (
	"context"
	"io"
	"net"
	"testing"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/test/bufconn"

	"safemc"
	"safemc/examples/dice"
	"safemc/examples/tank"
)

const bufSize = 1024 * 1024

// Start a server for the dice and tank models and return a client connected to it
func startServer(t *testing.T) *Client {
	t.Helper()
	r := safemc.NewRegistry(safemc.WithWorkers(2))
	r.MustRegister("dice", dice.Definition())
	r.MustRegister("tank", tank.Definition())

	lis := bufconn.Listen(bufSize)
	srv := NewServer(r, safemc.NewLogger("error", "text", io.Discard))
	go srv.StartServer(lis)

	conn, err := grpc.Dial("bufnet",
		grpc.WithContextDialer(
			func(ctx context.Context, s string) (net.Conn, error) {
				return lis.DialContext(ctx)
			},
		),
		grpc.WithBlock(),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		t.Fatalf("Error while dialing the server: %v", err)
	}
	t.Cleanup(func() {
		conn.Close()
		srv.Stop()
	})
	return NewClient(conn)
}
