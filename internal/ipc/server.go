package ipc

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"sync"
)

// Handler processes one control command from a segno client process.
type Handler interface {
	Handle(context.Context, Request) Response
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(context.Context, Request) Response

func (f HandlerFunc) Handle(ctx context.Context, req Request) Response {
	return f(ctx, req)
}

// Serve runs the owner side of the control socket: it accepts clients until
// the context is cancelled or the listener closes, dispatching each
// connection's single request to the handler. In-flight connections are
// drained before Serve returns.
func Serve(ctx context.Context, listener net.Listener, handler Handler) error {
	var inFlight sync.WaitGroup

	go func() {
		<-ctx.Done()
		_ = listener.Close()
	}()

	for {
		conn, err := listener.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) || ctx.Err() != nil {
				inFlight.Wait()
				return nil
			}
			return fmt.Errorf("accept IPC connection: %w", err)
		}

		inFlight.Add(1)
		go func(c net.Conn) {
			defer inFlight.Done()
			serveConn(ctx, c, handler)
		}(conn)
	}
}

// serveConn reads the one-line JSON request, dispatches it, and writes the
// JSON response. Malformed input is answered on the wire, not surfaced.
func serveConn(ctx context.Context, conn net.Conn, handler Handler) {
	defer conn.Close()

	line, err := bufio.NewReader(conn).ReadBytes('\n')
	if err != nil {
		writeResponse(conn, Response{OK: false, Error: fmt.Sprintf("read request: %v", err)})
		return
	}

	var req Request
	if err := json.Unmarshal(line, &req); err != nil {
		writeResponse(conn, Response{OK: false, Error: fmt.Sprintf("decode request: %v", err)})
		return
	}

	writeResponse(conn, handler.Handle(ctx, req))
}

func writeResponse(conn net.Conn, resp Response) {
	_ = json.NewEncoder(conn).Encode(resp)
}
