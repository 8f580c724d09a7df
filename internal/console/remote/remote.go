// Package remote exposes the operator command surface over websocket. Every
// text frame is executed as one command line and answered with a JSON
// Response.
package remote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/zeusync/gamecore/internal/console"
	"github.com/zeusync/gamecore/internal/core/observability/log"
)

const (
	Path = "/console"

	maxMessageSize = 64 * 1024
	writeTimeout   = 5 * time.Second
	closeTimeout   = time.Second
)

// Response is the reply to one command frame. Result is null when the
// command produced nothing or failed.
type Response struct {
	Result any `json:"result"`
}

type Handler struct {
	exec     console.Executor
	logger   log.Log
	upgrader websocket.Upgrader

	mu     sync.Mutex
	conns  map[*websocket.Conn]struct{}
	closed bool
	wg     sync.WaitGroup
}

var _ http.Handler = (*Handler)(nil)

func NewHandler(exec console.Executor, logger log.Log) *Handler {
	return &Handler{
		exec:   exec,
		logger: logger.With(log.String("console", "remote")),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			// Operators connect from tooling, not browsers.
			CheckOrigin: func(*http.Request) bool { return true },
		},
		conns: make(map[*websocket.Conn]struct{}),
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("Websocket upgrade failed", log.Error(err))
		return
	}
	if !h.track(conn) {
		h.closeConn(conn, websocket.CloseGoingAway, "server shutting down")
		return
	}
	defer h.untrack(conn)

	logger := h.logger.With(log.String("remote_addr", r.RemoteAddr))
	logger.Info("Operator connected")
	conn.SetReadLimit(maxMessageSize)

	for {
		messageType, data, err := conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logger.Debug("Read failed", log.Error(err))
			}
			logger.Info("Operator disconnected")
			return
		}
		if messageType != websocket.TextMessage {
			h.closeConn(conn, websocket.CloseUnsupportedData, "text frames only")
			return
		}

		payload, err := encode(h.exec.Execute(string(data)))
		if err != nil {
			logger.Warn("Result is not JSON encodable", log.Error(err))
		}
		_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			logger.Debug("Write failed", log.Error(err))
			return
		}
	}
}

// encode renders result, falling back to its %v form when it cannot be
// marshalled.
func encode(result any) ([]byte, error) {
	payload, err := json.Marshal(Response{Result: result})
	if err == nil {
		return payload, nil
	}
	fallback, ferr := json.Marshal(Response{Result: fmt.Sprintf("%v", result)})
	if ferr != nil {
		return nil, errors.Join(err, ferr)
	}
	return fallback, err
}

func (h *Handler) track(conn *websocket.Conn) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	h.conns[conn] = struct{}{}
	h.wg.Add(1)
	return true
}

func (h *Handler) untrack(conn *websocket.Conn) {
	h.mu.Lock()
	delete(h.conns, conn)
	h.mu.Unlock()
	_ = conn.Close()
	h.wg.Done()
}

func (h *Handler) closeConn(conn *websocket.Conn, code int, reason string) {
	msg := websocket.FormatCloseMessage(code, reason)
	_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(closeTimeout))
	_ = conn.Close()
}

// Close disconnects every operator and waits for their sessions to end.
func (h *Handler) Close() {
	h.mu.Lock()
	h.closed = true
	conns := make([]*websocket.Conn, 0, len(h.conns))
	for conn := range h.conns {
		conns = append(conns, conn)
	}
	h.mu.Unlock()

	for _, conn := range conns {
		h.closeConn(conn, websocket.CloseGoingAway, "server shutting down")
	}
	h.wg.Wait()
}

// Serve listens on addr until ctx is done, then shuts the listener and
// every operator session down.
func Serve(ctx context.Context, addr string, exec console.Executor, logger log.Log) error {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}
	return ServeListener(ctx, lis, exec, logger)
}

func ServeListener(ctx context.Context, lis net.Listener, exec console.Executor, logger log.Log) error {
	handler := NewHandler(exec, logger)

	mux := http.NewServeMux()
	mux.Handle(Path, handler)
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	srv := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(lis)
	}()
	handler.logger.Info("Remote console listening", log.String("address", lis.Addr().String()))

	select {
	case err := <-errCh:
		handler.Close()
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("remote console: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := srv.Shutdown(shutdownCtx)
	handler.Close()
	if err != nil {
		return fmt.Errorf("shutdown remote console: %w", err)
	}
	handler.logger.Info("Remote console stopped")
	return nil
}
