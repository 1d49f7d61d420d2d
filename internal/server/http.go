package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
	"go.uber.org/zap"

	"github.com/masterminds-game/masterminds/internal/config"
	"github.com/masterminds-game/masterminds/internal/protocol"
)

// Version is the server release version reported on /version.
const Version = "0.1.0"

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// HealthChecker reports whether a dependency is reachable.
type HealthChecker interface {
	Health(ctx context.Context, timeout time.Duration) error
}

// healthResponse is the /healthz payload consumed by the client's
// availability probe.
type healthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database,omitempty"`
}

// NewRouter builds the HTTP surface: the liveness probe, the version
// endpoint, and the websocket upgrade. db may be nil when no remote
// backend is configured.
func NewRouter(hub *Hub, db HealthChecker, logger *zap.Logger) *httprouter.Router {
	mux := httprouter.New()

	mux.GET("/healthz", func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		resp := healthResponse{Status: "ok"}
		if db != nil {
			if err := db.Health(r.Context(), 2*time.Second); err != nil {
				// The process is still live without its remote backend;
				// report the degradation without failing the probe.
				resp.Database = "unreachable"
			} else {
				resp.Database = "ok"
			}
		}

		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(resp)
	})

	mux.GET("/version", func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("masterminds v" + Version + "\n"))
	})

	mux.GET("/ws", serveWS(hub, logger))

	return mux
}

// serveWS upgrades the connection, assigns a fresh socket ID, and runs
// the read pump on the request goroutine.
func serveWS(hub *Hub, logger *zap.Logger) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logger.Error("upgrading websocket", zap.Error(err))
			return
		}

		client := &Client{
			id:     uuid.NewString(),
			conn:   conn,
			send:   make(chan protocol.Envelope, sendBuffer),
			logger: logger,
		}

		hub.register <- client

		go client.writePump()
		client.readPump(hub)
	}
}

// HTTPServer adapts an http.Server to the lifecycle Service interface.
type HTTPServer struct {
	srv    *http.Server
	logger *zap.Logger
}

// NewHTTPServer creates the listener for the given config and handler.
func NewHTTPServer(cfg config.ServerConfig, handler http.Handler, logger *zap.Logger) *HTTPServer {
	return &HTTPServer{
		srv: &http.Server{
			Addr:              cfg.Addr(),
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
			IdleTimeout:       10 * time.Minute,
		},
		logger: logger,
	}
}

// Start listens and serves until Stop is called.
func (s *HTTPServer) Start() error {
	s.logger.Info("http server listening",
		zap.String("addr", s.srv.Addr),
	)
	err := s.srv.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Stop gracefully shuts the listener down.
func (s *HTTPServer) Stop() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = s.srv.Shutdown(ctx)
}
