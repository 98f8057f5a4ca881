// Package server exposes the broadcast hub over HTTP.
package server

import (
	"encoding/json"
	"net/http"

	"github.com/and161185/metrsd/internal/config"
	"github.com/and161185/metrsd/internal/hub"
	"github.com/and161185/metrsd/internal/server/middleware"
	chiMiddleware "github.com/go-chi/chi/middleware"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// SubscribePath is the only routed endpoint.
const SubscribePath = "/subscribe"

const unhandledRouteMsg = "Unhandled route"

type Server struct {
	Hub    *hub.Hub
	Config *config.ServerConfig
}

func NewServer(h *hub.Hub, cfg *config.ServerConfig) *Server {
	return &Server{
		Hub:    h,
		Config: cfg,
	}
}

func (srv *Server) logger() *zap.SugaredLogger {
	if srv.Config == nil || srv.Config.Logger == nil {
		return zap.NewNop().Sugar()
	}
	return srv.Config.Logger
}

// Router returns the request multiplexer. Every route other than
// GET /subscribe, including a wrong method, answers 404.
func (srv *Server) Router() http.Handler {
	router := chi.NewRouter()
	router.Use(chiMiddleware.Recoverer)
	router.Use(chiMiddleware.StripSlashes)
	router.Use(middleware.LogMiddleware(srv.logger()))
	router.Get(SubscribePath, srv.SubscribeHandler)
	router.NotFound(srv.UnhandledRouteHandler)
	router.MethodNotAllowed(srv.UnhandledRouteHandler)
	return router
}

// SubscribeHandler registers a subscriber and streams its frames until the
// client goes away or the hub drops it. A disconnect only closes the
// subscriber; the sweep removes it later.
func (srv *Server) SubscribeHandler(w http.ResponseWriter, r *http.Request) {
	logger := srv.logger()

	sub, err := srv.Hub.Subscribe()
	if err != nil {
		logger.Errorf("subscribe: %v", err)
		writeError(w, http.StatusInternalServerError, "subscriber registry unavailable")
		return
	}
	defer sub.Close()

	rc := http.NewResponseController(w)
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)
	if err := rc.Flush(); err != nil {
		logger.Errorf("subscriber %s: flush headers: %v", sub.ID(), err)
		return
	}
	logger.Infof("subscriber %s connected from %s", sub.ID(), r.RemoteAddr)

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			logger.Infof("subscriber %s disconnected", sub.ID())
			return
		case frame, ok := <-sub.C():
			if !ok {
				logger.Infof("subscriber %s dropped by hub", sub.ID())
				return
			}
			// liveness probe
			if len(frame) == 0 {
				continue
			}
			if _, err := w.Write(frame); err != nil {
				logger.Infof("subscriber %s: write: %v", sub.ID(), err)
				return
			}
			if err := rc.Flush(); err != nil {
				logger.Infof("subscriber %s: flush: %v", sub.ID(), err)
				return
			}
		}
	}
}

// UnhandledRouteHandler answers every unknown route.
func (srv *Server) UnhandledRouteHandler(w http.ResponseWriter, _ *http.Request) {
	writeError(w, http.StatusNotFound, unhandledRouteMsg)
}

type errorBody struct {
	Msg string `json:"msg"`
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorBody{Msg: msg})
}
