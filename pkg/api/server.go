// Minaret
// Copyright (c) 2026 The Minaret Project Contributors.
// SPDX-License-Identifier: GPL-3.0-or-later
//
// This file is part of Minaret.
//
// Minaret is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// Minaret is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with Minaret.  If not, see <http://www.gnu.org/licenses/>.

// Package api serves the local control API: REST endpoints for scripts and
// home automation, and a websocket that accepts method calls and pushes
// session notifications.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jonboulle/clockwork"
	apimiddleware "github.com/minaret-project/minaret/pkg/api/middleware"
	"github.com/minaret-project/minaret/pkg/api/methods"
	"github.com/minaret-project/minaret/pkg/api/models"
	"github.com/minaret-project/minaret/pkg/api/models/requests"
	"github.com/minaret-project/minaret/pkg/api/validation"
	"github.com/minaret-project/minaret/pkg/config"
	"github.com/minaret-project/minaret/pkg/platforms"
	"github.com/olahol/melody"
	"github.com/rs/zerolog/log"
)

const (
	APIPath = "/api/v1"
	WSPath  = APIPath + "/ws"

	maxBodySize       = 64 << 10
	notificationQueue = 64
	shutdownTimeout   = 5 * time.Second
)

var ErrInvalidLimit = errors.New("limit must be a number")

// Options holds the collaborators a Server needs. History and Clock may be
// nil. Handlers send state changes to Notifications and the server
// broadcasts whatever arrives on Events to websocket clients. When both are
// nil the server loops its own notifications back to its clients.
type Options struct {
	Platform      platforms.Platform
	Config        *config.Instance
	Athan         requests.Athan
	History       requests.History
	Clock         clockwork.Clock
	Notifications chan<- models.Notification
	Events        <-chan models.Notification
}

type Server struct {
	platform      platforms.Platform
	cfg           *config.Instance
	athan         requests.Athan
	history       requests.History
	notifications chan<- models.Notification
	events        <-chan models.Notification
	ws            *melody.Melody
	limiter       *apimiddleware.IPRateLimiter
	router        chi.Router
}

func NewServer(opts Options) *Server {
	s := &Server{
		platform:      opts.Platform,
		cfg:           opts.Config,
		athan:         opts.Athan,
		history:       opts.History,
		notifications: opts.Notifications,
		events:        opts.Events,
		ws:            melody.New(),
		limiter:       apimiddleware.NewIPRateLimiter(opts.Clock),
	}
	if s.notifications == nil && s.events == nil {
		ch := make(chan models.Notification, notificationQueue)
		s.notifications, s.events = ch, ch
	}
	s.ws.Config.MaxMessageSize = maxBodySize
	s.ws.HandleMessage(apimiddleware.WebSocketRateLimitHandler(s.limiter, s.handleWSMessage))
	s.ws.HandleConnect(func(session *melody.Session) {
		log.Debug().Str("addr", session.Request.RemoteAddr).Msg("websocket client connected")
	})
	s.ws.HandleDisconnect(func(session *melody.Session) {
		log.Debug().Str("addr", session.Request.RemoteAddr).Msg("websocket client disconnected")
	})
	s.router = s.routes()
	return s
}

// Notifications is the queue method handlers report state changes to.
func (s *Server) Notifications() chan<- models.Notification {
	return s.notifications
}

func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(apimiddleware.HTTPIPFilterMiddleware(apimiddleware.NewIPFilter(s.cfg.AllowedIPs())))
	r.Use(apimiddleware.HTTPRateLimitMiddleware(s.limiter))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: append([]string{"http://localhost:*", "http://127.0.0.1:*"},
			s.cfg.AllowedOrigins()...),
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get(WSPath, func(w http.ResponseWriter, r *http.Request) {
		if err := s.ws.HandleRequest(w, r); err != nil {
			log.Warn().Err(err).Msg("websocket upgrade failed")
		}
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.NoCache)
		r.Use(middleware.Timeout(config.APIRequestTimeout))

		r.Route(APIPath, func(r chi.Router) {
			r.Post("/athan/play", s.rest(methods.HandlePlay, http.StatusAccepted, bodyParams))
			r.Post("/athan/stop", s.rest(methods.HandleStop, http.StatusOK, noParams))
			r.Get("/athan/status", s.rest(methods.HandleStatus, http.StatusOK, noParams))
			r.Get("/athan/history", s.rest(methods.HandleHistory, http.StatusOK, historyParams))
			r.Get("/device", s.rest(methods.HandleDevice, http.StatusOK, noParams))
			r.Put("/device/ringer", s.rest(methods.HandleRinger, http.StatusOK, bodyParams))
			r.Put("/device/volume", s.rest(methods.HandleVolume, http.StatusOK, bodyParams))
		})
	})

	return r
}

func (s *Server) env(ctx context.Context, params json.RawMessage, source string) requests.RequestEnv {
	return requests.RequestEnv{
		Context:       ctx,
		Platform:      s.platform,
		Config:        s.cfg,
		Athan:         s.athan,
		History:       s.history,
		Notifications: s.notifications,
		Params:        params,
		Source:        source,
	}
}

type paramsFunc func(r *http.Request) (json.RawMessage, error)

func noParams(*http.Request) (json.RawMessage, error) {
	return nil, nil
}

func bodyParams(r *http.Request) (json.RawMessage, error) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("failed to read body: %w", err)
	}
	return body, nil
}

func historyParams(r *http.Request) (json.RawMessage, error) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return nil, nil
	}
	limit, err := strconv.Atoi(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", validation.ErrInvalidParams, ErrInvalidLimit)
	}
	params, err := json.Marshal(models.HistoryParams{Limit: limit})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal history params: %w", err)
	}
	return params, nil
}

// rest adapts a method handler to an HTTP endpoint.
func (s *Server) rest(fn methods.Handler, okStatus int, params paramsFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw, err := params(r)
		if err != nil {
			writeError(w, err)
			return
		}

		result, err := fn(s.env(r.Context(), raw, "http "+r.RemoteAddr))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, okStatus, result)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Warn().Err(err).Msg("failed to write response")
	}
}

func writeError(w http.ResponseWriter, err error) {
	obj := errorObject(err)
	if obj.Code >= http.StatusInternalServerError {
		log.Error().Err(err).Msg("api request failed")
	} else {
		log.Debug().Err(err).Msg("api request rejected")
	}
	writeJSON(w, obj.Code, models.ErrorResponse{Error: obj.Message, Fields: obj.Fields})
}

func (s *Server) handleWSMessage(session *melody.Session, msg []byte) {
	var req models.RequestObject
	resp := models.ResponseObject{}
	if err := json.Unmarshal(msg, &req); err != nil {
		resp.Error = errorObject(validation.ErrInvalidParams)
		s.writeWS(session, resp)
		return
	}
	resp.ID = req.ID

	fn, err := methods.Lookup(req.Method)
	if err != nil {
		resp.Error = errorObject(err)
		s.writeWS(session, resp)
		return
	}

	ctx, cancel := context.WithTimeout(session.Request.Context(), config.APIRequestTimeout)
	defer cancel()
	result, err := fn(s.env(ctx, req.Params, "ws "+session.Request.RemoteAddr))
	if err != nil {
		resp.Error = errorObject(err)
		s.writeWS(session, resp)
		return
	}

	data, err := json.Marshal(result)
	if err != nil {
		resp.Error = errorObject(err)
	} else {
		resp.Result = data
	}
	s.writeWS(session, resp)
}

func (s *Server) writeWS(session *melody.Session, resp models.ResponseObject) {
	data, err := json.Marshal(resp)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal websocket response")
		return
	}
	if err := session.Write(data); err != nil {
		log.Debug().Err(err).Msg("failed to write websocket response")
	}
}

// broadcast forwards events to every websocket client until ctx is done or
// the events channel closes.
func (s *Server) broadcast(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case n, ok := <-s.events:
			if !ok {
				return
			}
			data, err := json.Marshal(n)
			if err != nil {
				log.Error().Err(err).Str("method", n.Method).Msg("failed to marshal notification")
				continue
			}
			if err := s.ws.Broadcast(data); err != nil {
				log.Debug().Err(err).Msg("failed to broadcast notification")
			}
		}
	}
}

// Serve runs the API on ln until ctx is done, then shuts down.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	s.limiter.StartCleanup(ctx)
	go s.broadcast(ctx)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()
	log.Info().Str("addr", ln.Addr().String()).Msg("api server listening")

	select {
	case err := <-errCh:
		return fmt.Errorf("api server stopped: %w", err)
	case <-ctx.Done():
	}

	if err := s.ws.Close(); err != nil {
		log.Debug().Err(err).Msg("failed to close websocket sessions")
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("api server shutdown: %w", err)
	}
	return nil
}

// ListenAndServe listens on the configured API address and calls Serve.
func (s *Server) ListenAndServe(ctx context.Context) error {
	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", s.cfg.APIListen())
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.cfg.APIListen(), err)
	}
	return s.Serve(ctx, ln)
}
