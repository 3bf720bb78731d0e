// This Source Code Form is subject to the terms of the MIT License.
// If a copy of the MIT License was not distributed with this
// file, you can obtain one at https://opensource.org/licenses/MIT.
//
// Copyright (c) DUSK NETWORK. All rights reserved.

package api

import (
	"context"
	"net/http"
	"time"

	"github.com/didip/tollbooth"
	cfg "github.com/dusk-network/discv5-harness/pkg/config"
	"github.com/dusk-network/discv5-harness/pkg/features"
	"github.com/dusk-network/discv5-harness/pkg/results"
	"github.com/etherlabsio/healthcheck"
	"github.com/facebookgo/grace/gracehttp"
	"github.com/gorilla/pat"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

var log = logrus.WithField("package", "api")

// Server defines the HTTP server of the results browser
type Server struct {
	store results.Store
	table features.Table

	Server *http.Server
}

// NewHTTPServer return pointer to new created server object
func NewHTTPServer(store results.Store, table features.Table, reg cfg.Registry) (*Server, error) {
	if store == nil {
		return nil, errors.New("nil results store")
	}

	srv := Server{
		store: store,
		table: table.Clone(),
	}

	var handler http.Handler = srv.InitRouting()
	if rps := reg.API.RequestsPerSecond; rps > 0 {
		lmt := tollbooth.NewLimiter(float64(rps), nil)
		lmt.SetMessageContentType("application/json; charset=utf-8")
		lmt.SetMessage(`{"error":"too many requests"}`)
		handler = tollbooth.LimitHandler(lmt, handler)
	}

	srv.Server = &http.Server{
		Addr:    reg.API.Address,
		Handler: handler,
	}
	return &srv, nil
}

// Start will start and listen the *http.Server until the process receives
// a termination signal.
func (s *Server) Start() error {
	log.WithField("address", s.Server.Addr).Info("Starting API server")

	//enable graceful shutdown
	return gracehttp.Serve(s.Server)
}

// InitRouting registers the routes of the server. Patterns are matched by
// prefix in registration order.
func (s *Server) InitRouting() *pat.Router {
	r := pat.New()

	r.Handle("/healthcheck", healthcheck.Handler(
		// WithTimeout allows you to set a max overall timeout.
		healthcheck.WithTimeout(5*time.Second),

		healthcheck.WithChecker(
			"store", healthcheck.CheckerFunc(
				func(ctx context.Context) error {
					_, err := s.store.Get("healthcheck")
					if errors.Cause(err) == results.ErrNotFound {
						return nil
					}
					return err
				},
			),
		),
	))

	r.Get("/features", s.getFeatures)
	r.Get("/runs/{id}", s.getRun)
	r.Get("/runs", s.getRuns)
	return r
}
