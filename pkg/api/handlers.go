// This Source Code Form is subject to the terms of the MIT License.
// If a copy of the MIT License was not distributed with this
// file, you can obtain one at https://opensource.org/licenses/MIT.
//
// Copyright (c) DUSK NETWORK. All rights reserved.

package api

import (
	"net/http"

	"github.com/dusk-network/discv5-harness/pkg/results"
	"github.com/go-chi/render"
	"github.com/pkg/errors"
)

type errorResponse struct {
	Error string `json:"error"`
}

// runSummary is the listing entry of a run.
type runSummary struct {
	RunID          string  `json:"runId"`
	Mode           string  `json:"mode"`
	Varied         string  `json:"varied,omitempty"`
	Nodes          int     `json:"nodes"`
	DiscoveryRatio float64 `json:"discoveryRatio"`
}

func (s *Server) getFeatures(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, s.table)
}

func (s *Server) getRuns(w http.ResponseWriter, r *http.Request) {
	list, err := s.store.List()
	if err != nil {
		log.WithError(err).Error("could not list runs")
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, errorResponse{Error: err.Error()})
		return
	}

	mode := r.URL.Query().Get("mode")
	out := make([]runSummary, 0, len(list))
	for _, res := range list {
		if mode != "" && res.Mode != mode {
			continue
		}
		out = append(out, runSummary{
			RunID:          res.RunID,
			Mode:           res.Mode,
			Varied:         res.Varied,
			Nodes:          res.Params.Nodes,
			DiscoveryRatio: res.Stats.DiscoveryRatio,
		})
	}
	render.JSON(w, r, out)
}

func (s *Server) getRun(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get(":id")

	res, err := s.store.Get(id)
	switch {
	case errors.Cause(err) == results.ErrNotFound:
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, errorResponse{Error: err.Error()})
		return
	case err != nil:
		log.WithError(err).WithField("run", id).Error("could not fetch run")
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, errorResponse{Error: err.Error()})
		return
	}
	render.JSON(w, r, res)
}
