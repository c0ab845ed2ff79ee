package main

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	"github.com/yourorg/protocol-risk/internal/circuitbreaker"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":    "OK",
		"version":   version,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) breakerStatus() []circuitbreaker.Status {
	statuses := make([]circuitbreaker.Status, 0, len(s.breakers))
	for _, cb := range s.breakers {
		statuses = append(statuses, cb.Snapshot())
	}
	return statuses
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":            "OK",
		"version":           version,
		"uptime":            time.Since(s.startTime).Round(time.Second).String(),
		"tracked_protocols": len(s.service.Tracked()),
		"circuit_breakers":  s.breakerStatus(),
		"cache_ttl":         s.config.CacheTTL.String(),
	})
}

// handleCircuitStatus reports breaker state. POST ?action=reset closes every
// breaker, or only the one named by ?provider=.
func (s *Server) handleCircuitStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodPost {
		if action := r.URL.Query().Get("action"); action != "reset" {
			s.errorResponse(w, http.StatusBadRequest, "unsupported action "+action)
			return
		}
		provider := r.URL.Query().Get("provider")
		reset := 0
		for _, cb := range s.breakers {
			if provider == "" || strings.EqualFold(provider, cb.Name()) {
				cb.Reset()
				reset++
			}
		}
		if reset == 0 {
			s.errorResponse(w, http.StatusNotFound, "unknown provider "+provider)
			return
		}
		logrus.WithField("provider", provider).Info("Circuit breakers reset")
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"circuit_breakers": s.breakerStatus(),
	})
}

func (s *Server) handleWatchlist(w http.ResponseWriter, r *http.Request) {
	view, err := s.service.Watchlist(r.Context())
	if err != nil {
		s.failWith(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleAlerts(w http.ResponseWriter, r *http.Request) {
	alerts, err := s.service.Alerts(r.Context())
	if err != nil {
		s.failWith(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"alerts": alerts})
}

func (s *Server) handleTopProtocols(w http.ResponseWriter, r *http.Request) {
	limit, err := parseLimit(r)
	if err != nil {
		s.failWith(w, err)
		return
	}
	view, err := s.service.TopProtocols(r.Context(), limit)
	if err != nil {
		s.failWith(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleProtocolDetail(w http.ResponseWriter, r *http.Request) {
	view, err := s.service.ProtocolDetail(r.Context(), strings.ToLower(chi.URLParam(r, "slug")))
	if err != nil {
		s.failWith(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleDexVolumes(w http.ResponseWriter, r *http.Request) {
	limit, err := parseLimit(r)
	if err != nil {
		s.failWith(w, err)
		return
	}
	view, err := s.service.DexVolumes(r.Context(), limit)
	if err != nil {
		s.failWith(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handlePerpMarkets(w http.ResponseWriter, r *http.Request) {
	view, err := s.service.PerpMarkets(r.Context())
	if err != nil {
		s.failWith(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleFunding(w http.ResponseWriter, r *http.Request) {
	view, err := s.service.FundingComparisons(r.Context())
	if err != nil {
		s.failWith(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleVault(w http.ResponseWriter, r *http.Request) {
	view, err := s.service.Vault(r.Context())
	if err != nil {
		s.failWith(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleProposals(w http.ResponseWriter, r *http.Request) {
	limit, err := parseLimit(r)
	if err != nil {
		s.failWith(w, err)
		return
	}
	view, err := s.service.Proposals(r.Context(), r.URL.Query().Get("state"), limit)
	if err != nil {
		s.failWith(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleProtocolProposals(w http.ResponseWriter, r *http.Request) {
	limit, err := parseLimit(r)
	if err != nil {
		s.failWith(w, err)
		return
	}
	slug := strings.ToLower(chi.URLParam(r, "slug"))
	view, err := s.service.ProtocolProposals(r.Context(), slug, r.URL.Query().Get("state"), limit)
	if err != nil {
		s.failWith(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}
