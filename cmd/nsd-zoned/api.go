package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/haukened/nsdctl/internal/nsd/common/log"
	"github.com/haukened/nsdctl/internal/nsd/domain"
	"github.com/haukened/nsdctl/internal/nsd/repos/zonefiles"
	"github.com/haukened/nsdctl/internal/nsd/services/zoneadmin"
)

// zoneAdmin is what the HTTP layer needs from the zone administration
// service.
type zoneAdmin interface {
	Status(ctx context.Context) (zoneadmin.Result, error)
	Stats(ctx context.Context, reset bool) (zoneadmin.Result, error)
	AddZone(ctx context.Context, name, data, pattern string) (zoneadmin.Result, error)
	UpdateZone(ctx context.Context, name, data string) (zoneadmin.Result, error)
	DeleteZone(ctx context.Context, name string) (zoneadmin.Result, error)
	ZoneStatus(ctx context.Context, name string) (zoneadmin.Result, error)
	ListZones() ([]zonefiles.Record, error)
}

// zoneRequest is the JSON body for zone create and update requests.
type zoneRequest struct {
	Data    string `json:"data"`
	Pattern string `json:"pattern,omitempty"`
}

type api struct {
	admin  zoneAdmin
	logger log.Logger
}

// newRouter builds the HTTP API around the zone administration service.
func newRouter(admin zoneAdmin, logger log.Logger) *chi.Mux {
	a := &api{admin: admin, logger: logger}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.StripSlashes)

	r.Get("/health", a.health)

	r.Route("/v1", func(r chi.Router) {
		r.Get("/status", a.status)
		r.Get("/stats", a.stats)
		r.Route("/zones", func(r chi.Router) {
			r.Get("/", a.listZones)
			r.Post("/{name}", a.addZone)
			r.Put("/{name}", a.updateZone)
			r.Delete("/{name}", a.deleteZone)
			r.Get("/{name}/status", a.zoneStatus)
		})
	})
	return r
}

func (a *api) health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (a *api) status(w http.ResponseWriter, r *http.Request) {
	res, err := a.admin.Status(r.Context())
	if err != nil {
		a.respondUpstreamError(w, r, err)
		return
	}
	respondJSON(w, httpStatus(res.Code, http.StatusOK), res)
}

func (a *api) stats(w http.ResponseWriter, r *http.Request) {
	reset := r.URL.Query().Get("reset") == "true"
	res, err := a.admin.Stats(r.Context(), reset)
	if err != nil {
		a.respondUpstreamError(w, r, err)
		return
	}
	respondJSON(w, httpStatus(res.Code, http.StatusOK), res)
}

func (a *api) listZones(w http.ResponseWriter, r *http.Request) {
	recs, err := a.admin.ListZones()
	if err != nil {
		a.respondUpstreamError(w, r, err)
		return
	}
	if recs == nil {
		recs = []zonefiles.Record{}
	}
	respondJSON(w, http.StatusOK, map[string]any{"zones": recs})
}

func (a *api) addZone(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeZoneRequest(w, r)
	if !ok {
		return
	}
	res, err := a.admin.AddZone(r.Context(), chi.URLParam(r, "name"), req.Data, req.Pattern)
	if err != nil {
		a.respondUpstreamError(w, r, err)
		return
	}
	respondJSON(w, httpStatus(res.Code, http.StatusCreated), res)
}

func (a *api) updateZone(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeZoneRequest(w, r)
	if !ok {
		return
	}
	res, err := a.admin.UpdateZone(r.Context(), chi.URLParam(r, "name"), req.Data)
	if err != nil {
		a.respondUpstreamError(w, r, err)
		return
	}
	respondJSON(w, httpStatus(res.Code, http.StatusOK), res)
}

func (a *api) deleteZone(w http.ResponseWriter, r *http.Request) {
	res, err := a.admin.DeleteZone(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		a.respondUpstreamError(w, r, err)
		return
	}
	respondJSON(w, httpStatus(res.Code, http.StatusOK), res)
}

func (a *api) zoneStatus(w http.ResponseWriter, r *http.Request) {
	res, err := a.admin.ZoneStatus(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		a.respondUpstreamError(w, r, err)
		return
	}
	respondJSON(w, httpStatus(res.Code, http.StatusOK), res)
}

// respondUpstreamError reports a failure to reach or understand the name
// server. The control channel is this daemon's backend, so these map to
// gateway errors.
func (a *api) respondUpstreamError(w http.ResponseWriter, r *http.Request, err error) {
	a.logger.Error(map[string]any{
		"error":      err.Error(),
		"request_id": middleware.GetReqID(r.Context()),
	}, "control channel request failed")

	var authErr *domain.AuthenticationError
	if errors.As(err, &authErr) {
		respondError(w, http.StatusBadGateway, "control channel authentication failed")
		return
	}
	var protoErr *domain.ProtocolError
	if errors.As(err, &protoErr) {
		respondError(w, http.StatusBadGateway, "control channel protocol error")
		return
	}
	respondError(w, http.StatusBadGateway, "name server unreachable")
}

func decodeZoneRequest(w http.ResponseWriter, r *http.Request) (zoneRequest, bool) {
	var req zoneRequest
	if r.ContentLength == 0 {
		return req, true
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return req, false
	}
	return req, true
}

// httpStatus maps a zone administration result code to an HTTP status.
// success is the status used for CodeOK so creates can report 201.
func httpStatus(code, success int) int {
	switch code {
	case zoneadmin.CodeOK:
		return success
	case zoneadmin.CodeObjectExists:
		return http.StatusConflict
	case zoneadmin.CodeObjectMissing:
		return http.StatusNotFound
	default:
		return http.StatusUnprocessableEntity
	}
}

func respondJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func respondError(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, map[string]any{
		"code": status,
		"msg":  msg,
	})
}
