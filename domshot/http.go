package domshot

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/hazyhaar/pagesnap/kit"
	"github.com/hazyhaar/pagesnap/shield"
)

// Handler returns the HTTP command API:
//
//	GET    /health
//	GET    /pages
//	POST   /pages                              {"id","url"}
//	DELETE /pages/{id}
//	POST   /pages/{id}/capture/{format}        ?raw=1 returns the image bytes
//	POST   /pages/{id}/select                  {"format","wait","timeout_ms"}
//	DELETE /pages/{id}/select
//	POST   /pages/{id}/input                   {"action","x","y","dy","key"}
//	GET    /captures                           ?page=&failed=1&limit=
//
// Every route but /health requires the bearer token when
// http.token_hash is configured.
func (s *Shooter) Handler() http.Handler {
	r := chi.NewRouter()
	for _, mw := range shield.APIStack() {
		r.Use(mw)
	}

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "pages": len(s.Pages())})
	})

	var (
		open     = s.endpoint("open", s.openEndpoint)
		closeEP  = s.endpoint("close", s.closeEndpoint)
		pages    = s.endpoint("pages", s.pagesEndpoint)
		capture  = s.endpoint("capture_page", s.captureEndpoint)
		sel      = s.endpoint("select_element", s.selectEndpoint)
		cancel   = s.endpoint("cancel_selection", s.cancelEndpoint)
		input    = s.endpoint("input", s.inputEndpoint)
		captures = s.endpoint("captures", s.capturesEndpoint)
	)

	r.Group(func(r chi.Router) {
		r.Use(shield.RequireBearer(s.cfg.HTTP.TokenHash, s.logger))

		r.Get("/pages", func(w http.ResponseWriter, r *http.Request) {
			serve(w, r, pages, nil, http.StatusOK)
		})
		r.Post("/pages", func(w http.ResponseWriter, r *http.Request) {
			var req openReq
			if !decodeBody(w, r, &req) {
				return
			}
			serve(w, r, open, &req, http.StatusCreated)
		})
		r.Delete("/pages/{id}", func(w http.ResponseWriter, r *http.Request) {
			serve(w, r, closeEP, &pageReq{Page: chi.URLParam(r, "id")}, http.StatusOK)
		})

		r.Post("/pages/{id}/capture/{format}", func(w http.ResponseWriter, r *http.Request) {
			req := &captureReq{Page: chi.URLParam(r, "id"), Format: chi.URLParam(r, "format")}
			if r.URL.Query().Get("raw") != "1" {
				serve(w, r, capture, req, http.StatusOK)
				return
			}
			req.IncludeData = true
			resp, err := capture(r.Context(), req)
			if err != nil {
				writeError(w, statusOf(err), err)
				return
			}
			res := resp.(*CaptureResult)
			w.Header().Set("Content-Type", res.MIME)
			w.Header().Set("Content-Disposition", `attachment; filename="`+res.File+`"`)
			w.Header().Set("X-Capture-SHA256", res.Hash)
			w.WriteHeader(http.StatusOK)
			w.Write(res.Data)
		})

		r.Post("/pages/{id}/select", func(w http.ResponseWriter, r *http.Request) {
			var req selectReq
			if !decodeBody(w, r, &req) {
				return
			}
			req.Page = chi.URLParam(r, "id")
			code := http.StatusAccepted
			if req.Wait {
				code = http.StatusOK
			}
			serve(w, r, sel, &req, code)
		})
		r.Delete("/pages/{id}/select", func(w http.ResponseWriter, r *http.Request) {
			serve(w, r, cancel, &pageReq{Page: chi.URLParam(r, "id")}, http.StatusOK)
		})

		r.Post("/pages/{id}/input", func(w http.ResponseWriter, r *http.Request) {
			var req inputReq
			if !decodeBody(w, r, &req) {
				return
			}
			req.Page = chi.URLParam(r, "id")
			serve(w, r, input, &req, http.StatusOK)
		})

		r.Get("/captures", func(w http.ResponseWriter, r *http.Request) {
			q := r.URL.Query()
			serve(w, r, captures, &capturesReq{
				Page:       q.Get("page"),
				FailedOnly: q.Get("failed") == "1",
				Limit:      queryInt(r, "limit", 0),
			}, http.StatusOK)
		})
	})

	return r
}

func serve(w http.ResponseWriter, r *http.Request, e kit.Endpoint, req any, code int) {
	resp, err := e(r.Context(), req)
	if err != nil {
		writeError(w, statusOf(err), err)
		return
	}
	writeJSON(w, code, resp)
}

// decodeBody decodes an optional JSON body. An empty body leaves v zero.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, err)
		return false
	}
	return true
}

func statusOf(err error) int {
	switch {
	case errors.Is(err, errInvalid):
		return http.StatusBadRequest
	case errors.Is(err, ErrPageNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrBusy), errors.Is(err, ErrPageExists):
		return http.StatusConflict
	case errors.Is(err, ErrSelectionCancelled), errors.Is(err, ErrPageClosed):
		return http.StatusGone
	case errors.Is(err, ErrUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, err error) {
	writeJSON(w, code, map[string]string{"error": err.Error()})
}

func queryInt(r *http.Request, key string, def int) int {
	s := r.URL.Query().Get(key)
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return v
}
