package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"lunysse-scheduler/internal/ledger"
	mw "lunysse-scheduler/internal/middleware"
)

const maxBody = 1 << 20

// fieldDetail is one entry of a 422 response.
type fieldDetail struct {
	Loc []string `json:"loc"`
	Msg string   `json:"msg"`
}

type detail struct {
	Detail any `json:"detail"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeInvalid(w http.ResponseWriter, loc, field, msg string) {
	writeJSON(w, http.StatusUnprocessableEntity, detail{Detail: []fieldDetail{{Loc: []string{loc, field}, Msg: msg}}})
}

// writeError maps a ledger error onto its status code. Unknown errors are
// logged and reported as 500 without detail.
func (a *API) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *ledger.ValidationError
	switch {
	case errors.As(err, &verr):
		out := make([]fieldDetail, len(verr.Fields))
		for i, f := range verr.Fields {
			out[i] = fieldDetail{Loc: []string{"body", f.Field}, Msg: f.Msg}
		}
		writeJSON(w, http.StatusUnprocessableEntity, detail{Detail: out})
	case errors.Is(err, ledger.ErrNotFound):
		writeJSON(w, http.StatusNotFound, detail{Detail: "not found"})
	case errors.Is(err, ledger.ErrDuplicate):
		writeJSON(w, http.StatusConflict, detail{Detail: "already exists"})
	case errors.Is(err, ledger.ErrAuthFailed):
		writeJSON(w, http.StatusUnauthorized, detail{Detail: "invalid credentials"})
	case errors.Is(err, ledger.ErrForbidden):
		writeJSON(w, http.StatusForbidden, detail{Detail: "forbidden"})
	default:
		a.log.Error("request failed", zap.String("path", r.URL.Path), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, detail{Detail: "internal error"})
	}
}

// readJSON decodes the body into out, answering 422 itself on failure.
func readJSON(w http.ResponseWriter, r *http.Request, out any) bool {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBody))
	if err != nil {
		writeInvalid(w, "body", "", "unreadable body")
		return false
	}
	if len(body) == 0 {
		return true
	}
	if err := json.Unmarshal(body, out); err != nil {
		writeInvalid(w, "body", "", "invalid JSON: "+err.Error())
		return false
	}
	return true
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		writeInvalid(w, "path", "id", "must be a positive integer")
		return 0, false
	}
	return id, true
}

func queryID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return 0, true
	}
	id, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		writeInvalid(w, "query", name, "must be an integer")
		return 0, false
	}
	return id, true
}

// caller is only called behind RequireCaller.
func caller(r *http.Request) ledger.Caller {
	c, _ := mw.CallerFrom(r.Context())
	return c
}
