package transport

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rpggio/syncteam/internal/domain/record"
)

func caller(r *http.Request) record.Caller {
	id, ok := IdentityFromContext(r.Context())
	if !ok {
		return record.Caller{}
	}
	return id.Caller()
}

func parseLimit(v string) (int, error) {
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid limit %q", v)
	}
	return n, nil
}

// parseListOptions reads eq.<column>=value filters, order=column[.desc]
// and limit from the query string.
func parseListOptions(q url.Values) (record.ListOptions, error) {
	opts := record.ListOptions{}
	for key, vals := range q {
		col, ok := strings.CutPrefix(key, "eq.")
		if !ok || len(vals) == 0 {
			continue
		}
		if col == "" {
			return opts, errors.New("empty filter column")
		}
		if opts.Eq == nil {
			opts.Eq = map[string]string{}
		}
		opts.Eq[col] = vals[0]
	}
	if order := q.Get("order"); order != "" {
		col, dir, _ := strings.Cut(order, ".")
		switch dir {
		case "", "asc":
		case "desc":
			opts.Desc = true
		default:
			return opts, fmt.Errorf("invalid order direction %q", dir)
		}
		opts.Order = col
	}
	if v := q.Get("limit"); v != "" {
		n, err := parseLimit(v)
		if err != nil {
			return opts, err
		}
		opts.Limit = n
	}
	return opts, nil
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	opts, err := parseListOptions(r.URL.Query())
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	recs, err := s.records.List(r.Context(), caller(r), chi.URLParam(r, "table"), opts)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeData(w, http.StatusOK, recs)
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	rec, err := s.records.Get(r.Context(), chi.URLParam(r, "table"), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeData(w, http.StatusOK, rec)
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	var in record.Record
	if err := decodeBody(r, &in); err != nil || in == nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	saved, err := s.records.Create(r.Context(), caller(r), chi.URLParam(r, "table"), in)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeData(w, http.StatusCreated, saved)
}

func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	var patch record.Record
	if err := decodeBody(r, &patch); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	saved, err := s.records.Update(r.Context(), caller(r), chi.URLParam(r, "table"), chi.URLParam(r, "id"), patch)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeData(w, http.StatusOK, saved)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	old, err := s.records.Delete(r.Context(), caller(r), chi.URLParam(r, "table"), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeData(w, http.StatusOK, old)
}
