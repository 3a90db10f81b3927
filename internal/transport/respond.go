package transport

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/rpggio/syncteam/internal/domain/activity"
	"github.com/rpggio/syncteam/internal/domain/record"
	"github.com/rpggio/syncteam/internal/domain/session"
	"github.com/rpggio/syncteam/internal/perm"
)

// maxJSONBody caps decoded request bodies.
const maxJSONBody = 1 << 20

type dataResponse struct {
	Data any `json:"data"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeData(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, dataResponse{Data: data})
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// statusFor maps a service error to its HTTP status. Unknown errors are
// reported as 500 with a generic message so storage details stay private.
func statusFor(err error) (int, string) {
	var denied perm.DeniedError
	switch {
	case errors.As(err, &denied):
		return http.StatusForbidden, err.Error()
	case errors.Is(err, record.ErrRecordNotFound):
		return http.StatusNotFound, "not found"
	case errors.Is(err, record.ErrUnknownTable):
		return http.StatusBadRequest, "invalid table"
	case errors.Is(err, record.ErrInvalidInput),
		errors.Is(err, session.ErrInvalidInput),
		errors.Is(err, activity.ErrInvalidInput):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, session.ErrInvalidCredentials):
		return http.StatusUnauthorized, "invalid email or password"
	case errors.Is(err, session.ErrSessionNotFound),
		errors.Is(err, session.ErrSessionExpired),
		errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized, "unauthorized"
	case errors.Is(err, session.ErrEmailTaken):
		return http.StatusConflict, err.Error()
	}
	return http.StatusInternalServerError, "internal error"
}

func decodeBody(r *http.Request, out any) error {
	data, err := io.ReadAll(io.LimitReader(r.Body, maxJSONBody+1))
	if err != nil {
		return err
	}
	if len(data) > maxJSONBody {
		return errors.New("request body too large")
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	return dec.Decode(out)
}
