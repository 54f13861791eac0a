package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/xavierca1/realty-crm/internal/entity"
	"github.com/xavierca1/realty-crm/internal/infra/http/middleware"
)

const maxBodyBytes = 1 << 20

type errorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

type messageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError reports domain errors with their own status and message. Anything
// else is logged and hidden behind a generic 500.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var de *entity.DomainError
	if !errors.As(err, &de) {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("request failed")
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "Internal server error"})
		return
	}
	writeJSON(w, statusFor(de.Code), errorResponse{Error: de.Message})
}

func statusFor(code entity.ErrorCode) int {
	switch code {
	case entity.CodeInvalidID, entity.CodeValidation:
		return http.StatusBadRequest
	case entity.CodeUnauthenticated:
		return http.StatusUnauthorized
	case entity.CodeForbidden:
		return http.StatusForbidden
	case entity.CodeNotFound:
		return http.StatusNotFound
	case entity.CodeConflict:
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

func decodeJSON(r *http.Request, dst any) error {
	err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(dst)
	if err != nil && !errors.Is(err, io.EOF) {
		return entity.Validation("Invalid JSON")
	}
	return nil
}

// principal returns the authenticated caller. Routes using it sit behind
// middleware.RequireAuth, so a missing principal is reported as 401.
func principal(r *http.Request) (entity.Principal, error) {
	p, ok := middleware.PrincipalFrom(r.Context())
	if !ok {
		return entity.Principal{}, entity.Unauthenticated("Not authenticated")
	}
	return p, nil
}

// writeFailed logs a failure after the status line was already sent.
func writeFailed(r *http.Request, err error) {
	zerolog.Ctx(r.Context()).Error().Err(err).Msg("write response body")
}
