package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"ridecipher/internal/access"
	"ridecipher/internal/domain"
	"ridecipher/internal/store"
)

// ErrMalformed is returned for request bodies that cannot be decoded.
var ErrMalformed = errors.New("malformed request")

// APIError is the body of every non-2xx response.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type errorResponse struct {
	Error APIError `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, errorResponse{Error: APIError{Code: code, Message: msg}})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, maxBytes int64, dst any) error {
	if r.Body == nil {
		return errors.New("empty body")
	}
	defer func() { _ = r.Body.Close() }()

	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return err
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return errors.New("extra data after JSON object")
	}
	return nil
}

// errorStatus maps an error to an HTTP status and a stable error code.
// Authentication failures of records get a fixed message so responses never
// echo why the tag did not verify.
func errorStatus(err error) (status int, code, msg string) {
	switch {
	case errors.Is(err, ErrMalformed):
		return http.StatusBadRequest, "malformed_request", err.Error()
	case errors.Is(err, domain.ErrInvalidRide):
		return http.StatusBadRequest, "invalid_ride", err.Error()
	case errors.Is(err, domain.ErrInvalidRecord):
		return http.StatusBadRequest, "invalid_record", err.Error()
	case errors.Is(err, domain.ErrKeyExchange):
		return http.StatusBadRequest, "key_exchange_failed", err.Error()
	case errors.Is(err, domain.ErrSessionNotFound):
		return http.StatusNotFound, "session_not_found", "session not found; run key exchange again"
	case errors.Is(err, domain.ErrSessionInactive):
		return http.StatusGone, "session_inactive", "session is expired or ended"
	case errors.Is(err, domain.ErrDecryption):
		return http.StatusUnprocessableEntity, "decryption_failed", "record failed authentication"
	case errors.Is(err, domain.ErrVaultFull):
		return http.StatusServiceUnavailable, "vault_full", "session capacity reached; retry later"
	case errors.Is(err, domain.ErrVaultClosed):
		return http.StatusServiceUnavailable, "shutting_down", "service is shutting down"
	case errors.Is(err, store.ErrStoreUnavailable):
		return http.StatusServiceUnavailable, "record_store_unavailable", "record store unavailable"
	case errors.Is(err, access.ErrUnauthenticated):
		return http.StatusUnauthorized, "unauthenticated", "missing or invalid bearer token"
	case errors.Is(err, access.ErrForbidden):
		return http.StatusForbidden, "forbidden", "role lacks the required capability"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable, "cancelled", "request cancelled"
	default:
		return http.StatusInternalServerError, "internal", "internal error"
	}
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status, code, msg := errorStatus(err)
	if code == "vault_full" {
		w.Header().Set("Retry-After", s.retryAfter)
	}
	if status >= http.StatusInternalServerError {
		s.log.Error("gateway.error", "path", r.URL.Path, "code", code, "err", err)
	} else if code == "decryption_failed" {
		s.log.Warn("gateway.decrypt_rejected", "path", r.URL.Path)
	}
	writeError(w, status, code, msg)
}
