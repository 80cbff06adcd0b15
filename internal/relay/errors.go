package relay

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"ridecipher/internal/domain"
)

// StatusError is a non-2xx gateway response.
type StatusError struct {
	Method string
	Path   string
	Status int
	Code   string
	Msg    string
	err    error
}

func (e *StatusError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("gateway %s %s: %d %s", e.Method, e.Path, e.Status, http.StatusText(e.Status))
	}
	return fmt.Sprintf("gateway %s %s: %d %s: %s", e.Method, e.Path, e.Status, e.Code, e.Msg)
}

// Unwrap returns the domain sentinel matching Code, if any.
func (e *StatusError) Unwrap() error { return e.err }

var sentinels = map[string]error{
	"key_exchange_failed": domain.ErrKeyExchange,
	"invalid_record":      domain.ErrInvalidRecord,
	"invalid_ride":        domain.ErrInvalidRide,
	"session_not_found":   domain.ErrSessionNotFound,
	"session_inactive":    domain.ErrSessionInactive,
	"decryption_failed":   domain.ErrDecryption,
	"vault_full":          domain.ErrVaultFull,
	"shutting_down":       domain.ErrVaultClosed,
}

func newStatusError(method, path string, resp *http.Response) error {
	se := &StatusError{Method: method, Path: path, Status: resp.StatusCode}
	var body struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if b, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10)); err == nil && json.Unmarshal(b, &body) == nil {
		se.Code = body.Error.Code
		se.Msg = body.Error.Message
		se.err = sentinels[se.Code]
	}
	return se
}

func secondsToDuration(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}
