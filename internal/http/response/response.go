// Package response is the HTTP Surface's uniform envelope and error
// mapping (spec §4.9/§7), grounded on the teacher's JSON-handler idiom
// in internal/http/services/cback (mapstructure-decoded bodies,
// json.NewEncoder responses) generalized into one shared helper instead
// of each service hand-rolling its own.
package response

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/filez-project/filez/pkg/errtypes"
)

// Status is the envelope's outcome discriminator.
type Status string

const (
	StatusSuccess Status = "Success"
	StatusError   Status = "Error"
)

// Envelope is the response shape every route returns (spec §4.9).
type Envelope struct {
	Status  Status      `json:"status"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// OK writes a Success envelope wrapping data.
func OK(w http.ResponseWriter, data interface{}) {
	writeJSON(w, http.StatusOK, Envelope{Status: StatusSuccess, Data: data})
}

// Created writes a 201 Success envelope wrapping data.
func Created(w http.ResponseWriter, data interface{}) {
	writeJSON(w, http.StatusCreated, Envelope{Status: StatusSuccess, Data: data})
}

// NoContent writes a 204 with no body.
func NoContent(w http.ResponseWriter) { w.WriteHeader(http.StatusNoContent) }

// Error maps err to a status code per spec §4.9/§7 and writes an Error
// envelope. PoolExhausted additionally sets Retry-After per spec §5
// "Shared-resource policy".
func Error(w http.ResponseWriter, err error) {
	code := classify(err)
	if code == http.StatusServiceUnavailable {
		w.Header().Set("Retry-After", "5")
	}
	writeJSON(w, code, Envelope{Status: StatusError, Message: err.Error()})
}

// classify walks err's interface set, the way pkg/errtypes' marker
// interfaces (IsNotFound, IsForbidden, ...) are meant to be checked,
// mapping each kind to the status code spec §4.9 fixes for it.
func classify(err error) int {
	switch {
	case errorIs[errtypes.IsUnauthorized](err):
		return http.StatusUnauthorized
	case errorIs[errtypes.IsForbidden](err):
		return http.StatusForbidden
	case errorIs[errtypes.IsNotFound](err):
		return http.StatusNotFound
	case errorIs[errtypes.IsConflict](err), errorIs[errtypes.IsAlreadyExists](err), errorIs[errtypes.IsOffsetMismatch](err):
		return http.StatusConflict
	case errorIs[errtypes.IsLocked](err):
		return http.StatusLocked
	case errorIs[errtypes.IsPreconditionFailed](err):
		return http.StatusPreconditionRequired
	case errorIs[errtypes.IsValidation](err):
		return http.StatusBadRequest
	case errorIs[errtypes.IsDigestMismatch](err):
		return http.StatusUnprocessableEntity
	case errorIs[errtypes.IsPoolExhausted](err):
		return http.StatusServiceUnavailable
	case errorIs[errtypes.IsDriver](err):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

type unwrapper interface{ Unwrap() error }

// errorIs reports whether err, or anything it wraps, implements I.
func errorIs[I any](err error) bool {
	for err != nil {
		if _, ok := err.(I); ok {
			return true
		}
		u, ok := err.(unwrapper)
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}

func writeJSON(w http.ResponseWriter, code int, env Envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(env)
}

// ServerTiming writes a Server-Timing header for the route's total
// handling duration (spec §4.9 "server-timing").
func ServerTiming(w http.ResponseWriter, name string, d time.Duration) {
	ms := float64(d) / float64(time.Millisecond)
	w.Header().Add("Server-Timing", name+";dur="+strconv.FormatFloat(ms, 'f', 2, 64))
}
