package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/etnz/cryptotax"
	"github.com/etnz/cryptotax/oracle"
	"github.com/go-chi/chi/v5/middleware"
)

// Error codes of an ErrorResponse.
const (
	CodeInvalidRequest   = "invalid_request"
	CodeNotFound         = "not_found"
	CodeInsufficientLots = "insufficient_lots"
	CodePricingFailed    = "pricing_failed"
	CodeNoOracle         = "pricing_unavailable"
	CodeInternal         = "internal"
)

// ErrorResponse is the body of every error.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	// Field is the invalid field of an invalid request.
	Field     string            `json:"field,omitempty"`
	EventID   cryptotax.EventID `json:"eventId,omitempty"`
	Asset     string            `json:"asset,omitempty"`
	RequestID string            `json:"requestId,omitempty"`
}

var errNotFound = errors.New("not found")

// statusOf maps an error to its HTTP status and error code.
func statusOf(err error) (int, string) {
	var (
		verr *cryptotax.ValidationError
		lerr *cryptotax.InsufficientLotError
		perr *cryptotax.PricingError
		oerr *oracle.Error
	)
	switch {
	case errors.As(err, &verr):
		return http.StatusBadRequest, CodeInvalidRequest
	case errors.Is(err, errNoOracle):
		return http.StatusServiceUnavailable, CodeNoOracle
	case errors.Is(err, errNotFound):
		return http.StatusNotFound, CodeNotFound
	case errors.As(err, &lerr):
		return http.StatusUnprocessableEntity, CodeInsufficientLots
	case errors.As(err, &perr), errors.As(err, &oerr):
		return http.StatusBadGateway, CodePricingFailed
	default:
		return http.StatusInternalServerError, CodeInternal
	}
}

// newErrorResponse describes err.
func newErrorResponse(r *http.Request, err error) ErrorResponse {
	_, code := statusOf(err)
	resp := ErrorResponse{Code: code, Message: err.Error(), RequestID: middleware.GetReqID(r.Context())}
	var verr *cryptotax.ValidationError
	if errors.As(err, &verr) {
		resp.Field = verr.Field
	}
	if id, ok := cryptotax.EventIDOf(err); ok {
		resp.EventID = id
	}
	var aerr *cryptotax.AssetError
	if errors.As(err, &aerr) {
		resp.Asset = aerr.Asset
	}
	return resp
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// writeError writes err with the status it maps to.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, _ := statusOf(err)
	writeJSON(w, status, newErrorResponse(r, err))
}

// invalid returns the error of an invalid request field.
func invalid(field, reason string) error {
	return &cryptotax.ValidationError{Field: field, Reason: reason}
}
