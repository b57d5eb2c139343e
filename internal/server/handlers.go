package server

import (
	"encoding/json"
	"net/http"

	"github.com/tournevent/freightquote/internal/api"
	"github.com/tournevent/freightquote/pkg/freight"
)

const maxBodyBytes = 1 << 20

func (s *Server) handleQuotes(w http.ResponseWriter, r *http.Request) {
	var input api.QuoteInput
	if !decodeJSON(w, r, &input) {
		return
	}
	resp, err := s.resolver.Query().Quotes(r.Context(), input)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleChargeableWeight(w http.ResponseWriter, r *http.Request) {
	var input api.WeightInput
	if !decodeJSON(w, r, &input) {
		return
	}
	resp, err := s.resolver.Query().ChargeableWeight(r.Context(), input)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		writeError(w, r, freight.NewError(freight.CodeInvalidShipment, "invalid JSON").WithCause(err))
		return false
	}
	return true
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, detail := api.Classify(err)
	writeJSON(w, status, api.ErrorBody{Error: detail, RequestID: api.RequestIDFrom(r.Context())})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
