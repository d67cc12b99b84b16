package http

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/bqagent/pkg/domain/model/errs"
	"github.com/secmon-lab/bqagent/pkg/domain/model/row"
	"github.com/secmon-lab/bqagent/pkg/utils/logging"
)

// maxBodySize limits request bodies of the API endpoints.
const maxBodySize = 8 << 20

type runAgentRequest struct {
	Query string `json:"query"`
}

func writeJSON(w http.ResponseWriter, r *http.Request, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.From(r.Context()).Warn("failed to write response", logging.ErrAttr(err))
	}
}

func readBody(r *http.Request) ([]byte, error) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize+1))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read body", goerr.T(errs.TagValidation))
	}
	if len(body) > maxBodySize {
		return nil, goerr.New("request body too large", goerr.T(errs.TagValidation), goerr.V("limit", maxBodySize))
	}
	return body, nil
}

func listAgentsHandler(uc UseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, r, uc.ListAgents(r.Context()))
	}
}

func runAgentHandler(uc UseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := chi.URLParam(r, "name")

		body, err := readBody(r)
		if err != nil {
			handleError(w, r, err)
			return
		}
		defer r.Body.Close()

		var req runAgentRequest
		if err := json.Unmarshal(body, &req); err != nil {
			handleError(w, r, goerr.Wrap(err, "failed to decode request",
				goerr.T(errs.TagValidation),
				goerr.V("agent", name),
			))
			return
		}

		resp, err := uc.AskAgent(r.Context(), name, req.Query)
		if err != nil {
			handleError(w, r, err)
			return
		}

		writeJSON(w, r, resp)
	}
}

func reshapeHandler(uc UseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := readBody(r)
		if err != nil {
			handleError(w, r, err)
			return
		}
		defer r.Body.Close()

		rows, err := row.DecodeRows(body)
		if err != nil {
			handleError(w, r, goerr.Wrap(err, "invalid rows", goerr.T(errs.TagValidation)))
			return
		}

		writeJSON(w, r, uc.ReshapeRows(r.Context(), rows))
	}
}
