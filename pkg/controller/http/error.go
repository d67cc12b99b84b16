package http

import (
	"net/http"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/bqagent/pkg/domain/model/errs"
	"github.com/secmon-lab/bqagent/pkg/utils/logging"
)

func handleError(w http.ResponseWriter, r *http.Request, err error) {
	logger := logging.From(r.Context())

	switch {
	case goerr.HasTag(err, errs.TagNotFound):
		logger.Warn("Not Found", logging.ErrAttr(err))
		http.Error(w, err.Error(), http.StatusNotFound)

	case goerr.HasTag(err, errs.TagValidation):
		logger.Warn("Bad Request", logging.ErrAttr(err))
		http.Error(w, err.Error(), http.StatusBadRequest)

	case goerr.HasTag(err, errs.TagForbidden):
		logger.Warn("Forbidden", logging.ErrAttr(err))
		http.Error(w, err.Error(), http.StatusForbidden)

	case goerr.HasTag(err, errs.TagQuotaExceeded):
		logger.Warn("Quota Exceeded", logging.ErrAttr(err))
		http.Error(w, err.Error(), http.StatusTooManyRequests)

	case goerr.HasTag(err, errs.TagExternal), goerr.HasTag(err, errs.TagLLMError):
		logger.Error("External Service Error", logging.ErrAttr(err))
		http.Error(w, err.Error(), http.StatusBadGateway)

	case goerr.HasTag(err, errs.TagTimeout):
		logger.Error("Gateway Timeout", logging.ErrAttr(err))
		http.Error(w, err.Error(), http.StatusGatewayTimeout)

	default:
		errs.Handle(r.Context(), err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
