package errs

import "github.com/m-mizutani/goerr/v2"

var (
	// Client errors (4xx)
	TagNotFound   = goerr.NewTag("not_found")  // 404
	TagValidation = goerr.NewTag("validation") // 400
	TagForbidden  = goerr.NewTag("forbidden")  // 403

	// Server errors (5xx)
	TagInternal = goerr.NewTag("internal") // 500
	TagExternal = goerr.NewTag("external") // 502
	TagTimeout  = goerr.NewTag("timeout")  // 504

	TagLLMError      = goerr.NewTag("llm_error")
	TagQuotaExceeded = goerr.NewTag("quota_exceeded")
)
