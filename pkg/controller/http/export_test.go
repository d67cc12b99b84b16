package http

var (
	LoggingMiddleware       = loggingMiddleware
	PanicRecoveryMiddleware = panicRecoveryMiddleware
)
