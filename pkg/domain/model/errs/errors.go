package errs

import (
	"errors"
)

// ErrActionUnavailable is returned by Tool.Configure when the tool has not
// been given the options it needs. Such tools are skipped.
var ErrActionUnavailable = errors.New("action is not available")

// ErrWriteBlocked is returned when a statement other than SELECT is sent
// while the BigQuery tool runs in blocked write mode.
var ErrWriteBlocked = errors.New("write statement is blocked")
