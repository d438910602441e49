package ledger

import (
	"errors"
	"fmt"
)

// ErrQueryFailed matches every QueryError.
var ErrQueryFailed = errors.New("query_failed")

// QueryError is a failed read against the node: transport failure, an (err ...)
// response, or a tuple that did not decode.
type QueryError struct {
	Query string
	Err   error
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("%s: %v", e.Query, e.Err)
}

func (e *QueryError) Unwrap() error { return e.Err }

func (e *QueryError) Is(target error) bool { return target == ErrQueryFailed }

func queryErr(query string, err error) error {
	if err == nil {
		return nil
	}
	return &QueryError{Query: query, Err: err}
}
