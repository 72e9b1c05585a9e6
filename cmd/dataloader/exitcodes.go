package main

import "errors"

// Exit codes let scripts tell apart "bad invocation" from "gateway said no"
// from "the import ran but some rows failed".
const (
	exitOK          = 0
	exitUnknown     = 1
	exitUsage       = 2
	exitParse       = 3
	exitRequest     = 4
	exitRowFailures = 5
)

type cliError struct {
	code int
	err  error
}

func (e *cliError) Error() string {
	return e.err.Error()
}

func (e *cliError) Unwrap() error {
	return e.err
}

func withCode(code int, err error) error {
	if err == nil {
		return nil
	}
	return &cliError{code: code, err: err}
}

func exitCode(err error) int {
	if err == nil {
		return exitOK
	}
	var coded *cliError
	if errors.As(err, &coded) {
		return coded.code
	}
	return exitUnknown
}
