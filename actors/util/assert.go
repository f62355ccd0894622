package util

import (
	"github.com/filecoin-project/go-state-types/exitcode"
)

type abort struct {
	code exitcode.ExitCode
	msg  string
}

// AssertNoError halts execution on an error that should never happen, such as
// a failure to encode a well-known constant. The resulting state is undefined.
func AssertNoError(e error) {
	if e != nil {
		panic(abort{exitcode.ErrForbidden, e.Error()})
	}
}
