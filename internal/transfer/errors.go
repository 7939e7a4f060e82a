package transfer

import (
	"errors"
	"fmt"
)

var (
	ErrChannelClosed = errors.New("channel closed")
	ErrShortFile     = errors.New("file shorter than declared size")
	ErrSizeMismatch  = errors.New("received size does not match declared size")
)

// TransferError wraps a failure with the operation and file it belongs to.
type TransferError struct {
	Op   string
	File string
	Err  error
}

func (e *TransferError) Error() string {
	if e.File != "" {
		return fmt.Sprintf("%s %s: %v", e.Op, e.File, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransferError) Unwrap() error {
	return e.Err
}

func newFileError(op, file string, err error) *TransferError {
	return &TransferError{Op: op, File: file, Err: err}
}
