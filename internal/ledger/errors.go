package ledger

import (
	"errors"
	"fmt"
)

// Kind is the stable error category reported to callers.
type Kind string

const (
	KindInvalidPayload      Kind = "InvalidPayload"
	KindAuthMismatch        Kind = "AuthMismatch"
	KindNotFound            Kind = "NotFound"
	KindWindowClosed        Kind = "WindowClosed"
	KindInsufficientFunds   Kind = "InsufficientFunds"
	KindStoreUnavailable    Kind = "StoreUnavailable"
	KindPartialBatchFailure Kind = "PartialBatchFailure"
)

var (
	ErrInvalidPayload      = &Error{Kind: KindInvalidPayload, Message: "invalid payload"}
	ErrAuthMismatch        = &Error{Kind: KindAuthMismatch, Message: "caller uid does not match verified identity"}
	ErrNotFound            = &Error{Kind: KindNotFound, Message: "not found"}
	ErrWindowClosed        = &Error{Kind: KindWindowClosed, Message: "betting window closed"}
	ErrInsufficientFunds   = &Error{Kind: KindInsufficientFunds, Message: "insufficient wallet balance"}
	ErrStoreUnavailable    = &Error{Kind: KindStoreUnavailable, Message: "store unavailable"}
	ErrPartialBatchFailure = &Error{Kind: KindPartialBatchFailure, Message: "batch failed after earlier batches committed"}
)

// Error is a business failure with a stable kind. Is matches on Kind, so
// errors.Is(err, ErrNotFound) holds for any NotFound error.
type Error struct {
	Kind    Kind
	Message string
	// Side is set for WindowClosed.
	Side Window
	Err  error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = string(e.Kind)
	}
	if e.Side != "" {
		msg = fmt.Sprintf("%s (%s)", msg, e.Side)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

func Invalid(format string, args ...any) error {
	return &Error{Kind: KindInvalidPayload, Message: fmt.Sprintf(format, args...)}
}

func NotFound(what, id string) error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf("%s %q not found", what, id)}
}

func WindowClosed(side Window) error {
	return &Error{Kind: KindWindowClosed, Message: "betting window closed", Side: side}
}

func InsufficientFunds(wallet, required fmt.Stringer) error {
	return &Error{Kind: KindInsufficientFunds, Message: fmt.Sprintf("insufficient wallet balance: have %s, need %s", wallet, required)}
}

func StoreUnavailable(err error) error {
	return &Error{Kind: KindStoreUnavailable, Message: "store unavailable", Err: err}
}

func AuthMismatch(declared, verified string) error {
	return &Error{Kind: KindAuthMismatch, Message: fmt.Sprintf("declared uid %q does not match verified subject %q", declared, verified)}
}

// KindOf returns the kind of err, or "" for errors outside the taxonomy.
func KindOf(err error) Kind {
	var pb *PartialBatchError
	if errors.As(err, &pb) {
		return KindPartialBatchFailure
	}
	var le *Error
	if errors.As(err, &le) {
		return le.Kind
	}
	return ""
}

// Progress counts what a multi-chunk operation committed before it stopped.
type Progress struct {
	Matched        int `json:"matched"`
	Updated        int `json:"updated"`
	Winners        int `json:"winners"`
	UsersCredited  int `json:"users_credited"`
	UsersDebited   int `json:"users_debited"`
	ChunksDone     int `json:"chunks_done"`
	ChunksFailed   int `json:"chunks_failed"`
	RecordsMoved   int `json:"records_moved"`
	RecordsDeleted int `json:"records_deleted"`
}

// PartialBatchError reports a chunk failure after earlier chunks were committed.
// Chunk writes are idempotent per id, so the operation can be re-run.
type PartialBatchError struct {
	Op       string
	Progress Progress
	Err      error
}

func (e *PartialBatchError) Error() string {
	return fmt.Sprintf("%s: partial batch failure after %d chunks: %v", e.Op, e.Progress.ChunksDone, e.Err)
}

func (e *PartialBatchError) Unwrap() error {
	return e.Err
}

func (e *PartialBatchError) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == KindPartialBatchFailure
}
