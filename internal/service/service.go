package service

import (
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"lottoledger/internal/ledger"
)

var validate = validator.New()

func validationError(err error) error {
	if err == nil {
		return nil
	}
	return ledger.Invalid("%v", err)
}

// partial wraps err as a PartialBatchError once some chunk has committed.
func partial(op string, progress ledger.Progress, err error) error {
	if err == nil {
		return nil
	}
	if progress.ChunksDone == 0 {
		return err
	}
	return &ledger.PartialBatchError{Op: op, Progress: progress, Err: err}
}

func logWarn(l *zap.Logger, msg string, err error, fields ...zap.Field) {
	if l == nil {
		return
	}
	l.Warn(msg, append(fields, zap.Error(err))...)
}

func logInfo(l *zap.Logger, msg string, fields ...zap.Field) {
	if l == nil {
		return
	}
	l.Info(msg, fields...)
}
