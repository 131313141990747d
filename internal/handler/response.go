package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"lottoledger/internal/identity"
	"lottoledger/internal/ledger"
)

type apiResponse struct {
	Code    int            `json:"code"`
	Message string         `json:"message"`
	Kind    ledger.Kind    `json:"kind,omitempty"`
	Data    any            `json:"data,omitempty"`
	Meta    map[string]any `json:"meta,omitempty"`
}

func Ok(c *gin.Context, data any, meta map[string]any) {
	c.JSON(http.StatusOK, apiResponse{
		Code:    0,
		Message: "ok",
		Data:    data,
		Meta:    meta,
	})
}

func Error(c *gin.Context, status int, message string, meta map[string]any) {
	c.JSON(status, apiResponse{
		Code:    status,
		Message: message,
		Meta:    meta,
	})
}

// Fail maps a ledger error to its status code. data carries partial reports.
func Fail(c *gin.Context, logger *zap.Logger, err error, data any) {
	kind := ledger.KindOf(err)
	status := statusFor(kind)
	var meta map[string]any
	var pb *ledger.PartialBatchError
	if errors.As(err, &pb) {
		meta = map[string]any{"op": pb.Op, "progress": pb.Progress}
	}
	var le *ledger.Error
	if errors.As(err, &le) && le.Side != "" {
		if meta == nil {
			meta = map[string]any{}
		}
		meta["side"] = le.Side
	}
	if status >= http.StatusInternalServerError && logger != nil {
		logger.Error("request failed", zap.String("path", c.FullPath()), zap.String("kind", string(kind)), zap.Error(err))
	}
	c.JSON(status, apiResponse{
		Code:    status,
		Message: err.Error(),
		Kind:    kind,
		Data:    data,
		Meta:    meta,
	})
}

func statusFor(kind ledger.Kind) int {
	switch kind {
	case ledger.KindInvalidPayload, ledger.KindWindowClosed:
		return http.StatusBadRequest
	case ledger.KindAuthMismatch:
		return http.StatusForbidden
	case ledger.KindNotFound:
		return http.StatusNotFound
	case ledger.KindInsufficientFunds:
		return http.StatusPaymentRequired
	case ledger.KindStoreUnavailable:
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func intQuery(c *gin.Context, key string, def int) int {
	if val := c.Query(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return def
}

func guarded(h gin.HandlerFunc) []gin.HandlerFunc {
	if h == nil {
		return nil
	}
	return []gin.HandlerFunc{h}
}

// sameSubject writes a 403 and reports false when uid is not the verified caller.
func sameSubject(c *gin.Context, logger *zap.Logger, uid string) bool {
	subject, ok := identity.SubjectFromGin(c)
	if ok && subject == uid {
		return true
	}
	if logger != nil {
		logger.Warn("uid does not match verified identity",
			zap.String("declared", uid), zap.String("verified", subject), zap.String("path", c.FullPath()))
	}
	Fail(c, logger, ledger.AuthMismatch(uid, subject), nil)
	return false
}
