package handler

import (
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"lottoledger/internal/ledger"
	"lottoledger/internal/service"
)

const WebhookPath = "/api/add-money/upi-webhook"

type PaymentsHandler struct {
	Payments *service.PaymentService
	Logger   *zap.Logger
	// SkipIdentity accepts the declared userId as-is (auth disabled).
	SkipIdentity bool
}

func (h *PaymentsHandler) Register(r *gin.Engine) {
	g := r.Group("/api/add-money")
	g.POST("/orders", h.openOrder)
	g.POST("/upi-webhook", h.webhook)
}

type openOrderRequest struct {
	UserID string  `json:"userId"`
	Amount float64 `json:"amount"`
}

// @Summary Open a gateway add-money order
// @Tags payments
// @Param body body openOrderRequest true "order"
// @Success 200 {object} apiResponse
// @Failure 403 {object} apiResponse
// @Router /api/add-money/orders [post]
func (h *PaymentsHandler) openOrder(c *gin.Context) {
	var req openOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Fail(c, h.Logger, ledger.Invalid("invalid body: %v", err), nil)
		return
	}
	uid := strings.TrimSpace(req.UserID)
	if !h.SkipIdentity && !sameSubject(c, h.Logger, uid) {
		return
	}
	dep, err := h.Payments.OpenDeposit(c.Request.Context(), service.OpenDepositRequest{UserID: uid, Amount: req.Amount})
	if err != nil {
		Fail(c, h.Logger, err, nil)
		return
	}
	Ok(c, dep, nil)
}

// webhook accepts the gateway callback as JSON or form-urlencoded.
//
// @Summary Gateway payment callback
// @Tags payments
// @Accept json
// @Accept x-www-form-urlencoded
// @Success 200 {object} apiResponse
// @Failure 404 {object} apiResponse
// @Router /api/add-money/upi-webhook [post]
func (h *PaymentsHandler) webhook(c *gin.Context) {
	var cb service.Callback
	var err error
	if strings.HasPrefix(c.ContentType(), "application/json") {
		err = c.ShouldBindJSON(&cb)
	} else {
		err = c.ShouldBind(&cb)
	}
	if err != nil {
		Fail(c, h.Logger, ledger.Invalid("invalid body: %v", err), nil)
		return
	}
	res, err := h.Payments.HandleCallback(c.Request.Context(), cb)
	if err != nil {
		Fail(c, h.Logger, err, nil)
		return
	}
	Ok(c, res, nil)
}
