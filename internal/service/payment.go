package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"lottoledger/internal/ledger"
	"lottoledger/internal/models"
	"lottoledger/internal/repository"
)

// receivedTimeLayout is how callback receipt times are stored, e.g. "03:04:05 PM".
const receivedTimeLayout = "03:04:05 PM"

var errAlreadyHandled = errors.New("deposit already handled")

type OpenDepositRequest struct {
	UserID string  `json:"uid" validate:"required"`
	Amount float64 `json:"amount" validate:"gt=0"`
}

type Callback struct {
	ClientTxnID string `json:"client_txn_id" form:"client_txn_id" validate:"required"`
	Status      string `json:"status" form:"status" validate:"required"`
	UPITxnID    string `json:"upi_txn_id" form:"upi_txn_id"`
}

type CallbackResult struct {
	ClientTxnID string `json:"client_txn_id"`
	Status      string `json:"status"`
	// Applied is false for redeliveries of an already handled callback.
	Applied     bool             `json:"applied"`
	WalletAfter *decimal.Decimal `json:"wallet_after,omitempty"`
}

// PaymentService records gateway add-money orders and applies their callbacks to the wallet.
type PaymentService struct {
	Repo     repository.Repository
	Calendar *ledger.Calendar
	Logger   *zap.Logger
}

// OpenDeposit stores a pending deposit with a fresh client transaction id.
func (s *PaymentService) OpenDeposit(ctx context.Context, req OpenDepositRequest) (*models.GatewayDeposit, error) {
	if s == nil || s.Repo == nil {
		return nil, ledger.StoreUnavailable(nil)
	}
	req.UserID = strings.TrimSpace(req.UserID)
	if err := validate.Struct(req); err != nil {
		return nil, validationError(err)
	}
	user, err := s.Repo.GetUser(ctx, req.UserID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ledger.NotFound("user", req.UserID)
	}
	now := s.Calendar.Now()
	item := &models.GatewayDeposit{
		ID:            uuid.NewString(),
		ClientTxnID:   fmt.Sprintf("txn_%d_%s", now.UnixMilli(), uuid.NewString()[:8]),
		UserID:        user.ID,
		Username:      user.Name,
		Mobile:        user.Phone,
		Amount:        decimal.NewFromFloat(req.Amount).Round(2),
		PreBalance:    user.Wallet,
		PaymentStatus: models.PaymentPending,
	}
	if err := s.Repo.InsertGatewayDeposit(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

// HandleCallback applies a gateway callback once. Redelivered callbacks are no-ops.
func (s *PaymentService) HandleCallback(ctx context.Context, cb Callback) (*CallbackResult, error) {
	if s == nil || s.Repo == nil {
		return nil, ledger.StoreUnavailable(nil)
	}
	cb.ClientTxnID = strings.TrimSpace(cb.ClientTxnID)
	if err := validate.Struct(cb); err != nil {
		return nil, validationError(err)
	}
	success := strings.EqualFold(strings.TrimSpace(cb.Status), models.PaymentSuccess)
	now := s.Calendar.Now()

	var res *CallbackResult
	err := s.Repo.InTx(ctx, func(tx *gorm.DB) error {
		dep, err := s.Repo.GetGatewayDepositByClientTxnIDTx(ctx, tx, cb.ClientTxnID)
		if err != nil {
			return err
		}
		if dep == nil {
			return ledger.NotFound("transaction", cb.ClientTxnID)
		}
		res = &CallbackResult{ClientTxnID: dep.ClientTxnID, Status: dep.PaymentStatus}
		if dep.PaymentStatus != models.PaymentPending {
			return nil
		}

		if !success {
			ok, err := s.Repo.CompleteGatewayDepositTx(ctx, tx, dep.ID, repository.GatewayDepositUpdate{
				Status:   models.PaymentFailure,
				UPITxnID: cb.UPITxnID,
			})
			if err != nil {
				return err
			}
			if !ok {
				return errAlreadyHandled
			}
			res.Status, res.Applied = models.PaymentFailure, true
			return nil
		}

		user, err := s.Repo.LockUserTx(ctx, tx, dep.UserID)
		if err != nil {
			return err
		}
		if user == nil {
			return ledger.NotFound("user", dep.UserID)
		}
		wallet := user.Wallet.Add(dep.Amount)
		ok, err := s.Repo.CompleteGatewayDepositTx(ctx, tx, dep.ID, repository.GatewayDepositUpdate{
			Status:       models.PaymentSuccess,
			UPITxnID:     cb.UPITxnID,
			PostBalance:  &wallet,
			ReceivedDate: now.Format(ledger.DateIDLayout),
			ReceivedTime: now.Format(receivedTimeLayout),
		})
		if err != nil {
			return err
		}
		if !ok {
			return errAlreadyHandled
		}
		if err := s.Repo.SetWalletTx(ctx, tx, user.ID, wallet); err != nil {
			return err
		}
		if err := s.Repo.IncrementDailyMoneyTx(ctx, tx, now.Format(ledger.DateIDLayout), repository.DailyGatewayDeposit, dep.Amount); err != nil {
			return err
		}
		res.Status, res.Applied, res.WalletAfter = models.PaymentSuccess, true, &wallet
		return nil
	})
	if errors.Is(err, errAlreadyHandled) {
		return &CallbackResult{ClientTxnID: cb.ClientTxnID, Status: "handled"}, nil
	}
	if err != nil {
		return nil, err
	}
	logInfo(s.Logger, "payment callback",
		zap.String("client_txn_id", res.ClientTxnID), zap.String("status", res.Status), zap.Bool("applied", res.Applied))
	return res, nil
}
