package service

import (
	"bytes"
	"context"
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"lottoledger/internal/ledger"
	"lottoledger/internal/models"
	"lottoledger/internal/repository"
)

// BetTuple is one wager as submitted. Game carries the side ("open" or "close").
type BetTuple struct {
	Number BetNumber `json:"number" validate:"required"`
	Points Points    `json:"points"`
	Game   string    `json:"game"`
}

// BetNumber accepts a JSON string or number and keeps the digits as written.
type BetNumber string

func (n *BetNumber) UnmarshalJSON(data []byte) error {
	raw := bytes.TrimSpace(data)
	switch {
	case bytes.Equal(raw, []byte("null")):
		*n = ""
		return nil
	case len(raw) > 0 && raw[0] == '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return err
		}
		*n = BetNumber(s)
		return nil
	}
	var num json.Number
	if err := json.Unmarshal(raw, &num); err != nil {
		return ledger.Invalid("bet number must be a string or a number")
	}
	*n = BetNumber(num.String())
	return nil
}

// Points accepts a JSON number or a numeric string. Anything unparseable
// decodes to NaN so pricing drops the tuple instead of failing the call.
type Points float64

func (p *Points) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	if raw == "null" {
		*p = 0
		return nil
	}
	if unquoted, err := strconv.Unquote(raw); err == nil {
		raw = strings.TrimSpace(unquoted)
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		*p = Points(math.NaN())
		return nil
	}
	*p = Points(v)
	return nil
}

type PlaceRequest struct {
	UserID string `validate:"required"`
	// ExpectedCode is the code the calling endpoint accepts.
	ExpectedCode ledger.Gamecode `validate:"required"`
	Code         string          `validate:"required"`
	GameID       string          `validate:"required"`
	GameName     string
	Bets         []BetTuple `validate:"required,min=1,dive"`
}

type PlaceResult struct {
	Deducted     decimal.Decimal `json:"deducted"`
	WalletBefore decimal.Decimal `json:"wallet_before"`
	WalletAfter  decimal.Decimal `json:"wallet_after"`
	Bets         []models.Bet    `json:"bets"`
	// Dropped counts tuples ignored for non-positive or non-finite points.
	Dropped int `json:"dropped"`
}

type IntakeService struct {
	Repo     repository.Repository
	Calendar *ledger.Calendar
	Logger   *zap.Logger
	// NewID generates bet ids; uuid v4 when nil.
	NewID func() string
}

type pricedTuple struct {
	side   ledger.Window
	number string
	first  string
	second string
	amount decimal.Decimal
}

// Place commits every tuple and debits their sum, or commits nothing.
func (s *IntakeService) Place(ctx context.Context, req PlaceRequest) (*PlaceResult, error) {
	if s == nil || s.Repo == nil {
		return nil, ledger.StoreUnavailable(nil)
	}
	req.UserID = strings.TrimSpace(req.UserID)
	req.GameID = strings.TrimSpace(req.GameID)
	if err := validate.Struct(req); err != nil {
		return nil, validationError(err)
	}
	code, ok := ledger.ParseGamecode(req.Code)
	if !ok || code != req.ExpectedCode {
		return nil, ledger.Invalid("gamecode %q not accepted here, want %s", req.Code, req.ExpectedCode)
	}

	game, err := s.Repo.GetGame(ctx, req.GameID)
	if err != nil {
		return nil, err
	}
	if game == nil {
		return nil, ledger.NotFound("game", req.GameID)
	}
	gameName := strings.TrimSpace(req.GameName)
	if gameName == "" {
		gameName = game.Name
	}

	if err := s.checkCutoff(code, game, req.Bets); err != nil {
		return nil, err
	}

	priced, dropped, err := price(code, req.Bets)
	if err != nil {
		return nil, err
	}
	total := decimal.Zero
	for _, p := range priced {
		total = total.Add(p.amount)
	}

	var res *PlaceResult
	err = s.Repo.InTx(ctx, func(tx *gorm.DB) error {
		user, err := s.Repo.LockUserTx(ctx, tx, req.UserID)
		if err != nil {
			return err
		}
		if user == nil {
			return ledger.NotFound("user", req.UserID)
		}
		if user.Wallet.LessThan(total) {
			return ledger.InsufficientFunds(user.Wallet, total)
		}
		balance := user.Wallet
		bets := make([]models.Bet, 0, len(priced))
		for _, p := range priced {
			bet := models.Bet{
				ID:           s.newID(),
				UserID:       user.ID,
				Username:     user.Name,
				Mobile:       user.Phone,
				GameID:       game.ID,
				GameName:     gameName,
				Gamecode:     string(code),
				Open:         p.side == ledger.WindowOpen,
				Close:        p.side == ledger.WindowClose,
				Amount:       p.amount,
				PreBalance:   balance,
				PostBalance:  balance.Sub(p.amount),
				ResultStatus: models.BetStatusPending,
			}
			setNumber(&bet, code, p)
			balance = bet.PostBalance
			bets = append(bets, bet)
		}
		if err := s.Repo.InsertBetsTx(ctx, tx, bets); err != nil {
			return err
		}
		if err := s.Repo.SetWalletTx(ctx, tx, user.ID, balance); err != nil {
			return err
		}
		res = &PlaceResult{
			Deducted:     total,
			WalletBefore: user.Wallet,
			WalletAfter:  balance,
			Bets:         bets,
			Dropped:      dropped,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if code.Charted() {
		s.bumpChart(ctx, gameName, code, res.Bets)
	}
	return res, nil
}

// checkCutoff rejects the whole batch when any tuple targets a closed window.
// SD and the panel codes gate on their own side; JD, HS and FS always gate on the open cut-off.
func (s *IntakeService) checkCutoff(code ledger.Gamecode, game *models.Game, bets []BetTuple) error {
	openPassed := s.Calendar.CutoffPassed(game.OpenTime)
	closePassed := s.Calendar.CutoffPassed(game.CloseTime)
	for _, b := range bets {
		side := ledger.ParseSide(b.Game)
		passed := openPassed
		if code.PerSideCutoff() && side == ledger.WindowClose {
			passed = closePassed
		}
		if passed {
			return ledger.WindowClosed(side)
		}
	}
	return nil
}

func price(code ledger.Gamecode, bets []BetTuple) ([]pricedTuple, int, error) {
	out := make([]pricedTuple, 0, len(bets))
	dropped := 0
	for _, b := range bets {
		pts := float64(b.Points)
		if math.IsNaN(pts) || math.IsInf(pts, 0) || pts <= 0 {
			dropped++
			continue
		}
		// Money columns hold two decimals; stakes that round to zero are dropped.
		amount := decimal.NewFromFloat(pts).Round(2)
		if !amount.IsPositive() {
			dropped++
			continue
		}
		p := pricedTuple{
			side:   ledger.ParseSide(b.Game),
			number: strings.TrimSpace(string(b.Number)),
			amount: amount,
		}
		if code.Sangam() {
			first, second, ok := strings.Cut(p.number, "-")
			first, second = strings.TrimSpace(first), strings.TrimSpace(second)
			if !ok || first == "" || second == "" {
				return nil, 0, ledger.Invalid("sangam number %q must be a pair like 1-234", b.Number)
			}
			p.first, p.second = first, second
		}
		out = append(out, p)
	}
	if len(out) == 0 {
		return nil, dropped, ledger.Invalid("no bet with positive points")
	}
	return out, dropped, nil
}

// setNumber fills the code's number columns. JD and FS only settle in the
// open window, so their close tuples are stored as open bets.
func setNumber(b *models.Bet, code ledger.Gamecode, p pricedTuple) {
	switch code {
	case ledger.SingleDigit:
		b.SDNumber = p.number
	case ledger.JodiDigit:
		b.JDNumber = p.number
	case ledger.SinglePana:
		b.SPNumber = p.number
	case ledger.DoublePana:
		b.DPNumber = p.number
	case ledger.TriplePana:
		b.TPNumber = p.number
	case ledger.HalfSangam:
		if p.side == ledger.WindowClose {
			b.HSCloseDigit, b.HSOpenPana = p.first, p.second
		} else {
			b.HSOpenDigit, b.HSClosePana = p.first, p.second
		}
	case ledger.FullSangam:
		if p.side == ledger.WindowClose {
			b.FSClosePana, b.FSOpenPana = p.first, p.second
		} else {
			b.FSOpenPana, b.FSClosePana = p.first, p.second
		}
	}
	if code.OpenOnly() {
		b.Open, b.Close = true, false
	}
}

// chartNumber is the single number a charted bet is aggregated under.
func chartNumber(b models.Bet) string {
	switch ledger.Gamecode(b.Gamecode) {
	case ledger.SingleDigit:
		return b.SDNumber
	case ledger.JodiDigit:
		return b.JDNumber
	case ledger.SinglePana:
		return b.SPNumber
	case ledger.DoublePana:
		return b.DPNumber
	case ledger.TriplePana:
		return b.TPNumber
	}
	return ""
}

// bumpChart is best effort; the wallet is already committed.
func (s *IntakeService) bumpChart(ctx context.Context, gameName string, code ledger.Gamecode, bets []models.Bet) {
	dateID := s.Calendar.CurrentBusinessDate()
	totals := map[string]decimal.Decimal{}
	order := make([]string, 0, len(bets))
	for _, b := range bets {
		n := chartNumber(b)
		if n == "" {
			continue
		}
		if _, ok := totals[n]; !ok {
			order = append(order, n)
		}
		totals[n] = totals[n].Add(b.Amount)
	}
	for _, n := range order {
		cell := repository.ChartCell{DateID: dateID, GameName: gameName, Gamecode: string(code), Number: n}
		if err := s.Repo.IncrementChart(ctx, cell, totals[n]); err != nil {
			logWarn(s.Logger, "chart increment failed", err,
				zap.String("game", gameName), zap.String("gamecode", string(code)), zap.String("number", n))
		}
	}
}

func (s *IntakeService) newID() string {
	if s.NewID != nil {
		return s.NewID()
	}
	return uuid.NewString()
}
