package service

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lottoledger/internal/ledger"
	"lottoledger/internal/models"
)

func sdRequest(tuples ...BetTuple) PlaceRequest {
	return PlaceRequest{UserID: "u1", ExpectedCode: ledger.SingleDigit, Code: "SD", GameID: "g1", GameName: "KALYAN", Bets: tuples}
}

func TestPlace_DebitsWalletAndWritesBet(t *testing.T) {
	f := newFixture(t)
	f.seedUser(t, "u1", "1000")
	f.seedGame(t, "g1", "KALYAN")

	res, err := f.intake().Place(context.Background(), sdRequest(BetTuple{Number: "5", Points: 200, Game: "open"}))
	require.NoError(t, err)
	assertDec(t, "200", res.Deducted)
	assertDec(t, "1000", res.WalletBefore)
	assertDec(t, "800", res.WalletAfter)
	assertDec(t, "800", f.wallet(t, "u1"))

	bets := f.activeBets(t)
	require.Len(t, bets, 1)
	b := bets[0]
	assert.Equal(t, "5", b.SDNumber)
	assert.True(t, b.Open)
	assert.False(t, b.Close)
	assert.Equal(t, models.BetStatusPending, b.ResultStatus)
	assertDec(t, "1000", b.PreBalance)
	assertDec(t, "800", b.PostBalance)
	assert.Equal(t, "user u1", b.Username)
}

func TestPlace_ChainsBalancesInInputOrder(t *testing.T) {
	f := newFixture(t)
	f.seedUser(t, "u1", "1000")
	f.seedGame(t, "g1", "KALYAN")

	res, err := f.intake().Place(context.Background(), sdRequest(
		BetTuple{Number: "1", Points: 100, Game: "open"},
		BetTuple{Number: "2", Points: 0, Game: "open"},
		BetTuple{Number: "3", Points: 50.5, Game: "close"},
		BetTuple{Number: "4", Points: -5, Game: "open"},
		BetTuple{Number: "5", Points: 25, Game: "close"},
	))
	require.NoError(t, err)
	assert.Equal(t, 2, res.Dropped)
	require.Len(t, res.Bets, 3)

	assertDec(t, "1000", res.Bets[0].PreBalance)
	for i, b := range res.Bets {
		assertDec(t, b.PreBalance.Sub(b.Amount).String(), b.PostBalance)
		if i > 0 {
			assertDec(t, res.Bets[i-1].PostBalance.String(), b.PreBalance)
		}
	}
	assertDec(t, "824.5", res.WalletAfter)
	assertDec(t, "824.5", f.wallet(t, "u1"))
	assert.True(t, res.Bets[1].Close)
}

func TestPlace_WindowClosedRejectsWholeBatch(t *testing.T) {
	f := newFixture(t)
	f.seedUser(t, "u1", "1000")
	f.seedGame(t, "g1", "KALYAN")
	f.now = time.Date(2026, 3, 10, 9, 5, 0, 0, ist)

	_, err := f.intake().Place(context.Background(), sdRequest(
		BetTuple{Number: "5", Points: 100, Game: "close"},
		BetTuple{Number: "6", Points: 100, Game: "open"},
	))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ledger.ErrWindowClosed))
	var le *ledger.Error
	require.True(t, errors.As(err, &le))
	assert.Equal(t, ledger.WindowOpen, le.Side)

	assert.Empty(t, f.activeBets(t))
	assertDec(t, "1000", f.wallet(t, "u1"))

	// The close side of SD is still open at 09:05.
	_, err = f.intake().Place(context.Background(), sdRequest(BetTuple{Number: "5", Points: 100, Game: "close"}))
	require.NoError(t, err)
}

func TestPlace_OpenOnlyCodesGateOnOpenCutoff(t *testing.T) {
	f := newFixture(t)
	f.seedUser(t, "u1", "1000")
	f.seedGame(t, "g1", "KALYAN")
	f.now = time.Date(2026, 3, 10, 9, 5, 0, 0, ist)

	_, err := f.intake().Place(context.Background(), PlaceRequest{
		UserID: "u1", ExpectedCode: ledger.JodiDigit, Code: "JD", GameID: "g1",
		Bets: []BetTuple{{Number: "45", Points: 10, Game: "close"}},
	})
	assert.True(t, errors.Is(err, ledger.ErrWindowClosed))
}

func TestPlace_Rejections(t *testing.T) {
	f := newFixture(t)
	f.seedUser(t, "u1", "100")
	f.seedGame(t, "g1", "KALYAN")
	ctx := context.Background()
	svc := f.intake()

	cases := []struct {
		name string
		req  PlaceRequest
		want error
	}{
		{"code mismatch", PlaceRequest{UserID: "u1", ExpectedCode: ledger.SingleDigit, Code: "JD", GameID: "g1", Bets: []BetTuple{{Number: "1", Points: 1}}}, ledger.ErrInvalidPayload},
		{"no game id", PlaceRequest{UserID: "u1", ExpectedCode: ledger.SingleDigit, Code: "SD", Bets: []BetTuple{{Number: "1", Points: 1}}}, ledger.ErrInvalidPayload},
		{"no tuples", PlaceRequest{UserID: "u1", ExpectedCode: ledger.SingleDigit, Code: "SD", GameID: "g1"}, ledger.ErrInvalidPayload},
		{"all dropped", sdRequest(BetTuple{Number: "1", Points: 0}), ledger.ErrInvalidPayload},
		{"unknown game", PlaceRequest{UserID: "u1", ExpectedCode: ledger.SingleDigit, Code: "SD", GameID: "nope", Bets: []BetTuple{{Number: "1", Points: 1}}}, ledger.ErrNotFound},
		{"unknown user", PlaceRequest{UserID: "ghost", ExpectedCode: ledger.SingleDigit, Code: "SD", GameID: "g1", Bets: []BetTuple{{Number: "1", Points: 1}}}, ledger.ErrNotFound},
		{"insufficient", sdRequest(BetTuple{Number: "1", Points: 60}, BetTuple{Number: "2", Points: 60}), ledger.ErrInsufficientFunds},
		{"bad sangam", PlaceRequest{UserID: "u1", ExpectedCode: ledger.HalfSangam, Code: "HS", GameID: "g1", Bets: []BetTuple{{Number: "5", Points: 1}}}, ledger.ErrInvalidPayload},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Place(ctx, tc.req)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tc.want), "got %v", err)
		})
	}
	assert.Empty(t, f.activeBets(t))
	assertDec(t, "100", f.wallet(t, "u1"))
}

func TestPlace_SangamNumbers(t *testing.T) {
	f := newFixture(t)
	f.seedUser(t, "u1", "1000")
	f.seedGame(t, "g1", "KALYAN")
	ctx := context.Background()

	res, err := f.intake().Place(ctx, PlaceRequest{
		UserID: "u1", ExpectedCode: ledger.HalfSangam, Code: "hs", GameID: "g1",
		Bets: []BetTuple{
			{Number: "4-678", Points: 10, Game: "open"},
			{Number: "7-123", Points: 10, Game: "close"},
		},
	})
	require.NoError(t, err)
	open, closeBet := res.Bets[0], res.Bets[1]
	assert.Equal(t, "4", open.HSOpenDigit)
	assert.Equal(t, "678", open.HSClosePana)
	assert.Equal(t, "7", closeBet.HSCloseDigit)
	assert.Equal(t, "123", closeBet.HSOpenPana)
	assert.True(t, closeBet.Close)

	res, err = f.intake().Place(ctx, PlaceRequest{
		UserID: "u1", ExpectedCode: ledger.FullSangam, Code: "FS", GameID: "g1",
		Bets: []BetTuple{{Number: "678-123", Points: 10, Game: "close"}},
	})
	require.NoError(t, err)
	fs := res.Bets[0]
	assert.True(t, fs.Open, "full sangam is stored on the open side")
	assert.False(t, fs.Close)
	assert.Equal(t, "678", fs.FSClosePana)
	assert.Equal(t, "123", fs.FSOpenPana)
}

func TestPlace_UpdatesChart(t *testing.T) {
	f := newFixture(t)
	f.seedUser(t, "u1", "1000")
	f.seedGame(t, "g1", "KALYAN")
	ctx := context.Background()

	_, err := f.intake().Place(ctx, sdRequest(
		BetTuple{Number: "5", Points: 10},
		BetTuple{Number: "5", Points: 15},
		BetTuple{Number: "7", Points: 5},
	))
	require.NoError(t, err)
	_, err = f.intake().Place(ctx, sdRequest(BetTuple{Number: "5", Points: 1}))
	require.NoError(t, err)

	var cell models.GameChart
	require.NoError(t, f.db.Where("date_id = ? AND game_name = ? AND gamecode = ? AND number = ?", "10-03-2026", "KALYAN", "SD", "5").Take(&cell).Error)
	assertDec(t, "26", cell.TotalAmount)
}

func TestPlace_ConcurrentIntakesNeverOverspend(t *testing.T) {
	f := newFixture(t)
	f.seedUser(t, "u1", "1000")
	f.seedGame(t, "g1", "KALYAN")
	svc := f.intake()

	const callers = 8
	var wg sync.WaitGroup
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.Place(context.Background(), sdRequest(BetTuple{Number: "1", Points: 150}))
		}(i)
	}
	wg.Wait()

	ok, short := 0, 0
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, ledger.ErrInsufficientFunds):
			short++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 6, ok)
	assert.Equal(t, 2, short)
	assertDec(t, "100", f.wallet(t, "u1"))
	assert.Len(t, f.activeBets(t), 6)
}

func TestPlace_RoundsStakesToCents(t *testing.T) {
	f := newFixture(t)
	f.seedUser(t, "u1", "1000")
	f.seedGame(t, "g1", "KALYAN")

	res, err := f.intake().Place(context.Background(), sdRequest(
		BetTuple{Number: "5", Points: 50.555, Game: "open"},
		BetTuple{Number: "6", Points: 0.004, Game: "open"},
	))
	require.NoError(t, err)
	assert.Equal(t, 1, res.Dropped, "a stake that rounds to zero is dropped")
	require.Len(t, res.Bets, 1)
	b := res.Bets[0]
	assertDec(t, "50.56", b.Amount)
	assertDec(t, "949.44", b.PostBalance)
	assertDec(t, b.PreBalance.Sub(b.Amount).String(), b.PostBalance)
	assertDec(t, "949.44", f.wallet(t, "u1"))
}

func TestBetTuple_DecodesLooseJSON(t *testing.T) {
	var tuples []BetTuple
	body := `[
		{"number": 5, "points": "200", "game": "open"},
		{"number": "12", "points": 7.5},
		{"number": "3", "points": "abc"},
		{"number": "4", "points": null}
	]`
	require.NoError(t, json.Unmarshal([]byte(body), &tuples))
	require.Len(t, tuples, 4)
	assert.Equal(t, BetNumber("5"), tuples[0].Number)
	assert.Equal(t, Points(200), tuples[0].Points)
	assert.Equal(t, BetNumber("12"), tuples[1].Number)
	assert.Equal(t, Points(7.5), tuples[1].Points)
	assert.True(t, math.IsNaN(float64(tuples[2].Points)))
	assert.Zero(t, float64(tuples[3].Points))

	_, dropped, err := price(ledger.SingleDigit, tuples)
	require.NoError(t, err)
	assert.Equal(t, 2, dropped)

	var bad []BetTuple
	assert.Error(t, json.Unmarshal([]byte(`[{"number": {"x": 1}, "points": 1}]`), &bad))
}
