package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lottoledger/internal/ledger"
	"lottoledger/internal/models"
)

func TestRevert_IsExactInverseOfSettle(t *testing.T) {
	f := newFixture(t)
	f.seedGame(t, "g1", "KALYAN")
	f.seedUser(t, "u1", "1000")
	f.seedUser(t, "u2", "500")
	ctx := context.Background()

	intake := f.intake()
	_, err := intake.Place(ctx, sdRequest(BetTuple{Number: "5", Points: 100}, BetTuple{Number: "3", Points: 20}, BetTuple{Number: "5", Points: 10}))
	require.NoError(t, err)
	req := sdRequest(BetTuple{Number: "5", Points: 40}, BetTuple{Number: "8", Points: 40, Game: "close"})
	req.UserID = "u2"
	_, err = intake.Place(ctx, req)
	require.NoError(t, err)

	before := map[string]string{"u1": f.wallet(t, "u1").String(), "u2": f.wallet(t, "u2").String()}

	_, err = f.settlement().Settle(ctx, SettleRequest{GameID: "g1", Window: "open", ResultString: "140-5"})
	require.NoError(t, err)
	assertDec(t, "1915", f.wallet(t, "u1"))
	assertDec(t, "800", f.wallet(t, "u2"))

	rep, err := f.revert().Revert(ctx, RevertRequest{GameID: "g1", GameName: "KALYAN"})
	require.NoError(t, err)
	assert.Equal(t, 4, rep.Restored)
	assert.Equal(t, 2, rep.UsersDebited)
	assertDec(t, "1425", rep.TotalDebited)

	assertDec(t, before["u1"], f.wallet(t, "u1"))
	assertDec(t, before["u2"], f.wallet(t, "u2"))
	assertDec(t, "0", f.amountWon(t))
	for _, b := range f.activeBets(t) {
		assert.Equal(t, models.BetStatusPending, b.ResultStatus, b.ID)
		assert.False(t, b.IsWinner)
		assert.True(t, b.WinningAmount.IsZero())
		assert.Nil(t, b.SettledAt)
		assert.Empty(t, b.SettledWindow)
	}
}

func TestRevert_PullsBackShiftedBets(t *testing.T) {
	f := newFixture(t)
	f.seedGame(t, "g1", "KALYAN")
	f.seedUser(t, "u1", "1000")
	ctx := context.Background()

	_, err := f.intake().Place(ctx, sdRequest(BetTuple{Number: "5", Points: 100}, BetTuple{Number: "6", Points: 100}))
	require.NoError(t, err)
	_, err = f.settlement().Settle(ctx, SettleRequest{GameID: "g1", Window: "open", ResultString: "140-5"})
	require.NoError(t, err)
	assertDec(t, "1750", f.wallet(t, "u1"))

	shifted, err := (&ShiftService{Repo: f.store}).Shift(ctx, ShiftRequest{})
	require.NoError(t, err)
	assert.Equal(t, 2, shifted.Moved)
	assert.Empty(t, f.activeBets(t))

	rep, err := f.revert().Revert(ctx, RevertRequest{GameID: "g1", GameName: "KALYAN", Window: "open"})
	require.NoError(t, err)
	assert.Equal(t, 2, rep.Restored)
	assertDec(t, "800", f.wallet(t, "u1"))

	var completed int64
	require.NoError(t, f.db.Model(&models.CompletedBet{}).Count(&completed).Error)
	assert.Zero(t, completed)
	bets := f.activeBets(t)
	require.Len(t, bets, 2)
	for _, b := range bets {
		assert.Equal(t, models.BetStatusPending, b.ResultStatus)
	}
}

func TestRevert_WindowFilterAndPendingUntouched(t *testing.T) {
	f := newFixture(t)
	f.seedGame(t, "g1", "KALYAN")
	f.seedUser(t, "u1", "1000")
	ctx := context.Background()

	_, err := f.intake().Place(ctx, sdRequest(
		BetTuple{Number: "5", Points: 10, Game: "open"},
		BetTuple{Number: "8", Points: 10, Game: "close"},
		BetTuple{Number: "9", Points: 10, Game: "close"},
	))
	require.NoError(t, err)
	_, err = f.settlement().Settle(ctx, SettleRequest{GameID: "g1", Window: "open", ResultString: "140-5"})
	require.NoError(t, err)
	_, err = f.settlement().Settle(ctx, SettleRequest{GameID: "g1", Window: "close", Result: ledger.Result{CloseDigit: "8", ClosePanel: "134"}})
	require.NoError(t, err)
	assertDec(t, "1160", f.wallet(t, "u1"))

	// Only the close window is reverted; the open win stays credited.
	rep, err := f.revert().Revert(ctx, RevertRequest{GameID: "g1", GameName: "KALYAN", Window: "close"})
	require.NoError(t, err)
	assert.Equal(t, 2, rep.Restored)
	assertDec(t, "1065", f.wallet(t, "u1"))

	rep, err = f.revert().Revert(ctx, RevertRequest{GameID: "g1", GameName: "KALYAN", Window: "close"})
	require.NoError(t, err)
	assert.Equal(t, 0, rep.Matched, "pending bets are not matched")
	assertDec(t, "1065", f.wallet(t, "u1"))

	for _, b := range f.activeBets(t) {
		if b.Open {
			assert.Equal(t, models.BetStatusComplete, b.ResultStatus)
		} else {
			assert.Equal(t, models.BetStatusPending, b.ResultStatus)
		}
	}
}

func settledTrio(t *testing.T) *fixture {
	t.Helper()
	f := newFixture(t)
	f.seedGame(t, "g1", "KALYAN")
	for i, uid := range []string{"u1", "u2", "u3"} {
		f.seedUser(t, uid, "0")
		b := sdBet("b"+string(rune('1'+i)), uid, "5", false)
		require.NoError(t, f.db.Create(&b).Error)
	}
	_, err := f.settlement().Settle(context.Background(), SettleRequest{GameID: "g1", Window: "open", ResultString: "555-5"})
	require.NoError(t, err)
	return f
}

func TestRevert_DebitFailureIsPickedUpByRerun(t *testing.T) {
	f := settledTrio(t)
	ctx := context.Background()

	// Two restore pages commit, then the second wallet chunk fails.
	flaky := &flakyRepo{Repository: f.store, failOn: 4}
	svc := &RevertService{Repo: flaky, Calendar: f.cal, BatchOps: 2, Concurrency: 1}
	rep, err := svc.Revert(ctx, RevertRequest{GameID: "g1", GameName: "KALYAN"})
	require.Error(t, err)
	var pb *ledger.PartialBatchError
	require.True(t, errors.As(err, &pb))
	assert.Equal(t, 3, rep.Restored)
	assert.Equal(t, 1, rep.UsersDebited)
	assertDec(t, "0", f.wallet(t, "u1"))
	assertDec(t, "95", f.wallet(t, "u2"))

	rep, err = f.revert().Revert(ctx, RevertRequest{GameID: "g1", GameName: "KALYAN"})
	require.NoError(t, err)
	assert.Equal(t, 0, rep.Matched)
	assert.Equal(t, 2, rep.UsersDebited)
	assertDec(t, "190", rep.TotalDebited)
	for _, uid := range []string{"u1", "u2", "u3"} {
		assertDec(t, "0", f.wallet(t, uid))
	}
	assertDec(t, "0", f.amountWon(t))
	for _, b := range f.activeBets(t) {
		assert.True(t, b.DebitDue.IsZero(), b.ID)
	}
}

func TestRevert_ResettleNetsOutstandingDebit(t *testing.T) {
	f := settledTrio(t)
	ctx := context.Background()

	flaky := &flakyRepo{Repository: f.store, failOn: 4}
	svc := &RevertService{Repo: flaky, Calendar: f.cal, BatchOps: 2, Concurrency: 1}
	_, err := svc.Revert(ctx, RevertRequest{GameID: "g1", GameName: "KALYAN"})
	require.Error(t, err)

	// Settling again pays each winner once in total.
	rep, err := f.settlement().Settle(ctx, SettleRequest{GameID: "g1", Window: "open", ResultString: "555-5"})
	require.NoError(t, err)
	assert.Equal(t, 3, rep.Updated)
	for _, uid := range []string{"u1", "u2", "u3"} {
		assertDec(t, "95", f.wallet(t, uid))
	}
	assertDec(t, "285", f.amountWon(t))
}

func TestRevert_FractionalStakesRoundTrip(t *testing.T) {
	f := newFixture(t)
	f.seedGame(t, "g1", "KALYAN")
	f.seedUser(t, "u1", "1000")
	ctx := context.Background()

	_, err := f.intake().Place(ctx, sdRequest(BetTuple{Number: "5", Points: 10.55}, BetTuple{Number: "5", Points: 10.55}))
	require.NoError(t, err)
	assertDec(t, "978.9", f.wallet(t, "u1"))

	rep, err := f.settlement().Settle(ctx, SettleRequest{GameID: "g1", Window: "open", ResultString: "140-5"})
	require.NoError(t, err)
	assertDec(t, "200.46", rep.TotalWon)
	assertDec(t, "1179.36", f.wallet(t, "u1"))
	for _, b := range f.activeBets(t) {
		assertDec(t, "100.23", b.WinningAmount)
	}

	back, err := f.revert().Revert(ctx, RevertRequest{GameID: "g1", GameName: "KALYAN"})
	require.NoError(t, err)
	assertDec(t, "200.46", back.TotalDebited)
	assertDec(t, "978.9", f.wallet(t, "u1"))
	assertDec(t, "0", f.amountWon(t))
}
