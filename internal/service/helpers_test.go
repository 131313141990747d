package service

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"lottoledger/internal/config"
	"lottoledger/internal/db"
	"lottoledger/internal/ledger"
	"lottoledger/internal/models"
	gormrepository "lottoledger/internal/repository/gorm"
)

var ist = time.FixedZone("IST", 5*3600+1800)

var testRates = map[string]int{"SD": 95, "JD": 950, "SP": 1500, "DP": 3000, "TP": 7000, "HS": 10000, "FS": 100000}

type fixture struct {
	store *gormrepository.Store
	db    *gorm.DB
	cal   *ledger.Calendar
	now   time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dsn := "file:" + filepath.Join(t.TempDir(), "ledger.db") + "?_busy_timeout=5000&_txlock=immediate&_journal_mode=WAL"
	conn, err := db.Open(config.DBConfig{Driver: db.DriverSQLite, DSN: dsn})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close(conn) })
	require.NoError(t, db.AutoMigrate(conn))

	f := &fixture{
		store: gormrepository.New(conn.Gorm),
		db:    conn.Gorm,
		now:   time.Date(2026, 3, 10, 8, 0, 0, 0, ist),
	}
	f.cal = &ledger.Calendar{Location: ist, Clock: func() time.Time { return f.now }}
	return f
}

func (f *fixture) intake() *IntakeService {
	return &IntakeService{Repo: f.store, Calendar: f.cal}
}

func (f *fixture) settlement() *SettlementService {
	return &SettlementService{Repo: f.store, Calendar: f.cal, Rates: testRates}
}

func (f *fixture) revert() *RevertService {
	return &RevertService{Repo: f.store, Calendar: f.cal, BatchOps: 2, Concurrency: 4}
}

func (f *fixture) seedUser(t *testing.T, id, wallet string) {
	t.Helper()
	require.NoError(t, f.db.Create(&models.User{ID: id, Name: "user " + id, Phone: "98" + id, Wallet: dec(wallet)}).Error)
}

func (f *fixture) seedGame(t *testing.T, id, name string) {
	t.Helper()
	require.NoError(t, f.db.Create(&models.Game{ID: id, Name: name, OpenTime: "09:00 AM", CloseTime: "05:00 PM", Result: models.ClearedResult}).Error)
}

func (f *fixture) wallet(t *testing.T, id string) decimal.Decimal {
	t.Helper()
	var u models.User
	require.NoError(t, f.db.Where("id = ?", id).Take(&u).Error)
	return u.Wallet
}

func (f *fixture) activeBets(t *testing.T) []models.Bet {
	t.Helper()
	var rows []models.Bet
	require.NoError(t, f.db.Order("id asc").Find(&rows).Error)
	return rows
}

func (f *fixture) amountWon(t *testing.T) decimal.Decimal {
	t.Helper()
	var row models.DailyMoney
	err := f.db.Where("date_id = ?", f.cal.CurrentBusinessDate()).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return decimal.Zero
	}
	require.NoError(t, err)
	return row.AmountWon
}

func dec(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func assertDec(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.Truef(t, dec(want).Equal(got), "want %s got %s", want, got.String())
}

func sdBet(id, user, number string, close bool) models.Bet {
	return models.Bet{
		ID: id, UserID: user, GameID: "g1", GameName: "KALYAN", Gamecode: "SD",
		Open: !close, Close: close, SDNumber: number,
		Amount: dec("10"), PreBalance: dec("10"), PostBalance: dec("0"),
		ResultStatus: models.BetStatusPending, WinningAmount: decimal.Zero,
	}
}
