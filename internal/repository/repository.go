package repository

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"lottoledger/internal/models"
)

// WalletRepository owns user balances. Wallet writes only happen through *Tx methods.
type WalletRepository interface {
	InTx(ctx context.Context, fn func(tx *gorm.DB) error) error
	GetUser(ctx context.Context, id string) (*models.User, error)
	// LockUserTx returns nil when the user does not exist.
	LockUserTx(ctx context.Context, tx *gorm.DB, id string) (*models.User, error)
	SetWalletTx(ctx context.Context, tx *gorm.DB, id string, wallet decimal.Decimal) error
}

type GameRepository interface {
	GetGame(ctx context.Context, id string) (*models.Game, error)
	SetGameResult(ctx context.Context, id string, result string) error
	ListGameIDsAfter(ctx context.Context, afterID string, limit int) ([]string, error)
	ClearGameResultsTx(ctx context.Context, tx *gorm.DB, ids []string) (int64, error)
}

type BetRepository interface {
	InsertBetsTx(ctx context.Context, tx *gorm.DB, bets []models.Bet) error
	ListBets(ctx context.Context, table BetTable, q BetQuery) ([]models.Bet, error)
	// MarkBetSettledTx reports false when the bet was no longer pending.
	MarkBetSettledTx(ctx context.Context, tx *gorm.DB, id string, out SettleOutcome) (bool, error)
	// ResetActiveBetTx reports false when the bet was no longer complete. The
	// returned amount is the credited winnings now owed back (recorded as DebitDue).
	ResetActiveBetTx(ctx context.Context, tx *gorm.DB, id string) (bool, decimal.Decimal, error)
	RestoreCompletedBetTx(ctx context.Context, tx *gorm.DB, id string) (bool, decimal.Decimal, error)
	// ShiftBetTx only moves complete bets whose wallet effect is applied.
	ShiftBetTx(ctx context.Context, tx *gorm.DB, bet models.Bet) (bool, error)
	// ReconcileBetsTx applies the outstanding wallet effect of the given active
	// bets: uncredited winnings count positive, DebitDue negative. Both markers are
	// cleared and the net per user is returned for the caller to apply.
	ReconcileBetsTx(ctx context.Context, tx *gorm.DB, ids []string) (map[string]decimal.Decimal, error)
	IncrementChart(ctx context.Context, cell ChartCell, amount decimal.Decimal) error
}

type MoneyRepository interface {
	IncrementDailyMoneyTx(ctx context.Context, tx *gorm.DB, dateID string, field DailyMoneyField, delta decimal.Decimal) error
	GetDailyMoney(ctx context.Context, dateID string) (*models.DailyMoney, error)
	InsertGatewayDeposit(ctx context.Context, item *models.GatewayDeposit) error
	GetGatewayDepositByClientTxnIDTx(ctx context.Context, tx *gorm.DB, clientTxnID string) (*models.GatewayDeposit, error)
	// CompleteGatewayDepositTx only moves pending deposits; false means another delivery got there first.
	CompleteGatewayDepositTx(ctx context.Context, tx *gorm.DB, id string, upd GatewayDepositUpdate) (bool, error)
}

type ArchiveRepository interface {
	ListArchiveCandidates(ctx context.Context, kind ArchiveKind, afterID string, limit int) ([]ArchiveItem, error)
	CommitArchiveChunkTx(ctx context.Context, tx *gorm.DB, kind ArchiveKind, archiveDate string, items []ArchiveItem, at time.Time) (ArchiveCounts, error)
	GetArchivePartition(ctx context.Context, kind ArchiveKind, archiveDate string) (*models.ArchivePartition, error)
	ListUserHistory(ctx context.Context, params ListUserHistoryParams) ([]models.UserHistory, error)
}

type SettingsRepository interface {
	GetSystemSettingByKey(ctx context.Context, key string) (*models.SystemSetting, error)
	UpsertSystemSetting(ctx context.Context, item *models.SystemSetting) error
	ListSystemSettings(ctx context.Context, params ListSystemSettingsParams) ([]models.SystemSetting, error)
}

// Repository is everything the ledger services need from the store.
type Repository interface {
	WalletRepository
	GameRepository
	BetRepository
	MoneyRepository
	ArchiveRepository
	SettingsRepository
	Ping(ctx context.Context) error
}

type BetTable string

const (
	ActiveBets    BetTable = "active"
	CompletedBets BetTable = "completed"
)

// BetQuery selects an id-ordered page of bets. Empty fields do not filter.
type BetQuery struct {
	GameID   string
	GameName string
	Status   string
	Side     string
	Codes    []string
	// Owed keeps bets whose wallet effect is outstanding.
	Owed bool
	// Reconciled drops bets whose wallet effect is outstanding.
	Reconciled bool
	AfterID    string
	Limit      int
}

type SettleOutcome struct {
	IsWinner      bool
	WinningAmount decimal.Decimal
	Window        string
	SettledAt     time.Time
}

type ChartCell struct {
	DateID   string
	GameName string
	Gamecode string
	Number   string
}

type DailyMoneyField string

const (
	DailyGatewayDeposit DailyMoneyField = "gateway_deposit"
	DailyAmountWon      DailyMoneyField = "amount_won"
)

type GatewayDepositUpdate struct {
	Status       string
	UPITxnID     string
	PostBalance  *decimal.Decimal
	ReceivedDate string
	ReceivedTime string
}

type ArchiveKind string

const (
	ArchiveBets              ArchiveKind = "bets"
	ArchiveWithdrawals       ArchiveKind = "withdrawals"
	ArchiveGatewayDeposits   ArchiveKind = "gateway_deposits"
	ArchiveManualDeposits    ArchiveKind = "manual_deposits"
	ArchiveManualWithdrawals ArchiveKind = "manual_withdrawals"
)

// ArchiveSpec describes how one kind is archived.
type ArchiveSpec struct {
	Kind ArchiveKind
	// HistoryKind names the per-user projection; empty means no projection.
	HistoryKind string
}

// OpsPerRecord counts archive write, optional history write and source delete.
func (s ArchiveSpec) OpsPerRecord() int {
	if s.HistoryKind == "" {
		return 2
	}
	return 3
}

var ArchiveSpecs = []ArchiveSpec{
	{Kind: ArchiveBets, HistoryKind: "userbets"},
	{Kind: ArchiveWithdrawals, HistoryKind: "userwithdrawal"},
	{Kind: ArchiveGatewayDeposits, HistoryKind: "addmoneybygetway"},
	{Kind: ArchiveManualDeposits},
	{Kind: ArchiveManualWithdrawals},
}

func LookupArchiveSpec(kind string) (ArchiveSpec, bool) {
	for _, s := range ArchiveSpecs {
		if string(s.Kind) == kind {
			return s, true
		}
	}
	return ArchiveSpec{}, false
}

// ArchiveItem is one source row ready to archive.
type ArchiveItem struct {
	ID      string
	OwnerID string
	Payload []byte
}

type ArchiveCounts struct {
	Scanned       int64
	Archived      int64
	WrittenToUser int64
	Deleted       int64
	MissingOwner  int64
}

type ListUserHistoryParams struct {
	UserID string
	Kind   string
	Limit  int
	Offset int
}

type ListSystemSettingsParams struct {
	Limit  int
	Offset int
	Prefix *string
}
