package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"lottoledger/internal/config"
	cronrunner "lottoledger/internal/cron"
	"lottoledger/internal/db"
	"lottoledger/internal/handler"
	"lottoledger/internal/identity"
	"lottoledger/internal/ledger"
	"lottoledger/internal/lock"
	"lottoledger/internal/logger"
	gormrepository "lottoledger/internal/repository/gorm"
	"lottoledger/internal/service"
)

func main() {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	cfgPath := os.Getenv("LEDGER_CONFIG")
	if cfgPath == "" {
		cfgPath = "config/config.yaml"
	}
	envOnly := false
	if raw := os.Getenv("LEDGER_ENV_ONLY"); raw != "" {
		envOnly = strings.EqualFold(raw, "true") || raw == "1"
	}

	cfg, err := config.Load(cfgPath, envOnly)
	if err != nil {
		panic(err)
	}

	log, err := logger.New(cfg.Log, cfg.App.Env)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	dbConn, err := db.Open(cfg.DB)
	if err != nil {
		log.Fatal("db open failed", zap.Error(err))
	}
	defer db.Close(dbConn)

	if err := db.SetTimezone(dbConn, cfg.DB.Timezone); err != nil {
		log.Warn("failed to set timezone", zap.Error(err))
	}
	if err := db.AutoMigrate(dbConn); err != nil {
		log.Fatal("auto-migrate failed", zap.Error(err))
	}

	cal, err := ledger.NewCalendar(cfg.Ledger.BusinessTimezone)
	if err != nil {
		log.Fatal("invalid business timezone", zap.String("tz", cfg.Ledger.BusinessTimezone), zap.Error(err))
	}

	store := gormrepository.New(dbConn.Gorm).WithTxRetries(cfg.DB.TxRetries)
	settingsSvc := &service.SystemSettingsService{Repo: store}
	if err := settingsSvc.EnsureDefaultSwitches(context.Background()); err != nil {
		log.Warn("init default job switches failed", zap.Error(err))
	}

	batch := cfg.Ledger.MaxBatchOps
	intakeSvc := &service.IntakeService{Repo: store, Calendar: cal, Logger: log}
	settleSvc := &service.SettlementService{Repo: store, Calendar: cal, Logger: log, Rates: cfg.Ledger.RateTable(), BatchOps: batch}
	revertSvc := &service.RevertService{Repo: store, Calendar: cal, Logger: log, BatchOps: batch, Concurrency: cfg.Ledger.RevertConcurrency}
	shiftSvc := &service.ShiftService{Repo: store, Logger: log, BatchOps: batch}
	archiveSvc := &service.ArchiveService{Repo: store, Calendar: cal, Logger: log, BatchOps: batch}
	paymentSvc := &service.PaymentService{Repo: store, Calendar: cal, Logger: log}
	resultSvc := &service.GameResultService{Repo: store, Logger: log, BatchOps: batch}

	if strings.EqualFold(cfg.App.Env, "dev") {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(cors.New(corsConfig(cfg.Server.CORSOrigins)))
	engine.Use(handler.AuditMiddleware(log))

	verifier := newVerifier(cfg.Identity, log)
	authOff := cfg.Identity.Disabled
	if authOff {
		log.Warn("identity verification disabled")
	}
	engine.Use((&identity.Middleware{
		Verifier: verifier,
		Disabled: authOff,
		Open:     []string{handler.WebhookPath},
		Logger:   log,
	}).Handler())

	if !authOff && len(cfg.Identity.OperatorSubjects) == 0 {
		log.Warn("identity.operator_subjects is empty; operator routes will refuse every caller")
	}
	operator := (&identity.OperatorGate{Subjects: cfg.Identity.OperatorSubjects, Disabled: authOff, Logger: log}).Handler()

	(&handler.HealthHandler{Store: store}).Register(engine)
	(&handler.BetsHandler{Intake: intakeSvc, Logger: log, SkipIdentity: authOff}).Register(engine)
	(&handler.SettlementHandler{Settlement: settleSvc, Revert: revertSvc, Shift: shiftSvc, Logger: log, Operator: operator}).Register(engine)
	(&handler.GamesHandler{Results: resultSvc, Logger: log, Operator: operator}).Register(engine)
	(&handler.ArchiveHandler{Archive: archiveSvc, Logger: log, SkipIdentity: authOff, Operator: operator}).Register(engine)
	(&handler.PaymentsHandler{Payments: paymentSvc, Logger: log, SkipIdentity: authOff}).Register(engine)
	(&handler.SystemSettingsHandler{Settings: settingsSvc, Operator: operator}).Register(engine)

	srv := &http.Server{
		Addr:              cfg.Server.HTTPAddr,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	locker, closeLocker := newLocker(cfg.Redis, log)
	defer closeLocker()
	jobs := &service.JobRunner{Flags: settingsSvc, Locker: locker, LockTTL: cfg.Jobs.LockTTL, Logger: log}

	cronRunner := cronrunner.New(log, ctx, cal.Location)
	if cfg.Cron.Enabled {
		register := func(name, spec, switchKey string, fn func(ctx context.Context) error) {
			if strings.TrimSpace(spec) == "" {
				return
			}
			_, err := cronRunner.Add(name, spec, func(ctx context.Context) {
				_, _ = jobs.Run(ctx, name, switchKey, fn)
			})
			if err != nil {
				log.Warn("cron register failed", zap.String("job", name), zap.Error(err))
			}
		}
		register("shift", cfg.Cron.Shift, service.JobShift, func(ctx context.Context) error {
			_, err := shiftSvc.Shift(ctx, service.ShiftRequest{})
			return err
		})
		register("archive", cfg.Cron.Archive, service.JobArchive, func(ctx context.Context) error {
			_, err := archiveSvc.MigrateAll(ctx, "")
			return err
		})
		register("clear_results", cfg.Cron.ClearResults, service.JobClearResults, func(ctx context.Context) error {
			_, err := resultSvc.ClearResults(ctx)
			return err
		})
	}
	cronRunner.Start()
	defer cronRunner.Stop()

	errCh := make(chan error, 1)
	go func() {
		log.Info("http server starting", zap.String("addr", cfg.Server.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown requested")
	case err := <-errCh:
		log.Error("server error", zap.Error(err))
	}

	timeout := cfg.Server.ShutdownTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
}

func corsConfig(origins []string) cors.Config {
	c := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}
	for _, o := range origins {
		if strings.TrimSpace(o) == "*" {
			c.AllowAllOrigins = true
			return c
		}
	}
	if len(origins) == 0 {
		c.AllowAllOrigins = true
		return c
	}
	c.AllowOrigins = origins
	c.AllowCredentials = true
	return c
}

func newVerifier(cfg config.IdentityConfig, log *zap.Logger) identity.Verifier {
	switch strings.ToLower(strings.TrimSpace(cfg.Mode)) {
	case "remote":
		return &identity.RemoteVerifier{
			BaseURL: cfg.RemoteBaseURL,
			HTTP:    &http.Client{Timeout: cfg.RemoteTimeout},
		}
	default:
		if cfg.JWTSecret == "" && !cfg.Disabled {
			log.Warn("identity.jwt_secret is empty; every bearer token will be rejected")
		}
		return identity.JWTVerifier{Secret: []byte(cfg.JWTSecret), Issuer: cfg.JWTIssuer}
	}
}

// newLocker uses redis when configured so that only one replica runs each job.
func newLocker(cfg config.RedisConfig, log *zap.Logger) (lock.Locker, func()) {
	if strings.TrimSpace(cfg.Addr) == "" {
		return lock.NewMemoryLocker(), func() {}
	}
	rl := lock.NewRedisLocker(&redis.Options{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB})
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := rl.Client.Ping(ctx).Err(); err != nil {
		log.Warn("redis ping failed; jobs will retry the lock each run", zap.String("addr", cfg.Addr), zap.Error(err))
	}
	return rl, func() { _ = rl.Close() }
}
