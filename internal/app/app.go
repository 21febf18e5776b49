package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/SafeDevelopers/fantabuild-sub001/internal/config"
	"github.com/SafeDevelopers/fantabuild-sub001/internal/db"
	"github.com/SafeDevelopers/fantabuild-sub001/internal/http/api/front"
	internalsettings "github.com/SafeDevelopers/fantabuild-sub001/internal/settings"
	"github.com/SafeDevelopers/fantabuild-sub001/internal/usagelimit"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// RunMigrate opens the database, applies migrations, and verifies the
// result. Connectivity and execution failures abort with the underlying
// error code and detail; verification failures are reported per check but do
// not stop the remaining checks.
func RunMigrate(ctx context.Context, cfg config.AppConfig) error {
	configPath := config.ResolveConfigPath(cfg.ConfigPath)
	dsn, errDSN := config.LoadDatabaseDSN(configPath)
	if errDSN != nil {
		return errDSN
	}

	log.Info("connecting to database...")
	conn, errOpen := db.Open(dsn)
	if errOpen != nil {
		log.Error(db.DescribeError(errOpen))
		printConnectivityHints()
		return errOpen
	}
	defer closePool(conn)

	if errPing := pingDatabase(ctx, conn); errPing != nil {
		log.Error(db.DescribeError(errPing))
		printConnectivityHints()
		return errPing
	}
	log.Info("database connection established")

	log.Info("applying migrations...")
	if errMigrate := db.Migrate(conn); errMigrate != nil {
		log.Error(db.DescribeError(errMigrate))
		printMigrateHints(errMigrate)
		return errMigrate
	}
	log.Info("migrations applied")

	report, errVerify := db.Verify(conn)
	for _, check := range report.Checks {
		if check.OK {
			log.WithField("check", check.Name).Info("verified")
		} else {
			log.WithField("check", check.Name).Warn("verification failed")
		}
	}
	if errVerify != nil {
		log.Error(db.DescribeError(errVerify))
		return errVerify
	}

	log.WithFields(log.Fields{
		"total_users":        report.Stats.TotalUsers,
		"users_with_plan":    report.Stats.UsersWithPlan,
		"users_with_credits": report.Stats.UsersWithCredits,
	}).Info("user statistics")

	if !report.AllPassed() {
		log.Warn("migration finished with failed verification checks")
	} else {
		log.Info("migration completed successfully")
	}
	return nil
}

// RunServer applies migrations and boots the HTTP API server.
func RunServer(ctx context.Context, cfg config.AppConfig, port int) error {
	configPath := config.ResolveConfigPath(cfg.ConfigPath)
	dsn, errDSN := config.LoadDatabaseDSN(configPath)
	if errDSN != nil {
		return errDSN
	}

	conn, errOpen := db.Open(dsn)
	if errOpen != nil {
		log.Error(db.DescribeError(errOpen))
		printConnectivityHints()
		return errOpen
	}
	defer closePool(conn)

	if errMigrate := db.Migrate(conn); errMigrate != nil {
		log.Error(db.DescribeError(errMigrate))
		printMigrateHints(errMigrate)
		return errMigrate
	}

	jwtCfg, _ := config.LoadJWTConfig(configPath)
	limiter := usagelimit.NewManager(limiterSettingsProvider(conn), nil)

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())
	front.RegisterRoutes(engine, conn, jwtCfg, limiter)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.WithField("addr", server.Addr).Info("server listening")
		errCh <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
		return nil
	case errServe := <-errCh:
		if errors.Is(errServe, http.ErrServerClosed) {
			return nil
		}
		return errServe
	}
}

// limiterSettingsProvider snapshots the usage limiter settings from the DB.
func limiterSettingsProvider(conn *gorm.DB) usagelimit.SettingsProvider {
	return func() usagelimit.SettingsConfig {
		return usagelimit.SettingsConfig{
			RedisEnabled:  db.BoolSetting(conn, internalsettings.UsageLimitRedisEnabledKey, false),
			RedisAddr:     db.StringSetting(conn, internalsettings.UsageLimitRedisAddrKey, ""),
			RedisPassword: db.StringSetting(conn, internalsettings.UsageLimitRedisPasswordKey, ""),
			RedisPrefix:   db.StringSetting(conn, internalsettings.UsageLimitRedisPrefixKey, internalsettings.DefaultUsageLimitRedisPrefix),
			RedisDB:       db.IntSetting(conn, internalsettings.UsageLimitRedisDBKey, 0),
		}
	}
}

// pingDatabase confirms the pool can reach the server.
func pingDatabase(ctx context.Context, conn *gorm.DB) error {
	sqlDB, errDB := conn.DB()
	if errDB != nil {
		return errDB
	}
	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return sqlDB.PingContext(pingCtx)
}

// closePool releases the connection pool, success or failure.
func closePool(conn *gorm.DB) {
	sqlDB, errDB := conn.DB()
	if errDB != nil {
		return
	}
	_ = sqlDB.Close()
}

func printConnectivityHints() {
	log.Warn("check that the database is running and reachable (DB_HOST/DB_PORT)")
	log.Warn("check DB_USER/DB_PASSWORD credentials and DB_SSL setting")
}

func printExecutionHints() {
	log.Warn("check that the base schema exists (run migrate on a fresh database first)")
	log.Warn("check that the database user has ALTER/CREATE privileges")
}

// printMigrateHints picks the hint set by failure class: connections can drop
// mid-migration too, and those failures want the connectivity hints.
func printMigrateHints(err error) {
	if db.IsConnectivityError(err) {
		printConnectivityHints()
		return
	}
	printExecutionHints()
}
