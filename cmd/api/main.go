package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/mecajames/NewMECAV2-sub005/internal/adapters/httpapi"
	memidempotency "github.com/mecajames/NewMECAV2-sub005/internal/adapters/memory/idempotency"
	memmembershipstore "github.com/mecajames/NewMECAV2-sub005/internal/adapters/memory/membershipstore"
	memtypes "github.com/mecajames/NewMECAV2-sub005/internal/adapters/memory/membershiptypes"
	memprofilestore "github.com/mecajames/NewMECAV2-sub005/internal/adapters/memory/profilestore"
	postgres "github.com/mecajames/NewMECAV2-sub005/internal/adapters/postgres"
	pgidempotency "github.com/mecajames/NewMECAV2-sub005/internal/adapters/postgres/idempotency"
	pgmembershipstore "github.com/mecajames/NewMECAV2-sub005/internal/adapters/postgres/membershipstore"
	pgtypes "github.com/mecajames/NewMECAV2-sub005/internal/adapters/postgres/membershiptypes"
	pgprofilestore "github.com/mecajames/NewMECAV2-sub005/internal/adapters/postgres/profilestore"
	"github.com/mecajames/NewMECAV2-sub005/internal/app/memberships"
	"github.com/mecajames/NewMECAV2-sub005/internal/app/wizard"
	platformclock "github.com/mecajames/NewMECAV2-sub005/internal/platform/clock"
	"github.com/mecajames/NewMECAV2-sub005/internal/platform/config"
	"github.com/mecajames/NewMECAV2-sub005/internal/platform/logging"
	"github.com/mecajames/NewMECAV2-sub005/internal/platform/mailer"
	idempotencyport "github.com/mecajames/NewMECAV2-sub005/internal/ports/out/idempotency"
	membershipstoreport "github.com/mecajames/NewMECAV2-sub005/internal/ports/out/membershipstore"
	membershiptypesport "github.com/mecajames/NewMECAV2-sub005/internal/ports/out/membershiptypes"
	profilestoreport "github.com/mecajames/NewMECAV2-sub005/internal/ports/out/profilestore"
)

func main() {
	if _, err := config.LoadDotEnv(".env"); err != nil {
		logrus.WithError(err).Fatal("load .env")
	}
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("invalid config")
	}
	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		logrus.WithError(err).Fatal("invalid logging config")
	}
	log := logrus.NewEntry(logger)

	clk := platformclock.NewSystemClock()

	var (
		profiles  profilestoreport.Repository
		members   membershipstoreport.Repository
		types     membershiptypesport.Catalog
		idemStore idempotencyport.Store
		cleanup   func()
	)

	switch cfg.StorageBackend {
	case "postgres":
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		pool, err := postgres.NewPool(ctx, cfg.DatabaseURL, postgres.PoolOptions{})
		if err != nil {
			cancel()
			log.WithError(err).Fatal("invalid postgres config")
		}
		if err := postgres.Migrate(ctx, pool); err != nil {
			cancel()
			pool.Close()
			log.WithError(err).Fatal("migrate")
		}
		cancel()
		cleanup = pool.Close

		profiles = pgprofilestore.NewRepo(pool, clk)
		members = pgmembershipstore.NewRepo(pool, clk, cfg.MaxSecondaries)
		types = pgtypes.NewCatalog(pool)
		pgIdem := pgidempotency.NewStore(pool, clk, cfg.IdempotencyTTL)
		if n, err := pgIdem.Purge(context.Background()); err != nil {
			log.WithError(err).Warn("purge idempotency records")
		} else if n > 0 {
			log.WithField("purged", n).Info("expired idempotency records removed")
		}
		idemStore = pgIdem
	default:
		memProfiles := memprofilestore.NewRepo(clk)
		memTypes := memtypes.NewDefaultCatalog()
		profiles = memProfiles
		types = memTypes
		members = memmembershipstore.NewRepo(clk, memTypes, memProfiles, memmembershipstore.Options{
			MaxSecondaries: cfg.MaxSecondaries,
		})
		idemStore = memidempotency.NewStore(clk, cfg.IdempotencyTTL)
	}

	if cleanup != nil {
		defer cleanup()
	}

	policy := wizard.Policy{MinPasswordStrength: cfg.MinPasswordStrength}
	api := httpapi.NewServer(httpapi.Deps{
		Memberships:     memberships.NewService(profiles, members, clk),
		Types:           types,
		Profiles:        profiles,
		MembershipStore: members,
		Search:          wizard.NewMasterSearch(profiles, members, cfg.MasterSearchLimit),
		Submitter:       wizard.NewSubmitter(profiles, members, mailer.NewStatic(cfg.EmailServiceConfigured), policy),
		Policy:          policy,
		Idem:            idemStore,
		Clock:           clk,
		SearchDebounce:  cfg.MasterSearchDebounce,
	})
	defer api.Close()

	handler := httpapi.NewRouter(api, httpapi.RouterOptions{
		Logger:          logger,
		DefaultOperator: cfg.DefaultOperator,
		MetricsPath:     cfg.MetricsPath,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	// Graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		log.WithFields(logrus.Fields{"port": cfg.Port, "storage": cfg.StorageBackend}).Info("api listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Error("listen")
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")
	// Release pending master searches before draining connections.
	api.Close()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("shutdown")
	}
}
