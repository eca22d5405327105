package main

import (
	"context"
	"fmt"

	"invoicelink/internal/caching"
	"invoicelink/internal/config"
	"invoicelink/internal/handlers"
	"invoicelink/internal/logger"
	"invoicelink/internal/metrics"
	"invoicelink/internal/repositories"
	"invoicelink/internal/services"
	"invoicelink/pkg/database"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"
)

// app holds the wired services shared by every command.
type app struct {
	cfg      *config.Config
	log      zerolog.Logger
	clock    clockwork.Clock
	pool     *pgxpool.Pool
	cache    caching.CacheService
	archive  services.InvoiceArchive
	registry *prometheus.Registry

	audit     services.AuditLogsService
	accounts  services.AccountService
	customers services.CustomerService
	invoices  services.InvoiceService
	auth      services.AuthService
}

func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	a := &app{
		cfg:      cfg,
		log:      logger.WithComponent("app"),
		clock:    clockwork.NewRealClock(),
		registry: prometheus.NewRegistry(),
	}
	a.registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(a.registry)

	var (
		accountRepo  repositories.AccountRepository
		customerRepo repositories.CustomerRepository
		invoiceRepo  repositories.InvoiceRepository
		auditRepo    repositories.AuditLogsRepository
	)
	if cfg.DatabaseURL != "" {
		pool, err := database.NewPool(ctx, cfg.DatabaseURL, logger.WithComponent("database"))
		if err != nil {
			return nil, err
		}
		a.pool = pool
		if cfg.MigrateOnStart {
			if err := database.Migrate(ctx, pool); err != nil {
				pool.Close()
				return nil, err
			}
		}
		accountRepo = repositories.NewAccountRepo(pool)
		customerRepo = repositories.NewCustomerRepo(pool)
		invoiceRepo = repositories.NewInvoiceRepo(pool)
		auditRepo = repositories.NewAuditLogsRepo(pool)
	} else {
		a.log.Warn().Msg("DATABASE_URL not set, data is kept in memory and lost on exit")
		accountRepo = repositories.NewMemoryAccountRepo()
		customerRepo = repositories.NewMemoryCustomerRepo()
		invoiceRepo = repositories.NewMemoryInvoiceRepo()
		auditRepo = repositories.NewMemoryAuditLogsRepo()
	}

	if cfg.RedisAddr != "" {
		a.cache = caching.NewRedisCacheService(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, logger.WithComponent("cache"))
	} else {
		a.cache = caching.NewMemoryCacheService(a.clock)
	}

	a.archive = services.NewNoopArchive()
	if cfg.MinioEndpoint != "" {
		archive, err := services.NewMinioArchive(cfg.MinioEndpoint, cfg.MinioAccessKey, cfg.MinioSecretKey, cfg.MinioUseSSL, cfg.MinioBucket)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("failed to initialize MinIO: %w", err)
		}
		if err := archive.EnsureBucketExists(ctx); err != nil {
			a.log.Warn().Err(err).Str("bucket", cfg.MinioBucket).Msg("invoice archive bucket unavailable")
		}
		a.archive = archive
	}

	a.audit = services.NewAuditLogsService(auditRepo, a.clock)
	a.accounts = services.NewAccountService(accountRepo, a.audit, a.clock, m, logger.WithComponent("accounts"), cfg.AdminEmail)
	a.customers = services.NewCustomerService(customerRepo, a.clock)
	a.invoices = services.NewInvoiceService(invoiceRepo, customerRepo, a.archive, a.clock, m, logger.WithComponent("invoices"))

	auth, err := services.NewAuthService(accountRepo, a.cache, a.clock, m, logger.WithComponent("auth"), services.AuthOptions{
		Secret:        cfg.JWTSecret,
		JWKSURL:       cfg.JWKSURL,
		SessionTTL:    cfg.SessionTTL,
		AdminEmail:    cfg.AdminEmail,
		LoginAttempts: cfg.LoginAttempts,
		LoginWindow:   cfg.LoginWindow,
	})
	if err != nil {
		a.Close()
		return nil, err
	}
	a.auth = auth

	if cfg.AdminPassword != "" {
		if _, err := a.accounts.EnsureAdmin(ctx, cfg.AdminEmail, cfg.AdminPassword); err != nil {
			a.Close()
			return nil, err
		}
	} else {
		a.log.Warn().Str("email", cfg.AdminEmail).Msg("ADMIN_PASSWORD not set, admin account is not provisioned")
	}
	return a, nil
}

func (a *app) handlers() *handlers.Set {
	// A nil *pgxpool.Pool must not become a non-nil Pinger.
	var db handlers.Pinger
	if a.pool != nil {
		db = a.pool
	}
	return &handlers.Set{
		Auth:      handlers.NewAuthHandlers(a.accounts, a.auth, a.clock),
		Admin:     handlers.NewAdminHandlers(a.accounts, a.clock),
		AuditLogs: handlers.NewAuditLogsHandlers(a.audit),
		Customers: handlers.NewCustomerHandlers(a.customers),
		Invoices:  handlers.NewInvoiceHandlers(a.invoices),
		Dashboard: handlers.NewDashboardHandlers(a.invoices, a.customers, a.clock),
		Health:    handlers.NewHealthHandlers(db, a.cache, a.archive, a.clock, version),
	}
}

func (a *app) Close() {
	if a.pool != nil {
		a.pool.Close()
	}
}
