package main

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/biyonik/ticket-purchase-api/internal/config"
	"github.com/biyonik/ticket-purchase-api/internal/listeners"
	"github.com/biyonik/ticket-purchase-api/internal/metrics"
	"github.com/biyonik/ticket-purchase-api/internal/repositories"
	"github.com/biyonik/ticket-purchase-api/internal/services"
	"github.com/biyonik/ticket-purchase-api/pkg/cache"
	"github.com/biyonik/ticket-purchase-api/pkg/database"
	"github.com/biyonik/ticket-purchase-api/pkg/events"
	"github.com/biyonik/ticket-purchase-api/pkg/logger"
)

// app, komutların paylaştığı bağlantılar.
type app struct {
	cfg     *config.Config
	log     *logger.Logger
	db      *sql.DB
	grammar database.Grammar
	redis   *redis.Client

	// registry, ticketService ile kurulan kontrol metrikleri.
	registry *prometheus.Registry

	closers []func()
}

type appOpener func(cmd *cobra.Command) (*app, error)

func openApp(ctx context.Context, envFiles []string) (*app, error) {
	if err := config.LoadEnvFile(envFiles...); err != nil {
		return nil, err
	}

	// Config okunurken oluşan uyarılar için geçici logger; gerçek mod ve
	// seviye config'ten gelir.
	cfg := config.Load(logger.NewNop())
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	log, err := logger.NewWithLevel(cfg.Log.Mode, cfg.Log.Level)
	if err != nil {
		return nil, err
	}
	a := &app{cfg: cfg, log: log}
	a.closers = append(a.closers, log.Sync)

	grammar, err := database.GrammarFor(cfg.DB.Driver)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.grammar = grammar

	opts := database.DefaultOptions(cfg.DB.Driver, cfg.DB.DSN)
	opts.MaxOpenConns = cfg.DB.MaxOpenConns
	opts.MaxIdleConns = cfg.DB.MaxIdleConns
	opts.ConnMaxLifetime = cfg.DB.ConnMaxLifetime

	db, err := database.Connect(ctx, opts, log)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.db = db
	a.closers = append(a.closers, func() { _ = db.Close() })

	if cfg.UsesRedis() {
		rc := database.DefaultRedisConfig()
		rc.Host = cfg.Redis.Host
		rc.Port = cfg.Redis.Port
		rc.Password = cfg.Redis.Password
		rc.DB = cfg.Redis.DB

		client, err := database.NewRedisClient(ctx, rc, log)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.redis = client
		a.closers = append(a.closers, func() { _ = client.Close() })
	}

	return a, nil
}

// Close, açılan kaynakları ters sırada kapatır.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

// ticketService, cache, event listener'ları ve metrikleriyle birlikte
// TicketService kurar.
func (a *app) ticketService() (*services.TicketService, error) {
	c, err := cache.New(a.cfg.Cache.Driver, a.redis, a.cfg.Cache.Prefix, a.log)
	if err != nil {
		return nil, err
	}
	if mc, ok := c.(*cache.MemoryCache); ok {
		a.closers = append(a.closers, mc.Close)
	}

	dispatcher := events.NewDispatcher(a.log)

	ls := []events.Listener{listeners.NewCacheInvalidator(c), listeners.NewAuditLogger(a.log)}
	if a.cfg.Events.RedisChannel != "" {
		ls = append(ls, listeners.NewRedisPublisher(a.redis, a.cfg.Events.RedisChannel))
	}
	listeners.Register(dispatcher, ls...)

	repo := repositories.NewPurchaseRepository(a.db, a.grammar)
	purchases := services.NewPurchaseService(repo, dispatcher, a.log)
	a.registry = prometheus.NewRegistry()
	m := metrics.NewTicketMetrics(a.registry)

	return services.NewTicketService(repo, purchases, dispatcher, c, a.cfg.Cache.TTL, m, a.log), nil
}

// pushMetrics, kontrol metriklerini yapılandırılmış Pushgateway'e gönderir.
// Gönderim hatası sadece loglanır; bilet işlemi o noktada tamamlanmıştır.
func (a *app) pushMetrics(ctx context.Context) {
	if a.cfg.Metrics.PushgatewayURL == "" || a.registry == nil {
		return
	}
	err := push.New(a.cfg.Metrics.PushgatewayURL, a.cfg.Metrics.Job).
		Gatherer(a.registry).
		AddContext(ctx)
	if err != nil {
		a.log.Warn("metrics push failed", "url", a.cfg.Metrics.PushgatewayURL, "job", a.cfg.Metrics.Job, "error", err)
		return
	}
	a.log.Debug("metrics pushed", "url", a.cfg.Metrics.PushgatewayURL, "job", a.cfg.Metrics.Job)
}
