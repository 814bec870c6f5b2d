package main

import (
	"context"
	"fmt"
	"time"

	"scf-community/governor/internal/api"
	"scf-community/governor/internal/auth"
	"scf-community/governor/internal/bot"
	"scf-community/governor/internal/common"
	"scf-community/governor/internal/config"
	"scf-community/governor/internal/db"
	"scf-community/governor/internal/db/repositories"
	"scf-community/governor/internal/gateway"
	"scf-community/governor/internal/ladder"
	"scf-community/governor/internal/logging"
	"scf-community/governor/internal/metrics"
	"scf-community/governor/internal/services"

	"github.com/bwmarrin/discordgo"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
)

const (
	memberRolesTTL      = 5 * time.Minute
	retryInitial        = 500 * time.Millisecond
	retryMaxElapsed     = 30 * time.Second
	notificationWorkers = 2
)

// app holds everything the subcommands share
type app struct {
	cfg     *config.Config
	ladder  *ladder.Ladder
	metrics *metrics.MetricsRegistry
	session *discordgo.Session
	redis   *redis.Client
	cache   common.CacheInterface
	queue   *common.RedisQueueService

	guilds  *repositories.GuildRepository
	history *repositories.GuildSyncHistoryRepo
	keys    *repositories.KeysRepo

	notifier    *services.AdminNotifier
	promotion   *services.PromotionService
	roster      *services.RosterService
	nominations *services.NominationService
	voting      *services.VotingService
	roleSync    *services.RoleSyncService
}

func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if err := logging.Init(cfg.AppEnv, cfg.LogLevel); err != nil {
		return nil, err
	}

	l, err := config.LoadLadder(cfg.LadderFile)
	if err != nil {
		return nil, err
	}

	logging.Info("Governor starting up",
		"environment", cfg.AppEnv,
		"cache_backend", cfg.CacheBackend,
		"timestamp", time.Now().Format(time.RFC3339),
	)

	dsn := cfg.PostgresDSN()
	if err := db.InitPostgres(dsn); err != nil {
		return nil, fmt.Errorf("failed to connect to postgres (sqlx): %w", err)
	}
	gdb, err := db.InitPostgresORM(dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Migrate(gdb); err != nil {
		return nil, err
	}

	a := &app{
		cfg:     cfg,
		ladder:  l,
		metrics: metrics.NewMetricsRegistry(prometheus.DefaultRegisterer),
	}

	if cfg.CacheBackend == "redis" {
		a.redis = common.NewRedisClient(cfg.RedisAddr(), cfg.RedisPassword, cfg.RedisDB)
		a.cache = common.NewRedisCacheService(a.redis)
		a.queue = common.NewRedisQueueService(a.redis)
	} else {
		a.cache = common.NewCacheService(memberRolesTTL, 10*time.Minute)
	}

	a.session, err = discordgo.New("Bot " + cfg.DiscordToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create discord session: %w", err)
	}
	gw := gateway.NewRetryingGateway(gateway.NewDiscordGateway(a.session), retryInitial, retryMaxElapsed)

	a.guilds = repositories.NewGuildRepository(gdb)
	a.history = repositories.NewGuildSyncHistoryRepo(gdb)
	a.keys = repositories.NewApiKeysRepo(db.DB)
	threads := repositories.NewVotingThreadRepository(gdb)
	userRoles := repositories.NewUserRoleRepository(gdb)
	syncRepo := repositories.NewSyncRepository(db.DB, cfg.MaxStatementParams)

	members := services.NewMemberRoleService(gw, a.guilds, a.cache, memberRolesTTL, a.metrics)

	// a nil *RedisQueueService must not end up inside the interface
	var queue services.NotificationQueue
	if a.queue != nil {
		queue = a.queue
	}
	a.notifier = services.NewAdminNotifier(gw, cfg.AdminChannelID, queue, a.metrics)

	a.promotion = services.NewPromotionService(gw, userRoles, members, l, a.metrics)
	a.roster = services.NewRosterService(a.guilds)
	a.nominations = services.NewNominationService(gw, threads, a.guilds, members, l, a.metrics, cfg.SessionTTL, cfg.Cooldown)
	a.voting = services.NewVotingService(gw, threads, services.NewVoteLedger(gdb), a.promotion, a.notifier, members, l, a.metrics, services.VotingOptions{
		SessionTTL:   cfg.SessionTTL,
		Cooldown:     cfg.Cooldown,
		LeaseTimeout: cfg.LeaseTimeout,
	})
	a.roleSync = services.NewRoleSyncService(gw, syncRepo, a.history, userRoles, members, l)

	return a, nil
}

func (a *app) newBot() *bot.Bot {
	dispatcher := bot.NewDispatcher(a.metrics)
	bot.NewHandlers(&bot.Services{
		Roster:      a.roster,
		Nominations: a.nominations,
		Voting:      a.voting,
	}, a.cfg.VerifyURL).Register(dispatcher)

	return bot.New(a.session, dispatcher, a.cfg.DiscordAppID)
}

func (a *app) apiDependencies() *api.Dependencies {
	var tokens *common.AdminTokenSigner
	if a.cfg.AdminTokenKey != "" {
		var burner common.TokenBurner
		if a.redis != nil {
			burner = common.NewRedisTokenBurner(a.redis)
		} else {
			burner = common.NewMemoryTokenBurner(common.NewCacheService(a.cfg.AdminTokenTTL, 10*time.Minute))
		}
		tokens = common.NewAdminTokenSigner([]byte(a.cfg.AdminTokenKey), burner)
	}

	deps := &api.Dependencies{
		Roles:    a.promotion,
		Votes:    a.voting,
		TokenTTL: a.cfg.AdminTokenTTL,
		Health: map[string]api.Pinger{
			"postgres": db.DB,
		},
	}
	if tokens != nil {
		deps.Tokens = tokens
		deps.Authn = auth.NewAuthenticator(a.cfg.AdminSharedSecret, a.keys, tokens)
	} else {
		deps.Authn = auth.NewAuthenticator(a.cfg.AdminSharedSecret, a.keys, nil)
	}
	if a.redis != nil {
		deps.Health["redis"] = common.RedisPinger{Client: a.redis}
	}
	return deps
}

func (a *app) Close() {
	if a.redis != nil {
		_ = a.redis.Close()
	}
	if db.DB != nil {
		_ = db.DB.Close()
	}
	_ = logging.Close()
}
