package app

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/Chimarrao/GuiaDeFilmes.com/internal/config"
	"github.com/Chimarrao/GuiaDeFilmes.com/internal/domain"
	memcache "github.com/Chimarrao/GuiaDeFilmes.com/internal/infra/cache/memory"
	redisx "github.com/Chimarrao/GuiaDeFilmes.com/internal/infra/cache/redis"
	"github.com/Chimarrao/GuiaDeFilmes.com/internal/infra/database/postgres"
	s3storage "github.com/Chimarrao/GuiaDeFilmes.com/internal/infra/storage/s3"
	"github.com/Chimarrao/GuiaDeFilmes.com/internal/listing"
	"github.com/Chimarrao/GuiaDeFilmes.com/internal/transport/web"
)

type App struct {
	config   *config.Config
	log      *log.Logger
	repo     *postgres.PGRepo
	cache    domain.Cache
	archive  *s3storage.Storage // nil, если S3 не настроен
	resolver *listing.Resolver
	cycle    *listing.Cycle
	server   *web.Server
}

// Build поднимает конфиг, Postgres, кеш, архив и движок листингов.
// Логи пишутся в logOut: для CLI это stderr, чтобы stdout оставался под отчёт.
func Build(ctx context.Context, logOut io.Writer) (*App, error) {
	base := log.New(logOut, "[app] ", log.LstdFlags)
	sub := func(name string) *log.Logger {
		return log.New(base.Writer(), base.Prefix()+"["+name+"] ", base.Flags())
	}

	cfg, err := config.LoadFromEnv()
	if err != nil {
		return nil, fmt.Errorf("failed load config: %w", err)
	}
	base.Printf("\n  configuration: %s-------------------", cfg)

	base.Println("init PostgreSQL")
	pgRepo, err := postgres.NewPGRepo(ctx, sub("postgres"), cfg.GetDSN(), cfg.DBScheme)
	if err != nil {
		return nil, fmt.Errorf("failed init postgres: %w", err)
	}
	base.Println("PostgreSQL is initialized")

	cache, err := buildCache(ctx, cfg, base, sub("cache"))
	if err != nil {
		pgRepo.Close()
		return nil, err
	}

	var archive *s3storage.Storage
	if cfg.ArchiveEnabled() {
		base.Println("init S3 report archive")
		archive, err = s3storage.New(s3storage.Config{
			Endpoint:  cfg.S3Endpoint,
			Region:    cfg.S3Region,
			Bucket:    cfg.S3Bucket,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
			UseSSL:    cfg.S3UseSSL,
			PathStyle: cfg.S3PathStyle,
		}, sub("s3"))
		if err != nil {
			pgRepo.Close()
			cache.Close()
			return nil, fmt.Errorf("failed init s3: %w", err)
		}
	}

	catalog := domain.DefaultCatalog()
	policy := listing.Policy{ListTTL: cfg.ListTTL, CountTTL: cfg.CountTTL, Window: cfg.WarmWindow}
	warmer := listing.NewWarmer(pgRepo, pgRepo, cache, catalog, policy, sub("warmup"))
	swapper := listing.NewSwapper(cache, sub("swap"))
	resolver := listing.NewResolver(pgRepo, pgRepo, cache, catalog, policy, sub("resolver"))
	base.Printf("listing engine ready: %d categories", len(catalog.All()))

	return &App{
		config:   cfg,
		log:      base,
		repo:     pgRepo,
		cache:    cache,
		archive:  archive,
		resolver: resolver,
		cycle:    listing.NewCycle(warmer, swapper),
	}, nil
}

func buildCache(ctx context.Context, cfg *config.Config, base, l *log.Logger) (domain.Cache, error) {
	if cfg.CacheDriver == config.CacheMemory {
		base.Println("using in-process memory cache")
		return memcache.New(l), nil
	}
	base.Println("init Redis")
	rc := redisx.New(redisx.Config{
		Addr:     cfg.RedisAddr,
		DB:       cfg.RedisDB,
		Password: cfg.RedisPassword,
	}, l)
	if err := rc.Ping(ctx); err != nil {
		rc.Close()
		return nil, fmt.Errorf("failed init redis: %w", err)
	}
	base.Println("Redis is initialized")
	return rc, nil
}

// Run поднимает HTTP-сервер и ждёт отмены ctx.
func (a *App) Run(ctx context.Context) error {
	deps := web.Deps{
		DB:            a.repo,
		Cache:         a.cache,
		Listings:      a.resolver,
		Orderings:     a.repo,
		ArchivePrefix: a.config.ReportPrefix,
	}
	if a.archive != nil {
		deps.Storage = a.archive
		deps.Archive = a.archive
	}
	serverLog := log.New(a.log.Writer(), a.log.Prefix()+"[server] ", a.log.Flags())
	a.server = web.New(serverLog, a.config, deps)

	// память процесса не видна отдельному запуску warmup: греем здесь же
	if a.config.CacheDriver == config.CacheMemory {
		go func() {
			rep := a.cycle.Run(ctx)
			a.log.Printf("in-process warmup done: staged=%d failed=%d promoted=%d",
				rep.Summary.Staged, rep.Summary.Failed, rep.Summary.Promoted)
		}()
	}

	a.log.Println("start application...")
	go a.server.Run()
	<-ctx.Done()
	a.log.Println("stop application...")

	stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	a.server.Close(stopCtx)
	a.Close()
	return nil
}

// WarmupResult: отчёт цикла и ключ архива, если архивировали.
type WarmupResult struct {
	Report       *listing.RunReport
	ArchiveKey   string
	ArchiveError error
}

// Warmup прогоняет один цикл и при archive=true кладёт отчёт в S3.
// Сбои измерений и архива не делают её неуспешной.
func (a *App) Warmup(ctx context.Context, archive bool) WarmupResult {
	res := WarmupResult{Report: a.cycle.Run(ctx)}
	if !archive {
		return res
	}
	if a.archive == nil {
		res.ArchiveError = fmt.Errorf("report archive: %w", domain.ErrNotFound)
		return res
	}
	res.ArchiveKey, res.ArchiveError = a.archiveReport(ctx, res.Report)
	if res.ArchiveError != nil {
		a.log.Printf("archive report %s failed: %v", res.Report.RunID, res.ArchiveError)
	}
	return res
}

func (a *App) archiveReport(ctx context.Context, rep *listing.RunReport) (string, error) {
	if err := a.archive.EnsureBucket(ctx); err != nil {
		return "", err
	}
	body, err := json.MarshalIndent(rep, "", "  ")
	if err != nil {
		return "", err
	}
	key := s3storage.ReportKey(a.config.ReportPrefix, rep.StartedAt, rep.RunID)
	if err := a.archive.Put(ctx, key, body, "application/json"); err != nil {
		return "", err
	}
	return key, nil
}

func (a *App) Close() {
	a.repo.Close()
	a.cache.Close()
}
