package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/sync/errgroup"

	"nivaran-be/config"
	"nivaran-be/controllers"
	"nivaran-be/events"
	"nivaran-be/logger"
	"nivaran-be/middlewares"
	"nivaran-be/routes"
	"nivaran-be/services"
	"nivaran-be/store"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	log, err := logger.New(cfg.Environment)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal("server stopped", "error", err)
	}
}

func run(ctx context.Context, cfg *config.Config, log *logger.Logger) error {
	var (
		db  *mongo.Database
		rdb *redis.Client
	)
	connect, cctx := errgroup.WithContext(ctx)
	connect.Go(func() error {
		if cfg.MongoURI == "" {
			return nil
		}
		var err error
		db, err = config.ConnectDB(cctx, cfg)
		return err
	})
	connect.Go(func() error {
		var err error
		rdb, err = config.ConnectRedis(cctx, cfg)
		return err
	})
	if err := connect.Wait(); err != nil {
		return err
	}

	var (
		st     store.Store
		images store.ImageStore
	)
	if db != nil {
		m, err := store.NewMongo(ctx, db)
		if err != nil {
			return err
		}
		st, images = m, m
		log.Info("MongoDB connection established", "database", cfg.MongoDatabase)
	} else {
		f, err := store.OpenFile(cfg.DataFile, log)
		if err != nil {
			return err
		}
		st = f
		log.Info("MONGODB_URI not set, using data file", "path", cfg.DataFile)
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := st.Close(closeCtx); err != nil {
			log.Warn("closing store", "error", err)
		}
	}()

	var (
		bus     events.Bus
		counter middlewares.RateCounter
	)
	if rdb != nil {
		defer rdb.Close()
		rb, err := events.NewRedisBus(rdb, cfg.RedisChannel, log)
		if err != nil {
			return err
		}
		if err := rb.Start(ctx); err != nil {
			return err
		}
		bus, counter = rb, middlewares.RedisCounter{Client: rdb}
	} else {
		log.Info("REDIS_ADDRESS not set, using in-process events and rate limits")
		bus, counter = events.NewLocalBus(log), middlewares.NewMemoryCounter()
	}
	defer bus.Close()

	issues := services.NewIssueService(st, bus, log, services.IssueConfig{
		Dedup:     cfg.Dedup,
		Seed:      cfg.Seed,
		SeedCount: cfg.SeedCount,
	})
	if err := issues.Load(ctx); err != nil {
		return err
	}
	supervisor := services.NewSupervisorService(issues, st, images, bus, log)

	if cfg.Production() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery(), middlewares.RequestLogger(log), middlewares.CORS(cfg.CORSOrigins))

	handlers := routes.Handlers{
		Auth:          &controllers.AuthController{Secret: cfg.JWTSecret, Production: cfg.Production(), Domain: cfg.Domain, Log: log},
		Issues:        &controllers.IssueController{Issues: issues, Supervisor: supervisor, Bus: bus, Log: log},
		Supervisor:    &controllers.SupervisorController{Issues: issues, Supervisor: supervisor, Log: log},
		Analytics:     &controllers.AnalyticsController{Issues: issues},
		Authenticate:  middlewares.AuthMiddleware(cfg.JWTSecret, log),
		ReportLimiter: middlewares.IssueRateLimiter(counter, cfg.IssueLimitQueue, cfg.IssueLimit, log),
	}
	if images != nil {
		handlers.Images = &controllers.ImageController{Images: images, Log: log}
	}
	routes.Register(r, handlers)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		// SSE streams only end when their subscriptions close.
		_ = bus.Close()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
