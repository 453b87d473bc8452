package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	glog "github.com/labstack/gommon/log"

	"github.com/iliyamo/smart-farming/internal/config"
	"github.com/iliyamo/smart-farming/internal/database"
	"github.com/iliyamo/smart-farming/internal/handler"
	"github.com/iliyamo/smart-farming/internal/middleware"
	"github.com/iliyamo/smart-farming/internal/queue"
	"github.com/iliyamo/smart-farming/internal/repository"
	"github.com/iliyamo/smart-farming/internal/router"
	"github.com/iliyamo/smart-farming/internal/service"
)

func main() {
	cfg := config.Load()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()
	if cfg.DBAutoMigrate {
		if err := database.Migrate(ctx, db); err != nil {
			log.Fatalf("migrate: %v", err)
		}
	}

	rdb := config.NewRedisClient(config.LoadRedisConfig())
	if rdb != nil {
		defer rdb.Close()
	}
	cache := middleware.NewResponseCache(config.LoadCacheConfig(), rdb)

	// events stays a nil interface when the queue is disabled so services
	// skip publishing entirely.
	var events service.EventPublisher
	qcfg := config.LoadQueueConfig()
	if qcfg.Enabled {
		pub := queue.NewPublisher(qcfg.URL, qcfg.Queue)
		defer pub.Close()
		events = pub
		if qcfg.RunConsumer {
			go func() {
				if err := queue.StartActivityConsumer(ctx, qcfg.URL, qcfg.Queue, qcfg.ActivityLog); err != nil && !errors.Is(err, context.Canceled) {
					log.Printf("activity-consumer stopped: %v", err)
				}
			}()
		}
	}

	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	records := service.NewFarmRecordService(repository.NewFarmRecordRepo(db), events)
	advisory := service.NewAdvisoryService(repository.NewAdvisoryRepo(db), events)
	products := service.NewProductService(repository.NewProductRepo(db))
	orders := service.NewOrderService(repository.NewOrderRepo(db), events)

	e := echo.New()
	e.HideBanner = true
	lvl := logLevel(cfg.LogLevel)
	e.Logger.SetLevel(lvl)
	glog.SetLevel(lvl)
	e.Use(echomw.Recover())
	e.Use(echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
		LogMethod:   true,
		LogURI:      true,
		LogStatus:   true,
		LogLatency:  true,
		LogRemoteIP: true,
		LogError:    true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
			if v.Error != nil {
				c.Logger().Errorf("%s %s %d %s ip=%s err=%v", v.Method, v.URI, v.Status, v.Latency, v.RemoteIP, v.Error)
				return nil
			}
			c.Logger().Infof("%s %s %d %s ip=%s", v.Method, v.URI, v.Status, v.Latency, v.RemoteIP)
			return nil
		},
	}))

	opts := router.Options{
		JWTSecret: cfg.JWTSecret,
		RateLimit: middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb),
		Cache:     cache,
	}
	router.RegisterRoutes(e, db)
	router.RegisterAuth(e, handler.NewAuthHandler(cfg, users, tokens), opts)
	router.RegisterFarmRecords(e, handler.NewFarmRecordHandler(records), opts)
	router.RegisterAdvisory(e, handler.NewAdvisoryHandler(advisory), opts)
	router.RegisterMarketplace(e, handler.NewProductHandler(products, cache), handler.NewOrderHandler(orders, cache), opts)

	addr := ":" + cfg.Port
	go func() {
		log.Printf("listening on %s (env=%s)", addr, cfg.Env)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal(err)
		}
	}()

	<-ctx.Done()
	log.Printf("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown: %v", err)
	}
}

func logLevel(s string) glog.Lvl {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return glog.DEBUG
	case "warn":
		return glog.WARN
	case "error":
		return glog.ERROR
	case "off":
		return glog.OFF
	default:
		return glog.INFO
	}
}
