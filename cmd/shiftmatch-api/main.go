// README: Entry point; loads config, wires services, starts HTTP server and the expiry sweeper.
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"shiftmatch/internal/ai"
	"shiftmatch/internal/config"
	httptransport "shiftmatch/internal/http"
	"shiftmatch/internal/infra"
	"shiftmatch/internal/maps"
	"shiftmatch/internal/modules/matchconfig"
	"shiftmatch/internal/modules/matching"
	"shiftmatch/internal/modules/shift"
	"shiftmatch/internal/modules/visit"
	"shiftmatch/internal/modules/worker"
	"shiftmatch/internal/notify"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	logger, err := infra.NewLogger(cfg.Env)
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbPool, err := infra.NewDB(ctx, cfg.DB.DSN)
	if err != nil {
		logger.Fatal("database init failed", zap.Error(err))
	}
	defer dbPool.Close()

	redisClient := infra.NewRedis(cfg.Redis.Addr)

	amqpConn, amqpCh, err := infra.NewAMQPChannel(cfg.AMQP.URL, cfg.AMQP.Exchange)
	if err != nil {
		logger.Fatal("amqp init failed", zap.Error(err))
	}
	defer amqpConn.Close()
	defer amqpCh.Close()

	workerStore := worker.NewStore(dbPool)
	locationSvc := worker.NewLocationService(workerStore, worker.NewGeoIndex(redisClient), logger)
	visitStore := visit.NewStore(dbPool)
	shiftStore := shift.NewPgStore(dbPool)
	configStore := matchconfig.NewStore(dbPool)
	configSvc := matchconfig.NewService(configStore, logger)

	var travel matching.TravelEstimator
	if cfg.Maps.APIKey != "" {
		routeSvc, err := maps.NewRouteService(cfg.Maps.APIKey)
		if err != nil {
			logger.Fatal("maps init failed", zap.Error(err))
		}
		travel = routeSvc
	}
	contexts := matching.NewContextBuilder(workerStore, visitStore, shiftStore, travel)

	deps := shift.Deps{
		Store:     shiftStore,
		Directory: workerStore,
		Visits:    visitStore,
		Configs:   configSvc,
		Contexts:  contexts,
		Notifier:  notify.NewRabbitNotifier(amqpCh, cfg.AMQP.Exchange),
		Dispatch:  shift.NewRedisDispatchLog(redisClient),
		Logger:    logger,
		Lookahead: time.Duration(cfg.Matching.SelfSelectLookaheadDays) * 24 * time.Hour,
	}
	if cfg.AI.GeminiKey != "" {
		explainer, err := ai.NewGeminiExplainer(ctx, cfg.AI.GeminiKey)
		if err != nil {
			logger.Fatal("gemini init failed", zap.Error(err))
		}
		defer explainer.Close()
		deps.Explainer = explainer
	}
	shiftSvc := shift.NewService(deps)

	handler := httptransport.NewRouter(httptransport.ServerDeps{
		Shifts:    shiftSvc,
		Configs:   configSvc,
		Locations: locationSvc,
		Logger:    logger,
	})
	server := &http.Server{Addr: cfg.HTTP.Addr, Handler: handler}

	go shiftSvc.RunExpirySweeper(ctx, time.Duration(cfg.Matching.SweepTickSeconds)*time.Second)
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	logger.Info("listening", zap.String("addr", cfg.HTTP.Addr))
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatal("server failed", zap.Error(err))
	}
}
