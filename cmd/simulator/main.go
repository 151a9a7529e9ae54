package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/terminal-bench/glp-fleet/internal/api"
	"github.com/terminal-bench/glp-fleet/internal/cache"
	"github.com/terminal-bench/glp-fleet/internal/control"
	"github.com/terminal-bench/glp-fleet/internal/environment"
	"github.com/terminal-bench/glp-fleet/internal/eventqueue"
	"github.com/terminal-bench/glp-fleet/internal/grid"
	"github.com/terminal-bench/glp-fleet/internal/leader"
	"github.com/terminal-bench/glp-fleet/internal/logging"
	"github.com/terminal-bench/glp-fleet/internal/metrics"
	"github.com/terminal-bench/glp-fleet/internal/model"
	"github.com/terminal-bench/glp-fleet/internal/orchestrator"
	"github.com/terminal-bench/glp-fleet/internal/solver"
	"github.com/terminal-bench/glp-fleet/pkg/eventbus"
	"github.com/terminal-bench/glp-fleet/pkg/units"
)

// Grid and fleet constants fixed by the simulated city (spec §6).
const (
	gridWidth  = 70
	gridHeight = 50
)

type Config struct {
	Port         string
	NATSUrl      string
	RedisAddr    string
	EtcdEndpoint string
	InfluxURL    string
	InfluxToken  string
	InfluxOrg    string
	InfluxBucket string
	LogLevel     string
	Development  bool
}

func loadConfig() *Config {
	return &Config{
		Port:         getEnv("PORT", "8080"),
		NATSUrl:      getEnv("NATS_URL", "nats://localhost:4222"),
		RedisAddr:    getEnv("REDIS_ADDR", "localhost:6379"),
		EtcdEndpoint: getEnv("ETCD_ENDPOINT", "localhost:2379"),
		InfluxURL:    getEnv("INFLUX_URL", "http://localhost:8086"),
		InfluxToken:  getEnv("INFLUX_TOKEN", ""),
		InfluxOrg:    getEnv("INFLUX_ORG", "glp-fleet"),
		InfluxBucket: getEnv("INFLUX_BUCKET", "sim"),
		LogLevel:     getEnv("LOG_LEVEL", "info"),
		Development:  getEnv("ENV", "production") != "production",
	}
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

// notifierAdapter bridges eventbus.Client's context-taking Publish to the
// orchestrator.Notifier interface, which never threads a context through
// the tick loop's fire-and-forget publication.
type notifierAdapter struct {
	client *eventbus.Client
}

func (n notifierAdapter) Publish(subject string, payload interface{}) error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	return n.client.Publish(ctx, subject, payload)
}

func seedFleet(env *environment.Environment) {
	main := model.NewDepot(uuid.New(), "MAIN", model.Position{12, 8}, units.ZeroVolume, true, true)
	north := model.NewDepot(uuid.New(), "NORTH", model.Position{42, 42}, units.NewVolume(5000), false, true)
	east := model.NewDepot(uuid.New(), "EAST", model.Position{63, 3}, units.NewVolume(5000), false, true)
	env.AddDepot(main)
	env.AddDepot(north)
	env.AddDepot(east)

	counts := map[model.VehicleTypeCode]int{
		model.TypeTA: 2,
		model.TypeTB: 4,
		model.TypeTC: 4,
		model.TypeTD: 10,
	}
	for code, n := range counts {
		vt := model.VehicleTypes[code]
		for i := 0; i < n; i++ {
			code := fmt.Sprintf("%s%02d", code, i+1)
			v := model.NewVehicle(uuid.New(), code, vt, main.Position)
			v.GLPM3 = vt.CapacityM3
			env.AddVehicle(v)
		}
	}
}

func main() {
	cfg := loadConfig()

	log_, err := logging.New(logging.Config{Development: cfg.Development, Level: cfg.LogLevel})
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer log_.Sync()

	start := time.Now().Truncate(time.Minute)
	env := environment.New(start)
	seedFleet(env)

	g := grid.New(gridWidth, gridHeight, grid.DefaultSpeedKPH)
	sv := solver.New(solver.DefaultConfig())
	q := eventqueue.New()

	var notifier orchestrator.Notifier
	busClient, err := eventbus.NewClient(eventbus.Config{
		URL:            cfg.NATSUrl,
		Name:           "glp-simulator",
		ReconnectWait:  time.Second,
		MaxReconnects:  60,
		ConnectTimeout: 5 * time.Second,
	})
	if err != nil {
		log_.Warn("eventbus unavailable, running without event fan-out")
	} else {
		defer busClient.Close()
		notifier = notifierAdapter{client: busClient}
	}

	var metricsSink orchestrator.MetricsSink
	if cfg.InfluxToken != "" {
		sink := metrics.New(metrics.Config{
			URL:    cfg.InfluxURL,
			Token:  cfg.InfluxToken,
			Org:    cfg.InfluxOrg,
			Bucket: cfg.InfluxBucket,
		})
		defer sink.Close()
		metricsSink = sink
	}

	var leaderElector orchestrator.LeaderElector
	if endpoint := os.Getenv("ETCD_ENDPOINT"); endpoint != "" {
		elector, err := leader.New(leader.DefaultConfig([]string{cfg.EtcdEndpoint}), uuid.New().String(), log_)
		if err != nil {
			log_.Warn("etcd unavailable, assuming sole leadership", zap.Error(err))
		} else {
			elector.Campaign(context.Background())
			defer elector.Close()
			leaderElector = elector
		}
	}

	snapshotCache := cache.New(cache.DefaultConfig(cfg.RedisAddr))
	defer snapshotCache.Close()

	orch := orchestrator.New(orchestrator.DefaultConfig(), env, g, sv, q, notifier, metricsSink, leaderElector, log_)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	orch.Start(ctx)

	ctrl := control.New(env, orch)
	server := api.New(api.DefaultConfig(cfg.Port), ctrl, log_, snapshotCache)

	httpServer := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: server.Router(),
	}

	go func() {
		log_.Sugar().Infof("simulator listening on port %s", cfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log_.Sugar().Fatalf("failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log_.Info("shutting down simulator")
	orch.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log_.Warn("server shutdown error", zap.Error(err))
	}
	log_.Info("simulator stopped")
}
