package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Swai-D/bet-bot-sub000/internal/api/rest"
	"github.com/Swai-D/bet-bot-sub000/internal/api/websocket"
	"github.com/Swai-D/bet-bot-sub000/internal/cache"
	"github.com/Swai-D/bet-bot-sub000/internal/config"
	"github.com/Swai-D/bet-bot-sub000/internal/ingest/adibet"
	"github.com/Swai-D/bet-bot-sub000/internal/notify"
	"github.com/Swai-D/bet-bot-sub000/internal/odds"
	"github.com/Swai-D/bet-bot-sub000/internal/odds/betexplorer"
	"github.com/Swai-D/bet-bot-sub000/internal/odds/oddsportal"
	"github.com/Swai-D/bet-bot-sub000/internal/placer"
	"github.com/Swai-D/bet-bot-sub000/internal/publisher"
	"github.com/Swai-D/bet-bot-sub000/internal/scheduler"
	"github.com/Swai-D/bet-bot-sub000/internal/store"
	"github.com/Swai-D/bet-bot-sub000/internal/store/repository"
)

const (
	serviceName    = "betbot"
	serviceVersion = "1.0.0"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to configuration file")
	flag.Parse()

	log.Printf("Starting %s v%s - Match Prediction Pipeline", serviceName, serviceVersion)

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize database connection
	db, err := store.NewDatabase(cfg.PostgresDSN)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	log.Println("✓ Connected to database")

	// Run migrations
	if err := db.RunMigrations(); err != nil {
		log.Fatalf("Failed to run database migrations: %v", err)
	}
	log.Println("✓ Database migrations applied")

	// Initialize Redis with retry logic
	var redisCache *cache.RedisCache
	maxRetries := 30
	retryDelay := 2 * time.Second

	log.Println("Connecting to Redis...")
	for i := 0; i < maxRetries; i++ {
		redisCache, err = cache.NewRedisCache(cfg.RedisURL)
		if err == nil {
			break
		}

		if i < maxRetries-1 {
			log.Printf("Redis connection attempt %d/%d failed: %v (retrying in %v)", i+1, maxRetries, err, retryDelay)
			time.Sleep(retryDelay)
		} else {
			log.Fatalf("Failed to connect to Redis after %d attempts: %v", maxRetries, err)
		}
	}
	defer redisCache.Close()

	log.Println("✓ Connected to Redis")

	// Prediction source
	fetcher, err := adibet.NewClient(cfg.AdibetBaseURL)
	if err != nil {
		log.Fatalf("Failed to create predictions client: %v", err)
	}
	defer fetcher.Close()

	// Odds providers: headless primary, plain-HTTP fallback
	primary, err := oddsportal.NewProvider(cfg.OddsPortalBaseURL)
	if err != nil {
		log.Fatalf("Failed to create primary odds provider: %v", err)
	}
	defer primary.Close()

	fallback := betexplorer.NewProvider(cfg.BetExplorerBaseURL)

	resolver := odds.NewResolver(redisCache, primary, fallback, &odds.Config{
		CacheTTL:   cfg.Pipeline.CacheTTL,
		MaxRetries: cfg.Pipeline.MaxRetries,
		RetryDelay: cfg.Pipeline.RetryDelay,
		Workers:    cfg.Pipeline.OddsWorkers,
	})

	// Orchestrator wiring
	predictions := repository.NewPredictionRepository(db)
	bets := repository.NewBetRepository(db)

	orchestrator := scheduler.NewOrchestrator(fetcher, predictions, bets, resolver, redisCache,
		placer.NewDryRun(), &scheduler.Config{
			RunInterval:  cfg.Pipeline.RunInterval,
			RunBudget:    cfg.Pipeline.RunBudget,
			MaxRetries:   cfg.Pipeline.MaxRetries,
			RetryDelay:   cfg.Pipeline.RetryDelay,
			DailyBetCap:  cfg.Pipeline.DailyBetCap,
			RetentionAge: cfg.Pipeline.RetentionAge,
			Policy:       cfg.Policy,
		})

	// Run listeners: Redis stream always, Telegram when configured
	orchestrator.AddListener(publisher.NewRedisStreamPublisher(redisCache.Client()))

	if cfg.TelegramBotToken != "" {
		notifier, err := notify.NewTelegramNotifier(cfg.TelegramBotToken, cfg.TelegramChatID)
		if err != nil {
			log.Printf("⚠️  Telegram notifier disabled: %v", err)
		} else {
			orchestrator.AddListener(notifier)
		}
	}

	// WebSocket server broadcasts run summaries
	wsServer := websocket.NewServer()
	orchestrator.AddListener(wsServer)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go orchestrator.Start(ctx)

	log.Println("✓ Pipeline orchestrator started")

	// REST API server
	restServer := rest.NewServer(cfg.RESTPort, db, redisCache, orchestrator)
	go func() {
		log.Printf("Starting REST API server on port %s", cfg.RESTPort)
		if err := restServer.Start(); err != nil {
			log.Printf("REST server error: %v", err)
		}
	}()

	go func() {
		log.Printf("Starting WebSocket server on port %s", cfg.WSPort)
		if err := wsServer.Start(cfg.WSPort); err != nil {
			log.Printf("WebSocket server error: %v", err)
		}
	}()

	log.Printf("✓ %s v%s started successfully", serviceName, serviceVersion)
	log.Printf("  REST API: http://0.0.0.0:%s", cfg.RESTPort)
	log.Printf("  WebSocket: ws://0.0.0.0:%s", cfg.WSPort)

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	log.Println("Shutting down gracefully...")

	cancel()
	orchestrator.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := restServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("REST API server shutdown error: %v", err)
	}
	if err := wsServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("WebSocket server shutdown error: %v", err)
	}

	log.Printf("%s stopped", serviceName)
}
