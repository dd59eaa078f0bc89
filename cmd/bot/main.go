package main

import (
	"database/sql"
	"flag"
	"log"
	"net/http"
	"time"

	"groupgate/internal/approval"
	"groupgate/internal/config"
	"groupgate/internal/jobs"
	"groupgate/internal/logger"
	"groupgate/internal/lookup"
	"groupgate/internal/repository/postgres"
	"groupgate/internal/scheduler"
	"groupgate/internal/transport/onebot"

	_ "github.com/lib/pq"
)

func main() {
	// Parse command-line flags
	configPath := flag.String("config", "config/config.dev.yaml", "Path to configuration file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logger.Initialize(cfg.Log.Level, cfg.Log.Format)
	logger.Info("Starting groupgate...", "log_level", cfg.Log.Level, "log_format", cfg.Log.Format)
	logger.Info("Server configuration", "address", cfg.GetServerAddress())
	logger.Info("Database configuration", "host", cfg.Database.Host, "port", cfg.Database.Port, "database", cfg.Database.Database, "user", cfg.Database.User)
	logger.Info("Gateway configuration", "base_url", cfg.Gateway.BaseURL)
	logger.Info("Guard configuration", "group_id", cfg.Bot.GroupID, "review_channel_id", cfg.Bot.ReviewChannelID)

	// Initialize Database
	db, err := sql.Open("postgres", cfg.GetDatabaseConnectionString())
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// Test database connection
	if err := db.Ping(); err != nil {
		logger.Error("Failed to ping database", "error", err)
		log.Fatalf("Failed to ping database: %v", err)
	}
	logger.Info("Database connection established")

	// Initialize Repositories
	store := postgres.NewStore(db)

	// Initialize Permission Gate
	gate := approval.NewPermissionGate(
		cfg.Bot.OwnerID,
		store.BindingRepository,
		time.Duration(cfg.Bot.AdminCacheTTLMinutes)*time.Minute,
	)

	// Initialize external collaborators
	lookupSvc := lookup.NewHTTPService(cfg.Lookup.BaseURL, time.Duration(cfg.Lookup.TimeoutSeconds)*time.Second)
	gatewayClient := onebot.NewClient(cfg.Gateway.BaseURL, cfg.Gateway.AccessToken, cfg.Bot.GroupID)

	// Initialize the approval coordinator
	coordinator := approval.NewCoordinator(
		approval.Config{
			ReviewChannelID:    cfg.Bot.ReviewChannelID,
			ReactApproveAuto:   cfg.Bot.ReactApproveAuto,
			ReactApproveDialog: cfg.Bot.ReactApproveDialog,
			ReactReject:        cfg.Bot.ReactReject,
			Retention:          time.Duration(cfg.Bot.RetentionHours) * time.Hour,
			JoinWait:           time.Duration(cfg.Bot.JoinWaitSeconds) * time.Second,
			RejectTimeout:      time.Duration(cfg.Bot.RejectTimeoutMinutes) * time.Minute,
		},
		gatewayClient,
		store.BindingRepository,
		lookupSvc,
		gate,
	)

	// Start the cleanup sweep scheduler
	jobRunner := jobs.NewJobRunner(coordinator, cfg)
	sched := scheduler.NewScheduler(jobRunner)
	sched.Start()
	defer sched.Stop()

	// Serve the gateway event callbacks
	server := onebot.NewServer(cfg.Gateway.Secret, cfg.Bot.GroupID, coordinator)
	logger.Info("Event callback server listening", "address", cfg.GetServerAddress())
	if err := http.ListenAndServe(cfg.GetServerAddress(), server.Router()); err != nil {
		logger.Error("Callback server error", "error", err)
		log.Fatalf("Failed to serve: %v", err)
	}
}
