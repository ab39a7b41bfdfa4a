package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"video-scheduler/internal/handler"
	"video-scheduler/internal/monitor"
	"video-scheduler/internal/notify"
	"video-scheduler/internal/repository"
	"video-scheduler/internal/service"
)

// Config holds the application configuration
type Config struct {
	TelegramBotToken  string
	TelegramChatID    int64 // admin chat for bot commands
	TelegramChannelID int64 // channel for daily plan reports
	MonitorBaseURL    string
	MonitorAPIKey     string
	DBPath            string
	BackupDir         string
	GenerateTime      string // Format: "HH:MM"
	HTTPAddr          string
	WebAPIToken       string
}

func main() {
	// Parse CLI flags
	generateMode := flag.Bool("generate", false, "Generate tomorrow's schedule and exit")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found")
	}

	config := loadConfig()

	// Initialize database
	db, err := repository.NewSQLiteDB(config.DBPath)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := db.InitSchema(); err != nil {
		log.Fatalf("Failed to initialize database schema: %v", err)
	}

	// Initialize repositories
	configRepo := repository.NewConfigRepository(db)
	scheduleRepo := repository.NewScheduleRepository(db)
	usageRepo := repository.NewUsageRepository(db)
	oldPool := repository.NewOldPoolRepository(db)
	newPool := repository.NewNewPoolRepository(db)

	if err := configRepo.EnsureDefault(); err != nil {
		log.Fatalf("Failed to seed schedule config: %v", err)
	}

	// Initialize monitoring pipeline client
	monitorClient := monitor.NewClient(config.MonitorBaseURL, config.MonitorAPIKey)

	// Initialize services
	generator := service.NewScheduleGenerator(configRepo, scheduleRepo, usageRepo, oldPool, newPool)
	maintenance := service.NewPoolMaintenanceService(monitorClient, configRepo, oldPool, newPool)
	backupSvc := service.NewBackupService(config.DBPath, config.BackupDir)

	// CLI mode: generate tomorrow's schedule and exit
	if *generateMode {
		plan, err := generator.Generate("")
		if err != nil {
			log.Fatalf("Failed to generate schedule: %v", err)
		}
		fmt.Printf("Schedule generated for %s: %d videos (%d new, %d old)\n",
			plan.Date, plan.TotalVideos, plan.NewVideos, plan.OldVideos)
		return
	}

	// Initialize Telegram Bot
	if config.TelegramBotToken == "" || config.TelegramChatID == 0 {
		log.Fatal("Telegram bot not configured. Set TELEGRAM_BOT_TOKEN and TELEGRAM_CHAT_ID environment variables.")
	}

	deps := notify.Dependencies{
		Generator:    generator,
		Maintenance:  maintenance,
		BackupSvc:    backupSvc,
		ConfigRepo:   configRepo,
		ScheduleRepo: scheduleRepo,
	}

	bot, err := notify.NewTelegramBot(config.TelegramBotToken, config.TelegramChatID, config.TelegramChannelID, deps)
	if err != nil {
		log.Fatalf("Failed to create Telegram bot: %v", err)
	}

	// Initialize scheduler
	scheduler := service.NewScheduler(generator, maintenance, backupSvc, bot, config.GenerateTime)
	scheduler.Start()

	// Initialize HTTP API
	httpHandler := handler.NewHTTPHandler(generator, maintenance, backupSvc, configRepo, scheduleRepo, config.WebAPIToken)
	router := gin.Default()
	httpHandler.RegisterRoutes(router)

	go func() {
		log.Printf("HTTP API listening on %s", config.HTTPAddr)
		if err := router.Run(config.HTTPAddr); err != nil {
			log.Fatalf("HTTP server failed: %v", err)
		}
	}()

	// Handle graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		log.Println("Shutting down...")
		scheduler.Stop()
		bot.Stop()
		os.Exit(0)
	}()

	// Start bot (blocking)
	log.Printf("Video scheduler bot started. Chat ID: %d", config.TelegramChatID)
	bot.Start()
}

// loadConfig loads configuration from environment variables
func loadConfig() *Config {
	chatID, _ := strconv.ParseInt(getEnv("TELEGRAM_CHAT_ID", "0"), 10, 64)
	channelID, _ := strconv.ParseInt(getEnv("TELEGRAM_CHANNEL_ID", "0"), 10, 64)

	config := &Config{
		TelegramBotToken:  getEnv("TELEGRAM_BOT_TOKEN", ""),
		TelegramChatID:    chatID,
		TelegramChannelID: channelID,
		MonitorBaseURL:    getEnv("MONITOR_BASE_URL", "http://localhost:9080"),
		MonitorAPIKey:     getEnv("MONITOR_API_KEY", ""),
		DBPath:            getEnv("DB_PATH", "video_scheduler.db"),
		BackupDir:         getEnv("BACKUP_DIR", "backups"),
		GenerateTime:      getEnv("GENERATE_TIME", "20:00"),
		HTTPAddr:          getEnv("HTTP_ADDR", ":8080"),
		WebAPIToken:       getEnv("WEB_API_TOKEN", ""),
	}

	if config.MonitorAPIKey == "" {
		log.Println("Warning: MONITOR_API_KEY not set. Pool sync calls will fail.")
	}

	return config
}

// getEnv gets an environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
