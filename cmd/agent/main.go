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

	"github.com/fieldforce-hq/fieldforce-backend-go/internal/agent"
	"github.com/fieldforce-hq/fieldforce-backend-go/internal/config"
	"github.com/fieldforce-hq/fieldforce-backend-go/internal/pkg/cron"
	"github.com/fieldforce-hq/fieldforce-backend-go/internal/pkg/database"
	"github.com/fieldforce-hq/fieldforce-backend-go/internal/repository/postgresql"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Println("Error loading config:", err)
		return
	}

	dsn := cfg.DatabaseURL()
	db, err := database.NewPostgreSQLDB(dsn)
	if err != nil {
		fmt.Println("Error connecting to database:", err)
		return
	}

	baseURL := getEnv("AGENT_API_BASE_URL", "http://localhost:8080")
	token := os.Getenv("AGENT_ACCESS_TOKEN")
	if token == "" {
		log.Fatal("AGENT_ACCESS_TOKEN is required")
	}
	employeeID := os.Getenv("AGENT_EMPLOYEE_ID")
	if employeeID == "" {
		log.Fatal("AGENT_EMPLOYEE_ID is required")
	}
	syncInterval, err := time.ParseDuration(getEnv("AGENT_SYNC_INTERVAL", "5m"))
	if err != nil {
		log.Fatal("Invalid AGENT_SYNC_INTERVAL:", err)
	}

	deviceRepo := postgresql.NewDeviceRecordRepository(db)
	apiClient := agent.NewAPIClient(baseURL, &http.Client{Timeout: 60 * time.Second})
	reconciler := agent.NewReconciler(deviceRepo, apiClient)

	creds := agent.Credentials{Token: token}

	scheduler := cron.NewScheduler()
	scheduler.AddJob("attendance_sync", syncInterval, func(ctx context.Context) error {
		result, err := reconciler.Reconcile(ctx, creds, employeeID)
		if err != nil {
			return err
		}
		fmt.Printf("Sync finished: %d succeeded, %d failed\n", result.Succeeded, result.Failed)
		return nil
	})
	scheduler.Start()
	defer scheduler.Stop()

	fmt.Printf("Sync agent running for employee %s (every %s)\n", employeeID, syncInterval)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	fmt.Println("Shutting down sync agent")
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
