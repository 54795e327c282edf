package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/fieldforce-hq/fieldforce-backend-go/internal/config"
	appHTTP "github.com/fieldforce-hq/fieldforce-backend-go/internal/handler/http"
	"github.com/fieldforce-hq/fieldforce-backend-go/internal/pkg/cron"
	"github.com/fieldforce-hq/fieldforce-backend-go/internal/pkg/database"
	"github.com/fieldforce-hq/fieldforce-backend-go/internal/pkg/geocode"
	"github.com/fieldforce-hq/fieldforce-backend-go/internal/pkg/jwt"
	"github.com/fieldforce-hq/fieldforce-backend-go/internal/pkg/uploader"
	"github.com/fieldforce-hq/fieldforce-backend-go/internal/repository/mongodb"
	"github.com/fieldforce-hq/fieldforce-backend-go/internal/repository/postgresql"
	attendanceService "github.com/fieldforce-hq/fieldforce-backend-go/internal/service/attendance"
	replicationService "github.com/fieldforce-hq/fieldforce-backend-go/internal/service/replication"
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

	mongoDB, err := database.NewMongoDB(cfg.Mongo.URI, cfg.Mongo.Database)
	if err != nil {
		log.Fatal("Failed to connect to MongoDB:", err)
	}
	defer mongoDB.Disconnect(context.Background())

	secondaryDB, err := database.NewSecondaryMongoDB(cfg.Mongo.SecondaryURI, cfg.Mongo.SecondaryName)
	if err != nil {
		log.Fatal("Failed to initialize secondary MongoDB client:", err)
	}
	defer secondaryDB.Disconnect(context.Background())

	attendanceRepo := mongodb.NewAttendanceRepository(mongoDB)
	outboxRepo := postgresql.NewReplicationOutboxRepository(db)
	secondaryWriter := mongodb.NewSecondaryWriter(secondaryDB)

	jwtService := jwt.NewJWTService(cfg.JWT.Secret, cfg.JWT.AccessExpiration)

	hostedUploader := uploader.NewHostedUploader(cfg.ImageHost.UploadURL, cfg.ImageHost.APIKey, &http.Client{Timeout: 30 * time.Second})
	selfieUploader := uploader.NewRetryingUploader(hostedUploader, cfg.ImageHost.MaxAttempts)
	geocoder := geocode.NewNominatimGeocoder(cfg.Geocoder.BaseURL, cfg.Geocoder.Timeout)

	recordLoc, err := time.LoadLocation(cfg.App.RecordTimezone)
	if err != nil {
		log.Fatal("Invalid record timezone:", err)
	}

	replicationSvc := replicationService.NewService(outboxRepo, secondaryWriter, cfg.Replication.BatchSize)
	attendanceSvc := attendanceService.NewAttendanceService(
		attendanceRepo,
		selfieUploader,
		geocoder,
		replicationSvc,
		recordLoc,
	)

	scheduler := cron.NewScheduler()
	replicationSvc.RegisterJobs(scheduler, cfg.Replication.DrainInterval)
	scheduler.Start()
	defer scheduler.Stop()

	attendanceHandler := appHTTP.NewAttendanceHandler(attendanceSvc)

	router := appHTTP.NewRouter(cfg, jwtService, attendanceHandler)

	port := fmt.Sprintf(":%d", cfg.App.Port)
	fmt.Printf("Server running at http://localhost%s\n", port)
	if err := http.ListenAndServe(port, router); err != nil {
		fmt.Println("Server error:", err)
	}
}
