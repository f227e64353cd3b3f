package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"ms-reporting/internal/config"
	"ms-reporting/internal/database"
	"ms-reporting/internal/kafka"
	"ms-reporting/internal/logger"
	"ms-reporting/internal/reporting"

	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		fmt.Println(".env file not found, using environment variables")
	}

	cfg := config.Load()

	logger := logger.NewLogger(cfg.Log.Dir, cfg.Log.Service+"-worker")
	defer logger.Close()
	logger.SetLevel(cfg.Log.Level)

	if !cfg.Kafka.Enabled {
		logger.Warn("KAFKA", "Kafka disabled, report worker has nothing to do")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	bunDB, err := database.Connect(ctx, cfg.Database, logger)
	if err != nil {
		logger.Fatal("DATABASE", err.Error())
	}
	defer bunDB.Close()

	topics := []string{cfg.Kafka.Topics.ReportRequests, cfg.Kafka.Topics.ReportResults}
	if err := kafka.EnsureTopicsExist(ctx, cfg.Kafka.Brokers, topics, logger); err != nil {
		logger.Warn("KAFKA", fmt.Sprintf("Topic creation might have failed: %v", err))
	}

	consumer := kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.Topics.ReportRequests, cfg.Kafka.GroupID)
	producer := kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.Topics.ReportResults)

	service := reporting.NewService(reporting.NewDB(bunDB), logger)
	worker := kafka.NewWorker(consumer, producer, service, logger, cfg.Server.QueryTimeout)
	defer func() {
		if err := worker.Close(); err != nil {
			logger.Error("KAFKA", fmt.Sprintf("Failed to close worker: %v", err))
		}
	}()

	logger.Info("KAFKA", fmt.Sprintf("Consuming %s, publishing %s", cfg.Kafka.Topics.ReportRequests, cfg.Kafka.Topics.ReportResults))
	if err := worker.Run(ctx); err != nil {
		logger.Error("KAFKA", fmt.Sprintf("Report worker stopped: %v", err))
	}
	logger.Info("APP", "Report worker shutdown complete")
}
