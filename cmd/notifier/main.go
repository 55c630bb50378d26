package main

import (
	"context"
	"flag"
	"os"
	"time"

	"training-passport/internal/config"
	"training-passport/internal/notify"
	"training-passport/internal/repository/mongo"
	"training-passport/internal/repository/redis"
	"training-passport/internal/service"

	"github.com/sirupsen/logrus"
)

// The notifier runs one sweep and exits; an external scheduler (cron) decides
// the cadence. Typical setup: -new every 10 minutes, -monthly on day 1.
func main() {
	newSweep := flag.Bool("new", false, "send the new-assignment digest")
	monthlySweep := flag.Bool("monthly", false, "send the monthly pending/overdue digest")
	flag.Parse()

	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetOutput(os.Stdout)

	if !*newSweep && !*monthlySweep {
		logger.Fatal("nothing to do: pass -new and/or -monthly")
	}

	cfg, err := config.LoadConfig(".")
	if err != nil {
		logger.WithError(err).Fatal("Could not load config")
	}

	dbClient, err := mongo.ConnectDB(cfg.Database.URI)
	if err != nil {
		logger.WithError(err).Fatal("Could not connect to MongoDB")
	}
	defer func() {
		if err := mongo.DisconnectDB(dbClient); err != nil {
			logger.WithError(err).Error("Failed to disconnect MongoDB")
		}
	}()
	appDB := dbClient.Database(cfg.Database.Name)

	redisClient, err := redis.Connect(cfg.Redis.Address, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		logger.WithError(err).Fatal("Could not connect to Redis")
	}
	defer redisClient.Close()

	userRepo := mongo.NewMongoUserRepository(appDB)
	trainingRepo := mongo.NewMongoTrainingRepository(appDB)
	assignmentRepo := mongo.NewMongoAssignmentRepository(appDB)
	cursorStore := redis.NewRedisCursorStore(redisClient)
	mailer := notify.NewSMTPMailer(cfg.SMTP)

	notificationService := service.NewNotificationService(
		userRepo,
		trainingRepo,
		assignmentRepo,
		cursorStore,
		mailer,
		cfg.Notify.AppURL,
		logger,
	)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	if *newSweep {
		sent, err := notificationService.RunNewAssignmentSweep(ctx)
		if err != nil {
			logger.WithError(err).Error("new-assignment sweep failed")
			os.Exit(1)
		}
		logger.WithField("sent", sent).Info("new-assignment sweep finished")
	}

	if *monthlySweep {
		sent, err := notificationService.RunMonthlySweep(ctx)
		if err != nil {
			logger.WithError(err).Error("monthly sweep failed")
			os.Exit(1)
		}
		logger.WithField("sent", sent).Info("monthly sweep finished")
	}
}
