// cmd/worker/main.go
package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/elingeyesdev/tickets-incidentes-sub002/internal/config"
	"github.com/elingeyesdev/tickets-incidentes-sub002/internal/queue"
	"github.com/elingeyesdev/tickets-incidentes-sub002/internal/services"
)

// The mail worker drains the notification queue and sends the emails. It runs
// as a separate process so slow SMTP never blocks API requests.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration:", err)
	}

	if cfg.Environment == "production" {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	}

	consumer, err := queue.NewConsumer(cfg.Queue.URL, cfg.Queue.MailQueueName)
	if err != nil {
		log.Fatal("Failed to connect to mail queue:", err)
	}
	defer consumer.Close()

	notificationService := services.NewNotificationService(cfg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		log.Println("Shutting down mail worker...")
		cancel()
	}()

	if err := consumer.Run(ctx, notificationService.HandleMailJob); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatal("Mail worker stopped:", err)
	}

	log.Println("Mail worker exited")
}
