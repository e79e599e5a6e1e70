package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/abcdjack1/todolist/internal/client"
	"github.com/abcdjack1/todolist/internal/config"
	"github.com/abcdjack1/todolist/internal/reminder"
	log "github.com/sirupsen/logrus"
)

func main() {
	cfg, err := config.LoadReminder()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger := config.NewLogger(cfg.LogLevel, cfg.LogFormat)

	scheduler := reminder.NewScheduler(func(ev reminder.Event) {
		logger.WithFields(log.Fields{
			"task_id":    ev.TaskID,
			"trigger_at": ev.TriggerAt.Format(time.RFC3339),
		}).Info("Reminder: " + ev.Message)
	})
	defer scheduler.Stop()

	api := client.New(cfg.APIURL)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.WithFields(log.Fields{
		"api":      cfg.APIURL,
		"interval": cfg.PollInterval.String(),
	}).Info("Reminder watcher started")

	ticker := time.NewTicker(cfg.PollInterval)
	defer ticker.Stop()

	for {
		poll(ctx, api, scheduler, logger)

		select {
		case <-ctx.Done():
			logger.Info("Reminder watcher stopped")
			return
		case <-ticker.C:
		}
	}
}

// poll reloads the to-do list and resyncs the pending timers. On failure the
// existing timers are left running until the next poll.
func poll(ctx context.Context, api *client.Client, scheduler *reminder.Scheduler, logger *log.Logger) {
	tasks, err := api.ListToDo(ctx)
	if err != nil {
		if ctx.Err() == nil {
			logger.WithError(err).Warn("Failed to load to-do tasks")
		}
		return
	}

	if err := scheduler.Sync(tasks); err != nil {
		logger.WithError(err).Warn("Failed to sync reminders")
		return
	}
	logger.WithField("pending", len(scheduler.Pending())).Debug("Reminders synced")
}
