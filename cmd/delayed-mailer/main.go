// Command delayed-mailer sends the deadline reminders queued on the "mailers" queue.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"assignment-management-api/config"
	"assignment-management-api/services"

	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}
	config.ReloadMailerConfig()

	logFile, _ := config.InitLogging()
	if logFile != nil {
		defer logFile.Close()
	}

	var (
		once     bool
		dryRun   bool
		interval time.Duration
		batch    int
	)
	flag.BoolVar(&once, "once", false, "process due jobs once and exit")
	flag.BoolVar(&dryRun, "dry-run", false, "log reminders instead of sending them")
	flag.DurationVar(&interval, "interval", time.Minute, "polling interval")
	flag.IntVar(&batch, "batch", 50, "jobs claimed per poll")
	flag.Parse()

	if batch <= 0 {
		log.Fatal("batch must be greater than 0")
	}
	if config.DBDriver() == "memory" {
		log.Fatal("delayed-mailer needs DB_DRIVER=mysql or postgres; the memory store is per process")
	}

	config.InitDB()
	client := config.InitRedis()
	defer client.Close()

	send := services.MailSender(config.SendMail)
	if dryRun {
		send = func(to []string, subject, _ string) error {
			log.Printf("[delayed-mailer] dry run: %q to %s", subject, strings.Join(to, ", "))
			return nil
		}
	}

	job := services.NewDelayedMailerJobService(
		services.NewGormStore(config.DB),
		services.NewRedisMailQueue(client, services.MailerQueueName),
		send,
	)
	job.BatchSize = batch

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if once {
		summary, err := job.RunOnce(ctx)
		if err != nil {
			log.Fatalf("delayed mailer failed: %v", err)
		}
		fmt.Printf("Jobs processed: %d (sent: %d, skipped: %d, failed: %d)\n",
			summary.JobsProcessed, summary.EmailsSent, summary.JobsSkipped, summary.JobsFailed)
		if summary.JobsFailed > 0 {
			os.Exit(2)
		}
		return
	}

	log.Printf("[delayed-mailer] polling every %s", interval)
	if err := job.Run(ctx, interval); err != nil && ctx.Err() == nil {
		log.Fatalf("delayed mailer stopped: %v", err)
	}
	log.Println("[delayed-mailer] shut down")
}
