package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/example/jdoitbot/internal/bot"
	"github.com/example/jdoitbot/internal/database"
	"github.com/example/jdoitbot/internal/grader"
	"github.com/example/jdoitbot/internal/homework"
	"github.com/example/jdoitbot/internal/progress"
	"github.com/example/jdoitbot/internal/scheduler"
	"github.com/example/jdoitbot/internal/session"
	"github.com/example/jdoitbot/internal/web"
	"github.com/joho/godotenv"
)

const (
	defaultHomeworkFile = "homework.xlsx"
	defaultUsersFile    = "users.json"
	defaultUsersSheet   = "users_sheet.xlsx"
	defaultWebAddr      = ":8501"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := database.Connect(); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close()

	// Stores: homework workbook, local progress file with sheet mirror.
	hwStore := homework.NewWorkbookStore(envOr("HOMEWORK_FILE", defaultHomeworkFile))
	syncer := progress.NewSheetSyncer(envOr("USERS_SHEET_FILE", defaultUsersSheet))
	progStore := progress.NewFileStore(envOr("USERS_FILE", defaultUsersFile), syncer)

	gateway, err := grader.NewFromEnv()
	if err != nil {
		log.Fatalf("Failed to create scoring gateway: %v", err)
	}

	subs := database.NewSubmissionRepository()
	sess := session.New(hwStore, progStore, gateway, subs)

	b, err := bot.New(sess, progStore, hwStore, subs)
	if err != nil {
		log.Fatalf("Failed to create bot: %v", err)
	}

	// Daily homework delivery through the bot.
	var sched *scheduler.Scheduler
	if os.Getenv("ENABLE_SCHEDULER") != "false" {
		sched = scheduler.New(b, progStore, hwStore)
	}

	// Web front end runs alongside the bot.
	srv := web.NewServer(sess, progStore, hwStore, subs)
	go func() {
		addr := envOr("WEB_ADDR", defaultWebAddr)
		log.Printf("Web front end listening on %s", addr)
		if err := srv.Run(addr); err != nil {
			log.Printf("Web server error: %v", err)
		}
	}()

	go func() {
		sig := <-sigChan
		log.Printf("Received signal: %v", sig)
		if sched != nil {
			sched.Stop()
		}
		cancel()
	}()

	log.Println("Bot started. Press Ctrl+C to stop.")
	go func() {
		if err := b.Start(ctx); err != nil && err != context.Canceled {
			log.Printf("Bot error: %v", err)
		}
	}()

	if sched != nil {
		sched.Start()
	}

	<-ctx.Done()
	log.Println("Bot stopped successfully")
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
