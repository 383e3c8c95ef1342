package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"runtime/debug"

	"github.com/rentiva/veriprop/internal/app"
	seeders "github.com/rentiva/veriprop/internal/seeder"
	"github.com/rentiva/veriprop/internal/version"
	"github.com/rentiva/veriprop/internal/worker"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))

	err := run(logger)
	if err != nil {
		trace := string(debug.Stack())
		logger.Error(err.Error(), "trace", trace)
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	showVersion := flag.Bool("version", false, "display version and exit")
	seed := flag.Bool("seed", false, "seed the database and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("version: %s\n", version.Get())
		return nil
	}

	application, err := app.NewApplication(logger)
	if err != nil {
		return err
	}
	defer application.DB.Close()

	if *seed {
		seeders.New(application.DB).Run()
		return nil
	}

	// queued verification attempts are consumed off the request path
	if application.Kafka != nil {
		verifyWorker := worker.New(&worker.Worker{
			KafkaStream: application.Kafka,
			DB:          application.DB,
			Engine:      application.Engine,
			Workflow:    application.Workflow,
			Ctx:         context.Background(),
		})
		go verifyWorker.VerifyDocumentWorker()
	}

	return application.ServeHTTP()
}
