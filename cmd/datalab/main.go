package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/vkarasev/datalab/internal/client/api"
	"github.com/vkarasev/datalab/internal/client/cli"
	"github.com/vkarasev/datalab/internal/client/iocli"
	"github.com/vkarasev/datalab/internal/client/session"
	"github.com/vkarasev/datalab/internal/client/storage/boltdb"
)

var (
	// Version information set via ldflags during build
	Version   = "dev"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

func main() {
	// Глобальные флаги
	showVersion := flag.Bool("version", false, "Show version information")
	serverURL := flag.String("server", defaultServerURL(), "Server URL")
	dbPath := flag.String("db", "datalab-client.db", "Path to local database")

	flag.Parse()

	if *showVersion {
		printVersion()
		os.Exit(0)
	}

	args := flag.Args()
	if len(args) == 0 {
		cli.PrintUsage()
		os.Exit(1)
	}

	command := args[0]

	ctx := context.Background()

	// Открываем BoltDB storage
	boltStorage, err := boltdb.New(ctx, *dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open database: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		if err := boltStorage.Close(); err != nil {
			slog.Error("failed to close database", "error", err)
		}
	}()

	// Собираем клиент и менеджер сессии. UseSession включает
	// автоматическую подстановку Bearer-токена и refresh-повтор
	// для всех защищенных запросов.
	apiClient := api.NewClient(*serverURL)
	manager := session.NewManager(apiClient, boltStorage)
	apiClient.UseSession(manager)

	// Восстанавливаем сессию с прошлого запуска. Неудача — не фатальна:
	// локальное состояние уже очищено, работаем как неавторизованный.
	if err := manager.Bootstrap(ctx); err != nil {
		slog.Warn("session restore failed", "error", err)
	}

	c := cli.New(manager, apiClient, iocli.NewStdio())

	if err := c.Run(ctx, command, args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func defaultServerURL() string {
	if url := os.Getenv("DATALAB_SERVER"); url != "" {
		return url
	}
	return "http://localhost:8080"
}

func printVersion() {
	fmt.Printf("DataLab Client\n")
	fmt.Printf("Version:    %s\n", Version)
	fmt.Printf("Build Date: %s\n", BuildDate)
	fmt.Printf("Git Commit: %s\n", GitCommit)
}
