package main

import (
	_ "embed"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffhelp"

	"expendita/internal/api"
	"expendita/internal/ingest"
	"expendita/internal/receipt"
	"expendita/internal/scanning"
	"expendita/internal/suf"
)

//go:embed VERSION.txt
var versionFile string

var version = strings.TrimSpace(versionFile)

func main() {
	// Check for version flag before parsing other flags
	for _, arg := range os.Args[1:] {
		if arg == "--version" || arg == "-version" || arg == "-v" {
			fmt.Println(version)
			os.Exit(0)
		}
	}

	fs := ff.NewFlagSet("expendita")
	var (
		port         = fs.IntLong("port", 8080, "HTTP server port")
		dbPath       = fs.StringLong("db", "expendita.db", "Database file path")
		storagePath  = fs.StringLong("files", "./uploads", "Uploaded artifact directory path")
		fetcherType  = fs.StringLong("fetcher", "chrome", "Verification page fetcher: 'chrome' or 'http'")
		settle       = fs.DurationLong("settle", 2*time.Second, "Wait after expanding the verification page before reading it")
		patternsPath = fs.StringLong("suf-patterns", "", "JSON file overriding the verification page extraction patterns")
		authUser     = fs.StringLong("auth-user", "", "Basic auth username (optional)")
		authPass     = fs.StringLong("auth-pass", "", "Basic auth password (optional)")
		showVersion  = fs.BoolLong("version", "Show version information")
	)

	if err := ff.Parse(fs, os.Args[1:],
		ff.WithEnvVarPrefix("EXPENDITA"),
	); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", ffhelp.Flags(fs))
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	// Check version flag after parsing
	if *showVersion {
		fmt.Println(version)
		os.Exit(0)
	}

	// Load extraction patterns, defaults unless overridden
	patterns := suf.DefaultPatterns()
	if *patternsPath != "" {
		var err error
		patterns, err = suf.LoadPatterns(*patternsPath)
		if err != nil {
			slog.Error("Failed to load extraction patterns", "path", *patternsPath, "error", err)
			os.Exit(1)
		}
		slog.Info("Loaded extraction pattern overrides", "path", *patternsPath)
	}

	// Initialize database
	slog.Info("Initializing database...")
	db, err := receipt.NewBoltDB(*dbPath)
	if err != nil {
		slog.Error("Failed to initialize database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	// Initialize the verification page fetcher based on type
	var fetcher suf.PageFetcher
	switch *fetcherType {
	case "chrome":
		slog.Info("Initializing Chrome fetcher...", "settle", *settle)
		fetcher = suf.NewChromeFetcher(*settle, patterns)
	case "http":
		slog.Info("Initializing HTTP fetcher...")
		fetcher = suf.NewHTTPFetcher(patterns)
	default:
		slog.Error("Invalid fetcher type", "type", *fetcherType, "valid", "chrome or http")
		os.Exit(1)
	}

	// Initialize storage
	slog.Info("Initializing storage...")
	store, err := receipt.NewLocalStorage(*storagePath)
	if err != nil {
		slog.Error("Failed to initialize storage", "error", err)
		os.Exit(1)
	}

	// Wire the pipeline: service for CRUD, ingestor for scans, zxing for
	// uploaded artifacts
	receiptService := receipt.NewService(db, store)
	extractor := suf.NewExtractor(fetcher, patterns)
	ingestor := ingest.NewIngestor(db, extractor)
	reader := scanning.NewZxingReader()

	basicAuth := api.BasicAuth{
		Username: *authUser,
		Password: *authPass,
	}
	server := api.NewServer(receiptService, ingestor, reader, basicAuth)

	// Start server in goroutine
	addr := fmt.Sprintf(":%d", *port)
	go func() {
		if err := server.Start(addr); err != nil {
			slog.Error("Server error", "error", err)
			os.Exit(1)
		}
	}()

	slog.Info("Server started", "address", fmt.Sprintf("http://localhost%s", addr))
	if *authUser != "" || *authPass != "" {
		slog.Info("Basic auth enabled", "user", *authUser)
	}

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	slog.Info("Shutting down...")
}
