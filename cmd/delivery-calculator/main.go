package main

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffhelp"
	"golang.org/x/sync/errgroup"

	"github.com/zombor/delivery-calculator/internal/delivery"
	"github.com/zombor/delivery-calculator/internal/parsing"
	"github.com/zombor/delivery-calculator/internal/report"
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

	fs := ff.NewFlagSet("delivery-calculator")
	var (
		port          = fs.IntLong("port", 8080, "HTTP server port")
		dbPath        = fs.StringLong("db", "delivery-calculator.db", "Database file path")
		timezone      = fs.StringLong("timezone", "Local", "Time zone days and shifts are counted in (e.g. Europe/Dublin)")
		retention     = fs.DurationLong("retention", delivery.DefaultRetention, "How long entries are kept")
		sweepInterval = fs.DurationLong("sweep-interval", delivery.DefaultSweepInterval, "How often expired entries are removed")
		authUser      = fs.StringLong("auth-user", "", "Basic auth username (optional)")
		authPass      = fs.StringLong("auth-pass", "", "Basic auth password (optional)")
		capture       = fs.BoolLong("capture", "Capture the clipboard text as one entry and exit")
		stdin         = fs.BoolLong("stdin", "Capture text read from stdin as one entry and exit")
		logLevel      = fs.StringLong("log-level", "info", "Log level: debug, info, warn or error")
		_             = fs.StringLong("config", "", "Config file with one 'flag value' pair per line (optional)")
		showVersion   = fs.BoolLong("version", "Show version information")
	)

	if err := ff.Parse(fs, os.Args[1:],
		ff.WithEnvVarPrefix("DELIVERY_CALCULATOR"),
		ff.WithConfigFileFlag("config"),
		ff.WithConfigFileParser(ff.PlainParser),
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

	var level slog.LevelVar
	if err := level.UnmarshalText([]byte(*logLevel)); err != nil {
		fmt.Fprintf(os.Stderr, "error: invalid log level %q\n", *logLevel)
		os.Exit(1)
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: &level})))

	loc, err := time.LoadLocation(*timezone)
	if err != nil {
		slog.Error("Invalid time zone", "timezone", *timezone, "error", err)
		os.Exit(1)
	}

	// Initialize database
	slog.Info("Initializing database...", "path", *dbPath)
	db, err := delivery.NewBoltDB(*dbPath)
	if err != nil {
		slog.Error("Failed to initialize database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	service := delivery.NewService(db, parsing.NewParser(), loc)

	// One-shot capture modes
	if *capture || *stdin {
		var src delivery.TextSource = delivery.SystemClipboard{}
		if *stdin {
			src = delivery.NewReaderSource(os.Stdin)
		}
		if err := captureOnce(service, src); err != nil {
			slog.Error("Capture failed", "error", err)
			db.Close()
			os.Exit(1)
		}
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	aggregator := report.NewAggregator(delivery.NewReportSource(db), nil, loc)
	sweeper := delivery.NewSweeper(db, *retention, *sweepInterval)

	basicAuth := delivery.BasicAuth{
		Username: *authUser,
		Password: *authPass,
	}
	server := delivery.NewServer(service, aggregator, basicAuth)

	addr := fmt.Sprintf(":%d", *port)
	slog.Info("Server started", "address", fmt.Sprintf("http://localhost%s", addr), "timezone", loc.String())
	if *authUser != "" || *authPass != "" {
		slog.Info("Basic auth enabled", "user", *authUser)
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return server.Start(ctx, addr) })
	g.Go(func() error { return aggregator.Run(ctx) })
	g.Go(func() error { return sweeper.Run(ctx) })

	if err := g.Wait(); err != nil {
		slog.Error("Server error", "error", err)
		db.Close()
		os.Exit(1)
	}

	slog.Info("Shutting down...")
}

// captureOnce stores the text of src as an entry and prints it as JSON
func captureOnce(service *delivery.Service, src delivery.TextSource) error {
	entry, err := service.CaptureFrom(src)
	if errors.Is(err, delivery.ErrNotRecognized) {
		return fmt.Errorf("no delivery address found in the text: %w", err)
	}
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(entry)
}
