package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"pipwatch/src/config"
	"pipwatch/src/dashboard"
	"pipwatch/src/indicators"
	"pipwatch/src/notify"
	"pipwatch/src/quotes"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

func main() {
	interval := flag.Float64("interval", 0, "data update interval in seconds (default 60)")
	minRR := flag.Float64("min-rr", 0, "minimum risk/reward ratio for the opportunities footer (default 1.5)")
	clear := flag.Bool("clear", false, "clear terminal before the first render")
	configPath := flag.String("config", "pipwatch.yaml", "path to YAML config file")
	logPath := flag.String("log", "", "log file path (logs are discarded while the dashboard owns the terminal)")
	flag.Parse()

	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	if err := loadEnvFile(); err != nil {
		logger.WithError(err).Warn("could not load .env file, using system environment")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fatal(err)
	}

	// Flags win over file and environment
	flagsSet := make(map[string]bool)
	flag.Visit(func(f *flag.Flag) { flagsSet[f.Name] = true })
	if err := applyFlagOverrides(cfg, flagsSet, *interval, *minRR); err != nil {
		fatal(err)
	}
	if err := cfg.Validate(); err != nil {
		fatal(err)
	}

	// The TUI owns stdout from here on; route logs to a file or drop them
	if *logPath != "" {
		f, err := os.OpenFile(*logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			fatal(fmt.Errorf("open log file: %w", err))
		}
		defer f.Close()
		logger.SetOutput(f)
	} else {
		logger.SetOutput(io.Discard)
	}

	provider := quotes.NewYahooProvider(quotes.YahooOptions{
		Timeout:        cfg.ProviderTimeout(),
		ProxyURL:       cfg.Provider.Proxy,
		RequestsPerSec: cfg.Provider.RequestsPerSec,
	}, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var stream *quotes.Stream
	if cfg.StreamURL != "" {
		stream = quotes.NewStream(cfg.StreamURL, cfg.Pairs, logger)
		go stream.Run(ctx)
	}

	calc := indicators.NewCalculator(indicators.Config{
		ShortWindow:   cfg.Indicators.ShortWindow,
		LongWindow:    cfg.Indicators.LongWindow,
		RSIWindow:     cfg.Indicators.RSIWindow,
		Annualization: cfg.Indicators.Annualization,
	})

	pipeline := dashboard.NewPipeline(provider, calc, stream, cfg.Lookback, logger)

	notifier := notify.NewTelegramNotifier(
		cfg.Telegram.BotToken,
		cfg.Telegram.ChatID,
		time.Duration(cfg.Telegram.CooldownMinutes)*time.Minute,
	)

	model := dashboard.NewModel(pipeline, dashboard.Options{
		Pairs:      cfg.Pairs,
		Interval:   cfg.Interval(),
		Thresholds: cfg.Thresholds,
		TopN:       cfg.TopN,
		Notifier:   notifier,
		AlertScore: cfg.Telegram.AlertScore,
	})

	if *clear {
		fmt.Print("\033[2J\033[H")
	}

	program := tea.NewProgram(model, tea.WithAltScreen())

	// SIGTERM stops the loop between cycles; in-flight fetches finish or
	// time out on their own
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		program.Quit()
	}()

	if _, err := program.Run(); err != nil {
		fatal(fmt.Errorf("dashboard: %w", err))
	}
	fmt.Println("Dashboard closed. Happy trading!")
}

// applyFlagOverrides applies explicitly passed flags on top of the loaded
// config. Only flags the user actually set count, so an explicit zero is
// rejected here with a flag-shaped error instead of falling through to
// config validation.
func applyFlagOverrides(cfg *config.Config, set map[string]bool, interval, minRR float64) error {
	if set["interval"] {
		if interval <= 0 || interval != float64(int(interval)) {
			return fmt.Errorf("-interval must be a positive whole number of seconds, got %g", interval)
		}
		cfg.UpdateInterval = int(interval)
	}
	if set["min-rr"] {
		if minRR <= 0 {
			return fmt.Errorf("-min-rr must be positive, got %g", minRR)
		}
		cfg.Thresholds.MinRiskReward = minRR
	}
	return nil
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}

// loadEnvFile loads .env from the project root (the directory holding
// go.mod), same as running from a subdirectory during development
func loadEnvFile() error {
	workDir, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("get working directory: %w", err)
	}

	rootDir := workDir
	for {
		if _, err := os.Stat(filepath.Join(rootDir, "go.mod")); err == nil {
			break
		}
		parent := filepath.Dir(rootDir)
		if parent == rootDir {
			// Not inside the project tree; rely on system env vars
			return nil
		}
		rootDir = parent
	}

	envPath := filepath.Join(rootDir, ".env")
	if err := godotenv.Load(envPath); err != nil {
		// Missing .env is fine
		return nil
	}
	return nil
}
