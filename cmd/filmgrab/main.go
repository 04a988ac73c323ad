package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/use-agent/filmgrab/api/handler"
	"github.com/use-agent/filmgrab/config"
	"github.com/use-agent/filmgrab/engine"
	"github.com/use-agent/filmgrab/scraper"
)

var (
	cfg     *config.Config
	envFile string
)

var rootCmd = &cobra.Command{
	Use:     "filmgrab",
	Short:   "Scrape movie pages and resolve their download redirects",
	Version: handler.Version,
	Long: `filmgrab fetches a movie page, extracts its title, poster and
per-quality server links, and resolves each link to its download redirect.

Running without a subcommand starts the HTTP server.

Environment Variables:
  PORT / FILMGRAB_PORT          Listen port (default 5000)
  FILMGRAB_FETCH_TIMEOUT        Per-request timeout (default 15s)
  FILMGRAB_RESOLVE_CONCURRENCY  Qualities resolved at once (default 4)
  FILMGRAB_BROWSER_ENABLED      Add the headless browser engine
  FILMGRAB_API_KEYS             Comma-separated API keys (empty: open)
  FILMGRAB_LOG_LEVEL            debug, info, warn, error`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := config.LoadEnvFile(envFile); err != nil {
			return fmt.Errorf("load env file: %w", err)
		}
		cfg = config.Load()
		initLogger(cfg.Log)
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context())
	},
}

func main() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file to load before reading the environment")
	rootCmd.AddCommand(serveCmd, scrapeCmd)
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// closer releases engine resources on shutdown.
type closer func()

// buildScraper assembles the engines and the pipeline. The plain HTTP engine
// always serves HEAD probes; the browser engine, when enabled, only joins the
// page-fetch race behind it.
func buildScraper(cfg *config.Config) (*scraper.Scraper, []string, closer, error) {
	httpEngine := engine.NewHTTPEngine(cfg.Scraper.UserAgent)
	engines := []engine.Engine{httpEngine}
	release := closer(func() {})

	if cfg.Browser.Enabled {
		rodEngine, err := engine.NewRodEngine(cfg.Browser, cfg.Scraper.UserAgent)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("init browser engine: %w", err)
		}
		engines = append(engines, rodEngine)
		release = rodEngine.Close
	}

	dispatcher := engine.NewDispatcher(engines, cfg.Engine.EscalationDelays)
	slog.Info("fetch engines ready",
		"engines", dispatcher.Engines(),
		"delays", cfg.Engine.EscalationDelays,
	)

	sc, err := scraper.NewScraper(dispatcher, httpEngine, cfg.Scraper)
	if err != nil {
		release()
		return nil, nil, nil, err
	}
	return sc, dispatcher.Engines(), release, nil
}

// initLogger configures slog based on the LogConfig.
func initLogger(cfg config.LogConfig) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	var h slog.Handler
	if cfg.Format == "text" {
		h = slog.NewTextHandler(os.Stderr, opts)
	} else {
		h = slog.NewJSONHandler(os.Stderr, opts)
	}

	slog.SetDefault(slog.New(h))
}
