package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"docqa/internal/app"
	"docqa/internal/config"
	"docqa/internal/logging"
)

func main() {
	_ = godotenv.Load()

	var cfgPath string
	root := &cobra.Command{
		Use:           "docqa",
		Short:         "Answer questions about a document using retrieval-grounded generation",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "path to YAML config file (default ./config.yaml or ~/.config/docqa/config.yaml)")

	root.AddCommand(chatCMD(&cfgPath), askCMD(&cfgPath), serveCMD(&cfgPath), historyCMD(&cfgPath))
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func loadConfig(path string) (*config.AppConfig, error) {
	if path == "" {
		cfg, _, err := config.LoadDefault()
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		return cfg, nil
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

// documentPath prefers the positional argument over the configured path.
func documentPath(cfg *config.AppConfig, args []string) (string, error) {
	if len(args) > 0 {
		return args[0], nil
	}
	if cfg.Document.Path != "" {
		return cfg.Document.Path, nil
	}
	return "", fmt.Errorf("no document given: pass a path or set document.path in the config")
}

// session is a configured and set-up pipeline plus the resources behind it.
type session struct {
	cfg    *config.AppConfig
	app    *app.App
	logger *slog.Logger
	logs   io.Closer
}

func (s *session) Close() {
	_ = s.app.Close()
	_ = s.logs.Close()
}

// start loads config, builds the components and runs setup on the document.
func start(ctx context.Context, cfgPath string, args []string, console io.Writer, reg prometheus.Registerer) (*session, error) {
	cfg, err := loadConfig(cfgPath)
	if err != nil {
		return nil, err
	}
	doc, err := documentPath(cfg, args)
	if err != nil {
		return nil, err
	}
	logger, logs, err := logging.New(cfg.Logging, console)
	if err != nil {
		return nil, err
	}
	a, err := app.Build(ctx, cfg, logger, reg)
	if err != nil {
		_ = logs.Close()
		return nil, err
	}
	s := &session{cfg: cfg, app: a, logger: logger, logs: logs}
	if err := a.Pipeline.Setup(ctx, doc); err != nil {
		s.Close()
		return nil, fmt.Errorf("setup failed: %w", err)
	}
	return s, nil
}
