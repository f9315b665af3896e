package main

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/sjawhar/ghost-coach/internal/config"
	"github.com/sjawhar/ghost-coach/internal/logging"
	"github.com/sjawhar/ghost-coach/internal/phrase"
	"github.com/sjawhar/ghost-coach/internal/server"
)

//go:embed static/*
var staticFiles embed.FS

var (
	configPath string
	envFile    string
)

var rootCmd = &cobra.Command{
	Use:           "ghost-coach",
	Short:         "Real-time bilingual conversation coach for Omi transcripts",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runServe,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the webhook server",
	RunE:  runServe,
}

var extractCmd = &cobra.Command{
	Use:   "extract <suggestion>",
	Short: "Print the Portuguese phrase a coaching reply would speak",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runExtract,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", defaultConfigPath(), "Path to the YAML config file")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "Dotenv file loaded before config (missing is fine)")
	rootCmd.AddCommand(serveCmd, extractCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func defaultConfigPath() string {
	if v := os.Getenv(config.EnvPrefix + "CONFIG"); v != "" {
		return v
	}
	return "config.yaml"
}

func runServe(cmd *cobra.Command, _ []string) error {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", envFile, err)
		}
	}

	cfg, warnings, err := config.Load(configPath)
	if err != nil {
		return err
	}
	logging.Setup(os.Stderr, cfg.LogLevel, cfg.LogFormat)
	for _, w := range warnings {
		log.Warn(w)
	}

	assets, err := fs.Sub(staticFiles, "static")
	if err != nil {
		return fmt.Errorf("static assets: %w", err)
	}

	a, err := newApp(cfg, warnings, assets)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return server.Serve(gctx, cfg.ListenAddr, a.handler)
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("ghost-coach: shutting down")
		a.close()
		return nil
	})

	log.WithFields(log.Fields{
		"webhook": cfg.PublicBaseURL + "/webhook",
		"model":   cfg.CoachModel,
		"tts":     cfg.TTSProvider,
	}).Info("ghost-coach: ready")

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func runExtract(cmd *cobra.Command, args []string) error {
	suggestion := strings.Join(args, " ")
	p, ok := phrase.Extract(suggestion)
	if !ok {
		_, err := fmt.Fprintln(cmd.OutOrStdout(), "no speakable Portuguese phrase")
		return err
	}
	_, err := fmt.Fprintln(cmd.OutOrStdout(), p)
	return err
}
