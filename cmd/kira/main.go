package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/kiralabs/kira/internal/profile"
	"github.com/kiralabs/kira/internal/version"
	"github.com/kiralabs/kira/plugin/ai"
	"github.com/kiralabs/kira/plugin/ai/timeout"
	apiv1 "github.com/kiralabs/kira/server/router/api/v1"
	ratelimit "github.com/kiralabs/kira/server/middleware"
	"github.com/kiralabs/kira/server/runner/knowledge"
	"github.com/kiralabs/kira/server/service/route"
	"github.com/kiralabs/kira/store"
	"github.com/kiralabs/kira/store/db"
)

var (
	rootCmd = &cobra.Command{
		Use:           "kira",
		Short:         `Message router: classify, load context, respond, and record.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			logger, err := newLogger(os.Stderr, viper.GetString("log-format"), viper.GetString("log-level"))
			if err != nil {
				return err
			}
			slog.SetDefault(logger)
			return nil
		},
	}

	routeCmd = &cobra.Command{
		Use:   "route",
		Short: "Route one message and print the reply as JSON",
		RunE: func(cmd *cobra.Command, _ []string) error {
			in := &route.Inbound{
				Platform:   viper.GetString("platform"),
				SenderID:   viper.GetString("sender-id"),
				Message:    viper.GetString("message"),
				SenderName: viper.GetString("sender-name"),
				ChatID:     viper.GetString("chat-id"),
			}
			return runRoute(cmd.Context(), in)
		},
	}

	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context())
		},
	}

	knowledgeCmd = &cobra.Command{
		Use:   "knowledge",
		Short: "Manage the knowledge base",
	}

	knowledgeIndexCmd = &cobra.Command{
		Use:   "index",
		Short: "Embed the markdown documents of a directory into the knowledge base",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runKnowledgeIndex(cmd.Context(), viper.GetString("dir"))
		},
	}

	migrateCmd = &cobra.Command{
		Use:   "migrate",
		Short: "Apply the schema for the configured driver",
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, _, err := openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer s.Close()
			slog.Info("schema is up to date")
			return nil
		},
	}
)

func loadProfile() (*profile.Profile, error) {
	p := &profile.Profile{
		Mode:   viper.GetString("mode"),
		Addr:   viper.GetString("addr"),
		Port:   viper.GetInt("port"),
		Data:   viper.GetString("data"),
		Driver: viper.GetString("driver"),
		DSN:    viper.GetString("dsn"),
	}
	p.FromEnv()
	if dir := viper.GetString("scripts-dir"); dir != "" {
		p.ScriptsDir = dir
	}
	if err := p.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid configuration")
	}
	p.Version = version.GetCurrentVersion(p.Mode)
	return p, nil
}

func openStore(ctx context.Context) (*store.Store, *profile.Profile, error) {
	p, err := loadProfile()
	if err != nil {
		return nil, nil, err
	}
	driver, err := db.NewDBDriver(p)
	if err != nil {
		return nil, nil, err
	}
	s := store.New(driver, p)
	if err := s.Migrate(ctx); err != nil {
		_ = s.Close()
		return nil, nil, errors.Wrap(err, "failed to migrate")
	}
	return s, p, nil
}

func runRoute(ctx context.Context, in *route.Inbound) error {
	if err := in.Validate(); err != nil {
		return err
	}

	s, p, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	pipeline, err := route.NewPipeline(p, s, os.Stderr)
	if err != nil {
		return err
	}

	out, err := pipeline.Service.Route(ctx, in)
	if err != nil {
		_ = pipeline.Close(ctx)
		return err
	}
	if err := json.NewEncoder(os.Stdout).Encode(out); err != nil {
		_ = pipeline.Close(ctx)
		return errors.Wrap(err, "failed to write output")
	}

	// The reply is out; wait for the background batch before exiting.
	closeCtx, cancel := context.WithTimeout(context.Background(), timeout.ShutdownTimeout)
	defer cancel()
	return pipeline.Close(closeCtx)
}

func runKnowledgeIndex(ctx context.Context, dir string) error {
	if dir == "" {
		return errors.New("--dir is required")
	}
	docs, err := knowledge.LoadDir(dir)
	if err != nil {
		return errors.Wrap(err, "failed to load documents")
	}

	s, p, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	cfg := ai.NewConfigFromProfile(p)
	embedder, err := ai.NewEmbeddingService(&cfg.Embedding)
	if err != nil {
		return errors.Wrap(err, "failed to create embedding service")
	}

	stored, err := knowledge.NewRunner(s, embedder).IndexDocuments(ctx, docs)
	if err != nil {
		return err
	}
	slog.Info("knowledge base indexed", "documents", len(docs), "entries", stored)
	return nil
}

func runServe(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	s, p, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	pipeline, err := route.NewPipeline(p, s, os.Stderr)
	if err != nil {
		return err
	}

	limiter := ratelimit.NewRateLimiter(0, 0)
	api := apiv1.NewAPIV1Service(p, pipeline.Service, pipeline.Metrics).WithRateLimiter(limiter)
	api.Lifetime = pipeline.Service.Lifetime()

	echoServer := apiv1.NewEchoServer(p)
	api.RegisterRoutes(echoServer)

	go sweepLimiter(ctx, limiter)

	addr := net.JoinHostPort(p.Addr, strconv.Itoa(p.Port))
	errCh := make(chan error, 1)
	go func() {
		slog.Info("kira started", "version", p.Version, "mode", p.Mode, "driver", p.Driver, "addr", addr)
		if err := echoServer.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return errors.Wrap(err, "http server failed")
		}
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout.ShutdownTimeout)
	defer cancel()
	if err := echoServer.Shutdown(shutdownCtx); err != nil {
		slog.Warn("http server shutdown failed", "error", err)
	}
	if err := pipeline.Close(shutdownCtx); err != nil {
		slog.Warn("background batches not drained", "pending", pipeline.Dispatcher.Pending(), "error", err)
	}
	slog.Info("kira stopped")
	return nil
}

func sweepLimiter(ctx context.Context, limiter *ratelimit.RateLimiter) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			limiter.Sweep()
		case <-ctx.Done():
			return
		}
	}
}

func init() {
	viper.SetDefault("mode", "dev")
	viper.SetDefault("driver", "sqlite")
	viper.SetDefault("port", 8081)
	viper.SetDefault("log-format", "text")
	viper.SetDefault("log-level", "info")

	rootCmd.PersistentFlags().String("mode", "dev", `mode of server, can be "prod" or "dev" or "demo"`)
	rootCmd.PersistentFlags().String("data", "", "data directory for the sqlite driver")
	rootCmd.PersistentFlags().String("driver", "sqlite", `database driver, "sqlite" or "postgres"`)
	rootCmd.PersistentFlags().String("dsn", "", "database source name")
	rootCmd.PersistentFlags().String("scripts-dir", "", "directory of the local command scripts")
	rootCmd.PersistentFlags().String("log-format", "text", `log format, "text" or "json"`)
	rootCmd.PersistentFlags().String("log-level", "info", "log level: debug, info, warn, error")

	serveCmd.Flags().String("addr", "", "address of server")
	serveCmd.Flags().Int("port", 8081, "port of server")

	knowledgeIndexCmd.Flags().String("dir", "", "directory of markdown documents")

	routeCmd.Flags().String("platform", "", "source platform (telegram, discord, x, ...)")
	routeCmd.Flags().String("sender-id", "", "platform-specific sender id")
	routeCmd.Flags().String("message", "", "message text")
	routeCmd.Flags().String("sender-name", "", "display name of the sender")
	routeCmd.Flags().String("chat-id", "", "platform chat id, defaults to the sender id")

	bind := func(key string, cmd *cobra.Command, persistent bool) {
		flagSet := cmd.Flags()
		if persistent {
			flagSet = cmd.PersistentFlags()
		}
		if err := viper.BindPFlag(key, flagSet.Lookup(key)); err != nil {
			panic(err)
		}
	}
	for _, key := range []string{"mode", "data", "driver", "dsn", "scripts-dir", "log-format", "log-level"} {
		bind(key, rootCmd, true)
	}
	bind("dir", knowledgeIndexCmd, false)
	bind("addr", serveCmd, false)
	bind("port", serveCmd, false)
	for _, key := range []string{"platform", "sender-id", "message", "sender-name", "chat-id"} {
		bind(key, routeCmd, false)
	}

	viper.SetEnvPrefix("kira")
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))

	knowledgeCmd.AddCommand(knowledgeIndexCmd)
	rootCmd.AddCommand(routeCmd, serveCmd, knowledgeCmd, migrateCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
