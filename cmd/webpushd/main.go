package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/goliatone/go-webpush/internal/auth"
	"github.com/goliatone/go-webpush/internal/transport/httpapi"
	"github.com/goliatone/go-webpush/internal/transport/kafka"
	"github.com/goliatone/go-webpush/internal/transport/ws"
	"github.com/goliatone/go-webpush/pkg/adapters/webpush"
	"github.com/goliatone/go-webpush/pkg/config"
	"github.com/goliatone/go-webpush/pkg/credentials"
	"github.com/goliatone/go-webpush/pkg/interfaces/logger"
	"github.com/goliatone/go-webpush/pkg/notifier"
)

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "webpushd:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("webpushd", flag.ContinueOnError)
	configPath := fs.String("config", "", "path to a YAML or JSON config file")
	envFile := fs.String("env", ".env", "dotenv file to load when present")
	generate := fs.Bool("generate-keys", false, "print a new VAPID key pair and exit")
	persist := fs.Bool("persist", false, "with -generate-keys, store the pair in the widget credentials")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if err := godotenv.Load(*envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("load %s: %w", *envFile, err)
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		return err
	}

	lgr := logger.New(logger.WithLevel(logger.ParseLevel(cfg.Logging.Level)))

	providers, db, err := openStorage(ctx, cfg.Storage)
	if err != nil {
		return err
	}
	if db != nil {
		defer db.Close()
	}

	hub := ws.NewHub(lgr)
	defer hub.Close()

	module, err := notifier.NewModule(notifier.ModuleOptions{
		Config:      cfg,
		Storage:     providers,
		Logger:      lgr,
		Broadcaster: hub,
	})
	if err != nil {
		return err
	}

	if *generate {
		return generateKeys(ctx, stdout, module, *persist)
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := module.Start(ctx); err != nil {
		return err
	}

	var validator auth.TokenValidator
	if cfg.Auth.JWTSecret != "" {
		validator = auth.NewJWTValidator(cfg.Auth.JWTSecret)
	}
	e, err := httpapi.New(httpapi.Dependencies{
		Commands:      module,
		Subscriptions: module.Registry(),
		Validator:     validator,
		Permission:    cfg.Auth.Permission,
		KeyGen:        webpush.GenerateKeys,
		Credentials:   module.Credentials(),
		WidgetID:      cfg.Widget.ID,
		BasePath:      cfg.Server.BasePath,
		WebSocket:     ws.NewHandler(hub, module.Handle),
		Clients:       hub,
		Logger:        lgr,
	})
	if err != nil {
		return err
	}

	if cfg.Kafka.Enabled {
		consumer, err := kafka.NewConsumer(cfg.Kafka, module.Handle, lgr)
		if err != nil {
			return err
		}
		defer consumer.Close()
		go func() {
			if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				lgr.Error("kafka consumer stopped", "error", err)
			}
		}()
	}

	addr := net.JoinHostPort(cfg.Server.Host, cfg.Server.Port)
	errCh := make(chan error, 1)
	go func() {
		lgr.Info("webpushd listening", "addr", addr, "widget_id", cfg.Widget.ID, "storage", cfg.Storage.Driver)
		errCh <- e.Start(addr)
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	lgr.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}

func loadConfig(path string) (config.Config, error) {
	var (
		cfg config.Config
		err error
	)
	if path != "" {
		cfg, err = config.LoadFile(path)
	} else {
		cfg, err = config.Load(config.Defaults())
	}
	if err != nil {
		return config.Config{}, err
	}
	cfg = config.ApplyEnv(cfg, os.Getenv)
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

func generateKeys(ctx context.Context, out io.Writer, module *notifier.Module, persist bool) error {
	pub, priv, err := webpush.GenerateKeys()
	if err != nil {
		return fmt.Errorf("generate VAPID keys: %w", err)
	}
	fmt.Fprintf(out, "public_key=%s\nprivate_key=%s\n", pub, priv)
	if !persist {
		return nil
	}
	widgetID := module.Config().Widget.ID
	if err := credentials.StoreVAPID(ctx, module.Credentials(), widgetID, pub, priv); err != nil {
		return err
	}
	fmt.Fprintf(out, "stored for widget %s\n", widgetID)
	return nil
}
