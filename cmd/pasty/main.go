package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"pasty/cfg"
	"pasty/pkg/secrets"
	"pasty/svc/api"
	"pasty/svc/author"
	"pasty/svc/db"
	"pasty/svc/svc"
	"pasty/svc/util"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

func main() {
	if len(os.Args) > 1 && os.Args[1] == "-health" {
		os.Exit(healthCheck())
	}
	if err := run(); err != nil {
		// Driver and provider errors can echo the store URI.
		util.Fatal().Str("error", util.RedactSecret(err.Error())).Msg("pasty exited with error")
	}
	util.Info().Msg("Shutdown complete")
}

// healthCheck opens the configured store and pings it. Used as the container
// health command, so it only reports through the exit code.
func healthCheck() int {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	c, err := cfg.Load()
	if err != nil {
		return 1
	}
	if c.SecretsFromProvider {
		if err := resolveSecrets(ctx, c); err != nil {
			return 1
		}
	}
	coll, err := db.Open(ctx, c)
	if err != nil {
		return 1
	}
	defer coll.Close()
	if err := coll.Ping(ctx); err != nil {
		return 1
	}
	return 0
}

func run() error {
	c, err := cfg.Load()
	if err != nil {
		return errors.Wrap(err, "failed to load configuration")
	}
	if err := cfg.Validate(c); err != nil {
		return errors.Wrap(err, "invalid configuration")
	}
	defer c.Wipe()
	util.InitLog(c.LogLevel, c.Environment == "development")
	util.Info().Str("environment", c.Environment).Msg("starting pasty")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if c.SecretsFromProvider {
		if err := resolveSecrets(ctx, c); err != nil {
			return err
		}
		if err := cfg.ValidateSecrets(c); err != nil {
			return errors.Wrap(err, "invalid secrets")
		}
		util.Info().Msg("secrets loaded from provider")
	}

	deriver, err := author.NewDeriver(c.Pepper.Bytes())
	if err != nil {
		return errors.Wrap(err, "failed to initialize author deriver")
	}
	c.Pepper.Wipe()

	coll, err := db.Open(ctx, c)
	if err != nil {
		deriver.Wipe()
		return errors.Wrap(err, "failed to open store")
	}
	defer coll.Close()
	util.Info().Str("store", storeKind(coll)).Msg("store opened")

	pasteSvc := svc.NewPaste(coll)
	server := api.NewServer(c, pasteSvc, deriver)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(server.Start)
	if m, ok := coll.(db.Maintainer); ok {
		g.Go(func() error { return m.Maintain(gctx) })
		util.Info().Msg("store maintenance worker started")
	}
	g.Go(func() error {
		<-gctx.Done()
		util.Info().Msg("shutting down gracefully...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			util.Error().Err(err).Msg("server shutdown error")
			return err
		}
		return nil
	})
	err = g.Wait()
	deriver.Wipe()
	return err
}

// resolveSecrets replaces the pepper and store URI with values from the
// configured secret provider.
func resolveSecrets(ctx context.Context, c *cfg.Cfg) error {
	adapter, err := secrets.NewAdapter(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to initialize secret provider")
	}
	pepper, err := adapter.GetSecret(ctx, "IP_PEPPER")
	if err != nil {
		return errors.Wrap(err, "CRITICAL: failed to load IP_PEPPER")
	}
	storeURI, err := adapter.GetSecret(ctx, "STORE_URI")
	if err != nil {
		return errors.Wrap(err, "CRITICAL: failed to load STORE_URI")
	}
	c.Pepper.Wipe()
	c.StoreURI.Wipe()
	c.Pepper = cfg.NewSecret(pepper)
	c.StoreURI = cfg.NewSecret(storeURI)
	return nil
}

func storeKind(coll db.Collection) string {
	switch coll.(type) {
	case *db.Mongo:
		return "mongodb"
	case *db.Redis:
		return "redis"
	case *db.SQLite:
		return "sqlite"
	default:
		return "unknown"
	}
}
