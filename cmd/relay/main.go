package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/invopop/jsonschema"
	"github.com/tradewire-lab/fxrelay/internal/broker"
	"github.com/tradewire-lab/fxrelay/internal/config"
	"github.com/tradewire-lab/fxrelay/internal/coordinator"
	"github.com/tradewire-lab/fxrelay/internal/logger"
	"github.com/tradewire-lab/fxrelay/internal/server"
	"github.com/tradewire-lab/fxrelay/internal/symbolstate"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
)

// serveAction loads configuration, wires the relay, and serves until
// interrupted.
func serveAction(ctx context.Context, cmd *cli.Command) error {
	cfg, err := config.Load(cmd.String("config"))
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	appLogger, err := logger.NewLoggerWithLevel(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = appLogger.Sync() }()

	instruments, err := cfg.InstrumentTable()
	if err != nil {
		return fmt.Errorf("failed to build instrument table: %w", err)
	}

	venue, err := broker.NewOandaClient(cfg.Broker, instruments, appLogger)
	if err != nil {
		return fmt.Errorf("failed to create venue client: %w", err)
	}

	coord, err := coordinator.New(cfg.Coordinator, venue, instruments, symbolstate.NewStore(),
		coordinator.NewClock(), coordinator.NewSleeper(), appLogger)
	if err != nil {
		return fmt.Errorf("failed to create coordinator: %w", err)
	}

	srv := server.NewServer(cfg.Server, coord, venue, appLogger)
	if err := srv.Start(); err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}

	notifyCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-notifyCtx.Done()

	appLogger.Info("shutting down", zap.String("reason", "signal received"))

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Stop(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}

	return nil
}

// schemaAction prints the JSON schema of the config file so deployments can
// validate their YAML before rollout.
func schemaAction(_ context.Context, _ *cli.Command) error {
	r := new(jsonschema.Reflector)
	r.DoNotReference = true
	schema := r.Reflect(&config.Config{})

	out, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal schema: %w", err)
	}

	fmt.Println(string(out))

	return nil
}

func main() {
	cmd := &cli.Command{
		Name:  "relay",
		Usage: "Webhook-driven FX order-execution relay",
		Commands: []*cli.Command{
			{
				Name:  "serve",
				Usage: "Run the webhook server",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "config",
						Aliases:  []string{"c"},
						Usage:    "Path to the YAML config file",
						Required: false,
					},
				},
				Action: serveAction,
			},
			{
				Name:   "schema",
				Usage:  "Print the config file JSON schema",
				Action: schemaAction,
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}
