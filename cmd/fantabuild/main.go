package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/SafeDevelopers/fantabuild-sub001/internal/app"
	"github.com/SafeDevelopers/fantabuild-sub001/internal/config"

	log "github.com/sirupsen/logrus"
)

// main runs the CLI entrypoint and exits non-zero on command errors.
func main() {
	if errRun := run(context.Background(), os.Args[1:]); errRun != nil {
		log.WithError(errRun).Error("command failed")
		os.Exit(1)
	}
}

// run parses the subcommand and flags, loads config, and dispatches.
func run(ctx context.Context, args []string) error {
	command := "migrate"
	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		command = args[0]
		args = args[1:]
	}

	fs := flag.NewFlagSet("fantabuild", flag.ContinueOnError)
	cfgPath := fs.String("config", "", "config file path (or env CONFIG_PATH)")
	port := fs.Int("port", 8318, "server port (serve only)")
	if errParse := fs.Parse(args); errParse != nil {
		return errParse
	}

	appCfg, err := config.LoadFromEnv()
	if err != nil {
		return err
	}
	if strings.TrimSpace(*cfgPath) != "" {
		appCfg.ConfigPath = config.ResolveConfigPath(*cfgPath)
	}

	switch command {
	case "migrate":
		return app.RunMigrate(ctx, appCfg)
	case "serve":
		if errValidate := validatePort(*port); errValidate != nil {
			return errValidate
		}
		serveCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
		defer stop()
		return app.RunServer(serveCtx, appCfg, *port)
	default:
		return fmt.Errorf("unknown command: %s (want migrate or serve)", command)
	}
}

func validatePort(port int) error {
	if port <= 0 || port > 65535 {
		return fmt.Errorf("invalid port: %d", port)
	}
	return nil
}
