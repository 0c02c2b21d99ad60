package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/automation-hub/hub/internal/app"
	"github.com/automation-hub/hub/internal/config"

	log "github.com/sirupsen/logrus"
)

// main runs the CLI entrypoint and exits on unrecoverable command errors.
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if errRun := run(ctx, os.Args[1:]); errRun != nil {
		log.WithError(errRun).Error("command failed")
		os.Exit(1)
	}
}

// run parses flags, loads config, and runs the selected command or the server.
func run(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("hub", flag.ContinueOnError)
	cfgPath := fs.String("config", "", "config file path (or env CONFIG_PATH)")
	port := fs.Int("port", 8318, "server port")
	migrate := fs.Bool("migrate", false, "run database migrations and exit")
	cleanupOrphans := fs.Bool("cleanup-orphans", false, "delete mappings whose local entity is gone and exit")
	importFile := fs.String("import-file", "", "apply a bank-hub export file and exit")
	userEmail := fs.String("create-user-email", "", "create a local API user with this email and exit")
	userName := fs.String("create-user-name", "", "display name for -create-user-email")
	userPassword := fs.String("create-user-password", "", "password for -create-user-email")
	if errParse := fs.Parse(args); errParse != nil {
		return errParse
	}

	if errValidate := validatePort(*port); errValidate != nil {
		return errValidate
	}

	appCfg, err := config.LoadFromEnv()
	if err != nil {
		return err
	}
	if strings.TrimSpace(*cfgPath) != "" {
		appCfg.ConfigPath = config.ResolveConfigPath(*cfgPath)
	}
	if !app.ConfigExists(config.ResolveConfigPath(appCfg.ConfigPath)) {
		log.Infof("config file %s not found, using environment only", appCfg.ConfigPath)
	}

	switch {
	case *migrate:
		return app.Migrate(ctx, appCfg)
	case *cleanupOrphans:
		deleted, errCleanup := app.CleanupOrphans(ctx, appCfg)
		if errCleanup != nil {
			return errCleanup
		}
		fmt.Printf("removed %d orphaned mappings\n", deleted)
		return nil
	case strings.TrimSpace(*importFile) != "":
		report, errImport := app.ImportFile(ctx, appCfg, strings.TrimSpace(*importFile))
		if errImport != nil {
			return errImport
		}
		fmt.Printf("users: %d/%d banks: %d/%d transactions: %d/%d imported\n",
			report.Users.Successful, report.Users.Total,
			report.Banks.Successful, report.Banks.Total,
			report.Transactions.Successful, report.Transactions.Total)
		return nil
	case strings.TrimSpace(*userEmail) != "":
		user, errCreate := app.CreateUser(ctx, appCfg, *userEmail, *userName, *userPassword)
		if errCreate != nil {
			return errCreate
		}
		fmt.Printf("created user %s (%s)\n", user.ID, user.Email)
		return nil
	}

	return app.RunServer(ctx, appCfg, *port)
}

func validatePort(port int) error {
	if port <= 0 || port > 65535 {
		return fmt.Errorf("invalid port: %d", port)
	}
	return nil
}
