package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/appetiteclub/apt"
	"github.com/appetiteclub/pos/services/pos/cmd/utils/internal/commands"
)

const (
	appName    = "pos-utils"
	appVersion = "0.1.0"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	config, err := apt.LoadConfig("POS", os.Args[2:])
	if err != nil {
		log.Fatalf("Cannot load config: %v", err)
	}

	logger := apt.NewLogger(config.GetStringOrDef("log.level", "info"))

	ctx := context.Background()
	command := os.Args[1]

	switch command {
	case "seed-menu":
		if err := commands.SeedMenu(ctx, config, logger); err != nil {
			log.Fatalf("Menu seeding failed: %v", err)
		}
		logger.Info("Menu seeding completed")

	case "seed-demo":
		if err := commands.SeedDemo(ctx, config, logger); err != nil {
			log.Fatalf("Demo seeding failed: %v", err)
		}
		logger.Info("Demo seeding completed")

	case "clear-demo":
		if err := commands.ClearDemo(ctx, config, logger); err != nil {
			log.Fatalf("Clear demo data failed: %v", err)
		}
		logger.Info("Demo data cleared")

	case "reset-db":
		if err := commands.ResetDB(ctx, config, logger); err != nil {
			log.Fatalf("Database reset failed: %v", err)
		}
		logger.Info("Database reset completed")

	case "issue-token":
		token, err := commands.IssueToken(config)
		if err != nil {
			log.Fatalf("Cannot issue token: %v", err)
		}
		fmt.Println(token)

	case "version":
		fmt.Printf("%s version %s\n", appName, appVersion)

	case "help", "-h", "--help":
		printUsage()

	default:
		fmt.Printf("Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Printf(`%s - POS utility commands

Usage:
  %s <command> [options]

Commands:
  seed-menu    Apply the embedded menu seeds
  seed-demo    Create sample orders, tickets and payments
  clear-demo   Remove the orders created by seed-demo
  reset-db     Drop every POS collection (USE WITH CAUTION)
  issue-token  Print a signed staff token (needs auth.secret and token.actor)
  version      Print version information
  help         Show this help message

Environment Variables:
  POS_DB_MONGO_URL   MongoDB connection URL (default: mongodb://localhost:27017)
  POS_DB_MONGO_NAME  Database name (default: appetite_pos)
  POS_AUTH_SECRET    HMAC secret shared with the service
  POS_LOG_LEVEL      Log level: debug, info, warn, error (default: info)

Examples:
  %s seed-demo
  POS_AUTH_SECRET=dev POS_TOKEN_ACTOR=cashier-1 POS_TOKEN_ROLE=cashier %s issue-token

`, appName, appName, appName, appName)
}
