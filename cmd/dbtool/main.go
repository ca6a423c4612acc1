package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"storefront/internal/config"
	"storefront/internal/dbtool"
)

func usage() {
	fmt.Fprintf(os.Stderr, `usage:
  dbtool test [current|postgres|sqlite|all]
  dbtool switch <postgres|sqlite> [-env .env.local]
`)
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	cfg := config.FromEnv()
	switch os.Args[1] {
	case "test":
		target := "current"
		if len(os.Args) > 2 {
			target = os.Args[2]
		}
		os.Exit(runTest(cfg, target))
	case "switch":
		fs := flag.NewFlagSet("switch", flag.ExitOnError)
		envPath := fs.String("env", ".env.local", "Env file to rewrite")
		args := os.Args[2:]
		var provider string
		// Accept the provider before or after the flags.
		if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
			provider, args = args[0], args[1:]
		}
		_ = fs.Parse(args)
		if provider == "" && fs.NArg() == 1 {
			provider = fs.Arg(0)
		}
		if provider == "" {
			usage()
			os.Exit(2)
		}
		if provider == "postgresql" {
			provider = config.ProviderPostgres
		}
		if err := dbtool.SwitchEnvFile(*envPath, provider); err != nil {
			fmt.Fprintf(os.Stderr, "switch failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Switched %s to %s.\nNext: run `migrate` against the new provider, then `dbtool test current`.\n", *envPath, provider)
	default:
		usage()
		os.Exit(2)
	}
}

func runTest(cfg config.Config, target string) int {
	var providers []string
	switch target {
	case "current":
		providers = []string{cfg.DBProvider}
	case config.ProviderPostgres, config.ProviderSQLite:
		providers = []string{target}
	case "all":
		providers = []string{config.ProviderPostgres, config.ProviderSQLite}
	default:
		usage()
		return 2
	}

	failed := 0
	for _, provider := range providers {
		dsn := cfg.ProviderDSN(provider)
		if target == "current" {
			dsn = cfg.DBConnString
		}
		fmt.Printf("Testing %s: %s\n", provider, dbtool.RedactDSN(dsn))

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		res, err := dbtool.Probe(ctx, provider, dsn)
		cancel()
		if err != nil {
			fmt.Printf("  FAILED: %v\n", err)
			failed++
			continue
		}
		fmt.Printf("  OK in %s\n  Time: %s\n  Version: %s\n", res.Latency.Truncate(time.Millisecond), res.ServerTime, res.Version)
	}
	if failed > 0 {
		return 1
	}
	return 0
}
