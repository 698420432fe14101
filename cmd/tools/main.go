// Command collections-tools bundles one-shot administrative operations
// for the filtering service.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kbase/collections-sub001"
	"github.com/kbase/collections-sub001/internal"
)

func main() {
	log := func(format string, args ...any) { fmt.Fprintf(os.Stderr, format+"\n", args...) }

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "install-analyzers":
		if err := runInstallAnalyzers(os.Args[2:]); err != nil {
			log("install-analyzers: %v", err)
			os.Exit(1)
		}
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("Usage: collections-tools <command> [options]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  install-analyzers   Install the custom text analyzers the filter compiler requires")
}

type installAnalyzersOptions struct {
	host     string
	port     int
	database string
	user     string
	password string
	sslMode  string
}

func runInstallAnalyzers(args []string) error {
	flags := flag.NewFlagSet("install-analyzers", flag.ContinueOnError)
	flags.SetOutput(os.Stdout)
	flags.Usage = func() {
		fmt.Println("Usage: collections-tools install-analyzers [options]")
		fmt.Println("")
		fmt.Println("Options:")
		flags.PrintDefaults()
	}

	opts := installAnalyzersOptions{}
	flags.StringVar(&opts.host, "db-host", getenvDefault("DB_HOST", "localhost"), "database host")
	flags.IntVar(&opts.port, "db-port", getenvDefaultInt("DB_PORT", 5432), "database port")
	flags.StringVar(&opts.database, "db-name", getenvDefault("DB_NAME", "collections"), "database name")
	flags.StringVar(&opts.user, "db-user", getenvDefault("DB_USER", "postgres"), "database user")
	flags.StringVar(&opts.password, "db-password", getenvDefault("DB_PASSWORD", "postgres"), "database password")
	flags.StringVar(&opts.sslMode, "db-ssl-mode", getenvDefault("DB_SSL_MODE", "disable"), "database sslmode")

	if err := flags.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return err
	}

	return installAnalyzers(opts)
}

func installAnalyzers(opts installAnalyzersOptions) error {
	ctx := context.Background()

	connString := fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		opts.user, opts.password, opts.host, opts.port, opts.database, opts.sslMode)
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return fmt.Errorf("create connection pool: %w", err)
	}
	defer pool.Close()

	storage := internal.NewPostgresStorage(pool)
	if err := collections.InstallAnalyzers(ctx, storage); err != nil {
		return fmt.Errorf("install analyzers: %w", err)
	}

	fmt.Println("Analyzers installed successfully.")
	return nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvDefaultInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	var n int
	if _, err := fmt.Sscanf(v, "%d", &n); err != nil {
		return def
	}
	return n
}
