// Command newsmap manages newspapers and inspects country matching from the
// command line.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/pevans/newsmap/config"
	"github.com/pevans/newsmap/countries"
)

// errUsage marks errors after which the command's usage is printed.
var errUsage = errors.New("usage")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		if !errors.Is(err, errUsage) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, out io.Writer) error {
	if len(args) < 1 {
		printUsage(out)
		return errUsage
	}

	cfg, err := config.Load(os.Getenv(config.EnvPrefix + "CONFIG"))
	if err != nil {
		return err
	}

	command, rest := args[0], args[1:]
	switch command {
	case "newspapers":
		return runNewspapers(ctx, cfg, rest, out)
	case "countries":
		registry, err := loadRegistry(cfg)
		if err != nil {
			return err
		}
		return runCountries(registry, rest, out)
	case "help", "--help", "-h":
		printUsage(out)
		return nil
	default:
		fmt.Fprintf(out, "Error: unknown command: %s\n\n", command)
		printUsage(out)
		return errUsage
	}
}

func loadRegistry(cfg *config.Config) (*countries.Registry, error) {
	if cfg.Registry.Path == "" {
		return countries.Default(), nil
	}
	return countries.LoadRegistry(cfg.Registry.Path)
}

func printUsage(out io.Writer) {
	fmt.Fprintln(out, "newsmap - Newspapers of the world, by country")
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Usage:")
	fmt.Fprintln(out, "  newsmap <command> [arguments]")
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Commands:")
	fmt.Fprintln(out, "  newspapers   Manage newspapers")
	fmt.Fprintln(out, "  countries    Inspect the country registry and matching")
	fmt.Fprintln(out, "  help         Show this help message")
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Environment Variables:")
	fmt.Fprintln(out, "  NEWSMAP_CONFIG    Path to the config file")
	fmt.Fprintln(out, "  NEWSMAP_DB        Path to the database (default: newsmap.db)")
	fmt.Fprintln(out, "  NEWSMAP_REGISTRY  Path to a country registry file")
}
