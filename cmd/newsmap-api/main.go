// Command newsmap-api serves the newsmap REST API.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/pevans/newsmap/config"
	"github.com/pevans/newsmap/server"
	"github.com/spf13/pflag"
)

var opt struct {
	Config string
	Addr   string
	Help   bool
}

func init() {
	pflag.StringVarP(&opt.Config, "config", "c", "newsmap.yaml", "Path to the config file")
	pflag.StringVar(&opt.Addr, "addr", "", "Listen address (overrides server.addr)")
	pflag.BoolVarP(&opt.Help, "help", "h", false, "Show this help text")
}

func main() {
	pflag.Parse()

	if pflag.NArg() > 1 || opt.Help {
		fmt.Printf("usage: %s [options] [env_file]\n\noptions:\n%s\nnote: variables in env_file take precedence over the environment\n", os.Args[0], pflag.CommandLine.FlagUsages())
		if opt.Help {
			os.Exit(0)
		}
		os.Exit(2)
	}

	var (
		cfg *config.Config
		err error
	)
	if pflag.NArg() == 1 {
		cfg, err = config.LoadWithEnvFile(opt.Config, pflag.Arg(0))
	} else {
		cfg, err = config.Load(opt.Config)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: load config: %v\n", err)
		os.Exit(1)
	}
	if opt.Addr != "" {
		cfg.Server.Addr = opt.Addr
	}

	logger, err := server.ConfigureLogging(cfg, os.Stdout)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: configure logging: %v\n", err)
		os.Exit(1)
	}

	srv, err := server.New(cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create server")
	}
	defer srv.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	hch := make(chan os.Signal, 1)
	signal.Notify(hch, syscall.SIGHUP)

	go func() {
		for range hch {
			if err := srv.ReloadGeoIP(); err != nil {
				logger.Error().Err(err).Msg("failed to reload ip2location database")
			}
		}
	}()

	if err := srv.Run(ctx); err != nil {
		logger.Error().Err(err).Msg("server failed")
		srv.Close()
		os.Exit(1)
	}
}
