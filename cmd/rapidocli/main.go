// Command rapidocli runs a single rapido node: it builds a Node from a
// config file (or built-in defaults), replays InitChain, and serves
// Prometheus metrics until interrupted. There is no real consensus host
// wired in; this entrypoint exists to exercise the node end to end and to
// give operators a place to hang one in front of a real BFT engine later.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"rapido/examples/personapp"
	"rapido/pkg/auth"
	"rapido/pkg/config"
	"rapido/pkg/hostabci"
	"rapido/pkg/metrics"
	"rapido/pkg/node"
)

func main() {
	configPath := flag.String("config", "", "path to a node config YAML file (defaults to built-in development settings)")
	homeDir := flag.String("home", "./rapido-data", "directory for persistent storage, used when the config enables it")
	flag.Parse()

	logger := log.New(os.Stdout, "rapido: ", log.LstdFlags)

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			logger.Fatalf("load config: %v", err)
		}
		cfg = loaded
	}

	builder := node.NewBuilder()
	for _, name := range cfg.Modules {
		switch name {
		case personapp.Name:
			builder = builder.WithModule(personapp.New())
		default:
			logger.Fatalf("unknown module %q in config", name)
		}
	}

	switch cfg.Authenticator {
	case "", "default":
		builder = builder.WithAuthenticator(auth.Default{})
	case "account":
		builder = builder.WithAuthenticator(auth.NewAccountAuthenticator())
	default:
		logger.Fatalf("unknown authenticator %q in config", cfg.Authenticator)
	}

	if cfg.Storage.Persistent {
		home := cfg.Storage.HomeDir
		if home == "" {
			home = *homeDir
		}
		builder = builder.UsePersistentStorage(home)
	}

	n, err := builder.Build()
	if err != nil {
		logger.Fatalf("build node: %v", err)
	}

	info := n.Info(hostabci.InfoRequest{})
	if info.LastBlockHeight == 0 {
		n.InitChain(hostabci.InitChainRequest{ChainID: cfg.ChainID})
		logger.Printf("initialized chain %q at genesis", cfg.ChainID)
	} else {
		logger.Printf("resuming chain %q at height %d", cfg.ChainID, info.LastBlockHeight)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.MetricsAddr != "" {
		metricsServer := metrics.NewServer(cfg.MetricsAddr, n.MetricsRegistry())
		go func() {
			if err := metricsServer.Serve(ctx); err != nil {
				logger.Printf("metrics server stopped: %v", err)
			}
		}()
		logger.Printf("serving metrics on %s", cfg.MetricsAddr)
	}

	<-ctx.Done()
	logger.Printf("shutting down")
}
