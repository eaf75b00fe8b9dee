package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"wanwatch/internal/config"
	"wanwatch/internal/geo"
	"wanwatch/internal/logger"
	"wanwatch/internal/monitor"
	"wanwatch/internal/notify"
	"wanwatch/internal/relay"
	"wanwatch/internal/report"
	"wanwatch/internal/resolver"
	"wanwatch/internal/types"
	"wanwatch/internal/version"

	"go.uber.org/zap"
)

func main() {
	os.Exit(run())
}

func run() int {
	// Parse command line flags
	configPath := flag.String("config", "", "Path to config file")
	showVersion := flag.Bool("version", false, "Show version information")
	flag.Parse()

	// Show version if requested
	if *showVersion {
		fmt.Println(version.GetInfo().String())
		return 0
	}

	// Load configuration
	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "%v\n", err)
		return 1
	}

	// Initialize logger
	log, err := logger.New(&cfg.Log,
		zap.String("monitor_id", cfg.Monitor.ID),
		zap.String("hostname", cfg.Monitor.Hostname))
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "%v\n", err)
		return 1
	}

	defer func(log *zap.Logger) {
		_ = log.Sync()
	}(log)

	// Initialize components
	r, err := resolver.NewResolver(&cfg.Resolver, log)
	if err != nil {
		log.Error("Failed to initialize resolver", zap.Error(err))
		return 1
	}

	n, err := notify.NewTelegramNotifier(&cfg.Telegram, log)
	if err != nil {
		log.Error("Failed to initialize notifier", zap.Error(err))
		return 1
	}

	f, err := report.NewFormatter(nil)
	if err != nil {
		log.Error("Failed to initialize formatter", zap.Error(err))
		return 1
	}

	m := monitor.NewMonitor(&cfg.Monitor, r, geo.NewEnricher(&cfg.Geo, log), n, f, log)

	// Interrupt ends the wait between checks
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	relayErr := make(chan error, 1)
	if cfg.Relay.Enabled && cfg.Monitor.Mode == types.RunModeContinuous {
		rs := relay.NewServer(&cfg.Relay, n, f, log)
		go func() {
			err := rs.Serve(ctx)
			if err != nil {
				log.Error("Relay stopped", zap.Error(err))
				stop()
			}
			relayErr <- err
		}()
	} else {
		relayErr <- nil
	}

	exitCode := 0
	if err := m.Run(ctx); err != nil {
		log.Error("Monitor exited with error", zap.Error(err))
		exitCode = 1
	}

	// Stops the relay when the monitor ended on its own
	stop()
	if err := <-relayErr; err != nil {
		exitCode = 1
	}

	log.Info("Shutdown complete")
	return exitCode
}
