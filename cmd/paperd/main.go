package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"net"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"xdao.co/paperledger/config"
	"xdao.co/paperledger/events"
	"xdao.co/paperledger/internal/logging"
	"xdao.co/paperledger/ledger"
	"xdao.co/paperledger/model"
	"xdao.co/paperledger/rpc"
	"xdao.co/paperledger/storage/localfs"
	"xdao.co/paperledger/store/sqlite"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	os.Exit(run(ctx, os.Args[1:], os.Stderr))
}

// loadConfig applies defaults, the optional file, the environment and then
// any flags that were set explicitly.
func loadConfig(args []string, errOut io.Writer) (config.Config, error) {
	fs := flag.NewFlagSet("paperd", flag.ContinueOnError)
	fs.SetOutput(errOut)
	configPath := fs.String("config", "", "TOML config file")
	listen := fs.String("listen", "", "listen address")
	dbPath := fs.String("db", "", "SQLite journal path")
	contentDirs := fs.String("content-dirs", "", "comma-separated content store directories; the first receives writes")
	admin := fs.String("admin", "", "admin identity (ed25519:<base64> or dilithium3:<base64>)")
	skew := fs.Duration("max-clock-skew", 0, "maximum accepted request clock skew")
	maxMsg := fs.Int("max-msg-bytes", 0, "max gRPC message size in bytes")
	logLevel := fs.String("log-level", "", "log level (debug, info, warn, error)")
	if err := fs.Parse(args); err != nil {
		return config.Config{}, err
	}

	cfg := config.Default()
	var err error
	if *configPath != "" {
		if cfg, err = config.LoadFile(cfg, *configPath); err != nil {
			return config.Config{}, err
		}
	}
	if cfg, err = config.ApplyEnv(cfg); err != nil {
		return config.Config{}, err
	}
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "listen":
			cfg.Listen = *listen
		case "db":
			cfg.DBPath = *dbPath
		case "content-dirs":
			cfg.ContentDirs = config.ParseDirs(*contentDirs)
		case "admin":
			cfg.Admin = model.Identity(strings.TrimSpace(*admin))
		case "max-clock-skew":
			cfg.MaxClockSkew = *skew
		case "max-msg-bytes":
			cfg.MaxMsgBytes = *maxMsg
		case "log-level":
			cfg.LogLevel = *logLevel
		}
	})
	return cfg, cfg.Validate()
}

func run(ctx context.Context, args []string, errOut io.Writer) int {
	cfg, err := loadConfig(args, errOut)
	if err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		fmt.Fprintf(errOut, "config: %v\n", err)
		return 2
	}
	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(errOut, "config: log level: %v\n", err)
		return 2
	}
	log := logging.New("paperd", level, errOut)

	if err := serve(ctx, cfg, log); err != nil {
		log.Error().Err(err).Msg("paperd stopped")
		return 1
	}
	return 0
}

func serve(ctx context.Context, cfg config.Config, log zerolog.Logger) error {
	cas, err := localfs.Open(cfg.ContentDirs)
	if err != nil {
		return fmt.Errorf("open content store: %w", err)
	}
	journal, err := sqlite.Open(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open journal: %w", err)
	}
	defer journal.Close()

	ledgerLog := log.With().Str("component", "ledger").Logger()
	l, err := ledger.Open(ctx, cfg.Admin, ledger.Options{
		Journal: journal,
		Sink:    events.LogSink{Logger: log.With().Str("component", "events").Logger()},
		Logger:  &ledgerLog,
	})
	if err != nil {
		return fmt.Errorf("open ledger: %w", err)
	}

	lis, err := net.Listen("tcp", cfg.Listen)
	if err != nil {
		return err
	}
	defer lis.Close()

	srv := rpc.NewGRPCServer(&rpc.Server{Ledger: l, CAS: cas}, rpc.ServerOptions{
		Auth:        &rpc.Authenticator{MaxClockSkew: cfg.MaxClockSkew},
		Logger:      log.With().Str("component", "rpc").Logger(),
		MaxMsgBytes: cfg.MaxMsgBytes,
	})

	errc := make(chan error, 1)
	go func() { errc <- srv.Serve(lis) }()
	log.Info().
		Str("listen", lis.Addr().String()).
		Str("db", cfg.DBPath).
		Strs("content_dirs", cfg.ContentDirs).
		Str("admin", string(cfg.Admin)).
		Uint64("papers", l.PaperCount()).
		Msg("paperd listening")

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	stopped := make(chan struct{})
	go func() {
		srv.GracefulStop()
		close(stopped)
	}()
	select {
	case <-stopped:
	case <-time.After(10 * time.Second):
		srv.Stop()
	}
	log.Info().Msg("paperd shut down")
	return nil
}
