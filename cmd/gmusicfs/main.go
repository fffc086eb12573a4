// Command gmusicfs mounts a remote music account as a read-only
// filesystem of artists, albums and playlists.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/pflag"

	"github.com/gmusicfs/gmusicfs/internal/config"
	"github.com/gmusicfs/gmusicfs/internal/fuse"
	"github.com/gmusicfs/gmusicfs/internal/gmusic"
	"github.com/gmusicfs/gmusicfs/internal/library"
	"github.com/gmusicfs/gmusicfs/internal/metrics"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "gmusicfs: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	opts := config.NewDefault()

	flags := pflag.NewFlagSet("gmusicfs", pflag.ContinueOnError)
	flags.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: gmusicfs [flags] mountpoint\n\nFlags:\n%s", flags.FlagUsages())
	}
	flags.StringVar(&opts.CredentialsPath, "credentials", "",
		"credentials file (default ~/"+config.CredentialsFileName+")")
	flags.BoolVar(&opts.TrueFileSize, "true-file-size", false,
		"report exact file sizes (one extra request per file)")
	flags.BoolVarP(&opts.Lowercase, "lowercase", "l", false,
		"show all paths in lower case")
	flags.BoolVar(&opts.AllowOther, "allow-other", false,
		"allow all users to access the mount")
	flags.BoolVar(&opts.SkipInitialScan, "no-library", false,
		"mount empty and defer the catalog scan until SIGHUP")
	flags.BoolVarP(&opts.Foreground, "foreground", "f", true,
		"stay attached to the terminal (always on, accepted for mount-script compatibility)")
	verbosity := flags.CountP("verbose", "v", "log verbosity (-v info, -vv debug)")
	flags.IntVar(&opts.MetricsPort, "metrics-port", 0,
		"serve prometheus metrics on this port (0 disables)")
	listDeviceIDs := flags.Bool("deviceid", false,
		"list the account's registered device ids and exit")

	if err := flags.Parse(os.Args[1:]); err != nil {
		if err == pflag.ErrHelp {
			return nil
		}
		return err
	}
	opts.Verbosity = *verbosity
	log := newLogger(opts.Verbosity)

	if opts.CredentialsPath == "" {
		path, err := config.DefaultCredentialsPath()
		if err != nil {
			return err
		}
		opts.CredentialsPath = path
	}

	if *listDeviceIDs {
		return printDeviceIDs(opts.CredentialsPath, log)
	}

	if flags.NArg() != 1 {
		flags.Usage()
		return fmt.Errorf("exactly one mountpoint is required")
	}
	opts.MountPoint = flags.Arg(0)
	if err := opts.Validate(); err != nil {
		return err
	}

	creds, err := config.LoadCredentials(opts.CredentialsPath)
	if err != nil {
		return err
	}

	ctx := context.Background()
	client := gmusic.NewClient(log)
	if err := client.Login(ctx, creds.Username, creds.Password); err != nil {
		return err
	}

	scanner := library.Scanner{
		Service:      client,
		DeviceID:     creds.DeviceID,
		TrueFileSize: opts.TrueFileSize,
		Log:          log,
	}

	var collector *metrics.Collector
	if opts.MetricsPort > 0 {
		collector = metrics.NewCollector()
	}

	fs := fuse.NewFileSystem(scanner, opts, collector, log)
	if !opts.SkipInitialScan {
		if err := fs.Rescan(ctx); err != nil {
			return err
		}
	}

	if collector != nil {
		go func() {
			if err := collector.Serve(opts.MetricsPort); err != nil {
				log.Error().Err(err).Msg("metrics endpoint failed")
			}
		}()
	}

	manager := fuse.NewManager(fs, opts, log)

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		for sig := range signals {
			switch sig {
			case syscall.SIGHUP:
				log.Info().Msg("rescanning catalog")
				if err := fs.Rescan(ctx); err != nil {
					log.Error().Err(err).Msg("rescan failed, keeping current catalog")
				}
			case syscall.SIGINT, syscall.SIGTERM:
				log.Info().Str("signal", sig.String()).Msg("shutting down")
				if err := manager.Unmount(); err != nil {
					log.Error().Err(err).Msg("unmount failed")
				}
			}
		}
	}()

	err = manager.Mount()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if serr := collector.Shutdown(shutdownCtx); serr != nil {
		log.Warn().Err(serr).Msg("metrics shutdown")
	}
	return err
}

// printDeviceIDs logs in with only the account identity and prints the
// registered devices users pick their deviceId from. Only hex-id devices
// can issue stream URLs, so the rest are not shown.
func printDeviceIDs(credentialsPath string, log zerolog.Logger) error {
	creds, err := config.LoadLoginCredentials(credentialsPath)
	if err != nil {
		return err
	}

	ctx := context.Background()
	client := gmusic.NewClient(log)
	if err := client.Login(ctx, creds.Username, creds.Password); err != nil {
		return err
	}
	devices, err := client.ListDevices(ctx)
	if err != nil {
		return err
	}

	for _, d := range devices {
		if !strings.HasPrefix(d.ID, "0x") {
			continue
		}
		name := d.Name
		if name == "" {
			name = "NoName"
		}
		fmt.Printf("%s : %s\n", name, d.ID)
	}
	return nil
}

func newLogger(verbosity int) zerolog.Logger {
	level := zerolog.WarnLevel
	switch verbosity {
	case 1:
		level = zerolog.InfoLevel
	case 2:
		level = zerolog.DebugLevel
	}
	out := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}
	return zerolog.New(out).Level(level).With().Timestamp().Logger()
}
