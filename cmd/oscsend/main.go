// Command oscsend sends a single OSC message as one UDP datagram.
//
// Usage:
//
//	oscsend [flags] host port address [type value ...]
//	oscsend -replay capture.slip [flags] host port
//
// Types are i (int32), f (float32), s (string), h (int64) and d (float64).
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/showcontroller/osctools/internal/logging"
	"github.com/showcontroller/osctools/osc"
)

// Config holds the sender settings.
type Config struct {
	Host        string
	Port        int
	Address     string
	Args        []osc.Arg
	Interactive bool
	ReplayPath  string
	Timing      bool
	MaxFailures uint
	LogFormat   string
	Verbose     bool
}

const usage = "Usage: oscsend [flags] <host> <port> <address> [type value ...]\n" +
	"       oscsend -replay <file> [flags] <host> <port>\n"

func parseConfig(args []string, stderr io.Writer) (*Config, error) {
	cfg := &Config{}

	fs := flag.NewFlagSet("oscsend", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.BoolVar(&cfg.Interactive, "interactive", false, "keep running and resend the message on space or enter; esc or q quits")
	fs.StringVar(&cfg.ReplayPath, "replay", "", "send every datagram of a capture `file` instead of a message")
	fs.BoolVar(&cfg.Timing, "timing", false, "with -replay, keep the original gaps between datagrams")
	fs.UintVar(&cfg.MaxFailures, "max-failures", 5, "stop resending after this many consecutive send `failures`")
	fs.StringVar(&cfg.LogFormat, "log-format", logging.FormatText, "log `format`: dev, text or json")
	fs.BoolVar(&cfg.Verbose, "v", false, "verbose logging")
	fs.Usage = func() {
		fmt.Fprint(fs.Output(), usage)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	pos := fs.Args()
	want := 3
	if cfg.ReplayPath != "" {
		want = 2
	}
	if len(pos) < want {
		fs.Usage()
		return nil, errors.New("missing arguments")
	}

	cfg.Host = pos[0]
	port, err := strconv.Atoi(pos[1])
	if err != nil || port <= 0 || port > 65535 {
		return nil, fmt.Errorf("invalid port %q", pos[1])
	}
	cfg.Port = port

	if cfg.ReplayPath != "" {
		if len(pos) > 2 {
			return nil, errors.New("-replay takes no address or arguments")
		}
		if cfg.Interactive {
			return nil, errors.New("-replay and -interactive are mutually exclusive")
		}
		return cfg, nil
	}

	cfg.Address = pos[2]
	cfg.Args, err = osc.ParseArgs(pos[3:])
	if err != nil {
		return nil, err
	}

	return cfg, nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	cfg, err := parseConfig(args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		fmt.Fprintln(stderr, err)
		return 1
	}

	logger, err := logging.New(stderr, cfg.LogFormat, cfg.Verbose)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}

	if err := send(ctx, cfg, logger, stdout); err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	return 0
}

func send(ctx context.Context, cfg *Config, logger *slog.Logger, stdout io.Writer) error {
	var data []byte
	if cfg.ReplayPath == "" {
		// Encode before touching the network so a bad value sends nothing.
		var err error
		data, err = osc.Encode(cfg.Address, cfg.Args)
		if err != nil {
			return err
		}
	}

	client := osc.NewClient(cfg.Host, cfg.Port)
	defer client.Close()

	if cfg.MaxFailures > 0 {
		client.SetBreaker(osc.NewBreaker(client.Addr(), uint32(cfg.MaxFailures), time.Second,
			func(from, to gobreaker.State) {
				logger.Warn("circuit breaker state changed",
					slog.String("destination", client.Addr()),
					slog.String("from", from.String()),
					slog.String("to", to.String()))
			}))
	}

	switch {
	case cfg.ReplayPath != "":
		return replay(ctx, client, cfg.ReplayPath, cfg.Timing, logger)
	case cfg.Interactive:
		return interactive(ctx, client, data, stdout)
	default:
		if err := client.Send(ctx, data); err != nil {
			return err
		}
		logger.Debug("sent", slog.String("destination", client.Addr()), slog.Int("bytes", len(data)))
		return nil
	}
}
