// Command osclisten prints every OSC message it receives on a dual-stack UDP
// socket, one line per datagram.
//
// Usage:
//
//	osclisten [flags] [port]
//	osclisten -read capture.slip
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/showcontroller/osctools/internal/logging"
	"github.com/showcontroller/osctools/osc"
)

// Config holds the listener settings.
type Config struct {
	Host        string
	Port        int
	Strict      bool
	ReadTimeout time.Duration
	RecordPath  string
	ReadPath    string
	MetricsAddr string
	LogFormat   string
	Verbose     bool
}

func parseConfig(args []string, stderr io.Writer) (*Config, error) {
	cfg := &Config{}

	fs := flag.NewFlagSet("osclisten", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&cfg.Host, "host", "::", "`address` to bind; the IPv6 wildcard also accepts IPv4")
	fs.IntVar(&cfg.Port, "port", osc.DefaultPort, "UDP `port` to listen on")
	fs.BoolVar(&cfg.Strict, "strict", false, "reject datagrams with unsupported type tags instead of printing <x?>")
	fs.DurationVar(&cfg.ReadTimeout, "read-timeout", 0, "per-read `timeout`; 0 blocks indefinitely")
	fs.StringVar(&cfg.RecordPath, "record", "", "append every received datagram to this capture `file`")
	fs.StringVar(&cfg.ReadPath, "read", "", "decode a capture `file` instead of listening")
	fs.StringVar(&cfg.MetricsAddr, "metrics-addr", "", "serve Prometheus metrics on this `host:port`")
	fs.StringVar(&cfg.LogFormat, "log-format", logging.FormatText, "log `format`: dev, text or json")
	fs.BoolVar(&cfg.Verbose, "v", false, "log dropped datagrams")
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: osclisten [flags] [port]\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	switch fs.NArg() {
	case 0:
	case 1:
		port, err := strconv.Atoi(fs.Arg(0))
		if err != nil {
			return nil, fmt.Errorf("invalid port %q", fs.Arg(0))
		}
		cfg.Port = port
	default:
		fs.Usage()
		return nil, errors.New("too many arguments")
	}

	if cfg.Port < 0 || cfg.Port > 65535 {
		return nil, fmt.Errorf("port %d out of range", cfg.Port)
	}
	if cfg.ReadPath != "" && cfg.RecordPath != "" {
		return nil, errors.New("-read and -record are mutually exclusive")
	}

	return cfg, nil
}

// Addr returns the socket address to bind.
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
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

	if err := listen(ctx, cfg, logger, stdout); err != nil {
		logger.Error("osclisten failed", slog.Any("error", err))
		return 1
	}
	return 0
}

func listen(ctx context.Context, cfg *Config, logger *slog.Logger, stdout io.Writer) error {
	p := &printer{w: stdout}
	server := &osc.Server{
		Addr:         cfg.Addr(),
		Handler:      p,
		ErrorHandler: p.parseError,
		Decoder:      osc.Decoder{Strict: cfg.Strict},
		ReadTimeout:  cfg.ReadTimeout,
		Logger:       logger,
	}

	if cfg.ReadPath != "" {
		return replayCapture(cfg.ReadPath, server)
	}

	if cfg.MetricsAddr != "" {
		reg := prometheus.NewRegistry()
		server.Metrics = osc.NewMetrics(reg)
		srv, err := serveMetrics(cfg.MetricsAddr, reg, logger)
		if err != nil {
			return err
		}
		defer srv.Close()
	}

	if cfg.RecordPath != "" {
		f, err := os.OpenFile(cfg.RecordPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("open capture: %w", err)
		}
		defer f.Close()
		server.Recorder = osc.NewCaptureWriter(f)
		logger.Info("recording", slog.String("file", cfg.RecordPath))
	}

	return server.ListenAndServe(ctx)
}

// replayCapture decodes every datagram of a capture file through server.
func replayCapture(path string, server *osc.Server) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open capture: %w", err)
	}
	defer f.Close()

	from := captureAddr(path)
	r := osc.NewCaptureReader(f)
	for {
		rec, err := r.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		server.ServeDatagram(rec.Data, from)
	}
}

func serveMetrics(addr string, reg *prometheus.Registry, logger *slog.Logger) (*http.Server, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("metrics listener: %w", err)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server", slog.Any("error", err))
		}
	}()
	logger.Info("serving metrics", slog.String("addr", ln.Addr().String()))

	return srv, nil
}

// captureAddr names the source of replayed datagrams.
type captureAddr string

func (a captureAddr) Network() string { return "capture" }
func (a captureAddr) String() string  { return string(a) }
