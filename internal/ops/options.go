package ops

import (
	"strings"
	"time"

	"binance-di/internal/model"
	"binance-di/internal/model/enum"
	"binance-di/pkg/exception"
	"binance-di/pkg/websocket"

	"github.com/spf13/pflag"
	"github.com/yanun0323/errors"
	"github.com/yanun0323/logs"
)

const (
	DefaultLoad      = "ticker,trades,order-book"
	DefaultInterval  = "1m"
	DefaultOutputDir = "data"
	DefaultLogPath   = "binance-di.log"
)

// Options mirrors the command line.
type Options struct {
	Symbols        string
	Load           string
	Interval       string
	Testnet        bool
	OutputDir      string
	Output         string
	Samples        int
	LogPath        string
	Silent         bool
	Print          bool
	PrintOnly      bool
	QueueSize      int
	ReconnectDelay time.Duration
	MetricsAddr    string
	PyroscopeAddr  string
}

// BindFlags registers every option on fs.
func (o *Options) BindFlags(fs *pflag.FlagSet) {
	fs.StringVar(&o.Symbols, "symbol", "", "Comma-separated list of symbols.")
	fs.StringVar(&o.Load, "load", DefaultLoad, "Comma-separated list of streams: ticker,order-book,trades,klines.")
	fs.StringVar(&o.Interval, "interval", DefaultInterval, "Kline interval.")
	fs.BoolVar(&o.Testnet, "testnet", false, "Use TestNet and load .env_testnet.")
	fs.StringVar(&o.OutputDir, "output-dir", DefaultOutputDir, "Directory for output files.")
	fs.StringVar(&o.Output, "output", "", "Comma-separated list of output formats: json,csv,parquet,orc.")
	fs.IntVar(&o.Samples, "samples", 0, "Exit after receiving N samples per stream.")
	fs.StringVar(&o.LogPath, "log", "", "Enable file logging, optionally at the given path.")
	fs.Lookup("log").NoOptDefVal = DefaultLogPath
	fs.BoolVar(&o.Silent, "silent", false, "Suppress status logs and print compact lines for piping.")
	fs.BoolVar(&o.Print, "print", false, "Print data to stdout.")
	fs.BoolVar(&o.PrintOnly, "print-only", false, "Print data to stdout only, without store or file output.")
	fs.IntVar(&o.QueueSize, "queue-size", 0, "Ingestion queue bound, 0 for unbounded.")
	fs.DurationVar(&o.ReconnectDelay, "reconnect-delay", websocket.DefaultReconnectDelay, "Fixed wait before reconnecting a feed.")
	fs.StringVar(&o.MetricsAddr, "metrics-addr", "", "Serve prometheus metrics on this address.")
	fs.StringVar(&o.PyroscopeAddr, "pyroscope-addr", "", "Send continuous profiles to this pyroscope server.")
}

// Loaded is the validated configuration of one run.
type Loaded struct {
	Network        enum.Network
	Feeds          []model.FeedIdentity
	Formats        []enum.Format
	Interval       string
	OutputDir      string
	Samples        int
	Console        bool
	Compact        bool
	UseStore       bool
	QueueSize      int
	ReconnectDelay time.Duration
}

// Resolve validates the options and derives the run configuration.
func (o Options) Resolve() (Loaded, error) {
	if o.Print && o.PrintOnly {
		return Loaded{}, errors.Wrap(exception.ErrInvalidConfig, "--print and --print-only are mutually exclusive")
	}
	if o.Samples < 0 {
		return Loaded{}, errors.Wrap(exception.ErrInvalidConfig, "--samples must be >= 0").With("samples", o.Samples)
	}
	if o.QueueSize < 0 {
		return Loaded{}, errors.Wrap(exception.ErrInvalidConfig, "--queue-size must be >= 0").With("queue_size", o.QueueSize)
	}
	if o.ReconnectDelay < 0 {
		return Loaded{}, errors.Wrap(exception.ErrInvalidConfig, "--reconnect-delay must be >= 0")
	}
	interval := strings.TrimSpace(o.Interval)
	if interval == "" {
		return Loaded{}, errors.Wrap(exception.ErrInvalidConfig, "--interval is empty")
	}

	symbols := splitList(o.Symbols, strings.ToUpper)
	if len(symbols) == 0 {
		return Loaded{}, errors.Wrap(exception.ErrEmptySymbol, "--symbol is required")
	}

	feeds := feedsOf(symbols, parseCategories(o.Load))
	if len(feeds) == 0 {
		return Loaded{}, errors.Wrap(exception.ErrInvalidConfig, "no valid load option specified").With("load", o.Load)
	}

	var formats []enum.Format
	if !o.PrintOnly {
		f, err := parseFormats(o.Output)
		if err != nil {
			return Loaded{}, err
		}
		formats = f
	}

	network := enum.NetworkProduction
	if o.Testnet {
		network = enum.NetworkTestnet
	}

	return Loaded{
		Network:        network,
		Feeds:          feeds,
		Formats:        formats,
		Interval:       interval,
		OutputDir:      o.OutputDir,
		Samples:        o.Samples,
		Console:        o.Print || o.PrintOnly,
		Compact:        o.Silent,
		UseStore:       !o.PrintOnly,
		QueueSize:      o.QueueSize,
		ReconnectDelay: o.ReconnectDelay,
	}, nil
}

// parseCategories keeps the known categories of value. Unknown names are
// logged and ignored.
func parseCategories(value string) map[enum.Category]bool {
	selected := make(map[enum.Category]bool)
	for _, name := range splitList(value, strings.ToLower) {
		c, err := enum.ParseCategory(name)
		if err != nil {
			logs.Warnf("ignore load option %q", name)
			continue
		}
		selected[c] = true
	}
	return selected
}

// feedsOf returns one feed per symbol and selected category, symbols in input
// order and categories in their canonical order.
func feedsOf(symbols []string, selected map[enum.Category]bool) []model.FeedIdentity {
	feeds := make([]model.FeedIdentity, 0, len(symbols)*len(selected))
	for _, symbol := range symbols {
		for _, c := range enum.Categories() {
			if selected[c] {
				feeds = append(feeds, model.NewFeedIdentity(c, symbol))
			}
		}
	}
	return feeds
}

func parseFormats(value string) ([]enum.Format, error) {
	var formats []enum.Format
	seen := make(map[enum.Format]bool)
	for _, name := range splitList(value, strings.ToLower) {
		f, err := enum.ParseFormat(name)
		if err != nil {
			return nil, err
		}
		if !seen[f] {
			seen[f] = true
			formats = append(formats, f)
		}
	}
	return formats, nil
}

// splitList splits a comma list, normalizes every item and drops empty and
// duplicate items.
func splitList(value string, normalize func(string) string) []string {
	var items []string
	seen := make(map[string]bool)
	for _, item := range strings.Split(value, ",") {
		item = normalize(strings.TrimSpace(item))
		if item == "" || seen[item] {
			continue
		}
		seen[item] = true
		items = append(items, item)
	}
	return items
}
