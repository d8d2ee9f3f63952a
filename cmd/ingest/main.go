package main

import (
	"context"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"binance-di/internal/ingest"
	"binance-di/internal/obs"
	"binance-di/internal/ops"
	"binance-di/internal/recorder"
	"binance-di/internal/sink"
	"binance-di/pkg/exception"
	"binance-di/pkg/websocket"

	"github.com/grafana/pyroscope-go"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"github.com/yanun0323/errors"
	"github.com/yanun0323/logs"
)

func main() {
	if err := newCommand().Execute(); err != nil {
		logs.Errorf("binance-di: %+v", err)
		os.Exit(1)
	}
}

func newCommand() *cobra.Command {
	var opts ops.Options
	cmd := &cobra.Command{
		Use:           "binance-di",
		Short:         "Ingest Binance market streams into redis, part files and stdout.",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), opts)
		},
	}
	opts.BindFlags(cmd.Flags())
	_ = cmd.MarkFlagRequired("symbol")
	cmd.MarkFlagsMutuallyExclusive("print", "print-only")
	return cmd
}

func run(ctx context.Context, opts ops.Options) error {
	closeLog, err := setupLogging(opts)
	if err != nil {
		return err
	}
	defer closeLog()

	cfg, err := opts.Resolve()
	if err != nil {
		return err
	}

	// stdout writes return EPIPE instead of killing the process when the reader goes away
	signal.Notify(make(chan os.Signal, 1), syscall.SIGPIPE)
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if len(cfg.Formats) > 0 {
		if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
			return errors.Wrap(err, "create output dir").With("dir", cfg.OutputDir)
		}
		logs.Infof("output directory set to %q", cfg.OutputDir)
	}

	env, err := ops.LoadEnv(cfg.Network.EnvFile())
	if err != nil {
		return err
	}
	logs.Infof("loaded configuration from %q", cfg.Network.EnvFile())

	if opts.PyroscopeAddr != "" {
		profiler, err := pyroscope.Start(pyroscope.Config{
			ApplicationName: "binance-di",
			ServerAddress:   opts.PyroscopeAddr,
			Logger:          profilerLogger{},
			ProfileTypes: []pyroscope.ProfileType{
				pyroscope.ProfileCPU,
				pyroscope.ProfileAllocObjects,
				pyroscope.ProfileAllocSpace,
				pyroscope.ProfileInuseObjects,
				pyroscope.ProfileInuseSpace,
			},
		})
		if err != nil {
			return errors.Wrap(err, "start pyroscope").With("addr", opts.PyroscopeAddr)
		}
		defer func() {
			_ = profiler.Stop()
		}()
	}

	metrics := obs.NewMetrics()
	if opts.MetricsAddr != "" {
		srv := &http.Server{Addr: opts.MetricsAddr, Handler: metrics.Handler(), ReadHeaderTimeout: 5 * time.Second}
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logs.Errorf("metrics server stopped, err: %+v", err)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	var sinks []sink.Sink
	if cfg.Console {
		sinks = append(sinks, sink.NewConsole(os.Stdout, cfg.Compact))
	}

	if cfg.UseStore {
		client, err := connectRedis(ctx, env)
		if err != nil {
			logs.Errorf("could not connect to redis at %s, err: %+v", env.RedisAddr(), err)
			if len(cfg.Formats) == 0 {
				return errors.Wrap(exception.ErrNoSink, "failed to establish redis connection and no file output is configured")
			}
		} else {
			defer client.Close()
			sinks = append(sinks, sink.NewStore(client, sink.DefaultNamespace))
		}
	}

	var writer *recorder.Writer
	if len(cfg.Formats) > 0 {
		writer, err = recorder.NewWriter(recorder.DefaultConfig(cfg.OutputDir), metrics)
		if err != nil {
			return err
		}
		sinks = append(sinks, sink.NewFiles(writer, cfg.Formats))
	}

	use, err := ingest.NewUsecase(ingest.Config{
		Feeds: cfg.Feeds,
		Producer: ingest.ProducerConfig{
			BaseURL:  cfg.Network.BaseURL(),
			Interval: cfg.Interval,
			Samples:  cfg.Samples,
			Backoff:  websocket.FixedBackoff(cfg.ReconnectDelay),
		},
		QueueSize: cfg.QueueSize,
	}, websocket.NewDialer(), writer, metrics, sinks...)
	if err != nil {
		return err
	}

	logs.Infof("preparing to load %d streams", len(cfg.Feeds))
	return use.Run(ctx)
}

func connectRedis(ctx context.Context, env ops.Env) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     env.RedisAddr(),
		Password: env.RedisPassword,
		DB:       env.RedisDB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}
	logs.Infof("successfully connected to redis at %s", env.RedisAddr())
	return client, nil
}

// setupLogging routes status logs to stderr, unless silent, and to the log
// file when one is requested.
func setupLogging(opts ops.Options) (func(), error) {
	var writers []io.Writer
	if !opts.Silent {
		writers = append(writers, os.Stderr)
	}
	closeFn := func() {}
	if opts.LogPath != "" {
		f, err := os.OpenFile(opts.LogPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, errors.Wrap(err, "open log file").With("path", opts.LogPath)
		}
		writers = append(writers, f)
		closeFn = func() { _ = f.Close() }
	}
	if len(writers) == 0 {
		writers = append(writers, io.Discard)
	}
	// the library logs to stdout by default, which carries the printed data
	logs.SetDefault(logs.New(logs.LevelInfo, &logs.Option{Output: io.MultiWriter(writers...)}))
	return closeFn, nil
}

type profilerLogger struct{}

func (profilerLogger) Infof(format string, args ...interface{}) { logs.Infof(format, args...) }
func (profilerLogger) Debugf(string, ...interface{}) {}
func (profilerLogger) Errorf(format string, args ...interface{}) { logs.Errorf(format, args...) }
