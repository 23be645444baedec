package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/pflag"
	zaplogfmt "github.com/sykesm/zap-logfmt"
	"github.com/thecodeteam/goodbye"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/praetorius/dependamerge/internal/automerge"
	"github.com/praetorius/dependamerge/internal/cfg"
	"github.com/praetorius/dependamerge/internal/gitclt"
	"github.com/praetorius/dependamerge/internal/githubclt"
	"github.com/praetorius/dependamerge/internal/logfields"
)

const appName = "dependamerge"

var logger *zap.Logger

// Version is set via a ldflag on compilation
var Version = "unknown"

// cancelWaitTimeout is the maximum duration the signal handler waits for the
// run to unwind, an in-flight rebase must be aborted before the process
// exits.
const cancelWaitTimeout = time.Minute

func exitOnErr(msg string, err error) {
	if err == nil {
		return
	}

	fmt.Fprintln(os.Stderr, "ERROR:", msg+", error:", err.Error())
	os.Exit(1)
}

func panicHandler() {
	if r := recover(); r != nil {
		logger.Info(
			"panic caught, terminating gracefully",
			zap.String("panic", fmt.Sprintf("%v", r)),
			zap.StackSkip("stacktrace", 1),
		)

		ctx, cancelFn := context.WithTimeout(context.Background(), time.Minute)
		defer cancelFn()

		goodbye.Exit(ctx, 1)
	}
}

func startMetricsServer(listenAddr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	httpServer := http.Server{
		Addr:    listenAddr,
		Handler: mux,
	}

	goodbye.Register(func(context.Context, os.Signal) {
		const shutdownTimeout = 30 * time.Second
		ctx, cancelFn := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancelFn()

		err := httpServer.Shutdown(ctx)
		if err != nil {
			logger.Warn(
				"shutting down metrics server failed",
				logfields.Event("metrics_server_termination_failed"),
				zap.Error(err),
			)
		}
	})

	go func() {
		defer panicHandler()

		logger.Info(
			"metrics server started",
			logfields.Event("metrics_server_started"),
			zap.String("listenAddr", listenAddr),
		)

		err := httpServer.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			return
		}

		logger.Fatal(
			"metrics server terminated unexpectedly",
			logfields.Event("metrics_server_terminated_unexpectedly"),
			zap.Error(err),
		)
	}()
}

type arguments struct {
	Verbose           *bool
	ConfigFile        *string
	DryRun            *bool
	MetricsListenAddr *string
	ShowVersion       *bool
}

var args arguments

const defConfigFile = "/etc/dependamerge/config.toml"

func mustParseCommandlineParams() {
	args = arguments{
		Verbose: pflag.BoolP(
			"verbose",
			"v",
			false,
			"enable verbose logging",
		),
		ConfigFile: pflag.StringP(
			"cfg-file",
			"c",
			defConfigFile,
			"path to the dependamerge configuration file",
		),
		DryRun: pflag.Bool(
			"dry-run",
			false,
			"log mutating operations instead of executing them",
		),
		MetricsListenAddr: pflag.String(
			"metrics-listen-addr",
			"",
			"serve prometheus metrics on this address during the run",
		),
		ShowVersion: pflag.Bool(
			"version",
			false,
			"print the version and exit",
		),
	}

	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [OPTION]\nMerge dependency-update pull requests into their base branch.\n", appName)
		fmt.Fprintf(os.Stderr, "\nOptions:\n")
		pflag.PrintDefaults()
	}

	pflag.Parse()
}

func mustParseCfg() *cfg.Config {
	// we use exitOnErr in this function instead of logger.Fatal() because
	// the logger is not initialized yet

	file, err := os.Open(*args.ConfigFile)
	exitOnErr("could not open configuration file", err)
	defer file.Close()

	config, err := cfg.Load(file)
	if err != nil {
		exitOnErr(fmt.Sprintf("could not load configuration file: %s", *args.ConfigFile), err)
	}

	if config.GithubAPIToken == "" {
		config.GithubAPIToken = os.Getenv("GITHUB_TOKEN")
	}

	if err := config.Validate(); err != nil {
		exitOnErr(fmt.Sprintf("invalid configuration file: %s", *args.ConfigFile), err)
	}

	return config
}

func initLogFmtLogger(config *cfg.Config, logLevel zapcore.Level) *zap.Logger {
	cfg := zapEncoderConfig(config)

	logger := zap.New(zapcore.NewCore(
		zaplogfmt.NewEncoder(cfg),
		os.Stdout,
		logLevel),
	)

	return logger
}

func zapEncoderConfig(config *cfg.Config) zapcore.EncoderConfig {
	cfg := zap.NewProductionEncoderConfig()

	cfg.LevelKey = "loglevel"
	cfg.TimeKey = config.LogTimeKey
	cfg.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.EncodeDuration = zapcore.StringDurationEncoder

	return cfg
}

func mustInitZapFormatLogger(config *cfg.Config, logLevel zapcore.Level) *zap.Logger {
	cfg := zap.NewProductionConfig()
	cfg.Sampling = nil
	cfg.EncoderConfig = zapEncoderConfig(config)
	cfg.OutputPaths = []string{"stdout"}
	cfg.Encoding = config.LogFormat
	cfg.Level = zap.NewAtomicLevelAt(logLevel)

	logger, err := cfg.Build()
	exitOnErr("could not initialize logger", err)

	return logger
}

func mustInitLogger(config *cfg.Config) {
	var logLevel zapcore.Level
	if *args.Verbose {
		logLevel = zapcore.DebugLevel
	} else {
		if err := (&logLevel).Set(config.LogLevel); err != nil {
			fmt.Fprintf(os.Stderr, "can not set log level to %q: %s\n", config.LogLevel, err)
			os.Exit(2)
		}
	}

	switch config.LogFormat {
	case "logfmt":
		logger = initLogFmtLogger(config, logLevel)
	case "console", "json":
		logger = mustInitZapFormatLogger(config, logLevel)
	default:
		fmt.Fprintf(os.Stderr, "unsupported log-format argument: %q\n", config.LogFormat)
		os.Exit(2)
	}

	logger = logger.Named("main")
	zap.ReplaceGlobals(logger)

	goodbye.Register(func(context.Context, os.Signal) {
		if err := logger.Sync(); err != nil {
			fmt.Fprintf(os.Stderr, "flushing logs failed: %s\n", err)
		}
	})
}

func hide(in string) string {
	if in == "" {
		return in
	}

	return "**hidden**"
}

func main() {
	defer panicHandler()

	defer goodbye.Exit(context.Background(), 1)
	goodbye.Notify(context.Background())

	mustParseCommandlineParams()

	if *args.ShowVersion {
		fmt.Printf("%s %s\n", appName, Version)
		os.Exit(0) // nolint:gocritic // defer functions won't run
	}

	// credentials can be provided via a .env file, a missing file is not
	// an error
	_ = godotenv.Load()

	config := mustParseCfg()

	mustInitLogger(config)

	logger.Info(
		"loaded cfg file",
		logfields.Event("cfg_loaded"),
		zap.String("cfg_file", *args.ConfigFile),
		zap.String("repository_owner", config.RepositoryOwner),
		zap.String("repository", config.Repository),
		zap.String("target_branch", config.TargetBranch),
		zap.String("agent_identifier", config.AgentIdentifier),
		zap.String("github_api_token", hide(config.GithubAPIToken)),
		zap.Bool("auto_merge_mode", config.AutoMergeMode),
		zap.Int("max_poll_attempts", config.MaxPollAttempts),
		zap.Int("poll_backoff_seconds", config.PollBackoffSeconds),
		zap.String("log_format", config.LogFormat),
		zap.String("log_level", config.LogLevel),
	)

	if *args.MetricsListenAddr != "" {
		startMetricsServer(*args.MetricsListenAddr)
	}

	var ghClient automerge.GithubClient = githubclt.New(config.GithubAPIToken)
	var gitClient automerge.GitClient = gitclt.New(config.GitDir, config.GitRemote)

	if *args.DryRun {
		logger.Info("dry-run enabled, mutating operations are only simulated")
		ghClient = automerge.NewDryGithubClient(ghClient, logger)
		gitClient = automerge.NewDryGitClient(logger)
	}

	filter, err := automerge.NewFilter(config.AgentIdentifier, config.TargetBranch, config.FilterQuery)
	exitOnErr("could not create eligibility filter", err)

	retryer := automerge.NewRetryer()
	defer retryer.Stop()

	resolver := automerge.NewConflictResolver(
		ghClient, gitClient, retryer,
		config.RepositoryOwner, config.Repository,
	)
	orchestrator := automerge.NewOrchestrator(
		ghClient, retryer,
		config.RepositoryOwner, config.Repository,
		config.AutoMergeMode,
		time.Duration(config.InitialDelaySeconds)*time.Second,
		time.Duration(config.PollBackoffSeconds)*time.Second,
		config.MaxPollAttempts,
	)
	coordinator := automerge.NewCoordinator(
		ghClient, filter, resolver, orchestrator,
		config.RepositoryOwner, config.Repository,
	)

	runCtx, cancelRun := context.WithCancel(context.Background())
	defer cancelRun()

	runDone := make(chan struct{})

	goodbye.Register(func(_ context.Context, sig os.Signal) {
		logger.Info(fmt.Sprintf("received signal %s, cancelling run", sig.String()))
		cancelRun()

		select {
		case <-runDone:
		case <-time.After(cancelWaitTimeout):
			logger.Warn("run did not terminate before timeout expired")
		}
	})

	summary, err := coordinator.Run(runCtx)
	close(runDone)

	if err != nil {
		logger.Error(
			"run failed",
			logfields.Event("run_failed"),
			zap.Error(err),
		)

		goodbye.Exit(context.Background(), 1)
	}

	fmt.Println(summary.String())

	if summary.Failed() {
		goodbye.Exit(context.Background(), 1)
	}

	goodbye.Exit(context.Background(), 0)
}
