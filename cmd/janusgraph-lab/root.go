package main

import (
	"context"
	"io"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/infobarbosa/janusgraph-lab/cmd/janusgraph-lab/internal"
	"github.com/infobarbosa/janusgraph-lab/internal/config"
	"github.com/infobarbosa/janusgraph-lab/internal/graph"
	"github.com/infobarbosa/janusgraph-lab/internal/observability"
)

const instrumentationName = "github.com/infobarbosa/janusgraph-lab"

// Dialer opens a connection to the graph store.
type Dialer func(ctx context.Context, cfg graph.ClientConfig) (graph.Conn, error)

func defaultDialer(ctx context.Context, cfg graph.ClientConfig) (graph.Conn, error) {
	return graph.Open(ctx, cfg)
}

// cli is one invocation: the command tree plus the state its subcommands
// share once PersistentPreRunE has run.
type cli struct {
	root   *cobra.Command
	flags  GlobalFlags
	dial   Dialer
	cfg    *config.Config
	logger *slog.Logger
	tp     *sdktrace.TracerProvider
	mp     *sdkmetric.MeterProvider
}

func newCLI(dial Dialer) *cli {
	c := &cli{dial: dial, logger: slog.New(slog.NewTextHandler(io.Discard, nil))}

	c.root = &cobra.Command{
		Use:   "janusgraph-lab",
		Short: "Seed and verify a demonstration relationship graph",
		Long: `janusgraph-lab seeds a small social and corporate relationship graph
into a Gremlin Server, JanusGraph or Neo4j store and runs read-only
traversals that verify the seeded state.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := c.flags.Validate(); err != nil {
				return err
			}
			switch cmd.Name() {
			case "version", "completion", "help":
				return nil
			}
			return c.setup(cmd)
		},
	}
	RegisterGlobalFlags(c.root, &c.flags)

	c.root.AddCommand(c.newSeedCmd())
	c.root.AddCommand(c.newVerifyCmd())
	c.root.AddCommand(c.newStatusCmd())
	c.root.AddCommand(c.newVersionCmd())
	c.root.AddCommand(newCompletionCmd())

	return c
}

// Execute runs the command tree until it returns or SIGINT/SIGTERM cancels
// it, then flushes telemetry.
func (c *cli) Execute(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	defer c.shutdown()

	return c.root.ExecuteContext(ctx)
}

// setup loads configuration and starts logging and telemetry.
func (c *cli) setup(cmd *cobra.Command) error {
	path := c.flags.ConfigFile
	loader := config.NewConfigLoader(config.NewValidator())

	var (
		cfg *config.Config
		err error
	)
	if path != "" {
		cfg, err = loader.Load(path)
	} else {
		cfg, err = loader.LoadWithDefaults(config.DefaultConfigPath())
	}
	if err != nil {
		return err
	}
	if c.flags.Verbose {
		cfg.Logging.Level = "debug"
	}
	c.cfg = cfg

	logger, err := observability.NewLogger(cmd.ErrOrStderr(), cfg.Logging)
	if err != nil {
		return err
	}
	c.logger = logger
	slog.SetDefault(logger)

	ctx := cmd.Context()
	if c.tp, err = observability.InitTracing(ctx, cfg.Tracing); err != nil {
		return err
	}
	if c.mp, err = observability.InitMetrics(ctx, cfg.Tracing); err != nil {
		return err
	}
	return nil
}

func (c *cli) shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := observability.ShutdownTracing(ctx, c.tp); err != nil {
		c.logger.Warn("tracing shutdown failed", "error", err)
	}
	if err := observability.ShutdownMetrics(ctx, c.mp); err != nil {
		c.logger.Warn("metrics shutdown failed", "error", err)
	}
}

// connect opens the configured store behind the instrumentation decorator.
// Callers must defer c.disconnect.
func (c *cli) connect(ctx context.Context) (graph.Conn, error) {
	cc := c.cfg.Store.ClientConfig()
	c.logger.DebugContext(ctx, "connecting to graph store", "backend", cc.Backend, "uri", cc.URI)

	conn, err := c.dial(ctx, cc)
	if err != nil {
		return nil, err
	}

	instrumented, err := graph.NewInstrumentedConn(conn,
		graph.WithTracer(c.tp.Tracer(instrumentationName)),
		graph.WithMeter(c.mp.Meter(instrumentationName)),
		graph.WithLogger(c.logger),
	)
	if err != nil {
		_ = conn.Close(ctx)
		return nil, err
	}
	return instrumented, nil
}

// disconnect closes conn even when ctx was cancelled.
func (c *cli) disconnect(ctx context.Context, conn graph.Conn) {
	if err := conn.Close(context.WithoutCancel(ctx)); err != nil {
		c.logger.WarnContext(ctx, "failed to close graph connection", "error", err)
	}
}

func (c *cli) formatter(cmd *cobra.Command) internal.Formatter {
	return internal.NewFormatter(c.flags.Format(), cmd.OutOrStdout())
}

func newCompletionCmd() *cobra.Command {
	return &cobra.Command{
		Use:                   "completion [bash|zsh|fish|powershell]",
		Short:                 "Generate shell completion scripts",
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletion(out)
			case "zsh":
				return cmd.Root().GenZshCompletion(out)
			case "fish":
				return cmd.Root().GenFishCompletion(out, true)
			default:
				return cmd.Root().GenPowerShellCompletionWithDesc(out)
			}
		},
	}
}
