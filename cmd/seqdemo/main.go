// Command seqdemo runs join and group-by reports over a bolt store, on the
// command line or as NDJSON streams over HTTP.
//
//	seqdemo seed --customers 50 --orders 500
//	seqdemo report customers --limit 10
//	seqdemo serve
//	seqdemo import http://other-host:8080/feed/orders
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/goccy/go-json"
	"github.com/spf13/pflag"

	"github.com/kbukum/seqkit/config"
	"github.com/kbukum/seqkit/errors"
	"github.com/kbukum/seqkit/kvsource"
	"github.com/kbukum/seqkit/logger"
	"github.com/kbukum/seqkit/seq"
	"github.com/kbukum/seqkit/server"
	"github.com/kbukum/seqkit/version"
)

type options struct {
	configFile  string
	envFile     string
	customers   int
	orders      int
	city        string
	limit       int
	showVersion bool
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx, os.Args[1:], os.Stdout)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, "seqdemo:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout io.Writer) error {
	var opts options
	fs := pflag.NewFlagSet("seqdemo", pflag.ContinueOnError)
	fs.StringVarP(&opts.configFile, "config", "c", "", "config file (default: search cmd/seqdemo, config/, .)")
	fs.StringVar(&opts.envFile, "env-file", "", ".env file to load")
	fs.IntVar(&opts.customers, "customers", 50, "customers to generate (seed)")
	fs.IntVar(&opts.orders, "orders", 500, "orders to generate (seed)")
	fs.StringVar(&opts.city, "city", "", "only this city (report orders)")
	fs.IntVar(&opts.limit, "limit", -1, "stop after this many lines (report)")
	fs.BoolVarP(&opts.showVersion, "version", "v", false, "print version and exit")
	fs.Usage = func() {
		fmt.Fprintln(fs.Output(), "usage: seqdemo [flags] seed | report orders|customers|status|cities | import <url> | serve")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return err
	}
	if opts.showVersion {
		_, err := fmt.Fprintln(stdout, version.GetVersionInfo())
		return err
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return errors.MissingArgument("command")
	}
	command, rest := fs.Arg(0), fs.Args()[1:]

	var cfg Config
	if err := config.Load("seqdemo", &cfg, configOptions(opts)...); err != nil {
		return err
	}
	if command == "report" {
		cfg.Logging.Output = "stderr"
	}
	logger.Init(cfg.Logging)
	logger.RegisterDefaults("seq", "kvsource", "ndjson", "resilience", "config")
	log := logger.WithComponent("seqdemo")

	metrics, shutdown, err := setupTelemetry(ctx, &cfg)
	if err != nil {
		return err
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(sctx); err != nil {
			log.Warn("telemetry shutdown", logger.Fields(logger.FieldError, err.Error()))
		}
	}()

	store, err := kvsource.Open(cfg.Store.Path, kvsource.Options{Timeout: cfg.Store.OpenTimeout, Metrics: metrics})
	if err != nil {
		return err
	}
	defer store.Close()

	r := &reports{store: store, cfg: cfg.Store, metrics: metrics, log: log}

	switch command {
	case "seed":
		return r.seed(ctx, opts.customers, opts.orders)
	case "report":
		if len(rest) != 1 {
			return errors.MissingArgument("report name")
		}
		return printReport(ctx, r, rest[0], opts, stdout)
	case "import":
		if len(rest) != 1 {
			return errors.MissingArgument("url")
		}
		n, err := r.importOrders(ctx, rest[0], cfg.Import)
		if err != nil {
			return err
		}
		log.Info("orders imported", logger.Fields(logger.FieldURL, rest[0], logger.FieldElements, n))
		return nil
	case "serve":
		return serve(ctx, r, &cfg, log)
	default:
		fs.Usage()
		return errors.InvalidArgument("command", fmt.Sprintf("unknown command %q", command))
	}
}

func configOptions(opts options) []config.LoaderOption {
	var out []config.LoaderOption
	if opts.configFile != "" {
		out = append(out, config.WithConfigFile(opts.configFile))
	}
	if opts.envFile != "" {
		out = append(out, config.WithEnvFile(opts.envFile))
	}
	return out
}

func printReport(ctx context.Context, r *reports, name string, opts options, w io.Writer) error {
	switch name {
	case "orders":
		return writeLines(ctx, w, r.orderLines(opts.city), opts.limit)
	case "customers":
		return writeLines(ctx, w, r.customerSummaries(), opts.limit)
	case "status":
		return writeLines(ctx, w, r.statusCounts(), opts.limit)
	case "cities":
		return writeLines(ctx, w, r.cities(), opts.limit)
	}
	return errors.InvalidArgument("report", fmt.Sprintf("unknown report %q", name))
}

// writeLines writes s as NDJSON. A negative limit writes everything.
func writeLines[T any](ctx context.Context, w io.Writer, s seq.Sequence[T], limit int) error {
	if limit >= 0 {
		s = seq.Take(s, limit)
	}
	enc := json.NewEncoder(w)
	for v, err := range seq.All(ctx, s) {
		if err != nil {
			return err
		}
		if err := enc.Encode(v); err != nil {
			return err
		}
	}
	return nil
}

func serve(ctx context.Context, r *reports, cfg *Config, log *logger.Logger) error {
	srv := server.New(cfg.HTTP, log)
	srv.ApplyMiddleware()
	registerRoutes(srv.Engine(), r, cfg)

	if err := srv.Start(ctx); err != nil {
		return err
	}
	<-ctx.Done()
	return srv.Stop(context.Background())
}
