package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/tournevent/freightquote/internal/api"
	"github.com/tournevent/freightquote/internal/graphql"
	"github.com/tournevent/freightquote/internal/refdata"
	"github.com/tournevent/freightquote/internal/server"
	"github.com/tournevent/freightquote/internal/telemetry"
)

var version = "0.0.1"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(),
		syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "freightquote",
	Short:   "Freight quote engine - priced shipping offers from rate tables",
	Version: version,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	RunE:  runServe,
}

var quoteCmd = &cobra.Command{
	Use:   "quote",
	Short: "Compute quotes for one shipment and print them as JSON",
	RunE:  runQuote,
}

var weightCmd = &cobra.Command{
	Use:   "weight",
	Short: "Compute the chargeable weight of a package",
	RunE:  runWeight,
}

var reloadCmd = &cobra.Command{
	Use:   "reload",
	Short: "Ask running servers to reload reference data",
	RunE:  runReload,
}

var (
	quoteFlags  api.QuoteInput
	weightFlags api.WeightInput
	reloadWhy   string
)

func init() {
	f := quoteCmd.Flags()
	f.StringVar(&quoteFlags.DestinationCountry, "country", "", "destination country (name or ISO code)")
	f.StringVar(&quoteFlags.PostalCode, "postal", "", "destination postal code")
	f.StringVar(&quoteFlags.City, "city", "", "destination city")
	f.StringVar(&quoteFlags.OriginCity, "origin", "", "origin city (default: primary hub)")
	f.StringSliceVar(&quoteFlags.ShippingMethods, "method", nil, "requested shipping method, repeatable")
	f.StringVar(&quoteFlags.CargoCategory, "cargo", "", "cargo category")
	f.StringVar(&quoteFlags.Material, "material", "", "cargo material description")
	f.BoolVar(&quoteFlags.CustomsDeclaration, "customs", false, "request customs declaration")
	f.Float64("weight", 0, "actual weight in kg")
	f.Float64Slice("dims", nil, "dimensions in cm as L,W,H")
	f.Float64("custom-rate", 0, "custom price per kg")
	_ = quoteCmd.MarkFlagRequired("country")

	wf := weightCmd.Flags()
	wf.Float64("weight", 0, "actual weight in kg")
	wf.Float64Slice("dims", nil, "dimensions in cm as L,W,H")

	reloadCmd.Flags().StringVar(&reloadWhy, "reason", "manual", "reason recorded with the notice")

	rootCmd.AddCommand(serveCmd, quoteCmd, weightCmd, reloadCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	// Load configuration
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	// Initialize telemetry
	logger, err := initLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	tracer, tracerShutdown, err := initTracer(ctx, cfg)
	if err != nil {
		logger.Warn("Failed to initialize tracer", zap.Error(err))
	} else {
		defer tracerShutdown(ctx)
	}

	metrics := telemetry.NewMetrics(prometheus.DefaultRegisterer)

	store, err := initStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	engine := initEngine(cfg, store, logger, tracer)
	resolver := graphql.NewResolver(engine, logger, metrics)

	logger.Info("Starting freight quote service",
		zap.Int("port", cfg.Port),
		zap.String("version", cfg.Version),
		zap.String("rate_backend", cfg.RateBackend),
	)

	srv := server.New(server.Config{Port: cfg.Port}, resolver, logger)

	var sub *refdata.Subscriber
	if cfg.ReloadEnabled {
		client, err := refdata.Connect(ctx, cfg.RedisAddr, cfg.RedisDB)
		if err != nil {
			return err
		}
		defer client.Close()
		sub = refdata.NewSubscriber(client, cfg.ReloadChannel, store.Reload, logger, metrics)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.Run(gctx)
	})
	if sub != nil {
		g.Go(func() error {
			return sub.Run(gctx)
		})
	}

	if err := g.Wait(); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

func runQuote(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger, err := telemetry.NewCLILogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	input := quoteFlags
	input.WeightKg, input.Dimensions, err = packageFlags(cmd)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("custom-rate") {
		rate, _ := cmd.Flags().GetFloat64("custom-rate")
		input.CustomRatePerKg = &rate
	}

	store, err := initStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	engine := initEngine(cfg, store, logger, nil)
	resolver := graphql.NewResolver(engine, logger, telemetry.NewMetrics(prometheus.NewRegistry()))
	resp, err := resolver.Query().Quotes(ctx, input)
	if err != nil {
		return err
	}
	return printJSON(cmd, resp)
}

func runWeight(cmd *cobra.Command, args []string) error {
	logger, err := telemetry.NewCLILogger("warn")
	if err != nil {
		return err
	}
	defer logger.Sync()

	var input api.WeightInput
	input.WeightKg, input.Dimensions, err = packageFlags(cmd)
	if err != nil {
		return err
	}

	resolver := graphql.NewResolver(initWeightEngine(logger), logger, telemetry.NewMetrics(prometheus.NewRegistry()))
	resp, err := resolver.Query().ChargeableWeight(cmd.Context(), input)
	if err != nil {
		return err
	}
	return printJSON(cmd, resp)
}

func runReload(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	client, err := refdata.Connect(ctx, cfg.RedisAddr, cfg.RedisDB)
	if err != nil {
		return err
	}
	defer client.Close()

	host, _ := os.Hostname()
	n, err := refdata.Publish(ctx, client, cfg.ReloadChannel, host, reloadWhy)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "reload notice delivered to %d subscriber(s)\n", n)
	return nil
}

// packageFlags reads --weight and --dims; unset flags stay nil.
func packageFlags(cmd *cobra.Command) (*float64, *api.DimensionsInput, error) {
	var weight *float64
	if cmd.Flags().Changed("weight") {
		w, err := cmd.Flags().GetFloat64("weight")
		if err != nil {
			return nil, nil, err
		}
		weight = &w
	}

	var dims *api.DimensionsInput
	if cmd.Flags().Changed("dims") {
		d, err := cmd.Flags().GetFloat64Slice("dims")
		if err != nil {
			return nil, nil, err
		}
		if len(d) != 3 {
			return nil, nil, fmt.Errorf("--dims needs three values, got %d", len(d))
		}
		dims = &api.DimensionsInput{Length: d[0], Width: d[1], Height: d[2]}
	}
	return weight, dims, nil
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
