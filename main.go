package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/tournevent/codtracker/internal/server"
	"go.uber.org/zap"
)

var version = "0.1.0"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(),
		syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:          "codtracker",
	Short:        "COD Tracker - Shopify cash-on-delivery orders with live Correos tracking",
	Version:      version,
	SilenceUsage: true,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the dashboard API server",
	RunE:  runServe,
}

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Test the Shopify and Correos connections",
	RunE:  runCheck,
}

var ordersCmd = &cobra.Command{
	Use:   "orders",
	Short: "Print tracked COD orders",
	RunE:  runOrders,
}

var (
	outputFormat string
	startDate    string
	endDate      string
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "format", "o", "table", "Output format: table or json")
	ordersCmd.Flags().StringVar(&startDate, "start", "", "Only orders created on or after this date (YYYY-MM-DD)")
	ordersCmd.Flags().StringVar(&endDate, "end", "", "Only orders created on or before this date (YYYY-MM-DD)")

	rootCmd.AddCommand(serveCmd, checkCmd, ordersCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	a, cleanup, err := setup(ctx, prometheus.DefaultRegisterer)
	if err != nil {
		return err
	}
	defer cleanup()

	a.logger.Info("Starting COD Tracker",
		zap.Int("port", a.cfg.Port),
		zap.String("version", a.cfg.Version),
		zap.Bool("shopify_mock", a.cfg.ShopifyUseMock),
		zap.Bool("correos_mock", a.cfg.CorreosUseMock),
	)

	// Start HTTP server
	srv, err := server.New(server.Config{
		Port:           a.cfg.Port,
		AllowedOrigins: a.cfg.CORSAllowedOrigins,
		LoginRateLimit: a.cfg.LoginRateLimit,
		Username:       a.cfg.AppUser,
		Password:       a.cfg.AppPassword,
	}, a.resolver, prometheus.DefaultGatherer, a.logger)
	if err != nil {
		return err
	}
	if err := srv.Run(ctx); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

var errConnectionFailed = errors.New("one or more connections failed")

func runCheck(cmd *cobra.Command, args []string) error {
	a, cleanup, err := setup(cmd.Context(), prometheus.NewRegistry())
	if err != nil {
		return err
	}
	defer cleanup()

	report := a.resolver.TestConnections(cmd.Context())
	if err := writeReport(cmd.OutOrStdout(), report, outputFormat); err != nil {
		return err
	}
	if !report.OK() {
		return errConnectionFailed
	}
	return nil
}

func runOrders(cmd *cobra.Command, args []string) error {
	a, cleanup, err := setup(cmd.Context(), prometheus.NewRegistry())
	if err != nil {
		return err
	}
	defer cleanup()

	records, err := a.resolver.Orders(cmd.Context(), startDate, endDate)
	if err != nil {
		return fmt.Errorf("failed to fetch order data: %w", err)
	}
	return writeRecords(cmd.OutOrStdout(), records, outputFormat)
}
