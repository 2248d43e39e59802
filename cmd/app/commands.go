package main

import (
	"fmt"
	"io"
	"strings"

	"StockPredictor/internal/di"
	"StockPredictor/internal/domain/models"
	"StockPredictor/internal/usecase"
	"StockPredictor/pkg/config"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	var configPath string

	loadConfig := func() (*config.Config, error) {
		// a missing .env is normal outside development
		_ = godotenv.Load()
		cfg, err := config.LoadWithEnv(configPath)
		if err != nil {
			return nil, fmt.Errorf("config load failed: %w", err)
		}
		return cfg, nil
	}

	serve := func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		app, err := di.InitializeApp(cfg)
		if err != nil {
			return fmt.Errorf("app initialization failed: %w", err)
		}
		// blocks until signal
		return app.Run(cmd.Context())
	}

	rootCmd := &cobra.Command{
		Use:           "stockpredictor",
		Short:         "Stock price forecasting service",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          serve,
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "config/config.yaml", "config file path (empty for defaults)")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		Args:  cobra.NoArgs,
		RunE:  serve,
	})
	rootCmd.AddCommand(newTrainCmd(loadConfig))
	rootCmd.AddCommand(newPredictCmd(loadConfig))

	return rootCmd
}

func newTrainCmd(loadConfig func() (*config.Config, error)) *cobra.Command {
	return &cobra.Command{
		Use:   "train TICKER",
		Short: "Resolve a ticker and train its model if none is stored",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tk, err := toolkit(loadConfig)
			if err != nil {
				return err
			}
			defer tk.Close()

			ctx := cmd.Context()
			res, err := tk.Resolver.Resolve(ctx, args[0])
			if err != nil {
				return err
			}
			trained, err := tk.Gate.EnsureTrained(ctx, res.Identifier)
			if err != nil {
				return err
			}

			if trained {
				fmt.Fprintf(cmd.OutOrStdout(), "trained model for %s\n", res.Identifier)
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "model for %s is already stored\n", res.Identifier)
			}
			return nil
		},
	}
}

func newPredictCmd(loadConfig func() (*config.Config, error)) *cobra.Command {
	var days int

	cmd := &cobra.Command{
		Use:   "predict TICKER",
		Short: "Forecast closing prices for a ticker",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tk, err := toolkit(loadConfig)
			if err != nil {
				return err
			}
			defer tk.Close()

			f, err := tk.Predict.Predict(cmd.Context(), usecase.PredictParams{Ticker: args[0], Days: days})
			if err != nil {
				return err
			}
			return printForecast(cmd.OutOrStdout(), f)
		},
	}
	cmd.Flags().IntVar(&days, "days", 1, "number of days to forecast")

	return cmd
}

func toolkit(loadConfig func() (*config.Config, error)) (*di.Toolkit, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	tk, err := di.InitializeToolkit(cfg)
	if err != nil {
		return nil, fmt.Errorf("app initialization failed: %w", err)
	}
	return tk, nil
}

// printForecast writes one line per day with the change against the last valid close.
func printForecast(w io.Writer, f *models.Forecast) error {
	var last decimal.Decimal
	if closes := f.History.ValidCloses(); len(closes) > 0 {
		last = decimal.NewFromFloat(closes[len(closes)-1])
	}

	lines := []string{f.Identifier}
	for i, p := range f.Predictions {
		line := fmt.Sprintf("day %d: %s", i+1, models.FormatPrice(p))
		if last.IsPositive() {
			change := decimal.NewFromFloat(p).Sub(last).Div(last).Mul(decimal.NewFromInt(100))
			sign := ""
			if !change.IsNegative() {
				sign = "+"
			}
			line += fmt.Sprintf(" (%s%s%%)", sign, change.StringFixed(2))
		}
		lines = append(lines, line)
	}
	_, err := fmt.Fprintln(w, strings.Join(lines, "\n"))
	return err
}
