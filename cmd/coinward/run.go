package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	str2duration "github.com/xhit/go-str2duration/v2"

	"github.com/coinward/coinward"
	"github.com/coinward/coinward/core"
	"github.com/coinward/coinward/logger/zerolog"
	"github.com/coinward/coinward/notification"
	"github.com/coinward/coinward/quote"
	"github.com/coinward/coinward/storage"
)

var configFile string

func buildRunCmd() *cobra.Command {
	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Start the bot",
		RunE:  runBot,
	}
	runCmd.Flags().StringVarP(&configFile, "config", "c", "coinward.yml", "Configuration file")
	return runCmd
}

func loadConfig() (*viper.Viper, error) {
	v := viper.New()
	v.SetConfigFile(configFile)
	v.SetEnvPrefix("COINWARD")
	v.AutomaticEnv()

	v.SetDefault("storage.driver", "buntdb")
	v.SetDefault("storage.path", "coinward.db")
	v.SetDefault("refresh_interval", "1m")
	v.SetDefault("quote.source", "coingecko")
	v.SetDefault("log.level", "info")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config %s: %w", configFile, err)
	}
	return v, nil
}

func runBot(cmd *cobra.Command, _ []string) error {
	v, err := loadConfig()
	if err != nil {
		return err
	}

	interval, err := str2duration.ParseDuration(v.GetString("refresh_interval"))
	if err != nil {
		return fmt.Errorf("invalid refresh_interval: %w", err)
	}

	var store core.Storage
	switch driver := v.GetString("storage.driver"); driver {
	case "buntdb":
		store, err = storage.NewFromFile(v.GetString("storage.path"))
	case "sqlite":
		store, err = storage.NewFromSQLite(v.GetString("storage.path"), storage.DefaultSQLConfig())
	default:
		return fmt.Errorf("unknown storage driver %q", driver)
	}
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}

	var (
		quoter   core.Quoter
		resolver core.Resolver
	)
	switch source := v.GetString("quote.source"); source {
	case "coingecko":
		gecko := quote.NewCoinGecko(quote.WithAPIKey(v.GetString("quote.api_key")))
		quoter, resolver = gecko, gecko
	case "binance":
		quoter = quote.NewBinance(v.GetString("quote.binance_api_key"), v.GetString("quote.binance_api_secret"))
	default:
		return fmt.Errorf("unknown quote source %q", source)
	}

	log, err := zerolog.New(v.GetString("log.level"), "2006-01-02 15:04:05", true, v.GetBool("log.json"))
	if err != nil {
		return err
	}

	bot, err := coinward.NewBot(quoter,
		coinward.WithStorage(store),
		coinward.WithInterval(interval),
		coinward.WithLogger(log),
	)
	if err != nil {
		return err
	}

	if v.IsSet("profit_band_pct") {
		band, err := decimal.NewFromString(v.GetString("profit_band_pct"))
		if err != nil {
			return fmt.Errorf("invalid profit_band_pct: %w", err)
		}
		if err := bot.Engine().SetProfitBand(cmd.Context(), band); err != nil {
			return err
		}
	}

	if token := v.GetString("telegram.token"); token != "" {
		options := []notification.Option{}
		if resolver != nil {
			options = append(options, notification.WithResolver(resolver))
		}
		telegram, err := notification.NewTelegram(bot.Engine(), notification.Config{
			Token: token,
			Users: v.GetIntSlice("telegram.users"),
		}, options...)
		if err != nil {
			return fmt.Errorf("telegram setup: %w", err)
		}
		bot.SetNotifier(telegram)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return bot.Run(ctx)
}
