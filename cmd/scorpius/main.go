package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/xxxsen/common/logger"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/cisbeo/scorpiusProject-sub002/internal/config"
	"github.com/cisbeo/scorpiusProject-sub002/internal/pkg/jwt"
)

func main() {
	var configPath string

	rootCmd := &cobra.Command{
		Use:   "scorpius",
		Short: "tender intelligence and bid decision server",
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to config.json")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run the http server and the sweepers",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			return runServer(cfg)
		},
	}

	purgeCmd := &cobra.Command{
		Use:   "purge",
		Short: "run the cache and tombstone sweepers once",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			return runPurge(cmd.Context(), cfg)
		},
	}

	var tenantID, userID string
	var ttl time.Duration
	tokenCmd := &cobra.Command{
		Use:   "token",
		Short: "issue a tenant bearer token for local use",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			if tenantID == "" {
				return fmt.Errorf("--tenant is required")
			}
			token, err := jwt.GenerateToken(tenantID, userID, []byte(cfg.JWTSecret), ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	tokenCmd.Flags().StringVar(&tenantID, "tenant", "", "tenant id carried by the token")
	tokenCmd.Flags().StringVar(&userID, "user", "", "optional user id")
	tokenCmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "token lifetime")

	rootCmd.AddCommand(runCmd, purgeCmd, tokenCmd)

	if err := rootCmd.Execute(); err != nil {
		logutil.GetLogger(context.Background()).Fatal("startup error", zap.Error(err))
	}
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return nil, fmt.Errorf("--config is required")
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	logger.Init(
		cfg.LogConfig.File,
		cfg.LogConfig.Level,
		int(cfg.LogConfig.FileCount),
		int(cfg.LogConfig.FileSize),
		int(cfg.LogConfig.KeepDays),
		cfg.LogConfig.Console,
	)
	logutil.GetLogger(context.Background()).Info("config loaded", zap.String("config", path))
	return cfg, nil
}
