package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/tanq16/pulldown/internal/config"
	"github.com/tanq16/pulldown/internal/output"
	"github.com/tanq16/pulldown/internal/utils"
)

var PulldownVersion = "dev"

var (
	cfgFile string
	cfg     config.Config
	logFile *os.File
	v       = viper.New()
)

var rootCmd = &cobra.Command{
	Use:     "pulldown",
	Short:   "Pulldown downloads several files at once and lets you pause, resume or cancel each one",
	Version: PulldownVersion,
	Args:    cobra.NoArgs,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return setup(cmd)
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logFile != nil {
			logFile.Close()
		}
	},
	Run: func(cmd *cobra.Command, args []string) {
		urls, err := config.BootstrapURLs(cfg.EnvFile)
		if err != nil {
			output.PrintError(err.Error())
			os.Exit(1)
		}
		runSession(cmd.Context(), urls, true, cfg.ExitWhenDone)
	},
}

// setup layers flags, PULLDOWN_* variables and the config file, then starts
// file logging.
func setup(cmd *cobra.Command) error {
	config.SetDefaults(v)
	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return err
	}
	v.SetEnvPrefix("PULLDOWN")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}
	var err error
	if cfg, err = config.Load(v); err != nil {
		return err
	}
	logFile, err = os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("error opening log file: %w", err)
	}
	utils.InitLogger(cfg.Debug, logFile)
	log := utils.GetLogger("cmd")
	log.Debug().Str("command", cmd.Name()).Str("dir", cfg.Dir).Msg("configuration loaded")
	return nil
}

func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		output.PrintError(err.Error())
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Config file (YAML)")
	rootCmd.PersistentFlags().StringP("dir", "d", ".", "Directory downloads are written to")
	rootCmd.PersistentFlags().DurationP("timeout", "t", time.Minute, "Connection timeout (eg. 5s, 10m)")
	rootCmd.PersistentFlags().DurationP("keep-alive-timeout", "k", 90*time.Second, "Keep-alive timeout for client (eg. 10s, 1m, 80s)")
	rootCmd.PersistentFlags().StringP("proxy", "p", "", "HTTP/HTTPS proxy URL (e.g., http://proxy.example.com:8080)")
	rootCmd.PersistentFlags().Duration("refresh", 250*time.Millisecond, "Display refresh interval")
	rootCmd.PersistentFlags().String("log-file", utils.LogFile, "Log file path")
	rootCmd.PersistentFlags().String("env-file", ".env", "Env file holding start-up download URLs")
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging")
	rootCmd.Flags().Bool("exit-when-done", false, "Exit once every download has finished")

	rootCmd.AddCommand(newGetCmd())
	rootCmd.AddCommand(newBatchCmd())
	rootCmd.AddCommand(newCleanCmd())
	rootCmd.AddCommand(newServeCmd())
}
