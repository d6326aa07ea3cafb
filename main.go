package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"sintetico/config"
	"sintetico/database"
	"sintetico/loader"
)

var (
	configPath string
	dbPath     string
	verbose    bool

	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "sintetico",
	Short: "Programa Sintético catalog: spreadsheet import and read-only API",
	Long: `sintetico builds a SQLite catalog of the Programa Sintético curriculum
(phases, formative fields, content items and PDAs per grade) from CSV or
XLSX exports, and serves it as JSON.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		zcfg := zap.NewProductionConfig()
		if verbose {
			zcfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = zcfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}

		cfg, err := config.LoadConfig(configPath)
		if err != nil {
			return fmt.Errorf("failed to load config %s: %w", configPath, err)
		}
		if dbPath != "" {
			cfg.DatabasePath = dbPath
		}
		config.SetConfig(cfg)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the schema and seed phases, formative fields and grades",
	RunE: func(cmd *cobra.Command, args []string) error {
		path := config.GetConfig().DatabasePath
		db, err := database.Open(path)
		if err != nil {
			return err
		}
		defer db.Close()

		if err := loader.InitDatabase(db); err != nil {
			return err
		}
		logger.Info("database initialized", zap.String("db", path))
		fmt.Fprintf(cmd.OutOrStdout(), "Base de datos lista: %s\n", path)
		return nil
	},
}

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Print content and PDA counts per phase and formative field",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := loader.Prepare(config.GetConfig().DatabasePath)
		if err != nil {
			return err
		}
		defer db.Close()

		counts, err := database.CountsByPhaseField(db)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		phase := 0
		for _, c := range counts {
			if c.PhaseNumber != phase {
				phase = c.PhaseNumber
				fmt.Fprintf(out, "Fase %d\n", phase)
			}
			fmt.Fprintf(out, "  %-40s contenidos=%-4d pdas=%d\n", c.FieldName, c.ContentCount, c.DescriptorCount)
		}
		return nil
	},
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or write the configuration file",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.GetConfig()
		out := cmd.OutOrStdout()
		if ext := strings.ToLower(filepath.Ext(configPath)); ext == ".yaml" || ext == ".yml" {
			return yaml.NewEncoder(out).Encode(cfg)
		}
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(cfg)
	},
}

var configWriteCmd = &cobra.Command{
	Use:   "write [path]",
	Short: "Write the effective configuration to a file",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := configPath
		if len(args) == 1 {
			path = args[0]
		}
		if err := config.SaveConfig(path, config.GetConfig()); err != nil {
			return fmt.Errorf("failed to write %s: %w", path, err)
		}
		logger.Info("config written", zap.String("path", path))
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", config.DefaultPath, "configuration file (.json, .yaml)")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "SQLite database file (overrides databasePath)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	configCmd.AddCommand(configShowCmd, configWriteCmd)
	rootCmd.AddCommand(initCmd, importCmd, exportCmd, summaryCmd, serveCmd, configCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
