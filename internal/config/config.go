package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// EnvPrefix namespaces environment overrides, e.g. ZPLAN_LOG_LEVEL.
const EnvPrefix = "ZPLAN"

// Config holds the application configuration
type Config struct {
	LogLevel string `yaml:"log_level"`
	// RankOrder overrides the derived rank cycle when non-zero.
	RankOrder  int    `yaml:"rank_order"`
	Balance    bool   `yaml:"balance"`
	Variant    string `yaml:"variant"`
	IDOrigin   int    `yaml:"id_origin"`
	FailedNode int    `yaml:"failed_node"`
	Output     string `yaml:"output"`
	Format     string `yaml:"format"`
	Quiet      bool   `yaml:"quiet"`
	// AwsRegion is only consulted for s3:// outputs and the export ledger.
	AwsRegion string `yaml:"aws_region"`
	// LedgerTable names the DynamoDB table exports are recorded in.
	// Empty disables the ledger.
	LedgerTable string `yaml:"ledger_table"`
}

// flagKeys maps persistent flag names to their configuration keys.
var flagKeys = map[string]string{
	"log-level":    "log_level",
	"rank-order":   "rank_order",
	"balance":      "balance",
	"variant":      "variant",
	"id-origin":    "id_origin",
	"failed-node":  "failed_node",
	"output":       "output",
	"format":       "format",
	"quiet":        "quiet",
	"aws-region":   "aws_region",
	"ledger-table": "ledger_table",
}

// LoadConfig loads configuration from config.yaml, environment variables, or CLI flags
// Priority: CLI flags > Environment variables > config.yaml > defaults
func LoadConfig(configPath string, rootCmd *cobra.Command) (*Config, error) {
	if err := setupViper(configPath, rootCmd); err != nil {
		return nil, err
	}

	return &Config{
		LogLevel:    viper.GetString("log_level"),
		RankOrder:   viper.GetInt("rank_order"),
		Balance:     viper.GetBool("balance"),
		Variant:     viper.GetString("variant"),
		IDOrigin:    viper.GetInt("id_origin"),
		FailedNode:  viper.GetInt("failed_node"),
		Output:      viper.GetString("output"),
		Format:      viper.GetString("format"),
		Quiet:       viper.GetBool("quiet"),
		AwsRegion:   viper.GetString("aws_region"),
		LedgerTable: viper.GetString("ledger_table"),
	}, nil
}

// setupViper configures Viper with defaults, paths, and bindings
func setupViper(configPath string, rootCmd *cobra.Command) error {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")

	if configPath != "" {
		viper.SetConfigFile(configPath)
	}

	setDefaults()
	viper.SetEnvPrefix(EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	if rootCmd != nil {
		flags := rootCmd.PersistentFlags()
		for name, key := range flagKeys {
			flag := flags.Lookup(name)
			if flag == nil {
				continue
			}
			if err := viper.BindPFlag(key, flag); err != nil {
				return fmt.Errorf("failed to bind flag %s: %w", name, err)
			}
		}
	}

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}

	return nil
}

// setDefaults sets default configuration values
func setDefaults() {
	viper.SetDefault("log_level", "info")
	viper.SetDefault("rank_order", 0)
	viper.SetDefault("balance", false)
	viper.SetDefault("variant", "rotation")
	viper.SetDefault("id_origin", 0)
	viper.SetDefault("failed_node", -1)
	viper.SetDefault("output", "")
	viper.SetDefault("format", "text")
	viper.SetDefault("quiet", false)
	viper.SetDefault("aws_region", "")
	viper.SetDefault("ledger_table", "")
}
