package main

import (
	"context"
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/zzenonn/zplan/internal/config"
	"github.com/zzenonn/zplan/internal/logging"
	"github.com/zzenonn/zplan/internal/repository/db"
	"github.com/zzenonn/zplan/internal/repository/objectstore"
	"github.com/zzenonn/zplan/internal/service"
)

var (
	cfg         *config.Config
	configPath  string
	repoFactory *objectstore.ObjectRepositoryFactory
	planService *service.PlanService
)

var rootCmd = &cobra.Command{
	Use:   "zplan",
	Short: "Plan shard placement and failover for a replicated cluster",
	Long: `zplan lays out three-way replicated shards across a fixed set of nodes so
that no node holds two replicas of the same shard, then simulates what happens
to leadership and load when a node fails.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if repoFactory == nil {
			return
		}
		if err := repoFactory.Close(); err != nil {
			log.Warnf("Failed to close storage clients: %v", err)
		}
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configPath, "config", "", "config file (default is ./config.yaml)")
	flags.String("log-level", "info", "log level: trace, debug, info, warn, error")
	flags.Int("rank-order", 0, "use this rank cycle instead of deriving one from the node count")
	flags.Bool("balance", false, "halve an even rank cycle")
	flags.String("variant", "rotation", "placement variant: rotation, polar, balanced")
	flags.Int("id-origin", 0, "first shard id")
	flags.Int("failed-node", -1, "node to fail")
	flags.StringP("output", "o", "", "write to a path, file://path, s3://bucket/key or gs://bucket/key instead of stdout")
	flags.StringP("format", "f", "text", "output format: text, yaml, json")
	flags.BoolP("quiet", "q", false, "suppress progress bars")
	flags.String("aws-region", "", "AWS region for s3:// outputs and the export ledger")
	flags.String("ledger-table", "", "DynamoDB table to record exports in")
}

func initConfig() {
	var err error
	cfg, err = config.LoadConfig(configPath, rootCmd)
	if err != nil {
		log.Fatalf("Error loading configuration: %v", err)
	}

	logging.InitLogger(cfg)

	repoFactory = objectstore.NewObjectRepositoryFactory(afero.NewOsFs(), cfg.AwsRegion)
	planService = service.NewPlanService(repoFactory)

	if cfg.LedgerTable != "" {
		dynamoDb, err := connectDatabase(context.Background())
		if err != nil {
			log.Fatalf("Failed to connect to the export ledger: %v", err)
		}
		ledger := db.NewExportRepository(dynamoDb.Client, cfg.LedgerTable)
		planService.WithLedger(&ledger)
	}
}

func connectDatabase(ctx context.Context) (*db.DynamoDb, error) {
	awsConfig, err := repoFactory.AWSConfig(ctx)
	if err != nil {
		return nil, err
	}
	return db.NewDatabase(awsConfig), nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
