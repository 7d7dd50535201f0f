package db

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/resourcegroupstaggingapi"
	tagtypes "github.com/aws/aws-sdk-go-v2/service/resourcegroupstaggingapi/types"
)

// LedgerPurpose is the Purpose tag value carried by export ledger tables.
const LedgerPurpose = "ShardPlanExportLedger"

type DynamoDb struct {
	Client        *dynamodb.Client
	TaggingClient *resourcegroupstaggingapi.Client
}

func NewDatabase(awsConfig aws.Config) *DynamoDb {
	return &DynamoDb{
		Client:        dynamodb.NewFromConfig(awsConfig),
		TaggingClient: resourcegroupstaggingapi.NewFromConfig(awsConfig),
	}
}

// FindLedgerTables lists the names of DynamoDB tables tagged as export ledgers.
func (d *DynamoDb) FindLedgerTables(ctx context.Context) ([]string, error) {
	return findLedgerTables(ctx, d.TaggingClient)
}

func findLedgerTables(ctx context.Context, client resourcegroupstaggingapi.GetResourcesAPIClient) ([]string, error) {
	paginator := resourcegroupstaggingapi.NewGetResourcesPaginator(client, &resourcegroupstaggingapi.GetResourcesInput{
		ResourceTypeFilters: []string{"dynamodb:table"},
		TagFilters: []tagtypes.TagFilter{
			{Key: aws.String("Purpose"), Values: []string{LedgerPurpose}},
		},
	})

	var tables []string
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list ledger tables: %w", err)
		}
		for _, mapping := range page.ResourceTagMappingList {
			if name, ok := tableFromARN(aws.ToString(mapping.ResourceARN)); ok {
				tables = append(tables, name)
			}
		}
	}
	return tables, nil
}

// tableFromARN extracts NAME from arn:aws:dynamodb:region:account:table/NAME.
func tableFromARN(arn string) (string, bool) {
	_, name, ok := strings.Cut(arn, ":table/")
	if !ok || name == "" {
		return "", false
	}
	return name, true
}
