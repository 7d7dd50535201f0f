package db

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/zzenonn/zplan/internal/domain"
)

// ItemAPI is the subset of the DynamoDB client the ledger uses.
type ItemAPI interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
}

// ExportRepository manages DynamoDB interactions for ExportRecord.
type ExportRepository struct {
	client    ItemAPI
	tableName string
}

// NewExportRepository initializes a new ExportRepository.
func NewExportRepository(client ItemAPI, tableName string) ExportRepository {
	return ExportRepository{
		client:    client,
		tableName: tableName,
	}
}

// RecordExport stores an export record in DynamoDB.
func (repo *ExportRepository) RecordExport(ctx context.Context, record domain.ExportRecord) error {
	item, err := attributevalue.MarshalMap(record)
	if err != nil {
		return fmt.Errorf("failed to marshal export record: %w", err)
	}

	input := &dynamodb.PutItemInput{
		TableName: aws.String(repo.tableName),
		Item:      item,
	}

	if _, err := repo.client.PutItem(ctx, input); err != nil {
		return fmt.Errorf("failed to record export: %w", err)
	}
	return nil
}

// ListExports retrieves every export made to target, oldest first.
func (repo *ExportRepository) ListExports(ctx context.Context, target string) ([]domain.ExportRecord, error) {
	input := &dynamodb.QueryInput{
		TableName:              aws.String(repo.tableName),
		KeyConditionExpression: aws.String("#target = :target"),
		ExpressionAttributeNames: map[string]string{
			"#target": "target",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":target": &types.AttributeValueMemberS{Value: target},
		},
	}

	var records []domain.ExportRecord
	paginator := dynamodb.NewQueryPaginator(repo.client, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to query exports for %s: %w", target, err)
		}

		var batch []domain.ExportRecord
		if err := attributevalue.UnmarshalListOfMaps(page.Items, &batch); err != nil {
			return nil, fmt.Errorf("failed to unmarshal export records: %w", err)
		}
		records = append(records, batch...)
	}

	return records, nil
}
