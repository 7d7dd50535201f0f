package migrate

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/zzenonn/zplan/internal/repository/db"
)

const ExportLedgerVersion = "20251019000000_export_ledger_table"

// TableAPI is the subset of the DynamoDB client migrations use.
type TableAPI interface {
	CreateTable(ctx context.Context, params *dynamodb.CreateTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.CreateTableOutput, error)
	DeleteTable(ctx context.Context, params *dynamodb.DeleteTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteTableOutput, error)
	DescribeTable(ctx context.Context, params *dynamodb.DescribeTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error)
}

// CreateExportLedgerTable creates the table export records are written to.
type CreateExportLedgerTable struct {
	Name string
	// WaitTimeout bounds how long Up waits for the table to become active.
	WaitTimeout time.Duration
}

func (m *CreateExportLedgerTable) Version() string {
	return ExportLedgerVersion
}

func (m *CreateExportLedgerTable) TableName() string {
	return m.Name
}

// Input describes the ledger table keyed by target and export time.
func (m *CreateExportLedgerTable) Input() *dynamodb.CreateTableInput {
	return &dynamodb.CreateTableInput{
		AttributeDefinitions: []types.AttributeDefinition{
			{
				AttributeName: aws.String("target"),
				AttributeType: types.ScalarAttributeTypeS,
			},
			{
				AttributeName: aws.String("exported_at"),
				AttributeType: types.ScalarAttributeTypeS,
			},
		},
		KeySchema: []types.KeySchemaElement{
			{
				AttributeName: aws.String("target"),
				KeyType:       types.KeyTypeHash,
			},
			{
				AttributeName: aws.String("exported_at"),
				KeyType:       types.KeyTypeRange,
			},
		},
		TableName:   aws.String(m.Name),
		BillingMode: types.BillingModePayPerRequest,
		Tags: []types.Tag{
			{
				Key:   aws.String("Purpose"),
				Value: aws.String(db.LedgerPurpose),
			},
		},
	}
}

func (m *CreateExportLedgerTable) Up(ctx context.Context, client TableAPI) error {
	if _, err := client.CreateTable(ctx, m.Input()); err != nil {
		return err
	}

	timeout := m.WaitTimeout
	if timeout == 0 {
		timeout = 5 * time.Minute
	}
	waiter := dynamodb.NewTableExistsWaiter(client)
	return waiter.Wait(ctx, &dynamodb.DescribeTableInput{
		TableName: aws.String(m.Name),
	}, timeout)
}

func (m *CreateExportLedgerTable) Down(ctx context.Context, client TableAPI) error {
	input := &dynamodb.DeleteTableInput{
		TableName: aws.String(m.Name),
	}

	_, err := client.DeleteTable(ctx, input)
	return err
}
