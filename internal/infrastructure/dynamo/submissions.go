package dynamo

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/contrib-gateway/internal/domain"
)

// SubmissionRepo is the audit log of publish attempts.
// PK: submission_id. The log is append-only; records are written best-effort
// after a publish and read back by the admin surface.
type SubmissionRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewSubmissionRepo(client *dynamodb.Client, tableName string) *SubmissionRepo {
	return &SubmissionRepo{client: client, tableName: tableName}
}

// EnsureTable creates the audit table if it does not exist yet.
func (r *SubmissionRepo) EnsureTable(ctx context.Context) error {
	_, err := r.client.CreateTable(ctx, &dynamodb.CreateTableInput{
		TableName: aws.String(r.tableName),
		AttributeDefinitions: []types.AttributeDefinition{
			{AttributeName: aws.String("submission_id"), AttributeType: types.ScalarAttributeTypeS},
		},
		KeySchema: []types.KeySchemaElement{
			{AttributeName: aws.String("submission_id"), KeyType: types.KeyTypeHash},
		},
		BillingMode: types.BillingModePayPerRequest,
	})
	var exists *types.ResourceInUseException
	if errors.As(err, &exists) {
		return nil
	}
	return err
}

func (r *SubmissionRepo) Put(ctx context.Context, rec *domain.SubmissionRecord) error {
	item, err := attributevalue.MarshalMap(rec)
	if err != nil {
		return fmt.Errorf("marshal submission record: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	return err
}

// ListRecent returns up to limit records, newest first. ULID submission ids
// sort by creation time, so ordering by id is ordering by age.
func (r *SubmissionRepo) ListRecent(ctx context.Context, limit int32) ([]domain.SubmissionRecord, error) {
	out, err := r.client.Scan(ctx, &dynamodb.ScanInput{
		TableName: aws.String(r.tableName),
		Limit:     aws.Int32(limit),
	})
	if err != nil {
		return nil, err
	}
	var recs []domain.SubmissionRecord
	if err := attributevalue.UnmarshalListOfMaps(out.Items, &recs); err != nil {
		return nil, err
	}
	sort.Slice(recs, func(i, j int) bool {
		return recs[i].SubmissionID > recs[j].SubmissionID
	})
	return recs, nil
}
