// Package dynamo implements the repository interfaces on Amazon DynamoDB.
//
// Two tables, one per record kind:
//   - memes, partition key "id"
//   - users, partition key "email"
//
// Items are converted with the attributevalue package using the dynamodbav
// struct tags on the model types. Conditional writes and update expressions
// are built with the expression package rather than by string concatenation.
package dynamo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/smithy-go"

	"github.com/sakif/meme-museum/internal/apperror"
)

// Client is the subset of *dynamodb.Client the store calls. Tests pass a fake.
type Client interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
	DescribeTable(ctx context.Context, params *dynamodb.DescribeTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error)
}

var _ Client = (*dynamodb.Client)(nil)

// Store implements repository.MemeRepository and repository.UserRepository.
type Store struct {
	client     Client
	memesTable string
	usersTable string
	logger     *slog.Logger
}

func New(client Client, memesTable, usersTable string, logger *slog.Logger) *Store {
	return &Store{
		client:     client,
		memesTable: memesTable,
		usersTable: usersTable,
		logger:     logger,
	}
}

// Ping checks that the memes table is reachable.
func (s *Store) Ping(ctx context.Context) error {
	_, err := s.client.DescribeTable(ctx, &dynamodb.DescribeTableInput{TableName: &s.memesTable})
	if err != nil {
		return s.unavailable("describing memes table", err)
	}
	return nil
}

func isConditionFailed(err error) bool {
	var ccf *types.ConditionalCheckFailedException
	return errors.As(err, &ccf)
}

// unavailable wraps an SDK failure, logging the service error code when there is one.
func (s *Store) unavailable(op string, err error) error {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		s.logger.Error("dynamodb request failed",
			slog.String("op", op),
			slog.String("code", apiErr.ErrorCode()),
			slog.String("message", apiErr.ErrorMessage()),
		)
	}
	return apperror.StoreUnavailable(fmt.Sprintf("dynamodb: %s", op), err)
}
