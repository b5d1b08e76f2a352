package dynamo

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/sakif/meme-museum/internal/apperror"
	"github.com/sakif/meme-museum/internal/model"
	"github.com/sakif/meme-museum/internal/repository"
)

var _ repository.UserRepository = (*Store)(nil)

// CreateUser puts the user only if no item with that email exists.
// The check and the write are one request, so two concurrent signups
// cannot both succeed.
func (s *Store) CreateUser(ctx context.Context, user *model.User) error {
	user.CreatedAt = model.NowMillis()

	item, err := attributevalue.MarshalMap(user)
	if err != nil {
		return fmt.Errorf("dynamodb: encoding user: %w", err)
	}

	expr, err := expression.NewBuilder().
		WithCondition(expression.AttributeNotExists(expression.Name("email"))).
		Build()
	if err != nil {
		return fmt.Errorf("dynamodb: building expression: %w", err)
	}

	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:                &s.usersTable,
		Item:                     item,
		ConditionExpression:      expr.Condition(),
		ExpressionAttributeNames: expr.Names(),
	})
	if isConditionFailed(err) {
		return apperror.Conflict("user", user.Email)
	}
	if err != nil {
		return s.unavailable("putting user", err)
	}
	return nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: &s.usersTable,
		Key: map[string]types.AttributeValue{
			"email": &types.AttributeValueMemberS{Value: email},
		},
	})
	if err != nil {
		return nil, s.unavailable("getting user", err)
	}
	if out.Item == nil {
		return nil, apperror.NotFound("user", email)
	}

	var u model.User
	if err := attributevalue.UnmarshalMap(out.Item, &u); err != nil {
		return nil, fmt.Errorf("dynamodb: decoding user: %w", err)
	}
	return &u, nil
}
