package dynamo

import (
	"context"
	"fmt"
	"sort"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/rs/xid"

	"github.com/sakif/meme-museum/internal/apperror"
	"github.com/sakif/meme-museum/internal/model"
	"github.com/sakif/meme-museum/internal/repository"
)

var _ repository.MemeRepository = (*Store)(nil)

func memeKey(id string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{"id": &types.AttributeValueMemberS{Value: id}}
}

func decodeMeme(item map[string]types.AttributeValue) (*model.Meme, error) {
	var m model.Meme
	if err := attributevalue.UnmarshalMap(item, &m); err != nil {
		return nil, fmt.Errorf("dynamodb: decoding meme: %w", err)
	}
	if m.Tags == nil {
		m.Tags = []string{}
	}
	return &m, nil
}

func (s *Store) Create(ctx context.Context, meme *model.Meme) error {
	meme.ID = xid.New().String()
	meme.Likes = 0
	meme.Featured = false
	meme.CreatedAt = model.NowMillis()
	meme.UpdatedAt = meme.CreatedAt
	if meme.Tags == nil {
		meme.Tags = []string{}
	}

	item, err := attributevalue.MarshalMap(meme)
	if err != nil {
		return fmt.Errorf("dynamodb: encoding meme: %w", err)
	}

	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: &s.memesTable,
		Item:      item,
	})
	if err != nil {
		return s.unavailable("putting meme", err)
	}
	return nil
}

func (s *Store) GetByID(ctx context.Context, id string) (*model.Meme, error) {
	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: &s.memesTable,
		Key:       memeKey(id),
	})
	if err != nil {
		return nil, s.unavailable("getting meme "+id, err)
	}
	if out.Item == nil {
		return nil, apperror.NotFound("meme", id)
	}
	return decodeMeme(out.Item)
}

// List scans the whole table, following LastEvaluatedKey across pages.
func (s *Store) List(ctx context.Context) ([]model.Meme, error) {
	memes := []model.Meme{}

	paginator := dynamodb.NewScanPaginator(s.client, &dynamodb.ScanInput{TableName: &s.memesTable})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, s.unavailable("scanning memes", err)
		}
		for _, item := range page.Items {
			m, err := decodeMeme(item)
			if err != nil {
				return nil, err
			}
			memes = append(memes, *m)
		}
	}
	return memes, nil
}

// Update is one conditional UpdateItem: SET for every patch field plus
// updatedAt, guarded by attribute_exists(id) so an unknown id never creates
// a partial item.
func (s *Store) Update(ctx context.Context, id string, patch model.MemePatch) (*model.Meme, error) {
	fields := patch.Fields()
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)

	update := expression.Set(expression.Name("updatedAt"), expression.Value(model.NowMillis()))
	for _, name := range names {
		update = update.Set(expression.Name(name), expression.Value(fields[name]))
	}

	return s.conditionalUpdate(ctx, id, update, "updating meme "+id)
}

// IncrementLikes uses ADD so DynamoDB does the arithmetic server-side.
func (s *Store) IncrementLikes(ctx context.Context, id string) (*model.Meme, error) {
	update := expression.Add(expression.Name("likes"), expression.Value(1)).
		Set(expression.Name("updatedAt"), expression.Value(model.NowMillis()))

	return s.conditionalUpdate(ctx, id, update, "liking meme "+id)
}

func (s *Store) conditionalUpdate(ctx context.Context, id string, update expression.UpdateBuilder, op string) (*model.Meme, error) {
	expr, err := expression.NewBuilder().
		WithUpdate(update).
		WithCondition(expression.AttributeExists(expression.Name("id"))).
		Build()
	if err != nil {
		return nil, fmt.Errorf("dynamodb: building expression: %w", err)
	}

	out, err := s.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 &s.memesTable,
		Key:                       memeKey(id),
		UpdateExpression:          expr.Update(),
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		ReturnValues:              types.ReturnValueAllNew,
	})
	if isConditionFailed(err) {
		return nil, apperror.NotFound("meme", id)
	}
	if err != nil {
		return nil, s.unavailable(op, err)
	}
	return decodeMeme(out.Attributes)
}

// Delete is idempotent; DeleteItem on a missing key succeeds.
func (s *Store) Delete(ctx context.Context, id string) error {
	_, err := s.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: &s.memesTable,
		Key:       memeKey(id),
	})
	if err != nil {
		return s.unavailable("deleting meme "+id, err)
	}
	return nil
}
