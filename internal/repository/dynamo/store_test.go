package dynamo

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/meme-museum/internal/apperror"
	"github.com/sakif/meme-museum/internal/model"
)

// fakeClient records the last request of each kind and returns canned results.
// It does not evaluate expressions; tests assert on the request shape instead.
type fakeClient struct {
	putIn    *dynamodb.PutItemInput
	getIn    *dynamodb.GetItemInput
	updateIn *dynamodb.UpdateItemInput
	deleteIn *dynamodb.DeleteItemInput
	scanIns  []*dynamodb.ScanInput

	putErr    error
	getItem   map[string]types.AttributeValue
	getErr    error
	updateOut map[string]types.AttributeValue
	updateErr error
	scanPages []*dynamodb.ScanOutput
	scanErr   error
}

func (f *fakeClient) PutItem(_ context.Context, in *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	f.putIn = in
	return &dynamodb.PutItemOutput{}, f.putErr
}

func (f *fakeClient) GetItem(_ context.Context, in *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	f.getIn = in
	if f.getErr != nil {
		return nil, f.getErr
	}
	return &dynamodb.GetItemOutput{Item: f.getItem}, nil
}

func (f *fakeClient) UpdateItem(_ context.Context, in *dynamodb.UpdateItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error) {
	f.updateIn = in
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	return &dynamodb.UpdateItemOutput{Attributes: f.updateOut}, nil
}

func (f *fakeClient) DeleteItem(_ context.Context, in *dynamodb.DeleteItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error) {
	f.deleteIn = in
	return &dynamodb.DeleteItemOutput{}, nil
}

func (f *fakeClient) Scan(_ context.Context, in *dynamodb.ScanInput, _ ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error) {
	f.scanIns = append(f.scanIns, in)
	if f.scanErr != nil {
		return nil, f.scanErr
	}
	page := f.scanPages[0]
	f.scanPages = f.scanPages[1:]
	return page, nil
}

func (f *fakeClient) DescribeTable(_ context.Context, _ *dynamodb.DescribeTableInput, _ ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error) {
	return &dynamodb.DescribeTableOutput{}, nil
}

func newTestStore(client *fakeClient) *Store {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(client, "MemesTable", "UsersTable", logger)
}

func memeItem(t *testing.T, m model.Meme) map[string]types.AttributeValue {
	t.Helper()
	item, err := attributevalue.MarshalMap(m)
	require.NoError(t, err)
	return item
}

func TestCreate_PutsFullItem(t *testing.T) {
	client := &fakeClient{}
	store := newTestStore(client)

	m := &model.Meme{Title: "doge", Tags: []string{"x"}, Likes: 9, Featured: true}
	require.NoError(t, store.Create(context.Background(), m))

	assert.NotEmpty(t, m.ID)
	assert.Zero(t, m.Likes)
	assert.False(t, m.Featured)
	assert.Equal(t, m.CreatedAt, m.UpdatedAt)

	require.NotNil(t, client.putIn)
	assert.Equal(t, "MemesTable", *client.putIn.TableName)

	var stored model.Meme
	require.NoError(t, attributevalue.UnmarshalMap(client.putIn.Item, &stored))
	assert.Equal(t, *m, stored)
	assert.IsType(t, &types.AttributeValueMemberL{}, client.putIn.Item["tags"])
}

func TestCreate_StoreUnavailable(t *testing.T) {
	client := &fakeClient{putErr: &smithy.GenericAPIError{Code: "ResourceNotFoundException", Message: "no table"}}
	store := newTestStore(client)

	err := store.Create(context.Background(), &model.Meme{Title: "doge"})
	assert.ErrorIs(t, err, apperror.ErrStoreUnavailable)
}

func TestGetByID(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		client := &fakeClient{getItem: memeItem(t, model.Meme{ID: "m1", Title: "doge", Tags: []string{"a"}})}
		store := newTestStore(client)

		m, err := store.GetByID(context.Background(), "m1")
		require.NoError(t, err)
		assert.Equal(t, "doge", m.Title)
		assert.Equal(t, []string{"a"}, m.Tags)
		assert.Equal(t, &types.AttributeValueMemberS{Value: "m1"}, client.getIn.Key["id"])
	})

	t.Run("missing item is not found", func(t *testing.T) {
		store := newTestStore(&fakeClient{})

		_, err := store.GetByID(context.Background(), "nope")
		assert.ErrorIs(t, err, apperror.ErrNotFound)
	})
}

func TestList_FollowsPages(t *testing.T) {
	client := &fakeClient{scanPages: []*dynamodb.ScanOutput{
		{
			Items:            []map[string]types.AttributeValue{memeItem(t, model.Meme{ID: "a"})},
			LastEvaluatedKey: map[string]types.AttributeValue{"id": &types.AttributeValueMemberS{Value: "a"}},
		},
		{
			Items: []map[string]types.AttributeValue{memeItem(t, model.Meme{ID: "b"})},
		},
	}}
	store := newTestStore(client)

	memes, err := store.List(context.Background())
	require.NoError(t, err)
	require.Len(t, memes, 2)
	assert.Equal(t, "a", memes[0].ID)
	assert.Equal(t, "b", memes[1].ID)
	assert.NotNil(t, memes[0].Tags)

	require.Len(t, client.scanIns, 2)
	assert.NotNil(t, client.scanIns[1].ExclusiveStartKey)
}

func TestUpdate_BuildsConditionalSet(t *testing.T) {
	client := &fakeClient{updateOut: memeItem(t, model.Meme{ID: "m1", Title: "new"})}
	store := newTestStore(client)

	title := "new"
	m, err := store.Update(context.Background(), "m1", model.MemePatch{Title: &title})
	require.NoError(t, err)
	assert.Equal(t, "new", m.Title)

	in := client.updateIn
	require.NotNil(t, in)
	assert.Equal(t, types.ReturnValueAllNew, in.ReturnValues)
	assert.True(t, strings.HasPrefix(*in.UpdateExpression, "SET "))
	assert.Contains(t, *in.ConditionExpression, "attribute_exists")
	assert.ElementsMatch(t, []string{"id", "title", "updatedAt"}, values(in.ExpressionAttributeNames))
}

func TestUpdate_ConditionFailedIsNotFound(t *testing.T) {
	client := &fakeClient{updateErr: &types.ConditionalCheckFailedException{}}
	store := newTestStore(client)

	_, err := store.Update(context.Background(), "missing", model.MemePatch{})
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestIncrementLikes_UsesAdd(t *testing.T) {
	client := &fakeClient{updateOut: memeItem(t, model.Meme{ID: "m1", Likes: 3})}
	store := newTestStore(client)

	m, err := store.IncrementLikes(context.Background(), "m1")
	require.NoError(t, err)
	assert.EqualValues(t, 3, m.Likes)

	assert.Contains(t, *client.updateIn.UpdateExpression, "ADD ")
	assert.Contains(t, values(client.updateIn.ExpressionAttributeNames), "likes")
}

func TestDelete(t *testing.T) {
	client := &fakeClient{}
	store := newTestStore(client)

	require.NoError(t, store.Delete(context.Background(), "m1"))
	assert.Equal(t, "MemesTable", *client.deleteIn.TableName)
}

func TestCreateUser(t *testing.T) {
	t.Run("conditional put", func(t *testing.T) {
		client := &fakeClient{}
		store := newTestStore(client)

		u := &model.User{Email: "a@example.com", Username: "alice"}
		require.NoError(t, store.CreateUser(context.Background(), u))
		assert.NotZero(t, u.CreatedAt)
		assert.Equal(t, "UsersTable", *client.putIn.TableName)
		assert.Contains(t, *client.putIn.ConditionExpression, "attribute_not_exists")
	})

	t.Run("existing email is a conflict", func(t *testing.T) {
		client := &fakeClient{putErr: &types.ConditionalCheckFailedException{}}
		store := newTestStore(client)

		err := store.CreateUser(context.Background(), &model.User{Email: "a@example.com", Username: "x"})
		assert.ErrorIs(t, err, apperror.ErrConflict)
	})
}

func TestGetUserByEmail(t *testing.T) {
	item, err := attributevalue.MarshalMap(model.User{Email: "a@example.com", Username: "alice", CreatedAt: 7})
	require.NoError(t, err)
	store := newTestStore(&fakeClient{getItem: item})

	u, err := store.GetUserByEmail(context.Background(), "a@example.com")
	require.NoError(t, err)
	assert.Equal(t, model.User{Email: "a@example.com", Username: "alice", CreatedAt: 7}, *u)

	_, err = newTestStore(&fakeClient{}).GetUserByEmail(context.Background(), "b@example.com")
	assert.True(t, errors.Is(err, apperror.ErrNotFound))
}

func values(m map[string]string) []string {
	out := make([]string, 0, len(m))
	for _, v := range m {
		out = append(out, v)
	}
	return out
}
