package mongo

import (
	"context"
	"errors"
	"testing"

	"github.com/haguru/jungle/config"
	"github.com/haguru/jungle/pkg/databases"
	logger "github.com/haguru/jungle/pkg/zerolog"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const testCollection = "users"

func newTestClient(t *testing.T) *MongoDBClient {
	t.Helper()
	dbClient, err := NewMongoDB(&config.MongoDBConfig{
		ValidCollections: []string{testCollection},
		ValidFields:      []string{"name", "username", "password", "reward"},
	}, logger.NewNopLogger())
	require.NoError(t, err)
	return dbClient.(*MongoDBClient)
}

func attach(c *MongoDBClient, mt *mtest.T) *MongoDBClient {
	c.client = mt.Client
	c.db = mt.DB
	return c
}

func TestMongoDBClient_InsertOne(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("success", func(mt *mtest.T) {
		c := attach(newTestClient(mt.T), mt)
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		id, err := c.InsertOne(context.Background(), testCollection, bson.M{
			"_id":      "client-chosen",
			"username": "ana1",
			"password": "hash",
		})
		require.NoError(mt, err)
		_, ok := id.(primitive.ObjectID)
		assert.True(mt, ok, "expected a generated ObjectID, got %T", id)
	})

	mt.Run("duplicate username", func(mt *mtest.T) {
		c := attach(newTestClient(mt.T), mt)
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{
			Index:   0,
			Code:    11000,
			Message: "E11000 duplicate key error collection: jungle.users index: username_1",
		}))

		_, err := c.InsertOne(context.Background(), testCollection, map[string]interface{}{"username": "ana1"})
		require.Error(mt, err)
		assert.True(mt, errors.Is(err, databases.ErrDuplicateKey))
	})

	mt.Run("invalid collection", func(mt *mtest.T) {
		c := attach(newTestClient(mt.T), mt)
		_, err := c.InsertOne(context.Background(), "admins", bson.M{"username": "ana1"})
		assert.Error(mt, err)
	})

	mt.Run("document must be a map", func(mt *mtest.T) {
		c := attach(newTestClient(mt.T), mt)
		_, err := c.InsertOne(context.Background(), testCollection, struct{ Username string }{"ana1"})
		assert.Error(mt, err)
	})
}

func TestMongoDBClient_FindOne(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("found", func(mt *mtest.T) {
		c := attach(newTestClient(mt.T), mt)
		id := primitive.NewObjectID()
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "jungle.users", mtest.FirstBatch, bson.D{
			{Key: "_id", Value: id},
			{Key: "name", Value: "Ana"},
			{Key: "username", Value: "ana1"},
		}))

		var result struct {
			ID       primitive.ObjectID `bson:"_id"`
			Name     string             `bson:"name"`
			Username string             `bson:"username"`
		}
		err := c.FindOne(context.Background(), testCollection, bson.M{"_id": id}, &result)
		require.NoError(mt, err)
		assert.Equal(mt, id, result.ID)
		assert.Equal(mt, "ana1", result.Username)
	})

	mt.Run("not found", func(mt *mtest.T) {
		c := attach(newTestClient(mt.T), mt)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "jungle.users", mtest.FirstBatch))

		var result bson.M
		err := c.FindOne(context.Background(), testCollection, bson.M{"username": "ghost"}, &result)
		require.Error(mt, err)
		assert.True(mt, errors.Is(err, databases.ErrNoDocuments))
	})

	mt.Run("command error is passed through", func(mt *mtest.T) {
		c := attach(newTestClient(mt.T), mt)
		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{
			Code:    2,
			Message: "bad query",
			Name:    "BadValue",
		}))

		var result bson.M
		err := c.FindOne(context.Background(), testCollection, bson.M{"username": "ana1"}, &result)
		require.Error(mt, err)
		assert.False(mt, errors.Is(err, databases.ErrNoDocuments))
		assert.Contains(mt, err.Error(), "bad query")
	})
}

func TestMongoDBClient_FindMany(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("decodes every document", func(mt *mtest.T) {
		c := attach(newTestClient(mt.T), mt)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "jungle.users", mtest.FirstBatch,
			bson.D{{Key: "_id", Value: primitive.NewObjectID()}, {Key: "username", Value: "ana1"}},
			bson.D{{Key: "_id", Value: primitive.NewObjectID()}, {Key: "username", Value: "bob1"}},
		))

		var results []bson.M
		err := c.FindMany(context.Background(), testCollection, bson.M{}, &results)
		require.NoError(mt, err)
		require.Len(mt, results, 2)
		assert.Equal(mt, "bob1", results[1]["username"])
	})

	mt.Run("nil filter matches everything", func(mt *mtest.T) {
		c := attach(newTestClient(mt.T), mt)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "jungle.users", mtest.FirstBatch))

		var results []bson.M
		err := c.FindMany(context.Background(), testCollection, nil, &results)
		require.NoError(mt, err)
		assert.Empty(mt, results)
	})
}

func TestMongoDBClient_UpdateOne(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("matched", func(mt *mtest.T) {
		c := attach(newTestClient(mt.T), mt)
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "n", Value: 1},
			bson.E{Key: "nModified", Value: 1},
		))

		matched, err := c.UpdateOne(context.Background(), testCollection,
			bson.M{"_id": primitive.NewObjectID()}, map[string]interface{}{"reward": 5.0})
		require.NoError(mt, err)
		assert.Equal(mt, int64(1), matched)
	})

	mt.Run("duplicate username", func(mt *mtest.T) {
		c := attach(newTestClient(mt.T), mt)
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{
			Index:   0,
			Code:    11000,
			Message: "E11000 duplicate key error",
		}))

		_, err := c.UpdateOne(context.Background(), testCollection,
			bson.M{"_id": primitive.NewObjectID()}, map[string]interface{}{"username": "taken"})
		assert.True(mt, errors.Is(err, databases.ErrDuplicateKey))
	})

	mt.Run("only unknown fields", func(mt *mtest.T) {
		c := attach(newTestClient(mt.T), mt)
		_, err := c.UpdateOne(context.Background(), testCollection,
			bson.M{"_id": primitive.NewObjectID()}, map[string]interface{}{"$where": "1"})
		assert.Error(mt, err)
	})
}

func TestMongoDBClient_DeleteOne(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("deleted", func(mt *mtest.T) {
		c := attach(newTestClient(mt.T), mt)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}))

		deleted, err := c.DeleteOne(context.Background(), testCollection, bson.M{"_id": primitive.NewObjectID()})
		require.NoError(mt, err)
		assert.Equal(mt, int64(1), deleted)
	})

	mt.Run("nothing deleted", func(mt *mtest.T) {
		c := attach(newTestClient(mt.T), mt)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}))

		deleted, err := c.DeleteOne(context.Background(), testCollection, bson.M{"_id": primitive.NewObjectID()})
		require.NoError(mt, err)
		assert.Equal(mt, int64(0), deleted)
	})

	mt.Run("empty filter refused", func(mt *mtest.T) {
		c := attach(newTestClient(mt.T), mt)
		_, err := c.DeleteOne(context.Background(), testCollection, bson.M{})
		assert.Error(mt, err)
	})
}

func TestMongoDBClient_EnsureSchema(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("creates index", func(mt *mtest.T) {
		c := attach(newTestClient(mt.T), mt)
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		err := c.EnsureSchema(context.Background(), testCollection, mongo.IndexModel{
			Keys:    bson.D{{Key: "username", Value: 1}},
			Options: options.Index().SetUnique(true),
		})
		assert.NoError(mt, err)
	})

	mt.Run("wrong schema type", func(mt *mtest.T) {
		c := attach(newTestClient(mt.T), mt)
		err := c.EnsureSchema(context.Background(), testCollection, "CREATE TABLE users")
		assert.Error(mt, err)
	})
}

func TestMongoDBClient_NotConnected(t *testing.T) {
	c := newTestClient(t)

	_, err := c.InsertOne(context.Background(), testCollection, bson.M{"username": "ana1"})
	assert.Error(t, err)
	assert.Error(t, c.Ping(context.Background()))
	assert.NoError(t, c.Disconnect(context.Background()))
}

func TestMongoDBClient_Connect_InvalidDSN(t *testing.T) {
	tests := []struct {
		name string
		dsn  string
	}{
		{name: "empty", dsn: ""},
		{name: "wrong scheme", dsn: "postgres://localhost/jungle"},
		{name: "no database name", dsn: "mongodb://localhost:27017"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t)
			assert.Error(t, c.Connect(context.Background(), tt.dsn))
		})
	}
}

func TestGetDBNameFromMongoDSN(t *testing.T) {
	tests := []struct {
		name    string
		dsn     string
		want    string
		wantErr bool
	}{
		{name: "plain", dsn: "mongodb://localhost:27017/jungle", want: "jungle"},
		{name: "with options", dsn: "mongodb://u:p@localhost:27017/jungle?authSource=admin", want: "jungle"},
		{name: "extra segment", dsn: "mongodb://localhost/jungle/users", want: "jungle"},
		{name: "srv", dsn: "mongodb+srv://cluster.example.net/jungle", want: "jungle"},
		{name: "missing", dsn: "mongodb://localhost:27017/", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := getDBNameFromMongoDSN(tt.dsn)
			if (err != nil) != tt.wantErr {
				t.Errorf("getDBNameFromMongoDSN() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if got != tt.want {
				t.Errorf("getDBNameFromMongoDSN() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMongoDBClient_sanitizeDocument(t *testing.T) {
	c := newTestClient(t)

	got, err := c.sanitizeDocument(bson.M{
		"_id":        "x",
		"username":   "ana1",
		"$where":     "sleep(1000)",
		"role":       "admin",
		"reward.sub": 1,
	}, false)
	require.NoError(t, err)
	assert.Equal(t, bson.M{"username": "ana1"}, got)

	got, err = c.sanitizeDocument(map[string]interface{}{"_id": "x"}, true)
	require.NoError(t, err)
	assert.Equal(t, bson.M{"_id": "x"}, got)
}
