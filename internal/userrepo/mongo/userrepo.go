package mongo

import (
	"context"
	"errors"
	"fmt"

	"github.com/haguru/jungle/internal/interfaces"
	"github.com/haguru/jungle/internal/models"
	"github.com/haguru/jungle/pkg/databases"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	mongosdk "go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// mongoUser is the BSON shape of a stored user.
type mongoUser struct {
	ID       primitive.ObjectID `bson:"_id,omitempty"`
	Name     string             `bson:"name"`
	Username string             `bson:"username"`
	Password string             `bson:"password"`
	Reward   float64            `bson:"reward"`
}

func (m mongoUser) toModel() models.User {
	return models.User{
		ID:       m.ID.Hex(),
		Name:     m.Name,
		Username: m.Username,
		Password: m.Password,
		Reward:   m.Reward,
	}
}

// MongoUserRepository implements UserRepository using the generic DBClient.
type MongoUserRepository struct {
	dbClient interfaces.DBClient
}

// NewMongoUserRepository creates a new MongoDB repository instance.
func NewMongoUserRepository(dbClient interfaces.DBClient) (interfaces.UserRepository, error) {
	if dbClient == nil {
		return nil, fmt.Errorf("dbClient cannot be nil")
	}
	return &MongoUserRepository{dbClient: dbClient}, nil
}

// AddUser saves a new user and returns the hex form of the generated ObjectID.
func (r *MongoUserRepository) AddUser(ctx context.Context, user models.User) (string, error) {
	insertedID, err := r.dbClient.InsertOne(ctx, models.UsersCollection, user.Fields())
	if err != nil {
		return "", fmt.Errorf("failed to add user to MongoDB: %w", err)
	}

	objID, ok := insertedID.(primitive.ObjectID)
	if !ok {
		return "", fmt.Errorf("failed to assert inserted ID to ObjectID")
	}
	return objID.Hex(), nil
}

// ListUsers returns every stored user.
func (r *MongoUserRepository) ListUsers(ctx context.Context) ([]models.User, error) {
	var docs []mongoUser
	if err := r.dbClient.FindMany(ctx, models.UsersCollection, bson.M{}, &docs); err != nil {
		return nil, fmt.Errorf("failed to list users from MongoDB: %w", err)
	}

	users := make([]models.User, 0, len(docs))
	for _, doc := range docs {
		users = append(users, doc.toModel())
	}
	return users, nil
}

// GetUserByID retrieves a user by the hex form of its ObjectID.
// An id that is not a valid ObjectID cannot match anything.
func (r *MongoUserRepository) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, nil
	}
	return r.findOne(ctx, bson.M{"_id": oid})
}

// GetUserByUsername retrieves a user by exact username.
func (r *MongoUserRepository) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.findOne(ctx, bson.M{models.FieldUsername: username})
}

func (r *MongoUserRepository) findOne(ctx context.Context, filter bson.M) (*models.User, error) {
	var doc mongoUser
	err := r.dbClient.FindOne(ctx, models.UsersCollection, filter, &doc)
	if err != nil {
		if errors.Is(err, databases.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user from MongoDB: %w", err)
	}

	user := doc.toModel()
	return &user, nil
}

// UpdateUser sets the given fields on the user and returns the matched count.
func (r *MongoUserRepository) UpdateUser(ctx context.Context, id string, fields map[string]interface{}) (int64, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return 0, nil
	}

	matched, err := r.dbClient.UpdateOne(ctx, models.UsersCollection, bson.M{"_id": oid}, fields)
	if err != nil {
		return 0, fmt.Errorf("failed to update user in MongoDB: %w", err)
	}
	return matched, nil
}

// DeleteUser removes the user and returns the deleted count.
func (r *MongoUserRepository) DeleteUser(ctx context.Context, id string) (int64, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return 0, nil
	}

	deleted, err := r.dbClient.DeleteOne(ctx, models.UsersCollection, bson.M{"_id": oid})
	if err != nil {
		return 0, fmt.Errorf("failed to delete user from MongoDB: %w", err)
	}
	return deleted, nil
}

// EnsureIndices creates the unique username index.
func (r *MongoUserRepository) EnsureIndices(ctx context.Context) error {
	indexModel := mongosdk.IndexModel{
		Keys:    bson.M{models.FieldUsername: 1},
		Options: options.Index().SetUnique(true),
	}
	return r.dbClient.EnsureSchema(ctx, models.UsersCollection, indexModel)
}

// Close disconnects the MongoDB client.
func (r *MongoUserRepository) Close(ctx context.Context) error {
	return r.dbClient.Disconnect(ctx)
}
