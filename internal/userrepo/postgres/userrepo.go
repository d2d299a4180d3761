package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/haguru/jungle/internal/interfaces"
	"github.com/haguru/jungle/internal/models"
	"github.com/haguru/jungle/pkg/databases"
	"github.com/haguru/jungle/pkg/databases/postgres"
)

// createUsersTable is applied on startup. The unique constraint on username
// backs the duplicate check on create.
const createUsersTable = `CREATE TABLE IF NOT EXISTS users (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL DEFAULT '',
	username TEXT NOT NULL UNIQUE,
	password TEXT NOT NULL,
	reward DOUBLE PRECISION NOT NULL DEFAULT 0
)`

// PostgresUserRepository implements UserRepository for PostgreSQL databases.
type PostgresUserRepository struct {
	dbClient interfaces.DBClient
}

// NewPostgresUserRepository creates a new PostgreSQL repository instance.
func NewPostgresUserRepository(dbClient interfaces.DBClient) (interfaces.UserRepository, error) {
	if dbClient == nil {
		return nil, fmt.Errorf("dbClient cannot be nil")
	}
	return &PostgresUserRepository{dbClient: dbClient}, nil
}

// AddUser saves a new user. The client generates a UUID for the id column.
func (r *PostgresUserRepository) AddUser(ctx context.Context, user models.User) (string, error) {
	insertedID, err := r.dbClient.InsertOne(ctx, models.UsersCollection, user.Fields())
	if err != nil {
		return "", fmt.Errorf("failed to add user to PostgreSQL: %w", err)
	}
	strID, ok := insertedID.(string)
	if !ok {
		return "", fmt.Errorf("failed to assert inserted ID to string (expected UUID)")
	}
	return strID, nil
}

func (r *PostgresUserRepository) ListUsers(ctx context.Context) ([]models.User, error) {
	users := []models.User{}
	if err := r.dbClient.FindMany(ctx, models.UsersCollection, nil, &users); err != nil {
		return nil, fmt.Errorf("failed to list users from PostgreSQL: %w", err)
	}
	return users, nil
}

func (r *PostgresUserRepository) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	return r.findOne(ctx, map[string]interface{}{postgres.IDCOLUMN: id})
}

func (r *PostgresUserRepository) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.findOne(ctx, map[string]interface{}{models.FieldUsername: username})
}

func (r *PostgresUserRepository) findOne(ctx context.Context, filter map[string]interface{}) (*models.User, error) {
	var user models.User
	err := r.dbClient.FindOne(ctx, models.UsersCollection, filter, &user)
	if err != nil {
		if errors.Is(err, databases.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user from PostgreSQL: %w", err)
	}
	return &user, nil
}

func (r *PostgresUserRepository) UpdateUser(ctx context.Context, id string, fields map[string]interface{}) (int64, error) {
	matched, err := r.dbClient.UpdateOne(ctx, models.UsersCollection, map[string]interface{}{postgres.IDCOLUMN: id}, fields)
	if err != nil {
		return 0, fmt.Errorf("failed to update user in PostgreSQL: %w", err)
	}
	return matched, nil
}

func (r *PostgresUserRepository) DeleteUser(ctx context.Context, id string) (int64, error) {
	deleted, err := r.dbClient.DeleteOne(ctx, models.UsersCollection, map[string]interface{}{postgres.IDCOLUMN: id})
	if err != nil {
		return 0, fmt.Errorf("failed to delete user from PostgreSQL: %w", err)
	}
	return deleted, nil
}

// EnsureIndices creates the users table with its unique username constraint.
func (r *PostgresUserRepository) EnsureIndices(ctx context.Context) error {
	return r.dbClient.EnsureSchema(ctx, models.UsersCollection, createUsersTable)
}

// Close closes the PostgreSQL database connection.
func (r *PostgresUserRepository) Close(ctx context.Context) error {
	return r.dbClient.Disconnect(ctx)
}
