package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"time"

	"github.com/haguru/jungle/config"
	"github.com/haguru/jungle/internal/interfaces"
	"github.com/haguru/jungle/pkg/databases"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

const (
	// DefaultMaxOpenConns is the default maximum number of open connections to the database.
	DefaultMaxOpenConns = 10
	// DefaultMaxIdleConns is the default maximum number of idle connections to the database.
	DefaultMaxIdleConns = 5
	// DefaultConnMaxLifetime is the default maximum amount of time a connection may be reused.
	DefaultConnMaxLifetime = 30 * time.Second

	IDCOLUMN = "id"

	// uniqueViolation is the SQLSTATE for a unique constraint violation.
	uniqueViolation = "23505"
)

// PostgresDatabaseClient implements the DBClient interface for PostgreSQL databases.
// Documents are maps of column name to value and results are structs tagged with `db`.
type PostgresDatabaseClient struct {
	db              *sql.DB
	MaxOpenConns    int           // MaxOpenConns is the maximum number of open connections to the database
	MaxIdleConns    int           // MaxIdleConns is the maximum number of idle connections to the database
	ConnMaxLifetime time.Duration // ConnMaxLifetime is the maximum amount of time a connection may be reused
	validTables     map[string]bool
	validFields     map[string]bool
	logger          interfaces.Logger
}

func NewPostgresDatabaseClient(dbConfig *config.PostgresConfig, logger interfaces.Logger) (interfaces.DBClient, error) {
	if dbConfig == nil {
		return nil, fmt.Errorf("PostgresDatabaseClient: configuration is missing")
	}

	client := &PostgresDatabaseClient{
		MaxOpenConns:    dbConfig.Options.MaxOpenConns,
		MaxIdleConns:    dbConfig.Options.MaxIdleConns,
		ConnMaxLifetime: dbConfig.Options.ConnMaxLifetime,
		validTables:     config.ListToMap(dbConfig.ValidTables),
		validFields:     config.ListToMap(dbConfig.ValidFields),
		logger:          logger.WithContext(map[string]interface{}{"component": "postgres"}),
	}
	if client.MaxOpenConns <= 0 {
		client.MaxOpenConns = DefaultMaxOpenConns
	}
	if client.MaxIdleConns <= 0 {
		client.MaxIdleConns = DefaultMaxIdleConns
	}
	if client.ConnMaxLifetime <= 0 {
		client.ConnMaxLifetime = DefaultConnMaxLifetime
	}

	return client, nil
}

// Connect establishes a connection to a PostgreSQL database.
func (p *PostgresDatabaseClient) Connect(ctx context.Context, dsn string) error {
	if dsn == "" {
		return fmt.Errorf("PostgresDatabaseClient: DSN is empty")
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return fmt.Errorf("failed to open PostgreSQL database: %w", err)
	}

	db.SetMaxOpenConns(p.MaxOpenConns)
	db.SetMaxIdleConns(p.MaxIdleConns)
	db.SetConnMaxLifetime(p.ConnMaxLifetime)
	p.db = db

	if err := p.Ping(ctx); err != nil {
		return fmt.Errorf("failed to reach PostgreSQL database: %w", err)
	}
	p.logger.Info("Connected to PostgreSQL server")
	return nil
}

// Disconnect closes the PostgreSQL database connection.
func (p *PostgresDatabaseClient) Disconnect(ctx context.Context) error {
	p.logger.Info("Disconnecting")
	if p.db != nil {
		return p.db.Close()
	}
	return nil
}

// InsertOne inserts a single document into a PostgreSQL table.
// A UUID is generated for the id column and returned as a string.
func (p *PostgresDatabaseClient) InsertOne(ctx context.Context, tableName string, document interfaces.Document) (interface{}, error) {
	p.logger.Debug("Inserting one", "table", tableName)

	if err := p.checkTable(tableName); err != nil {
		return nil, err
	}
	docMap, err := p.sanitizeDocument(document, false)
	if err != nil {
		return nil, err
	}
	docMap[IDCOLUMN] = uuid.New().String()

	columns := sortedKeys(docMap)
	placeholders := make([]string, 0, len(columns))
	values := make([]interface{}, 0, len(columns))
	for i, col := range columns {
		placeholders = append(placeholders, fmt.Sprintf("$%d", i+1))
		values = append(values, docMap[col])
	}

	// Table and column names are whitelisted, values are bound as parameters.
	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) RETURNING id",
		tableName,
		strings.Join(columns, ", "),
		strings.Join(placeholders, ", "),
	) // #nosec G201

	var insertedID string
	if err := p.db.QueryRowContext(ctx, query, values...).Scan(&insertedID); err != nil {
		return nil, p.wrapError("insert one into "+tableName, err)
	}
	return insertedID, nil
}

// FindOne retrieves a single row and scans it into result, a pointer to a struct tagged with `db`.
func (p *PostgresDatabaseClient) FindOne(ctx context.Context, tableName string, filter interfaces.Document, result interfaces.Document) error {
	p.logger.Debug("Finding one", "table", tableName, "filter", filter)

	if err := p.checkTable(tableName); err != nil {
		return err
	}
	filterMap, err := p.sanitizeDocument(filter, true)
	if err != nil {
		return err
	}
	if len(filterMap) == 0 {
		return fmt.Errorf("PostgreSQL FindOne requires a non-empty filter")
	}

	resultValue := reflect.ValueOf(result)
	if resultValue.Kind() != reflect.Ptr || resultValue.Elem().Kind() != reflect.Struct {
		return fmt.Errorf("result must be a pointer to a struct")
	}
	columns, targets := scanTargets(resultValue.Elem())

	where, args := whereClause(filterMap, 1)
	query := fmt.Sprintf("SELECT %s FROM %s%s LIMIT 1", strings.Join(columns, ", "), tableName, where) // #nosec G201

	if err := p.db.QueryRowContext(ctx, query, args...).Scan(targets...); err != nil {
		return p.wrapError("find one in "+tableName, err)
	}
	return nil
}

// FindMany retrieves every row matching the filter into results, a pointer to a slice of structs.
func (p *PostgresDatabaseClient) FindMany(ctx context.Context, tableName string, filter interfaces.Document, results interfaces.Document) error {
	p.logger.Debug("Finding many", "table", tableName, "filter", filter)

	if err := p.checkTable(tableName); err != nil {
		return err
	}
	filterMap, err := p.sanitizeDocument(filter, true)
	if err != nil {
		return err
	}

	slicePtr := reflect.ValueOf(results)
	if slicePtr.Kind() != reflect.Ptr || slicePtr.Elem().Kind() != reflect.Slice ||
		slicePtr.Elem().Type().Elem().Kind() != reflect.Struct {
		return fmt.Errorf("results must be a pointer to a slice of structs")
	}
	slice := slicePtr.Elem()
	elemType := slice.Type().Elem()
	columns, _ := scanTargets(reflect.New(elemType).Elem())

	where, args := whereClause(filterMap, 1)
	query := fmt.Sprintf("SELECT %s FROM %s%s ORDER BY %s", strings.Join(columns, ", "), tableName, where, IDCOLUMN) // #nosec G201

	rows, err := p.db.QueryContext(ctx, query, args...)
	if err != nil {
		return p.wrapError("find many in "+tableName, err)
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			p.logger.Warn("Failed to close rows", "error", cerr)
		}
	}()

	found := reflect.MakeSlice(slice.Type(), 0, 0)
	for rows.Next() {
		elem := reflect.New(elemType).Elem()
		_, targets := scanTargets(elem)
		if err := rows.Scan(targets...); err != nil {
			return p.wrapError("scan row of "+tableName, err)
		}
		found = reflect.Append(found, elem)
	}
	if err := rows.Err(); err != nil {
		return p.wrapError("iterate rows of "+tableName, err)
	}

	slice.Set(found)
	return nil
}

// UpdateOne sets the given fields on the row matching the filter.
// Returns the number of matched rows.
func (p *PostgresDatabaseClient) UpdateOne(ctx context.Context, tableName string, filter interfaces.Document, fields interfaces.Document) (int64, error) {
	p.logger.Debug("Updating one", "table", tableName, "filter", filter)

	if err := p.checkTable(tableName); err != nil {
		return 0, err
	}
	filterMap, err := p.sanitizeDocument(filter, true)
	if err != nil {
		return 0, err
	}
	fieldMap, err := p.sanitizeDocument(fields, false)
	if err != nil {
		return 0, err
	}
	if len(filterMap) == 0 {
		return 0, fmt.Errorf("PostgreSQL UpdateOne requires a non-empty filter")
	}
	if len(fieldMap) == 0 {
		return 0, fmt.Errorf("PostgreSQL UpdateOne: nothing to update in %s", tableName)
	}

	columns := sortedKeys(fieldMap)
	setClauses := make([]string, 0, len(columns))
	values := make([]interface{}, 0, len(columns)+len(filterMap))
	for i, col := range columns {
		setClauses = append(setClauses, fmt.Sprintf("%s = $%d", col, i+1))
		values = append(values, fieldMap[col])
	}
	where, args := whereClause(filterMap, len(columns)+1)
	values = append(values, args...)

	query := fmt.Sprintf("UPDATE %s SET %s%s", tableName, strings.Join(setClauses, ", "), where) // #nosec G201

	res, err := p.db.ExecContext(ctx, query, values...)
	if err != nil {
		return 0, p.wrapError("update one in "+tableName, err)
	}
	return res.RowsAffected()
}

// DeleteOne deletes the row matching the filter.
func (p *PostgresDatabaseClient) DeleteOne(ctx context.Context, tableName string, filter interfaces.Document) (int64, error) {
	p.logger.Debug("Deleting one", "table", tableName, "filter", filter)

	if err := p.checkTable(tableName); err != nil {
		return 0, err
	}
	filterMap, err := p.sanitizeDocument(filter, true)
	if err != nil {
		return 0, err
	}
	if len(filterMap) == 0 {
		return 0, fmt.Errorf("PostgreSQL DeleteOne requires a non-empty filter")
	}

	where, args := whereClause(filterMap, 1)
	query := fmt.Sprintf("DELETE FROM %s%s", tableName, where) // #nosec G201

	res, err := p.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, p.wrapError("delete one from "+tableName, err)
	}
	return res.RowsAffected()
}

// Ping checks the health of the PostgreSQL connection.
func (p *PostgresDatabaseClient) Ping(ctx context.Context) error {
	if p.db == nil {
		return fmt.Errorf("PostgresDatabaseClient is not connected to a database")
	}
	return p.db.PingContext(ctx)
}

// EnsureSchema executes a CREATE TABLE / CREATE INDEX statement.
func (p *PostgresDatabaseClient) EnsureSchema(ctx context.Context, tableName string, schema interfaces.Document) error {
	if p.db == nil {
		return fmt.Errorf("PostgresDatabaseClient is not connected to a database")
	}

	createStmt, ok := schema.(string)
	if !ok || createStmt == "" {
		return fmt.Errorf("EnsureSchema expects schema to be a CREATE TABLE statement string")
	}
	if _, err := p.db.ExecContext(ctx, createStmt); err != nil {
		return fmt.Errorf("failed to ensure schema of %s: %w", tableName, err)
	}
	return nil
}

func (p *PostgresDatabaseClient) checkTable(tableName string) error {
	if tableName == "" {
		return fmt.Errorf("PostgresDatabaseClient: Table name cannot be empty")
	}
	if !p.validTables[tableName] {
		return fmt.Errorf("PostgresDatabaseClient: Invalid table name: %s", tableName)
	}
	if p.db == nil {
		return fmt.Errorf("PostgresDatabaseClient is not connected to a database")
	}
	return nil
}

// sanitizeDocument keeps whitelisted columns only. The id column is kept for filters.
func (p *PostgresDatabaseClient) sanitizeDocument(document interfaces.Document, allowID bool) (map[string]interface{}, error) {
	sanitized := make(map[string]interface{})
	if document == nil {
		return sanitized, nil
	}
	docMap, ok := document.(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("PostgresDatabaseClient: Document must be map[string]interface{}, got %T", document)
	}

	for key, value := range docMap {
		if key == IDCOLUMN {
			if allowID {
				sanitized[key] = value
			}
			continue
		}
		if !p.validFields[key] {
			p.logger.Warn("Skipping invalid column name", "column", key)
			continue
		}
		sanitized[key] = value
	}
	return sanitized, nil
}

// wrapError maps driver errors onto the shared database errors.
func (p *PostgresDatabaseClient) wrapError(op string, err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("PostgresDatabaseClient: %w: %s", databases.ErrNoDocuments, op)
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return fmt.Errorf("PostgresDatabaseClient: %w: %s: %v", databases.ErrDuplicateKey, op, pqErr)
	}
	return fmt.Errorf("PostgresDatabaseClient: failed to %s: %w", op, err)
}

// whereClause renders " WHERE a = $n AND b = $n+1" with columns in sorted order.
func whereClause(filter map[string]interface{}, firstParam int) (string, []interface{}) {
	if len(filter) == 0 {
		return "", nil
	}
	columns := sortedKeys(filter)
	clauses := make([]string, 0, len(columns))
	args := make([]interface{}, 0, len(columns))
	for i, col := range columns {
		clauses = append(clauses, fmt.Sprintf("%s = $%d", col, firstParam+i))
		args = append(args, filter[col])
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

// scanTargets returns the `db` column names of a struct and pointers to the matching fields.
// Fields without a db tag, or tagged "-", are skipped.
func scanTargets(elem reflect.Value) ([]string, []interface{}) {
	elemType := elem.Type()
	columns := make([]string, 0, elemType.NumField())
	targets := make([]interface{}, 0, elemType.NumField())
	for i := 0; i < elemType.NumField(); i++ {
		tag := elemType.Field(i).Tag.Get("db")
		if tag == "" || tag == "-" {
			continue
		}
		columns = append(columns, tag)
		targets = append(targets, elem.Field(i).Addr().Interface())
	}
	return columns, targets
}

func sortedKeys(m map[string]interface{}) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
