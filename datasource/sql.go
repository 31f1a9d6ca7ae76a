package datasource

import (
	"context"
	"database/sql"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mwantia/webproducer/data/errors"
	"github.com/mwantia/webproducer/log"

	_ "modernc.org/sqlite"
)

// SQLSource runs a query and turns every row into a record. Endpoints
// starting with postgres:// or postgresql:// use PostgreSQL, anything else
// is opened as a sqlite database.
type SQLSource struct {
	logger *log.Logger

	endpoint string
	query    string
	meta     *MetaLoader
}

func NewSQLSource(endpoint, query string, meta *MetaLoader, logger *log.Logger) *SQLSource {
	if logger == nil {
		logger = log.NewDiscard()
	}

	return &SQLSource{
		logger:   logger.Named("sql"),
		endpoint: endpoint,
		query:    query,
		meta:     meta,
	}
}

func (ss *SQLSource) Name() string {
	return "sql"
}

func (ss *SQLSource) Fetch(ctx context.Context) (any, error) {
	query, err := resolveQuery(ctx, ss.query, ss.meta)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(query) == "" {
		return nil, errors.DataSource(nil, "a query is required for type sql")
	}
	if ss.endpoint == "" {
		return nil, errors.DataSource(nil, "an endpoint is required for type sql")
	}

	var records []any
	if isPostgres(ss.endpoint) {
		records, err = ss.fetchPostgres(ctx, query)
	} else {
		records, err = ss.fetchSQLite(ctx, query)
	}
	if err != nil {
		return nil, errors.DataSource(err, "sql query failed")
	}

	ss.logger.Debug("Query returned %d rows", len(records))
	return records, nil
}

func isPostgres(endpoint string) bool {
	return strings.HasPrefix(endpoint, "postgres://") || strings.HasPrefix(endpoint, "postgresql://")
}

func (ss *SQLSource) fetchPostgres(ctx context.Context, query string) ([]any, error) {
	config, err := pgxpool.ParseConfig(ss.endpoint)
	if err != nil {
		return nil, err
	}

	// One query per run, prepared statements would never be reused
	config.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeSimpleProtocol

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, err
	}
	defer pool.Close()

	rows, err := pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	fields := rows.FieldDescriptions()

	var records []any
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, err
		}

		record := make(map[string]any, len(fields))
		for i, field := range fields {
			record[field.Name] = normalizeValue(values[i])
		}
		records = append(records, record)
	}

	return records, rows.Err()
}

func (ss *SQLSource) fetchSQLite(ctx context.Context, query string) ([]any, error) {
	db, err := sql.Open("sqlite", ss.endpoint)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	var records []any
	for rows.Next() {
		values := make([]any, len(columns))
		pointers := make([]any, len(columns))
		for i := range values {
			pointers[i] = &values[i]
		}

		if err := rows.Scan(pointers...); err != nil {
			return nil, err
		}

		record := make(map[string]any, len(columns))
		for i, column := range columns {
			record[column] = normalizeValue(values[i])
		}
		records = append(records, record)
	}

	return records, rows.Err()
}

// normalizeValue converts driver values into what JSON decoding would produce
// for the same data, so templates see one shape regardless of the source.
func normalizeValue(value any) any {
	switch v := value.(type) {
	case []byte:
		return string(v)
	case int64:
		return float64(v)
	case int32:
		return float64(v)
	case float32:
		return float64(v)
	default:
		return v
	}
}
