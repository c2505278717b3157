// internal/docstore/rqlite.go
package docstore

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"

	"github.com/google/uuid"
	"github.com/rqlite/gorqlite"

	"github.com/contoso/storefront/internal/apperrors"
)

// RqliteStore persists documents as JSON rows in rqlite, one table per
// collection keyed (partition, id). Equality filters compile to
// json_extract over the body column; the etag column carries the
// optimistic concurrency token. The store-native key strategy is an
// AUTOINCREMENT table per collection, so NextKey is atomic within the
// store.
type RqliteStore struct {
	conn *gorqlite.Connection
}

var identPattern = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9_]*$`)

func OpenRqlite(url, consistency string) (*RqliteStore, error) {
	conn, err := gorqlite.Open(url)
	if err != nil {
		return nil, apperrors.Unavailable(err)
	}
	if consistency != "" {
		if level, err := gorqlite.ParseConsistencyLevel(consistency); err == nil {
			conn.SetConsistencyLevel(level)
		}
	}
	return &RqliteStore{conn: conn}, nil
}

// EnsureSchema creates the backing tables for the given collections.
func (s *RqliteStore) EnsureSchema(ctx context.Context, collections ...string) error {
	if err := apperrors.FromContext(ctx); err != nil {
		return err
	}
	var stmts []gorqlite.ParameterizedStatement
	for _, c := range collections {
		table, err := tableName(c)
		if err != nil {
			return err
		}
		stmts = append(stmts,
			gorqlite.ParameterizedStatement{Query: fmt.Sprintf(
				`CREATE TABLE IF NOT EXISTS %s (pk TEXT NOT NULL, id TEXT NOT NULL, etag TEXT NOT NULL, body TEXT NOT NULL, PRIMARY KEY (pk, id))`, table)},
			gorqlite.ParameterizedStatement{Query: fmt.Sprintf(
				`CREATE TABLE IF NOT EXISTS %s_keys (k INTEGER PRIMARY KEY AUTOINCREMENT)`, table)},
		)
	}
	if _, err := s.conn.WriteParameterized(stmts); err != nil {
		return apperrors.Unavailable(err)
	}
	return nil
}

func (s *RqliteStore) GetByID(ctx context.Context, collection, partitionKey, id string) (*Document, error) {
	if err := apperrors.FromContext(ctx); err != nil {
		return nil, err
	}
	table, err := tableName(collection)
	if err != nil {
		return nil, err
	}
	stmt := gorqlite.ParameterizedStatement{
		Query:     fmt.Sprintf(`SELECT pk, id, etag, body FROM %s WHERE pk = ? AND id = ?`, table),
		Arguments: []interface{}{partitionKey, id},
	}
	if partitionKey == "" {
		// Cross-partition lookup by id.
		stmt = gorqlite.ParameterizedStatement{
			Query:     fmt.Sprintf(`SELECT pk, id, etag, body FROM %s WHERE id = ? LIMIT 1`, table),
			Arguments: []interface{}{id},
		}
	}
	qr, err := s.conn.QueryOneParameterized(stmt)
	if err != nil {
		return nil, apperrors.Unavailable(err)
	}
	if !qr.Next() {
		return nil, apperrors.NotFound(collection + "/" + id)
	}
	return scanDocument(&qr)
}

func (s *RqliteStore) Query(ctx context.Context, collection string, filter *Filter, skip, take int) ([]Document, error) {
	if err := apperrors.FromContext(ctx); err != nil {
		return nil, err
	}
	table, err := tableName(collection)
	if err != nil {
		return nil, err
	}
	where, args, err := filterClause(filter)
	if err != nil {
		return nil, err
	}
	limit := -1
	if take > 0 {
		limit = take
	}
	query := fmt.Sprintf(`SELECT pk, id, etag, body FROM %s%s ORDER BY rowid LIMIT ? OFFSET ?`, table, where)
	args = append(args, limit, skip)

	qr, err := s.conn.QueryOneParameterized(gorqlite.ParameterizedStatement{Query: query, Arguments: args})
	if err != nil {
		return nil, apperrors.Unavailable(err)
	}
	var out []Document
	for qr.Next() {
		doc, err := scanDocument(&qr)
		if err != nil {
			return nil, err
		}
		out = append(out, *doc)
	}
	return out, nil
}

func (s *RqliteStore) Count(ctx context.Context, collection string, filter *Filter) (int, error) {
	if err := apperrors.FromContext(ctx); err != nil {
		return 0, err
	}
	table, err := tableName(collection)
	if err != nil {
		return 0, err
	}
	where, args, err := filterClause(filter)
	if err != nil {
		return 0, err
	}
	qr, err := s.conn.QueryOneParameterized(gorqlite.ParameterizedStatement{
		Query:     fmt.Sprintf(`SELECT COUNT(*) AS n FROM %s%s`, table, where),
		Arguments: args,
	})
	if err != nil {
		return 0, apperrors.Unavailable(err)
	}
	if !qr.Next() {
		return 0, nil
	}
	row, err := qr.Map()
	if err != nil {
		return 0, apperrors.Unavailable(err)
	}
	n, _ := toFloat(row["n"])
	return int(n), nil
}

func (s *RqliteStore) Upsert(ctx context.Context, collection string, doc *Document) (*Document, error) {
	if err := apperrors.FromContext(ctx); err != nil {
		return nil, err
	}
	if doc == nil || doc.ID == "" {
		return nil, apperrors.Invalid("document id is required")
	}
	table, err := tableName(collection)
	if err != nil {
		return nil, err
	}
	newTag := uuid.NewString()

	if doc.ETag != "" {
		// Conditional replace guarded by the concurrency token.
		res, err := s.conn.WriteOneParameterized(gorqlite.ParameterizedStatement{
			Query:     fmt.Sprintf(`UPDATE %s SET etag = ?, body = ? WHERE pk = ? AND id = ? AND etag = ?`, table),
			Arguments: []interface{}{newTag, string(doc.Data), doc.Partition, doc.ID, doc.ETag},
		})
		if err != nil {
			return nil, apperrors.Unavailable(err)
		}
		if res.RowsAffected == 0 {
			return nil, fmt.Errorf("etag mismatch on %s/%s: %w", collection, doc.ID, apperrors.ErrConflict)
		}
	} else {
		_, err := s.conn.WriteOneParameterized(gorqlite.ParameterizedStatement{
			Query: fmt.Sprintf(`INSERT INTO %s (pk, id, etag, body) VALUES (?, ?, ?, ?)
				ON CONFLICT (pk, id) DO UPDATE SET etag = excluded.etag, body = excluded.body`, table),
			Arguments: []interface{}{doc.Partition, doc.ID, newTag, string(doc.Data)},
		})
		if err != nil {
			return nil, apperrors.Unavailable(err)
		}
	}
	stored := copyDoc(doc)
	stored.ETag = newTag
	return stored, nil
}

func (s *RqliteStore) Insert(ctx context.Context, collection string, doc *Document) (*Document, error) {
	if err := apperrors.FromContext(ctx); err != nil {
		return nil, err
	}
	if doc == nil || doc.ID == "" {
		return nil, apperrors.Invalid("document id is required")
	}
	table, err := tableName(collection)
	if err != nil {
		return nil, err
	}
	newTag := uuid.NewString()
	// INSERT OR IGNORE leaves RowsAffected at zero when the row already
	// exists, which is the create-only conflict signal.
	res, err := s.conn.WriteOneParameterized(gorqlite.ParameterizedStatement{
		Query:     fmt.Sprintf(`INSERT OR IGNORE INTO %s (pk, id, etag, body) VALUES (?, ?, ?, ?)`, table),
		Arguments: []interface{}{doc.Partition, doc.ID, newTag, string(doc.Data)},
	})
	if err != nil {
		return nil, apperrors.Unavailable(err)
	}
	if res.RowsAffected == 0 {
		return nil, fmt.Errorf("%s/%s already exists: %w", collection, doc.ID, apperrors.ErrConflict)
	}
	stored := copyDoc(doc)
	stored.ETag = newTag
	return stored, nil
}

func (s *RqliteStore) Delete(ctx context.Context, collection, partitionKey, id string) error {
	if err := apperrors.FromContext(ctx); err != nil {
		return err
	}
	table, err := tableName(collection)
	if err != nil {
		return err
	}
	query := fmt.Sprintf(`DELETE FROM %s WHERE pk = ? AND id = ?`, table)
	args := []interface{}{partitionKey, id}
	if partitionKey == "" {
		query = fmt.Sprintf(`DELETE FROM %s WHERE id = ?`, table)
		args = []interface{}{id}
	}
	res, err := s.conn.WriteOneParameterized(gorqlite.ParameterizedStatement{Query: query, Arguments: args})
	if err != nil {
		return apperrors.Unavailable(err)
	}
	if res.RowsAffected == 0 {
		return apperrors.NotFound(collection + "/" + id)
	}
	return nil
}

func (s *RqliteStore) NextKey(ctx context.Context, collection string) (int, error) {
	if err := apperrors.FromContext(ctx); err != nil {
		return 0, err
	}
	table, err := tableName(collection)
	if err != nil {
		return 0, err
	}
	res, err := s.conn.WriteOneParameterized(gorqlite.ParameterizedStatement{
		Query: fmt.Sprintf(`INSERT INTO %s_keys DEFAULT VALUES`, table),
	})
	if err != nil {
		return 0, apperrors.Unavailable(err)
	}
	return int(res.LastInsertID), nil
}

func tableName(collection string) (string, error) {
	if !identPattern.MatchString(collection) {
		return "", apperrors.Invalid("collection name " + collection)
	}
	return "ds_" + collection, nil
}

func filterClause(filter *Filter) (string, []interface{}, error) {
	if filter == nil || filter.Field == "" {
		return "", nil, nil
	}
	if !identPattern.MatchString(filter.Field) {
		return "", nil, apperrors.Invalid("filter field " + filter.Field)
	}
	return fmt.Sprintf(` WHERE json_extract(body, '$.%s') = ?`, filter.Field), []interface{}{filter.Value}, nil
}

func scanDocument(qr *gorqlite.QueryResult) (*Document, error) {
	row, err := qr.Map()
	if err != nil {
		return nil, apperrors.Unavailable(err)
	}
	doc := &Document{}
	if v, ok := row["pk"].(string); ok {
		doc.Partition = v
	}
	if v, ok := row["id"].(string); ok {
		doc.ID = v
	}
	if v, ok := row["etag"].(string); ok {
		doc.ETag = v
	}
	if v, ok := row["body"].(string); ok {
		doc.Data = json.RawMessage(v)
	}
	return doc, nil
}
