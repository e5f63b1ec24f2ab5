package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"golang.org/x/crypto/bcrypt"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// ErrConflict is returned when a write would give two members, or two users,
// the same email.
var ErrConflict = errors.New("email already in use")

// Record is one JSON document of a collection. Numbers decode as float64.
type Record map[string]any

// ID returns the record's id field, or 0.
func (r Record) ID() int64 {
	switch v := r["id"].(type) {
	case float64:
		return int64(v)
	case int64:
		return v
	case json.Number:
		n, _ := v.Int64()
		return n
	}
	return 0
}

// RecordStore keeps every collection in a single table of JSON documents,
// with ids assigned from a per-collection sequence.
type RecordStore struct {
	db       *sql.DB
	hashCost int
}

func NewRecordStore(db *sql.DB) *RecordStore {
	return &RecordStore{db: db, hashCost: bcrypt.DefaultCost}
}

// SetHashCost overrides the bcrypt cost used for password fields.
func (s *RecordStore) SetHashCost(cost int) {
	s.hashCost = cost
}

func scanRecord(scanner interface{ Scan(...any) error }) (Record, error) {
	var data string
	if err := scanner.Scan(&data); err != nil {
		return nil, err
	}
	r := Record{}
	if err := json.Unmarshal([]byte(data), &r); err != nil {
		return nil, fmt.Errorf("decode record: %w", err)
	}
	return r, nil
}

// List returns the records of a collection in id order, keeping only those
// whose fields equal every filter value.
func (s *RecordStore) List(collection string, filter map[string]string) ([]Record, error) {
	rows, err := s.db.Query(`SELECT data FROM records WHERE collection = ? ORDER BY id ASC`, collection)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	defer rows.Close()

	records := []Record{}
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		if matchFilter(r, filter) {
			records = append(records, r)
		}
	}
	return records, rows.Err()
}

func (s *RecordStore) Get(collection string, id int64) (Record, error) {
	row := s.db.QueryRow(`SELECT data FROM records WHERE collection = ? AND id = ?`, collection, id)
	r, err := scanRecord(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get record: %w", err)
	}
	return r, nil
}

// Create assigns the next id of the collection and stores the record.
func (s *RecordStore) Create(collection string, r Record) (Record, error) {
	if err := s.hashPassword(r); err != nil {
		return nil, err
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var id int64
	err = tx.QueryRow(
		`UPDATE sequences SET last_id = last_id + 1 WHERE collection = ? RETURNING last_id`,
		collection,
	).Scan(&id)
	if err != nil {
		return nil, fmt.Errorf("next id: %w", err)
	}

	r["id"] = float64(id)
	data, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("encode record: %w", err)
	}

	if _, err := tx.Exec(`INSERT INTO records (collection, id, data) VALUES (?, ?, ?)`, collection, id, string(data)); err != nil {
		return nil, wrapWriteErr("insert record", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return r, nil
}

// Patch merges fields into an existing record. It returns nil if the record
// does not exist.
func (s *RecordStore) Patch(collection string, id int64, fields Record) (Record, error) {
	existing, err := s.Get(collection, id)
	if err != nil || existing == nil {
		return nil, err
	}
	if err := s.hashPassword(fields); err != nil {
		return nil, err
	}
	for k, v := range fields {
		if k == "id" {
			continue
		}
		existing[k] = v
	}
	return s.write(collection, id, existing)
}

// Replace overwrites a record entirely, keeping its id.
func (s *RecordStore) Replace(collection string, id int64, r Record) (Record, error) {
	existing, err := s.Get(collection, id)
	if err != nil || existing == nil {
		return nil, err
	}
	if err := s.hashPassword(r); err != nil {
		return nil, err
	}
	return s.write(collection, id, r)
}

func (s *RecordStore) write(collection string, id int64, r Record) (Record, error) {
	r["id"] = float64(id)
	data, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("encode record: %w", err)
	}
	if _, err := s.db.Exec(`UPDATE records SET data = ? WHERE collection = ? AND id = ?`, string(data), collection, id); err != nil {
		return nil, wrapWriteErr("update record", err)
	}
	return r, nil
}

// Delete removes a record and reports whether it existed.
func (s *RecordStore) Delete(collection string, id int64) (bool, error) {
	result, err := s.db.Exec(`DELETE FROM records WHERE collection = ? AND id = ?`, collection, id)
	if err != nil {
		return false, fmt.Errorf("delete record: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}

func wrapWriteErr(op string, err error) error {
	var se *sqlite.Error
	if errors.As(err, &se) && se.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE {
		return fmt.Errorf("%s: %w", op, ErrConflict)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func matchFilter(r Record, filter map[string]string) bool {
	for k, want := range filter {
		if k == "password" {
			stored, _ := r[k].(string)
			if !passwordMatches(stored, want) {
				return false
			}
			continue
		}
		if stringify(r[k]) != want {
			return false
		}
	}
	return true
}

func stringify(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	default:
		data, _ := json.Marshal(x)
		return string(data)
	}
}
