// Package sqlite3 implements a chunk store in a Sqlite database.
package sqlite3

import (
	"context"
	"database/sql"
	stderrs "errors"

	"github.com/bobg/sqlutil"
	_ "github.com/mattn/go-sqlite3" // register the sqlite3 type for sql.Open
	"github.com/pkg/errors"

	"github.com/bobg/bzz"
	"github.com/bobg/bzz/store"
)

var _ bzz.Store = &Store{}

// Store is a Sqlite-based chunk store.
type Store struct {
	db *sql.DB
}

// Schema is the SQL that New executes.
// It creates the `chunks` table if it does not exist.
// (If it does exist, it must have the columns, constraints, and indexing described here.)
const Schema = `
CREATE TABLE IF NOT EXISTS chunks (
  addr BLOB PRIMARY KEY NOT NULL,
  data BLOB NOT NULL
);
`

// New produces a new Store using `db` for storage.
// It expects to create table `chunks`,
// or for that table already to exist with the correct schema.
// (See variable Schema.)
func New(ctx context.Context, db *sql.DB) (*Store, error) {
	_, err := db.ExecContext(ctx, Schema)
	return &Store{db: db}, errors.Wrap(err, "creating schema")
}

// Get gets the chunk data at addr.
func (s *Store) Get(ctx context.Context, addr bzz.Address) ([]byte, error) {
	const q = `SELECT data FROM chunks WHERE addr = $1`

	var data []byte
	err := s.db.QueryRowContext(ctx, q, addr).Scan(&data)
	if stderrs.Is(err, sql.ErrNoRows) {
		return nil, bzz.ErrNotFound
	}
	return data, errors.Wrapf(err, "getting chunk %s", addr)
}

// Put adds a chunk to the store if it wasn't already present.
func (s *Store) Put(ctx context.Context, addr bzz.Address, data []byte) (bool, error) {
	const q = `INSERT INTO chunks (addr, data) VALUES ($1, $2) ON CONFLICT DO NOTHING`

	res, err := s.db.ExecContext(ctx, q, addr, data)
	if err != nil {
		return false, errors.Wrap(err, "inserting chunk")
	}

	aff, err := res.RowsAffected()
	if err != nil {
		return false, errors.Wrap(err, "counting affected rows")
	}

	return aff > 0, nil
}

// ListAddrs produces all chunk addresses in the store, in lexicographic order.
func (s *Store) ListAddrs(ctx context.Context, start bzz.Address, f func(bzz.Address) error) error {
	const q = `SELECT addr FROM chunks WHERE addr > $1 ORDER BY addr`
	return sqlutil.ForQueryRows(ctx, s.db, q, start, f)
}

func init() {
	store.Register("sqlite3", func(ctx context.Context, conf map[string]interface{}) (bzz.Store, error) {
		conn, err := store.String(conf, "conn")
		if err != nil {
			return nil, err
		}
		db, err := sql.Open("sqlite3", conn)
		if err != nil {
			return nil, errors.Wrap(err, "opening db")
		}
		return New(ctx, db)
	})
}
