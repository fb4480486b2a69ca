// Package pg implements a chunk store in a Postgresql database.
package pg

import (
	"context"
	"database/sql"
	stderrs "errors"

	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/bobg/bzz"
	"github.com/bobg/bzz/store"
)

var (
	_ bzz.Store       = &Store{}
	_ bzz.MultiGetter = &Store{}
)

// Store is a Postgresql-based chunk store.
type Store struct {
	db *sql.DB
}

// Schema is the SQL that New executes.
// It creates the `chunks` table if it does not exist.
// (If it does exist, it must have the columns, constraints, and indexing described here.)
const Schema = `
CREATE TABLE IF NOT EXISTS chunks (
  addr BYTEA PRIMARY KEY NOT NULL,
  data BYTEA NOT NULL
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

	var result []byte
	err := s.db.QueryRowContext(ctx, q, addr).Scan(&result)
	if stderrs.Is(err, sql.ErrNoRows) {
		return nil, bzz.ErrNotFound
	}
	return result, errors.Wrapf(err, "getting chunk %s", addr)
}

// GetMulti gets multiple chunks in one query.
func (s *Store) GetMulti(ctx context.Context, addrs []bzz.Address) (map[bzz.Address][]byte, error) {
	const q = `SELECT addr, data FROM chunks WHERE addr = ANY($1)`

	arr := make(pq.ByteaArray, 0, len(addrs))
	for _, addr := range addrs {
		addr := addr
		arr = append(arr, addr[:])
	}

	rows, err := s.db.QueryContext(ctx, q, arr)
	if err != nil {
		return nil, errors.Wrap(err, "querying chunks")
	}
	defer rows.Close()

	result := make(map[bzz.Address][]byte)
	for rows.Next() {
		var (
			addr bzz.Address
			data []byte
		)
		if err := rows.Scan(&addr, &data); err != nil {
			return nil, errors.Wrap(err, "scanning query result")
		}
		result[addr] = data
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "iterating over result rows")
	}

	var errmap bzz.MultiErr
	for _, addr := range addrs {
		if _, ok := result[addr]; !ok {
			if errmap == nil {
				errmap = make(bzz.MultiErr)
			}
			errmap[addr] = bzz.ErrNotFound
		}
	}
	if errmap == nil {
		return result, nil
	}
	return result, errmap
}

// Put adds a chunk to the store if it wasn't already present.
func (s *Store) Put(ctx context.Context, addr bzz.Address, data []byte) (bool, error) {
	const q = `INSERT INTO chunks (addr, data) VALUES ($1, $2) ON CONFLICT DO NOTHING`

	res, err := s.db.ExecContext(ctx, q, addr, data)
	if err != nil {
		return false, errors.Wrap(err, "inserting chunk")
	}

	aff, err := res.RowsAffected()
	return aff > 0, errors.Wrap(err, "counting affected rows")
}

// ListAddrs produces all chunk addresses in the store, in lexical order.
func (s *Store) ListAddrs(ctx context.Context, start bzz.Address, f func(bzz.Address) error) error {
	const q = `SELECT addr FROM chunks WHERE addr > $1 ORDER BY addr`
	rows, err := s.db.QueryContext(ctx, q, start)
	if err != nil {
		return errors.Wrap(err, "querying starting position")
	}
	defer rows.Close()

	for rows.Next() {
		var addr bzz.Address
		if err := rows.Scan(&addr); err != nil {
			return errors.Wrap(err, "scanning query result")
		}
		if err := f(addr); err != nil {
			return err
		}
	}
	return errors.Wrap(rows.Err(), "iterating over result rows")
}

func init() {
	store.Register("pg", func(ctx context.Context, conf map[string]interface{}) (bzz.Store, error) {
		conn, err := store.String(conf, "conn")
		if err != nil {
			return nil, err
		}
		db, err := sql.Open("postgres", conn)
		if err != nil {
			return nil, errors.Wrap(err, "opening db")
		}
		return New(ctx, db)
	})
}
