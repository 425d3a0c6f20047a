package migrations

import (
	"database/sql"
	"errors"
	"fmt"
	"io"
	"sync/atomic"

	"github.com/golang-migrate/migrate/v4/database"
)

// DefaultMigrationsTable records the applied schema version.
const DefaultMigrationsTable = "schema_migrations"

var (
	// ErrNilConfig is returned by WithInstance when config is nil.
	ErrNilConfig = errors.New("no config")

	// errOpenUnsupported is returned by Open; connections come from WithInstance.
	errOpenUnsupported = errors.New("open by URL is not supported; use WithInstance")
)

// Config configures the migration driver.
type Config struct {
	MigrationsTable string
	// NoTxWrap runs each migration outside a transaction.
	NoTxWrap bool
}

// Driver implements database.Driver over an existing *sql.DB.
type Driver struct {
	db     *sql.DB
	cfg    Config
	locked atomic.Bool
}

var _ database.Driver = (*Driver)(nil)

// WithInstance wraps db and makes sure the version table exists.
func WithInstance(db *sql.DB, config *Config) (database.Driver, error) {
	if config == nil {
		return nil, ErrNilConfig
	}
	if err := db.Ping(); err != nil {
		return nil, err
	}

	d := &Driver{db: db, cfg: *config}
	if d.cfg.MigrationsTable == "" {
		d.cfg.MigrationsTable = DefaultMigrationsTable
	}

	table := d.cfg.MigrationsTable
	create := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (version uint64, dirty bool);
CREATE UNIQUE INDEX IF NOT EXISTS %s_version ON %s (version);`, table, table, table)
	if _, err := db.Exec(create); err != nil {
		return nil, &database.Error{OrigErr: err, Query: []byte(create)}
	}
	return d, nil
}

// Open is unsupported.
func (d *Driver) Open(string) (database.Driver, error) {
	return nil, errOpenUnsupported
}

// Close closes the underlying connection.
func (d *Driver) Close() error {
	return d.db.Close()
}

// Lock takes the in-process migration lock.
func (d *Driver) Lock() error {
	if !d.locked.CompareAndSwap(false, true) {
		return database.ErrLocked
	}
	return nil
}

// Unlock releases the in-process migration lock.
func (d *Driver) Unlock() error {
	if !d.locked.CompareAndSwap(true, false) {
		return database.ErrNotLocked
	}
	return nil
}

// Run applies one migration script.
func (d *Driver) Run(migration io.Reader) error {
	script, err := io.ReadAll(migration)
	if err != nil {
		return err
	}
	if d.cfg.NoTxWrap {
		if _, err := d.db.Exec(string(script)); err != nil {
			return &database.Error{OrigErr: err, Query: script}
		}
		return nil
	}
	return d.inTx(func(tx *sql.Tx) error {
		if _, err := tx.Exec(string(script)); err != nil {
			return &database.Error{OrigErr: err, Query: script}
		}
		return nil
	})
}

// SetVersion replaces the recorded version.
func (d *Driver) SetVersion(version int, dirty bool) error {
	table := d.cfg.MigrationsTable
	return d.inTx(func(tx *sql.Tx) error {
		del := "DELETE FROM " + table //nolint:gosec // table name comes from Config
		if _, err := tx.Exec(del); err != nil {
			return &database.Error{OrigErr: err, Query: []byte(del)}
		}
		// A dirty NilVersion is still written so a failed first down
		// migration leaves a trace (golang-migrate#330).
		if version < 0 && !(version == database.NilVersion && dirty) {
			return nil
		}
		ins := "INSERT INTO " + table + " (version, dirty) VALUES (?, ?)" //nolint:gosec // table name comes from Config
		if _, err := tx.Exec(ins, version, dirty); err != nil {
			return &database.Error{OrigErr: err, Query: []byte(ins)}
		}
		return nil
	})
}

// Version returns the recorded version, or NilVersion when none is set.
func (d *Driver) Version() (int, bool, error) {
	var (
		version int
		dirty   bool
	)
	q := "SELECT version, dirty FROM " + d.cfg.MigrationsTable + " LIMIT 1" //nolint:gosec // table name comes from Config
	switch err := d.db.QueryRow(q).Scan(&version, &dirty); {
	case errors.Is(err, sql.ErrNoRows):
		return database.NilVersion, false, nil
	case err != nil:
		return 0, false, &database.Error{OrigErr: err, Query: []byte(q)}
	}
	return version, dirty, nil
}

// Drop removes every table.
func (d *Driver) Drop() error {
	names, err := d.tableNames()
	if err != nil {
		return err
	}
	for _, name := range names {
		stmt := "DROP TABLE IF EXISTS " + name
		if err := d.inTx(func(tx *sql.Tx) error {
			_, err := tx.Exec(stmt)
			return err
		}); err != nil {
			return &database.Error{OrigErr: err, Query: []byte(stmt)}
		}
	}
	if len(names) > 0 {
		if _, err := d.db.Exec("VACUUM"); err != nil {
			return &database.Error{OrigErr: err, Query: []byte("VACUUM")}
		}
	}
	return nil
}

func (d *Driver) tableNames() (names []string, err error) {
	const q = `SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%'`
	rows, err := d.db.Query(q)
	if err != nil {
		return nil, &database.Error{OrigErr: err, Query: []byte(q)}
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			err = errors.Join(err, cerr)
		}
	}()
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// inTx runs fn in a transaction, rolling back on error.
func (d *Driver) inTx(fn func(*sql.Tx) error) error {
	tx, err := d.db.Begin()
	if err != nil {
		return &database.Error{OrigErr: err, Err: "transaction start failed"}
	}
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			err = errors.Join(err, rbErr)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return &database.Error{OrigErr: err, Err: "transaction commit failed"}
	}
	return nil
}
