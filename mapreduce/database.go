package mapreduce

// every dataset the library touches is a small sqlite file holding one
// table: pairs (key text, value text). Sources, map outputs, reduce
// inputs and the final output all share that layout.

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	_ "github.com/mattn/go-sqlite3"
)

var errTooFewRows = errors.New("fewer rows than map tasks")

func openDatabase(path string) (*sql.DB, error) {
	options :=
		"?" + "_busy_timeout=10000" +
			"&" + "_case_sensitive_like=OFF" +
			"&" + "_foreign_keys=ON" +
			"&" + "_journal_mode=OFF" +
			"&" + "_locking_mode=NORMAL" +
			"&" + "_synchronous=OFF"
	db, err := sql.Open("sqlite3", path+options)
	if err != nil {
		return nil, fmt.Errorf("issue opening database %s: %w", path, err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("issue opening database %s: %w", path, err)
	}
	// ATTACH is per connection, keep everything on one
	db.SetMaxOpenConns(1)
	return db, nil
}

// createDatabase starts a fresh dataset at path, removing whatever was
// there before.
func createDatabase(path string) (*sql.DB, error) {
	if _, err := os.Stat(path); err == nil {
		if err := os.Remove(path); err != nil {
			return nil, fmt.Errorf("issue removing existing database: %w", err)
		}
	}

	db, err := openDatabase(path)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec("CREATE TABLE pairs (key text, value text)"); err != nil {
		db.Close()
		return nil, fmt.Errorf("issue creating the table: %w", err)
	}
	return db, nil
}

func rowCount(db *sql.DB) (int, error) {
	var total int
	if err := db.QueryRow("SELECT COUNT(*) AS count FROM pairs").Scan(&total); err != nil {
		return 0, fmt.Errorf("unable to count rows: %w", err)
	}
	return total, nil
}

// LoadLines writes lines to a new dataset at path, keyed by their 0-based
// line number.
func LoadLines(path string, lines []string) error {
	db, err := createDatabase(path)
	if err != nil {
		return err
	}
	defer db.Close()

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("issue starting load: %w", err)
	}
	stmt, err := tx.Prepare("INSERT INTO pairs (key, value) values (?, ?)")
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("issue with insert statement: %w", err)
	}
	defer stmt.Close()

	for i, line := range lines {
		if _, err := stmt.Exec(strconv.Itoa(i), line); err != nil {
			tx.Rollback()
			return fmt.Errorf("issue inserting line %d: %w", i, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("issue committing load: %w", err)
	}
	return nil
}

// ReadPairs calls fn for every row of the dataset at path, ordered by key.
// Iteration stops at the first error fn returns.
func ReadPairs(path string, fn func(Pair) error) error {
	db, err := openDatabase(path)
	if err != nil {
		return err
	}
	defer db.Close()

	rows, err := db.Query("SELECT key, value FROM pairs ORDER BY key, value")
	if err != nil {
		return fmt.Errorf("issue querying %s: %w", path, err)
	}
	defer rows.Close()

	for rows.Next() {
		var p Pair
		if err := rows.Scan(&p.Key, &p.Value); err != nil {
			return fmt.Errorf("issue reading a row from %s: %w", path, err)
		}
		if err := fn(p); err != nil {
			return err
		}
	}
	return rows.Err()
}

// splitDatabase cuts the source dataset into m datasets of near equal
// size, named by outputPattern (a format string taking the partition
// number) inside outputDir. The first total%m partitions get one extra row.
func splitDatabase(source, outputDir, outputPattern string, m int) ([]string, error) {
	db, err := openDatabase(source)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	total, err := rowCount(db)
	if err != nil {
		return nil, err
	}
	if total < m {
		return nil, fmt.Errorf("%w: %d rows, %d tasks", errTooFewRows, total, m)
	}

	base := total / m
	r := total % m

	// rowid order keeps the partitions deterministic
	rows, err := db.Query("SELECT key, value FROM pairs ORDER BY rowid")
	if err != nil {
		return nil, fmt.Errorf("issue with querying source database: %w", err)
	}
	defer rows.Close()

	outputPaths := make([]string, m)
	count := 0

	for i := 0; i < m; i++ {
		size := base
		if i < r {
			size++
		}

		path := filepath.Join(outputDir, fmt.Sprintf(outputPattern, i))
		if err := copyRows(rows, path, size); err != nil {
			return nil, err
		}
		outputPaths[i] = path
		count += size
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating over source db: %w", err)
	}
	if count != total {
		return nil, fmt.Errorf("wrong number of keys processed: %d, total: %d", count, total)
	}
	return outputPaths, nil
}

// copyRows moves the next n rows of rows into a new dataset at path.
func copyRows(rows *sql.Rows, path string, n int) error {
	out, err := createDatabase(path)
	if err != nil {
		return fmt.Errorf("issue creating output database: %w", err)
	}
	defer out.Close()

	stmt, err := out.Prepare("INSERT INTO pairs (key, value) values (?, ?)")
	if err != nil {
		return fmt.Errorf("issue with insert statement: %w", err)
	}
	defer stmt.Close()

	for i := 0; i < n; i++ {
		if !rows.Next() {
			return fmt.Errorf("source ran out of rows writing %s", path)
		}
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return fmt.Errorf("issue reading a row from source database: %w", err)
		}
		if _, err := stmt.Exec(key, value); err != nil {
			return fmt.Errorf("issue inserting into output database: %w", err)
		}
	}
	return nil
}

// mergeDatabases concatenates the datasets at paths into a new dataset at
// dest. The inputs are left in place.
func mergeDatabases(paths []string, dest string) (*sql.DB, error) {
	db, err := createDatabase(dest)
	if err != nil {
		return nil, err
	}

	for _, path := range paths {
		if err := gatherInto(db, path); err != nil {
			db.Close()
			return nil, fmt.Errorf("issue merging db @(%s): %w", path, err)
		}
	}
	return db, nil
}

// gatherInto appends every row of the dataset at in to out.
func gatherInto(out *sql.DB, in string) error {
	if _, err := out.Exec(`ATTACH ? AS merge; INSERT INTO pairs SELECT * FROM merge.pairs; DETACH merge;`, in); err != nil {
		return fmt.Errorf("issue merging db: %w", err)
	}
	return nil
}
