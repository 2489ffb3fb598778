// Package store persists trained morphology parameter stores as SQLite
// files, one database per model path. REAL columns hold 8-byte IEEE floats,
// so every probability round-trips exactly.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"os"

	_ "github.com/tursodatabase/go-libsql"

	"github.com/jamesr66a/translate/internal/morphology"
)

// ErrNoModel is returned when the model path does not point at a saved
// parameter store.
var ErrNoModel = errors.New("no model found")

const (
	smoothingKey   = "smoothing_const"
	maxMorphLenKey = "max_morph_len"
)

func open(path string) (*sql.DB, error) {
	db, err := sql.Open("libsql", "file:"+path)
	if err != nil {
		return nil, fmt.Errorf("open model db: %w", err)
	}
	return db, nil
}

func migrate(db *sql.DB) error {
	schema := []string{
		`CREATE TABLE IF NOT EXISTS meta (
			key TEXT PRIMARY KEY,
			value REAL NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS word_counts (
			word TEXT PRIMARY KEY,
			count INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS emissions (
			class INTEGER NOT NULL,
			substr TEXT NOT NULL,
			prob REAL NOT NULL,
			PRIMARY KEY (class, substr)
		);`,
		`CREATE TABLE IF NOT EXISTS transitions (
			src INTEGER NOT NULL,
			dst INTEGER NOT NULL,
			prob REAL NOT NULL,
			PRIMARY KEY (src, dst)
		);`,
		`CREATE TABLE IF NOT EXISTS likeness (
			class INTEGER NOT NULL,
			substr TEXT NOT NULL,
			score REAL NOT NULL,
			PRIMARY KEY (class, substr)
		);`,
	}
	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to run migration statement: %w", err)
		}
	}
	return nil
}

// Save writes the full table set to path, replacing any previous contents.
// Checkpoints during training reuse the same path, so the write is a single
// transaction: a reader never observes a half-written model.
func Save(path string, p *morphology.Params) error {
	db, err := open(path)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := migrate(db); err != nil {
		return err
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("begin save tx: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"meta", "word_counts", "emissions", "transitions", "likeness"} {
		if _, err := tx.Exec("DELETE FROM " + table); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}

	if _, err := tx.Exec(`INSERT INTO meta (key, value) VALUES (?, ?)`, smoothingKey, p.SmoothingConst); err != nil {
		return fmt.Errorf("save meta: %w", err)
	}
	if _, err := tx.Exec(`INSERT INTO meta (key, value) VALUES (?, ?)`, maxMorphLenKey, float64(p.MaxMorphLen)); err != nil {
		return fmt.Errorf("save meta: %w", err)
	}

	wcStmt, err := tx.Prepare(`INSERT INTO word_counts (word, count) VALUES (?, ?)`)
	if err != nil {
		return err
	}
	defer wcStmt.Close()
	for word, count := range p.WordCounts {
		if _, err := wcStmt.Exec(word, count); err != nil {
			return fmt.Errorf("save word count %q: %w", word, err)
		}
	}

	emStmt, err := tx.Prepare(`INSERT INTO emissions (class, substr, prob) VALUES (?, ?, ?)`)
	if err != nil {
		return err
	}
	defer emStmt.Close()
	for class := 0; class < morphology.NumClasses; class++ {
		for substr, prob := range p.Emissions[class] {
			if _, err := emStmt.Exec(class, substr, prob); err != nil {
				return fmt.Errorf("save emission: %w", err)
			}
		}
	}

	trStmt, err := tx.Prepare(`INSERT INTO transitions (src, dst, prob) VALUES (?, ?, ?)`)
	if err != nil {
		return err
	}
	defer trStmt.Close()
	for src := 0; src < morphology.NumStates; src++ {
		for dst := 0; dst < morphology.NumStates; dst++ {
			if prob := p.Transitions[src][dst]; prob != 0 {
				if _, err := trStmt.Exec(src, dst, prob); err != nil {
					return fmt.Errorf("save transition: %w", err)
				}
			}
		}
	}

	lkStmt, err := tx.Prepare(`INSERT INTO likeness (class, substr, score) VALUES (?, ?, ?)`)
	if err != nil {
		return err
	}
	defer lkStmt.Close()
	for class := 0; class < morphology.NumClasses; class++ {
		for substr, score := range p.Likeness[class] {
			if _, err := lkStmt.Exec(class, substr, score); err != nil {
				return fmt.Errorf("save likeness: %w", err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit save tx: %w", err)
	}
	return nil
}

// Load reads a parameter store back from path. It fails fast with
// ErrNoModel when the path does not exist, rather than creating an empty
// database there.
func Load(path string) (*morphology.Params, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrNoModel, path)
	}
	db, err := open(path)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	var smoothing float64
	err = db.QueryRow(`SELECT value FROM meta WHERE key = ?`, smoothingKey).Scan(&smoothing)
	if err != nil {
		return nil, fmt.Errorf("%w: %s (%v)", ErrNoModel, path, err)
	}

	p := morphology.NewEmptyParams(smoothing)

	var maxMorphLen float64
	if err := db.QueryRow(`SELECT value FROM meta WHERE key = ?`, maxMorphLenKey).Scan(&maxMorphLen); err != nil {
		return nil, fmt.Errorf("load morpheme length bound: %w", err)
	}
	p.MaxMorphLen = int(maxMorphLen)

	rows, err := db.Query(`SELECT word, count FROM word_counts`)
	if err != nil {
		return nil, fmt.Errorf("load word counts: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var word string
		var count int
		if err := rows.Scan(&word, &count); err != nil {
			return nil, err
		}
		p.WordCounts[word] = count
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	emRows, err := db.Query(`SELECT class, substr, prob FROM emissions`)
	if err != nil {
		return nil, fmt.Errorf("load emissions: %w", err)
	}
	defer emRows.Close()
	for emRows.Next() {
		var class int
		var substr string
		var prob float64
		if err := emRows.Scan(&class, &substr, &prob); err != nil {
			return nil, err
		}
		p.Emissions[class][substr] = prob
	}
	if err := emRows.Err(); err != nil {
		return nil, err
	}

	trRows, err := db.Query(`SELECT src, dst, prob FROM transitions`)
	if err != nil {
		return nil, fmt.Errorf("load transitions: %w", err)
	}
	defer trRows.Close()
	for trRows.Next() {
		var src, dst int
		var prob float64
		if err := trRows.Scan(&src, &dst, &prob); err != nil {
			return nil, err
		}
		p.Transitions[src][dst] = prob
	}
	if err := trRows.Err(); err != nil {
		return nil, err
	}

	lkRows, err := db.Query(`SELECT class, substr, score FROM likeness`)
	if err != nil {
		return nil, fmt.Errorf("load likeness: %w", err)
	}
	defer lkRows.Close()
	for lkRows.Next() {
		var class int
		var substr string
		var score float64
		if err := lkRows.Scan(&class, &substr, &score); err != nil {
			return nil, err
		}
		p.Likeness[class][substr] = score
	}
	if err := lkRows.Err(); err != nil {
		return nil, err
	}

	return p, nil
}
