package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/dbsmedya/pealscope/internal/logger"
	"github.com/dbsmedya/pealscope/internal/perm"
	"github.com/dbsmedya/pealscope/internal/pipeline"
	"github.com/dbsmedya/pealscope/internal/sqlutil"
)

// Table suffixes, combined with the configured prefix.
const (
	TableRuns              = "runs"
	TableSequences         = "sequences"
	TableFamilies          = "families"
	TableFamilyOccurrences = "family_occurrences"
	TableGroupCatalog      = "group_catalog"
)

// tableNames holds the quoted, prefixed table identifiers.
type tableNames struct {
	runs, sequences, families, occurrences, catalog string
}

// Store writes analysis results to MySQL.
type Store struct {
	db     *sql.DB
	tables tableNames
	logger *logger.Logger
}

// NewStore creates a Store on db. Every table name is prefix + suffix and
// must be a valid identifier.
func NewStore(db *sql.DB, prefix string, log *logger.Logger) (*Store, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is nil")
	}
	if log == nil {
		log = logger.NewDefault()
	}

	var names tableNames
	for _, t := range []struct {
		suffix string
		dst    *string
	}{
		{TableRuns, &names.runs},
		{TableSequences, &names.sequences},
		{TableFamilies, &names.families},
		{TableFamilyOccurrences, &names.occurrences},
		{TableGroupCatalog, &names.catalog},
	} {
		quoted, err := sqlutil.PrefixedTable(prefix, t.suffix)
		if err != nil {
			return nil, fmt.Errorf("invalid table prefix %q: %w", prefix, err)
		}
		*t.dst = quoted
	}

	return &Store{db: db, tables: names, logger: log}, nil
}

func (s *Store) schema() []string {
	return []string{
		`CREATE TABLE IF NOT EXISTS ` + s.tables.runs + ` (
	run_id CHAR(36) PRIMARY KEY,
	source VARCHAR(1024) NOT NULL,
	started_at DATETIME(6) NOT NULL,
	completed_at DATETIME(6) NOT NULL,
	structure_count INT NOT NULL,
	family_count INT NOT NULL,
	rejected_count INT NOT NULL,
	skipped_stages JSON NOT NULL,
	created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
) ENGINE=InnoDB`,
		`CREATE TABLE IF NOT EXISTS ` + s.tables.sequences + ` (
	run_id CHAR(36) NOT NULL,
	sequence_id VARCHAR(255) NOT NULL,
	title VARCHAR(512) NOT NULL,
	stage INT NOT NULL,
	row_count INT NOT NULL,
	hunt_bells INT NULL,
	source_file VARCHAR(1024) NOT NULL,
	adjacent_only BOOLEAN NOT NULL,
	summary JSON NOT NULL,
	PRIMARY KEY (run_id, sequence_id),
	INDEX idx_stage (stage)
) ENGINE=InnoDB`,
		`CREATE TABLE IF NOT EXISTS ` + s.tables.families + ` (
	run_id CHAR(36) NOT NULL,
	permutation_key VARCHAR(255) NOT NULL,
	family_id VARCHAR(255) NOT NULL,
	cycle_signature VARCHAR(255) NOT NULL,
	parity VARCHAR(4) NOT NULL,
	sign TINYINT NOT NULL,
	adjacent_only BOOLEAN NOT NULL,
	occurrence_count INT NOT NULL,
	stages JSON NOT NULL,
	PRIMARY KEY (run_id, permutation_key),
	INDEX idx_signature (cycle_signature)
) ENGINE=InnoDB`,
		`CREATE TABLE IF NOT EXISTS ` + s.tables.occurrences + ` (
	run_id CHAR(36) NOT NULL,
	permutation_key VARCHAR(255) NOT NULL,
	sequence_id VARCHAR(255) NOT NULL,
	stage INT NOT NULL,
	occurrences INT NOT NULL,
	PRIMARY KEY (run_id, permutation_key, sequence_id)
) ENGINE=InnoDB`,
		`CREATE TABLE IF NOT EXISTS ` + s.tables.catalog + ` (
	run_id CHAR(36) NOT NULL,
	stage INT NOT NULL,
	group_order BIGINT NOT NULL,
	even_count BIGINT NOT NULL,
	odd_count BIGINT NOT NULL,
	cycle_type_counts JSON NOT NULL,
	PRIMARY KEY (run_id, stage)
) ENGINE=InnoDB`,
	}
}

// EnsureSchema creates the result tables if they don't exist.
// It is idempotent and safe to call on every run.
func (s *Store) EnsureSchema(ctx context.Context) error {
	s.logger.Debug("Ensuring result tables")
	for _, stmt := range s.schema() {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create result tables: %w", err)
		}
	}
	return nil
}

// SaveResult writes a complete run in one transaction. Nothing is written
// when any insert fails.
func (s *Store) SaveResult(ctx context.Context, res *pipeline.Result, source string) (err error) {
	if res == nil {
		return fmt.Errorf("result is nil")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				s.logger.Errorf("Failed to rollback transaction: %v", rbErr)
			}
		}
	}()

	if err = s.insertRun(ctx, tx, res, source); err != nil {
		return err
	}
	if err = s.insertSequences(ctx, tx, res); err != nil {
		return err
	}
	if err = s.insertFamilies(ctx, tx, res); err != nil {
		return err
	}
	if err = s.insertCatalog(ctx, tx, res); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	s.logger.Infow("Saved run to result database",
		"run_id", res.RunID,
		"sequences", len(res.Structures),
		"families", len(res.Families),
		"catalog_stages", len(res.Catalog),
	)
	return nil
}

func (s *Store) insertRun(ctx context.Context, tx *sql.Tx, res *pipeline.Result, source string) error {
	skipped := res.SkippedStages
	if skipped == nil {
		skipped = []int{}
	}
	skippedJSON, err := json.Marshal(skipped)
	if err != nil {
		return fmt.Errorf("failed to encode skipped stages: %w", err)
	}

	query := `INSERT INTO ` + s.tables.runs +
		` (run_id, source, started_at, completed_at, structure_count, family_count, rejected_count, skipped_stages)` +
		` VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	if _, err := tx.ExecContext(ctx, query,
		res.RunID, source, res.StartedAt, res.CompletedAt,
		len(res.Structures), len(res.Families), len(res.Rejected), string(skippedJSON),
	); err != nil {
		return fmt.Errorf("failed to insert run %s: %w", res.RunID, err)
	}
	return nil
}

func (s *Store) insertSequences(ctx context.Context, tx *sql.Tx, res *pipeline.Result) error {
	query := `INSERT INTO ` + s.tables.sequences +
		` (run_id, sequence_id, title, stage, row_count, hunt_bells, source_file, adjacent_only, summary)` +
		` VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

	for _, st := range res.Structures {
		summary, err := json.Marshal(st.Summary)
		if err != nil {
			return fmt.Errorf("failed to encode summary of %s: %w", st.ID, err)
		}
		var hunt sql.NullInt64
		if st.HuntBells != nil {
			hunt = sql.NullInt64{Int64: int64(*st.HuntBells), Valid: true}
		}
		if _, err := tx.ExecContext(ctx, query,
			res.RunID, st.ID, st.Title, st.Stage, st.Rows, hunt, st.SourceFile,
			st.Summary.AdjacentOnly, string(summary),
		); err != nil {
			return fmt.Errorf("failed to insert sequence %s: %w", st.ID, err)
		}
	}
	return nil
}

func (s *Store) insertFamilies(ctx context.Context, tx *sql.Tx, res *pipeline.Result) error {
	familyQuery := `INSERT INTO ` + s.tables.families +
		` (run_id, permutation_key, family_id, cycle_signature, parity, sign, adjacent_only, occurrence_count, stages)` +
		` VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	occurrenceQuery := `INSERT INTO ` + s.tables.occurrences +
		` (run_id, permutation_key, sequence_id, stage, occurrences)` +
		` VALUES (?, ?, ?, ?, ?)`

	for _, f := range res.Families {
		key := f.PositionPermutation.Key()
		stages, err := json.Marshal(f.Stages)
		if err != nil {
			return fmt.Errorf("failed to encode stages of %s: %w", f.ID, err)
		}
		if _, err := tx.ExecContext(ctx, familyQuery,
			res.RunID, key, f.ID, f.CycleSignature, string(f.Parity), f.Sign,
			f.AdjacentOnly, f.OccurrenceCount, string(stages),
		); err != nil {
			return fmt.Errorf("failed to insert family %s: %w", f.ID, err)
		}

		for _, p := range f.Structures {
			if _, err := tx.ExecContext(ctx, occurrenceQuery,
				res.RunID, key, p.ID, p.Stage, p.Count,
			); err != nil {
				return fmt.Errorf("failed to insert occurrence of %s in %s: %w", f.ID, p.ID, err)
			}
		}
	}
	return nil
}

func (s *Store) insertCatalog(ctx context.Context, tx *sql.Tx, res *pipeline.Result) error {
	query := `INSERT INTO ` + s.tables.catalog +
		` (run_id, stage, group_order, even_count, odd_count, cycle_type_counts)` +
		` VALUES (?, ?, ?, ?, ?, ?)`

	for _, e := range res.Catalog {
		counts, err := json.Marshal(e.CycleTypeCounts)
		if err != nil {
			return fmt.Errorf("failed to encode cycle types of stage %d: %w", e.Stage, err)
		}
		if _, err := tx.ExecContext(ctx, query,
			res.RunID, e.Stage, e.Order,
			e.ParityCounts.Get(string(perm.Even)), e.ParityCounts.Get(string(perm.Odd)),
			string(counts),
		); err != nil {
			return fmt.Errorf("failed to insert catalog for stage %d: %w", e.Stage, err)
		}
	}
	return nil
}
