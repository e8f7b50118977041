package emit

import (
	"fmt"
	"strings"

	"github.com/carbocation/metaprot"
	"github.com/carbocation/pfx"
	"github.com/jmoiron/sqlx"

	_ "github.com/mattn/go-sqlite3"
)

var sqliteSchema = []string{
	`DROP TABLE IF EXISTS taxon_assembly`,
	`DROP TABLE IF EXISTS protein_assemblies`,
	`DROP TABLE IF EXISTS protein_sequence`,
	`DROP TABLE IF EXISTS protein_weight`,
	`CREATE TABLE taxon_assembly (taxon TEXT NOT NULL, assembly TEXT NOT NULL)`,
	`CREATE TABLE protein_assemblies (protein_tmp_id TEXT NOT NULL, assemblies TEXT NOT NULL)`,
	`CREATE TABLE protein_sequence (protein_tmp_id TEXT NOT NULL, protein_sequence TEXT NOT NULL)`,
	`CREATE TABLE protein_weight (protein_tmp_id TEXT NOT NULL, protein_weight REAL NOT NULL, microbiome_id TEXT NOT NULL)`,
}

// SQLite stores the catalogue in a local SQLite database. Existing
// catalogue tables are replaced. Everything happens in one transaction, so
// the previous contents survive an aborted run.
type SQLite struct {
	db *sqlx.DB
	tx *sqlx.Tx

	taxonAssembly     *sqlx.Stmt
	proteinAssemblies *sqlx.Stmt
	proteinSequence   *sqlx.Stmt
	proteinWeight     *sqlx.Stmt

	done bool
}

func NewSQLite(path string) (*SQLite, error) {
	if metaprot.IsGoogleStoragePath(path) {
		return nil, fmt.Errorf("%s: SQLite output must be a local file", path)
	}

	// URI filenames have to begin with 'file:'; see
	// https://www.sqlite.org/c3ref/open.html
	path = metaprot.ExpandHome(path)
	if !strings.HasPrefix(path, "file:") {
		path = "file:" + path
	}

	db, err := sqlx.Connect("sqlite3", path)
	if err != nil {
		return nil, pfx.Err(err)
	}

	s := &SQLite{db: db}
	if err := s.begin(); err != nil {
		s.Abort()
		return nil, pfx.Err(err)
	}

	return s, nil
}

func (s *SQLite) begin() (err error) {
	if s.tx, err = s.db.Beginx(); err != nil {
		return err
	}

	for _, stmt := range sqliteSchema {
		if _, err := s.tx.Exec(stmt); err != nil {
			return err
		}
	}

	prepared := []struct {
		dst   **sqlx.Stmt
		query string
	}{
		{&s.taxonAssembly, `INSERT INTO taxon_assembly (taxon, assembly) VALUES (?, ?)`},
		{&s.proteinAssemblies, `INSERT INTO protein_assemblies (protein_tmp_id, assemblies) VALUES (?, ?)`},
		{&s.proteinSequence, `INSERT INTO protein_sequence (protein_tmp_id, protein_sequence) VALUES (?, ?)`},
		{&s.proteinWeight, `INSERT INTO protein_weight (protein_tmp_id, protein_weight, microbiome_id) VALUES (?, ?, ?)`},
	}
	for _, p := range prepared {
		if *p.dst, err = s.tx.Preparex(p.query); err != nil {
			return err
		}
	}

	return nil
}

func (s *SQLite) TaxonAssembly(taxon, assembly string) error {
	_, err := s.taxonAssembly.Exec(taxon, assembly)
	return err
}

func (s *SQLite) ProteinAssemblies(protein string, assemblies []string) error {
	_, err := s.proteinAssemblies.Exec(protein, JoinAssemblies(assemblies))
	return err
}

func (s *SQLite) ProteinSequence(protein, sequence string) error {
	_, err := s.proteinSequence.Exec(protein, sequence)
	return err
}

func (s *SQLite) ProteinWeight(accession string, weight float64, microbiome string) error {
	_, err := s.proteinWeight.Exec(accession, weight, microbiome)
	return err
}

// Checkpoint is a no-op: rows only become durable at Commit.
func (s *SQLite) Checkpoint() error { return nil }

func (s *SQLite) Commit() error {
	if s.done {
		return nil
	}
	s.done = true
	defer s.db.Close()

	return pfx.Err(s.tx.Commit())
}

func (s *SQLite) Abort() error {
	if s.done {
		return nil
	}
	s.done = true
	defer s.db.Close()

	if s.tx == nil {
		return nil
	}

	return s.tx.Rollback()
}
