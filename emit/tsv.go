package emit

import (
	"bufio"
	"context"
	"encoding/csv"
	"fmt"

	"cloud.google.com/go/storage"
	"github.com/carbocation/metaprot"
	"github.com/carbocation/pfx"
	"github.com/klauspost/compress/gzip"
)

// BufferSize of each table's buffered writer.
const BufferSize = 4096 * 8

// Paths names the destinations of the four tables. Each may be local or a
// gs:// object.
type Paths struct {
	TaxonAssembly     string
	ProteinAssemblies string
	ProteinSequences  string
	ProteinWeights    string
}

type table struct {
	path string
	pw   metaprot.PendingWriter
	buf  *bufio.Writer
	gz   *gzip.Writer
	w    *csv.Writer
}

func openTable(ctx context.Context, path string, client *storage.Client, compress bool, header []string) (*table, error) {
	pw, err := metaprot.MaybeCreateOnGoogleStorage(ctx, path, client)
	if err != nil {
		return nil, err
	}

	t := &table{path: path, pw: pw, buf: bufio.NewWriterSize(pw, BufferSize)}
	if compress {
		t.gz = gzip.NewWriter(t.buf)
		t.w = csv.NewWriter(t.gz)
	} else {
		t.w = csv.NewWriter(t.buf)
	}
	t.w.Comma = '\t'

	if err := t.w.Write(header); err != nil {
		pw.Abort()
		return nil, err
	}

	return t, nil
}

func (t *table) write(record ...string) error {
	if err := t.w.Write(record); err != nil {
		return fmt.Errorf("%s: %w", t.path, err)
	}
	return nil
}

func (t *table) flush() error {
	t.w.Flush()
	if err := t.w.Error(); err != nil {
		return fmt.Errorf("%s: %w", t.path, err)
	}
	if t.gz != nil {
		if err := t.gz.Flush(); err != nil {
			return fmt.Errorf("%s: %w", t.path, err)
		}
	}
	if err := t.buf.Flush(); err != nil {
		return fmt.Errorf("%s: %w", t.path, err)
	}

	return nil
}

func (t *table) commit() error {
	t.w.Flush()
	if err := t.w.Error(); err != nil {
		t.pw.Abort()
		return fmt.Errorf("%s: %w", t.path, err)
	}
	if t.gz != nil {
		if err := t.gz.Close(); err != nil {
			t.pw.Abort()
			return fmt.Errorf("%s: %w", t.path, err)
		}
	}
	if err := t.buf.Flush(); err != nil {
		t.pw.Abort()
		return fmt.Errorf("%s: %w", t.path, err)
	}

	return t.pw.Commit()
}

// TSV writes the four catalogue tables as tab-separated files with a header
// row. The protein sequence table is gzip compressed.
type TSV struct {
	taxonAssembly     *table
	proteinAssemblies *table
	proteinSequences  *table
	proteinWeights    *table

	done bool
}

// NewTSV opens all four tables. client is only needed for gs:// paths.
func NewTSV(ctx context.Context, paths Paths, client *storage.Client) (*TSV, error) {
	specs := []struct {
		path     string
		compress bool
		header   []string
	}{
		{paths.TaxonAssembly, false, TaxonAssemblyHeader},
		{paths.ProteinAssemblies, false, ProteinAssembliesHeader},
		{paths.ProteinSequences, true, ProteinSequenceHeader},
		{paths.ProteinWeights, false, ProteinWeightHeader},
	}

	tables := make([]*table, 0, len(specs))
	for _, spec := range specs {
		if spec.path == "" {
			for _, t := range tables {
				t.pw.Abort()
			}
			return nil, fmt.Errorf("all four output paths are required")
		}

		t, err := openTable(ctx, spec.path, client, spec.compress, spec.header)
		if err != nil {
			for _, t := range tables {
				t.pw.Abort()
			}
			return nil, pfx.Err(fmt.Errorf("%s: %w", spec.path, err))
		}
		tables = append(tables, t)
	}

	return &TSV{
		taxonAssembly:     tables[0],
		proteinAssemblies: tables[1],
		proteinSequences:  tables[2],
		proteinWeights:    tables[3],
	}, nil
}

func (s *TSV) tables() []*table {
	return []*table{s.taxonAssembly, s.proteinAssemblies, s.proteinSequences, s.proteinWeights}
}

func (s *TSV) TaxonAssembly(taxon, assembly string) error {
	return s.taxonAssembly.write(taxon, assembly)
}

func (s *TSV) ProteinAssemblies(protein string, assemblies []string) error {
	return s.proteinAssemblies.write(protein, JoinAssemblies(assemblies))
}

func (s *TSV) ProteinSequence(protein, sequence string) error {
	return s.proteinSequences.write(protein, sequence)
}

func (s *TSV) ProteinWeight(accession string, weight float64, microbiome string) error {
	return s.proteinWeights.write(accession, FormatWeight(weight), microbiome)
}

// Checkpoint flushes buffered rows to the pending files.
func (s *TSV) Checkpoint() error {
	for _, t := range s.tables() {
		if err := t.flush(); err != nil {
			return pfx.Err(err)
		}
	}

	return nil
}

// Commit publishes every table. If one table fails, the tables after it
// are discarded; tables already published stay in place.
func (s *TSV) Commit() error {
	if s.done {
		return nil
	}
	s.done = true

	tables := s.tables()
	for i, t := range tables {
		if err := t.commit(); err != nil {
			for _, rest := range tables[i+1:] {
				rest.pw.Abort()
			}
			return pfx.Err(err)
		}
	}

	return nil
}

func (s *TSV) Abort() error {
	if s.done {
		return nil
	}
	s.done = true

	var first error
	for _, t := range s.tables() {
		if err := t.pw.Abort(); err != nil && first == nil {
			first = err
		}
	}

	return first
}
