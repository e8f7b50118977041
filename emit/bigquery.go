package emit

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"

	"cloud.google.com/go/bigquery"
	"github.com/carbocation/pfx"
	"google.golang.org/api/googleapi"
)

// InsertBatchSize is the number of rows sent per streaming insert.
const InsertBatchSize = 500

// WeightRow is the BigQuery rendering of one protein weight.
type WeightRow struct {
	ProteinTmpID  string  `bigquery:"protein_tmp_id"`
	ProteinWeight float64 `bigquery:"protein_weight"`
	MicrobiomeID  string  `bigquery:"microbiome_id"`
}

// TableSpec identifies a BigQuery table.
type TableSpec struct {
	Project string
	Dataset string
	Table   string
}

// ParseTableSpec parses project.dataset.table.
func ParseTableSpec(spec string) (TableSpec, error) {
	parts := strings.Split(spec, ".")
	if len(parts) != 3 {
		return TableSpec{}, fmt.Errorf("BigQuery table %q: expected project.dataset.table", spec)
	}
	for _, p := range parts {
		if p == "" {
			return TableSpec{}, fmt.Errorf("BigQuery table %q: expected project.dataset.table", spec)
		}
	}

	return TableSpec{Project: parts[0], Dataset: parts[1], Table: parts[2]}, nil
}

func (t TableSpec) String() string {
	return t.Project + "." + t.Dataset + "." + t.Table
}

type rowInserter interface {
	Put(ctx context.Context, src interface{}) error
}

// putWith binds ins to the context of the run that created the sink.
func putWith(ctx context.Context, ins rowInserter) func([]*WeightRow) error {
	return func(rows []*WeightRow) error {
		return ins.Put(ctx, rows)
	}
}

// BigQuery streams the protein weight table into BigQuery. The other
// tables are not sent. Rows are held in memory until Commit.
type BigQuery struct {
	Spec TableSpec

	client *bigquery.Client
	put    func([]*WeightRow) error
	rows   []*WeightRow
	done   bool
}

// NewBigQuery connects to BigQuery and creates the destination table if it
// does not exist yet.
func NewBigQuery(ctx context.Context, spec string) (*BigQuery, error) {
	ts, err := ParseTableSpec(spec)
	if err != nil {
		return nil, err
	}

	client, err := bigquery.NewClient(ctx, ts.Project)
	if err != nil {
		return nil, pfx.Err(fmt.Errorf("connecting to BigQuery: %v", err))
	}

	table := client.Dataset(ts.Dataset).Table(ts.Table)
	if err := ensureTable(ctx, table); err != nil {
		client.Close()
		return nil, pfx.Err(fmt.Errorf("%s: %w", ts, err))
	}

	return &BigQuery{
		Spec:   ts,
		client: client,
		put:    putWith(ctx, table.Inserter()),
	}, nil
}

func ensureTable(ctx context.Context, table *bigquery.Table) error {
	_, err := table.Metadata(ctx)
	if err == nil {
		return nil
	}

	var gerr *googleapi.Error
	if !errors.As(err, &gerr) || gerr.Code != http.StatusNotFound {
		return err
	}

	schema, err := bigquery.InferSchema(WeightRow{})
	if err != nil {
		return err
	}

	log.Printf("Creating BigQuery table %s.%s\n", table.DatasetID, table.TableID)

	return table.Create(ctx, &bigquery.TableMetadata{Schema: schema})
}

func (b *BigQuery) TaxonAssembly(taxon, assembly string) error                 { return nil }
func (b *BigQuery) ProteinAssemblies(protein string, assemblies []string) error { return nil }
func (b *BigQuery) ProteinSequence(protein, sequence string) error             { return nil }

func (b *BigQuery) ProteinWeight(accession string, weight float64, microbiome string) error {
	b.rows = append(b.rows, &WeightRow{
		ProteinTmpID:  accession,
		ProteinWeight: weight,
		MicrobiomeID:  microbiome,
	})

	return nil
}

func (b *BigQuery) Checkpoint() error { return nil }

// Commit inserts the buffered rows in batches. Streaming inserts cannot be
// rolled back, so a failure part way leaves the earlier batches in place.
func (b *BigQuery) Commit() error {
	if b.done {
		return nil
	}
	b.done = true
	defer b.close()

	for start := 0; start < len(b.rows); start += InsertBatchSize {
		end := start + InsertBatchSize
		if end > len(b.rows) {
			end = len(b.rows)
		}

		if err := b.put(b.rows[start:end]); err != nil {
			return pfx.Err(fmt.Errorf("%s: inserted %d of %d rows: %w", b.Spec, start, len(b.rows), err))
		}
	}

	log.Printf("Inserted %d protein weights into %s\n", len(b.rows), b.Spec)

	return nil
}

func (b *BigQuery) Abort() error {
	if b.done {
		return nil
	}
	b.done = true
	b.rows = nil

	return b.close()
}

func (b *BigQuery) close() error {
	if b.client == nil {
		return nil
	}

	return b.client.Close()
}
