package taxa

import (
	"bufio"
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/carbocation/metaprot"
	"github.com/carbocation/pfx"
	"github.com/gocarina/gocsv"
)

// ErrHeader means a table's first column is not named taxid.
var ErrHeader = errors.New("first column header must be 'taxid'")

// Read loads one table per microbiome. paths and microbiomes are paired by
// position, so their lengths must match. Paths may be local or gs://, and
// may be compressed.
func Read(ctx context.Context, paths, microbiomes []string, client *storage.Client) (*Abundances, error) {
	if len(paths) == 0 {
		return nil, fmt.Errorf("no taxid input files were given")
	}
	if len(paths) != len(microbiomes) {
		return nil, fmt.Errorf("got %d taxid input files but %d microbiome IDs; they are paired by position", len(paths), len(microbiomes))
	}

	out := NewAbundances()
	for i, path := range paths {
		if err := readFile(ctx, path, microbiomes[i], client, out); err != nil {
			return nil, pfx.Err(fmt.Errorf("%s: %w", path, err))
		}
	}

	return out, nil
}

func readFile(ctx context.Context, path, microbiome string, client *storage.Client, out *Abundances) error {
	f, err := metaprot.MaybeOpenFromGoogleStorage(ctx, path, client)
	if err != nil {
		return err
	}
	defer f.Close()

	rc, err := metaprot.MaybeDecompressReadCloser(f)
	if err != nil {
		return err
	}
	defer rc.Close()

	rows, err := ParseTable(rc)
	if err != nil {
		return err
	}

	out.AddMicrobiome(microbiome)
	for _, row := range rows {
		if out.Add(microbiome, row.TaxID, row.Abundance.Value()) {
			log.Printf("Taxon %s is listed more than once for %s; keeping the last value\n", row.TaxID, microbiome)
		}
	}

	return nil
}

// ParseTable decodes a taxon table. The first column must be headed taxid.
// The second column, whatever its header, holds abundances; further columns
// are ignored. Tab is the expected delimiter but comma-delimited tables are
// accepted.
func ParseTable(r io.Reader) ([]Row, error) {
	fileBytes, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	delim := metaprot.DetermineDelimiter(bytes.NewReader(fileBytes))

	br := bufio.NewReader(bytes.NewReader(fileBytes))
	headerLine, err := br.ReadString('\n')
	if err != nil && err != io.EOF {
		return nil, err
	}

	header := strings.Split(strings.TrimRight(headerLine, "\r\n"), string(delim))
	if strings.TrimPrefix(strings.TrimSpace(header[0]), "\ufeff") != "taxid" {
		return nil, ErrHeader
	}

	// Rewrite the header so that column positions, not the names the
	// caller happened to use, decide what each column means.
	normalized := make([]string, len(header))
	for i := range header {
		switch i {
		case 0:
			normalized[i] = "taxid"
		case 1:
			normalized[i] = "abundance"
		default:
			normalized[i] = fmt.Sprintf("ignored_%d", i)
		}
	}

	cr := csv.NewReader(io.MultiReader(strings.NewReader(strings.Join(normalized, string(delim))+"\n"), br))
	cr.Comma = delim
	cr.LazyQuotes = true
	cr.FieldsPerRecord = -1

	rows := []Row{}
	if err := gocsv.UnmarshalCSV(cr, &rows); err != nil {
		return nil, err
	}

	out := rows[:0]
	for _, row := range rows {
		row.TaxID = strings.TrimSpace(row.TaxID)
		if row.TaxID == "" {
			continue
		}
		out = append(out, row)
	}

	return out, nil
}
