package taxa

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseTable(t *testing.T) {
	cases := []struct {
		name  string
		input string
		taxa  []string
		want  []float64
	}{
		{"with abundance", "taxid\tabundance\n9606\t2.5\n562\t0.25\n", []string{"9606", "562"}, []float64{2.5, 0.25}},
		{"taxid only", "taxid\n9606\n562\n", []string{"9606", "562"}, []float64{1, 1}},
		{"empty abundance", "taxid\tabundance\n9606\t\n", []string{"9606"}, []float64{1}},
		{"any second header", "taxid\trel_ab\textra\n9606\t3\tx\n", []string{"9606"}, []float64{3}},
		{"comma delimited", "taxid,abundance\n9606,2\n562,4\n", []string{"9606", "562"}, []float64{2, 4}},
		{"crlf", "taxid\tabundance\r\n9606\t2\r\n", []string{"9606"}, []float64{2}},
		{"blank lines", "taxid\tabundance\n9606\t2\n\n", []string{"9606"}, []float64{2}},
		{"header only", "taxid\tabundance\n", nil, nil},
	}

	for _, c := range cases {
		rows, err := ParseTable(strings.NewReader(c.input))
		if err != nil {
			t.Errorf("%s: %v", c.name, err)
			continue
		}
		if len(rows) != len(c.taxa) {
			t.Errorf("%s: expected %d rows, got %d", c.name, len(c.taxa), len(rows))
			continue
		}
		for i, row := range rows {
			if row.TaxID != c.taxa[i] || row.Abundance.Value() != c.want[i] {
				t.Errorf("%s: row %d: expected %s=%v, got %s=%v", c.name, i, c.taxa[i], c.want[i], row.TaxID, row.Abundance.Value())
			}
		}
	}
}

func TestParseTableBadHeader(t *testing.T) {
	for _, input := range []string{
		"tax_id\tabundance\n9606\t1\n",
		"abundance\ttaxid\n1\t9606\n",
		"",
	} {
		if _, err := ParseTable(strings.NewReader(input)); !errors.Is(err, ErrHeader) {
			t.Errorf("%q: expected ErrHeader, got %v", input, err)
		}
	}
}

func TestParseTableBadAbundance(t *testing.T) {
	if _, err := ParseTable(strings.NewReader("taxid\tabundance\n9606\tlots\n")); err == nil {
		t.Error("Expected an error for a non-numeric abundance")
	}
}

func TestReadPairsFilesWithMicrobiomes(t *testing.T) {
	dir := t.TempDir()
	gutA := filepath.Join(dir, "gutA.tsv")
	gutB := filepath.Join(dir, "gutB.tsv")
	os.WriteFile(gutA, []byte("taxid\tabundance\n9606\t2.5\n562\t1\n9606\t3\n"), 0644)
	os.WriteFile(gutB, []byte("taxid\n562\n1280\n"), 0644)

	ab, err := Read(context.Background(), []string{gutA, gutB}, []string{"gutA", "gutB"}, nil)
	if err != nil {
		t.Fatal(err)
	}

	if x := strings.Join(ab.Taxa(), ","); x != "9606,562,1280" {
		t.Errorf("Unexpected taxon order %s", x)
	}
	if x := strings.Join(ab.Microbiomes(), ","); x != "gutA,gutB" {
		t.Errorf("Unexpected microbiome order %s", x)
	}
	if v := ab.Abundances("9606")["gutA"]; v != 3 {
		t.Errorf("Duplicate rows should keep the last value, got %v", v)
	}
	if got := ab.Abundances("562"); got["gutA"] != 1 || got["gutB"] != 1 {
		t.Errorf("Unexpected abundances for 562: %v", got)
	}
}

func TestReadCountMismatch(t *testing.T) {
	if _, err := Read(context.Background(), []string{"a.tsv", "b.tsv"}, []string{"gutA"}, nil); err == nil {
		t.Error("Expected an error when files and microbiome IDs do not pair up")
	}
	if _, err := Read(context.Background(), nil, nil, nil); err == nil {
		t.Error("Expected an error without input files")
	}
}

func TestReadBadHeaderIsReported(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.tsv")
	os.WriteFile(path, []byte("species\tabundance\nhuman\t1\n"), 0644)

	if _, err := Read(context.Background(), []string{path}, []string{"gutA"}, nil); err == nil || !strings.Contains(err.Error(), "taxid") {
		t.Errorf("Expected a header error, got %v", err)
	}
}
