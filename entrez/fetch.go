package entrez

import (
	"context"
	"io"
	"strings"

	"github.com/biogo/biogo/alphabet"
	"github.com/biogo/biogo/io/seqio"
	"github.com/biogo/biogo/io/seqio/fasta"
	"github.com/biogo/biogo/seq/linear"
)

// Record is one sequence returned by efetch. ID is the first word of the
// FASTA header, normally the accession.version of the record.
type Record struct {
	ID       string
	Sequence string
}

// FetchSequences downloads the FASTA records of ids and hands them to fn
// one at a time, in the order the server streams them. An error returned by
// fn stops the download and is returned as is.
func (c *Client) FetchSequences(ctx context.Context, db string, ids []string, fn func(Record) error) error {
	if len(ids) == 0 {
		return nil
	}

	v := c.values()
	v.Set("db", db)
	v.Set("rettype", "fasta")
	v.Set("retmode", "text")
	v.Set("id", strings.Join(ids, ","))

	return c.post(ctx, utilFetch, "efetch", v, func(r io.Reader) error {
		return ScanFASTA(r, fn)
	})
}

// ScanFASTA parses FASTA text and calls fn for every record.
func ScanFASTA(r io.Reader, fn func(Record) error) error {
	sc := seqio.NewScanner(fasta.NewReader(r, linear.NewSeq("", nil, alphabet.Protein)))
	for sc.Next() {
		s, ok := sc.Seq().(*linear.Seq)
		if !ok {
			continue
		}

		if err := fn(Record{ID: s.Name(), Sequence: letters(s.Seq)}); err != nil {
			return err
		}
	}

	return sc.Error()
}

func letters(l alphabet.Letters) string {
	b := make([]byte, len(l))
	for i, c := range l {
		b[i] = byte(c)
	}

	return string(b)
}
