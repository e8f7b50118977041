package metaprot

import (
	"io"

	"github.com/csimplestring/go-csv/detector"
)

// DetermineDelimiter returns the delimiter of a tabular input. Only tab and
// comma are considered; tab is assumed when the detector has no opinion,
// e.g. for single-column files.
func DetermineDelimiter(r io.Reader) rune {
	d := detector.New()
	for _, candidate := range d.DetectDelimiter(r, '"') {
		switch candidate {
		case "\t":
			return '\t'
		case ",":
			return ','
		}
	}

	return '\t'
}
