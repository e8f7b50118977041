package assembly

import (
	"encoding/xml"
	"fmt"
	"strconv"
	"strings"
)

const (
	statTotalLength = "total_length"
	tagAll          = "all"
)

type assemblyMeta struct {
	Stats []stat `xml:"Stats>Stat"`
}

type stat struct {
	Category    string `xml:"category,attr"`
	SequenceTag string `xml:"sequence_tag,attr"`
	Value       string `xml:",chardata"`
}

// TotalLength extracts the summed length of all sequences of an assembly
// from the Meta block of its document summary. Meta is an XML fragment
// without a single root, so it is wrapped before decoding.
func TotalLength(meta string) (int64, error) {
	var m assemblyMeta
	if err := xml.Unmarshal([]byte("<root>"+meta+"</root>"), &m); err != nil {
		return 0, fmt.Errorf("could not parse assembly Meta: %w", err)
	}

	for _, s := range m.Stats {
		if s.Category != statTotalLength || s.SequenceTag != tagAll {
			continue
		}

		n, err := strconv.ParseInt(strings.TrimSpace(s.Value), 10, 64)
		if err != nil {
			return 0, fmt.Errorf("total_length %q is not an integer: %w", s.Value, err)
		}

		return n, nil
	}

	return 0, fmt.Errorf("assembly Meta has no %s/%s statistic", statTotalLength, tagAll)
}
