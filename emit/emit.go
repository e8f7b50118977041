// Package emit writes the protein catalogue tables. Nothing written through
// a Sink is visible at its destination until Commit succeeds.
package emit

import (
	"log"
	"strconv"
	"strings"

	"github.com/carbocation/pfx"
)

// Column headers of the four catalogue tables.
var (
	TaxonAssemblyHeader     = []string{"taxon", "assembly"}
	ProteinAssembliesHeader = []string{"protein_tmp_id", "assemblies"}
	ProteinSequenceHeader   = []string{"protein_tmp_id", "protein_sequence"}
	ProteinWeightHeader     = []string{"protein_tmp_id", "protein_weight", "microbiome_id"}
)

// Sink receives catalogue rows stage by stage.
type Sink interface {
	TaxonAssembly(taxon, assembly string) error
	ProteinAssemblies(protein string, assemblies []string) error
	ProteinSequence(protein, sequence string) error

	// ProteinWeight is keyed by the protein's accession.version.
	ProteinWeight(accession string, weight float64, microbiome string) error

	// Checkpoint is called at the end of every stage.
	Checkpoint() error

	// Commit publishes everything written. Abort discards it. Once either
	// has been called, further calls to either are no-ops.
	Commit() error
	Abort() error
}

// JoinAssemblies renders an assembly list the way it is stored.
func JoinAssemblies(assemblies []string) string {
	return strings.Join(assemblies, ",")
}

// FormatWeight renders a weight with the fewest digits that round-trip.
func FormatWeight(w float64) string {
	return strconv.FormatFloat(w, 'f', -1, 64)
}

// Multi fans every call out to several sinks. Errors stop the fan-out at
// the first failing sink, except for Abort, which reaches every sink.
type Multi []Sink

func (m Multi) TaxonAssembly(taxon, assembly string) error {
	for _, s := range m {
		if err := s.TaxonAssembly(taxon, assembly); err != nil {
			return err
		}
	}
	return nil
}

func (m Multi) ProteinAssemblies(protein string, assemblies []string) error {
	for _, s := range m {
		if err := s.ProteinAssemblies(protein, assemblies); err != nil {
			return err
		}
	}
	return nil
}

func (m Multi) ProteinSequence(protein, sequence string) error {
	for _, s := range m {
		if err := s.ProteinSequence(protein, sequence); err != nil {
			return err
		}
	}
	return nil
}

func (m Multi) ProteinWeight(accession string, weight float64, microbiome string) error {
	for _, s := range m {
		if err := s.ProteinWeight(accession, weight, microbiome); err != nil {
			return err
		}
	}
	return nil
}

func (m Multi) Checkpoint() error {
	for _, s := range m {
		if err := s.Checkpoint(); err != nil {
			return err
		}
	}
	return nil
}

// Commit commits each sink in turn. If one fails, the ones that were not
// yet committed are aborted.
func (m Multi) Commit() error {
	for i, s := range m {
		if err := s.Commit(); err != nil {
			for _, rest := range m[i+1:] {
				if abortErr := rest.Abort(); abortErr != nil {
					log.Println("Discarding partial output:", abortErr)
				}
			}
			return pfx.Err(err)
		}
	}
	return nil
}

func (m Multi) Abort() error {
	var first error
	for _, s := range m {
		if err := s.Abort(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
