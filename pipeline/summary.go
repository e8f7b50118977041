package pipeline

import (
	"log"

	"github.com/montanaflynn/stats"
)

// Summary condenses a finished run.
type Summary struct {
	Taxa       int
	Selected   int
	Assemblies int
	Sequences  int
	Proteins   int
	Weights    int

	MedianAssemblyLength float64
	MaxAssemblyLength    float64

	// WeightTotals follows microbiome input order.
	WeightTotals []MicrobiomeTotal
}

type MicrobiomeTotal struct {
	Microbiome string
	Total      float64
}

// Summary reports whatever the run got through; stages that never ran
// count as zero.
func (st *State) Summary() (Summary, error) {
	var out Summary

	if st.Abundances != nil {
		out.Taxa = len(st.Abundances.Taxa())
		for _, m := range st.Abundances.Microbiomes() {
			if total, ok := st.WeightTotals[m]; ok {
				out.WeightTotals = append(out.WeightTotals, MicrobiomeTotal{Microbiome: m, Total: total})
			}
		}
	}

	if st.Selection != nil {
		out.Selected = len(st.Selection.Taxa())
		out.Assemblies = len(st.Selection.Assemblies())

		lengths := make([]float64, 0, out.Selected)
		for _, taxon := range st.Selection.Taxa() {
			c, _ := st.Selection.Choice(taxon)
			lengths = append(lengths, float64(c.TotalLength))
		}

		data := stats.LoadRawData(lengths)
		if data.Len() > 0 {
			var err error
			if out.MedianAssemblyLength, err = data.Median(); err != nil {
				return out, err
			}
			if out.MaxAssemblyLength, err = data.Max(); err != nil {
				return out, err
			}
		}
	}

	if st.Sequences != nil {
		out.Sequences = len(st.Sequences.Sequences())
	}
	if st.Graph != nil {
		out.Proteins = st.Graph.Len()
	}
	out.Weights = st.WeightsWritten

	return out, nil
}

// Log prints the summary in the same register as the progress messages.
func (s Summary) Log() {
	log.Printf("%d of %d taxa had an assembly (%d distinct assemblies)\n", s.Selected, s.Taxa, s.Assemblies)
	if s.Selected > 0 {
		log.Printf("Selected assembly total_length: median %.0f, max %.0f\n", s.MedianAssemblyLength, s.MaxAssemblyLength)
	}
	log.Printf("%d nucleotide sequences, %d proteins, %d protein weights\n", s.Sequences, s.Proteins, s.Weights)
	for _, t := range s.WeightTotals {
		log.Printf("Total protein weight in %s: %g\n", t.Microbiome, t.Total)
	}
}
