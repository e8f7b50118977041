// Package weight turns taxon abundances into protein weights: a protein's
// weight in a microbiome is the summed abundance of the taxa whose selected
// assembly contains it. Repeated occurrences of a protein within one
// assembly count once.
package weight

// AbundanceSource provides per-taxon, per-microbiome abundances.
type AbundanceSource interface {
	// Abundances returns microbiome -> abundance for one taxon.
	Abundances(taxon string) map[string]float64

	// Microbiomes lists every microbiome in input order.
	Microbiomes() []string
}

// Weight is the summed weight of one protein in one microbiome.
type Weight struct {
	Microbiome string
	Value      float64
}

// Aggregator computes protein weights from a fixed taxon -> assembly
// selection.
type Aggregator struct {
	// CountAllTaxa adds the abundances of every taxon that selected a given
	// assembly. When false, only the first such taxon (in input order)
	// contributes, which is how the reference download script behaves.
	CountAllTaxa bool

	source     AbundanceSource
	byAssembly map[string][]string
}

// New indexes taxa by their selected assembly. taxa fixes the order in which
// taxa sharing an assembly are considered; taxa absent from selected are
// ignored.
func New(taxa []string, selected map[string]string, source AbundanceSource) *Aggregator {
	a := &Aggregator{
		source:     source,
		byAssembly: make(map[string][]string),
	}

	for _, taxon := range taxa {
		assembly, ok := selected[taxon]
		if !ok {
			continue
		}
		a.byAssembly[assembly] = append(a.byAssembly[assembly], taxon)
	}

	return a
}

// Taxa returns the taxa that contribute to proteins of the given assembly.
func (a *Aggregator) Taxa(assembly string) []string {
	taxa := a.byAssembly[assembly]
	if !a.CountAllTaxa && len(taxa) > 1 {
		// TODO: confirm with the catalogue consumers whether taxa that share
		// an assembly should all contribute, then drop this branch.
		return taxa[:1]
	}

	return taxa
}

// Weights returns the protein weights for a protein linked to assemblies.
// Only microbiomes in which a contributing taxon has an abundance appear,
// in microbiome input order.
func (a *Aggregator) Weights(assemblies []string) []Weight {
	sums := make(map[string]float64)
	seen := make(map[string]struct{}, len(assemblies))

	for _, assembly := range assemblies {
		if _, dup := seen[assembly]; dup {
			continue
		}
		seen[assembly] = struct{}{}

		for _, taxon := range a.Taxa(assembly) {
			for microbiome, abundance := range a.source.Abundances(taxon) {
				sums[microbiome] += abundance
			}
		}
	}

	out := make([]Weight, 0, len(sums))
	for _, microbiome := range a.source.Microbiomes() {
		if v, ok := sums[microbiome]; ok {
			out = append(out, Weight{Microbiome: microbiome, Value: v})
		}
	}

	return out
}
