// Package graph joins the assembly -> sequence and sequence -> protein
// links into a protein -> assembly-set map. Every join is by id; the order
// in which ids are first met is kept so that output rows are reproducible.
package graph

// orderedSet is an insertion-ordered set of ids.
type orderedSet struct {
	items []string
	index map[string]struct{}
}

func newOrderedSet() *orderedSet {
	return &orderedSet{index: make(map[string]struct{})}
}

// add reports whether id was new.
func (s *orderedSet) add(id string) bool {
	if _, exists := s.index[id]; exists {
		return false
	}
	s.index[id] = struct{}{}
	s.items = append(s.items, id)

	return true
}

func (s *orderedSet) union(ids []string) {
	for _, id := range ids {
		s.add(id)
	}
}

// SequenceIndex maps nucleotide sequences to the assemblies they came from.
type SequenceIndex struct {
	sequences  *orderedSet
	assemblies map[string]*orderedSet
}

// NewSequenceIndex walks assemblies in the given order and files every
// linked sequence under its assembly. A sequence linked from several
// assemblies (or twice from one) keeps each assembly once.
func NewSequenceIndex(assemblies []string, links map[string][]string) *SequenceIndex {
	idx := &SequenceIndex{
		sequences:  newOrderedSet(),
		assemblies: make(map[string]*orderedSet),
	}

	for _, assembly := range assemblies {
		for _, seq := range links[assembly] {
			if idx.sequences.add(seq) {
				idx.assemblies[seq] = newOrderedSet()
			}
			idx.assemblies[seq].add(assembly)
		}
	}

	return idx
}

// Sequences lists unique sequence ids in first-encountered order.
func (idx *SequenceIndex) Sequences() []string { return idx.sequences.items }

// Assemblies returns the assemblies a sequence belongs to.
func (idx *SequenceIndex) Assemblies(seq string) []string {
	if s, ok := idx.assemblies[seq]; ok {
		return s.items
	}

	return nil
}

// Graph maps proteins to the deduplicated set of assemblies they are
// reachable from.
type Graph struct {
	proteins   *orderedSet
	assemblies map[string]*orderedSet
}

// Build walks the sequences of idx in order and merges each sequence's
// assemblies into the set of every protein linked from it. Sequences
// without protein links contribute nothing.
func Build(idx *SequenceIndex, links map[string][]string) *Graph {
	g := &Graph{
		proteins:   newOrderedSet(),
		assemblies: make(map[string]*orderedSet),
	}

	for _, seq := range idx.Sequences() {
		proteins := links[seq]
		if len(proteins) == 0 {
			continue
		}

		seqAssemblies := idx.Assemblies(seq)
		for _, protein := range proteins {
			if g.proteins.add(protein) {
				g.assemblies[protein] = newOrderedSet()
			}
			g.assemblies[protein].union(seqAssemblies)
		}
	}

	return g
}

// Proteins lists unique protein ids in first-encountered order.
func (g *Graph) Proteins() []string { return g.proteins.items }

// Assemblies returns the assemblies a protein is reachable from, each once.
func (g *Graph) Assemblies(protein string) []string {
	if s, ok := g.assemblies[protein]; ok {
		return s.items
	}

	return nil
}

func (g *Graph) Len() int { return len(g.proteins.items) }
