// Package pipeline drives one catalogue run: taxa are linked to assemblies,
// one assembly is kept per taxon, and the proteins of the kept assemblies
// are downloaded and weighted by taxon abundance. Each stage hands its
// results to the next through State.
package pipeline

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/carbocation/metaprot/assembly"
	"github.com/carbocation/metaprot/emit"
	"github.com/carbocation/metaprot/entrez"
	"github.com/carbocation/metaprot/graph"
	"github.com/carbocation/metaprot/taxa"
	"github.com/carbocation/metaprot/weight"
	"github.com/carbocation/pfx"
)

// Entrez databases and link names.
const (
	DBTaxonomy = "taxonomy"
	DBNuccore  = "nuccore"
	DBProtein  = "protein"

	LinkTaxonomyAssembly = "taxonomy_assembly"
	LinkAssemblyRefSeq   = "assembly_nuccore_refseq"
	LinkNuccoreProtein   = "nuccore_protein"
)

// Remote is the set of E-utilities lookups a run needs. *entrez.Client
// satisfies it.
type Remote interface {
	assembly.SummaryFetcher
	Link(ctx context.Context, fromDB, toDB, linkName string, ids []string) (map[string][]string, error)
	Accessions(ctx context.Context, db string, ids []string) (map[string]string, error)
	FetchSequences(ctx context.Context, db string, ids []string, fn func(entrez.Record) error) error
}

// Pipeline holds what stays fixed across a run.
type Pipeline struct {
	Remote Remote
	Sink   emit.Sink

	// BatchSize caps the number of ids per link, summary and fetch request.
	// Zero sends each stage's ids in a single request.
	BatchSize int

	// CountAllTaxa is passed on to weight.Aggregator.
	CountAllTaxa bool
}

// State is everything a run has learned so far. Run returns it so that
// callers can summarize or inspect the run.
type State struct {
	Abundances *taxa.Abundances

	// Candidates is taxon -> linked assemblies, in server order.
	Candidates map[string][]string
	Selection  *assembly.Selection

	Sequences *graph.SequenceIndex
	Graph     *graph.Graph

	// Accessions is protein -> accession.version.
	Accessions map[string]string

	SequencesWritten int
	WeightsWritten   int

	// WeightTotals is microbiome -> summed weight over every emitted row.
	WeightTotals map[string]float64
}

// Run executes every stage in order. Rows reach the sink as each stage
// completes; on any error the sink is aborted, so a failed run publishes
// nothing.
func (p *Pipeline) Run(ctx context.Context, ab *taxa.Abundances) (st *State, err error) {
	st = &State{Abundances: ab, WeightTotals: make(map[string]float64)}

	defer func() {
		if err != nil {
			if abortErr := p.Sink.Abort(); abortErr != nil {
				log.Println("Discarding partial output:", abortErr)
			}
		}
	}()

	stages := []func(context.Context, *State) error{
		p.selectAssemblies,
		p.linkSequences,
		p.linkProteins,
		p.downloadSequences,
		p.writeWeights,
	}
	for _, stage := range stages {
		if err := stage(ctx, st); err != nil {
			return st, err
		}
		if err := p.Sink.Checkpoint(); err != nil {
			return st, pfx.Err(err)
		}
	}

	if err := p.Sink.Commit(); err != nil {
		return st, pfx.Err(err)
	}

	return st, nil
}

func (p *Pipeline) selectAssemblies(ctx context.Context, st *State) error {
	taxonIDs := st.Abundances.Taxa()
	log.Println("Processing the following taxonomy IDs:", strings.Join(taxonIDs, ", "))
	log.Println("# taxa:", len(taxonIDs))
	log.Println("for each taxon retrieve assembly IDs ...")

	candidates, err := p.link(ctx, DBTaxonomy, assembly.DB, LinkTaxonomyAssembly, taxonIDs)
	if err != nil {
		return pfx.Err(err)
	}
	st.Candidates = candidates

	log.Println("get assembly lengths and select largest assembly for each taxon ...")
	sel, err := assembly.NewSelector(ctx, p.Remote).SelectAll(taxonIDs, candidates)
	if err != nil {
		return pfx.Err(err)
	}
	st.Selection = sel

	for _, taxon := range sel.Taxa() {
		c, _ := sel.Choice(taxon)
		if err := p.Sink.TaxonAssembly(taxon, c.Assembly); err != nil {
			return pfx.Err(err)
		}
	}

	return nil
}

func (p *Pipeline) linkSequences(ctx context.Context, st *State) error {
	assemblies := st.Selection.Assemblies()
	log.Println("# selected assemblies:", len(assemblies))
	log.Println("for each assembly get nucleotide sequence IDs ...")

	links, err := p.link(ctx, assembly.DB, DBNuccore, LinkAssemblyRefSeq, assemblies)
	if err != nil {
		return pfx.Err(err)
	}

	st.Sequences = graph.NewSequenceIndex(assemblies, links)
	log.Println("# nucleotide sequences (unique):", len(st.Sequences.Sequences()))

	return nil
}

func (p *Pipeline) linkProteins(ctx context.Context, st *State) error {
	log.Println("for each nucleotide sequence get proteins ...")

	links, err := p.link(ctx, DBNuccore, DBProtein, LinkNuccoreProtein, st.Sequences.Sequences())
	if err != nil {
		return pfx.Err(err)
	}

	st.Graph = graph.Build(st.Sequences, links)
	log.Println("# proteins (unique):", st.Graph.Len())

	for _, protein := range st.Graph.Proteins() {
		if err := p.Sink.ProteinAssemblies(protein, st.Graph.Assemblies(protein)); err != nil {
			return pfx.Err(err)
		}
	}

	return nil
}

func (p *Pipeline) downloadSequences(ctx context.Context, st *State) error {
	proteins := st.Graph.Proteins()

	log.Println("resolve protein accessions ...")
	accessions, err := p.accessions(ctx, proteins)
	if err != nil {
		return pfx.Err(err)
	}

	byAccession := make(map[string]string, len(proteins))
	for _, protein := range proteins {
		acc, ok := accessions[protein]
		if !ok || acc == "" {
			return pfx.Err(fmt.Errorf("protein %s: no accession was returned", protein))
		}
		if other, dup := byAccession[acc]; dup {
			return pfx.Err(fmt.Errorf("proteins %s and %s both resolve to accession %s", other, protein, acc))
		}
		byAccession[acc] = protein
	}
	st.Accessions = accessions

	log.Println("download protein sequences ...")
	written := make(map[string]struct{}, len(proteins))
	err = p.fetch(ctx, proteins, func(rec entrez.Record) error {
		protein, ok := matchRecord(rec.ID, byAccession, st.Accessions)
		if !ok {
			log.Printf("Skipping sequence %s, which matches no requested protein\n", rec.ID)
			return nil
		}
		if _, dup := written[protein]; dup {
			return nil
		}
		written[protein] = struct{}{}

		return p.Sink.ProteinSequence(protein, rec.Sequence)
	})
	if err != nil {
		return pfx.Err(err)
	}

	st.SequencesWritten = len(written)
	if missing := len(proteins) - len(written); missing > 0 {
		for _, protein := range proteins {
			if _, ok := written[protein]; !ok {
				return pfx.Err(fmt.Errorf("no sequence was downloaded for %d proteins, e.g. %s (%s)", missing, protein, accessions[protein]))
			}
		}
	}

	return nil
}

// matchRecord finds the protein a FASTA record belongs to. Records are
// normally named by accession.version, but older style names such as
// gi|123|ref|WP_000001.1| are also understood.
func matchRecord(id string, byAccession, accessions map[string]string) (string, bool) {
	if protein, ok := byAccession[id]; ok {
		return protein, true
	}

	for _, part := range strings.Split(id, "|") {
		if protein, ok := byAccession[part]; ok {
			return protein, true
		}
		if _, ok := accessions[part]; ok {
			return part, true
		}
	}

	return "", false
}

func (p *Pipeline) writeWeights(ctx context.Context, st *State) error {
	ab := st.Abundances
	agg := weight.New(ab.Taxa(), st.Selection.AssemblyByTaxon(), ab)
	agg.CountAllTaxa = p.CountAllTaxa

	for _, protein := range st.Graph.Proteins() {
		acc := st.Accessions[protein]
		for _, w := range agg.Weights(st.Graph.Assemblies(protein)) {
			if err := p.Sink.ProteinWeight(acc, w.Value, w.Microbiome); err != nil {
				return pfx.Err(err)
			}
			st.WeightsWritten++
			st.WeightTotals[w.Microbiome] += w.Value
		}
	}

	return nil
}
