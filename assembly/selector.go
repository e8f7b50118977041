// Package assembly picks one representative genome assembly per taxon: the
// candidate with the largest total sequence length.
package assembly

import (
	"context"
	"fmt"
	"log"

	"github.com/BenLubar/memoize"
	"github.com/carbocation/metaprot/entrez"
	"github.com/carbocation/pfx"
)

// DB is the Entrez database holding assembly records.
const DB = "assembly"

// SummaryFetcher is the part of the Entrez client the selector needs.
type SummaryFetcher interface {
	DocumentSummary(ctx context.Context, db, id string) (*entrez.DocumentSummary, error)
}

// Choice is the assembly selected for one taxon.
type Choice struct {
	Taxon       string
	Assembly    string
	TotalLength int64
}

type measurement struct {
	length int64
	err    error
}

// Selector looks up candidate lengths one at a time. Lengths are memoized
// for the life of the Selector, since related taxa often share candidates.
type Selector struct {
	length func(string) measurement
}

// NewSelector binds ctx to every length lookup the Selector makes.
func NewSelector(ctx context.Context, fetcher SummaryFetcher) *Selector {
	return &Selector{
		length: memoize.Memoize(func(id string) measurement {
			return measure(ctx, fetcher, id)
		}).(func(string) measurement),
	}
}

func measure(ctx context.Context, fetcher SummaryFetcher, id string) measurement {
	doc, err := fetcher.DocumentSummary(ctx, DB, id)
	if err != nil {
		return measurement{err: err}
	}

	n, err := TotalLength(doc.Meta)
	if err != nil {
		return measurement{err: fmt.Errorf("assembly %s: %w", id, err)}
	}

	return measurement{length: n}
}

// Select returns the candidate with the largest total length. Ties go to
// the candidate listed first. ok is false when there are no candidates,
// which is not an error: the taxon is simply dropped.
func (s *Selector) Select(taxon string, candidates []string) (choice Choice, ok bool, err error) {
	if len(candidates) == 0 {
		return Choice{}, false, nil
	}

	for i, id := range candidates {
		m := s.length(id)
		if m.err != nil {
			return Choice{}, false, pfx.Err(m.err)
		}

		if i == 0 || m.length > choice.TotalLength {
			choice = Choice{Taxon: taxon, Assembly: id, TotalLength: m.length}
		}
	}

	return choice, true, nil
}

// Selection maps taxa to their chosen assembly, remembering taxon order.
type Selection struct {
	taxa    []string
	byTaxon map[string]Choice
}

func NewSelection() *Selection {
	return &Selection{byTaxon: make(map[string]Choice)}
}

// Add records c, replacing any earlier choice for the same taxon.
func (s *Selection) Add(c Choice) {
	if _, exists := s.byTaxon[c.Taxon]; !exists {
		s.taxa = append(s.taxa, c.Taxon)
	}
	s.byTaxon[c.Taxon] = c
}

// Taxa lists the taxa that have a selected assembly, in the order added.
func (s *Selection) Taxa() []string { return s.taxa }

func (s *Selection) Choice(taxon string) (Choice, bool) {
	c, ok := s.byTaxon[taxon]
	return c, ok
}

// Assemblies lists the selected assemblies in taxon order, once each.
func (s *Selection) Assemblies() []string {
	seen := make(map[string]struct{}, len(s.taxa))
	out := make([]string, 0, len(s.taxa))
	for _, taxon := range s.taxa {
		a := s.byTaxon[taxon].Assembly
		if _, dup := seen[a]; dup {
			continue
		}
		seen[a] = struct{}{}
		out = append(out, a)
	}

	return out
}

// AssemblyByTaxon is the taxon -> assembly map used for weighting.
func (s *Selection) AssemblyByTaxon() map[string]string {
	out := make(map[string]string, len(s.byTaxon))
	for taxon, c := range s.byTaxon {
		out[taxon] = c.Assembly
	}

	return out
}

// SelectAll runs Select for every taxon, in order, looking candidates up by
// taxon id.
func (s *Selector) SelectAll(taxa []string, candidates map[string][]string) (*Selection, error) {
	sel := NewSelection()
	dropped := 0

	for _, taxon := range taxa {
		c, ok, err := s.Select(taxon, candidates[taxon])
		if err != nil {
			return nil, err
		}
		if !ok {
			dropped++
			continue
		}

		sel.Add(c)
	}

	if dropped > 0 {
		log.Println(dropped, "taxa had no linked assembly and were skipped")
	}

	return sel, nil
}
