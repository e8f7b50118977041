package pipeline

import (
	"context"

	"github.com/carbocation/metaprot/entrez"
)

// chunks splits ids into groups of at most size. A size of zero or less
// yields a single group.
func chunks(ids []string, size int) [][]string {
	if len(ids) == 0 {
		return nil
	}
	if size <= 0 || size >= len(ids) {
		return [][]string{ids}
	}

	out := make([][]string, 0, (len(ids)+size-1)/size)
	for start := 0; start < len(ids); start += size {
		end := start + size
		if end > len(ids) {
			end = len(ids)
		}
		out = append(out, ids[start:end])
	}

	return out
}

func (p *Pipeline) link(ctx context.Context, fromDB, toDB, linkName string, ids []string) (map[string][]string, error) {
	out := make(map[string][]string)
	for _, batch := range chunks(ids, p.BatchSize) {
		links, err := p.Remote.Link(ctx, fromDB, toDB, linkName, batch)
		if err != nil {
			return nil, err
		}
		for id, linked := range links {
			out[id] = append(out[id], linked...)
		}
	}

	return out, nil
}

func (p *Pipeline) accessions(ctx context.Context, proteins []string) (map[string]string, error) {
	out := make(map[string]string, len(proteins))
	for _, batch := range chunks(proteins, p.BatchSize) {
		accs, err := p.Remote.Accessions(ctx, DBProtein, batch)
		if err != nil {
			return nil, err
		}
		for id, acc := range accs {
			out[id] = acc
		}
	}

	return out, nil
}

func (p *Pipeline) fetch(ctx context.Context, proteins []string, fn func(entrez.Record) error) error {
	for _, batch := range chunks(proteins, p.BatchSize) {
		if err := p.Remote.FetchSequences(ctx, DBProtein, batch, fn); err != nil {
			return err
		}
	}

	return nil
}
