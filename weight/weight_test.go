package weight

import (
	"math"
	"testing"
)

type fakeSource struct {
	microbiomes []string
	abundances  map[string]map[string]float64
}

func (f fakeSource) Abundances(taxon string) map[string]float64 { return f.abundances[taxon] }
func (f fakeSource) Microbiomes() []string                      { return f.microbiomes }

func weightsByMicrobiome(ws []Weight) map[string]float64 {
	out := make(map[string]float64)
	for _, w := range ws {
		out[w.Microbiome] = w.Value
	}
	return out
}

func TestWeightsSumOverAssemblies(t *testing.T) {
	src := fakeSource{
		microbiomes: []string{"gutA", "gutB", "soil"},
		abundances: map[string]map[string]float64{
			"t1": {"gutA": 2.5, "gutB": 1},
			"t2": {"gutB": 0.5},
			"t3": {"soil": 7},
		},
	}
	a := New([]string{"t1", "t2", "t3"}, map[string]string{"t1": "A1", "t2": "A2", "t3": "A3"}, src)

	ws := a.Weights([]string{"A2", "A1"})
	if len(ws) != 2 || ws[0].Microbiome != "gutA" || ws[1].Microbiome != "gutB" {
		t.Fatalf("Expected gutA then gutB, got %+v", ws)
	}
	got := weightsByMicrobiome(ws)
	if got["gutA"] != 2.5 || got["gutB"] != 1.5 {
		t.Errorf("Unexpected weights %v", got)
	}

	// Total across microbiomes equals the summed abundances of linked taxa.
	var total float64
	for _, w := range ws {
		total += w.Value
	}
	if math.Abs(total-4) > 1e-12 {
		t.Errorf("Expected total 4, got %v", total)
	}
}

func TestWeightsCountAssemblyOnce(t *testing.T) {
	src := fakeSource{
		microbiomes: []string{"m"},
		abundances:  map[string]map[string]float64{"t1": {"m": 3}},
	}
	a := New([]string{"t1"}, map[string]string{"t1": "A1"}, src)

	got := weightsByMicrobiome(a.Weights([]string{"A1", "A1"}))
	if got["m"] != 3 {
		t.Errorf("Repeated assembly must count once, got %v", got["m"])
	}
}

func TestWeightsUnselectedTaxaContributeNothing(t *testing.T) {
	src := fakeSource{
		microbiomes: []string{"m"},
		abundances:  map[string]map[string]float64{"t1": {"m": 3}, "dropped": {"m": 100}},
	}
	a := New([]string{"t1", "dropped"}, map[string]string{"t1": "A1"}, src)

	if ws := a.Weights([]string{"A1"}); len(ws) != 1 || ws[0].Value != 3 {
		t.Errorf("Unexpected weights %+v", ws)
	}
	if ws := a.Weights([]string{"A9"}); len(ws) != 0 {
		t.Errorf("Unknown assembly should give no weights, got %+v", ws)
	}
}

// Known deviation: when two taxa select the same assembly, only the first
// taxon contributes by default.
func TestWeightsSharedAssemblyFirstTaxonOnly(t *testing.T) {
	src := fakeSource{
		microbiomes: []string{"gutA", "gutB"},
		abundances: map[string]map[string]float64{
			"strain1": {"gutA": 1},
			"strain2": {"gutA": 2, "gutB": 4},
		},
	}
	selected := map[string]string{"strain1": "A1", "strain2": "A1"}

	a := New([]string{"strain1", "strain2"}, selected, src)
	got := weightsByMicrobiome(a.Weights([]string{"A1"}))
	if got["gutA"] != 1 {
		t.Errorf("Expected only strain1 to contribute (1), got %v", got["gutA"])
	}
	if _, ok := got["gutB"]; ok {
		t.Errorf("gutB is only reachable through strain2 and must be absent, got %v", got)
	}

	a.CountAllTaxa = true
	got = weightsByMicrobiome(a.Weights([]string{"A1"}))
	if got["gutA"] != 3 || got["gutB"] != 4 {
		t.Errorf("With CountAllTaxa both strains contribute, got %v", got)
	}
}
