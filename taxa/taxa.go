// Package taxa reads the per-microbiome taxon tables that drive a run.
package taxa

import (
	"strconv"
	"strings"

	"gopkg.in/guregu/null.v3"
)

// DefaultAbundance is used when a table has no abundance column, or when a
// row leaves it empty.
const DefaultAbundance = 1.0

// Abundance is an optional relative abundance cell.
type Abundance struct {
	value null.Float
}

// UnmarshalCSV satisfies gocsv.TypeUnmarshaller.
func (a *Abundance) UnmarshalCSV(field string) error {
	field = strings.TrimSpace(field)
	if field == "" {
		a.value = null.Float{}
		return nil
	}

	v, err := strconv.ParseFloat(field, 64)
	if err != nil {
		return err
	}
	a.value = null.FloatFrom(v)

	return nil
}

// Value returns the abundance, or DefaultAbundance when the cell was empty.
func (a Abundance) Value() float64 {
	if !a.value.Valid {
		return DefaultAbundance
	}

	return a.value.Float64
}

// Row is one decoded line of a taxon table.
type Row struct {
	TaxID     string    `csv:"taxid"`
	Abundance Abundance `csv:"abundance"`
}

// Abundances holds taxon abundances for every microbiome of a run. Taxa
// and microbiomes keep the order in which they were first seen.
type Abundances struct {
	taxa        []string
	microbiomes []string
	byTaxon     map[string]map[string]float64
}

func NewAbundances() *Abundances {
	return &Abundances{byTaxon: make(map[string]map[string]float64)}
}

// Add records the abundance of taxon in microbiome. A later value for the
// same pair replaces the earlier one; replaced reports whether that
// happened.
func (a *Abundances) Add(microbiome, taxon string, abundance float64) (replaced bool) {
	a.AddMicrobiome(microbiome)

	row, exists := a.byTaxon[taxon]
	if !exists {
		row = make(map[string]float64)
		a.byTaxon[taxon] = row
		a.taxa = append(a.taxa, taxon)
	}

	_, replaced = row[microbiome]
	row[microbiome] = abundance

	return replaced
}

// AddMicrobiome registers a microbiome even if its table turns out to be
// empty.
func (a *Abundances) AddMicrobiome(microbiome string) {
	for _, m := range a.microbiomes {
		if m == microbiome {
			return
		}
	}
	a.microbiomes = append(a.microbiomes, microbiome)
}

// Taxa lists every taxon across all microbiomes, once each.
func (a *Abundances) Taxa() []string { return a.taxa }

// Microbiomes lists microbiomes in input order.
func (a *Abundances) Microbiomes() []string { return a.microbiomes }

// Abundances returns microbiome -> abundance for taxon. The map must not be
// modified.
func (a *Abundances) Abundances(taxon string) map[string]float64 {
	return a.byTaxon[taxon]
}
