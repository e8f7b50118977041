package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/carbocation/metaprot"
	"github.com/carbocation/metaprot/compileinfo"
	_ "github.com/carbocation/metaprot/compileinfoprint"
	"github.com/carbocation/metaprot/config"
	"github.com/carbocation/metaprot/emit"
	"github.com/carbocation/metaprot/pipeline"
	"github.com/carbocation/metaprot/taxa"
	"github.com/davecgh/go-spew/spew"
)

// Safe for concurrent use by multiple goroutines
var client *storage.Client

type flagSlice []string

func (i *flagSlice) String() string {
	return strings.Join(*i, ",")
}

func (i *flagSlice) Set(value string) error {
	*i = append(*i, value)
	return nil
}

func main() {
	fmt.Fprintf(os.Stderr, "%q\n", os.Args)

	var (
		taxidInputs  flagSlice
		microbiomes  flagSlice
		email        string
		apiKey       string
		configPath   string
		outputs      emit.Paths
		sqlitePath   string
		bqTable      string
		batchSize    int
		countAllTaxa bool
		debug        bool
	)

	flag.Var(&taxidInputs, "taxid_input", "Tab-delimited file with a 'taxid' header column and, optionally, an abundance column. Pass once per microbiome (e.g., -taxid_input gutA.tsv -taxid_input gutB.tsv). May be local or gs://, optionally compressed.")
	flag.Var(&microbiomes, "microbiome_id", "Microbiome ID for the -taxid_input at the same position. Pass once per -taxid_input.")
	flag.StringVar(&email, "email", "", "Email address to use for NCBI access. Overrides the config file.")
	flag.StringVar(&apiKey, "key", "", "NCBI API key. Overrides the config file.")
	flag.StringVar(&configPath, "config", "", "(Optional) JSON config file with email, api_key, retry and batch settings.")
	flag.StringVar(&outputs.ProteinSequences, "proteins", "", "Output: gzipped TSV of protein_tmp_id, protein_sequence.")
	flag.StringVar(&outputs.TaxonAssembly, "tax_ass_out", "", "Output: TSV of taxon, assembly.")
	flag.StringVar(&outputs.ProteinAssemblies, "prot_ass_out", "", "Output: TSV of protein_tmp_id, assemblies.")
	flag.StringVar(&outputs.ProteinWeights, "proteins_microbiomes", "", "Output: TSV of protein accession, protein_weight, microbiome_id.")
	flag.StringVar(&sqlitePath, "sqlite", "", "(Optional) Also write all four tables into this SQLite database.")
	flag.StringVar(&bqTable, "bq_table", "", "(Optional) Also insert the protein weights into this BigQuery table, formatted as project.dataset.table.")
	flag.IntVar(&batchSize, "batch", -1, "(Optional) Maximum number of IDs per E-utilities request. 0 sends each stage in one request. Defaults to the config file, else 0.")
	flag.BoolVar(&countAllTaxa, "all_taxa", false, "When several taxa select the same assembly, let every one of them contribute to protein weights rather than only the first.")
	flag.BoolVar(&debug, "debug", false, "Dump the parsed abundance table to stderr.")
	flag.Parse()

	if len(taxidInputs) < 1 || len(microbiomes) < 1 ||
		outputs.ProteinSequences == "" || outputs.TaxonAssembly == "" ||
		outputs.ProteinAssemblies == "" || outputs.ProteinWeights == "" {
		flag.Usage()
		os.Exit(1)
	}

	cfg := config.JSONConfig{}
	if configPath != "" {
		var err error
		cfg, err = config.ParseJSONConfigFromPath(configPath)
		if err != nil {
			log.Fatalln(err)
		}
	}
	if email != "" {
		cfg.Email = email
	}
	if apiKey != "" {
		cfg.APIKey = apiKey
	}
	if batchSize >= 0 {
		cfg.BatchSize = batchSize
	}
	if cfg.Tool == "" {
		cfg.Tool = compileinfo.Get().Tool()
	}
	if cfg.Email == "" || cfg.APIKey == "" {
		log.Println("Warning: no NCBI email and/or API key was provided; NCBI may reject or throttle requests")
	}

	ctx := context.Background()

	// Initialize the Google Storage client only if we're pointing to Google
	// Storage paths.
	for _, path := range append([]string{outputs.ProteinSequences, outputs.TaxonAssembly, outputs.ProteinAssemblies, outputs.ProteinWeights}, taxidInputs...) {
		if metaprot.IsGoogleStoragePath(path) {
			var err error
			client, err = storage.NewClient(ctx)
			if err != nil {
				log.Fatalln(err)
			}
			defer client.Close()

			break
		}
	}

	if err := run(ctx, cfg, taxidInputs, microbiomes, outputs, sqlitePath, bqTable, countAllTaxa, debug); err != nil {
		log.Fatalln(err)
	}

	log.Println("Done!")
}

func run(ctx context.Context, cfg config.JSONConfig, taxidInputs, microbiomes []string, outputs emit.Paths, sqlitePath, bqTable string, countAllTaxa, debug bool) error {
	// Input problems are reported before any remote call is made.
	ab, err := taxa.Read(ctx, taxidInputs, microbiomes, client)
	if err != nil {
		return err
	}
	if debug {
		spew.Fdump(os.Stderr, ab.Taxa(), ab.Microbiomes())
		for _, taxon := range ab.Taxa() {
			spew.Fdump(os.Stderr, taxon, ab.Abundances(taxon))
		}
	}

	sink, err := openSinks(ctx, outputs, sqlitePath, bqTable)
	if err != nil {
		return err
	}

	p := &pipeline.Pipeline{
		Remote:       cfg.Client(),
		Sink:         sink,
		BatchSize:    cfg.BatchSize,
		CountAllTaxa: countAllTaxa,
	}

	st, err := p.Run(ctx, ab)
	if err != nil {
		return err
	}

	summary, err := st.Summary()
	if err != nil {
		return err
	}
	summary.Log()

	return nil
}

func openSinks(ctx context.Context, outputs emit.Paths, sqlitePath, bqTable string) (emit.Sink, error) {
	tsv, err := emit.NewTSV(ctx, outputs, client)
	if err != nil {
		return nil, err
	}
	sinks := emit.Multi{tsv}

	if sqlitePath != "" {
		db, err := emit.NewSQLite(sqlitePath)
		if err != nil {
			sinks.Abort()
			return nil, err
		}
		sinks = append(sinks, db)
	}

	if bqTable != "" {
		bq, err := emit.NewBigQuery(ctx, bqTable)
		if err != nil {
			sinks.Abort()
			return nil, err
		}
		sinks = append(sinks, bq)
	}

	if len(sinks) == 1 {
		return tsv, nil
	}

	return sinks, nil
}
