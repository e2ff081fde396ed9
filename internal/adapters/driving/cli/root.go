package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/wperlichek/comparative-genomics-pipeline/internal/adapters/driven/config/file"
	"github.com/wperlichek/comparative-genomics-pipeline/internal/adapters/driven/report/csv"
	"github.com/wperlichek/comparative-genomics-pipeline/internal/adapters/driven/storage/memory"
	"github.com/wperlichek/comparative-genomics-pipeline/internal/adapters/driven/storage/sqlite"
	"github.com/wperlichek/comparative-genomics-pipeline/internal/connectors/clinvar"
	"github.com/wperlichek/comparative-genomics-pipeline/internal/connectors/ebi"
	"github.com/wperlichek/comparative-genomics-pipeline/internal/connectors/ncbi"
	"github.com/wperlichek/comparative-genomics-pipeline/internal/connectors/pdb"
	"github.com/wperlichek/comparative-genomics-pipeline/internal/connectors/uniprot"
	"github.com/wperlichek/comparative-genomics-pipeline/internal/core/domain"
	"github.com/wperlichek/comparative-genomics-pipeline/internal/core/ports/driven"
	"github.com/wperlichek/comparative-genomics-pipeline/internal/core/ports/driving"
	"github.com/wperlichek/comparative-genomics-pipeline/internal/core/services"
	"github.com/wperlichek/comparative-genomics-pipeline/internal/logger"
	clinvarnorm "github.com/wperlichek/comparative-genomics-pipeline/internal/normalisers/clinvar"
	"github.com/wperlichek/comparative-genomics-pipeline/internal/normalisers/fasta"
	uniprotnorm "github.com/wperlichek/comparative-genomics-pipeline/internal/normalisers/uniprot"
)

// version is overridden at build time via -ldflags.
var version = "dev"

var rootCmd = &cobra.Command{
	Use:   "cgp",
	Short: "Cross-species protein conservation and clinical variant mapping",
	Long: `cgp scores how strongly each position of a protein is conserved
across a species panel and maps human clinical variants onto those
scores.

For every configured gene it fetches reference sequences and clinical
variant records, aligns the panel through the EBI Clustal Omega
service, computes per-column Shannon entropy and writes per-gene
CSV/TSV reports. Remote payloads are cached locally, so repeat runs
only hit the network for artifacts they have not seen.`,
	SilenceUsage:      true,
	PersistentPreRunE: initApp,
}

// Persistent flags.
var (
	flagVerbose   bool
	flagConfigDir string
	flagDataDir   string
	flagOutput    string
	flagGenes     string
	flagNoCache   bool
)

// Wired services. initApp builds the production graph before a command
// runs; tests install fakes instead and the build is skipped.
var (
	pipeline   driving.PipelineOrchestrator
	artifacts  driven.ArtifactStore
	runHistory driven.RunStore
	geneSet    domain.GeneSet
	genesFile  string
	outputDir  string

	store *sqlite.Store

	// buildPipeline rebuilds the orchestrator over a new gene set while
	// reusing the wired stores and clients. Watch mode uses it when the
	// gene set file changes. Nil until wire runs.
	buildPipeline func(domain.GeneSet) driving.PipelineOrchestrator
)

func init() {
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false,
		"verbose progress logging to stderr")
	rootCmd.PersistentFlags().StringVar(&flagConfigDir, "config-dir", "",
		"configuration directory (default ~/.cgp)")
	rootCmd.PersistentFlags().StringVar(&flagDataDir, "data-dir", "",
		"artifact cache directory (default ~/.cgp/data)")
	rootCmd.PersistentFlags().StringVar(&flagOutput, "output", "",
		"report output directory (default ./output)")
	rootCmd.PersistentFlags().StringVar(&flagGenes, "genes", "",
		"gene set file (default <config-dir>/genes.yaml)")
	rootCmd.PersistentFlags().BoolVar(&flagNoCache, "no-cache", false,
		"bypass the artifact cache")
}

// Execute dispatches the CLI and tears the wiring down afterwards.
func Execute() error {
	defer teardown()
	return rootCmd.Execute()
}

// initApp configures logging and builds the service graph for commands
// that need one.
func initApp(cmd *cobra.Command, _ []string) error {
	logger.SetVerbose(flagVerbose)

	if pipeline != nil {
		return nil
	}
	if !needsServices(cmd) {
		return nil
	}
	return wire()
}

// needsServices reports whether the command reaches remote providers or
// local stores. Informational commands stay runnable on a machine with
// no configuration at all.
func needsServices(cmd *cobra.Command) bool {
	switch cmd.Name() {
	case "version", "help", cobra.ShellCompRequestCmd, cobra.ShellCompNoDescRequestCmd:
		return false
	}
	for c := cmd; c != nil; c = c.Parent() {
		if c.Name() == "completion" {
			return false
		}
	}
	return true
}

// wire builds the production service graph from flags and config.
// The gene set is validated before anything touches the filesystem, so
// a bad panel fails fast without creating directories.
func wire() error {
	genesFile = resolveGenesFile()

	var err error
	geneSet, err = file.LoadGeneSet(genesFile)
	if err != nil {
		return err
	}

	cfg, err := file.NewConfigStore(flagConfigDir)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	dataDir := flagDataDir
	if dataDir == "" {
		dataDir = cfg.GetString("cache.dir")
	}
	store, err = sqlite.NewStore(dataDir)
	if err != nil {
		return fmt.Errorf("opening artifact store: %w", err)
	}
	artifacts = store.ArtifactStore()
	runHistory = store.RunStore()

	noCache := flagNoCache
	if v, ok := cfg.Get("cache.enabled"); ok {
		if enabled, isBool := v.(bool); isBool && !enabled {
			noCache = true
		}
	}

	// A disabled cache still records run history; only artifact reads
	// and writes are bypassed.
	pipelineArtifacts := artifacts
	if noCache {
		pipelineArtifacts = memory.NewArtifactStore()
	}

	dir := flagOutput
	if dir == "" {
		dir = cfg.GetString("output.dir")
	}
	writer := csv.New(dir)
	outputDir = writer.Dir()

	uni := uniprot.NewClient()
	entrez := ncbi.NewClient(cfg.GetString("ncbi.api_key"))
	variants := clinvar.NewClient(cfg.GetString("ncbi.api_key"))
	aligner := ebi.NewClient(cfg.GetString("ebi.email"))
	if poll := cfg.GetInt("ebi.poll_seconds"); poll > 0 {
		aligner.SetPollInterval(time.Duration(poll) * time.Second)
	}
	structures := pdb.NewClient()

	opts := services.Options{
		CacheDisabled:   noCache,
		GeneConcurrency: cfg.GetInt("pipeline.gene_concurrency"),
		FetchTimeout:    time.Duration(cfg.GetInt("http.timeout_seconds")) * time.Second,
	}

	buildPipeline = func(gs domain.GeneSet) driving.PipelineOrchestrator {
		return services.NewPipelineService(
			gs,
			[]driven.SequenceSource{uni, entrez},
			[]driven.VariantProvider{variants, uni},
			aligner,
			fasta.New(),
			[]driven.VariantNormaliser{clinvarnorm.New(), uniprotnorm.New()},
			pipelineArtifacts,
			runHistory,
			structures,
			writer,
			opts,
		)
	}
	pipeline = buildPipeline(geneSet)
	return nil
}

// resolveGenesFile returns the gene set path: the --genes flag when
// set, otherwise genes.yaml in the config directory.
func resolveGenesFile() string {
	if flagGenes != "" {
		return flagGenes
	}
	dir := flagConfigDir
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			home = "."
		}
		dir = filepath.Join(home, ".cgp")
	}
	return filepath.Join(dir, "genes.yaml")
}

// teardown closes the artifact store when the invocation opened one.
func teardown() {
	if store != nil {
		_ = store.Close() //nolint:errcheck // Best-effort close on exit
		store = nil
	}
}
