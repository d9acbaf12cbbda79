package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/clout-engine/internal/config"
	"github.com/pdiddy/clout-engine/internal/draft"
	"github.com/pdiddy/clout-engine/internal/logging"
	"github.com/pdiddy/clout-engine/internal/model"
	"github.com/pdiddy/clout-engine/internal/pipeline"
	"github.com/pdiddy/clout-engine/internal/record"
	"github.com/pdiddy/clout-engine/internal/research"
	"github.com/pdiddy/clout-engine/internal/scrape"
	"github.com/pdiddy/clout-engine/internal/serp"
)

var runCmd = &cobra.Command{
	Use:   "run [seed-urls...]",
	Short: "Run the research and drafting pipeline",
	Long: `Run processes each seed URL in order: scrape, search, competitor scrape,
entity extraction, then three streamed draft variants. Seed URLs come from
arguments, the config file, or a seeds file; argument seeds run first.`,
	RunE: runPipeline,
}

func init() {
	runCmd.Flags().String("model", "", "path to the GGUF model file")
	runCmd.Flags().String("endpoint", "", "base URL of a running llama-server (skips launching one)")
	runCmd.Flags().String("output", "", "output file (workbook or database)")
	runCmd.Flags().String("output-kind", "", "output backend: xlsx or sqlite")
	runCmd.Flags().String("seeds-file", "", "YAML file listing seed URLs")

	rootCmd.AddCommand(runCmd)
}

func runPipeline(cmd *cobra.Command, args []string) error {
	bindRunFlags(cmd)

	cfg, err := config.Load(viper.GetViper(), loadedSecrets)
	if err != nil {
		return err
	}
	cfg.Seeds = append(args, cfg.Seeds...)
	if err := config.Validate(cfg); err != nil {
		return err
	}

	verbose, _ := rootCmd.PersistentFlags().GetBool("verbose")
	log, err := logging.New(verbose)
	if err != nil {
		return fmt.Errorf("building logger: %w", err)
	}
	defer log.Sync()

	recorder, err := record.New(cfg.Output)
	if err != nil {
		return fmt.Errorf("opening output %s: %w", cfg.Output.Path, err)
	}
	defer recorder.Close()

	runtime := model.NewRuntime(cfg.Model)
	if err := runtime.Start(cmd.Context()); err != nil {
		return fmt.Errorf("starting model server: %w", err)
	}
	defer runtime.Stop()

	builder := research.NewBuilder(
		scrape.NewPageFetcher(cfg.Scrape),
		serp.NewClient(cfg.Search),
		recorder,
		cfg.Scrape,
		cfg.Search,
		log,
	)
	generator := draft.NewGenerator(
		model.NewClient(runtime.Endpoint(), cfg.Model.MaxTokens, cfg.Model.Temperature),
		cfg.Model,
	)

	orchestrator := pipeline.New(pipeline.Deps{
		Builder:   builder,
		Generator: generator,
		Recorder:  recorder,
		Log:       log,
		Out:       os.Stdout,
	})

	result := orchestrator.Run(cmd.Context(), cfg.Seeds)

	fmt.Fprintln(os.Stdout)
	result.WriteSummary(os.Stdout)
	if result.HasFailures() {
		return fmt.Errorf("pipeline finished with failures")
	}
	return nil
}

// bindRunFlags maps set flags onto their viper keys so flags win over the
// config file.
func bindRunFlags(cmd *cobra.Command) {
	bind := map[string]string{
		"model":       "model.path",
		"endpoint":    "model.endpoint",
		"output":      "output.path",
		"output-kind": "output.kind",
		"seeds-file":  "seeds_file",
	}
	for flag, key := range bind {
		if cmd.Flags().Changed(flag) {
			value, _ := cmd.Flags().GetString(flag)
			viper.Set(key, value)
		}
	}
}
