package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/limaJavier/dropadd/internal/config"
	"github.com/limaJavier/dropadd/internal/logger"
	"github.com/limaJavier/dropadd/internal/metrics"
	"github.com/limaJavier/dropadd/pkg/bound"
	"github.com/limaJavier/dropadd/pkg/model"
	"github.com/limaJavier/dropadd/pkg/reassign"
	"github.com/limaJavier/dropadd/pkg/report"
)

const exitVerificationFailed = 15

var errVerificationFailed = errors.New("the reassignment violates a hard constraint")

var (
	cfgPath     string
	filePath    string
	outPath     string
	changesPath string
	metricsPath string
	seed        int64
	depth       int
)

var rootCmd = &cobra.Command{
	Use:          "dropadd",
	Short:        "Reassigns students between course sections to satisfy drop-add requests",
	SilenceUsage: true,
	RunE:         run,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "configuration file (yaml or json); defaults and DROPADD_ environment variables are used when empty")
	rootCmd.PersistentFlags().StringVarP(&filePath, "file", "f", "", "path to the input file")
	rootCmd.PersistentFlags().Int64Var(&seed, "seed", 0, "seed of the sweep order")
	rootCmd.PersistentFlags().IntVar(&depth, "depth", reassign.DefaultMaxDepth, "maximum number of edges in an augmenting path")
	rootCmd.Flags().StringVarP(&outPath, "out", "o", "", "path to the file where the report will be written; if empty, it'll be written into the Standard Output")
	rootCmd.Flags().StringVar(&changesPath, "changes", "", "path to a CSV file listing every student whose sections changed")
	rootCmd.Flags().StringVar(&metricsPath, "metrics", "", "path to a Prometheus textfile with the run metrics")
	_ = rootCmd.MarkPersistentFlagRequired("file")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		if errors.Is(err, errVerificationFailed) {
			os.Exit(exitVerificationFailed)
		}
		os.Exit(1)
	}
}

// loadConfig reads the configuration and lets explicitly set flags take precedence over it
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	flags := cmd.Flags()
	if flags.Changed("seed") {
		cfg.Engine.Seed = seed
	}
	if flags.Changed("depth") {
		cfg.Engine.MaxDepth = depth
	}
	if flags.Changed("out") {
		cfg.Output.Report = outPath
	}
	if flags.Changed("changes") {
		cfg.Output.Changes = changesPath
	}
	if flags.Changed("metrics") {
		cfg.Output.Metrics = metricsPath
	}
	if err := cfg.Engine.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// reassignVerified runs the engine and checks the result against the hard constraints
func reassignVerified(cfg *config.Config, log logger.Logger, observer reassign.Observer) (model.ModelInput, reassign.Result, error) {
	input, err := model.InputFromJson(filePath)
	if err != nil {
		return model.ModelInput{}, reassign.Result{}, fmt.Errorf("cannot parse input file: %w", err)
	}
	log.Infof("loaded %d sections, %d students and %d discarded requests", len(input.Sections), len(input.Students), len(input.Discarded))
	for _, student := range input.Blacklisted {
		log.Warnf("student %q holds conflicting sections, their requests were discarded", input.Students[student].Name)
	}

	reassigner := reassign.NewAugmentingReassigner(cfg.Engine.Options(log, observer))
	result, err := reassigner.Reassign(input)
	if err != nil {
		return model.ModelInput{}, reassign.Result{}, fmt.Errorf("an error occurred during reassignment: %w", err)
	}

	if !reassigner.Verify(result, input) {
		log.Errorf("verification failed after %d transitions", result.Transitions)
		return model.ModelInput{}, reassign.Result{}, errVerificationFailed
	}
	return input, result, nil
}

func run(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	log := logger.NewZerologLogger("dropadd", cfg.Logging.LoggerOptions())

	observer, err := metrics.NewPromObserver()
	if err != nil {
		return fmt.Errorf("register metrics: %w", err)
	}

	input, result, err := reassignVerified(cfg, log, observer)
	if err != nil {
		return err
	}

	upperBound, err := bound.UpperBound(input)
	if err != nil {
		return fmt.Errorf("cannot compute the upper bound: %w", err)
	}

	rep := report.Build(input, result, upperBound)
	observer.SetSatisfaction(rep.SatisfactionRate)
	log.Infof("run %v satisfied %d of %d students (upper bound %d requests) with %d transitions",
		rep.RunId, rep.StudentsSatisfied, rep.StudentsWithRequests, rep.UpperBound, rep.Transitions)

	if err := report.WriteJson(rep, cfg.Output.Report); err != nil {
		return err
	}
	if cfg.Output.Changes != "" {
		if err := report.WriteChangesCsv(rep, cfg.Output.Changes); err != nil {
			return err
		}
	}
	if cfg.Output.Metrics != "" {
		if err := observer.WriteTextfile(cfg.Output.Metrics); err != nil {
			return fmt.Errorf("write metrics: %w", err)
		}
	}
	return nil
}
