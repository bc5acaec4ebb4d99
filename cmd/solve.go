package cmd

import (
	"github.com/spf13/cobra"

	"github.com/kilianp07/energyplan/app"
	"github.com/kilianp07/energyplan/config"
	"github.com/kilianp07/energyplan/infra/logger"
)

var (
	useReference bool
	outFormat    string
	outPath      string
)

var solveCmd = &cobra.Command{
	Use:   "solve",
	Short: "Build and solve the planning model and print the plan",
	RunE:  solve,
}

func init() {
	for _, c := range []*cobra.Command{rootCmd, solveCmd} {
		c.Flags().BoolVar(&useReference, "reference", false, "use the built-in two-region data set")
		c.Flags().StringVar(&outFormat, "format", "", "report format: text, json, csv or yaml")
		c.Flags().StringVarP(&outPath, "output", "o", "", "write the report to this file instead of stdout")
	}
	rootCmd.AddCommand(solveCmd)
}

// applyFlags overrides the loaded configuration with command line flags.
func applyFlags(cfg *config.Config) error {
	if useReference {
		ref := config.ReferencePlanning()
		ref.Workers = cfg.Planning.Workers
		if cfg.Planning.Name != "" {
			ref.Name = cfg.Planning.Name
		}
		cfg.Planning = ref
	}
	if outFormat != "" {
		cfg.Report.Format = outFormat
	}
	if outPath != "" {
		cfg.Report.Output = outPath
	}
	cfg.SetDefaults()
	return cfg.Validate()
}

func solve(cmd *cobra.Command, _ []string) error {
	ctx, stop := signalContext()
	defer stop()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := applyFlags(cfg); err != nil {
		return err
	}
	var opts []app.Option
	if cfg.Report.Output == "" {
		opts = append(opts, app.WithOutput(cmd.OutOrStdout()))
	}
	svc, err := app.New(cfg, opts...)
	if err != nil {
		return err
	}
	defer func() {
		if err := svc.Close(); err != nil {
			logger.New("main").Errorf("service close: %v", err)
		}
	}()
	_, err = svc.Run(ctx)
	return err
}
