package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kilianp07/energyplan/app"
	coremetrics "github.com/kilianp07/energyplan/core/metrics"
	coremqtt "github.com/kilianp07/energyplan/core/mqtt"
	"github.com/kilianp07/energyplan/core/planning"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check the configuration and print the size of the model",
	RunE:  validate,
}

func init() {
	validateCmd.Flags().BoolVar(&useReference, "reference", false, "use the built-in two-region data set")
	rootCmd.AddCommand(validateCmd)
}

func validate(cmd *cobra.Command, _ []string) error {
	ctx, stop := signalContext()
	defer stop()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := applyFlags(cfg); err != nil {
		return err
	}
	// Only the model is needed; keep side outputs disconnected.
	cfg.Store.Backend = ""
	svc, err := app.New(cfg,
		app.WithMetricsSink(coremetrics.NopSink{}),
		app.WithPublisher(coremqtt.NopPublisher{}),
	)
	if err != nil {
		return err
	}
	defer svc.Close()

	m, err := svc.BuildModel(ctx)
	if err != nil {
		return err
	}
	st := m.Stats()
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "model %s is valid\n", m.Name())
	fmt.Fprintf(out, "regions: %d, technologies: %d, scenarios: %d\n",
		len(svc.Data().Regions()), len(svc.Data().Technologies()), len(svc.Data().Scenarios()))
	fmt.Fprintf(out, "variables: %d, constraints: %d (demand %d, capacity %d, cvar %d)\n",
		st.Variables, st.Constraints,
		st.ByKind[planning.Demand], st.ByKind[planning.Capacity], st.ByKind[planning.CVaR])
	return nil
}
