package commands

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/memtree/internal/observability"
	"github.com/Sumatoshi-tech/memtree/internal/scenario"
)

// ScriptCommand runs a scenario file against a fresh tree.
type ScriptCommand struct {
	global *GlobalOptions

	dump  bool
	steps bool
}

// NewScriptCommand creates the script command.
func NewScriptCommand(global *GlobalOptions) *cobra.Command {
	sc := &ScriptCommand{global: global}

	cmd := &cobra.Command{
		Use:   "script <file.yaml>",
		Short: "Run a scenario file",
		Long: `Run the steps of a YAML scenario in order against a fresh tree.

The tree is verified after every step unless tree.verify_each_step is false.
The command fails on the first unmet expectation or invariant violation.`,
		Args: cobra.ExactArgs(1),
		RunE: sc.run,
	}

	cmd.Flags().BoolVar(&sc.dump, "dump", false, "Print the final tree as a table")
	cmd.Flags().BoolVar(&sc.steps, "steps", false, "Print every executed step")

	return cmd
}

func (sc *ScriptCommand) run(cmd *cobra.Command, args []string) error {
	sess, err := sc.global.openSession(cmd, observability.ModeScript)
	if err != nil {
		return err
	}
	defer sess.close()

	scen, err := scenario.LoadFile(args[0])
	if err != nil {
		return err
	}

	tm, err := observability.NewTreeMetrics(sess.providers.Meter)
	if err != nil {
		return fmt.Errorf("tree metrics: %w", err)
	}

	runner := scenario.NewRunner(
		scenario.WithLogger(sess.logger()),
		scenario.WithTracer(sess.providers.Tracer),
		scenario.WithMetrics(tm),
		scenario.WithVerifyEachStep(sess.cfg.Tree.VerifyEachStep),
		scenario.WithTreeOptions(sess.cfg.TreeOptions(nil)...),
	)

	res, runErr := runner.Run(cmd.Context(), scen)

	out := cmd.OutOrStdout()

	if sc.steps {
		scenario.WriteStepTable(out, res)
	}

	if sc.dump {
		scenario.WriteTreeTable(out, res.Tree)
	}

	name := scen.Name
	if name == "" {
		name = args[0]
	}

	if runErr != nil {
		color.New(color.FgRed, color.Bold).Fprintf(out, "FAIL %s\n", name)

		return runErr
	}

	color.New(color.FgGreen, color.Bold).Fprintf(out, "PASS %s (%d steps)\n", name, len(res.Steps))

	return nil
}
