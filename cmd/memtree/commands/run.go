package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/memtree/internal/config"
)

// RunCommand prints the memory parameters the allocator is configured with.
type RunCommand struct {
	global *GlobalOptions

	pageSize   int
	memorySize string
}

// NewRunCommand creates the run command.
func NewRunCommand(global *GlobalOptions) *cobra.Command {
	rc := &RunCommand{global: global}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Print the memory parameters",
		Long: `Print the page size and real memory size the allocator would manage.

Sizes accept plain byte counts or humanized values such as 4KiB or 1MB.`,
		Args: cobra.NoArgs,
		RunE: rc.run,
	}

	cmd.Flags().IntVarP(&rc.pageSize, "page-size", "p", config.DefaultPageSize, "Page size in bytes")
	cmd.Flags().StringVarP(&rc.memorySize, "memory-size", "m", config.DefaultMemorySize, "Real memory size (e.g., 100, 4KiB)")

	return cmd
}

func (rc *RunCommand) run(cmd *cobra.Command, _ []string) error {
	cfg, err := rc.global.loadConfig()
	if err != nil {
		return err
	}

	if cmd.Flags().Changed("page-size") {
		cfg.Memory.PageSize = rc.pageSize
	}

	if cmd.Flags().Changed("memory-size") {
		cfg.Memory.Size = rc.memorySize
	}

	validateErr := cfg.Validate()
	if validateErr != nil {
		return fmt.Errorf("validate flags: %w", validateErr)
	}

	size, err := cfg.MemorySize()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Page size: %d\n", cfg.Memory.PageSize)
	fmt.Fprintf(out, "Real mem size: %d\n", size)

	return nil
}
