package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/born-ml/neuralart/internal/envconfig"
	"github.com/born-ml/neuralart/internal/parallel"
)

const version = "v0.1.0-dev"

// appendEnvDocs adds the environment variables a command honours to its
// usage text.
func appendEnvDocs(cmd *cobra.Command, envs []envconfig.EnvVar) {
	if len(envs) == 0 {
		return
	}

	envUsage := `
Environment Variables:
`
	for _, e := range envs {
		envUsage += fmt.Sprintf("      %-24s   %s\n", e.Name, e.Description)
	}

	cmd.SetUsageTemplate(cmd.UsageTemplate() + envUsage)
}

// NewCLI builds the root command with all subcommands.
func NewCLI() *cobra.Command {
	cobra.EnableCommandSorting = false

	rootCmd := &cobra.Command{
		Use:           "neuralart",
		Short:         "Neural style transfer on the CPU",
		SilenceUsage:  true,
		SilenceErrors: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		PersistentPreRunE: setup,
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Print(cmd.UsageString())
		},
	}

	rootCmd.PersistentFlags().Bool("verbose", false, "Log every iteration")
	rootCmd.PersistentFlags().Int("threads", int(envconfig.Threads()), "Number of parallel workers")

	runCmd := newRunCmd()
	inspectCmd := newInspectWeightsCmd()
	versionCmd := newVersionCmd()

	envVars := envconfig.AsMap()
	appendEnvDocs(runCmd, []envconfig.EnvVar{
		envVars["NEURALART_WEIGHTS"],
		envVars["NEURALART_ITERATIONS"],
		envVars["NEURALART_THREADS"],
		envVars["NEURALART_DEBUG"],
	})
	appendEnvDocs(inspectCmd, []envconfig.EnvVar{envVars["NEURALART_DEBUG"]})

	rootCmd.AddCommand(runCmd, inspectCmd, versionCmd)
	return rootCmd
}

// setup installs the process-wide logger and worker count.
func setup(cmd *cobra.Command, _ []string) error {
	level := envconfig.LogLevel()
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		level = min(level, slog.LevelDebug)
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level})))

	threads, err := cmd.Flags().GetInt("threads")
	if err != nil {
		return err
	}
	parallel.SetDefault(parallel.Config{Enabled: true, NumWorkers: threads, MinChunkSize: 1})
	slog.Debug("configured workers", "threads", parallel.Default().NumWorkers)
	return nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			cmd.Printf("neuralart version %s\n", version)
		},
	}
}
