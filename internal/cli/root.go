package cli

import (
	"context"

	"resumetracker/internal/common"
	"resumetracker/internal/config"
	"resumetracker/internal/errors"

	"github.com/spf13/cobra"
)

// Define custom private types for context keys.
type configKeyType struct{}
type loggerKeyType struct{}

// Use variables of these types as the keys.
var configKey = configKeyType{}
var loggerKey = loggerKeyType{}

// NewRootCommand builds the command tree. Each call returns fresh flag state.
func NewRootCommand() *cobra.Command {
	var output common.CommandConfig

	rootCmd := &cobra.Command{
		Use:   "resumetracker",
		Short: "A CLI client for the resume tracker service",
		Long: `Resumetracker uploads resumes to the resume tracker backend, analyses
them against job descriptions, and fetches the generated resume documents
once the backend has finished rendering them.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg := getConfigFromContext(cmd.Context())
			// Apply default format if not specified
			if output.OutputFormat == "" {
				output.OutputFormat = cfg.App.DefaultFormat
			}
			// Validate format against supported formats
			if err := common.ValidateOutputFormat(output.OutputFormat, cfg.App.SupportedFormats); err != nil {
				return errors.NewValidationError(errors.ErrCodeInvalidFormat, err.Error(), nil)
			}
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVarP(&output.OutputFile, "output", "o", "", "Output file path (default: stdout)")
	rootCmd.PersistentFlags().StringVar(&output.OutputFormat, "format", "", "Output format: json, text, or markdown")

	_ = rootCmd.RegisterFlagCompletionFunc("format", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return common.NewOutputHandler(nil).GetSupportedFormats(), cobra.ShellCompDirectiveNoFileComp
	})

	rootCmd.AddCommand(
		newLoginCmd(&output),
		newSignupCmd(&output),
		newLogoutCmd(),
		newWhoamiCmd(&output),
		newUploadCmd(&output),
		newListCmd(&output),
		newGetCmd(&output),
		newStatusCmd(&output),
		newDeleteCmd(),
		newAnalyzeCmd(&output),
		newHistoryCmd(&output),
		newPreviewCmd(&output),
		newUpdateContentCmd(&output),
		newUpdateCmd(&output),
		newFeedbackCmd(&output),
		newVersionCmd(),
	)
	return rootCmd
}

// Execute runs the CLI with args taken from the process
func Execute(ctx context.Context, cfg *config.Config, logger *errors.Logger) error {
	return ExecuteArgs(ctx, cfg, logger, nil)
}

// ExecuteArgs runs the CLI with explicit args; nil means os.Args
func ExecuteArgs(ctx context.Context, cfg *config.Config, logger *errors.Logger, args []string) error {
	// Attach the config and logger to the context, making them available to all subcommands
	ctx = context.WithValue(ctx, configKey, cfg)
	ctx = context.WithValue(ctx, loggerKey, logger)

	rootCmd := NewRootCommand()
	if args != nil {
		rootCmd.SetArgs(args)
	}
	rootCmd.SetContext(ctx)
	return rootCmd.Execute()
}

// getConfigFromContext is a helper function to get config from context
func getConfigFromContext(ctx context.Context) *config.Config {
	if cfg, ok := ctx.Value(configKey).(*config.Config); ok {
		return cfg
	}
	panic("config not found in context") // Should not happen if properly initialized
}

// getLoggerFromContext is a helper function to get logger from context
func getLoggerFromContext(ctx context.Context) *errors.Logger {
	if logger, ok := ctx.Value(loggerKey).(*errors.Logger); ok {
		return logger
	}
	panic("logger not found in context") // Should not happen if properly initialized
}
