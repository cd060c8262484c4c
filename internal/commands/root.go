// Package commands provides CLI commands for grimchat.
package commands

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/grimoco/grimchat/internal/config"
)

var (
	// Global flags
	modelFlag   string
	outputFlag  string
	fileFlag    string
	attachFlag  string
	personaFlag string
	rawFlag     bool
	searchFlag  bool

	// Version info (set at build time)
	Version   = "0.1.0"
	BuildTime = "unknown"
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "grimchat [prompt]",
	Short: "Unfiltered AI chat for your terminal",
	Long: `grimchat is a terminal client for Grim AI, an unfiltered assistant
backed by the hosted generative-language service. Responses stream in,
render as markdown, and can be spoken aloud.

Examples:
  grimchat chat                         Start interactive chat
  grimchat "What is Go?"                Send a single query
  grimchat -p angry "Explain DNS"       Query with a persona
  grimchat -f prompt.md                 Read prompt from file
  cat prompt.md | grimchat              Read prompt from stdin
  grimchat "Hello" -o response.md       Save response to file`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if v, _ := cmd.Flags().GetBool("version"); v {
			fmt.Printf("grimchat %s (built %s)\n", Version, BuildTime)
			return nil
		}

		// Piped input takes the place of a prompt argument
		stat, _ := os.Stdin.Stat()
		hasStdin := (stat.Mode() & os.ModeCharDevice) == 0

		if fileFlag != "" {
			data, err := os.ReadFile(fileFlag)
			if err != nil {
				return fmt.Errorf("failed to read file: %w", err)
			}
			return runQuery(string(data), rawOutput())
		}

		if hasStdin {
			data, err := io.ReadAll(os.Stdin)
			if err != nil {
				return fmt.Errorf("failed to read stdin: %w", err)
			}
			return runQuery(string(data), rawOutput())
		}

		if len(args) > 0 {
			return runQuery(args[0], rawOutput())
		}

		// No input - show help
		return cmd.Help()
	},
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&modelFlag, "model", "m", "", "Model to use (e.g., gemini-2.5-flash)")
	rootCmd.PersistentFlags().StringVarP(&personaFlag, "persona", "p", "", "Persona to answer as (normal, angry, happy, thinker)")
	rootCmd.Flags().StringVarP(&outputFlag, "output", "o", "", "Save response to file")
	rootCmd.Flags().StringVarP(&fileFlag, "file", "f", "", "Read prompt from file")
	rootCmd.Flags().StringVarP(&attachFlag, "attach", "a", "", "Path to a file to include with the prompt")
	rootCmd.Flags().BoolVarP(&rawFlag, "raw", "r", false, "Print the raw response text without decoration")
	rootCmd.Flags().BoolVarP(&searchFlag, "search", "s", false, "Allow the model to ground answers in web search")
	rootCmd.Flags().BoolP("version", "v", false, "Show version and exit")

	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(personaCmd)
	rootCmd.AddCommand(modelsCmd)
}

// getModel returns the model name to use (from flag or config)
func getModel() string {
	if modelFlag != "" {
		return modelFlag
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		return config.DefaultConfig().DefaultModel
	}

	return cfg.DefaultModel
}

// rawOutput reports whether the query response should skip decoration.
// Redirected stdout always gets raw text so pipes compose cleanly.
func rawOutput() bool {
	return rawFlag || !isStdoutTTY()
}
