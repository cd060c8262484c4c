package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/grimoco/grimchat/internal/config"
	"github.com/grimoco/grimchat/internal/models"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage grimchat settings",
	Long:  `Show and change persisted settings, including the service API key.`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the current configuration",
	RunE:  runConfigShow,
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Long: `Set a configuration value. Available keys:

  theme            dark | light
  persona          default persona for new sessions
  model            default generation model
  speak            true | false - speak responses aloud
  speech-command   synthesizer command line (e.g. "espeak -s 150")
  timeout          request timeout in seconds, 0 to wait forever
  verbose          true | false`,
	Args: cobra.ExactArgs(2),
	RunE: runConfigSet,
}

var configSetKeyCmd = &cobra.Command{
	Use:   "set-key [key]",
	Short: "Store the service API key",
	Long: `Store the API key used to authenticate with the generation service.
With no argument the key is read from the terminal without echo.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runConfigSetKey,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the config file location",
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := config.GetConfigPath()
		if err != nil {
			return err
		}
		fmt.Println(path)
		return nil
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configSetKeyCmd)
	configCmd.AddCommand(configPathCmd)
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))

	if _, err := config.APIKey(); err == nil {
		fmt.Println("API key: configured")
	} else {
		fmt.Println("API key: not set")
	}
	return nil
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	key, value := args[0], args[1]

	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}

	switch key {
	case "theme":
		if value != "dark" && value != "light" {
			return fmt.Errorf("theme must be 'dark' or 'light'")
		}
		cfg.Theme = value

	case "persona":
		if _, err := config.GetPersona(value); err != nil {
			return err
		}
		cfg.Persona = value

	case "model":
		cfg.DefaultModel = models.ModelFromName(value).Name

	case "speak":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("speak must be true or false")
		}
		cfg.SpeakResponses = b

	case "speech-command":
		cfg.SpeechCommand = value

	case "timeout":
		n, err := strconv.Atoi(value)
		if err != nil || n < 0 {
			return fmt.Errorf("timeout must be a non-negative number of seconds")
		}
		cfg.TimeoutSeconds = n

	case "verbose":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("verbose must be true or false")
		}
		cfg.Verbose = b

	default:
		return fmt.Errorf("unknown configuration key %q", key)
	}

	if err := config.SaveConfig(cfg); err != nil {
		return err
	}

	fmt.Printf("%s set to %s\n", key, value)
	return nil
}

func runConfigSetKey(cmd *cobra.Command, args []string) error {
	var key string

	if len(args) > 0 {
		key = args[0]
	} else {
		fmt.Fprint(os.Stderr, "API key: ")
		data, err := term.ReadPassword(int(os.Stdin.Fd()))
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return fmt.Errorf("failed to read key: %w", err)
		}
		key = string(data)
	}

	key = strings.TrimSpace(key)
	if key == "" {
		return fmt.Errorf("API key cannot be empty")
	}

	if err := config.SaveAPIKey(key); err != nil {
		return err
	}

	fmt.Println("API key saved.")
	return nil
}
