package commands

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/grimoco/grimchat/internal/config"
)

var personaCmd = &cobra.Command{
	Use:   "persona",
	Short: "Manage chat personas",
	Long: `View the available personas and pick the default one.

The persona set is fixed: each one changes the system instruction sent
to the model and the voice of the client's own messages.`,
}

var personaListCmd = &cobra.Command{
	Use:   "list",
	Short: "List available personas",
	RunE:  runPersonaList,
}

var personaShowCmd = &cobra.Command{
	Use:   "show <name>",
	Short: "Show persona details",
	Args:  cobra.ExactArgs(1),
	RunE:  runPersonaShow,
}

var personaDefaultCmd = &cobra.Command{
	Use:   "default <name>",
	Short: "Set the persona new sessions start with",
	Args:  cobra.ExactArgs(1),
	RunE:  runPersonaDefault,
}

func init() {
	personaCmd.AddCommand(personaListCmd)
	personaCmd.AddCommand(personaShowCmd)
	personaCmd.AddCommand(personaDefaultCmd)
}

func runPersonaList(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "NAME\tDESCRIPTION\tDEFAULT")
	_, _ = fmt.Fprintln(w, "----\t-----------\t-------")

	for _, p := range config.Personas() {
		isDefault := ""
		if p.Name == cfg.Persona {
			isDefault = "✓"
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\n", p.Name, p.Description, isDefault)
	}

	return w.Flush()
}

func runPersonaShow(cmd *cobra.Command, args []string) error {
	persona, err := config.GetPersona(args[0])
	if err != nil {
		return err
	}

	fmt.Printf("Name: %s\n", persona.Name)
	fmt.Printf("Description: %s\n", persona.Description)
	fmt.Printf("Greeting: %s\n", persona.Greeting)
	fmt.Printf("\nSystem Instruction:\n%s\n", persona.Instruction)

	return nil
}

func runPersonaDefault(cmd *cobra.Command, args []string) error {
	name := args[0]
	if _, err := config.GetPersona(name); err != nil {
		return err
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}
	cfg.Persona = name
	if err := config.SaveConfig(cfg); err != nil {
		return err
	}

	fmt.Printf("Default persona set to '%s'.\n", name)
	return nil
}
