package commands

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/grimoco/grimchat/internal/config"
	"github.com/grimoco/grimchat/internal/models"
)

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List available generation models",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadConfig()
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		_, _ = fmt.Fprintln(w, "NAME\tDESCRIPTION\tDEFAULT")
		_, _ = fmt.Fprintln(w, "----\t-----------\t-------")

		for _, m := range models.AllModels() {
			isDefault := ""
			if m.Name == cfg.DefaultModel {
				isDefault = "✓"
			}
			_, _ = fmt.Fprintf(w, "%s\t%s\t%s\n", m.Name, m.Description, isDefault)
		}

		return w.Flush()
	},
}
