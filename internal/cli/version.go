package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/crimson-sun/recap/internal/config"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number of recap",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "recap version %s\n", config.Version)
		},
	}
}
