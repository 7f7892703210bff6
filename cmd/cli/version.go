package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ragstack/ragstack/internal/version"
)

func NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			info := version.Get()
			fmt.Printf("ragstack %s", info.Version)
			if info.GitCommit != "" {
				fmt.Printf(" (%s)", info.GitCommit)
			}
			fmt.Printf(" %s\n", info.GoVersion)
		},
	}
}
