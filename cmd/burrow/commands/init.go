package commands

import (
	"github.com/dyluth/burrow/internal/printer"
	"github.com/dyluth/burrow/internal/scaffold"
	"github.com/spf13/cobra"
)

var (
	forceInit bool
	initDir   string
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a starter burrow.yml",
	Long: `Write a burrow.yml with every setting at its default value and a short
comment on what it does.

Use --force to replace an existing burrow.yml.`,
	Args: cobra.NoArgs,
	RunE: runInit,
}

func init() {
	initCmd.Flags().BoolVar(&forceInit, "force", false, "Overwrite an existing burrow.yml")
	initCmd.Flags().StringVar(&initDir, "dir", ".", "Directory to write burrow.yml into")
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, args []string) error {
	if !forceInit {
		if err := scaffold.CheckExisting(initDir); err != nil {
			return printer.Error("burrow already initialized", err.Error(), nil)
		}
	}

	path, err := scaffold.Initialize(initDir, forceInit)
	if err != nil {
		return printer.Error("initialization failed", err.Error(), nil)
	}

	scaffold.PrintSuccess(path)
	return nil
}
