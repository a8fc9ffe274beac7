package cmd

import (
	"fmt"

	"github.com/nikogura/site-audit/pkg/config"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

//nolint:gochecknoglobals // Cobra boilerplate
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a starter config file",
	Long: `Write a starter config file. Use a .yaml or .yml path with --config for YAML.

Example:
  site-audit init
  site-audit init --config ./site-audit.yaml`,
	Args: cobra.NoArgs,
	RunE: runInit,
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, args []string) (err error) {
	path := getConfigFile()
	if path == "" {
		path = config.DefaultPath()
	}

	err = config.InitConfig(path)
	if err != nil {
		err = errors.Wrap(err, "failed to create config")
		return err
	}

	fmt.Printf("Config written to %s\n", path)
	fmt.Println("Set gemini_api_key there, or export GEMINI_API_KEY.")
	return err
}
