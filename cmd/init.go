package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"docquery/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the default config file and credentials template",
	Long: `Create ~/.docquery/docquery.yaml with default settings and a
~/.docquery/.env template for embeddings credentials.

Existing files are left untouched, so init is safe to re-run.`,
	RunE: runInit,
}

func init() {
	rootCmd.AddCommand(initCmd)
}

func runInit(_ *cobra.Command, _ []string) error {
	printSection("Init")

	cfgPath, err := config.ConfigPath()
	if err != nil {
		return err
	}
	if _, err := os.Stat(cfgPath); err == nil {
		printSkip("", fmt.Sprintf("config already exists: %s", cfgPath))
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("cannot stat config %s: %w", cfgPath, err)
	} else {
		if err := config.Save(config.DefaultConfig()); err != nil {
			return err
		}
		printOK("", fmt.Sprintf("wrote default config: %s", cfgPath))
	}

	envPath, err := config.DotEnvPath()
	if err != nil {
		return err
	}
	if _, err := os.Stat(envPath); err == nil {
		printSkip("", fmt.Sprintf("credentials file already exists: %s", envPath))
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("cannot stat dotenv file %s: %w", envPath, err)
	} else {
		if err := config.EnsureDotEnvTemplate(); err != nil {
			return err
		}
		printOK("", fmt.Sprintf("wrote credentials template: %s", envPath))
	}

	return nil
}
