package commands

import (
	"fmt"

	"github.com/AlecAivazis/survey/v2"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/satishbabariya/docsql/cli/internal/config"
	"github.com/satishbabariya/docsql/cli/internal/ui"
)

const sampleDocuments = `documents:
  - name: User
    collection: users
    id: id
    fields:
      - name: id
        type: integer
      - name: email
      - name: first_name
        property: firstName
`

// NewInitCommand creates the init command
func NewInitCommand(g *globals) *cobra.Command {
	var (
		path string
		yes  bool
	)
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a config file and a sample documents mapping",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := *g.cfg
			if !yes {
				if err := askConfig(&cfg); err != nil {
					return err
				}
			}
			return writeProject(&cfg, path)
		},
	}
	cmd.Flags().StringVar(&path, "path", config.FileName+".yaml", "where to write the config")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "use flags and defaults without prompting")
	return cmd
}

func askConfig(cfg *config.Config) error {
	questions := []*survey.Question{
		{
			Name: "provider",
			Prompt: &survey.Select{
				Message: "Database provider:",
				Options: []string{"mysql", "postgresql", "sqlite"},
				Default: cfg.Provider,
			},
		},
		{
			Name:     "url",
			Prompt:   &survey.Input{Message: "Connection string:", Default: cfg.DatabaseURL},
			Validate: survey.Required,
		},
		{
			Name:   "documents",
			Prompt: &survey.Input{Message: "Documents mapping file:", Default: cfg.DocumentsPath},
		},
	}

	answers := struct {
		Provider  string `survey:"provider"`
		URL       string `survey:"url"`
		Documents string `survey:"documents"`
	}{}
	if err := survey.Ask(questions, &answers); err != nil {
		return err
	}
	cfg.Provider = answers.Provider
	cfg.DatabaseURL = answers.URL
	if answers.Documents != "" {
		cfg.DocumentsPath = answers.Documents
	}
	return nil
}

func writeProject(cfg *config.Config, path string) error {
	if _, err := config.AppFs.Stat(path); err == nil {
		return fmt.Errorf("config file already exists: %s", path)
	}
	if err := config.SaveConfig(cfg, path); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	ui.PrintSuccess("Created %s", path)

	if _, err := config.AppFs.Stat(cfg.DocumentsPath); err == nil {
		ui.PrintWarning("%s already exists, skipping", cfg.DocumentsPath)
		return nil
	}
	if err := afero.WriteFile(config.AppFs, cfg.DocumentsPath, []byte(sampleDocuments), 0644); err != nil {
		return fmt.Errorf("failed to write documents file: %w", err)
	}
	ui.PrintSuccess("Created %s", cfg.DocumentsPath)
	return nil
}
