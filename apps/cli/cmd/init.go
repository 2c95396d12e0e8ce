package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/abdul-hamid-achik/factcheck/packages/core/config"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var forceInit bool

var initCmd = &cobra.Command{
	Use:   "init [directory]",
	Short: "Initialize a new factcheck project",
	Long: `Initialize a new factcheck project in the current directory.

This creates:
  - .factcheck.json          - Configuration file with the defaults
  - example.factcheck.yaml   - Example case file

Examples:
  factcheck init
  factcheck init ./cases --force`,
	Args: cobra.MaximumNArgs(1),
	RunE: initCommand,
}

func init() {
	initCmd.Flags().BoolVarP(&forceInit, "force", "f", false, "Overwrite existing files")
}

// exampleFile is the layout of the generated example case file.
type exampleFile struct {
	Name      string            `yaml:"name"`
	Variables map[string]string `yaml:"variables"`
	Cases     []exampleCase     `yaml:"cases"`
}

type exampleCase struct {
	Name        string   `yaml:"name"`
	Description string   `yaml:"description,omitempty"`
	Tags        []string `yaml:"tags,omitempty"`
	String      string   `yaml:"string,omitempty"`
	Ints        []int    `yaml:"ints,omitempty"`
	Strings     []string `yaml:"strings,omitempty"`
	JSON        any      `yaml:"json,omitempty"`
	Expect      []any    `yaml:"expect"`
}

func exampleCases() exampleFile {
	return exampleFile{
		Name:      "examples",
		Variables: map[string]string{"user": "kurt"},
		Cases: []exampleCase{
			{
				Name:        "greeting",
				Description: "String assertions with a variable",
				Tags:        []string{"smoke"},
				String:      "hello {{user}}",
				Expect: []any{
					map[string]any{"startsWith": "hello"},
					map[string]any{"hasLength": 10},
					map[string]any{"matches": "hello [a-z]+"},
					map[string]any{"contains": "KURT", "ignoreCase": true},
				},
			},
			{
				Name: "ids",
				Ints: []int{3, 1, 4, 1, 5},
				Expect: []any{
					map[string]any{"hasSize": 5},
					map[string]any{"containsAtLeast": []int{3, 4}, "inOrder": true},
					map[string]any{"containsNoneOf": []int{0, 9}},
				},
			},
			{
				Name:    "roles",
				Strings: []string{"admin", "editor"},
				Expect: []any{
					map[string]any{"containsExactly": []string{"editor", "admin"}},
					"containsNoDuplicates",
				},
			},
			{
				Name: "profile",
				Tags: []string{"smoke"},
				JSON: map[string]any{
					"user":  map[string]any{"name": "{{user}}", "age": 42},
					"roles": []string{"admin", "editor"},
				},
				Expect: []any{
					"isValid",
					map[string]any{"hasPath": "roles[1]"},
					map[string]any{"equals": "{{user}}", "path": "user.name"},
					map[string]any{"startsWith": "ad", "path": "roles[0]"},
				},
			},
		},
	}
}

func initCommand(cmd *cobra.Command, args []string) error {
	dir := "."
	if len(args) == 1 {
		dir = args[0]
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	configFile := filepath.Join(dir, config.ConfigFilenames[0])
	exampleFile := filepath.Join(dir, "example.factcheck.yaml")

	if !forceInit {
		for _, f := range []string{configFile, exampleFile} {
			if _, err := os.Stat(f); err == nil {
				return fmt.Errorf("file already exists: %s (use --force to overwrite)", f)
			}
		}
	}

	if err := config.DefaultConfig().SaveConfig(configFile); err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Created: %s\n", configFile)

	data, err := yaml.Marshal(exampleCases())
	if err != nil {
		return fmt.Errorf("failed to encode example file: %w", err)
	}
	if err := os.WriteFile(exampleFile, data, 0644); err != nil {
		return fmt.Errorf("failed to create example file: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Created: %s\n", exampleFile)

	fmt.Fprintf(cmd.OutOrStdout(), "\nfactcheck project initialized!\n")
	fmt.Fprintf(cmd.OutOrStdout(), "Run 'factcheck run %s' to execute the example cases.\n", exampleFile)
	return nil
}
