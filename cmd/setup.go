package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const envTemplate = `# Gemini API key, see https://aistudio.google.com/app/apikey
GEMINI_API_KEY=
# Notion integration token and the id of the candidates database
NOTION_API_KEY=
NOTION_DATABASE_ID=

GEMINI_MODEL=gemini-2.0-flash
TEMPERATURE=0
TIMEZONE=UTC
MAX_GEMINI_CONCURRENT=10
MAX_NOTION_CONCURRENT=5
`

const yamlTemplate = `gemini:
  # api-key-file: /run/secrets/gemini
  model: gemini-2.0-flash
  temperature: 0
  max-log-length: 200
notion:
  # api-key-file: /run/secrets/notion
  database-id: ""
concurrency:
  gemini: 10
  notion: 5
timezone: UTC
watch:
  debounce: 2s
  item-timeout: 5m
export:
  # output: candidates.xlsx
  # sheet-id: ""
  # sheets-credentials: service-account.json
  sheet-name: Candidates
`

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Write configuration templates to the current directory",
	Run: func(cmd *cobra.Command, _ []string) {
		log := newLogger()

		dir, _ := cmd.Flags().GetString("dir")
		force, _ := cmd.Flags().GetBool("force")

		templates := []struct {
			name    string
			content string
		}{
			{".env.example", envTemplate},
			{app + ".example.yaml", yamlTemplate},
		}

		for _, t := range templates {
			path := filepath.Join(dir, t.name)
			written, err := writeTemplate(path, t.content, force, confirmOverwrite)
			if err != nil {
				log.Fatal("writing template", zap.String("filename", path), zap.Error(err))
			}
			if written {
				log.Info("template written", zap.String("filename", path))
			} else {
				log.Info("template kept", zap.String("filename", path))
			}
		}

		fmt.Println("Copy .env.example to .env and fill in the credentials, then run:")
		fmt.Printf("  %s process <jobs-folder>\n", app)
	},
}

func init() {
	rootCmd.AddCommand(setupCmd)

	setupCmd.Flags().String("dir", ".", "directory to write the templates to")
	setupCmd.Flags().BoolP("force", "f", false, "overwrite existing templates without asking")
}

// writeTemplate writes content to path. An existing file is only replaced
// when force is set or confirm agrees.
func writeTemplate(path, content string, force bool, confirm func(string) (bool, error)) (bool, error) {
	_, err := os.Stat(path)
	switch {
	case err == nil && !force:
		ok, err := confirm(path)
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
	case err != nil && !errors.Is(err, os.ErrNotExist):
		return false, err
	}

	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return false, err
	}
	return true, nil
}

func confirmOverwrite(path string) (bool, error) {
	prompt := promptui.Prompt{
		Label:     fmt.Sprintf("%s exists, overwrite", path),
		IsConfirm: true,
	}
	if _, err := prompt.Run(); err != nil {
		if errors.Is(err, promptui.ErrAbort) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
