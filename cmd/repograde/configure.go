package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/browser"
	"github.com/spf13/cobra"

	"github.com/rohankatakam/repograde/internal/config"
)

const (
	githubTokenURL = "https://github.com/settings/tokens/new?description=repograde&scopes=public_repo"
	geminiKeyURL   = "https://aistudio.google.com/app/apikey"
	openAIKeyURL   = "https://platform.openai.com/api-keys"
)

var configureOpen bool

var configureCmd = &cobra.Command{
	Use:   "configure",
	Short: "Store a GitHub token and model API key",
	Long: `Prompt for the credentials repograde needs and store them in the OS
keychain. On headless systems without a keychain they go to
~/.repograde/credentials.yaml (mode 0600) instead.

Environment variables (GITHUB_TOKEN, GEMINI_API_KEY, OPENAI_API_KEY)
always take precedence over stored credentials.`,
	RunE: runConfigure,
}

func init() {
	configureCmd.Flags().BoolVar(&configureOpen, "open", false, "open the token pages in a browser")
}

func runConfigure(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	cm := config.NewCredentialManager()

	fmt.Fprintln(out, "repograde configuration")
	fmt.Fprintln(out)

	var creds config.Credentials

	fmt.Fprintln(out, "Step 1/3: GitHub token (public_repo scope is enough)")
	openPage(out, githubTokenURL)
	if cfg.GitHub.Token != "" {
		fmt.Fprintf(out, "Current: %s (press Enter to keep)\n", config.MaskSecret(cfg.GitHub.Token))
	}
	token, err := cm.Prompt("GitHub token")
	if err != nil {
		return err
	}
	creds.GitHubToken = token
	fmt.Fprintln(out)

	fmt.Fprintln(out, "Step 2/3: Model provider")
	fmt.Fprintf(out, "  1. gemini (default, %s)\n", cfg.Model.GeminiModel)
	fmt.Fprintf(out, "  2. openai (%s)\n", cfg.Model.OpenAIModel)
	choice, err := cm.Prompt("Select provider (1-2)")
	if err != nil {
		return err
	}
	provider := config.ProviderGemini
	if choice == "2" || strings.EqualFold(choice, config.ProviderOpenAI) {
		provider = config.ProviderOpenAI
	}
	fmt.Fprintln(out)

	fmt.Fprintln(out, "Step 3/3: Model API key")
	switch provider {
	case config.ProviderOpenAI:
		openPage(out, openAIKeyURL)
		if creds.OpenAIAPIKey, err = cm.Prompt("OpenAI API key"); err != nil {
			return err
		}
	default:
		openPage(out, geminiKeyURL)
		if creds.GeminiAPIKey, err = cm.Prompt("Gemini API key"); err != nil {
			return err
		}
	}
	fmt.Fprintln(out)

	where, err := cm.Save(creds)
	if err != nil {
		return fmt.Errorf("failed to store credentials: %w", err)
	}
	switch where {
	case "keychain":
		fmt.Fprintln(out, "Credentials saved to the OS keychain")
	default:
		fmt.Fprintf(out, "OS keychain unavailable, credentials saved to %s\n", where)
	}

	configPath := cfgFile
	if configPath == "" {
		homeDir, _ := os.UserHomeDir()
		configPath = filepath.Join(homeDir, ".repograde", "config.yaml")
	}
	cfg.Model.Provider = provider
	if err := cfg.Save(configPath); err != nil {
		return err
	}
	fmt.Fprintf(out, "Settings saved to %s\n", configPath)
	return nil
}

func openPage(out io.Writer, url string) {
	fmt.Fprintf(out, "Create one at: %s\n", url)
	if !configureOpen {
		return
	}
	if err := browser.OpenURL(url); err != nil {
		fmt.Fprintln(out, "Could not open a browser, visit the URL above.")
	}
}
