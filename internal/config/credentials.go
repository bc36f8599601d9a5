package config

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/term"
	"gopkg.in/yaml.v3"

	"github.com/rohankatakam/repograde/internal/errors"
)

// Credentials holds the secrets repograde needs
type Credentials struct {
	GitHubToken  string `yaml:"github_token,omitempty"`
	GeminiAPIKey string `yaml:"gemini_api_key,omitempty"`
	OpenAIAPIKey string `yaml:"openai_api_key,omitempty"`
}

// CredentialManager stores credentials in the keychain, falling back to a
// user-only credentials file on headless systems.
// Lookup priority is env → keychain → credentials file (see Load).
type CredentialManager struct {
	keyring *KeyringManager
	path    string
	in      io.Reader
	out     io.Writer

	// buffered view of in, kept across prompts so piped answers are not lost
	lines     *bufio.Reader
	linesFrom io.Reader
}

// NewCredentialManager creates a new credential manager
func NewCredentialManager() *CredentialManager {
	return &CredentialManager{
		keyring: NewKeyringManager(),
		path:    DefaultCredentialsPath(),
		in:      os.Stdin,
		out:     os.Stdout,
	}
}

// DefaultCredentialsPath is ~/.repograde/credentials.yaml
func DefaultCredentialsPath() string {
	homeDir, _ := os.UserHomeDir()
	return filepath.Join(homeDir, ".repograde", "credentials.yaml")
}

// Path returns the credentials file location
func (cm *CredentialManager) Path() string {
	return cm.path
}

// Save stores every non-empty credential. Returns where they were stored.
func (cm *CredentialManager) Save(creds Credentials) (string, error) {
	if cm.keyring.IsAvailable() {
		items := map[string]string{
			ItemGitHubToken: creds.GitHubToken,
			ItemGeminiKey:   creds.GeminiAPIKey,
			ItemOpenAIKey:   creds.OpenAIAPIKey,
		}
		for item, secret := range items {
			if secret == "" {
				continue
			}
			if err := cm.keyring.Set(item, secret); err != nil {
				return "", errors.Wrap(err, errors.KindConfig, errors.SeverityHigh,
					fmt.Sprintf("failed to save %s to keychain", item))
			}
		}
		return "keychain", nil
	}

	existing, _ := cm.LoadFile()
	if existing == nil {
		existing = &Credentials{}
	}
	merge(existing, creds)
	if err := cm.saveFile(*existing); err != nil {
		return "", errors.Wrap(err, errors.KindConfig, errors.SeverityHigh, "failed to write credentials file")
	}
	return cm.path, nil
}

// LoadFile reads the fallback credentials file
func (cm *CredentialManager) LoadFile() (*Credentials, error) {
	data, err := os.ReadFile(cm.path)
	if err != nil {
		return nil, err
	}

	var creds Credentials
	if err := yaml.Unmarshal(data, &creds); err != nil {
		return nil, err
	}
	return &creds, nil
}

func (cm *CredentialManager) saveFile(creds Credentials) error {
	if err := os.MkdirAll(filepath.Dir(cm.path), 0700); err != nil {
		return err
	}

	data, err := yaml.Marshal(creds)
	if err != nil {
		return err
	}

	// user-only read/write
	return os.WriteFile(cm.path, data, 0600)
}

// Prompt asks for a secret without echoing it when stdin is a terminal.
// An empty answer is returned as "".
func (cm *CredentialManager) Prompt(label string) (string, error) {
	fmt.Fprintf(cm.out, "%s: ", label)

	if f, ok := cm.in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		bytes, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(cm.out)
		if err != nil {
			return "", err
		}
		return strings.TrimSpace(string(bytes)), nil
	}

	// piped input
	if cm.lines == nil || cm.linesFrom != cm.in {
		cm.lines = bufio.NewReader(cm.in)
		cm.linesFrom = cm.in
	}
	line, err := cm.lines.ReadString('\n')
	if err != nil && err != io.EOF {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// IsInteractive returns true if stdin is a terminal (not piped)
func IsInteractive() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

func merge(dst *Credentials, src Credentials) {
	if src.GitHubToken != "" {
		dst.GitHubToken = src.GitHubToken
	}
	if src.GeminiAPIKey != "" {
		dst.GeminiAPIKey = src.GeminiAPIKey
	}
	if src.OpenAIAPIKey != "" {
		dst.OpenAIAPIKey = src.OpenAIAPIKey
	}
}

// applyStoredCredentials fills credentials that env and config left empty,
// first from the keychain, then from the credentials file.
func applyStoredCredentials(cfg *Config, cm *CredentialManager) {
	if cfg.GitHub.Token != "" && cfg.Model.GeminiKey != "" && cfg.Model.OpenAIKey != "" {
		return
	}

	slots := []struct {
		item   string
		target *string
	}{
		{ItemGitHubToken, &cfg.GitHub.Token},
		{ItemGeminiKey, &cfg.Model.GeminiKey},
		{ItemOpenAIKey, &cfg.Model.OpenAIKey},
	}

	if cm.keyring.IsAvailable() {
		for _, s := range slots {
			if *s.target != "" {
				continue
			}
			if secret, err := cm.keyring.Get(s.item); err == nil && secret != "" {
				*s.target = secret
			}
		}
	}

	creds, err := cm.LoadFile()
	if err != nil {
		return
	}
	fromFile := map[string]string{
		ItemGitHubToken: creds.GitHubToken,
		ItemGeminiKey:   creds.GeminiAPIKey,
		ItemOpenAIKey:   creds.OpenAIAPIKey,
	}
	for _, s := range slots {
		if *s.target == "" {
			*s.target = fromFile[s.item]
		}
	}
}
