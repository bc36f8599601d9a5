package config

import (
	"fmt"
	"log/slog"

	"github.com/zalando/go-keyring"
)

const (
	// KeyringService is the service name in the OS keychain
	KeyringService = "repograde"

	// ItemGitHubToken is the keychain item for the GitHub token
	ItemGitHubToken = "github-token"

	// ItemGeminiKey is the keychain item for the Gemini API key
	ItemGeminiKey = "gemini-api-key"

	// ItemOpenAIKey is the keychain item for the OpenAI API key
	ItemOpenAIKey = "openai-api-key"
)

// KeyringManager handles secure credential storage in OS keychain
type KeyringManager struct {
	logger *slog.Logger
}

// NewKeyringManager creates a new keyring manager
func NewKeyringManager() *KeyringManager {
	return &KeyringManager{
		logger: slog.Default().With("component", "keyring"),
	}
}

// Set stores a credential in the OS keychain:
// - macOS: Keychain Access.app → "repograde"
// - Windows: Credential Manager → "repograde"
// - Linux: Secret Service (requires libsecret)
func (km *KeyringManager) Set(item, secret string) error {
	if secret == "" {
		return fmt.Errorf("%s cannot be empty", item)
	}

	if err := keyring.Set(KeyringService, item, secret); err != nil {
		km.logger.Error("failed to save credential to keychain", "item", item, "error", err)
		return fmt.Errorf("failed to save to OS keychain: %w", err)
	}

	km.logger.Info("credential saved to keychain", "service", KeyringService, "item", item)
	return nil
}

// Get retrieves a credential. A missing item returns "" and no error.
func (km *KeyringManager) Get(item string) (string, error) {
	secret, err := keyring.Get(KeyringService, item)
	if err == keyring.ErrNotFound {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read from OS keychain: %w", err)
	}

	km.logger.Debug("credential retrieved from keychain", "item", item)
	return secret, nil
}

// Delete removes a credential. Deleting a missing item is not an error.
func (km *KeyringManager) Delete(item string) error {
	err := keyring.Delete(KeyringService, item)
	if err == keyring.ErrNotFound {
		return nil
	}
	if err != nil {
		km.logger.Error("failed to delete credential from keychain", "item", item, "error", err)
		return fmt.Errorf("failed to delete from OS keychain: %w", err)
	}

	km.logger.Info("credential deleted from keychain", "item", item)
	return nil
}

// IsAvailable checks if OS keychain is available
// Returns false on headless systems (CI/CD) where keychain isn't available
func (km *KeyringManager) IsAvailable() bool {
	_, err := keyring.Get(KeyringService, "test-availability")
	if err == nil || err == keyring.ErrNotFound {
		return true
	}
	km.logger.Debug("keychain not available", "error", err)
	return false
}

// MaskSecret masks a secret for display
// Shows first 4 chars and last 4 chars: "ghp_...abcd"
func MaskSecret(secret string) string {
	if secret == "" {
		return "(not set)"
	}
	if len(secret) < 12 {
		return "***"
	}
	return fmt.Sprintf("%s...%s", secret[:4], secret[len(secret)-4:])
}
