package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"subscription-cancel-be/pkg/client"
)

const identityFile = ".cancelcli.json"

// Identity is the locally saved dev user, the CLI counterpart of the
// browser's remembered login.
type Identity struct {
	Email   string `json:"email"`
	BaseURL string `json:"base_url,omitempty"`
}

func identityPath() string {
	if p := os.Getenv("CANCELCLI_CONFIG"); p != "" {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return identityFile
	}
	return filepath.Join(home, identityFile)
}

// loadIdentity returns the zero Identity when the file does not exist.
func loadIdentity(path string) (Identity, error) {
	var id Identity
	raw, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return id, nil
	}
	if err != nil {
		return id, err
	}
	if err := json.Unmarshal(raw, &id); err != nil {
		return id, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return id, nil
}

func saveIdentity(path string, id Identity) error {
	id.Email = strings.ToLower(strings.TrimSpace(id.Email))
	raw, err := json.MarshalIndent(id, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, raw, 0o600)
}

// resolveIdentity layers flags over the saved file over defaults.
func resolveIdentity(path, email, baseURL string) Identity {
	id, err := loadIdentity(path)
	if err != nil {
		printWarning(err.Error())
	}
	if email != "" {
		id.Email = email
	}
	if baseURL != "" {
		id.BaseURL = baseURL
	}
	if id.BaseURL == "" {
		id.BaseURL = client.DefaultBaseURL
	}
	id.Email = strings.ToLower(strings.TrimSpace(id.Email))
	return id
}
