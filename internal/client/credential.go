package client

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Credential is the token saved between terminal sessions, tied to the
// server that issued it.
type Credential struct {
	ServerURL string `yaml:"server_url"`
	Token     string `yaml:"token"`
}

// LoadCredential returns the saved token for serverURL, or "" when none is
// stored or it belongs to another server.
func LoadCredential(path, serverURL string) (string, error) {
	if path == "" {
		return "", nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", nil
		}
		return "", fmt.Errorf("read credential: %w", err)
	}

	var cred Credential
	if err := yaml.Unmarshal(data, &cred); err != nil {
		return "", fmt.Errorf("parse credential: %w", err)
	}
	if cred.ServerURL != serverURL {
		return "", nil
	}
	return cred.Token, nil
}

func SaveCredential(path, serverURL, token string) error {
	if path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("create credential dir: %w", err)
	}
	data, err := yaml.Marshal(Credential{ServerURL: serverURL, Token: token})
	if err != nil {
		return fmt.Errorf("encode credential: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write credential: %w", err)
	}
	return nil
}

func RemoveCredential(path string) error {
	if path == "" {
		return nil
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove credential: %w", err)
	}
	return nil
}
