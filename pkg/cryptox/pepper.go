package cryptox

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

const pepperBytes = 32

// The pepper is a process-wide secret mixed into every API-key hash. It
// lives outside the database so a leaked dump alone cannot be brute forced.
var pepperState struct {
	sync.Mutex
	path  string
	value string
}

// SetPepperPath selects the pepper file. The next hash operation loads it,
// creating it when missing.
func SetPepperPath(file string) {
	pepperState.Lock()
	defer pepperState.Unlock()
	pepperState.path = file
	pepperState.value = ""
}

// LoadPepper loads (or creates) the pepper now, so a bad path fails at
// startup instead of on the first request.
func LoadPepper() error {
	_, err := currentPepper()
	return err
}

func currentPepper() (string, error) {
	pepperState.Lock()
	defer pepperState.Unlock()

	if pepperState.value != "" {
		return pepperState.value, nil
	}
	if pepperState.path == "" {
		return "", errors.New("cryptox: pepper path not set")
	}

	v, err := loadOrCreatePepper(filepath.Clean(pepperState.path))
	if err != nil {
		return "", err
	}
	pepperState.value = v
	return v, nil
}

func loadOrCreatePepper(path string) (string, error) {
	raw, err := os.ReadFile(path)
	switch {
	case err == nil:
		v := strings.TrimSpace(string(raw))
		if v == "" {
			return "", fmt.Errorf("cryptox: pepper file %s is empty", path)
		}
		return v, nil
	case !errors.Is(err, fs.ErrNotExist):
		return "", fmt.Errorf("cryptox: read pepper: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return "", fmt.Errorf("cryptox: create pepper dir: %w", err)
	}

	buf := make([]byte, pepperBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	v := base64.RawURLEncoding.EncodeToString(buf)

	// O_EXCL so two processes racing on first start agree on one pepper.
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if errors.Is(err, fs.ErrExist) {
		return loadOrCreatePepper(path)
	}
	if err != nil {
		return "", fmt.Errorf("cryptox: create pepper: %w", err)
	}
	if _, err := f.WriteString(v); err != nil {
		_ = f.Close()
		return "", fmt.Errorf("cryptox: write pepper: %w", err)
	}
	return v, f.Close()
}
