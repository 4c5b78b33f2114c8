package scratch

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// Provider hands out a session-scoped scratch directory, used for staging
// thumbnails and other temporary publish artifacts. It is passed into the
// controller at construction instead of relying on ambient process identity.
type Provider struct {
	root    string
	session string
}

// NewProvider creates a provider rooted at the given directory. An empty root
// falls back to the system temp directory. Each provider gets its own session
// subdirectory so concurrent sessions never collide.
func NewProvider(root string) *Provider {
	if root == "" {
		root = os.TempDir()
	}
	return &Provider{
		root:    root,
		session: uuid.NewString(),
	}
}

// Dir returns the session scratch directory path without creating it.
func (p *Provider) Dir() string {
	return filepath.Join(p.root, "stagehand", p.session)
}

// Ensure creates the session scratch directory and returns its path.
func (p *Provider) Ensure() (string, error) {
	dir := p.Dir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create scratch dir: %w", err)
	}
	return dir, nil
}

// Clear removes the session scratch directory and everything inside it.
func (p *Provider) Clear() error {
	if err := os.RemoveAll(p.Dir()); err != nil {
		return fmt.Errorf("clear scratch dir: %w", err)
	}
	return nil
}
