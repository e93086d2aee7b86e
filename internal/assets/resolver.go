package assets

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Resolver maps between absolute on-disk locations under the public asset
// root and the relative URLs the catalog stores. This is the only place
// path-separator translation happens; every other component works in exactly
// one of the two representations.
type Resolver struct {
	root string
}

// NewResolver returns a Resolver anchored at the public asset root.
// root must be an absolute path.
func NewResolver(root string) *Resolver {
	return &Resolver{root: filepath.Clean(root)}
}

// Root returns the absolute public asset root.
func (r *Resolver) Root() string {
	return r.root
}

// ToPublicURL converts an absolute path inside the asset root into a
// forward-slash relative URL with a single leading slash.
func (r *Resolver) ToPublicURL(absolutePath string) (string, error) {
	rel, err := filepath.Rel(r.root, filepath.Clean(absolutePath))
	if err != nil {
		return "", fmt.Errorf("path %s is not resolvable against asset root: %w", absolutePath, err)
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("path %s is outside the asset root", absolutePath)
	}
	return "/" + filepath.ToSlash(rel), nil
}

// ToAbsolutePath converts a public relative URL back into an absolute path
// under the asset root.
func (r *Resolver) ToAbsolutePath(relativeURL string) string {
	trimmed := strings.TrimPrefix(relativeURL, "/")
	return filepath.Join(r.root, filepath.FromSlash(trimmed))
}
