package nodes

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/aretw0/catena/pkg/chain"
	"github.com/aretw0/catena/pkg/domain"
)

// FileOption configures the file source of a file-reading node.
type FileOption func(*fileSource)

// WithFS reads files from fsys instead of the working directory.
func WithFS(fsys fs.FS) FileOption {
	return func(s *fileSource) {
		s.fsys = fsys
	}
}

// WithDir reads files relative to dir.
func WithDir(dir string) FileOption {
	return func(s *fileSource) {
		s.fsys = os.DirFS(dir)
	}
}

type fileSource struct {
	fsys fs.FS
	path string
}

func newFileSource(opts []FileOption) fileSource {
	var s fileSource
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

// name resolves the file to read: the configured path, else the last result.
func (s *fileSource) name(rc *domain.Context) (string, error) {
	if s.path != "" {
		return s.path, nil
	}
	name, err := lastString(rc)
	if err != nil {
		return "", err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return "", fmt.Errorf("empty file name")
	}
	return name, nil
}

func (s *fileSource) read(name string) ([]byte, error) {
	if s.fsys == nil {
		return os.ReadFile(name)
	}
	clean := path.Clean(strings.TrimPrefix(filepath.ToSlash(name), "/"))
	return fs.ReadFile(s.fsys, clean)
}

func (s *fileSource) configure(dir, file string) {
	if dir != "" {
		s.fsys = os.DirFS(dir)
	}
	if file != "" {
		s.path = file
	}
}

// ReadFileNode returns the text content of a file.
type ReadFileNode struct {
	chain.Base
	src fileSource
}

// ReadFile creates a ReadFileNode. The file name is taken from the previous
// result unless the "path" setting is given.
func ReadFile(id string, opts ...FileOption) *ReadFileNode {
	return &ReadFileNode{Base: chain.Base{NodeID: id}, src: newFileSource(opts)}
}

// Configure implements chain.Configurable.
// Supported settings: "dir", "path".
func (n *ReadFileNode) Configure(settings map[string]any) error {
	var s struct {
		Dir  string `mapstructure:"dir"`
		Path string `mapstructure:"path"`
	}
	if err := chain.DecodeSettings(settings, &s); err != nil {
		return err
	}
	n.src.configure(s.Dir, s.Path)
	return nil
}

func (n *ReadFileNode) Run(ctx context.Context, rc *domain.Context) (*domain.Result, error) {
	name, err := n.src.name(rc)
	if err != nil {
		return nil, err
	}
	data, err := n.src.read(name)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", name, err)
	}
	return n.Result(string(data)), nil
}
