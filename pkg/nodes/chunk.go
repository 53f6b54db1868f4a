package nodes

import (
	"context"
	"strings"

	"github.com/aretw0/catena/pkg/chain"
	"github.com/aretw0/catena/pkg/domain"
)

// DefaultChunkSize is the chunk length used when none is configured.
const DefaultChunkSize = 100

// ChunkNode splits the previous result text into word-bounded chunks.
type ChunkNode struct {
	chain.Base
	size int
}

// Chunk creates a ChunkNode with DefaultChunkSize.
func Chunk(id string) *ChunkNode {
	return &ChunkNode{Base: chain.Base{NodeID: id}, size: DefaultChunkSize}
}

// Configure implements chain.Configurable.
// Supported settings: "chunk_size" (non-positive values fall back to the default).
func (n *ChunkNode) Configure(settings map[string]any) error {
	var s struct {
		Size int `mapstructure:"chunk_size"`
	}
	if err := chain.DecodeSettings(settings, &s); err != nil {
		return err
	}
	n.size = s.Size
	if n.size <= 0 {
		n.size = DefaultChunkSize
	}
	return nil
}

// Run returns the chunks as a []string.
func (n *ChunkNode) Run(ctx context.Context, rc *domain.Context) (*domain.Result, error) {
	text, err := lastString(rc)
	if err != nil {
		return nil, err
	}
	return n.Result(ChunkText(text, n.size)), nil
}

// ChunkText splits text on whitespace and packs words into chunks of at most
// size bytes. A word longer than size forms a chunk of its own.
func ChunkText(text string, size int) []string {
	if size <= 0 {
		size = DefaultChunkSize
	}

	chunks := []string{}
	var current strings.Builder
	for _, word := range strings.Fields(text) {
		switch {
		case current.Len() == 0:
		case current.Len()+1+len(word) <= size:
			current.WriteByte(' ')
		default:
			chunks = append(chunks, current.String())
			current.Reset()
		}

		if current.Len() == 0 && len(word) > size {
			chunks = append(chunks, word)
			continue
		}
		current.WriteString(word)
	}
	if current.Len() > 0 {
		chunks = append(chunks, current.String())
	}
	return chunks
}
