package nodes

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/aretw0/catena/pkg/chain"
	"github.com/aretw0/catena/pkg/domain"
	"rsc.io/pdf"
)

// PDFNode extracts the text layer of a PDF file. Pages are separated by a
// blank line.
type PDFNode struct {
	chain.Base
	src fileSource
}

// PDFToText creates a PDFNode. The file name is taken from the previous
// result unless the "path" setting is given.
func PDFToText(id string, opts ...FileOption) *PDFNode {
	return &PDFNode{Base: chain.Base{NodeID: id}, src: newFileSource(opts)}
}

// Configure implements chain.Configurable.
// Supported settings: "dir", "path".
func (n *PDFNode) Configure(settings map[string]any) error {
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

func (n *PDFNode) Run(ctx context.Context, rc *domain.Context) (*domain.Result, error) {
	name, err := n.src.name(rc)
	if err != nil {
		return nil, err
	}
	data, err := n.src.read(name)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", name, err)
	}
	text, err := extractPDF(ctx, data)
	if err != nil {
		return nil, fmt.Errorf("invalid pdf %s: %w", name, err)
	}
	if text == "" {
		return nil, fmt.Errorf("no text layer in %s", name)
	}
	return n.Result(text), nil
}

// extractPDF returns the text of every page. The pdf reader panics on
// malformed content streams.
func extractPDF(ctx context.Context, data []byte) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%v", r)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}
	pages := make([]string, 0, r.NumPage())
	for i := 1; i <= r.NumPage(); i++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		p := r.Page(i)
		if p.V.IsNull() {
			continue
		}
		if s := pageText(p.Content().Text); s != "" {
			pages = append(pages, s)
		}
	}
	return strings.Join(pages, "\n\n"), nil
}

// pageText joins glyphs in drawing order. A change of baseline starts a new
// line; a horizontal gap wider than a fifth of the font size is a space.
func pageText(glyphs []pdf.Text) string {
	var b strings.Builder
	for i, g := range glyphs {
		if i > 0 {
			prev := glyphs[i-1]
			switch {
			case g.Y != prev.Y:
				b.WriteByte('\n')
			case g.X > prev.X+prev.W+g.FontSize/5:
				b.WriteByte(' ')
			}
		}
		b.WriteString(g.S)
	}
	return strings.TrimSpace(b.String())
}
