package nodes_test

import (
	"context"
	"testing"
	"testing/fstest"

	"github.com/aretw0/catena/pkg/chain"
	"github.com/aretw0/catena/pkg/domain"
	"github.com/aretw0/catena/pkg/nodes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPDFToText(t *testing.T) {
	n := nodes.PDFToText("pdfToText", nodes.WithDir("testdata"))

	res, err := n.Run(context.Background(), after("hello.pdf"))
	require.NoError(t, err)
	assert.Equal(t, domain.Result{NodeID: "pdfToText", Value: "Hello PDF\nSecond\n\nPage two"}, *res)
}

func TestPDFToText_Settings(t *testing.T) {
	g := chain.New()
	n := nodes.PDFToText("pdfToText")
	g.Register(n).Options(map[string]any{"dir": "testdata", "path": "hello.pdf"})
	require.NoError(t, g.Err())

	res, err := n.Run(context.Background(), after("ignored.pdf"))
	require.NoError(t, err)
	assert.Contains(t, res.Value, "Hello PDF")
}

func TestPDFToText_Errors(t *testing.T) {
	files := fstest.MapFS{
		"plain.pdf":     {Data: []byte("just some text")},
		"truncated.pdf": {Data: []byte("%PDF-1.4\n1 0 obj\n<< /Type /Catalog >>\n")},
	}

	tests := []struct {
		name  string
		fsys  nodes.FileOption
		input string
		want  string
	}{
		{"not a pdf", nodes.WithFS(files), "plain.pdf", "invalid pdf plain.pdf"},
		{"truncated", nodes.WithFS(files), "truncated.pdf", "invalid pdf truncated.pdf"},
		{"no text layer", nodes.WithDir("testdata"), "blank.pdf", "no text layer in blank.pdf"},
		{"missing", nodes.WithFS(files), "gone.pdf", "failed to read gone.pdf"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := nodes.PDFToText("pdfToText", tt.fsys)
			_, err := n.Run(context.Background(), after(tt.input))
			assert.ErrorContains(t, err, tt.want)
		})
	}
}
