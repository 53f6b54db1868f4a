package nodes

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"strings"

	"github.com/aretw0/catena/pkg/chain"
	"github.com/aretw0/catena/pkg/domain"
)

// CSVNode converts CSV data into plain text, one line per record with fields
// joined by a separator.
type CSVNode struct {
	chain.Base
	src      fileSource
	settings csvSettings
}

type csvSettings struct {
	Dir       string `mapstructure:"dir"`
	Path      string `mapstructure:"path"`
	Inline    bool   `mapstructure:"inline"`
	Header    bool   `mapstructure:"header"`
	Comma     string `mapstructure:"comma"`
	Separator string `mapstructure:"separator"`
}

// CSVToText creates a CSVNode. By default the previous result names the CSV
// file; with the "inline" setting it is the CSV text itself.
func CSVToText(id string, opts ...FileOption) *CSVNode {
	return &CSVNode{
		Base:     chain.Base{NodeID: id},
		src:      newFileSource(opts),
		settings: csvSettings{Comma: ",", Separator: ", "},
	}
}

// Configure implements chain.Configurable.
// Supported settings: "dir", "path", "inline", "header" (render as
// "column: value" pairs), "comma" (input delimiter), "separator".
func (n *CSVNode) Configure(settings map[string]any) error {
	s := csvSettings{Comma: ",", Separator: ", "}
	if err := chain.DecodeSettings(settings, &s); err != nil {
		return err
	}
	if len([]rune(s.Comma)) != 1 {
		return fmt.Errorf("comma must be a single character, got %q", s.Comma)
	}
	n.settings = s
	n.src.configure(s.Dir, s.Path)
	return nil
}

func (n *CSVNode) Run(ctx context.Context, rc *domain.Context) (*domain.Result, error) {
	var data []byte
	if n.settings.Inline {
		text, err := lastString(rc)
		if err != nil {
			return nil, err
		}
		data = []byte(text)
	} else {
		name, err := n.src.name(rc)
		if err != nil {
			return nil, err
		}
		if data, err = n.src.read(name); err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", name, err)
		}
	}

	text, err := n.convert(data)
	if err != nil {
		return nil, err
	}
	return n.Result(text), nil
}

func (n *CSVNode) convert(data []byte) (string, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.Comma = []rune(n.settings.Comma)[0]
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	records, err := r.ReadAll()
	if err != nil {
		return "", fmt.Errorf("invalid csv: %w", err)
	}

	var header []string
	if n.settings.Header && len(records) > 0 {
		header, records = records[0], records[1:]
	}

	lines := make([]string, 0, len(records))
	for _, rec := range records {
		if header != nil {
			pairs := make([]string, len(rec))
			for i, field := range rec {
				col := fmt.Sprintf("column%d", i+1)
				if i < len(header) {
					col = header[i]
				}
				pairs[i] = col + ": " + field
			}
			rec = pairs
		}
		lines = append(lines, strings.Join(rec, n.settings.Separator))
	}
	return strings.Join(lines, "\n"), nil
}
