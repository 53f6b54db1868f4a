// Package pipeline assembles ready-to-run agents from catalogue nodes.
package pipeline

import (
	"fmt"
	"io/fs"
	"log/slog"

	"github.com/aretw0/catena"
	"github.com/aretw0/catena/pkg/domain"
	"github.com/aretw0/catena/pkg/nodes"
	"github.com/aretw0/catena/pkg/routing"
)

// Node ids of the file-to-text pipeline.
const (
	LoadFileID      = "loadFile"
	RouterID        = "router"
	CSVToTextID     = "csvToText"
	ReadFileID      = "readFile"
	PDFToTextID     = "pdfToText"
	ChunkID         = "chunk"
	LogID           = "log"
	ErrorReporterID = "errorReporter"
)

// FileToTextNodes lists the node ids of FileToText.
var FileToTextNodes = []string{LoadFileID, RouterID, CSVToTextID, ReadFileID, PDFToTextID, ChunkID, LogID, ErrorReporterID}

// DefaultSystem is the system instruction used when none is configured.
const DefaultSystem = "You convert uploaded files to plain text."

// FileToTextConfig configures FileToText.
type FileToTextConfig struct {
	// Files is where file names are resolved. Nil means the working directory.
	Files fs.FS
	// Settings holds per-node settings keyed by node id.
	Settings map[string]map[string]any
	Context  domain.Context
	Options  []catena.Option
	Logger   *slog.Logger
}

// FileToText builds the file conversion agent:
//
//	loadFile → router ─┬─ csv ───── csvToText ─────┬→ log
//	                   ├─ txt|md ── readFile ──┬→ chunk ┘
//	                   └─ pdf ───── pdfToText ─┘
//
// with errorReporter as the global error handler. Both text branches share
// the chunk node. The user request names the file.
// Settings for an unknown node id or settings a node rejects are errors.
func FileToText(cfg FileToTextConfig) (*catena.Agent, error) {
	if cfg.Context.Instructions.System == "" {
		cfg.Context.Instructions.System = DefaultSystem
	}
	opts := cfg.Options
	if cfg.Logger != nil {
		opts = append([]catena.Option{catena.WithLogger(cfg.Logger)}, opts...)
	}
	agent := catena.New(cfg.Context, append([]catena.Option{catena.WithName("file-to-text")}, opts...)...)
	g := agent.Graph()

	var fileOpts []nodes.FileOption
	if cfg.Files != nil {
		fileOpts = append(fileOpts, nodes.WithFS(cfg.Files))
	}

	csvBranch := g.Register(nodes.CSVToText(CSVToTextID, fileOpts...))
	textBranch := g.Register(nodes.ReadFile(ReadFileID, fileOpts...))
	chunk := textBranch.Add(nodes.Chunk(ChunkID))
	pdfBranch := g.Register(nodes.PDFToText(PDFToTextID, fileOpts...))
	pdfBranch.SetNext(chunk)

	router := routing.New(RouterID,
		routing.WithSuffixes(map[string]routing.Category{
			".csv": "csv",
			".pdf": "pdf",
			".txt": "text",
			".md":  "text",
		}),
		routing.Branch("csv", csvBranch),
		routing.Branch("text", textBranch),
		routing.Branch("pdf", pdfBranch),
	)

	agent.Add(nodes.Request(LoadFileID))
	agent.Add(router)
	agent.Add(nodes.Log(LogID))

	reporter := nodes.ErrorReporter(ErrorReporterID)
	if cfg.Logger != nil {
		reporter.WithLogger(cfg.Logger)
	}
	agent.Error(reporter)

	for id, settings := range cfg.Settings {
		l, ok := g.Lookup(id)
		if !ok {
			return nil, fmt.Errorf("settings for node '%s': %w", id, domain.ErrNotFound)
		}
		l.Options(settings)
	}
	if err := g.Err(); err != nil {
		return nil, err
	}
	return agent, nil
}
