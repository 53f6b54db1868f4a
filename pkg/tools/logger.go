package tools

import (
	"log/slog"
	"sort"

	"github.com/aretw0/catena/pkg/domain"
)

// Logger returns a logger tool writing to logger at info level.
// Metadata keys are emitted in sorted order.
func Logger(logger *slog.Logger) domain.LoggerFunc {
	return func(msg string, meta map[string]any) {
		keys := make([]string, 0, len(meta))
		for k := range meta {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		attrs := make([]any, 0, 2*len(keys))
		for _, k := range keys {
			attrs = append(attrs, k, meta[k])
		}
		logger.Info(msg, attrs...)
	}
}

// Default returns the standard tool set: the HTTP tool and a logger tool.
// The LLM tool is left for the caller to choose.
func Default(logger *slog.Logger) *domain.Tools {
	return &domain.Tools{
		HTTP:   HTTP(),
		Logger: Logger(logger),
	}
}
