package source

import (
	"context"
	"fmt"

	"github.com/calebmi254/Safety-and-Security-management-system/internal/config"
	"github.com/calebmi254/Safety-and-Security-management-system/internal/model"
)

// Source is one feed adapter. Ingest drives the full fetch → transform →
// persist → checkpoint cycle for its feed and reports a uniform summary; it
// never panics and never returns an error directly, failures are folded into
// the RunResult.
type Source interface {
	Name() string
	Ingest(ctx context.Context) model.RunResult
}

// Store is the slice of the persistence layer the adapters need. Implemented
// by store.DB; tests substitute in-memory fakes.
type Store interface {
	UpsertEvent(ctx context.Context, ev model.Event) (bool, error)
	InsertSignal(ctx context.Context, sig model.MediaSignal) (bool, error)
	Checkpoint(ctx context.Context, source string) (model.Checkpoint, error)
	MarkFileProcessed(ctx context.Context, source, filename string) error
	UpdateRunStatus(ctx context.Context, source string, count int, status, errMsg string) error
}

// Enricher resolves a best-effort headline for a URL. An empty return means
// no title could be extracted.
type Enricher interface {
	Headline(ctx context.Context, url string) string
}

func NewFromConfig(c config.SourceConfig, db Store) (Source, error) {
	switch c.Type {
	case "gdelt_event":
		return NewGDELTEvents(c.EventFeed, db), nil
	case "gdelt_doc":
		return NewGDELTDoc(c.DocFeed, db), nil
	default:
		return nil, fmt.Errorf("unknown source type: %s", c.Type)
	}
}

func errResult(err error) model.RunResult {
	return model.RunResult{Status: model.StatusError, Error: err.Error()}
}
