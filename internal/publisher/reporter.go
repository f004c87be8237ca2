package publisher

import (
	"context"
	"log"

	"github.com/fortuna/hoopsdb/internal/loader"
)

// LoadReporter publishes loader progress to the load stream. Publishing is
// best effort: failures are logged and the load goes on.
type LoadReporter struct {
	ctx       context.Context
	publisher *RedisStreamPublisher
	logger    *log.Logger
}

// NewLoadReporter constructs a LoadReporter.
func NewLoadReporter(ctx context.Context, publisher *RedisStreamPublisher, logger *log.Logger) *LoadReporter {
	if logger == nil {
		logger = log.New(log.Writer(), "[publisher] ", log.LstdFlags)
	}
	return &LoadReporter{ctx: ctx, publisher: publisher, logger: logger}
}

func (r *LoadReporter) OnRunStart(loader.Manifest) {}
func (r *LoadReporter) OnFileStart(loader.Entry, int, int) {}
func (r *LoadReporter) OnRecordSkipped(loader.Entry, error) {}

func (r *LoadReporter) OnFileLoaded(result loader.FileResult) {
	r.publish(LoadEvent{
		Type:     EventFileLoaded,
		Table:    result.Entry.Table,
		Season:   result.Entry.Season,
		Path:     result.Entry.Path,
		Inserted: result.Inserted,
		Updated:  result.Updated,
	})
}

func (r *LoadReporter) OnFileError(entry loader.Entry, err error) {
	r.publish(LoadEvent{
		Type:   EventFileFailed,
		Table:  entry.Table,
		Season: entry.Season,
		Path:   entry.Path,
		Error:  err.Error(),
	})
}

func (r *LoadReporter) OnRunComplete(summary *loader.RunSummary) {
	r.publish(LoadEvent{
		Type:     EventRunCompleted,
		Inserted: summary.Inserted(),
		Updated:  summary.Updated(),
		Failed:   len(summary.Failed),
	})
}

func (r *LoadReporter) OnRunError(err error) {
	r.publish(LoadEvent{Type: EventRunFailed, Error: err.Error()})
}

func (r *LoadReporter) publish(event LoadEvent) {
	if err := r.publisher.PublishLoadEvent(r.ctx, event); err != nil {
		r.logger.Printf("Warning: failed to publish %s event: %v", event.Type, err)
	}
}
