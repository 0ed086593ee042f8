package analytics

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// bucketStore is what the recorder needs from persistence.
type bucketStore interface {
	Upsert(ctx context.Context, b Bucket) error
	All(ctx context.Context) ([]Bucket, error)
}

// Recorder applies pushed analytics events to the in-memory series and
// mirrors the touched bucket to MySQL. The local merge always happens;
// persistence is best effort: a failed write is logged for diagnostics and
// never interrupts the stream.
type Recorder struct {
	series *Series
	store  bucketStore // nil when no database is configured
	log    *zap.Logger
}

func NewRecorder(series *Series, repo *Repo, log *zap.Logger) *Recorder {
	rc := &Recorder{series: series, log: log}
	if repo != nil {
		rc.store = repo
	}
	return rc
}

// Restore loads persisted buckets into the series at startup.
func (rc *Recorder) Restore(ctx context.Context) {
	if rc.store == nil {
		return
	}
	buckets, err := rc.store.All(ctx)
	if err != nil {
		rc.log.Warn("restore analytics buckets failed", zap.Error(err))
		return
	}
	rc.series.Load(buckets)
}

// HandleEvent is wired as the stream's analytics callback. The merge happens
// on the caller's goroutine; the database write happens off it so a slow
// database never stalls stream consumption.
func (rc *Recorder) HandleEvent(data []byte) {
	ev, err := ParseEvent(data)
	if err != nil {
		rc.log.Warn("undecodable analytics event", zap.Error(err))
		return
	}
	b := rc.series.Apply(ev)
	if rc.store == nil {
		return
	}
	go rc.persist(b)
}

func (rc *Recorder) persist(b Bucket) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rc.store.Upsert(ctx, b); err != nil {
		rc.log.Warn("persist analytics bucket failed", zap.String("day", b.Date), zap.Error(err))
	}
}

// Snapshot exposes the current series for the dashboard endpoint.
func (rc *Recorder) Snapshot() []Bucket { return rc.series.Snapshot() }
