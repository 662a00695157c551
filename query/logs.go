package query

import (
	"context"
	"log/slog"
	"time"
)

const (
	// maxLinesPerPage is the server-side ceiling on lines per logview call.
	maxLinesPerPage = 100

	// defaultPageDelay spaces out consecutive logview calls so the walk
	// does not flood the server.
	defaultPageDelay = 100 * time.Millisecond

	// DefaultMaxIterations bounds a log walk when the caller does not say
	// otherwise.
	DefaultMaxIterations = 100
)

// LogQuery describes one logview request.
type LogQuery struct {
	// Lines is the number of lines requested on the first page, clamped to
	// the server maximum of 100.
	Lines int
	// Reverse walks the log newest-first when true.
	Reverse bool
	// Instance selects the instance log instead of the virtual server log.
	Instance bool
	// BeginPos resumes the walk at a prior cursor position.
	BeginPos *uint64
	// MaxIterations caps the number of logview calls a full walk may
	// issue. Zero means DefaultMaxIterations.
	MaxIterations int
}

// LogPage is the decoded result of a single logview call.
type LogPage struct {
	Lines    []string
	LastPos  *uint64
	FileSize *uint64
}

// LogResult is the outcome of a full cursor walk.
type LogResult struct {
	Lines []string
	// Iterations counts the continuation fetches that followed the first
	// page; a walk satisfied by the first page reports zero.
	Iterations int
	FinalPos   uint64
	// Truncated is set when the walk stopped at the iteration cap rather
	// than a natural halt condition.
	Truncated bool
}

type logviewRecord struct {
	Line     string  `ms:"l"`
	LastPos  *uint64 `ms:"last_pos"`
	FileSize *uint64 `ms:"file_size"`
}

// LogReader walks logview pages over a session.
type LogReader struct {
	sess  *Session
	log   *slog.Logger
	delay time.Duration
}

// NewLogReader builds a LogReader over the given session.
func NewLogReader(sess *Session, log *slog.Logger) *LogReader {
	if log == nil {
		log = slog.Default()
	}
	return &LogReader{sess: sess, log: log, delay: defaultPageDelay}
}

// FetchPage issues one logview call and decodes the page. The cursor fields
// arrive once per batch; only the last populated value is kept.
func (r *LogReader) FetchPage(ctx context.Context, q LogQuery) (*LogPage, error) {
	lines := q.Lines
	if lines < 1 {
		lines = 1
	}
	if lines > maxLinesPerPage {
		lines = maxLinesPerPage
	}
	cmd := NewCommand("logview").
		WithArg("lines", lines).
		WithArg("reverse", boolArg(q.Reverse)).
		WithArg("instance", boolArg(q.Instance))
	if q.BeginPos != nil {
		cmd = cmd.WithArg("begin_pos", *q.BeginPos)
	}

	var records []logviewRecord
	if _, err := r.sess.Exec(ctx, cmd, &records); err != nil {
		return nil, err
	}

	page := &LogPage{}
	for _, rec := range records {
		if rec.Line != "" {
			page.Lines = append(page.Lines, rec.Line)
		}
		if rec.LastPos != nil {
			page.LastPos = rec.LastPos
		}
		if rec.FileSize != nil {
			page.FileSize = rec.FileSize
		}
	}
	return page, nil
}

// FetchAll walks the log from the first page until a halt condition or the
// iteration cap. After the first page the walk advances one line at a time
// from the reported cursor; MaxIterations caps those continuations, not the
// initial page. Halt conditions:
//   - a page with no lines
//   - a page carrying no cursor
//   - a cursor of zero (start of file reached)
//   - a cursor equal to the previous one (no progress)
func (r *LogReader) FetchAll(ctx context.Context, q LogQuery) (*LogResult, error) {
	maxIterations := q.MaxIterations
	if maxIterations <= 0 {
		maxIterations = DefaultMaxIterations
	}

	res := &LogResult{}
	page, err := r.FetchPage(ctx, q)
	if err != nil {
		return nil, err
	}
	res.Lines = append(res.Lines, page.Lines...)

	var current uint64
	for {
		if len(page.Lines) == 0 || page.LastPos == nil {
			return res, nil
		}
		next := *page.LastPos
		if next == 0 || (res.Iterations > 0 && next == current) {
			res.FinalPos = next
			return res, nil
		}
		current = next
		res.FinalPos = current

		if res.Iterations >= maxIterations {
			res.Truncated = true
			r.log.Debug("log walk hit iteration cap", slog.Int("iterations", res.Iterations))
			return res, nil
		}

		if err := sleepCtx(ctx, r.delay); err != nil {
			return nil, err
		}

		page, err = r.FetchPage(ctx, LogQuery{
			Lines:    1,
			Reverse:  q.Reverse,
			Instance: q.Instance,
			BeginPos: &current,
		})
		if err != nil {
			return nil, err
		}
		res.Iterations++
		res.Lines = append(res.Lines, page.Lines...)
	}
}

func boolArg(b bool) int {
	if b {
		return 1
	}
	return 0
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
