package query

import (
	"context"
	"log/slog"
	"testing"
)

func uptr(v uint64) *uint64 { return &v }

// scriptedPage drives the fake logview handler; each Exec("logview") call
// consumes the next page in order, and the final page repeats.
type scriptedPage struct {
	lines    []string
	lastPos  *uint64
	fileSize *uint64
}

type logScript struct {
	pages []scriptedPage
	calls []*Command
}

func (s *logScript) exec(cmd *Command, out any) ([]string, error) {
	if cmd.Name != "logview" {
		return nil, nil
	}
	s.calls = append(s.calls, cmd)
	idx := len(s.calls) - 1
	if idx >= len(s.pages) {
		idx = len(s.pages) - 1
	}
	p := s.pages[idx]

	records := out.(*[]logviewRecord)
	for _, l := range p.lines {
		*records = append(*records, logviewRecord{Line: l})
	}
	*records = append(*records, logviewRecord{LastPos: p.lastPos, FileSize: p.fileSize})
	return nil, nil
}

func (s *logScript) arg(call int, key string) (any, bool) {
	for _, a := range s.calls[call].Args {
		if a.Key == key {
			return a.Value, true
		}
	}
	return nil, false
}

func testLogReader(t *testing.T, script *logScript) *LogReader {
	t.Helper()
	conn := &fakeConn{exec: script.exec}
	m := testManager(t, conn, Credentials{})
	r := NewLogReader(m.Shared(), slog.Default())
	r.delay = 0
	return r
}

func TestFetchPage_ClampsLines(t *testing.T) {
	script := &logScript{pages: []scriptedPage{{lines: []string{"a"}, lastPos: uptr(10)}}}
	r := testLogReader(t, script)

	page, err := r.FetchPage(context.Background(), LogQuery{Lines: 500})
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if got, _ := script.arg(0, "lines"); got != 100 {
		t.Fatalf("lines arg = %v, want 100", got)
	}
	if len(page.Lines) != 1 || page.Lines[0] != "a" {
		t.Fatalf("page lines = %v", page.Lines)
	}
	if page.LastPos == nil || *page.LastPos != 10 {
		t.Fatalf("last pos = %v, want 10", page.LastPos)
	}
}

func TestFetchPage_PassesCursorAndFlags(t *testing.T) {
	script := &logScript{pages: []scriptedPage{{}}}
	r := testLogReader(t, script)

	pos := uint64(42)
	if _, err := r.FetchPage(context.Background(), LogQuery{Lines: 5, Reverse: true, Instance: true, BeginPos: &pos}); err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if got, _ := script.arg(0, "reverse"); got != 1 {
		t.Fatalf("reverse arg = %v, want 1", got)
	}
	if got, _ := script.arg(0, "instance"); got != 1 {
		t.Fatalf("instance arg = %v, want 1", got)
	}
	if got, _ := script.arg(0, "begin_pos"); got != uint64(42) {
		t.Fatalf("begin_pos arg = %v, want 42", got)
	}
}

func TestFetchAll_HaltsWithoutCursor(t *testing.T) {
	script := &logScript{pages: []scriptedPage{{lines: []string{"a", "b"}}}}
	r := testLogReader(t, script)

	res, err := r.FetchAll(context.Background(), LogQuery{Lines: 50})
	if err != nil {
		t.Fatalf("fetch all: %v", err)
	}
	if res.Iterations != 0 {
		t.Fatalf("iterations = %d, want 0", res.Iterations)
	}
	if len(res.Lines) != 2 {
		t.Fatalf("lines = %v", res.Lines)
	}
	if res.Truncated {
		t.Fatal("walk marked truncated on a natural halt")
	}
}

func TestFetchAll_HaltsOnEmptyPage(t *testing.T) {
	script := &logScript{pages: []scriptedPage{{lastPos: uptr(7)}}}
	r := testLogReader(t, script)

	res, err := r.FetchAll(context.Background(), LogQuery{Lines: 50})
	if err != nil {
		t.Fatalf("fetch all: %v", err)
	}
	if res.Iterations != 0 || len(res.Lines) != 0 {
		t.Fatalf("iterations = %d, lines = %v", res.Iterations, res.Lines)
	}
}

func TestFetchAll_HaltsOnZeroCursor(t *testing.T) {
	script := &logScript{pages: []scriptedPage{{lines: []string{"a"}, lastPos: uptr(0)}}}
	r := testLogReader(t, script)

	res, err := r.FetchAll(context.Background(), LogQuery{Lines: 50})
	if err != nil {
		t.Fatalf("fetch all: %v", err)
	}
	if res.Iterations != 0 {
		t.Fatalf("iterations = %d, want 0", res.Iterations)
	}
	if res.FinalPos != 0 {
		t.Fatalf("final pos = %d, want 0", res.FinalPos)
	}
}

func TestFetchAll_WalksCursorChain(t *testing.T) {
	script := &logScript{pages: []scriptedPage{
		{lines: []string{"a", "b"}, lastPos: uptr(30)},
		{lines: []string{"c"}, lastPos: uptr(20)},
		{lines: []string{"d"}, lastPos: uptr(20)},
	}}
	r := testLogReader(t, script)

	res, err := r.FetchAll(context.Background(), LogQuery{Lines: 2})
	if err != nil {
		t.Fatalf("fetch all: %v", err)
	}
	if res.Iterations != 2 {
		t.Fatalf("iterations = %d, want 2", res.Iterations)
	}
	want := []string{"a", "b", "c", "d"}
	if len(res.Lines) != len(want) {
		t.Fatalf("lines = %v, want %v", res.Lines, want)
	}
	for i := range want {
		if res.Lines[i] != want[i] {
			t.Fatalf("lines[%d] = %q, want %q", i, res.Lines[i], want[i])
		}
	}
	if res.Truncated {
		t.Fatal("walk marked truncated on a repeated-cursor halt")
	}

	// Continuation pages ask for a single line from the prior cursor.
	if got, _ := script.arg(1, "lines"); got != 1 {
		t.Fatalf("continuation lines arg = %v, want 1", got)
	}
	if got, _ := script.arg(1, "begin_pos"); got != uint64(30) {
		t.Fatalf("continuation begin_pos = %v, want 30", got)
	}
	if got, _ := script.arg(2, "begin_pos"); got != uint64(20) {
		t.Fatalf("third begin_pos = %v, want 20", got)
	}
}

func TestFetchAll_TruncatesAtIterationCap(t *testing.T) {
	// Every page reports a fresh cursor, so only the cap stops the walk.
	pages := make([]scriptedPage, 10)
	for i := range pages {
		pages[i] = scriptedPage{lines: []string{"x"}, lastPos: uptr(uint64(1000 - i))}
	}
	script := &logScript{pages: pages}
	r := testLogReader(t, script)

	res, err := r.FetchAll(context.Background(), LogQuery{Lines: 1, MaxIterations: 3})
	if err != nil {
		t.Fatalf("fetch all: %v", err)
	}
	if !res.Truncated {
		t.Fatal("walk not marked truncated at the iteration cap")
	}
	if res.Iterations != 3 {
		t.Fatalf("iterations = %d, want 3", res.Iterations)
	}
	// The first page does not count against the cap.
	if len(script.calls) != 4 {
		t.Fatalf("logview calls = %d, want 4", len(script.calls))
	}
}

func TestFetchAll_CountsOnlyContinuations(t *testing.T) {
	// Cursor chain 5, 2, 2 with one line per page: the walk issues two
	// continuation fetches before the repeated cursor halts it, well under
	// the cap of three.
	script := &logScript{pages: []scriptedPage{
		{lines: []string{"a"}, lastPos: uptr(5)},
		{lines: []string{"b"}, lastPos: uptr(2)},
		{lines: []string{"c"}, lastPos: uptr(2)},
	}}
	r := testLogReader(t, script)

	res, err := r.FetchAll(context.Background(), LogQuery{Lines: 1, Reverse: true, MaxIterations: 3})
	if err != nil {
		t.Fatalf("fetch all: %v", err)
	}
	if res.Iterations != 2 {
		t.Fatalf("iterations = %d, want 2", res.Iterations)
	}
	if len(res.Lines) != 3 {
		t.Fatalf("lines = %v, want 3 entries", res.Lines)
	}
	if res.FinalPos != 2 {
		t.Fatalf("final pos = %d, want 2", res.FinalPos)
	}
	if res.Truncated {
		t.Fatal("walk marked truncated on a repeated-cursor halt")
	}
}

func TestFetchAll_CanceledContext(t *testing.T) {
	script := &logScript{pages: []scriptedPage{
		{lines: []string{"a"}, lastPos: uptr(30)},
		{lines: []string{"b"}, lastPos: uptr(20)},
	}}
	conn := &fakeConn{exec: script.exec}
	m := testManager(t, conn, Credentials{})
	r := NewLogReader(m.Shared(), slog.Default())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := r.FetchAll(ctx, LogQuery{Lines: 1}); err == nil {
		t.Fatal("expected context cancellation error")
	}
}
