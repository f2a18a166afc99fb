package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
)

func TestSpanBridgeEmitsChainedSpanEvents(t *testing.T) {
	buf := &bytes.Buffer{}
	l := newTestLogger(buf)
	bridge := NewSpanBridge(l, "test")

	ctx, end := bridge.StartSpan(context.Background(), "copy-tree", "job-1")
	if ctx == nil {
		t.Fatal("expected a span-carrying context")
	}
	if _, err := l.Emit(FileComplete, "job-1", "a.bin", "", "", nil); err != nil {
		t.Fatalf("Emit: %v", err)
	}
	end()

	res, err := Verify(strings.NewReader(buf.String()), []byte("test-secret"))
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if !res.Valid || res.EventsRead != 3 {
		t.Fatalf("expected a valid 3-event log, got %+v", res)
	}

	var kinds []EventKind
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		var e OrbitEvent
		if err := json.Unmarshal([]byte(line), &e); err != nil {
			t.Fatalf("unmarshal line: %v", err)
		}
		kinds = append(kinds, e.Kind)
	}
	want := []EventKind{SpanStart, FileComplete, SpanEnd}
	for i, k := range want {
		if kinds[i] != k {
			t.Fatalf("event %d: got kind %s, want %s", i, kinds[i], k)
		}
	}
}
