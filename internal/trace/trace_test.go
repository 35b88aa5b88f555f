package trace

import (
	"bytes"
	"context"
	"strings"
	"testing"
)

func TestLevelGatesScopes(t *testing.T) {
	var buf bytes.Buffer
	tr, err := New(Config{Level: LevelPhase, Output: &buf})
	if err != nil {
		t.Fatal(err)
	}
	cmd := Begin(tr, ScopeCommand, "build", 0)
	file := Begin(tr, ScopeFile, "parse:a.story", cmd.ID())
	file.End("")
	cmd.WithExtra("files", "1").End("ok")

	out := buf.String()
	if strings.Contains(out, "parse:a.story") {
		t.Fatalf("file scope leaked at phase level:\n%s", out)
	}
	if !strings.Contains(out, "→ build") || !strings.Contains(out, "← build (ok) {files=1}") {
		t.Fatalf("unexpected output:\n%s", out)
	}
	if file.ID() != 0 {
		t.Fatal("suppressed span got an id")
	}
}

func TestContextPropagation(t *testing.T) {
	if FromContext(context.Background()) != Nop {
		t.Fatal("expected Nop without a tracer")
	}
	ring := NewRingTracer(2, LevelDebug)
	ctx := WithTracer(context.Background(), ring)
	span := Begin(FromContext(ctx), ScopePhase, "scan", 0)
	ctx = WithSpan(ctx, span)
	if CurrentSpan(ctx).SpanID != span.ID() {
		t.Fatal("span id not propagated")
	}
	Point(FromContext(ctx), ScopeNode, "divert", "a.b")
	span.End("")

	events := ring.Snapshot()
	if len(events) != 2 || events[0].Kind != KindPoint || events[1].Kind != KindSpanEnd {
		t.Fatalf("ring kept %+v", events)
	}
}

func TestParseLevelAndFormat(t *testing.T) {
	if l, err := ParseLevel("DETAIL"); err != nil || l != LevelDetail {
		t.Fatalf("ParseLevel = %v, %v", l, err)
	}
	if _, err := ParseLevel("loud"); err == nil {
		t.Fatal("expected error")
	}
	if f, err := ParseFormat("ndjson"); err != nil || f != FormatNDJSON {
		t.Fatalf("ParseFormat = %v, %v", f, err)
	}
	line := FormatEvent(&Event{Kind: KindPoint, Scope: ScopeFile, Name: "x"}, FormatNDJSON)
	if !bytes.HasSuffix(line, []byte("}\n")) || !bytes.Contains(line, []byte(`"scope":"file"`)) {
		t.Fatalf("ndjson = %s", line)
	}
}
