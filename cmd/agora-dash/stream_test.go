package main

import (
	"strings"
	"testing"

	"agora/pkg/protocol"
)

func TestNewStreamModelReversesOrder(t *testing.T) {
	newestFirst := []protocol.Message{
		{Seq: 3, Body: "third"},
		{Seq: 2, Body: "second"},
		{Seq: 1, Body: "first"},
	}

	sm := newStreamModel("planning", newestFirst)
	if len(sm.messages) != 3 {
		t.Fatalf("len = %d", len(sm.messages))
	}
	if sm.messages[0].Body != "first" || sm.messages[2].Body != "third" {
		t.Errorf("order = %s, %s, %s", sm.messages[0].Body, sm.messages[1].Body, sm.messages[2].Body)
	}
}

func TestStreamView(t *testing.T) {
	theme := DefaultTheme()

	t.Run("no room selected", func(t *testing.T) {
		out := newStreamModel("", nil).View(theme)
		if !strings.Contains(out, "No room selected") {
			t.Errorf("got:\n%s", out)
		}
	})

	t.Run("empty room", func(t *testing.T) {
		out := newStreamModel("planning", nil).View(theme)
		if !strings.Contains(out, "# planning") || !strings.Contains(out, "No messages") {
			t.Errorf("got:\n%s", out)
		}
	})

	t.Run("messages show sender, kind tag and body", func(t *testing.T) {
		msgs := []protocol.Message{
			{Seq: 2, Sender: "tester-1", Body: "task-9 complete", Context: protocol.MessageContext{Kind: protocol.KindTaskComplete}},
			{Seq: 1, Sender: "coder-1", Body: "starting task-9"},
		}
		out := newStreamModel("coordination", msgs).View(theme)
		for _, want := range []string{"coder-1", "starting task-9", "tester-1", "[task-complete]"} {
			if !strings.Contains(out, want) {
				t.Errorf("stream missing %q:\n%s", want, out)
			}
		}
		// Older message renders above the newer one.
		if strings.Index(out, "starting task-9") > strings.Index(out, "task-9 complete") {
			t.Error("messages not in transcript order")
		}
	})
}
