package cli

import (
	"encoding/json"
	"strings"
	"testing"
)

func resetHistoryFlags(t *testing.T) {
	t.Helper()
	t.Cleanup(func() {
		historyAll = false
		historyLimit = 50
	})
}

func TestRunHistoryRequiresRevisionArg(t *testing.T) {
	resetHistoryFlags(t)

	var err error
	output := captureCLIStdout(func() {
		err = runHistory(newTestCommand(t), nil)
	})

	if err == nil || !strings.Contains(err.Error(), "revision id required") {
		t.Fatalf("expected revision id error, got %v", err)
	}
	if !strings.Contains(output, "--all") {
		t.Errorf("expected hint about --all, got %q", output)
	}
}

func TestRunHistoryRequiresFileBackend(t *testing.T) {
	c := withTestConfig(t)
	app := newMemoryApp(t, c)
	withStubContainerApp(t, app)
	resetHistoryFlags(t)

	var err error
	captureCLIStdout(func() {
		err = runHistory(newTestCommand(t), []string{"rev_anything"})
	})

	if err == nil || !strings.Contains(err.Error(), "no event log") {
		t.Fatalf("expected event log error on memory backend, got %v", err)
	}
}

func TestRunHistoryLoadsRevisionTrail(t *testing.T) {
	c := withTestConfig(t)
	app := newFileApp(t, c)
	withStubContainerApp(t, app)
	resetHistoryFlags(t)
	withJSONOutput(t, true)

	submitted := submitRevision(t, app, "PO-7001", 1000, 1100)

	var err error
	output := captureCLIStdout(func() {
		err = runHistory(newTestCommand(t), []string{string(submitted.RevisionID)})
	})
	if err != nil {
		t.Fatalf("runHistory: %v", err)
	}

	var events []HistoryEventOutput
	if err := json.Unmarshal([]byte(output), &events); err != nil {
		t.Fatalf("failed to parse output: %v\n%s", err, output)
	}
	if len(events) != 3 {
		t.Fatalf("expected 3 events, got %d", len(events))
	}

	wantNames := []string{"revision.created", "revision.submitted", "chain.started"}
	for i, event := range events {
		if event.EventName != wantNames[i] {
			t.Errorf("event %d: expected %s, got %s", i, wantNames[i], event.EventName)
		}
		if event.SubjectID != string(submitted.RevisionID) {
			t.Errorf("event %d: expected subject %s, got %s", i, submitted.RevisionID, event.SubjectID)
		}
		if event.Sequence != int64(i+1) {
			t.Errorf("event %d: expected sequence %d, got %d", i, i+1, event.Sequence)
		}
		if len(event.Payload) == 0 {
			t.Errorf("event %d: expected a payload", i)
		}
	}
}

func TestRunHistoryLimitKeepsNewest(t *testing.T) {
	c := withTestConfig(t)
	app := newFileApp(t, c)
	withStubContainerApp(t, app)
	resetHistoryFlags(t)
	withJSONOutput(t, true)

	submitted := submitRevision(t, app, "PO-7002", 1000, 1100)
	historyLimit = 2

	var err error
	output := captureCLIStdout(func() {
		err = runHistory(newTestCommand(t), []string{string(submitted.RevisionID)})
	})
	if err != nil {
		t.Fatalf("runHistory: %v", err)
	}

	var events []HistoryEventOutput
	if err := json.Unmarshal([]byte(output), &events); err != nil {
		t.Fatalf("failed to parse output: %v\n%s", err, output)
	}
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	if events[0].Sequence != 2 || events[1].Sequence != 3 {
		t.Errorf("expected the newest events 2 and 3, got %d and %d",
			events[0].Sequence, events[1].Sequence)
	}
}

func TestRunHistoryAllSpansRevisions(t *testing.T) {
	c := withTestConfig(t)
	app := newFileApp(t, c)
	withStubContainerApp(t, app)
	resetHistoryFlags(t)
	withJSONOutput(t, true)

	first := submitRevision(t, app, "PO-7003", 1000, 1100)
	second := submitRevision(t, app, "PO-7004", 20000, 20600)
	historyAll = true

	var err error
	output := captureCLIStdout(func() {
		err = runHistory(newTestCommand(t), nil)
	})
	if err != nil {
		t.Fatalf("runHistory: %v", err)
	}

	var events []HistoryEventOutput
	if err := json.Unmarshal([]byte(output), &events); err != nil {
		t.Fatalf("failed to parse output: %v\n%s", err, output)
	}

	subjects := make(map[string]bool)
	for _, event := range events {
		subjects[event.SubjectID] = true
	}
	if !subjects[string(first.RevisionID)] || !subjects[string(second.RevisionID)] {
		t.Errorf("expected events from both revisions, got subjects %v", subjects)
	}
}

func TestRunHistoryUnknownRevisionEmpty(t *testing.T) {
	c := withTestConfig(t)
	app := newFileApp(t, c)
	withStubContainerApp(t, app)
	resetHistoryFlags(t)
	withJSONOutput(t, false)

	var err error
	output := captureCLIStdout(func() {
		err = runHistory(newTestCommand(t), []string{"rev_never_seen"})
	})
	if err != nil {
		t.Fatalf("runHistory: %v", err)
	}
	if !strings.Contains(output, "No events recorded") {
		t.Errorf("expected empty trail notice, got %q", output)
	}
}

func TestRunHistoryTextOutput(t *testing.T) {
	c := withTestConfig(t)
	app := newFileApp(t, c)
	withStubContainerApp(t, app)
	resetHistoryFlags(t)
	withJSONOutput(t, false)

	submitted := submitRevision(t, app, "PO-7005", 1000, 1100)

	var err error
	output := captureCLIStdout(func() {
		err = runHistory(newTestCommand(t), []string{string(submitted.RevisionID)})
	})
	if err != nil {
		t.Fatalf("runHistory: %v", err)
	}

	for _, want := range []string{"Audit Trail", "EVENT", "revision.created", "chain.started"} {
		if !strings.Contains(output, want) {
			t.Errorf("expected output to contain %q, got:\n%s", want, output)
		}
	}
}
