package processing_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"podbench/internal/processing"
)

type recordedCall struct {
	name string
	args []string
}

func newRecordingAdapter(t *testing.T, binary string) (*processing.CommandAdapter, *[]recordedCall) {
	t.Helper()
	adapter := processing.NewCommandAdapter(binary)
	var calls []recordedCall
	adapter.WithCommandRunner(func(ctx context.Context, name string, args ...string) error {
		calls = append(calls, recordedCall{name: name, args: args})
		return nil
	})
	return adapter, &calls
}

func TestPreprocessArgs(t *testing.T) {
	adapter, calls := newRecordingAdapter(t, "podbench-processor")
	req := processing.PreprocessRequest{SourceDir: "/data/src", OutputDir: "/data/out"}
	if err := adapter.Preprocess(context.Background(), req); err != nil {
		t.Fatalf("Preprocess failed: %v", err)
	}
	if len(*calls) != 1 {
		t.Fatalf("expected one invocation, got %d", len(*calls))
	}
	call := (*calls)[0]
	if call.name != "podbench-processor" {
		t.Fatalf("unexpected binary: %s", call.name)
	}
	want := []string{"preprocess", "--source-dir", "/data/src", "--output-dir", "/data/out"}
	if strings.Join(call.args, " ") != strings.Join(want, " ") {
		t.Fatalf("unexpected args: %v", call.args)
	}
}

func TestEditArgsIncludeEditorStateWhenPresent(t *testing.T) {
	adapter, calls := newRecordingAdapter(t, "proc")
	req := processing.EditRequest{
		InputDir:     "/in",
		OutputDir:    "/out",
		CombinedPath: "/root/combined.wav",
	}
	if err := adapter.Edit(context.Background(), req); err != nil {
		t.Fatalf("Edit failed: %v", err)
	}
	if strings.Contains(strings.Join((*calls)[0].args, " "), "--editor-state") {
		t.Fatalf("did not expect editor state flag: %v", (*calls)[0].args)
	}

	req.EditorStatePath = "/tmp/state.json"
	if err := adapter.Edit(context.Background(), req); err != nil {
		t.Fatalf("Edit with state failed: %v", err)
	}
	joined := strings.Join((*calls)[1].args, " ")
	if !strings.Contains(joined, "--editor-state /tmp/state.json") {
		t.Fatalf("expected editor state flag, got %v", (*calls)[1].args)
	}
}

func TestOperationValidation(t *testing.T) {
	adapter, _ := newRecordingAdapter(t, "proc")
	ctx := context.Background()

	if err := adapter.Preprocess(ctx, processing.PreprocessRequest{OutputDir: "/out"}); err == nil {
		t.Fatal("expected missing source dir to be rejected")
	}
	if err := adapter.Edit(ctx, processing.EditRequest{InputDir: "/in", OutputDir: "/out"}); err == nil {
		t.Fatal("expected missing combined path to be rejected")
	}
	if err := adapter.Postprocess(ctx, processing.PostprocessRequest{InputDir: "/in"}); err == nil {
		t.Fatal("expected missing output dir to be rejected")
	}
	if err := adapter.GenerateMetadata(ctx, processing.MetadataRequest{AudioPath: "/a.wav", OutputDir: "/out"}); err == nil {
		t.Fatal("expected missing transcript to be rejected")
	}
}

func TestRunnerErrorsAreWrapped(t *testing.T) {
	adapter := processing.NewCommandAdapter("proc")
	boom := errors.New("exit status 1")
	adapter.WithCommandRunner(func(ctx context.Context, name string, args ...string) error {
		return boom
	})

	err := adapter.Postprocess(context.Background(), processing.PostprocessRequest{InputDir: "/in", OutputDir: "/out"})
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped runner error, got %v", err)
	}
	if !strings.HasPrefix(err.Error(), "postprocess:") {
		t.Fatalf("expected operation prefix, got %q", err.Error())
	}
}
