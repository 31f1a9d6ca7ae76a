package merge_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/mwantia/webproducer/data"
	wperrors "github.com/mwantia/webproducer/data/errors"
	"github.com/mwantia/webproducer/log"
	"github.com/mwantia/webproducer/merge"
	"github.com/mwantia/webproducer/pipeline"
)

type countingProducer struct {
	name  string
	count int
	err   error
}

func (cp *countingProducer) Name() string {
	return cp.name
}

func (cp *countingProducer) Produce(ctx context.Context, out chan<- *data.VirtualFile) error {
	for i := 0; i < cp.count; i++ {
		file, err := data.NewVirtualFile(fmt.Sprintf("/%s/%03d.txt", cp.name, i),
			data.WithContent([]byte(cp.name)))
		if err != nil {
			return err
		}
		if err := pipeline.Emit(ctx, out, file); err != nil {
			return err
		}
	}

	return cp.err
}

// TestEngine_Completeness verifies every emitted file is merged, counted and
// kept in order per producer.
func TestEngine_Completeness(t *testing.T) {
	engine := merge.NewEngine(log.NewDiscard())
	producers := []pipeline.Producer{
		&countingProducer{name: "a", count: 50},
		&countingProducer{name: "bb", count: 7},
		&countingProducer{name: "ccc", count: 0},
	}

	out, err := engine.Start(t.Context(), producers...)
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	last := map[string]string{}
	received := 0
	for file := range out {
		received++

		dir := file.Path()[:len(file.Path())-len(file.Name())]
		if prev, ok := last[dir]; ok && prev >= file.Path() {
			t.Errorf("Order within producer broken: %s after %s", file.Path(), prev)
		}
		last[dir] = file.Path()

		if file.ContentType() != data.ContentTypeTextPlain {
			t.Errorf("Expected defaulted content type for %s, got %s", file.Path(), file.ContentType())
		}
	}

	result, err := engine.Wait()
	if err != nil {
		t.Fatalf("Wait failed: %v", err)
	}
	if received != 57 || result.FilesEmitted != 57 {
		t.Errorf("Expected 57 files, received %d, counted %d", received, result.FilesEmitted)
	}
	if result.BytesEmitted != 50*1+7*2 {
		t.Errorf("Expected %d bytes, got %d", 50*1+7*2, result.BytesEmitted)
	}
	if result.Producers != 3 {
		t.Errorf("Expected 3 producers, got %d", result.Producers)
	}
	if engine.State() != merge.StateDrained || engine.Active() != 0 {
		t.Errorf("Expected drained engine, got %s with %d active", engine.State(), engine.Active())
	}
}

// TestEngine_Failure verifies a failing producer fails the merge without
// hanging the output.
func TestEngine_Failure(t *testing.T) {
	engine := merge.NewEngine(log.NewDiscard())
	denied := wperrors.StorageAccessDenied(nil, "s3")

	out, err := engine.Start(t.Context(),
		&countingProducer{name: "ok", count: 1000},
		&countingProducer{name: "denied", err: denied})
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	for range out {
	}

	_, err = engine.Wait()
	if !errors.Is(err, wperrors.ErrStorageAccessDenied) {
		t.Errorf("Expected access denied, got %v", err)
	}
	if engine.State() != merge.StateFailed {
		t.Errorf("Expected failed state, got %s", engine.State())
	}
}

func TestEngine_NoProducers(t *testing.T) {
	engine := merge.NewEngine(nil)

	out, err := engine.Start(t.Context())
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if _, open := <-out; open {
		t.Errorf("Expected closed output")
	}
	if _, err := engine.Wait(); err != nil {
		t.Errorf("Wait failed: %v", err)
	}

	if _, err := engine.Start(t.Context()); err == nil {
		t.Errorf("Expected second Start to fail")
	}
}
