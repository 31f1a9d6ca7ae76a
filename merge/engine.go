package merge

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/mwantia/webproducer/data"
	"github.com/mwantia/webproducer/log"
	"github.com/mwantia/webproducer/pipeline"
)

// State is the lifecycle position of an Engine.
type State int32

const (
	StateIdle State = iota
	StateActive
	StateDrained
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateActive:
		return "active"
	case StateDrained:
		return "drained"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// Result holds the counters accumulated over every merged file.
type Result struct {
	Producers    int
	FilesEmitted int64
	BytesEmitted int64
}

// Engine fans the output of several producers into one channel. Order is
// kept per producer, files of different producers interleave.
type Engine struct {
	logger *log.Logger

	state     atomic.Int32
	active    atomic.Int64
	files     atomic.Int64
	bytes     atomic.Int64
	producers int

	errOnce sync.Once
	err     error
	cancel  context.CancelFunc
	done    chan struct{}
}

func NewEngine(logger *log.Logger) *Engine {
	if logger == nil {
		logger = log.NewDiscard()
	}

	return &Engine{
		logger: logger.Named("merge"),
		done:   make(chan struct{}),
	}
}

// Start runs every producer and returns the merged output. The channel is
// closed once all producers returned. After a failure the remaining output
// is discarded and the producers' context is cancelled.
func (e *Engine) Start(ctx context.Context, producers ...pipeline.Producer) (<-chan *data.VirtualFile, error) {
	if !e.state.CompareAndSwap(int32(StateIdle), int32(StateActive)) {
		return nil, fmt.Errorf("merge engine already started, state is %s", e.State())
	}

	out := make(chan *data.VirtualFile)
	e.producers = len(producers)

	if len(producers) == 0 {
		e.state.Store(int32(StateDrained))
		close(out)
		close(e.done)
		return out, nil
	}

	ctx, e.cancel = context.WithCancel(ctx)

	// Registered before any producer runs, so the count can only reach zero
	// after the last one finished
	e.active.Store(int64(len(producers)))

	for _, producer := range producers {
		in := make(chan *data.VirtualFile)

		go func() {
			defer close(in)

			e.logger.Debug("Starting producer '%s'", producer.Name())
			if err := producer.Produce(ctx, in); err != nil {
				e.fail(fmt.Errorf("producer '%s': %w", producer.Name(), err))
				return
			}
			e.logger.Debug("Producer '%s' finished", producer.Name())
		}()

		go e.forward(ctx, in, out)
	}

	return out, nil
}

func (e *Engine) forward(ctx context.Context, in <-chan *data.VirtualFile, out chan<- *data.VirtualFile) {
	defer func() {
		if e.active.Add(-1) == 0 {
			e.state.CompareAndSwap(int32(StateActive), int32(StateDrained))
			e.cancel()
			close(out)
			close(e.done)
		}
	}()

	for file := range in {
		if e.State() == StateFailed {
			continue
		}

		if err := e.account(file); err != nil {
			e.fail(err)
			continue
		}

		select {
		case out <- file:
		case <-ctx.Done():
		}
	}
}

// account defaults the content type and adds the file to the counters.
func (e *Engine) account(file *data.VirtualFile) error {
	file.DefaultContentType()

	size, known := file.Size()
	if !known && file.IsFile() {
		if _, err := file.ComputeHash(); err != nil {
			return fmt.Errorf("hashing '%s': %w", file.Path(), err)
		}
		size, _ = file.Size()
	}

	e.files.Add(1)
	e.bytes.Add(size)
	return nil
}

func (e *Engine) fail(err error) {
	e.errOnce.Do(func() {
		e.err = err
		e.state.Store(int32(StateFailed))
		e.cancel()

		e.logger.Error("Merge failed: %v", err)
	})
}

// Wait blocks until every producer returned and the output is closed.
func (e *Engine) Wait() (Result, error) {
	<-e.done

	return e.Result(), e.err
}

func (e *Engine) State() State {
	return State(e.state.Load())
}

// Active returns the number of producers still emitting.
func (e *Engine) Active() int {
	return int(e.active.Load())
}

func (e *Engine) Result() Result {
	return Result{
		Producers:    e.producers,
		FilesEmitted: e.files.Load(),
		BytesEmitted: e.bytes.Load(),
	}
}
