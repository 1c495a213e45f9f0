package stream

import (
	"context"
	"fmt"

	"github.com/zeromicro/go-zero/core/logx"
)

// queueCapacity comfortably exceeds the worst case for one request: the tool
// budget caps the loop at a few dozen events, so Push never blocks even if
// the consumer has gone away.
const queueCapacity = 64

// Queue is the per-request FIFO between the agent worker and the SSE
// consumer. Single producer, single consumer, ordering preserved.
type Queue struct {
	ch chan Event
}

func NewQueue() *Queue {
	return &Queue{ch: make(chan Event, queueCapacity)}
}

func (q *Queue) Push(ev Event) {
	q.ch <- ev
}

func (q *Queue) Events() <-chan Event {
	return q.ch
}

// Run executes work on its own goroutine, feeding q. Any returned error or
// panic becomes an error event, and a terminal stream_end is enqueued no
// matter how the work finished, so stream termination is always observable
// exactly once. The queue channel is closed after the sentinel.
func Run(ctx context.Context, log logx.Logger, q *Queue, work func(ctx context.Context) error) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				log.Errorf("agent worker panic during streaming: %v", r)
				q.Push(ErrorEvent(fmt.Sprintf("An error occurred: %v", r)))
			}
			q.Push(StreamEnd())
			close(q.ch)
		}()

		if err := work(ctx); err != nil {
			log.Errorf("agent execution error during streaming: %v", err)
			q.Push(ErrorEvent(fmt.Sprintf("An error occurred: %s", err.Error())))
		}
	}()
}
