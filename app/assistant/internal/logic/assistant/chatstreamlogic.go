package assistant

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"CraftMateAI/app/assistant/internal/agent/stream"
	"CraftMateAI/app/assistant/internal/svc"

	"github.com/zeromicro/go-zero/core/logx"
)

const heartbeatInterval = time.Second

type ChatStreamLogic struct {
	logx.Logger
	ctx    context.Context
	svcCtx *svc.ServiceContext
}

func NewChatStreamLogic(ctx context.Context, svcCtx *svc.ServiceContext) *ChatStreamLogic {
	return &ChatStreamLogic{
		Logger: logx.WithContext(ctx),
		ctx:    ctx,
		svcCtx: svcCtx,
	}
}

// ChatStream runs the agent on a worker goroutine and relays its step events
// to the client as server-sent events. The consumer side never raises: frame
// failures are logged and close the stream, idle gaps turn into empty
// heartbeat frames, and the internal stream_end sentinel ends the response
// without being forwarded.
func (l *ChatStreamLogic) ChatStream(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	flusher, ok := w.(http.Flusher)
	if !ok {
		l.Errorf("response writer does not support flushing, aborting stream")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	q := stream.NewQueue()
	stream.Run(l.ctx, l.Logger, q, func(ctx context.Context) error {
		return l.svcCtx.Agent.ChatStream(ctx, message, q)
	})

	for {
		select {
		case ev, open := <-q.Events():
			if !open || ev.Type == stream.EventStreamEnd {
				return
			}
			if err := writeFrame(w, flusher, ev); err != nil {
				l.Errorf("error writing stream frame: %v", err)
				return
			}
		case <-time.After(heartbeatInterval):
			// Heartbeat keeps the connection alive and lets the client
			// detect silent failure.
			if _, err := fmt.Fprint(w, "data: {}\n\n"); err != nil {
				l.Errorf("error writing heartbeat: %v", err)
				return
			}
			flusher.Flush()
		}
	}
}

func writeFrame(w http.ResponseWriter, flusher http.Flusher, ev stream.Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		// Report the failure as an error frame rather than dropping the
		// connection silently, then stop the stream.
		fmt.Fprintf(w, "data: {\"type\":\"error\",\"content\":\"error generating events\"}\n\n")
		flusher.Flush()
		return err
	}
	if _, err := fmt.Fprintf(w, "data: %s\n\n", payload); err != nil {
		return err
	}
	flusher.Flush()
	return nil
}
