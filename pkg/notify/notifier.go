package notify

import (
	"context"
	"log/slog"

	"github.com/goje-timer/goje-go/pkg/stream"
	"github.com/goje-timer/goje-go/pkg/timer"
)

// Notifier watches published states, sends a notification for every
// transition and runs the hooks.
type Notifier struct {
	sink   Sink
	hooks  []Hook
	logger *slog.Logger

	prev    timer.Snapshot
	hasPrev bool
}

// NewNotifier creates a Notifier delivering to sink. sink may be nil when
// only hooks are used. A nil logger uses slog.Default().
func NewNotifier(sink Sink, logger *slog.Logger) *Notifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Notifier{sink: sink, logger: logger.With("component", "notify")}
}

// AddHook runs h on every transition. Hooks must be added before the
// Notifier observes states.
func (n *Notifier) AddHook(h Hook) {
	n.hooks = append(n.hooks, h)
}

// Observe compares st with the last connected snapshot and sends the
// resulting notifications, then runs the hooks in order. Pending and
// Disconnected states are skipped, so a reconnect compares against the
// snapshot seen before the outage. Send and hook errors are logged and do
// not stop later notifications.
func (n *Notifier) Observe(ctx context.Context, st stream.State) {
	cur, ok := st.Snapshot()
	if !ok {
		return
	}
	prev, hadPrev := n.prev, n.hasPrev
	n.prev, n.hasPrev = cur, true
	if !hadPrev {
		return
	}

	if n.sink != nil {
		for _, note := range Transitions(prev, cur) {
			if err := n.sink.Send(ctx, note); err != nil {
				n.logger.Error("failed to send notification", "message", note.Message, "err", err)
				continue
			}
			n.logger.Debug("notification sent", "message", note.Message)
		}
	}

	if len(n.hooks) == 0 {
		return
	}
	for _, c := range Changes(prev, cur) {
		for _, h := range n.hooks {
			if err := h.Handle(ctx, c); err != nil {
				n.logger.Error("hook failed", "event", c.Event.String(), "err", err)
			}
		}
	}
}

// Run observes h until ctx is done or h closes.
func (n *Notifier) Run(ctx context.Context, h *stream.Handle) error {
	updates, cancel := h.Subscribe(8)
	defer cancel()

	n.Observe(ctx, h.State())
	return n.Watch(ctx, updates)
}

// Watch observes every state received from updates until ctx is done or
// updates is closed.
func (n *Notifier) Watch(ctx context.Context, updates <-chan stream.State) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case st, ok := <-updates:
			if !ok {
				return nil
			}
			n.Observe(ctx, st)
		}
	}
}
