package shutdown

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/hoangsonww/hashsplit/internal/monitoring"
)

// Manager cancels a context when the process receives SIGINT or SIGTERM so
// that in-flight chunking stops between chunks
type Manager struct {
	ctx     context.Context
	cancel  context.CancelFunc
	signals chan os.Signal
	done    chan struct{}
}

// NewManager derives a cancellable context from parent and starts listening
// for signals. Stop must be called to release the listener.
func NewManager(parent context.Context) *Manager {
	ctx, cancel := context.WithCancel(parent)
	m := &Manager{
		ctx:     ctx,
		cancel:  cancel,
		signals: make(chan os.Signal, 1),
		done:    make(chan struct{}),
	}
	signal.Notify(m.signals, syscall.SIGINT, syscall.SIGTERM)

	go m.listen()
	return m
}

func (m *Manager) listen() {
	defer close(m.done)
	select {
	case sig := <-m.signals:
		monitoring.WithField("signal", sig.String()).Warn("received shutdown signal, stopping")
		m.cancel()
	case <-m.ctx.Done():
	}
}

// Context is cancelled on the first signal or by Stop
func (m *Manager) Context() context.Context {
	return m.ctx
}

// Stop unregisters the signal handler and cancels the context
func (m *Manager) Stop() {
	signal.Stop(m.signals)
	m.cancel()
	<-m.done
}

// Trigger behaves as if a shutdown signal had arrived
func (m *Manager) Trigger() {
	select {
	case m.signals <- syscall.SIGTERM:
	default:
	}
}
