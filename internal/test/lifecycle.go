package test

import (
	"go.uber.org/fx"
)

// LifecycleRecorder collects hooks registered against it so tests can run
// OnStart and OnStop by hand.
type LifecycleRecorder struct {
	Hooks []fx.Hook
}

// Append records the hook without scheduling it.
func (l *LifecycleRecorder) Append(h fx.Hook) {
	l.Hooks = append(l.Hooks, h)
}

// ShutdownerStub signals on Called whenever a component requests shutdown.
type ShutdownerStub struct {
	Called chan struct{}
}

// Shutdown delivers a non-blocking notification and always succeeds.
func (s *ShutdownerStub) Shutdown(...fx.ShutdownOption) error {
	if s.Called == nil {
		return nil
	}
	select {
	case s.Called <- struct{}{}:
	default:
	}
	return nil
}
