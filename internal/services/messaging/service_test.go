package messaging

import (
	"context"
	"testing"
)

func TestServiceWithoutConnection(t *testing.T) {
	s := &Service{}

	if s.IsConnected() {
		t.Error("IsConnected() should be false without a connection")
	}
	if err := s.Publish("redactions", struct{}{}); err == nil {
		t.Error("Publish() should fail without a connection")
	}
	if _, err := s.Subscribe("windows.active", func([]byte) {}); err == nil {
		t.Error("Subscribe() should fail without a connection")
	}
	if err := s.Shutdown(context.Background()); err != nil {
		t.Errorf("Shutdown() without a connection should be a no-op, got %v", err)
	}
}
