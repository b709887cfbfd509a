package kafka

import (
	"testing"
	"time"
)

func TestNew_Validation(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"missing brokers", Config{Topic: "signal-events"}, true},
		{"missing topic", Config{Brokers: []string{"localhost:9092"}}, true},
		{"valid", Config{Brokers: []string{"localhost:9092"}, Topic: "signal-events"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			k, err := New(tt.cfg)
			if tt.wantErr {
				if err == nil {
					t.Error("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("New failed: %v", err)
			}
			defer k.Close()
			if k.Name() != "kafka" {
				t.Errorf("wrong name: %s", k.Name())
			}
		})
	}
}

func TestNew_Defaults(t *testing.T) {
	k, err := New(Config{Brokers: []string{"localhost:9092"}, Topic: "signal-events"})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer k.Close()

	if k.writer.MaxAttempts != 3 {
		t.Errorf("expected 3 max attempts, got %d", k.writer.MaxAttempts)
	}
	if k.writer.WriteTimeout != 10*time.Second {
		t.Errorf("expected 10s write timeout, got %v", k.writer.WriteTimeout)
	}
	if int(k.writer.RequiredAcks) != -1 {
		t.Errorf("expected acks all, got %d", k.writer.RequiredAcks)
	}
}
