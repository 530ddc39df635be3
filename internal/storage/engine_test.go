package storage

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/yndnr/snapback/internal/storage/badgerstore"
)

func TestOpen(t *testing.T) {
	tests := []struct {
		name     string
		cfg      Config
		wantName string
		wantErr  bool
	}{
		{"default is memory", Config{}, EngineMemory, false},
		{"memory with shards", Config{Engine: EngineMemory, Shards: 4}, EngineMemory, false},
		{"badger in memory", Config{Engine: EngineBadger, Badger: badgerstore.DefaultConfig()}, EngineBadger, false},
		{"badger with metrics", Config{
			Engine:  EngineBadger,
			Badger:  badgerstore.DefaultConfig(),
			Metrics: prometheus.NewRegistry(),
		}, EngineBadger, false},
		{"badger without dir", Config{Engine: EngineBadger, Badger: badgerstore.Config{GCThreshold: 0.5}}, "", true},
		{"unknown engine", Config{Engine: "pebble"}, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.cfg.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))

			e, err := Open(tt.cfg)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Open() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				return
			}
			defer e.Close()

			if e.Name() != tt.wantName {
				t.Errorf("Name() = %q, want %q", e.Name(), tt.wantName)
			}
			if err := Ping(context.Background(), e); err != nil {
				t.Errorf("Ping() error = %v", err)
			}
		})
	}
}
