package graph

import (
	"testing"
	"time"

	"github.com/dshills/graphflow/graph/emit"
	"github.com/dshills/graphflow/graph/store"
)

func TestOptions(t *testing.T) {
	tests := []struct {
		name    string
		opt     Option
		wantErr bool
		check   func(t *testing.T, cfg *workflowConfig)
	}{
		{
			name: "emitter",
			opt:  WithEmitter(emit.NewBufferedEmitter()),
			check: func(t *testing.T, cfg *workflowConfig) {
				if _, ok := cfg.emitter.(*emit.BufferedEmitter); !ok {
					t.Errorf("emitter = %T, want *emit.BufferedEmitter", cfg.emitter)
				}
			},
		},
		{name: "nil emitter", opt: WithEmitter(nil), wantErr: true},
		{
			name: "store",
			opt:  WithStore(store.NewMemStore()),
			check: func(t *testing.T, cfg *workflowConfig) {
				if cfg.store == nil {
					t.Error("store not set")
				}
			},
		},
		{
			name: "max steps",
			opt:  WithMaxSteps(25),
			check: func(t *testing.T, cfg *workflowConfig) {
				if cfg.maxSteps != 25 {
					t.Errorf("maxSteps = %d, want 25", cfg.maxSteps)
				}
			},
		},
		{name: "negative max steps", opt: WithMaxSteps(-1), wantErr: true},
		{
			name: "node timeout",
			opt:  WithNodeTimeout(time.Second),
			check: func(t *testing.T, cfg *workflowConfig) {
				if cfg.nodeTimeout != time.Second {
					t.Errorf("nodeTimeout = %v, want 1s", cfg.nodeTimeout)
				}
			},
		},
		{name: "negative node timeout", opt: WithNodeTimeout(-time.Second), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &workflowConfig{}
			err := tt.opt(cfg)
			if (err != nil) != tt.wantErr {
				t.Fatalf("option error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.check != nil {
				tt.check(t, cfg)
			}
		})
	}
}

func TestNew_InvalidOptionIsInvalidDefinition(t *testing.T) {
	_, err := New("g", chain("a"), nil, WithNodeTimeout(-time.Second))
	if ErrorCode(err) != CodeInvalidDefinition {
		t.Errorf("ErrorCode() = %q, want %q", ErrorCode(err), CodeInvalidDefinition)
	}
}
