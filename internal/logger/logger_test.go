// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/pdiddy/lexical-graph/pkg/types"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name      string
		cfg       types.LogConfig
		wantLevel zapcore.Level
		wantErr   bool
	}{
		{name: "default is info", cfg: types.LogConfig{}, wantLevel: zapcore.InfoLevel},
		{name: "debug development", cfg: types.LogConfig{Level: "debug", Development: true}, wantLevel: zapcore.DebugLevel},
		{name: "upper case level", cfg: types.LogConfig{Level: "WARN"}, wantLevel: zapcore.WarnLevel},
		{name: "bad level", cfg: types.LogConfig{Level: "chatty"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, err := New(tt.cfg)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, l.Core().Enabled(tt.wantLevel))
			assert.False(t, l.Core().Enabled(tt.wantLevel-1))
		})
	}
}

func TestOrNop(t *testing.T) {
	assert.NotNil(t, OrNop(nil))
}
