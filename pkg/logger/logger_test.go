package logger

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLevelFromString(t *testing.T) {
	require.Equal(t, DEBUG, LevelFromString("debug"))
	require.Equal(t, WARNING, LevelFromString("warn"))
	require.Equal(t, ERROR, LevelFromString("error"))
	require.Equal(t, SILENCE, LevelFromString("silence"))
	require.Equal(t, INFO, LevelFromString("whatever"))
}

func TestZapLogger_File(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "srv.log")
	l := NewZapLogger(ZapConfigs{Level: INFO, Filename: filename, MaxSize: 1})

	l.Debugf("hidden %d", 1)
	l.Infof("sale %s settled", "abc")
	_ = l.Sync()

	require.FileExists(t, filename)
}
