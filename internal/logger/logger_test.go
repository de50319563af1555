package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap/zapcore"

	"github.com/SilkenBread/restaurant-ordering-backend/internal/config"
)

func TestBuildConfig(t *testing.T) {
	prod := buildConfig(config.Observability{LogLevel: "warn", LogEncoding: "json"})
	assert.Equal(t, "json", prod.Encoding)
	assert.Equal(t, zapcore.WarnLevel, prod.Level.Level())
	assert.Nil(t, prod.Sampling)

	dev := buildConfig(config.Observability{LogLevel: "bogus", LogEncoding: "console"})
	assert.Equal(t, "console", dev.Encoding)
	assert.Equal(t, zapcore.InfoLevel, dev.Level.Level())
}
