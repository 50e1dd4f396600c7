package service

import (
	"bytes"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

type snapshotConfig struct {
	App struct {
		Addr    string `mapstructure:"addr"`
		Variant string `mapstructure:"variant"`
	} `mapstructure:"app"`
	Monitor struct {
		User     string `mapstructure:"user"`
		Password string `mapstructure:"password"`
	} `mapstructure:"monitor"`
	Audit struct {
		FingerprintKey string `json:"fingerprint_key"`
	} `mapstructure:"audit"`
	Extra    map[string]string
	internal string
}

func TestMaskSensitiveData(t *testing.T) {
	cfg := &snapshotConfig{internal: "hidden"}
	cfg.App.Addr = ":8080"
	cfg.App.Variant = "extended"
	cfg.Monitor.User = "ops"
	cfg.Monitor.Password = "s3cret"
	cfg.Extra = map[string]string{"redis_token": "abc", "region": "eu"}

	out := maskSensitiveData(cfg).(map[string]any)

	app := out["app"].(map[string]any)
	assert.Equal(t, ":8080", app["addr"])
	assert.Equal(t, "extended", app["variant"])

	monitor := out["monitor"].(map[string]any)
	assert.Equal(t, "ops", monitor["user"])
	assert.Equal(t, maskedValue, monitor["password"])

	// 未配置的敏感字段保持空值
	audit := out["audit"].(map[string]any)
	assert.Equal(t, "", audit["fingerprint_key"])

	extra := out["Extra"].(map[string]any)
	assert.Equal(t, maskedValue, extra["redis_token"])
	assert.Equal(t, "eu", extra["region"])

	assert.NotContains(t, out, "internal")
	assert.Nil(t, maskSensitiveData(nil))
	assert.Nil(t, maskSensitiveData((*snapshotConfig)(nil)))
}

func TestPrintConfigSnapshot(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	cfg := &snapshotConfig{}
	cfg.Monitor.Password = "s3cret"
	printConfigSnapshot(&logger, cfg)

	assert.Contains(t, buf.String(), "config_snapshot")
	assert.Contains(t, buf.String(), maskedValue)
	assert.NotContains(t, buf.String(), "s3cret")
}
