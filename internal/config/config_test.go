// Copyright 2026 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"

	"mellium.im/jingle/internal/config"
)

const testConfig = `
jid: gateway@montague.lit
password: secret
reply_timeout: 5s
languages: [de, en]
nats:
  url: nats://127.0.0.1:4222
log:
  level: debug
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "jinglegw.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad(t *testing.T) {
	cfg, err := config.Load(writeConfig(t, testConfig))
	require.NoError(t, err)

	assert.Equal(t, "gateway@montague.lit", cfg.JID)
	assert.Equal(t, "secret", cfg.Password)
	assert.Equal(t, 5*time.Second, cfg.ReplyTimeout)
	assert.Equal(t, "nats://127.0.0.1:4222", cfg.NATS.URL)
	assert.Equal(t, "jingle.channels", cfg.NATS.Subject, "defaults fill missing keys")
	assert.Equal(t, 64, cfg.QueueSize)

	tags, err := cfg.LanguageTags()
	require.NoError(t, err)
	assert.Equal(t, []language.Tag{language.German, language.English}, tags)

	lvl, err := cfg.LogLevel()
	require.NoError(t, err)
	assert.Equal(t, zerolog.DebugLevel, lvl)
}

func TestEnvOverride(t *testing.T) {
	t.Setenv("JINGLEGW_NATS_SUBJECT", "calls")
	t.Setenv("JINGLEGW_REPLY_TIMEOUT", "1m")
	cfg, err := config.Load(writeConfig(t, testConfig))
	require.NoError(t, err)
	assert.Equal(t, "calls", cfg.NATS.Subject)
	assert.Equal(t, time.Minute, cfg.ReplyTimeout)
}

func TestLoadWithoutFile(t *testing.T) {
	t.Setenv("JINGLEGW_JID", "gateway@montague.lit")
	cfg, err := config.Load("")
	require.NoError(t, err)
	assert.Equal(t, 30*time.Second, cfg.ReplyTimeout)
	assert.Equal(t, "127.0.0.1:9090", cfg.Metrics.Listen)
}

func TestInvalid(t *testing.T) {
	for name, body := range map[string]string{
		"missing jid":   "password: x\n",
		"bad timeout":   "jid: a@b.c\nreply_timeout: -1s\n",
		"bad language":  "jid: a@b.c\nlanguages: ['!!']\n",
		"bad log level": "jid: a@b.c\nlog:\n  level: loud\n",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := config.Load(writeConfig(t, body))
			assert.Error(t, err)
		})
	}
	_, err := config.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLogLevel(t *testing.T) {
	cfg := config.Config{Log: config.Log{Level: "warn"}}
	lvl, err := cfg.LogLevel()
	require.NoError(t, err)
	assert.Equal(t, zerolog.WarnLevel, lvl)

	cfg.Log.Level = "loud"
	lvl, err = cfg.LogLevel()
	assert.Error(t, err)
	assert.Equal(t, zerolog.NoLevel, lvl)
}
