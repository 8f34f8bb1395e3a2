package main

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ascended/internal/config"
)

type cli struct {
	t       *testing.T
	cfgPath string
}

func newCLI(t *testing.T) *cli {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("ASCENDED_DB_PATH", "")
	t.Setenv("REDIS_URL", "")
	t.Setenv("METRICS_ADDR", "")
	cfg := config.Default()
	cfg.Storage.DBPath = filepath.Join(dir, "ascended.db")
	cfg.Logging.Level = "error"
	path := filepath.Join(dir, "ascended.yaml")
	require.NoError(t, config.Save(path, cfg))
	return &cli{t: t, cfgPath: path}
}

func (c *cli) run(args ...string) (string, error) {
	c.t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(append([]string{"--config", c.cfgPath}, args...))
	err := root.Execute()
	return out.String(), err
}

func (c *cli) must(args ...string) string {
	c.t.Helper()
	out, err := c.run(args...)
	require.NoError(c.t, err, out)
	return out
}

func TestInitWritesConfig(t *testing.T) {
	c := newCLI(t)
	path := filepath.Join(t.TempDir(), "nested", "ascended.yaml")
	out := c.must("init", "--path", path)
	assert.Contains(t, out, "Config written to:")

	_, err := c.run("init", "--path", path)
	assert.ErrorContains(t, err, "exists")
	c.must("init", "--path", path, "--force")

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, config.Default().Energy, cfg.Energy)
}

func TestEngagementFlow(t *testing.T) {
	c := newCLI(t)
	c.must("user", "add", "alice", "alice@example.com")
	c.must("user", "add", "bob", "bob@example.com", "--element", "air")

	out := c.must("post", "alice", "sending", "love", "and", "compassion", "--type", "spark")
	postID := strings.Fields(out)[0]
	assert.Contains(t, out, "heart")

	out = c.must("engage", "bob", postID, "upvote")
	assert.Contains(t, out, "frequency=1 (+1)")
	out = c.must("engage", "bob", postID, "energy")
	assert.Contains(t, out, "energy=990")

	_, err := c.run("engage", "bob", postID, "upvote")
	assert.ErrorContains(t, err, "duplicate engagement")
	_, err = c.run("engage", "bob", postID, "boost")
	assert.Error(t, err)

	out = c.must("feed", "heart")
	assert.Contains(t, out, postID)

	out = c.must("balance", "bob")
	assert.Contains(t, out, "energy=990/1000")

	out = c.must("sigil", "bob")
	assert.Contains(t, out, "energy=890")

	out = c.must("spirit", "alice")
	assert.Contains(t, out, "post_upvoted")
	assert.Contains(t, out, "post_energized")

	out = c.must("monitor", postID)
	assert.Contains(t, out, "upvote=1")
	assert.Contains(t, out, "energy=1")

	out = c.must("retract", "bob", postID, "upvote")
	assert.Contains(t, out, "frequency=0")

	out = c.must("user", "show", "alice")
	assert.Contains(t, out, "aura=2")
}

func TestUserAdministration(t *testing.T) {
	c := newCLI(t)
	c.must("user", "add", "carol", "carol@example.com")
	c.must("user", "premium", "carol", "true")
	c.must("user", "aura", "carol", "4")
	c.must("user", "status", "carol", "suspended")

	out := c.must("user", "show", "carol")
	assert.Contains(t, out, "aura=4 status=suspended premium=true")

	_, err := c.run("sigil", "carol")
	assert.ErrorContains(t, err, "not active")
	_, err = c.run("user", "aura", "carol", "lots")
	assert.Error(t, err)
}

func TestSyncRequiresCache(t *testing.T) {
	c := newCLI(t)
	_, err := c.run("sync")
	assert.ErrorContains(t, err, "cache")
}

func TestMissingExplicitConfigFails(t *testing.T) {
	root := newRootCmd()
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"--config", filepath.Join(t.TempDir(), "nope.yaml"), "balance", "x"})
	assert.ErrorContains(t, root.Execute(), "load config")
}
