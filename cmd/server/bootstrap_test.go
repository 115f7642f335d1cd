package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/majorjayant/siteconfig/internal/app"
	"github.com/majorjayant/siteconfig/internal/siteconfig"
	"github.com/majorjayant/siteconfig/internal/store"
)

func writeConfig(t *testing.T, kind string) string {
	t.Helper()

	dir := t.TempDir()
	body := fmt.Sprintf(`server:
  log_level: error
store:
  kind: %s
  history:
    retain: 2
database:
  driver: sqlite
  path: %s
auth:
  admin:
    username: admin
    password: Secret123!
`, kind, filepath.Join(dir, "site.sqlite"))

	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestConfigCommandsRoundTrip(t *testing.T) {
	path := writeConfig(t, "kv")

	out, err := execute(t, "--config", path, "config", "get")
	require.NoError(t, err)

	var snap configSnapshot
	require.NoError(t, json.Unmarshal([]byte(out), &snap), out)
	require.Equal(t, string(siteconfig.OriginDefault), snap.Origin)

	out, err = execute(t, "--config", path, "config", "set", "site_title=Portfolio", "footer_text=a=b")
	require.NoError(t, err)
	require.Contains(t, out, "updated 2 key(s): footer_text, site_title")

	out, err = execute(t, "--config", path, "config", "get")
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal([]byte(out), &snap), out)
	require.Equal(t, string(siteconfig.OriginStore), snap.Origin)
	require.Equal(t, "Portfolio", snap.SiteConfig["site_title"])
	require.Equal(t, "a=b", snap.SiteConfig["footer_text"])
}

func TestConfigSetRejectsMalformedAssignment(t *testing.T) {
	path := writeConfig(t, "kv")

	_, err := execute(t, "--config", path, "config", "set", "=nokey")
	require.Error(t, err)

	_, err = execute(t, "--config", path, "config", "set")
	require.Error(t, err)
}

func TestConfigPruneKeepsNewestSnapshots(t *testing.T) {
	path := writeConfig(t, "history")

	for _, title := range []string{"one", "two", "three", "four"} {
		_, err := execute(t, "--config", path, "config", "set", "site_title="+title)
		require.NoError(t, err)
	}

	out, err := execute(t, "--config", path, "config", "prune")
	require.NoError(t, err)
	require.Contains(t, out, "removed 2 snapshot(s), kept at most 2")

	out, err = execute(t, "--config", path, "config", "prune", "--retain", "1")
	require.NoError(t, err)
	require.Contains(t, out, "removed 1 snapshot(s)")

	out, err = execute(t, "--config", path, "config", "get")
	require.NoError(t, err)
	require.Contains(t, out, `"site_title": "four"`)
}

func TestConfigPruneRequiresHistoryStore(t *testing.T) {
	path := writeConfig(t, "kv")

	_, err := execute(t, "--config", path, "config", "prune")
	require.ErrorContains(t, err, "prune requires the history store")
}

func TestMissingConfigPath(t *testing.T) {
	_, err := execute(t, "--config", filepath.Join(t.TempDir(), "absent.yaml"), "config", "get")
	require.ErrorContains(t, err, "does not exist")
}

func TestGeneratedJWTSecretSurvivesRestart(t *testing.T) {
	path := writeConfig(t, "history")

	boot := func() *runtimeStack {
		cfg, generated, err := prepareConfig(path)
		require.NoError(t, err)
		require.True(t, generated[app.GeneratedJWTSecret])

		stack, err := bootstrapRuntime(context.Background(), cfg, generated, bootstrapOptions{Maintenance: true}, zap.NewNop())
		require.NoError(t, err)
		return stack
	}

	first := boot()
	secret := first.Config.Auth.JWT.Secret
	require.NotNil(t, first.Cleaner)
	require.Equal(t, store.KindHistory, first.Store.Kind())
	require.NoError(t, first.Shutdown(context.Background()))

	second := boot()
	t.Cleanup(func() { _ = second.Shutdown(context.Background()) })
	require.Equal(t, secret, second.Config.Auth.JWT.Secret)

	report := second.Health.EvaluateReadiness(context.Background())
	require.Len(t, report.Checks, 3)
}

func TestStaticStoreSkipsDatabase(t *testing.T) {
	path := writeConfig(t, "static")

	cfg, generated, err := prepareConfig(path)
	require.NoError(t, err)

	stack, err := bootstrapRuntime(context.Background(), cfg, generated, bootstrapOptions{Maintenance: true}, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = stack.Shutdown(context.Background()) })

	require.Nil(t, stack.DB)
	require.Nil(t, stack.Cleaner)
	require.NotNil(t, stack.Router)

	res := stack.Service.GetConfig(context.Background())
	require.Equal(t, siteconfig.OriginStore, res.Origin)
}
