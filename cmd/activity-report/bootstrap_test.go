package main

import (
	"context"
	"flag"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
)

func contextWithConfig(t *testing.T, body string) *cli.Context {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	set := flag.NewFlagSet("test", flag.ContinueOnError)
	set.String("config", path, "")
	return cli.NewContext(cli.NewApp(), set, nil)
}

func TestBootstrapDefersGoogleCalendar(t *testing.T) {
	dir := t.TempDir()
	c := contextWithConfig(t, `
calendar:
  provider: google
  credentials_file: `+filepath.Join(dir, "credentials.json")+`
  token_file: `+filepath.Join(dir, "token.json")+`
`)

	rt, err := bootstrap(c)
	require.NoError(t, err, "commands that never report must start without a calendar token")
	defer rt.Close()
	assert.Nil(t, rt.reports)

	_, err = rt.reportService(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "google calendar")
	assert.Nil(t, rt.reports)
}

func TestReportServiceIsBuiltOnce(t *testing.T) {
	c := contextWithConfig(t, "env: test\n")

	rt, err := bootstrap(c)
	require.NoError(t, err)
	defer rt.Close()

	first, err := rt.reportService(context.Background())
	require.NoError(t, err)
	second, err := rt.reportService(context.Background())
	require.NoError(t, err)
	assert.Same(t, first, second)
}
