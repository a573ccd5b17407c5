package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const fixtureManifest = `stores: {
	counts: {policy: "sum", domain: "int64"}
	low:    {policy: "set_min", domain: "bigdecimal"}
}
`

const passingScenario = `name: counting
description: "Sums and a minimum"
manifest: stores.cue
steps:
  - store: counts
    key: a
    value: "1200"
    ordinal: 1
  - store: counts
    key: a
    value: "34"
    ordinal: 1500
  - store: low
    key: b
    value: "2.50"
    ordinal: 1500
assertions:
  - type: final_value
    store: counts
    key: a
    expect: "1234"
`

const failingScenario = `name: broken
description: "Asserts the wrong sum"
manifest: stores.cue
steps:
  - store: counts
    key: a
    value: "1"
assertions:
  - type: final_value
    store: counts
    key: a
    expect: "999"
`

// writeFixture writes the manifest and the named scenarios into a temp
// dir and returns the dir.
func writeFixture(t *testing.T, scenarios map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "stores.cue"), []byte(fixtureManifest), 0644))
	for name, content := range scenarios {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
	}
	return dir
}

// execute runs the root command with args and returns stdout, stderr and
// the command error.
func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	cmd := NewRootCommand()
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}
