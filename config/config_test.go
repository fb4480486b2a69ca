package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bobg/bzz/store"
	_ "github.com/bobg/bzz/store/lru"
	_ "github.com/bobg/bzz/store/mem"
	"github.com/bobg/bzz/testutil"
)

const testConf = `
type: lru
size: 16
nested:
  type: mem
`

func writeConf(t *testing.T, name, contents string) string {
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(contents), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad(t *testing.T) {
	conf, err := Load(writeConf(t, "bzz.yaml", testConf))
	require.NoError(t, err)

	typ, err := store.String(conf, "type")
	require.NoError(t, err)
	require.Equal(t, "lru", typ)

	size, err := store.Int(conf, "size")
	require.NoError(t, err)
	require.Equal(t, 16, size)

	nested, ok := conf["nested"].(map[string]interface{})
	require.True(t, ok)
	require.Equal(t, "mem", nested["type"])
}

func TestEnvOverride(t *testing.T) {
	t.Setenv("BZZ_SIZE", "32")

	conf, err := Load(writeConf(t, "bzz.yaml", testConf))
	require.NoError(t, err)

	size, err := store.Int(conf, "size")
	require.NoError(t, err)
	require.Equal(t, 32, size)
}

func TestOpenFile(t *testing.T) {
	ctx := context.Background()

	s, err := OpenFile(ctx, writeConf(t, "bzz.json", `{"type": "mem"}`))
	require.NoError(t, err)
	testutil.Chunks(ctx, t, s)

	s, err = OpenFile(ctx, writeConf(t, "bzz.yaml", testConf))
	require.NoError(t, err)
	testutil.ReadWrite(ctx, t, s, testutil.Data(2, 50000))
}

func TestOpenErrors(t *testing.T) {
	ctx := context.Background()

	_, err := Open(ctx, map[string]interface{}{})
	require.Error(t, err)

	_, err = Open(ctx, map[string]interface{}{"type": "no-such-store"})
	require.Error(t, err)

	_, err = OpenFile(ctx, filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}
