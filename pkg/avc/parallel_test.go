package avc

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/beetlebugorg/avc/internal/avctest"
)

func writeWorkspace(t *testing.T) (root string, paths []string) {
	t.Helper()
	root = t.TempDir()
	ws := filepath.Join(root, "workspace")
	paths = append(paths,
		avctest.MustWriteBinary(t, ws, avctest.LineCoverage("ROADS")),
		avctest.MustWriteBinary(t, ws, avctest.PolygonCoverage("PARCELS", false)),
	)
	exports := filepath.Join(root, "exports")
	require.NoError(t, os.MkdirAll(exports, 0o755))
	for i := 1; i <= 3; i++ {
		paths = append(paths, avctest.MustWriteE00(t, exports, avctest.PointCoverage(fmt.Sprintf("WELLS%d", i), 10*i)))
	}
	return root, paths
}

func TestOpenAll(t *testing.T) {
	_, paths := writeWorkspace(t)

	for _, parallel := range []bool{true, false} {
		t.Run(fmt.Sprintf("parallel=%v", parallel), func(t *testing.T) {
			var mu sync.Mutex
			var calls []int
			lo := LoadOptions{
				Parallel:   parallel,
				Workers:    2,
				SkipErrors: true,
				Progress: func(loaded, total int) {
					mu.Lock()
					defer mu.Unlock()
					assert.Equal(t, len(paths), total)
					calls = append(calls, loaded)
				},
			}
			covs, errs := OpenAll(paths, lo, quiet())
			assert.Empty(t, errs)
			require.Len(t, covs, len(paths))
			for i, c := range covs {
				assert.Equal(t, paths[i], c.Path())
				c.Close()
			}
			assert.Len(t, calls, len(paths))
			assert.Equal(t, len(paths), calls[len(calls)-1])
		})
	}
}

func TestOpenAllErrors(t *testing.T) {
	_, paths := writeWorkspace(t)
	bad := filepath.Join(t.TempDir(), "broken.e00")
	require.NoError(t, os.WriteFile(bad, []byte("EXP  1 /x/BROKEN.E00\n"), 0o644))
	paths = append([]string{bad}, paths...)

	t.Run("skip", func(t *testing.T) {
		var log bytes.Buffer
		lo := DefaultLoadOptions()
		lo.ErrorLog = &log
		covs, errs := OpenAll(paths, lo, quiet())
		require.Len(t, errs, 1)
		assert.Contains(t, errs[0].Error(), bad)
		assert.Equal(t, UnsupportedEncoding, KindOf(errs[0]))
		assert.Contains(t, log.String(), "broken.e00")
		assert.Len(t, covs, len(paths)-1)
		for _, c := range covs {
			c.Close()
		}
	})

	t.Run("stop", func(t *testing.T) {
		for _, parallel := range []bool{true, false} {
			covs, errs := OpenAll(paths, LoadOptions{Parallel: parallel}, quiet())
			assert.Nil(t, covs)
			require.Len(t, errs, 1)
			assert.ErrorIs(t, errs[0], ErrUnsupportedEncoding)
		}
	})

	t.Run("empty", func(t *testing.T) {
		covs, errs := OpenAll(nil, DefaultLoadOptions())
		assert.Empty(t, covs)
		assert.Empty(t, errs)
	})
}

func TestFindCoverages(t *testing.T) {
	root, paths := writeWorkspace(t)
	found, err := FindCoverages(root)
	require.NoError(t, err)

	want := append([]string(nil), paths...)
	assert.ElementsMatch(t, want, found)
	for _, p := range found {
		assert.NotEqual(t, "info", filepath.Base(p))
	}

	_, err = FindCoverages(filepath.Join(root, "missing"))
	assert.Error(t, err)
}
