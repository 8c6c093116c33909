package rancher

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kdlocpanda/vision/internal/errors"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	return NewStore(filepath.Join(t.TempDir(), "rancher", "selected_context"))
}

func TestStore_GetBeforeSet(t *testing.T) {
	s := newTestStore(t)

	_, err := s.Get()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNoContext)
	assert.True(t, errors.IsCode(err, errors.ErrConfig))
}

func TestStore_SetGetRoundtrip(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.Set("c-abc123:p-def456"))

	got, err := s.Get()
	require.NoError(t, err)
	assert.Equal(t, "c-abc123:p-def456", got)
}

func TestStore_SetTrimsWhitespace(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.Set("  c-abc:p-def\n"))

	got, err := s.Get()
	require.NoError(t, err)
	assert.Equal(t, "c-abc:p-def", got)
}

func TestStore_SetRejectsEmpty(t *testing.T) {
	s := newTestStore(t)

	for _, v := range []string{"", "   ", "\n"} {
		err := s.Set(v)
		require.Error(t, err)
		assert.True(t, errors.IsCode(err, errors.ErrConfig))
	}

	// A rejected set must not create the file.
	_, err := s.Get()
	assert.ErrorIs(t, err, ErrNoContext)
}

func TestStore_EmptyFileIsUnset(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, os.MkdirAll(filepath.Dir(s.Path()), 0o755))
	require.NoError(t, os.WriteFile(s.Path(), []byte("  \n"), 0o644))

	_, err := s.Get()
	assert.ErrorIs(t, err, ErrNoContext)
}

func TestStore_OverwriteLastWriterWins(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.Set("c-one:p-one"))
	require.NoError(t, s.Set("c-two:p-two"))

	got, err := s.Get()
	require.NoError(t, err)
	assert.Equal(t, "c-two:p-two", got)
}

// Concurrent readers must always observe a complete value: either the old
// one, the new one, or the unset sentinel before the first write lands.
func TestStore_ConcurrentSetGetNeverTorn(t *testing.T) {
	s := newTestStore(t)

	const writes = 200
	valueA := "c-aaaaaaaa:p-aaaaaaaa"
	valueB := "c-bbbbbbbb:p-bbbbbbbb"

	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		for i := 0; i < writes; i++ {
			v := valueA
			if i%2 == 1 {
				v = valueB
			}
			assert.NoError(t, s.Set(v))
		}
	}()

	go func() {
		defer wg.Done()
		for i := 0; i < writes; i++ {
			got, err := s.Get()
			if err != nil {
				assert.ErrorIs(t, err, ErrNoContext)
				continue
			}
			if got != valueA && got != valueB {
				t.Errorf("observed torn value %q", got)
				return
			}
		}
	}()

	wg.Wait()
}
