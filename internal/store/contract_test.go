package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omeyang/xshortlink/internal/shortcut"
)

// runRepositoryContract 对任意后端执行同一组行为检查。
func runRepositoryContract(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	t.Run("CreateThenRead", func(t *testing.T) {
		in := shortcut.Shortcut{ID: "aaaaaa", URL: "https://example.com"}
		out, err := s.Create(ctx, in)
		require.NoError(t, err)
		assert.Equal(t, in, out)

		got, found, err := s.Read(ctx, "aaaaaa")
		require.NoError(t, err)
		assert.True(t, found)
		assert.Equal(t, in, got)
	})

	t.Run("DuplicateIDConflicts", func(t *testing.T) {
		_, err := s.Create(ctx, shortcut.Shortcut{ID: "bbbbbb", URL: "https://one.example"})
		require.NoError(t, err)

		_, err = s.Create(ctx, shortcut.Shortcut{ID: "bbbbbb", URL: "https://two.example"})
		require.ErrorIs(t, err, shortcut.ErrConflict)

		got, found, err := s.Read(ctx, "bbbbbb")
		require.NoError(t, err)
		assert.True(t, found)
		assert.Equal(t, "https://one.example", got.URL, "conflicting create must not overwrite")

		list, err := s.QueryByURL(ctx, "https://two.example")
		require.NoError(t, err)
		assert.Empty(t, list)
	})

	t.Run("ReadMissing", func(t *testing.T) {
		got, found, err := s.Read(ctx, "zzzzzz")
		require.NoError(t, err)
		assert.False(t, found)
		assert.Zero(t, got)
	})

	t.Run("QueryByURL", func(t *testing.T) {
		const url = "https://multi.example"
		for _, id := range []string{"ccc002", "ccc001"} {
			_, err := s.Create(ctx, shortcut.Shortcut{ID: id, URL: url})
			require.NoError(t, err)
		}
		_, err := s.Create(ctx, shortcut.Shortcut{ID: "ccc003", URL: url + "/other"})
		require.NoError(t, err)

		list, err := s.QueryByURL(ctx, url)
		require.NoError(t, err)
		assert.Equal(t, []shortcut.Shortcut{
			{ID: "ccc001", URL: url},
			{ID: "ccc002", URL: url},
		}, list)

		list, err = s.QueryByURL(ctx, "https://nothing.example")
		require.NoError(t, err)
		assert.NotNil(t, list)
		assert.Empty(t, list)
	})

	t.Run("QueryIsCaseSensitive", func(t *testing.T) {
		_, err := s.Create(ctx, shortcut.Shortcut{ID: "ddd001", URL: "https://Case.example"})
		require.NoError(t, err)

		list, err := s.QueryByURL(ctx, "https://case.example")
		require.NoError(t, err)
		assert.Empty(t, list)
	})

	t.Run("BlankInput", func(t *testing.T) {
		_, err := s.Create(ctx, shortcut.Shortcut{ID: " ", URL: "https://x.example"})
		assert.ErrorIs(t, err, shortcut.ErrInvalidArgument)
		_, err = s.Create(ctx, shortcut.Shortcut{ID: "eee001", URL: ""})
		assert.ErrorIs(t, err, shortcut.ErrInvalidArgument)
		_, _, err = s.Read(ctx, "")
		assert.ErrorIs(t, err, shortcut.ErrInvalidArgument)
		_, err = s.QueryByURL(ctx, "\t")
		assert.ErrorIs(t, err, shortcut.ErrInvalidArgument)
	})

	t.Run("Ping", func(t *testing.T) {
		assert.NoError(t, s.Ping(ctx))
	})
}
