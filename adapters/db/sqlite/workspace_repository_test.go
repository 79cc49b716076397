package sqlite

import (
	"context"
	"math"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"hybridtest/domain/model"
	"hybridtest/domain/workspace"
	"hybridtest/internal/errors"
)

func openTestRepo(t *testing.T) *WorkspaceRepository {
	t.Helper()
	repo, err := Open(filepath.Join(t.TempDir(), "workspaces.db"))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return repo
}

func countingWorkspace(t *testing.T, name string) *workspace.Workspace {
	t.Helper()
	b := model.NewBuilder()
	s := b.Param("s", 50, 0, 100)
	bkg := b.Param("b", 100, 0.1, 300)
	obs := b.Observable("x", 0, 500)
	b.Poisson("px", obs, model.Sum(s, bkg))
	require.NoError(t, b.Err())

	ws := workspace.New(name)
	ws.ImportParams(b.Params()...)
	pdf, err := b.PDF("px")
	require.NoError(t, err)
	require.NoError(t, ws.ImportPDF(pdf))

	data := model.NewDataset("x")
	require.NoError(t, data.Append(150))
	require.NoError(t, ws.ImportDataset("observed", data))
	require.NoError(t, ws.DefineSet("poi", "s"))
	return ws
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	repo := openTestRepo(t)
	ctx := context.Background()

	ws := countingWorkspace(t, "counting")
	require.NoError(t, repo.Save(ctx, ws))

	loaded, err := repo.Load(ctx, "counting")
	require.NoError(t, err)
	require.Equal(t, "counting", loaded.Name())
	require.Equal(t, ws.Params(), loaded.Params())

	pdf, err := loaded.PDF("px")
	require.NoError(t, err)
	orig, err := ws.PDF("px")
	require.NoError(t, err)
	event := map[string]float64{"x": 150}
	require.InDelta(t, orig.LogProb(event, ws.ParamSet()), pdf.LogProb(event, loaded.ParamSet()), 1e-12)

	data, err := loaded.Dataset("observed")
	require.NoError(t, err)
	require.Equal(t, 1, data.NumEntries())
	require.True(t, math.Abs(data.Row(0)["x"]-150) < 1e-12)
}

func TestSaveOverwrites(t *testing.T) {
	repo := openTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, countingWorkspace(t, "ws")))
	require.NoError(t, repo.Save(ctx, countingWorkspace(t, "ws")))

	names, err := repo.List(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"ws"}, names)
}

func TestListSorted(t *testing.T) {
	repo := openTestRepo(t)
	ctx := context.Background()

	for _, name := range []string{"zeta", "alpha", "mid"} {
		require.NoError(t, repo.Save(ctx, countingWorkspace(t, name)))
	}
	names, err := repo.List(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"alpha", "mid", "zeta"}, names)
}

func TestLoadMissingReportsNotFound(t *testing.T) {
	repo := openTestRepo(t)
	_, err := repo.Load(context.Background(), "nope")
	require.Error(t, err)
	require.Equal(t, errors.CodeNotFound, errors.GetCode(err))
}

func TestDelete(t *testing.T) {
	repo := openTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, countingWorkspace(t, "ws")))
	require.NoError(t, repo.Delete(ctx, "ws"))

	_, err := repo.Load(ctx, "ws")
	require.Equal(t, errors.CodeNotFound, errors.GetCode(err))

	err = repo.Delete(ctx, "ws")
	require.Equal(t, errors.CodeNotFound, errors.GetCode(err))
}
