package index

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/aiopener/rac/internal/testutil"
	"github.com/aiopener/rac/layer"
	"github.com/aiopener/rac/racerrors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuild_Keys(t *testing.T) {
	c := testutil.NewCorpus(t)
	c.AddNamed("USE_CASE", "aa", "USE_CASE_04_COPYWRITER", "x: 1\n")
	c.AddNamed("USE_CASE", "bb", "NOTES", "x: 2\n")
	c.WriteFile("USE_CASE/README.md", "ignored")
	c.WriteFile("USE_CASE/nounderscore.yaml", "x: 3\n")
	c.AddTenant("acme", "ORG", "ORG_01_BRAND", "voice: acme\n")

	idx, err := Build(c.Root)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"USE_CASE_04_COPYWRITER",
		"USE_CASE:COPYWRITER",
		"NOTES",
		"clients:acme:ORG_01_BRAND",
		"clients:acme:ORG:BRAND",
	}, idx.Keys())
	assert.Equal(t, []string{"acme"}, idx.Tenants())
	assert.Len(t, idx.Locations(), 3)

	loc, ok := idx.Get("USE_CASE:COPYWRITER")
	require.True(t, ok)
	assert.Equal(t, layer.UseCase, loc.Layer)
	assert.Equal(t, "USE_CASE_04_COPYWRITER", loc.FullID)
	assert.Equal(t, "COPYWRITER", loc.ShortName)
	assert.True(t, loc.Shared())
}

func TestBuild_FirstWriterWinsOnShortName(t *testing.T) {
	c := testutil.NewCorpus(t)
	c.AddNamed("ROLE", "01", "ROLE_01_WRITER", "v: first\n")
	c.AddNamed("ROLE", "02", "ROLE_02_WRITER", "v: second\n")

	idx, err := Build(c.Root)
	require.NoError(t, err)

	loc, ok := idx.FindByLayerAndShortName(layer.Role, "WRITER")
	require.True(t, ok)
	assert.Equal(t, "ROLE_01_WRITER", loc.FullID)

	// both remain reachable by full id
	_, ok = idx.FindByFullID("ROLE_02_WRITER")
	assert.True(t, ok)
}

func TestBuild_MissingRoot(t *testing.T) {
	_, err := Build(filepath.Join(t.TempDir(), "nope"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, racerrors.ErrConfig))
}

func TestBuild_MissingLayersAreSkipped(t *testing.T) {
	idx, err := Build(t.TempDir())
	require.NoError(t, err)
	assert.Zero(t, idx.Len())
}

func TestFindByLayerAndShortName(t *testing.T) {
	c := testutil.NewCorpus(t)
	c.Add("USE_CASE", "USE_CASE_04_COPYWRITER", "x: 1\n")
	c.Add("LOGIC", "LOGIC_08_QUALITY_GATES", "x: 1\n")
	c.Add("CONFIG", "CONFIG_01_INSTANCE", "x: 1\n")
	c.Add("OPS", "CHECKLIST_RELEASE", "x: 1\n")

	idx, err := Build(c.Root)
	require.NoError(t, err)

	tests := []struct {
		name   string
		layer  layer.Layer
		short  string
		wantID string
	}{
		{"exact short key", layer.UseCase, "COPYWRITER", "USE_CASE_04_COPYWRITER"},
		{"suffix scan", layer.Logic, "GATES", "LOGIC_08_QUALITY_GATES"},
		{"suffix scan outside convention", layer.Ops, "RELEASE", "CHECKLIST_RELEASE"},
		{"config singleton", layer.Config, "ANYTHING", "CONFIG_01_INSTANCE"},
		{"wrong layer", layer.Role, "COPYWRITER", ""},
		{"missing", layer.UseCase, "NOPE", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loc, ok := idx.FindByLayerAndShortName(tt.layer, tt.short)
			assert.Equal(t, tt.wantID != "", ok)
			assert.Equal(t, tt.wantID, loc.FullID)
		})
	}
}

func TestFindByFullID(t *testing.T) {
	c := testutil.NewCorpus(t)
	c.Add("LOGIC", "LOGIC_08_QUALITY_GATES", "x: 1\n")
	c.AddTenant("acme", "ROLE", "ROLE_09_SECRET", "x: 1\n")

	idx, err := Build(c.Root)
	require.NoError(t, err)

	loc, ok := idx.FindByFullID("LOGIC_08_QUALITY_GATES")
	require.True(t, ok)
	assert.Equal(t, layer.Logic, loc.Layer)

	loc, ok = idx.FindByFullID("QUALITY")
	require.True(t, ok, "contains fallback")
	assert.Equal(t, "LOGIC_08_QUALITY_GATES", loc.FullID)

	_, ok = idx.FindByFullID("ROLE_09_SECRET")
	assert.False(t, ok, "tenant files are never reachable by full id")

	_, ok = idx.FindByFullID("")
	assert.False(t, ok)
}

func TestFindForTenant_OverrideWins(t *testing.T) {
	c := testutil.NewCorpus(t)
	c.Add("ORG", "ORG_01_BRAND", "voice: shared\n")
	c.Add("ORG", "ORG_02_VALUES", "v: shared\n")
	c.AddTenant("acme", "ORG", "ORG_01_BRAND", "voice: acme\n")
	c.AddTenant("acme", "ORG", "ORG_07_core_values", "v: acme\n")
	c.AddTenant("acme", "USE_CASE", "USE_CASE_04_COPYWRITER", "x: 1\n")
	c.Add("USE_CASE", "USE_CASE_04_COPYWRITER", "x: shared\n")

	idx, err := Build(c.Root)
	require.NoError(t, err)

	loc, ok := idx.FindForTenant(layer.Org, "BRAND", "acme")
	require.True(t, ok)
	assert.Equal(t, "acme", loc.Tenant)

	loc, ok = idx.FindForTenant(layer.Org, "BRAND", "other")
	require.True(t, ok)
	assert.True(t, loc.Shared())

	loc, ok = idx.FindForTenant(layer.Org, "CORE_VALUES", "acme")
	require.True(t, ok, "short names match across case")
	assert.Equal(t, "acme", loc.Tenant)

	loc, ok = idx.FindForTenant(layer.UseCase, "COPYWRITER", "acme")
	require.True(t, ok)
	assert.True(t, loc.Shared(), "USE_CASE is not overridable")

	loc, ok = idx.FindForTenant(layer.Org, "VALUES", "")
	require.True(t, ok)
	assert.True(t, loc.Shared())
}

func TestShortNames(t *testing.T) {
	c := testutil.NewCorpus(t)
	c.Add("ROLE", "ROLE_02_WRITER", "x: 1\n")
	c.Add("ROLE", "ROLE_01_EDITOR", "x: 1\n")
	c.AddTenant("acme", "ROLE", "ROLE_05_MASCOT", "x: 1\n")

	idx, err := Build(c.Root)
	require.NoError(t, err)

	assert.Equal(t, []string{"EDITOR", "WRITER"}, idx.ShortNames(layer.Role))
	assert.Equal(t, []string{"MASCOT"}, idx.TenantShortNames(layer.Role, "acme"))
	assert.Empty(t, idx.TenantShortNames(layer.Role, ""))
}

func TestFindLayerOf(t *testing.T) {
	c := testutil.NewCorpus(t)
	c.Add("ROLE", "ROLE_02_COPYWRITER", "x: 1\n")

	idx, err := Build(c.Root)
	require.NoError(t, err)

	l, ok := idx.FindLayerOf("copywriter", layer.UseCase)
	require.True(t, ok)
	assert.Equal(t, layer.Role, l)

	_, ok = idx.FindLayerOf("COPYWRITER", layer.Role)
	assert.False(t, ok)
}

func TestLoad(t *testing.T) {
	c := testutil.NewCorpus(t)
	c.Add("ORG", "ORG_01_BRAND", "voice: shared\n")
	c.Add("ORG", "ORG_02_BROKEN", "a: [1, 2\nb: :\n")

	idx, err := Build(c.Root)
	require.NoError(t, err)

	loc, _ := idx.FindByFullID("ORG_01_BRAND")
	v, err := idx.Load(loc)
	require.NoError(t, err)
	voice, _ := v.Get("voice")
	s, _ := voice.AsString()
	assert.Equal(t, "shared", s)

	loc, _ = idx.FindByFullID("ORG_02_BROKEN")
	_, err = idx.Load(loc)
	require.Error(t, err)
	assert.True(t, errors.Is(err, racerrors.ErrLoad))
	assert.True(t, errors.Is(err, racerrors.ErrParse))
}

func TestLoadFile_SizeCap(t *testing.T) {
	c := testutil.NewCorpus(t)
	path := c.Add("ORG", "ORG_01_BIG", "k: "+strings.Repeat("x", 64)+"\n")

	_, err := LoadFile(path, 16)
	require.Error(t, err)
	assert.True(t, errors.Is(err, racerrors.ErrResourceLimit))

	var rl *racerrors.ResourceLimitError
	require.True(t, errors.As(err, &rl))
	assert.Equal(t, int64(16), rl.Limit)
}

func TestLoadFile_Missing(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "gone.yaml"), 0)
	require.Error(t, err)
	assert.True(t, errors.Is(err, racerrors.ErrLoad))
}

func TestStore_BuildsOnce(t *testing.T) {
	c := testutil.StandardCorpus(t)
	s := NewStore(c.Root)

	var wg sync.WaitGroup
	results := make([]*Index, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			idx, err := s.Get(context.Background())
			assert.NoError(t, err)
			results[i] = idx
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int64(1), s.Builds())
	for _, idx := range results {
		assert.Same(t, results[0], idx)
	}

	s.Reset()
	idx, err := s.Get(context.Background())
	require.NoError(t, err)
	assert.NotSame(t, results[0], idx)
	assert.Equal(t, int64(2), s.Builds())
}

func TestStore_FailedBuildIsRetried(t *testing.T) {
	root := filepath.Join(t.TempDir(), "later")
	s := NewStore(root)

	_, err := s.Get(context.Background())
	require.Error(t, err)

	require.NoError(t, os.MkdirAll(root, 0o755))
	_, err = s.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(2), s.Builds())
}

func TestStore_CancelledContext(t *testing.T) {
	c := testutil.StandardCorpus(t)
	s := NewStore(c.Root)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := s.Rebuild(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestStore_Rebuild(t *testing.T) {
	c := testutil.NewCorpus(t)
	s := NewStore(c.Root)

	idx, err := s.Get(context.Background())
	require.NoError(t, err)
	assert.Zero(t, idx.Len())

	c.Add("ORG", "ORG_01_BRAND", "voice: x\n")
	idx, err = s.Rebuild(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, idx.Len())

	got, err := s.Get(context.Background())
	require.NoError(t, err)
	assert.Same(t, idx, got)
}
