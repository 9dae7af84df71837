package merger

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/aiopener/rac/document"
	"github.com/aiopener/rac/index"
	"github.com/aiopener/rac/internal/testutil"
	"github.com/aiopener/rac/layer"
	"github.com/aiopener/rac/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMerge(t *testing.T) {
	tests := []struct {
		name     string
		base     string
		override string
		want     string
	}{
		{"null override keeps base", "a: 1\n", "", "a: 1\n"},
		{"null base takes override", "", "a: 1\n", "a: 1\n"},
		{"scalar override wins", "a: 1\n", "a: 2\n", "a: 2\n"},
		{"base-only keys preserved", "a: 1\nb: 2\n", "b: 3\n", "a: 1\nb: 3\n"},
		{"nested mappings merge", "f: {x: 1, y: 2}\n", "f: {y: 3, z: 4}\n", "f: {x: 1, y: 3, z: 4}\n"},
		{"sequences are replaced", "l: [1, 2, 3]\n", "l: [9]\n", "l: [9]\n"},
		{"mapping replaced by scalar", "f: {x: 1}\n", "f: off\n", "f: off\n"},
		{"null value replaces scalar", "a: 1\n", "a: null\n", "a: null\n"},
		{"null value replaces mapping", "f: {x: 1}\n", "f: null\n", "f: null\n"},
		{"nested null value replaces", "f: {x: 1, y: 2}\n", "f: {x: ~}\n", "f: {x: null, y: 2}\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Merge(document.MustParse(tt.base), document.MustParse(tt.override))
			assert.True(t, document.Equal(document.MustParse(tt.want), got), "got %s", mustJSON(t, got))
		})
	}
}

func TestMerge_KeyOrder(t *testing.T) {
	base := document.MustParse("b: 1\na: 2\n")
	ov := document.MustParse("c: 3\na: 4\n")

	m, ok := Merge(base, ov).AsMapping()
	require.True(t, ok)
	assert.Equal(t, []string{"b", "a", "c"}, m.Keys())
}

func TestMerge_Idempotent(t *testing.T) {
	v := document.MustParse("a: {b: [1, 2], c: x}\nd: true\n")
	assert.True(t, document.Equal(v, Merge(v, v)))

	tests := []struct {
		name     string
		base     string
		override string
		// key whose merged value must equal the override's
		key string
	}{
		{"base-only key", "a: 1\nb: 2\n", "b: 3\n", "b"},
		{"nested mapping", "f: {x: 1, y: {p: 1}}\n", "f: {y: {q: 2}, z: 3}\n", ""},
		{"shorter sequence", "l: [1, 2, 3]\n", "l: [9]\n", "l"},
		{"scalar to mapping", "f: off\n", "f: {x: 1}\n", "f"},
		{"null override value", "a: 1\nb: 2\n", "a: null\n", "a"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, b := document.MustParse(tt.base), document.MustParse(tt.override)
			once := Merge(a, b)
			twice := Merge(once, b)
			assert.True(t, document.Equal(once, twice), "once %s, twice %s", mustJSON(t, once), mustJSON(t, twice))

			if tt.key != "" {
				got, ok := once.Get(tt.key)
				require.True(t, ok)
				want, _ := b.Get(tt.key)
				assert.True(t, document.Equal(want, got), "key %q: got %s", tt.key, mustJSON(t, got))
			}

			// every base-only key survives
			am, _ := a.AsMapping()
			am.Range(func(k string, av document.Value) bool {
				if _, overridden := b.Get(k); !overridden {
					got, ok := once.Get(k)
					assert.True(t, ok, "base key %q dropped", k)
					assert.True(t, document.Equal(av, got))
				}
				return true
			})
		})
	}

	nested := Merge(document.MustParse("f: {x: 1, y: {p: 1}}\n"), document.MustParse("f: {y: {q: 2}, z: 3}\n"))
	assert.True(t, document.Equal(document.MustParse("f: {x: 1, y: {p: 1, q: 2}, z: 3}\n"), nested))
}

func TestMerge_DoesNotMutateInputs(t *testing.T) {
	base := document.MustParse("f: {x: 1}\n")
	ov := document.MustParse("f: {y: 2}\n")
	_ = Merge(base, ov)

	assert.True(t, document.Equal(document.MustParse("f: {x: 1}\n"), base))
	assert.True(t, document.Equal(document.MustParse("f: {y: 2}\n"), ov))
}

func TestBaseName(t *testing.T) {
	tests := []struct {
		doc  string
		want string
		ok   bool
	}{
		{"extends: USE_CASE_00_BASE_TEMPLATE\n", "BASE_TEMPLATE", true},
		{"extends: \"'BASE'\"\n", "BASE", true},
		{"extends: BASE\n", "BASE", true},
		{"extends: 3\n", "", false},
		{"extends: ''\n", "", false},
		{"name: x\n", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.doc, func(t *testing.T) {
			got, ok := BaseName(document.MustParse(tt.doc))
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func buildIndex(t *testing.T, c *testutil.Corpus) *index.Index {
	t.Helper()
	idx, err := index.Build(c.Root)
	require.NoError(t, err)
	return idx
}

func TestApplyInheritance(t *testing.T) {
	c := testutil.NewCorpus(t)
	c.Add("USE_CASE", "USE_CASE_00_BASE_TEMPLATE", `tone: neutral
prohibitions: [generic]
format:
  length: medium
  headings: true
`)
	m := New(buildIndex(t, c))

	doc := document.MustParse(`extends: USE_CASE_00_BASE_TEMPLATE
prohibitions: [no clickbait]
format:
  length: short
`)
	got := m.ApplyInheritance(doc, layer.UseCase)

	want := document.MustParse(`tone: neutral
prohibitions: [no clickbait]
format:
  length: short
  headings: true
`)
	assert.True(t, document.Equal(want, got), "got %s", mustJSON(t, got))
	_, hasExtends := got.Get(ExtendsKey)
	assert.False(t, hasExtends)
}

func TestApplyInheritance_NoExtends(t *testing.T) {
	m := New(buildIndex(t, testutil.NewCorpus(t)))
	doc := document.MustParse("a: 1\n")
	assert.True(t, document.Equal(doc, m.ApplyInheritance(doc, layer.Role)))
}

func TestApplyInheritance_MissingBase(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.NewSlogAdapter(slog.New(slog.NewTextHandler(&buf, nil)))
	m := New(buildIndex(t, testutil.NewCorpus(t)), WithLogger(logger))

	doc := document.MustParse("extends: NOPE\na: 1\n")
	got := m.ApplyInheritance(doc, layer.Role)

	assert.True(t, document.Equal(doc, got), "document returned unchanged with extends")
	assert.Contains(t, buf.String(), "base document not found")
	assert.Contains(t, buf.String(), "missing base")
}

func TestApplyInheritance_WrongLayerBaseIgnored(t *testing.T) {
	c := testutil.NewCorpus(t)
	c.Add("ROLE", "ROLE_00_BASE", "a: role\n")
	m := New(buildIndex(t, c))

	doc := document.MustParse("extends: BASE\nb: 1\n")
	got := m.ApplyInheritance(doc, layer.Org)
	assert.True(t, document.Equal(doc, got))
}

func TestApplyInheritance_Chain(t *testing.T) {
	c := testutil.NewCorpus(t)
	c.Add("ROLE", "ROLE_00_ROOT", "a: root\nb: root\nc: root\n")
	c.Add("ROLE", "ROLE_01_MIDDLE", "extends: ROOT\nb: middle\n")
	m := New(buildIndex(t, c))

	got, chain := m.ApplyInheritanceDetailed(document.MustParse("extends: MIDDLE\nc: leaf\n"), layer.Role)

	want := document.MustParse("a: root\nb: middle\nc: leaf\n")
	assert.True(t, document.Equal(want, got), "got %s", mustJSON(t, got))
	require.Len(t, chain, 2)
	assert.Equal(t, "ROLE_01_MIDDLE", chain[0].FullID)
	assert.Equal(t, "ROLE_00_ROOT", chain[1].FullID)
}

func TestApplyInheritance_CycleTerminates(t *testing.T) {
	c := testutil.NewCorpus(t)
	c.Add("ROLE", "ROLE_01_A", "extends: B\nfrom_a: 1\n")
	c.Add("ROLE", "ROLE_02_B", "extends: A\nfrom_b: 1\n")
	m := New(buildIndex(t, c))

	got := m.ApplyInheritance(document.MustParse("extends: A\nleaf: 1\n"), layer.Role)

	for _, k := range []string{"from_a", "from_b", "leaf"} {
		_, ok := got.Get(k)
		assert.True(t, ok, k)
	}
	_, ok := got.Get(ExtendsKey)
	assert.False(t, ok)
}

func TestApplyInheritance_DepthCap(t *testing.T) {
	c := testutil.NewCorpus(t)
	c.Add("ROLE", "ROLE_01_A", "extends: B\na: 1\n")
	c.Add("ROLE", "ROLE_02_B", "extends: C\nb: 1\n")
	c.Add("ROLE", "ROLE_03_C", "c: 1\n")
	m := New(buildIndex(t, c), WithMaxDepth(2))

	got, chain := m.ApplyInheritanceDetailed(document.MustParse("extends: A\n"), layer.Role)
	assert.Len(t, chain, 2)
	_, ok := got.Get("c")
	assert.False(t, ok, "third link is beyond the cap")
	_, ok = got.Get("b")
	assert.True(t, ok)
}

func mustJSON(t *testing.T, v document.Value) string {
	t.Helper()
	data, err := v.MarshalJSON()
	require.NoError(t, err)
	return string(data)
}
