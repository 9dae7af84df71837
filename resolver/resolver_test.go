package resolver

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/aiopener/rac/document"
	"github.com/aiopener/rac/index"
	"github.com/aiopener/rac/internal/testutil"
	"github.com/aiopener/rac/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newResolver(t *testing.T, c *testutil.Corpus, opts ...Option) *Resolver {
	t.Helper()
	idx, err := index.Build(c.Root)
	require.NoError(t, err)
	return New(idx, opts...)
}

func TestParseRef(t *testing.T) {
	tests := []struct {
		in       string
		wantFile string
		wantPath string
		ok       bool
	}{
		{"$ref: LOGIC_08_QUALITY_GATES#evidence_tiers", "LOGIC_08_QUALITY_GATES", "evidence_tiers", true},
		{"$ref:LOGIC_08_QUALITY_GATES", "LOGIC_08_QUALITY_GATES", "", true},
		{"$ref:  X # a.b ", "X", "a.b", true},
		{"$ref: #a", "", "a", false},
		{"plain text", "", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			file, path, ok := ParseRef(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.wantFile, file)
			assert.Equal(t, tt.wantPath, path)
		})
	}
}

func TestResolve_Chain(t *testing.T) {
	c := testutil.NewCorpus(t)
	c.Add("LOGIC", "LOGIC_01_B", "value: \"$ref: LOGIC_02_C#leaf\"\n")
	c.Add("LOGIC", "LOGIC_02_C", "leaf: [1, 2]\n")
	r := newResolver(t, c)

	got, report := r.ResolveWithReport(document.MustParse("a: \"$ref: LOGIC_01_B#value\"\nkeep: 3\n"))

	want := document.MustParse("a: [1, 2]\nkeep: 3\n")
	assert.True(t, document.Equal(want, got))
	assert.Equal(t, 2, report.Resolved)
	assert.False(t, report.Degraded())
}

func TestResolve_WholeFile(t *testing.T) {
	c := testutil.NewCorpus(t)
	c.Add("LOGIC", "LOGIC_08_QUALITY_GATES", "gates: [clarity]\n")
	r := newResolver(t, c)

	got := r.Resolve(document.MustParse("q: \"$ref: LOGIC_08_QUALITY_GATES\"\n"))
	assert.True(t, document.Equal(document.MustParse("q: {gates: [clarity]}\n"), got))
}

func TestResolve_CycleTerminates(t *testing.T) {
	c := testutil.NewCorpus(t)
	c.Add("LOGIC", "LOGIC_01_A", "next: \"$ref: LOGIC_02_B\"\n")
	c.Add("LOGIC", "LOGIC_02_B", "next: \"$ref: LOGIC_01_A\"\n")
	r := newResolver(t, c)

	got, report := r.ResolveWithReport(document.MustParse("start: \"$ref: LOGIC_01_A\"\n"))

	assert.True(t, report.DepthExceeded)
	assert.True(t, report.Degraded())
	assert.True(t, got.IsMapping())

	// the innermost value is left as the raw pointer
	depth := 0
	cur, _ := got.Get("start")
	for cur.IsMapping() {
		cur, _ = cur.Get("next")
		depth++
	}
	s, ok := cur.AsString()
	require.True(t, ok)
	assert.True(t, IsRef(s))
	assert.Equal(t, MaxDepth+1, depth)
}

func TestResolve_Unresolvable(t *testing.T) {
	c := testutil.NewCorpus(t)
	c.Add("LOGIC", "LOGIC_01_A", "present: 1\nempty: null\n")
	var buf bytes.Buffer
	logger := logging.NewSlogAdapter(slog.New(slog.NewTextHandler(&buf, nil)))
	r := newResolver(t, c, WithLogger(logger))

	doc := document.MustParse(`missing_file: "$ref: NOPE_99_X"
missing_path: "$ref: LOGIC_01_A#absent.deeper"
no_file: "$ref: #present"
stored_null: "$ref: LOGIC_01_A#empty"
`)
	got, report := r.ResolveWithReport(doc)

	for _, k := range []string{"missing_file", "missing_path", "no_file"} {
		orig, _ := doc.Get(k)
		v, _ := got.Get(k)
		assert.True(t, document.Equal(orig, v), k)
	}
	v, ok := got.Get("stored_null")
	assert.True(t, ok)
	assert.True(t, v.IsNull(), "a stored null resolves to null")

	assert.Len(t, report.Unresolved, 3)
	assert.Equal(t, 1, report.Resolved)
	assert.Contains(t, buf.String(), "unresolved reference")
}

func TestResolve_TenantFilesAreNotTargets(t *testing.T) {
	c := testutil.NewCorpus(t)
	c.AddTenant("acme", "ORG", "ORG_01_SECRET", "x: 1\n")
	r := newResolver(t, c)

	doc := document.MustParse("a: \"$ref: ORG_01_SECRET\"\n")
	assert.True(t, document.Equal(doc, r.Resolve(doc)))
}

func TestResolve_SequencesAndPrimitives(t *testing.T) {
	c := testutil.NewCorpus(t)
	c.Add("LOGIC", "LOGIC_01_A", "v: ok\n")
	r := newResolver(t, c)

	got := r.Resolve(document.MustParse("list: [\"$ref: LOGIC_01_A#v\", 2, true, null, \"text $ref: x\"]\n"))
	want := document.MustParse("list: [ok, 2, true, null, \"text $ref: x\"]\n")
	assert.True(t, document.Equal(want, got))
}

func TestResolve_DoesNotMutateInput(t *testing.T) {
	c := testutil.NewCorpus(t)
	c.Add("LOGIC", "LOGIC_01_A", "v: ok\n")
	r := newResolver(t, c)

	doc := document.MustParse("a: \"$ref: LOGIC_01_A#v\"\n")
	_ = r.Resolve(doc)
	a, _ := doc.Get("a")
	s, _ := a.AsString()
	assert.Equal(t, "$ref: LOGIC_01_A#v", s)
}
