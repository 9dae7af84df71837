package engine

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/aiopener/rac/document"
	"github.com/aiopener/rac/index"
	"github.com/aiopener/rac/internal/testutil"
	"github.com/aiopener/rac/layer"
	"github.com/aiopener/rac/racerrors"
	"github.com/aiopener/rac/resolver"
	"github.com/aiopener/rac/tenant"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEngine(t *testing.T, opts ...Option) *Engine {
	t.Helper()
	c := testutil.StandardCorpus(t)
	b, err := tenant.LoadBindings(filepath.Join(c.Root, "tenants.yaml"))
	require.NoError(t, err)
	return New(index.NewStore(c.Root), append([]Option{WithBindings(b)}, opts...)...)
}

func mustQuery(t *testing.T, path, slug string) Query {
	t.Helper()
	q, err := ParsePath(path)
	require.NoError(t, err)
	q.Tenant = slug
	return q
}

func yamlValue(t *testing.T, text string) document.Value {
	t.Helper()
	v, err := document.Parse([]byte(text))
	require.NoError(t, err)
	return v
}

func TestParsePath(t *testing.T) {
	tests := []struct {
		path    string
		layer   layer.Layer
		fileID  string
		section string
	}{
		{"USE_CASE/COPYWRITER/prohibitions", layer.UseCase, "COPYWRITER", "prohibitions"},
		{"use_case/copywriter", layer.UseCase, "COPYWRITER", ""},
		{"/ORG/brand/voice/rules/", layer.Org, "BRAND", "voice.rules"},
		{"CONFIG", layer.Config, ConfigInstance, ""},
		{"config/agents", layer.Config, ConfigInstance, "agents"},
		{"CONFIG/agents/writer", layer.Config, ConfigInstance, "agents.writer"},
		{"ROLE", layer.Role, "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			q, err := ParsePath(tt.path)
			require.NoError(t, err)
			assert.Equal(t, tt.layer, q.Layer)
			assert.Equal(t, tt.fileID, q.FileID)
			assert.Equal(t, tt.section, q.Section)
			assert.True(t, q.IncludeClient)
			assert.Equal(t, tt.path, q.Path)
		})
	}
}

func TestParsePath_Errors(t *testing.T) {
	_, err := ParsePath(" / ")
	assert.True(t, errors.Is(err, ErrInvalidPath))

	_, err = ParsePath("NOPE/X")
	require.Error(t, err)
	var nf *racerrors.NotFoundError
	require.True(t, errors.As(err, &nf))
	assert.Equal(t, "NOPE", nf.Layer)
	assert.Contains(t, nf.Suggestions, "USE_CASE")
}

func TestCanonicalPath(t *testing.T) {
	q := mustQuery(t, "use_case/copywriter/format/length", "")
	assert.Equal(t, "USE_CASE/COPYWRITER/format/length", q.CanonicalPath())
}

func TestResolve_EndToEnd(t *testing.T) {
	e := newEngine(t)

	res, err := e.Resolve(context.Background(), mustQuery(t, "USE_CASE/COPYWRITER/prohibitions", testutil.Acme))
	require.NoError(t, err)

	assert.True(t, document.Equal(yamlValue(t, "[no clickbait, no jargon]"), res.Content))
	require.NotNil(t, res.Client)
	assert.Equal(t, testutil.Acme, res.Client.ID)
	name, _ := res.Client.Content.Get("brand")
	assert.True(t, document.Equal(yamlValue(t, "{name: Acme}"), name))
	_, hasMeta := res.Client.Content.Get(MetaKey)
	assert.False(t, hasMeta)
}

func TestResolve_WholeFile(t *testing.T) {
	e := newEngine(t)

	res, err := e.Resolve(context.Background(), mustQuery(t, "USE_CASE/COPYWRITER", testutil.Acme))
	require.NoError(t, err)

	m, ok := res.Content.AsMapping()
	require.True(t, ok)
	assert.Equal(t, []string{"tone", "prohibitions", "format", "quality"}, m.Keys())

	format, _ := res.Content.Get("format")
	assert.True(t, document.Equal(yamlValue(t, "{length: short, headings: true}"), format))
	quality, _ := res.Content.Get("quality")
	assert.True(t, document.Equal(yamlValue(t, "[clarity, accuracy]"), quality))

	assert.Equal(t, 1, res.Report.Resolved)
	require.Len(t, res.Bases, 1)
	assert.Equal(t, "USE_CASE_00_BASE_TEMPLATE", res.Bases[0].FullID)
}

func TestResolve_IncludeClientFalse(t *testing.T) {
	e := newEngine(t)
	q := mustQuery(t, "USE_CASE/COPYWRITER", testutil.Acme)
	q.IncludeClient = false

	res, err := e.Resolve(context.Background(), q)
	require.NoError(t, err)
	assert.Nil(t, res.Client)
}

func TestResolve_TenantPrecedence(t *testing.T) {
	e := newEngine(t)

	res, err := e.Resolve(context.Background(), mustQuery(t, "ORG/BRAND/voice", testutil.Acme))
	require.NoError(t, err)
	assert.True(t, document.Equal(document.String("acme"), res.Content))

	res, err = e.Resolve(context.Background(), mustQuery(t, "ORG/BRAND/voice", testutil.Uhu))
	require.NoError(t, err)
	assert.True(t, document.Equal(document.String("shared"), res.Content))
}

func TestResolve_Config(t *testing.T) {
	e := newEngine(t)

	res, err := e.Resolve(context.Background(), mustQuery(t, "CONFIG/defaults", testutil.Acme))
	require.NoError(t, err)
	assert.True(t, document.Equal(yamlValue(t, "{language: en}"), res.Content))
	assert.Nil(t, res.Client, "CONFIG carries no client context")
}

func TestResolve_ClientAccess(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()

	_, err := e.Resolve(ctx, mustQuery(t, "CLIENT/PRORAIL", testutil.Uhu))
	assert.NoError(t, err)

	_, err = e.Resolve(ctx, mustQuery(t, "CLIENT/BASE_TEMPLATE", testutil.Uhu))
	assert.NoError(t, err)

	_, err = e.Resolve(ctx, mustQuery(t, "CLIENT/SOMEOTHERCO", testutil.Uhu))
	require.Error(t, err)
	assert.Equal(t, CodeAccessDenied, Code(err))

	res, err := e.Resolve(ctx, mustQuery(t, "CLIENT/CLIENT_05_UHU/brand/name", testutil.Uhu))
	require.NoError(t, err, "own full id")
	assert.True(t, document.Equal(document.String("UHU"), res.Content))

	_, err = e.Resolve(ctx, mustQuery(t, "CLIENT/CLIENT_02_SOMEOTHERCO", testutil.Uhu))
	assert.Equal(t, CodeAccessDenied, Code(err))
}

func TestResolve_RoleRemap(t *testing.T) {
	e := newEngine(t)

	res, err := e.Resolve(context.Background(), mustQuery(t, "ROLE/STRATEGIST/title", testutil.Uhu))
	require.NoError(t, err)
	assert.Equal(t, "EMPLOYER_BRAND_STRATEGIST", res.FileID)
	assert.True(t, document.Equal(document.String("Employer brand strategist"), res.Content))

	res, err = e.Resolve(context.Background(), mustQuery(t, "ROLE/STRATEGIST", testutil.Acme))
	require.NoError(t, err, "suffix match without remap")
	assert.Equal(t, "STRATEGIST", res.FileID)
}

func TestResolve_FullIDAutoCorrect(t *testing.T) {
	e := newEngine(t)

	res, err := e.Resolve(context.Background(), mustQuery(t, "USE_CASE/USE_CASE_04_COPYWRITER/tone", testutil.Acme))
	require.NoError(t, err)
	assert.Equal(t, "COPYWRITER", res.FileID)
	assert.True(t, document.Equal(document.String("neutral"), res.Content))
}

func TestResolve_NotFound(t *testing.T) {
	e := newEngine(t)

	_, err := e.Resolve(context.Background(), mustQuery(t, "USE_CASE/COPY", testutil.Acme))
	var nf *racerrors.NotFoundError
	require.True(t, errors.As(err, &nf))
	assert.Contains(t, nf.Suggestions, "USE_CASE/COPYWRITER")

	_, err = e.Resolve(context.Background(), mustQuery(t, "ROLE/COPYWRITER", testutil.Acme))
	require.True(t, errors.As(err, &nf))
	assert.Contains(t, nf.Hint, "Did you mean USE_CASE/COPYWRITER?")
}

func TestResolve_SectionNotFound(t *testing.T) {
	e := newEngine(t)
	_, err := e.Resolve(context.Background(), mustQuery(t, "USE_CASE/COPYWRITER/nope", testutil.Acme))
	assert.Equal(t, CodeSectionNotFound, Code(err))
}

func TestResolve_UnknownTenant(t *testing.T) {
	e := newEngine(t)
	_, err := e.Resolve(context.Background(), mustQuery(t, "ORG/BRAND", "nobody"))
	var ut *racerrors.UnknownTenantError
	require.True(t, errors.As(err, &ut))
	assert.Equal(t, []string{testutil.Acme, testutil.Uhu}, ut.Known)
}

func TestResolve_Tenantless(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()

	_, err := e.Resolve(ctx, mustQuery(t, "USE_CASE/COPYWRITER", ""))
	var cr *ClientRequiredError
	require.True(t, errors.As(err, &cr))
	assert.Contains(t, cr.Available, "PRORAIL")
	assert.Equal(t, CodeClientRequired, Code(err))

	q := mustQuery(t, "USE_CASE/COPYWRITER", "")
	q.ClientID = "PRORAIL"
	res, err := e.Resolve(ctx, q)
	require.NoError(t, err)
	require.NotNil(t, res.Client)
	assert.Equal(t, "PRORAIL", res.Client.ID)
	assert.Equal(t, "CLIENT_01_PRORAIL", res.Client.Location.FullID)

	res, err = e.Resolve(ctx, mustQuery(t, "LOGIC/QUALITY_GATES/threshold", ""))
	require.NoError(t, err, "LOGIC needs no client")
	assert.True(t, document.Equal(document.Float(0.8), res.Content))
}

func TestResolve_UnknownLayerInQuery(t *testing.T) {
	e := newEngine(t)
	_, err := e.Resolve(context.Background(), Query{Layer: "BOGUS", FileID: "X"})
	assert.Equal(t, CodeNotFound, Code(err))
}

func TestResolve_CancelledContext(t *testing.T) {
	e := newEngine(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := e.Resolve(ctx, mustQuery(t, "ORG/BRAND", testutil.Acme))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestResolveClientDocument(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()

	doc, err := e.ResolveClientDocument(ctx, testutil.Acme)
	require.NoError(t, err)
	assert.Equal(t, testutil.Acme, doc.Location.Tenant)

	doc, err = e.ResolveClientDocument(ctx, "SOMEOTHERCO")
	require.NoError(t, err)
	assert.Equal(t, "CLIENT_02_SOMEOTHERCO", doc.Location.FullID)

	_, err = e.ResolveClientDocument(ctx, "NOBODY")
	assert.Equal(t, CodeNotFound, Code(err))
}

func TestListForTenant(t *testing.T) {
	e := newEngine(t)

	l, err := e.ListForTenant(context.Background(), testutil.Acme)
	require.NoError(t, err)
	assert.Equal(t, testutil.Acme, l.Tenant)

	byLayer := make(map[layer.Layer]LayerListing)
	for _, ll := range l.Layers {
		byLayer[ll.Layer] = ll
	}
	assert.Equal(t, []string{"BASE_TEMPLATE"}, byLayer[layer.Client].Shared)
	assert.Equal(t, []string{"ACME"}, byLayer[layer.Client].ClientSpecific)
	assert.Equal(t, []string{"BRAND"}, byLayer[layer.Org].ClientSpecific)

	assert.Contains(t, l.AllPaths, "CLIENT/ACME")
	assert.Contains(t, l.AllPaths, "CLIENT/BASE_TEMPLATE")
	assert.NotContains(t, l.AllPaths, "CLIENT/UHU")
	assert.IsIncreasing(t, l.AllPaths)

	count := 0
	for _, p := range l.AllPaths {
		if p == "ORG/BRAND" {
			count++
		}
	}
	assert.Equal(t, 1, count, "override hides the shared file")

	assert.Equal(t, []string{"prohibitions", "format", "quality"}, l.Files["USE_CASE/COPYWRITER"])
	assert.Equal(t, []string{"voice"}, l.Files["ORG/BRAND"])
	assert.NotEmpty(t, l.UsageHint)

	_, err = e.ListForTenant(context.Background(), "nobody")
	assert.Equal(t, CodeUnknownClient, Code(err))
}

func TestRaw(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()

	raw, err := e.Raw(ctx, "USE_CASE_04_COPYWRITER", "")
	require.NoError(t, err)
	_, hasExtends := raw.Content.Get("extends")
	_, hasMeta := raw.Content.Get(MetaKey)
	assert.True(t, hasExtends, "raw files are not merged")
	assert.True(t, hasMeta)

	raw, err = e.Raw(ctx, "quality_gates", "gates")
	require.NoError(t, err)
	assert.Equal(t, "LOGIC_08_QUALITY_GATES", raw.Location.FullID)
	assert.True(t, document.Equal(yamlValue(t, "[clarity, accuracy]"), raw.Content))

	_, err = e.Raw(ctx, "LOGIC_08_QUALITY_GATES", "missing")
	assert.Equal(t, CodeSectionNotFound, Code(err))

	_, err = e.Raw(ctx, "NOPE_BRAND", "")
	var nf *racerrors.NotFoundError
	require.True(t, errors.As(err, &nf))
	assert.NotEmpty(t, nf.Suggestions)

	_, err = e.Raw(ctx, "", "")
	assert.Equal(t, CodeInvalidPath, Code(err))
}

type recordingObserver struct {
	mu    sync.Mutex
	codes []string
}

func (o *recordingObserver) ObserveResolution(l layer.Layer, code string, _ time.Duration, _ resolver.Report) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.codes = append(o.codes, l.String()+":"+code)
}

func TestObserver(t *testing.T) {
	obs := &recordingObserver{}
	e := newEngine(t, WithObserver(obs))

	_, _ = e.Resolve(context.Background(), mustQuery(t, "ORG/BRAND", testutil.Acme))
	_, _ = e.Resolve(context.Background(), mustQuery(t, "ORG/NOPE", testutil.Acme))

	assert.Equal(t, []string{"ORG:OK", "ORG:NOT_FOUND"}, obs.codes)
}

func TestCode(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, CodeOK},
		{&InvalidPathError{}, CodeInvalidPath},
		{&ClientRequiredError{}, CodeClientRequired},
		{&racerrors.UnknownTenantError{}, CodeUnknownClient},
		{&racerrors.AccessDeniedError{}, CodeAccessDenied},
		{&racerrors.SectionNotFoundError{}, CodeSectionNotFound},
		{&racerrors.NotFoundError{}, CodeNotFound},
		{&racerrors.LoadError{}, CodeLoadError},
		{fmt.Errorf("wrapped: %w", &racerrors.ParseError{}), CodeLoadError},
		{errors.New("boom"), CodeInternal},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, Code(tt.err))
		})
	}
}
