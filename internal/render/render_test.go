package render

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testOuter() *Outer {
	return NewOuter(map[string]string{
		"badge": `<span class="badge">{{ .user.Name }}</span>`,
	}, map[string]any{
		"badge": map[string]any{"name": "badge"},
	})
}

func TestTwoPhaseRender(t *testing.T) {
	dir := t.TempDir()
	page := filepath.Join(dir, "home.html")
	require.NoError(t, os.WriteFile(page, []byte(
		`<div id="w">[[ widget "badge" ]]</div><p id="d">{{ .greeting }}</p>`), 0o600))

	src, err := testOuter().Expand(page)
	require.NoError(t, err)

	assert.NotContains(t, string(src), "[[")
	assert.Contains(t, string(src), `<span class="badge">{{ .user.Name }}</span>`)
	assert.Contains(t, string(src), "{{ .greeting }}")

	locals := NewLocals()
	locals.Set("greeting", "hello")
	locals.Set("user", struct{ Name string }{"Ada"})

	var out strings.Builder
	require.NoError(t, NewInner().Render(&out, "home.html", src, "text/html", locals))

	html := out.String()
	assert.NotContains(t, html, "[[")
	assert.NotContains(t, html, "{{")

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)
	assert.Equal(t, "Ada", doc.Find("#w span.badge").Text())
	assert.Equal(t, "hello", doc.Find("#d").Text())
}

func TestOuterExposesInteractorTables(t *testing.T) {
	src, err := testOuter().ExpandText("t", `[[ range $name, $w := .interactors ]]<i>[[ $name ]]</i>[[ end ]][[/* note */]]`)
	require.NoError(t, err)
	assert.Equal(t, Source("<i>badge</i>"), src)
}

func TestOuterUnknownWidget(t *testing.T) {
	_, err := testOuter().ExpandText("t", `[[ widget "missing" ]]`)
	assert.ErrorIs(t, err, ErrUnknownWidget)
}

func TestOuterMissingFile(t *testing.T) {
	_, err := testOuter().Expand(filepath.Join(t.TempDir(), "absent.html"))
	assert.Error(t, err)
}

func TestLazyProducersRunOnlyWhenReferenced(t *testing.T) {
	var thingsCalls, recipesCalls atomic.Int32

	locals := NewLocals()
	locals.SetLazy("things", func() any {
		thingsCalls.Add(1)
		return []string{"lamp", "fan"}
	})
	locals.SetLazy("recipes", func() any {
		recipesCalls.Add(1)
		return nil
	})

	var out strings.Builder
	err := NewInner().Render(&out, "t", Source(`{{ range things }}{{ . }};{{ end }}{{ len things }}`), "text/plain", locals)
	require.NoError(t, err)

	assert.Equal(t, "lamp;fan;2", out.String())
	assert.Equal(t, int32(1), thingsCalls.Load())
	assert.Equal(t, int32(0), recipesCalls.Load())
}

func TestInnerEscapingFollowsContentType(t *testing.T) {
	locals := NewLocals()
	locals.Set("v", "<b>")

	var html, text strings.Builder
	require.NoError(t, NewInner().Render(&html, "a", Source(`{{ .v }}`), "text/html; charset=utf-8", locals))
	require.NoError(t, NewInner().Render(&text, "b", Source(`{{ .v }}`), "text/plain", locals))

	assert.Equal(t, "&lt;b&gt;", html.String())
	assert.Equal(t, "<b>", text.String())
}

func TestInnerParseErrorWritesNothing(t *testing.T) {
	var out strings.Builder
	err := NewInner().Render(&out, "bad", Source(`{{ if }}`), "text/html", NewLocals())
	assert.Error(t, err)
	assert.Empty(t, out.String())
}

func TestInnerJSONHelper(t *testing.T) {
	locals := NewLocals()
	locals.Set("v", map[string]any{"a": 1})

	var out strings.Builder
	require.NoError(t, NewInner().Render(&out, "j", Source(`{{ json .v }}`), "text/plain", locals))
	assert.JSONEq(t, `{"a":1}`, out.String())
}

func TestLocalsReplaceAcrossKinds(t *testing.T) {
	locals := NewLocals()
	locals.SetLazy("settings", func() any { return "lazy" })
	locals.Set("settings", "plain")

	v, ok := locals.Get("settings")
	require.True(t, ok)
	assert.Equal(t, "plain", v)
	assert.NotContains(t, locals.FuncMap(), "settings")

	locals.SetFunc("bad-name", func() string { return "" })
	assert.NotContains(t, locals.FuncMap(), "bad-name")
}

func TestLocalsGetRunsProducerOnce(t *testing.T) {
	var calls atomic.Int32
	locals := NewLocals()
	locals.SetLazy("n", func() any { return calls.Add(1) })

	first, _ := locals.Get("n")
	second, _ := locals.Get("n")
	assert.Equal(t, first, second)
	assert.Equal(t, int32(1), calls.Load())
}

func TestRunCustomizeOutcomes(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	locals := NewLocals()

	out, err := RunCustomize(context.Background(), time.Second, nil, r, locals)
	require.NoError(t, err)
	assert.Equal(t, OutcomeContinue, out.Kind)

	out, err = RunCustomize(context.Background(), time.Second, func(_ context.Context, _ *http.Request, l *Locals) Outcome {
		l.Set("extra", 1)
		return Redirect("/elsewhere")
	}, r, locals)
	require.NoError(t, err)
	assert.Equal(t, Outcome{Kind: OutcomeRedirect, Target: "/elsewhere"}, out)
	_, ok := locals.Get("extra")
	assert.True(t, ok)

	out, err = RunCustomize(context.Background(), time.Second, func(context.Context, *http.Request, *Locals) Outcome {
		return Fail("no such recipe")
	}, r, locals)
	require.NoError(t, err)
	assert.Equal(t, OutcomeFail, out.Kind)
	assert.Equal(t, "no such recipe", out.Message)
}

func TestRunCustomizeTimeout(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	release := make(chan struct{})
	defer close(release)

	_, err := RunCustomize(context.Background(), 20*time.Millisecond, func(context.Context, *http.Request, *Locals) Outcome {
		<-release
		return Continue()
	}, r, NewLocals())
	assert.ErrorIs(t, err, ErrCustomizeTimeout)
}

func TestRunCustomizePanic(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	_, err := RunCustomize(context.Background(), time.Second, func(context.Context, *http.Request, *Locals) Outcome {
		panic("boom")
	}, r, NewLocals())
	assert.ErrorIs(t, err, ErrCustomizePanic)
}
