package view

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/surveyhub/surveyhub/internal/shared"
)

func TestNewEngine(t *testing.T) {
	engine, err := NewEngine()
	assert.NoError(t, err, "Templates should parse without error")
	assert.NotNil(t, engine)
}

func TestEngineDefinesEveryPage(t *testing.T) {
	engine, err := NewEngine()
	require.NoError(t, err)
	for _, name := range []string{
		"pages/home.html",
		"pages/auth.html",
		"pages/pending.html",
		"pages/create.html",
		"pages/preview.html",
		"pages/take.html",
		"pages/thanks.html",
		"pages/analytics.html",
		"pages/contact.html",
		"pages/profiles.html",
		"pages/notfound.html",
	} {
		assert.True(t, engine.Has(name), "missing template %s", name)
	}
}

func TestRenderNavigationForAdmin(t *testing.T) {
	engine, err := NewEngine()
	require.NoError(t, err)
	rr := httptest.NewRecorder()
	err = engine.Render(rr, "pages/home.html", TemplateData{
		Title:  "SurveyHub",
		Viewer: Viewer{SignedIn: true, Email: "ada@example.com", IsAdmin: true},
	})
	require.NoError(t, err)
	body := rr.Body.String()
	assert.Contains(t, body, `href="/create"`)
	assert.Contains(t, body, `href="/profiles"`)
	assert.Contains(t, body, `action="/auth/signout"`)
	assert.Contains(t, body, "ada@example.com")
	assert.Equal(t, "text/html; charset=utf-8", rr.Header().Get("Content-Type"))
}

func TestRenderNavigationForVisitors(t *testing.T) {
	engine, err := NewEngine()
	require.NoError(t, err)
	rr := httptest.NewRecorder()
	require.NoError(t, engine.Render(rr, "pages/home.html", TemplateData{Title: "SurveyHub"}))
	body := rr.Body.String()
	assert.Contains(t, body, `href="/create"`)
	assert.Contains(t, body, `href="/auth"`)
	assert.NotContains(t, body, `href="/profiles"`)
	assert.NotContains(t, body, `action="/auth/signout"`)
}

func TestRenderNavigationForSignedInUser(t *testing.T) {
	engine, err := NewEngine()
	require.NoError(t, err)
	rr := httptest.NewRecorder()
	require.NoError(t, engine.Render(rr, "pages/home.html", TemplateData{
		Title:  "SurveyHub",
		Viewer: Viewer{SignedIn: true, Email: "grace@example.com"},
	}))
	body := rr.Body.String()
	assert.Contains(t, body, `action="/auth/signout"`)
	assert.NotContains(t, body, `href="/profiles"`)
	assert.NotContains(t, body, `href="/auth"`)
}

func TestRenderFlash(t *testing.T) {
	engine, err := NewEngine()
	require.NoError(t, err)
	rr := httptest.NewRecorder()
	require.NoError(t, engine.Render(rr, "pages/home.html", TemplateData{
		Title: "SurveyHub",
		Flash: &shared.FlashMessage{Kind: "success", Message: "Signed in successfully!"},
	}))
	assert.Contains(t, rr.Body.String(), "Signed in successfully!")
	assert.Contains(t, rr.Body.String(), "flash-success")
}
