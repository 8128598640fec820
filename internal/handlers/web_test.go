package handlers

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwebster45206/comic-crush/internal/engine"
	"github.com/jwebster45206/comic-crush/internal/services"
	"github.com/jwebster45206/comic-crush/internal/view"
)

func newTestWebHandler(t *testing.T, model services.ModelService) (*WebHandler, func() int) {
	t.Helper()
	renderer, err := view.NewHTMLRenderer()
	require.NoError(t, err)
	reg := newTestRegistry(t, model, nil)
	return NewWebHandler(reg, renderer, testLogger()), reg.Len
}

func postForm(h http.Handler, path string, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func get(h http.Handler, path string) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, nil))
	return rr
}

func TestWebHandler_StartScreen(t *testing.T) {
	h, _ := newTestWebHandler(t, services.NewMockModelService())

	rr := get(h, "/")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Header().Get("Content-Type"), "text/html")
	body := rr.Body.String()
	assert.Contains(t, body, `action="/games"`)
	assert.Contains(t, body, "Superhero Romance")
	assert.Contains(t, body, "High School Drama")
}

func TestWebHandler_PlayThrough(t *testing.T) {
	h, sessions := newTestWebHandler(t, services.NewMockModelService())

	rr := postForm(h, "/games", url.Values{"player_name": {"Sam"}, "genre": {"Detective Noir"}})
	require.Equal(t, http.StatusSeeOther, rr.Code)
	loc := rr.Header().Get("Location")
	require.True(t, strings.HasPrefix(loc, "/games/"), loc)
	assert.Equal(t, 1, sessions())

	rr = get(h, loc)
	require.Equal(t, http.StatusOK, rr.Code)
	body := rr.Body.String()
	assert.Contains(t, body, "VERA")
	assert.Contains(t, body, "This is line 1.")
	assert.Contains(t, body, "Take her hand")
	assert.Contains(t, body, "DETECTIVE")

	rr = postForm(h, loc+"/choices", url.Values{"choice_id": {"1-b"}})
	require.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, loc, rr.Header().Get("Location"))

	body = get(h, loc).Body.String()
	assert.Contains(t, body, "This is line 2.")
}

func TestWebHandler_EmptyName(t *testing.T) {
	h, sessions := newTestWebHandler(t, services.NewMockModelService())

	rr := postForm(h, "/games", url.Values{"player_name": {"  "}})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "Enter a name to begin.")
	assert.Equal(t, 0, sessions())
}

func TestWebHandler_ErrorToastAndDismiss(t *testing.T) {
	model := services.NewMockModelService()
	h, _ := newTestWebHandler(t, model)

	loc := postForm(h, "/games", url.Values{"player_name": {"Sam"}}).Header().Get("Location")
	model.SetStoryTurnError(errors.New("boom"))

	rr := postForm(h, loc+"/choices", url.Values{"choice_id": {"1-a"}})
	require.Equal(t, http.StatusSeeOther, rr.Code)

	body := get(h, loc).Body.String()
	assert.Contains(t, body, "ERROR: "+engine.MsgChoiceFailed)
	assert.Contains(t, body, "This is line 1.")

	postForm(h, loc+"/dismiss", nil)
	assert.NotContains(t, get(h, loc).Body.String(), "ERROR: ")
}

func TestWebHandler_StartFailureShowsStartScreen(t *testing.T) {
	model := services.NewMockModelService()
	model.SetStoryTurnError(errors.New("no key"))
	h, _ := newTestWebHandler(t, model)

	loc := postForm(h, "/games", url.Values{"player_name": {"Sam"}}).Header().Get("Location")
	body := get(h, loc).Body.String()
	assert.Contains(t, body, "ERROR: "+engine.MsgStartFailed)
	assert.Contains(t, body, `action="`+loc+`/start"`)
}

func TestWebHandler_UnknownGameRedirectsHome(t *testing.T) {
	h, _ := newTestWebHandler(t, services.NewMockModelService())

	rr := get(h, "/games/"+uuid.NewString())
	assert.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, "/", rr.Header().Get("Location"))

	assert.Equal(t, http.StatusNotFound, get(h, "/games/nope").Code)
}
