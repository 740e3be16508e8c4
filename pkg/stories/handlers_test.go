package stories

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/mindnestapp/mindnest/pkg/binder"
	"github.com/mindnestapp/mindnest/pkg/errcodes"
	"github.com/mindnestapp/mindnest/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStoriesTestContext(t *testing.T, method, path, payload string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()

	e := echo.New()
	b, err := binder.New()
	require.NoError(t, err)
	e.Binder = b
	e.HTTPErrorHandler = errcodes.NewHandler().Handle

	req := httptest.NewRequest(method, path, strings.NewReader(payload))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rr := httptest.NewRecorder()
	return e.NewContext(req, rr), rr
}

func setAuthenticatedUser(c echo.Context, user *models.User) {
	c.Set("user_id", user.ID)
	c.Set("user", user)
}

func TestHandlerSubmit_WholeStory(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	h := &handler{svc: NewService(db, nil)}
	ctx := context.Background()
	user := createTestUser(ctx, t, db, "hwhole@example.com")

	c, rr := newStoriesTestContext(t, http.MethodPost, "/stories", `{"is_chunk":false,"title":"One Shot","content":"Just one shot"}`)
	setAuthenticatedUser(c, user)

	err := h.submit(c)
	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, rr.Code)

	body := rr.Body.String()
	assert.Contains(t, body, `"is_complete":true`)
	assert.Contains(t, body, `"chunks_received":1`)
	assert.Contains(t, body, "Just one shot")
}

func TestHandlerSubmit_ChunkedSequence(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	h := &handler{svc: NewService(db, nil)}
	ctx := context.Background()
	user := createTestUser(ctx, t, db, "hchunks@example.com")

	c, rr := newStoriesTestContext(t, http.MethodPost, "/stories", `{"is_chunk":true,"chunk_index":0,"total_chunks":2,"content":"Hello "}`)
	setAuthenticatedUser(c, user)
	require.NoError(t, h.submit(c))
	assert.Equal(t, http.StatusCreated, rr.Code)
	assert.Contains(t, rr.Body.String(), `"is_complete":false`)

	story := &models.Story{}
	err := db.NewSelect().Model(story).Where("s.author_id = ?", user.ID).Scan(ctx)
	require.NoError(t, err)

	c, rr = newStoriesTestContext(t, http.MethodPost, "/stories", `{"is_chunk":true,"chunk_index":1,"total_chunks":2,"story_id":`+strconv.Itoa(story.ID)+`,"content":"World"}`)
	setAuthenticatedUser(c, user)
	require.NoError(t, h.submit(c))
	assert.Equal(t, http.StatusOK, rr.Code)

	body := rr.Body.String()
	assert.Contains(t, body, `"is_complete":true`)
	assert.Contains(t, body, "Hello World")
}

func TestHandlerSubmit_RequiresAuthentication(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	h := &handler{svc: NewService(db, nil)}

	c, _ := newStoriesTestContext(t, http.MethodPost, "/stories", `{"content":"anonymous"}`)

	err := h.submit(c)
	require.Error(t, err)

	var codeErr *errcodes.Error
	require.ErrorAs(t, err, &codeErr)
	assert.Equal(t, "unauthorized", codeErr.Code)
}

func TestHandlerSubmit_ValidatesContent(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	h := &handler{svc: NewService(db, nil)}
	user := createTestUser(context.Background(), t, db, "hvalidate@example.com")

	c, _ := newStoriesTestContext(t, http.MethodPost, "/stories", `{"is_chunk":false}`)
	setAuthenticatedUser(c, user)

	err := h.submit(c)
	require.Error(t, err)

	var codeErr *errcodes.Error
	require.ErrorAs(t, err, &codeErr)
	assert.Equal(t, "validation_error", codeErr.Code)
}

func TestHandlerEdit_Overwrites(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	h := &handler{svc: NewService(db, nil)}
	ctx := context.Background()
	user := createTestUser(ctx, t, db, "hedit@example.com")

	created, err := h.svc.SubmitChunk(ctx, user.ID, SubmitChunkParams{
		IsChunk: false,
		Content: "Original",
	})
	require.NoError(t, err)
	id := strconv.Itoa(created.Story.ID)

	c, rr := newStoriesTestContext(t, http.MethodPut, "/stories/"+id, `{"is_chunk":false,"content":"Replaced"}`)
	c.SetPath("/stories/:id")
	c.SetParamNames("id")
	c.SetParamValues(id)
	setAuthenticatedUser(c, user)

	require.NoError(t, h.edit(c))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "Replaced")
	assert.NotContains(t, rr.Body.String(), "Original")
}

func TestHandlerRetrieve_InvalidID(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	h := &handler{svc: NewService(db, nil)}

	c, _ := newStoriesTestContext(t, http.MethodGet, "/stories/abc", "")
	c.SetPath("/stories/:id")
	c.SetParamNames("id")
	c.SetParamValues("abc")

	err := h.retrieve(c)
	require.Error(t, err)

	var codeErr *errcodes.Error
	require.ErrorAs(t, err, &codeErr)
	assert.Equal(t, "validation_error", codeErr.Code)
}

func TestHandlerList_ReturnsTotal(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	h := &handler{svc: NewService(db, nil)}
	ctx := context.Background()
	user := createTestUser(ctx, t, db, "hlist@example.com")

	for i := 0; i < 3; i++ {
		_, err := h.svc.SubmitChunk(ctx, user.ID, SubmitChunkParams{
			IsChunk: false,
			Content: "story " + strconv.Itoa(i),
		})
		require.NoError(t, err)
	}

	c, rr := newStoriesTestContext(t, http.MethodGet, "/stories?limit=2", "")
	require.NoError(t, h.list(c))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"total":3`)
}

func TestHandlerCreateComment(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	h := &handler{svc: NewService(db, nil)}
	ctx := context.Background()
	author := createTestUser(ctx, t, db, "hcauthor@example.com")
	reader := createTestUser(ctx, t, db, "hcreader@example.com")

	published, err := h.svc.SubmitChunk(ctx, author.ID, SubmitChunkParams{
		IsChunk: false,
		Content: "readable",
	})
	require.NoError(t, err)
	id := strconv.Itoa(published.Story.ID)

	c, rr := newStoriesTestContext(t, http.MethodPost, "/stories/"+id+"/comments", `{"body":"  lovely  "}`)
	c.SetPath("/stories/:id/comments")
	c.SetParamNames("id")
	c.SetParamValues(id)
	setAuthenticatedUser(c, reader)

	require.NoError(t, h.createComment(c))
	assert.Equal(t, http.StatusCreated, rr.Code)
	// The trim modifier strips the padding before validation.
	assert.Contains(t, rr.Body.String(), `"body":"lovely"`)
}
