package stories

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/mindnestapp/mindnest/pkg/auth"
	"github.com/mindnestapp/mindnest/pkg/errcodes"
	"github.com/mindnestapp/mindnest/pkg/models"
	"github.com/mindnestapp/mindnest/pkg/storage"
	"github.com/pkg/errors"
)

const uploadURLExpiry = 15 * time.Minute

type handler struct {
	svc   *Service
	store storage.ObjectStore
}

// chunkResponse is the JSON body every chunk submission returns.
type chunkResponse struct {
	Success        bool          `json:"success"`
	Message        string        `json:"message"`
	Story          *models.Story `json:"story"`
	ChunksReceived int           `json:"chunks_received"`
	TotalChunks    int           `json:"total_chunks"`
	IsComplete     bool          `json:"is_complete"`
}

func newChunkResponse(result *ChunkResult) chunkResponse {
	msg := "Chunk received"
	if result.IsComplete {
		msg = "Story saved"
	}
	return chunkResponse{
		Success:        true,
		Message:        msg,
		Story:          result.Story,
		ChunksReceived: result.ChunksReceived,
		TotalChunks:    result.TotalChunks,
		IsComplete:     result.IsComplete,
	}
}

func paramID(c echo.Context, name string) (int, error) {
	id, err := strconv.Atoi(c.Param(name))
	if err != nil || id < 1 {
		return 0, errcodes.ValidationError(`"` + name + `" must be a positive integer`)
	}
	return id, nil
}

func chunkParams(payload SubmitChunkPayload) SubmitChunkParams {
	return SubmitChunkParams{
		IsChunk:       payload.IsChunk,
		ChunkIndex:    payload.ChunkIndex,
		TotalChunks:   payload.TotalChunks,
		StoryID:       payload.StoryID,
		Title:         payload.Title,
		Content:       payload.Content,
		Image:         payload.Image,
		Audio:         payload.Audio,
		AudioDuration: payload.AudioDuration,
	}
}

// submit handles POST /stories: whole stories, chunk 0, and continuation
// chunks alike.
func (h *handler) submit(c echo.Context) error {
	ctx := c.Request().Context()

	user, ok := auth.UserFromContext(c)
	if !ok {
		return errcodes.Unauthorized("Authentication required")
	}

	payload := SubmitChunkPayload{}
	if err := c.Bind(&payload); err != nil {
		return errors.WithStack(err)
	}

	result, err := h.svc.SubmitChunk(ctx, user.ID, chunkParams(payload))
	if err != nil {
		return err
	}

	status := http.StatusOK
	if payload.ChunkIndex == 0 || !payload.IsChunk {
		status = http.StatusCreated
	}
	return c.JSON(status, newChunkResponse(result))
}

// edit handles PUT /stories/:id with the same chunked protocol as submit.
func (h *handler) edit(c echo.Context) error {
	ctx := c.Request().Context()

	user, ok := auth.UserFromContext(c)
	if !ok {
		return errcodes.Unauthorized("Authentication required")
	}

	storyID, err := paramID(c, "id")
	if err != nil {
		return err
	}

	payload := SubmitChunkPayload{}
	if err := c.Bind(&payload); err != nil {
		return errors.WithStack(err)
	}

	result, err := h.svc.SubmitEditChunk(ctx, user.ID, storyID, chunkParams(payload))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, newChunkResponse(result))
}

func (h *handler) list(c echo.Context) error {
	ctx := c.Request().Context()

	query := ListStoriesQuery{}
	if err := c.Bind(&query); err != nil {
		return errors.WithStack(err)
	}

	stories, total, err := h.svc.ListStoriesWithTotal(ctx, ListStoriesOptions{
		Limit:    &query.Limit,
		Offset:   &query.Offset,
		AuthorID: query.AuthorID,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"stories": stories,
		"total":   total,
	})
}

func (h *handler) retrieve(c echo.Context) error {
	ctx := c.Request().Context()

	storyID, err := paramID(c, "id")
	if err != nil {
		return err
	}

	opts := RetrieveStoryOptions{ID: storyID, IncludeComments: true}
	// Authors can see their own drafts.
	if user, ok := auth.UserFromContext(c); ok {
		story, err := h.svc.RetrieveStory(ctx, RetrieveStoryOptions{
			ID:              storyID,
			AuthorID:        &user.ID,
			IncludeDrafts:   true,
			IncludeComments: true,
		})
		if err == nil {
			return c.JSON(http.StatusOK, story)
		}
		if !errors.Is(err, errcodes.NotFound("Story")) {
			return err
		}
	}

	story, err := h.svc.RetrieveStory(ctx, opts)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, story)
}

func (h *handler) delete(c echo.Context) error {
	ctx := c.Request().Context()

	user, ok := auth.UserFromContext(c)
	if !ok {
		return errcodes.Unauthorized("Authentication required")
	}

	storyID, err := paramID(c, "id")
	if err != nil {
		return err
	}

	if err := h.svc.DeleteStory(ctx, user.ID, storyID); err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]interface{}{"success": true})
}

func (h *handler) createComment(c echo.Context) error {
	ctx := c.Request().Context()

	user, ok := auth.UserFromContext(c)
	if !ok {
		return errcodes.Unauthorized("Authentication required")
	}

	storyID, err := paramID(c, "id")
	if err != nil {
		return err
	}

	payload := CreateCommentPayload{}
	if err := c.Bind(&payload); err != nil {
		return errors.WithStack(err)
	}

	comment, err := h.svc.CreateComment(ctx, user.ID, storyID, payload.Body)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, comment)
}

func (h *handler) like(c echo.Context) error {
	ctx := c.Request().Context()

	user, ok := auth.UserFromContext(c)
	if !ok {
		return errcodes.Unauthorized("Authentication required")
	}

	storyID, err := paramID(c, "id")
	if err != nil {
		return err
	}

	if err := h.svc.LikeStory(ctx, user.ID, storyID); err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]interface{}{"success": true})
}

// requestUpload issues a presigned PUT URL so clients upload media straight to
// object storage instead of through the API.
func (h *handler) requestUpload(c echo.Context) error {
	ctx := c.Request().Context()

	if _, ok := auth.UserFromContext(c); !ok {
		return errcodes.Unauthorized("Authentication required")
	}

	payload := UploadRequestPayload{}
	if err := c.Bind(&payload); err != nil {
		return errors.WithStack(err)
	}

	objectKey := storage.NewObjectKey("stories/"+payload.Kind, payload.Filename)
	uploadURL, err := h.store.PresignedPutURL(ctx, objectKey, uploadURLExpiry)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"upload_url": uploadURL,
		"object_key": objectKey,
	})
}
