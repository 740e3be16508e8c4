package stories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/mindnestapp/mindnest/pkg/errcodes"
	"github.com/mindnestapp/mindnest/pkg/models"
	"github.com/mindnestapp/mindnest/pkg/storage"
	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
	"github.com/uptrace/bun"
)

// SubmitChunkParams carries one submission of the chunked upload protocol.
// When IsChunk is false the submission is a whole story handled atomically,
// bypassing the tracker entirely.
type SubmitChunkParams struct {
	IsChunk       bool
	ChunkIndex    int
	TotalChunks   int
	StoryID       *int
	Title         *string
	Content       string
	Image         *string
	Audio         *string
	AudioDuration *float64
}

// ChunkResult is what every submission returns: the story snapshot plus the
// session progress the client needs to resume or render a progress bar.
type ChunkResult struct {
	Story          *models.Story
	ChunksReceived int
	TotalChunks    int
	IsComplete     bool
}

type RetrieveStoryOptions struct {
	ID              int
	AuthorID        *int
	IncludeDrafts   bool
	IncludeComments bool
}

type ListStoriesOptions struct {
	Limit    *int
	Offset   *int
	AuthorID *int

	includeTotal bool
}

type Service struct {
	db    *bun.DB
	store storage.ObjectStore
	locks *storyLocks
}

func NewService(db *bun.DB, store storage.ObjectStore) *Service {
	return &Service{
		db:    db,
		store: store,
		locks: newStoryLocks(),
	}
}

// SubmitChunk is the create path of the upload protocol: it either creates a
// whole story in one shot, opens a new chunked session, or continues one.
func (svc *Service) SubmitChunk(ctx context.Context, authorID int, params SubmitChunkParams) (*ChunkResult, error) {
	if !params.IsChunk {
		return svc.createWhole(ctx, authorID, params)
	}

	if params.ChunkIndex == 0 {
		return svc.openCreateSession(ctx, authorID, params)
	}

	if params.StoryID == nil {
		return nil, errcodes.ValidationError(`"story_id" is required`)
	}

	return svc.continueSession(ctx, authorID, *params.StoryID, params)
}

// SubmitEditChunk is the edit path. Unlike create, chunk 0 overwrites the
// story's content (a new edit session discards any previous edit in progress)
// and resets an existing tracker instead of creating a duplicate.
func (svc *Service) SubmitEditChunk(ctx context.Context, authorID, storyID int, params SubmitChunkParams) (*ChunkResult, error) {
	if !params.IsChunk {
		return svc.editWhole(ctx, authorID, storyID, params)
	}

	if params.ChunkIndex == 0 {
		return svc.openEditSession(ctx, authorID, storyID, params)
	}

	return svc.continueSession(ctx, authorID, storyID, params)
}

// createWhole creates a complete story in a single step. No tracker row is
// ever written.
func (svc *Service) createWhole(ctx context.Context, authorID int, params SubmitChunkParams) (*ChunkResult, error) {
	now := time.Now()
	story := &models.Story{
		AuthorID:   authorID,
		Content:    params.Content,
		IsComplete: true,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	applyMetadata(story, params)

	_, err := svc.db.NewInsert().Model(story).Exec(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	return &ChunkResult{
		Story:          story,
		ChunksReceived: 1,
		TotalChunks:    1,
		IsComplete:     true,
	}, nil
}

// openCreateSession handles chunk 0 of a new story: the draft story and its
// tracker are created together in one transaction.
func (svc *Service) openCreateSession(ctx context.Context, authorID int, params SubmitChunkParams) (*ChunkResult, error) {
	now := time.Now()
	complete := params.TotalChunks == 1

	story := &models.Story{
		AuthorID:   authorID,
		Content:    params.Content,
		IsComplete: complete,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	applyMetadata(story, params)

	tracker := &models.StoryChunkTracker{
		Content:        params.Content,
		ChunkIndex:     0,
		ReceivedChunks: 1,
		TotalChunks:    params.TotalChunks,
		IsComplete:     complete,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	err := svc.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		_, err := tx.NewInsert().Model(story).Exec(ctx)
		if err != nil {
			return errors.WithStack(err)
		}
		tracker.StoryID = story.ID
		_, err = tx.NewInsert().Model(tracker).Exec(ctx)
		return errors.WithStack(err)
	})
	if err != nil {
		return nil, err
	}

	return &ChunkResult{
		Story:          story,
		ChunksReceived: 1,
		TotalChunks:    tracker.TotalChunks,
		IsComplete:     complete,
	}, nil
}

// continueSession applies a non-zero chunk to an open session. Shared by the
// create and edit paths; by the time a session is open they behave the same.
func (svc *Service) continueSession(ctx context.Context, authorID, storyID int, params SubmitChunkParams) (*ChunkResult, error) {
	unlock := svc.locks.Lock(storyID)
	defer unlock()

	var story *models.Story
	var tracker *models.StoryChunkTracker

	err := svc.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		story = &models.Story{}
		err := tx.NewSelect().
			Model(story).
			Where("s.id = ?", storyID).
			Where("s.author_id = ?", authorID).
			Where("s.is_complete = ?", false).
			Scan(ctx)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return errcodes.NotFound("Story")
			}
			return errors.WithStack(err)
		}

		tracker = &models.StoryChunkTracker{}
		err = tx.NewSelect().
			Model(tracker).
			Where("ct.story_id = ?", storyID).
			Scan(ctx)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				// The session was never opened (or was cleaned up); the
				// client has to restart from chunk 0.
				return errcodes.NotFound("Chunk tracking information")
			}
			return errors.WithStack(err)
		}

		if params.TotalChunks != tracker.TotalChunks {
			return errcodes.ValidationError(`"total_chunks" doesn't match the open upload session`)
		}
		if params.ChunkIndex >= tracker.TotalChunks {
			return errcodes.ValidationError(fmt.Sprintf(`"chunk_index" must be less than %d`, tracker.TotalChunks))
		}
		if params.ChunkIndex <= tracker.ChunkIndex {
			return errcodes.ValidationError(fmt.Sprintf("chunk %d has already been applied", params.ChunkIndex))
		}

		now := time.Now()

		tracker.Content += params.Content
		tracker.ChunkIndex = params.ChunkIndex
		tracker.ReceivedChunks++
		tracker.UpdatedAt = now

		story.Content += params.Content
		story.UpdatedAt = now

		// Completion still keys off the final index, not the received count,
		// so a session with skipped indices completes with gaps. Kept for
		// client compatibility; the bounds checks above at least reject
		// duplicates and out-of-order replays.
		if params.ChunkIndex == tracker.TotalChunks-1 {
			applyMetadata(story, params)
			story.IsComplete = true
			tracker.IsComplete = true
		}

		_, err = tx.NewUpdate().Model(story).WherePK().Exec(ctx)
		if err != nil {
			return errors.WithStack(err)
		}
		_, err = tx.NewUpdate().Model(tracker).WherePK().Exec(ctx)
		return errors.WithStack(err)
	})
	if err != nil {
		return nil, err
	}

	return &ChunkResult{
		Story:          story,
		ChunksReceived: tracker.ReceivedChunks,
		TotalChunks:    tracker.TotalChunks,
		IsComplete:     tracker.IsComplete,
	}, nil
}

// openEditSession handles chunk 0 of an edit: story content is overwritten,
// and an existing tracker is reset in place rather than duplicated.
func (svc *Service) openEditSession(ctx context.Context, authorID, storyID int, params SubmitChunkParams) (*ChunkResult, error) {
	unlock := svc.locks.Lock(storyID)
	defer unlock()

	var story *models.Story
	var tracker *models.StoryChunkTracker
	var replaced []string

	err := svc.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		story = &models.Story{}
		err := tx.NewSelect().
			Model(story).
			Where("s.id = ?", storyID).
			Where("s.author_id = ?", authorID).
			Scan(ctx)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return errcodes.NotFound("Story")
			}
			return errors.WithStack(err)
		}

		now := time.Now()
		complete := params.TotalChunks == 1

		replaced = replacedMediaURLs(story, params)

		story.Content = params.Content
		story.IsComplete = complete
		story.UpdatedAt = now
		applyMetadata(story, params)

		_, err = tx.NewUpdate().Model(story).WherePK().Exec(ctx)
		if err != nil {
			return errors.WithStack(err)
		}

		tracker = &models.StoryChunkTracker{}
		err = tx.NewSelect().
			Model(tracker).
			Where("ct.story_id = ?", storyID).
			Scan(ctx)
		switch {
		case err == nil:
			// Reset the existing session in place.
			tracker.Content = params.Content
			tracker.ChunkIndex = 0
			tracker.ReceivedChunks = 1
			tracker.TotalChunks = params.TotalChunks
			tracker.IsComplete = complete
			tracker.UpdatedAt = now
			_, err = tx.NewUpdate().Model(tracker).WherePK().Exec(ctx)
			return errors.WithStack(err)
		case errors.Is(err, sql.ErrNoRows):
			tracker = &models.StoryChunkTracker{
				StoryID:        storyID,
				Content:        params.Content,
				ChunkIndex:     0,
				ReceivedChunks: 1,
				TotalChunks:    params.TotalChunks,
				IsComplete:     complete,
				CreatedAt:      now,
				UpdatedAt:      now,
			}
			_, err = tx.NewInsert().Model(tracker).Exec(ctx)
			return errors.WithStack(err)
		default:
			return errors.WithStack(err)
		}
	})
	if err != nil {
		return nil, err
	}

	svc.deleteObjects(ctx, replaced)

	return &ChunkResult{
		Story:          story,
		ChunksReceived: tracker.ReceivedChunks,
		TotalChunks:    tracker.TotalChunks,
		IsComplete:     tracker.IsComplete,
	}, nil
}

// editWhole replaces a story in one atomic step and closes any open session.
func (svc *Service) editWhole(ctx context.Context, authorID, storyID int, params SubmitChunkParams) (*ChunkResult, error) {
	unlock := svc.locks.Lock(storyID)
	defer unlock()

	var story *models.Story
	var replaced []string

	err := svc.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		story = &models.Story{}
		err := tx.NewSelect().
			Model(story).
			Where("s.id = ?", storyID).
			Where("s.author_id = ?", authorID).
			Scan(ctx)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return errcodes.NotFound("Story")
			}
			return errors.WithStack(err)
		}

		replaced = replacedMediaURLs(story, params)

		story.Content = params.Content
		story.IsComplete = true
		story.UpdatedAt = time.Now()
		applyMetadata(story, params)

		_, err = tx.NewUpdate().Model(story).WherePK().Exec(ctx)
		if err != nil {
			return errors.WithStack(err)
		}

		// A whole-story edit supersedes any open chunked session.
		_, err = tx.NewDelete().
			Model((*models.StoryChunkTracker)(nil)).
			Where("story_id = ?", storyID).
			Exec(ctx)
		return errors.WithStack(err)
	})
	if err != nil {
		return nil, err
	}

	svc.deleteObjects(ctx, replaced)

	return &ChunkResult{
		Story:          story,
		ChunksReceived: 1,
		TotalChunks:    1,
		IsComplete:     true,
	}, nil
}

// RetrieveStory fetches one story. Drafts are only visible when the options
// say so (i.e. to their author).
func (svc *Service) RetrieveStory(ctx context.Context, opts RetrieveStoryOptions) (*models.Story, error) {
	story := &models.Story{}

	q := svc.db.NewSelect().
		Model(story).
		Relation("Author").
		Where("s.id = ?", opts.ID)

	if opts.AuthorID != nil {
		q = q.Where("s.author_id = ?", *opts.AuthorID)
	}
	if !opts.IncludeDrafts {
		q = q.Where("s.is_complete = ?", true)
	}
	if opts.IncludeComments {
		q = q.Relation("Comments", func(sq *bun.SelectQuery) *bun.SelectQuery {
			return sq.Order("c.created_at ASC")
		}).Relation("Likes")
	}

	err := q.Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errcodes.NotFound("Story")
		}
		return nil, errors.WithStack(err)
	}

	return story, nil
}

func (svc *Service) ListStories(ctx context.Context, opts ListStoriesOptions) ([]*models.Story, error) {
	s, _, err := svc.listStoriesWithTotal(ctx, opts)
	return s, errors.WithStack(err)
}

func (svc *Service) ListStoriesWithTotal(ctx context.Context, opts ListStoriesOptions) ([]*models.Story, int, error) {
	opts.includeTotal = true
	return svc.listStoriesWithTotal(ctx, opts)
}

func (svc *Service) listStoriesWithTotal(ctx context.Context, opts ListStoriesOptions) ([]*models.Story, int, error) {
	stories := []*models.Story{}
	var total int
	var err error

	// Drafts under construction never show up in listings.
	q := svc.db.NewSelect().
		Model(&stories).
		Relation("Author").
		Where("s.is_complete = ?", true).
		Order("s.created_at DESC")

	if opts.Limit != nil {
		q = q.Limit(*opts.Limit)
	}
	if opts.Offset != nil {
		q = q.Offset(*opts.Offset)
	}
	if opts.AuthorID != nil {
		q = q.Where("s.author_id = ?", *opts.AuthorID)
	}

	if opts.includeTotal {
		total, err = q.ScanAndCount(ctx)
	} else {
		err = q.Scan(ctx)
	}
	if err != nil {
		return nil, 0, errors.WithStack(err)
	}

	return stories, total, nil
}

// DeleteStory removes a story; the tracker, comments, and likes cascade.
// Stored media objects are removed best-effort afterwards.
func (svc *Service) DeleteStory(ctx context.Context, authorID, storyID int) error {
	unlock := svc.locks.Lock(storyID)
	defer unlock()

	story := &models.Story{}
	err := svc.db.NewSelect().
		Model(story).
		Where("s.id = ?", storyID).
		Where("s.author_id = ?", authorID).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return errcodes.NotFound("Story")
		}
		return errors.WithStack(err)
	}

	_, err = svc.db.NewDelete().
		Model((*models.Story)(nil)).
		Where("id = ?", storyID).
		Exec(ctx)
	if err != nil {
		return errors.WithStack(err)
	}

	urls := []string{}
	if story.ImageURL != nil {
		urls = append(urls, *story.ImageURL)
	}
	if story.AudioURL != nil {
		urls = append(urls, *story.AudioURL)
	}
	svc.deleteObjects(ctx, urls)

	return nil
}

// CreateComment adds a comment to a complete story.
func (svc *Service) CreateComment(ctx context.Context, authorID, storyID int, body string) (*models.Comment, error) {
	_, err := svc.RetrieveStory(ctx, RetrieveStoryOptions{ID: storyID})
	if err != nil {
		return nil, err
	}

	now := time.Now()
	comment := &models.Comment{
		StoryID:   storyID,
		AuthorID:  authorID,
		Body:      body,
		CreatedAt: now,
		UpdatedAt: now,
	}
	_, err = svc.db.NewInsert().Model(comment).Exec(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return comment, nil
}

// LikeStory records a like on a complete story. Liking twice is a no-op.
func (svc *Service) LikeStory(ctx context.Context, userID, storyID int) error {
	_, err := svc.RetrieveStory(ctx, RetrieveStoryOptions{ID: storyID})
	if err != nil {
		return err
	}

	like := &models.Like{
		StoryID:   storyID,
		UserID:    userID,
		CreatedAt: time.Now(),
	}
	_, err = svc.db.NewInsert().
		Model(like).
		On("CONFLICT (story_id, user_id) DO NOTHING").
		Exec(ctx)
	return errors.WithStack(err)
}

// DeleteStaleSessions discards upload sessions that have sat incomplete for
// longer than ttl. Abandoned create sessions take their draft story with
// them; abandoned edit sessions only lose the tracker, leaving the last
// complete version of the story in place.
func (svc *Service) DeleteStaleSessions(ctx context.Context, ttl time.Duration) (int64, error) {
	cutoff := time.Now().Add(-ttl)

	var deleted int64
	err := svc.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		// Draft stories with a stale session were never published; drop them
		// entirely (the tracker cascades).
		result, err := tx.NewDelete().
			Model((*models.Story)(nil)).
			Where("is_complete = ?", false).
			Where("id IN (SELECT story_id FROM story_chunk_trackers WHERE is_complete = ? AND updated_at < ?)", false, cutoff).
			Exec(ctx)
		if err != nil {
			return errors.WithStack(err)
		}
		n, _ := result.RowsAffected()
		deleted += n

		result, err = tx.NewDelete().
			Model((*models.StoryChunkTracker)(nil)).
			Where("is_complete = ?", false).
			Where("updated_at < ?", cutoff).
			Exec(ctx)
		if err != nil {
			return errors.WithStack(err)
		}
		n, _ = result.RowsAffected()
		deleted += n
		return nil
	})
	if err != nil {
		return 0, err
	}

	return deleted, nil
}

// RetrieveTracker exposes the session record, mostly for tests and the
// cleanup worker.
func (svc *Service) RetrieveTracker(ctx context.Context, storyID int) (*models.StoryChunkTracker, error) {
	tracker := &models.StoryChunkTracker{}
	err := svc.db.NewSelect().
		Model(tracker).
		Where("ct.story_id = ?", storyID).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errcodes.NotFound("Chunk tracking information")
		}
		return nil, errors.WithStack(err)
	}
	return tracker, nil
}

// applyMetadata copies the optional fields onto the story. Only meaningful on
// the first and last chunk of a session.
func applyMetadata(story *models.Story, params SubmitChunkParams) {
	if params.Title != nil {
		story.Title = params.Title
	}
	if params.Image != nil {
		story.ImageURL = params.Image
	}
	if params.Audio != nil {
		story.AudioURL = params.Audio
	}
	if params.AudioDuration != nil {
		story.AudioDuration = params.AudioDuration
	}
}

// replacedMediaURLs returns the previously stored media URLs that this
// submission replaces with different ones.
func replacedMediaURLs(story *models.Story, params SubmitChunkParams) []string {
	urls := []string{}
	if params.Image != nil && story.ImageURL != nil && *story.ImageURL != *params.Image {
		urls = append(urls, *story.ImageURL)
	}
	if params.Audio != nil && story.AudioURL != nil && *story.AudioURL != *params.Audio {
		urls = append(urls, *story.AudioURL)
	}
	return urls
}

// deleteObjects removes stored media best-effort; a failed delete only leaves
// an orphaned object behind, never a broken story.
func (svc *Service) deleteObjects(ctx context.Context, urls []string) {
	if svc.store == nil {
		return
	}
	log := logger.FromContext(ctx)
	for _, u := range urls {
		if err := svc.store.DeleteObjectByURL(ctx, u); err != nil {
			log.Warn("failed to delete stored object", logger.Data{"url": u, "error": err.Error()})
		}
	}
}
