package service

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/Laisky/errors/v2"
	glog "github.com/Laisky/go-utils/v6/log"
	"github.com/Laisky/zap"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/Laisky/multilingual-news/internal/web/news/dao"
	"github.com/Laisky/multilingual-news/internal/web/news/dto"
	"github.com/Laisky/multilingual-news/internal/web/news/model"
)

const (
	maxCommentLength     = 5000
	commentsCounterField = "engagement.comments_count"
)

type commentStore interface {
	GetArticle(ctx context.Context, id primitive.ObjectID) (*model.Article, error)
	IncArticleCounters(ctx context.Context, id primitive.ObjectID, inc map[string]int64) error
	GetUsersByIDs(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]*model.User, error)

	InsertComment(ctx context.Context, c *model.Comment) error
	GetComment(ctx context.Context, id primitive.ObjectID) (*model.Comment, error)
	ListArticleComments(ctx context.Context, article primitive.ObjectID, status model.CommentStatus) ([]*model.Comment, error)
	ListComments(ctx context.Context, status model.CommentStatus, page dao.Page) ([]*model.Comment, int64, error)
	UpdateCommentContent(ctx context.Context, id primitive.ObjectID, content string, at time.Time) error
	SwapCommentStatus(ctx context.Context, id primitive.ObjectID, from, to model.CommentStatus) (bool, error)
	ToggleCommentLike(ctx context.Context, id, user primitive.ObjectID) (bool, error)
}

// Comments threaded comments and their moderation
type Comments struct {
	logger      glog.Logger
	store       commentStore
	autoApprove bool
}

// NewComments create the comment service, new comments wait for moderation
// unless autoApprove
func NewComments(logger glog.Logger, store commentStore, autoApprove bool) *Comments {
	return &Comments{logger: logger, store: store, autoApprove: autoApprove}
}

// buildCommentTree nests replies under their parents and returns the roots,
// replies whose parent is not in comments are dropped
func buildCommentTree(comments []*model.Comment) []*model.Comment {
	byID := make(map[primitive.ObjectID]*model.Comment, len(comments))
	for _, c := range comments {
		c.Replies = nil
		byID[c.ID] = c
	}

	roots := []*model.Comment{}
	for _, c := range comments {
		if c.Parent == nil {
			roots = append(roots, c)
			continue
		}
		if parent, ok := byID[*c.Parent]; ok {
			parent.Replies = append(parent.Replies, c)
		}
	}

	return roots
}

func collectAuthors(comments []*model.Comment, ids map[primitive.ObjectID]bool) {
	for _, c := range comments {
		ids[c.User] = true
		collectAuthors(c.Replies, ids)
	}
}

// Authors load the users who wrote comments and their replies
func (s *Comments) Authors(ctx context.Context, comments []*model.Comment) (map[primitive.ObjectID]*model.User, error) {
	set := map[primitive.ObjectID]bool{}
	collectAuthors(comments, set)
	ids := make([]primitive.ObjectID, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}

	return s.store.GetUsersByIDs(ctx, ids)
}

// List approved comments of a published article, paginated by root comments
func (s *Comments) List(ctx context.Context, article primitive.ObjectID, page, limit int) (*dto.Paged[*model.Comment], error) {
	if _, err := publishedArticle(ctx, s.store, article); err != nil {
		return nil, err
	}

	comments, err := s.store.ListArticleComments(ctx, article, model.CommentApproved)
	if err != nil {
		return nil, err
	}
	roots := buildCommentTree(comments)

	p := Paging(page, limit)
	start := min(int(p.Skip()), len(roots))
	end := min(start+p.Limit, len(roots))
	return dto.NewPaged(roots[start:end], int64(len(roots)), p.Page, p.Limit), nil
}

func sanitizeComment(content string) (string, error) {
	content = strings.TrimSpace(content)
	switch {
	case content == "":
		return "", model.Invalid("content", "comment is empty")
	case utf8.RuneCountInString(content) > maxCommentLength:
		return "", model.Invalid("content", "exceeds max length %d", maxCommentLength)
	case strings.ContainsRune(content, '\x00'):
		return "", model.Invalid("content", "contains invalid null byte")
	}
	return content, nil
}

// Create comment on a published article as u
func (s *Comments) Create(ctx context.Context, u *model.User,
	article primitive.ObjectID, in *dto.CommentInput) (*model.Comment, error) {
	content, err := sanitizeComment(in.Content)
	if err != nil {
		return nil, err
	}

	if _, err = publishedArticle(ctx, s.store, article); err != nil {
		return nil, err
	}

	ts := now()
	c := &model.Comment{
		Article:   article,
		User:      u.ID,
		Content:   content,
		Status:    model.CommentPending,
		LikedBy:   []primitive.ObjectID{},
		CreatedAt: ts,
		UpdatedAt: ts,
	}
	if s.autoApprove {
		c.Status = model.CommentApproved
	}

	if in.Parent != nil && *in.Parent != "" {
		parentID, err := ParseID("parent", *in.Parent)
		if err != nil {
			return nil, err
		}
		parent, err := s.store.GetComment(ctx, parentID)
		if err != nil {
			if errors.Is(err, model.ErrNotFound) {
				return nil, model.Invalid("parent", "parent comment not found")
			}
			return nil, err
		}
		if parent.Article != article || parent.Status == model.CommentDeleted {
			return nil, model.Invalid("parent", "parent comment not found")
		}
		c.Parent = &parent.ID
	}

	if err = s.store.InsertComment(ctx, c); err != nil {
		return nil, err
	}
	if c.Status == model.CommentApproved {
		if err = s.store.IncArticleCounters(ctx, article, map[string]int64{commentsCounterField: 1}); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// Edit replace the content of a comment written by u
func (s *Comments) Edit(ctx context.Context, u *model.User, id primitive.ObjectID, in *dto.CommentInput) (*model.Comment, error) {
	content, err := sanitizeComment(in.Content)
	if err != nil {
		return nil, err
	}

	c, err := s.store.GetComment(ctx, id)
	if err != nil {
		return nil, err
	}
	if c.User != u.ID {
		return nil, errors.Wrap(model.ErrForbidden, "not the author")
	}
	if c.Status == model.CommentDeleted {
		return nil, errors.Wrap(model.ErrNotFound, "comment deleted")
	}

	ts := now()
	if err = s.store.UpdateCommentContent(ctx, id, content, ts); err != nil {
		return nil, err
	}
	c.Content = content
	c.EditedAt = &ts
	c.UpdatedAt = ts
	return c, nil
}

// Delete soft delete a comment, by its author or an admin
func (s *Comments) Delete(ctx context.Context, u *model.User, id primitive.ObjectID) error {
	c, err := s.store.GetComment(ctx, id)
	if err != nil {
		return err
	}
	if c.User != u.ID && !u.IsAdmin() {
		return errors.Wrap(model.ErrForbidden, "not the author")
	}

	return s.setStatus(ctx, c, model.CommentDeleted)
}

// setStatus move c to status and keep the article comments counter equal to
// the number of approved comments
func (s *Comments) setStatus(ctx context.Context, c *model.Comment, to model.CommentStatus) error {
	from := c.Status
	if from == to {
		return nil
	}

	changed, err := s.store.SwapCommentStatus(ctx, c.ID, from, to)
	if err != nil {
		return err
	}
	if !changed {
		return errors.Wrap(model.ErrConflict, "comment status changed concurrently")
	}
	c.Status = to

	var delta int64
	if from == model.CommentApproved {
		delta--
	}
	if to == model.CommentApproved {
		delta++
	}
	if delta != 0 {
		if err = s.store.IncArticleCounters(ctx, c.Article, map[string]int64{commentsCounterField: delta}); err != nil {
			return errors.Wrap(err, "adjust comments count")
		}
	}

	s.logger.Debug("comment status changed",
		zap.String("comment", c.ID.Hex()),
		zap.String("from", string(from)),
		zap.String("to", string(to)))
	return nil
}

// Like toggle the like of u on an approved comment
func (s *Comments) Like(ctx context.Context, u *model.User, id primitive.ObjectID) (*model.Comment, error) {
	c, err := s.store.GetComment(ctx, id)
	if err != nil {
		return nil, err
	}
	if c.Status != model.CommentApproved {
		return nil, errors.Wrap(model.ErrNotFound, "comment not visible")
	}

	if _, err = s.store.ToggleCommentLike(ctx, id, u.ID); err != nil {
		return nil, err
	}
	return s.store.GetComment(ctx, id)
}

// Moderation comments in status for admins, newest first
func (s *Comments) Moderation(ctx context.Context, status string, page, limit int) (*dto.Paged[*model.Comment], error) {
	st := model.CommentStatus(status)
	if st != "" && !st.Valid() {
		return nil, model.Invalid("status", "unknown status %q", status)
	}

	p := Paging(page, limit)
	comments, total, err := s.store.ListComments(ctx, st, p)
	if err != nil {
		return nil, err
	}
	return dto.NewPaged(comments, total, p.Page, p.Limit), nil
}

// SetStatus admin moderation decision
func (s *Comments) SetStatus(ctx context.Context, id primitive.ObjectID, status string) (*model.Comment, error) {
	st := model.CommentStatus(status)
	if !st.Valid() {
		return nil, model.Invalid("status", "unknown status %q", status)
	}

	c, err := s.store.GetComment(ctx, id)
	if err != nil {
		return nil, err
	}
	if err = s.setStatus(ctx, c, st); err != nil {
		return nil, err
	}
	return c, nil
}
