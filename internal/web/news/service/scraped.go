package service

import (
	"context"
	"strings"

	"github.com/Laisky/errors/v2"
	glog "github.com/Laisky/go-utils/v6/log"
	"github.com/Laisky/zap"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/Laisky/multilingual-news/internal/library/i18n"
	"github.com/Laisky/multilingual-news/internal/library/translate"
	"github.com/Laisky/multilingual-news/internal/web/news/dao"
	"github.com/Laisky/multilingual-news/internal/web/news/dto"
	"github.com/Laisky/multilingual-news/internal/web/news/model"
)

type scrapedStore interface {
	UpsertScraped(ctx context.Context, s *model.ScrapedArticle) (bool, error)
	GetScraped(ctx context.Context, id primitive.ObjectID) (*model.ScrapedArticle, error)
	GetScrapedByURL(ctx context.Context, url string) (*model.ScrapedArticle, error)
	ListScraped(ctx context.Context, q dao.ScrapedQuery) ([]*model.ScrapedArticle, int64, error)
	SetScrapedStatus(ctx context.Context, id primitive.ObjectID, status model.ScrapedStatus, imported *primitive.ObjectID) error
	DeleteScraped(ctx context.Context, id primitive.ObjectID) error
}

// Scraped review queue of articles collected from external sources
type Scraped struct {
	logger     glog.Logger
	store      scrapedStore
	articles   *Articles
	languages  *Languages
	translator *translate.Translator
}

// NewScraped create the scraped article service
func NewScraped(logger glog.Logger, store scrapedStore, articles *Articles,
	languages *Languages, translator *translate.Translator) *Scraped {
	return &Scraped{
		logger:     logger,
		store:      store,
		articles:   articles,
		languages:  languages,
		translator: translator,
	}
}

// Ingest insert or refresh a scraped article by its source url, reports whether it is new
func (s *Scraped) Ingest(ctx context.Context, in *dto.ScrapedInput) (*model.ScrapedArticle, bool, error) {
	lang := i18n.NormalizeCode(in.Language)
	if !i18n.ValidCode(lang) {
		return nil, false, model.Invalid("language", "invalid language code %q", in.Language)
	}
	title := strings.TrimSpace(in.Title)
	content := strings.TrimSpace(in.Content)
	if title == "" {
		return nil, false, model.Invalid("title", "title is empty")
	}
	if content == "" {
		return nil, false, model.Invalid("content", "content is empty")
	}

	ts := now()
	sc := &model.ScrapedArticle{
		SourceURL:   strings.TrimSpace(in.SourceURL),
		SourceName:  strings.TrimSpace(in.SourceName),
		Language:    lang,
		Title:       title,
		Summary:     strings.TrimSpace(in.Summary),
		Content:     content,
		ImageURL:    strings.TrimSpace(in.ImageURL),
		Author:      strings.TrimSpace(in.Author),
		PublishedAt: in.PublishedAt,
		ScrapedAt:   ts,
		UpdatedAt:   ts,
	}
	created, err := s.store.UpsertScraped(ctx, sc)
	if err != nil {
		return nil, false, err
	}

	stored, err := s.store.GetScrapedByURL(ctx, sc.SourceURL)
	if err != nil {
		return nil, false, err
	}
	return stored, created, nil
}

// List scraped articles by status and source
func (s *Scraped) List(ctx context.Context, status, source string, page, limit int) (*dto.Paged[*model.ScrapedArticle], error) {
	st := model.ScrapedStatus(status)
	switch st {
	case "", model.ScrapedNew, model.ScrapedImported, model.ScrapedRejected:
	default:
		return nil, model.Invalid("status", "unknown status %q", status)
	}

	p := Paging(page, limit)
	docs, total, err := s.store.ListScraped(ctx, dao.ScrapedQuery{
		Status: st,
		Source: strings.TrimSpace(source),
		Page:   p,
	})
	if err != nil {
		return nil, err
	}
	return dto.NewPaged(docs, total, p.Page, p.Limit), nil
}

// Get a scraped article
func (s *Scraped) Get(ctx context.Context, id primitive.ObjectID) (*model.ScrapedArticle, error) {
	return s.store.GetScraped(ctx, id)
}

func (s *Scraped) pending(ctx context.Context, id primitive.ObjectID) (*model.ScrapedArticle, error) {
	sc, err := s.store.GetScraped(ctx, id)
	if err != nil {
		return nil, err
	}
	if sc.Status != model.ScrapedNew {
		return nil, errors.Wrapf(model.ErrConflict, "scraped article is already %s", sc.Status)
	}
	return sc, nil
}

// Import turn a scraped article into a draft authored by u. A scraped
// article in another language than the default one is translated into the
// default language when in.Translate, otherwise it is refused.
func (s *Scraped) Import(ctx context.Context, u *model.User,
	id primitive.ObjectID, in *dto.ImportScrapedInput) (*model.Article, error) {
	sc, err := s.pending(ctx, id)
	if err != nil {
		return nil, err
	}

	def := s.languages.DefaultCode(ctx)
	title := i18n.Text{sc.Language: sc.Title}
	content := i18n.Text{sc.Language: sc.Content}
	summary := i18n.Text{}
	if sc.Summary != "" {
		summary[sc.Language] = sc.Summary
	}

	if sc.Language != def {
		if !in.Translate {
			return nil, model.Invalid("translate",
				"article is in %q, translation into the default language %q is required", sc.Language, def)
		}

		fields := translate.Fields{fieldTitle: sc.Title, fieldContent: sc.Content}
		if sc.Summary != "" {
			fields[fieldSummary] = sc.Summary
		}
		result, err := s.translator.TranslateFields(ctx, fields, sc.Language, []string{def})
		if err != nil {
			return nil, translationErr(err)
		}
		title[def] = result[fieldTitle][def]
		content[def] = result[fieldContent][def]
		if v := result[fieldSummary][def]; v != "" {
			summary[def] = v
		}
	}

	input := &dto.ArticleInput{
		Title:          title,
		Summary:        summary,
		Content:        content,
		Format:         string(model.ContentFormatHTML),
		Category:       in.Category,
		City:           in.City,
		Area:           in.Area,
		SourceLanguage: sc.Language,
	}
	if sc.ImageURL != "" {
		input.FeaturedImage = &sc.ImageURL
	}

	a, err := s.articles.Create(ctx, u, input)
	if err != nil {
		return nil, err
	}
	if err = s.store.SetScrapedStatus(ctx, sc.ID, model.ScrapedImported, &a.ID); err != nil {
		return nil, errors.Wrap(err, "mark scraped article imported")
	}

	s.logger.Info("scraped article imported",
		zap.String("scraped", sc.ID.Hex()),
		zap.String("article", a.ID.Hex()))
	return a, nil
}

// Reject drop a scraped article from the review queue
func (s *Scraped) Reject(ctx context.Context, id primitive.ObjectID) (*model.ScrapedArticle, error) {
	sc, err := s.pending(ctx, id)
	if err != nil {
		return nil, err
	}
	if err = s.store.SetScrapedStatus(ctx, id, model.ScrapedRejected, nil); err != nil {
		return nil, err
	}
	sc.Status = model.ScrapedRejected
	return sc, nil
}

// Delete a scraped article
func (s *Scraped) Delete(ctx context.Context, id primitive.ObjectID) error {
	return s.store.DeleteScraped(ctx, id)
}
