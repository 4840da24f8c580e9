package service

import (
	"bytes"
	"context"
	"sort"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/Laisky/errors/v2"
	glog "github.com/Laisky/go-utils/v6/log"
	"github.com/Laisky/zap"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/sync/errgroup"

	"github.com/Laisky/multilingual-news/internal/library/i18n"
	"github.com/Laisky/multilingual-news/internal/library/translate"
	"github.com/Laisky/multilingual-news/internal/web/news/dto"
	"github.com/Laisky/multilingual-news/internal/web/news/model"
	"github.com/Laisky/multilingual-news/library/blob"
)

const (
	// maxTranslateRunes caps one free translation field
	maxTranslateRunes = 20000
	// audioFanout concurrent article audio languages
	audioFanout = 2
)

// article text fields sent to translation
const (
	fieldTitle   = "title"
	fieldSummary = "summary"
	fieldContent = "content"
)

type translationStore interface {
	GetArticle(ctx context.Context, id primitive.ObjectID) (*model.Article, error)
	SetArticleTranslations(ctx context.Context, a *model.Article) error
	SetArticleAudio(ctx context.Context, id primitive.ObjectID, lang, url string) error
}

// Translations machine translation and speech of articles and free text
type Translations struct {
	logger     glog.Logger
	store      translationStore
	languages  *Languages
	translator *translate.Translator
	speech     *translate.Synthesizer
	blobs      BlobStore
}

// NewTranslations create the translation service, translator, speech and blobs may be nil
func NewTranslations(logger glog.Logger, store translationStore, languages *Languages,
	translator *translate.Translator, speech *translate.Synthesizer, blobs BlobStore) *Translations {
	return &Translations{
		logger:     logger,
		store:      store,
		languages:  languages,
		translator: translator,
		speech:     speech,
		blobs:      blobs,
	}
}

// translationErr map provider errors to service errors
func translationErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, translate.ErrNotConfigured):
		return errors.Wrap(model.ErrUnavailable, err.Error())
	case errors.Is(err, translate.ErrRateLimited):
		return errors.Wrap(model.ErrRateLimited, err.Error())
	case errors.Is(err, translate.ErrUpstream):
		return errors.Wrap(model.ErrUpstream, err.Error())
	default:
		return err
	}
}

// targets resolve requested target languages, empty means every active
// language except source
func (s *Translations) targets(ctx context.Context, source string, requested []string) ([]string, error) {
	active, err := s.languages.ActiveCodes(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "load active languages")
	}

	var targets []string
	if len(requested) == 0 {
		for _, code := range active {
			if code != source {
				targets = append(targets, code)
			}
		}
		return targets, nil
	}

	seen := map[string]bool{}
	for _, code := range requested {
		code = i18n.NormalizeCode(code)
		if !i18n.ValidCode(code) {
			return nil, model.Invalid("targets", "invalid language code %q", code)
		}
		if code == source || seen[code] {
			continue
		}
		seen[code] = true
		targets = append(targets, code)
	}
	sort.Strings(targets)
	return targets, nil
}

func (s *Translations) source(ctx context.Context, requested string) (string, error) {
	if requested == "" {
		return s.languages.DefaultCode(ctx), nil
	}
	code := i18n.NormalizeCode(requested)
	if !i18n.ValidCode(code) {
		return "", model.Invalid("source", "invalid language code %q", requested)
	}
	return code, nil
}

// Fields translate named fields into the target languages
func (s *Translations) Fields(ctx context.Context, in *dto.TranslateInput) (map[string]map[string]string, error) {
	if len(in.Fields) == 0 {
		return nil, model.Invalid("fields", "nothing to translate")
	}
	for name, text := range in.Fields {
		if utf8.RuneCountInString(text) > maxTranslateRunes {
			return nil, model.Invalid("fields."+name, "exceeds max length %d", maxTranslateRunes)
		}
	}

	source, err := s.source(ctx, in.Source)
	if err != nil {
		return nil, err
	}
	targets, err := s.targets(ctx, source, in.Targets)
	if err != nil {
		return nil, err
	}

	result, err := s.translator.TranslateFields(ctx, translate.Fields(in.Fields), source, targets)
	if err != nil {
		return nil, translationErr(err)
	}
	return result, nil
}

// Article fill the missing languages of an article, or every target language
// when overwrite
func (s *Translations) Article(ctx context.Context, u *model.User,
	id primitive.ObjectID, in *dto.TranslateArticleInput) (*model.Article, error) {
	a, err := s.store.GetArticle(ctx, id)
	if err != nil {
		return nil, err
	}
	if err = canEdit(u, a); err != nil {
		return nil, err
	}

	requested := in.Source
	if requested == "" {
		requested = a.SourceLanguage
	}
	source, err := s.source(ctx, requested)
	if err != nil {
		return nil, err
	}
	if !a.Title.Has(source) || !a.Content.Has(source) {
		return nil, model.Invalid("source", "article has no title and content in %q", source)
	}

	targets, err := s.targets(ctx, source, in.Targets)
	if err != nil {
		return nil, err
	}
	if !in.Overwrite {
		var missing []string
		for _, code := range targets {
			if !a.Title.Has(code) || !a.Content.Has(code) || !a.Summary.Has(code) {
				missing = append(missing, code)
			}
		}
		targets = missing
	}
	if len(targets) == 0 {
		return a, nil
	}

	fields := translate.Fields{
		fieldTitle:   a.Title[source],
		fieldContent: a.Content[source],
	}
	if a.Summary.Has(source) {
		fields[fieldSummary] = a.Summary[source]
	}
	result, err := s.translator.TranslateFields(ctx, fields, source, targets)
	if err != nil {
		return nil, translationErr(err)
	}

	if a.Summary == nil {
		a.Summary = i18n.Text{}
	}
	texts := map[string]i18n.Text{
		fieldTitle:   a.Title,
		fieldSummary: a.Summary,
		fieldContent: a.Content,
	}
	for name, byLang := range result {
		text := texts[name]
		for code, v := range byLang {
			if strings.TrimSpace(v) == "" {
				continue
			}
			if in.Overwrite || !text.Has(code) {
				text[code] = v
			}
		}
	}
	renderArticle(a)

	a.UpdatedAt = now()
	if err = s.store.SetArticleTranslations(ctx, a); err != nil {
		return nil, err
	}

	s.logger.Info("article translated",
		zap.String("article", a.ID.Hex()),
		zap.String("source", source),
		zap.Strings("targets", targets))
	return a, nil
}

// synthesize text to audio and store it
func (s *Translations) synthesize(ctx context.Context, text, lang string) (*blob.Object, error) {
	if s.blobs == nil {
		return nil, errors.Wrap(model.ErrUnavailable, "object storage is not configured")
	}

	audio, err := s.speech.Synthesize(ctx, text, lang)
	if err != nil {
		return nil, translationErr(err)
	}

	format := s.speech.Format()
	obj, err := s.blobs.Put(ctx, "speech-"+lang+"."+format, "audio/"+audioSubtype(format),
		bytes.NewReader(audio), int64(len(audio)))
	if err != nil {
		return nil, errors.Wrap(err, "store audio")
	}
	return obj, nil
}

func audioSubtype(format string) string {
	switch format {
	case "mp3", "":
		return "mpeg"
	default:
		return format
	}
}

// Speech synthesize free text and return the stored audio
func (s *Translations) Speech(ctx context.Context, in *dto.TTSInput) (*blob.Object, error) {
	text := strings.TrimSpace(in.Text)
	if text == "" {
		return nil, model.Invalid("text", "text is empty")
	}
	lang := i18n.NormalizeCode(in.Lang)
	if !i18n.ValidCode(lang) {
		return nil, model.Invalid("lang", "invalid language code %q", in.Lang)
	}

	return s.synthesize(ctx, text, lang)
}

// speechText plain text read aloud for lang
func speechText(a *model.Article, lang string) string {
	body := a.Content[lang]
	if html, ok := a.ContentHTML[lang]; ok {
		body = html
	}

	parts := []string{a.Title[lang]}
	if summary := a.Summary[lang]; summary != "" {
		parts = append(parts, summary)
	}
	parts = append(parts, PlainText(body))
	return strings.Join(parts, "\n\n")
}

// ArticleAudio synthesize the article per language and store the urls in
// the article, langs defaults to every language with content
func (s *Translations) ArticleAudio(ctx context.Context, u *model.User,
	id primitive.ObjectID, in *dto.ArticleAudioInput) (map[string]string, error) {
	a, err := s.store.GetArticle(ctx, id)
	if err != nil {
		return nil, err
	}
	if err = canEdit(u, a); err != nil {
		return nil, err
	}

	langs := in.Langs
	if len(langs) == 0 {
		langs = a.Content.Codes()
	}
	var todo []string
	for _, code := range langs {
		code = i18n.NormalizeCode(code)
		if !a.Content.Has(code) || !a.Title.Has(code) {
			return nil, model.Invalid("langs", "article has no content in %q", code)
		}
		todo = append(todo, code)
	}

	var mu sync.Mutex
	urls := make(map[string]string, len(todo))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(audioFanout)
	for _, code := range todo {
		g.Go(func() error {
			obj, err := s.synthesize(gctx, speechText(a, code), code)
			if err != nil {
				return errors.Wrapf(err, "synthesize %s", code)
			}
			if err = s.store.SetArticleAudio(gctx, a.ID, code, obj.URL); err != nil {
				return err
			}

			mu.Lock()
			urls[code] = obj.URL
			mu.Unlock()
			return nil
		})
	}
	if err = g.Wait(); err != nil {
		return nil, err
	}

	return urls, nil
}
