package service

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Laisky/errors/v2"
	glog "github.com/Laisky/go-utils/v6/log"
	"github.com/stretchr/testify/require"

	"github.com/Laisky/multilingual-news/internal/library/llm"
	"github.com/Laisky/multilingual-news/internal/library/translate"
	"github.com/Laisky/multilingual-news/internal/web/news/dto"
	"github.com/Laisky/multilingual-news/internal/web/news/model"
)

// tagProvider prefixes every text with its target language
type tagProvider struct {
	err error

	mu    sync.Mutex
	calls int
}

func (p *tagProvider) Name() string { return "tag" }

func (p *tagProvider) Translate(_ context.Context, texts []string, _, target string) ([]string, error) {
	p.mu.Lock()
	p.calls++
	p.mu.Unlock()
	if p.err != nil {
		return nil, p.err
	}

	out := make([]string, len(texts))
	for i, text := range texts {
		out[i] = "[" + target + "]" + text
	}
	return out, nil
}

func (p *tagProvider) callCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

func newTranslator(p translate.Provider) *translate.Translator {
	return translate.New(glog.Shared, translate.Config{RatePerSecond: 1000, Burst: 1000}, p)
}

// newSpeech a synthesizer backed by a local server answering fixed audio
func newSpeech(t *testing.T) *translate.Synthesizer {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "audio/mpeg")
		_, _ = w.Write([]byte("ID3audio"))
	}))
	t.Cleanup(server.Close)

	cli := llm.NewClient(server.URL, "test-key", time.Second, nil)
	return translate.NewSynthesizer(glog.Shared, cli, translate.SpeechConfig{
		Config: translate.Config{RatePerSecond: 1000, Burst: 1000},
	})
}

func TestTranslationsFields(t *testing.T) {
	fx := newFixture(t)
	provider := &tagProvider{}
	tr := NewTranslations(glog.Shared, fx.store, fx.languages, newTranslator(provider), nil, nil)

	out, err := tr.Fields(fx.ctx, &dto.TranslateInput{Fields: map[string]string{"headline": "Hello"}})
	require.NoError(t, err)
	require.Equal(t, map[string]map[string]string{"headline": {"hi": "[hi]Hello"}}, out)

	out, err = tr.Fields(fx.ctx, &dto.TranslateInput{
		Fields:  map[string]string{"headline": "नमस्ते"},
		Source:  "hi",
		Targets: []string{"EN", "hi", "ta", "en"},
	})
	require.NoError(t, err)
	require.Equal(t, "[en]नमस्ते", out["headline"]["en"])
	require.Equal(t, "[ta]नमस्ते", out["headline"]["ta"])
	require.NotContains(t, out["headline"], "hi")

	_, err = tr.Fields(fx.ctx, &dto.TranslateInput{})
	require.ErrorIs(t, err, model.ErrValidation)
	_, err = tr.Fields(fx.ctx, &dto.TranslateInput{
		Fields: map[string]string{"body": strings.Repeat("a", maxTranslateRunes+1)},
	})
	require.ErrorIs(t, err, model.ErrValidation)

	provider.err = errors.Wrap(translate.ErrRateLimited, "quota")
	_, err = tr.Fields(fx.ctx, &dto.TranslateInput{Fields: map[string]string{"headline": "Hello"}})
	require.ErrorIs(t, err, model.ErrRateLimited)

	disabled := NewTranslations(glog.Shared, fx.store, fx.languages, translate.New(glog.Shared, translate.Config{}), nil, nil)
	_, err = disabled.Fields(fx.ctx, &dto.TranslateInput{Fields: map[string]string{"headline": "Hello"}})
	require.ErrorIs(t, err, model.ErrUnavailable)
}

func TestTranslationsArticle(t *testing.T) {
	fx := newFixture(t)
	sports := fx.category(t, "Sports", nil)
	reporter := fx.user(t, model.RoleReporter)
	a := fx.article(t, reporter, sports, model.ArticleStatusDraft)

	provider := &tagProvider{}
	tr := NewTranslations(glog.Shared, fx.store, fx.languages, newTranslator(provider), nil, nil)

	_, err := tr.Article(fx.ctx, fx.user(t, model.RoleReporter), a.ID, &dto.TranslateArticleInput{})
	require.ErrorIs(t, err, model.ErrForbidden)
	_, err = tr.Article(fx.ctx, reporter, a.ID, &dto.TranslateArticleInput{Source: "hi"})
	require.ErrorIs(t, err, model.ErrValidation)

	got, err := tr.Article(fx.ctx, reporter, a.ID, &dto.TranslateArticleInput{})
	require.NoError(t, err)
	require.Equal(t, "[hi]"+a.Title["en"], got.Title["hi"])
	require.Equal(t, "[hi]<p>Body</p>", got.Content["hi"])
	require.Equal(t, "[hi] Body", got.Summary["hi"])
	require.Equal(t, 1, provider.callCount())

	stored, err := fx.store.GetArticle(fx.ctx, a.ID)
	require.NoError(t, err)
	require.Equal(t, got.Title["hi"], stored.Title["hi"])

	// nothing is missing anymore
	_, err = tr.Article(fx.ctx, reporter, a.ID, &dto.TranslateArticleInput{})
	require.NoError(t, err)
	require.Equal(t, 1, provider.callCount())

	// a human edit survives unless overwritten
	require.NoError(t, fx.store.SetArticleTranslations(fx.ctx, func() *model.Article {
		stored.Title["hi"] = "हाथ से"
		return stored
	}()))
	got, err = tr.Article(fx.ctx, reporter, a.ID, &dto.TranslateArticleInput{Targets: []string{"hi"}})
	require.NoError(t, err)
	require.Equal(t, "हाथ से", got.Title["hi"])

	got, err = tr.Article(fx.ctx, reporter, a.ID, &dto.TranslateArticleInput{Overwrite: true})
	require.NoError(t, err)
	require.Equal(t, "[hi]"+a.Title["en"], got.Title["hi"])
	require.Equal(t, 2, provider.callCount())
}

func TestTranslationsSpeech(t *testing.T) {
	fx := newFixture(t)
	sports := fx.category(t, "Sports", nil)
	reporter := fx.user(t, model.RoleReporter)
	a := fx.article(t, reporter, sports, model.ArticleStatusDraft)

	blobs := newFakeBlob()
	tr := NewTranslations(glog.Shared, fx.store, fx.languages, nil, newSpeech(t), blobs)

	obj, err := tr.Speech(fx.ctx, &dto.TTSInput{Text: "नमस्ते दुनिया", Lang: "hi"})
	require.NoError(t, err)
	require.Equal(t, "uploads/speech-hi.mp3", obj.Key)
	require.Equal(t, "audio/mpeg", blobs.types[obj.Key])
	require.Equal(t, []byte("ID3audio"), blobs.objects[obj.Key])

	_, err = tr.Speech(fx.ctx, &dto.TTSInput{Text: "  ", Lang: "hi"})
	require.ErrorIs(t, err, model.ErrValidation)

	urls, err := tr.ArticleAudio(fx.ctx, reporter, a.ID, &dto.ArticleAudioInput{})
	require.NoError(t, err)
	require.Equal(t, map[string]string{"en": fakeBlobBase + "uploads/speech-en.mp3"}, urls)
	stored, err := fx.store.GetArticle(fx.ctx, a.ID)
	require.NoError(t, err)
	require.Equal(t, urls["en"], stored.Audio["en"])

	_, err = tr.ArticleAudio(fx.ctx, reporter, a.ID, &dto.ArticleAudioInput{Langs: []string{"hi"}})
	require.ErrorIs(t, err, model.ErrValidation)

	noSpeech := NewTranslations(glog.Shared, fx.store, fx.languages, nil, nil, blobs)
	_, err = noSpeech.Speech(fx.ctx, &dto.TTSInput{Text: "hello", Lang: "en"})
	require.ErrorIs(t, err, model.ErrUnavailable)
	noBlobs := NewTranslations(glog.Shared, fx.store, fx.languages, nil, newSpeech(t), nil)
	_, err = noBlobs.Speech(fx.ctx, &dto.TTSInput{Text: "hello", Lang: "en"})
	require.ErrorIs(t, err, model.ErrUnavailable)
}

func TestSpeechText(t *testing.T) {
	a := &model.Article{
		Title:       map[string]string{"en": "Title"},
		Summary:     map[string]string{"en": "Short"},
		Content:     map[string]string{"en": "# Head"},
		ContentHTML: map[string]string{"en": "<h1>Head</h1>"},
	}
	require.Equal(t, "Title\n\nShort\n\nHead", speechText(a, "en"))
}
