package service

import (
	"sync"
	"testing"
	"time"

	"github.com/Laisky/errors/v2"
	glog "github.com/Laisky/go-utils/v6/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/Laisky/multilingual-news/internal/web/news/dto"
	"github.com/Laisky/multilingual-news/internal/web/news/model"
)

func defaults(langs []*model.Language) (codes []string) {
	for _, l := range langs {
		if l.IsDefault {
			codes = append(codes, l.Code)
		}
	}
	return codes
}

func TestLanguagesCache(t *testing.T) {
	fx := newFixture(t)
	current := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	fx.languages.clock = func() time.Time { return current }

	active, err := fx.languages.Active(fx.ctx)
	require.NoError(t, err)
	require.Len(t, active, 2)
	_, err = fx.languages.Active(fx.ctx)
	require.NoError(t, err)
	require.Equal(t, 1, fx.store.languageLoads)

	current = current.Add(30 * time.Second)
	require.Equal(t, "en", fx.languages.DefaultCode(fx.ctx))
	require.Equal(t, 1, fx.store.languageLoads)

	current = current.Add(time.Minute)
	_, err = fx.languages.Active(fx.ctx)
	require.NoError(t, err)
	require.Equal(t, 2, fx.store.languageLoads)

	fx.languages.Invalidate()
	_, err = fx.languages.Active(fx.ctx)
	require.NoError(t, err)
	require.Equal(t, 3, fx.store.languageLoads)
}

func TestLanguagesConcurrentReads(t *testing.T) {
	fx := newFixture(t)

	var wg sync.WaitGroup
	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			codes, err := fx.languages.ActiveCodes(fx.ctx)
			assert.NoError(t, err)
			assert.Equal(t, []string{"en", "hi"}, codes)
		}()
	}
	wg.Wait()
	require.GreaterOrEqual(t, fx.store.languageLoads, 1)
}

// TestLanguagesInvalidateDuringLoad verifies a load that read the store before a write is not cached.
func TestLanguagesInvalidateDuringLoad(t *testing.T) {
	fx := newFixture(t)
	fx.languages.Invalidate()

	hi, err := fx.store.GetLanguageByCode(fx.ctx, "hi")
	require.NoError(t, err)

	loaded := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once
	fx.store.mu.Lock()
	fx.store.afterListLanguages = func() {
		once.Do(func() {
			close(loaded)
			<-release
		})
	}
	fx.store.mu.Unlock()

	stale := make(chan string, 1)
	go func() { stale <- fx.languages.DefaultCode(fx.ctx) }()
	<-loaded

	_, err = fx.languages.MakeDefault(fx.ctx, hi.ID)
	require.NoError(t, err)

	// a read after the write must not join the load still in flight
	require.Equal(t, "hi", fx.languages.DefaultCode(fx.ctx))

	close(release)
	require.Equal(t, "en", <-stale)
	require.Equal(t, "hi", fx.languages.DefaultCode(fx.ctx))
}

func TestLanguagesSingleDefault(t *testing.T) {
	fx := newFixture(t)
	isDefault := true

	fr, err := fx.languages.Create(fx.ctx, &dto.LanguageInput{
		Code:      "FR",
		Name:      "French",
		IsDefault: &isDefault,
	})
	require.NoError(t, err)
	require.Equal(t, "fr", fr.Code)
	require.Equal(t, "French", fr.NativeName)
	require.True(t, fr.IsActive)

	all, err := fx.languages.All(fx.ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"fr"}, defaults(all))
	require.Equal(t, "fr", fx.languages.DefaultCode(fx.ctx))

	hi, err := fx.store.GetLanguageByCode(fx.ctx, "hi")
	require.NoError(t, err)
	got, err := fx.languages.MakeDefault(fx.ctx, hi.ID)
	require.NoError(t, err)
	require.True(t, got.IsDefault)

	all, err = fx.languages.All(fx.ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"hi"}, defaults(all))
	require.Equal(t, "hi", fx.languages.DefaultCode(fx.ctx))

	_, err = fx.languages.Create(fx.ctx, &dto.LanguageInput{Code: "fr", Name: "Français"})
	require.ErrorIs(t, err, model.ErrConflict)
}

func TestLanguagesGuards(t *testing.T) {
	fx := newFixture(t)
	en, err := fx.store.GetLanguageByCode(fx.ctx, "en")
	require.NoError(t, err)
	no := false

	_, err = fx.languages.Update(fx.ctx, en.ID, &dto.LanguageInput{IsDefault: &no})
	require.ErrorIs(t, err, model.ErrValidation)
	_, err = fx.languages.Update(fx.ctx, en.ID, &dto.LanguageInput{IsActive: &no})
	require.ErrorIs(t, err, model.ErrValidation)
	_, err = fx.languages.Update(fx.ctx, en.ID, &dto.LanguageInput{Code: "de"})
	require.ErrorIs(t, err, model.ErrValidation)

	err = fx.languages.Delete(fx.ctx, en.ID)
	require.ErrorIs(t, err, model.ErrConflict)

	hi, err := fx.store.GetLanguageByCode(fx.ctx, "hi")
	require.NoError(t, err)
	require.NoError(t, fx.languages.Delete(fx.ctx, hi.ID))
	codes, err := fx.languages.ActiveCodes(fx.ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"en"}, codes)

	_, err = fx.languages.Create(fx.ctx, &dto.LanguageInput{Code: "not a code", Name: "x"})
	require.ErrorIs(t, err, model.ErrValidation)
}

func TestLanguagesReorder(t *testing.T) {
	fx := newFixture(t)
	en, _ := fx.store.GetLanguageByCode(fx.ctx, "en")
	hi, _ := fx.store.GetLanguageByCode(fx.ctx, "hi")

	got, err := fx.languages.Reorder(fx.ctx, []string{hi.ID.Hex(), en.ID.Hex()})
	require.NoError(t, err)
	require.Equal(t, "hi", got[0].Code)
	require.Equal(t, "en", got[1].Code)

	_, err = fx.languages.Reorder(fx.ctx, []string{"nope"})
	require.ErrorIs(t, err, model.ErrValidation)
}

func TestNegotiate(t *testing.T) {
	fx := newFixture(t)

	for _, tc := range []struct {
		name, explicit, accept, want string
	}{
		{"explicit", "hi", "en", "hi"},
		{"explicit inactive", "fr", "", "fr"},
		{"invalid explicit", "??", "", "en"},
		{"accept exact", "", "hi,en;q=0.5", "hi"},
		{"accept base", "", "hi-IN,en;q=0.8", "hi"},
		{"accept inactive", "", "de-DE,fr;q=0.5", "en"},
		{"nothing", "", "", "en"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, fx.languages.Negotiate(fx.ctx, tc.explicit, tc.accept))
		})
	}
}

func TestLanguagesFallback(t *testing.T) {
	store := newFakeStore()
	langs := NewLanguages(glog.Shared, store, "HI", 0)

	def, err := langs.Default(t.Context())
	require.NoError(t, err)
	require.Equal(t, "hi", def.Code)
	require.True(t, def.IsDefault)

	codes, err := langs.ActiveCodes(t.Context())
	require.NoError(t, err)
	require.Equal(t, []string{"hi"}, codes)

	seeded, err := langs.SeedDefault(t.Context(), "en", "English")
	require.NoError(t, err)
	require.True(t, seeded)
	require.Equal(t, "en", langs.DefaultCode(t.Context()))

	seeded, err = langs.SeedDefault(t.Context(), "en", "English")
	require.NoError(t, err)
	require.False(t, seeded)
}

func TestLanguagesStoreMissing(t *testing.T) {
	fx := newFixture(t)
	_, err := fx.languages.Update(fx.ctx, primitive.NewObjectID(), &dto.LanguageInput{Name: "x"})
	require.True(t, errors.Is(err, model.ErrNotFound))
}
