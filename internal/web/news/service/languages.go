package service

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/Laisky/errors/v2"
	glog "github.com/Laisky/go-utils/v6/log"
	"github.com/Laisky/zap"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/sync/singleflight"

	"github.com/Laisky/multilingual-news/internal/library/i18n"
	"github.com/Laisky/multilingual-news/internal/web/news/dto"
	"github.com/Laisky/multilingual-news/internal/web/news/model"
)

// DefaultLanguageCacheTTL how long the active languages are served from memory
const DefaultLanguageCacheTTL = 5 * time.Minute

const languagesFlight = "languages"

type languageStore interface {
	ListLanguages(ctx context.Context, activeOnly bool) ([]*model.Language, error)
	CountLanguages(ctx context.Context) (int64, error)
	GetLanguage(ctx context.Context, id primitive.ObjectID) (*model.Language, error)
	GetLanguageByCode(ctx context.Context, code string) (*model.Language, error)
	InsertLanguage(ctx context.Context, lang *model.Language) error
	UpdateLanguage(ctx context.Context, lang *model.Language) error
	DeleteLanguage(ctx context.Context, id primitive.ObjectID) error
	ClearDefaultLanguages(ctx context.Context, keep primitive.ObjectID) error
	MarkDefaultLanguage(ctx context.Context, id primitive.ObjectID) error
	ReorderLanguages(ctx context.Context, ids []primitive.ObjectID) error
}

type languageSnapshot struct {
	active   []*model.Language
	def      *model.Language
	loadedAt time.Time
}

// Languages language admin and the in-process language cache
type Languages struct {
	logger   glog.Logger
	store    languageStore
	fallback string
	ttl      time.Duration
	clock    func() time.Time

	sf   singleflight.Group
	mu   sync.RWMutex
	snap *languageSnapshot
	// gen is bumped by Invalidate, loads started under an older gen are not cached
	gen uint64
}

// NewLanguages create the language service, fallback is the default code
// used while no language is flagged default
func NewLanguages(logger glog.Logger, store languageStore, fallback string, ttl time.Duration) *Languages {
	if ttl <= 0 {
		ttl = DefaultLanguageCacheTTL
	}
	fallback = i18n.NormalizeCode(fallback)
	if fallback == "" {
		fallback = "en"
	}

	return &Languages{
		logger:   logger,
		store:    store,
		fallback: fallback,
		ttl:      ttl,
		clock:    now,
	}
}

// Invalidate drop the cached languages, the next read reloads them
func (s *Languages) Invalidate() {
	s.mu.Lock()
	s.snap = nil
	s.gen++
	s.mu.Unlock()
	s.sf.Forget(languagesFlight)
}

func (s *Languages) snapshot(ctx context.Context) (*languageSnapshot, error) {
	s.mu.RLock()
	snap := s.snap
	s.mu.RUnlock()
	if snap != nil && s.clock().Sub(snap.loadedAt) < s.ttl {
		return snap, nil
	}

	v, err, _ := s.sf.Do(languagesFlight, func() (any, error) {
		s.mu.RLock()
		gen := s.gen
		s.mu.RUnlock()

		loadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
		defer cancel()

		active, err := s.store.ListLanguages(loadCtx, true)
		if err != nil {
			return nil, errors.Wrap(err, "load active languages")
		}

		fresh := &languageSnapshot{active: active, loadedAt: s.clock()}
		for _, lang := range active {
			if lang.IsDefault {
				fresh.def = lang
				break
			}
		}

		s.mu.Lock()
		if s.gen == gen {
			s.snap = fresh
		}
		s.mu.Unlock()
		return fresh, nil
	})
	if err != nil {
		return nil, err
	}

	return v.(*languageSnapshot), nil
}

// Active active languages ordered by order
func (s *Languages) Active(ctx context.Context) ([]*model.Language, error) {
	snap, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return snap.active, nil
}

// Default the default language, synthesized from the fallback code when none is stored
func (s *Languages) Default(ctx context.Context) (*model.Language, error) {
	snap, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	if snap.def != nil {
		return snap.def, nil
	}

	return &model.Language{
		Code:      s.fallback,
		Name:      s.fallback,
		IsActive:  true,
		IsDefault: true,
		Direction: model.DirectionLTR,
	}, nil
}

// DefaultCode code of the default language, the fallback code when the store fails
func (s *Languages) DefaultCode(ctx context.Context) string {
	lang, err := s.Default(ctx)
	if err != nil {
		s.logger.Warn("load default language", zap.Error(err))
		return s.fallback
	}
	return lang.Code
}

// ActiveCodes codes of the active languages, at least the default code
func (s *Languages) ActiveCodes(ctx context.Context) ([]string, error) {
	active, err := s.Active(ctx)
	if err != nil {
		return nil, err
	}
	if len(active) == 0 {
		return []string{s.DefaultCode(ctx)}, nil
	}

	codes := make([]string, 0, len(active))
	for _, lang := range active {
		codes = append(codes, lang.Code)
	}
	return codes, nil
}

// IsActive is code one of the active languages
func (s *Languages) IsActive(ctx context.Context, code string) (bool, error) {
	codes, err := s.ActiveCodes(ctx)
	if err != nil {
		return false, err
	}

	code = i18n.NormalizeCode(code)
	for _, c := range codes {
		if c == code {
			return true, nil
		}
	}
	return false, nil
}

// Negotiate pick the response language: the explicit code if it is valid, else the
// first active Accept-Language entry (or its base), else the default
func (s *Languages) Negotiate(ctx context.Context, explicit, acceptLanguage string) string {
	def := s.DefaultCode(ctx)
	codes, err := s.ActiveCodes(ctx)
	if err != nil {
		return def
	}

	active := make(map[string]bool, len(codes))
	for _, c := range codes {
		active[c] = true
	}

	if explicit = i18n.NormalizeCode(explicit); i18n.ValidCode(explicit) {
		// kept even when inactive, Resolve falls back per field
		return explicit
	}
	for _, c := range i18n.ParseAcceptLanguage(acceptLanguage) {
		if active[c] {
			return c
		}
		if active[i18n.BaseCode(c)] {
			return i18n.BaseCode(c)
		}
	}

	return def
}

// All every language, for admins
func (s *Languages) All(ctx context.Context) ([]*model.Language, error) {
	return s.store.ListLanguages(ctx, false)
}

// Create add a language, making it default clears the previous default first
func (s *Languages) Create(ctx context.Context, in *dto.LanguageInput) (*model.Language, error) {
	code := i18n.NormalizeCode(in.Code)
	if !i18n.ValidCode(code) {
		return nil, model.Invalid("code", "invalid language code %q", in.Code)
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, model.Invalid("name", "is required")
	}

	if _, err := s.store.GetLanguageByCode(ctx, code); err == nil {
		return nil, errors.Wrapf(model.ErrConflict, "language %q already exists", code)
	} else if !errors.Is(err, model.ErrNotFound) {
		return nil, err
	}

	ts := now()
	lang := &model.Language{
		Code:       code,
		Name:       name,
		NativeName: strings.TrimSpace(in.NativeName),
		IsActive:   true,
		Direction:  model.DirectionLTR,
		CreatedAt:  ts,
		UpdatedAt:  ts,
	}
	applyLanguageInput(lang, in)
	if lang.NativeName == "" {
		lang.NativeName = lang.Name
	}

	defer s.Invalidate()
	if lang.IsDefault {
		if err := s.store.ClearDefaultLanguages(ctx, primitive.NilObjectID); err != nil {
			return nil, err
		}
	}
	if err := s.store.InsertLanguage(ctx, lang); err != nil {
		return nil, errors.Wrapf(err, "create language %q", code)
	}

	return lang, nil
}

func applyLanguageInput(lang *model.Language, in *dto.LanguageInput) {
	if v := strings.TrimSpace(in.Name); v != "" {
		lang.Name = v
	}
	if v := strings.TrimSpace(in.NativeName); v != "" {
		lang.NativeName = v
	}
	if in.IsActive != nil {
		lang.IsActive = *in.IsActive
	}
	if in.IsDefault != nil {
		lang.IsDefault = *in.IsDefault
	}
	if in.Order != nil {
		lang.Order = *in.Order
	}
	if in.Direction != "" {
		lang.Direction = model.Direction(in.Direction)
	}
	if lang.IsDefault {
		lang.IsActive = true
	}
}

// Update change a language, the code is immutable
func (s *Languages) Update(ctx context.Context, id primitive.ObjectID, in *dto.LanguageInput) (*model.Language, error) {
	lang, err := s.store.GetLanguage(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.Code != "" && i18n.NormalizeCode(in.Code) != lang.Code {
		return nil, model.Invalid("code", "language code cannot be changed")
	}

	wasDefault := lang.IsDefault
	if wasDefault && in.IsDefault != nil && !*in.IsDefault {
		return nil, model.Invalid("isDefault", "make another language default instead")
	}
	if wasDefault && in.IsActive != nil && !*in.IsActive {
		return nil, model.Invalid("isActive", "the default language must stay active")
	}

	applyLanguageInput(lang, in)
	lang.UpdatedAt = now()

	defer s.Invalidate()
	if lang.IsDefault && !wasDefault {
		if err = s.store.ClearDefaultLanguages(ctx, lang.ID); err != nil {
			return nil, err
		}
	}
	if err = s.store.UpdateLanguage(ctx, lang); err != nil {
		return nil, err
	}

	return lang, nil
}

// Delete remove a language, the default language cannot be removed
func (s *Languages) Delete(ctx context.Context, id primitive.ObjectID) error {
	lang, err := s.store.GetLanguage(ctx, id)
	if err != nil {
		return err
	}
	if lang.IsDefault {
		return errors.Wrap(model.ErrConflict, "cannot delete the default language")
	}

	defer s.Invalidate()
	return s.store.DeleteLanguage(ctx, id)
}

// MakeDefault clear every other default then flag id as default
func (s *Languages) MakeDefault(ctx context.Context, id primitive.ObjectID) (*model.Language, error) {
	if _, err := s.store.GetLanguage(ctx, id); err != nil {
		return nil, err
	}

	defer s.Invalidate()
	if err := s.store.ClearDefaultLanguages(ctx, id); err != nil {
		return nil, err
	}
	if err := s.store.MarkDefaultLanguage(ctx, id); err != nil {
		return nil, err
	}

	s.logger.Info("default language changed", zap.String("id", id.Hex()))
	return s.store.GetLanguage(ctx, id)
}

// Reorder set the order of languages to their position in ids
func (s *Languages) Reorder(ctx context.Context, hexes []string) ([]*model.Language, error) {
	ids, err := parseIDs("ids", hexes)
	if err != nil {
		return nil, err
	}

	defer s.Invalidate()
	if err = s.store.ReorderLanguages(ctx, ids); err != nil {
		return nil, err
	}
	return s.store.ListLanguages(ctx, false)
}

// SeedDefault insert code as the default language when no language exists
func (s *Languages) SeedDefault(ctx context.Context, code, name string) (bool, error) {
	n, err := s.store.CountLanguages(ctx)
	if err != nil {
		return false, err
	}
	if n != 0 {
		return false, nil
	}

	isDefault := true
	if _, err = s.Create(ctx, &dto.LanguageInput{
		Code:      code,
		Name:      name,
		IsDefault: &isDefault,
	}); err != nil {
		return false, err
	}
	return true, nil
}
