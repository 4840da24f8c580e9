package service

import (
	"context"
	"net/mail"
	"strings"
	"time"

	"github.com/Laisky/errors/v2"
	glog "github.com/Laisky/go-utils/v6/log"
	"github.com/Laisky/zap"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"

	"github.com/Laisky/multilingual-news/internal/library/i18n"
	"github.com/Laisky/multilingual-news/internal/web/news/dao"
	"github.com/Laisky/multilingual-news/internal/web/news/dto"
	"github.com/Laisky/multilingual-news/internal/web/news/model"
	"github.com/Laisky/multilingual-news/library/jwt"
)

// bcryptCost is lowered by tests
var bcryptCost = bcrypt.DefaultCost

type userStore interface {
	InsertUser(ctx context.Context, u *model.User) error
	GetUser(ctx context.Context, id primitive.ObjectID) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	UpdateUser(ctx context.Context, u *model.User) error
	TouchLogin(ctx context.Context, id primitive.ObjectID, at time.Time) error
	DeleteUser(ctx context.Context, id primitive.ObjectID) error
	ListUsers(ctx context.Context, q dao.UserQuery) ([]*model.User, int64, error)
	GetCity(ctx context.Context, id primitive.ObjectID) (*model.City, error)
	GetArea(ctx context.Context, id primitive.ObjectID) (*model.Area, error)
	GetCategory(ctx context.Context, id primitive.ObjectID) (*model.Category, error)
}

// Users accounts, sign in and preferences
type Users struct {
	logger    glog.Logger
	store     userStore
	signer    *jwt.Signer
	languages *Languages
}

// NewUsers create the user service
func NewUsers(logger glog.Logger, store userStore, signer *jwt.Signer, languages *Languages) *Users {
	return &Users{
		logger:    logger,
		store:     store,
		signer:    signer,
		languages: languages,
	}
}

func hashPassword(raw string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(raw), bcryptCost)
	if err != nil {
		return "", errors.Wrap(err, "hash password")
	}
	return string(hashed), nil
}

func normalizeEmail(raw string) (string, error) {
	addr, err := mail.ParseAddress(strings.TrimSpace(raw))
	if err != nil {
		return "", model.Invalid("email", "invalid email")
	}
	return strings.ToLower(addr.Address), nil
}

func (s *Users) issue(u *model.User) (*dto.AuthResponse, error) {
	token, expiresAt, err := s.signer.Sign(u.ID.Hex(), string(u.Role), u.Name)
	if err != nil {
		return nil, errors.Wrap(err, "sign token")
	}
	return &dto.AuthResponse{Token: token, ExpiresAt: expiresAt, User: u}, nil
}

// TokenTTL lifetime of issued tokens
func (s *Users) TokenTTL() time.Duration {
	return s.signer.Expire()
}

// Register create a reader account and sign it in
func (s *Users) Register(ctx context.Context, in *dto.RegisterInput) (*dto.AuthResponse, error) {
	email, err := normalizeEmail(in.Email)
	if err != nil {
		return nil, err
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, model.Invalid("name", "is required")
	}
	if len(in.Password) < 8 {
		return nil, model.Invalid("password", "must be at least 8 characters")
	}

	if _, err = s.store.GetUserByEmail(ctx, email); err == nil {
		return nil, errors.Wrap(model.ErrConflict, "email already registered")
	} else if !errors.Is(err, model.ErrNotFound) {
		return nil, err
	}

	hashed, err := hashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	ts := now()
	u := &model.User{
		Name:      name,
		Email:     email,
		Password:  hashed,
		Role:      model.RoleUser,
		IsActive:  true,
		CreatedAt: ts,
		UpdatedAt: ts,
	}
	if lang := i18n.NormalizeCode(in.Language); lang != "" {
		if ok, err := s.languages.IsActive(ctx, lang); err != nil {
			return nil, err
		} else if ok {
			u.Preferences.Language = lang
		}
	}

	if err = s.store.InsertUser(ctx, u); err != nil {
		return nil, errors.Wrap(err, "register user")
	}
	s.logger.Info("user registered", zap.String("user", u.ID.Hex()))

	return s.issue(u)
}

// Login verify the credentials and issue a token
func (s *Users) Login(ctx context.Context, in *dto.LoginInput) (*dto.AuthResponse, error) {
	email, err := normalizeEmail(in.Email)
	if err != nil {
		return nil, errors.WithStack(model.ErrInvalidCredentials)
	}

	u, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, errors.WithStack(model.ErrInvalidCredentials)
		}
		return nil, err
	}
	if err = bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(in.Password)); err != nil {
		return nil, errors.WithStack(model.ErrInvalidCredentials)
	}
	if !u.IsActive {
		return nil, errors.Wrap(model.ErrForbidden, "account disabled")
	}

	ts := now()
	u.LastLoginAt = &ts
	if err = s.store.TouchLogin(ctx, u.ID, ts); err != nil {
		s.logger.Warn("touch login", zap.String("user", u.ID.Hex()), zap.Error(err))
	}

	return s.issue(u)
}

// Authenticate resolve a token to an active user
func (s *Users) Authenticate(ctx context.Context, token string) (*model.User, error) {
	claims, err := s.signer.Parse(token)
	if err != nil {
		return nil, errors.Wrap(model.ErrUnauthorized, err.Error())
	}

	uid, err := primitive.ObjectIDFromHex(claims.UserID)
	if err != nil {
		return nil, errors.Wrap(model.ErrUnauthorized, "bad subject")
	}

	u, err := s.store.GetUser(ctx, uid)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, errors.Wrap(model.ErrUnauthorized, "user no longer exists")
		}
		return nil, err
	}
	if !u.IsActive {
		return nil, errors.Wrap(model.ErrUnauthorized, "account disabled")
	}

	return u, nil
}

// ChangePassword replace the password after checking the old one
func (s *Users) ChangePassword(ctx context.Context, u *model.User, in *dto.ChangePasswordInput) error {
	if err := bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(in.OldPassword)); err != nil {
		return errors.WithStack(model.ErrInvalidCredentials)
	}
	if len(in.NewPassword) < 8 {
		return model.Invalid("newPassword", "must be at least 8 characters")
	}

	hashed, err := hashPassword(in.NewPassword)
	if err != nil {
		return err
	}
	u.Password = hashed
	u.UpdatedAt = now()
	return s.store.UpdateUser(ctx, u)
}

// UpdateProfile change own name, avatar, phone or bio
func (s *Users) UpdateProfile(ctx context.Context, u *model.User, in *dto.ProfileInput) (*model.User, error) {
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, model.Invalid("name", "is required")
		}
		u.Name = name
	}
	if in.Avatar != nil {
		u.Avatar = strings.TrimSpace(*in.Avatar)
	}
	if in.Phone != nil {
		u.Phone = strings.TrimSpace(*in.Phone)
	}
	if in.Bio != nil {
		u.Bio = strings.TrimSpace(*in.Bio)
	}

	u.UpdatedAt = now()
	if err := s.store.UpdateUser(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// UpdatePreferences change reading preferences; the language must be active,
// the area must belong to the city
func (s *Users) UpdatePreferences(ctx context.Context, u *model.User, in *dto.PreferencesInput) (*model.User, error) {
	prefs := u.Preferences

	if in.Language != nil {
		lang := i18n.NormalizeCode(*in.Language)
		ok, err := s.languages.IsActive(ctx, lang)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, model.Invalid("language", "language %q is not active", lang)
		}
		prefs.Language = lang
	}

	if in.City != nil {
		city, err := parseOptionalID("city", *in.City)
		if err != nil {
			return nil, err
		}
		if city != nil {
			if _, err = s.store.GetCity(ctx, *city); err != nil {
				return nil, errors.Wrap(err, "preferred city")
			}
		}
		if !sameID(city, prefs.City) {
			prefs.Area = nil
		}
		prefs.City = city
	}

	if in.Area != nil {
		area, err := parseOptionalID("area", *in.Area)
		if err != nil {
			return nil, err
		}
		if area != nil {
			a, err := s.store.GetArea(ctx, *area)
			if err != nil {
				return nil, errors.Wrap(err, "preferred area")
			}
			if prefs.City == nil || a.City != *prefs.City {
				return nil, model.Invalid("area", "area does not belong to the preferred city")
			}
		}
		prefs.Area = area
	}

	if in.Categories != nil {
		ids, err := parseIDs("categories", in.Categories)
		if err != nil {
			return nil, err
		}
		for _, id := range ids {
			if _, err = s.store.GetCategory(ctx, id); err != nil {
				return nil, errors.Wrapf(err, "preferred category %s", id.Hex())
			}
		}
		prefs.Categories = ids
	}

	if in.OnboardingCompleted != nil {
		prefs.OnboardingCompleted = *in.OnboardingCompleted
	}

	u.Preferences = prefs
	u.UpdatedAt = now()
	if err := s.store.UpdateUser(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// List users for admins
func (s *Users) List(ctx context.Context, role, search string, page, limit int) (*dto.Paged[*model.User], error) {
	if role != "" && !model.Role(role).Valid() {
		return nil, model.Invalid("role", "unknown role %q", role)
	}

	p := Paging(page, limit)
	users, total, err := s.store.ListUsers(ctx, dao.UserQuery{
		Role:   model.Role(role),
		Search: strings.TrimSpace(search),
		Page:   p,
	})
	if err != nil {
		return nil, err
	}
	return dto.NewPaged(users, total, p.Page, p.Limit), nil
}

// Reporters every reporter, for assignment screens
func (s *Users) Reporters(ctx context.Context) ([]*model.User, error) {
	users, _, err := s.store.ListUsers(ctx, dao.UserQuery{
		Role: model.RoleReporter,
		Page: dao.Page{Page: 1, Limit: 1000},
	})
	return users, err
}

// Get load a user
func (s *Users) Get(ctx context.Context, id primitive.ObjectID) (*model.User, error) {
	return s.store.GetUser(ctx, id)
}

// AdminCreate create a user with any role
func (s *Users) AdminCreate(ctx context.Context, in *dto.AdminUserInput) (*model.User, error) {
	email, err := normalizeEmail(in.Email)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(in.Name) == "" {
		return nil, model.Invalid("name", "is required")
	}
	if len(in.Password) < 8 {
		return nil, model.Invalid("password", "must be at least 8 characters")
	}

	role := model.Role(in.Role)
	if role == "" {
		role = model.RoleUser
	}
	if !role.Valid() {
		return nil, model.Invalid("role", "unknown role %q", in.Role)
	}
	assigned, err := parseIDs("assignedCategories", in.AssignedCategories)
	if err != nil {
		return nil, err
	}

	if _, err = s.store.GetUserByEmail(ctx, email); err == nil {
		return nil, errors.Wrap(model.ErrConflict, "email already registered")
	} else if !errors.Is(err, model.ErrNotFound) {
		return nil, err
	}

	hashed, err := hashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	ts := now()
	u := &model.User{
		Name:               strings.TrimSpace(in.Name),
		Email:              email,
		Password:           hashed,
		Role:               role,
		AssignedCategories: assigned,
		IsActive:           true,
		CreatedAt:          ts,
		UpdatedAt:          ts,
	}
	if in.IsActive != nil {
		u.IsActive = *in.IsActive
	}
	if err = s.store.InsertUser(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// AdminUpdate change name, role, activity or category assignment of a user.
// Admins cannot demote or disable themselves.
func (s *Users) AdminUpdate(ctx context.Context, actor *model.User,
	id primitive.ObjectID, in *dto.AdminUserInput) (*model.User, error) {
	u, err := s.store.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}

	if name := strings.TrimSpace(in.Name); name != "" {
		u.Name = name
	}
	if in.Email != "" {
		if u.Email, err = normalizeEmail(in.Email); err != nil {
			return nil, err
		}
	}
	if in.Password != "" {
		if u.Password, err = hashPassword(in.Password); err != nil {
			return nil, err
		}
	}
	if in.Role != "" {
		role := model.Role(in.Role)
		if !role.Valid() {
			return nil, model.Invalid("role", "unknown role %q", in.Role)
		}
		if u.ID == actor.ID && role != model.RoleAdmin {
			return nil, errors.Wrap(model.ErrForbidden, "cannot demote yourself")
		}
		u.Role = role
	}
	if in.IsActive != nil {
		if u.ID == actor.ID && !*in.IsActive {
			return nil, errors.Wrap(model.ErrForbidden, "cannot disable yourself")
		}
		u.IsActive = *in.IsActive
	}
	if in.AssignedCategories != nil {
		if u.AssignedCategories, err = parseIDs("assignedCategories", in.AssignedCategories); err != nil {
			return nil, err
		}
	}

	u.UpdatedAt = now()
	if err = s.store.UpdateUser(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// AdminDelete remove a user other than the caller
func (s *Users) AdminDelete(ctx context.Context, actor *model.User, id primitive.ObjectID) error {
	if actor.ID == id {
		return errors.Wrap(model.ErrForbidden, "cannot delete yourself")
	}
	return s.store.DeleteUser(ctx, id)
}

// EnsureAdmin create an admin account unless the email is taken, reports whether it was created
func (s *Users) EnsureAdmin(ctx context.Context, name, email, password string) (bool, error) {
	addr, err := normalizeEmail(email)
	if err != nil {
		return false, err
	}
	if _, err = s.store.GetUserByEmail(ctx, addr); err == nil {
		return false, nil
	} else if !errors.Is(err, model.ErrNotFound) {
		return false, err
	}

	if name == "" {
		name = "admin"
	}
	if _, err = s.AdminCreate(ctx, &dto.AdminUserInput{
		Name:     name,
		Email:    addr,
		Password: password,
		Role:     string(model.RoleAdmin),
	}); err != nil {
		return false, err
	}
	return true, nil
}
