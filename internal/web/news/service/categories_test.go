package service

import (
	"testing"

	glog "github.com/Laisky/go-utils/v6/log"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/Laisky/multilingual-news/internal/library/i18n"
	"github.com/Laisky/multilingual-news/internal/web/news/dto"
	"github.com/Laisky/multilingual-news/internal/web/news/model"
)

func TestCategoriesCreate(t *testing.T) {
	fx := newFixture(t)
	cats := NewCategories(glog.Shared, fx.store, fx.languages, nil)

	_, err := cats.Create(fx.ctx, &dto.CategoryInput{Name: i18n.Text{"hi": "खेल"}})
	require.ErrorIs(t, err, model.ErrValidation)

	sports, err := cats.Create(fx.ctx, &dto.CategoryInput{
		Name: i18n.Text{"en": "Sports", "hi": "खेल"},
	})
	require.NoError(t, err)
	require.Equal(t, "sports", sports.Slug)
	require.True(t, sports.IsActive)
	require.Empty(t, sports.Ancestors)

	parent := sports.ID.Hex()
	cricket, err := cats.Create(fx.ctx, &dto.CategoryInput{
		Name:   i18n.Text{"en": "Cricket"},
		Parent: &parent,
	})
	require.NoError(t, err)
	require.Equal(t, &sports.ID, cricket.Parent)
	require.Len(t, cricket.Ancestors, 1)
	require.Equal(t, "sports", cricket.Ancestors[0].Slug)

	// same name gets a suffixed slug
	dup, err := cats.Create(fx.ctx, &dto.CategoryInput{Name: i18n.Text{"en": "Sports"}})
	require.NoError(t, err)
	require.NotEqual(t, "sports", dup.Slug)
	require.Contains(t, dup.Slug, "sports-")

	got, err := cats.Get(fx.ctx, "SPORTS")
	require.NoError(t, err)
	require.Equal(t, sports.ID, got.ID)
	got, err = cats.Get(fx.ctx, cricket.ID.Hex())
	require.NoError(t, err)
	require.Equal(t, cricket.ID, got.ID)

	roots, err := cats.List(fx.ctx, "root", true)
	require.NoError(t, err)
	require.Len(t, roots, 2)
	children, err := cats.List(fx.ctx, parent, true)
	require.NoError(t, err)
	require.Len(t, children, 1)
	_, err = cats.List(fx.ctx, "nope", true)
	require.ErrorIs(t, err, model.ErrValidation)
}

func TestCategoriesMove(t *testing.T) {
	fx := newFixture(t)
	cats := NewCategories(glog.Shared, fx.store, fx.languages, nil)

	news := fx.category(t, "News", nil)
	sports := fx.category(t, "Sports", nil)
	cricket := fx.category(t, "Cricket", sports)
	ipl := fx.category(t, "IPL", cricket)
	reporter := fx.user(t, model.RoleReporter)
	story := fx.article(t, reporter, ipl, model.ArticleStatusPublished)

	// under own descendant
	target := ipl.ID.Hex()
	_, err := cats.Update(fx.ctx, sports.ID, &dto.CategoryInput{Parent: &target})
	require.ErrorIs(t, err, model.ErrValidation)
	self := sports.ID.Hex()
	_, err = cats.Update(fx.ctx, sports.ID, &dto.CategoryInput{Parent: &self})
	require.ErrorIs(t, err, model.ErrValidation)

	// unknown parent is a bad request, not a missing resource
	ghost := primitive.NewObjectID().Hex()
	_, err = cats.Update(fx.ctx, sports.ID, &dto.CategoryInput{Parent: &ghost})
	require.ErrorIs(t, err, model.ErrValidation)
	require.NotErrorIs(t, err, model.ErrNotFound)
	_, err = cats.Create(fx.ctx, &dto.CategoryInput{Name: i18n.Text{"en": "Orphan"}, Parent: &ghost})
	require.ErrorIs(t, err, model.ErrValidation)
	require.NotErrorIs(t, err, model.ErrNotFound)

	target = news.ID.Hex()
	moved, err := cats.Update(fx.ctx, sports.ID, &dto.CategoryInput{Parent: &target})
	require.NoError(t, err)
	require.Equal(t, []primitive.ObjectID{news.ID}, moved.AncestorIDs())

	got, err := fx.store.GetCategory(fx.ctx, ipl.ID)
	require.NoError(t, err)
	require.Equal(t, []primitive.ObjectID{news.ID, sports.ID, cricket.ID}, got.AncestorIDs())

	a, err := fx.store.GetArticle(fx.ctx, story.ID)
	require.NoError(t, err)
	require.Equal(t, []primitive.ObjectID{news.ID, sports.ID, cricket.ID}, a.CategoryAncestors)

	// renaming refreshes the denormalized names
	_, err = cats.Update(fx.ctx, sports.ID, &dto.CategoryInput{Name: i18n.Text{"en": "Games"}})
	require.NoError(t, err)
	got, err = fx.store.GetCategory(fx.ctx, cricket.ID)
	require.NoError(t, err)
	require.Equal(t, "Games", got.Ancestors[1].Name["en"])
	require.Equal(t, "games", got.Ancestors[1].Slug)

	// back to the root
	root := ""
	moved, err = cats.Update(fx.ctx, sports.ID, &dto.CategoryInput{Parent: &root})
	require.NoError(t, err)
	require.Nil(t, moved.Parent)
	got, err = fx.store.GetCategory(fx.ctx, ipl.ID)
	require.NoError(t, err)
	require.Equal(t, []primitive.ObjectID{sports.ID, cricket.ID}, got.AncestorIDs())
}

func TestCategoriesDelete(t *testing.T) {
	fx := newFixture(t)
	cats := NewCategories(glog.Shared, fx.store, fx.languages, nil)

	sports := fx.category(t, "Sports", nil)
	cricket := fx.category(t, "Cricket", sports)
	tennis := fx.category(t, "Tennis", sports)
	fx.article(t, fx.user(t, model.RoleAdmin), tennis, model.ArticleStatusDraft)

	require.ErrorIs(t, cats.Delete(fx.ctx, sports.ID), model.ErrConflict)
	require.ErrorIs(t, cats.Delete(fx.ctx, tennis.ID), model.ErrConflict)
	require.NoError(t, cats.Delete(fx.ctx, cricket.ID))
	require.ErrorIs(t, cats.Delete(fx.ctx, cricket.ID), model.ErrNotFound)
}

func TestCategoriesTree(t *testing.T) {
	fx := newFixture(t)
	cats := NewCategories(glog.Shared, fx.store, fx.languages, nil)

	sports := fx.category(t, "Sports", nil)
	fx.category(t, "Cricket", sports)
	fx.category(t, "Tennis", sports)
	fx.category(t, "Politics", nil)

	tree, err := cats.Tree(fx.ctx, true)
	require.NoError(t, err)
	require.Len(t, tree, 2)

	var sportsNode *dto.CategoryNode
	for _, n := range tree {
		if n.Category.ID == sports.ID {
			sportsNode = n
		}
	}
	require.NotNil(t, sportsNode)
	require.Len(t, sportsNode.Children, 2)
}
