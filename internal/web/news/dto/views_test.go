package dto

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/Laisky/multilingual-news/internal/library/i18n"
	"github.com/Laisky/multilingual-news/internal/web/news/model"
)

// TestLocalizerArticleFallback verifies an unsupported language falls back to the default value.
func TestLocalizerArticleFallback(t *testing.T) {
	t.Parallel()

	author := &model.User{ID: primitive.NewObjectID(), Name: "Asha", Role: model.RoleReporter}
	category := &model.Category{ID: primitive.NewObjectID(), Slug: "sports", Name: i18n.Text{"en": "Sports", "hi": "खेल"}}
	a := &model.Article{
		ID:       primitive.NewObjectID(),
		Title:    i18n.Text{"en": "Rain today", "hi": "आज बारिश"},
		Summary:  i18n.Text{"en": "Clouds"},
		Content:  i18n.Text{"en": "Body"},
		Author:   author.ID,
		Category: category.ID,
		Audio:    map[string]string{"hi": "https://cdn/hi.mp3"},
		Status:   model.ArticleStatusPublished,
	}
	refs := &ArticleRefs{
		Authors:    map[primitive.ObjectID]*model.User{author.ID: author},
		Categories: map[primitive.ObjectID]*model.Category{category.ID: category},
	}

	v := Localizer{Lang: "fr", Default: "en"}.Article(a, refs, true)
	require.Equal(t, "Rain today", v.Title)
	require.Equal(t, "Body", v.Content)
	require.Equal(t, "Sports", v.Category.Name)
	require.Equal(t, "Asha", v.Author.Name)
	require.Empty(t, v.AudioURL)
	require.Equal(t, []string{"en", "hi"}, v.AvailableLanguages)
	require.Equal(t, []string{}, v.Tags)

	v = Localizer{Lang: "hi", Default: "en"}.Article(a, refs, false)
	require.Equal(t, "आज बारिश", v.Title)
	require.Equal(t, "Clouds", v.Summary)
	require.Empty(t, v.Content)
	require.Equal(t, "खेल", v.Category.Name)
	require.Equal(t, "https://cdn/hi.mp3", v.AudioURL)
}

// TestLocalizerMarkdown verifies markdown articles serve rendered html.
func TestLocalizerMarkdown(t *testing.T) {
	t.Parallel()

	a := &model.Article{
		Title:       i18n.Text{"en": "T"},
		Content:     i18n.Text{"en": "**b**"},
		ContentHTML: i18n.Text{"en": "<p><strong>b</strong></p>\n"},
		Format:      model.ContentFormatMarkdown,
	}
	v := Localizer{Lang: "en", Default: "en"}.Article(a, nil, true)
	require.Equal(t, "<p><strong>b</strong></p>\n", v.Content)
	require.Nil(t, v.Author)
}

// TestCategoryBreadcrumb verifies the breadcrumb ends with the category itself.
func TestCategoryBreadcrumb(t *testing.T) {
	t.Parallel()

	root := &model.Category{ID: primitive.NewObjectID(), Slug: "news", Name: i18n.Text{"en": "News"}}
	child := &model.Category{
		ID:        primitive.NewObjectID(),
		Slug:      "cricket",
		Name:      i18n.Text{"en": "Cricket"},
		Parent:    &root.ID,
		Ancestors: []model.Ancestor{root.AsAncestor()},
	}

	v := Localizer{Lang: "ta", Default: "en"}.Category(child, true)
	require.Len(t, v.Breadcrumb, 2)
	require.Equal(t, "news", v.Breadcrumb[0].Slug)
	require.Equal(t, "Cricket", v.Breadcrumb[1].Name)

	tree := Localizer{Lang: "en", Default: "en"}.Tree([]*CategoryNode{
		{Category: root, Children: []*CategoryNode{{Category: child}}},
	})
	require.Len(t, tree, 1)
	require.Equal(t, "Cricket", tree[0].Children[0].Name)
}

// TestPaged verifies page counting.
func TestPaged(t *testing.T) {
	t.Parallel()

	p := NewPaged([]int{1, 2}, 41, 1, 20)
	require.Equal(t, int64(3), p.Pages)

	empty := NewPaged[int](nil, 0, 1, 20)
	require.NotNil(t, empty.Items)
	require.Zero(t, empty.Pages)

	mapped := MapPaged(p, func(i int) string { return string(rune('a' + i)) })
	require.Equal(t, []string{"b", "c"}, mapped.Items)
	require.Equal(t, int64(41), mapped.Total)
}

// TestCommentView verifies liked flags and nested replies.
func TestCommentView(t *testing.T) {
	t.Parallel()

	viewer := primitive.NewObjectID()
	reply := &model.Comment{ID: primitive.NewObjectID(), Content: "reply"}
	root := &model.Comment{
		ID:      primitive.NewObjectID(),
		User:    viewer,
		Content: "root",
		LikedBy: []primitive.ObjectID{viewer},
		Replies: []*model.Comment{reply},
	}

	v := Comment(root, map[primitive.ObjectID]*model.User{viewer: {ID: viewer, Name: "me"}}, &viewer)
	require.True(t, v.Liked)
	require.Equal(t, "me", v.Author.Name)
	require.Len(t, v.Replies, 1)
	require.False(t, v.Replies[0].Liked)
	require.Nil(t, v.Replies[0].Author)
}
