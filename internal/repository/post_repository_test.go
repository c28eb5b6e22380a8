package repository

import (
	"testing"
	"time"

	"github.com/scentshop/internal/constants"
	"github.com/scentshop/internal/models"
)

func TestPostListFiltersAndSlugCount(t *testing.T) {
	db := openTestDB(t)
	repo := NewPostRepository(db)
	now := time.Now()

	posts := []*models.Post{
		{Title: "Oud Basics", Slug: "oud-basics", Content: "a", Status: constants.PostStatusPublished, PublishedAt: &now, Featured: true},
		{Title: "Rose Layering", Slug: "rose-layering", Content: "b", Status: constants.PostStatusPublished, PublishedAt: &now},
		{Title: "Draft Musk", Slug: "draft-musk", Content: "c", Status: constants.PostStatusDraft},
	}
	for _, post := range posts {
		if err := repo.Create(post); err != nil {
			t.Fatalf("create post failed: %v", err)
		}
	}

	published, total, err := repo.List(PostListFilter{Page: 1, PageSize: 10, OnlyPublished: true})
	if err != nil || total != 2 || len(published) != 2 {
		t.Fatalf("expected 2 published posts, got %d err=%v", total, err)
	}
	featured, total, _ := repo.List(PostListFilter{Page: 1, PageSize: 10, OnlyFeatured: true})
	if total != 1 || featured[0].Slug != "oud-basics" {
		t.Fatalf("expected only featured post, got %d", total)
	}
	_, total, _ = repo.List(PostListFilter{Page: 1, PageSize: 10, Status: constants.PostStatusDraft, Search: "musk"})
	if total != 1 {
		t.Fatalf("expected draft search hit, got %d", total)
	}

	if post, err := repo.GetBySlug("draft-musk", true); err != nil || post != nil {
		t.Fatalf("draft must be hidden from published lookup: %+v err=%v", post, err)
	}
	if post, err := repo.GetBySlug("draft-musk", false); err != nil || post == nil {
		t.Fatalf("draft should be found without the published filter: err=%v", err)
	}

	if count, _ := repo.CountBySlug("rose-layering", posts[1].ID); count != 0 {
		t.Fatalf("own slug must be excluded, got %d", count)
	}
	if err := repo.Delete(posts[1].ID); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if count, _ := repo.CountBySlug("rose-layering", 0); count != 1 {
		t.Fatalf("deleted post still holds its slug, got %d", count)
	}
	if post, _ := repo.GetByID(posts[1].ID); post != nil {
		t.Fatalf("deleted post should not be returned")
	}
}
