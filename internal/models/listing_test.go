// internal/models/listing_test.go
package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func ptr(s string) *string { return &s }

func TestListingPatchLeavesNilFieldsUntouched(t *testing.T) {
	hero := "https://cdn.test/hero.png"
	l := &Listing{Title: "Old", Description: "keep", HeroImageURL: &hero, GalleryURLs: []string{"g1"}}
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	ListingPatch{Title: ptr("  New  ")}.ApplyTo(l, now)

	assert.Equal(t, "New", l.Title)
	assert.Equal(t, "keep", l.Description)
	assert.Equal(t, hero, StringValue(l.HeroImageURL))
	assert.Equal(t, []string{"g1"}, []string(l.GalleryURLs))
	assert.Equal(t, now, l.UpdatedAt)
}

func TestListingPatchGalleryReplaceThenAppend(t *testing.T) {
	l := &Listing{GalleryURLs: []string{"old"}}

	ListingPatch{AppendGalleryURLs: []string{"a", "b"}}.ApplyTo(l, time.Now())
	assert.Equal(t, []string{"old", "a", "b"}, []string(l.GalleryURLs))

	ListingPatch{GalleryURLs: []string{"x"}, AppendGalleryURLs: []string{"y"}}.ApplyTo(l, time.Now())
	assert.Equal(t, []string{"x", "y"}, []string(l.GalleryURLs))

	ListingPatch{GalleryURLs: []string{}}.ApplyTo(l, time.Now())
	assert.Empty(t, l.GalleryURLs)
}

func TestListingPatchClearsOptionalURLs(t *testing.T) {
	l := &Listing{HeroImageURL: ptr("h"), VideoURL: ptr("v")}
	ListingPatch{HeroImageURL: ptr(""), VideoURL: ptr("  ")}.ApplyTo(l, time.Now())
	assert.Nil(t, l.HeroImageURL)
	assert.Nil(t, l.VideoURL)
}

func TestListingPatchIsEmpty(t *testing.T) {
	assert.True(t, ListingPatch{}.IsEmpty())
	assert.True(t, ListingPatch{AppendGalleryURLs: []string{}}.IsEmpty())
	assert.False(t, ListingPatch{SearchKeywords: []string{}}.IsEmpty())
	assert.False(t, ListingPatch{VideoURL: ptr("")}.IsEmpty())
}

func TestNormalizeKeywords(t *testing.T) {
	got := NormalizeKeywords([]string{" Widget ", "widget", "", "Tool", "TOOL", "gadget"})
	assert.Equal(t, []string{"widget", "tool", "gadget"}, []string(got))
	assert.NotNil(t, NormalizeKeywords(nil))
}

func TestCapBulletPoints(t *testing.T) {
	got := CapBulletPoints([]string{"1", " ", "2", "3", "4", "5", "6"})
	assert.Equal(t, []string{"1", "2", "3", "4", "5"}, []string(got))
}

func TestListingKeyString(t *testing.T) {
	l := &Listing{Channel: ChannelBolcom}
	key := ListingKey{ProductID: l.ProductID, Channel: l.Channel}
	assert.Equal(t, "00000000-0000-0000-0000-000000000000/bolcom", key.String())
	assert.True(t, ChannelShopify.Valid())
	assert.False(t, Channel("amazon").Valid())
}

func TestInsertImagePositions(t *testing.T) {
	tests := []struct {
		name        string
		hero        string
		gallery     []string
		position    int
		wantHero    string
		wantGallery []string
	}{
		{"hero slot pushes hero into gallery", "h", []string{"g1", "g2"}, 1, "new", []string{"h", "g1", "g2"}},
		{"second slot", "h", []string{"g1", "g2"}, 2, "h", []string{"new", "g1", "g2"}},
		{"last position", "h", []string{"g1", "g2"}, 4, "h", []string{"g1", "g2", "new"}},
		{"past the end appends", "h", []string{"g1"}, 9, "h", []string{"g1", "new"}},
		{"empty listing makes hero", "", nil, 5, "new", []string{}},
		{"missing hero promotes gallery", "", []string{"g1", "g2"}, 2, "g1", []string{"new", "g2"}},
		{"blank entries are dropped", "h", []string{"", "g1"}, 3, "h", []string{"g1", "new"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hero, gallery := InsertImage(tt.hero, tt.gallery, tt.position, "new")
			assert.Equal(t, tt.wantHero, hero)
			assert.Equal(t, tt.wantGallery, []string(gallery))
		})
	}
}

func TestListingPatchInsertImage(t *testing.T) {
	l := &Listing{HeroImageURL: ptr("h"), GalleryURLs: []string{"g1"}}

	patch := ListingPatch{InsertImage: &ImageInsert{Position: 1, URL: "new"}}
	assert.False(t, patch.IsEmpty())
	patch.ApplyTo(l, time.Now())

	assert.Equal(t, "new", StringValue(l.HeroImageURL))
	assert.Equal(t, []string{"h", "g1"}, []string(l.GalleryURLs))
}
