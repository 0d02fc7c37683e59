// internal/models/product_test.go
package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"gorm.io/datatypes"
)

func TestProductReferenceImages(t *testing.T) {
	p := &Product{
		FeaturedImage: datatypes.NewJSONType(&MediaImage{URL: "https://cdn.test/main.jpg"}),
		Gallery: datatypes.JSONSlice[MediaImage]{
			{URL: "https://cdn.test/side.jpg"},
			{URL: "https://cdn.test/main.jpg"},
			{URL: " "},
		},
	}
	assert.Equal(t, []string{"https://cdn.test/main.jpg", "https://cdn.test/side.jpg"}, p.ReferenceImages())
	assert.Empty(t, (&Product{}).ReferenceImages())
}

func TestProductAppendGallerySkipsDuplicates(t *testing.T) {
	p := &Product{Gallery: datatypes.JSONSlice[MediaImage]{{URL: "a"}}}
	added := p.AppendGallery([]MediaImage{{URL: "a"}, {URL: "b"}, {URL: "b"}, {URL: ""}})
	assert.Equal(t, 1, added)
	assert.Len(t, p.Gallery, 2)
	assert.Equal(t, "b", p.Gallery[1].URL)
}
