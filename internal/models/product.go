// internal/models/product.go
package models

import (
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/datatypes"
)

// MediaImage is one entry of a product's featured image or gallery.
type MediaImage struct {
	URL  string `json:"url"`
	Alt  string `json:"alt,omitempty"`
	Type string `json:"type,omitempty"`
}

// Product is the catalog record a listing is generated from.
type Product struct {
	BaseModel
	CompanyID        uuid.UUID                       `json:"company_id" gorm:"type:uuid;not null;index"`
	Name             string                          `json:"name" gorm:"size:255;not null"`
	Description      string                          `json:"description" gorm:"type:text"`
	ShortDescription string                          `json:"short_description" gorm:"type:text"`
	Category         string                          `json:"category" gorm:"size:100;index"`
	Brand            string                          `json:"brand" gorm:"size:150"`
	Price            float64                         `json:"price" gorm:"type:decimal(10,2)"`
	Currency         string                          `json:"currency" gorm:"size:3;default:'EUR'"`
	Tags             pq.StringArray                  `json:"tags" gorm:"type:text[]"`
	EAN              string                          `json:"ean" gorm:"size:32"`
	SKU              string                          `json:"sku" gorm:"size:64"`
	ModelNumber      string                          `json:"model_number" gorm:"size:64"`
	Specifications   JSONB                           `json:"specifications" gorm:"type:jsonb"`
	FeaturedImage    datatypes.JSONType[*MediaImage] `json:"featured_image" gorm:"type:jsonb"`
	Gallery          datatypes.JSONSlice[MediaImage] `json:"gallery" gorm:"type:jsonb"`
}

// ReferenceImages lists the catalog image URLs, featured image first, without duplicates.
func (p *Product) ReferenceImages() []string {
	var urls []string
	seen := make(map[string]bool)
	add := func(u string) {
		u = strings.TrimSpace(u)
		if u == "" || seen[u] {
			return
		}
		seen[u] = true
		urls = append(urls, u)
	}

	if featured := p.FeaturedImage.Data(); featured != nil {
		add(featured.URL)
	}
	for _, img := range p.Gallery {
		add(img.URL)
	}
	return urls
}

// AppendGallery adds images whose URL is not in the gallery yet and reports how many were added.
func (p *Product) AppendGallery(images []MediaImage) int {
	existing := make(map[string]bool, len(p.Gallery))
	for _, img := range p.Gallery {
		existing[img.URL] = true
	}

	added := 0
	for _, img := range images {
		if img.URL == "" || existing[img.URL] {
			continue
		}
		existing[img.URL] = true
		p.Gallery = append(p.Gallery, img)
		added++
	}
	return added
}
