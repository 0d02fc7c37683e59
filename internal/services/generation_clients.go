// internal/services/generation_clients.go
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/javajoker/listing-studio/internal/generation"
)

type ResearchClient struct{ ai *AIClient }

type researchSpec struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type researchProduct struct {
	Description    string         `json:"description"`
	Tagline        string         `json:"tagline"`
	Specifications []researchSpec `json:"specifications"`
	Category       string         `json:"category"`
	Brand          string         `json:"brand"`
	SourceURL      string         `json:"sourceUrl"`
}

const maxKeyFeatures = 8

func (c *ResearchClient) Research(ctx context.Context, req generation.ResearchRequest) (*generation.ResearchResult, error) {
	var resp struct {
		Product *researchProduct `json:"product"`
	}
	if err := c.ai.post(ctx, "research-product", req, &resp); err != nil {
		return nil, err
	}
	if resp.Product == nil {
		return nil, errors.New("research-product: no product in response")
	}
	return resp.Product.result(), nil
}

func (p *researchProduct) result() *generation.ResearchResult {
	r := &generation.ResearchResult{
		Summary:           firstNonEmpty(p.Description, p.Tagline, "Product analyzed from catalog data"),
		ValuePropositions: []string{},
		TargetAudience:    "General consumers",
		KeyFeatures:       []string{},
		Sources:           []string{},
		Brand:             p.Brand,
		Category:          p.Category,
	}
	for _, spec := range p.Specifications {
		if spec.Name == "" {
			continue
		}
		r.ValuePropositions = append(r.ValuePropositions, spec.Name+": "+spec.Value)
		if len(r.KeyFeatures) < maxKeyFeatures {
			r.KeyFeatures = append(r.KeyFeatures, spec.Name)
		}
	}
	if p.Category != "" {
		r.TargetAudience = "Consumers interested in " + p.Category
	}
	if p.SourceURL != "" {
		r.CompetitorInsights = "Market data sourced from " + p.SourceURL
		r.Sources = append(r.Sources, p.SourceURL)
	}
	return r
}

type CopywritingClient struct{ ai *AIClient }

type copyResearchContext struct {
	Findings           string   `json:"findings"`
	ValuePropositions  []string `json:"valuePropositions"`
	TargetAudience     string   `json:"targetAudience"`
	CompetitorInsights string   `json:"competitorInsights"`
	KeyFeatures        []string `json:"keyFeatures"`
}

type copyRequestBody struct {
	ProductName        string                 `json:"product_name"`
	ProductDescription string                 `json:"product_description"`
	ProductCategory    string                 `json:"product_category"`
	ProductSpecs       map[string]interface{} `json:"product_specs"`
	ProductPrice       float64                `json:"product_price,omitempty"`
	ProductCurrency    string                 `json:"product_currency"`
	ProductBrand       string                 `json:"product_brand"`
	ProductTags        []string               `json:"product_tags"`
	ProductEAN         string                 `json:"product_ean"`
	Channel            string                 `json:"channel"`
	Language           string                 `json:"language"`
	Tone               string                 `json:"tone"`
	ResearchContext    copyResearchContext    `json:"research_context"`
}

// copyTitle accepts either a plain string or an object with a text field.
type copyTitle string

func (t *copyTitle) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '{' {
		var obj struct {
			Text string `json:"text"`
		}
		if err := json.Unmarshal(data, &obj); err != nil {
			return err
		}
		*t = copyTitle(obj.Text)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("title must be a string or {text}: %w", err)
	}
	*t = copyTitle(s)
	return nil
}

type copyListing struct {
	Titles         []copyTitle `json:"titles"`
	Description    string      `json:"description"`
	BulletPoints   []string    `json:"bullet_points"`
	SEOTitle       string      `json:"seo_title"`
	SEODescription string      `json:"seo_description"`
	SearchKeywords []string    `json:"search_keywords"`
	ShortTagline   string      `json:"short_tagline"`
	Reasoning      string      `json:"reasoning"`
}

func (c *CopywritingClient) WriteCopy(ctx context.Context, req generation.CopyRequest) (*generation.CopyResult, error) {
	p := req.Product
	specs := p.Specifications
	if specs == nil {
		specs = map[string]interface{}{}
	}
	currency := p.Currency
	if currency == "" {
		currency = "EUR"
	}
	body := copyRequestBody{
		ProductName:        p.Name,
		ProductDescription: p.Description,
		ProductCategory:    p.Category,
		ProductSpecs:       specs,
		ProductPrice:       p.Price,
		ProductCurrency:    currency,
		ProductBrand:       p.Brand,
		ProductTags:        nonNil(p.Tags),
		ProductEAN:         p.EAN,
		Channel:            string(req.Channel),
		Language:           req.Language,
		Tone:               req.Tone,
		ResearchContext: copyResearchContext{
			Findings:           req.Research.Summary,
			ValuePropositions:  nonNil(req.Research.ValuePropositions),
			TargetAudience:     req.Research.TargetAudience,
			CompetitorInsights: req.Research.CompetitorInsights,
			KeyFeatures:        nonNil(req.Research.KeyFeatures),
		},
	}

	var resp struct {
		Listing *copyListing `json:"listing"`
	}
	if err := c.ai.post(ctx, "generate-listing-copy", body, &resp); err != nil {
		return nil, err
	}
	if resp.Listing == nil {
		return nil, errors.New("generate-listing-copy: no copy data returned")
	}

	l := resp.Listing
	titles := make([]string, 0, len(l.Titles))
	for _, t := range l.Titles {
		titles = append(titles, string(t))
	}
	return &generation.CopyResult{
		Titles:         titles,
		Description:    l.Description,
		BulletPoints:   nonNil(l.BulletPoints),
		SEOTitle:       l.SEOTitle,
		SEODescription: l.SEODescription,
		SearchKeywords: nonNil(l.SearchKeywords),
		ShortTagline:   l.ShortTagline,
		Reasoning:      l.Reasoning,
	}, nil
}

type ImageClient struct {
	ai    *AIClient
	model string
}

type imageProductContext struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Type        string `json:"type"`
}

type imageRequestBody struct {
	generation.ImageRequest
	ProductName       string              `json:"product_name"`
	ModelKey          string              `json:"model_key"`
	Style             string              `json:"style"`
	Width             int                 `json:"width"`
	Height            int                 `json:"height"`
	ReferenceImageURL *string             `json:"reference_image_url"`
	IsPhysicalProduct bool                `json:"is_physical_product"`
	ProductContext    imageProductContext `json:"product_context"`
}

func (c *ImageClient) GenerateImage(ctx context.Context, req generation.ImageRequest) (*generation.ImageResult, error) {
	width, height := req.AspectRatio.Dimensions()
	req.ReferenceImages = nonNil(req.ReferenceImages)
	body := imageRequestBody{
		ImageRequest:      req,
		ProductName:       req.Product.Name,
		ModelKey:          c.model,
		Style:             "photorealistic",
		Width:             width,
		Height:            height,
		IsPhysicalProduct: true,
		ProductContext: imageProductContext{
			Name:        req.Product.Name,
			Description: req.Product.Description,
			Type:        "physical",
		},
	}
	if len(req.ReferenceImages) > 0 {
		body.ReferenceImageURL = &req.ReferenceImages[0]
	}

	var resp generation.ImageResult
	if err := c.ai.post(ctx, "generate-image", body, &resp); err != nil {
		return nil, err
	}
	if resp.URL == "" {
		return nil, errors.New("generate-image: no image URL returned")
	}
	return &resp, nil
}

type VideoClient struct {
	ai    *AIClient
	model string
}

type videoRequestBody struct {
	generation.VideoRequest
	ModelKey      string `json:"model_key"`
	GenerateAudio bool   `json:"generate_audio"`
}

func (c *VideoClient) GenerateVideo(ctx context.Context, req generation.VideoRequest) (*generation.VideoResult, error) {
	var resp generation.VideoResult
	err := c.ai.post(ctx, "generate-fashion-video", videoRequestBody{VideoRequest: req, ModelKey: c.model}, &resp)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
