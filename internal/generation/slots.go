// internal/generation/slots.go
package generation

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/javajoker/listing-studio/internal/models"
)

type SlotType string

const (
	SlotStudio    SlotType = "studio"
	SlotLifestyle SlotType = "lifestyle"
	SlotGraphic   SlotType = "graphic"
)

// Slot is one position of the listing image template.
type Slot struct {
	Number      int      `json:"slot"`
	Type        SlotType `json:"type"`
	Label       string   `json:"label"`
	Description string   `json:"description"`
}

var ImageSlots = []Slot{
	{1, SlotStudio, "Studio", "Front view, white BG"},
	{2, SlotStudio, "Studio", "Angle view, white BG"},
	{3, SlotStudio, "Studio", "Detail/close-up, white BG"},
	{4, SlotLifestyle, "Lifestyle", "Product in use"},
	{5, SlotLifestyle, "Lifestyle", "Context / setting"},
	{6, SlotLifestyle, "Lifestyle", "Scale / hands"},
	{7, SlotLifestyle, "Lifestyle", "Styled flat lay"},
	{8, SlotGraphic, "USP", "Feature highlight #1"},
	{9, SlotGraphic, "USP", "Feature highlight #2"},
	{10, SlotGraphic, "USP", "Specs / comparison"},
	{11, SlotGraphic, "USP", "Awards / certifications"},
}

func SlotByNumber(n int) (Slot, bool) {
	for _, s := range ImageSlots {
		if s.Number == n {
			return s, true
		}
	}
	return Slot{}, false
}

func (s Slot) useCase() string {
	if s.Type == SlotStudio {
		return "product_variation"
	}
	return "product_scene"
}

func slotPrompt(c promptContext, slot Slot) string {
	product := c.productLine(150)
	var lines []string
	switch slot.Number {
	case 1:
		lines = []string{"Professional e-commerce front-view photograph of the " + c.identity + " on a pure white seamless backdrop.", product, fidelityLine,
			"Three-point studio lighting, 100mm lens, f/8, tack-sharp, centered composition."}
	case 2:
		lines = []string{"Professional e-commerce 3/4 angle photograph of the " + c.identity + " on a pure white seamless backdrop.", product, fidelityLine,
			"Slight elevated angle showing dimensionality, soft gradient shadow beneath, clean studio lighting."}
	case 3:
		lines = []string{"Extreme close-up detail photograph of the " + c.identity + " on a white background.", product, fidelityLine,
			"Tight crop on the most distinctive detail: surface texture, controls or a design element. Macro lens, shallow depth of field, raking studio light."}
	case 4:
		lines = []string{"Lifestyle photograph of the " + c.identity + " being used naturally in its intended context.", product, fidelityLine,
			"Hands interacting with the product, warm natural window light. 50mm lens, f/2.8, gentle background bokeh."}
	case 5:
		setting := "contemporary interior"
		if c.homeLike() {
			setting = "home interior with natural materials"
		}
		lines = []string{"Lifestyle environment photograph of the " + c.identity + " in a modern " + setting + ".", product, fidelityLine,
			"Warm natural light, editorial style, the product is the clear hero. 35mm lens, f/2.8."}
	case 6:
		lines = []string{"Photograph showing the " + c.identity + " held in human hands for scale reference.", product, fidelityLine,
			"Clean, well-lit environment, soft natural light, warm tones."}
	case 7:
		lines = []string{"Styled overhead flat-lay photograph of the " + c.identity + " with complementary props.", product, fidelityLine,
			"Bird's-eye view, product off-center on the rule of thirds, 3-4 relevant accessories, clean matte surface, diffused overhead light."}
	case 8:
		lines = []string{"Professional product infographic of the " + c.identity + " highlighting its primary key feature.", product,
			"Product at center with clean callout overlays pointing to the feature. Dark gradient background, modern typography."}
	case 9:
		lines = []string{"Professional product infographic of the " + c.identity + " highlighting a secondary feature or benefit.", product,
			"Clean graphical elements explaining the feature, complementary color scheme, modern layout."}
	case 10:
		lines = []string{"Professional product specifications graphic for the " + c.identity + ".", product,
			"Product centered with key technical specs around it, iconographic callouts, premium color scheme."}
	case 11:
		lines = []string{"Professional trust and certification graphic for the " + c.identity + ".", product,
			"Product shown with quality badges, certification icons or award elements. Clean modern design, premium feel."}
	default:
		lines = []string{"Professional product photograph of the " + c.identity + ".", product, fidelityLine,
			"Commercial quality, studio lighting."}
	}
	return joinLines(lines...)
}

// SlotOutcome is the result of generating one template slot.
type SlotOutcome struct {
	Slot    Slot            `json:"slot"`
	URL     string          `json:"url"`
	Listing *models.Listing `json:"listing"`
}

// GenerateSlotImage creates one image for slot and inserts it at the slot's
// position of the listing images. run must hold the listing key.
func (o *Orchestrator) GenerateSlotImage(ctx context.Context, run *Run, req Request, slot Slot) (*SlotOutcome, error) {
	st := &runState{
		run: run,
		req: req,
		log: o.log.WithFields(logrus.Fields{
			"run_id":     run.ID,
			"product_id": req.Product.ID,
			"channel":    req.Channel,
			"slot":       slot.Number,
		}),
		prompts: newPromptContext(req.Product, ResearchResult{}),
	}

	scene := Scene{Label: slot.Label + " - " + slot.Description, Prompt: slotPrompt(st.prompts, slot)}
	url, err := o.generateImage(ctx, st, scene, AspectSquare, slot.useCase())
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("%w: %w", ErrRunCanceled, ctx.Err())
		}
		return nil, fmt.Errorf("%w: %w", ErrImageFailed, err)
	}

	err = o.persist(ctx, st, models.ListingPatch{InsertImage: &models.ImageInsert{Position: slot.Number, URL: url}})
	if err != nil {
		return nil, err
	}

	st.log.Info("Slot image generated")
	return &SlotOutcome{Slot: slot, URL: url, Listing: st.saved}, nil
}
