// internal/generation/prompts.go
package generation

import (
	"strings"
)

// Scene is one named image prompt of a multi-item phase.
type Scene struct {
	Label  string
	Prompt string
}

// promptContext is derived from catalog fields and research features only;
// generated copy does not feed the visual prompts.
type promptContext struct {
	identity    string
	description string
	category    string
	features    string
}

func newPromptContext(p ProductContext, research ResearchResult) promptContext {
	name := strings.TrimSpace(p.Name)
	if name == "" {
		name = "the product"
	}
	brand := strings.TrimSpace(p.Brand)
	if brand == "" {
		brand = research.Brand
	}
	category := p.Category
	if category == "" {
		category = research.Category
	}

	features := research.KeyFeatures
	if len(features) > 4 {
		features = features[:4]
	}

	return promptContext{
		identity:    strings.TrimSpace(brand + " " + name),
		description: strings.TrimSpace(p.Description),
		category:    category,
		features:    strings.Join(features, ", "),
	}
}

func (c promptContext) homeLike() bool {
	return strings.Contains(c.category, "Kitchen") || strings.Contains(c.category, "Home")
}

func (c promptContext) productLine(n int) string {
	if c.description == "" {
		return ""
	}
	return "Product: " + truncate(c.description, n) + "."
}

const fidelityLine = "The product must look exactly like the reference image(s): same shape, color, material finish, branding and proportions."

func heroPrompt(c promptContext) string {
	return joinLines(
		"Generate a professional e-commerce hero photograph of the "+c.identity+".",
		c.productLine(200),
		fidelityLine,
		"Setting: pure white seamless backdrop with a soft gradient shadow beneath the product.",
		"Lighting: three-point studio setup with a large softbox key light at 45 degrees, fill card opposite and a subtle rim light.",
		"Composition: product centered with generous negative space, eye level, slight 3/4 angle.",
		"Technical: 100mm lens equivalent, f/8, tack-sharp across the whole product, color-accurate.",
	)
}

func galleryScenes(c promptContext) []Scene {
	setting := "contemporary interior with clean lines and neutral tones"
	if c.homeLike() {
		setting = "home interior with natural materials such as light wood, marble or concrete"
	}
	hints := ""
	if c.features != "" {
		hints = " Key features: " + c.features + "."
	}
	useCase := c.category
	if useCase == "" {
		useCase = "its use case"
	}

	return []Scene{
		{
			Label: "Lifestyle Setting",
			Prompt: joinLines(
				"Generate a lifestyle photograph of the "+c.identity+" in a real-world setting.",
				c.productLine(150),
				fidelityLine,
				"Setting: modern, well-designed "+setting+".",
				"Lighting: warm natural window light from the side with soft directional shadows."+hints,
				"Technical: 35mm lens equivalent, f/2.8 with gentle background bokeh.",
			),
		},
		{
			Label: "Close-up Detail",
			Prompt: joinLines(
				"Generate an extreme close-up detail photograph of the "+c.identity+".",
				c.productLine(150),
				fidelityLine,
				"Focus: tight crop on the most distinctive texture, material or design element.",
				"Lighting: low raking light that emphasizes surface texture.",
				"Technical: 100mm macro lens, f/4, shallow depth of field.",
			),
		},
		{
			Label: "Flat-lay Composition",
			Prompt: joinLines(
				"Generate a styled flat-lay photograph featuring the "+c.identity+" with complementary props.",
				c.productLine(150),
				fidelityLine,
				"Composition: overhead view, product off-center, three or four props relevant to "+useCase+".",
				"Lighting: even, diffused overhead light with subtle shadows.",
			),
		},
		{
			Label: "In-use Demo",
			Prompt: joinLines(
				"Generate a photograph showing the "+c.identity+" being used naturally.",
				c.productLine(150),
				fidelityLine,
				"Scene: a person's hands using the product in its intended context, genuine rather than posed.",
				"Technical: 50mm lens, f/2.8, focus on product and hands.",
			),
		},
	}
}

func videoFrameScenes(c promptContext) []Scene {
	environment := "contemporary environment"
	if c.homeLike() {
		environment = "modern kitchen or living space"
	}

	return []Scene{
		{
			Label: "Cinematic Hero Frame",
			Prompt: joinLines(
				"Generate a cinematic opening frame for a product video of the "+c.identity+".",
				c.productLine(150),
				fidelityLine,
				"Setting: dark reflective surface in a studio with a deep black background.",
				"Lighting: cool key light at 30 degrees, blue rim light and a warm accent from below.",
				"Composition: wide 16:9 frame, product center-right, shot from slightly below eye level.",
			),
		},
		{
			Label: "Lifestyle Motion Frame",
			Prompt: joinLines(
				"Generate a cinematic lifestyle frame for a product video of the "+c.identity+".",
				c.productLine(150),
				fidelityLine,
				"Setting: elegant "+environment+" with a warm, lived-in atmosphere.",
				"Lighting: warm ambient light with volumetric haze.",
				"Composition: wide 16:9 frame, product on the left third, layered depth.",
			),
		},
	}
}

func videoPrompt(c promptContext, research ResearchResult) string {
	summary := ""
	if research.Summary != "" {
		summary = "Context: " + truncate(research.Summary, 150) + "."
	}
	return strings.Join(nonEmpty(
		"Cinematic product reveal video of the "+c.identity+".",
		summary,
		"Camera: slow dolly-in from a wide shot, then a smooth 180-degree orbit at a slight low angle, ending on a push-in to the most distinctive feature.",
		"Lighting: studio lighting moving from dramatic rim light to fuller fill as the camera orbits.",
		"Pace: smooth and deliberate, real-time speed, no cuts.",
		"Keep the product exactly as shown in the reference image.",
	), " ")
}

func joinLines(lines ...string) string {
	return strings.Join(nonEmpty(lines...), "\n")
}

func nonEmpty(parts ...string) []string {
	out := parts[:0:0]
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// truncate cuts s to at most n runes.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
