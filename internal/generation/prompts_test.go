// internal/generation/prompts_test.go
package generation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPromptContextUsesCatalogFields(t *testing.T) {
	c := newPromptContext(ProductContext{Name: " Kettle ", Brand: "Acme", Category: "Kitchen", Description: "Steel kettle"},
		ResearchResult{Brand: "Other", KeyFeatures: []string{"a", "b", "c", "d", "e"}})

	assert.Equal(t, "Acme Kettle", c.identity)
	assert.Equal(t, "a, b, c, d", c.features)
	assert.True(t, c.homeLike())
}

func TestPromptContextFallsBackToResearch(t *testing.T) {
	c := newPromptContext(ProductContext{}, ResearchResult{Brand: "Acme", Category: "Garden"})
	assert.Equal(t, "Acme the product", c.identity)
	assert.Equal(t, "Garden", c.category)
}

func TestScenesAreStable(t *testing.T) {
	c := newPromptContext(ProductContext{Name: "Lamp", Description: strings.Repeat("x", 400)}, ResearchResult{})

	gallery := galleryScenes(c)
	require.Len(t, gallery, 4)
	assert.Equal(t, []string{"Lifestyle Setting", "Close-up Detail", "Flat-lay Composition", "In-use Demo"},
		[]string{gallery[0].Label, gallery[1].Label, gallery[2].Label, gallery[3].Label})
	assert.Contains(t, gallery[0].Prompt, "contemporary interior")

	frames := videoFrameScenes(c)
	require.Len(t, frames, 2)
	assert.Contains(t, frames[0].Prompt, "16:9")

	hero := heroPrompt(c)
	assert.Contains(t, hero, "Lamp")
	assert.Contains(t, hero, "Product: "+strings.Repeat("x", 200)+".")
	assert.NotContains(t, hero, strings.Repeat("x", 201))
}

func TestVideoPromptIncludesResearchSummary(t *testing.T) {
	c := newPromptContext(ProductContext{Name: "Lamp"}, ResearchResult{})
	assert.NotContains(t, videoPrompt(c, ResearchResult{}), "Context:")
	assert.Contains(t, videoPrompt(c, ResearchResult{Summary: "Bright"}), "Context: Bright.")
}

func TestTruncateCountsRunes(t *testing.T) {
	assert.Equal(t, "héllo", truncate("héllo wörld", 5))
	assert.Equal(t, "ok", truncate("ok", 5))
}
