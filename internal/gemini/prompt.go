// Package gemini – prompt composition for the decoration call.
package gemini

import "fmt"

// intensityGuidance maps decoration intensity levels to coverage wording
// woven into the prompt. Unknown levels fall back to "medium".
var intensityGuidance = map[string]string{
	"minimal": "very sparse and minimal decorations, just a few key pieces at 1-2 focal points",
	"light":   "light and tasteful decorations, a modest selection placed sparingly in key areas",
	"medium":  "a balanced variety of decorations covering the main areas",
	"heavy":   "generous and abundant decorations, numerous decorative elements throughout the space",
	"maximal": "lavish decorations filling every visible area, spectacularly decorated with no bare spaces",
}

// styleDescriptions maps preset style names to the decor vocabulary sent to
// the model. The "custom" style is excluded: it uses the caller's prompt.
var styleDescriptions = map[string]string{
	"classic_christmas":  "traditional Christmas decorations in warm whites, reds, and golds: string lights, evergreen wreaths with bows, garland, and classic seasonal accents",
	"nordic_minimalist":  "Scandinavian holiday decorations in whites and naturals: simple candle arrangements, sparse evergreen branches, understated paper stars, and soft neutral textiles",
	"modern_silver":      "contemporary holiday decorations in silver, white, and icy blue: metallic ornaments, cool-toned lights, and sleek geometric accents",
	"cozy_family":        "warm family-style holiday decorations: plaid textiles, stockings, warm string lights, handmade ornaments, and inviting soft furnishings",
	"rustic_farmhouse":   "rustic farmhouse holiday decorations: burlap ribbon, wooden accents, mason jar candles, pinecones, and weathered natural textures",
	"elegant_gold":       "elegant holiday decorations in gold and champagne tones: gilded ornaments, warm white lights, and luxurious ribbon and garland",
	"colorful_whimsical": "playful multicolored holiday decorations: bright rainbow lights, colorful ornaments, candy-cane accents, and cheerful whimsical figures",
}

// productAnalysisPrompt instructs the analysis model to emit shoppable items
// from a generated image as strict JSON.
const productAnalysisPrompt = `Identify up to 6 holiday decor products visible in this image. ` +
	`Respond with a JSON array only, each element an object with "productName" ` +
	`(short display name) and "searchTerm" (a concise shopping search query for that product).`

// buildDecorationPrompt composes the instruction text for one decoration
// job. Structure preservation comes first so the model keeps the original
// architecture; style, intensity, and lighting follow.
func buildDecorationPrompt(req DecorateRequest) string {
	preserve := "Maintain the original room structure and architecture."
	setting := "interior"
	if req.Scene == "exterior" {
		preserve = "Maintain the original house architecture and structure."
		setting = "exterior"
	}

	style := req.Prompt
	if req.Style != "custom" {
		if d, ok := styleDescriptions[req.Style]; ok {
			style = d
		}
	}

	intensity, ok := intensityGuidance[req.Intensity]
	if !ok {
		intensity = intensityGuidance["medium"]
	}

	lighting := "Render the scene in natural daylight."
	if req.Lighting == "night" {
		lighting = "Render the scene at night with the decorative lighting glowing warmly."
	}

	return fmt.Sprintf(
		"Decorate this %s photo for the holidays. %s Add %s, with %s. %s Keep the result photorealistic.",
		setting, preserve, style, intensity, lighting,
	)
}
