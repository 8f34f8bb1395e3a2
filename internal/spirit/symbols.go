package spirit

import "ascended/internal/model"

var tierSymbols = map[model.Element][]string{
	model.ElementFire:  {"🕯", "🔥", "☄", "☀"},
	model.ElementWater: {"💧", "🌊", "🌧", "🌙"},
	model.ElementEarth: {"🌱", "🌿", "🌳", "⛰"},
	model.ElementAir:   {"🍃", "🌬", "☁", "✨"},
}

// Symbol selects the glyph for a spirit of element at tier. Tiers past the
// last glyph keep the highest one.
func Symbol(element model.Element, tier int) string {
	glyphs, ok := tierSymbols[element]
	if !ok {
		return "✦"
	}
	if tier < 1 {
		tier = 1
	}
	if tier > len(glyphs) {
		tier = len(glyphs)
	}
	return glyphs[tier-1]
}
