package chakra

import (
	"context"

	"ascended/internal/model"
	"ascended/internal/util"
)

var defaultKeywords = map[model.Chakra][]string{
	model.ChakraRoot:     {"ground", "grounding", "safety", "security", "home", "body", "earth", "survival", "stability", "money"},
	model.ChakraSacral:   {"creativity", "creative", "pleasure", "emotion", "emotions", "passion", "sensual", "flow", "art", "water"},
	model.ChakraSolar:    {"power", "confidence", "will", "courage", "purpose", "ambition", "fire", "discipline", "goals"},
	model.ChakraHeart:    {"love", "compassion", "kindness", "gratitude", "forgive", "forgiveness", "heart", "healing", "friend"},
	model.ChakraThroat:   {"truth", "voice", "speak", "expression", "communication", "words", "sing", "listen", "honest"},
	model.ChakraThirdEye: {"intuition", "vision", "dream", "dreams", "insight", "meditation", "psychic", "clarity", "imagination"},
	model.ChakraCrown:    {"divine", "universe", "consciousness", "spirit", "enlightenment", "cosmic", "oneness", "awakening", "source"},
}

// Keyword is a local classifier scoring content against per-chakra keyword
// lists. It always returns a member of the enumeration.
type Keyword struct {
	index    map[string]model.Chakra
	fallback model.Chakra
}

func NewKeyword() *Keyword {
	k := &Keyword{index: make(map[string]model.Chakra), fallback: model.ChakraHeart}
	for c, words := range defaultKeywords {
		for _, w := range words {
			k.index[w] = c
		}
	}
	return k
}

func (k *Keyword) Classify(_ context.Context, content string) (string, error) {
	counts := make(map[model.Chakra]int)
	for _, tok := range util.Tokenize(content) {
		if c, ok := k.index[tok]; ok {
			counts[c]++
		}
	}
	best, bestN := k.fallback, 0
	// ties resolve toward the root end so results are deterministic
	for _, c := range model.Chakras {
		if counts[c] > bestN {
			best, bestN = c, counts[c]
		}
	}
	return string(best), nil
}
