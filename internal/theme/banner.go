package theme

import (
	"fmt"
	"io"

	"ascended/internal/model"
)

const reset = "\033[0m"

// chakraColors maps each chakra to its traditional ANSI colour.
var chakraColors = map[model.Chakra]string{
	model.ChakraRoot:     "\033[31m",
	model.ChakraSacral:   "\033[38;5;208m",
	model.ChakraSolar:    "\033[33m",
	model.ChakraHeart:    "\033[32m",
	model.ChakraThroat:   "\033[36m",
	model.ChakraThirdEye: "\033[34m",
	model.ChakraCrown:    "\033[35m",
}

// Paint wraps s in the colour of c. Unknown categories are returned as is.
func Paint(c model.Chakra, s string) string {
	col, ok := chakraColors[c]
	if !ok {
		return s
	}
	return col + s + reset
}

// Banner returns the startup banner: the title over a band of the seven
// chakra colours.
func Banner() string {
	band := ""
	for _, c := range model.Chakras {
		band += Paint(c, "◉ ")
	}
	return "" +
		"   ✧ ˚ ·  " + Paint(model.ChakraCrown, "A S C E N D E D") + "  · ˚ ✧\n" +
		"      " + band + "\n" +
		"   energy · frequency · spirit\n"
}

// PrintBanner writes the banner to w.
func PrintBanner(w io.Writer) {
	fmt.Fprint(w, Banner())
}
