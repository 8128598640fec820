package services

import (
	"fmt"
	"math/rand"
	"strings"
)

const placeholderPrefix = "https://picsum.photos/800/600?random="

// PlaceholderImage returns a random stock image URL used when panel art cannot be drawn.
func PlaceholderImage() string {
	return fmt.Sprintf("%s%d", placeholderPrefix, rand.Intn(1_000_000))
}

// IsPlaceholder reports whether ref came from PlaceholderImage.
func IsPlaceholder(ref string) bool {
	return strings.HasPrefix(ref, placeholderPrefix)
}
