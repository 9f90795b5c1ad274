// Package invite generates and normalizes human-readable invite phrases.
package invite

import (
	"math/rand/v2"
	"strings"
)

const slots = 3

var words = []string{
	"amber", "anchor", "apple", "arrow", "aspen", "badger", "basil", "beacon",
	"birch", "bison", "bloom", "brook", "cactus", "canyon", "cedar", "cherry",
	"cliff", "clover", "comet", "copper", "coral", "crane", "daisy", "delta",
	"dune", "eagle", "ember", "falcon", "fern", "fjord", "flint", "forest",
	"fox", "garnet", "glacier", "granite", "harbor", "hazel", "heron", "island",
	"ivy", "jade", "juniper", "kestrel", "lagoon", "lantern", "lemon", "lotus",
	"maple", "meadow", "mesa", "mint", "moss", "nebula", "oak", "ocean",
	"olive", "orchid", "otter", "pebble", "pine", "planet", "quartz", "raven",
	"reef", "river", "robin", "saffron", "sage", "shore", "sparrow", "spruce",
	"summit", "thistle", "tide", "tulip", "valley", "walnut", "willow", "zephyr",
}

// Words returns a copy of the word list phrases are drawn from.
func Words() []string {
	out := make([]string, len(words))
	copy(out, words)
	return out
}

// Generate returns three words joined by single spaces. Each slot is
// sampled independently so repeats and collisions are possible; callers
// that need uniqueness must retry.
func Generate() string {
	return generate(rand.IntN)
}

func generate(intn func(int) int) string {
	picked := make([]string, slots)
	for i := range picked {
		picked[i] = words[intn(len(words))]
	}
	return strings.Join(picked, " ")
}

// Normalize lower-cases s and collapses any run of spaces, dashes,
// underscores or URL-encoded spaces into a single space, so
// "Alpha-Beta-Gamma" and "alpha beta gamma" compare equal.
func Normalize(s string) string {
	s = strings.ToLower(strings.ReplaceAll(s, "%20", " "))
	fields := strings.FieldsFunc(s, func(r rune) bool {
		switch r {
		case ' ', '-', '_', '\t', '+':
			return true
		}
		return false
	})
	return strings.Join(fields, " ")
}
