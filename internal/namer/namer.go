// Package namer generates human-readable session ids of the form
// AdjectiveNoun, e.g. "BraveOtter". Ids are not guaranteed unique; the
// registry retries on collision.
package namer

import (
	"math/rand"
	"strings"
)

var adjectives = []string{
	"amber", "ancient", "bitter", "bold", "brave", "bright", "broken",
	"calm", "clever", "cloudy", "crimson", "curious", "daring", "dusty",
	"eager", "early", "fancy", "fierce", "frosty", "gentle", "gilded",
	"golden", "greedy", "happy", "hasty", "hidden", "hungry", "jolly",
	"late", "lazy", "little", "lonely", "lucky", "mellow", "mighty",
	"misty", "noble", "patient", "proud", "quiet", "rapid", "rusty",
	"salty", "shiny", "silent", "sleepy", "sly", "snowy", "stormy",
	"swift", "tiny", "wild", "wise", "witty",
}

var nouns = []string{
	"badger", "bandit", "beacon", "boulder", "canyon", "comet", "crow",
	"falcon", "ferret", "fox", "geyser", "glacier", "harbor", "hawk",
	"heron", "lantern", "lizard", "magpie", "marmot", "meadow", "mole",
	"otter", "owl", "panther", "pebble", "pigeon", "raven", "reef",
	"river", "saddle", "sparrow", "squirrel", "summit", "thicket",
	"thrush", "tiger", "valley", "viper", "vulture", "walrus", "weasel",
	"willow", "wolf", "wombat",
}

// New returns a fresh session id.
func New() string {
	return capitalize(adjectives[rand.Intn(len(adjectives))]) +
		capitalize(nouns[rand.Intn(len(nouns))])
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
