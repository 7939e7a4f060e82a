package cli

import (
	"crypto/rand"
	"math/big"
	"strings"
)

var adjectives = []string{
	"tiny", "happy", "sleepy", "fluffy", "sparkly", "cheery", "silly", "jolly", "cozy", "shiny",
	"golden", "silver", "crimson", "emerald", "purple", "bright", "gentle", "brave", "calm", "swift",
	"silent", "bouncy", "fuzzy", "plucky", "merry", "peppy",
}

var animals = []string{
	"kitten", "puppy", "bunny", "panda", "koala", "fox", "otter", "hedgehog", "squirrel", "hamster",
	"fawn", "lamb", "raccoon", "ferret", "beaver", "dolphin", "whale", "narwhal", "penguin", "flamingo",
	"sparrow", "robin", "toucan", "parrot",
}

var nouns = []string{
	"sunbeam", "stardust", "pepper", "muffin", "bubble", "sprout", "glimmer", "echo", "jelly",
	"marble", "maple", "cocoa", "hazel", "breeze", "meadow", "willow", "ember", "cinnamon",
	"poppy", "pixel", "biscuit", "cupcake", "nugget", "toffee", "comet", "orbit", "nebula",
}

// newRoomID creates a random, memorable room identifier.
func newRoomID() string {
	parts := []string{
		adjectives[randomIndex(len(adjectives))],
		animals[randomIndex(len(animals))],
		nouns[randomIndex(len(nouns))],
	}
	return strings.Join(parts, "-")
}

func randomIndex(max int) int {
	n, err := rand.Int(rand.Reader, big.NewInt(int64(max)))
	if err != nil {
		panic(err)
	}
	return int(n.Int64())
}
