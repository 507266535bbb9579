// Package names generates the human-readable identities handed out to
// lobby clients.
package names

import (
	"math/rand/v2"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Generator returns a candidate identity. Uniqueness is the caller's concern.
type Generator func() string

var adjectives = [...]string{
	"accidental", "accurate", "ancient", "animated", "boundless",
	"bright", "capable", "careful", "charming", "chivalrous",
	"classy", "clever", "cluttered", "crowded", "cuddly",
	"cultured", "defiant", "diligent", "efficient", "enchanted",
	"endurable", "entertaining", "enthusiastic", "exuberant", "fabulous",
	"friendly", "glorious", "groovy", "hilarious", "holistic",
	"honorable", "inquisitive", "instinctive", "invincible", "knowledgeable",
	"literate", "luxuriant", "nebulous", "obsequious", "overjoyed",
	"periodic", "polite", "quizzical", "serious", "sharp",
	"shiny", "silent", "skillful", "splendid", "spotless",
	"steady", "sturdy", "successful", "succinct", "swanky",
	"terrific", "zany",
}

var nouns = [...]string{
	"aardvark", "alpaca", "badger", "bear", "beaver",
	"buffalo", "butterfly", "camel", "caribou", "cheetah",
	"chimpanzee", "crow", "dinosaur", "dolphin", "elephant",
	"giraffe", "goldfish", "grasshopper", "kangaroo", "koala",
	"lion", "horse", "mallard", "manatee", "monkey",
	"moose", "mouse", "panda", "platypus", "porcupine",
	"rabbit", "raccoon", "reindeer", "rhinoceros", "snail",
	"squirrel", "swan", "tiger", "turkey", "walrus",
	"zebra",
}

// Generate picks a random adjective and noun, e.g. "Clever Badger".
func Generate() string {
	return compose(adjectives[rand.IntN(len(adjectives))], nouns[rand.IntN(len(nouns))])
}

// Capacity reports how many distinct identities Generate can produce.
func Capacity() int {
	return len(adjectives) * len(nouns)
}

func compose(adjective, noun string) string {
	var b strings.Builder
	b.Grow(len(adjective) + len(noun) + 1)
	b.WriteString(upperFirst(adjective))
	b.WriteByte(' ')
	b.WriteString(upperFirst(noun))
	return b.String()
}

func upperFirst(word string) string {
	r, size := utf8.DecodeRuneInString(word)
	if size == 0 {
		return ""
	}
	return string(unicode.ToUpper(r)) + word[size:]
}
