package scan

import (
	"regexp"
	"strconv"
	"strings"
)

// arabicNumbers maps spoken Arabic number words to integers. Units,
// tens and one hundred only; multi-word compounds are not combined.
// The slice is ordered so a transcript containing several number words
// resolves deterministically to the first table entry found.
var arabicNumbers = []struct {
	word  string
	value int
}{
	{"صفر", 0},
	{"واحد", 1},
	{"اثنان", 2},
	{"ثلاثة", 3},
	{"أربعة", 4},
	{"خمسة", 5},
	{"ستة", 6},
	{"سبعة", 7},
	{"ثمانية", 8},
	{"تسعة", 9},
	{"عشرة", 10},
	{"عشرين", 20},
	{"ثلاثين", 30},
	{"أربعين", 40},
	{"خمسين", 50},
	{"ستين", 60},
	{"سبعين", 70},
	{"ثمانين", 80},
	{"تسعين", 90},
	{"مائة", 100},
}

var digitRun = regexp.MustCompile(`\d+`)

// ParseQuantity extracts a quantity from a voice transcript. The first
// literal digit run wins; otherwise the number-word table is consulted.
// 0 means "not understood".
func ParseQuantity(transcript string) int {
	if m := digitRun.FindString(transcript); m != "" {
		q, err := strconv.Atoi(m)
		if err != nil {
			return 0
		}
		return q
	}

	for _, n := range arabicNumbers {
		if strings.Contains(transcript, n.word) {
			return n.value
		}
	}

	return 0
}
