package background

import (
	"strings"
	"unicode"
)

var positiveWords = map[string]bool{
	"good": true, "great": true, "love": true, "awesome": true, "amazing": true,
	"thanks": true, "thank": true, "nice": true, "cool": true, "excellent": true,
	"happy": true, "bullish": true, "wagmi": true, "lfg": true, "based": true,
	"helpful": true, "perfect": true, "fun": true, "glad": true, "best": true,
	"excited": true, "wow": true, "beautiful": true, "brilliant": true,
}

var negativeWords = map[string]bool{
	"bad": true, "hate": true, "awful": true, "terrible": true, "scam": true,
	"rug": true, "broken": true, "bug": true, "wrong": true, "sad": true,
	"angry": true, "bearish": true, "ngmi": true, "worst": true, "useless": true,
	"fail": true, "failed": true, "down": true, "slow": true, "annoying": true,
	"sorry": true, "problem": true, "issue": true, "dump": true,
}

var negators = map[string]bool{
	"not": true, "no": true, "never": true, "dont": true, "don't": true, "isnt": true, "isn't": true,
}

// Sentiment returns a lexical sentiment score in -1..1.
// A negator flips the polarity of the word right after it.
func Sentiment(text string) float64 {
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && r != '\''
	})

	pos, neg := 0, 0
	negate := false
	for _, w := range words {
		if negators[w] {
			negate = true
			continue
		}
		switch {
		case positiveWords[w]:
			if negate {
				neg++
			} else {
				pos++
			}
		case negativeWords[w]:
			if negate {
				pos++
			} else {
				neg++
			}
		}
		negate = false
	}

	if pos+neg == 0 {
		return 0
	}
	return float64(pos-neg) / float64(pos+neg)
}
