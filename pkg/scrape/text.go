package scrape

import (
	"regexp"
	"strings"
	"sync"

	"github.com/pemistahl/lingua-go"
)

var (
	mdImage   = regexp.MustCompile(`!\[[^\]]*\]\([^)]*\)`)
	mdLink    = regexp.MustCompile(`\[([^\]]*)\]\([^)]*\)`)
	mdHeading = regexp.MustCompile(`(?m)^#{1,6}\s+`)
	mdEmph    = regexp.MustCompile(`[*_]{1,3}([^*_]+)[*_]{1,3}`)
	mdCode    = regexp.MustCompile("`{1,3}")
	blankRuns = regexp.MustCompile(`\n{3,}`)
)

// ExtractText strips markdown syntax down to plain prose: images removed,
// links reduced to their text, heading and emphasis markers dropped.
func ExtractText(markdown string) string {
	text := mdImage.ReplaceAllString(markdown, "")
	text = mdLink.ReplaceAllString(text, "$1")
	text = mdHeading.ReplaceAllString(text, "")
	text = mdEmph.ReplaceAllString(text, "$1")
	text = mdCode.ReplaceAllString(text, "")
	text = blankRuns.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}

// The detector is expensive to build, so it is shared and built on first use.
var (
	detectorOnce sync.Once
	detector     lingua.LanguageDetector
)

// DetectLanguage returns the ISO 639-1 code of the dominant language in
// text and the detector's confidence for it, or ("", 0) when detection is
// inconclusive. Only a prefix of the text is examined; full pages add
// latency without improving accuracy.
func DetectLanguage(text string) (string, float64) {
	sample := text
	if len(sample) > 2048 {
		sample = sample[:2048]
	}
	sample = strings.TrimSpace(sample)
	if sample == "" {
		return "", 0
	}

	detectorOnce.Do(func() {
		detector = lingua.NewLanguageDetectorBuilder().
			FromLanguages(
				lingua.English, lingua.Spanish, lingua.French, lingua.German,
				lingua.Portuguese, lingua.Italian, lingua.Dutch, lingua.Russian,
				lingua.Japanese, lingua.Chinese,
			).
			Build()
	})

	lang, ok := detector.DetectLanguageOf(sample)
	if !ok {
		return "", 0
	}
	confidence := detector.ComputeLanguageConfidence(sample, lang)
	return strings.ToLower(lang.IsoCode639_1().String()), confidence
}
