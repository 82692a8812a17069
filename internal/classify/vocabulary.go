package classify

import "strings"

// Labels is the fixed category vocabulary. Every record stored in the
// dataset carries exactly one of these labels.
var Labels = []string{
	"general",
	"clothing",
	"medical",
	"restaurant",
	"AI",
	"fun",
	"beauty",
	"education",
	"inspirational",
	"other",
}

var labelSet = func() map[string]string {
	set := make(map[string]string, len(Labels))
	for _, label := range Labels {
		set[strings.ToLower(label)] = label
	}
	return set
}()

// Canonical returns the vocabulary spelling for the supplied text and
// whether the text names a known label. Matching ignores case and
// surrounding whitespace.
func Canonical(text string) (string, bool) {
	label, ok := labelSet[strings.ToLower(strings.TrimSpace(text))]
	return label, ok
}
