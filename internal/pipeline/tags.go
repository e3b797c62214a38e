package pipeline

import (
	"regexp"
	"sort"
	"strings"

	"github.com/samber/lo"
)

var hashtagRe = regexp.MustCompile(`#([\p{L}\p{N}_]+)`)

// ExtractTags derives candidate hashtags from the title and description:
// inline #hashtags plus controlled-vocabulary matches, ordered by first
// occurrence in the text, deduplicated case-insensitively and truncated to
// max entries.
func ExtractTags(title, description string, vocabulary []string, max int) []string {
	text := title + "\n" + description
	lower := strings.ToLower(text)

	type candidate struct {
		tag string
		pos int
	}
	var candidates []candidate

	for _, m := range hashtagRe.FindAllStringSubmatchIndex(text, -1) {
		candidates = append(candidates, candidate{
			tag: strings.ToLower(text[m[2]:m[3]]),
			pos: m[0],
		})
	}

	for _, word := range vocabulary {
		w := strings.ToLower(strings.TrimSpace(word))
		if w == "" {
			continue
		}
		pos := strings.Index(lower, w)
		if pos == -1 {
			continue
		}
		candidates = append(candidates, candidate{
			tag: strings.ReplaceAll(w, " ", ""),
			pos: pos,
		})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].pos < candidates[j].pos
	})

	tags := lo.Uniq(lo.Map(candidates, func(c candidate, _ int) string {
		return c.tag
	}))
	if len(tags) > max {
		tags = tags[:max]
	}
	return tags
}
