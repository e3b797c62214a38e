package main

import (
	"strings"

	"github.com/samber/lo"
)

const maxHashtags = 8

// BuildCaption formats the channel message: title, original URL, then the
// source hashtag and up to eight deduplicated tags from the categories and
// the extracted hashtags.
func BuildCaption(name, url, sourceName string, categories, tags []string) string {
	var b strings.Builder
	b.WriteString(name)
	b.WriteString("\n")
	b.WriteString(url)
	b.WriteString("\n\n")
	b.WriteString("#" + hashtagify(sourceName))

	var all []string
	for _, c := range categories {
		all = append(all, hashtagify(c))
	}
	for _, t := range tags {
		all = append(all, hashtagify(t))
	}
	all = lo.Uniq(lo.Filter(all, func(t string, _ int) bool { return t != "" }))
	if len(all) > maxHashtags {
		all = all[:maxHashtags]
	}
	for _, t := range all {
		b.WriteString(" #" + t)
	}
	return b.String()
}

func hashtagify(s string) string {
	s = strings.ReplaceAll(s, " ", "")
	s = strings.ReplaceAll(s, "'", "")
	return strings.ToLower(strings.TrimSpace(s))
}
