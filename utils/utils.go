package utils

import (
	"slices"
	"strings"
)

// UniqueWords - делаем массив с уникальными строками без пробелов по краям,
// пустые строки отбрасываются, порядок первого вхождения сохраняется
func UniqueWords(words []string) []string {
	uniqWords := make(map[string]struct{}, len(words))
	out := make([]string, 0, len(words))
	for _, word := range words {
		word = strings.TrimSpace(word)
		if word == "" {
			continue
		}
		if _, ok := uniqWords[word]; ok {
			continue
		}
		uniqWords[word] = struct{}{}
		out = append(out, word)
	}
	return slices.Clip(out)
}
