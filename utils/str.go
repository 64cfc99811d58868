package utils

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	leadingYear = regexp.MustCompile(`^\s*(\d{4})\b`)
	invalidId   = regexp.MustCompile(`[^A-Za-z0-9_-]+`)
)

// 去除变音符号，如 "Données" -> "Donnees"
func FoldToASCII(s string) (string, error) {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	d, _, err := transform.String(t, s)
	return d, err
}

// 标题转为ID：空格替换为短横线，去除非ASCII字符
func ToASCIIID(title string) (string, error) {
	d, err := FoldToASCII(strings.TrimSpace(title))
	if err != nil {
		return "", err
	}
	d = strings.Join(strings.Fields(d), "-")
	return invalidId.ReplaceAllString(d, ""), nil
}

// 标题开头的四位年份，无则返回空
func LeadingYear(title string) string {
	m := leadingYear.FindStringSubmatch(title)
	if m == nil {
		return ""
	}
	return m[1]
}
