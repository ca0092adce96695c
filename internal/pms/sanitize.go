package pms

import (
	"regexp"
	"strings"

	"github.com/randytsao24/pmsstatus/internal/models"
)

var tagPattern = regexp.MustCompile(`<[^>]*>`)

// Sanitize strips markup such as <font color=red>busy</font> from an upstream
// field. It removes the first tag repeatedly until none is left, then drops
// any unmatched '<' or '>' so the result never contains either. This is
// lenient cleanup, not parsing: upstream fields are not well-formed markup.
func Sanitize(raw string) string {
	s := raw
	for {
		loc := tagPattern.FindStringIndex(s)
		if loc == nil {
			break
		}
		s = s[:loc[0]] + s[loc[1]:]
	}
	if strings.ContainsAny(s, "<>") {
		s = strings.NewReplacer("<", "", ">", "").Replace(s)
	}
	return s
}

// SanitizeStation returns st with its display fields cleaned. The name is
// left as reported so queries keep matching upstream names.
func SanitizeStation(st models.Station) models.Station {
	st.Property = Sanitize(st.Property)
	st.Status = Sanitize(st.Status)
	st.StatInfo = Sanitize(st.StatInfo)
	return st
}
