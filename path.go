package rrepr

import "strings"

// Path is a normalized store key split into its elements. Keys name the same
// document on every store: backslashes become forward slashes, leading and
// trailing slashes are stripped and runs of slashes collapse into one.
type Path []string

func NewPath(key string) Path {
	key = strings.ReplaceAll(key, `\`, "/")
	var p Path
	for _, el := range strings.Split(key, "/") {
		if el != "" {
			p = append(p, el)
		}
	}
	return p
}

func (p Path) String() string {
	return strings.Join(p, "/")
}

// Base is the last element, or "" for the empty path
func (p Path) Base() string {
	if len(p) == 0 {
		return ""
	}
	return p[len(p)-1]
}
