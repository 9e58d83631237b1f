package gogen

import (
	"go/token"
	"path/filepath"
	"strings"
	"unicode"
)

var initialisms = map[string]string{
	"api": "API", "http": "HTTP", "id": "ID", "ip": "IP", "json": "JSON",
	"sql": "SQL", "uri": "URI", "url": "URL", "uuid": "UUID", "xml": "XML",
}

// buildConstraintSuffixes are file name suffixes the go tool treats specially.
var buildConstraintSuffixes = map[string]bool{
	"test": true, "linux": true, "darwin": true, "windows": true, "freebsd": true,
	"android": true, "ios": true, "js": true, "wasm": true, "wasip1": true,
	"386": true, "amd64": true, "arm": true, "arm64": true, "riscv64": true,
}

func splitWords(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

func isUpper(s string) bool {
	return strings.ToUpper(s) == s
}

// TypeName converts an Avro name to an exported Go identifier.
func TypeName(name string) string {
	var b strings.Builder
	for _, word := range splitWords(name) {
		if isUpper(word) && len(word) > 1 {
			word = strings.ToLower(word)
		}
		if up, ok := initialisms[strings.ToLower(word)]; ok && strings.ToLower(word) == word {
			b.WriteString(up)
			continue
		}
		runes := []rune(word)
		runes[0] = unicode.ToUpper(runes[0])
		b.WriteString(string(runes))
	}
	out := b.String()
	if out == "" {
		return "X"
	}
	if unicode.IsDigit([]rune(out)[0]) {
		return "X" + out
	}
	return out
}

// unexported lowers the leading word of an exported identifier.
func unexported(name string) string {
	runes := []rune(name)
	i := 0
	for i < len(runes) && unicode.IsUpper(runes[i]) {
		i++
	}
	switch {
	case i == 0:
	case i == len(runes) || i == 1:
		for j := range i {
			runes[j] = unicode.ToLower(runes[j])
		}
	default:
		// Keep the first letter of the next word: URLPath -> urlPath.
		for j := range i - 1 {
			runes[j] = unicode.ToLower(runes[j])
		}
	}
	out := string(runes)
	if token.IsKeyword(out) {
		return out + "_"
	}
	return out
}

// SnakeName converts a type name to a file name stem.
func SnakeName(name string) string {
	runes := []rune(name)
	var b strings.Builder
	for i, r := range runes {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			if b.Len() > 0 && !strings.HasSuffix(b.String(), "_") {
				b.WriteByte('_')
			}
			continue
		}
		if unicode.IsUpper(r) && i > 0 && b.Len() > 0 && !strings.HasSuffix(b.String(), "_") {
			prev := runes[i-1]
			nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
			if unicode.IsLower(prev) || unicode.IsDigit(prev) || (unicode.IsUpper(prev) && nextLower) {
				b.WriteByte('_')
			}
		}
		b.WriteRune(unicode.ToLower(r))
	}
	out := strings.Trim(b.String(), "_")
	if out == "" {
		out = "x"
	}
	if i := strings.LastIndexByte(out, '_'); i >= 0 && buildConstraintSuffixes[out[i+1:]] {
		out += "_avro"
	}
	return out
}

// PackageName returns the Go package name for a namespace.
func PackageName(namespace, fallback string) string {
	if namespace == "" {
		return fallback
	}
	last := namespace[strings.LastIndexByte(namespace, '.')+1:]
	var b strings.Builder
	for _, r := range strings.ToLower(last) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	name := b.String()
	switch {
	case name == "":
		return fallback
	case unicode.IsDigit([]rune(name)[0]):
		name = "p" + name
	case token.IsKeyword(name):
		name += "_"
	}
	return name
}

// NamespaceDir returns the directory of a namespace relative to the destination root.
func NamespaceDir(namespace string) string {
	if namespace == "" {
		return ""
	}
	return filepath.Join(strings.Split(namespace, ".")...)
}
