package response

import "strings"

// Kind is a recognized family of response content types.
type Kind int

const (
	JSON Kind = iota + 1
	XML
	TextPlain
)

// kindPrefixes maps each Kind to the media type prefixes it matches.
// A prefix match tolerates trailing parameters such as "; charset=utf-8".
var kindPrefixes = map[Kind][]string{
	JSON:      {"application/json"},
	XML:       {"application/xml", "text/xml"},
	TextPlain: {"text/plain"},
}

var kindNames = map[Kind]string{
	JSON:      "json",
	XML:       "xml",
	TextPlain: "text/plain",
}

// Kinds returns every known Kind in declaration order.
func Kinds() []Kind {
	return []Kind{JSON, XML, TextPlain}
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}

	return "unknown"
}

// Classify reports whether contentType belongs to kind.
// Unknown kinds never match.
func Classify(kind Kind, contentType string) bool {
	for _, prefix := range kindPrefixes[kind] {
		if strings.HasPrefix(contentType, prefix) {
			return true
		}
	}

	return false
}

// KindOf returns the first Kind that contentType belongs to.
func KindOf(contentType string) (Kind, bool) {
	for _, k := range Kinds() {
		if Classify(k, contentType) {
			return k, true
		}
	}

	return 0, false
}
