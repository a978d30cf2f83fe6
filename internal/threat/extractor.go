package threat

import (
	"regexp"
	"strings"
)

// Credential is one identity/password candidate extracted from a leak
// record. ForeignID is the leak record identifier at the source.
type Credential struct {
	Identity  string
	Password  string
	ForeignID string
	Details   string
}

// Extractor pulls credential candidates out of unstructured leak text.
type Extractor interface {
	Extract(raw, foreignID string) []Credential
}

// credentialLine matches the common dump formats: an identity (account name
// or mail address) separated from the password by ':', ';', ',' or '|'.
var credentialLine = regexp.MustCompile(
	`^\s*([A-Za-z0-9._%+-]+(?:@[A-Za-z0-9.-]+\.[A-Za-z]{2,})?)\s*[:;,|]\s*(\S+)\s*$`,
)

// RegexpExtractor is the line-based extractor used for raw dump records.
type RegexpExtractor struct{}

func NewRegexpExtractor() *RegexpExtractor {
	return &RegexpExtractor{}
}

func (e *RegexpExtractor) Extract(raw, foreignID string) []Credential {
	var credentials []Credential

	seen := map[string]struct{}{}

	for line := range strings.Lines(raw) {
		line = strings.TrimRight(line, "\n")

		match := credentialLine.FindStringSubmatch(line)
		if match == nil {
			continue
		}

		key := match[1] + "\x00" + match[2]
		if _, ok := seen[key]; ok {
			continue
		}

		seen[key] = struct{}{}

		credentials = append(credentials, Credential{
			Identity:  match[1],
			Password:  match[2],
			ForeignID: foreignID,
			Details:   line,
		})
	}

	return credentials
}
