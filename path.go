package most

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

var placeholderRe = regexp.MustCompile(`^\{([a-zA-Z_][a-zA-Z0-9_]*)\}$`)

// pathMatcher matches concrete URL paths against one declared template.
// Literal segments match case-insensitively; placeholder segments capture
// any non-empty segment and preserve its case.
type pathMatcher struct {
	template string
	re       *regexp.Regexp
	params   []string
}

// compilePath turns a "/a/{b}/c" template into a matcher. Placeholder names
// must be unique within the template.
func compilePath(template string) (*pathMatcher, error) {
	if !strings.HasPrefix(template, "/") {
		return nil, fmt.Errorf("path %q must begin with %q", template, "/")
	}

	var pattern strings.Builder
	pattern.WriteString("(?i)^")
	var params []string
	seen := map[string]bool{}

	for _, segment := range strings.Split(strings.TrimPrefix(template, "/"), "/") {
		pattern.WriteString("/")
		if m := placeholderRe.FindStringSubmatch(segment); m != nil {
			name := m[1]
			if seen[name] {
				return nil, fmt.Errorf("path %q declares parameter %q twice", template, name)
			}
			seen[name] = true
			params = append(params, name)
			pattern.WriteString("([^/]+)")

			continue
		}
		if strings.ContainsAny(segment, "{}") {
			return nil, fmt.Errorf("path %q has a malformed segment %q", template, segment)
		}
		pattern.WriteString(regexp.QuoteMeta(segment))
	}
	pattern.WriteString("$")

	re, err := regexp.Compile(pattern.String())
	if err != nil {
		return nil, fmt.Errorf("path %q does not compile: %w", template, err)
	}

	return &pathMatcher{template: template, re: re, params: params}, nil
}

// match runs the matcher against an escaped URL path. Captured segments are
// percent-decoded; a segment that fails to decode means no match.
func (m *pathMatcher) match(path string) (map[string]string, bool) {
	groups := m.re.FindStringSubmatch(path)
	if groups == nil {
		return nil, false
	}

	params := make(map[string]string, len(m.params))
	for i, name := range m.params {
		decoded, err := url.PathUnescape(groups[i+1])
		if err != nil {
			return nil, false
		}
		params[name] = decoded
	}

	return params, true
}

// structure is the lookup key for a template: lowercased literals with
// anonymous placeholders. Two templates with the same structure and method
// would shadow each other, so the route table rejects them.
func (m *pathMatcher) structure() string {
	segments := strings.Split(strings.TrimPrefix(m.template, "/"), "/")
	for i, segment := range segments {
		if placeholderRe.MatchString(segment) {
			segments[i] = "{}"
		} else {
			segments[i] = strings.ToLower(segment)
		}
	}

	return "/" + strings.Join(segments, "/")
}
