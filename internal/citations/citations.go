// Package citations implements citation renumbering and deduplication for
// research reports.
//
// Reports cite sources inline as [n] markers backed by a "## References"
// section whose entries have the form "[n] Title — URL". Renumber rewrites
// the report so numbers run sequentially in order of first appearance in the
// body, collapsing references that resolve to the same normalized URL into a
// single number. Normalization strips common tracking query parameters so
// the same article shared through different channels counts as one source.
package citations

import (
	"fmt"
	"net/url"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// trackingParams are query parameters removed during URL normalization.
// Matched case-insensitively.
var trackingParams = map[string]struct{}{
	"utm_source":   {},
	"utm_medium":   {},
	"utm_campaign": {},
	"utm_term":     {},
	"utm_content":  {},
	"fbclid":       {},
	"gclid":        {},
	"gclsrc":       {},
	"dclid":        {},
	"msclkid":      {},
	"mc_cid":       {},
	"mc_eid":       {},
	"ref":          {},
	"source":       {},
	"s":            {},
	"si":           {},
}

// referencesHeading marks the start of the references section.
const referencesHeading = "## References"

var (
	refLineRe    = regexp.MustCompile(`(?m)^\[(\d+)\]\s+(.+?)\s*—\s*(https?://\S+)`)
	inlineCiteRe = regexp.MustCompile(`\[(\d+)\]`)
	refHeadingRe = regexp.MustCompile(`(?m)^##\s+References`)
)

// Reference is one entry of the references section.
type Reference struct {
	Num   string
	Title string
	URL   string // normalized
}

// Normalize strips tracking query parameters from a URL. The remaining query
// parameters keep their original order. Unparseable URLs are returned
// unchanged.
func Normalize(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	if u.RawQuery == "" {
		return rawURL
	}

	var kept []string
	for _, pair := range strings.Split(u.RawQuery, "&") {
		if pair == "" {
			continue
		}
		key := pair
		if i := strings.IndexByte(pair, '='); i >= 0 {
			key = pair[:i]
		}
		decoded, err := url.QueryUnescape(key)
		if err != nil {
			decoded = key
		}
		if _, tracking := trackingParams[strings.ToLower(decoded)]; tracking {
			continue
		}
		kept = append(kept, pair)
	}
	u.RawQuery = strings.Join(kept, "&")
	return u.String()
}

// ParseReferences extracts references from the text in file order. URLs are
// normalized.
func ParseReferences(text string) []Reference {
	var refs []Reference
	for _, m := range refLineRe.FindAllStringSubmatch(text, -1) {
		refs = append(refs, Reference{
			Num:   m[1],
			Title: strings.TrimSpace(m[2]),
			URL:   Normalize(strings.TrimSpace(m[3])),
		})
	}
	return refs
}

// FindInlineCitations returns the distinct citation numbers appearing in the
// report body, sorted numerically. Lines inside the references section are
// excluded so reference entries don't count as inline citations.
func FindInlineCitations(text string) []string {
	seen := make(map[string]struct{})
	inReferences := false
	for _, line := range strings.Split(text, "\n") {
		if refHeadingRe.MatchString(line) {
			inReferences = true
			continue
		}
		if inReferences && strings.HasPrefix(line, "## ") {
			inReferences = false
		}
		if inReferences {
			continue
		}
		for _, m := range inlineCiteRe.FindAllStringSubmatch(line, -1) {
			seen[m[1]] = struct{}{}
		}
	}

	nums := make([]string, 0, len(seen))
	for n := range seen {
		nums = append(nums, n)
	}
	sort.Slice(nums, func(i, j int) bool {
		a, _ := strconv.Atoi(nums[i])
		b, _ := strconv.Atoi(nums[j])
		return a < b
	})
	return nums
}

// Renumber rewrites the report so citations are numbered sequentially by
// order of first appearance in the body, reusing a number whenever two
// references share the same normalized URL. The references section is
// rebuilt to match; orphan inline markers (no matching reference) are left
// untouched. Text without a references section is returned unchanged.
func Renumber(text string) string {
	parsed := ParseReferences(text)
	if len(parsed) == 0 {
		return text
	}
	refs := make(map[string]Reference, len(parsed))
	for _, r := range parsed {
		refs[r.Num] = r
	}

	refStart := strings.Index(text, referencesHeading)
	body := text
	if refStart != -1 {
		body = text[:refStart]
	}

	// Citation order by first appearance in the body.
	var seenOrder []string
	inOrder := make(map[string]bool)
	for _, m := range inlineCiteRe.FindAllStringSubmatch(body, -1) {
		num := m[1]
		if inOrder[num] {
			continue
		}
		if _, ok := refs[num]; !ok {
			continue
		}
		inOrder[num] = true
		seenOrder = append(seenOrder, num)
	}

	// Assign new numbers, deduplicating by normalized URL.
	urlToCanonical := make(map[string]string)
	oldToNew := make(map[string]string)
	var newRefs []Reference
	nextNum := 1
	for _, oldNum := range seenOrder {
		ref := refs[oldNum]
		if canonical, ok := urlToCanonical[ref.URL]; ok {
			oldToNew[oldNum] = canonical
			continue
		}
		newNum := strconv.Itoa(nextNum)
		nextNum++
		urlToCanonical[ref.URL] = newNum
		oldToNew[oldNum] = newNum
		newRefs = append(newRefs, Reference{Num: newNum, Title: ref.Title, URL: ref.URL})
	}

	newBody := inlineCiteRe.ReplaceAllStringFunc(body, func(s string) string {
		oldNum := s[1 : len(s)-1]
		if newNum, ok := oldToNew[oldNum]; ok {
			return "[" + newNum + "]"
		}
		return s
	})

	var b strings.Builder
	b.WriteString(strings.TrimRight(newBody, " \t\n"))
	b.WriteString("\n\n")
	b.WriteString(referencesHeading)
	for _, r := range newRefs {
		b.WriteString(fmt.Sprintf("\n[%s] %s — %s", r.Num, r.Title, r.URL))
	}
	b.WriteString("\n")

	// Preserve any sections that follow the references.
	if refStart != -1 {
		if tail := sectionsAfterReferences(text[refStart:]); tail != "" {
			b.WriteString(tail)
		}
	}

	return b.String()
}

// sectionsAfterReferences returns everything from the first "## " heading
// following the references section onward (including the leading newline),
// or "" when the references section is the last one. The input starts at the
// references heading itself.
func sectionsAfterReferences(afterRefs string) string {
	offset := 0
	rest := afterRefs
	for {
		i := strings.Index(rest, "\n## ")
		if i == -1 {
			return ""
		}
		heading := rest[i+1:]
		if !strings.HasPrefix(heading, referencesHeading) {
			return afterRefs[offset+i:]
		}
		offset += i + 1
		rest = rest[i+1:]
	}
}

// Validate checks the report for citation problems and returns one warning
// per issue: inline citations with no matching reference, references never
// cited in the body, and distinct references pointing at the same URL.
func Validate(text string) []string {
	var warnings []string
	refs := ParseReferences(text)
	inline := FindInlineCitations(text)

	refNums := make(map[string]bool, len(refs))
	for _, r := range refs {
		refNums[r.Num] = true
	}
	inlineNums := make(map[string]bool, len(inline))
	for _, n := range inline {
		inlineNums[n] = true
	}

	for _, n := range inline {
		if !refNums[n] {
			warnings = append(warnings, fmt.Sprintf("Citation [%s] has no matching reference", n))
		}
	}

	var unused []string
	for _, r := range refs {
		if !inlineNums[r.Num] {
			unused = append(unused, r.Num)
		}
	}
	sort.Slice(unused, func(i, j int) bool {
		a, _ := strconv.Atoi(unused[i])
		b, _ := strconv.Atoi(unused[j])
		return a < b
	})
	for _, n := range unused {
		warnings = append(warnings, fmt.Sprintf("Reference [%s] is never cited in the text", n))
	}

	urls := make(map[string]string)
	for _, r := range refs {
		if first, ok := urls[r.URL]; ok {
			warnings = append(warnings, fmt.Sprintf("Duplicate URL: [%s] and [%s] point to %s", r.Num, first, r.URL))
		} else {
			urls[r.URL] = r.Num
		}
	}

	return warnings
}
