package citations

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize_StripsTrackingParams(t *testing.T) {
	got := Normalize("https://example.com/post?utm_source=twitter&utm_medium=social&id=42")
	assert.Equal(t, "https://example.com/post?id=42", got)
}

func TestNormalize_CaseInsensitive(t *testing.T) {
	got := Normalize("https://example.com/a?UTM_Source=x&fbclid=abc")
	assert.Equal(t, "https://example.com/a", got)
}

func TestNormalize_PreservesParamOrder(t *testing.T) {
	got := Normalize("https://example.com/a?z=1&gclid=x&a=2")
	assert.Equal(t, "https://example.com/a?z=1&a=2", got)
}

func TestNormalize_NoQuery(t *testing.T) {
	assert.Equal(t, "https://example.com/a", Normalize("https://example.com/a"))
}

func TestNormalize_InvalidURLUnchanged(t *testing.T) {
	assert.Equal(t, "http://%zz", Normalize("http://%zz"))
}

func TestParseReferences(t *testing.T) {
	text := "Body text.\n\n## References\n" +
		"[1] First Article — https://a.example/one\n" +
		"[2] Second Article — https://b.example/two?utm_source=rss\n"
	refs := ParseReferences(text)
	require.Len(t, refs, 2)
	assert.Equal(t, "1", refs[0].Num)
	assert.Equal(t, "First Article", refs[0].Title)
	assert.Equal(t, "https://a.example/one", refs[0].URL)
	assert.Equal(t, "https://b.example/two", refs[1].URL, "tracking params stripped during parse")
}

func TestFindInlineCitations_ExcludesReferencesSection(t *testing.T) {
	text := "Claim [2] and claim [1] and again [2].\n\n" +
		"## References\n[1] A — https://a.example\n[2] B — https://b.example\n"
	assert.Equal(t, []string{"1", "2"}, FindInlineCitations(text))
}

func TestFindInlineCitations_SectionAfterReferencesCounts(t *testing.T) {
	text := "Intro [1].\n\n## References\n[1] A — https://a.example\n\n## Appendix\nSee [3].\n"
	assert.Equal(t, []string{"1", "3"}, FindInlineCitations(text))
}

func TestRenumber_FirstAppearanceOrder(t *testing.T) {
	text := "Second source first [2], then the first [1].\n\n" +
		"## References\n" +
		"[1] Alpha — https://a.example/alpha\n" +
		"[2] Beta — https://b.example/beta\n"
	got := Renumber(text)
	assert.Contains(t, got, "Second source first [1], then the first [2].")
	assert.Contains(t, got, "[1] Beta — https://b.example/beta")
	assert.Contains(t, got, "[2] Alpha — https://a.example/alpha")
}

func TestRenumber_DeduplicatesByNormalizedURL(t *testing.T) {
	text := "One [1], two [2], three [3].\n\n" +
		"## References\n" +
		"[1] Article — https://a.example/post\n" +
		"[2] Article (shared) — https://a.example/post?utm_source=newsletter\n" +
		"[3] Other — https://b.example/other\n"
	got := Renumber(text)

	// [1] and [2] share a normalized URL, so both collapse to [1].
	assert.Contains(t, got, "One [1], two [1], three [2].")
	assert.Contains(t, got, "[1] Article — https://a.example/post")
	assert.Contains(t, got, "[2] Other — https://b.example/other")
	assert.NotContains(t, got, "[3]")
}

func TestRenumber_NoReferencesUnchanged(t *testing.T) {
	text := "Just prose with a [1] marker but no references.\n"
	assert.Equal(t, text, Renumber(text))
}

func TestRenumber_OrphanInlineLeftAlone(t *testing.T) {
	text := "Cited [1] and orphaned [9].\n\n## References\n[1] A — https://a.example\n"
	got := Renumber(text)
	assert.Contains(t, got, "Cited [1] and orphaned [9].")
}

func TestRenumber_PreservesTrailingSections(t *testing.T) {
	text := "Body [1].\n\n## References\n[1] A — https://a.example\n\n## Appendix\nExtra notes.\n"
	got := Renumber(text)
	assert.Contains(t, got, "## Appendix\nExtra notes.")
	// References come before the appendix.
	assert.Less(t, strings.Index(got, "## References"), strings.Index(got, "## Appendix"))
}

func TestRenumber_Idempotent(t *testing.T) {
	text := "B [2] then A [1].\n\n## References\n" +
		"[1] Alpha — https://a.example/alpha\n" +
		"[2] Beta — https://b.example/beta\n"
	once := Renumber(text)
	assert.Equal(t, once, Renumber(once))
}

func TestValidate_OrphanCitation(t *testing.T) {
	text := "Claim [1] and claim [2].\n\n## References\n[1] A — https://a.example\n"
	warnings := Validate(text)
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], "Citation [2] has no matching reference")
}

func TestValidate_UnusedReference(t *testing.T) {
	text := "Claim [1].\n\n## References\n" +
		"[1] A — https://a.example\n[2] B — https://b.example\n"
	warnings := Validate(text)
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], "Reference [2] is never cited")
}

func TestValidate_DuplicateURL(t *testing.T) {
	text := "Claims [1] and [2].\n\n## References\n" +
		"[1] A — https://a.example/x\n" +
		"[2] A again — https://a.example/x?utm_source=feed\n"
	warnings := Validate(text)
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], "Duplicate URL")
	assert.Contains(t, warnings[0], "https://a.example/x")
}

func TestValidate_CleanReport(t *testing.T) {
	text := "Claim [1], more [2].\n\n## References\n" +
		"[1] A — https://a.example\n[2] B — https://b.example\n"
	assert.Empty(t, Validate(text))
}
