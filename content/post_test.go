package content

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFrontMatterYAML(t *testing.T) {
	raw := []byte("---\ntitle: \"Hello\"\ndate: 2024-01-05\ntags: [a, b]\n---\nbody text\n")
	fm, body, err := ParseFrontMatter(raw)
	require.NoError(t, err)
	assert.Equal(t, "Hello", fm.Title)
	assert.Equal(t, "2024-01-05", fm.Date)
	assert.Equal(t, []string{"a", "b"}, fm.Tags)
	assert.Equal(t, "body text\n", string(body))
}

func TestParseFrontMatterTOML(t *testing.T) {
	raw := []byte("+++\ntitle = \"Hello\"\ndraft = true\ncategories = [\"go\"]\n+++\nbody\n")
	fm, body, err := ParseFrontMatter(raw)
	require.NoError(t, err)
	assert.Equal(t, "Hello", fm.Title)
	assert.True(t, fm.Draft)
	assert.Equal(t, []string{"go"}, fm.Categories)
	assert.Equal(t, "body\n", string(body))
}

func TestParseFrontMatterMissing(t *testing.T) {
	raw := []byte("# Just Markdown\n\nno header here\n")
	fm, body, err := ParseFrontMatter(raw)
	assert.ErrorIs(t, err, ErrNoFrontMatter)
	assert.Nil(t, fm)
	assert.Equal(t, string(raw), string(body))
}

func TestParseDate(t *testing.T) {
	cases := []struct {
		raw  string
		want time.Time
	}{
		{"2024-03-10T09:00:00Z", time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)},
		{"2024-03-10T09:00:00", time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)},
		{"2024-03-10 09:00:00", time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)},
		{"2024-03-10", time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)},
	}
	for _, tc := range cases {
		got, err := ParseDate(tc.raw)
		require.NoError(t, err, tc.raw)
		assert.True(t, tc.want.Equal(got), tc.raw)
	}

	_, err := ParseDate("sometime in march")
	assert.Error(t, err)
	_, err = ParseDate("")
	assert.Error(t, err)
}

func TestSlugify(t *testing.T) {
	assert.Equal(t, "the-slice-bug", Slugify("The Slice Bug"))
	assert.Equal(t, "hello-world", Slugify("  Hello_World. "))
	assert.Equal(t, "caf-2024", Slugify("Café 2024"))
	assert.Equal(t, "", Slugify("!!!"))
}

func TestSlugFrom(t *testing.T) {
	assert.Equal(t, "custom", SlugFrom("Custom", "posts/whatever.md"))
	assert.Equal(t, "whatever", SlugFrom("", "posts/whatever.md"))
	assert.Equal(t, "slice-bug", SlugFrom("", "posts/slice-bug/index.md"))
	assert.Equal(t, "untitled", SlugFrom("", "posts/???.md"))
}

func TestTitleFrom(t *testing.T) {
	assert.Equal(t, "Given", TitleFrom("Given", "posts/x.md"))
	assert.Equal(t, "hello world", TitleFrom("", "posts/hello-world.md"))
	assert.Equal(t, "slice bug", TitleFrom("", "posts/slice-bug/index.md"))
}

func TestSplitSummary(t *testing.T) {
	head, ok := SplitSummary([]byte("Intro paragraph.\n\n<!--more-->\n\nRest."))
	require.True(t, ok)
	assert.Equal(t, "Intro paragraph.", string(head))

	_, ok = SplitSummary([]byte("No divider here."))
	assert.False(t, ok)

	_, ok = SplitSummary([]byte("<!--more-->\n\nDivider first."))
	assert.False(t, ok)
}

func TestSummarize(t *testing.T) {
	assert.Equal(t, "desc wins", Summarize("desc wins", "plain text"))
	assert.Equal(t, "plain text", Summarize("", "plain text"))
	assert.Equal(t, "", Summarize("", "  "))

	long := strings.Repeat("word ", 100)
	got := Summarize("", long)
	assert.True(t, strings.HasSuffix(got, "..."))
	assert.LessOrEqual(t, len([]rune(got)), 203)
}

func TestReadingTime(t *testing.T) {
	assert.Equal(t, 1, ReadingTime(""))
	assert.Equal(t, 1, ReadingTime("a few words only"))
	assert.Equal(t, 2, ReadingTime(strings.Repeat("word ", 250)))
}
