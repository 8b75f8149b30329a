package markdown

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractLinks(t *testing.T) {
	src := []byte("See [API](api.md), ![Diagram](media/d.png) and <https://example.com/x>.\n\n" +
		"Read [more][ref].\n\n[ref]: guide/more.md\n")

	links := ExtractLinks(src)
	assert.Equal(t, []Link{
		{Kind: LinkKindInline, Destination: "api.md"},
		{Kind: LinkKindImage, Destination: "media/d.png"},
		{Kind: LinkKindAuto, Destination: "https://example.com/x"},
		{Kind: LinkKindInline, Destination: "guide/more.md"},
		{Kind: LinkKindReferenceDefinition, Destination: "guide/more.md"},
	}, links)
}

func TestExtractLinksIgnoresCode(t *testing.T) {
	src := []byte("```\n[x](inside.md)\n```\n\nUse `[y](span.md)` literally.\n")
	assert.Empty(t, ExtractLinks(src))
}

func upper(dest string) string {
	if strings.HasPrefix(dest, "http") {
		return dest
	}
	return strings.ToUpper(dest)
}

func TestRewriteLinks(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "inline", in: "See [API](api.md) now.\n", want: "See [API](API.MD) now.\n"},
		{name: "title kept", in: "[a](x.md \"Title\")\n", want: "[a](X.MD \"Title\")\n"},
		{name: "emphasis in text", in: "[**bold**](b.md)\n", want: "[**bold**](B.MD)\n"},
		{name: "code span in text", in: "[`code`](c.md)\n", want: "[`code`](C.MD)\n"},
		{name: "image", in: "![alt](img.png)\n", want: "![alt](IMG.PNG)\n"},
		{name: "angle brackets", in: "[a](<x.md>)\n", want: "[a](<X.MD>)\n"},
		{name: "external untouched", in: "[a](https://example.com)\n", want: "[a](https://example.com)\n"},
		{name: "reference definition", in: "[a][r]\n\n[r]: ref.md\n", want: "[a][r]\n\n[r]: REF.MD\n"},
		{name: "code block untouched", in: "```\n[a](x.md)\n```\n", want: "```\n[a](x.md)\n```\n"},
		{name: "code span untouched", in: "`[a](x.md)` and [b](y.md)\n", want: "`[a](x.md)` and [b](Y.MD)\n"},
		{name: "same destination twice", in: "[a](x.md) [b](x.md)\n", want: "[a](X.MD) [b](X.MD)\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := RewriteLinks([]byte(tt.in), upper)
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(out))
		})
	}
}

func TestApplyEdits(t *testing.T) {
	src := []byte("A: ./old.md\nB: ./old.md#frag\n")
	out, err := ApplyEdits(src, []Edit{
		{Start: 15, End: 23, Replacement: []byte("./new.md")},
		{Start: 3, End: 11, Replacement: []byte("./new.md")},
	})
	require.NoError(t, err)
	assert.Equal(t, "A: ./new.md\nB: ./new.md#frag\n", string(out))

	_, err = ApplyEdits(src, []Edit{{Start: 0, End: 5}, {Start: 3, End: 6}})
	require.Error(t, err)

	_, err = ApplyEdits(src, []Edit{{Start: 0, End: 100}})
	require.Error(t, err)
}
