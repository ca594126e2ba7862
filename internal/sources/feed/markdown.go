package feed

import (
	"strings"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
)

var descriptionConverter = converter.NewConverter(
	converter.WithEscapeMode("smart"),
	converter.WithPlugins(
		base.NewBasePlugin(),
		commonmark.NewCommonmarkPlugin(),
	),
)

// DescriptionText turns an HTML item body into a single line of Markdown,
// the shape listing descriptions are stored and shown in. Images are
// dropped; the fetcher reports the first one as the item image.
func DescriptionText(html string) (string, error) {
	if strings.TrimSpace(html) == "" {
		return "", nil
	}
	text := html
	if strings.Contains(html, "<") {
		md, err := descriptionConverter.ConvertString(html)
		if err != nil {
			return "", err
		}
		text = md
	}
	var kept []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "![") {
			continue
		}
		kept = append(kept, line)
	}
	return strings.Join(strings.Fields(strings.Join(kept, " ")), " "), nil
}
