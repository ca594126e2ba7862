package output

import (
	"fmt"
	htmltemplate "html/template"
	"strings"
	texttemplate "text/template"
	"time"
	"unicode/utf8"

	"github.com/bakkerme/boatwatch/internal/core"
)

const batchSeparator = "────────────────────────────────────────"

var telegramTemplates = htmltemplate.Must(htmltemplate.New("telegram").Parse(`
{{- define "item" -}}
<b>🚤 {{.Title}}</b>

<b>Price:</b> {{.PriceDisplay}}
<b>Location:</b> {{.Location}}
<b>Year:</b> {{.Year}}
<b>Length:</b> {{.Length}}
<b>Seller:</b> {{.SellerType}}
{{- with .Description}}

<b>Description:</b>
{{.}}
{{- end}}

<a href="{{.Link}}">🔗 View full listing</a>
{{- end -}}

{{- define "batch_header" -}}
<b>🚤 NEW YACHTS FOUND!</b>
{{- end -}}

{{- define "batch_entry" -}}
<b>{{.Index}}. {{.Listing.Title}}</b>
💰 Price: {{.Listing.PriceDisplay}}
📍 Location: {{.Listing.Location}}
📏 Length: {{.Listing.Length}}
📅 Year: {{.Listing.Year}}
🔗 <a href="{{.Listing.Link}}">View listing</a>
{{.Separator}}
{{- end -}}

{{- define "error" -}}
⚠️ Bot error: {{.}}
{{- end -}}

{{- define "status" -}}
<b>📊 BOT STATUS</b>

Known listings: {{.TotalKnown}}
Last check: {{.LastCheck}}
Store: {{.Location}}

✅ Bot is up and running!
{{- end -}}
`))

type batchEntry struct {
	Index     int
	Listing   core.Listing
	Separator string
}

type statusView struct {
	TotalKnown int
	LastCheck  string
	Location   string
}

func renderHTML(name string, data interface{}) (string, error) {
	var builder strings.Builder
	if err := telegramTemplates.ExecuteTemplate(&builder, name, data); err != nil {
		return "", fmt.Errorf("render %s message: %w", name, err)
	}
	return builder.String(), nil
}

// FormatItemHTML renders the single-listing message.
func FormatItemHTML(listing core.Listing) (string, error) {
	return renderHTML("item", listing)
}

// FormatBatchHTML renders the numbered summary of new listings, split into
// as many messages as needed to stay under limit characters each.
func FormatBatchHTML(listings []core.Listing, limit int) ([]string, error) {
	if len(listings) == 0 {
		return nil, nil
	}
	header, err := renderHTML("batch_header", nil)
	if err != nil {
		return nil, err
	}
	messages := []string{}
	current := header
	for i, listing := range listings {
		entry, err := renderHTML("batch_entry", batchEntry{Index: i + 1, Listing: listing, Separator: batchSeparator})
		if err != nil {
			return nil, err
		}
		candidate := current + "\n\n" + entry
		if limit > 0 && utf8.RuneCountInString(candidate) > limit && current != header {
			messages = append(messages, current)
			candidate = header + "\n\n" + entry
		}
		current = candidate
	}
	return append(messages, current), nil
}

// FormatErrorHTML renders an operator alert.
func FormatErrorHTML(message string) (string, error) {
	return renderHTML("error", message)
}

// FormatStatusHTML renders the store status message.
func FormatStatusHTML(stats core.StoreStats) (string, error) {
	return renderHTML("status", newStatusView(stats))
}

func newStatusView(stats core.StoreStats) statusView {
	view := statusView{TotalKnown: stats.TotalKnown, LastCheck: "never", Location: stats.Location}
	if stats.LastCheck != nil {
		view.LastCheck = stats.LastCheck.UTC().Format(time.RFC3339)
	}
	return view
}

var markdownTemplates = texttemplate.Must(texttemplate.New("email").Funcs(texttemplate.FuncMap{
	"md":  escapeMarkdown,
	"add": func(i int) int { return i + 1 },
}).Parse(`
{{- define "item" -}}
## {{md .Title}}

- **Price:** {{md .PriceDisplay}}
- **Location:** {{md .Location}}
- **Year:** {{md .Year}}
- **Length:** {{md .Length}}
- **Seller:** {{md .SellerType}}
{{- with .Description}}

{{md .}}
{{- end}}

[View full listing]({{.Link}})
{{- end -}}

{{- define "batch" -}}
# New yachts found

{{range $i, $l := .}}
{{- if $i}}

---

{{end -}}
### {{add $i}}. {{md $l.Title}}

- **Price:** {{md $l.PriceDisplay}}
- **Location:** {{md $l.Location}}
- **Length:** {{md $l.Length}}
- **Year:** {{md $l.Year}}

[View listing]({{$l.Link}})
{{- end}}
{{- end -}}

{{- define "error" -}}
**Bot error:** {{md .}}
{{- end -}}

{{- define "status" -}}
# Bot status

- **Known listings:** {{.TotalKnown}}
- **Last check:** {{.LastCheck}}
- **Store:** {{md .Location}}
{{- end -}}
`))

func renderMarkdownTemplate(name string, data interface{}) (string, error) {
	var builder strings.Builder
	if err := markdownTemplates.ExecuteTemplate(&builder, name, data); err != nil {
		return "", fmt.Errorf("render %s email: %w", name, err)
	}
	return builder.String(), nil
}

var markdownEscaper = strings.NewReplacer(
	`\`, `\\`, "`", "\\`", "*", `\*`, "_", `\_`,
	"[", `\[`, "]", `\]`, "<", `\<`, ">", `\>`, "#", `\#`,
)

func escapeMarkdown(s string) string {
	return markdownEscaper.Replace(s)
}
