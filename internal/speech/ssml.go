package speech

import (
	"encoding/xml"
	"strings"
)

// BuildSSML renders the styled synthesis payload. All interpolated values are
// XML-escaped so reply text cannot break the document.
func BuildSSML(req SynthesisRequest) string {
	style := string(req.Style)
	if style == "" {
		style = "Default"
	}

	var b strings.Builder
	b.WriteString(`<speak version="1.0" xmlns="http://www.w3.org/2001/10/synthesis" xmlns:mstts="https://www.w3.org/2001/mstts" xml:lang="`)
	writeEscaped(&b, req.Locale)
	b.WriteString(`"><voice name="`)
	writeEscaped(&b, req.Voice)
	b.WriteString(`"><mstts:express-as style="`)
	writeEscaped(&b, style)
	b.WriteString(`" styledegree="1">`)
	writeEscaped(&b, req.Text)
	b.WriteString(`</mstts:express-as></voice></speak>`)
	return b.String()
}

func writeEscaped(b *strings.Builder, s string) {
	_ = xml.EscapeText(b, []byte(s))
}
