package capture

import (
	"net/url"
	"strings"
	"time"

	"github.com/hazyhaar/pagesnap/domshot/internal/dom"
)

// Filename builds the download name (no extension):
//
//	<first host label>_<path>_<HHMMSS>[_<tag>[_<first class>]]
//
// with every character outside [A-Za-z0-9_] dropped. target is nil for
// whole-page captures.
func Filename(pageURL string, at time.Time, target dom.Element) string {
	var host, path string
	if u, err := url.Parse(pageURL); err == nil {
		host, _, _ = strings.Cut(u.Host, ".")
		path = u.Path
	}

	var b strings.Builder
	b.WriteString(host)
	b.WriteByte('_')
	b.WriteString(path)
	b.WriteByte('_')
	b.WriteString(at.Format("150405"))
	if target != nil {
		b.WriteByte('_')
		b.WriteString(strings.ToLower(target.TagName()))
		if class, ok := target.Attr("class"); ok {
			if fields := strings.Fields(class); len(fields) > 0 {
				b.WriteByte('_')
				b.WriteString(fields[0])
			}
		}
	}
	return keepWordChars(b.String())
}

func keepWordChars(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			return r
		}
		return -1
	}, s)
}
