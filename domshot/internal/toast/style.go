package toast

import (
	"fmt"

	"github.com/hazyhaar/pagesnap/domshot/internal/dom"
)

type palette struct {
	icon   string
	accent string
	iconBg string
}

var palettes = map[Severity]palette{
	Success: {icon: "✓", accent: "#10b981", iconBg: "rgba(16, 185, 129, 0.1)"},
	Error:   {icon: "✕", accent: "#ef4444", iconBg: "rgba(239, 68, 68, 0.1)"},
	Loading: {icon: "⟳", accent: "#3b82f6", iconBg: "rgba(59, 130, 246, 0.1)"},
	Info:    {icon: "ℹ", accent: "#6366f1", iconBg: "rgba(99, 102, 241, 0.1)"},
}

const sheet = `@keyframes toast-slide-in {
  from { transform: translateX(-50%%) translateY(-20px); opacity: 0; }
  to { transform: translateX(-50%%) translateY(0); opacity: 1; }
}
@keyframes toast-slide-out {
  from { transform: translateX(-50%%) translateY(0); opacity: 1; }
  to { transform: translateX(-50%%) translateY(-20px); opacity: 0; }
}
@keyframes toast-spin {
  from { transform: rotate(0deg); }
  to { transform: rotate(360deg); }
}
#%[1]s { animation: toast-slide-in 0.35s cubic-bezier(0.21, 1.02, 0.73, 1) forwards; }
#%[1]s.toast-exit { animation: toast-slide-out 0.2s cubic-bezier(0.06, 0.71, 0.55, 1) forwards; }
#%[1]s .toast-icon.loading { animation: toast-spin 1s linear infinite; }
`

func (c *Channel) installStylesLocked() {
	id := c.id + "-styles"
	if _, ok := c.doc.ElementByID(id); ok {
		return
	}
	s := c.doc.CreateElement("style")
	if s == nil {
		return
	}
	s.SetAttr("id", id)
	dom.Mark(s)
	s.SetText(fmt.Sprintf(sheet, c.id))
	c.doc.Head().AppendChild(s)
}

func setStyles(el dom.Element, kv ...string) {
	for i := 0; i+1 < len(kv); i += 2 {
		el.SetStyle(kv[i], kv[i+1])
	}
}

// build creates the detached notification tree.
func (c *Channel) build(message string, sev Severity) dom.Element {
	p, ok := palettes[sev]
	if !ok {
		p = palettes[Info]
	}

	root := c.doc.CreateElement("div")
	if root == nil {
		return nil
	}
	root.SetAttr("id", c.id)
	root.SetAttr("role", "status")
	dom.Mark(root)
	setStyles(root,
		"position", "fixed",
		"top", "20px",
		"left", "50%",
		"transform", "translateX(-50%)",
		"z-index", "1000000",
		"min-width", "356px",
		"max-width", "420px",
		"background", "#ffffff",
		"border", "1px solid rgba(0, 0, 0, 0.1)",
		"border-radius", "8px",
		"box-shadow", "0 10px 38px -10px rgba(22, 23, 24, 0.35)",
		"font-family", "-apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, Arial, sans-serif",
		"pointer-events", "auto",
		"overflow", "hidden",
	)

	accent := c.doc.CreateElement("div")
	setStyles(accent, "position", "absolute", "left", "0", "top", "0", "bottom", "0", "width", "3px", "background", p.accent)

	content := c.doc.CreateElement("div")
	dom.Mark(content)
	setStyles(content, "display", "flex", "align-items", "flex-start", "gap", "12px", "padding", "16px")

	iconBox := c.doc.CreateElement("div")
	iconBox.AddClass("toast-icon-container")
	setStyles(iconBox, "flex-shrink", "0", "width", "20px", "height", "20px", "display", "flex",
		"align-items", "center", "justify-content", "center", "border-radius", "4px",
		"background", p.iconBg, "color", p.accent, "font-size", "14px", "font-weight", "600")

	icon := c.doc.CreateElement("span")
	icon.AddClass("toast-icon")
	if sev == Loading {
		icon.AddClass("loading")
	}
	icon.SetText(p.icon)

	text := c.doc.CreateElement("div")
	setStyles(text, "flex", "1", "font-size", "14px", "line-height", "1.5", "color", "#09090b", "word-break", "break-word")
	text.SetText(message)

	iconBox.AppendChild(icon)
	content.AppendChild(iconBox)
	content.AppendChild(text)
	root.AppendChild(accent)
	root.AppendChild(content)
	return root
}
