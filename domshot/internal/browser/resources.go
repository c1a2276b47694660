package browser

import (
	"fmt"
	"strings"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
)

// blockable maps accepted config names, singular or plural, to CDP
// resource types. Documents are never blockable: the page itself would
// fail to load.
var blockable = map[string]proto.NetworkResourceType{
	"image":       "Image",
	"media":       "Media",
	"font":        "Font",
	"stylesheet":  "Stylesheet",
	"script":      "Script",
	"xhr":         "XHR",
	"fetch":       "Fetch",
	"websocket":   "WebSocket",
	"eventsource": "EventSource",
	"manifest":    "Manifest",
	"ping":        "Ping",
	"prefetch":    "Prefetch",
	"texttrack":   "TextTrack",
}

// affectsRendering lists types whose absence changes what a capture shows.
var affectsRendering = map[proto.NetworkResourceType]bool{
	"Image": true, "Font": true, "Stylesheet": true,
}

// ParseResourceTypes resolves names like "media" or "fonts" to CDP
// resource types. Unknown names are reported together; the known ones
// are still returned.
func ParseResourceTypes(names []string) ([]proto.NetworkResourceType, error) {
	var out []proto.NetworkResourceType
	var unknown []string
	seen := make(map[proto.NetworkResourceType]bool, len(names))
	for _, n := range names {
		key := strings.ToLower(strings.TrimSpace(n))
		typ, ok := blockable[key]
		if !ok {
			typ, ok = blockable[strings.TrimSuffix(key, "s")]
		}
		if !ok {
			unknown = append(unknown, n)
			continue
		}
		if !seen[typ] {
			seen[typ] = true
			out = append(out, typ)
		}
	}
	if len(unknown) > 0 {
		return out, fmt.Errorf("browser: unknown resource types %q", unknown)
	}
	return out, nil
}

// blockResources fails every request whose type is listed.
func blockResources(page *rod.Page, types []proto.NetworkResourceType) *rod.HijackRouter {
	set := make(map[proto.NetworkResourceType]bool, len(types))
	for _, t := range types {
		set[t] = true
	}

	router := page.HijackRequests()
	router.MustAdd("*", func(h *rod.Hijack) {
		if set[h.Request.Type()] {
			h.Response.Fail(proto.NetworkErrorReasonBlockedByClient)
			return
		}
		h.ContinueRequest(&proto.FetchContinueRequest{})
	})
	go router.Run()
	return router
}
