package chat

import "strings"

const fence = "```"

// ExtractFence pulls the first fenced code block out of a reply.
//
// The opening delimiter may carry a language tag; everything up to the end of
// that line is treated as the tag and discarded. The code is the text between
// the tag line and the matching closing delimiter, minus one trailing
// newline. The display text is the reply with the whole fenced span removed.
//
// An opening fence without a closing one means no extraction: the reply is
// returned untouched. Only the first block is extracted; later fences stay
// embedded in the display text verbatim.
func ExtractFence(raw string) (display, code string, found bool) {
	open := strings.Index(raw, fence)
	if open < 0 {
		return raw, "", false
	}
	rest := raw[open+len(fence):]

	nl := strings.IndexByte(rest, '\n')
	if nl < 0 {
		return raw, "", false
	}
	body := rest[nl+1:]

	end := strings.Index(body, fence)
	if end < 0 {
		return raw, "", false
	}

	code = strings.TrimSuffix(body[:end], "\n")
	display = raw[:open] + body[end+len(fence):]
	return display, code, true
}
