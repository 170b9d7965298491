package relay

import "strings"

// SplitFrame splits a "<command>:<payload>" frame on its first colon.
// The payload may contain further colons. Frames without a colon or with an
// empty command are not valid.
func SplitFrame(frame string) (command, payload string, ok bool) {
	command, payload, ok = strings.Cut(frame, ":")
	if !ok || command == "" {
		return "", "", false
	}
	return command, payload, true
}
