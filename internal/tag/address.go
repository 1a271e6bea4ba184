package tag

import "strings"

// AddressKey prefixes the printer address token in a tag payload.
const AddressKey = "mB="

// ExtractAddress finds the first &-separated token carrying the printer
// address and returns its value. A token whose query part (after the last
// '?') starts with the key also matches, so URI payloads like
// https://host/p?mB=AC:3F:A4:00:11:22&x=1 work.
func ExtractAddress(payload string) (string, bool) {
	for _, token := range strings.Split(payload, "&") {
		if v, ok := strings.CutPrefix(token, AddressKey); ok {
			return v, true
		}
		if i := strings.LastIndexByte(token, '?'); i >= 0 {
			if v, ok := strings.CutPrefix(token[i+1:], AddressKey); ok {
				return v, true
			}
		}
	}
	return "", false
}
