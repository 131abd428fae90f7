// Package urlutil handles camera source addresses (rtsp://, http://, bare host:port).
package urlutil

import "strings"

const redacted = "***"

// authority locates the [userinfo@]host[:port] part of an AV-style URL.
// It follows FFmpeg's av_url_split: after "scheme:" up to two slashes are skipped,
// the authority runs until the first '/', '?' or '#', and userinfo ends at the
// LAST '@' inside it. Addresses without a scheme have no authority.
func authority(addr string) (start, end int, ok bool) {
	colon := strings.IndexByte(addr, ':')
	if colon == -1 {
		return 0, 0, false
	}
	start = colon + 1
	for i := 0; i < 2 && start < len(addr) && addr[start] == '/'; i++ {
		start++
	}
	end = start
	if i := strings.IndexAny(addr[start:], "/?#"); i != -1 {
		end += i
	} else {
		end = len(addr)
	}
	return start, end, end > start
}

// Userinfo returns the user[:password] part of addr and whether one is present.
func Userinfo(addr string) (string, bool) {
	start, end, ok := authority(addr)
	if !ok {
		return "", false
	}
	at := strings.LastIndexByte(addr[start:end], '@')
	if at == -1 {
		return "", false
	}
	return addr[start : start+at], true
}

// RedactUserinfo replaces embedded credentials with "***" so addresses can be logged.
// Everything else is returned byte for byte; addresses without credentials are unchanged.
func RedactUserinfo(addr string) string {
	start, end, ok := authority(addr)
	if !ok {
		return addr
	}
	at := strings.LastIndexByte(addr[start:end], '@')
	if at == -1 {
		return addr
	}
	return addr[:start] + redacted + addr[start+at:]
}
