// Package mentions handles the inline mention tokens embedded in
// message bodies: @[user_id:display_name] and #[file_id:file_name].
// Tokens are opaque at storage time; only renderers and the export
// path interpret them.
package mentions

import (
	"regexp"
	"strconv"
)

var (
	userToken = regexp.MustCompile(`@\[(\d+):([^\]]+)\]`)
	fileToken = regexp.MustCompile(`#\[(\d+):([^\]]+)\]`)
)

// UserToken encodes a user mention in the canonical storage format.
func UserToken(userID uint64, displayName string) string {
	return "@[" + strconv.FormatUint(userID, 10) + ":" + displayName + "]"
}

// FileToken encodes a file mention in the canonical storage format.
func FileToken(fileID uint64, fileName string) string {
	return "#[" + strconv.FormatUint(fileID, 10) + ":" + fileName + "]"
}

// ExtractUsers returns the distinct user ids mentioned in body,
// in order of first appearance.
func ExtractUsers(body string) []uint64 {
	return extract(userToken, body)
}

// ExtractFiles returns the distinct file ids mentioned in body,
// in order of first appearance.
func ExtractFiles(body string) []uint64 {
	return extract(fileToken, body)
}

func extract(re *regexp.Regexp, body string) []uint64 {
	var ids []uint64
	seen := make(map[uint64]struct{})
	for _, m := range re.FindAllStringSubmatch(body, -1) {
		id, err := strconv.ParseUint(m[1], 10, 64)
		if err != nil {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return ids
}

// Strip rewrites mention tokens to plain text (@name, #name) for the
// text export.
func Strip(body string) string {
	body = userToken.ReplaceAllString(body, "@$2")
	body = fileToken.ReplaceAllString(body, "#$2")
	return body
}
