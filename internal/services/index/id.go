// Package index stores chunk embeddings per project and ranks them by cosine similarity.
package index

import (
	"crypto/md5"
	"encoding/hex"
)

// idPrefixRunes is how much of the chunk text participates in the id
const idPrefixRunes = 100

// DocumentID derives the stable id of a chunk: md5 hex of the url followed by
// the first 100 runes of the text. Re-ingesting the same content yields the
// same id, so upserts replace instead of duplicating.
func DocumentID(url, text string) string {
	runes := []rune(text)
	if len(runes) > idPrefixRunes {
		runes = runes[:idPrefixRunes]
	}
	sum := md5.Sum([]byte(url + string(runes)))
	return hex.EncodeToString(sum[:])
}
