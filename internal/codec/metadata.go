package codec

import (
	"strconv"
	"strings"
)

// SystemKeys are the metadata keys the codec owns and overwrites on egress
// (§4.3). A user value under one of these keys is preserved, renamed to
// "user_<key>".
var SystemKeys = []string{
	"source_id",
	"collection_name",
	"content_hash",
	"chunk_index",
	"total_chunks",
	"source_commit",
}

func isSystemKey(key string) bool {
	for _, k := range SystemKeys {
		if k == key {
			return true
		}
	}
	return false
}

// SystemValues holds the values the codec writes into chunk metadata on
// egress (VS -> XS).
type SystemValues struct {
	SourceID       string
	CollectionName string
	ContentHash    string
	ChunkIndex     int
	TotalChunks    int
	SourceCommit   string
}

// PartitionEgress starts from the Document's user metadata, then overwrites
// the system keys with sys's values. A colliding user key is preserved under
// "user_<key>"; renamed collisions are returned so callers can log them.
func PartitionEgress(userMeta map[string]string, sys SystemValues) (merged map[string]string, renamed map[string]string) {
	merged = make(map[string]string, len(userMeta)+len(SystemKeys))
	renamed = make(map[string]string)

	for k, v := range userMeta {
		if isSystemKey(k) {
			renamedKey := "user_" + k
			merged[renamedKey] = v
			renamed[k] = renamedKey
			continue
		}
		merged[k] = v
	}

	merged["source_id"] = sys.SourceID
	merged["collection_name"] = sys.CollectionName
	merged["content_hash"] = sys.ContentHash
	merged["chunk_index"] = strconv.Itoa(sys.ChunkIndex)
	merged["total_chunks"] = strconv.Itoa(sys.TotalChunks)
	if sys.SourceCommit != "" {
		merged["source_commit"] = sys.SourceCommit
	}
	return merged, renamed
}

// PartitionIngress strips the system keys back out of merged chunk metadata
// and un-renames any "user_<key>" collisions, reassembling the original user
// metadata (§4.3, and the metadata round-trip law in §8).
func PartitionIngress(merged map[string]string) (userMeta map[string]string, sys SystemValues) {
	userMeta = make(map[string]string, len(merged))

	for k, v := range merged {
		if isSystemKey(k) {
			continue
		}
		if strings.HasPrefix(k, "user_") {
			originalKey := strings.TrimPrefix(k, "user_")
			if isSystemKey(originalKey) {
				userMeta[originalKey] = v
				continue
			}
		}
		userMeta[k] = v
	}

	sys.SourceID = merged["source_id"]
	sys.CollectionName = merged["collection_name"]
	sys.ContentHash = merged["content_hash"]
	sys.ChunkIndex, _ = strconv.Atoi(merged["chunk_index"])
	sys.TotalChunks, _ = strconv.Atoi(merged["total_chunks"])
	sys.SourceCommit = merged["source_commit"]
	return userMeta, sys
}
