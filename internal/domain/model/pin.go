package model

import "time"

// Pin is a content identifier pinned on an IPFS node. Type is the pin kind
// reported by the node ("recursive", "direct", "indirect").
type Pin struct {
	CID  string
	Type string
}

// TagEntry is a named MFS path pointing at a pinned CID. ModTime is zero
// when the node does not report a modification time for the path.
type TagEntry struct {
	Path      string
	CID       string
	SizeBytes int64
	ModTime   time.Time
}
