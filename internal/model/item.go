package model

// Item is one torrent as reported by the download client. The ID is an
// opaque handle (rTorrent uses the info hash) and is only meaningful to the
// client that produced the snapshot.
type Item struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Label     string `json:"label"`
	Completed bool   `json:"completed"`
	Directory string `json:"directory"`
	Hash      string `json:"hash"`
}

// MirrorResult records the outcome of reconciling one item.
type MirrorResult struct {
	Item    Item
	SrcPath string
	DstPath string
	Err     error
}
