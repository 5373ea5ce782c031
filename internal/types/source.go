package types

// SourceFile is one file inside a function's source tree. Paths are
// relative to the tree root and use forward slashes.
type SourceFile struct {
	RelPath string
	Size    int64
	SHA256  string
}

// SourceTree is a scanned function source directory with a stable
// content digest. The digest covers the sorted file listing, so renames
// and content edits both change it.
type SourceTree struct {
	Root   string
	Files  []SourceFile
	Digest string
}
