package source

type (
	// FileID uniquely identifies a source file within a FileSet or a session.
	FileID uint32
	// FileFlags encodes metadata about a source file.
	FileFlags uint8
)

const (
	// FileVirtual indicates the file was added from memory (test, stdin, editor buffer).
	FileVirtual FileFlags = 1 << iota
	// FileHadBOM marks content that starts with a UTF-8 byte order mark.
	// The mark is kept in Content so offsets match what the editor sees.
	FileHadBOM
	// FileCRLF marks content that uses "\r\n" line endings.
	FileCRLF
)

// File captures metadata and content for a single story file.
type File struct {
	ID      FileID
	Path    string
	Content []byte
	LineIdx []uint32 // offsets of every '\n'
	Hash    [32]byte
	Flags   FileFlags
}

// LineCol represents a human-readable position in a source file.
type LineCol struct {
	Line uint32 // 1-based
	Col  uint32 // 1-based, in bytes
}
