package data

import "io/fs"

// VirtualFileMode represents file mode and permission bits.
// It follows Unix file mode conventions with type and permission bits.
type VirtualFileMode uint32

const (
	// Type bits
	ModeDir       VirtualFileMode = 1 << 31 // d: directory
	ModeSymlink   VirtualFileMode = 1 << 30 // L: symbolic link
	ModeIrregular VirtualFileMode = 1 << 25 // ?: anything that is neither file, directory nor link

	// Permission bits
	ModePerm VirtualFileMode = 0777
)

// ModeFromFileMode converts the mode reported by the local filesystem.
func ModeFromFileMode(mode fs.FileMode) VirtualFileMode {
	m := VirtualFileMode(mode.Perm())

	switch {
	case mode.IsDir():
		m |= ModeDir
	case mode&fs.ModeSymlink != 0:
		m |= ModeSymlink
	case !mode.IsRegular():
		m |= ModeIrregular
	}

	return m
}

// IsDir reports whether m describes a directory.
func (m VirtualFileMode) IsDir() bool {
	return m&ModeDir != 0
}

// IsSymlink reports whether m describes a symbolic link.
func (m VirtualFileMode) IsSymlink() bool {
	return m&ModeSymlink != 0
}

// IsRegular reports whether m describes a regular file.
func (m VirtualFileMode) IsRegular() bool {
	return m&(ModeDir|ModeSymlink|ModeIrregular) == 0
}

// Perm returns the Unix permission bits in m.
func (m VirtualFileMode) Perm() VirtualFileMode {
	return m & ModePerm
}

// FileMode converts m back into a mode usable with the os package.
func (m VirtualFileMode) FileMode() fs.FileMode {
	mode := fs.FileMode(m.Perm())
	if m.IsDir() {
		mode |= fs.ModeDir
	}
	if m.IsSymlink() {
		mode |= fs.ModeSymlink
	}

	return mode
}

// String returns the mode in ls -l format, e.g. "drwxr-xr-x".
func (m VirtualFileMode) String() string {
	var buf [10]byte

	switch {
	case m.IsDir():
		buf[0] = 'd'
	case m.IsSymlink():
		buf[0] = 'L'
	case m&ModeIrregular != 0:
		buf[0] = '?'
	default:
		buf[0] = '-'
	}

	const rwx = "rwxrwxrwx"
	for i, c := range rwx {
		if m&(1<<uint(9-1-i)) != 0 {
			buf[i+1] = byte(c)
		} else {
			buf[i+1] = '-'
		}
	}

	return string(buf[:])
}
