// Package pfs parses partition filesystem containers whose payload region is
// protected by two-level hierarchical hash validation.
//
// A container is a self-describing blob: fixed header, entry table, name
// table, then entry data. The parser reads through a hashtree.Section, so
// every byte it sees has already passed integrity checking; in-place edits
// go the other way, as patches requested from the same section.
package pfs

import (
	"encoding/binary"

	"github.com/rs/zerolog"

	"cargohold.io/cargohold/errdefs"
	"cargohold.io/cargohold/hashtree"
)

const (
	// headerMagic is the big-endian tag at offset 0 ("PFS0").
	headerMagic uint32 = 0x50465330

	// fixedHeaderSize covers magic, entry count, name table size and the
	// reserved word.
	fixedHeaderSize = 0x10

	// entryRecordSize covers offset, size, name offset and the reserved
	// word of one entry record.
	entryRecordSize = 0x18

	// exeFSMetaName is the reserved metadata filename whose presence marks
	// an ExeFS container.
	exeFSMetaName = "main.npdm"

	// exeFSMetaMagic is the big-endian tag the metadata file must start
	// with ("META").
	exeFSMetaMagic uint32 = 0x4D455441
)

// Entry is one named file inside the container. Offset is relative to the
// start of the entry-data region (the bytes after the full header).
type Entry struct {
	Offset     uint64
	Size       uint64
	NameOffset uint32
}

// FS is a parsed partition filesystem. It owns a fully-read copy of the
// container header and is immutable after Open succeeds.
//
// An FS is owned by one caller at a time; concurrent use of the same FS
// requires external synchronization. Distinct FS values are independent.
type FS struct {
	section hashtree.Section

	// offset/size describe the verified data region within the section.
	offset uint64
	size   uint64

	headerSize    uint64
	header        []byte
	entryCount    uint32
	nameTableSize uint32
	isExeFS       bool

	log zerolog.Logger
}

// Option configures an FS during Open.
type Option func(*FS)

// WithLogger routes the parser's diagnostics to l. The default discards
// them.
func WithLogger(l zerolog.Logger) Option {
	return func(fs *FS) { fs.log = l }
}

// Open parses the partition filesystem inside sec.
//
// The section must declare the partition filesystem kind and pass hash layer
// validation. On any failure the partially built context is discarded and
// never returned.
func Open(sec hashtree.Section, opts ...Option) (*FS, error) {
	const op = "pfs.Open"

	if sec == nil || sec.Kind() != hashtree.KindPartitionFS {
		return nil, errdefs.New(errdefs.KindInvalidArgument, op, "section is not a hash-validated partition filesystem")
	}

	fs := &FS{section: sec, log: zerolog.Nop()}
	for _, opt := range opts {
		opt(fs)
	}

	if !sec.ValidateLayerOffsets() {
		fs.log.Warn().Uint64("section_size", sec.Size()).Msg("hash layer validation failed")
		return nil, errdefs.New(errdefs.KindIntegrity, op, "hash layer offsets do not fit the section")
	}
	fs.offset, fs.size = sec.TargetLayer()

	var prefix [fixedHeaderSize]byte
	if err := sec.ReadAt(prefix[:], fs.offset); err != nil {
		return nil, errdefs.Wrap(errdefs.KindIO, op, "reading partition header prefix", err)
	}

	if magic := binary.BigEndian.Uint32(prefix[0:4]); magic != headerMagic {
		fs.log.Warn().Uint32("magic", magic).Msg("invalid partition magic word")
		return nil, errdefs.New(errdefs.KindInvalidFormat, op, "invalid partition magic word")
	}
	fs.entryCount = binary.LittleEndian.Uint32(prefix[4:8])
	fs.nameTableSize = binary.LittleEndian.Uint32(prefix[8:12])
	if fs.entryCount == 0 || fs.nameTableSize == 0 {
		return nil, errdefs.New(errdefs.KindInvalidFormat, op, "zero entry count or name table size")
	}

	fs.headerSize = fixedHeaderSize + uint64(fs.entryCount)*entryRecordSize + uint64(fs.nameTableSize)
	fs.header = make([]byte, fs.headerSize)
	if err := sec.ReadAt(fs.header, fs.offset); err != nil {
		return nil, errdefs.Wrap(errdefs.KindIO, op, "reading full partition header", err)
	}

	fs.classifyExeFS()

	fs.log.Debug().Uint32("entries", fs.entryCount).Uint64("header_size", fs.headerSize).
		Bool("exefs", fs.isExeFS).Msg("partition filesystem opened")
	return fs, nil
}

// classifyExeFS probes for the reserved metadata file. Absence, an empty
// entry or a foreign magic word just leave the flag false.
func (fs *FS) classifyExeFS() {
	e, ok := fs.EntryByName(exeFSMetaName)
	if !ok {
		return
	}
	var magic [4]byte
	if err := fs.ReadEntryData(e, magic[:], 0); err != nil {
		return
	}
	fs.isExeFS = binary.BigEndian.Uint32(magic[:]) == exeFSMetaMagic
}

// IsExeFS reports whether the container holds the reserved metadata file
// with the expected magic word.
func (fs *FS) IsExeFS() bool { return fs.isExeFS }

// Offset returns the verified data region's offset within the section.
func (fs *FS) Offset() uint64 { return fs.offset }

// Size returns the verified data region's size.
func (fs *FS) Size() uint64 { return fs.size }

// HeaderSize returns the full header size (fixed header, entry table and
// name table).
func (fs *FS) HeaderSize() uint64 { return fs.headerSize }

// EntryCount returns the number of entries in the container.
func (fs *FS) EntryCount() uint32 { return fs.entryCount }

// Entry decodes the i-th entry record.
func (fs *FS) Entry(i uint32) (Entry, error) {
	const op = "pfs.Entry"
	if i >= fs.entryCount {
		return Entry{}, errdefs.New(errdefs.KindInvalidArgument, op, "entry index out of range")
	}
	return fs.entryAt(i), nil
}

func (fs *FS) entryAt(i uint32) Entry {
	rec := fs.header[fixedHeaderSize+uint64(i)*entryRecordSize:]
	return Entry{
		Offset:     binary.LittleEndian.Uint64(rec[0:8]),
		Size:       binary.LittleEndian.Uint64(rec[8:16]),
		NameOffset: binary.LittleEndian.Uint32(rec[16:20]),
	}
}

// EntryName resolves an entry's name through the name table. The name is the
// null-terminated string at the entry's name offset.
func (fs *FS) EntryName(e Entry) (string, error) {
	const op = "pfs.EntryName"
	if uint64(e.NameOffset) >= uint64(fs.nameTableSize) {
		return "", errdefs.New(errdefs.KindInvalidFormat, op, "name offset outside the name table")
	}
	table := fs.header[fs.headerSize-uint64(fs.nameTableSize):]
	name := table[e.NameOffset:]
	for i, c := range name {
		if c == 0 {
			return string(name[:i]), nil
		}
	}
	return "", errdefs.New(errdefs.KindInvalidFormat, op, "unterminated name in name table")
}

// EntryByName scans the entry table for the first entry whose name matches
// name exactly. There are no partial-match semantics.
func (fs *FS) EntryByName(name string) (Entry, bool) {
	for i := uint32(0); i < fs.entryCount; i++ {
		e := fs.entryAt(i)
		n, err := fs.EntryName(e)
		if err != nil {
			continue
		}
		if n == name {
			return e, true
		}
	}
	return Entry{}, false
}

// ReadPartitionData fills p with verified bytes at off, relative to the
// start of the data region. On failure the contents of p are unspecified.
func (fs *FS) ReadPartitionData(p []byte, off uint64) error {
	const op = "pfs.ReadPartitionData"
	if len(p) == 0 || off >= fs.size || uint64(len(p)) > fs.size-off {
		return errdefs.New(errdefs.KindInvalidArgument, op, "read window outside the data region")
	}
	if err := fs.section.ReadAt(p, fs.offset+off); err != nil {
		return errdefs.Wrap(errdefs.KindIO, op, "verified read failed", err)
	}
	return nil
}

// ReadEntryData fills p with entry bytes at off, relative to the entry
// start.
func (fs *FS) ReadEntryData(e Entry, p []byte, off uint64) error {
	const op = "pfs.ReadEntryData"
	if err := fs.checkEntryWindow(op, e, uint64(len(p)), off); err != nil {
		return err
	}
	return fs.ReadPartitionData(p, fs.headerSize+e.Offset+off)
}

// GenerateEntryPatch asks the hash-tree collaborator for the patch that
// splices data into the entry at off, relative to the entry start. The patch
// is returned, never applied.
func (fs *FS) GenerateEntryPatch(e Entry, data []byte, off uint64) (*hashtree.Patch, error) {
	const op = "pfs.GenerateEntryPatch"
	if err := fs.checkEntryWindow(op, e, uint64(len(data)), off); err != nil {
		return nil, err
	}
	patch, err := fs.section.GeneratePatch(data, fs.headerSize+e.Offset+off)
	if err != nil {
		return nil, errdefs.Wrap(errdefs.KindIntegrity, op, "hash patch generation failed", err)
	}
	return patch, nil
}

// checkEntryWindow validates the entry against the data region and the
// window against the entry, without touching the section.
func (fs *FS) checkEntryWindow(op string, e Entry, size, off uint64) error {
	if e.Size == 0 || e.Offset >= fs.size || e.Size > fs.size-e.Offset {
		return errdefs.New(errdefs.KindInvalidArgument, op, "entry does not fit the data region")
	}
	if size == 0 || off >= e.Size || size > e.Size-off {
		return errdefs.New(errdefs.KindInvalidArgument, op, "window outside the entry bounds")
	}
	return nil
}
