// Package hashtree defines the contracts the partition filesystem parser
// consumes from the hierarchical hash validation layer.
//
// The hash algorithm itself and the layer bookkeeping live behind these
// interfaces; this package only fixes the boundary the parser depends on.
package hashtree

// Kind identifies the declared layout of a content section.
type Kind uint8

const (
	KindNone Kind = iota

	// KindPartitionFS is a partition filesystem whose payload region is
	// protected by two-level hierarchical hash validation.
	KindPartitionFS

	// KindRomFS is a read-only filesystem section. The partition filesystem
	// parser rejects it; it exists so collaborators can report their kind
	// without this package growing per-consumer enums.
	KindRomFS
)

func (k Kind) String() string {
	switch k {
	case KindPartitionFS:
		return "partition-fs"
	case KindRomFS:
		return "rom-fs"
	default:
		return "none"
	}
}

// BlockDigest is one recomputed hash block inside a Patch. The collaborator
// fills these; consumers carry them to whatever applies the patch.
type BlockDigest struct {
	// Offset of the hash block within its layer.
	Offset uint64

	// Digest holds the recomputed hash covering the edited range.
	Digest []byte
}

// Patch describes the hash-block updates required after editing a byte range
// of a validated section. It is produced by a Section's GeneratePatch and is
// never interpreted by the partition filesystem parser: the parser only
// requests and forwards it.
type Patch struct {
	// Offset is the position of the edited range, relative to the start of
	// the section's hash target layer.
	Offset uint64

	// Size is the length of the edited range in bytes.
	Size uint64

	// Blocks are the ancestor hash blocks that must be rewritten alongside
	// the new data. Ordering is collaborator-defined.
	Blocks []BlockDigest
}

// Section is a content section backed by hierarchical hash validation.
//
// All reads are blocking and integrity-checked by the implementation; none
// support cancellation. Implementations must be safe for use by one caller
// at a time; distinct sections are independent.
type Section interface {
	// Kind reports the section's declared layout.
	Kind() Kind

	// Size reports the total section size in bytes.
	Size() uint64

	// TargetLayer reports the offset and size of the hash target layer, the
	// verified data region within the section.
	TargetLayer() (offset, size uint64)

	// ValidateLayerOffsets checks every hash layer's offset/size extent
	// against the section size.
	ValidateLayerOffsets() bool

	// ReadAt fills p with integrity-checked bytes starting at the absolute
	// section offset off. On failure the contents of p are unspecified.
	ReadAt(p []byte, off uint64) error

	// GeneratePatch computes the hash-block updates needed to splice data
	// into the target layer at off (relative to the layer start). It does
	// not apply the patch.
	GeneratePatch(data []byte, off uint64) (*Patch, error)
}
