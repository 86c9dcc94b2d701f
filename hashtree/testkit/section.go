// Package testkit provides an in-memory hashtree.Section for package tests.
package testkit

import (
	"errors"

	"cargohold.io/cargohold/hashtree"
)

// PatchCall records one GeneratePatch invocation observed by a MemSection.
type PatchCall struct {
	Offset uint64
	Size   uint64
}

// MemSection is a fake hashtree.Section backed by a byte slice.
//
// The zero value is unusable; populate Data and the layer extents first.
// Fault injection: set BadLayers to fail layer validation, ReadErr to fail
// every read, or FailReadsFrom > 0 to fail the Nth (1-based) and later reads.
type MemSection struct {
	Data        []byte
	SectionKind hashtree.Kind
	LayerOffset uint64
	LayerSize   uint64

	BadLayers     bool
	ReadErr       error
	FailReadsFrom int

	PatchErr   error
	PatchCalls []PatchCall

	reads int
}

// NewPartitionFS wraps data as a partition filesystem section whose target
// layer spans the entire buffer.
func NewPartitionFS(data []byte) *MemSection {
	return &MemSection{
		Data:        data,
		SectionKind: hashtree.KindPartitionFS,
		LayerOffset: 0,
		LayerSize:   uint64(len(data)),
	}
}

func (s *MemSection) Kind() hashtree.Kind { return s.SectionKind }

func (s *MemSection) Size() uint64 { return uint64(len(s.Data)) }

func (s *MemSection) TargetLayer() (uint64, uint64) { return s.LayerOffset, s.LayerSize }

func (s *MemSection) ValidateLayerOffsets() bool {
	if s.BadLayers {
		return false
	}
	return s.LayerSize > 0 && s.LayerOffset+s.LayerSize <= uint64(len(s.Data))
}

func (s *MemSection) ReadAt(p []byte, off uint64) error {
	defer func() { s.reads++ }()
	if s.ReadErr != nil {
		return s.ReadErr
	}
	if s.FailReadsFrom > 0 && s.reads+1 >= s.FailReadsFrom {
		return errors.New("testkit: injected read failure")
	}
	if off > uint64(len(s.Data)) || uint64(len(p)) > uint64(len(s.Data))-off {
		return errors.New("testkit: read out of section bounds")
	}
	copy(p, s.Data[off:])
	return nil
}

func (s *MemSection) GeneratePatch(data []byte, off uint64) (*hashtree.Patch, error) {
	s.PatchCalls = append(s.PatchCalls, PatchCall{Offset: off, Size: uint64(len(data))})
	if s.PatchErr != nil {
		return nil, s.PatchErr
	}
	return &hashtree.Patch{Offset: off, Size: uint64(len(data))}, nil
}
