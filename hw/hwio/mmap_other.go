//go:build !unix

package hwio

import "errors"

const DevMem = ""

// Mmap is not supported on this platform.
type Mmap struct{ Name string }

func OpenMmap(path string, base, size uint32) (*Mmap, error) {
	return nil, errors.New("mmap: physical memory access not supported on this platform")
}

func (m *Mmap) Read32(addr uint32, _ bool) uint32 { panic("unreachable") }
func (m *Mmap) Write32(addr uint32, val uint32)   { panic("unreachable") }
func (m *Mmap) Close() error                      { return nil }
