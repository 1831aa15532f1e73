//go:build unix

package hwio

import (
	"fmt"
	"os"
	"sync/atomic"
	"unsafe"

	"golang.org/x/sys/unix"

	"mmreg/log"
)

// DevMem is the default physical memory device.
const DevMem = "/dev/mem"

// Mmap is a window of physical memory mapped into the process. Every access
// is a single 32-bit atomic load or store: the compiler never elides, merges
// or reorders them, which is what memory-mapped registers require.
//
// Addresses are physical addresses; accesses outside the window panic like
// any other bus fault would crash the program.
type Mmap struct {
	Name string

	start uint32 // physical address of words[0]
	data  []byte
	words []uint32
}

// OpenMmap maps the physical range [base, base+size) of the device at path
// (usually DevMem). The mapping is extended to page boundaries.
func OpenMmap(path string, base, size uint32) (*Mmap, error) {
	if size == 0 {
		return nil, fmt.Errorf("mmap %s: empty range", path)
	}

	pgsize := uint64(unix.Getpagesize())
	start := uint64(base) &^ (pgsize - 1)
	end := (uint64(base) + uint64(size) + pgsize - 1) &^ (pgsize - 1)

	f, err := os.OpenFile(path, os.O_RDWR|os.O_SYNC, 0)
	if err != nil {
		return nil, fmt.Errorf("mmap: %w", err)
	}
	defer f.Close()

	data, err := unix.Mmap(int(f.Fd()), int64(start), int(end-start), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		return nil, fmt.Errorf("mmap %s [%08x-%08x]: %w", path, start, end, err)
	}

	log.ModHwIo.DebugZ("mapped physical memory").
		String("path", path).
		Hex64("start", start).
		Hex64("end", end).
		End()

	return &Mmap{
		Name:  path,
		start: uint32(start),
		data:  data,
		words: unsafe.Slice((*uint32)(unsafe.Pointer(&data[0])), len(data)/4),
	}, nil
}

func (m *Mmap) word(addr uint32) *uint32 {
	if addr < m.start || uint64(addr-m.start)+4 > uint64(len(m.data)) {
		panic(fmt.Sprintf("%s: address %08x outside mapped window [%08x-%08x)", m.Name, addr, m.start, uint64(m.start)+uint64(len(m.data))))
	}
	return &m.words[(addr-m.start)>>2]
}

// Read32 loads the word at addr. Hardware reads can't be made side-effect
// free, so peek is ignored.
func (m *Mmap) Read32(addr uint32, _ bool) uint32 {
	return atomic.LoadUint32(m.word(addr))
}

func (m *Mmap) Write32(addr uint32, val uint32) {
	atomic.StoreUint32(m.word(addr), val)
}

// Close unmaps the window. The Mmap must not be used afterwards.
func (m *Mmap) Close() error {
	if m.data == nil {
		return nil
	}
	err := unix.Munmap(m.data)
	m.data, m.words = nil, nil
	return err
}
