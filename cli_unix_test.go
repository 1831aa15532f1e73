//go:build unix

package main

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"mmreg/config"
)

// memFile returns a sparse file standing in for physical memory, covering
// the TIM peripheral of packed.svd.
func memFile(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "mem")
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, f.Truncate(0x40002000))

	var buf [4]byte
	binary.LittleEndian.PutUint16(buf[0:], 0x1111) // TIM.CR1
	binary.LittleEndian.PutUint16(buf[2:], 0x2222) // TIM.CR2
	_, err = f.WriteAt(buf[:], 0x40001000)
	require.NoError(t, err)
	return path
}

func TestPeekPokePackedMemory(t *testing.T) {
	mem := memFile(t)
	cfg := config.Default()

	var buf bytes.Buffer
	require.NoError(t, runPeek(&buf, &Peek{SVD: packedSVD, Path: "TIM.CR2", Device: mem}, cfg))
	require.Equal(t, "TIM.CR2 = 0x2222\n", buf.String())

	buf.Reset()
	require.NoError(t, runPeek(&buf, &Peek{SVD: packedSVD, Path: "TIM.CR1", Device: mem}, cfg))
	require.Equal(t, "TIM.CR1 = 0x1111\n", buf.String())

	require.NoError(t, runPoke(&Poke{SVD: packedSVD, Path: "TIM.CR2", Value: "0x3333", Device: mem}, cfg))

	f, err := os.Open(mem)
	require.NoError(t, err)
	defer f.Close()
	var word [4]byte
	_, err = f.ReadAt(word[:], 0x40001000)
	require.NoError(t, err)
	require.Equal(t, uint16(0x1111), binary.LittleEndian.Uint16(word[0:]))
	require.Equal(t, uint16(0x3333), binary.LittleEndian.Uint16(word[2:]))
}
