package snapshot

import (
	"bytes"
	"encoding/binary"
	"errors"
	"math/rand"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lawless-m/Toberboon/internal/voxel"
)

func randomGrid(seed int64, w, h, d int) *voxel.Grid {
	rng := rand.New(rand.NewSource(seed))
	g := voxel.New(w, h, d)
	for i := 0; i < w*h*d/2; i++ {
		g.Set(rng.Intn(w), rng.Intn(d), rng.Intn(h), true)
	}
	return g
}

func TestEncodeDecode(t *testing.T) {
	for _, flags := range []uint8{FlagNone, FlagZstd} {
		g := randomGrid(1, 17, 23, 11)

		data, err := EncodeWithFlags(g, flags)
		require.NoError(t, err)

		restored, err := Decode(data)
		require.NoError(t, err)
		assert.True(t, g.Equal(restored), "флаги %d: сетка должна восстановиться без потерь", flags)
	}
}

func TestHeader(t *testing.T) {
	g := voxel.New(5, 6, 7)
	data, err := Encode(g)
	require.NoError(t, err)

	hdr, payload, err := ReadHeader(data)
	require.NoError(t, err)
	assert.Equal(t, uint8(version), hdr.Version)
	assert.Equal(t, FlagZstd, hdr.Flags)
	assert.Equal(t, uint32(5), hdr.Width)
	assert.Equal(t, uint32(6), hdr.Height)
	assert.Equal(t, uint32(7), hdr.Depth)
	assert.Len(t, payload, len(data)-headerSize)
}

func TestCompressionShrinksUniformGrid(t *testing.T) {
	g := voxel.New(64, 23, 64)
	hm := make([]float32, 64*64)
	for i := range hm {
		hm[i] = 12
	}
	g.FillFromHeightmap(hm)

	data, err := Encode(g)
	require.NoError(t, err)
	assert.Less(t, len(data), len(g.Bytes())/4, "однородная сетка должна хорошо сжиматься")
}

func TestDecodeErrors(t *testing.T) {
	g := randomGrid(2, 8, 8, 8)
	data, err := EncodeWithFlags(g, FlagNone)
	require.NoError(t, err)

	_, err = Decode([]byte("VOPL0000"))
	assert.ErrorIs(t, err, ErrBadMagic)

	_, err = Decode(data[:10])
	assert.ErrorIs(t, err, ErrCorrupt)

	bad := bytes.Clone(data)
	bad[4] = 9
	_, err = Decode(bad)
	assert.ErrorIs(t, err, ErrUnsupportedVersion)

	bad = bytes.Clone(data)
	bad[len(bad)-1] ^= 0x01
	_, err = Decode(bad)
	assert.ErrorIs(t, err, ErrChecksum)

	_, err = Decode(data[:len(data)-1])
	assert.ErrorIs(t, err, ErrCorrupt, "обрезанный payload")

	bad = bytes.Clone(data)
	binary.LittleEndian.PutUint32(bad[6:], MaxDimension+1)
	_, err = Decode(bad)
	assert.True(t, errors.Is(err, ErrCorrupt))
}

func TestDecodeLimitsDecompressedSize(t *testing.T) {
	data, err := Encode(voxel.New(8, 8, 8))
	require.NoError(t, err)

	// Заголовок обещает 64 байта, а payload распаковывается в мегабайт
	enc, err := zstd.NewWriter(nil)
	require.NoError(t, err)
	bomb := enc.EncodeAll(make([]byte, 1<<20), nil)
	require.NoError(t, enc.Close())

	crafted := append(bytes.Clone(data[:headerSize]), bomb...)
	binary.LittleEndian.PutUint32(crafted[headerSize-4:], uint32(len(bomb)))

	_, err = Decode(crafted)
	assert.ErrorIs(t, err, ErrCorrupt)
}

func TestPackedSize(t *testing.T) {
	assert.Equal(t, uint64(0), Header{}.PackedSize())
	assert.Equal(t, uint64(1), Header{Width: 1, Height: 1, Depth: 1}.PackedSize())
	assert.Equal(t, uint64(105), Header{Width: 10, Height: 7, Depth: 12}.PackedSize())
	assert.Equal(t, uint64(1)<<39, Header{Width: MaxDimension, Height: MaxDimension, Depth: MaxDimension}.PackedSize())
}

func TestFileRoundTrip(t *testing.T) {
	g := randomGrid(3, 12, 10, 9)
	path := filepath.Join(t.TempDir(), "grid.tbvg")

	require.NoError(t, SaveFile(path, g))
	restored, err := LoadFile(path)
	require.NoError(t, err)
	assert.True(t, g.Equal(restored))

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.tbvg"))
	assert.Error(t, err)

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, g))
	fromBuf, err := Decode(buf.Bytes())
	require.NoError(t, err)
	assert.True(t, g.Equal(fromBuf))
}

func TestEmptyGrid(t *testing.T) {
	data, err := Encode(voxel.New(0, 0, 0))
	require.NoError(t, err)

	g, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, 0, g.SolidCount())
}
