// Package snapshot кодирует воксельную сетку в компактный бинарный снимок.
//
// Формат (little endian):
//
//	"TBVG" | version u8 | flags u8 | width u32 | height u32 | depth u32 |
//	xxhash64(биты) u64 | длина payload u32 | payload
//
// payload - упакованный массив бит сетки, сжатый zstd при флаге FlagZstd.
package snapshot

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"

	xxhash "github.com/cespare/xxhash/v2"
	"github.com/klauspost/compress/zstd"

	"github.com/lawless-m/Toberboon/internal/voxel"
)

const (
	magic      = "TBVG"
	version    = 1
	headerSize = 4 + 1 + 1 + 4*3 + 8 + 4

	// MaxDimension ограничивает размер по каждой оси при декодировании
	MaxDimension = 1 << 14
)

// Флаги снимка
const (
	FlagNone uint8 = 0
	FlagZstd uint8 = 1 << 0
)

var (
	ErrBadMagic           = errors.New("не является снимком TBVG")
	ErrUnsupportedVersion = errors.New("неподдерживаемая версия снимка")
	ErrChecksum           = errors.New("контрольная сумма снимка не совпадает")
	ErrCorrupt            = errors.New("снимок повреждён")
)

// Header описывает заголовок снимка
type Header struct {
	Version  uint8
	Flags    uint8
	Width    uint32
	Height   uint32
	Depth    uint32
	Checksum uint64
}

// PackedSize возвращает размер упакованных бит сетки: ceil(w*h*d/8) байт
func (h Header) PackedSize() uint64 {
	return (uint64(h.Width)*uint64(h.Height)*uint64(h.Depth) + 7) / 8
}

// Encode кодирует сетку со сжатием zstd
func Encode(g *voxel.Grid) ([]byte, error) {
	return EncodeWithFlags(g, FlagZstd)
}

// EncodeWithFlags кодирует сетку с указанными флагами
func EncodeWithFlags(g *voxel.Grid, flags uint8) ([]byte, error) {
	raw := g.Bytes()
	w, h, d := g.Dimensions()

	payload := raw
	if flags&FlagZstd != 0 {
		enc, err := zstd.NewWriter(nil,
			zstd.WithEncoderLevel(zstd.SpeedDefault),
			zstd.WithEncoderConcurrency(1))
		if err != nil {
			return nil, fmt.Errorf("ошибка создания zstd encoder: %w", err)
		}
		payload = enc.EncodeAll(raw, nil)
		if err := enc.Close(); err != nil {
			return nil, fmt.Errorf("ошибка закрытия zstd encoder: %w", err)
		}
	}

	var buf bytes.Buffer
	buf.Grow(headerSize + len(payload))
	buf.WriteString(magic)
	_ = binary.Write(&buf, binary.LittleEndian, uint8(version))
	_ = binary.Write(&buf, binary.LittleEndian, flags)
	_ = binary.Write(&buf, binary.LittleEndian, uint32(w))
	_ = binary.Write(&buf, binary.LittleEndian, uint32(h))
	_ = binary.Write(&buf, binary.LittleEndian, uint32(d))
	_ = binary.Write(&buf, binary.LittleEndian, xxhash.Sum64(raw))
	_ = binary.Write(&buf, binary.LittleEndian, uint32(len(payload)))
	buf.Write(payload)
	return buf.Bytes(), nil
}

// ReadHeader разбирает заголовок и возвращает его вместе с payload
func ReadHeader(data []byte) (Header, []byte, error) {
	var hdr Header
	if len(data) < 4 || string(data[:4]) != magic {
		return hdr, nil, ErrBadMagic
	}
	if len(data) < headerSize {
		return hdr, nil, fmt.Errorf("%w: заголовок короче %d байт", ErrCorrupt, headerSize)
	}

	r := bytes.NewReader(data[4:headerSize])
	var plen uint32
	for _, field := range []interface{}{&hdr.Version, &hdr.Flags, &hdr.Width, &hdr.Height, &hdr.Depth, &hdr.Checksum, &plen} {
		if err := binary.Read(r, binary.LittleEndian, field); err != nil {
			return hdr, nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
		}
	}

	if hdr.Version != version {
		return hdr, nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, hdr.Version)
	}
	if hdr.Width > MaxDimension || hdr.Height > MaxDimension || hdr.Depth > MaxDimension {
		return hdr, nil, fmt.Errorf("%w: размер %dx%dx%d", ErrCorrupt, hdr.Width, hdr.Height, hdr.Depth)
	}
	if uint64(len(data)-headerSize) != uint64(plen) {
		return hdr, nil, fmt.Errorf("%w: длина payload %d, ожидалось %d", ErrCorrupt, len(data)-headerSize, plen)
	}
	return hdr, data[headerSize:], nil
}

// Decode восстанавливает сетку из снимка, проверяя заголовок, длину и контрольную сумму
func Decode(data []byte) (*voxel.Grid, error) {
	hdr, payload, err := ReadHeader(data)
	if err != nil {
		return nil, err
	}

	raw := payload
	if hdr.Flags&FlagZstd != 0 {
		// Распакованный размер ограничен размером сетки из заголовка
		expected := hdr.PackedSize()
		dec, err := zstd.NewReader(nil,
			zstd.WithDecoderConcurrency(1),
			zstd.WithDecoderMaxMemory(max(expected, 1)))
		if err != nil {
			return nil, fmt.Errorf("ошибка создания zstd decoder: %w", err)
		}
		defer dec.Close()

		raw, err = dec.DecodeAll(payload, make([]byte, 0, expected))
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
		}
	}

	if xxhash.Sum64(raw) != hdr.Checksum {
		return nil, ErrChecksum
	}

	g, err := voxel.FromBytes(int(hdr.Width), int(hdr.Height), int(hdr.Depth), raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	return g, nil
}

// Write кодирует сетку в w
func Write(w io.Writer, g *voxel.Grid) error {
	data, err := Encode(g)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

// SaveFile сохраняет снимок сетки в файл
func SaveFile(path string, g *voxel.Grid) error {
	data, err := Encode(g)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("ошибка записи снимка %s: %w", path, err)
	}
	return nil
}

// LoadFile читает снимок сетки из файла
func LoadFile(path string) (*voxel.Grid, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения снимка %s: %w", path, err)
	}
	return Decode(data)
}
