package galaxy

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
)

// Binary layout, little endian:
//
//	"GLXY" | version uint8 | count uint32 | positions [3*count]float32 | colors [3*count]float32
const (
	bufferMagic   = "GLXY"
	bufferVersion = 1
	headerSize    = len(bufferMagic) + 1 + 4
)

// ContentTypeBuffer is the media type of the binary buffer encoding.
const ContentTypeBuffer = "application/octet-stream"

func (b *Buffer) MarshalBinary() ([]byte, error) {
	count := b.Len()
	out := bytes.NewBuffer(make([]byte, 0, headerSize+count*3*4*2))

	out.WriteString(bufferMagic)
	out.WriteByte(bufferVersion)
	if err := binary.Write(out, binary.LittleEndian, uint32(count)); err != nil {
		return nil, err
	}
	if err := binary.Write(out, binary.LittleEndian, b.Positions); err != nil {
		return nil, err
	}
	if err := binary.Write(out, binary.LittleEndian, b.Colors); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

// UnmarshalBinary restores positions and colors. Params, Epoch and
// GeneratedAt are not part of the encoding and are left untouched.
func (b *Buffer) UnmarshalBinary(data []byte) error {
	r := bytes.NewReader(data)

	header := make([]byte, len(bufferMagic)+1)
	if _, err := io.ReadFull(r, header); err != nil {
		return fmt.Errorf("read buffer header: %w", err)
	}
	if string(header[:len(bufferMagic)]) != bufferMagic {
		return fmt.Errorf("not a galaxy buffer")
	}
	if header[len(bufferMagic)] != bufferVersion {
		return fmt.Errorf("unsupported buffer version %d", header[len(bufferMagic)])
	}

	var count uint32
	if err := binary.Read(r, binary.LittleEndian, &count); err != nil {
		return fmt.Errorf("read particle count: %w", err)
	}
	if want := int64(count) * 3 * 4 * 2; int64(r.Len()) != want {
		return fmt.Errorf("buffer payload is %d bytes, want %d", r.Len(), want)
	}

	positions := make([]float32, int(count)*3)
	colors := make([]float32, int(count)*3)
	if err := binary.Read(r, binary.LittleEndian, positions); err != nil {
		return fmt.Errorf("read positions: %w", err)
	}
	if err := binary.Read(r, binary.LittleEndian, colors); err != nil {
		return fmt.Errorf("read colors: %w", err)
	}

	b.Positions = positions
	b.Colors = colors
	return nil
}
