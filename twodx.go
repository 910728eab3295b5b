package museca

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/pkg/errors"
)

// 2dx archive ****************************************************************
//
// Little-endian container holding ADPCM wav payloads. Layout: a 16-byte
// NUL-padded archive name, header size, file count, 48 bytes of padding,
// then one u32 offset per file. Each payload sits behind a 24-byte '2DX9'
// subheader carrying its size.

const (
	twodxNameLen     = 16
	twodxBaseHeader  = 72
	twodxEntryHeader = 24
)

var twodxMagic = []byte("2DX9")

type twodxEntry struct {
	name string
	data []byte
}

// TwoDX is an in-memory 2dx archive. Entries keep their insertion order,
// the on-disk format is positional.
type TwoDX struct {
	name    string
	entries []twodxEntry
}

func TwoDXNew() *TwoDX {
	return &TwoDX{}
}

// TwoDXParse reads an existing archive. Parsed payloads are named
// <archive>_<n>.wav, counting from 1.
func TwoDXParse(data []byte) (*TwoDX, error) {
	if len(data) < twodxBaseHeader {
		return nil, errors.New("unrecognized 2dx file header")
	}

	t := &TwoDX{}
	if i := bytes.IndexByte(data[:twodxNameLen], 0); i >= 0 {
		t.name = string(data[:i])
	} else {
		t.name = string(data[:twodxNameLen])
	}
	headerSize := binary.LittleEndian.Uint32(data[16:20])
	numFiles := int(binary.LittleEndian.Uint32(data[20:24]))

	if int(headerSize) != twodxBaseHeader+4*numFiles || len(data) < int(headerSize) {
		return nil, errors.New("unrecognized 2dx file header")
	}

	for i := 0; i < numFiles; i++ {
		offset := int(binary.LittleEndian.Uint32(data[twodxBaseHeader+4*i:]))
		if offset+twodxEntryHeader > len(data) {
			return nil, errors.New("unrecognized entry in file")
		}
		if !bytes.Equal(data[offset:offset+4], twodxMagic) {
			return nil, errors.New("unrecognized entry in file")
		}
		subSize := int(binary.LittleEndian.Uint32(data[offset+4:]))
		wavSize := int(binary.LittleEndian.Uint32(data[offset+8:]))
		if subSize != twodxEntryHeader {
			return nil, errors.New("unrecognized subheader in file")
		}
		wavOffset := offset + subSize
		if wavOffset+wavSize > len(data) {
			return nil, errors.New("unrecognized entry in file")
		}
		t.entries = append(t.entries, twodxEntry{
			name: fmt.Sprintf("%s_%d.wav", t.name, i+1),
			data: data[wavOffset : wavOffset+wavSize],
		})
	}

	return t, nil
}

func (t *TwoDX) Name() string {
	return t.name
}

func (t *TwoDX) SetName(name string) error {
	if len(name) > twodxNameLen {
		return errors.Errorf("name of archive too long: %q", name)
	}
	t.name = name
	return nil
}

func (t *TwoDX) Filenames() []string {
	names := make([]string, len(t.entries))
	for i, e := range t.entries {
		names[i] = e.name
	}
	return names
}

func (t *TwoDX) ReadFile(filename string) ([]byte, bool) {
	for _, e := range t.entries {
		if e.name == filename {
			return e.data, true
		}
	}
	return nil, false
}

// WriteFile adds a payload, replacing any existing entry with the same name.
func (t *TwoDX) WriteFile(filename string, data []byte) {
	for i, e := range t.entries {
		if e.name == filename {
			t.entries[i].data = data
			return
		}
	}
	t.entries = append(t.entries, twodxEntry{name: filename, data: data})
}

// Bytes serializes the archive.
func (t *TwoDX) Bytes() ([]byte, error) {
	if len(t.entries) == 0 {
		return nil, errors.New("no files to write")
	}
	if t.name == "" {
		return nil, errors.New("2dx archive name not set")
	}

	var buf bytes.Buffer

	var name [twodxNameLen]byte
	copy(name[:], t.name)
	buf.Write(name[:])

	offset := uint32(twodxBaseHeader + 4*len(t.entries))
	binary.Write(&buf, binary.LittleEndian, offset)
	binary.Write(&buf, binary.LittleEndian, uint32(len(t.entries)))
	buf.Write(make([]byte, 48))

	for _, e := range t.entries {
		binary.Write(&buf, binary.LittleEndian, offset)
		offset += twodxEntryHeader + uint32(len(e.data))
	}

	for _, e := range t.entries {
		buf.Write(twodxMagic)
		binary.Write(&buf, binary.LittleEndian, uint32(twodxEntryHeader))
		binary.Write(&buf, binary.LittleEndian, uint32(len(e.data)))
		binary.Write(&buf, binary.LittleEndian, int16(0x3231))
		binary.Write(&buf, binary.LittleEndian, int16(-1))
		binary.Write(&buf, binary.LittleEndian, int16(64))
		binary.Write(&buf, binary.LittleEndian, int16(1))
		binary.Write(&buf, binary.LittleEndian, int32(0))
		buf.Write(e.data)
	}

	return buf.Bytes(), nil
}
