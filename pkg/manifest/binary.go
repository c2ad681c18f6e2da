package manifest

import (
	"bytes"
	"encoding/binary"
	"hash/crc32"
	"io"
	"time"

	"smartcopy/pkg/coreerrors"
)

// Binary format: a compact fixed/length-prefixed encoding for medium-scale
// manifests (spec §4.7 "compact binary row-oriented format for medium
// scales"). Field-by-field little-endian writes mirror the teacher's
// pkg/network/delta_sync.go writeDelta/ApplyDelta wire-encoding style.
const binaryMagic uint32 = 0x53434d31 // "SCM1"

func writeString(w io.Writer, s string) error {
	if err := binary.Write(w, binary.LittleEndian, uint32(len(s))); err != nil {
		return err
	}
	_, err := w.Write([]byte(s))
	return err
}

func readString(r io.Reader) (string, error) {
	var n uint32
	if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
		return "", err
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", err
	}
	return string(buf), nil
}

func writeBytes(w io.Writer, b []byte) error {
	if err := binary.Write(w, binary.LittleEndian, uint32(len(b))); err != nil {
		return err
	}
	_, err := w.Write(b)
	return err
}

func readBytes(r io.Reader) ([]byte, error) {
	var n uint32
	if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, nil
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, err
	}
	return buf, nil
}

func encodeBinary(m Manifest) ([]byte, error) {
	var header bytes.Buffer
	if err := binary.Write(&header, binary.LittleEndian, binaryMagic); err != nil {
		return nil, err
	}
	if err := writeString(&header, m.Version); err != nil {
		return nil, err
	}
	if err := writeString(&header, m.SourceRoot); err != nil {
		return nil, err
	}
	if err := writeString(&header, m.DestRoot); err != nil {
		return nil, err
	}
	if err := binary.Write(&header, binary.LittleEndian, m.Created.Unix()); err != nil {
		return nil, err
	}
	if err := binary.Write(&header, binary.LittleEndian, m.Updated.Unix()); err != nil {
		return nil, err
	}
	if err := binary.Write(&header, binary.LittleEndian, uint32(len(m.Entries))); err != nil {
		return nil, err
	}

	var rows bytes.Buffer
	for _, e := range m.Entries {
		if err := writeString(&rows, e.Path); err != nil {
			return nil, err
		}
		if err := binary.Write(&rows, binary.LittleEndian, e.Size); err != nil {
			return nil, err
		}
		if err := binary.Write(&rows, binary.LittleEndian, e.MtimeSecs); err != nil {
			return nil, err
		}
		if err := binary.Write(&rows, binary.LittleEndian, e.Permissions); err != nil {
			return nil, err
		}
		if err := binary.Write(&rows, binary.LittleEndian, e.HasHash); err != nil {
			return nil, err
		}
		if e.HasHash {
			if err := writeString(&rows, e.HashAlgorithm); err != nil {
				return nil, err
			}
			if err := binary.Write(&rows, binary.LittleEndian, e.Hash); err != nil {
				return nil, err
			}
		}
		if err := writeBytes(&rows, e.RawPathBytes); err != nil {
			return nil, err
		}
	}

	// Trailing CRC32 of the row section lets a reader detect a truncated
	// or bit-flipped file (ManifestCorrupt) without fully decoding it.
	footer := crc32.ChecksumIEEE(rows.Bytes())

	var out bytes.Buffer
	out.Write(header.Bytes())
	out.Write(rows.Bytes())
	if err := binary.Write(&out, binary.LittleEndian, footer); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

func decodeBinary(data []byte) (Manifest, error) {
	const footerSize = 4
	if len(data) < footerSize {
		return Manifest{}, coreerrors.ManifestCorrupt("", "truncated manifest: missing crc footer")
	}
	body := data[:len(data)-footerSize]
	wantCRC := binary.LittleEndian.Uint32(data[len(data)-footerSize:])

	r := bytes.NewReader(body)
	var magic uint32
	if err := binary.Read(r, binary.LittleEndian, &magic); err != nil || magic != binaryMagic {
		return Manifest{}, coreerrors.ManifestCorrupt("", "invalid binary manifest magic")
	}

	version, err := readString(r)
	if err != nil {
		return Manifest{}, coreerrors.ManifestCorrupt("", "truncated version field")
	}
	sourceRoot, err := readString(r)
	if err != nil {
		return Manifest{}, coreerrors.ManifestCorrupt("", "truncated source_root field")
	}
	destRoot, err := readString(r)
	if err != nil {
		return Manifest{}, coreerrors.ManifestCorrupt("", "truncated dest_root field")
	}
	var created, updated int64
	if err := binary.Read(r, binary.LittleEndian, &created); err != nil {
		return Manifest{}, coreerrors.ManifestCorrupt("", "truncated created field")
	}
	if err := binary.Read(r, binary.LittleEndian, &updated); err != nil {
		return Manifest{}, coreerrors.ManifestCorrupt("", "truncated updated field")
	}
	var count uint32
	if err := binary.Read(r, binary.LittleEndian, &count); err != nil {
		return Manifest{}, coreerrors.ManifestCorrupt("", "truncated entry count")
	}

	m := Manifest{
		Version:    version,
		SourceRoot: sourceRoot,
		DestRoot:   destRoot,
		Created:    time.Unix(created, 0).UTC(),
		Updated:    time.Unix(updated, 0).UTC(),
	}

	rowStart := len(body) - r.Len()
	if crc32.ChecksumIEEE(body[rowStart:]) != wantCRC {
		return Manifest{}, coreerrors.ManifestCorrupt("", "row section crc32 mismatch")
	}

	for i := uint32(0); i < count; i++ {
		path, err := readString(r)
		if err != nil {
			return Manifest{}, coreerrors.ManifestCorrupt("", "truncated entry path")
		}
		e := Entry{Path: path}
		if err := binary.Read(r, binary.LittleEndian, &e.Size); err != nil {
			return Manifest{}, coreerrors.ManifestCorrupt("", "truncated entry size")
		}
		if err := binary.Read(r, binary.LittleEndian, &e.MtimeSecs); err != nil {
			return Manifest{}, coreerrors.ManifestCorrupt("", "truncated entry mtime")
		}
		if err := binary.Read(r, binary.LittleEndian, &e.Permissions); err != nil {
			return Manifest{}, coreerrors.ManifestCorrupt("", "truncated entry permissions")
		}
		if err := binary.Read(r, binary.LittleEndian, &e.HasHash); err != nil {
			return Manifest{}, coreerrors.ManifestCorrupt("", "truncated entry hash flag")
		}
		if e.HasHash {
			alg, err := readString(r)
			if err != nil {
				return Manifest{}, coreerrors.ManifestCorrupt("", "truncated hash algorithm")
			}
			e.HashAlgorithm = alg
			if err := binary.Read(r, binary.LittleEndian, &e.Hash); err != nil {
				return Manifest{}, coreerrors.ManifestCorrupt("", "truncated hash value")
			}
		}
		raw, err := readBytes(r)
		if err != nil {
			return Manifest{}, coreerrors.ManifestCorrupt("", "truncated raw path bytes")
		}
		e.RawPathBytes = raw
		m.Entries = append(m.Entries, e)
	}

	m.recomputeTotals()
	return m, nil
}
