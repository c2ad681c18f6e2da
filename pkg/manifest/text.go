package manifest

import (
	"encoding/base64"
	"strconv"
	"strings"
	"time"

	"github.com/valyala/bytebufferpool"

	"smartcopy/pkg/coreerrors"
)

// Text format: one header line, then one row per entry, tab-separated.
// Chosen for human inspection (spec §4.7 "row-oriented textual format
// for small manifests and human inspection"); bytebufferpool avoids
// per-save allocation churn for large manifests the same way the
// teacher pack uses it for streaming registry payloads.
const textMagic = "smartcopy-manifest-v1"

func encodeText(m Manifest) []byte {
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	buf.WriteString(textMagic)
	buf.WriteByte('\t')
	buf.WriteString(m.Version)
	buf.WriteByte('\t')
	buf.WriteString(m.SourceRoot)
	buf.WriteByte('\t')
	buf.WriteString(m.DestRoot)
	buf.WriteByte('\t')
	buf.WriteString(strconv.FormatInt(m.Created.Unix(), 10))
	buf.WriteByte('\t')
	buf.WriteString(strconv.FormatInt(m.Updated.Unix(), 10))
	buf.WriteByte('\n')

	for _, e := range m.Entries {
		buf.WriteString(e.Path)
		buf.WriteByte('\t')
		buf.WriteString(strconv.FormatInt(e.Size, 10))
		buf.WriteByte('\t')
		buf.WriteString(strconv.FormatInt(e.MtimeSecs, 10))
		buf.WriteByte('\t')
		buf.WriteString(strconv.FormatUint(uint64(e.Permissions), 10))
		buf.WriteByte('\t')
		if e.HasHash {
			buf.WriteString(e.HashAlgorithm)
			buf.WriteByte('\t')
			buf.WriteString(strconv.FormatUint(e.Hash, 16))
		} else {
			buf.WriteByte('\t')
		}
		buf.WriteByte('\t')
		if len(e.RawPathBytes) > 0 {
			buf.WriteString(base64.StdEncoding.EncodeToString(e.RawPathBytes))
		}
		buf.WriteByte('\n')
	}

	out := make([]byte, buf.Len())
	copy(out, buf.Bytes())
	return out
}

func decodeText(data []byte) (Manifest, error) {
	lines := strings.Split(string(data), "\n")
	if len(lines) == 0 || lines[0] == "" {
		return Manifest{}, coreerrors.ManifestCorrupt("", "empty manifest text")
	}

	header := strings.Split(lines[0], "\t")
	if len(header) != 6 || header[0] != textMagic {
		return Manifest{}, coreerrors.ManifestCorrupt("", "invalid manifest header")
	}
	created, err1 := strconv.ParseInt(header[4], 10, 64)
	updated, err2 := strconv.ParseInt(header[5], 10, 64)
	if err1 != nil || err2 != nil {
		return Manifest{}, coreerrors.ManifestCorrupt("", "invalid manifest timestamps")
	}

	m := Manifest{
		Version:    header[1],
		SourceRoot: header[2],
		DestRoot:   header[3],
		Created:    time.Unix(created, 0).UTC(),
		Updated:    time.Unix(updated, 0).UTC(),
	}

	for _, line := range lines[1:] {
		if line == "" {
			continue
		}
		fields := strings.Split(line, "\t")
		if len(fields) != 7 {
			return Manifest{}, coreerrors.ManifestCorrupt("", "malformed manifest row")
		}
		size, err := strconv.ParseInt(fields[1], 10, 64)
		if err != nil {
			return Manifest{}, coreerrors.ManifestCorrupt("", "invalid entry size")
		}
		mtime, err := strconv.ParseInt(fields[2], 10, 64)
		if err != nil {
			return Manifest{}, coreerrors.ManifestCorrupt("", "invalid entry mtime")
		}
		perm, err := strconv.ParseUint(fields[3], 10, 32)
		if err != nil {
			return Manifest{}, coreerrors.ManifestCorrupt("", "invalid entry permissions")
		}
		e := Entry{
			Path:        fields[0],
			Size:        size,
			MtimeSecs:   mtime,
			Permissions: uint32(perm),
		}
		if fields[4] != "" {
			hash, err := strconv.ParseUint(fields[5], 16, 64)
			if err != nil {
				return Manifest{}, coreerrors.ManifestCorrupt("", "invalid entry hash")
			}
			e.HasHash = true
			e.HashAlgorithm = fields[4]
			e.Hash = hash
		}
		if fields[6] != "" {
			raw, err := base64.StdEncoding.DecodeString(fields[6])
			if err != nil {
				return Manifest{}, coreerrors.ManifestCorrupt("", "invalid raw path bytes")
			}
			e.RawPathBytes = raw
		}
		m.Entries = append(m.Entries, e)
	}

	m.recomputeTotals()
	return m, nil
}
