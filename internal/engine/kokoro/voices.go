package kokoro

import (
	"archive/zip"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

// styleDim is the Kokoro style embedding width. Voice files carry one
// style row per input length (shape [N, 1, 256]); Style picks the row
// matching the token count.
const styleDim = 256

// VoiceStore holds the style embeddings loaded from a voices.npz
// archive or a directory of .npy files.
type VoiceStore struct {
	voices map[string][]float32
}

// LoadVoices reads voice embeddings from path: an .npz archive, or a
// directory containing one .npy per voice.
func LoadVoices(path string) (*VoiceStore, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat voices path: %w", err)
	}
	if info.IsDir() {
		return loadVoicesDir(path)
	}
	return loadVoicesNPZ(path)
}

func loadVoicesNPZ(path string) (*VoiceStore, error) {
	r, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("open voices archive: %w", err)
	}
	defer r.Close()

	store := &VoiceStore{voices: make(map[string][]float32)}
	for _, f := range r.File {
		if !strings.HasSuffix(f.Name, ".npy") {
			continue
		}
		name := strings.TrimSuffix(filepath.Base(f.Name), ".npy")

		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", f.Name, err)
		}
		data, err := readNpyFloat32(rc)
		rc.Close()
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", f.Name, err)
		}
		store.voices[name] = data
	}

	if len(store.voices) == 0 {
		return nil, fmt.Errorf("voices archive %s holds no .npy entries", path)
	}
	return store, nil
}

func loadVoicesDir(dir string) (*VoiceStore, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read voices directory: %w", err)
	}

	store := &VoiceStore{voices: make(map[string][]float32)}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".npy") {
			continue
		}
		name := strings.TrimSuffix(entry.Name(), ".npy")

		f, err := os.Open(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", entry.Name(), err)
		}
		data, err := readNpyFloat32(f)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", entry.Name(), err)
		}
		store.voices[name] = data
	}

	if len(store.voices) == 0 {
		return nil, fmt.Errorf("voices directory %s holds no .npy files", dir)
	}
	return store, nil
}

// Style returns the 256-wide style vector for a voice, selecting the
// row matching tokenLen when the voice carries per-length rows.
func (v *VoiceStore) Style(name string, tokenLen int) ([]float32, error) {
	data, ok := v.voices[name]
	if !ok {
		return nil, fmt.Errorf("voice not found: %s", name)
	}
	if len(data) < styleDim || len(data)%styleDim != 0 {
		return nil, fmt.Errorf("voice %s has malformed embedding of %d floats", name, len(data))
	}

	rows := len(data) / styleDim
	row := tokenLen
	if row >= rows {
		row = rows - 1
	}
	if row < 0 {
		row = 0
	}
	return data[row*styleDim : (row+1)*styleDim], nil
}

// Has reports whether a voice is present.
func (v *VoiceStore) Has(name string) bool {
	_, ok := v.voices[name]
	return ok
}

// List returns the voice names, sorted.
func (v *VoiceStore) List() []string {
	names := make([]string, 0, len(v.voices))
	for name := range v.voices {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// readNpyFloat32 parses a NumPy .npy payload of float32 or float16
// values, returning them as float32.
func readNpyFloat32(r io.Reader) ([]float32, error) {
	magic := make([]byte, 6)
	if _, err := io.ReadFull(r, magic); err != nil {
		return nil, fmt.Errorf("read magic: %w", err)
	}
	if string(magic) != "\x93NUMPY" {
		return nil, fmt.Errorf("invalid NPY magic number")
	}

	version := make([]byte, 2)
	if _, err := io.ReadFull(r, version); err != nil {
		return nil, fmt.Errorf("read version: %w", err)
	}

	var headerLen uint32
	if version[0] == 1 {
		var hl uint16
		if err := binary.Read(r, binary.LittleEndian, &hl); err != nil {
			return nil, fmt.Errorf("read header length: %w", err)
		}
		headerLen = uint32(hl)
	} else {
		if err := binary.Read(r, binary.LittleEndian, &headerLen); err != nil {
			return nil, fmt.Errorf("read header length: %w", err)
		}
	}

	header := make([]byte, headerLen)
	if _, err := io.ReadFull(r, header); err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	headerStr := string(header)

	shape, err := parseNpyShape(headerStr)
	if err != nil {
		return nil, err
	}
	total := 1
	for _, dim := range shape {
		total *= dim
	}

	switch {
	case strings.Contains(headerStr, "'<f2'") || strings.Contains(headerStr, "descr': '<f2"):
		raw := make([]uint16, total)
		if err := binary.Read(r, binary.LittleEndian, raw); err != nil {
			return nil, fmt.Errorf("read float16 data: %w", err)
		}
		out := make([]float32, total)
		for i, h := range raw {
			out[i] = float16ToFloat32(h)
		}
		return out, nil
	case strings.Contains(headerStr, "'<f4'") || strings.Contains(headerStr, "descr': '<f4"):
		out := make([]float32, total)
		if err := binary.Read(r, binary.LittleEndian, out); err != nil {
			return nil, fmt.Errorf("read float32 data: %w", err)
		}
		return out, nil
	}
	return nil, fmt.Errorf("unsupported dtype in NPY header: %s", headerStr)
}

func parseNpyShape(header string) ([]int, error) {
	start := strings.Index(header, "'shape': (")
	if start == -1 {
		start = strings.Index(header, "\"shape\": (")
	}
	if start == -1 {
		return nil, fmt.Errorf("shape not found in NPY header")
	}
	start += len("'shape': (")

	end := strings.Index(header[start:], ")")
	if end == -1 {
		return nil, fmt.Errorf("invalid NPY shape format")
	}

	shapeStr := strings.TrimSpace(header[start : start+end])
	if shapeStr == "" {
		return []int{1}, nil
	}
	shapeStr = strings.TrimSuffix(shapeStr, ",")

	var shape []int
	for _, p := range strings.Split(shapeStr, ",") {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		var dim int
		if _, err := fmt.Sscanf(p, "%d", &dim); err != nil {
			return nil, fmt.Errorf("invalid NPY dimension: %s", p)
		}
		shape = append(shape, dim)
	}
	if len(shape) == 0 {
		return []int{1}, nil
	}
	return shape, nil
}

func float16ToFloat32(h uint16) float32 {
	sign := uint32((h >> 15) & 1)
	exp := uint32((h >> 10) & 0x1F)
	mant := uint32(h & 0x3FF)

	var f uint32
	switch {
	case exp == 0:
		if mant == 0 {
			f = sign << 31
		} else {
			for (mant & 0x400) == 0 {
				mant <<= 1
				exp--
			}
			exp++
			mant &= 0x3FF
			f = (sign << 31) | ((exp + 127 - 15) << 23) | (mant << 13)
		}
	case exp == 31:
		if mant == 0 {
			f = (sign << 31) | 0x7F800000
		} else {
			f = (sign << 31) | 0x7FC00000 | (mant << 13)
		}
	default:
		f = (sign << 31) | ((exp + 127 - 15) << 23) | (mant << 13)
	}

	return math.Float32frombits(f)
}
