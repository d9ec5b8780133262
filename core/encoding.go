/*
 * This file is subject to the terms and conditions defined in
 * file 'LICENSE', which is part of this source code package.
 */

package core

import (
	"bytes"
	"compress/flate"
	stdlzw "compress/lzw"
	"compress/zlib"
	"fmt"
	"io"

	xlzw "golang.org/x/image/tiff/lzw"
)

// StreamEncoder is the narrow interface every stream filter implements.
// Passes call DecodeBytes/EncodeBytes directly; the chain
// dispatch that resolves a stream's Filter/DecodeParms entries into a
// sequence of these lives on Document, below.
type StreamEncoder interface {
	GetFilterName() Name
	DecodeBytes(data []byte) ([]byte, error)
	EncodeBytes(data []byte) ([]byte, error)
}

// imageNativeFilters never get decoded by the generic chain; they are
// recognized and passed through to the image pass instead.
var imageNativeFilters = map[Name]bool{
	"DCTDecode": true, "DCT": true,
	"JPXDecode":      true,
	"CCITTFaxDecode": true, "CCF": true,
	"JBIG2Decode": true,
}

// IsImageNativeFilterName reports whether name is one of the recognized
// image-native filters.
func IsImageNativeFilterName(name Name) bool { return imageNativeFilters[name] }

var decodableFilters = map[Name]bool{
	"FlateDecode": true, "Fl": true,
	"LZWDecode": true, "LZW": true,
	"ASCII85Decode": true, "A85": true,
	"ASCIIHexDecode": true, "AHx": true,
	"RunLengthDecode": true, "RL": true,
}

// --- FlateEncoder ---

// FlateEncoder implements FlateDecode, including PNG/TIFF predictor undo.
type FlateEncoder struct {
	Predictor        int
	Colors           int
	BitsPerComponent int
	Columns          int
}

// NewFlateEncoder returns a FlateEncoder with the PDF defaults (no
// predictor, one grayscale 8-bit color component per "pixel").
func NewFlateEncoder() *FlateEncoder {
	return &FlateEncoder{Colors: 1, BitsPerComponent: 8, Columns: 1}
}

func (e *FlateEncoder) GetFilterName() Name { return "FlateDecode" }

func (e *FlateEncoder) DecodeBytes(data []byte) ([]byte, error) {
	r, err := zlib.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer r.Close()
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return e.postDecodePredict(raw)
}

// EncodeBytes deflates at the maximum compression level; every stream the
// pipeline re-emits is compressed as hard as the codec allows.
func (e *FlateEncoder) EncodeBytes(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	w, err := zlib.NewWriterLevel(&buf, flate.BestCompression)
	if err != nil {
		return nil, err
	}
	if _, err := w.Write(data); err != nil {
		w.Close()
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (e *FlateEncoder) postDecodePredict(data []byte) ([]byte, error) {
	if e.Predictor <= 1 {
		return data, nil
	}
	bpc := e.BitsPerComponent
	if bpc == 0 {
		bpc = 8
	}
	colors := e.Colors
	if colors == 0 {
		colors = 1
	}
	columns := e.Columns
	if columns == 0 {
		columns = 1
	}
	bytesPerPixel := (colors*bpc + 7) / 8
	if bytesPerPixel < 1 {
		bytesPerPixel = 1
	}
	if e.Predictor == 2 {
		return undoTIFFPrediction(data, columns, colors), nil
	}
	if e.Predictor >= 10 {
		return undoPNGPrediction(data, columns, bytesPerPixel)
	}
	return data, fmt.Errorf("unsupported predictor %d", e.Predictor)
}

// --- LZWEncoder ---

// LZWEncoder implements LZWDecode: variable-width (9-12 bit) MSB-first
// codes with CLEAR=256/EOD=257 and an EarlyChange toggle.
// PDF's default EarlyChange=1 matches TIFF's LZW variant (the code width
// grows one code early); EarlyChange=0 matches the plain GIF-style
// behavior stdlib's compress/lzw implements in MSB order. The two only
// diverge in that boundary case, so the decoder dispatches between the
// x/image TIFF-flavored reader and stdlib's, instead of hand-rolling a
// third implementation.
type LZWEncoder struct {
	EarlyChange      int
	Predictor        int
	Colors           int
	BitsPerComponent int
	Columns          int
}

// NewLZWEncoder returns an LZWEncoder with PDF's default EarlyChange=1.
func NewLZWEncoder() *LZWEncoder {
	return &LZWEncoder{EarlyChange: 1, Colors: 1, BitsPerComponent: 8, Columns: 1}
}

func (e *LZWEncoder) GetFilterName() Name { return "LZWDecode" }

func (e *LZWEncoder) DecodeBytes(data []byte) ([]byte, error) {
	var raw []byte
	var err error
	if e.EarlyChange == 0 {
		r := stdlzw.NewReader(bytes.NewReader(data), stdlzw.MSB, 8)
		defer r.Close()
		raw, err = io.ReadAll(r)
	} else {
		r := xlzw.NewReader(bytes.NewReader(data), xlzw.MSB, 8)
		defer r.Close()
		raw, err = io.ReadAll(r)
	}
	if err != nil {
		return nil, err
	}
	fe := &FlateEncoder{Predictor: e.Predictor, Colors: e.Colors, BitsPerComponent: e.BitsPerComponent, Columns: e.Columns}
	return fe.postDecodePredict(raw)
}

// EncodeBytes is not implemented: the pipeline never re-emits LZW-encoded
// streams, only FlateDecode ones, so there is no
// caller for this direction.
func (e *LZWEncoder) EncodeBytes(data []byte) ([]byte, error) {
	return nil, fmt.Errorf("LZW encoding is not supported; the pipeline only re-deflates")
}

// --- ASCII85Encoder ---

// ASCII85Encoder implements ASCII85Decode, including the "z" shorthand for
// four zero bytes and the "~>" terminator.
type ASCII85Encoder struct{}

func (e *ASCII85Encoder) GetFilterName() Name { return "ASCII85Decode" }

func (e *ASCII85Encoder) DecodeBytes(data []byte) ([]byte, error) {
	var out bytes.Buffer
	var group [5]byte
	n := 0
	flush := func(count int) error {
		if count == 0 {
			return nil
		}
		for i := count; i < 5; i++ {
			group[i] = 'u'
		}
		var v uint32
		for _, c := range group {
			if c < '!' || c > 'u' {
				return fmt.Errorf("invalid ASCII85 byte %q", c)
			}
			v = v*85 + uint32(c-'!')
		}
		b := [4]byte{byte(v >> 24), byte(v >> 16), byte(v >> 8), byte(v)}
		out.Write(b[:count-1])
		return nil
	}
	for i := 0; i < len(data); i++ {
		c := data[i]
		if IsWhiteSpace(c) {
			continue
		}
		if c == '~' {
			break
		}
		if c == 'z' && n == 0 {
			out.Write([]byte{0, 0, 0, 0})
			continue
		}
		group[n] = c
		n++
		if n == 5 {
			if err := flush(5); err != nil {
				return nil, err
			}
			n = 0
		}
	}
	if n > 0 {
		if err := flush(n); err != nil {
			return nil, err
		}
	}
	return out.Bytes(), nil
}

func (e *ASCII85Encoder) EncodeBytes(data []byte) ([]byte, error) {
	var out bytes.Buffer
	for i := 0; i < len(data); i += 4 {
		end := i + 4
		if end > len(data) {
			end = len(data)
		}
		chunk := data[i:end]
		var group [4]byte
		copy(group[:], chunk)
		v := uint32(group[0])<<24 | uint32(group[1])<<16 | uint32(group[2])<<8 | uint32(group[3])
		if len(chunk) == 4 && v == 0 {
			out.WriteByte('z')
			continue
		}
		var enc [5]byte
		for j := 4; j >= 0; j-- {
			enc[j] = byte(v%85) + '!'
			v /= 85
		}
		out.Write(enc[:len(chunk)+1])
	}
	out.WriteString("~>")
	return out.Bytes(), nil
}

// --- ASCIIHexEncoder ---

// ASCIIHexEncoder implements ASCIIHexDecode: whitespace-tolerant,
// zero-padded on odd digit count.
type ASCIIHexEncoder struct{}

func (e *ASCIIHexEncoder) GetFilterName() Name { return "ASCIIHexDecode" }

func (e *ASCIIHexEncoder) DecodeBytes(data []byte) ([]byte, error) {
	var digits []byte
	for _, c := range data {
		if c == '>' {
			break
		}
		if IsWhiteSpace(c) {
			continue
		}
		if !IsHexDigit(c) {
			return nil, fmt.Errorf("invalid ASCIIHex digit %q", c)
		}
		digits = append(digits, c)
	}
	if len(digits)%2 != 0 {
		digits = append(digits, '0')
	}
	out := make([]byte, len(digits)/2)
	for i := 0; i < len(out); i++ {
		hi := hexVal(digits[2*i])
		lo := hexVal(digits[2*i+1])
		out[i] = hi<<4 | lo
	}
	return out, nil
}

func hexVal(c byte) byte {
	switch {
	case c >= '0' && c <= '9':
		return c - '0'
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10
	}
	return 0
}

func (e *ASCIIHexEncoder) EncodeBytes(data []byte) ([]byte, error) {
	var out bytes.Buffer
	for _, b := range data {
		fmt.Fprintf(&out, "%02X", b)
	}
	out.WriteByte('>')
	return out.Bytes(), nil
}

// --- RunLengthEncoder ---

// RunLengthEncoder implements RunLengthDecode: a length byte 0-127 is a
// literal run of length+1 bytes, 129-255 repeats the next byte
// (257-length) times, and 128 is EOD.
type RunLengthEncoder struct{}

func (e *RunLengthEncoder) GetFilterName() Name { return "RunLengthDecode" }

func (e *RunLengthEncoder) DecodeBytes(data []byte) ([]byte, error) {
	var out bytes.Buffer
	i := 0
	for i < len(data) {
		length := data[i]
		i++
		switch {
		case length == 128:
			return out.Bytes(), nil
		case length < 128:
			end := i + int(length) + 1
			if end > len(data) {
				return nil, fmt.Errorf("truncated RunLength literal run")
			}
			out.Write(data[i:end])
			i = end
		default:
			if i >= len(data) {
				return nil, fmt.Errorf("truncated RunLength repeat run")
			}
			count := 257 - int(length)
			b := data[i]
			i++
			for j := 0; j < count; j++ {
				out.WriteByte(b)
			}
		}
	}
	return out.Bytes(), nil
}

func (e *RunLengthEncoder) EncodeBytes(data []byte) ([]byte, error) {
	var out bytes.Buffer
	i := 0
	for i < len(data) {
		j := i + 1
		for j < len(data) && j-i < 128 && data[j] == data[i] {
			j++
		}
		if j-i >= 2 {
			out.WriteByte(byte(257 - (j - i)))
			out.WriteByte(data[i])
			i = j
			continue
		}
		k := i + 1
		for k < len(data) && k-i < 128 {
			if k+1 < len(data) && data[k] == data[k+1] {
				break
			}
			k++
		}
		out.WriteByte(byte(k - i - 1))
		out.Write(data[i:k])
		i = k
	}
	out.WriteByte(128)
	return out.Bytes(), nil
}

// --- RawEncoder ---

// RawEncoder is the identity filter, the fallback newEncoderForName returns
// for any name outside the decodable set. DecodeStream rejects such names
// before dispatch, and a stream with no Filter entry needs no encoder.
type RawEncoder struct{}

func (e *RawEncoder) GetFilterName() Name                     { return "" }
func (e *RawEncoder) DecodeBytes(data []byte) ([]byte, error) { return data, nil }
func (e *RawEncoder) EncodeBytes(data []byte) ([]byte, error) { return data, nil }

// --- dispatch ---

func newEncoderForName(name Name, parms *Dict) StreamEncoder {
	intParm := func(key Name, def int) int {
		if parms == nil {
			return def
		}
		if v, ok := GetIntVal(parms.Get(key)); ok {
			return int(v)
		}
		return def
	}
	switch name {
	case "FlateDecode", "Fl":
		return &FlateEncoder{
			Predictor:        intParm("Predictor", 1),
			Colors:           intParm("Colors", 1),
			BitsPerComponent: intParm("BitsPerComponent", 8),
			Columns:          intParm("Columns", 1),
		}
	case "LZWDecode", "LZW":
		return &LZWEncoder{
			EarlyChange:      intParm("EarlyChange", 1),
			Predictor:        intParm("Predictor", 1),
			Colors:           intParm("Colors", 1),
			BitsPerComponent: intParm("BitsPerComponent", 8),
			Columns:          intParm("Columns", 1),
		}
	case "ASCII85Decode", "A85":
		return &ASCII85Encoder{}
	case "ASCIIHexDecode", "AHx":
		return &ASCIIHexEncoder{}
	case "RunLengthDecode", "RL":
		return &RunLengthEncoder{}
	default:
		return &RawEncoder{}
	}
}

// filterChain returns the ordered list of filter names and, positionally,
// their DecodeParms dictionaries (resolving one level of indirection via
// doc, since both Filter and DecodeParms may themselves be references).
func (doc *Document) filterChain(d *Dict) ([]Name, []*Dict) {
	var names []Name
	switch v := doc.Resolve(d.Get("Filter")).(type) {
	case Name:
		names = []Name{v}
	case *Array:
		for _, e := range v.Elements {
			if n, ok := doc.Resolve(e).(Name); ok {
				names = append(names, n)
			}
		}
	}
	parms := make([]*Dict, len(names))
	dp := d.Get("DecodeParms")
	if dp == nil {
		dp = d.Get("DP")
	}
	switch v := doc.Resolve(dp).(type) {
	case *Dict:
		if len(parms) > 0 {
			parms[0] = v
		}
	case *Array:
		for i := 0; i < len(parms) && i < v.Len(); i++ {
			if pd, ok := doc.Resolve(v.Get(i)).(*Dict); ok {
				parms[i] = pd
			}
		}
	}
	return names, parms
}

// FilterNames returns the ordered filter names declared by s, resolving a
// single name or an array of names alike.
func (doc *Document) FilterNames(s *Stream) []Name {
	names, _ := doc.filterChain(s.Dict)
	return names
}

// AllFiltersDecodable reports whether every filter in s's chain is one
// this engine can decode. Image-native filters and unknown filter names
// both make this false; passes check it before calling DecodeStream.
func (doc *Document) AllFiltersDecodable(s *Stream) bool {
	names, _ := doc.filterChain(s.Dict)
	for _, n := range names {
		if !decodableFilters[n] {
			return false
		}
	}
	return true
}

// HasImageNativeFilter reports whether s's filter chain contains any of
// DCTDecode, JPXDecode, CCITTFaxDecode, JBIG2Decode.
func (doc *Document) HasImageNativeFilter(s *Stream) bool {
	names, _ := doc.filterChain(s.Dict)
	for _, n := range names {
		if IsImageNativeFilterName(n) {
			return true
		}
	}
	return false
}

// DecodeStream applies s's filter chain in declaration order (the Filter
// array lists filters in the order they are applied during decoding) and
// returns the fully decoded payload. Callers must check
// AllFiltersDecodable first; DecodeStream returns an error if any filter
// in the chain is unknown.
func (doc *Document) DecodeStream(s *Stream) ([]byte, error) {
	names, parms := doc.filterChain(s.Dict)
	data := s.Data
	for i := 0; i < len(names); i++ {
		name := names[i]
		if !decodableFilters[name] {
			return nil, fmt.Errorf("cannot decode filter %s", name)
		}
		enc := newEncoderForName(name, parms[i])
		var err error
		data, err = enc.DecodeBytes(data)
		if err != nil {
			return nil, fmt.Errorf("decoding %s: %w", name, err)
		}
	}
	return data, nil
}

// ReplaceWithFlate re-deflates raw at maximum level and overwrites s's
// dictionary and payload in place: Filter becomes the single name
// FlateDecode, DecodeParms is removed, and Length is updated.
func ReplaceWithFlate(s *Stream, raw []byte) error {
	enc := NewFlateEncoder()
	encoded, err := enc.EncodeBytes(raw)
	if err != nil {
		return err
	}
	s.Data = encoded
	s.Dict.Set("Filter", Name("FlateDecode"))
	s.Dict.Delete("DecodeParms")
	s.Dict.Delete("DP")
	s.Dict.Set("Length", Integer(int64(len(encoded))))
	return nil
}
