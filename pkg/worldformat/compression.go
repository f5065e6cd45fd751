package worldformat

import (
	"bytes"
	"io"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zlib"
	"github.com/pierrec/lz4/v4"
)

// scheme is the one-byte compression-scheme tag read from a region chunk
// header (§4.5 step 7).
type scheme byte

const (
	schemeGZip    scheme = 1
	schemeZLib    scheme = 2
	schemeNone    scheme = 3
	schemeLZ4     scheme = 4
	schemeCustom  scheme = 127
)

func (s scheme) decompress(data []byte) ([]byte, error) {
	switch s {
	case schemeGZip:
		r, err := gzip.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, &CompressionError{Scheme: "gzip", Err: err}
		}
		defer r.Close()
		out, err := io.ReadAll(r)
		if err != nil {
			return nil, &CompressionError{Scheme: "gzip", Err: err}
		}
		return out, nil
	case schemeZLib:
		r, err := zlib.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, &CompressionError{Scheme: "zlib", Err: err}
		}
		defer r.Close()
		out, err := io.ReadAll(r)
		if err != nil {
			return nil, &CompressionError{Scheme: "zlib", Err: err}
		}
		return out, nil
	case schemeNone:
		return data, nil
	case schemeLZ4:
		r := lz4.NewReader(bytes.NewReader(data))
		out, err := io.ReadAll(r)
		if err != nil {
			return nil, &CompressionError{Scheme: "lz4", Err: err}
		}
		return out, nil
	default:
		return nil, &UnsupportedCompressionError{Scheme: byte(s)}
	}
}

func parseScheme(b byte) (scheme, error) {
	switch b {
	case 1, 2, 3, 4:
		return scheme(b), nil
	case 127:
		return 0, &UnsupportedCompressionError{Scheme: b}
	default:
		return 0, &UnsupportedCompressionError{Scheme: b}
	}
}
