package codec

import (
	"bytes"
	"io"

	"github.com/klauspost/compress/zlib"
)

// ZlibCodec is the production Codec, backed by klauspost/compress's
// zlib-compatible implementation rather than the stdlib one. The wire
// format produced/consumed is identical (RFC 1950); klauspost's
// version is a drop-in replacement that is simply faster.
type ZlibCodec struct {
	// Level is the compression level passed to zlib.NewWriterLevel.
	// Zero uses the package default.
	Level int
}

// NewZlibCodec returns a ZlibCodec using the given compression level.
// A level of 0 selects flate.DefaultCompression.
func NewZlibCodec(level int) *ZlibCodec {
	return &ZlibCodec{Level: level}
}

// countingReader tracks how many bytes have been read off the
// underlying reader, so Inflate can report exactly how far the
// caller's cursor should advance regardless of how much zlib chose to
// buffer internally.
//
// It also forwards ReadByte when the wrapped reader supports it. That
// matters: compress/flate's decompressor checks whether its source
// already satisfies io.Reader+io.ByteReader and, if so, reads it
// directly one byte at a time instead of wrapping it in its own
// private 4KB bufio.Reader. Without ReadByte here, flate would pull
// ahead into its own hidden buffer whenever r is a small, shared
// *bufio.Reader (as pack.Parser uses across entries), and any
// bytes it over-read into the next entry would be lost once this
// Inflate call's zlib.Reader is discarded.
type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}

func (c *countingReader) ReadByte() (byte, error) {
	br, ok := c.r.(io.ByteReader)
	if !ok {
		var b [1]byte
		n, err := c.r.Read(b[:])
		c.n += int64(n)
		if n == 1 {
			return b[0], nil
		}
		if err == nil {
			err = io.ErrNoProgress
		}
		return 0, err
	}
	b, err := br.ReadByte()
	if err != nil {
		return 0, err
	}
	c.n++
	return b, nil
}

// Inflate decompresses exactly expected bytes from r. Once those
// bytes are in hand it keeps draining r until the zlib stream's own
// EOF, so the trailing 4-byte Adler32 checksum gets read and verified
// off r too — skipping that would leave a caller reading several
// entries off one shared buffered reader mis-positioned by those 4
// bytes for the next entry. consumed reports how many bytes were
// pulled off r for this call; when r itself implements io.ByteReader
// (a *bufio.Reader does) countingReader's ReadByte forwarding keeps
// flate from wrapping r in its own private read-ahead buffer, so
// consumed is exact and a caller juggling several entries off one
// shared *bufio.Reader can also track its own absolute position
// instead (pack.Parser does that and ignores consumed).
func (z *ZlibCodec) Inflate(r io.Reader, expected int) (data []byte, consumed int64, err error) {
	cr := &countingReader{r: r}
	zr, err := zlib.NewReader(cr)
	if err != nil {
		return nil, 0, err
	}
	defer zr.Close() //nolint:errcheck // read error, if any, already surfaced below

	buf := make([]byte, expected)
	n, err := io.ReadFull(zr, buf)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return nil, 0, err
	}
	if n != expected {
		return nil, 0, io.ErrUnexpectedEOF
	}
	if _, err := io.Copy(io.Discard, zr); err != nil {
		return nil, 0, err
	}
	return buf[:n], cr.n, nil
}

// Deflate produces a self-contained zlib stream of data.
func (z *ZlibCodec) Deflate(data []byte) ([]byte, error) {
	level := z.Level
	if level == 0 {
		level = zlib.DefaultCompression
	}
	var buf bytes.Buffer
	zw, err := zlib.NewWriterLevel(&buf, level)
	if err != nil {
		return nil, err
	}
	if _, err := zw.Write(data); err != nil {
		zw.Close() //nolint:errcheck // we already have the real error
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
