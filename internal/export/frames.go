package export

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/klauspost/compress/zstd"

	"goi/internal/core"
)

// FrameFormat identifies the layout of a frame stream. It is written as the
// first JSON line of every stream.
const FrameFormat = "goi-frames/1"

// ErrFrameFormat reports a stream that does not start with a known header or
// holds a frame inconsistent with it.
var ErrFrameFormat = errors.New("export: unrecognised frame stream")

// Header is the first line of a frame stream.
type Header struct {
	Format string `json:"format"`
	Rows   int    `json:"rows"`
	Cols   int    `json:"cols"`
}

// Frame is one generation. Cells are row-major faction ids.
type Frame struct {
	Generation int     `json:"generation"`
	Rows       int     `json:"rows"`
	Cols       int     `json:"cols"`
	Cells      []uint8 `json:"cells"`
}

// NewFrame captures g as a frame.
func NewFrame(generation int, g *core.Grid) Frame {
	return Frame{Generation: generation, Rows: g.Rows, Cols: g.Cols, Cells: g.Bytes()}
}

// Grid rebuilds the frame's grid.
func (f Frame) Grid() *core.Grid {
	cells := make([]core.Faction, len(f.Cells))
	for i, v := range f.Cells {
		cells[i] = core.Faction(v)
	}
	return core.GridFrom(f.Rows, f.Cols, cells)
}

// FrameWriter streams frames as zstd-compressed JSON lines.
type FrameWriter struct {
	f   *os.File
	enc *zstd.Encoder
	w   *bufio.Writer

	wroteHeader bool
}

// CreateFrames truncates path and returns a writer for it.
func CreateFrames(path string) (*FrameWriter, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	fw, err := NewFrameWriter(f)
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	fw.f = f
	return fw, nil
}

// NewFrameWriter compresses frames into w. Close must be called to flush the
// stream; it does not close w.
func NewFrameWriter(w io.Writer) (*FrameWriter, error) {
	enc, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		return nil, err
	}
	return &FrameWriter{enc: enc, w: bufio.NewWriterSize(enc, 128*1024)}, nil
}

// Snapshot implements factions.SnapshotSink.
func (fw *FrameWriter) Snapshot(generation int, g *core.Grid) error {
	if !fw.wroteHeader {
		if err := fw.writeLine(Header{Format: FrameFormat, Rows: g.Rows, Cols: g.Cols}); err != nil {
			return err
		}
		fw.wroteHeader = true
	}
	return fw.writeLine(NewFrame(generation, g))
}

func (fw *FrameWriter) writeLine(v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if _, err := fw.w.Write(b); err != nil {
		return err
	}
	return fw.w.WriteByte('\n')
}

// Close flushes buffered frames and finishes the zstd stream.
func (fw *FrameWriter) Close() error {
	err := fw.w.Flush()
	if cerr := fw.enc.Close(); err == nil {
		err = cerr
	}
	if fw.f != nil {
		if cerr := fw.f.Close(); err == nil {
			err = cerr
		}
	}
	return err
}

// FrameReader decodes a stream written by FrameWriter.
type FrameReader struct {
	header Header
	dec    *zstd.Decoder
	js     *json.Decoder
	f      *os.File
}

// OpenFrames opens a frame file for reading.
func OpenFrames(path string) (*FrameReader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	fr, err := NewFrameReader(f)
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	fr.f = f
	return fr, nil
}

// NewFrameReader reads and checks the stream header.
func NewFrameReader(r io.Reader) (*FrameReader, error) {
	dec, err := zstd.NewReader(r)
	if err != nil {
		return nil, err
	}
	fr := &FrameReader{dec: dec, js: json.NewDecoder(dec)}
	if err := fr.js.Decode(&fr.header); err != nil {
		dec.Close()
		return nil, fmt.Errorf("%w: %v", ErrFrameFormat, err)
	}
	if fr.header.Format != FrameFormat {
		dec.Close()
		return nil, fmt.Errorf("%w: format %q", ErrFrameFormat, fr.header.Format)
	}
	return fr, nil
}

// Header returns the stream header.
func (fr *FrameReader) Header() Header { return fr.header }

// Next returns the next frame, or io.EOF after the last one.
func (fr *FrameReader) Next() (Frame, error) {
	var f Frame
	if err := fr.js.Decode(&f); err != nil {
		return Frame{}, err
	}
	if f.Rows != fr.header.Rows || f.Cols != fr.header.Cols || len(f.Cells) != f.Rows*f.Cols {
		return Frame{}, fmt.Errorf("%w: generation %d is %dx%d with %d cells",
			ErrFrameFormat, f.Generation, f.Rows, f.Cols, len(f.Cells))
	}
	return f, nil
}

// Close releases the decoder and any file opened by OpenFrames.
func (fr *FrameReader) Close() error {
	fr.dec.Close()
	if fr.f != nil {
		return fr.f.Close()
	}
	return nil
}
