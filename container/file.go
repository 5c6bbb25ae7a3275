package container

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"sort"

	featstore "github.com/mlopt/featstore"
)

// fieldEntry locates a live record inside the file.
type fieldEntry struct {
	off     int64 // record start (the flags byte)
	dataOff int64 // start of lengths side-array + payload
	hdr     fieldHeader
}

// File is a featstore container: a single random-access file holding typed
// fields addressed by name.
//
// A File is owned by one process for its whole lifetime; concurrent external
// access is not supported. Reads are lazy: only the requested field's bytes
// are materialized.
type File struct {
	f      *os.File
	path   string
	size   int64
	dir    map[string]fieldEntry
	logger *featstore.Logger
	closed bool
}

// Option configures a File.
type Option func(*File)

// WithLogger sets the logger. If unset, logging is disabled.
func WithLogger(l *featstore.Logger) Option {
	return func(c *File) {
		if l != nil {
			c.logger = l
		}
	}
}

// Create creates a new, empty container file, truncating any existing file
// at path.
func Create(path string, opts ...Option) (*File, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return nil, fmt.Errorf("container: create %s: %w", path, err)
	}

	var hdr [headerSize]byte
	binary.LittleEndian.PutUint32(hdr[0:], MagicNumber)
	binary.LittleEndian.PutUint32(hdr[4:], Version)
	if _, err := f.WriteAt(hdr[:], 0); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("container: create %s: %w", path, err)
	}

	c := newFile(f, path, headerSize, opts)
	c.logger.Debug("container created", "file", path)
	return c, nil
}

// Open opens an existing container file for reading and writing and rebuilds
// the field directory by scanning record headers (payloads are skipped).
func Open(path string, opts ...Option) (*File, error) {
	f, err := os.OpenFile(path, os.O_RDWR, 0644)
	if err != nil {
		return nil, fmt.Errorf("container: open %s: %w", path, err)
	}

	c := newFile(f, path, headerSize, opts)
	if err := c.scan(); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("container: open %s: %w", path, err)
	}
	c.logger.Debug("container opened", "file", path, "fields", len(c.dir))
	return c, nil
}

func newFile(f *os.File, path string, size int64, opts []Option) *File {
	c := &File{
		f:      f,
		path:   path,
		size:   size,
		dir:    make(map[string]fieldEntry),
		logger: featstore.NoopLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Close flushes and releases the backing file handle. The File must not be
// used afterwards.
func (c *File) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true
	if err := c.f.Sync(); err != nil {
		_ = c.f.Close()
		return fmt.Errorf("container: sync %s: %w", c.path, err)
	}
	if err := c.f.Close(); err != nil {
		return fmt.Errorf("container: close %s: %w", c.path, err)
	}
	return nil
}

// Path returns the backing file path.
func (c *File) Path() string { return c.path }

// Has reports whether a live field with the given name exists.
func (c *File) Has(name string) bool {
	_, ok := c.dir[name]
	return ok
}

// FieldInfo describes a live field for inspection tooling.
type FieldInfo struct {
	Name       string
	DType      string
	Shape      []int64
	Compressed bool
	HasLengths bool
	PayloadLen uint32
}

// Fields returns the live fields sorted by name.
func (c *File) Fields() []FieldInfo {
	out := make([]FieldInfo, 0, len(c.dir))
	for name, e := range c.dir {
		info := FieldInfo{
			Name:       name,
			DType:      dtypeName(e.hdr.DType),
			Compressed: e.hdr.Flags&(flagZstd|flagLZ4) != 0,
			HasLengths: e.hdr.Flags&flagHasLengths != 0,
			PayloadLen: e.hdr.PayloadLen,
		}
		switch e.hdr.NDim {
		case 1:
			info.Shape = []int64{e.hdr.Dim0}
		case 2:
			info.Shape = []int64{e.hdr.Dim0, e.hdr.Dim1}
		}
		out = append(out, info)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// scan walks the record sequence and rebuilds the directory.
func (c *File) scan() error {
	var hdr [headerSize]byte
	if _, err := c.f.ReadAt(hdr[:], 0); err != nil {
		return fmt.Errorf("reading header: %w", err)
	}
	if got := binary.LittleEndian.Uint32(hdr[0:]); got != MagicNumber {
		return fmt.Errorf("%w: got 0x%08x", ErrInvalidMagic, got)
	}
	if got := binary.LittleEndian.Uint32(hdr[4:]); got != Version {
		return fmt.Errorf("%w: got 0x%08x", ErrInvalidVersion, got)
	}

	end, err := c.f.Seek(0, io.SeekEnd)
	if err != nil {
		return err
	}

	off := int64(headerSize)
	for off < end {
		var fh fieldHeader
		raw := make([]byte, fieldHeaderSize)
		if _, err := c.f.ReadAt(raw, off); err != nil {
			return fmt.Errorf("record at %d: %w", off, err)
		}
		if err := binary.Read(bytes.NewReader(raw), binary.LittleEndian, &fh); err != nil {
			return err
		}

		name := make([]byte, fh.NameLen)
		if _, err := c.f.ReadAt(name, off+fieldHeaderSize); err != nil {
			return fmt.Errorf("record at %d: %w", off, err)
		}

		dataOff := off + fieldHeaderSize + int64(fh.NameLen)
		next := dataOff + int64(fh.LengthsLen)*8 + int64(fh.PayloadLen)
		if next > end {
			return fmt.Errorf("record at %d extends past end of file: %w", off, ErrCorrupt)
		}
		if fh.Flags&flagDeleted == 0 {
			c.dir[string(name)] = fieldEntry{off: off, dataOff: dataOff, hdr: fh}
		}
		off = next
	}
	c.size = off // appends resume after the last record
	return nil
}

// putField tombstones any previous record for name and appends a new one.
// The record is fully written before the directory is updated.
func (c *File) putField(name string, hdr fieldHeader, lengths []int64, payload []byte) error {
	if c.closed {
		return fmt.Errorf("container: put %q: %w", name, ErrClosed)
	}
	if len(name) > int(^uint16(0)) {
		return fmt.Errorf("container: put %q: name too long", name)
	}

	hdr.NameLen = uint16(len(name))
	hdr.LengthsLen = uint32(len(lengths))
	hdr.PayloadLen = uint32(len(payload))
	if len(lengths) > 0 {
		hdr.Flags |= flagHasLengths
	}

	buf := bytes.NewBuffer(make([]byte, 0, fieldHeaderSize+len(name)+len(lengths)*8+len(payload)))
	if err := binary.Write(buf, binary.LittleEndian, &hdr); err != nil {
		return err
	}
	buf.WriteString(name)
	for _, n := range lengths {
		var b [8]byte
		binary.LittleEndian.PutUint64(b[:], uint64(n))
		buf.Write(b[:])
	}
	buf.Write(payload)

	if old, ok := c.dir[name]; ok {
		if err := c.tombstone(old); err != nil {
			return fmt.Errorf("container: put %q: %w", name, err)
		}
		delete(c.dir, name)
	}

	if _, err := c.f.WriteAt(buf.Bytes(), c.size); err != nil {
		return fmt.Errorf("container: put %q: %w", name, err)
	}
	c.dir[name] = fieldEntry{
		off:     c.size,
		dataOff: c.size + fieldHeaderSize + int64(len(name)),
		hdr:     hdr,
	}
	c.size += int64(buf.Len())
	c.logger.Debug("field written", "file", c.path, "key", name,
		"dtype", dtypeName(hdr.DType), "bytes", len(payload))
	return nil
}

// tombstone marks a record deleted in place. The format does not support
// in-place resize, so this single flag-byte patch is the only mutation ever
// applied to an existing record.
func (c *File) tombstone(e fieldEntry) error {
	flags := [1]byte{e.hdr.Flags | flagDeleted}
	if _, err := c.f.WriteAt(flags[:], e.off); err != nil {
		return err
	}
	return nil
}

// lookup returns the live entry for name.
func (c *File) lookup(name string) (fieldEntry, bool) {
	e, ok := c.dir[name]
	return e, ok
}

// readLengths materializes the per-row length side-array of a field.
func (c *File) readLengths(e fieldEntry) ([]int64, error) {
	if e.hdr.LengthsLen == 0 {
		return nil, nil
	}
	raw := make([]byte, int(e.hdr.LengthsLen)*8)
	if _, err := c.f.ReadAt(raw, e.dataOff); err != nil {
		return nil, fmt.Errorf("container: read lengths: %w", err)
	}
	out := make([]int64, e.hdr.LengthsLen)
	for i := range out {
		out[i] = int64(binary.LittleEndian.Uint64(raw[i*8:]))
	}
	return out, nil
}

// readPayload materializes and, if needed, decompresses a field's payload.
func (c *File) readPayload(e fieldEntry) ([]byte, error) {
	if c.closed {
		return nil, ErrClosed
	}
	raw := make([]byte, e.hdr.PayloadLen)
	if _, err := c.f.ReadAt(raw, e.dataOff+int64(e.hdr.LengthsLen)*8); err != nil {
		return nil, fmt.Errorf("container: read payload: %w", err)
	}
	switch {
	case e.hdr.Flags&flagZstd != 0:
		return decompressBlock(raw, flagZstd)
	case e.hdr.Flags&flagLZ4 != 0:
		return decompressBlock(raw, flagLZ4)
	default:
		return raw, nil
	}
}
