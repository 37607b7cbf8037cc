package querycache

import (
	"bytes"
	"compress/gzip"
	"encoding/json"
	"io"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/vmihailenco/msgpack/v5"
)

// Codec converts a Result to and from the bytes a Store holds.
type Codec interface {
	Name() string
	Encode(Result) ([]byte, error)
	Decode([]byte) (Result, error)
}

var (
	compressMagic = []byte("QCZ1")

	ErrUnknownCodec       = errors.New("querycache: unknown codec")
	ErrCorruptCompression = errors.New("querycache: corrupt compressed entry")
)

type jsonCodec struct{}

// JSONCodec encodes results as JSON. It is the default.
func JSONCodec() Codec { return jsonCodec{} }

func (jsonCodec) Name() string { return "json" }

func (jsonCodec) Encode(r Result) ([]byte, error) { return json.Marshal(r) }

func (jsonCodec) Decode(b []byte) (Result, error) {
	var r Result
	if err := json.Unmarshal(b, &r); err != nil {
		return Result{}, errors.Wrap(err, "decode json entry")
	}
	return r, nil
}

type msgpackCodec struct{}

// MsgpackCodec encodes results as MessagePack, which is smaller than JSON for
// long parameter lists.
func MsgpackCodec() Codec { return msgpackCodec{} }

func (msgpackCodec) Name() string { return "msgpack" }

func (msgpackCodec) Encode(r Result) ([]byte, error) { return msgpack.Marshal(r) }

func (msgpackCodec) Decode(b []byte) (Result, error) {
	var r Result
	if err := msgpack.Unmarshal(b, &r); err != nil {
		return Result{}, errors.Wrap(err, "decode msgpack entry")
	}
	return r, nil
}

type gzipCodec struct {
	inner Codec
}

// Compressed wraps inner so encoded entries are gzip-compressed. Entries that
// were written without compression still decode.
func Compressed(inner Codec) Codec {
	if inner == nil {
		inner = JSONCodec()
	}
	return gzipCodec{inner: inner}
}

func (c gzipCodec) Name() string { return c.inner.Name() + "+gzip" }

func (c gzipCodec) Encode(r Result) ([]byte, error) {
	plain, err := c.inner.Encode(r)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	buf.Write(compressMagic)
	zw, _ := gzip.NewWriterLevel(&buf, gzip.BestSpeed)
	if _, err := zw.Write(plain); err != nil {
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (c gzipCodec) Decode(b []byte) (Result, error) {
	if !bytes.HasPrefix(b, compressMagic) {
		return c.inner.Decode(b)
	}
	zr, err := gzip.NewReader(bytes.NewReader(b[len(compressMagic):]))
	if err != nil {
		return Result{}, ErrCorruptCompression
	}
	defer zr.Close()
	plain, err := io.ReadAll(zr)
	if err != nil {
		return Result{}, ErrCorruptCompression
	}
	return c.inner.Decode(plain)
}

// ParseCodec resolves a codec by name: "json", "msgpack", optionally suffixed
// with "+gzip". An empty name selects JSON.
func ParseCodec(name string) (Codec, error) {
	base, compressed := name, false
	if n, ok := strings.CutSuffix(name, "+gzip"); ok {
		base, compressed = n, true
	}
	var codec Codec
	switch base {
	case "", "json":
		codec = JSONCodec()
	case "msgpack":
		codec = MsgpackCodec()
	default:
		return nil, errors.Wrapf(ErrUnknownCodec, "%q", name)
	}
	if compressed {
		codec = Compressed(codec)
	}
	return codec, nil
}
