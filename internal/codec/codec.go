// Package codec serializes wind field snapshots for the sink topic.
package codec

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/klauspost/compress/zstd"
	"github.com/vmihailenco/msgpack/v5"
)

// ErrUnknownEncoding is returned by New for an unsupported encoding name.
var ErrUnknownEncoding = errors.New("unknown field encoding")

// Encoding names accepted by New.
const (
	EncodingJSON        = "json"
	EncodingMsgpackZstd = "msgpack+zstd"
)

// Codec marshals values to bytes tagged with a content type.
type Codec interface {
	ContentType() string
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
}

// New returns the codec for an encoding name. An empty name selects
// msgpack+zstd.
func New(name string) (Codec, error) {
	switch name {
	case EncodingJSON:
		return JSON{}, nil
	case EncodingMsgpackZstd, "":
		return MsgpackZstd{}, nil
	default:
		return nil, fmt.Errorf("%q: %w", name, ErrUnknownEncoding)
	}
}

// JSON is the plain encoding/json codec.
type JSON struct{}

func (JSON) ContentType() string { return "application/json" }

func (JSON) Marshal(v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("json encode: %w", err)
	}
	return data, nil
}

func (JSON) Unmarshal(data []byte, v any) error {
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("json decode: %w", err)
	}
	return nil
}

// Pool of reusable encoders shared by all MsgpackZstd values.
var zstdEncoders chan *zstd.Encoder

func init() {
	const nenc = 8
	zstdEncoders = make(chan *zstd.Encoder, nenc)
	for range nenc {
		ze, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault), zstd.WithEncoderConcurrency(1))
		if err != nil {
			panic(err)
		}
		zstdEncoders <- ze
	}
}

// MsgpackZstd encodes with msgpack and compresses with zstd. Struct fields
// use their json tags so both codecs share one wire naming.
type MsgpackZstd struct{}

func (MsgpackZstd) ContentType() string { return "application/msgpack+zstd" }

func (MsgpackZstd) Marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	zw := <-zstdEncoders
	defer func() { zstdEncoders <- zw }()
	zw.Reset(&buf)

	enc := msgpack.NewEncoder(zw)
	enc.SetCustomStructTag("json")
	if err := enc.Encode(v); err != nil {
		zw.Close()
		return nil, fmt.Errorf("msgpack encode: %w", err)
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("zstd close: %w", err)
	}
	return buf.Bytes(), nil
}

func (MsgpackZstd) Unmarshal(data []byte, v any) error {
	zr, err := zstd.NewReader(bytes.NewReader(data), zstd.WithDecoderConcurrency(1))
	if err != nil {
		return fmt.Errorf("zstd reader: %w", err)
	}
	defer zr.Close()

	dec := msgpack.NewDecoder(zr)
	dec.SetCustomStructTag("json")
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("msgpack decode: %w", err)
	}
	return nil
}
