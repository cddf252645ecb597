// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wire

import (
	"bytes"
	"fmt"
	"io"
)

// Tagged object discriminators: varint, bytes, string, list, dict.
const (
	tagVarInt byte = 'v'
	tagBytes  byte = 'b'
	tagString byte = 's'
	tagList   byte = 'l'
	tagDict   byte = 'd'
)

// TaggedObject is a polymorphic value used to serialize loosely-typed
// metadata (wallet collection items, spend metadata) without a fixed
// schema. Exactly one of the fields is meaningful, selected by the
// discriminator byte written ahead of the value.
type TaggedObject struct {
	Kind byte
	Int  uint64
	Blob []byte
	Str  string
	List []TaggedObject
	Dict []TaggedObjectPair
}

// TaggedObjectPair is one key/value entry of a tagged-object map. Both the
// key and value are themselves tagged objects.
type TaggedObjectPair struct {
	Key TaggedObject
	Val TaggedObject
}

// NewTaggedInt builds a varint-kind tagged object.
func NewTaggedInt(n uint64) TaggedObject { return TaggedObject{Kind: tagVarInt, Int: n} }

// NewTaggedBytes builds a bytes-kind tagged object.
func NewTaggedBytes(b []byte) TaggedObject { return TaggedObject{Kind: tagBytes, Blob: b} }

// NewTaggedString builds a string-kind tagged object.
func NewTaggedString(s string) TaggedObject { return TaggedObject{Kind: tagString, Str: s} }

// NewTaggedList builds a list-kind tagged object.
func NewTaggedList(items []TaggedObject) TaggedObject { return TaggedObject{Kind: tagList, List: items} }

// NewTaggedDict builds a dict-kind tagged object.
func NewTaggedDict(pairs []TaggedObjectPair) TaggedObject {
	return TaggedObject{Kind: tagDict, Dict: pairs}
}

// maxTaggedBlob bounds bytes/string payload sizes so a corrupt store entry
// can't trigger an unbounded allocation.
const maxTaggedBlob = 1 << 24

// Encode serializes the tagged object to w.
func (t TaggedObject) Encode(w io.Writer) error {
	if _, err := w.Write([]byte{t.Kind}); err != nil {
		return err
	}
	switch t.Kind {
	case tagVarInt:
		return WriteVarInt(w, t.Int)
	case tagBytes:
		return WriteVarBytes(w, t.Blob)
	case tagString:
		return WriteVarString(w, t.Str)
	case tagList:
		if err := WriteVarInt(w, uint64(len(t.List))); err != nil {
			return err
		}
		for _, item := range t.List {
			if err := item.Encode(w); err != nil {
				return err
			}
		}
		return nil
	case tagDict:
		if err := WriteVarInt(w, uint64(len(t.Dict))); err != nil {
			return err
		}
		for _, pair := range t.Dict {
			if err := pair.Key.Encode(w); err != nil {
				return err
			}
			if err := pair.Val.Encode(w); err != nil {
				return err
			}
		}
		return nil
	default:
		return fmt.Errorf("tagged object: unknown kind %q", t.Kind)
	}
}

// DecodeTaggedObject reads one tagged object from r.
func DecodeTaggedObject(r io.Reader) (TaggedObject, error) {
	var kindBuf [1]byte
	if _, err := io.ReadFull(r, kindBuf[:]); err != nil {
		return TaggedObject{}, err
	}

	switch kindBuf[0] {
	case tagVarInt:
		n, err := ReadVarInt(r)
		if err != nil {
			return TaggedObject{}, err
		}
		return NewTaggedInt(n), nil
	case tagBytes:
		b, err := ReadVarBytes(r, maxTaggedBlob, "tagged_object.bytes")
		if err != nil {
			return TaggedObject{}, err
		}
		if len(b) == 0 {
			b = nil
		}
		return NewTaggedBytes(b), nil
	case tagString:
		s, err := ReadVarString(r, maxTaggedBlob)
		if err != nil {
			return TaggedObject{}, err
		}
		return NewTaggedString(s), nil
	case tagList:
		count, err := ReadVarInt(r)
		if err != nil {
			return TaggedObject{}, err
		}
		var items []TaggedObject
		for i := uint64(0); i < count; i++ {
			item, err := DecodeTaggedObject(r)
			if err != nil {
				return TaggedObject{}, err
			}
			items = append(items, item)
		}
		return NewTaggedList(items), nil
	case tagDict:
		count, err := ReadVarInt(r)
		if err != nil {
			return TaggedObject{}, err
		}
		pairs := make([]TaggedObjectPair, 0, count)
		for i := uint64(0); i < count; i++ {
			key, err := DecodeTaggedObject(r)
			if err != nil {
				return TaggedObject{}, err
			}
			val, err := DecodeTaggedObject(r)
			if err != nil {
				return TaggedObject{}, err
			}
			pairs = append(pairs, TaggedObjectPair{Key: key, Val: val})
		}
		return NewTaggedDict(pairs), nil
	default:
		return TaggedObject{}, fmt.Errorf("tagged object: unknown kind %q", kindBuf[0])
	}
}

// Bytes is a convenience wrapper returning the serialized form of t.
func (t TaggedObject) Bytes() []byte {
	var buf bytes.Buffer
	// Encode over a bytes.Buffer never fails.
	_ = t.Encode(&buf)
	return buf.Bytes()
}
