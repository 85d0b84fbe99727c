// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package engbridge

import "fmt"

// Tag identifies the variant of a [Data] value on the wire.
type Tag uint8

const (
	TagInt    Tag = 0x01
	TagString Tag = 0x02
	TagList   Tag = 0x03
	TagObject Tag = 0x04
)

func (t Tag) String() string {
	switch t {
	case TagInt:
		return "Int"
	case TagString:
		return "String"
	case TagList:
		return "List"
	case TagObject:
		return "Object"
	default:
		return fmt.Sprintf("Tag(0x%02x)", uint8(t))
	}
}

// ObjectID is an opaque 64-bit identifier issued by the engine for a stored object.
// Ids are strictly increasing from 0 within a session and never reused.
type ObjectID uint64

// Data is the recursive wire value: an Int, a String, a List of Data, or an Object reference.
// A zero Data is the Int variant holding 0; use the constructors below to build other variants.
type Data struct {
	tag  Tag
	i    int64
	s    string
	list []Data
	obj  ObjectID
}

// Int constructs an Int-tagged Data value.
func Int(v int64) Data { return Data{tag: TagInt, i: v} }

// Str constructs a String-tagged Data value.
func Str(v string) Data { return Data{tag: TagString, s: v} }

// List constructs a List-tagged Data value from the given elements.
func List(items ...Data) Data {
	return Data{tag: TagList, list: items}
}

// Object constructs an Object-tagged Data value referring to id.
func Object(id ObjectID) Data { return Data{tag: TagObject, obj: id} }

// Tag reports the variant of d.
func (d Data) Tag() Tag { return d.tag }

// Int returns d's integer payload and whether d is Int-tagged.
func (d Data) Int() (int64, bool) { return d.i, d.tag == TagInt }

// Str returns d's string payload and whether d is String-tagged.
func (d Data) Str() (string, bool) { return d.s, d.tag == TagString }

// List returns d's list payload and whether d is List-tagged.
func (d Data) List() ([]Data, bool) { return d.list, d.tag == TagList }

// Object returns d's object id and whether d is Object-tagged.
func (d Data) Object() (ObjectID, bool) { return d.obj, d.tag == TagObject }

// String renders d for diagnostics; it is not the wire encoding.
func (d Data) String() string {
	switch d.tag {
	case TagInt:
		return fmt.Sprintf("Int(%d)", d.i)
	case TagString:
		return fmt.Sprintf("String(%q)", d.s)
	case TagList:
		return fmt.Sprintf("List(%v)", d.list)
	case TagObject:
		return fmt.Sprintf("Object(%d)", d.obj)
	default:
		return "Data(invalid)"
	}
}
