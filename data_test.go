// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package engbridge_test

import (
	"testing"

	"code.hybscloud.com/engbridge"
)

func TestDataAccessors(t *testing.T) {
	if v, ok := engbridge.Int(7).Int(); !ok || v != 7 {
		t.Fatalf("Int(7).Int() = %d, %v", v, ok)
	}
	if _, ok := engbridge.Int(7).Str(); ok {
		t.Fatal("Int(7).Str() reported ok")
	}
	if s, ok := engbridge.Str("hi").Str(); !ok || s != "hi" {
		t.Fatalf("Str(\"hi\").Str() = %q, %v", s, ok)
	}
	if id, ok := engbridge.Object(5).Object(); !ok || id != 5 {
		t.Fatalf("Object(5).Object() = %d, %v", id, ok)
	}
	items, ok := engbridge.List(engbridge.Int(1), engbridge.Int(2)).List()
	if !ok || len(items) != 2 {
		t.Fatalf("List(...).List() = %v, %v", items, ok)
	}
}

func TestDataTag(t *testing.T) {
	cases := []struct {
		d    engbridge.Data
		want engbridge.Tag
	}{
		{engbridge.Int(0), engbridge.TagInt},
		{engbridge.Str(""), engbridge.TagString},
		{engbridge.List(), engbridge.TagList},
		{engbridge.Object(0), engbridge.TagObject},
	}
	for _, c := range cases {
		if got := c.d.Tag(); got != c.want {
			t.Fatalf("Tag() = %v, want %v", got, c.want)
		}
	}
}

func TestDataZeroValueIsIntZero(t *testing.T) {
	var d engbridge.Data
	v, ok := d.Int()
	if !ok || v != 0 {
		t.Fatalf("zero Data = %d, %v; want 0, true", v, ok)
	}
}
