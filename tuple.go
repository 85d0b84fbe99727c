// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package engbridge

import (
	"context"
	"fmt"
	"sync"
)

// storeAll stores each component of a composite value concurrently and returns their object ids
// in order, or the first error encountered.
func storeAll(stores ...func() (ObjectID, error)) ([]ObjectID, error) {
	ids := make([]ObjectID, len(stores))
	errs := make([]error, len(stores))
	var wg sync.WaitGroup
	wg.Add(len(stores))
	for i, f := range stores {
		go func(i int, f func() (ObjectID, error)) {
			defer wg.Done()
			ids[i], errs[i] = f()
		}(i, f)
	}
	wg.Wait()
	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return ids, nil
}

// packObjects stores a List of already-stored component ids via the named tuple/list packing
// builtin and returns the new composite object's id.
func packObjects(ctx context.Context, t *Transport, builtin string, ids []ObjectID) (ObjectID, error) {
	items := make([]Data, len(ids))
	for i, id := range ids {
		items[i] = Object(id)
	}
	return storeViaBuiltin(ctx, t, builtin, List(items...))
}

// unpackObjects applies the named tuple/list unpacking builtin to id and returns the resulting
// component object ids, requiring exactly want of them (want < 0 means any length is accepted).
func unpackObjects(ctx context.Context, t *Transport, builtin string, id ObjectID, want int) ([]ObjectID, error) {
	d, err := retrieveViaBuiltin(ctx, t, builtin, id)
	if err != nil {
		return nil, err
	}
	items, ok := d.List()
	if !ok || (want >= 0 && len(items) != want) {
		return nil, &ConverterError{Reason: fmt.Sprintf("%s did not return the expected List shape", builtin)}
	}
	out := make([]ObjectID, len(items))
	for i, it := range items {
		oid, ok := it.Object()
		if !ok {
			return nil, &ConverterError{Reason: fmt.Sprintf("%s element %d is not an Object", builtin, i)}
		}
		out[i] = oid
	}
	return out, nil
}

// Tuple2 through Tuple7 are plain product types; their [Converter]s compose one component
// converter per field via the engine-side tuple_packN/tuple_unpackN builtins (prelude.go), which
// assemble or tear down a right-leaning E_Pair nest.

type Tuple2[A, B any] struct {
	V1 A
	V2 B
}

type Tuple3[A, B, C any] struct {
	V1 A
	V2 B
	V3 C
}

type Tuple4[A, B, C, D any] struct {
	V1 A
	V2 B
	V3 C
	V4 D
}

type Tuple5[A, B, C, D, E any] struct {
	V1 A
	V2 B
	V3 C
	V4 D
	V5 E
}

type Tuple6[A, B, C, D, E, F any] struct {
	V1 A
	V2 B
	V3 C
	V4 D
	V5 E
	V6 F
}

type Tuple7[A, B, C, D, E, F, G any] struct {
	V1 A
	V2 B
	V3 C
	V4 D
	V5 E
	V6 F
	V7 G
}

// TupleConverter2 is the [Converter] for [Tuple2], built from one converter per component.
type TupleConverter2[A, B any] struct {
	C1 Converter[A]
	C2 Converter[B]
}

func NewTupleConverter2[A, B any](c1 Converter[A], c2 Converter[B]) TupleConverter2[A, B] {
	return TupleConverter2[A, B]{C1: c1, C2: c2}
}

func (c TupleConverter2[A, B]) MLType() string {
	return fmt.Sprintf("(%s * %s)", c.C1.MLType(), c.C2.MLType())
}
func (TupleConverter2[A, B]) ValueToExn() string { return "E_Pair" }
func (TupleConverter2[A, B]) ExnToValue() string { return "project_pair" }

func (c TupleConverter2[A, B]) Store(ctx context.Context, t *Transport, v Tuple2[A, B]) (Handle[Tuple2[A, B]], error) {
	ids, err := storeAll(
		func() (ObjectID, error) { h, err := c.C1.Store(ctx, t, v.V1); return h.Id(), err },
		func() (ObjectID, error) { h, err := c.C2.Store(ctx, t, v.V2); return h.Id(), err },
	)
	if err != nil {
		return Handle[Tuple2[A, B]]{}, err
	}
	packed, err := packObjects(ctx, t, "tuple_pack2", ids)
	if err != nil {
		return Handle[Tuple2[A, B]]{}, err
	}
	return newHandle[Tuple2[A, B]](t, packed), nil
}

func (c TupleConverter2[A, B]) Retrieve(ctx context.Context, t *Transport, id ObjectID) (Tuple2[A, B], error) {
	ids, err := unpackObjects(ctx, t, "tuple_unpack2", id, 2)
	if err != nil {
		return Tuple2[A, B]{}, err
	}
	var out Tuple2[A, B]
	var e1, e2 error
	var wg sync.WaitGroup
	wg.Add(2)
	go func() { defer wg.Done(); out.V1, e1 = c.C1.Retrieve(ctx, t, ids[0]) }()
	go func() { defer wg.Done(); out.V2, e2 = c.C2.Retrieve(ctx, t, ids[1]) }()
	wg.Wait()
	if e1 != nil {
		return Tuple2[A, B]{}, e1
	}
	if e2 != nil {
		return Tuple2[A, B]{}, e2
	}
	return out, nil
}

// TupleConverter3 is the [Converter] for [Tuple3].
type TupleConverter3[A, B, C any] struct {
	C1 Converter[A]
	C2 Converter[B]
	C3 Converter[C]
}

func NewTupleConverter3[A, B, C any](c1 Converter[A], c2 Converter[B], c3 Converter[C]) TupleConverter3[A, B, C] {
	return TupleConverter3[A, B, C]{C1: c1, C2: c2, C3: c3}
}

func (c TupleConverter3[A, B, C]) MLType() string {
	return fmt.Sprintf("(%s * %s * %s)", c.C1.MLType(), c.C2.MLType(), c.C3.MLType())
}
func (TupleConverter3[A, B, C]) ValueToExn() string { return "E_Pair" }
func (TupleConverter3[A, B, C]) ExnToValue() string { return "project_pair" }

func (c TupleConverter3[A, B, C]) Store(ctx context.Context, t *Transport, v Tuple3[A, B, C]) (Handle[Tuple3[A, B, C]], error) {
	ids, err := storeAll(
		func() (ObjectID, error) { h, err := c.C1.Store(ctx, t, v.V1); return h.Id(), err },
		func() (ObjectID, error) { h, err := c.C2.Store(ctx, t, v.V2); return h.Id(), err },
		func() (ObjectID, error) { h, err := c.C3.Store(ctx, t, v.V3); return h.Id(), err },
	)
	if err != nil {
		return Handle[Tuple3[A, B, C]]{}, err
	}
	packed, err := packObjects(ctx, t, "tuple_pack3", ids)
	if err != nil {
		return Handle[Tuple3[A, B, C]]{}, err
	}
	return newHandle[Tuple3[A, B, C]](t, packed), nil
}

func (c TupleConverter3[A, B, C]) Retrieve(ctx context.Context, t *Transport, id ObjectID) (Tuple3[A, B, C], error) {
	ids, err := unpackObjects(ctx, t, "tuple_unpack3", id, 3)
	if err != nil {
		return Tuple3[A, B, C]{}, err
	}
	var out Tuple3[A, B, C]
	var e1, e2, e3 error
	var wg sync.WaitGroup
	wg.Add(3)
	go func() { defer wg.Done(); out.V1, e1 = c.C1.Retrieve(ctx, t, ids[0]) }()
	go func() { defer wg.Done(); out.V2, e2 = c.C2.Retrieve(ctx, t, ids[1]) }()
	go func() { defer wg.Done(); out.V3, e3 = c.C3.Retrieve(ctx, t, ids[2]) }()
	wg.Wait()
	for _, err := range []error{e1, e2, e3} {
		if err != nil {
			return Tuple3[A, B, C]{}, err
		}
	}
	return out, nil
}

// TupleConverter4 is the [Converter] for [Tuple4].
type TupleConverter4[A, B, C, D any] struct {
	C1 Converter[A]
	C2 Converter[B]
	C3 Converter[C]
	C4 Converter[D]
}

func NewTupleConverter4[A, B, C, D any](c1 Converter[A], c2 Converter[B], c3 Converter[C], c4 Converter[D]) TupleConverter4[A, B, C, D] {
	return TupleConverter4[A, B, C, D]{C1: c1, C2: c2, C3: c3, C4: c4}
}

func (c TupleConverter4[A, B, C, D]) MLType() string {
	return fmt.Sprintf("(%s * %s * %s * %s)", c.C1.MLType(), c.C2.MLType(), c.C3.MLType(), c.C4.MLType())
}
func (TupleConverter4[A, B, C, D]) ValueToExn() string { return "E_Pair" }
func (TupleConverter4[A, B, C, D]) ExnToValue() string { return "project_pair" }

func (c TupleConverter4[A, B, C, D]) Store(ctx context.Context, t *Transport, v Tuple4[A, B, C, D]) (Handle[Tuple4[A, B, C, D]], error) {
	ids, err := storeAll(
		func() (ObjectID, error) { h, err := c.C1.Store(ctx, t, v.V1); return h.Id(), err },
		func() (ObjectID, error) { h, err := c.C2.Store(ctx, t, v.V2); return h.Id(), err },
		func() (ObjectID, error) { h, err := c.C3.Store(ctx, t, v.V3); return h.Id(), err },
		func() (ObjectID, error) { h, err := c.C4.Store(ctx, t, v.V4); return h.Id(), err },
	)
	if err != nil {
		return Handle[Tuple4[A, B, C, D]]{}, err
	}
	packed, err := packObjects(ctx, t, "tuple_pack4", ids)
	if err != nil {
		return Handle[Tuple4[A, B, C, D]]{}, err
	}
	return newHandle[Tuple4[A, B, C, D]](t, packed), nil
}

func (c TupleConverter4[A, B, C, D]) Retrieve(ctx context.Context, t *Transport, id ObjectID) (Tuple4[A, B, C, D], error) {
	ids, err := unpackObjects(ctx, t, "tuple_unpack4", id, 4)
	if err != nil {
		return Tuple4[A, B, C, D]{}, err
	}
	var out Tuple4[A, B, C, D]
	var e1, e2, e3, e4 error
	var wg sync.WaitGroup
	wg.Add(4)
	go func() { defer wg.Done(); out.V1, e1 = c.C1.Retrieve(ctx, t, ids[0]) }()
	go func() { defer wg.Done(); out.V2, e2 = c.C2.Retrieve(ctx, t, ids[1]) }()
	go func() { defer wg.Done(); out.V3, e3 = c.C3.Retrieve(ctx, t, ids[2]) }()
	go func() { defer wg.Done(); out.V4, e4 = c.C4.Retrieve(ctx, t, ids[3]) }()
	wg.Wait()
	for _, err := range []error{e1, e2, e3, e4} {
		if err != nil {
			return Tuple4[A, B, C, D]{}, err
		}
	}
	return out, nil
}

// TupleConverter5 is the [Converter] for [Tuple5].
type TupleConverter5[A, B, C, D, E any] struct {
	C1 Converter[A]
	C2 Converter[B]
	C3 Converter[C]
	C4 Converter[D]
	C5 Converter[E]
}

func NewTupleConverter5[A, B, C, D, E any](c1 Converter[A], c2 Converter[B], c3 Converter[C], c4 Converter[D], c5 Converter[E]) TupleConverter5[A, B, C, D, E] {
	return TupleConverter5[A, B, C, D, E]{C1: c1, C2: c2, C3: c3, C4: c4, C5: c5}
}

func (c TupleConverter5[A, B, C, D, E]) MLType() string {
	return fmt.Sprintf("(%s * %s * %s * %s * %s)", c.C1.MLType(), c.C2.MLType(), c.C3.MLType(), c.C4.MLType(), c.C5.MLType())
}
func (TupleConverter5[A, B, C, D, E]) ValueToExn() string { return "E_Pair" }
func (TupleConverter5[A, B, C, D, E]) ExnToValue() string { return "project_pair" }

func (c TupleConverter5[A, B, C, D, E]) Store(ctx context.Context, t *Transport, v Tuple5[A, B, C, D, E]) (Handle[Tuple5[A, B, C, D, E]], error) {
	ids, err := storeAll(
		func() (ObjectID, error) { h, err := c.C1.Store(ctx, t, v.V1); return h.Id(), err },
		func() (ObjectID, error) { h, err := c.C2.Store(ctx, t, v.V2); return h.Id(), err },
		func() (ObjectID, error) { h, err := c.C3.Store(ctx, t, v.V3); return h.Id(), err },
		func() (ObjectID, error) { h, err := c.C4.Store(ctx, t, v.V4); return h.Id(), err },
		func() (ObjectID, error) { h, err := c.C5.Store(ctx, t, v.V5); return h.Id(), err },
	)
	if err != nil {
		return Handle[Tuple5[A, B, C, D, E]]{}, err
	}
	packed, err := packObjects(ctx, t, "tuple_pack5", ids)
	if err != nil {
		return Handle[Tuple5[A, B, C, D, E]]{}, err
	}
	return newHandle[Tuple5[A, B, C, D, E]](t, packed), nil
}

func (c TupleConverter5[A, B, C, D, E]) Retrieve(ctx context.Context, t *Transport, id ObjectID) (Tuple5[A, B, C, D, E], error) {
	ids, err := unpackObjects(ctx, t, "tuple_unpack5", id, 5)
	if err != nil {
		return Tuple5[A, B, C, D, E]{}, err
	}
	var out Tuple5[A, B, C, D, E]
	var e1, e2, e3, e4, e5 error
	var wg sync.WaitGroup
	wg.Add(5)
	go func() { defer wg.Done(); out.V1, e1 = c.C1.Retrieve(ctx, t, ids[0]) }()
	go func() { defer wg.Done(); out.V2, e2 = c.C2.Retrieve(ctx, t, ids[1]) }()
	go func() { defer wg.Done(); out.V3, e3 = c.C3.Retrieve(ctx, t, ids[2]) }()
	go func() { defer wg.Done(); out.V4, e4 = c.C4.Retrieve(ctx, t, ids[3]) }()
	go func() { defer wg.Done(); out.V5, e5 = c.C5.Retrieve(ctx, t, ids[4]) }()
	wg.Wait()
	for _, err := range []error{e1, e2, e3, e4, e5} {
		if err != nil {
			return Tuple5[A, B, C, D, E]{}, err
		}
	}
	return out, nil
}

// TupleConverter6 is the [Converter] for [Tuple6].
type TupleConverter6[A, B, C, D, E, F any] struct {
	C1 Converter[A]
	C2 Converter[B]
	C3 Converter[C]
	C4 Converter[D]
	C5 Converter[E]
	C6 Converter[F]
}

func NewTupleConverter6[A, B, C, D, E, F any](c1 Converter[A], c2 Converter[B], c3 Converter[C], c4 Converter[D], c5 Converter[E], c6 Converter[F]) TupleConverter6[A, B, C, D, E, F] {
	return TupleConverter6[A, B, C, D, E, F]{C1: c1, C2: c2, C3: c3, C4: c4, C5: c5, C6: c6}
}

func (c TupleConverter6[A, B, C, D, E, F]) MLType() string {
	return fmt.Sprintf("(%s * %s * %s * %s * %s * %s)", c.C1.MLType(), c.C2.MLType(), c.C3.MLType(), c.C4.MLType(), c.C5.MLType(), c.C6.MLType())
}
func (TupleConverter6[A, B, C, D, E, F]) ValueToExn() string { return "E_Pair" }
func (TupleConverter6[A, B, C, D, E, F]) ExnToValue() string { return "project_pair" }

func (c TupleConverter6[A, B, C, D, E, F]) Store(ctx context.Context, t *Transport, v Tuple6[A, B, C, D, E, F]) (Handle[Tuple6[A, B, C, D, E, F]], error) {
	ids, err := storeAll(
		func() (ObjectID, error) { h, err := c.C1.Store(ctx, t, v.V1); return h.Id(), err },
		func() (ObjectID, error) { h, err := c.C2.Store(ctx, t, v.V2); return h.Id(), err },
		func() (ObjectID, error) { h, err := c.C3.Store(ctx, t, v.V3); return h.Id(), err },
		func() (ObjectID, error) { h, err := c.C4.Store(ctx, t, v.V4); return h.Id(), err },
		func() (ObjectID, error) { h, err := c.C5.Store(ctx, t, v.V5); return h.Id(), err },
		func() (ObjectID, error) { h, err := c.C6.Store(ctx, t, v.V6); return h.Id(), err },
	)
	if err != nil {
		return Handle[Tuple6[A, B, C, D, E, F]]{}, err
	}
	packed, err := packObjects(ctx, t, "tuple_pack6", ids)
	if err != nil {
		return Handle[Tuple6[A, B, C, D, E, F]]{}, err
	}
	return newHandle[Tuple6[A, B, C, D, E, F]](t, packed), nil
}

func (c TupleConverter6[A, B, C, D, E, F]) Retrieve(ctx context.Context, t *Transport, id ObjectID) (Tuple6[A, B, C, D, E, F], error) {
	ids, err := unpackObjects(ctx, t, "tuple_unpack6", id, 6)
	if err != nil {
		return Tuple6[A, B, C, D, E, F]{}, err
	}
	var out Tuple6[A, B, C, D, E, F]
	var e1, e2, e3, e4, e5, e6 error
	var wg sync.WaitGroup
	wg.Add(6)
	go func() { defer wg.Done(); out.V1, e1 = c.C1.Retrieve(ctx, t, ids[0]) }()
	go func() { defer wg.Done(); out.V2, e2 = c.C2.Retrieve(ctx, t, ids[1]) }()
	go func() { defer wg.Done(); out.V3, e3 = c.C3.Retrieve(ctx, t, ids[2]) }()
	go func() { defer wg.Done(); out.V4, e4 = c.C4.Retrieve(ctx, t, ids[3]) }()
	go func() { defer wg.Done(); out.V5, e5 = c.C5.Retrieve(ctx, t, ids[4]) }()
	go func() { defer wg.Done(); out.V6, e6 = c.C6.Retrieve(ctx, t, ids[5]) }()
	wg.Wait()
	for _, err := range []error{e1, e2, e3, e4, e5, e6} {
		if err != nil {
			return Tuple6[A, B, C, D, E, F]{}, err
		}
	}
	return out, nil
}

// TupleConverter7 is the [Converter] for [Tuple7].
type TupleConverter7[A, B, C, D, E, F, G any] struct {
	C1 Converter[A]
	C2 Converter[B]
	C3 Converter[C]
	C4 Converter[D]
	C5 Converter[E]
	C6 Converter[F]
	C7 Converter[G]
}

func NewTupleConverter7[A, B, C, D, E, F, G any](c1 Converter[A], c2 Converter[B], c3 Converter[C], c4 Converter[D], c5 Converter[E], c6 Converter[F], c7 Converter[G]) TupleConverter7[A, B, C, D, E, F, G] {
	return TupleConverter7[A, B, C, D, E, F, G]{C1: c1, C2: c2, C3: c3, C4: c4, C5: c5, C6: c6, C7: c7}
}

func (c TupleConverter7[A, B, C, D, E, F, G]) MLType() string {
	return fmt.Sprintf("(%s * %s * %s * %s * %s * %s * %s)", c.C1.MLType(), c.C2.MLType(), c.C3.MLType(), c.C4.MLType(), c.C5.MLType(), c.C6.MLType(), c.C7.MLType())
}
func (TupleConverter7[A, B, C, D, E, F, G]) ValueToExn() string { return "E_Pair" }
func (TupleConverter7[A, B, C, D, E, F, G]) ExnToValue() string { return "project_pair" }

func (c TupleConverter7[A, B, C, D, E, F, G]) Store(ctx context.Context, t *Transport, v Tuple7[A, B, C, D, E, F, G]) (Handle[Tuple7[A, B, C, D, E, F, G]], error) {
	ids, err := storeAll(
		func() (ObjectID, error) { h, err := c.C1.Store(ctx, t, v.V1); return h.Id(), err },
		func() (ObjectID, error) { h, err := c.C2.Store(ctx, t, v.V2); return h.Id(), err },
		func() (ObjectID, error) { h, err := c.C3.Store(ctx, t, v.V3); return h.Id(), err },
		func() (ObjectID, error) { h, err := c.C4.Store(ctx, t, v.V4); return h.Id(), err },
		func() (ObjectID, error) { h, err := c.C5.Store(ctx, t, v.V5); return h.Id(), err },
		func() (ObjectID, error) { h, err := c.C6.Store(ctx, t, v.V6); return h.Id(), err },
		func() (ObjectID, error) { h, err := c.C7.Store(ctx, t, v.V7); return h.Id(), err },
	)
	if err != nil {
		return Handle[Tuple7[A, B, C, D, E, F, G]]{}, err
	}
	packed, err := packObjects(ctx, t, "tuple_pack7", ids)
	if err != nil {
		return Handle[Tuple7[A, B, C, D, E, F, G]]{}, err
	}
	return newHandle[Tuple7[A, B, C, D, E, F, G]](t, packed), nil
}

func (c TupleConverter7[A, B, C, D, E, F, G]) Retrieve(ctx context.Context, t *Transport, id ObjectID) (Tuple7[A, B, C, D, E, F, G], error) {
	ids, err := unpackObjects(ctx, t, "tuple_unpack7", id, 7)
	if err != nil {
		return Tuple7[A, B, C, D, E, F, G]{}, err
	}
	var out Tuple7[A, B, C, D, E, F, G]
	var e1, e2, e3, e4, e5, e6, e7 error
	var wg sync.WaitGroup
	wg.Add(7)
	go func() { defer wg.Done(); out.V1, e1 = c.C1.Retrieve(ctx, t, ids[0]) }()
	go func() { defer wg.Done(); out.V2, e2 = c.C2.Retrieve(ctx, t, ids[1]) }()
	go func() { defer wg.Done(); out.V3, e3 = c.C3.Retrieve(ctx, t, ids[2]) }()
	go func() { defer wg.Done(); out.V4, e4 = c.C4.Retrieve(ctx, t, ids[3]) }()
	go func() { defer wg.Done(); out.V5, e5 = c.C5.Retrieve(ctx, t, ids[4]) }()
	go func() { defer wg.Done(); out.V6, e6 = c.C6.Retrieve(ctx, t, ids[5]) }()
	go func() { defer wg.Done(); out.V7, e7 = c.C7.Retrieve(ctx, t, ids[6]) }()
	wg.Wait()
	for _, err := range []error{e1, e2, e3, e4, e5, e6, e7} {
		if err != nil {
			return Tuple7[A, B, C, D, E, F, G]{}, err
		}
	}
	return out, nil
}

// ListConverter is the [Converter] for []A, backed by the engine-side list_pack/list_unpack
// builtins.
type ListConverter[A any] struct {
	Elem Converter[A]
}

func NewListConverter[A any](elem Converter[A]) ListConverter[A] {
	return ListConverter[A]{Elem: elem}
}

func (c ListConverter[A]) MLType() string     { return c.Elem.MLType() + " list" }
func (ListConverter[A]) ValueToExn() string   { return "E_List" }
func (ListConverter[A]) ExnToValue() string   { return "project_list" }

func (c ListConverter[A]) Store(ctx context.Context, t *Transport, v []A) (Handle[[]A], error) {
	stores := make([]func() (ObjectID, error), len(v))
	for i, elem := range v {
		elem := elem
		stores[i] = func() (ObjectID, error) {
			h, err := c.Elem.Store(ctx, t, elem)
			return h.Id(), err
		}
	}
	ids, err := storeAll(stores...)
	if err != nil {
		return Handle[[]A]{}, err
	}
	packed, err := packObjects(ctx, t, "list_pack", ids)
	if err != nil {
		return Handle[[]A]{}, err
	}
	return newHandle[[]A](t, packed), nil
}

func (c ListConverter[A]) Retrieve(ctx context.Context, t *Transport, id ObjectID) ([]A, error) {
	ids, err := unpackObjects(ctx, t, "list_unpack", id, -1)
	if err != nil {
		return nil, err
	}
	out := make([]A, len(ids))
	errs := make([]error, len(ids))
	var wg sync.WaitGroup
	wg.Add(len(ids))
	for i, eid := range ids {
		i, eid := i, eid
		go func() {
			defer wg.Done()
			out[i], errs[i] = c.Elem.Retrieve(ctx, t, eid)
		}()
	}
	wg.Wait()
	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

// Option is the driver-side representation of an engine-side option value.
type Option[A any] struct {
	Valid bool
	Value A
}

// Some builds a present Option.
func Some[A any](v A) Option[A] { return Option[A]{Valid: true, Value: v} }

// None builds an absent Option.
func None[A any]() Option[A] { return Option[A]{} }

// OptionConverter is the [Converter] for [Option], backed by the engine-side
// option_pack/option_unpack builtins.
type OptionConverter[A any] struct {
	Elem Converter[A]
}

func NewOptionConverter[A any](elem Converter[A]) OptionConverter[A] {
	return OptionConverter[A]{Elem: elem}
}

func (c OptionConverter[A]) MLType() string   { return c.Elem.MLType() + " option" }
func (OptionConverter[A]) ValueToExn() string { return "E_Option" }
func (OptionConverter[A]) ExnToValue() string { return "project_option" }

func (c OptionConverter[A]) Store(ctx context.Context, t *Transport, v Option[A]) (Handle[Option[A]], error) {
	if !v.Valid {
		packed, err := packObjects(ctx, t, "option_pack", nil)
		if err != nil {
			return Handle[Option[A]]{}, err
		}
		return newHandle[Option[A]](t, packed), nil
	}
	h, err := c.Elem.Store(ctx, t, v.Value)
	if err != nil {
		return Handle[Option[A]]{}, err
	}
	packed, err := packObjects(ctx, t, "option_pack", []ObjectID{h.Id()})
	if err != nil {
		return Handle[Option[A]]{}, err
	}
	return newHandle[Option[A]](t, packed), nil
}

func (c OptionConverter[A]) Retrieve(ctx context.Context, t *Transport, id ObjectID) (Option[A], error) {
	ids, err := unpackObjects(ctx, t, "option_unpack", id, -1)
	if err != nil {
		return Option[A]{}, err
	}
	if len(ids) == 0 {
		return Option[A]{}, nil
	}
	v, err := c.Elem.Retrieve(ctx, t, ids[0])
	if err != nil {
		return Option[A]{}, err
	}
	return Some(v), nil
}
