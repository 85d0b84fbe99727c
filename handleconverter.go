// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package engbridge

import "context"

// IdentityConverter is the [Converter] for Handle[A]: Store and Retrieve never touch the wire,
// since a Handle already denotes a live object in the engine's store. This is what lets a
// composite converter (tuple.go, e.g.) nest an opaque handle as one of its fields alongside
// ordinary values without forcing an extra round trip to re-wrap it.
type IdentityConverter[A any] struct{}

func (IdentityConverter[A]) MLType() string     { return "<opaque>" }
func (IdentityConverter[A]) ValueToExn() string { return "E_Object" }
func (IdentityConverter[A]) ExnToValue() string { return "project_object" }

// Store aliases v rather than minting a freshly counted handle: this converter is a true
// identity, so closing the result must release the same alias slot as closing v would, not a
// second, independent refcount that can schedule a duplicate Remove for v's id.
func (IdentityConverter[A]) Store(_ context.Context, t *Transport, v Handle[A]) (Handle[Handle[A]], error) {
	alias := v.Clone()
	return Handle[Handle[A]]{t: t, id: alias.id, refs: alias.refs}, nil
}

func (IdentityConverter[A]) Retrieve(_ context.Context, t *Transport, id ObjectID) (Handle[A], error) {
	return newHandle[A](t, id), nil
}
