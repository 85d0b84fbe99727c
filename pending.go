// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package engbridge

import "sync"

// pendingRemoves batches object ids whose driver-side [Handle] has been disposed but whose
// Remove command has not yet gone out, so dropping many handles in a tight loop costs one wire
// round trip instead of many. A plain mutex-guarded slice is the spec-sanctioned alternative to
// a lock-free queue for this specific buffer — unlike the outbound command queue, nothing here
// is latency sensitive: a handle drop merely needs to be remembered, not acknowledged.
type pendingRemoves struct {
	mu        sync.Mutex
	ids       []ObjectID
	threshold int
}

func newPendingRemoves(threshold int) *pendingRemoves {
	return &pendingRemoves{threshold: threshold}
}

// add appends id to the buffer and reports whether it has crossed the flush threshold.
func (p *pendingRemoves) add(id ObjectID) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.ids = append(p.ids, id)
	return len(p.ids) >= p.threshold
}

// drain empties the buffer and returns what it held, or nil if it was already empty.
func (p *pendingRemoves) drain() []ObjectID {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.ids) == 0 {
		return nil
	}
	out := p.ids
	p.ids = nil
	return out
}
