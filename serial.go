// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package engbridge

import "code.hybscloud.com/atomix"

// sequencer issues the monotonic 64-bit sequence numbers that correlate requests with replies.
type sequencer struct {
	counter atomix.Uint64
}

// next returns the next sequence number, or [ErrSequenceExhausted] if issuing one would wrap
// past the 64-bit range.
func (s *sequencer) next() (uint64, error) {
	v := s.counter.Add(1)
	if v == 0 {
		// atomix.Uint64.Add wrapped past max back to 0.
		return 0, ErrSequenceExhausted
	}
	return v, nil
}
