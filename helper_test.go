// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package engbridge_test

import (
	"testing"

	"code.hybscloud.com/engbridge"
)

// newLocalBridge spins up a [engbridge.Bridge] backed by the in-process reference engine and
// registers its teardown with t.Cleanup, for tests that just need a working bridge and don't care
// about shutdown ordering.
func newLocalBridge(t *testing.T) *engbridge.Bridge {
	t.Helper()
	b, err := engbridge.NewLocal()
	if err != nil {
		t.Fatalf("NewLocal: %v", err)
	}
	t.Cleanup(func() { _ = b.Close() })
	return b
}
