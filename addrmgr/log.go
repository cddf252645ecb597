// Copyright (c) 2026 The spvd developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package addrmgr

import "github.com/btcsuite/btclog"

// log is the package-level logger, disabled by default until the host
// application calls UseLogger, matching the btcsuite ecosystem convention.
var log = btclog.Disabled

// UseLogger sets the package-wide logger used by the address book.
func UseLogger(logger btclog.Logger) {
	log = logger
}
