// Package system holds the addresses of the native system program and the
// sysvars the staking contract reads.
package system

import (
	"crypto/ed25519"
)

// ProgramKey is the address of the system program.
//
// Current key: 11111111111111111111111111111111
var ProgramKey = ed25519.PublicKey(make([]byte, ed25519.PublicKeySize))
