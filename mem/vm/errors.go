package vm

import (
	"errors"
	"fmt"
)

// ErrOutOfMemory is returned when a region, page-table entry, frame or
// address space cannot be allocated. Callers that were building an address
// space must destroy it before passing the error on.
var ErrOutOfMemory = errors.New("out of memory")

// ErrBadAddress is returned when a fault hits an address that no region
// covers.
var ErrBadAddress = errors.New("bad address")

// A ConsistencyViolation reports a page-table entry stored in a bucket that
// does not match the hash of its key. It indicates table corruption.
type ConsistencyViolation struct {
	Bucket   int
	Expected int
	Owner    ASID
	VPN      uint64
}

func (e *ConsistencyViolation) Error() string {
	return fmt.Sprintf(
		"page table entry (as %d, vpn 0x%x) found in bucket %d, hashes to %d",
		e.Owner, e.VPN, e.Bucket, e.Expected)
}
