package svd

import "strings"

//go:generate go tool stringer -type=Access -trimprefix=Access

// Access is the access policy of a register or a field.
type Access uint8

const (
	AccessUndefined Access = iota
	AccessReadWrite
	AccessReadOnly
	AccessWriteOnly
)

// ParseAccess parses an SVD access string. Write-once variants are mapped to
// their plain counterpart.
func ParseAccess(s string) (Access, bool) {
	switch strings.TrimSpace(s) {
	case "":
		return AccessUndefined, true
	case "read-write", "read-writeOnce":
		return AccessReadWrite, true
	case "read-only":
		return AccessReadOnly, true
	case "write-only", "writeOnce":
		return AccessWriteOnly, true
	}
	return AccessUndefined, false
}

// SVDName returns the SVD spelling of the access.
func (a Access) SVDName() string {
	switch a {
	case AccessReadWrite:
		return "read-write"
	case AccessReadOnly:
		return "read-only"
	case AccessWriteOnly:
		return "write-only"
	}
	return ""
}

func (a Access) CanRead() bool  { return a == AccessReadWrite || a == AccessReadOnly }
func (a Access) CanWrite() bool { return a == AccessReadWrite || a == AccessWriteOnly }

// or returns a, or def if a is undefined.
func (a Access) or(def Access) Access {
	if a == AccessUndefined {
		return def
	}
	return a
}
