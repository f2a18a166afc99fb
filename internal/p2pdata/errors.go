package p2pdata

import "errors"

var errPathMismatch = errors.New("token allow_path does not match requested path")
var errNotFound = errors.New("source path not found")
var errBadMagic = errors.New("chunk frame has invalid magic")
var errBadVersion = errors.New("chunk frame has unsupported version")
var errOutOfOrder = errors.New("chunk frame arrived out of order")
