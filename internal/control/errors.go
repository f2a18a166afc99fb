package control

import "errors"

var errBadSignature = errors.New("token signature does not match")
var errTokenExpired = errors.New("token has expired")
var errSizeMismatch = errors.New("replicated size does not match expected size")
var errChecksumMismatch = errors.New("replicated checksum does not match expected checksum")
var errSessionNotAdmitted = errors.New("session has not been admitted by the coordinator")
var errNoGatewayStubs = errors.New("gateway not available: protobuf stubs not generated")
