package wormhole

import "errors"

var errTooManyMissingShards = errors.New("wormhole: more shards missing than parity can recover")
var errMerkleMismatch = errors.New("wormhole: reconstructed window does not match advertised merkle root")
