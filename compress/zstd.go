package compress

// ZstdCodec compresses trial tables with Zstandard.
//
// Zstd gives the best ratio of the supported algorithms and is the right
// choice for archived Monte Carlo runs that are read back rarely.
//
// Two implementations exist behind build tags: the default pure-Go encoder
// (klauspost/compress/zstd) and a cgo variant (valyala/gozstd) selected with
// the cgozstd tag for workloads where encode throughput dominates.
type ZstdCodec struct{}

var _ Codec = (*ZstdCodec)(nil)

// NewZstdCodec creates a new Zstd codec.
func NewZstdCodec() ZstdCodec {
	return ZstdCodec{}
}
