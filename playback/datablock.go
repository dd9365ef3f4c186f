package playback

// DataBlock is one raw payload read from a custom track. The payload is
// owned by the caller once returned.
type DataBlock struct {
	TimestampUsec uint64
	Payload       []byte
}
