// Package recfile implements the on-disk recording container: a single
// block-indexed file holding the record configuration, metadata tags, file
// attachments (including the device calibration), a track table, and the
// interleaved timestamped blocks of every track. It provides the concrete
// playback.Source the session reads from and the Writer tools use to produce
// recordings.
package recfile

// The container layout is little-endian throughout:
//
//	magic "DCAMREC\x00", format version u32
//	configuration   u32 length + JSON
//	tags            u32 count, each u16-len name + u32-len value
//	attachments     u32 count, each u16-len name + u32-len data
//	tracks          u32 count, each u16-len name, u8 type, u16-len codec id,
//	                u32-len codec private, u32 width, u32 height,
//	                u64 frame period ns
//	blocks          u64 count, each u32 track index, u64 timestamp ns,
//	                u32-len payload
var fileMagic = [8]byte{'D', 'C', 'A', 'M', 'R', 'E', 'C', 0}

const formatVersion = uint32(1)

// maxSaneLength bounds every length field read from a file so a corrupt
// header cannot drive an enormous allocation.
const maxSaneLength = 1 << 30
