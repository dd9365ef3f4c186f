package recfile

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"encoding/json"
	"io"
	"os"

	"github.com/edaniels/golog"
	"github.com/pkg/errors"
	"go.viam.com/utils"

	"go.viam.com/depthcam/playback"
)

// source is the parsed, in-memory form of a recording file. All reads after
// open are stateless lookups, so independent cursors in the playback session
// never contend; the block payloads are copied when handed out.
type source struct {
	config      playback.RecordConfiguration
	tags        map[string]string
	attachments map[string][]byte
	tracks      []playback.TrackInfo

	blocks     map[string][]playback.Block
	timestamps map[string][]uint64
}

// OpenSource parses a recording file into a playback.Source. A structurally
// malformed file is a fatal error; nothing is retained on failure.
func OpenSource(path string) (playback.Source, error) {
	//nolint:gosec
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to open recording %q", path)
	}
	defer utils.UncheckedErrorFunc(f.Close)

	src, err := parseSource(bufio.NewReader(f))
	if err != nil {
		return nil, errors.Wrapf(err, "unable to parse recording %q", path)
	}
	return src, nil
}

// OpenReader opens a recording file and starts a playback session over it.
// On failure everything acquired along the way is released.
func OpenReader(path string, logger golog.Logger) (*playback.Reader, error) {
	src, err := OpenSource(path)
	if err != nil {
		return nil, err
	}
	reader, err := playback.NewReader(src, logger)
	if err != nil {
		utils.UncheckedErrorFunc(src.Close)
		return nil, err
	}
	return reader, nil
}

func parseSource(in io.Reader) (*source, error) {
	var magic [8]byte
	if _, err := io.ReadFull(in, magic[:]); err != nil {
		return nil, errors.Wrap(err, "error reading file magic")
	}
	if !bytes.Equal(magic[:], fileMagic[:]) {
		return nil, errors.New("not a recording file")
	}
	version, err := readUint32(in)
	if err != nil {
		return nil, err
	}
	if version != formatVersion {
		return nil, errors.Errorf("unsupported format version %d", version)
	}

	src := &source{
		tags:        map[string]string{},
		attachments: map[string][]byte{},
		blocks:      map[string][]playback.Block{},
		timestamps:  map[string][]uint64{},
	}

	configJSON, err := readBytes32(in)
	if err != nil {
		return nil, errors.Wrap(err, "error reading record configuration")
	}
	if err := json.Unmarshal(configJSON, &src.config); err != nil {
		return nil, errors.Wrap(err, "error parsing record configuration")
	}

	tagCount, err := readUint32(in)
	if err != nil {
		return nil, err
	}
	for i := uint32(0); i < tagCount; i++ {
		name, err := readString16(in)
		if err != nil {
			return nil, errors.Wrap(err, "error reading tag")
		}
		value, err := readBytes32(in)
		if err != nil {
			return nil, errors.Wrapf(err, "error reading tag %q", name)
		}
		src.tags[name] = string(value)
	}

	attachmentCount, err := readUint32(in)
	if err != nil {
		return nil, err
	}
	for i := uint32(0); i < attachmentCount; i++ {
		name, err := readString16(in)
		if err != nil {
			return nil, errors.Wrap(err, "error reading attachment")
		}
		data, err := readBytes32(in)
		if err != nil {
			return nil, errors.Wrapf(err, "error reading attachment %q", name)
		}
		src.attachments[name] = data
	}

	trackCount, err := readUint32(in)
	if err != nil {
		return nil, err
	}
	for i := uint32(0); i < trackCount; i++ {
		info, err := readTrackInfo(in)
		if err != nil {
			return nil, errors.Wrapf(err, "error reading track %d", i)
		}
		if _, exists := src.blocks[info.Name]; exists {
			return nil, errors.Errorf("duplicate track name %q", info.Name)
		}
		src.tracks = append(src.tracks, info)
		src.blocks[info.Name] = nil
		src.timestamps[info.Name] = nil
	}

	blockCount, err := readUint64(in)
	if err != nil {
		return nil, err
	}
	for i := uint64(0); i < blockCount; i++ {
		trackIdx, err := readUint32(in)
		if err != nil {
			return nil, errors.Wrapf(err, "error reading block %d", i)
		}
		if int(trackIdx) >= len(src.tracks) {
			return nil, errors.Errorf("block %d references unknown track %d", i, trackIdx)
		}
		timestampNS, err := readUint64(in)
		if err != nil {
			return nil, errors.Wrapf(err, "error reading block %d", i)
		}
		payload, err := readBytes32(in)
		if err != nil {
			return nil, errors.Wrapf(err, "error reading block %d", i)
		}
		name := src.tracks[trackIdx].Name
		src.blocks[name] = append(src.blocks[name], playback.Block{TimestampNS: timestampNS, Payload: payload})
		src.timestamps[name] = append(src.timestamps[name], timestampNS)
	}

	return src, nil
}

func readTrackInfo(in io.Reader) (playback.TrackInfo, error) {
	var info playback.TrackInfo
	name, err := readString16(in)
	if err != nil {
		return info, err
	}
	info.Name = name

	var trackType [1]byte
	if _, err := io.ReadFull(in, trackType[:]); err != nil {
		return info, err
	}
	info.Type = playback.TrackType(trackType[0])
	if info.Type != playback.TrackTypeVideo &&
		info.Type != playback.TrackTypeIMU &&
		info.Type != playback.TrackTypeCustom {
		return info, errors.Errorf("unknown track type %d", trackType[0])
	}

	if info.CodecID, err = readString16(in); err != nil {
		return info, err
	}
	if info.CodecPrivate, err = readBytes32(in); err != nil {
		return info, err
	}
	width, err := readUint32(in)
	if err != nil {
		return info, err
	}
	height, err := readUint32(in)
	if err != nil {
		return info, err
	}
	info.Width = int(width)
	info.Height = int(height)
	if info.FramePeriodNS, err = readUint64(in); err != nil {
		return info, err
	}
	return info, nil
}

func (s *source) Tracks() []playback.TrackInfo {
	out := make([]playback.TrackInfo, len(s.tracks))
	copy(out, s.tracks)
	return out
}

func (s *source) Timestamps(trackName string) ([]uint64, error) {
	timestamps, ok := s.timestamps[trackName]
	if !ok {
		return nil, errors.Errorf("unknown track %q", trackName)
	}
	out := make([]uint64, len(timestamps))
	copy(out, timestamps)
	return out, nil
}

func (s *source) BlockAt(trackName string, index int) (playback.Block, error) {
	blocks, ok := s.blocks[trackName]
	if !ok {
		return playback.Block{}, errors.Errorf("unknown track %q", trackName)
	}
	if index < 0 || index >= len(blocks) {
		return playback.Block{}, errors.Errorf("block index %d out of range for track %q", index, trackName)
	}
	block := blocks[index]
	payload := make([]byte, len(block.Payload))
	copy(payload, block.Payload)
	return playback.Block{TimestampNS: block.TimestampNS, Payload: payload}, nil
}

func (s *source) Configuration() (playback.RecordConfiguration, error) {
	return s.config, nil
}

func (s *source) Tag(name string) (string, bool) {
	value, ok := s.tags[name]
	return value, ok
}

func (s *source) Attachment(name string) ([]byte, bool) {
	data, ok := s.attachments[name]
	return data, ok
}

func (s *source) Close() error {
	return nil
}

func readUint32(in io.Reader) (uint32, error) {
	var buf [4]byte
	if _, err := io.ReadFull(in, buf[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(buf[:]), nil
}

func readUint64(in io.Reader) (uint64, error) {
	var buf [8]byte
	if _, err := io.ReadFull(in, buf[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(buf[:]), nil
}

func readString16(in io.Reader) (string, error) {
	var buf [2]byte
	if _, err := io.ReadFull(in, buf[:]); err != nil {
		return "", err
	}
	b := make([]byte, binary.LittleEndian.Uint16(buf[:]))
	if _, err := io.ReadFull(in, b); err != nil {
		return "", err
	}
	return string(b), nil
}

func readBytes32(in io.Reader) ([]byte, error) {
	n, err := readUint32(in)
	if err != nil {
		return nil, err
	}
	if n > maxSaneLength {
		return nil, errors.Errorf("length field %d exceeds limit", n)
	}
	b := make([]byte, n)
	if _, err := io.ReadFull(in, b); err != nil {
		return nil, err
	}
	return b, nil
}
