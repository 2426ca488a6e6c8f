package histogram

import (
	"bufio"
	"encoding/binary"
	"os"
)

// CheckpointWriter appends fixed-layout Checkpoint records to a local file,
// one per call to Write, prefixed with a 4-byte length so a reader can
// tell a truncated final record from a complete one. It is meant for periodic latency
// checkpoints written by a long-running consumer process, not for
// cross-process or cross-architecture transport.
type CheckpointWriter struct {
	f *os.File
	w *bufio.Writer
}

// NewCheckpointWriter opens (creating if necessary) a checkpoint file for
// appending.
func NewCheckpointWriter(path string) (*CheckpointWriter, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, err
	}
	return &CheckpointWriter{f: f, w: bufio.NewWriter(f)}, nil
}

// Write encodes c and appends it to the checkpoint file, flushing
// immediately so a reader tailing the file sees it right away.
func (cw *CheckpointWriter) Write(c Checkpoint) error {
	buf := c.Encode(nil)

	var lenPrefix [4]byte
	binary.LittleEndian.PutUint32(lenPrefix[:], uint32(len(buf)))

	if _, err := cw.w.Write(lenPrefix[:]); err != nil {
		return err
	}
	if _, err := cw.w.Write(buf); err != nil {
		return err
	}
	return cw.w.Flush()
}

// Close flushes any buffered bytes and closes the underlying file.
func (cw *CheckpointWriter) Close() error {
	if err := cw.w.Flush(); err != nil {
		cw.f.Close()
		return err
	}
	return cw.f.Close()
}

// ReadCheckpoints reads every length-prefixed Checkpoint record from path.
// A truncated final record is silently dropped, matching the event log's
// torn-tail tolerance.
func ReadCheckpoints(path string) ([]Checkpoint, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := bufio.NewReader(f)
	var out []Checkpoint
	for {
		var lenPrefix [4]byte
		if _, err := readFull(r, lenPrefix[:]); err != nil {
			break
		}
		size := binary.LittleEndian.Uint32(lenPrefix[:])
		buf := make([]byte, size)
		if _, err := readFull(r, buf); err != nil {
			break
		}
		out = append(out, Checkpoint{}.Decode(buf))
	}
	return out, nil
}

func readFull(r *bufio.Reader, buf []byte) (int, error) {
	n := 0
	for n < len(buf) {
		m, err := r.Read(buf[n:])
		n += m
		if err != nil {
			return n, err
		}
	}
	return n, nil
}
