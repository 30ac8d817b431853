package eventlog

import (
	"bufio"
	"io"
	"strings"
)

// lineReader reads JSONL segments line by line while tracking
// consumed byte counts, so incremental readers can persist an
// offset. Lines exceeding maxLen are skipped (their bytes still
// count as consumed). A trailing line without a terminator is
// treated as a write in flight and not consumed.
type lineReader struct {
	r       *bufio.Reader
	maxLen  int
	buf     []byte
	readErr error
}

func newLineReader(r io.Reader, maxLen int) *lineReader {
	return &lineReader{
		r:      bufio.NewReaderSize(r, initialBufSize),
		maxLen: maxLen,
		buf:    make([]byte, 0, initialBufSize),
	}
}

// next returns the next terminated line (without its newline),
// the number of bytes consumed including the terminator, and
// true. Oversized lines yield ("", n, true) so callers skip
// them but still advance. Returns ok=false at end of input.
func (lr *lineReader) next() (string, int64, bool) {
	lr.buf = lr.buf[:0]
	var consumed int64
	oversized := false

	for {
		chunk, err := lr.r.ReadSlice('\n')
		consumed += int64(len(chunk))

		if err == bufio.ErrBufferFull {
			if !oversized {
				lr.buf = append(lr.buf, chunk...)
				if len(lr.buf) > lr.maxLen {
					oversized = true
					lr.buf = lr.buf[:0]
				}
			}
			continue
		}
		if err != nil {
			// io.EOF here means a partial unterminated line
			// (or clean end of input); either way nothing
			// more is consumed.
			if err != io.EOF {
				lr.readErr = err
			}
			return "", 0, false
		}
		if oversized {
			return "", consumed, true
		}
		lr.buf = append(lr.buf, chunk...)
		if len(lr.buf) > lr.maxLen {
			return "", consumed, true
		}
		line := strings.TrimRight(string(lr.buf), "\r\n")
		return line, consumed, true
	}
}

// err reports a non-EOF read failure encountered by next.
func (lr *lineReader) err() error {
	return lr.readErr
}
