package objectstore

import (
	"io"

	"github.com/schollz/progressbar/v3"
)

// readerSize reports the bytes left in r, or -1 when r cannot seek.
func readerSize(r io.Reader) int64 {
	seeker, ok := r.(io.Seeker)
	if !ok {
		return -1
	}
	current, err := seeker.Seek(0, io.SeekCurrent)
	if err != nil {
		return -1
	}
	end, err := seeker.Seek(0, io.SeekEnd)
	if err != nil {
		return -1
	}
	if _, err := seeker.Seek(current, io.SeekStart); err != nil {
		return -1
	}
	return end - current
}

// withProgress wraps r in an upload progress bar unless quiet is set.
func withProgress(r io.Reader, size int64, quiet bool) io.Reader {
	if quiet {
		return r
	}
	bar := progressbar.DefaultBytes(size, "uploading")
	pbReader := progressbar.NewReader(r, bar)
	return &pbReader
}
