package ewf

import "github.com/hoyt-harness/libewf/internal/filepool"

// poolWriter adapts one filepool.Pool handle to io.Writer so the section
// encoders (which expect to binary.Write straight to a destination) can
// write through the pool without knowing about it.
type poolWriter struct {
	pool *filepool.Pool
	h    filepool.Handle
}

func (w poolWriter) Write(p []byte) (int, error) {
	return w.pool.Write(w.h, p)
}
