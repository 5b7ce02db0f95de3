package remote

import (
	"io"

	"github.com/mmcdole/shuttle/internal/domain"
)

// progressReader counts bytes pulled by the transport and reports the running total
type progressReader struct {
	r        io.Reader
	sent     int64
	progress domain.ProgressFunc
}

func newProgressReader(r io.Reader, progress domain.ProgressFunc) io.Reader {
	if progress == nil {
		return r
	}
	return &progressReader{r: r, progress: progress}
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	if n > 0 {
		p.sent += int64(n)
		p.progress(p.sent)
	}
	return n, err
}
