package domain

// ProgressFunc receives the cumulative number of bytes sent so far.
// Values are non-decreasing and not evenly spaced.
type ProgressFunc func(bytesSent int64)

// ProgressSample is a progress update for one file
type ProgressSample struct {
	UploadID   string
	FileName   string
	BytesSent  int64
	TotalBytes int64
}

// Percentage returns BytesSent/TotalBytes*100, or 0 for an empty file
func (p ProgressSample) Percentage() float64 {
	if p.TotalBytes <= 0 {
		return 0
	}
	return float64(p.BytesSent) / float64(p.TotalBytes) * 100
}

// ProgressObserver receives progress samples during an upload.
// Implementations must not block.
type ProgressObserver interface {
	OnProgress(sample ProgressSample)
}

// NoOpObserver discards progress samples
type NoOpObserver struct{}

func (NoOpObserver) OnProgress(ProgressSample) {}
