package download

import "sync"

// Totals is a snapshot of the run's accumulated counters.
type Totals struct {
	Processed  int
	Downloaded int
	Reused     int
	Skipped    int
	Failed     int
	// BytesTransferred is the number of bytes fetched over the network,
	// or, in dry-run mode, the bytes a real run would transfer.
	BytesTransferred int64
}

// Ledger accumulates process-scoped running totals for one run. It is safe
// for concurrent use so a future worker pool cannot corrupt the counts.
type Ledger struct {
	mu     sync.Mutex
	totals Totals
}

// RecordSkipped counts an entry whose target was already complete.
func (l *Ledger) RecordSkipped() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.totals.Processed++
	l.totals.Skipped++
}

// RecordReused counts an entry satisfied by copying a duplicate.
func (l *Ledger) RecordReused() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.totals.Processed++
	l.totals.Reused++
}

// RecordDownloaded counts a completed network transfer of the given size.
func (l *Ledger) RecordDownloaded(bytes int64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.totals.Processed++
	l.totals.Downloaded++
	l.totals.BytesTransferred += bytes
}

// RecordFailed counts an entry whose transfer failed.
func (l *Ledger) RecordFailed() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.totals.Processed++
	l.totals.Failed++
}

// RecordPlanned adds bytes that a real run would transfer without counting
// an additional entry. Used by dry-run reporting for reuse candidates.
func (l *Ledger) RecordPlanned(bytes int64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.totals.BytesTransferred += bytes
}

// Totals returns a snapshot of the current counters.
func (l *Ledger) Totals() Totals {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.totals
}
