package risk

import (
	"context"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/writer"
)

// outcomeRecord is the Parquet row schema for an exported Outcome.
type outcomeRecord struct {
	Strategy  string `parquet:"name=strategy, type=BYTE_ARRAY, convertedtype=UTF8"`
	ProfitWei string `parquet:"name=profit_wei, type=BYTE_ARRAY, convertedtype=UTF8"`
	Success   bool   `parquet:"name=success, type=BOOLEAN"`
	LatencyMs int64  `parquet:"name=latency_ms, type=INT64"`
	AtUnix    int64  `parquet:"name=at_unix, type=INT64"`
}

// Exporter periodically flushes buffered outcomes to a Parquet file,
// following the reconciliation service's periodic-export convention: a
// in-memory buffer (not size-capped) drained on a ticker, one file per flush.
type Exporter struct {
	mu      sync.Mutex
	buffer  []Outcome
	dir     string
	interval time.Duration
}

// NewExporter constructs an Exporter writing timestamp-named Parquet files
// (outcomes-<unix nanoseconds>.parquet) into dir every interval.
func NewExporter(dir string, interval time.Duration) *Exporter {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &Exporter{dir: dir, interval: interval}
}

// Buffer appends o to the pending export batch.
func (e *Exporter) Buffer(o Outcome) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.buffer = append(e.buffer, o)
}

// Run flushes the buffer on a fixed interval until ctx is cancelled.
func (e *Exporter) Run(ctx context.Context) {
	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			_ = e.Flush()
			return
		case <-ticker.C:
			_ = e.Flush()
		}
	}
}

// Flush writes the current buffer to a new Parquet file and clears it. A
// call with an empty buffer is a no-op.
func (e *Exporter) Flush() error {
	e.mu.Lock()
	pending := e.buffer
	e.buffer = nil
	e.mu.Unlock()

	if len(pending) == 0 {
		return nil
	}

	path := fmt.Sprintf("%s/outcomes-%d.parquet", e.dir, time.Now().UnixNano())
	fw, err := local.NewLocalFileWriter(path)
	if err != nil {
		return err
	}
	defer fw.Close()

	pw, err := writer.NewParquetWriter(fw, new(outcomeRecord), 4)
	if err != nil {
		return err
	}
	pw.RowGroupSize = 64 * 1024 * 1024
	pw.CompressionType = parquet.CompressionCodec_SNAPPY

	for _, o := range pending {
		record := outcomeRecord{
			Strategy:  o.Strategy,
			ProfitWei: profitString(o.ProfitWei),
			Success:   o.Success,
			LatencyMs: o.Latency.Milliseconds(),
			AtUnix:    o.At.Unix(),
		}
		if err := pw.Write(record); err != nil {
			return err
		}
	}
	return pw.WriteStop()
}

func profitString(wei *big.Int) string {
	if wei == nil {
		return "0"
	}
	return wei.String()
}
