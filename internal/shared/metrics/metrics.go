package metrics

import (
	"bytes"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/gin-gonic/gin"
)

var (
	presignIssuedTotal     atomic.Uint64
	presignFailedTotal     atomic.Uint64
	documentsRecordedTotal atomic.Uint64
	jobsStartedTotal       atomic.Uint64
	jobsStartFailedTotal   atomic.Uint64
	jobPollsTotal          atomic.Uint64

	terminalMu     sync.Mutex
	terminalStates = map[string]uint64{}

	jobWaitDuration = newHistogram([]float64{1000, 2000, 5000, 10000, 30000, 60000, 120000, 300000, 600000})
)

// IncPresignIssued counts presigned upload URLs handed out.
func IncPresignIssued() { presignIssuedTotal.Add(1) }

// IncPresignFailed counts presign attempts that S3 rejected.
func IncPresignFailed() { presignFailedTotal.Add(1) }

// IncDocumentsRecorded counts inserted document rows.
func IncDocumentsRecorded() { documentsRecordedTotal.Add(1) }

// IncJobsStarted counts analysis jobs Textract accepted.
func IncJobsStarted() { jobsStartedTotal.Add(1) }

// IncJobsStartFailed counts analysis start requests that did not return a job id.
func IncJobsStartFailed() { jobsStartFailedTotal.Add(1) }

// IncJobPolls counts status queries sent to Textract.
func IncJobPolls() { jobPollsTotal.Add(1) }

// IncJobTerminal counts a job observed in a terminal state.
func IncJobTerminal(state string) {
	terminalMu.Lock()
	terminalStates[state]++
	terminalMu.Unlock()
}

// ObserveJobWaitMs records how long a reader waited for a terminal state.
func ObserveJobWaitMs(value float64) {
	if value < 0 {
		value = 0
	}
	jobWaitDuration.Observe(value)
}

// Handler exposes metrics in Prometheus text format.
func Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Content-Type", "text/plain; version=0.0.4")
		c.String(http.StatusOK, Render())
	}
}

// Render renders metrics in Prometheus text format.
func Render() string {
	var buf bytes.Buffer
	writeCounter(&buf, "presign_issued_total", "Presigned upload URLs issued", presignIssuedTotal.Load())
	writeCounter(&buf, "presign_failed_total", "Presigned upload URL failures", presignFailedTotal.Load())
	writeCounter(&buf, "documents_recorded_total", "Document rows recorded", documentsRecordedTotal.Load())
	writeCounter(&buf, "textract_jobs_started_total", "Analysis jobs started", jobsStartedTotal.Load())
	writeCounter(&buf, "textract_jobs_start_failed_total", "Analysis job starts rejected", jobsStartFailedTotal.Load())
	writeCounter(&buf, "textract_job_polls_total", "Job status queries", jobPollsTotal.Load())
	writeLabeledCounter(&buf, "textract_job_terminal_total", "Jobs observed in a terminal state", "state", snapshotTerminal())
	writeHistogram(&buf, "textract_job_wait_ms", "Reader wait until terminal state in milliseconds", jobWaitDuration.Snapshot())
	return buf.String()
}

func snapshotTerminal() map[string]uint64 {
	terminalMu.Lock()
	defer terminalMu.Unlock()
	out := make(map[string]uint64, len(terminalStates))
	for k, v := range terminalStates {
		out[k] = v
	}
	return out
}

type histogram struct {
	mu      sync.Mutex
	buckets []float64
	counts  []uint64
	sum     float64
	count   uint64
}

type histogramSnapshot struct {
	buckets []float64
	counts  []uint64
	sum     float64
	count   uint64
}

func newHistogram(buckets []float64) *histogram {
	return &histogram{
		buckets: buckets,
		counts:  make([]uint64, len(buckets)),
	}
}

func (h *histogram) Observe(value float64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.count++
	h.sum += value
	for i, bound := range h.buckets {
		if value <= bound {
			h.counts[i]++
			break
		}
	}
}

func (h *histogram) Snapshot() histogramSnapshot {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := histogramSnapshot{
		buckets: append([]float64(nil), h.buckets...),
		counts:  append([]uint64(nil), h.counts...),
		sum:     h.sum,
		count:   h.count,
	}
	return out
}

func writeCounter(buf *bytes.Buffer, name, help string, value uint64) {
	fmt.Fprintf(buf, "# HELP %s %s\n", name, help)
	fmt.Fprintf(buf, "# TYPE %s counter\n", name)
	fmt.Fprintf(buf, "%s %d\n", name, value)
}

func writeLabeledCounter(buf *bytes.Buffer, name, help, label string, values map[string]uint64) {
	fmt.Fprintf(buf, "# HELP %s %s\n", name, help)
	fmt.Fprintf(buf, "# TYPE %s counter\n", name)
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(buf, "%s{%s=%q} %d\n", name, label, k, values[k])
	}
}

func writeHistogram(buf *bytes.Buffer, name, help string, snap histogramSnapshot) {
	fmt.Fprintf(buf, "# HELP %s %s\n", name, help)
	fmt.Fprintf(buf, "# TYPE %s histogram\n", name)
	var cumulative uint64
	for i, bound := range snap.buckets {
		cumulative += snap.counts[i]
		fmt.Fprintf(buf, "%s_bucket{le=\"%s\"} %d\n", name, formatFloat(bound), cumulative)
	}
	fmt.Fprintf(buf, "%s_bucket{le=\"+Inf\"} %d\n", name, snap.count)
	fmt.Fprintf(buf, "%s_sum %s\n", name, formatFloat(snap.sum))
	fmt.Fprintf(buf, "%s_count %d\n", name, snap.count)
}

func formatFloat(value float64) string {
	if value == float64(int64(value)) {
		return strconv.FormatInt(int64(value), 10)
	}
	return strconv.FormatFloat(value, 'f', -1, 64)
}
