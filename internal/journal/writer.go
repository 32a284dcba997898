package journal

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"
)

// entry is one journaled script fragment.
type entry struct {
	TS       string `json:"ts"`
	Fragment string `json:"fragment"`
}

// Writer journals every script fragment sent to the page as JSON lines in
// date-organized files. Writes are asynchronous and never block the script
// channel; when the buffer is full the fragment is dropped with a warning.
type Writer struct {
	baseDir     string
	sessionID   string // filename base, e.g. "chart-a1b2c3d4.jsonl"
	maxSizeMB   int
	writeCh     chan entry
	done        chan struct{}
	wg          sync.WaitGroup
	currentDate string
	logger      *lumberjack.Logger
	mu          sync.Mutex
}

// NewWriter creates an async journal writer rooted at baseDir.
func NewWriter(baseDir, sessionID string, bufferSize, maxSizeMB int) *Writer {
	if bufferSize <= 0 {
		bufferSize = 1024
	}
	if maxSizeMB <= 0 {
		maxSizeMB = 50
	}
	w := &Writer{
		baseDir:   baseDir,
		sessionID: sessionID,
		maxSizeMB: maxSizeMB,
		writeCh:   make(chan entry, bufferSize),
		done:      make(chan struct{}),
	}

	w.wg.Add(1)
	go w.writeLoop()

	return w
}

// Record queues a fragment for async journaling. Implements the script
// channel's Recorder interface.
func (w *Writer) Record(fragment string) {
	e := entry{
		TS:       time.Now().UTC().Format(time.RFC3339Nano),
		Fragment: fragment,
	}
	select {
	case w.writeCh <- e:
	case <-w.done:
	default:
		slog.Warn("journal buffer full, dropping fragment")
	}
}

// Close shuts down the writer and flushes pending entries.
func (w *Writer) Close() error {
	close(w.done)

	timeout := time.After(5 * time.Second)
	for {
		select {
		case e := <-w.writeCh:
			w.writeEntry(e)
		case <-timeout:
			slog.Warn("journal close timeout, some fragments may be lost")
			goto done
		default:
			goto done
		}
	}

done:
	w.wg.Wait()

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.logger != nil {
		return w.logger.Close()
	}
	return nil
}

func (w *Writer) writeLoop() {
	defer w.wg.Done()

	for {
		select {
		case e := <-w.writeCh:
			w.writeEntry(e)
		case <-w.done:
			return
		}
	}
}

func (w *Writer) writeEntry(e entry) {
	data, err := json.Marshal(e)
	if err != nil {
		slog.Error("journal marshal failed", "error", err)
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	currentDate := time.Now().UTC().Format("2006-01-02")
	if currentDate != w.currentDate || w.logger == nil {
		w.rotateForDate(currentDate)
	}
	if w.logger == nil {
		return
	}

	if _, err := w.logger.Write(append(data, '\n')); err != nil {
		slog.Error("journal write failed", "error", err)
	}
}

func (w *Writer) rotateForDate(date string) {
	if w.logger != nil {
		w.logger.Close()
	}

	dir := filepath.Join(w.baseDir, date)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		slog.Error("journal directory create failed", "error", err, "dir", dir)
		w.logger = nil
		return
	}

	var filename string
	if w.sessionID != "" {
		filename = filepath.Join(dir, w.sessionID+".jsonl")
	} else {
		filename = filepath.Join(dir, fmt.Sprintf("%d.jsonl", time.Now().Unix()))
	}

	w.logger = &lumberjack.Logger{
		Filename:   filename,
		MaxSize:    w.maxSizeMB,
		MaxBackups: 10,
		MaxAge:     30,
		Compress:   false,
		LocalTime:  false,
	}

	w.currentDate = date
	slog.Info("journal file opened", "file", filename)
}
