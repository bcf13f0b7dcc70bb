package iocache

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/huangsam/flowtrack/internal/contract"
	"github.com/huangsam/flowtrack/schema"
	"github.com/klauspost/compress/zstd"
)

// WriteArchive writes events as zstd-compressed JSON lines.
func WriteArchive(w io.Writer, events []schema.ActivityEvent) error {
	encoder, err := zstd.NewWriter(w)
	if err != nil {
		return fmt.Errorf("create zstd encoder: %w", err)
	}

	enc := json.NewEncoder(encoder)
	for _, event := range events {
		if err := enc.Encode(event); err != nil {
			_ = encoder.Close()
			return fmt.Errorf("encode event %d: %w", event.ID, err)
		}
	}

	if err := encoder.Close(); err != nil {
		return fmt.Errorf("finalize compression: %w", err)
	}
	return nil
}

// ReadArchive reads events written by WriteArchive.
func ReadArchive(r io.Reader) ([]schema.ActivityEvent, error) {
	decoder, err := zstd.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("create zstd decoder: %w", err)
	}
	defer decoder.Close()

	var events []schema.ActivityEvent
	dec := json.NewDecoder(bufio.NewReader(decoder))
	for {
		var event schema.ActivityEvent
		if err := dec.Decode(&event); err != nil {
			if errors.Is(err, io.EOF) {
				return events, nil
			}
			return nil, fmt.Errorf("decode archive: %w", err)
		}
		events = append(events, event)
	}
}

// SweepResult summarizes a retention sweep.
type SweepResult struct {
	Cutoff   int64
	Archived int
	Deleted  int64
}

// SweepEvents deletes events older than the retention window. When archivePath
// is set, those events are first appended to it as a zstd JSONL frame; the
// sweep is skipped if the archive cannot be written.
func SweepEvents(ctx context.Context, store contract.EventStore, now int64, retentionDays int, archivePath string) (SweepResult, error) {
	result := SweepResult{Cutoff: RetentionCutoff(retentionDays, now)}

	if archivePath != "" {
		expired, err := store.Range(ctx, 0, result.Cutoff, 0)
		if err != nil {
			return result, fmt.Errorf("failed to read expired events: %w", err)
		}
		if len(expired) > 0 {
			if err := appendArchiveFile(archivePath, expired); err != nil {
				return result, err
			}
		}
		result.Archived = len(expired)
	}

	deleted, err := store.Sweep(ctx, now, retentionDays)
	if err != nil {
		return result, err
	}
	result.Deleted = deleted
	return result, nil
}

// appendArchiveFile adds one frame to the archive at path. Concatenated frames
// read back as a single stream.
func appendArchiveFile(path string, events []schema.ActivityEvent) error {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open archive: %w", err)
	}
	if err := WriteArchive(file, events); err != nil {
		_ = file.Close()
		return err
	}
	return file.Close()
}
