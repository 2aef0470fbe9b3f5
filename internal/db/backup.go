package db

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
)

// BackupOptions controls the periodic snapshot copy of the SQLite file.
type BackupOptions struct {
	Enabled       bool
	StoragePath   string
	Interval      time.Duration
	RetentionDays int
}

type Backuper struct {
	dbPath string
	opts   BackupOptions
	logger *zerolog.Logger
}

func NewBackuper(dbPath string, opts BackupOptions, logger *zerolog.Logger) *Backuper {
	if opts.Interval <= 0 {
		opts.Interval = 24 * time.Hour
	}
	return &Backuper{dbPath: dbPath, opts: opts, logger: logger}
}

// Run copies the database file on a fixed interval until ctx is done.
// The copy is safe because the pool is limited to a single connection
// and SQLite leaves the file consistent between transactions.
func (b *Backuper) Run(ctx context.Context) {
	if !b.opts.Enabled {
		b.logger.Info().Msg("backups disabled")
		return
	}

	b.logger.Info().Dur("interval", b.opts.Interval).Str("path", b.opts.StoragePath).Msg("backup loop started")

	ticker := time.NewTicker(b.opts.Interval)
	defer ticker.Stop()

	if err := b.Snapshot(); err != nil {
		b.logger.Error().Err(err).Msg("initial backup failed")
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := b.Snapshot(); err != nil {
				b.logger.Error().Err(err).Msg("scheduled backup failed")
			}
			b.cleanup()
		}
	}
}

func (b *Backuper) Snapshot() error {
	if err := os.MkdirAll(b.opts.StoragePath, 0o755); err != nil {
		return fmt.Errorf("create backup directory: %w", err)
	}

	name := fmt.Sprintf("zapis_%s.db", time.Now().Format("20060102_150405"))
	dst := filepath.Join(b.opts.StoragePath, name)

	source, err := os.Open(b.dbPath)
	if err != nil {
		return err
	}
	defer source.Close()

	destination, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer destination.Close()

	if _, err = io.Copy(destination, source); err != nil {
		return err
	}

	b.logger.Info().Str("path", dst).Msg("backup written")
	return nil
}

func (b *Backuper) cleanup() {
	if b.opts.RetentionDays <= 0 {
		return
	}

	files, err := os.ReadDir(b.opts.StoragePath)
	if err != nil {
		b.logger.Error().Err(err).Msg("read backup directory")
		return
	}

	cutoff := time.Now().AddDate(0, 0, -b.opts.RetentionDays)
	for _, file := range files {
		if file.IsDir() {
			continue
		}
		info, err := file.Info()
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			b.logger.Info().Str("file", file.Name()).Msg("removing expired backup")
			os.Remove(filepath.Join(b.opts.StoragePath, file.Name()))
		}
	}
}
