package net

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"github.com/pkg/errors"
)

// CSVLogger logs training progress to a CSV file, one row per epoch.
// The first error is kept and reported by Err; later epochs are skipped.
type CSVLogger struct {
	BaseCallback
	Filename string
	Append   bool

	file   *os.File
	writer *csv.Writer
	err    error
}

// NewCSVLogger creates a new CSVLogger.
func NewCSVLogger(filename string, append bool) *CSVLogger {
	return &CSVLogger{
		Filename: filename,
		Append:   append,
	}
}

// Err returns the first error encountered while logging.
func (c *CSVLogger) Err() error { return c.err }

func (c *CSVLogger) OnTrainBegin(*Sequential) {
	mode := os.O_CREATE | os.O_WRONLY
	if c.Append {
		mode |= os.O_APPEND
	} else {
		mode |= os.O_TRUNC
	}

	file, err := os.OpenFile(c.Filename, mode, 0o644)
	if err != nil {
		c.err = errors.Wrapf(err, "csv logger: open %s", c.Filename)
		return
	}
	c.file = file
	c.writer = csv.NewWriter(file)

	// Write header if not appending or if file is empty
	info, err := file.Stat()
	if err == nil && (info.Size() == 0 || !c.Append) {
		c.write([]string{"epoch", "steps", "loss", "accuracy", "time_seconds"})
	}
}

func (c *CSVLogger) OnEpochEnd(epoch int, logs EpochLogs) {
	c.write([]string{
		strconv.Itoa(epoch + 1),
		strconv.Itoa(logs.Steps),
		fmt.Sprintf("%.6f", logs.Loss),
		fmt.Sprintf("%.6f", logs.Accuracy),
		fmt.Sprintf("%.2f", logs.Elapsed.Seconds()),
	})
}

func (c *CSVLogger) OnTrainEnd(*Sequential, History) {
	if c.file == nil {
		return
	}
	c.writer.Flush()
	if err := c.writer.Error(); err != nil && c.err == nil {
		c.err = errors.Wrap(err, "csv logger: flush")
	}
	if err := c.file.Close(); err != nil && c.err == nil {
		c.err = errors.Wrap(err, "csv logger: close")
	}
	c.file = nil
	c.writer = nil
}

func (c *CSVLogger) write(record []string) {
	if c.writer == nil || c.err != nil {
		return
	}
	if err := c.writer.Write(record); err != nil {
		c.err = errors.Wrap(err, "csv logger: write")
		return
	}
	c.writer.Flush()
	if err := c.writer.Error(); err != nil {
		c.err = errors.Wrap(err, "csv logger: flush")
	}
}
