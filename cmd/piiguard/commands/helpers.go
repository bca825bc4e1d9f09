// Package commands contains CLI command implementations for piiguard.
package commands

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
)

// IOTuple holds reader and writer for commands, allowing for testing.
type IOTuple struct {
	Reader io.Reader
	Writer io.Writer
}

// DefaultIO returns an IOTuple with os.Stdin and os.Stdout.
func DefaultIO() IOTuple {
	return IOTuple{
		Reader: os.Stdin,
		Writer: os.Stdout,
	}
}

// OpenInput opens the named input file. An empty name or "-" keeps stdin.
// The returned close function must always be called.
func OpenInput(in string) (io.Reader, func(), error) {
	if in == "" || in == "-" {
		return os.Stdin, func() {}, nil
	}
	f, err := os.Open(in)
	if err != nil {
		return nil, func() {}, fmt.Errorf("failed to open input: %w", err)
	}
	return f, func() { _ = f.Close() }, nil
}

// Output collects a command's result in memory. Nothing reaches the
// destination until Commit, so a command that fails part way leaves an
// existing output file untouched.
type Output struct {
	name   string
	stdout io.Writer
	buf    bytes.Buffer
}

// NewOutput prepares the named output file. An empty name or "-" writes to
// stdout. The parent directory must already exist.
func NewOutput(name string) (*Output, error) {
	o := &Output{name: name, stdout: os.Stdout}
	if o.toStdout() {
		return o, nil
	}
	info, err := os.Stat(filepath.Dir(name))
	if err != nil {
		return nil, fmt.Errorf("failed to create output: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("failed to create output: %s is not a directory", filepath.Dir(name))
	}
	return o, nil
}

func (o *Output) toStdout() bool {
	return o.name == "" || o.name == "-"
}

// Write buffers p.
func (o *Output) Write(p []byte) (int, error) {
	return o.buf.Write(p)
}

// Commit writes the buffered bytes. Files are written to a temporary file in
// the same directory, synced, and renamed over the destination with mode 0600.
func (o *Output) Commit() error {
	if o.toStdout() {
		if _, err := o.stdout.Write(o.buf.Bytes()); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
		return nil
	}

	tmp, err := os.CreateTemp(filepath.Dir(o.name), "."+filepath.Base(o.name)+".*")
	if err != nil {
		return fmt.Errorf("failed to create output: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(o.buf.Bytes()); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write output: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write output: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	if err := os.Rename(tmp.Name(), o.name); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

// readAll reads the whole input, logging its size but never its contents.
func readAll(r io.Reader, logger logrus.FieldLogger) ([]byte, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read input: %w", err)
	}
	logger.WithField("bytes", len(data)).Debug("input read")
	return data, nil
}
