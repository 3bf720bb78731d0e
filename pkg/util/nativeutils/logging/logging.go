// This Source Code Form is subject to the terms of the MIT License.
// If a copy of the MIT License was not distributed with this
// file, you can obtain one at https://opensource.org/licenses/MIT.
//
// Copyright (c) DUSK NETWORK. All rights reserved.

package logging

import (
	"io"
	"os"

	cfg "github.com/dusk-network/discv5-harness/pkg/config"
	log "github.com/sirupsen/logrus"
)

// InitLog applies the logger settings of the configuration to the standard
// logger and redirects it to w.
func InitLog(w io.Writer) {
	// apply logger level from configurations
	SetToLevel(cfg.Get().Logger.Level)
	SetFormat(cfg.Get().Logger.Format)
	log.SetOutput(w)
}

// SetToLevel sets the level of the standard logger. Unknown levels fall back
// to trace.
func SetToLevel(l string) {
	level, err := log.ParseLevel(l)
	if err == nil {
		log.SetLevel(level)
	} else {
		log.SetLevel(log.TraceLevel)
		log.Warnf("Parse logger level from config err: %v", err)
	}
}

// SetFormat switches the standard logger to JSON output for "json" and to
// text output otherwise.
func SetFormat(format string) {
	if format == "json" {
		log.SetFormatter(&log.JSONFormatter{})
		return
	}
	log.SetFormatter(&log.TextFormatter{})
}

// Output opens the log destination named by logger.output: stdout, or the
// file <output>.log.
func Output(output string) (io.WriteCloser, error) {
	if output == "" || output == "stdout" {
		return nopCloser{os.Stdout}, nil
	}
	return os.Create(output + ".log")
}

// NewFileLogger creates a logger writing into path with the level and
// formatter of the standard logger. The caller closes the returned file.
func NewFileLogger(path string) (*log.Logger, *os.File, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, err
	}

	std := log.StandardLogger()
	l := log.New()
	l.SetOutput(f)
	l.SetLevel(std.GetLevel())
	l.SetFormatter(std.Formatter)
	return l, f, nil
}

// NewLogger creates a logger at level writing to output, as resolved by
// Output. It takes the formatter of the standard logger. The caller closes
// the returned output.
func NewLogger(output, level string) (*log.Logger, io.Closer, error) {
	lvl, err := log.ParseLevel(level)
	if err != nil {
		return nil, nil, err
	}

	w, err := Output(output)
	if err != nil {
		return nil, nil, err
	}

	l := log.New()
	l.SetOutput(w)
	l.SetLevel(lvl)
	l.SetFormatter(log.StandardLogger().Formatter)
	return l, w, nil
}

type nopCloser struct {
	io.Writer
}

func (nopCloser) Close() error {
	return nil
}
