// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"

	"github.com/adrianmo/go-nmea"
	"github.com/jacobsa/go-serial/serial"

	"github.com/relabs-tech/find_north/internal/mag"
)

// ErrBadLine is returned by ParseLine for text that is not a magnetometer sample.
var ErrBadLine = errors.New("not a magnetometer line")

// TypeFNM is the sentence type of the proprietary $PFNM,x,y,z*hh sentence.
const TypeFNM = "FNM"

// FNM is a magnetometer sample carried in a proprietary NMEA sentence.
type FNM struct {
	nmea.BaseSentence
	X int64
	Y int64
	Z int64
}

func parseFNM(s nmea.BaseSentence) (nmea.Sentence, error) {
	if len(s.Fields) != 3 {
		return nil, fmt.Errorf("%w: $PFNM wants 3 fields, got %d", ErrBadLine, len(s.Fields))
	}
	for i, f := range s.Fields {
		if f == "" {
			return nil, fmt.Errorf("%w: $PFNM field %d is empty", ErrBadLine, i)
		}
	}
	p := nmea.NewParser(s)
	m := FNM{
		BaseSentence: s,
		X:            p.Int64(0, "x"),
		Y:            p.Int64(1, "y"),
		Z:            p.Int64(2, "z"),
	}
	return m, p.Err()
}

// Proprietary prefixes are split as talker "P" + type "FNM"; register both
// spellings so the lookup does not depend on that split.
var fnmParser = nmea.SentenceParser{
	CustomParsers: map[string]nmea.ParserFunc{
		TypeFNM:       parseFNM,
		"P" + TypeFNM: parseFNM,
	},
}

// ParseLine decodes one line from a serial magnetometer. Two forms are
// accepted: the console form "x: 12, y: -3, z: 40" and "$PFNM,12,-3,40*hh".
func ParseLine(line string) (mag.Sample, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return mag.Sample{}, ErrBadLine
	}

	if strings.HasPrefix(line, "$") {
		sentence, err := fnmParser.Parse(line)
		if err != nil {
			return mag.Sample{}, fmt.Errorf("%w: %v", ErrBadLine, err)
		}
		m, ok := sentence.(FNM)
		if !ok {
			return mag.Sample{}, fmt.Errorf("%w: unexpected sentence %s", ErrBadLine, sentence.DataType())
		}
		return mag.Sample{X: int(m.X), Y: int(m.Y), Z: int(m.Z)}, nil
	}

	var s mag.Sample
	var rest string
	n, _ := fmt.Sscanf(line, "x: %d, y: %d, z: %d%s", &s.X, &s.Y, &s.Z, &rest)
	if n < 3 || rest != "" {
		return mag.Sample{}, fmt.Errorf("%w: %q", ErrBadLine, line)
	}
	return s, nil
}

// SerialSource reads magnetometer lines from a serial port, skipping
// anything that does not parse.
type SerialSource struct {
	port   io.ReadCloser
	reader *bufio.Reader
}

// OpenSerial opens portName at baud, 8N1.
func OpenSerial(portName string, baud int) (*SerialSource, error) {
	opts := serial.OpenOptions{
		PortName:              portName,
		BaudRate:              uint(baud),
		DataBits:              8,
		StopBits:              1,
		MinimumReadSize:       1,
		ParityMode:            serial.PARITY_NONE,
		InterCharacterTimeout: 0,
	}

	port, err := serial.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("serial: open %s: %w", portName, err)
	}
	log.Printf("serial: magnetometer port opened on %s at %d baud", portName, baud)
	return newSerialSource(port), nil
}

func newSerialSource(port io.ReadCloser) *SerialSource {
	return &SerialSource{port: port, reader: bufio.NewReader(port)}
}

// ReadMag returns the next line that parses as a sample.
// Read errors, including EOF, end the stream.
func (s *SerialSource) ReadMag() (mag.Sample, error) {
	for {
		line, err := s.reader.ReadString('\n')
		if line != "" {
			if sample, perr := ParseLine(line); perr == nil {
				return sample, nil
			}
		}
		if err != nil {
			return mag.Sample{}, fmt.Errorf("serial: read: %w", err)
		}
	}
}

func (s *SerialSource) Close() error {
	return s.port.Close()
}
