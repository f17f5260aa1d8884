// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.
package internal_audio

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

const WAVHeaderSize = 44

var ErrInvalidWAV = errors.New("invalid wav stream")

// WAVHeader builds a canonical 44-byte PCM header for dataLen bytes of audio.
func WAVHeader(cfg *AudioConfig, dataLen int) []byte {
	var buf bytes.Buffer
	bps := cfg.BytesPerSecond()

	buf.Write([]byte("RIFF"))
	binary.Write(&buf, binary.LittleEndian, uint32(36+dataLen))
	buf.Write([]byte("WAVE"))

	buf.Write([]byte("fmt "))
	binary.Write(&buf, binary.LittleEndian, uint32(16))
	binary.Write(&buf, binary.LittleEndian, uint16(PCMFormatTag))
	binary.Write(&buf, binary.LittleEndian, uint16(cfg.Channels))
	binary.Write(&buf, binary.LittleEndian, cfg.SampleRate)
	binary.Write(&buf, binary.LittleEndian, uint32(bps))
	binary.Write(&buf, binary.LittleEndian, uint16(BytesPerSample*int(cfg.Channels)))
	binary.Write(&buf, binary.LittleEndian, uint16(BitsPerSample))

	buf.Write([]byte("data"))
	binary.Write(&buf, binary.LittleEndian, uint32(dataLen))
	return buf.Bytes()
}

// SealWAV patches the RIFF and data sizes of a streamed WAV whose header was
// written before the length was known. The input is modified in place.
func SealWAV(wav []byte) ([]byte, error) {
	if len(wav) < WAVHeaderSize || string(wav[0:4]) != "RIFF" || string(wav[36:40]) != "data" {
		return nil, ErrInvalidWAV
	}
	dataLen := len(wav) - WAVHeaderSize
	binary.LittleEndian.PutUint32(wav[4:8], uint32(36+dataLen))
	binary.LittleEndian.PutUint32(wav[40:44], uint32(dataLen))
	return wav, nil
}

// WAVReader exposes the PCM payload of a LINEAR16 wav stream.
type WAVReader struct {
	Config  *AudioConfig
	DataLen uint32
	data    io.Reader
}

func (w *WAVReader) Read(p []byte) (int, error) { return w.data.Read(p) }

// NewWAVReader parses the RIFF chunks up to the data chunk. Chunks other than
// fmt and data are skipped.
func NewWAVReader(r io.Reader) (*WAVReader, error) {
	var riff [12]byte
	if _, err := io.ReadFull(r, riff[:]); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidWAV, err)
	}
	if string(riff[0:4]) != "RIFF" || string(riff[8:12]) != "WAVE" {
		return nil, fmt.Errorf("%w: missing RIFF/WAVE marker", ErrInvalidWAV)
	}

	var cfg *AudioConfig
	for {
		var hdr [8]byte
		if _, err := io.ReadFull(r, hdr[:]); err != nil {
			return nil, fmt.Errorf("%w: no data chunk", ErrInvalidWAV)
		}
		id := string(hdr[0:4])
		size := binary.LittleEndian.Uint32(hdr[4:8])
		switch id {
		case "fmt ":
			if size < 16 {
				return nil, fmt.Errorf("%w: short fmt chunk", ErrInvalidWAV)
			}
			body := make([]byte, size+size%2)
			if _, err := io.ReadFull(r, body); err != nil {
				return nil, fmt.Errorf("%w: %v", ErrInvalidWAV, err)
			}
			format := binary.LittleEndian.Uint16(body[0:2])
			bits := binary.LittleEndian.Uint16(body[14:16])
			if format != PCMFormatTag || bits != BitsPerSample {
				return nil, fmt.Errorf("%w: only 16-bit PCM is supported (format=%d bits=%d)", ErrInvalidWAV, format, bits)
			}
			cfg = &AudioConfig{
				Channels:    uint32(binary.LittleEndian.Uint16(body[2:4])),
				SampleRate:  binary.LittleEndian.Uint32(body[4:8]),
				AudioFormat: Linear16,
			}
			if err := cfg.Validate(); err != nil {
				return nil, fmt.Errorf("%w: %v", ErrInvalidWAV, err)
			}
		case "data":
			if cfg == nil {
				return nil, fmt.Errorf("%w: data before fmt", ErrInvalidWAV)
			}
			return &WAVReader{Config: cfg, DataLen: size, data: io.LimitReader(r, int64(size))}, nil
		default:
			if _, err := io.CopyN(io.Discard, r, int64(size+size%2)); err != nil {
				return nil, fmt.Errorf("%w: %v", ErrInvalidWAV, err)
			}
		}
	}
}
