// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.
package internal_audio

import "fmt"

type AudioFormat int

const (
	Linear16 AudioFormat = iota
	Float32
)

const (
	BytesPerSample = 2  // LINEAR16
	BitsPerSample  = 16 // LINEAR16
	PCMFormatTag   = 1  // WAV PCM format tag
)

type AudioConfig struct {
	SampleRate  uint32
	Channels    uint32
	AudioFormat AudioFormat
}

func NewLinear16khzMonoAudioConfig() *AudioConfig {
	return &AudioConfig{SampleRate: 16000, Channels: 1, AudioFormat: Linear16}
}

func NewLinear48khzMonoAudioConfig() *AudioConfig {
	return &AudioConfig{SampleRate: 48000, Channels: 1, AudioFormat: Linear16}
}

// STREAMING_AUDIO_CONFIG is what every transcription relay receives.
var STREAMING_AUDIO_CONFIG = NewLinear16khzMonoAudioConfig()

// OPUS_AUDIO_CONFIG is the rate the Ogg/Opus sink encodes at.
var OPUS_AUDIO_CONFIG = NewLinear48khzMonoAudioConfig()

func (c *AudioConfig) BytesPerSecond() int {
	return int(c.SampleRate) * int(c.Channels) * BytesPerSample
}

func (c *AudioConfig) Validate() error {
	if c.SampleRate < 3000 || c.SampleRate > 384000 {
		return fmt.Errorf("unsupported sample rate %d", c.SampleRate)
	}
	if c.Channels == 0 || c.Channels > 8 {
		return fmt.Errorf("unsupported channel count %d", c.Channels)
	}
	return nil
}

func (c *AudioConfig) String() string {
	return fmt.Sprintf("%dHz/%dch", c.SampleRate, c.Channels)
}
