package ir

import (
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
)

// artifactVersion is bumped whenever the serialized layout changes, so a
// cache populated by an older build is never misread.
const artifactVersion = 3

type envelope struct {
	Version int
	Module  *Module
}

// EncodeModule serializes m for on-disk artifacts.
func EncodeModule(m *Module) ([]byte, error) {
	return msgpack.Marshal(envelope{Version: artifactVersion, Module: m})
}

// DecodeModule deserializes an artifact produced by EncodeModule.
func DecodeModule(data []byte) (*Module, error) {
	var env envelope
	if err := msgpack.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("decode module: %w", err)
	}
	if env.Version != artifactVersion {
		return nil, fmt.Errorf("decode module: artifact version %d, want %d", env.Version, artifactVersion)
	}
	if env.Module == nil {
		return nil, fmt.Errorf("decode module: empty artifact")
	}
	return env.Module, nil
}
