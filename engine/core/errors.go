package core

import (
	"errors"
)

var (
	ErrModelLoad          = errors.New("model load failed")
	ErrMaterialLibrary    = errors.New("material library load failed")
	ErrShaderCompile      = errors.New("shader compilation failed")
	ErrUnknownBackend     = errors.New("unknown renderer backend")
	ErrBackendUnavailable = errors.New("renderer backend unavailable")
	ErrInvalidTexture     = errors.New("invalid texture")
	ErrConfig             = errors.New("invalid configuration")
	ErrUnknown            = errors.New("unknown")
)
