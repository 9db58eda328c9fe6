package classifier

import (
	"bytes"
	"compress/gzip"
	"crypto/sha256"
	"encoding/gob"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"
)

// artifactFormat is bumped whenever modelState changes shape.
const artifactFormat = 1

// Metadata describes a trained model.
type Metadata struct {
	RunID              string
	Format             int
	TrainedAt          time.Time
	SavedAt            time.Time
	Samples            int
	Epochs             int
	ValidationAccuracy float64
	Checksum           string
}

// modelState is everything needed to rebuild a classifier: the vector
// layout, the label order and the network parameters.
type modelState struct {
	Subjects []string
	Keywords []string
	Labels   []string
	Layers   []layer
}

type storedFile struct {
	Metadata       Metadata
	CompressedData []byte
}

// writeArtifact serializes state, checksums it, compresses it and replaces
// path atomically. A previous artifact is kept as path.bak.
func writeArtifact(path string, meta Metadata, state modelState) error {
	var raw bytes.Buffer
	if err := gob.NewEncoder(&raw).Encode(state); err != nil {
		return fmt.Errorf("encode model: %w", err)
	}

	sum := sha256.Sum256(raw.Bytes())
	meta.Checksum = hex.EncodeToString(sum[:])
	meta.Format = artifactFormat
	meta.SavedAt = time.Now().UTC()

	var compressed bytes.Buffer
	zw := gzip.NewWriter(&compressed)
	if _, err := zw.Write(raw.Bytes()); err != nil {
		return fmt.Errorf("compress model: %w", err)
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("compress model: %w", err)
	}

	var out bytes.Buffer
	if err := gob.NewEncoder(&out).Encode(storedFile{Metadata: meta, CompressedData: compressed.Bytes()}); err != nil {
		return fmt.Errorf("encode artifact: %w", err)
	}

	if err := backupArtifact(path); err != nil {
		return fmt.Errorf("backup artifact: %w", err)
	}
	return atomicWrite(path, out.Bytes())
}

// readArtifact loads and verifies an artifact.
func readArtifact(path string) (Metadata, modelState, error) {
	var state modelState

	data, err := os.ReadFile(path)
	if err != nil {
		return Metadata{}, state, err
	}

	var file storedFile
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&file); err != nil {
		return Metadata{}, state, fmt.Errorf("decode artifact: %w", err)
	}
	if file.Metadata.Format != artifactFormat {
		return Metadata{}, state, fmt.Errorf("unsupported artifact format %d", file.Metadata.Format)
	}

	zr, err := gzip.NewReader(bytes.NewReader(file.CompressedData))
	if err != nil {
		return Metadata{}, state, fmt.Errorf("decompress model: %w", err)
	}
	raw, err := io.ReadAll(zr)
	if err != nil {
		return Metadata{}, state, fmt.Errorf("decompress model: %w", err)
	}

	sum := sha256.Sum256(raw)
	if hex.EncodeToString(sum[:]) != file.Metadata.Checksum {
		return Metadata{}, state, errors.New("checksum mismatch")
	}

	if err := gob.NewDecoder(bytes.NewReader(raw)).Decode(&state); err != nil {
		return Metadata{}, state, fmt.Errorf("decode model: %w", err)
	}
	if err := state.validate(); err != nil {
		return Metadata{}, state, err
	}

	return file.Metadata, state, nil
}

// validate checks that the layers chain and match the declared layout.
func (s modelState) validate() error {
	if len(s.Layers) == 0 {
		return errors.New("model has no layers")
	}
	want := 3*len(s.Subjects) + 2*len(s.Keywords)
	if s.Layers[0].In != want {
		return fmt.Errorf("input width %d does not match layout width %d", s.Layers[0].In, want)
	}
	for i, l := range s.Layers {
		if len(l.W) != l.In*l.Out || len(l.B) != l.Out {
			return fmt.Errorf("layer %d has inconsistent parameter sizes", i)
		}
		if i > 0 && s.Layers[i-1].Out != l.In {
			return fmt.Errorf("layer %d input %d does not follow previous output %d", i, l.In, s.Layers[i-1].Out)
		}
	}
	if out := s.Layers[len(s.Layers)-1].Out; out != len(s.Labels) {
		return fmt.Errorf("output width %d does not match %d labels", out, len(s.Labels))
	}
	return nil
}

func backupArtifact(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	return os.WriteFile(path+".bak", data, 0o644)
}

func atomicWrite(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return err
	}

	return os.Rename(tmpPath, path)
}
