package factory

import (
	"compress/flate"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/itohio/cmat/pkg/model"
)

// BundleSchema is the only header schema version this package writes or
// reads (spec's Open Question 3: "BundledModel archive header requires
// only name and schema=1; all other header fields are optional").
const BundleSchema = 1

// BundleHeader is the archived-model format's JSON header (spec §6):
// schema and name are required, every description map is optional.
type BundleHeader struct {
	Schema                int               `json:"schema"`
	Name                  string            `json:"name"`
	Description           string            `json:"description,omitempty"`
	InputDescriptions     map[string]string `json:"input_descriptions,omitempty"`
	OutputDescriptions    map[string]string `json:"output_descriptions,omitempty"`
	ParameterDescriptions map[string]string `json:"parameter_descriptions,omitempty"`
	BufferDescriptions    map[string]string `json:"buffer_descriptions,omitempty"`
}

// Bundle writes one archived model: a JSON header and the original
// hierarchical input text, each length-prefixed, the whole stream
// passed through a DEFLATE compressor (stdlib compress/flate: see
// DESIGN.md for why no third-party compressor grounds a different
// choice). header.Schema is forced to BundleSchema regardless of what
// the caller set.
func Bundle(w io.Writer, header BundleHeader, inputText string) error {
	header.Schema = BundleSchema
	if header.Name == "" {
		return fmt.Errorf("%w: bundle: header.Name is required", model.ErrIO)
	}

	headerJSON, err := json.Marshal(header)
	if err != nil {
		return fmt.Errorf("%w: bundle: encoding header: %v", model.ErrIO, err)
	}

	fw, err := flate.NewWriter(w, flate.DefaultCompression)
	if err != nil {
		return fmt.Errorf("%w: bundle: %v", model.ErrIO, err)
	}
	if err := writeLengthPrefixed(fw, headerJSON); err != nil {
		return fmt.Errorf("%w: bundle: writing header: %v", model.ErrIO, err)
	}
	if err := writeLengthPrefixed(fw, []byte(inputText)); err != nil {
		return fmt.Errorf("%w: bundle: writing input text: %v", model.ErrIO, err)
	}
	if err := fw.Close(); err != nil {
		return fmt.Errorf("%w: bundle: %v", model.ErrIO, err)
	}
	return nil
}

// Unbundle reads one archive written by Bundle back into its header and
// original input text, with no model reconstruction: "unbundling
// reconstructs the same Model as if loaded from the original input"
// (spec §6) is satisfied by handing the recovered text back to
// parseInput, which LoadBundle does.
func Unbundle(r io.Reader) (BundleHeader, string, error) {
	fr := flate.NewReader(r)
	defer fr.Close()

	headerBytes, err := readLengthPrefixed(fr)
	if err != nil {
		return BundleHeader{}, "", fmt.Errorf("%w: unbundle: reading header: %v", model.ErrIO, err)
	}
	var header BundleHeader
	if err := json.Unmarshal(headerBytes, &header); err != nil {
		return BundleHeader{}, "", fmt.Errorf("%w: unbundle: decoding header: %v", model.ErrIO, err)
	}
	if header.Schema != BundleSchema || header.Name == "" {
		return BundleHeader{}, "", fmt.Errorf("%w: unbundle: header missing required schema/name fields", model.ErrIO)
	}

	inputBytes, err := readLengthPrefixed(fr)
	if err != nil {
		return BundleHeader{}, "", fmt.Errorf("%w: unbundle: reading input text: %v", model.ErrIO, err)
	}
	return header, string(inputBytes), nil
}

// BundleFile writes header and inputText to path, creating or
// truncating it.
func BundleFile(path string, header BundleHeader, inputText string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("%w: bundle: %v", model.ErrIO, err)
	}
	defer f.Close()
	return Bundle(f, header, inputText)
}

// LoadBundle unbundles path and returns a Factory over its recovered
// input text, exactly as LoadInput would over the unarchived file.
func LoadBundle(path string, cliArgs ...string) (*Factory, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: load bundle: %v", model.ErrIO, err)
	}
	defer f.Close()

	_, inputText, err := Unbundle(f)
	if err != nil {
		return nil, err
	}
	specs, err := parseInput([]byte(inputText))
	if err != nil {
		return nil, err
	}
	if err := applyCliArgs(specs, cliArgs); err != nil {
		return nil, err
	}
	return newFactory(specs), nil
}

func writeLengthPrefixed(w io.Writer, data []byte) error {
	var lenBuf [4]byte
	binary.BigEndian.PutUint32(lenBuf[:], uint32(len(data)))
	if _, err := w.Write(lenBuf[:]); err != nil {
		return err
	}
	_, err := w.Write(data)
	return err
}

func readLengthPrefixed(r io.Reader) ([]byte, error) {
	var lenBuf [4]byte
	if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
		return nil, err
	}
	n := binary.BigEndian.Uint32(lenBuf[:])
	data := make([]byte, n)
	if _, err := io.ReadFull(r, data); err != nil {
		return nil, err
	}
	return data, nil
}
