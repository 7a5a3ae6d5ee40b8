package controls

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// FormatError reports a .sccontrols document that could not be parsed
// or produced: malformed JSON, a missing required field, or an
// unencodable value.
type FormatError struct {
	Msg string
	Err error
}

func (e *FormatError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *FormatError) Unwrap() error {
	return e.Err
}

// controlsFileJSON mirrors ControlsFile with pointer fields so a
// missing required field can be told apart from a present empty one.
type controlsFileJSON struct {
	Version      *string         `json:"version"`
	ProfileName  *string         `json:"profile_name"`
	LastModified string          `json:"last_modified"`
	Devices      *DeviceSettings `json:"devices"`
}

// ParseControlsFile deserializes a .sccontrols document. The version
// field is carried opaquely; callers decide what to do with versions
// they do not understand.
func ParseControlsFile(data []byte) (*ControlsFile, error) {
	var raw controlsFileJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, &FormatError{Msg: "failed to parse controls file", Err: err}
	}
	if raw.Version == nil {
		return nil, &FormatError{Msg: "failed to parse controls file: missing field \"version\""}
	}
	if raw.ProfileName == nil {
		return nil, &FormatError{Msg: "failed to parse controls file: missing field \"profile_name\""}
	}
	if raw.Devices == nil {
		return nil, &FormatError{Msg: "failed to parse controls file: missing field \"devices\""}
	}
	return &ControlsFile{
		Version:      *raw.Version,
		ProfileName:  *raw.ProfileName,
		LastModified: raw.LastModified,
		Devices:      *raw.Devices,
	}, nil
}

// SerializeControlsFile renders the file as pretty-printed JSON. Unset
// fields are omitted rather than written as null so saved files stay
// stable and diff-friendly.
func SerializeControlsFile(f *ControlsFile) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(f); err != nil {
		return nil, &FormatError{Msg: "failed to serialize controls file", Err: err}
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
