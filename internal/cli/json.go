package cli

import (
	"encoding/json"
	"io"

	"github.com/kdlocpanda/vision/internal/api"
)

// machineMode suppresses human-friendly decorations and emits the same JSON
// envelope the HTTP server uses.
var machineMode bool

// MachineMode returns true if machine-readable output is enabled.
func MachineMode() bool {
	return machineMode
}

// WriteJSONSuccess writes a successful envelope with data to the writer.
func WriteJSONSuccess(w io.Writer, data interface{}) error {
	return writeEnvelope(w, api.OK(data))
}

// WriteJSONFromError converts an error to a failure envelope.
func WriteJSONFromError(w io.Writer, err error) error {
	return writeEnvelope(w, api.Fail(err))
}

func writeEnvelope(w io.Writer, env api.Envelope) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(env)
}
