package lookup

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/systmms/bwlookup/internal/config"
	bwerrors "github.com/systmms/bwlookup/internal/errors"
)

// Options carries the per-invocation settings. On the command line they
// arrive as a JSON object in the first argument; the configuration file
// supplies defaults for fields the object leaves out.
type Options struct {
	// Field is the item field to fetch, a bw object type or a dotted path
	// into the item JSON.
	Field string `json:"field,omitempty"`

	// Organization and Collection scope the lookup. Display name or id.
	Organization string `json:"organization,omitempty"`
	Collection   string `json:"collection,omitempty"`

	// Session is a literal session token. SessionFrom selects an indirect
	// source instead: "env" (inherit BW_SESSION, the default) or "keyring".
	Session     string `json:"session,omitempty"`
	SessionFrom string `json:"sessionFrom,omitempty"`

	// Sync refreshes the local vault cache before the first lookup.
	Sync bool `json:"sync,omitempty"`

	// Attachments switches the lookup into attachment-download mode.
	Attachments *AttachmentSpec `json:"attachments,omitempty"`

	// Output is where attachments land. A value with a trailing slash is a
	// directory; without one, a single-attachment request treats it as the
	// destination file itself. Defaults to the term being looked up.
	Output string `json:"output,omitempty"`

	// Path overrides the bw executable location.
	Path string `json:"path,omitempty"`
}

// AttachmentSpec accepts either a single attachment name or a list of names.
// The distinction survives decoding because it changes how the output path is
// built: a list always downloads into a directory, while a single name may
// target an exact file path.
type AttachmentSpec struct {
	Names  []string
	Single bool
}

func (a *AttachmentSpec) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err == nil {
		a.Names = []string{name}
		a.Single = true
		return nil
	}

	var names []string
	if err := json.Unmarshal(data, &names); err != nil {
		return err
	}
	a.Names = names
	a.Single = false
	return nil
}

func (a AttachmentSpec) MarshalJSON() ([]byte, error) {
	if a.Single && len(a.Names) == 1 {
		return json.Marshal(a.Names[0])
	}
	return json.Marshal(a.Names)
}

// optionsSchema validates the first-argument JSON object before decoding, so
// a typoed key fails loudly instead of silently falling back to defaults.
const optionsSchema = `{
	"type": "object",
	"additionalProperties": false,
	"properties": {
		"field":        {"type": "string"},
		"organization": {"type": "string"},
		"collection":   {"type": "string"},
		"session":      {"type": "string"},
		"sessionFrom":  {"type": "string", "enum": ["env", "keyring"]},
		"sync":         {"type": "boolean"},
		"attachments": {
			"oneOf": [
				{"type": "string"},
				{"type": "array", "items": {"type": "string"}, "minItems": 1}
			]
		},
		"output": {"type": "string"},
		"path":   {"type": "string"}
	}
}`

// FromConfig builds the option defaults out of the configuration file.
func FromConfig(def *config.Definition) Options {
	if def == nil {
		return Options{}
	}
	return Options{
		Field:        def.EffectiveField(),
		Organization: def.Organization,
		Collection:   def.Collection,
		SessionFrom:  def.SessionFrom,
		Sync:         def.Sync,
		Output:       def.Output,
		Path:         def.CLIPath,
	}
}

// ParseOptionsArg interprets the first command line argument. Anything that
// is not valid JSON is taken as a literal field name; valid JSON must be an
// object matching the options schema and is overlaid onto the defaults, so
// absent keys keep their configured values.
func ParseOptionsArg(arg string, defaults Options) (Options, error) {
	if !json.Valid([]byte(arg)) {
		defaults.Field = arg
		return defaults, nil
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(optionsSchema),
		gojsonschema.NewStringLoader(arg),
	)
	if err != nil {
		return Options{}, bwerrors.UsageError{
			Message:    fmt.Sprintf("could not validate options object: %v", err),
			Suggestion: `Pass a JSON object like '{"field":"username"}' or a plain field name`,
		}
	}
	if !result.Valid() {
		var violations []string
		for _, desc := range result.Errors() {
			violations = append(violations, desc.String())
		}
		return Options{}, bwerrors.UsageError{
			Message:    "invalid options object:\n  - " + strings.Join(violations, "\n  - "),
			Suggestion: "Recognized keys: field, organization, collection, session, sessionFrom, sync, attachments, output, path",
		}
	}

	if err := json.Unmarshal([]byte(arg), &defaults); err != nil {
		return Options{}, bwerrors.UsageError{
			Message:    fmt.Sprintf("could not decode options object: %v", err),
			Suggestion: `Pass a JSON object like '{"field":"username"}' or a plain field name`,
		}
	}
	return defaults, nil
}
