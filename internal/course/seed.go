package course

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path"
	"strings"

	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"
)

// seedSchema describes the plaintext seed document. Cross-field rules such as
// correct_index < len(options) are checked by Course.Validate afterwards.
const seedSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["chapters"],
  "properties": {
    "chapters": {
      "type": "array",
      "minItems": 1,
      "items": {
        "type": "object",
        "required": ["title"],
        "properties": {
          "title": {"type": "string", "minLength": 1},
          "content": {"type": "string"},
          "questions": {
            "type": "array",
            "items": {
              "type": "object",
              "required": ["text", "options", "correct_index"],
              "properties": {
                "text": {"type": "string", "minLength": 1},
                "options": {
                  "type": "array",
                  "minItems": 1,
                  "items": {"type": "string"}
                },
                "correct_index": {"type": "integer", "minimum": 0}
              }
            }
          }
        }
      }
    }
  }
}`

var seedSchemaLoader = gojsonschema.NewStringLoader(seedSchema)

// LoadSeed parses the seed definition name from fsys. JSON and YAML are
// accepted, chosen by file suffix. On any failure it returns an empty Course
// and an error matching ErrNotFound, ErrUnreadable or ErrDecode.
func LoadSeed(fsys fs.FS, name string) (Course, error) {
	data, err := fs.ReadFile(fsys, name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Course{}, fmt.Errorf("%w: seed %s", ErrNotFound, name)
		}
		return Course{}, fmt.Errorf("%w: %w", ErrUnreadable, err)
	}

	c, err := parseSeed(name, data)
	if err != nil {
		slog.Warn("invalid course seed", "seed", name, "error", err)
		return Course{}, fmt.Errorf("%w: %w", ErrDecode, err)
	}

	slog.Info("course seed loaded", "seed", name, "chapters", len(c.Chapters), "questions", c.QuestionCount())
	return c, nil
}

func parseSeed(name string, data []byte) (Course, error) {
	var (
		doc       any
		unmarshal func([]byte, any) error
	)
	switch ext := strings.ToLower(path.Ext(name)); ext {
	case ".json":
		unmarshal = json.Unmarshal
	case ".yaml", ".yml":
		unmarshal = yaml.Unmarshal
	default:
		return Course{}, fmt.Errorf("unsupported seed format %q", ext)
	}

	if err := unmarshal(data, &doc); err != nil {
		return Course{}, fmt.Errorf("parse seed: %w", err)
	}
	if err := checkSchema(doc); err != nil {
		return Course{}, err
	}

	var c Course
	if err := unmarshal(data, &c); err != nil {
		return Course{}, fmt.Errorf("decode seed: %w", err)
	}
	if err := c.Validate(); err != nil {
		return Course{}, err
	}
	return c, nil
}

func checkSchema(doc any) error {
	result, err := gojsonschema.Validate(seedSchemaLoader, gojsonschema.NewGoLoader(doc))
	if err != nil {
		return fmt.Errorf("validate seed: %w", err)
	}
	if result.Valid() {
		return nil
	}

	msgs := make([]string, 0, len(result.Errors()))
	for _, e := range result.Errors() {
		msgs = append(msgs, e.String())
	}
	return fmt.Errorf("seed does not match schema: %s", strings.Join(msgs, "; "))
}
