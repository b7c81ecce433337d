package config

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// ValidationError is a single problem found in a configuration file.
type ValidationError struct {
	File    string `json:"file,omitempty"`
	Line    int    `json:"line,omitempty"`
	Column  int    `json:"column,omitempty"`
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

func (e ValidationError) String() string {
	var b strings.Builder
	if e.File != "" {
		b.WriteString(e.File)
		if e.Line > 0 {
			fmt.Fprintf(&b, ":%d:%d", e.Line, e.Column)
		}
		b.WriteString(": ")
	}
	if e.Field != "" {
		b.WriteString(e.Field)
		b.WriteString(": ")
	}
	b.WriteString(e.Message)
	return b.String()
}

// LoadError reports every validation problem in a configuration file.
type LoadError struct {
	Source string
	Errors []ValidationError
}

func (e *LoadError) Error() string {
	msgs := make([]string, len(e.Errors))
	for i, ve := range e.Errors {
		msgs[i] = ve.String()
	}
	return fmt.Sprintf("invalid configuration %s: %s", e.Source, strings.Join(msgs, "; "))
}

// CUEParser decodes configuration files.
type CUEParser struct {
	ctx       *cue.Context
	validator *validator.Validate
}

// NewCUEParser creates a new configuration parser.
func NewCUEParser() *CUEParser {
	v := validator.New()
	v.RegisterTagNameFunc(yamlFieldName)

	return &CUEParser{
		ctx:       cuecontext.New(),
		validator: v,
	}
}

// Load reads path, choosing the format from its extension. Settings absent
// from the file keep their Default values.
func Load(path string) (*File, error) {
	return NewCUEParser().Load(path)
}

// Load reads path, choosing the format from its extension.
func (cp *CUEParser) Load(path string) (*File, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var f *File
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		f, err = cp.ParseYAML(content, path)
	case ".cue":
		f, err = cp.ParseCUE(content, path)
	default:
		return nil, fmt.Errorf("unsupported config format %q (want .yaml, .yml or .cue)", filepath.Ext(path))
	}
	if err != nil {
		return nil, err
	}
	return f, nil
}

// ParseYAML decodes a YAML configuration. Unknown keys are rejected.
func (cp *CUEParser) ParseYAML(content []byte, source string) (*File, error) {
	f := Default()
	f.Source = source

	dec := yaml.NewDecoder(bytes.NewReader(content))
	dec.KnownFields(true)
	if err := dec.Decode(f); err != nil && err != io.EOF {
		return nil, &LoadError{Source: source, Errors: []ValidationError{{File: source, Message: err.Error()}}}
	}

	if err := cp.Validate(f); err != nil {
		return nil, err
	}
	return f, nil
}

// ParseCUE evaluates a CUE configuration against the built-in schema.
func (cp *CUEParser) ParseCUE(content []byte, source string) (*File, error) {
	schema, err := cp.compileSchema()
	if err != nil {
		return nil, err
	}

	val := cp.ctx.CompileBytes(content, cue.Filename(source))
	if err := val.Err(); err != nil {
		return nil, &LoadError{Source: source, Errors: cp.convertCUEErrors(err)}
	}

	unified := schema.Unify(val)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return nil, &LoadError{Source: source, Errors: cp.convertCUEErrors(err)}
	}

	f := Default()
	f.Source = source
	if err := unified.Decode(f); err != nil {
		return nil, &LoadError{Source: source, Errors: cp.convertCUEErrors(err)}
	}

	if err := cp.Validate(f); err != nil {
		return nil, err
	}
	return f, nil
}

// Validate checks f against its struct validation tags.
func (cp *CUEParser) Validate(f *File) error {
	err := cp.validator.Struct(f)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("failed to validate config: %w", err)
	}

	loadErr := &LoadError{Source: f.Source}
	for _, fe := range fieldErrs {
		loadErr.Errors = append(loadErr.Errors, ValidationError{
			File:    f.Source,
			Field:   strings.TrimPrefix(fe.Namespace(), "File."),
			Message: fmt.Sprintf("failed %q validation", fe.Tag()),
		})
	}
	return loadErr
}

// convertCUEErrors converts CUE errors to ValidationError slice.
func (cp *CUEParser) convertCUEErrors(err error) []ValidationError {
	var validationErrors []ValidationError

	for _, e := range errors.Errors(err) {
		var file string
		var line, column int

		if pos := errors.Positions(e); len(pos) > 0 {
			file = pos[0].Filename()
			line = pos[0].Line()
			column = pos[0].Column()
		}

		validationErrors = append(validationErrors, ValidationError{
			File:    file,
			Line:    line,
			Column:  column,
			Message: errors.Details(e, nil),
		})
	}

	return validationErrors
}

// yamlFieldName reports validation errors by their configuration key.
func yamlFieldName(fld reflect.StructField) string {
	name := strings.SplitN(fld.Tag.Get("yaml"), ",", 2)[0]
	if name == "-" {
		return ""
	}
	if name == "" {
		return fld.Name
	}
	return name
}

// Validate checks the file against its struct validation tags.
func (f *File) Validate() error {
	return NewCUEParser().Validate(f)
}
