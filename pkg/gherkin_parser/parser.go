package gherkin_parser

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	gherkin "github.com/cucumber/gherkin/go/v26"
	messages "github.com/cucumber/messages/go/v21"
)

const (
	FeatureExtension = ".feature"
)

// Feature is a parsed feature file together with its compiled pickles.
type Feature struct {
	Source      *messages.Source
	Document    *messages.GherkinDocument
	Pickles     []*messages.Pickle
	ParseErrors []*messages.ParseError
}

// SearchFeatureFilesIn returns the feature files found under the given
// paths, sorted. A path may point at a feature file directly.
func SearchFeatureFilesIn(paths []string) ([]string, error) {
	featureFiles := make([]string, 0)

	for _, root := range paths {
		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() && strings.HasSuffix(d.Name(), FeatureExtension) {
				featureFiles = append(featureFiles, path)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("could not search feature files in %s: %w", root, err)
		}
	}

	sort.Strings(featureFiles)
	return featureFiles, nil
}

// ParseGherkinFile parses a Gherkin document using newId for AST node ids.
func ParseGherkinFile(reader io.Reader, newId func() string) (*messages.GherkinDocument, error) {
	document, err := gherkin.ParseGherkinDocument(reader, newId)
	if err != nil {
		return nil, err
	}

	return document, nil
}

// Pickles compiles the scenarios of a document into pickles.
func Pickles(document *messages.GherkinDocument, newId func() string) []*messages.Pickle {
	if document == nil || document.Feature == nil {
		return nil
	}

	return gherkin.Pickles(*document, document.Uri, newId)
}

// LoadFeature reads, parses and compiles one feature file. Gherkin syntax
// errors do not fail the call: they are returned in Feature.ParseErrors
// and the feature has no document and no pickles.
func LoadFeature(path string, newId func() string) (*Feature, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("could not read file %s: %w", path, err)
	}

	feature := &Feature{
		Source: &messages.Source{
			Uri:       path,
			Data:      string(data),
			MediaType: messages.SourceMediaType_TEXT_X_CUCUMBER_GHERKIN_PLAIN,
		},
	}

	payload, err := json.Marshal(&messages.Envelope{Source: feature.Source})
	if err != nil {
		return nil, fmt.Errorf("could not encode source %s: %w", path, err)
	}

	envelopes, err := gherkin.Messages(nil, json.NewDecoder(bytes.NewReader(payload)), gherkin.DefaultDialect,
		false, true, true, nil, newId)
	if err != nil {
		return nil, fmt.Errorf("gherkin parse error in file %s: %w", path, err)
	}

	for _, envelope := range envelopes {
		switch {
		case envelope.ParseError != nil:
			feature.ParseErrors = append(feature.ParseErrors, envelope.ParseError)
		case envelope.GherkinDocument != nil:
			feature.Document = envelope.GherkinDocument
		case envelope.Pickle != nil:
			feature.Pickles = append(feature.Pickles, envelope.Pickle)
		}
	}

	return feature, nil
}
