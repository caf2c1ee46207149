// Copyright 2025 walteh LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package patch

import (
	"gitlab.com/tozd/go/errors"
)

// 📦 Spec is the loosely-typed wire form of a request, as it appears in
// plan files, fix bundles, and the history log. Compile turns it into a
// typed Request, enforcing the fields its variant requires.
type Spec struct {
	Type       string   `json:"type" yaml:"type"`
	LineNumber int      `json:"line_number,omitempty" yaml:"line_number,omitempty"`
	StartLine  int      `json:"start_line,omitempty" yaml:"start_line,omitempty"`
	EndLine    int      `json:"end_line,omitempty" yaml:"end_line,omitempty"`
	Pattern    string   `json:"pattern,omitempty" yaml:"pattern,omitempty"`
	MatchLine  int      `json:"match_line,omitempty" yaml:"match_line,omitempty"`
	Code       []string `json:"code,omitempty" yaml:"code,omitempty"`
}

// 🔨 Compile converts the wire form into a typed Request. Unknown types
// and missing required fields are rejected; bounds against a concrete
// file are left to the engine's pre-flight.
func (s Spec) Compile() (Request, error) {
	var req Request
	switch Kind(s.Type) {
	case KindInsertAtLine:
		req = InsertAtLine{Line: s.LineNumber, Code: s.Code}
	case KindReplaceRange:
		req = ReplaceRange{StartLine: s.StartLine, EndLine: s.EndLine, Code: s.Code}
	case KindReplacePatternFirst:
		req = ReplacePatternFirst{Pattern: s.Pattern, Code: s.Code, MatchLine: s.MatchLine}
	case KindReplacePatternAll:
		req = ReplacePatternAll{Pattern: s.Pattern, Code: s.Code}
	case KindInsertAfterPattern:
		req = InsertAfterPattern{Pattern: s.Pattern, Code: s.Code}
	case KindInsertBeforePattern:
		req = InsertBeforePattern{Pattern: s.Pattern, Code: s.Code}
	case KindAppend:
		req = Append{Code: s.Code}
	case KindDeleteRange:
		req = DeleteRange{StartLine: s.StartLine, EndLine: s.EndLine}
	case "":
		return nil, errors.Errorf("type is required: %w", ErrMissingField)
	default:
		return nil, errors.Errorf("unknown patch type %q", s.Type)
	}

	if err := req.Validate(-1); err != nil {
		return nil, err
	}
	return req, nil
}

// 🔨 CompileSpecs converts a whole wire-form list, failing on the first
// malformed entry with its 1-based position.
func CompileSpecs(specs []Spec) ([]Request, error) {
	requests := make([]Request, 0, len(specs))
	for i, s := range specs {
		req, err := s.Compile()
		if err != nil {
			return nil, errors.Errorf("patch %d: %w", i+1, err)
		}
		requests = append(requests, req)
	}
	return requests, nil
}

// 📝 SpecOf converts a typed request back into its wire form, for the
// history log and plan export.
func SpecOf(r Request) Spec {
	switch v := r.(type) {
	case InsertAtLine:
		return Spec{Type: string(KindInsertAtLine), LineNumber: v.Line, Code: v.Code}
	case ReplaceRange:
		return Spec{Type: string(KindReplaceRange), StartLine: v.StartLine, EndLine: v.EndLine, Code: v.Code}
	case ReplacePatternFirst:
		return Spec{Type: string(KindReplacePatternFirst), Pattern: v.Pattern, Code: v.Code, MatchLine: v.MatchLine}
	case ReplacePatternAll:
		return Spec{Type: string(KindReplacePatternAll), Pattern: v.Pattern, Code: v.Code}
	case InsertAfterPattern:
		return Spec{Type: string(KindInsertAfterPattern), Pattern: v.Pattern, Code: v.Code}
	case InsertBeforePattern:
		return Spec{Type: string(KindInsertBeforePattern), Pattern: v.Pattern, Code: v.Code}
	case Append:
		return Spec{Type: string(KindAppend), Code: v.Code}
	case DeleteRange:
		return Spec{Type: string(KindDeleteRange), StartLine: v.StartLine, EndLine: v.EndLine}
	default:
		return Spec{}
	}
}

// SpecsOf converts a request list to wire form.
func SpecsOf(requests []Request) []Spec {
	specs := make([]Spec, 0, len(requests))
	for _, r := range requests {
		specs = append(specs, SpecOf(r))
	}
	return specs
}
