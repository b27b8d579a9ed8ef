package dto

import (
	"bytes"
	"encoding/json"
	"errors"
)

type ExecuteFile struct {
	Name    string `json:"name,omitempty"`
	Content string `json:"content"`
}

// ExecuteRequest is the body POSTed to the execution service.
type ExecuteRequest struct {
	Language string        `json:"language"`
	Version  string        `json:"version"`
	Files    []ExecuteFile `json:"files"`
	Stdin    string        `json:"stdin"`
}

type RunStage struct {
	Stdout string  `json:"stdout"`
	Stderr string  `json:"stderr"`
	Output string  `json:"output"`
	Code   *int    `json:"code,omitempty"`
	Signal *string `json:"signal,omitempty"`
}

// ExecuteResponse is both the execution service reply and the codeResponse
// payload sent to rooms. Error marks synthetic failure results.
//
// A decoded reply keeps its original bytes and encodes back to them, so
// fields the typed view does not model (run.message, status, timings,
// code:null) reach clients unchanged.
type ExecuteResponse struct {
	Language string    `json:"language,omitempty"`
	Version  string    `json:"version,omitempty"`
	Run      RunStage  `json:"run"`
	Compile  *RunStage `json:"compile,omitempty"`
	Error    bool      `json:"error,omitempty"`

	raw json.RawMessage
}

type executeResponseFields ExecuteResponse

func (r *ExecuteResponse) UnmarshalJSON(b []byte) error {
	if trimmed := bytes.TrimSpace(b); len(trimmed) == 0 || trimmed[0] != '{' {
		return errors.New("execute response: not a JSON object")
	}
	var f executeResponseFields
	if err := json.Unmarshal(b, &f); err != nil {
		return err
	}
	*r = ExecuteResponse(f)
	r.raw = append(json.RawMessage(nil), b...)
	return nil
}

func (r ExecuteResponse) MarshalJSON() ([]byte, error) {
	if len(r.raw) > 0 {
		return r.raw, nil
	}
	return json.Marshal(executeResponseFields(r))
}

func FailedResponse(output string) ExecuteResponse {
	return ExecuteResponse{
		Run:   RunStage{Output: output},
		Error: true,
	}
}
