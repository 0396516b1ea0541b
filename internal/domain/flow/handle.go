package flow

import (
	"fmt"
	"strings"

	"github.com/bytedance/sonic"
)

// handleQuote stands in for the double quote inside encoded handles
const handleQuote = "œ"

// Handle is an edge endpoint as the flow editor encodes it in sourceHandle and
// targetHandle. Source handles carry Name, target handles carry FieldName.
type Handle struct {
	DataType    string   `json:"dataType,omitempty"`
	FieldName   string   `json:"fieldName,omitempty"`
	ID          string   `json:"id,omitempty"`
	InputTypes  []string `json:"inputTypes,omitempty"`
	Name        string   `json:"name,omitempty"`
	OutputTypes []string `json:"output_types,omitempty"`
	Type        string   `json:"type,omitempty"`
}

// IsEncodedHandle reports whether s is an encoded handle rather than a bare name
func IsEncodedHandle(s string) bool {
	return strings.HasPrefix(strings.TrimSpace(s), "{")
}

// ParseHandle decodes an encoded handle
func ParseHandle(s string) (Handle, error) {
	var h Handle
	if err := sonic.UnmarshalString(strings.ReplaceAll(s, handleQuote, `"`), &h); err != nil {
		return Handle{}, fmt.Errorf("malformed handle %q: %w", s, err)
	}
	return h, nil
}

// String encodes the handle the way the editor stores it
func (h Handle) String() string {
	data, err := sonic.Marshal(h)
	if err != nil {
		return ""
	}
	return strings.ReplaceAll(string(data), `"`, handleQuote)
}

// outputName is the output a source handle refers to
func outputName(sourceHandle string) (string, error) {
	if !IsEncodedHandle(sourceHandle) {
		return sourceHandle, nil
	}
	h, err := ParseHandle(sourceHandle)
	return h.Name, err
}

// inputName is the template field a target handle refers to
func inputName(targetHandle string) (string, error) {
	if !IsEncodedHandle(targetHandle) {
		return targetHandle, nil
	}
	h, err := ParseHandle(targetHandle)
	return h.FieldName, err
}
