package flow

import (
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync"

	"github.com/bytedance/sonic"
)

// codec keeps numbers as json.Number and writes map keys in order, so a
// decoded template encodes back to the same values and digests are stable
var codec = sonic.Config{UseNumber: true, SortMapKeys: true}.Froze()

// Extra carries what the editor stored on an object beyond the modelled fields:
// keys with no field, and the stored form of omitempty fields that were present
// with an empty value.
type Extra struct {
	unknown map[string]any
	empty   map[string]any

	// scalar is set when the value was not an object at all
	scalar  bool
	literal any
}

// Get returns the value of a key that has no field
func (x Extra) Get(key string) (any, bool) {
	v, ok := x.unknown[key]
	return v, ok
}

// Keys returns the unmodelled keys, sorted
func (x Extra) Keys() []string {
	keys := make([]string, 0, len(x.unknown))
	for k := range x.unknown {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

type fieldInfo struct {
	key       string
	index     int
	omitEmpty bool
}

type typeInfo struct {
	fields []fieldInfo
	byKey  map[string]fieldInfo
}

var typeCache sync.Map // reflect.Type -> *typeInfo

func infoOf(t reflect.Type) *typeInfo {
	if v, ok := typeCache.Load(t); ok {
		return v.(*typeInfo)
	}
	info := &typeInfo{byKey: make(map[string]fieldInfo, t.NumField())}
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		name, opts, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			continue
		}
		if name == "" {
			name = f.Name
		}
		fi := fieldInfo{key: name, index: i, omitEmpty: strings.Contains(opts, "omitempty")}
		info.fields = append(info.fields, fi)
		info.byKey[name] = fi
	}
	v, _ := typeCache.LoadOrStore(t, info)
	return v.(*typeInfo)
}

// decodeObject fills the struct v points to and returns what it has no room for
func decodeObject(data []byte, v any) (Extra, error) {
	if err := codec.Unmarshal(data, v); err != nil {
		return Extra{}, err
	}
	var all map[string]any
	if err := codec.Unmarshal(data, &all); err != nil {
		return Extra{}, err
	}

	rv := reflect.ValueOf(v).Elem()
	info := infoOf(rv.Type())
	var x Extra
	for k, val := range all {
		f, known := info.byKey[k]
		switch {
		case !known:
			if x.unknown == nil {
				x.unknown = make(map[string]any)
			}
			x.unknown[k] = val
		case f.omitEmpty && isEmptyValue(rv.Field(f.index)):
			if x.empty == nil {
				x.empty = make(map[string]any)
			}
			x.empty[k] = val
		}
	}
	return x, nil
}

// encodeObject encodes the struct v and appends the keys recorded in x
func encodeObject(v any, x Extra) ([]byte, error) {
	data, err := codec.Marshal(v)
	if err != nil || (len(x.unknown) == 0 && len(x.empty) == 0) {
		return data, err
	}
	if len(data) < 2 || data[len(data)-1] != '}' {
		return nil, fmt.Errorf("encode %T: not an object", v)
	}

	rv := reflect.ValueOf(v)
	info := infoOf(rv.Type())
	buf := data[:len(data)-1]
	for _, f := range info.fields {
		stored, ok := x.empty[f.key]
		if !ok || !f.omitEmpty || !isEmptyValue(rv.Field(f.index)) {
			continue
		}
		if buf, err = appendMember(buf, f.key, stored); err != nil {
			return nil, err
		}
	}
	for _, k := range x.Keys() {
		if _, modelled := info.byKey[k]; modelled {
			continue
		}
		if buf, err = appendMember(buf, k, x.unknown[k]); err != nil {
			return nil, err
		}
	}
	return append(buf, '}'), nil
}

func appendMember(buf []byte, key string, val any) ([]byte, error) {
	k, err := codec.Marshal(key)
	if err != nil {
		return nil, err
	}
	v, err := codec.Marshal(val)
	if err != nil {
		return nil, fmt.Errorf("encode %q: %w", key, err)
	}
	if buf[len(buf)-1] != '{' {
		buf = append(buf, ',')
	}
	buf = append(buf, k...)
	buf = append(buf, ':')
	return append(buf, v...), nil
}

// isEmptyValue follows the omitempty rule of encoding/json
func isEmptyValue(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Array, reflect.Map, reflect.Slice, reflect.String:
		return v.Len() == 0
	case reflect.Bool:
		return !v.Bool()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return v.Int() == 0
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return v.Uint() == 0
	case reflect.Float32, reflect.Float64:
		return v.Float() == 0
	case reflect.Interface, reflect.Pointer:
		return v.IsNil()
	}
	return false
}

func isObject(data []byte) bool {
	for _, c := range data {
		switch c {
		case ' ', '\t', '\n', '\r':
			continue
		}
		return c == '{'
	}
	return false
}

// The editor document types below encode through decodeObject/encodeObject.
// Each converts to a method-free local type to avoid recursing into itself.

func (t *Template) UnmarshalJSON(data []byte) error {
	type plain Template
	x, err := decodeObject(data, (*plain)(t))
	t.Extra = x
	return err
}

func (t Template) MarshalJSON() ([]byte, error) {
	type plain Template
	return encodeObject(plain(t), t.Extra)
}

func (g *Graph) UnmarshalJSON(data []byte) error {
	type plain Graph
	x, err := decodeObject(data, (*plain)(g))
	g.Extra = x
	return err
}

func (g Graph) MarshalJSON() ([]byte, error) {
	type plain Graph
	return encodeObject(plain(g), g.Extra)
}

func (n *Node) UnmarshalJSON(data []byte) error {
	type plain Node
	x, err := decodeObject(data, (*plain)(n))
	n.Extra = x
	return err
}

func (n Node) MarshalJSON() ([]byte, error) {
	type plain Node
	return encodeObject(plain(n), n.Extra)
}

func (d *NodeData) UnmarshalJSON(data []byte) error {
	type plain NodeData
	x, err := decodeObject(data, (*plain)(d))
	d.Extra = x
	return err
}

func (d NodeData) MarshalJSON() ([]byte, error) {
	type plain NodeData
	return encodeObject(plain(d), d.Extra)
}

func (c *NodeConfig) UnmarshalJSON(data []byte) error {
	type plain NodeConfig
	x, err := decodeObject(data, (*plain)(c))
	c.Extra = x
	return err
}

func (c NodeConfig) MarshalJSON() ([]byte, error) {
	type plain NodeConfig
	return encodeObject(plain(c), c.Extra)
}

// UnmarshalJSON also accepts the non-object entries the editor keeps in a
// component template, such as "_type": "Component"
func (f *Field) UnmarshalJSON(data []byte) error {
	if !isObject(data) {
		*f = Field{Extra: Extra{scalar: true}}
		return codec.Unmarshal(data, &f.Extra.literal)
	}
	type plain Field
	x, err := decodeObject(data, (*plain)(f))
	f.Extra = x
	return err
}

func (f Field) MarshalJSON() ([]byte, error) {
	if f.Extra.scalar {
		return codec.Marshal(f.Extra.literal)
	}
	type plain Field
	return encodeObject(plain(f), f.Extra)
}

// Literal returns the value of a template entry that is not an input definition
func (f Field) Literal() (any, bool) {
	return f.Extra.literal, f.Extra.scalar
}

func (o *Output) UnmarshalJSON(data []byte) error {
	type plain Output
	x, err := decodeObject(data, (*plain)(o))
	o.Extra = x
	return err
}

func (o Output) MarshalJSON() ([]byte, error) {
	type plain Output
	return encodeObject(plain(o), o.Extra)
}

func (e *Edge) UnmarshalJSON(data []byte) error {
	type plain Edge
	x, err := decodeObject(data, (*plain)(e))
	e.Extra = x
	return err
}

func (e Edge) MarshalJSON() ([]byte, error) {
	type plain Edge
	return encodeObject(plain(e), e.Extra)
}
