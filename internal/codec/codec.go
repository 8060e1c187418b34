// Package codec converts the collaboration entities to and from their JSON
// boundary form. Decoding validates every required field in declared order and
// fails with MalformedInput naming the first offending field; encoding is its
// exact inverse. Optional fields are omitted when absent, and an explicit null
// is read as absent.
package codec

import (
	"bytes"
	"encoding/json"
	"strconv"
	"time"

	"github.com/tidwall/gjson"

	"github.com/laminotes/laminotes/internal/apperrors"
	"github.com/laminotes/laminotes/internal/model"
)

// decoder walks a gjson document and keeps the first validation failure.
// Once an error is recorded every further read is a no-op.
type decoder struct {
	err error
}

func (d *decoder) fail(path, reason string) {
	if d.err == nil {
		d.err = apperrors.Malformed(path, reason)
	}
}

func join(prefix, name string) string {
	if prefix == "" {
		return name
	}
	return prefix + "." + name
}

// root parses raw and returns its top-level object.
func (d *decoder) root(raw []byte) gjson.Result {
	if !gjson.ValidBytes(raw) {
		d.fail("$", "is not valid JSON")
		return gjson.Result{}
	}
	r := gjson.ParseBytes(raw)
	if !r.IsObject() {
		d.fail("$", "must be a JSON object")
	}
	return r
}

func (d *decoder) lookup(obj gjson.Result, prefix, name string) (gjson.Result, string, bool) {
	path := join(prefix, name)
	if d.err != nil {
		return gjson.Result{}, path, false
	}
	v := obj.Get(name)
	if !v.Exists() || v.Type == gjson.Null {
		d.fail(path, "is required")
		return v, path, false
	}
	return v, path, true
}

// text reads a required string that may be empty.
func (d *decoder) text(obj gjson.Result, prefix, name string) string {
	v, path, ok := d.lookup(obj, prefix, name)
	if !ok {
		return ""
	}
	if v.Type != gjson.String {
		d.fail(path, "must be a string")
		return ""
	}
	return v.Str
}

// id reads a required non-empty string.
func (d *decoder) id(obj gjson.Result, prefix, name string) string {
	s := d.text(obj, prefix, name)
	if d.err == nil && s == "" {
		d.fail(join(prefix, name), "must not be empty")
	}
	return s
}

func (d *decoder) integer(obj gjson.Result, prefix, name string) int {
	v, path, ok := d.lookup(obj, prefix, name)
	if !ok {
		return 0
	}
	if v.Type != gjson.Number {
		d.fail(path, "must be a number")
		return 0
	}
	n, err := strconv.Atoi(v.Raw)
	if err != nil {
		d.fail(path, "must be an integer")
		return 0
	}
	return n
}

func (d *decoder) timestamp(obj gjson.Result, prefix, name string) time.Time {
	s := d.text(obj, prefix, name)
	if d.err != nil {
		return time.Time{}
	}
	t, err := parseTime(s)
	if err != nil {
		d.fail(join(prefix, name), "must be an ISO-8601 timestamp")
	}
	return t
}

func (d *decoder) role(obj gjson.Result, prefix, name string) model.TeamRole {
	n := d.integer(obj, prefix, name)
	r := model.TeamRole(n)
	if d.err == nil && !r.Valid() {
		d.fail(join(prefix, name), "must be 0, 1 or 2")
	}
	return r
}

func (d *decoder) array(obj gjson.Result, prefix, name string) ([]gjson.Result, string) {
	v, path, ok := d.lookup(obj, prefix, name)
	if !ok {
		return nil, path
	}
	if !v.IsArray() {
		d.fail(path, "must be an array")
		return nil, path
	}
	return v.Array(), path
}

func (d *decoder) object(obj gjson.Result, prefix, name string) (gjson.Result, string) {
	v, path, ok := d.lookup(obj, prefix, name)
	if ok && !v.IsObject() {
		d.fail(path, "must be an object")
	}
	return v, path
}

func (d *decoder) optional(obj gjson.Result, name string) (gjson.Result, bool) {
	if d.err != nil {
		return gjson.Result{}, false
	}
	v := obj.Get(name)
	if !v.Exists() || v.Type == gjson.Null {
		return v, false
	}
	return v, true
}

func (d *decoder) optText(obj gjson.Result, prefix, name string) model.Optional[string] {
	if _, ok := d.optional(obj, name); !ok {
		return model.None[string]()
	}
	return model.Some(d.text(obj, prefix, name))
}

func (d *decoder) optTime(obj gjson.Result, prefix, name string) model.Optional[time.Time] {
	if _, ok := d.optional(obj, name); !ok {
		return model.None[time.Time]()
	}
	return model.Some(d.timestamp(obj, prefix, name))
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, err
	}
	return model.Timestamp(t), nil
}

// FormatTime renders t in the boundary timestamp layout.
func FormatTime(t time.Time) string {
	return model.Timestamp(t).Format(model.TimestampLayout)
}

// ParseTime reads a boundary timestamp. Any RFC 3339 form is accepted and
// normalized to UTC milliseconds.
func ParseTime(s string) (time.Time, error) {
	t, err := parseTime(s)
	if err != nil {
		return time.Time{}, apperrors.Wrap(apperrors.CodeMalformedInput, "malformed timestamp "+strconv.Quote(s), err)
	}
	return t, nil
}

func optString(o model.Optional[string]) *string {
	if v, ok := o.Get(); ok {
		return &v
	}
	return nil
}

func optTimeString(o model.Optional[time.Time]) *string {
	if v, ok := o.Get(); ok {
		s := FormatTime(v)
		return &s
	}
	return nil
}

// marshal encodes v compactly without HTML escaping so markdown content is
// written as given.
func marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}
