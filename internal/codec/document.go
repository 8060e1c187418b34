package codec

import (
	"strconv"

	"github.com/tidwall/gjson"

	"github.com/laminotes/laminotes/internal/model"
)

type textSectionJSON struct {
	StartIndex int    `json:"startIndex"`
	EndIndex   int    `json:"endIndex"`
	Content    string `json:"content"`
}

type documentChangeJSON struct {
	UserID    string            `json:"userId"`
	Username  string            `json:"username"`
	Timestamp string            `json:"timestamp"`
	Sections  []textSectionJSON `json:"sections"`
}

type markdownMetadataJSON struct {
	DocumentID   string               `json:"documentId"`
	Changes      []documentChangeJSON `json:"changes"`
	UserColors   map[string]string    `json:"userColors"`
	LastModified string               `json:"lastModified"`
}

func (d *decoder) section(obj gjson.Result, prefix string) model.TextSection {
	s := model.TextSection{
		StartIndex: d.integer(obj, prefix, "startIndex"),
		EndIndex:   d.integer(obj, prefix, "endIndex"),
		Content:    d.text(obj, prefix, "content"),
	}
	if d.err != nil {
		return s
	}
	switch {
	case s.StartIndex < 0:
		d.fail(join(prefix, "startIndex"), "must not be negative")
	case s.EndIndex < s.StartIndex:
		d.fail(join(prefix, "endIndex"), "must not be less than startIndex")
	}
	return s
}

func (d *decoder) change(obj gjson.Result, prefix string) model.DocumentChange {
	if d.err == nil && !obj.IsObject() {
		d.fail(prefix, "must be an object")
	}
	c := model.DocumentChange{
		UserID:    d.id(obj, prefix, "userId"),
		Username:  d.text(obj, prefix, "username"),
		Timestamp: d.timestamp(obj, prefix, "timestamp"),
	}
	items, path := d.array(obj, prefix, "sections")
	c.Sections = make([]model.TextSection, 0, len(items))
	for i, item := range items {
		itemPath := path + "." + strconv.Itoa(i)
		if d.err == nil && !item.IsObject() {
			d.fail(itemPath, "must be an object")
		}
		c.Sections = append(c.Sections, d.section(item, itemPath))
	}
	return c
}

// sectionOrder requires the sections of one change to be sorted by
// startIndex without sharing any index.
func (d *decoder) sectionOrder(sections []model.TextSection, path string) {
	for i := 1; i < len(sections) && d.err == nil; i++ {
		prev, s := sections[i-1], sections[i]
		field := path + "." + strconv.Itoa(i) + ".startIndex"
		switch {
		case s.StartIndex < prev.StartIndex:
			d.fail(field, "is before the previous section")
		case s.Overlaps(prev):
			d.fail(field, "overlaps the previous section")
		}
	}
}

// DecodeTextSection decodes a single section.
func DecodeTextSection(raw []byte) (model.TextSection, error) {
	var d decoder
	s := d.section(d.root(raw), "")
	if d.err != nil {
		return model.TextSection{}, d.err
	}
	return s, nil
}

// DecodeDocumentChange decodes one change set.
func DecodeDocumentChange(raw []byte) (model.DocumentChange, error) {
	var d decoder
	c := d.change(d.root(raw), "")
	if d.err != nil {
		return model.DocumentChange{}, d.err
	}
	return c, nil
}

// DecodeMarkdownMetadata decodes a document history. Beyond field shapes it
// checks that sections within a change are ordered and disjoint, that change
// timestamps never decrease and that lastModified matches the last change.
// Every author must also have a color.
func DecodeMarkdownMetadata(raw []byte) (model.MarkdownMetadata, error) {
	var d decoder
	root := d.root(raw)
	documentID := d.id(root, "", "documentId")

	items, changesPath := d.array(root, "", "changes")
	changes := make([]model.DocumentChange, 0, len(items))
	for i, item := range items {
		itemPath := changesPath + "." + strconv.Itoa(i)
		c := d.change(item, itemPath)
		d.sectionOrder(c.Sections, itemPath+".sections")
		if d.err == nil && i > 0 && c.Timestamp.Before(changes[i-1].Timestamp) {
			d.fail(itemPath+".timestamp", "is earlier than the previous change")
		}
		changes = append(changes, c)
	}

	colorsObj, colorsPath := d.object(root, "", "userColors")
	colors := make(map[string]string)
	if d.err == nil {
		colorsObj.ForEach(func(key, value gjson.Result) bool {
			if value.Type != gjson.String {
				d.fail(colorsPath+"."+key.String(), "must be a string")
				return false
			}
			colors[key.String()] = value.Str
			return true
		})
	}

	lastModified := d.timestamp(root, "", "lastModified")
	if d.err == nil && len(changes) > 0 && !lastModified.Equal(changes[len(changes)-1].Timestamp) {
		d.fail("lastModified", "must equal the timestamp of the last change")
	}
	if d.err == nil {
		for _, c := range changes {
			if _, ok := colors[c.UserID]; !ok {
				d.fail(colorsPath+"."+c.UserID, "is required for every author")
				break
			}
		}
	}

	if d.err != nil {
		return model.MarkdownMetadata{}, d.err
	}
	return model.NewMarkdownMetadata(documentID, changes, colors, lastModified), nil
}

func sectionToJSON(s model.TextSection) textSectionJSON {
	return textSectionJSON{StartIndex: s.StartIndex, EndIndex: s.EndIndex, Content: s.Content}
}

func changeToJSON(c model.DocumentChange) documentChangeJSON {
	out := documentChangeJSON{
		UserID:    c.UserID,
		Username:  c.Username,
		Timestamp: FormatTime(c.Timestamp),
		Sections:  make([]textSectionJSON, 0, len(c.Sections)),
	}
	for _, s := range c.Sections {
		out.Sections = append(out.Sections, sectionToJSON(s))
	}
	return out
}

// EncodeTextSection encodes a section.
func EncodeTextSection(s model.TextSection) ([]byte, error) {
	return marshal(sectionToJSON(s))
}

// EncodeDocumentChange encodes a change set.
func EncodeDocumentChange(c model.DocumentChange) ([]byte, error) {
	return marshal(changeToJSON(c))
}

// EncodeMarkdownMetadata encodes a document history. userColors keys are
// written in sorted order.
func EncodeMarkdownMetadata(m model.MarkdownMetadata) ([]byte, error) {
	out := markdownMetadataJSON{
		DocumentID:   m.DocumentID(),
		Changes:      make([]documentChangeJSON, 0, m.Len()),
		UserColors:   m.UserColors(),
		LastModified: FormatTime(m.LastModified()),
	}
	for _, c := range m.Changes() {
		out.Changes = append(out.Changes, changeToJSON(c))
	}
	return marshal(out)
}
