package codec

import "github.com/laminotes/laminotes/internal/model"

// fileMetadataJSON keeps the camelCase keys of the file stamp next to the
// snake_case team_id; existing consumers depend on both spellings.
type fileMetadataJSON struct {
	FileID       string  `json:"fileId"`
	FileName     string  `json:"fileName"`
	LastModified string  `json:"lastModified"`
	TeamID       *string `json:"team_id,omitempty"`
}

// DecodeFileMetadata decodes a file stamp.
func DecodeFileMetadata(raw []byte) (model.FileMetadata, error) {
	var d decoder
	root := d.root(raw)
	f := model.FileMetadata{
		FileID:       d.id(root, "", "fileId"),
		FileName:     d.id(root, "", "fileName"),
		LastModified: d.timestamp(root, "", "lastModified"),
		TeamID:       d.optText(root, "", "team_id"),
	}
	if d.err != nil {
		return model.FileMetadata{}, d.err
	}
	return f, nil
}

// EncodeFileMetadata encodes a file stamp. Decoding its output and encoding
// again yields the same bytes.
func EncodeFileMetadata(f model.FileMetadata) ([]byte, error) {
	return marshal(fileMetadataJSON{
		FileID:       f.FileID,
		FileName:     f.FileName,
		LastModified: FormatTime(f.LastModified),
		TeamID:       optString(f.TeamID),
	})
}
