package pakdump

import (
	"encoding/json"
	"os"

	"github.com/pkg/errors"
)

// ManifestFileName is written into the destination when requested.
const ManifestFileName = "manifest.json"

// Manifest records what an extraction produced. The packer reads it back to
// keep the original content ids of the files.
type Manifest struct {
	Archive   string         `json:"archive,omitempty"`
	Signature string         `json:"signature"`
	Files     []ManifestFile `json:"files"`
}

// ManifestFile is the manifest record of one entry.
type ManifestFile struct {
	Path      string `json:"path"`
	ContentID string `json:"contentId"`
	Position  uint32 `json:"position"`
	Offset    uint64 `json:"offset"`
	Size      uint32 `json:"size"`
	Resolved  bool   `json:"resolved"`
	Written   int    `json:"written,omitempty"`
	CityHash  string `json:"cityHash,omitempty"`
	Status    Status `json:"status"`
	Error     string `json:"error,omitempty"`
}

// Manifest builds the manifest of an extraction run over a.
func (r *Result) Manifest(a *Archive) *Manifest {
	m := &Manifest{Archive: a.Path, Signature: a.Header.Signature.String()}
	for _, o := range r.Outcomes {
		mf := ManifestFile{
			Path:      o.Name,
			ContentID: formatID(o.ContentID),
			Position:  o.Position,
			Offset:    o.Offset,
			Size:      o.Size,
			Resolved:  o.Resolved,
			Written:   o.Written,
			Status:    o.Status,
		}
		if o.Status == StatusExtracted {
			mf.CityHash = formatHash(o.CityHash)
		}
		if o.Err != nil {
			mf.Error = o.Err.Error()
		}
		m.Files = append(m.Files, mf)
	}
	return m
}

// Marshal encodes m as indented JSON.
func (m *Manifest) Marshal() ([]byte, error) {
	return json.MarshalIndent(m, "", "  ")
}

// ContentIDs maps manifest paths to their content ids.
func (m *Manifest) ContentIDs() (map[string]uint32, error) {
	ids := make(map[string]uint32, len(m.Files))
	for _, f := range m.Files {
		id, err := parseID(f.ContentID)
		if err != nil {
			return nil, errors.Wrapf(err, "content id of %s", f.Path)
		}
		ids[f.Path] = id
	}
	return ids, nil
}

// ReadManifest loads a manifest written by Extract.
func ReadManifest(path string) (*Manifest, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, ioFailure("read "+path, err)
	}
	var m Manifest
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, errors.Wrapf(err, "decode %s", path)
	}
	return &m, nil
}
