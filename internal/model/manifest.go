// Package model acquires and verifies the Kokoro model artifacts from
// Hugging Face: the ONNX export, the token vocabulary, and the voice
// embeddings. Checksums are resolved once and persisted into a local
// lock manifest so later verifies are reproducible.
package model

import "fmt"

// DefaultRepo is the ONNX export of Kokoro-82M this service runs.
const DefaultRepo = "onnx-community/Kokoro-82M-v1.0-ONNX"

type Manifest struct {
	Repo  string      `json:"repo"`
	Files []ModelFile `json:"files"`
}

type ModelFile struct {
	// Filename is the path inside the Hugging Face repo.
	Filename string `json:"filename"`
	// LocalName is the path under the output directory. Empty means
	// same as Filename.
	LocalName string `json:"local_name,omitempty"`
	Revision  string `json:"revision"`
	// SHA256 may be empty; the checksum is then resolved from HF
	// metadata on first download and persisted into the lock manifest.
	SHA256 string `json:"sha256"`
}

// Local returns the path of the file under the output directory.
func (f ModelFile) Local() string {
	if f.LocalName != "" {
		return f.LocalName
	}
	return f.Filename
}

func PinnedManifest(repo string) (Manifest, error) {
	switch repo {
	case DefaultRepo:
		return Manifest{
			Repo: repo,
			Files: []ModelFile{
				{
					Filename:  "onnx/model.onnx",
					LocalName: "model.onnx",
					Revision:  "main",
					SHA256:    "",
				},
				{
					Filename: "tokens.txt",
					Revision: "main",
					SHA256:   "",
				},
				{
					Filename: "voices.npz",
					Revision: "main",
					SHA256:   "",
				},
			},
		}, nil
	default:
		return Manifest{}, fmt.Errorf("no pinned manifest for repo %q", repo)
	}
}
