package model

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// fakeHub serves a minimal Hugging Face resolve endpoint over the
// pinned manifest files.
func fakeHub(t *testing.T, files map[string][]byte, denyWithoutToken bool) *httptest.Server {
	t.Helper()

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if denyWithoutToken && r.Header.Get("Authorization") == "" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}

		// Path shape: /<org>/<repo>/resolve/<rev>/<file...>
		parts := strings.SplitN(r.URL.Path, "/resolve/", 2)
		if len(parts) != 2 {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		rest := strings.SplitN(parts[1], "/", 2)
		if len(rest) != 2 {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		body, ok := files[rest[1]]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}

		sum := sha256.Sum256(body)
		w.Header().Set("X-Linked-Etag", `"`+hex.EncodeToString(sum[:])+`"`)

		if r.Method == http.MethodHead {
			w.WriteHeader(http.StatusOK)
			return
		}
		_, _ = w.Write(body)
	}))
}

func hubFiles() map[string][]byte {
	return map[string][]byte{
		"onnx/model.onnx": []byte("onnx-bytes"),
		"tokens.txt":      []byte("$ 0\n; 1\na 2\n"),
		"voices.npz":      []byte("npz-bytes"),
	}
}

func TestPinnedManifest(t *testing.T) {
	m, err := PinnedManifest(DefaultRepo)
	if err != nil {
		t.Fatalf("PinnedManifest error: %v", err)
	}

	if len(m.Files) != 3 {
		t.Fatalf("manifest has %d files; want 3", len(m.Files))
	}

	// The ONNX export lands at the model dir root so the engine finds
	// model.onnx next to tokens.txt and voices.npz.
	if m.Files[0].Filename != "onnx/model.onnx" || m.Files[0].Local() != "model.onnx" {
		t.Errorf("model file mapping = %q -> %q; want onnx/model.onnx -> model.onnx", m.Files[0].Filename, m.Files[0].Local())
	}

	if _, err := PinnedManifest("someone/else"); err == nil {
		t.Error("PinnedManifest for unknown repo succeeded; want error")
	}
}

func TestDownload_FetchesVerifiesAndWritesLock(t *testing.T) {
	hub := fakeHub(t, hubFiles(), false)
	defer hub.Close()

	dir := t.TempDir()
	var out bytes.Buffer

	err := Download(DownloadOptions{
		OutDir:  dir,
		Stdout:  &out,
		BaseURL: hub.URL,
	})
	if err != nil {
		t.Fatalf("Download error: %v", err)
	}

	for _, name := range []string{"model.onnx", "tokens.txt", "voices.npz"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("downloaded file %s missing: %v", name, err)
		}
	}

	lockPath := filepath.Join(dir, LockName)
	b, err := os.ReadFile(lockPath)
	if err != nil {
		t.Fatalf("read lock manifest: %v", err)
	}

	var lock struct {
		Repo  string `json:"repo"`
		Files map[string]struct {
			SHA256 string `json:"sha256"`
		} `json:"files"`
	}
	if err := json.Unmarshal(b, &lock); err != nil {
		t.Fatalf("decode lock manifest: %v", err)
	}

	if lock.Repo != DefaultRepo {
		t.Errorf("lock repo = %q; want %q", lock.Repo, DefaultRepo)
	}
	if len(lock.Files) != 3 {
		t.Errorf("lock holds %d files; want 3", len(lock.Files))
	}

	wantSum := sha256.Sum256([]byte("onnx-bytes"))
	if got := lock.Files["model.onnx"].SHA256; got != hex.EncodeToString(wantSum[:]) {
		t.Errorf("lock sha for model.onnx = %s; want content hash", got)
	}
}

func TestDownload_SkipsMatchingFiles(t *testing.T) {
	hub := fakeHub(t, hubFiles(), false)
	defer hub.Close()

	dir := t.TempDir()
	if err := Download(DownloadOptions{OutDir: dir, BaseURL: hub.URL}); err != nil {
		t.Fatalf("first Download error: %v", err)
	}

	var out bytes.Buffer
	if err := Download(DownloadOptions{OutDir: dir, Stdout: &out, BaseURL: hub.URL}); err != nil {
		t.Fatalf("second Download error: %v", err)
	}

	if !strings.Contains(out.String(), "skip model.onnx (checksum match)") {
		t.Errorf("second download did not skip matching file:\n%s", out.String())
	}
}

func TestDownload_AccessDenied(t *testing.T) {
	hub := fakeHub(t, hubFiles(), true)
	defer hub.Close()

	err := Download(DownloadOptions{OutDir: t.TempDir(), BaseURL: hub.URL})

	var denied *AccessDeniedError
	if !errors.As(err, &denied) {
		t.Fatalf("want AccessDeniedError, got %v", err)
	}
}

func TestDownload_TokenPassesThrough(t *testing.T) {
	hub := fakeHub(t, hubFiles(), true)
	defer hub.Close()

	err := Download(DownloadOptions{
		OutDir:  t.TempDir(),
		HFToken: "hf_test",
		BaseURL: hub.URL,
	})
	if err != nil {
		t.Fatalf("Download with token error: %v", err)
	}
}

func TestVerify_PassesAfterDownload(t *testing.T) {
	hub := fakeHub(t, hubFiles(), false)
	defer hub.Close()

	dir := t.TempDir()
	if err := Download(DownloadOptions{OutDir: dir, BaseURL: hub.URL}); err != nil {
		t.Fatalf("Download error: %v", err)
	}

	var out bytes.Buffer
	if err := Verify(VerifyOptions{Dir: dir, Stdout: &out}); err != nil {
		t.Fatalf("Verify error: %v\n%s", err, out.String())
	}

	if got := strings.Count(out.String(), "PASS "); got != 3 {
		t.Errorf("want 3 PASS lines, got %d:\n%s", got, out.String())
	}
}

func TestVerify_DetectsCorruption(t *testing.T) {
	hub := fakeHub(t, hubFiles(), false)
	defer hub.Close()

	dir := t.TempDir()
	if err := Download(DownloadOptions{OutDir: dir, BaseURL: hub.URL}); err != nil {
		t.Fatalf("Download error: %v", err)
	}

	if err := os.WriteFile(filepath.Join(dir, "tokens.txt"), []byte("tampered"), 0o644); err != nil {
		t.Fatalf("tamper file: %v", err)
	}

	var errOut bytes.Buffer
	err := Verify(VerifyOptions{Dir: dir, Stderr: &errOut})
	if err == nil {
		t.Fatal("Verify succeeded on corrupted file; want error")
	}
	if !strings.Contains(err.Error(), "tokens.txt") {
		t.Errorf("error %q does not name the corrupted file", err)
	}
	if !strings.Contains(errOut.String(), "FAIL tokens.txt") {
		t.Errorf("stderr does not carry a FAIL line:\n%s", errOut.String())
	}
}

func TestVerify_MissingLockManifest(t *testing.T) {
	err := Verify(VerifyOptions{Dir: t.TempDir()})
	if !errors.Is(err, ErrNoLockManifest) {
		t.Fatalf("want ErrNoLockManifest, got %v", err)
	}
}

func TestVerify_MissingFile(t *testing.T) {
	hub := fakeHub(t, hubFiles(), false)
	defer hub.Close()

	dir := t.TempDir()
	if err := Download(DownloadOptions{OutDir: dir, BaseURL: hub.URL}); err != nil {
		t.Fatalf("Download error: %v", err)
	}

	if err := os.Remove(filepath.Join(dir, "voices.npz")); err != nil {
		t.Fatalf("remove file: %v", err)
	}

	if err := Verify(VerifyOptions{Dir: dir}); err == nil {
		t.Fatal("Verify succeeded with a missing file; want error")
	}
}
