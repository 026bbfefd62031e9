package filemgr

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// Object is one stored file as reported by a backend listing.
type Object struct {
	Path    string
	ModTime time.Time
}

// Backend is the single capability interface all asset logic is written
// against. Paths are forward-slash relative, e.g.
// "uploads/venue/the-crooked-billet/original_photo.jpg".
type Backend interface {
	Put(path string, data []byte) error
	Get(path string) ([]byte, error)
	Delete(path string) error
	List(prefix string) ([]Object, error)
}

// --- Local filesystem backend ---

type LocalBackend struct {
	Root string
}

func NewLocalBackend(root string) *LocalBackend {
	if root == "" {
		root = "static"
	}
	return &LocalBackend{Root: root}
}

func (b *LocalBackend) abs(p string) string {
	return filepath.Join(b.Root, filepath.FromSlash(p))
}

func (b *LocalBackend) Put(p string, data []byte) error {
	full := b.abs(p)
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return fmt.Errorf("mkdir %s: %w", filepath.Dir(full), err)
	}
	return os.WriteFile(full, data, 0o644)
}

func (b *LocalBackend) Get(p string) ([]byte, error) {
	data, err := os.ReadFile(b.abs(p))
	if os.IsNotExist(err) {
		return nil, ErrNotFound
	}
	return data, err
}

func (b *LocalBackend) Delete(p string) error {
	err := os.Remove(b.abs(p))
	if os.IsNotExist(err) {
		return ErrNotFound
	}
	return err
}

func (b *LocalBackend) List(prefix string) ([]Object, error) {
	root := b.abs(prefix)
	var out []Object
	err := filepath.Walk(root, func(fp string, info os.FileInfo, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		if info.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(b.Root, fp)
		if err != nil {
			return err
		}
		out = append(out, Object{Path: filepath.ToSlash(rel), ModTime: info.ModTime()})
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out, nil
}

// --- Remote object-store backend ---

// RemoteBackend talks to an S3-style HTTP gateway: PUT/GET/DELETE on
// {host}/{bucket}/{path}, listings via GET {host}/{bucket}?prefix= returning
// a JSON array of {"path":..., "mtime":...}.
type RemoteBackend struct {
	Host   string
	Bucket string
	client *http.Client
}

func NewRemoteBackend(host, bucket string) *RemoteBackend {
	return &RemoteBackend{
		Host:   strings.TrimSuffix(host, "/"),
		Bucket: bucket,
		client: &http.Client{Timeout: 30 * time.Second},
	}
}

func (b *RemoteBackend) objectURL(p string) string {
	return b.Host + "/" + path.Join(b.Bucket, p)
}

func (b *RemoteBackend) Put(p string, data []byte) error {
	req, err := http.NewRequest(http.MethodPut, b.objectURL(p), bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/octet-stream")
	resp, err := b.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("remote put %s: status %d", p, resp.StatusCode)
	}
	return nil
}

func (b *RemoteBackend) Get(p string) ([]byte, error) {
	resp, err := b.client.Get(b.objectURL(p))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("remote get %s: status %d", p, resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

func (b *RemoteBackend) Delete(p string) error {
	req, err := http.NewRequest(http.MethodDelete, b.objectURL(p), nil)
	if err != nil {
		return err
	}
	resp, err := b.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("remote delete %s: status %d", p, resp.StatusCode)
	}
	return nil
}

func (b *RemoteBackend) List(prefix string) ([]Object, error) {
	u := b.Host + "/" + b.Bucket + "?prefix=" + url.QueryEscape(prefix)
	resp, err := b.client.Get(u)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("remote list %s: status %d", prefix, resp.StatusCode)
	}

	var entries []struct {
		Path  string    `json:"path"`
		MTime time.Time `json:"mtime"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&entries); err != nil {
		return nil, fmt.Errorf("remote list decode: %w", err)
	}
	out := make([]Object, 0, len(entries))
	for _, e := range entries {
		out = append(out, Object{Path: e.Path, ModTime: e.MTime})
	}
	return out, nil
}
