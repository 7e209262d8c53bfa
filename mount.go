// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package handoff

import (
	"errors"
	"mime"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// Mount serves the files under Dir for URL paths starting with Prefix.
type Mount struct {
	Prefix string
	Dir    string

	// Headers are added to every file served from Dir.
	Headers map[string]string
}

var errNotDir = errors.New("not a directory")

// AddMount serves the files under dir for GET and HEAD requests whose
// path starts with prefix. Mounts are tried in the order they were added
// and before any route. Adding a mount for an existing prefix replaces it.
func (s *Server) AddMount(prefix, dir string, headers map[string]string) error {
	m, err := resolveMount(Mount{Prefix: prefix, Dir: dir, Headers: headers})
	if err != nil {
		return err
	}

	return s.configure(false, func() {
		s.mounts = upsertMount(s.mounts, m)
	})
}

// RemoveMount removes the mount for prefix.
func (s *Server) RemoveMount(prefix string) error {
	var found bool
	err := s.configure(false, func() {
		for i, m := range s.mounts {
			if m.Prefix != prefix {
				continue
			}
			s.mounts = append(s.mounts[:i:i], s.mounts[i+1:]...)
			found = true
			return
		}
	})
	if err != nil {
		return err
	}
	if !found {
		return ErrMountNotFound
	}
	return nil
}

// Mounts returns a copy of the mounts in the order they are tried.
func (s *Server) Mounts() []Mount {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Mount(nil), s.mounts...)
}

// SetMIMEType sets the Content-Type used when serving mounted files with
// the extension ext, e.g. ".wasm".
func (s *Server) SetMIMEType(ext, mimeType string) error {
	if ext == "" || ext == "." {
		return InvalidValueError{Setting: "extension", Value: ext}
	}
	if mimeType == "" {
		return InvalidValueError{Setting: "mime type", Value: mimeType}
	}
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}

	return s.configure(false, func() {
		s.mimeTypes[strings.ToLower(ext)] = mimeType
	})
}

func resolveMount(m Mount) (Mount, error) {
	if !strings.HasPrefix(m.Prefix, "/") {
		return m, InvalidMountError{
			Prefix: m.Prefix,
			Dir:    m.Dir,
			Cause:  InvalidValueError{Setting: "prefix", Value: m.Prefix},
		}
	}

	info, err := os.Stat(m.Dir)
	if err != nil {
		return m, InvalidMountError{Prefix: m.Prefix, Dir: m.Dir, Cause: err}
	}
	if !info.IsDir() {
		return m, InvalidMountError{Prefix: m.Prefix, Dir: m.Dir, Cause: errNotDir}
	}

	headers := make(map[string]string, len(m.Headers))
	for k, v := range m.Headers {
		headers[k] = v
	}
	return Mount{
		Prefix:  m.Prefix,
		Dir:     m.Dir,
		Headers: headers,
	}, nil
}

func upsertMount(mounts []Mount, m Mount) []Mount {
	for i, existing := range mounts {
		if existing.Prefix == m.Prefix {
			mounts[i] = m
			return mounts
		}
	}
	return append(mounts, m)
}

// staticFiles serves requests out of the mounted directories.
type staticFiles struct {
	mounts    []Mount
	mimeTypes map[string]string
}

// serve writes the first mounted file matching r and reports whether
// one was found.
func (sf staticFiles) serve(w http.ResponseWriter, r *http.Request) bool {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		return false
	}

	for _, m := range sf.mounts {
		if !strings.HasPrefix(r.URL.Path, m.Prefix) {
			continue
		}

		name := path.Clean("/" + strings.TrimPrefix(r.URL.Path, m.Prefix))
		if strings.HasSuffix(r.URL.Path, "/") {
			name = path.Join(name, "index.html")
		}
		if sf.serveFile(w, r, m, name) {
			return true
		}
	}
	return false
}

func (sf staticFiles) serveFile(w http.ResponseWriter, r *http.Request, m Mount, name string) bool {
	f, err := http.Dir(m.Dir).Open(name)
	if err != nil {
		return false
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil || !info.Mode().IsRegular() {
		return false
	}

	hdr := w.Header()
	for k, v := range m.Headers {
		hdr.Set(k, v)
	}
	hdr.Set("Content-Type", sf.contentType(name))

	http.ServeContent(w, r, info.Name(), info.ModTime(), f)
	return true
}

func (sf staticFiles) contentType(name string) string {
	ext := strings.ToLower(filepath.Ext(name))
	if ct, ok := sf.mimeTypes[ext]; ok {
		return ct
	}
	if ct := mime.TypeByExtension(ext); ct != "" {
		return ct
	}
	return "application/octet-stream"
}
