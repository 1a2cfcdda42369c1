// Package bundle moves a paper between content stores as one deterministic
// TAR archive: every version's bytes under blocks/<cid> plus a paper.json
// manifest describing the paper as the ledger recorded it.
//
// The manifest is informational. Importing a bundle stores content only; it
// never changes ledger state.
package bundle

import (
	"archive/tar"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/ipfs/go-cid"

	"xdao.co/paperledger/cidutil"
	"xdao.co/paperledger/model"
	"xdao.co/paperledger/storage"
)

// FormatVersion is the current manifest schema version.
const FormatVersion = 1

const manifestName = "paper.json"

var epoch0 = time.Unix(0, 0).UTC()

// ErrNoManifest is returned by Import when the archive has no paper.json.
var ErrNoManifest = errors.New("bundle: missing paper.json")

// Manifest describes the exported paper.
type Manifest struct {
	Format   int             `json:"format"`
	Paper    model.PaperInfo `json:"paper"`
	Versions []model.Version `json:"versions"`
}

// Export writes a bundle for m, reading each version's bytes from cas.
//
// The bundle bytes are deterministic: entry order is lexicographic and TAR
// headers are normalized. All exported bytes are checked against both their
// CID and the content hash the version records.
func Export(w io.Writer, cas storage.CAS, m Manifest) error {
	if cas == nil {
		return fmt.Errorf("bundle: nil CAS")
	}

	uniq := make(map[string]cid.Cid, len(m.Versions))
	for i, v := range m.Versions {
		id, hash, err := cidutil.ParseContentID(v.ContentID)
		if err != nil {
			return fmt.Errorf("bundle: version %d: %w", i, storage.ErrInvalidCID)
		}
		if hash != v.ContentHash {
			return fmt.Errorf("bundle: version %d: %w", i, storage.ErrCIDMismatch)
		}
		uniq[id.String()] = id
	}
	cidStrings := make([]string, 0, len(uniq))
	for s := range uniq {
		cidStrings = append(cidStrings, s)
	}
	sort.Strings(cidStrings)

	tw := tar.NewWriter(w)
	for _, s := range cidStrings {
		id := uniq[s]
		b, err := cas.Get(id)
		if err != nil {
			_ = tw.Close()
			return err
		}
		got, err := cidutil.CIDv1RawSHA256CID(b)
		if err != nil {
			_ = tw.Close()
			return err
		}
		if !got.Equals(id) {
			_ = tw.Close()
			return storage.ErrCIDMismatch
		}
		if err := writeFile(tw, "blocks/"+s, b); err != nil {
			_ = tw.Close()
			return err
		}
	}

	m.Format = FormatVersion
	b, err := json.Marshal(m)
	if err != nil {
		_ = tw.Close()
		return err
	}
	if err := writeFile(tw, manifestName, append(b, '\n')); err != nil {
		_ = tw.Close()
		return err
	}
	return tw.Close()
}

// ImportOptions controls bundle import behavior.
type ImportOptions struct {
	// IgnoreUnknown controls whether unknown TAR entries are ignored.
	//
	// Default (false) is fail-closed: unknown entries cause Import to return an error.
	IgnoreUnknown bool
}

// Import reads a bundle from r, stores its blocks in cas and returns the
// manifest. Unknown entries are an error.
func Import(r io.Reader, cas storage.CAS) (Manifest, error) {
	return ImportWithOptions(r, cas, ImportOptions{})
}

// ImportWithOptions is Import with options.
//
// Each block must match both its entry name and its computed CID, and every
// version named by the manifest must be present in the archive.
func ImportWithOptions(r io.Reader, cas storage.CAS, opts ImportOptions) (Manifest, error) {
	if cas == nil {
		return Manifest{}, fmt.Errorf("bundle: nil CAS")
	}

	tr := tar.NewReader(r)
	seen := map[string]struct{}{}
	var (
		m         Manifest
		haveManif bool
	)
	for {
		h, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return Manifest{}, err
		}
		name := cleanTarPath(h.Name)
		if name == "" {
			return Manifest{}, fmt.Errorf("bundle: invalid entry path: %q", h.Name)
		}
		if h.Typeflag != tar.TypeReg {
			if opts.IgnoreUnknown {
				continue
			}
			return Manifest{}, fmt.Errorf("bundle: unexpected tar entry type: %v (%s)", h.Typeflag, name)
		}

		if name == manifestName {
			if err := json.NewDecoder(tr).Decode(&m); err != nil {
				return Manifest{}, fmt.Errorf("bundle: decode %s: %w", manifestName, err)
			}
			if m.Format != FormatVersion {
				return Manifest{}, fmt.Errorf("bundle: unsupported format %d", m.Format)
			}
			haveManif = true
			continue
		}

		if !strings.HasPrefix(name, "blocks/") {
			if opts.IgnoreUnknown {
				_, _ = io.Copy(io.Discard, tr)
				continue
			}
			return Manifest{}, fmt.Errorf("bundle: unknown entry: %s", name)
		}

		id, derr := cid.Decode(strings.TrimPrefix(name, "blocks/"))
		if derr != nil || !id.Defined() {
			return Manifest{}, storage.ErrInvalidCID
		}
		payload, rerr := io.ReadAll(tr)
		if rerr != nil {
			return Manifest{}, rerr
		}
		got, herr := cidutil.CIDv1RawSHA256CID(payload)
		if herr != nil {
			return Manifest{}, herr
		}
		if !got.Equals(id) {
			return Manifest{}, storage.ErrCIDMismatch
		}

		key := id.String()
		if _, ok := seen[key]; ok {
			return Manifest{}, fmt.Errorf("bundle: duplicate block entry: %s", key)
		}
		seen[key] = struct{}{}

		putID, perr := cas.Put(payload)
		if perr != nil {
			return Manifest{}, perr
		}
		if !putID.Equals(id) {
			return Manifest{}, storage.ErrCIDMismatch
		}
	}

	if !haveManif {
		return Manifest{}, ErrNoManifest
	}
	for i, v := range m.Versions {
		id, hash, err := cidutil.ParseContentID(v.ContentID)
		if err != nil || hash != v.ContentHash {
			return Manifest{}, fmt.Errorf("bundle: version %d: %w", i, storage.ErrCIDMismatch)
		}
		if _, ok := seen[id.String()]; !ok {
			return Manifest{}, fmt.Errorf("bundle: version %d: %w", i, storage.ErrNotFound)
		}
	}
	return m, nil
}

func writeFile(tw *tar.Writer, name string, content []byte) error {
	hdr := &tar.Header{
		Name:     name,
		Mode:     0o644,
		Size:     int64(len(content)),
		ModTime:  epoch0,
		Typeflag: tar.TypeReg,
		Format:   tar.FormatUSTAR,
	}
	if err := tw.WriteHeader(hdr); err != nil {
		return err
	}
	_, err := io.Copy(tw, bytes.NewReader(content))
	return err
}

func cleanTarPath(name string) string {
	name = strings.TrimSpace(name)
	name = strings.ReplaceAll(name, "\\", "/")
	name = strings.TrimPrefix(name, "./")
	name = strings.TrimPrefix(name, "/")
	if name == "" {
		return ""
	}

	parts := strings.Split(name, "/")
	for _, part := range parts {
		if part == "" || part == "." || part == ".." {
			return ""
		}
	}
	return strings.Join(parts, "/")
}
