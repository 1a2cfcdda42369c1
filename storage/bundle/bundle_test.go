package bundle_test

import (
	"archive/tar"
	"bytes"
	"errors"
	"testing"
	"time"

	"xdao.co/paperledger/cidutil"
	"xdao.co/paperledger/model"
	"xdao.co/paperledger/storage"
	"xdao.co/paperledger/storage/bundle"
	"xdao.co/paperledger/storage/testkit"
)

func ingest(t *testing.T, cas storage.CAS, data string) model.Version {
	t.Helper()
	ref, err := storage.Ingest(cas, []byte(data))
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	return model.Version{ContentID: ref.ContentID(), ContentHash: ref.Hash, CreatedAt: time.Unix(100, 0).UTC()}
}

func manifest(versions ...model.Version) bundle.Manifest {
	return bundle.Manifest{
		Paper:    model.PaperInfo{ID: 7, Owner: "ed25519:alice", Title: "T", Status: model.StatusPublished, VersionCount: len(versions)},
		Versions: versions,
	}
}

func TestBundle_ExportIsDeterministic(t *testing.T) {
	cas := testkit.NewMemCAS()
	v1 := ingest(t, cas, "hello")
	v2 := ingest(t, cas, "world")

	var outA, outB bytes.Buffer
	if err := bundle.Export(&outA, cas, manifest(v1, v2, v1)); err != nil {
		t.Fatal(err)
	}
	if err := bundle.Export(&outB, cas, manifest(v1, v2, v1)); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(outA.Bytes(), outB.Bytes()) {
		t.Fatalf("expected deterministic bundle bytes")
	}

	// Repeated content is stored once.
	tr := tar.NewReader(bytes.NewReader(outA.Bytes()))
	var names []string
	for {
		h, err := tr.Next()
		if err != nil {
			break
		}
		names = append(names, h.Name)
	}
	if len(names) != 3 || names[2] != "paper.json" {
		t.Fatalf("entries = %v", names)
	}
}

func TestBundle_ImportRoundTrip(t *testing.T) {
	src := testkit.NewMemCAS()
	v0 := ingest(t, src, "payload")
	v1 := ingest(t, src, "payload v2")

	var buf bytes.Buffer
	if err := bundle.Export(&buf, src, manifest(v0, v1)); err != nil {
		t.Fatal(err)
	}

	dst := testkit.NewMemCAS()
	m, err := bundle.Import(bytes.NewReader(buf.Bytes()), dst)
	if err != nil {
		t.Fatal(err)
	}
	if m.Format != bundle.FormatVersion || m.Paper.ID != 7 || len(m.Versions) != 2 {
		t.Fatalf("manifest = %+v", m)
	}
	if m.Versions[1].ContentHash != v1.ContentHash || !m.Versions[1].CreatedAt.Equal(v1.CreatedAt) {
		t.Fatalf("version 1 = %+v", m.Versions[1])
	}
	got, err := storage.Fetch(dst, v1.ContentID, v1.ContentHash)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "payload v2" {
		t.Fatalf("payload mismatch")
	}
}

func TestBundle_ExportRejectsHashMismatch(t *testing.T) {
	cas := testkit.NewMemCAS()
	v := ingest(t, cas, "hello")
	v.ContentHash[0] ^= 0xff
	if err := bundle.Export(&bytes.Buffer{}, cas, manifest(v)); !errors.Is(err, storage.ErrCIDMismatch) {
		t.Fatalf("err = %v, want ErrCIDMismatch", err)
	}
}

func TestBundle_ExportMissingContent(t *testing.T) {
	v := ingest(t, testkit.NewMemCAS(), "elsewhere")
	if err := bundle.Export(&bytes.Buffer{}, testkit.NewMemCAS(), manifest(v)); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestBundle_ImportRejectsCIDMismatch(t *testing.T) {
	good := []byte("good")
	otherCID, err := cidutil.CIDv1RawSHA256CID([]byte("other"))
	if err != nil {
		t.Fatal(err)
	}

	// Name says "otherCID" but bytes are "good" => computed CID mismatch.
	bundleBytes := makeDeterministicTar(t, map[string][]byte{"blocks/" + otherCID.String(): good})
	if _, err := bundle.Import(bytes.NewReader(bundleBytes), testkit.NewMemCAS()); err != storage.ErrCIDMismatch {
		t.Fatalf("expected ErrCIDMismatch, got %v", err)
	}
}

func TestBundle_ImportRequiresManifestAndBlocks(t *testing.T) {
	goodCID, _, err := cidutil.ContentRef([]byte("good"))
	if err != nil {
		t.Fatal(err)
	}
	noManifest := makeDeterministicTar(t, map[string][]byte{"blocks/" + goodCID.String(): []byte("good")})
	if _, err := bundle.Import(bytes.NewReader(noManifest), testkit.NewMemCAS()); !errors.Is(err, bundle.ErrNoManifest) {
		t.Fatalf("err = %v, want ErrNoManifest", err)
	}

	missing := ingest(t, testkit.NewMemCAS(), "absent")
	m := []byte(`{"format":1,"paper":{"id":1},"versions":[{"contentId":"` + missing.ContentID + `","contentHash":"` + missing.ContentHash.String() + `","createdAt":"1970-01-01T00:00:00Z"}]}`)
	onlyManifest := makeDeterministicTar(t, map[string][]byte{"paper.json": m})
	if _, err := bundle.Import(bytes.NewReader(onlyManifest), testkit.NewMemCAS()); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}

	unknown := makeDeterministicTar(t, map[string][]byte{"notes.txt": []byte("x")})
	if _, err := bundle.Import(bytes.NewReader(unknown), testkit.NewMemCAS()); err == nil {
		t.Fatalf("unknown entry accepted")
	}
	if _, err := bundle.ImportWithOptions(bytes.NewReader(unknown), testkit.NewMemCAS(), bundle.ImportOptions{IgnoreUnknown: true}); !errors.Is(err, bundle.ErrNoManifest) {
		t.Fatalf("IgnoreUnknown err = %v, want ErrNoManifest", err)
	}
}

func makeDeterministicTar(t *testing.T, entries map[string][]byte) []byte {
	t.Helper()

	var buf bytes.Buffer
	tw := tar.NewWriter(&buf)
	for name, content := range entries {
		h := &tar.Header{
			Name:     name,
			Mode:     0o644,
			Size:     int64(len(content)),
			ModTime:  time.Unix(0, 0).UTC(),
			Typeflag: tar.TypeReg,
		}
		if err := tw.WriteHeader(h); err != nil {
			t.Fatal(err)
		}
		if _, err := tw.Write(content); err != nil {
			t.Fatal(err)
		}
	}
	if err := tw.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}
