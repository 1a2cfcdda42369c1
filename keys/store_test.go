package keys

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestKeyStoreInitDeriveList(t *testing.T) {
	ks, err := OpenKeyStore(t.TempDir())
	if err != nil {
		t.Fatalf("OpenKeyStore: %v", err)
	}
	id, path, err := ks.Init("alice", testSeed(3), false)
	if err != nil {
		t.Fatalf("Init: %v", err)
	}
	if id != IdentityFromSeed(testSeed(3)) {
		t.Fatalf("Init identity mismatch")
	}
	if info, err := os.Stat(path); err != nil || info.Mode().Perm() != 0o600 {
		t.Fatalf("root key file: %v %v", info, err)
	}
	if _, _, err := ks.Init("alice", testSeed(4), false); err == nil {
		t.Fatalf("expected Init without overwrite to fail on existing key")
	}

	roleID, _, err := ks.DeriveRole("alice", "auditor", false)
	if err != nil {
		t.Fatalf("DeriveRole: %v", err)
	}
	if roleID == id {
		t.Fatalf("role identity should differ from root")
	}
	got, err := ks.Identity("alice", "auditor")
	if err != nil || got != roleID {
		t.Fatalf("Identity(alice, auditor) = %q, %v", got, err)
	}

	if _, _, err := ks.Init("bob", nil, false); err != nil {
		t.Fatalf("Init generated: %v", err)
	}
	list, err := ks.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 2 || list[0].Name != "alice" || list[1].Name != "bob" {
		t.Fatalf("List = %+v", list)
	}
	if len(list[0].Roles) != 1 || list[0].Roles[0] != "auditor" || list[0].Identity != id {
		t.Fatalf("alice entry = %+v", list[0])
	}
}

func TestKeyStoreLoadSigner(t *testing.T) {
	dir := t.TempDir()
	ks := &KeyStore{Directory: dir}
	if _, _, err := ks.Init("carol", testSeed(5), false); err != nil {
		t.Fatalf("Init: %v", err)
	}

	byName, err := ks.LoadSigner("", "carol", "", "")
	if err != nil {
		t.Fatalf("LoadSigner by name: %v", err)
	}
	byFile, err := ks.LoadSigner("", "", "", filepath.Join(dir, "carol", "root.key"))
	if err != nil {
		t.Fatalf("LoadSigner by file: %v", err)
	}
	bySeed, err := ks.LoadSigner("0x0506070809"+"0a0b0c0d0e0f101112131415161718191a1b1c1d1e1f2021222324", "", "", "")
	if err != nil {
		t.Fatalf("LoadSigner by seed: %v", err)
	}
	if byName.Identity() != byFile.Identity() || byName.Identity() != bySeed.Identity() {
		t.Fatalf("signer identities differ: %s %s %s", byName.Identity(), byFile.Identity(), bySeed.Identity())
	}

	if _, err := ks.LoadSigner("", "", "", ""); !errors.Is(err, ErrNoSigner) {
		t.Fatalf("empty LoadSigner err = %v", err)
	}
	if _, err := ks.LoadSigner("", "../etc", "", ""); err == nil {
		t.Fatalf("expected invalid name error")
	}
}

func TestListMissingDirectory(t *testing.T) {
	ks := &KeyStore{Directory: filepath.Join(t.TempDir(), "nope")}
	list, err := ks.List()
	if err != nil || list != nil {
		t.Fatalf("List = %v, %v", list, err)
	}
}
