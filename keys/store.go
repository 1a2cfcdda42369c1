package keys

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"xdao.co/paperledger/model"
)

// ErrNoSigner is returned by LoadSigner when no key source was named.
var ErrNoSigner = errors.New("keys: no signer provided")

// KeyStore keeps Ed25519 seeds on the local filesystem, one directory per
// name, with role keys derived from the root seed.
//
//	<dir>/<name>/root.key
//	<dir>/<name>/roles/<role>.key
type KeyStore struct {
	Directory string
}

type KeyEntry struct {
	Name     string
	Identity model.Identity
	Roles    []string
}

func DefaultDirectory() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, ".paperledger", "keys"), nil
}

func OpenKeyStore(directory string) (*KeyStore, error) {
	if directory == "" {
		var err error
		directory, err = DefaultDirectory()
		if err != nil {
			return nil, err
		}
	}
	return &KeyStore{Directory: directory}, nil
}

func (ks *KeyStore) rootPath(name string) string {
	return filepath.Join(ks.Directory, name, "root.key")
}

func (ks *KeyStore) rolePath(name, role string) string {
	return filepath.Join(ks.Directory, name, "roles", role+".key")
}

// CheckName validates key and role names: ASCII letters, digits, '-' and '_'.
func CheckName(name string) error {
	if name == "" {
		return errors.New("name cannot be empty")
	}
	for _, char := range name {
		if (char >= 'a' && char <= 'z') || (char >= 'A' && char <= 'Z') || (char >= '0' && char <= '9') || char == '-' || char == '_' {
			continue
		}
		return fmt.Errorf("invalid character %q in name", char)
	}
	return nil
}

func ParseSeedHex(seedHex string) ([]byte, error) {
	seedHex = strings.TrimSpace(seedHex)
	seedHex = strings.TrimPrefix(seedHex, "0x")
	data, err := hex.DecodeString(seedHex)
	if err != nil {
		return nil, err
	}
	if len(data) != ed25519.SeedSize {
		return nil, fmt.Errorf("expected seed length of %d bytes, got %d", ed25519.SeedSize, len(data))
	}
	return data, nil
}

func saveSeed(path string, seed []byte, overwrite bool) error {
	if len(seed) != ed25519.SeedSize {
		return fmt.Errorf("expected seed length of %d bytes", ed25519.SeedSize)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	flags := os.O_WRONLY | os.O_CREATE
	if overwrite {
		flags |= os.O_TRUNC
	} else {
		flags |= os.O_EXCL
	}
	file, err := os.OpenFile(path, flags, 0o600)
	if err != nil {
		return err
	}
	defer file.Close()
	if _, err := file.WriteString(hex.EncodeToString(seed) + "\n"); err != nil {
		return err
	}
	return file.Close()
}

func loadSeed(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseSeedHex(string(data))
}

// Init stores a root seed under name. A nil seed generates a fresh one.
func (ks *KeyStore) Init(name string, seed []byte, overwrite bool) (model.Identity, string, error) {
	if err := CheckName(name); err != nil {
		return "", "", err
	}
	if seed == nil {
		seed = make([]byte, ed25519.SeedSize)
		if _, err := rand.Read(seed); err != nil {
			return "", "", err
		}
	}
	path := ks.rootPath(name)
	if err := saveSeed(path, seed, overwrite); err != nil {
		return "", "", err
	}
	return IdentityFromSeed(seed), path, nil
}

// DeriveRole writes the role key derived from name's root seed.
func (ks *KeyStore) DeriveRole(name, role string, overwrite bool) (model.Identity, string, error) {
	if err := CheckName(name); err != nil {
		return "", "", err
	}
	rootSeed, err := loadSeed(ks.rootPath(name))
	if err != nil {
		return "", "", err
	}
	roleSeed, err := DeriveRoleSeed(rootSeed, role)
	if err != nil {
		return "", "", err
	}
	path := ks.rolePath(name, role)
	if err := saveSeed(path, roleSeed, overwrite); err != nil {
		return "", "", err
	}
	return IdentityFromSeed(roleSeed), path, nil
}

// Identity returns the identity of name (or of its role key when role is set).
func (ks *KeyStore) Identity(name, role string) (model.Identity, error) {
	seed, err := ks.seed(name, role)
	if err != nil {
		return "", err
	}
	return IdentityFromSeed(seed), nil
}

func (ks *KeyStore) seed(name, role string) ([]byte, error) {
	if err := CheckName(name); err != nil {
		return nil, err
	}
	if role == "" {
		return loadSeed(ks.rootPath(name))
	}
	if err := CheckName(role); err != nil {
		return nil, err
	}
	return loadSeed(ks.rolePath(name, role))
}

// LoadSigner resolves a signer from, in order, a hex seed, a key file, or a
// stored name and optional role.
func (ks *KeyStore) LoadSigner(seedHex, name, role, keyFile string) (Signer, error) {
	var (
		seed []byte
		err  error
	)
	switch {
	case seedHex != "":
		seed, err = ParseSeedHex(seedHex)
	case keyFile != "":
		seed, err = loadSeed(keyFile)
	case name != "":
		seed, err = ks.seed(name, role)
	default:
		return nil, ErrNoSigner
	}
	if err != nil {
		return nil, err
	}
	return NewEd25519Signer(seed)
}

func (ks *KeyStore) List() ([]KeyEntry, error) {
	entries, err := os.ReadDir(ks.Directory)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)

	var result []KeyEntry
	for _, name := range names {
		e := KeyEntry{Name: name}
		if id, err := ks.Identity(name, ""); err == nil {
			e.Identity = id
		}
		if roleEntries, rerr := os.ReadDir(filepath.Join(ks.Directory, name, "roles")); rerr == nil {
			for _, roleEntry := range roleEntries {
				if !roleEntry.IsDir() && strings.HasSuffix(roleEntry.Name(), ".key") {
					e.Roles = append(e.Roles, strings.TrimSuffix(roleEntry.Name(), ".key"))
				}
			}
			sort.Strings(e.Roles)
		}
		result = append(result, e)
	}
	return result, nil
}
