package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"xdao.co/paperledger/cidutil"
	"xdao.co/paperledger/keys"
	"xdao.co/paperledger/ledger"
	"xdao.co/paperledger/model"
	"xdao.co/paperledger/rpc"
	"xdao.co/paperledger/storage/bundle"
)

const defaultTarget = "127.0.0.1:7450"

// dial is replaced in tests.
var dial = rpc.Dial

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, out io.Writer, errOut io.Writer) int {
	if len(args) == 0 {
		printUsage(errOut)
		return 2
	}

	switch args[0] {
	case "key":
		return cmdKey(args[1:], out, errOut)
	case "hash":
		return cmdHash(args[1:], out, errOut)
	case "submit":
		return cmdSubmit(args[1:], out, errOut)
	case "add-version":
		return cmdAddVersion(args[1:], out, errOut)
	case "approve", "reject", "remove":
		return cmdPaperAction(args[0], args[1:], out, errOut)
	case "auditor":
		return cmdAuditor(args[1:], out, errOut)
	case "info":
		return cmdInfo(args[1:], out, errOut)
	case "version":
		return cmdVersion(args[1:], out, errOut)
	case "list":
		return cmdList(args[1:], out, errOut)
	case "get":
		return cmdGet(args[1:], out, errOut)
	case "export":
		return cmdExport(args[1:], out, errOut)
	case "import":
		return cmdImport(args[1:], out, errOut)
	case "help", "-h", "--help":
		printUsage(out)
		return 0
	default:
		fmt.Fprintf(errOut, "unknown command: %s\n\n", args[0])
		printUsage(errOut)
		return 2
	}
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "paperctl: paper ledger client")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  paperctl key init --name <name> [--seed-hex <64hex>] [--force]")
	fmt.Fprintln(w, "  paperctl key derive --from <name> --role <role> [--force]")
	fmt.Fprintln(w, "  paperctl key export --name <name> [--role <role>]")
	fmt.Fprintln(w, "  paperctl key list")
	fmt.Fprintln(w, "  paperctl hash <file>")
	fmt.Fprintln(w, "  paperctl submit [conn] --title <t> --author <a> [--sign] <file>")
	fmt.Fprintln(w, "  paperctl add-version [conn] --paper <id> [--sign] <file>")
	fmt.Fprintln(w, "  paperctl approve|reject|remove [conn] --paper <id>")
	fmt.Fprintln(w, "  paperctl auditor add|remove [conn] <identity>")
	fmt.Fprintln(w, "  paperctl info [conn] --paper <id>")
	fmt.Fprintln(w, "  paperctl version [conn] --paper <id> --index <i>")
	fmt.Fprintln(w, "  paperctl list [conn] [--owner <identity>] [--status <name|ordinal>]")
	fmt.Fprintln(w, "  paperctl get [conn] --cid <cid> [--out <file>]")
	fmt.Fprintln(w, "  paperctl export [conn] --paper <id> --out <bundle.tar>")
	fmt.Fprintln(w, "  paperctl import [conn] <bundle.tar>")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Connection flags [conn]:")
	fmt.Fprintln(w, "  --target <host:port>   daemon address (default $PAPERCTL_TARGET or "+defaultTarget+")")
	fmt.Fprintln(w, "  --signer <name> [--signer-role <role>] | --seed-hex <64hex> | --key-file <path>")
	fmt.Fprintln(w, "  --timeout <dur>        per-call timeout")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Notes:")
	fmt.Fprintln(w, "  - keys live under $PAPERCTL_KEYS or ~/.paperledger/keys/<name> (0600 seed files)")
	fmt.Fprintln(w, "  - calls without a signer are anonymous and may only query")
	fmt.Fprintln(w, "  - queries print JSON; status is the ordinal 0=pending 1=published 2=rejected 3=removed")
	fmt.Fprintln(w, "  - import stores a bundle's content with the daemon; it does not submit a paper")
}

func keyStore() (*keys.KeyStore, error) {
	return keys.OpenKeyStore(os.Getenv("PAPERCTL_KEYS"))
}

type connFlags struct {
	target     string
	signer     string
	signerRole string
	seedHex    string
	keyFile    string
	timeout    time.Duration
}

func (c *connFlags) register(fs *flag.FlagSet) {
	target := os.Getenv("PAPERCTL_TARGET")
	if target == "" {
		target = defaultTarget
	}
	fs.StringVar(&c.target, "target", target, "Daemon address")
	fs.StringVar(&c.signer, "signer", "", "Key name in the key store")
	fs.StringVar(&c.signerRole, "signer-role", "", "Derived role key of --signer")
	fs.StringVar(&c.seedHex, "seed-hex", "", "ed25519 seed as 64 hex chars")
	fs.StringVar(&c.keyFile, "key-file", "", "Path to a seed file")
	fs.DurationVar(&c.timeout, "timeout", 30*time.Second, "Per-call timeout")
}

func (c *connFlags) anonymous() bool {
	return c.signer == "" && c.seedHex == "" && c.keyFile == ""
}

func (c *connFlags) loadSigner() (keys.Signer, error) {
	if c.anonymous() {
		return nil, nil
	}
	ks, err := keyStore()
	if err != nil {
		return nil, err
	}
	return ks.LoadSigner(c.seedHex, c.signer, c.signerRole, c.keyFile)
}

func (c *connFlags) connect(errOut io.Writer) (*rpc.Client, keys.Signer, bool) {
	s, err := c.loadSigner()
	if err != nil {
		fmt.Fprintf(errOut, "signer: %v\n", err)
		return nil, nil, false
	}
	client, err := dial(c.target, rpc.DialOptions{Timeout: 5 * time.Second, Signer: s})
	if err != nil {
		fmt.Fprintf(errOut, "dial %s: %v\n", c.target, err)
		return nil, nil, false
	}
	client.Timeout = c.timeout
	return client, s, true
}

// fail prints a ledger error and maps it to an exit code.
func fail(errOut io.Writer, what string, err error) int {
	fmt.Fprintf(errOut, "%s: %v\n", what, err)
	if kind := model.KindOf(err); kind != "" && kind != model.KindInternal {
		return 3
	}
	return 1
}

func writeJSON(out io.Writer, v any) int {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return 1
	}
	return 0
}

func cmdHash(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("hash", flag.ContinueOnError)
	fs.SetOutput(errOut)
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(errOut, "usage: paperctl hash <file>")
		return 2
	}
	path := fs.Arg(0)
	b, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(errOut, "read %s: %v\n", filepath.Base(path), err)
		return 1
	}
	id, hash, err := cidutil.ContentRef(b)
	if err != nil {
		fmt.Fprintf(errOut, "hash: %v\n", err)
		return 1
	}
	fmt.Fprintf(out, "%s\t%s\n", id, hash)
	return 0
}

type contentResult struct {
	Paper       uint64            `json:"paper"`
	Index       int               `json:"index"`
	ContentID   string            `json:"contentId"`
	ContentHash model.ContentHash `json:"contentHash"`
	Signed      bool              `json:"signed"`
}

// upload stores the file with the daemon and optionally signs the reference.
func upload(ctx context.Context, client *rpc.Client, s keys.Signer, path string, sign bool, errOut io.Writer) (ledger.VersionInput, bool) {
	b, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(errOut, "read %s: %v\n", filepath.Base(path), err)
		return ledger.VersionInput{}, false
	}
	ref, err := client.PutContent(ctx, b)
	if err != nil {
		fmt.Fprintf(errOut, "upload: %v\n", err)
		return ledger.VersionInput{}, false
	}
	in := ledger.VersionInput{ContentID: ref.ContentID(), ContentHash: ref.Hash}
	if sign {
		if in.Signature, err = keys.SignVersion(s, in.ContentID, in.ContentHash); err != nil {
			fmt.Fprintf(errOut, "sign: %v\n", err)
			return ledger.VersionInput{}, false
		}
	}
	return in, true
}

func cmdSubmit(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("submit", flag.ContinueOnError)
	fs.SetOutput(errOut)
	var conn connFlags
	conn.register(fs)
	var title, author string
	var sign bool
	fs.StringVar(&title, "title", "", "Paper title")
	fs.StringVar(&author, "author", "", "Paper author")
	fs.BoolVar(&sign, "sign", false, "Attach a signature over the content reference")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(errOut, "usage: paperctl submit [conn] --title <t> --author <a> [--sign] <file>")
		return 2
	}
	if conn.anonymous() {
		fmt.Fprintln(errOut, "submit requires a signer")
		return 2
	}
	client, s, ok := conn.connect(errOut)
	if !ok {
		return 1
	}
	defer client.Close()

	ctx := context.Background()
	in, ok := upload(ctx, client, s, fs.Arg(0), sign, errOut)
	if !ok {
		return 1
	}
	id, err := client.Submit(ctx, ledger.Submission{
		Title:       title,
		Author:      author,
		ContentID:   in.ContentID,
		ContentHash: in.ContentHash,
		Signature:   in.Signature,
	})
	if err != nil {
		return fail(errOut, "submit", err)
	}
	return writeJSON(out, contentResult{Paper: id, ContentID: in.ContentID, ContentHash: in.ContentHash, Signed: sign})
}

func cmdAddVersion(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("add-version", flag.ContinueOnError)
	fs.SetOutput(errOut)
	var conn connFlags
	conn.register(fs)
	var paper uint64
	var sign bool
	fs.Uint64Var(&paper, "paper", 0, "Paper id")
	fs.BoolVar(&sign, "sign", false, "Attach a signature over the content reference")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 1 || paper == 0 {
		fmt.Fprintln(errOut, "usage: paperctl add-version [conn] --paper <id> [--sign] <file>")
		return 2
	}
	if conn.anonymous() {
		fmt.Fprintln(errOut, "add-version requires a signer")
		return 2
	}
	client, s, ok := conn.connect(errOut)
	if !ok {
		return 1
	}
	defer client.Close()

	ctx := context.Background()
	in, ok := upload(ctx, client, s, fs.Arg(0), sign, errOut)
	if !ok {
		return 1
	}
	idx, err := client.AddVersion(ctx, paper, in)
	if err != nil {
		return fail(errOut, "add-version", err)
	}
	return writeJSON(out, contentResult{Paper: paper, Index: idx, ContentID: in.ContentID, ContentHash: in.ContentHash, Signed: sign})
}

func cmdPaperAction(action string, args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet(action, flag.ContinueOnError)
	fs.SetOutput(errOut)
	var conn connFlags
	conn.register(fs)
	var paper uint64
	fs.Uint64Var(&paper, "paper", 0, "Paper id")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 0 {
		fmt.Fprintf(errOut, "usage: paperctl %s [conn] --paper <id>\n", action)
		return 2
	}
	client, _, ok := conn.connect(errOut)
	if !ok {
		return 1
	}
	defer client.Close()

	ctx := context.Background()
	var err error
	switch action {
	case "approve":
		err = client.Approve(ctx, paper)
	case "reject":
		err = client.Reject(ctx, paper)
	case "remove":
		err = client.Remove(ctx, paper)
	}
	if err != nil {
		return fail(errOut, action, err)
	}
	fmt.Fprintln(out, "OK")
	return 0
}

func cmdAuditor(args []string, out io.Writer, errOut io.Writer) int {
	if len(args) == 0 || (args[0] != "add" && args[0] != "remove") {
		fmt.Fprintln(errOut, "usage: paperctl auditor add|remove [conn] <identity>")
		return 2
	}
	action := args[0]
	fs := flag.NewFlagSet("auditor "+action, flag.ContinueOnError)
	fs.SetOutput(errOut)
	var conn connFlags
	conn.register(fs)
	if err := fs.Parse(args[1:]); err != nil {
		return 2
	}
	if fs.NArg() != 1 {
		fmt.Fprintf(errOut, "usage: paperctl auditor %s [conn] <identity>\n", action)
		return 2
	}
	client, _, ok := conn.connect(errOut)
	if !ok {
		return 1
	}
	defer client.Close()

	id := model.Identity(strings.TrimSpace(fs.Arg(0)))
	var err error
	if action == "add" {
		err = client.AddAuditor(context.Background(), id)
	} else {
		err = client.RemoveAuditor(context.Background(), id)
	}
	if err != nil {
		return fail(errOut, "auditor "+action, err)
	}
	fmt.Fprintln(out, "OK")
	return 0
}

func cmdInfo(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("info", flag.ContinueOnError)
	fs.SetOutput(errOut)
	var conn connFlags
	conn.register(fs)
	var paper uint64
	fs.Uint64Var(&paper, "paper", 0, "Paper id")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	client, _, ok := conn.connect(errOut)
	if !ok {
		return 1
	}
	defer client.Close()

	info, err := client.PaperInfo(context.Background(), paper)
	if err != nil {
		return fail(errOut, "info", err)
	}
	return writeJSON(out, info)
}

func cmdVersion(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("version", flag.ContinueOnError)
	fs.SetOutput(errOut)
	var conn connFlags
	conn.register(fs)
	var paper uint64
	var index int
	fs.Uint64Var(&paper, "paper", 0, "Paper id")
	fs.IntVar(&index, "index", 0, "Version index (0 is the submitted version)")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	client, _, ok := conn.connect(errOut)
	if !ok {
		return 1
	}
	defer client.Close()

	v, err := client.Version(context.Background(), paper, index)
	if err != nil {
		return fail(errOut, "version", err)
	}
	return writeJSON(out, v)
}

func cmdList(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("list", flag.ContinueOnError)
	fs.SetOutput(errOut)
	var conn connFlags
	conn.register(fs)
	var owner, statusName string
	fs.StringVar(&owner, "owner", "", "Only papers owned by this identity")
	fs.StringVar(&statusName, "status", "", "Only papers in this status")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	f := ledger.Filter{Owner: model.Identity(strings.TrimSpace(owner))}
	if statusName != "" {
		st, err := model.ParseStatus(statusName)
		if err != nil {
			fmt.Fprintf(errOut, "invalid --status: %v\n", err)
			return 2
		}
		f.Status = &st
	}
	client, _, ok := conn.connect(errOut)
	if !ok {
		return 1
	}
	defer client.Close()

	papers, err := client.Papers(context.Background(), f)
	if err != nil {
		return fail(errOut, "list", err)
	}
	if papers == nil {
		papers = []model.PaperInfo{}
	}
	return writeJSON(out, papers)
}

func cmdGet(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("get", flag.ContinueOnError)
	fs.SetOutput(errOut)
	var conn connFlags
	conn.register(fs)
	var contentID, outPath string
	fs.StringVar(&contentID, "cid", "", "Content id to fetch")
	fs.StringVar(&outPath, "out", "", "Write to file instead of stdout")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if contentID == "" {
		fmt.Fprintln(errOut, "missing --cid")
		return 2
	}
	client, _, ok := conn.connect(errOut)
	if !ok {
		return 1
	}
	defer client.Close()

	b, err := client.GetContent(context.Background(), contentID)
	if err != nil {
		fmt.Fprintf(errOut, "get: %v\n", err)
		return 1
	}
	if outPath == "" {
		_, _ = out.Write(b)
		return 0
	}
	if err := os.WriteFile(outPath, b, 0o644); err != nil {
		fmt.Fprintf(errOut, "write %s: %v\n", filepath.Base(outPath), err)
		return 1
	}
	return 0
}

func cmdExport(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	fs.SetOutput(errOut)
	var conn connFlags
	conn.register(fs)
	var paper uint64
	var outPath string
	fs.Uint64Var(&paper, "paper", 0, "Paper id")
	fs.StringVar(&outPath, "out", "", "Bundle file to write")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if outPath == "" {
		fmt.Fprintln(errOut, "usage: paperctl export [conn] --paper <id> --out <bundle.tar>")
		return 2
	}
	client, _, ok := conn.connect(errOut)
	if !ok {
		return 1
	}
	defer client.Close()

	ctx := context.Background()
	info, err := client.PaperInfo(ctx, paper)
	if err != nil {
		return fail(errOut, "export", err)
	}
	m := bundle.Manifest{Paper: info}
	for i := 0; i < info.VersionCount; i++ {
		v, err := client.Version(ctx, paper, i)
		if err != nil {
			return fail(errOut, "export", err)
		}
		m.Versions = append(m.Versions, v)
	}

	f, err := os.Create(outPath)
	if err != nil {
		fmt.Fprintf(errOut, "create %s: %v\n", filepath.Base(outPath), err)
		return 1
	}
	if err := bundle.Export(f, rpc.ContentStore{Client: client, Ctx: ctx}, m); err != nil {
		_ = f.Close()
		_ = os.Remove(outPath)
		fmt.Fprintf(errOut, "export: %v\n", err)
		return 1
	}
	if err := f.Close(); err != nil {
		fmt.Fprintf(errOut, "close %s: %v\n", filepath.Base(outPath), err)
		return 1
	}
	fmt.Fprintf(out, "Exported paper %d (%d versions) to %s\n", paper, len(m.Versions), outPath)
	return 0
}

func cmdImport(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("import", flag.ContinueOnError)
	fs.SetOutput(errOut)
	var conn connFlags
	conn.register(fs)
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(errOut, "usage: paperctl import [conn] <bundle.tar>")
		return 2
	}
	if conn.anonymous() {
		fmt.Fprintln(errOut, "import requires a signer")
		return 2
	}
	f, err := os.Open(fs.Arg(0))
	if err != nil {
		fmt.Fprintf(errOut, "open %s: %v\n", filepath.Base(fs.Arg(0)), err)
		return 1
	}
	defer f.Close()

	client, _, ok := conn.connect(errOut)
	if !ok {
		return 1
	}
	defer client.Close()

	m, err := bundle.Import(f, rpc.ContentStore{Client: client, Ctx: context.Background()})
	if err != nil {
		fmt.Fprintf(errOut, "import: %v\n", err)
		return 1
	}
	return writeJSON(out, m)
}

func cmdKey(args []string, out io.Writer, errOut io.Writer) int {
	if len(args) == 0 {
		printKeyUsage(errOut)
		return 2
	}
	switch args[0] {
	case "init":
		return cmdKeyInit(args[1:], out, errOut)
	case "derive":
		return cmdKeyDerive(args[1:], out, errOut)
	case "list":
		return cmdKeyList(args[1:], out, errOut)
	case "export":
		return cmdKeyExport(args[1:], out, errOut)
	case "help", "-h", "--help":
		printKeyUsage(out)
		return 0
	default:
		fmt.Fprintf(errOut, "unknown key subcommand: %s\n\n", args[0])
		printKeyUsage(errOut)
		return 2
	}
}

func printKeyUsage(w io.Writer) {
	fmt.Fprintln(w, "usage: paperctl key <subcommand> ...")
	fmt.Fprintln(w, "subcommands: init, derive, list, export")
}

func cmdKeyInit(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("key init", flag.ContinueOnError)
	fs.SetOutput(errOut)

	var name string
	var seedHex string
	var force bool

	fs.StringVar(&name, "name", "", "Key name (directory under the key store)")
	fs.StringVar(&seedHex, "seed-hex", "", "Optional ed25519 seed as 64 hex chars (for reproducible demos)")
	fs.BoolVar(&force, "force", false, "Overwrite existing key files")

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if name == "" {
		fmt.Fprintln(errOut, "missing --name")
		return 2
	}
	if err := keys.CheckName(name); err != nil {
		fmt.Fprintf(errOut, "invalid --name: %v\n", err)
		return 2
	}
	var seed []byte
	if seedHex != "" {
		var err error
		if seed, err = keys.ParseSeedHex(seedHex); err != nil {
			fmt.Fprintf(errOut, "invalid --seed-hex: %v\n", err)
			return 2
		}
	}
	ks, err := keyStore()
	if err != nil {
		fmt.Fprintf(errOut, "keys: %v\n", err)
		return 1
	}
	id, path, err := ks.Init(name, seed, force)
	if err != nil {
		fmt.Fprintf(errOut, "write key: %v\n", err)
		return 1
	}
	fmt.Fprintf(out, "Created key: %s\n", id)
	fmt.Fprintf(out, "Stored at: %s\n", path)
	return 0
}

func cmdKeyDerive(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("key derive", flag.ContinueOnError)
	fs.SetOutput(errOut)

	var from string
	var role string
	var force bool

	fs.StringVar(&from, "from", "", "Root key name")
	fs.StringVar(&role, "role", "", "Role identifier (e.g. author, auditor)")
	fs.BoolVar(&force, "force", false, "Overwrite existing key files")

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if from == "" || role == "" {
		fmt.Fprintln(errOut, "usage: paperctl key derive --from <name> --role <role> [--force]")
		return 2
	}
	ks, err := keyStore()
	if err != nil {
		fmt.Fprintf(errOut, "keys: %v\n", err)
		return 1
	}
	id, path, err := ks.DeriveRole(from, role, force)
	if err != nil {
		fmt.Fprintf(errOut, "derive role key: %v\n", err)
		return 1
	}
	fmt.Fprintf(out, "Created role key: %s\n", id)
	fmt.Fprintf(out, "Stored at: %s\n", path)
	return 0
}

func cmdKeyExport(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("key export", flag.ContinueOnError)
	fs.SetOutput(errOut)

	var name string
	var role string

	fs.StringVar(&name, "name", "", "Key name")
	fs.StringVar(&role, "role", "", "Optional role (if set, exports derived role key)")

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if name == "" {
		fmt.Fprintln(errOut, "missing --name")
		return 2
	}
	ks, err := keyStore()
	if err != nil {
		fmt.Fprintf(errOut, "keys: %v\n", err)
		return 1
	}
	id, err := ks.Identity(name, role)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			fmt.Fprintf(errOut, "export key: no key named %q\n", name)
			return 1
		}
		fmt.Fprintf(errOut, "export key: %v\n", err)
		return 1
	}
	_, _ = fmt.Fprintln(out, id)
	return 0
}

func cmdKeyList(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("key list", flag.ContinueOnError)
	fs.SetOutput(errOut)
	if err := fs.Parse(args); err != nil {
		return 2
	}
	ks, err := keyStore()
	if err != nil {
		fmt.Fprintf(errOut, "keys: %v\n", err)
		return 1
	}
	entries, err := ks.List()
	if err != nil {
		fmt.Fprintf(errOut, "list keys: %v\n", err)
		return 1
	}
	for _, e := range entries {
		fmt.Fprintf(out, "%s\t%s\n", e.Name, e.Identity)
		for _, r := range e.Roles {
			fmt.Fprintf(out, "  - %s\n", r)
		}
	}
	return 0
}
