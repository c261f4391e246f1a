// Command treedeltacli is a diff front-end over the treedelta core: it
// reads two documents, adapts them into trees via MIME-selected document
// families, computes the edit operations, and emits a patch (§6 "CLI
// surface").
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/davecgh/go-spew/spew"

	"github.com/corvidae/treedelta"
	"github.com/corvidae/treedelta/adapter"
	"github.com/corvidae/treedelta/adapter/jsonml"
	"github.com/corvidae/treedelta/adapter/jsonobj"
)

const usage = `usage: treedeltacli [-x | -j] [-d] original changed

Computes a patch turning "original" into "changed" and writes it to
stdout. Document family is auto-detected by MIME: application/json uses
the JSON-object family, application/xml and *+xml use the JsonML family.

  -h  show this help
  -x  emit the patch in XML (JsonML) wire format (default)
  -j  emit the patch in JSON wire format
  -d  print a debug dump of the computed operations to stderr
`

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("treedeltacli", flag.ContinueOnError)
	fs.SetOutput(stderr)
	help := fs.Bool("h", false, "show help")
	xmlFormat := fs.Bool("x", false, "emit XML (JsonML) wire format")
	jsonFormat := fs.Bool("j", false, "emit JSON wire format")
	debug := fs.Bool("d", false, "print a debug dump of the computed operations")

	if err := fs.Parse(args); err != nil {
		return 1
	}
	if *help {
		fmt.Fprint(stderr, usage)
		return 0
	}
	if fs.NArg() != 2 {
		fmt.Fprint(stderr, usage)
		return 1
	}

	originalPath, changedPath := fs.Arg(0), fs.Arg(1)

	originalBytes, err := os.ReadFile(originalPath)
	if err != nil {
		log.Printf("treedeltacli: reading %s: %v", originalPath, err)
		return 1
	}
	changedBytes, err := os.ReadFile(changedPath)
	if err != nil {
		log.Printf("treedeltacli: reading %s: %v", changedPath, err)
		return 1
	}

	family := sniffFamily(originalPath, originalBytes)
	if family == "" {
		log.Printf("treedeltacli: unsupported or undetectable MIME type for %s", originalPath)
		return 1
	}

	ops, err := computePatch(family, originalBytes, changedBytes)
	if err != nil {
		log.Printf("treedeltacli: %v", err)
		return 1
	}

	if *debug {
		fmt.Fprintln(stderr, "--- computed operations ---")
		spew.Fdump(stderr, ops)
	}

	format := "xml"
	if *jsonFormat && !*xmlFormat {
		format = "json"
	}
	out, err := serializePatch(family, format, ops)
	if err != nil {
		log.Printf("treedeltacli: serializing patch: %v", err)
		return 1
	}
	fmt.Fprintln(stdout, out)
	return 0
}

// sniffFamily maps a MIME type (guessed from the file extension, falling
// back to content sniffing) to a document family name: "json" for
// application/json, "jsonml" for application/xml or any "+xml" suffix.
func sniffFamily(path string, content []byte) string {
	mimeType := mime.TypeByExtension(filepath.Ext(path))
	if mimeType == "" {
		mimeType = http.DetectContentType(content)
	}
	mimeType, _, _ = strings.Cut(mimeType, ";")
	mimeType = strings.TrimSpace(mimeType)

	switch {
	case mimeType == "application/json":
		return "json"
	case mimeType == "application/xml", mimeType == "text/xml", strings.HasSuffix(mimeType, "+xml"):
		return "jsonml"
	default:
		return ""
	}
}

// computePatch adapts both documents under family and returns the edit
// operations turning the original into the changed document.
func computePatch(family string, originalBytes, changedBytes []byte) ([]*treedelta.DetachedContextOperation, error) {
	fam, err := resolveFamily(family)
	if err != nil {
		return nil, err
	}

	originalPayload, err := fam.Payload.ParseString(string(originalBytes))
	if err != nil {
		return nil, err
	}
	changedPayload, err := fam.Payload.ParseString(string(changedBytes))
	if err != nil {
		return nil, err
	}

	treeA, _, err := fam.Tree.AdaptDocument(originalPayload)
	if err != nil {
		return nil, err
	}
	treeB, _, err := fam.Tree.AdaptDocument(changedPayload)
	if err != nil {
		return nil, err
	}

	cfg := treedelta.New()
	return cfg.Diff(context.Background(), treeA, treeB, fam.Tree.Hasher())
}

func resolveFamily(name string) (adapter.Family, error) {
	switch name {
	case "json":
		var a jsonobj.Adapter
		return adapter.Family{
			Name:           "json",
			Tree:           a,
			Payload:        a,
			Fragment:       a,
			HandlerFactory: jsonobj.HandlerFactory{},
		}, nil
	case "jsonml":
		var a jsonml.Adapter
		return adapter.Family{
			Name:           "jsonml",
			Tree:           a,
			Payload:        a,
			Fragment:       a,
			HandlerFactory: jsonml.HandlerFactory{},
		}, nil
	default:
		return adapter.Family{}, treedelta.NewError(treedelta.KindUnsupportedType, "resolveFamily", "unknown document family "+name, nil)
	}
}
