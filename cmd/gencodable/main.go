// Command gencodable is a go:generate helper that emits fixed-layout
// SizeInByte/Encode/Decode methods for structs marked with a
// "//go:generate gencodable" directive in their doc comment. It exists for
// same-binary serialization of small stats structs (histogram
// checkpoints, periodic snapshots) where an unsafe memory copy is cheap
// and the bytes are only decoded by a build with the same memory layout;
// they never cross an architecture boundary.
package main

import (
	"bytes"
	"errors"
	"flag"
	"fmt"
	"go/ast"
	"go/format"
	"go/parser"
	"go/token"
	"go/types"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/tools/go/packages"
)

type target struct {
	name        string
	fixedLayout bool
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "gencodable: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	fileFlag := flag.String("file", "", "go file containing //go:generate gencodable")
	flag.Parse()

	fileName := sourceFileName(*fileFlag)
	if fileName == "" {
		return errors.New("missing source file; set GOFILE or pass -file")
	}
	if filepath.Ext(fileName) != ".go" {
		return fmt.Errorf("source file must be a .go file: %s", fileName)
	}

	dir, err := os.Getwd()
	if err != nil {
		return err
	}

	pkg, file, err := loadTargetFile(dir, fileName)
	if err != nil {
		return err
	}

	targets, err := collectTargets(file, pkg.TypesInfo, pkg.Fset)
	if err != nil {
		return err
	}
	if len(targets) == 0 {
		return fmt.Errorf("no gencodable structs found in %s", fileName)
	}

	out, err := render(pkg.Name, targets)
	if err != nil {
		return err
	}

	base := strings.TrimSuffix(fileName, ".go")
	outPath := filepath.Join(dir, base+"_binary.go")
	return os.WriteFile(outPath, out, 0o644)
}

func sourceFileName(flagValue string) string {
	if name := strings.TrimSpace(flagValue); name != "" {
		return filepath.Base(name)
	}
	if flag.NArg() > 0 {
		if name := strings.TrimSpace(flag.Arg(0)); name != "" {
			return filepath.Base(name)
		}
	}
	return filepath.Base(strings.TrimSpace(os.Getenv("GOFILE")))
}

func loadTargetFile(dir, fileName string) (*packages.Package, *ast.File, error) {
	cfg := &packages.Config{
		Mode: packages.NeedName |
			packages.NeedSyntax |
			packages.NeedTypes |
			packages.NeedTypesInfo |
			packages.NeedFiles |
			packages.NeedCompiledGoFiles,
		Dir: dir,
		ParseFile: func(fset *token.FileSet, filename string, src []byte) (*ast.File, error) {
			return parser.ParseFile(fset, filename, src, parser.ParseComments)
		},
	}
	pkgs, err := packages.Load(cfg, ".")
	if err != nil {
		return nil, nil, err
	}
	if len(pkgs) == 0 {
		return nil, nil, errors.New("no packages found")
	}
	pkg := pkgs[0]
	if len(pkg.Errors) > 0 {
		return nil, nil, fmt.Errorf("type check failed: %s", pkg.Errors[0])
	}
	if pkg.Fset == nil {
		return nil, nil, errors.New("missing fileset")
	}

	for i, file := range pkg.Syntax {
		var name string
		if i < len(pkg.CompiledGoFiles) {
			name = pkg.CompiledGoFiles[i]
		} else if i < len(pkg.GoFiles) {
			name = pkg.GoFiles[i]
		}
		if filepath.Base(name) == fileName {
			return pkg, file, nil
		}
	}
	return nil, nil, fmt.Errorf("file %s not found in package", fileName)
}

func collectTargets(file *ast.File, info *types.Info, fset *token.FileSet) ([]target, error) {
	var results []target
	for _, decl := range file.Decls {
		gen, ok := decl.(*ast.GenDecl)
		if !ok || gen.Tok != token.TYPE {
			continue
		}
		for _, spec := range gen.Specs {
			typeSpec, ok := spec.(*ast.TypeSpec)
			if !ok || !hasGencodableDirective(typeSpec.Doc) && !hasGencodableDirective(gen.Doc) {
				continue
			}
			if _, ok := typeSpec.Type.(*ast.StructType); !ok {
				pos := fset.Position(typeSpec.Pos())
				return nil, fmt.Errorf("gencodable requires a struct type at %s", pos)
			}

			obj := info.Defs[typeSpec.Name]
			name, ok := obj.(*types.TypeName)
			if obj == nil || !ok {
				pos := fset.Position(typeSpec.Pos())
				return nil, fmt.Errorf("missing type info for %s at %s", typeSpec.Name.Name, pos)
			}

			results = append(results, target{
				name:        typeSpec.Name.Name,
				fixedLayout: isFixedLayout(name.Type(), make(map[types.Type]bool), make(map[types.Type]bool)),
			})
		}
	}
	return results, nil
}

func hasGencodableDirective(group *ast.CommentGroup) bool {
	if group == nil {
		return false
	}
	for _, comment := range group.List {
		for _, line := range commentLines(comment.Text) {
			if isGencodableLine(line) {
				return true
			}
		}
	}
	return false
}

func commentLines(text string) []string {
	text = strings.TrimSpace(text)
	switch {
	case strings.HasPrefix(text, "//"):
		return []string{strings.TrimSpace(strings.TrimPrefix(text, "//"))}
	case strings.HasPrefix(text, "/*"):
		body := strings.TrimSuffix(strings.TrimPrefix(text, "/*"), "*/")
		lines := strings.Split(body, "\n")
		for i, line := range lines {
			lines[i] = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(line), "*"))
		}
		return lines
	default:
		return []string{text}
	}
}

func isGencodableLine(line string) bool {
	fields := strings.Fields(strings.TrimSpace(line))
	return len(fields) >= 2 && fields[0] == "go:generate" && fields[1] == "gencodable"
}

// isFixedLayout reports whether t's in-memory representation contains no
// pointers, slices, maps, strings, channels, or interfaces, making an
// unsafe byte-for-byte copy safe within a single process.
func isFixedLayout(t types.Type, cache, visiting map[types.Type]bool) bool {
	if t == nil {
		return false
	}
	if val, ok := cache[t]; ok {
		return val
	}
	if visiting[t] {
		return false
	}
	visiting[t] = true

	var result bool
	switch tt := t.(type) {
	case *types.Basic:
		result = tt.Info()&types.IsString == 0 && tt.Kind() != types.UnsafePointer
	case *types.Pointer, *types.Slice, *types.Map, *types.Chan, *types.Interface, *types.Signature:
		result = false
	case *types.Array:
		result = isFixedLayout(tt.Elem(), cache, visiting)
	case *types.Struct:
		result = true
		for i := 0; i < tt.NumFields(); i++ {
			if !isFixedLayout(tt.Field(i).Type(), cache, visiting) {
				result = false
				break
			}
		}
	case *types.Named:
		result = isFixedLayout(tt.Underlying(), cache, visiting)
	default:
		result = false
	}

	cache[t] = result
	delete(visiting, t)
	return result
}

func render(pkgName string, targets []target) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString("// Code generated by gencodable; DO NOT EDIT.\n\n")
	fmt.Fprintf(&buf, "package %s\n\n", pkgName)

	needUnsafe := false
	for _, t := range targets {
		if t.fixedLayout {
			needUnsafe = true
			break
		}
	}
	if needUnsafe {
		buf.WriteString("import \"unsafe\"\n\n")
	}

	for i, t := range targets {
		if i > 0 {
			buf.WriteString("\n")
		}
		if t.fixedLayout {
			writeFixedLayoutMethods(&buf, t.name)
			continue
		}
		writeStubMethods(&buf, t.name)
	}

	return format.Source(buf.Bytes())
}

func writeFixedLayoutMethods(buf *bytes.Buffer, typeName string) {
	recv := receiver(typeName)
	fmt.Fprintf(buf, "func (%s %s) SizeInByte() int {\n\treturn int(unsafe.Sizeof(%s))\n}\n\n", recv, typeName, recv)

	fmt.Fprintf(buf, "func (%s %s) Encode(dst []byte) []byte {\n", recv, typeName)
	fmt.Fprintf(buf, "\tsize := %s.SizeInByte()\n", recv)
	buf.WriteString("\tif cap(dst) < size {\n\t\tdst = make([]byte, size)\n\t} else {\n\t\tdst = dst[:size]\n\t}\n\n")
	fmt.Fprintf(buf, "\tsrc := unsafe.Slice((*byte)(unsafe.Pointer(&%s)), size)\n", recv)
	buf.WriteString("\tcopy(dst, src)\n\treturn dst\n}\n\n")

	fmt.Fprintf(buf, "func (%s) Decode(src []byte) %s {\n", typeName, typeName)
	fmt.Fprintf(buf, "\tvar result %s\n", typeName)
	buf.WriteString("\tsize := int(unsafe.Sizeof(result))\n")
	buf.WriteString("\tdst := unsafe.Slice((*byte)(unsafe.Pointer(&result)), size)\n")
	buf.WriteString("\tcopy(dst, src)\n\treturn result\n}\n")
}

func writeStubMethods(buf *bytes.Buffer, typeName string) {
	recv := receiver(typeName)
	fmt.Fprintf(buf, "func (%s %s) SizeInByte() int {\n\treturn 0\n}\n\n", recv, typeName)
	fmt.Fprintf(buf, "func (%s %s) Encode(dst []byte) []byte {\n\treturn nil\n}\n\n", recv, typeName)
	fmt.Fprintf(buf, "func (%s %s) Decode(src []byte) %s {\n\tvar result %s\n\treturn result\n}\n", recv, typeName, typeName, typeName)
}

func receiver(typeName string) string {
	if typeName == "" {
		return "v"
	}
	r := typeName[:1]
	if r[0] < 'A' || r[0] > 'Z' {
		return "v"
	}
	return strings.ToLower(r)
}
