package kit

import (
	"fmt"
	"os"
	"runtime"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"
)

type kitsFile struct {
	Kits []*Kit `hcl:"kit,block"`
}

// LoadFile decodes the kits defined in an HCL file. Expressions may refer
// to env.NAME and host.os / host.arch. Macro placeholders are written
// "%%{Name}" since "%{" starts an HCL template directive.
func LoadFile(path string) ([]*Kit, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read kits: %w", err)
	}
	return Parse(src, path)
}

// Parse decodes kits from HCL source.
func Parse(src []byte, filename string) ([]*Kit, error) {
	parser := hclparse.NewParser()
	f, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse kits: %w", diags)
	}
	var file kitsFile
	if diags := gohcl.DecodeBody(f.Body, evalContext(), &file); diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode kits: %w", diags)
	}
	seen := make(map[string]bool, len(file.Kits))
	for _, k := range file.Kits {
		if seen[k.Name] {
			return nil, fmt.Errorf("duplicate kit %q in %s", k.Name, filename)
		}
		seen[k.Name] = true
	}
	return file.Kits, nil
}

// Find returns the kit called name.
func Find(kits []*Kit, name string) (*Kit, bool) {
	for _, k := range kits {
		if k.Name == name {
			return k, true
		}
	}
	return nil, false
}

func evalContext() *hcl.EvalContext {
	env := map[string]cty.Value{}
	for _, kv := range os.Environ() {
		if k, v, ok := strings.Cut(kv, "="); ok && hclsyntaxIdent(k) {
			env[k] = cty.StringVal(v)
		}
	}
	return &hcl.EvalContext{
		Variables: map[string]cty.Value{
			"env": cty.ObjectVal(env),
			"host": cty.ObjectVal(map[string]cty.Value{
				"os":   cty.StringVal(runtime.GOOS),
				"arch": cty.StringVal(runtime.GOARCH),
			}),
		},
	}
}

// hclsyntaxIdent reports whether name can be used as env.NAME.
func hclsyntaxIdent(name string) bool {
	for i, r := range name {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case i > 0 && (r >= '0' && r <= '9' || r == '-'):
		default:
			return false
		}
	}
	return name != ""
}
