// Package render writes the mutator config block.
//
// The grammar is fixed and consumed byte-for-byte by downstream tooling:
//
//	[/CustomObjects/Mutators/CustomObjects.CustomObjects_C]
//	;Index <n>
//	Assets=BlueprintGeneratedClass'<path>_C'
//	;Index <n>
//	StaticMeshAssets=StaticMesh'<path>'
//	Configs=(Scenario=<s>, Type=<t>, AssetIndex=<n>, Location=<x;y;z>, Rotation=<r;p;y>[, Once])
package render

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/roach88/customobjects/internal/ir"
)

// SectionHeader opens the config block.
const SectionHeader = "[/CustomObjects/Mutators/CustomObjects.CustomObjects_C]"

// BlueprintClassSuffix is appended to blueprint paths in declarations.
const BlueprintClassSuffix = "_C"

// OnceToken marks entries that spawn once.
const OnceToken = "Once"

// Write renders res to w. Declarations are ordered by index; entries keep
// their processing order.
func Write(w io.Writer, res *ir.Result) error {
	bw := bufio.NewWriter(w)

	fmt.Fprintln(bw, SectionHeader)

	for _, a := range byIndex(res.Blueprints) {
		fmt.Fprintf(bw, ";Index %d\nAssets=BlueprintGeneratedClass'%s%s'\n", a.Index, a.Path, BlueprintClassSuffix)
	}
	for _, a := range byIndex(res.Meshes) {
		fmt.Fprintf(bw, ";Index %d\nStaticMeshAssets=StaticMesh'%s'\n", a.Index, a.Path)
	}
	for _, e := range res.Entries {
		fmt.Fprintln(bw, ConfigLine(e))
	}

	return bw.Flush()
}

// Bytes renders res into memory.
func Bytes(res *ir.Result) []byte {
	var buf bytes.Buffer
	_ = Write(&buf, res) // bytes.Buffer writes cannot fail
	return buf.Bytes()
}

// ConfigLine renders one Configs= line without the trailing newline.
func ConfigLine(e ir.Entry) string {
	params := []string{
		"Scenario=" + e.Scenario,
		"Type=" + e.Kind.String(),
		fmt.Sprintf("AssetIndex=%d", e.AssetIndex),
		"Location=" + e.Location.Format(),
		"Rotation=" + e.Rotation.Format(),
	}
	if e.Once {
		params = append(params, OnceToken)
	}
	return "Configs=(" + strings.Join(params, ", ") + ")"
}

func byIndex(refs []ir.AssetRef) []ir.AssetRef {
	out := make([]ir.AssetRef, len(refs))
	copy(out, refs)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Index < out[j].Index })
	return out
}
