// Package munin emits the munin plugin protocol: one metric per line on
// stdout, with separate autoconf, config and fetch responses.
package munin

import (
	"fmt"
	"io"
	"strings"
)

// Graph holds the fixed per-plugin graph declaration printed in config
// mode.
type Graph struct {
	Title    string
	VLabel   string
	Category string
	Args     string
	Info     string
}

// Field is one metric of a graph. Value is preformatted; an empty Value
// means unknown and is printed as "U" so rrd records a gap instead of a
// bogus zero.
type Field struct {
	Name    string
	Label   string
	Warning string
	Info    string
	Value   string
}

// FieldName sanitizes a raw device identifier into a protocol field
// name: lowercase, every non-alphanumeric byte replaced with an
// underscore. The root mount "/" maps to "root" so it stays readable.
func FieldName(raw string) string {
	if raw == "/" {
		return "root"
	}
	var b strings.Builder
	for _, r := range strings.ToLower(raw) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		} else {
			b.WriteByte('_')
		}
	}
	return b.String()
}

// WriteConfig prints the graph declaration followed by each field's
// label lines. With dirty set, current values are appended so a single
// invocation answers both config and fetch (munin's dirtyconfig
// capability).
func WriteConfig(w io.Writer, g Graph, fields []Field, dirty bool) {
	fmt.Fprintf(w, "graph_title %s\n", g.Title)
	if g.Args != "" {
		fmt.Fprintf(w, "graph_args %s\n", g.Args)
	}
	if g.VLabel != "" {
		fmt.Fprintf(w, "graph_vlabel %s\n", g.VLabel)
	}
	if g.Category != "" {
		fmt.Fprintf(w, "graph_category %s\n", g.Category)
	}
	if g.Info != "" {
		fmt.Fprintf(w, "graph_info %s\n", g.Info)
	}
	for _, f := range fields {
		fmt.Fprintf(w, "%s.label %s\n", f.Name, f.Label)
		if f.Warning != "" {
			fmt.Fprintf(w, "%s.warning %s\n", f.Name, f.Warning)
		}
		if f.Info != "" {
			fmt.Fprintf(w, "%s.info %s\n", f.Name, f.Info)
		}
	}
	if dirty {
		WriteValues(w, fields)
	}
}

// WriteValues prints one value line per field.
func WriteValues(w io.Writer, fields []Field) {
	for _, f := range fields {
		v := f.Value
		if v == "" {
			v = "U"
		}
		fmt.Fprintf(w, "%s.value %s\n", f.Name, v)
	}
}

// WriteAutoconf prints the autoconf answer. A refused autoconf still
// exits zero; the reason goes into the "no (...)" line.
func WriteAutoconf(w io.Writer, ok bool, reason string) {
	if ok {
		fmt.Fprintln(w, "yes")
		return
	}
	fmt.Fprintf(w, "no (%s)\n", reason)
}
