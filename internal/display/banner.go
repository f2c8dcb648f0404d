package display

import (
	"fmt"
	"io"

	"github.com/backmassage/speedbatch/internal/term"
)

// PrintBanner writes the ASCII art banner and version line to w; uses
// Magenta if colors are enabled.
func PrintBanner(w io.Writer, version string) {
	fmt.Fprint(w, term.Magenta)
	fmt.Fprint(w, `                         _ _           _       _
 ___ _ __   ___  ___  __| | |__   __ _| |_ ___| |__
/ __| '_ \ / _ \/ _ \/ _`+"`"+` | '_ \ / _`+"`"+` | __/ __| '_ \
\__ \ |_) |  __/  __/ (_| | |_) | (_| | || (__| | | |
|___/ .__/ \___|\___|\__,_|_.__/ \__,_|\__\___|_| |_|
    |_|
`)
	fmt.Fprint(w, term.NC)
	if version != "" {
		fmt.Fprintf(w, "%sversion %s%s\n", term.Cyan, version, term.NC)
	}
	fmt.Fprintln(w)
}
