package theme

import (
	"fmt"
	"io"
)

// Banner returns the startup banner with the watched handle and trigger phrase.
func Banner(handle, phrase string) string {
	const cyan = "\033[36m"
	const yellow = "\033[33m"
	const reset = "\033[0m"

	art := "" +
		cyan + "  ╦═╗╦ ╦╔═╗╔═╗╦ ╦╔═╗╦═╗╔╦╗\n" + reset +
		cyan + "  ╠╦╝║ ║║ ╦║ ╦║ ║╠═╣╠╦╝ ║║\n" + reset +
		cyan + "  ╩╚═╚═╝╚═╝╚═╝╚═╝╩ ╩╩╚══╩╝\n" + reset +
		yellow + "  ─────────────────────────\n" + reset
	return art + fmt.Sprintf("  watching @%s for %q\n", handle, phrase)
}

// PrintBanner writes the banner to w.
func PrintBanner(w io.Writer, handle, phrase string) {
	fmt.Fprint(w, Banner(handle, phrase))
}
