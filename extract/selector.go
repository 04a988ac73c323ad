package extract

import (
	"fmt"
	"strings"

	"github.com/andybalholm/cascadia"
)

// StartDownloadText is the anchor text that marks the final download trigger
// on a quality's server page. It is matched case-sensitively.
const StartDownloadText = "Start Download Now"

var (
	infoBlockSel  = cascadia.MustCompile("p.info")
	infoNameSel   = cascadia.MustCompile("p.info b")
	serverLinkSel = cascadia.MustCompile("a[href*='/server/']")
	anchorSel     = cascadia.MustCompile("a")
)

// brandImageSelector compiles the poster selector for a brand substring.
func brandImageSelector(brand string) (cascadia.Selector, error) {
	brand = strings.ReplaceAll(brand, `"`, `\"`)
	return cascadia.Compile(fmt.Sprintf(`img[src*="%s"]`, brand))
}
