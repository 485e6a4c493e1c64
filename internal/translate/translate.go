// Package translate routes error and diagnostic message formatting
// through a locale-aware printer instead of bare fmt.Sprintf calls.
package translate

import (
	"log"

	"github.com/jeandeaual/go-locale"

	"golang.org/x/text/message"
)

var printer *message.Printer

func init() {
	locales, err := locale.GetLocales()
	if err != nil {
		log.Printf("z33: locale: %v", err)
	}

	if len(locales) == 0 {
		locales = []string{"en-US"}
	}

	printer = message.NewPrinter(message.MatchLanguage(locales...))
}

// From formats an en-US Sprintf-style reference into the active locale.
func From(key message.Reference, args ...any) string {
	return printer.Sprintf(key, args...)
}
