// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"
	"io"

	"github.com/charmbracelet/fang"

	"github.com/relkit/relkit/internal/issue"
)

// renderError writes the catalogue entry linked to err, if any, followed by
// the formatted error.
func renderError(w io.Writer, err error, verbose bool) {
	var ae *issue.ActionableError
	if errors.As(err, &ae) {
		if entry := ae.Issue(); entry != nil {
			if rendered, rerr := entry.Render("dark"); rerr == nil {
				fmt.Fprint(w, rendered)
			}
		}
	}
	fmt.Fprintln(w, ErrorStyle.Render("ERROR")+" "+issue.FormatForDisplay(err, verbose))
}

// errorHandler renders command failures for fang.
func errorHandler(verbose *bool) fang.ErrorHandler {
	return func(w io.Writer, _ fang.Styles, err error) {
		renderError(w, err, *verbose)
	}
}
