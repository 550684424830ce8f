package mergecmd

import (
	"fmt"
	"io"

	"github.com/lehigh-university-libraries/bookmerge/internal/isbn"
)

func executeISBN(w io.Writer, args []string) error {
	rows := make([][]string, 0, len(args))
	invalid := 0
	for _, arg := range args {
		cleaned := isbn.Clean(arg)
		valid := isbn.Valid13(cleaned)
		status := "valid"
		if !valid {
			status = "invalid"
			invalid++
		}
		rows = append(rows, []string{arg, cleaned, status})
	}

	fmt.Fprintln(w, renderTable([]string{"Input", "Cleaned", "ISBN-13"}, rows, nil))

	if invalid > 0 {
		return fmt.Errorf("%d of %d ISBN-13 values failed validation", invalid, len(args))
	}
	return nil
}
