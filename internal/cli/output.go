package cli

import (
	"encoding/json"
	"io"

	"tacc.org/internal/tacc"
)

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func fixed(v tacc.Vector) []string {
	amounts := v.Amounts()
	out := make([]string, len(amounts))
	for i, a := range amounts {
		out[i] = a.StringFixedBank(2)
	}
	return out
}

func toAny(in []string) []any {
	out := make([]any, len(in))
	for i, s := range in {
		out[i] = s
	}
	return out
}
