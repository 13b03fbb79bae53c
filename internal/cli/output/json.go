package output

import (
	"encoding/json"
	"io"

	"github.com/yndnr/respkv/pkg/resp"
)

// JSONFormatter prints each reply as a JSON document. Errors become
// {"error": "..."} objects and nulls become null.
type JSONFormatter struct{}

func (JSONFormatter) Format(w io.Writer, v resp.Value) error {
	return json.NewEncoder(w).Encode(toJSON(v))
}

func toJSON(v resp.Value) any {
	switch v.Kind {
	case resp.KindSimpleString, resp.KindBulkString:
		return v.Str
	case resp.KindSimpleError:
		return map[string]string{"error": v.Str}
	case resp.KindInteger:
		return v.Int
	case resp.KindArray:
		out := make([]any, len(v.Elems))
		for i, e := range v.Elems {
			out[i] = toJSON(e)
		}
		return out
	default:
		return nil
	}
}
