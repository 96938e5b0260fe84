//go:build !sonic

package syncmsg

import (
	"github.com/goccy/go-json"
)

var (
	JSONMarshal   = json.Marshal
	JSONUnmarshal = json.Unmarshal
)

// JSONMarshalIndent is used for files people may want to read, like the baseline
func JSONMarshalIndent(v any) ([]byte, error) {
	return json.MarshalIndent(v, "", "  ")
}
